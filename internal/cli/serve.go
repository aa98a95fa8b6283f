package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raphaelgruber/watson-stark/internal/metrics"
	"github.com/raphaelgruber/watson-stark/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long: `Run the configured channels, the HTTP server and the reminder sweeper
until interrupted.

The HTTP server always exposes /health and /metrics. It also receives the
WhatsApp webhook and, when TELEGRAM_WEBHOOK_URL is set, Telegram updates.

Examples:
  watson serve
  CHANNEL=both watson serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := validateConfig(cfg.Validate); err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := newStores(dbClient)
	b, err := newBot(ctx, s)
	if err != nil {
		return err
	}
	a, err := newAdapters(b, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg.HTTPAddr, logger)
	srv.Setup()
	srv.MountMetrics(metrics.NewRegistry(collector))
	if a.telegram != nil {
		a.telegram.Mount(srv.Echo())
	}
	if a.twilio != nil {
		a.twilio.Mount(srv.Echo())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if a.telegram != nil {
		g.Go(func() error { return a.telegram.Run(gctx) })
	}
	sweeper := newSweeper(s, a)
	g.Go(func() error { return sweeper.Run(gctx) })

	logger.Info("watson is running", "channel", cfg.Channel, "addr", cfg.HTTPAddr)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("watson stopped")
	return nil
}
