package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Deliver due reminders once",
	Long: `Run a single reminder sweep through the configured channels and print
how many reminders were sent. Useful from cron when serve is not running.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	if err := validateConfig(cfg.ValidateChannel); err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newAdapters(nil, logger)
	if err != nil {
		return err
	}

	sent, err := newSweeper(newStores(dbClient), a).SweepOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Sent %d reminders\n", sent)
	return nil
}
