package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/watson-stark/internal/assistant"
	"github.com/raphaelgruber/watson-stark/internal/bot"
	"github.com/raphaelgruber/watson-stark/internal/channel"
	"github.com/raphaelgruber/watson-stark/internal/channel/telegram"
	"github.com/raphaelgruber/watson-stark/internal/channel/twilio"
	"github.com/raphaelgruber/watson-stark/internal/config"
	"github.com/raphaelgruber/watson-stark/internal/db"
	"github.com/raphaelgruber/watson-stark/internal/llm"
	"github.com/raphaelgruber/watson-stark/internal/tools"
)

// stores groups the collection stores over the shared client.
type stores struct {
	conversations *db.ConversationStore
	reminders     *db.ReminderStore
	todos         *db.TodoStore
	knowledge     *db.KnowledgeStore
}

func newStores(client *db.Client) stores {
	return stores{
		conversations: db.NewConversationStore(client),
		reminders:     db.NewReminderStore(client),
		todos:         db.NewTodoStore(client),
		knowledge:     db.NewKnowledgeStore(client),
	}
}

// newBot wires provider, tools and orchestrator into a bot.
func newBot(ctx context.Context, s stores) (*bot.Bot, error) {
	provider, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	deps := &tools.Dependencies{
		Todos:     s.todos,
		Reminders: s.reminders,
		Knowledge: s.knowledge,
		Metrics:   collector,
		Logger:    logger,
		Location:  cfg.Location,
	}

	embedder, err := llm.NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	// A nil *llm.Embedder must not end up in the interface.
	if embedder != nil {
		embedder.SetMetrics(collector)
		deps.Embedder = embedder
	}

	var toolOpts []tools.Option
	if cfg.LLMProvider == config.ProviderXAI {
		toolOpts = append(toolOpts, tools.WithWebSearchStub())
	}
	registry := tools.NewRegistry(deps, toolOpts...)
	orchestrator := assistant.New(provider, registry, s.conversations, assistant.Options{
		CallTimeout: cfg.LLMCallTimeout,
		Metrics:     collector,
	}, logger)

	logger.Info("assistant ready", "provider", provider.Name(), "model", provider.Model(), "embeddings", embedder != nil)

	return bot.New(orchestrator, bot.Stores{
		Conversations: s.conversations,
		Reminders:     s.reminders,
		Todos:         s.todos,
	}, logger,
		bot.WithMetrics(collector),
		bot.WithPoweredBy(provider.Name()+" "+provider.Model()),
	), nil
}

// adapters holds the channel adapters enabled by config.
type adapters struct {
	telegram *telegram.Adapter
	twilio   *twilio.Adapter
}

// newAdapters creates the configured channel adapters. handler may be nil
// when only outbound sends are needed.
func newAdapters(handler channel.Handler, log *slog.Logger) (adapters, error) {
	var a adapters
	if cfg.UsesTelegram() {
		var opts []telegram.Option
		if cfg.TelegramWebhookURL != "" {
			opts = append(opts, telegram.WithWebhook(cfg.TelegramWebhookURL))
		}
		tg, err := telegram.New(cfg.BotToken, handler, log, opts...)
		if err != nil {
			return a, err
		}
		a.telegram = tg
	}
	if cfg.UsesTwilio() {
		a.twilio = twilio.New(twilio.Config{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			From:       cfg.TwilioFrom,
		}, handler, log)
	}
	return a, nil
}

// senders maps channel names to outbound senders for the sweeper.
func (a adapters) senders() map[string]channel.Sender {
	m := map[string]channel.Sender{}
	if a.telegram != nil {
		m[channel.Telegram] = a.telegram
	}
	if a.twilio != nil {
		m[channel.WhatsApp] = a.twilio
	}
	return m
}

func newSweeper(s stores, a adapters) *bot.Sweeper {
	fallback := channel.Telegram
	if a.telegram == nil {
		fallback = channel.WhatsApp
	}
	return bot.NewSweeper(s.reminders, a.senders(), logger,
		bot.WithInterval(cfg.ReminderInterval),
		bot.WithDefaultChannel(fallback),
		bot.WithSweeperMetrics(collector),
	)
}

func validateConfig(check func() error) error {
	if err := check(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

