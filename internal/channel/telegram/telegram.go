// Package telegram connects the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	"github.com/raphaelgruber/watson-stark/internal/channel"
)

// WebhookPath is where Telegram posts updates in webhook mode.
const WebhookPath = "/telegram/webhook"

const pollTimeoutSeconds = 60

// Option configures an Adapter.
type Option func(*options)

type options struct {
	endpoint   string
	webhookURL string
	client     *http.Client
}

// WithAPIEndpoint overrides the Bot API endpoint format, e.g. for tests.
func WithAPIEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithWebhook switches from long polling to webhook delivery at url.
func WithWebhook(url string) Option {
	return func(o *options) { o.webhookURL = url }
}

// Adapter receives Telegram messages and delivers replies and pushes.
type Adapter struct {
	bot        *tgbotapi.BotAPI
	handler    channel.Handler
	webhookURL string
	logger     *slog.Logger

	// base outlives webhook requests so replies are not cut short when
	// Telegram closes the connection.
	mu       sync.RWMutex
	base     context.Context
	inflight sync.WaitGroup
}

// New authenticates against the Bot API and returns an adapter.
func New(token string, handler channel.Handler, logger *slog.Logger, opts ...Option) (*Adapter, error) {
	o := options{
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: (pollTimeoutSeconds + 10) * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Adapter{
		bot:        bot,
		handler:    handler,
		webhookURL: o.webhookURL,
		logger:     logger.With("channel", channel.Telegram),
		base:       context.Background(),
	}, nil
}

// Mount registers the webhook route. It is a no-op in polling mode.
func (a *Adapter) Mount(e *echo.Echo) {
	if a.webhookURL == "" {
		return
	}
	e.POST(WebhookPath, a.handleWebhook)
}

// Run receives updates until ctx is cancelled and waits for in-flight
// replies before returning.
func (a *Adapter) Run(ctx context.Context) error {
	a.mu.Lock()
	a.base = ctx
	a.mu.Unlock()
	defer a.inflight.Wait()

	if a.webhookURL != "" {
		wh, err := tgbotapi.NewWebhook(a.webhookURL)
		if err != nil {
			return fmt.Errorf("telegram webhook config: %w", err)
		}
		if _, err := a.bot.Request(wh); err != nil {
			return fmt.Errorf("register telegram webhook: %w", err)
		}
		a.logger.Info("telegram webhook registered", "url", a.webhookURL)
		<-ctx.Done()
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := a.bot.GetUpdatesChan(u)
	a.logger.Info("telegram long polling started")

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			a.logger.Info("telegram long polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			a.dispatch(ctx, update)
		}
	}
}

func (a *Adapter) handleWebhook(c echo.Context) error {
	update, err := a.bot.HandleUpdate(c.Request())
	if err != nil {
		a.logger.Warn("invalid telegram update", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}
	a.mu.RLock()
	base := a.base
	a.mu.RUnlock()
	a.dispatch(base, *update)
	return c.NoContent(http.StatusOK)
}

// dispatch handles each message on its own goroutine; users are not
// serialized against each other.
func (a *Adapter) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		a.handle(ctx, msg)
	}()
}

func (a *Adapter) handle(ctx context.Context, msg *tgbotapi.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	a.logger.Info("message received", "user_id", msg.From.ID, "user_name", msg.From.FirstName)

	if !msg.IsCommand() {
		if _, err := a.bot.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)); err != nil {
			a.logger.Debug("typing action failed", "error", err)
		}
	}

	reply := a.handler.HandleMessage(ctx, channel.Inbound{
		Channel:  channel.Telegram,
		ChatID:   chatID,
		UserID:   strconv.FormatInt(msg.From.ID, 10),
		UserName: msg.From.FirstName,
		Text:     msg.Text,
	})
	if reply == "" {
		return
	}
	if err := a.Send(ctx, chatID, reply); err != nil {
		a.logger.Error("reply failed", "chat_id", chatID, "error", err)
	}
}

// Send delivers text to chatID, split into Telegram-sized messages.
func (a *Adapter) Send(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	for _, chunk := range channel.Split(text, channel.MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.bot.Send(tgbotapi.NewMessage(id, chunk)); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}
