// Package bot turns channel messages into assistant replies and pushes due
// reminders back to users.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/watson-stark/internal/assistant"
	"github.com/raphaelgruber/watson-stark/internal/channel"
	"github.com/raphaelgruber/watson-stark/internal/metrics"
)

// User-facing replies for failures.
const (
	ReplyGenericError = "Sorry, I encountered an error processing your message. Please try again."
	ReplyConfigError  = "⚠️ API configuration error. Please contact the bot administrator."
	ReplyStatsError   = "Sorry, could not retrieve stats."
	ReplyUnknown      = "I don't know that command. Type /help to see what I can do."
)

// Responder answers free-form messages.
type Responder interface {
	Respond(ctx context.Context, in assistant.Inbound) (string, error)
}

// ConversationStats counts and clears conversation turns.
type ConversationStats interface {
	Count(ctx context.Context, userID string) (int, error)
	DeleteForUser(ctx context.Context, userID string) (int, error)
}

// ReminderStats counts pending reminders.
type ReminderStats interface {
	CountActive(ctx context.Context, userID string) (int, error)
}

// TodoStats counts todos by completion state.
type TodoStats interface {
	Count(ctx context.Context, userID string, completed bool) (int, error)
}

// Stores are the read models behind the slash commands.
type Stores struct {
	Conversations ConversationStats
	Reminders     ReminderStats
	Todos         TodoStats
}

// Bot routes slash commands itself and everything else to the Responder.
type Bot struct {
	responder Responder
	stores    Stores
	metrics   *metrics.Collector
	logger    *slog.Logger
	poweredBy string
}

// Option configures a Bot.
type Option func(*Bot)

// WithMetrics counts message failures.
func WithMetrics(m *metrics.Collector) Option {
	return func(b *Bot) { b.metrics = m }
}

// WithPoweredBy names the model in the /help footer.
func WithPoweredBy(label string) Option {
	return func(b *Bot) { b.poweredBy = label }
}

// New creates a Bot.
func New(responder Responder, stores Stores, logger *slog.Logger, opts ...Option) *Bot {
	b := &Bot{responder: responder, stores: stores, logger: logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleMessage returns the reply for in. It never fails: errors are logged
// and turned into an apology.
func (b *Bot) HandleMessage(ctx context.Context, in channel.Inbound) string {
	text := strings.TrimSpace(in.Text)
	if strings.HasPrefix(text, "/") {
		return b.command(ctx, in, text)
	}
	if text == "" {
		return ""
	}

	answer, err := b.responder.Respond(ctx, assistant.Inbound{
		UserID:   in.UserID,
		UserName: in.UserName,
		Channel:  in.Channel,
		Text:     text,
	})
	if err == nil {
		return answer
	}

	b.logger.Error("message failed", "channel", in.Channel, "user_id", in.UserID, "error", err)
	if b.metrics != nil {
		b.metrics.IncEvent(metrics.EventMessageFailure)
	}
	if errors.Is(err, assistant.ErrConfiguration) {
		return ReplyConfigError
	}
	return ReplyGenericError
}

// command handles /start, /help, /stats and /forget. A "@botname" suffix
// on the command is ignored.
func (b *Bot) command(ctx context.Context, in channel.Inbound, text string) string {
	name := strings.Fields(text)[0]
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}

	switch strings.ToLower(name) {
	case "/start":
		return startText(in.UserName)
	case "/help":
		return helpText(b.poweredBy)
	case "/stats":
		return b.stats(ctx, in.UserID)
	case "/forget":
		return b.forget(ctx, in.UserID)
	default:
		return ReplyUnknown
	}
}

func (b *Bot) stats(ctx context.Context, userID string) string {
	conversations, err := b.stores.Conversations.Count(ctx, userID)
	if err != nil {
		return b.statsFailed(userID, err)
	}
	reminders, err := b.stores.Reminders.CountActive(ctx, userID)
	if err != nil {
		return b.statsFailed(userID, err)
	}
	active, err := b.stores.Todos.Count(ctx, userID, false)
	if err != nil {
		return b.statsFailed(userID, err)
	}
	completed, err := b.stores.Todos.Count(ctx, userID, true)
	if err != nil {
		return b.statsFailed(userID, err)
	}

	return fmt.Sprintf("📊 Your Stats:\n\n"+
		"💬 Conversations: %d\n"+
		"⏰ Active reminders: %d\n"+
		"✅ Active todos: %d\n"+
		"✔️ Completed todos: %d",
		conversations, reminders, active, completed)
}

func (b *Bot) statsFailed(userID string, err error) string {
	b.logger.Error("stats failed", "user_id", userID, "error", err)
	return ReplyStatsError
}

func (b *Bot) forget(ctx context.Context, userID string) string {
	n, err := b.stores.Conversations.DeleteForUser(ctx, userID)
	if err != nil {
		b.logger.Error("forget failed", "user_id", userID, "error", err)
		return ReplyGenericError
	}
	return fmt.Sprintf("🧹 Done. I forgot %d past conversations. Your todos, reminders and knowledge are untouched.", n)
}

func startText(userName string) string {
	if userName == "" {
		userName = "there"
	}
	return fmt.Sprintf("Welcome %s! 👋\n\n", userName) +
		"I'm Watson-Stark, your personal AI assistant. I can help you with:\n\n" +
		"✅ Managing todos and tasks\n" +
		"⏰ Setting reminders\n" +
		"📚 Storing and retrieving information\n" +
		"💬 Natural conversations with context\n\n" +
		"Just talk to me naturally! For example:\n" +
		"• \"Add buy groceries to my todos\"\n" +
		"• \"Remind me to call mom in 2 hours\"\n" +
		"• \"What do I need to do today?\"\n" +
		"• \"Remember that I like coffee in the morning\"\n" +
		"• \"What did I tell you about my preferences?\"\n\n" +
		"Type /help for more information."
}

func helpText(poweredBy string) string {
	text := "🤖 Watson-Stark Help\n\n" +
		"I understand natural language! Just talk to me like you would to a human assistant.\n\n" +
		"Example requests:\n" +
		"• \"Add finish report to my todo list\"\n" +
		"• \"What are my tasks for today?\"\n" +
		"• \"I finished the first task\"\n" +
		"• \"Remind me to exercise in 30 minutes\"\n" +
		"• \"Show me my reminders\"\n" +
		"• \"Remember that I prefer tea over coffee\"\n" +
		"• \"What did I tell you about my morning routine?\"\n\n" +
		"Quick Commands:\n" +
		"/stats - View your statistics\n" +
		"/forget - Clear our conversation history\n" +
		"/help - Show this help message"
	if poweredBy != "" {
		text += "\n\nPowered by " + poweredBy + " ✨"
	}
	return text
}
