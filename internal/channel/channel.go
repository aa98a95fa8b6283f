// Package channel defines what the bot needs from a messaging transport.
package channel

import (
	"context"
	"unicode/utf8"
)

// Channel names stored on reminders so the sweeper can route pushes.
const (
	Telegram = "telegram"
	WhatsApp = "twilio"
)

// MaxMessageLength is the longest reply sent as a single message.
const MaxMessageLength = 4096

// Inbound is a text message received from a user.
type Inbound struct {
	Channel  string
	ChatID   string
	UserID   string
	UserName string
	Text     string
}

// Handler turns an inbound message into the reply text.
type Handler interface {
	HandleMessage(ctx context.Context, in Inbound) string
}

// Sender pushes text to a chat without a preceding inbound message.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// Split breaks text into chunks of at most limit runes, preferring to cut at
// the last newline or space inside each window.
func Split(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' || runes[i-1] == ' ' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
