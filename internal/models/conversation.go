package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ConversationTurn is one user message paired with the bot's final reply.
// Turns are written once and never updated.
type ConversationTurn struct {
	ID          surrealmodels.RecordID `json:"id"`
	UserID      string                 `json:"user_id"`
	UserName    string                 `json:"user_name"`
	UserMessage string                 `json:"user_message"`
	BotResponse string                 `json:"bot_response"`
	Timestamp   time.Time              `json:"timestamp"`
}

// TurnInput holds the fields for saving a turn.
type TurnInput struct {
	UserID      string
	UserName    string
	UserMessage string
	BotResponse string
}
