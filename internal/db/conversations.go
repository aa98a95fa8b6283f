package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/watson-stark/internal/models"
)

// ConversationStore persists conversation turns.
type ConversationStore struct {
	client *Client
}

// NewConversationStore creates a store over the dialogue collection.
func NewConversationStore(client *Client) *ConversationStore {
	return &ConversationStore{client: client}
}

// Save writes one turn stamped with the server time.
func (s *ConversationStore) Save(ctx context.Context, in models.TurnInput) (*models.ConversationTurn, error) {
	rows, err := queryRows[models.ConversationTurn](ctx, s.client, `
		CREATE dialogue SET
			user_id = $user_id,
			user_name = $user_name,
			user_message = $user_message,
			bot_response = $bot_response,
			timestamp = time::now()
		RETURN AFTER
	`, map[string]any{
		"user_id":      in.UserID,
		"user_name":    in.UserName,
		"user_message": in.UserMessage,
		"bot_response": in.BotResponse,
	})
	if err != nil {
		return nil, fmt.Errorf("save turn: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("save turn: no record returned")
	}
	return &rows[0], nil
}

// Recent returns the user's latest turns, newest first.
func (s *ConversationStore) Recent(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error) {
	rows, err := queryRows[models.ConversationTurn](ctx, s.client, `
		SELECT * FROM dialogue
		WHERE user_id = $user_id
		ORDER BY timestamp DESC
		LIMIT $limit
	`, map[string]any{"user_id": userID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	return rows, nil
}

// Count returns how many turns the user has.
func (s *ConversationStore) Count(ctx context.Context, userID string) (int, error) {
	n, err := countRows(ctx, s.client, `
		SELECT count() AS count FROM dialogue WHERE user_id = $user_id GROUP ALL
	`, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return n, nil
}

// CountAll returns the number of turns across all users.
func (s *ConversationStore) CountAll(ctx context.Context) (int, error) {
	n, err := (&Collection{Name: TableDialogue, client: s.client}).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count all turns: %w", err)
	}
	return n, nil
}

// DeleteForUser removes the user's history and returns how many turns went.
func (s *ConversationStore) DeleteForUser(ctx context.Context, userID string) (int, error) {
	rows, err := queryRows[models.ConversationTurn](ctx, s.client, `
		DELETE dialogue WHERE user_id = $user_id RETURN BEFORE
	`, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete turns: %w", err)
	}
	return len(rows), nil
}
