package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/watson-stark/internal/models"
)

// ReminderStore persists reminders.
type ReminderStore struct {
	client *Client
}

// NewReminderStore creates a store over the reminder collection.
func NewReminderStore(client *Client) *ReminderStore {
	return &ReminderStore{client: client}
}

// Create stores an incomplete reminder.
func (s *ReminderStore) Create(ctx context.Context, in models.ReminderInput) (*models.Reminder, error) {
	rows, err := queryRows[models.Reminder](ctx, s.client, `
		CREATE reminder SET
			user_id = $user_id,
			user_name = $user_name,
			channel = $channel,
			reminder_text = $text,
			reminder_time = type::datetime($time),
			completed = false,
			created_at = time::now()
		RETURN AFTER
	`, map[string]any{
		"user_id":   in.UserID,
		"user_name": in.UserName,
		"channel":   in.Channel,
		"text":      in.ReminderText,
		"time":      in.ReminderTime.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create reminder: no record returned")
	}
	return &rows[0], nil
}

// ListActive returns the user's incomplete reminders, soonest first.
func (s *ReminderStore) ListActive(ctx context.Context, userID string) ([]models.Reminder, error) {
	rows, err := queryRows[models.Reminder](ctx, s.client, `
		SELECT * FROM reminder
		WHERE user_id = $user_id AND completed = false
		ORDER BY reminder_time ASC
	`, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return rows, nil
}

// CountActive returns how many incomplete reminders the user has.
func (s *ReminderStore) CountActive(ctx context.Context, userID string) (int, error) {
	n, err := countRows(ctx, s.client, `
		SELECT count() AS count FROM reminder
		WHERE user_id = $user_id AND completed = false
		GROUP ALL
	`, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count reminders: %w", err)
	}
	return n, nil
}

// Due returns every incomplete reminder whose time is at or before now.
func (s *ReminderStore) Due(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	rows, err := queryRows[models.Reminder](ctx, s.client, `
		SELECT * FROM reminder
		WHERE completed = false AND reminder_time <= type::datetime($now)
		ORDER BY reminder_time ASC
	`, map[string]any{"now": now.UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return rows, nil
}

// Complete marks the reminder completed only if it is still incomplete.
// It reports whether this call made the transition, so concurrent sweeps
// can tell which one owns the dispatch.
func (s *ReminderStore) Complete(ctx context.Context, id string) (bool, error) {
	rows, err := queryRows[models.Reminder](ctx, s.client, `
		UPDATE type::record("reminder", $id) SET
			completed = true,
			completed_at = time::now()
		WHERE completed = false
		RETURN AFTER
	`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("complete reminder: %w", err)
	}
	return len(rows) == 1, nil
}

// Delete removes a reminder. Returns false if it did not exist.
func (s *ReminderStore) Delete(ctx context.Context, id string) (bool, error) {
	rows, err := queryRows[models.Reminder](ctx, s.client, `
		DELETE type::record("reminder", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	return len(rows) > 0, nil
}
