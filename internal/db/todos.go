package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/watson-stark/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// TodoStore persists todos.
type TodoStore struct {
	client *Client
}

// NewTodoStore creates a store over the todo collection.
func NewTodoStore(client *Client) *TodoStore {
	return &TodoStore{client: client}
}

// Create stores an incomplete todo. Unknown priorities become medium.
func (s *TodoStore) Create(ctx context.Context, in models.TodoInput) (*models.Todo, error) {
	rows, err := queryRows[models.Todo](ctx, s.client, `
		CREATE todo SET
			user_id = $user_id,
			user_name = $user_name,
			todo_text = $text,
			priority = $priority,
			completed = false,
			created_at = time::now()
		RETURN AFTER
	`, map[string]any{
		"user_id":   in.UserID,
		"user_name": in.UserName,
		"text":      in.TodoText,
		"priority":  models.NormalizePriority(in.Priority),
	})
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create todo: no record returned")
	}
	return &rows[0], nil
}

// List returns the user's todos, newest first. Completed todos are skipped
// unless includeCompleted is set.
func (s *TodoStore) List(ctx context.Context, userID string, includeCompleted bool) ([]models.Todo, error) {
	filter := "AND completed = false"
	if includeCompleted {
		filter = ""
	}
	rows, err := queryRows[models.Todo](ctx, s.client, fmt.Sprintf(`
		SELECT * FROM todo
		WHERE user_id = $user_id %s
		ORDER BY created_at DESC
	`, filter), map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return rows, nil
}

// ListByPriority returns the user's incomplete todos of one priority.
func (s *TodoStore) ListByPriority(ctx context.Context, userID, priority string) ([]models.Todo, error) {
	rows, err := queryRows[models.Todo](ctx, s.client, `
		SELECT * FROM todo
		WHERE user_id = $user_id AND priority = $priority AND completed = false
		ORDER BY created_at DESC
	`, map[string]any{"user_id": userID, "priority": priority})
	if err != nil {
		return nil, fmt.Errorf("list todos by priority: %w", err)
	}
	return rows, nil
}

// Count returns how many of the user's todos have the given completed state.
func (s *TodoStore) Count(ctx context.Context, userID string, completed bool) (int, error) {
	n, err := countRows(ctx, s.client, `
		SELECT count() AS count FROM todo
		WHERE user_id = $user_id AND completed = $completed
		GROUP ALL
	`, map[string]any{"user_id": userID, "completed": completed})
	if err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return n, nil
}

// Complete marks one todo completed if it is not already.
func (s *TodoStore) Complete(ctx context.Context, id string) (bool, error) {
	rows, err := queryRows[models.Todo](ctx, s.client, `
		UPDATE type::record("todo", $id) SET
			completed = true,
			completed_at = time::now()
		WHERE completed = false
		RETURN AFTER
	`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("complete todo: %w", err)
	}
	return len(rows) == 1, nil
}

// CompleteMany marks several todos completed and returns how many changed.
func (s *TodoStore) CompleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	recordIDs := make([]surrealmodels.RecordID, len(ids))
	for i, id := range ids {
		recordIDs[i] = surrealmodels.NewRecordID(TableTodo, id)
	}
	rows, err := queryRows[models.Todo](ctx, s.client, `
		UPDATE todo SET
			completed = true,
			completed_at = time::now()
		WHERE id IN $ids AND completed = false
		RETURN AFTER
	`, map[string]any{"ids": recordIDs})
	if err != nil {
		return 0, fmt.Errorf("complete todos: %w", err)
	}
	return len(rows), nil
}

// Update changes a todo's text and priority. Returns nil if it does not exist.
func (s *TodoStore) Update(ctx context.Context, id, text, priority string) (*models.Todo, error) {
	rows, err := queryRows[models.Todo](ctx, s.client, `
		UPDATE type::record("todo", $id) SET
			todo_text = $text,
			priority = $priority
		RETURN AFTER
	`, map[string]any{"id": id, "text": text, "priority": models.NormalizePriority(priority)})
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Delete removes a todo. Returns false if it did not exist.
func (s *TodoStore) Delete(ctx context.Context, id string) (bool, error) {
	rows, err := queryRows[models.Todo](ctx, s.client, `
		DELETE type::record("todo", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("delete todo: %w", err)
	}
	return len(rows) > 0, nil
}

// DeleteCompleted removes the user's completed todos.
func (s *TodoStore) DeleteCompleted(ctx context.Context, userID string) (int, error) {
	rows, err := queryRows[models.Todo](ctx, s.client, `
		DELETE todo WHERE user_id = $user_id AND completed = true RETURN BEFORE
	`, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("delete completed todos: %w", err)
	}
	return len(rows), nil
}
