package models

import (
	"strings"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Todo priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Todo is a user task.
type Todo struct {
	ID          surrealmodels.RecordID `json:"id"`
	UserID      string                 `json:"user_id"`
	UserName    string                 `json:"user_name"`
	TodoText    string                 `json:"todo_text"`
	Priority    string                 `json:"priority"`
	Completed   bool                   `json:"completed"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// TodoInput holds the fields for creating a todo.
type TodoInput struct {
	UserID   string
	UserName string
	TodoText string
	Priority string
}

// NormalizePriority maps anything that is not low, medium or high to medium.
func NormalizePriority(p string) string {
	switch p = strings.ToLower(strings.TrimSpace(p)); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	default:
		return PriorityMedium
	}
}
