// Package tools implements the assistant's callable tools and dispatches
// model tool calls to them.
package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/watson-stark/internal/metrics"
	"github.com/raphaelgruber/watson-stark/internal/models"
)

// TodoStore is the subset of db.TodoStore the tools use.
type TodoStore interface {
	Create(ctx context.Context, in models.TodoInput) (*models.Todo, error)
	List(ctx context.Context, userID string, includeCompleted bool) ([]models.Todo, error)
	Complete(ctx context.Context, id string) (bool, error)
}

// ReminderStore is the subset of db.ReminderStore the tools use.
type ReminderStore interface {
	Create(ctx context.Context, in models.ReminderInput) (*models.Reminder, error)
	ListActive(ctx context.Context, userID string) ([]models.Reminder, error)
}

// KnowledgeStore is the subset of db.KnowledgeStore the tools use.
type KnowledgeStore interface {
	Add(ctx context.Context, in models.KnowledgeInput) (*models.KnowledgeEntry, error)
	Search(ctx context.Context, query string) ([]models.KnowledgeEntry, error)
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]models.KnowledgeEntry, error)
	LinkSimilar(ctx context.Context, id string, embedding []float32, threshold float64, limit int) (int, error)
}

// Embedder generates vectors for knowledge entries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Dependencies holds shared services for tool handlers.
// Embedder, Metrics, Now and Location are optional.
type Dependencies struct {
	Todos     TodoStore
	Reminders ReminderStore
	Knowledge KnowledgeStore
	Embedder  Embedder
	Metrics   *metrics.Collector
	Logger    *slog.Logger

	Now      func() time.Time
	Location *time.Location
}

// User identifies who a tool call acts for.
type User struct {
	ID      string
	Name    string
	Channel string
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dependencies) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.UTC
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
