package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// KnowledgeEntry is a fact stored in the shared knowledge base.
// UserID records who added it; search is not scoped by user.
type KnowledgeEntry struct {
	ID        surrealmodels.RecordID `json:"id"`
	UserID    string                 `json:"user_id"`
	Category  string                 `json:"category"`
	Topic     string                 `json:"topic"`
	Content   string                 `json:"content"`
	Tags      []string               `json:"tags"`
	Embedding []float32              `json:"embedding,omitempty"`
	CreatedAt time.Time              `json:"created_at"`

	// Score is set by similarity search only.
	Score float64 `json:"score,omitempty"`
}

// KnowledgeInput holds the fields for adding a knowledge entry.
type KnowledgeInput struct {
	UserID    string
	Category  string
	Topic     string
	Content   string
	Tags      []string
	Embedding []float32
}
