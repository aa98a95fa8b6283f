package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/watson-stark/internal/models"
)

// KnowledgeStore persists the shared knowledge base.
type KnowledgeStore struct {
	client *Client
}

// NewKnowledgeStore creates a store over the knowledge collection.
func NewKnowledgeStore(client *Client) *KnowledgeStore {
	return &KnowledgeStore{client: client}
}

// Add stores an entry. Tags are normalized to a lower-case set; the
// embedding is only written when present.
func (s *KnowledgeStore) Add(ctx context.Context, in models.KnowledgeInput) (*models.KnowledgeEntry, error) {
	set := []string{
		"user_id = $user_id",
		"category = $category",
		"topic = $topic",
		"content = $content",
		"tags = $tags",
		"created_at = time::now()",
	}
	vars := map[string]any{
		"user_id":  in.UserID,
		"category": in.Category,
		"topic":    in.Topic,
		"content":  in.Content,
		"tags":     models.NormalizeTags(in.Tags),
	}
	if len(in.Embedding) > 0 {
		set = append(set, "embedding = $embedding")
		vars["embedding"] = in.Embedding
	}

	sql := fmt.Sprintf("CREATE knowledge SET %s RETURN AFTER", strings.Join(set, ", "))
	rows, err := queryRows[models.KnowledgeEntry](ctx, s.client, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("add knowledge: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("add knowledge: no record returned")
	}
	return &rows[0], nil
}

// Search matches the query as a case-insensitive substring of topic or
// content, or as an exact tag. Newest entries come first.
func (s *KnowledgeStore) Search(ctx context.Context, query string) ([]models.KnowledgeEntry, error) {
	rows, err := queryRows[models.KnowledgeEntry](ctx, s.client, `
		SELECT * OMIT embedding FROM knowledge
		WHERE string::lowercase(topic) CONTAINS $q
			OR string::lowercase(content) CONTAINS $q
			OR tags CONTAINS $q
		ORDER BY created_at DESC
	`, map[string]any{"q": strings.ToLower(strings.TrimSpace(query))})
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}
	return rows, nil
}

// ListByCategory returns every entry in a category, newest first.
func (s *KnowledgeStore) ListByCategory(ctx context.Context, category string) ([]models.KnowledgeEntry, error) {
	rows, err := queryRows[models.KnowledgeEntry](ctx, s.client, `
		SELECT * OMIT embedding FROM knowledge
		WHERE category = $category
		ORDER BY created_at DESC
	`, map[string]any{"category": category})
	if err != nil {
		return nil, fmt.Errorf("list knowledge by category: %w", err)
	}
	return rows, nil
}

// SearchSimilar ranks embedded entries by cosine similarity to embedding.
func (s *KnowledgeStore) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]models.KnowledgeEntry, error) {
	rows, err := queryRows[models.KnowledgeEntry](ctx, s.client, `
		SELECT *, vector::similarity::cosine(embedding, $emb) AS score OMIT embedding
		FROM knowledge
		WHERE embedding != NONE
		ORDER BY score DESC
		LIMIT $limit
	`, map[string]any{"emb": embedding, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("similar knowledge: %w", err)
	}
	return rows, nil
}

// LinkSimilar relates the entry to up to limit other entries whose
// similarity is at least threshold. Returns the number of edges written.
func (s *KnowledgeStore) LinkSimilar(ctx context.Context, id string, embedding []float32, threshold float64, limit int) (int, error) {
	candidates, err := s.SearchSimilar(ctx, embedding, limit+1)
	if err != nil {
		return 0, err
	}

	linked := 0
	for _, other := range candidates {
		otherID, err := models.RecordIDString(other.ID)
		if err != nil || otherID == id || other.Score < threshold {
			continue
		}
		if linked == limit {
			break
		}
		_, err = queryRows[any](ctx, s.client, `
			RELATE type::record("knowledge", $from)->similar_to->type::record("knowledge", $to)
			SET score = $score, created = time::now()
		`, map[string]any{"from": id, "to": otherID, "score": other.Score})
		if errors.Is(err, ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return linked, fmt.Errorf("link knowledge: %w", err)
		}
		linked++
	}
	return linked, nil
}
