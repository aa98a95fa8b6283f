package tools

import (
	"context"

	"github.com/raphaelgruber/watson-stark/internal/models"
)

const (
	similarLimit     = 5
	similarThreshold = 0.8
)

// searchKnowledge matches text first; with an embedder, semantically close
// entries that were not already matched are appended.
func (r *Registry) searchKnowledge(ctx context.Context, args Args, _ User) (any, error) {
	query, err := args.RequireString("query")
	if err != nil {
		return nil, err
	}

	entries, err := r.deps.Knowledge.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if r.deps.Embedder != nil {
		entries = append(entries, r.similarEntries(ctx, query, entries)...)
	}

	items := make([]KnowledgeItem, len(entries))
	for i, e := range entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = KnowledgeItem{
			Topic:    e.Topic,
			Content:  e.Content,
			Category: e.Category,
			Tags:     tags,
		}
	}
	return KnowledgeResults{Success: true, Count: len(items), Results: items}, nil
}

func (r *Registry) similarEntries(ctx context.Context, query string, seen []models.KnowledgeEntry) []models.KnowledgeEntry {
	log := r.deps.logger()

	emb, err := r.deps.Embedder.Embed(ctx, query)
	if err != nil {
		log.Warn("query embedding failed, using text matches only", "error", err)
		return nil
	}
	similar, err := r.deps.Knowledge.SearchSimilar(ctx, emb, similarLimit)
	if err != nil {
		log.Warn("similarity search failed", "error", err)
		return nil
	}

	known := make(map[string]bool, len(seen))
	for _, e := range seen {
		if id, err := models.RecordIDString(e.ID); err == nil {
			known[id] = true
		}
	}

	var extra []models.KnowledgeEntry
	for _, e := range similar {
		id, err := models.RecordIDString(e.ID)
		if err != nil || known[id] {
			continue
		}
		known[id] = true
		extra = append(extra, e)
	}
	return extra
}

func (r *Registry) addKnowledge(ctx context.Context, args Args, user User) (any, error) {
	category, err := args.RequireString("category")
	if err != nil {
		return nil, err
	}
	topic, err := args.RequireString("topic")
	if err != nil {
		return nil, err
	}
	content, err := args.RequireString("content")
	if err != nil {
		return nil, err
	}

	in := models.KnowledgeInput{
		UserID:   user.ID,
		Category: category,
		Topic:    topic,
		Content:  content,
		Tags:     args.Strings("tags"),
	}

	if r.deps.Embedder != nil {
		emb, err := r.deps.Embedder.Embed(ctx, topic+"\n"+content)
		if err != nil {
			r.deps.logger().Warn("knowledge embedding failed, storing without vector", "topic", topic, "error", err)
		} else {
			in.Embedding = emb
		}
	}

	entry, err := r.deps.Knowledge.Add(ctx, in)
	if err != nil {
		return nil, err
	}

	if len(in.Embedding) > 0 {
		if id, err := models.RecordIDString(entry.ID); err == nil {
			linked, err := r.deps.Knowledge.LinkSimilar(ctx, id, in.Embedding, similarThreshold, similarLimit)
			if err != nil {
				r.deps.logger().Warn("linking similar knowledge failed", "id", id, "error", err)
			} else if linked > 0 {
				r.deps.logger().Debug("linked similar knowledge", "id", id, "count", linked)
			}
		}
	}

	return KnowledgeAdded{
		Success:  true,
		Message:  "Knowledge stored successfully",
		Topic:    topic,
		Category: category,
	}, nil
}
