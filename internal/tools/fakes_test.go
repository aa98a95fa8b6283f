package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/watson-stark/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

var errStoreDown = errors.New("store unavailable")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTodos struct {
	mu      sync.Mutex
	todos   []models.Todo
	seq     int
	failAll bool
	clock   func() time.Time
}

func (f *fakeTodos) Create(_ context.Context, in models.TodoInput) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errStoreDown
	}
	f.seq++
	t := models.Todo{
		ID:        surrealmodels.NewRecordID("todo", fmt.Sprintf("t%d", f.seq)),
		UserID:    in.UserID,
		UserName:  in.UserName,
		TodoText:  in.TodoText,
		Priority:  models.NormalizePriority(in.Priority),
		CreatedAt: f.clock().Add(time.Duration(f.seq) * time.Second),
	}
	f.todos = append(f.todos, t)
	return &t, nil
}

func (f *fakeTodos) List(_ context.Context, userID string, includeCompleted bool) ([]models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errStoreDown
	}
	var out []models.Todo
	for _, t := range f.todos {
		if t.UserID == userID && (includeCompleted || !t.Completed) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTodos) Complete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.todos {
		if f.todos[i].ID.ID == id && !f.todos[i].Completed {
			f.todos[i].Completed = true
			return true, nil
		}
	}
	return false, nil
}

type fakeReminders struct {
	mu        sync.Mutex
	reminders []models.Reminder
}

func (f *fakeReminders) Create(_ context.Context, in models.ReminderInput) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := models.Reminder{
		ID:           surrealmodels.NewRecordID("reminder", fmt.Sprintf("r%d", len(f.reminders)+1)),
		UserID:       in.UserID,
		UserName:     in.UserName,
		Channel:      in.Channel,
		ReminderText: in.ReminderText,
		ReminderTime: in.ReminderTime,
	}
	f.reminders = append(f.reminders, r)
	return &r, nil
}

func (f *fakeReminders) ListActive(_ context.Context, userID string) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID && !r.Completed {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderTime.Before(out[j].ReminderTime) })
	return out, nil
}

type fakeKnowledge struct {
	mu      sync.Mutex
	entries []models.KnowledgeEntry
	similar []models.KnowledgeEntry
	links   int
}

func (f *fakeKnowledge) Add(_ context.Context, in models.KnowledgeInput) (*models.KnowledgeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := models.KnowledgeEntry{
		ID:        surrealmodels.NewRecordID("knowledge", fmt.Sprintf("k%d", len(f.entries)+1)),
		UserID:    in.UserID,
		Category:  in.Category,
		Topic:     in.Topic,
		Content:   in.Content,
		Tags:      models.NormalizeTags(in.Tags),
		Embedding: in.Embedding,
	}
	f.entries = append(f.entries, e)
	return &e, nil
}

func (f *fakeKnowledge) Search(_ context.Context, query string) ([]models.KnowledgeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.KnowledgeEntry
	for _, e := range f.entries {
		if strings.Contains(strings.ToLower(e.Topic), q) || strings.Contains(strings.ToLower(e.Content), q) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeKnowledge) SearchSimilar(_ context.Context, _ []float32, limit int) ([]models.KnowledgeEntry, error) {
	if len(f.similar) > limit {
		return f.similar[:limit], nil
	}
	return f.similar, nil
}

func (f *fakeKnowledge) LinkSimilar(_ context.Context, _ string, _ []float32, _ float64, _ int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links++
	return 1, nil
}

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}
