package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/raphaelgruber/watson-stark/internal/llm"
	"github.com/raphaelgruber/watson-stark/internal/metrics"
	"github.com/raphaelgruber/watson-stark/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	todos     *fakeTodos
	reminders *fakeReminders
	knowledge *fakeKnowledge
	metrics   *metrics.Collector
	registry  *Registry
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		todos:     &fakeTodos{clock: func() time.Time { return fixedNow }},
		reminders: &fakeReminders{},
		knowledge: &fakeKnowledge{},
		metrics:   metrics.NewCollector(),
	}
	f.registry = NewRegistry(&Dependencies{
		Todos:     f.todos,
		Reminders: f.reminders,
		Knowledge: f.knowledge,
		Metrics:   f.metrics,
		Logger:    quietLogger(),
		Now:       func() time.Time { return fixedNow },
	}, opts...)
	return f
}

var ada = User{ID: "u1", Name: "Ada", Channel: "telegram"}

// run executes a call and returns the result as the model would see it.
func (f *fixture) run(t *testing.T, name string, args map[string]any) map[string]any {
	t.Helper()
	out := f.registry.Execute(context.Background(), llm.ToolCall{ID: "c1", Name: name, Arguments: args}, ada)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestCatalog(t *testing.T) {
	names := func(r *Registry) []string {
		var out []string
		for _, s := range r.Catalog() {
			out = append(out, s.Name)
		}
		return out
	}

	base := newFixture().registry
	assert.Equal(t, []string{
		"create_todo", "list_todos", "complete_todo", "create_reminder",
		"list_reminders", "search_knowledge", "add_knowledge",
	}, names(base))

	withSearch := newFixture(WithWebSearchStub()).registry
	assert.Contains(t, names(withSearch), "web_search")
	assert.NotContains(t, names(base), "web_search")

	for _, s := range base.Catalog() {
		assert.Equal(t, "object", s.Parameters["type"], s.Name)
		assert.NotEmpty(t, s.Description, s.Name)
	}
}

func TestUnknownTool(t *testing.T) {
	f := newFixture()
	got := f.run(t, "launch_rockets", nil)
	assert.Equal(t, map[string]any{"success": false, "error": "Unknown function"}, got)

	got = f.run(t, "web_search", map[string]any{"query": "news"})
	assert.Equal(t, "Unknown function", got["error"], "web_search is opt-in")
}

func TestCreateTodo(t *testing.T) {
	tests := []struct {
		name         string
		args         map[string]any
		wantPriority string
	}{
		{"default priority", map[string]any{"task": "buy milk"}, "medium"},
		{"explicit priority", map[string]any{"task": "file taxes", "priority": "high"}, "high"},
		{"bogus priority", map[string]any{"task": "water plants", "priority": "urgent"}, "medium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			got := f.run(t, "create_todo", tt.args)
			assert.Equal(t, true, got["success"])
			assert.Equal(t, "Todo created: "+tt.args["task"].(string), got["message"])
			assert.Equal(t, tt.wantPriority, got["priority"])
			require.Len(t, f.todos.todos, 1)
			assert.Equal(t, "u1", f.todos.todos[0].UserID)
		})
	}
}

func TestCreateTodoRequiresTask(t *testing.T) {
	f := newFixture()
	got := f.run(t, "create_todo", map[string]any{"task": "   "})
	assert.Equal(t, false, got["success"])
	assert.Equal(t, "task is required", got["error"])
	assert.Empty(t, f.todos.todos)
	assert.Equal(t, int64(1), f.metrics.Events()[metrics.EventToolFailure])
}

func TestListTodos(t *testing.T) {
	f := newFixture()
	f.run(t, "create_todo", map[string]any{"task": "first"})
	f.run(t, "create_todo", map[string]any{"task": "second", "priority": "low"})
	f.todos.todos[0].Completed = true

	got := f.run(t, "list_todos", map[string]any{})
	assert.Equal(t, float64(1), got["count"])

	got = f.run(t, "list_todos", map[string]any{"include_completed": "true"})
	assert.Equal(t, float64(2), got["count"])
	todos := got["todos"].([]any)
	newest := todos[0].(map[string]any)
	assert.Equal(t, float64(1), newest["number"])
	assert.Equal(t, "second", newest["task"])
	assert.Equal(t, "low", newest["priority"])
	assert.Equal(t, false, newest["completed"])
}

func TestCompleteTodo(t *testing.T) {
	f := newFixture()
	f.run(t, "create_todo", map[string]any{"task": "older"})
	f.run(t, "create_todo", map[string]any{"task": "newer"})

	t.Run("out of range leaves todos alone", func(t *testing.T) {
		for _, idx := range []any{0, 3, float64(-1)} {
			got := f.run(t, "complete_todo", map[string]any{"todo_index": idx})
			assert.Equal(t, false, got["success"])
			assert.Equal(t, "Invalid todo number. You have 2 active todos.", got["message"])
		}
		for _, todo := range f.todos.todos {
			assert.False(t, todo.Completed)
		}
	})

	t.Run("fractional index is rejected", func(t *testing.T) {
		got := f.run(t, "complete_todo", map[string]any{"todo_index": 1.5})
		assert.Equal(t, false, got["success"])
		assert.Contains(t, got["error"], "whole number")
	})

	t.Run("numeric string index", func(t *testing.T) {
		got := f.run(t, "complete_todo", map[string]any{"todo_index": "1"})
		assert.Equal(t, true, got["success"])
		assert.Equal(t, "Completed: newer", got["message"])
		assert.Equal(t, "newer", got["task"])
	})

	t.Run("indexes shift after completion", func(t *testing.T) {
		got := f.run(t, "complete_todo", map[string]any{"todo_index": 2})
		assert.Equal(t, "Invalid todo number. You have 1 active todos.", got["message"])
	})
}

func TestCreateReminder(t *testing.T) {
	tests := []struct {
		unit  string
		value float64
		want  time.Duration
	}{
		{"minutes", 30, 30 * time.Minute},
		{"hours", 2, 2 * time.Hour},
		{"days", 1, 24 * time.Hour},
		{"minutes", 0.5, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			f := newFixture()
			got := f.run(t, "create_reminder", map[string]any{
				"message": "call mom", "time_value": tt.value, "time_unit": tt.unit,
			})
			assert.Equal(t, true, got["success"])
			assert.Equal(t, "call mom", got["message"])
			assert.Equal(t, tt.value, got["timeValue"])
			assert.Equal(t, tt.unit, got["timeUnit"])

			require.Len(t, f.reminders.reminders, 1)
			stored := f.reminders.reminders[0]
			assert.Equal(t, fixedNow.Add(tt.want), stored.ReminderTime)
			assert.Equal(t, "telegram", stored.Channel)
			assert.Equal(t, displayTime(stored.ReminderTime, time.UTC), got["reminderTime"])
		})
	}
}

func TestCreateReminderValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"missing message", map[string]any{"time_value": 5, "time_unit": "minutes"}, "message is required"},
		{"bad unit", map[string]any{"message": "x", "time_value": 5, "time_unit": "weeks"}, "time_unit"},
		{"missing value", map[string]any{"message": "x", "time_unit": "hours"}, "time_value"},
		{"negative value", map[string]any{"message": "x", "time_value": -2, "time_unit": "hours"}, "time_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			got := f.run(t, "create_reminder", tt.args)
			assert.Equal(t, false, got["success"])
			assert.Contains(t, got["error"], tt.wantErr)
			assert.Empty(t, f.reminders.reminders)
		})
	}
}

func TestListReminders(t *testing.T) {
	f := newFixture()
	f.run(t, "create_reminder", map[string]any{"message": "later", "time_value": 2, "time_unit": "hours"})
	f.run(t, "create_reminder", map[string]any{"message": "sooner", "time_value": 5, "time_unit": "minutes"})

	got := f.run(t, "list_reminders", nil)
	assert.Equal(t, float64(2), got["count"])
	first := got["reminders"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(1), first["number"])
	assert.Equal(t, "sooner", first["message"])
	assert.Equal(t, "3/14/2025, 9:05:00 AM", first["time"])
}

func TestKnowledgeRoundTrip(t *testing.T) {
	f := newFixture()
	got := f.run(t, "add_knowledge", map[string]any{
		"category": "preferences",
		"topic":    "Morning drink",
		"content":  "Prefers tea over coffee",
		"tags":     "Tea, mornings",
	})
	assert.Equal(t, map[string]any{
		"success": true, "message": "Knowledge stored successfully",
		"topic": "Morning drink", "category": "preferences",
	}, got)
	assert.Equal(t, []string{"mornings", "tea"}, f.knowledge.entries[0].Tags)
	assert.Nil(t, f.knowledge.entries[0].Embedding)

	got = f.run(t, "search_knowledge", map[string]any{"query": "coffee"})
	assert.Equal(t, float64(1), got["count"])
	result := got["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "Morning drink", result["topic"])

	got = f.run(t, "search_knowledge", map[string]any{"query": "nothing matches"})
	assert.Equal(t, float64(0), got["count"])
	assert.Equal(t, []any{}, got["results"])
}

func TestAddKnowledgeRequiresFields(t *testing.T) {
	f := newFixture()
	got := f.run(t, "add_knowledge", map[string]any{"category": "work", "content": "x"})
	assert.Equal(t, "topic is required", got["error"])
	assert.Empty(t, f.knowledge.entries)
}

func TestKnowledgeWithEmbedder(t *testing.T) {
	f := newFixture()
	f.registry.deps.Embedder = fakeEmbedder{}

	f.run(t, "add_knowledge", map[string]any{
		"category": "work", "topic": "Standup", "content": "Daily at 9", "tags": []any{"routine"},
	})
	require.Len(t, f.knowledge.entries, 1)
	assert.Equal(t, []float32{1, 0, 0}, f.knowledge.entries[0].Embedding)
	assert.Equal(t, 1, f.knowledge.links)

	f.knowledge.similar = []models.KnowledgeEntry{
		f.knowledge.entries[0],
		{ID: surrealmodels.NewRecordID("knowledge", "k9"), Topic: "Retro", Content: "Fridays", Category: "work"},
	}
	got := f.run(t, "search_knowledge", map[string]any{"query": "standup"})
	assert.Equal(t, float64(2), got["count"], "text match plus one unseen similar entry")
	results := got["results"].([]any)
	assert.Equal(t, "Standup", results[0].(map[string]any)["topic"])
	assert.Equal(t, "Retro", results[1].(map[string]any)["topic"])
}

func TestKnowledgeEmbedderFailureDegrades(t *testing.T) {
	f := newFixture()
	f.registry.deps.Embedder = fakeEmbedder{err: errStoreDown}

	got := f.run(t, "add_knowledge", map[string]any{"category": "c", "topic": "t", "content": "body"})
	assert.Equal(t, true, got["success"])
	assert.Nil(t, f.knowledge.entries[0].Embedding)
	assert.Equal(t, 0, f.knowledge.links)

	got = f.run(t, "search_knowledge", map[string]any{"query": "body"})
	assert.Equal(t, float64(1), got["count"])
}

func TestStoreErrorBecomesFailure(t *testing.T) {
	f := newFixture()
	f.todos.failAll = true

	got := f.run(t, "list_todos", nil)
	assert.Equal(t, map[string]any{"success": false, "error": errStoreDown.Error()}, got)
}

func TestPanicBecomesFailure(t *testing.T) {
	r := NewRegistry(&Dependencies{Logger: quietLogger()})
	out := r.Execute(context.Background(), llm.ToolCall{Name: "list_todos"}, ada)
	f, ok := out.(Failure)
	require.True(t, ok)
	assert.False(t, f.Success)
	assert.NotEmpty(t, f.Error)
}

func TestWebSearchStub(t *testing.T) {
	f := newFixture(WithWebSearchStub())
	got := f.run(t, "web_search", map[string]any{"query": "latest news"})
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "latest news", got["query"])
	assert.NotEmpty(t, got["message"])
}
