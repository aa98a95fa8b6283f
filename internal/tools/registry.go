package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/watson-stark/internal/llm"
	"github.com/raphaelgruber/watson-stark/internal/metrics"
)

type handler func(ctx context.Context, args Args, user User) (any, error)

// Option configures a Registry.
type Option func(*Registry)

// WithWebSearchStub registers web_search. It answers with a fixed notice and
// performs no lookup.
func WithWebSearchStub() Option {
	return func(r *Registry) {
		r.catalog = append(r.catalog, webSearchSchema())
		r.handlers[ToolWebSearch] = webSearch
	}
}

// Registry is the fixed tool catalog plus the dispatcher behind it.
type Registry struct {
	deps     *Dependencies
	catalog  []llm.ToolSchema
	handlers map[string]handler
}

// NewRegistry builds the catalog. It is immutable after construction.
func NewRegistry(deps *Dependencies, opts ...Option) *Registry {
	r := &Registry{
		deps:    deps,
		catalog: baseCatalog(),
	}
	r.handlers = map[string]handler{
		ToolCreateTodo:      r.createTodo,
		ToolListTodos:       r.listTodos,
		ToolCompleteTodo:    r.completeTodo,
		ToolCreateReminder:  r.createReminder,
		ToolListReminders:   r.listReminders,
		ToolSearchKnowledge: r.searchKnowledge,
		ToolAddKnowledge:    r.addKnowledge,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the tool schemas in registration order.
func (r *Registry) Catalog() []llm.ToolSchema {
	out := make([]llm.ToolSchema, len(r.catalog))
	copy(out, r.catalog)
	return out
}

// Execute runs one tool call for user and always returns a JSON-serializable
// result. Failures become {success:false, error}; they never abort the caller.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall, user User) (result any) {
	log := r.deps.logger().With("tool", call.Name, "user_id", user.ID)

	h, ok := r.handlers[call.Name]
	if !ok {
		log.Warn("unknown tool requested")
		return failure("Unknown function")
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("tool panicked", "panic", rec)
			r.countFailure()
			result = failure(fmt.Sprint(rec))
		}
		if r.deps.Metrics != nil {
			r.deps.Metrics.RecordTiming(metrics.OpToolExec, time.Since(start))
		}
	}()

	out, err := h(ctx, Args(call.Arguments), user)
	if err != nil {
		log.Error("tool failed", "error", err)
		r.countFailure()
		return failure(err.Error())
	}
	log.Debug("tool executed", "duration_ms", time.Since(start).Milliseconds())
	return out
}

func (r *Registry) countFailure() {
	if r.deps.Metrics != nil {
		r.deps.Metrics.IncEvent(metrics.EventToolFailure)
	}
}

func webSearch(_ context.Context, args Args, _ User) (any, error) {
	return WebSearchResult{
		Success: true,
		Query:   args.String("query"),
		Message: "Live web search is not available. Answer from what you already know and say so.",
	}, nil
}
