// Package assistant runs the tool-calling conversation loop for one message.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/watson-stark/internal/llm"
	"github.com/raphaelgruber/watson-stark/internal/metrics"
	"github.com/raphaelgruber/watson-stark/internal/models"
	"github.com/raphaelgruber/watson-stark/internal/tools"
)

// Loop limits.
const (
	MaxIterations  = 5
	HistoryLimit   = 5
	MaxTokens      = 800
	DefaultTimeout = 60 * time.Second
)

// FallbackAnswer is sent when the model never settles on a text reply.
const FallbackAnswer = "Sorry, I couldn't generate a response. Please try again."

// ToolExecutor runs tool calls and describes the available tools.
type ToolExecutor interface {
	Catalog() []llm.ToolSchema
	Execute(ctx context.Context, call llm.ToolCall, user tools.User) any
}

// ConversationLog reads and appends conversation turns.
type ConversationLog interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error)
	Save(ctx context.Context, in models.TurnInput) (*models.ConversationTurn, error)
}

// Options tunes the orchestrator. Zero values select the defaults.
type Options struct {
	CallTimeout time.Duration
	Metrics     *metrics.Collector
}

// Inbound is one user message to answer.
type Inbound struct {
	UserID   string
	UserName string
	Channel  string
	Text     string
}

// Orchestrator answers messages by letting the model call tools until it
// produces text or the iteration cap is reached.
type Orchestrator struct {
	provider llm.Provider
	tools    ToolExecutor
	history  ConversationLog
	timeout  time.Duration
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(provider llm.Provider, executor ToolExecutor, history ConversationLog, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		provider: provider,
		tools:    executor,
		history:  history,
		timeout:  timeout,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Respond produces the reply to in and records the turn.
//
// Model errors that look like credential or account problems are returned
// wrapped in ErrConfiguration. Any other failure is returned as is and no
// turn is saved.
func (o *Orchestrator) Respond(ctx context.Context, in Inbound) (string, error) {
	start := time.Now()
	log := o.logger.With("user_id", in.UserID, "provider", o.provider.Name())
	defer func() {
		if o.metrics != nil {
			o.metrics.RecordTiming(metrics.OpMessage, time.Since(start))
		}
	}()

	messages, err := o.buildContext(ctx, in)
	if err != nil {
		return "", err
	}

	answer, err := o.converse(ctx, in, messages, log)
	if err != nil {
		return "", err
	}

	if _, err := o.history.Save(ctx, models.TurnInput{
		UserID:      in.UserID,
		UserName:    in.UserName,
		UserMessage: in.Text,
		BotResponse: answer,
	}); err != nil {
		return "", fmt.Errorf("save turn: %w", err)
	}

	log.Info("message answered", "duration_ms", time.Since(start).Milliseconds())
	return answer, nil
}

// buildContext replays the latest turns oldest first, then the new message.
func (o *Orchestrator) buildContext(ctx context.Context, in Inbound) ([]llm.Message, error) {
	turns, err := o.history.Recent(ctx, in.UserID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]llm.Message, 0, 2*len(turns)+1)
	for i := len(turns) - 1; i >= 0; i-- {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turns[i].UserMessage},
			llm.Message{Role: llm.RoleAssistant, Content: turns[i].BotResponse},
		)
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: in.Text}), nil
}

func (o *Orchestrator) converse(ctx context.Context, in Inbound, messages []llm.Message, log *slog.Logger) (string, error) {
	req := llm.Request{
		System:    SystemPrompt(in.UserName),
		Tools:     o.tools.Catalog(),
		MaxTokens: MaxTokens,
	}
	user := tools.User{ID: in.UserID, Name: in.UserName, Channel: in.Channel}

	for iteration := 1; iteration <= MaxIterations; iteration++ {
		req.Messages = messages

		resp, err := o.callModel(ctx, req)
		if errors.Is(err, llm.ErrEmptyResponse) {
			log.Warn("model returned no choices", "iteration", iteration)
			return o.fallback(), nil
		}
		if err != nil {
			if llm.IsFatal(err) {
				if o.metrics != nil {
					o.metrics.IncEvent(metrics.EventConfigError)
				}
				return "", fmt.Errorf("%w: %w", ErrConfiguration, err)
			}
			return "", fmt.Errorf("model call: %w", err)
		}

		if !resp.HasToolCalls() {
			if resp.Text == "" {
				return o.fallback(), nil
			}
			return resp.Text, nil
		}

		for _, call := range resp.ToolCalls {
			log.Debug("executing tool", "tool", call.Name, "iteration", iteration)
			result := o.tools.Execute(ctx, call, user)
			messages = append(messages, callMessages(call, result)...)
		}
	}

	log.Warn("tool loop hit iteration cap", "max_iterations", MaxIterations)
	return o.fallback(), nil
}

// callModel bounds one provider round trip by the call timeout.
func (o *Orchestrator) callModel(ctx context.Context, req llm.Request) (*llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.provider.Chat(callCtx, req)
	if o.metrics != nil {
		var usage llm.Usage
		if resp != nil {
			usage = resp.Usage
		}
		o.metrics.RecordLLMUsage(metrics.OpLLMCall, time.Since(start), usage.InputTokens, usage.OutputTokens)
	}
	return resp, err
}

func (o *Orchestrator) fallback() string {
	if o.metrics != nil {
		o.metrics.IncEvent(metrics.EventFallback)
	}
	return FallbackAnswer
}

// callMessages records one tool invocation and its result in the transcript.
func callMessages(call llm.ToolCall, result any) []llm.Message {
	summary := "Function call: " + call.Name
	if args := llm.EncodeArguments(call.Arguments); args != "" {
		summary += "\nArguments: " + args
	}

	payload, err := json.Marshal(result)
	if err != nil {
		payload, _ = json.Marshal(map[string]any{"success": false, "error": err.Error()})
	}

	c := call
	return []llm.Message{
		{Role: llm.RoleAssistant, Content: summary, ToolCall: &c},
		{Role: llm.RoleTool, Content: string(payload), ToolCallID: call.ID, Name: call.Name},
	}
}
