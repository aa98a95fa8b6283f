// Package llm adapts chat-completion vendors to one tool-calling contract.
package llm

import (
	"context"
)

// Role identifies the author of a message in the running conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation sent to a provider. The system
// instruction travels separately in Request.System.
type Message struct {
	Role    Role
	Content string

	// ToolCall is set on assistant messages that record a tool invocation.
	ToolCall *ToolCall

	// ToolCallID and Name identify the invocation a tool message answers.
	ToolCallID string
	Name       string
}

// ToolCall is a model's request to run one registry tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolSchema describes a callable tool. Parameters is a JSON schema object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is the provider-neutral chat request. Tool choice is always automatic.
type Request struct {
	System    string
	Messages  []Message
	Tools     []ToolSchema
	MaxTokens int
}

// Usage reports token consumption for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response holds either tool calls or a plain-text answer.
type Response struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// HasToolCalls reports whether the model asked for tools.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Provider is implemented once per vendor wire format.
type Provider interface {
	// Name returns the provider identifier, e.g. "openai".
	Name() string
	// Model returns the configured model name.
	Model() string
	// Chat submits messages and tool schemas and returns the model's turn.
	// Implementations return ErrEmptyResponse when nothing usable comes back.
	Chat(ctx context.Context, req Request) (*Response, error)
}
