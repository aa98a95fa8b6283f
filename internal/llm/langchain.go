package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaProvider runs a local model through langchaingo's ollama backend.
type OllamaProvider struct {
	model llms.Model
	name  string
}

// NewOllamaProvider creates a provider for a model served by an Ollama host.
func NewOllamaProvider(host, model string) (*OllamaProvider, error) {
	client, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &OllamaProvider{model: client, name: model}, nil
}

func (p *OllamaProvider) Name() string  { return "ollama" }
func (p *OllamaProvider) Model() string { return p.name }

func (p *OllamaProvider) Chat(ctx context.Context, req Request) (*Response, error) {
	opts := []llms.CallOption{llms.WithMaxTokens(req.MaxTokens)}
	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  objectSchema(t.Parameters),
				},
			}
		}
		opts = append(opts, llms.WithTools(tools))
	}

	resp, err := p.model.GenerateContent(ctx, toLangchainMessages(req.System, req.Messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", wrapFatalError(err))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	out := &Response{Text: choice.Content}
	if in, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
		out.Usage.InputTokens = int64(in)
	}
	if o, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
		out.Usage.OutputTokens = int64(o)
	}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        callID(tc.ID),
			Name:      tc.FunctionCall.Name,
			Arguments: ParseArguments(tc.FunctionCall.Arguments),
		})
	}
	return out, nil
}

func toLangchainMessages(system string, messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages)+1)
	if system != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range messages {
		switch m.Role {
		case RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case RoleAssistant:
			if m.ToolCall == nil {
				out = append(out, llms.TextParts(llms.ChatMessageTypeAI, m.Content))
				continue
			}
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.ToolCall{
					ID:   m.ToolCall.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      m.ToolCall.Name,
						Arguments: encodeArgumentsObject(m.ToolCall.Arguments),
					},
				}},
			})
		case RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.Name,
					Content:    m.Content,
				}},
			})
		}
	}
	return out
}
