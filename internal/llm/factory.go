package llm

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/watson-stark/internal/config"
)

// NewProvider builds the provider selected by cfg.LLMProvider. Missing
// credentials are reported here, before any message is handled.
func NewProvider(ctx context.Context, cfg config.Config) (Provider, error) {
	if err := cfg.ValidateProvider(); err != nil {
		return nil, err
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, ""), nil
	case config.ProviderXAI:
		return NewXAIProvider(cfg.XAIAPIKey, cfg.XAIModel, cfg.XAIBaseURL), nil
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderAnthropic:
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.OllamaHost, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}
