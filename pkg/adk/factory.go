package adk

import (
	"context"
	"fmt"
	"strings"
)

// DefaultProvider is used when no provider has been configured yet.
const DefaultProvider = "gemini"

// NewProvider builds the configured generation provider. The name is
// case-insensitive and an empty name falls back to DefaultProvider, so
// callers can hand over the raw config value.
func NewProvider(ctx context.Context, providerName, apiKey, modelName string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(providerName)) {
	case "", DefaultProvider:
		return NewGeminiProvider(ctx, apiKey, modelName)
	case "openai":
		return NewOpenAIProvider(apiKey, modelName), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}
