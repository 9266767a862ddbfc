package adk

import (
	"context"
)

// Message represents a chat message
type Message struct {
	Role    string // "user" or "model"
	Content string
}

// Provider defines the interface for different AI models
type Provider interface {
	Generate(ctx context.Context, history []Message) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}
