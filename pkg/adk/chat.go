package adk

import (
	"context"
	"fmt"
)

const chatPreamble = `You are K-SEC Copilot, a Kubernetes security expert.
You already discussed an initial security analysis with the user. Answer the
follow-up questions using the conversation so far; the initial analysis below
is the overall context of the conversation.

[INITIAL ANALYSIS]
%s`

// ChatSession keeps follow-up questions anchored to the initial analysis.
// The history grows with every exchange so the model sees the whole thread.
type ChatSession struct {
	provider Provider
	history  []Message
}

// NewChatSession starts a follow-up conversation over a finished analysis.
func NewChatSession(provider Provider, initialAnalysis string) *ChatSession {
	return &ChatSession{
		provider: provider,
		history: []Message{
			{Role: "user", Content: fmt.Sprintf(chatPreamble, initialAnalysis)},
			{Role: "model", Content: "Understood. Ask me anything about the analysis."},
		},
	}
}

// Ask sends a follow-up question and records the exchange in the history.
func (c *ChatSession) Ask(ctx context.Context, question string) (string, error) {
	c.history = append(c.history, Message{Role: "user", Content: question})
	answer, err := c.provider.Generate(ctx, c.history)
	if err != nil {
		// Drop the unanswered question so a retry starts clean.
		c.history = c.history[:len(c.history)-1]
		return "", err
	}
	c.history = append(c.history, Message{Role: "model", Content: answer})
	return answer, nil
}
