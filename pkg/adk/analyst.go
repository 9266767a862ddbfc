package adk

import (
	"context"

	"github.com/user/ksec-copilot/pkg/engine"
)

// Analyst turns a structured prompt context into a generated security
// report. It is the generation capability the pipeline is built against.
type Analyst struct {
	Provider Provider
}

func NewAnalyst(provider Provider) *Analyst {
	return &Analyst{Provider: provider}
}

// Generate renders the analysis prompt and asks the provider for the report.
func (a *Analyst) Generate(ctx context.Context, pc engine.PromptContext) (string, error) {
	prompt, err := RenderAnalysisPrompt(pc)
	if err != nil {
		return "", err
	}
	return a.Provider.Generate(ctx, []Message{{Role: "user", Content: prompt}})
}
