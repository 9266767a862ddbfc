package adk

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/user/ksec-copilot/pkg/engine"
)

//go:embed prompts/analysis_prompt.md
var analysisPrompt string

var analysisTemplate = template.Must(template.New("analysis").Parse(analysisPrompt))

// RenderAnalysisPrompt fills the analysis prompt template with the
// consolidated evidence, the manifest under analysis and the user question.
func RenderAnalysisPrompt(pc engine.PromptContext) (string, error) {
	var buf bytes.Buffer
	if err := analysisTemplate.Execute(&buf, pc); err != nil {
		return "", fmt.Errorf("failed to render analysis prompt: %v", err)
	}
	return buf.String(), nil
}
