package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Suggestion operation types. Anything else is rejected by the patch engine.
const (
	OpAdd    = "add"
	OpModify = "modify"
	OpDelete = "delete"
)

// DefaultReason is used when a suggestion block carries no [REASON] tag,
// e.g. a pure deletion.
const DefaultReason = "N/A"

// Suggestion is one structured remediation unit parsed from the generated
// report: an operation on a dot-separated path into the manifest.
type Suggestion struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Path          string `json:"path"`
	OriginalValue string `json:"original_value"`
	ProposedValue string `json:"proposed_value"`
	Reason        string `json:"reason"`
}

// Valid reports whether the suggestion is actionable: it must address a path,
// and must either propose a value or delete one.
func (s Suggestion) Valid() bool {
	return s.Path != "" && (s.ProposedValue != "" || s.Type == OpDelete)
}

// The generated report is expected to contain exactly one section bounded by
// these markers; suggestions inside it are separated by (n) markers and use
// tag-prefixed fields. The grammar is deliberately tolerant: each field has
// its own pattern and a missing optional field never fails the block.
var (
	listPattern     = regexp.MustCompile(`(?s)\[REMEDIATION LIST START\](.*?)\[REMEDIATION LIST END\]`)
	blockSeparator  = regexp.MustCompile(`\n*\s*\(\d+\)\s*\n`)
	typePattern     = regexp.MustCompile(`\[TYPE\]:\s*(.*)`)
	pathPattern     = regexp.MustCompile(`\[PATH\]:\s*(.*)`)
	originalPattern = regexp.MustCompile(`\[ORIGINAL VALUE\]:\s*(.*)`)
	// Proposed value runs up to the [REASON] tag when present...
	proposedPattern = regexp.MustCompile(`(?s)\[PROPOSED VALUE\]:\s*(.*?)\[REASON\]`)
	// ...and to the end of the block when it is not.
	proposedTailPattern = regexp.MustCompile(`(?s)\[PROPOSED VALUE\]:\s*(.*)\z`)
	reasonPattern       = regexp.MustCompile(`(?s)\[REASON\]:\s*(.*)\z`)
)

// SuggestionParser extracts remediation suggestions from free-form
// generation output.
type SuggestionParser struct {
	Logger hclog.Logger
}

// Parse extracts the delimited suggestion list from raw generated text.
// Absent markers yield an empty list and no error: "no actionable
// suggestions" is a valid outcome, distinct from a generation failure.
// Malformed blocks are dropped and counted; they never abort the rest.
func (p *SuggestionParser) Parse(raw string) (suggestions []Suggestion, dropped int) {
	logger := p.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	section := listPattern.FindStringSubmatch(raw)
	if section == nil {
		logger.Debug("no remediation list markers in generated text")
		return nil, 0
	}

	blocks := blockSeparator.Split(strings.TrimSpace(section[1]), -1)
	for i, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}

		s := Suggestion{
			ID:     fmt.Sprintf("suggestion_%d", i),
			Type:   OpAdd,
			Reason: DefaultReason,
		}
		if m := typePattern.FindStringSubmatch(block); m != nil {
			if t := strings.ToLower(strings.TrimSpace(m[1])); t != "" {
				s.Type = t
			}
		}
		if m := pathPattern.FindStringSubmatch(block); m != nil {
			s.Path = strings.TrimSpace(m[1])
		}
		if m := originalPattern.FindStringSubmatch(block); m != nil {
			s.OriginalValue = strings.TrimSpace(m[1])
		}
		if m := reasonPattern.FindStringSubmatch(block); m != nil {
			s.Reason = strings.TrimSpace(m[1])
			if pm := proposedPattern.FindStringSubmatch(block); pm != nil {
				s.ProposedValue = strings.TrimSpace(pm[1])
			}
		} else if pm := proposedTailPattern.FindStringSubmatch(block); pm != nil {
			s.ProposedValue = strings.TrimSpace(pm[1])
		}

		if !s.Valid() {
			dropped++
			logger.Warn("dropping invalid suggestion block", "block", i, "path", s.Path, "type", s.Type)
			continue
		}
		suggestions = append(suggestions, s)
	}

	logger.Debug("parsed suggestion list", "suggestions", len(suggestions), "dropped", dropped)
	return suggestions, dropped
}
