package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Scanner runs the external configuration scanner against manifest text.
// Implementations must return an error for tool or parse failures; a clean
// scan is a Report with zero findings, never an error.
type Scanner interface {
	Scan(ctx context.Context, manifest string) (*Report, error)
}

// PromptContext is the structured input handed to the generation capability.
type PromptContext struct {
	Evidence string
	Manifest string
	Question string
}

// Generator is the generation capability: structured context in, free text out.
type Generator interface {
	Generate(ctx context.Context, pc PromptContext) (string, error)
}

// ScanSummary mirrors what the analysis run produced before generation.
type ScanSummary struct {
	TotalQueries    int `json:"total_queries_generated"`
	UniqueDocuments int `json:"unique_documents_found"`
}

// Analysis is the result of one full pipeline run over a manifest.
type Analysis struct {
	NoIssues bool             `json:"no_issues"`
	Manifest string           `json:"analyzed_manifest"`
	Summary  ScanSummary      `json:"scan_summary"`
	Evidence []EvidenceRecord `json:"analysis_results"`
	Findings []Finding        `json:"structured_findings"`
	Report   string           `json:"report"`
}

// Pipeline wires the scanner, retrieval and generation capabilities into the
// full analysis flow. All collaborators are injected so the pipeline is
// testable with fakes and never reaches for process-wide singletons.
type Pipeline struct {
	Scanner      Scanner
	Consolidator *Consolidator
	Generator    Generator
	Logger       hclog.Logger
}

// DefaultQuestion is used when the caller does not ask anything specific.
const DefaultQuestion = "Analyze this manifest and explain its configuration and potential security weaknesses."

// Analyze scans the manifest, consolidates benchmark evidence for every
// finding and asks the generator for the remediation report. A scan with
// zero failing rules short-circuits to a NoIssues result without touching
// retrieval or generation. Scanner failures are hard errors; they are never
// conflated with a clean scan.
func (p *Pipeline) Analyze(ctx context.Context, manifest, question string) (*Analysis, error) {
	logger := p.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if question == "" {
		question = DefaultQuestion
	}

	report, err := p.Scanner.Scan(ctx, manifest)
	if err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}

	queries := BuildQueries(report)
	if len(queries) == 0 {
		logger.Info("scan found no issues, skipping retrieval and generation")
		return &Analysis{NoIssues: true, Manifest: manifest}, nil
	}
	logger.Info("scan produced queries", "count", len(queries))

	records := p.Consolidator.Consolidate(ctx, queries)
	logger.Info("evidence consolidated", "documents", len(records))

	text, err := p.Generator.Generate(ctx, PromptContext{
		Evidence: FormatEvidence(records),
		Manifest: manifest,
		Question: question,
	})
	if err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}

	return &Analysis{
		Manifest: manifest,
		Summary: ScanSummary{
			TotalQueries:    len(queries),
			UniqueDocuments: len(records),
		},
		Evidence: records,
		Findings: report.Flatten(),
		Report:   text,
	}, nil
}

// FormatEvidence serializes the consolidated evidence set into the numbered
// [METADATA]/[CONTENT] blocks the generation prompt cites by index.
func FormatEvidence(records []EvidenceRecord) string {
	if len(records) == 0 {
		return "No relevant security guidance or benchmark documents were found."
	}

	var sb strings.Builder
	for i, rec := range records {
		if i > 0 {
			sb.WriteString("\n\n" + strings.Repeat("=", 20) + "\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d]\n[METADATA]\n", i+1))
		for _, key := range sortedKeys(rec.Document.Metadata) {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", key, rec.Document.Metadata[key]))
		}
		sb.WriteString("[CONTENT]\n")
		sb.WriteString(rec.Document.Content)
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic metadata ordering keeps prompts and tests stable.
	sort.Strings(keys)
	return keys
}
