package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Finding represents one failing rule reported by the config scanner
type Finding struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Resolution  string `json:"resolution"`
}

// ResultGroup is one group of findings in a scanner report, usually one
// group per scanned target.
type ResultGroup struct {
	Target   string    `json:"target"`
	Findings []Finding `json:"findings"`
}

// Report is the normalized shape of a scanner run. Scanner wrappers must
// reject malformed tool output before building one; an empty Results list
// here always means "scanned clean", never "scan failed".
type Report struct {
	Results []ResultGroup `json:"results"`
}

// Flatten returns every failing finding across all result groups.
func (r *Report) Flatten() []Finding {
	var findings []Finding
	for _, group := range r.Results {
		findings = append(findings, group.Findings...)
	}
	return findings
}

// QueryFor builds the retrieval query string for a single finding.
// ID, title, description and resolution are combined so the benchmark
// search has as much signal as possible.
func QueryFor(f Finding) string {
	return strings.TrimSpace(fmt.Sprintf("%s: %s. %s. %s", f.ID, f.Title, f.Description, f.Resolution))
}

// BuildQueries turns a scanner report into a deduplicated set of retrieval
// queries. A report with zero failing rules yields an empty slice, which
// callers must treat as "no issues" and skip retrieval and generation.
func BuildQueries(r *Report) []string {
	seen := make(map[string]bool)
	var queries []string
	for _, f := range r.Flatten() {
		q := QueryFor(f)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	// The set is unordered by contract; sort for deterministic runs.
	sort.Strings(queries)
	return queries
}
