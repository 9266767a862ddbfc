package scanner

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/user/ksec-copilot/pkg/engine"
)

// SARIFFileScanner satisfies the pipeline scanner contract with findings
// taken from a pre-recorded SARIF report instead of a live scanner run.
type SARIFFileScanner struct {
	Path   string
	Logger hclog.Logger
}

func (s *SARIFFileScanner) Scan(ctx context.Context, manifest string) (*engine.Report, error) {
	return LoadSARIFReport(s.Path, s.Logger)
}

// LoadSARIFReport reads a SARIF file produced by scanners such as checkov,
// kubescape or kube-linter and normalizes it into the engine's finding
// shape. Rule metadata supplies title, description and remediation text;
// the per-result message fills in whatever the rule lacks.
func LoadSARIFReport(path string, logger hclog.Logger) (*engine.Report, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	report, err := sarif.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}

	out := &engine.Report{}
	for _, run := range report.Runs {
		rules := make(map[string]*sarif.ReportingDescriptor)
		toolName := "sarif"
		if run.Tool.Driver != nil {
			toolName = run.Tool.Driver.Name
			for _, rule := range run.Tool.Driver.Rules {
				rules[rule.ID] = rule
			}
		}

		group := engine.ResultGroup{Target: toolName}
		for _, res := range run.Results {
			// Suppressed results were already reviewed elsewhere.
			if len(res.Suppressions) > 0 {
				continue
			}

			f := engine.Finding{}
			if res.RuleID != nil {
				f.ID = *res.RuleID
			}
			if res.Message.Text != nil {
				f.Description = *res.Message.Text
			}
			if rule, ok := rules[f.ID]; ok {
				if rule.ShortDescription != nil && rule.ShortDescription.Text != nil {
					f.Title = *rule.ShortDescription.Text
				}
				if f.Description == "" && rule.FullDescription != nil && rule.FullDescription.Text != nil {
					f.Description = *rule.FullDescription.Text
				}
				if rule.Help != nil && rule.Help.Text != nil {
					f.Resolution = *rule.Help.Text
				}
			}
			if f.ID == "" && f.Title == "" && f.Description == "" {
				logger.Debug("skipping empty SARIF result", "tool", toolName)
				continue
			}
			group.Findings = append(group.Findings, f)
		}
		if len(group.Findings) > 0 {
			out.Results = append(out.Results, group)
		}
	}

	logger.Debug("loaded SARIF report", "path", path, "groups", len(out.Results))
	return out, nil
}
