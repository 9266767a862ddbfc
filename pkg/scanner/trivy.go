package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/user/ksec-copilot/pkg/engine"
)

// Error taxonomy for the scanner collaborator. Both are hard failures and
// must never be confused with a scan that simply found nothing.
var (
	ErrScannerUnavailable = errors.New("trivy binary not found")
	ErrMalformedReport    = errors.New("malformed scanner report")
)

// TrivyScanner runs `trivy config` against manifest text and normalizes the
// JSON report into the engine's finding shape.
type TrivyScanner struct {
	Binary string
	Logger hclog.Logger
}

// NewTrivyScanner creates a scanner wrapper. An empty binary defaults to
// "trivy" on PATH.
func NewTrivyScanner(binary string, logger hclog.Logger) *TrivyScanner {
	if binary == "" {
		binary = "trivy"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &TrivyScanner{Binary: binary, Logger: logger}
}

// Scan writes the manifest to a temp file, invokes trivy and parses the
// report. Tool and parse failures are returned as errors; a clean manifest
// produces an empty report.
func (t *TrivyScanner) Scan(ctx context.Context, manifest string) (*engine.Report, error) {
	if _, err := exec.LookPath(t.Binary); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrScannerUnavailable, t.Binary)
	}

	tmp, err := os.CreateTemp("", "ksec-scan-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("creating scan temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(manifest); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing scan temp file: %w", err)
	}
	tmp.Close()

	args := []string{"config", "--format", "json", tmp.Name()}
	t.Logger.Debug("running scanner", "binary", t.Binary, "args", args)

	cmd := exec.CommandContext(ctx, t.Binary, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("trivy scan failed: %v: %s", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("trivy scan failed: %w", err)
	}

	return ParseTrivyReport(output)
}

// trivyReport is the consumed subset of trivy's JSON output.
type trivyReport struct {
	Results []struct {
		Target            string `json:"Target"`
		Misconfigurations []struct {
			ID          string `json:"ID"`
			Title       string `json:"Title"`
			Description string `json:"Description"`
			Resolution  string `json:"Resolution"`
			Status      string `json:"Status"`
		} `json:"Misconfigurations"`
	} `json:"Results"`
}

// ParseTrivyReport normalizes raw trivy JSON. Output that does not parse, or
// parses but has no Results key at all, is malformed: absence of the report
// shape is a different outcome than absence of failures.
func ParseTrivyReport(data []byte) (*engine.Report, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if _, ok := probe["Results"]; !ok {
		return nil, fmt.Errorf("%w: report has no Results key", ErrMalformedReport)
	}

	var raw trivyReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}

	report := &engine.Report{}
	for _, res := range raw.Results {
		group := engine.ResultGroup{Target: res.Target}
		for _, m := range res.Misconfigurations {
			if m.Status != "FAIL" {
				continue
			}
			group.Findings = append(group.Findings, engine.Finding{
				ID:          m.ID,
				Title:       m.Title,
				Description: m.Description,
				Resolution:  m.Resolution,
			})
		}
		if len(group.Findings) > 0 {
			report.Results = append(report.Results, group)
		}
	}
	return report, nil
}
