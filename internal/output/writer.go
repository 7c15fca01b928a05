// Package output writes KPI reports as JSON or YAML.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/kpi"
)

// ErrUnknownEncoding is returned by ParseEncoding.
var ErrUnknownEncoding = errors.New("unknown output format")

// Encoding selects the report serialization.
type Encoding string

const (
	JSON Encoding = "json"
	YAML Encoding = "yaml"
)

// ParseEncoding accepts json, yaml or yml.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q (expected json or yaml)", ErrUnknownEncoding, s)
	}
}

// Report is the KPI summary for one set of selections.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
	Criteria    filter.Criteria `json:"criteria" yaml:"criteria"`
	Summary     kpi.Summary     `json:"summary" yaml:"summary"`
	Insights    []string        `json:"insights" yaml:"insights"`
}

// NewReport computes the summary of view under c.
func NewReport(view filter.View, c filter.Criteria) Report {
	s := kpi.Compute(view, c.Now)
	return Report{
		GeneratedAt: c.Now,
		Criteria:    c,
		Summary:     s,
		Insights:    kpi.Insights(s),
	}
}

// Encode serializes r to w.
func Encode(w io.Writer, r Report, enc Encoding) error {
	switch enc {
	case JSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		if err := e.Encode(r); err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		return nil
	case YAML:
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		if err := e.Encode(r); err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		return e.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
}

// WriteReport writes r to outputPath, or stdout when outputPath is "-".
func WriteReport(outputPath string, r Report, enc Encoding) error {
	if outputPath == "-" {
		return Encode(os.Stdout, r, enc)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	if err := Encode(f, r, enc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
