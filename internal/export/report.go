package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/stats"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for a report format outside text|json|yaml.
var ErrUnknownFormat = errors.New("unknown report format")

// OutcomeRow is one line of the outcome breakdown.
type OutcomeRow struct {
	Result     string `json:"result" yaml:"result"`
	Count      int    `json:"count" yaml:"count"`
	Percentage string `json:"percentage" yaml:"percentage"`
}

// Document is the structured form of a statistics report.
type Document struct {
	Type          distribution.Type `json:"type" yaml:"type"`
	TotalTrials   int               `json:"totalTrials" yaml:"total_trials"`
	ExpectedValue float64           `json:"expectedValue" yaml:"expected_value"`
	Variance      float64           `json:"variance" yaml:"variance"`
	StdDeviation  float64           `json:"stdDeviation" yaml:"std_deviation"`
	Outcomes      []OutcomeRow      `json:"outcomes" yaml:"outcomes"`
}

// NewDocument builds the report document for snap. Observed outcomes are
// listed in outcome-space order.
func NewDocument(snap stats.Snapshot, t distribution.Type) Document {
	doc := Document{
		Type:          t,
		TotalTrials:   snap.TotalTrials,
		ExpectedValue: snap.ExpectedValue,
		Variance:      snap.Variance,
		StdDeviation:  snap.StdDeviation,
		Outcomes:      []OutcomeRow{},
	}
	for _, r := range snap.Results(t) {
		doc.Outcomes = append(doc.Outcomes, OutcomeRow{
			Result:     r,
			Count:      snap.Outcomes[r],
			Percentage: snap.Percentage(r),
		})
	}
	return doc
}

// Report writes the statistics for type t to w in the named format.
//
// Precondition: format is one of FormatText, FormatJSON, FormatYAML.
// Postcondition: Returns an error wrapping ErrUnknownFormat for any other format.
func Report(w io.Writer, snap stats.Snapshot, t distribution.Type, format string) error {
	doc := NewDocument(snap, t)
	switch strings.ToLower(format) {
	case FormatText, "":
		return writeText(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func writeText(w io.Writer, doc Document) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s statistics\n", doc.Type.Label())
	fmt.Fprintf(&b, "Total trials:   %d\n", doc.TotalTrials)
	fmt.Fprintf(&b, "Expected value: %.2f\n", doc.ExpectedValue)
	fmt.Fprintf(&b, "Variance:       %.2f\n", doc.Variance)
	fmt.Fprintf(&b, "Std deviation:  %.2f\n", doc.StdDeviation)
	if len(doc.Outcomes) > 0 {
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Result\tCount\tShare")
		for _, o := range doc.Outcomes {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Result, o.Count, o.Percentage)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
