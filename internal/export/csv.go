// Package export renders the trial log as CSV and statistics snapshots as
// text, JSON, or YAML reports.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cory-johannsen/probsim/internal/trial"
)

// DefaultFilename is the conventional name of an exported file.
const DefaultFilename = "probability_simulation_results.csv"

// TimestampLayout renders timestamps as UTC instants with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Header is the CSV header row.
var Header = []string{"Type", "Result", "Timestamp"}

// ErrEmptyExport is returned when an export is requested for an empty log.
var ErrEmptyExport = errors.New("no trials to export")

// WriteCSV writes the header and one row per trial, in the given order.
//
// Precondition: trials must be non-empty.
// Postcondition: Returns ErrEmptyExport without writing anything when trials is empty.
func WriteCSV(w io.Writer, trials []trial.Trial) error {
	if len(trials) == 0 {
		return ErrEmptyExport
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, t := range trials {
		if err := cw.Write(Row(t)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// CSV returns the export document for trials.
func CSV(trials []trial.Trial) (string, error) {
	var b strings.Builder
	if err := WriteCSV(&b, trials); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Row renders one trial as a CSV record.
func Row(t trial.Trial) []string {
	return []string{string(t.Type), t.Result, FormatTimestamp(t.Timestamp)}
}

// FormatTimestamp renders epoch milliseconds with TimestampLayout.
func FormatTimestamp(ms int64) string {
	return trial.Trial{Timestamp: ms}.Time().UTC().Format(TimestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (int64, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UnixMilli(), nil
}
