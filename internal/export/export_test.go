package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/stats"
	"github.com/cory-johannsen/probsim/internal/trial"
)

const t0 = int64(1_700_000_000_000) // 2023-11-14T22:13:20.000Z

func TestCSV_Example(t *testing.T) {
	trials := []trial.Trial{
		{Type: distribution.Wheel, Result: "Blue (5)", Timestamp: t0 + 1500},
		{Type: distribution.Coin, Result: distribution.Heads, Timestamp: t0 + 7},
		{Type: distribution.Dice, Result: "6", Timestamp: t0},
	}
	got, err := CSV(trials)
	require.NoError(t, err)
	want := "Type,Result,Timestamp\n" +
		"wheel,Blue (5),2023-11-14T22:13:21.500Z\n" +
		"coin,Heads,2023-11-14T22:13:20.007Z\n" +
		"dice,6,2023-11-14T22:13:20.000Z\n"
	assert.Equal(t, want, got)
}

func TestCSV_EmptyRejected(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil)
	assert.ErrorIs(t, err, ErrEmptyExport)
	assert.Zero(t, buf.Len(), "nothing is written for an empty log")
}

func TestCSV_NoQuoting(t *testing.T) {
	var trials []trial.Trial
	for _, s := range distribution.WheelSections() {
		trials = append(trials, trial.Trial{Type: distribution.Wheel, Result: s.Result(), Timestamp: t0})
	}
	got, err := CSV(trials)
	require.NoError(t, err)
	assert.NotContains(t, got, `"`)
}

func TestFormatTimestamp_UTC(t *testing.T) {
	assert.Equal(t, "1970-01-01T00:00:00.000Z", FormatTimestamp(0))
	ms, err := ParseTimestamp("2023-11-14T22:13:20.000Z")
	require.NoError(t, err)
	assert.Equal(t, t0, ms)

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

// Property: the CSV has one row per trial, in log order, and every row
// parses back to the trial it came from.
func TestPropertyCSVRowsMatchLog(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n")
		trials := make([]trial.Trial, n)
		for i := range trials {
			typ := rapid.SampledFrom(distribution.Types()).Draw(t, "type")
			trials[i] = trial.Trial{
				Type:      typ,
				Result:    rapid.SampledFrom(distribution.Outcomes(typ)).Draw(t, "result"),
				Timestamp: rapid.Int64Range(0, 4_000_000_000_000).Draw(t, "ts"),
			}
		}
		doc, err := CSV(trials)
		if err != nil {
			t.Fatalf("CSV: %v", err)
		}
		records, err := csv.NewReader(strings.NewReader(doc)).ReadAll()
		if err != nil {
			t.Fatalf("reading csv: %v", err)
		}
		if len(records) != n+1 || !slices.Equal(records[0], Header) {
			t.Fatalf("got %d records, header %v", len(records), records[0])
		}
		for i, rec := range records[1:] {
			ms, err := ParseTimestamp(rec[2])
			if err != nil {
				t.Fatalf("row %d: %v", i, err)
			}
			back := trial.Trial{Type: distribution.Type(rec[0]), Result: rec[1], Timestamp: ms}
			if back != trials[i] {
				t.Fatalf("row %d: got %+v, want %+v", i, back, trials[i])
			}
		}
	})
}

func coinSnapshot() stats.Snapshot {
	log := trial.NewLog(func() time.Time { return time.UnixMilli(t0) })
	log.Append(distribution.Coin, distribution.Heads)
	log.Append(distribution.Coin, distribution.Heads)
	log.Append(distribution.Coin, distribution.Tails)
	log.Append(distribution.Coin, distribution.Heads)
	return stats.Compute(log.All(), distribution.Coin)
}

func TestReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, coinSnapshot(), distribution.Coin, FormatText))
	out := buf.String()
	assert.Contains(t, out, "Coin Flip statistics")
	assert.Contains(t, out, "Total trials:   4")
	assert.Contains(t, out, "Expected value: 0.75")
	assert.Contains(t, out, "Variance:       0.19")
	assert.Contains(t, out, "75.0%")
	assert.Less(t, strings.Index(out, "Heads"), strings.Index(out, "Tails"))
}

func TestReport_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, stats.Zero(), distribution.Dice, FormatText))
	assert.Contains(t, buf.String(), "Total trials:   0")
	assert.NotContains(t, buf.String(), "Result")
}

func TestReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, coinSnapshot(), distribution.Coin, FormatJSON))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, distribution.Coin, doc.Type)
	assert.Equal(t, 4, doc.TotalTrials)
	assert.InDelta(t, 0.1875, doc.Variance, 1e-12)
	assert.Equal(t, []OutcomeRow{
		{Result: distribution.Heads, Count: 3, Percentage: "75.0%"},
		{Result: distribution.Tails, Count: 1, Percentage: "25.0%"},
	}, doc.Outcomes)
}

func TestReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, coinSnapshot(), distribution.Coin, "YAML"))
	assert.Contains(t, buf.String(), "total_trials: 4")

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, NewDocument(coinSnapshot(), distribution.Coin), doc)
}

func TestReport_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Report(&buf, stats.Zero(), distribution.Wheel, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Zero(t, buf.Len())
}
