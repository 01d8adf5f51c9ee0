// Package stats computes descriptive statistics over the trial log for one
// distribution type. Snapshots are recomputed on demand and never stored.
package stats

import (
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/trial"
)

// Snapshot is the derived view of every trial of one type.
//
// Invariant: sum(Outcomes) == TotalTrials; every numeric field is 0 when
// TotalTrials is 0.
type Snapshot struct {
	TotalTrials   int            `json:"totalTrials" yaml:"total_trials"`
	Outcomes      map[string]int `json:"outcomes" yaml:"outcomes"`
	ExpectedValue float64        `json:"expectedValue" yaml:"expected_value"`
	Variance      float64        `json:"variance" yaml:"variance"`
	StdDeviation  float64        `json:"stdDeviation" yaml:"std_deviation"`
}

// Zero returns the snapshot of an empty sample.
func Zero() Snapshot {
	return Snapshot{Outcomes: map[string]int{}}
}

// Compute derives the snapshot for type t from trials.
//
// Variance is the population variance over every individual trial, divisor
// TotalTrials.
//
// Precondition: t is valid and every trial of type t carries an in-domain result.
// Postcondition: the result is a pure function of the trials of type t.
func Compute(trials iter.Seq[trial.Trial], t distribution.Type) Snapshot {
	snap := Zero()
	var values []float64
	for tr := range trial.Filter(trials, t) {
		snap.Outcomes[tr.Result]++
		values = append(values, encode(t, tr.Result))
	}
	n := len(values)
	if n == 0 {
		return snap
	}
	snap.TotalTrials = n

	var sum float64
	for result, count := range snap.Outcomes {
		sum += encode(t, result) * float64(count)
	}
	snap.ExpectedValue = sum / float64(n)

	_, snap.Variance = stat.PopMeanVariance(values, nil)
	snap.StdDeviation = math.Sqrt(snap.Variance)
	return snap
}

// GroupedVariance computes sum(count(v) * (v - ev)^2) / N from an outcome
// table. It agrees with the per-trial variance of Compute.
func GroupedVariance(outcomes map[string]int, t distribution.Type, ev float64) float64 {
	values := make([]float64, 0, len(outcomes))
	counts := make([]float64, 0, len(outcomes))
	for result, count := range outcomes {
		if count <= 0 {
			continue
		}
		values = append(values, encode(t, result))
		counts = append(counts, float64(count))
	}
	if len(values) == 0 {
		return 0
	}
	return stat.MomentAbout(2, values, ev, counts)
}

// BernoulliVariance returns p(1-p), the closed form of the coin variance.
func BernoulliVariance(p float64) float64 {
	return p * (1 - p)
}

// Percentage formats the share of result in the sample as "NN.N%".
func (s Snapshot) Percentage(result string) string {
	if s.TotalTrials == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Outcomes[result])/float64(s.TotalTrials)*100)
}

// Results returns the observed results of type t in outcome-space order.
func (s Snapshot) Results(t distribution.Type) []string {
	var out []string
	for _, o := range distribution.Outcomes(t) {
		if s.Outcomes[o] > 0 {
			out = append(out, o)
		}
	}
	return out
}

// encode maps unreachable out-of-domain results to 0.
func encode(t distribution.Type, result string) float64 {
	v, err := distribution.Encode(t, result)
	if err != nil {
		return 0
	}
	return v
}
