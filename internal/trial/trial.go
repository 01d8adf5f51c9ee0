// Package trial holds the trial record and the ordered, newest-first trial log.
package trial

import (
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/cory-johannsen/probsim/internal/distribution"
)

// BatchSpacing separates consecutive timestamps of one batch so every trial
// stays distinguishable when sorted by recency.
const BatchSpacing = 100 * time.Millisecond

// Trial is one recorded outcome. It is never mutated after insertion.
type Trial struct {
	Type      distribution.Type `json:"type"`
	Result    string            `json:"result"`
	Timestamp int64             `json:"timestamp"` // epoch milliseconds
}

// Time returns the trial timestamp as a UTC time.
func (t Trial) Time() time.Time {
	return time.UnixMilli(t.Timestamp).UTC()
}

// Clock returns the current time.
type Clock func() time.Time

// Log is the ordered trial history, newest first. All methods are safe for
// concurrent use; the log places no bound on its size.
type Log struct {
	mu     sync.RWMutex
	trials []Trial
	now    Clock
}

// NewLog returns an empty Log stamping appends with now; nil means time.Now.
func NewLog(now Clock) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{now: now}
}

// Append records one trial at the current time at the front of the log.
//
// Postcondition: Size() grows by one and Trials()[0] is the new trial.
func (l *Log) Append(t distribution.Type, result string) Trial {
	tr := Trial{Type: t, Result: result, Timestamp: l.now().UnixMilli()}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trials = slices.Insert(l.trials, 0, tr)
	return tr
}

// AppendBatch records results as one block ahead of all existing entries.
// The i-th result is stamped base - i*BatchSpacing, so the first generated
// result is newest and appears first.
//
// Postcondition: the first len(results) entries are the batch in generation order.
func (l *Log) AppendBatch(t distribution.Type, results []string, base time.Time) []Trial {
	baseMs := base.UnixMilli()
	step := BatchSpacing.Milliseconds()
	batch := make([]Trial, len(results))
	for i, r := range results {
		batch[i] = Trial{Type: t, Result: r, Timestamp: baseMs - int64(i)*step}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trials = slices.Insert(l.trials, 0, batch...)
	return slices.Clone(batch)
}

// Clear empties the log unconditionally.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trials = nil
}

// Replace swaps the whole membership for trials, given newest first.
func (l *Log) Replace(trials []Trial) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trials = slices.Clone(trials)
}

// Size returns the number of trials across all types.
func (l *Log) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trials)
}

// Trials returns a copy of the log, newest first.
func (l *Log) Trials() []Trial {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.trials)
}

// Recent returns at most n of the newest trials.
func (l *Log) Recent(n int) []Trial {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n = max(0, min(n, len(l.trials)))
	return slices.Clone(l.trials[:n])
}

// Oldest returns the earliest-inserted trial, or false when the log is empty.
func (l *Log) Oldest() (Trial, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.trials) == 0 {
		return Trial{}, false
	}
	return l.trials[len(l.trials)-1], true
}

// All returns a view over every trial in log order.
func (l *Log) All() iter.Seq[Trial] {
	return func(yield func(Trial) bool) {
		for _, tr := range l.Trials() {
			if !yield(tr) {
				return
			}
		}
	}
}

// FilterByType returns a lazy view of the trials of type t in log order.
// Each iteration reads the log as of the moment it starts, so the view may
// be ranged over repeatedly.
func (l *Log) FilterByType(t distribution.Type) iter.Seq[Trial] {
	return Filter(l.All(), t)
}

// Filter narrows seq to trials of type t.
func Filter(seq iter.Seq[Trial], t distribution.Type) iter.Seq[Trial] {
	return func(yield func(Trial) bool) {
		for tr := range seq {
			if tr.Type != t {
				continue
			}
			if !yield(tr) {
				return
			}
		}
	}
}
