package simulator

import (
	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/stats"
	"github.com/cory-johannsen/probsim/internal/trial"
)

// Listener receives change notifications. Callbacks run synchronously on the
// goroutine that made the change, after the change is visible and persisted,
// and must not call back into mutating Simulator methods.
type Listener interface {
	OnTrialAppended(tr trial.Trial)
	OnBatchAppended(trials []trial.Trial)
	OnLogCleared()
	OnStatisticsUpdated(t distribution.Type, snap stats.Snapshot)
}

// ListenerFuncs adapts optional functions to a Listener; nil fields are skipped.
type ListenerFuncs struct {
	TrialAppended     func(tr trial.Trial)
	BatchAppended     func(trials []trial.Trial)
	LogCleared        func()
	StatisticsUpdated func(t distribution.Type, snap stats.Snapshot)
}

func (f ListenerFuncs) OnTrialAppended(tr trial.Trial) {
	if f.TrialAppended != nil {
		f.TrialAppended(tr)
	}
}

func (f ListenerFuncs) OnBatchAppended(trials []trial.Trial) {
	if f.BatchAppended != nil {
		f.BatchAppended(trials)
	}
}

func (f ListenerFuncs) OnLogCleared() {
	if f.LogCleared != nil {
		f.LogCleared()
	}
}

func (f ListenerFuncs) OnStatisticsUpdated(t distribution.Type, snap stats.Snapshot) {
	if f.StatisticsUpdated != nil {
		f.StatisticsUpdated(t, snap)
	}
}

var _ Listener = ListenerFuncs{}
