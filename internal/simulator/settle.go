package simulator

import (
	"sync"
	"time"
)

// settleTimer fires a callback once after a delay unless stopped.
// It is safe for concurrent use.
type settleTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// newSettleTimer starts a timer that calls onFire after delay in its own goroutine.
//
// Precondition: delay > 0; onFire must not be nil.
// Postcondition: onFire will be called exactly once unless Stop is called first.
func newSettleTimer(delay time.Duration, onFire func()) *settleTimer {
	st := &settleTimer{}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.timer = time.AfterFunc(delay, func() {
		st.mu.Lock()
		stopped := st.stopped
		st.stopped = true
		st.mu.Unlock()
		if !stopped {
			onFire()
		}
	})
	return st
}

// Stop prevents the callback from firing and reports whether it did so.
// Safe to call multiple times.
//
// Postcondition: onFire will not be called after Stop returns.
func (st *settleTimer) Stop() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.stopped {
		return false
	}
	st.stopped = true
	st.timer.Stop()
	return true
}
