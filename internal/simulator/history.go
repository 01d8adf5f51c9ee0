package simulator

import (
	"sync"
	"time"

	"github.com/cory-johannsen/probsim/internal/trial"
)

// HistoryEntry is one displayed trial.
type HistoryEntry struct {
	Trial trial.Trial
	Label string
	Ago   string
}

// History is a read-only view of the most recent trials.
type History struct {
	Entries []HistoryEntry
	// Total counts every trial in the log, not just the displayed ones.
	Total int
	// Session is the span from the oldest trial until now, e.g. "2m 5s".
	Session string
	At      time.Time
}

// History renders the newest limit trials with relative timestamps.
// A limit below one shows every trial.
func (s *Simulator) History(limit int) History {
	now := s.clock()
	var recent []trial.Trial
	if limit < 1 {
		recent = s.log.Trials()
	} else {
		recent = s.log.Recent(limit)
	}
	h := History{
		Entries: make([]HistoryEntry, 0, len(recent)),
		Total:   s.log.Size(),
		Session: trial.FormatSessionDuration(0),
		At:      now,
	}
	for _, tr := range recent {
		h.Entries = append(h.Entries, HistoryEntry{
			Trial: tr,
			Label: tr.Type.Label(),
			Ago:   trial.FormatTimeAgo(tr.Timestamp, now),
		})
	}
	if oldest, ok := s.log.Oldest(); ok {
		h.Session = trial.FormatSessionDuration(now.Sub(oldest.Time()))
	}
	return h
}

// Refresher periodically recomputes the history view and broadcasts it to
// subscribers. It only reads the log.
type Refresher struct {
	sim      *Simulator
	limit    int
	interval time.Duration

	mu          sync.Mutex
	subscribers map[chan<- History]struct{}
}

// NewRefresher creates a stopped Refresher.
//
// Precondition: sim must be non-nil; interval > 0.
// Postcondition: Returns a non-nil *Refresher ready to Start().
func NewRefresher(sim *Simulator, limit int, interval time.Duration) *Refresher {
	return &Refresher{
		sim:         sim,
		limit:       limit,
		interval:    interval,
		subscribers: make(map[chan<- History]struct{}),
	}
}

// Subscribe registers ch to receive a History on each refresh.
// If ch is full, the refresh is dropped for that subscriber (non-blocking).
//
// Precondition: ch must not be nil.
func (r *Refresher) Subscribe(ch chan<- History) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list.
func (r *Refresher) Unsubscribe(ch chan<- History) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, ch)
}

// Refresh computes the view now and sends it to every subscriber.
func (r *Refresher) Refresh() History {
	h := r.sim.History(r.limit)
	r.mu.Lock()
	subs := make([]chan<- History, 0, len(r.subscribers))
	for ch := range r.subscribers {
		subs = append(subs, ch)
	}
	r.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- h:
		default:
		}
	}
	return h
}

// Start launches the refresh goroutine and returns a stop function.
// Calling stop() is idempotent.
//
// Postcondition: Refresh runs once per interval until stop() is called.
func (r *Refresher) Start() (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Refresh()
			case <-done:
				return
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}
