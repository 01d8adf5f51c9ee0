// Package simulator coordinates the trial log, outcome generation,
// persistence, and change notifications for one simulation session.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/export"
	"github.com/cory-johannsen/probsim/internal/stats"
	"github.com/cory-johannsen/probsim/internal/storage"
	"github.com/cory-johannsen/probsim/internal/trial"
)

// DefaultSettleDelay is how long a single-trial generation stays in flight.
const DefaultSettleDelay = 1500 * time.Millisecond

// ErrGenerationPending is returned when a single-trial request arrives while
// another single-trial generation is still settling.
var ErrGenerationPending = errors.New("generation already in progress")

// ErrInvalidBatchSize is returned for a batch of fewer than one trial.
var ErrInvalidBatchSize = errors.New("batch size must be at least 1")

// ErrEmptyExport is returned when an export is requested for an empty log.
var ErrEmptyExport = export.ErrEmptyExport

// Options configures a Simulator.
type Options struct {
	// Generator draws outcomes. Required.
	Generator distribution.OutcomeGenerator
	// Store persists the log after every mutation. Nil disables persistence.
	Store *storage.Store
	// Preferences holds the sound setting. Nil keeps it in memory only.
	Preferences *storage.Preferences
	// Clock stamps trials; nil means time.Now.
	Clock trial.Clock
	// SettleDelay gates single-trial generation; zero lands trials immediately.
	SettleDelay time.Duration
	// Logger is required.
	Logger *zap.Logger
}

// Generation is one single-trial request. The result is chosen when the
// request is accepted and recorded when the settle delay elapses.
type Generation struct {
	Type      distribution.Type
	Result    string
	StartedAt time.Time

	ctx   context.Context
	timer *settleTimer
	done  chan struct{}
	trial trial.Trial
}

// Done is closed once the trial has been appended and listeners notified.
func (g *Generation) Done() <-chan struct{} { return g.done }

// Trial returns the recorded trial once Done is closed.
func (g *Generation) Trial() (trial.Trial, bool) {
	select {
	case <-g.done:
		return g.trial, true
	default:
		return trial.Trial{}, false
	}
}

// Simulator owns the session state. All methods are safe for concurrent use;
// a single mutex serializes every logical operation.
type Simulator struct {
	mu sync.Mutex

	gen      distribution.OutcomeGenerator
	store    *storage.Store
	prefs    *storage.Preferences
	clock    trial.Clock
	settle   time.Duration
	logger   *zap.Logger
	session  uuid.UUID
	started  time.Time
	log      *trial.Log
	sound    bool
	inflight *Generation

	listeners map[int]Listener
	nextID    int
}

// New creates a Simulator with an empty log and sound enabled.
//
// Precondition: opts.Generator and opts.Logger must be non-nil; opts.SettleDelay >= 0.
// Postcondition: Returns a ready Simulator; call Load to restore persisted state.
func New(opts Options) (*Simulator, error) {
	if opts.Generator == nil {
		return nil, errors.New("simulator: generator is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("simulator: logger is required")
	}
	if opts.SettleDelay < 0 {
		return nil, fmt.Errorf("simulator: settle delay must not be negative, got %s", opts.SettleDelay)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	id := uuid.New()
	return &Simulator{
		gen:       opts.Generator,
		store:     opts.Store,
		prefs:     opts.Preferences,
		clock:     clock,
		settle:    opts.SettleDelay,
		logger:    opts.Logger.With(zap.Stringer("session", id)),
		session:   id,
		started:   clock(),
		log:       trial.NewLog(clock),
		sound:     true,
		listeners: make(map[int]Listener),
	}, nil
}

// SessionID identifies this simulator instance in logs.
func (s *Simulator) SessionID() uuid.UUID { return s.session }

// Load restores the persisted log and sound preference.
//
// Postcondition: the log holds the stored snapshot, or is empty when the
// snapshot is missing, corrupt, or unreadable. A non-nil error reports the
// latter two cases; it is never fatal.
func (s *Simulator) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.store != nil {
		err = s.store.LoadInto(ctx, s.log)
	}
	if s.prefs != nil {
		s.sound = s.prefs.SoundEnabled(ctx)
	}
	s.logger.Info("session loaded",
		zap.Int("trials", s.log.Size()),
		zap.Bool("sound", s.sound),
	)
	return err
}

// Roll starts a single-trial generation of type t.
//
// Precondition: t must be a valid distribution type.
// Postcondition: Returns the accepted Generation, or ErrGenerationPending
// with no state change while another generation is in flight.
func (s *Simulator) Roll(ctx context.Context, t distribution.Type) (*Generation, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", distribution.ErrInvalidDistributionType, string(t))
	}

	s.mu.Lock()
	if s.inflight != nil {
		pending := s.inflight.Type
		s.mu.Unlock()
		s.logger.Debug("generation rejected",
			zap.Stringer("type", t),
			zap.Stringer("pending", pending),
		)
		return nil, ErrGenerationPending
	}

	result, err := s.gen.Generate(t)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	g := &Generation{
		Type:      t,
		Result:    result,
		StartedAt: s.clock(),
		ctx:       context.WithoutCancel(ctx),
		done:      make(chan struct{}),
	}
	s.inflight = g
	if s.settle > 0 {
		g.timer = newSettleTimer(s.settle, func() { s.land(g) })
	}
	s.mu.Unlock()

	if g.timer == nil {
		s.land(g)
	}
	return g, nil
}

// RollAndWait runs Roll and blocks until the trial is recorded.
//
// Postcondition: Returns the recorded trial, a Roll error, or ctx.Err(). A
// cancelled wait does not cancel the generation.
func (s *Simulator) RollAndWait(ctx context.Context, t distribution.Type) (trial.Trial, error) {
	g, err := s.Roll(ctx, t)
	if err != nil {
		return trial.Trial{}, err
	}
	select {
	case <-g.Done():
		tr, _ := g.Trial()
		return tr, nil
	case <-ctx.Done():
		return trial.Trial{}, ctx.Err()
	}
}

// Pending reports the in-flight generation, if any.
func (s *Simulator) Pending() (*Generation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight, s.inflight != nil
}

// land records an accepted generation, releases the gate, and notifies listeners.
func (s *Simulator) land(g *Generation) {
	s.mu.Lock()
	tr := s.log.Append(g.Type, g.Result)
	if s.inflight == g {
		s.inflight = nil
	}
	s.persistLocked(g.ctx)
	snap := stats.Compute(s.log.All(), g.Type)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	g.trial = tr
	s.logger.Info("trial recorded",
		zap.Stringer("type", tr.Type),
		zap.String("result", tr.Result),
		zap.Duration("settle", tr.Time().Sub(g.StartedAt)),
	)
	for _, l := range listeners {
		l.OnTrialAppended(tr)
		l.OnStatisticsUpdated(g.Type, snap)
	}
	close(g.done)
}

// Batch generates and records n trials of type t as one block. Batches are
// not subject to the single-trial gate.
//
// Precondition: t must be valid; n >= 1.
// Postcondition: all n trials are at the front of the log in generation
// order, or nothing changed and an error is returned.
func (s *Simulator) Batch(ctx context.Context, t distribution.Type, n int) ([]trial.Trial, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", distribution.ErrInvalidDistributionType, string(t))
	}
	if n < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidBatchSize, n)
	}

	s.mu.Lock()
	results, err := s.gen.GenerateN(t, n)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	trials := s.log.AppendBatch(t, results, s.clock())
	s.persistLocked(ctx)
	snap := stats.Compute(s.log.All(), t)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.Info("batch recorded", zap.Stringer("type", t), zap.Int("count", n))
	for _, l := range listeners {
		l.OnBatchAppended(trials)
		l.OnStatisticsUpdated(t, snap)
	}
	return trials, nil
}

// Clear empties the log and persists the empty snapshot. An in-flight
// generation is unaffected and lands in the emptied log.
func (s *Simulator) Clear(ctx context.Context) {
	s.mu.Lock()
	cleared := s.log.Size()
	s.log.Clear()
	s.persistLocked(ctx)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.Info("log cleared", zap.Int("trials", cleared))
	for _, l := range listeners {
		l.OnLogCleared()
		for _, t := range distribution.Types() {
			l.OnStatisticsUpdated(t, stats.Zero())
		}
	}
}

// Statistics computes the snapshot for type t over the current log.
func (s *Simulator) Statistics(t distribution.Type) (stats.Snapshot, error) {
	if !t.Valid() {
		return stats.Snapshot{}, fmt.Errorf("%w: %q", distribution.ErrInvalidDistributionType, string(t))
	}
	return stats.Compute(s.log.All(), t), nil
}

// Trials returns a copy of the log, newest first.
func (s *Simulator) Trials() []trial.Trial { return s.log.Trials() }

// Size returns the number of recorded trials.
func (s *Simulator) Size() int { return s.log.Size() }

// Export writes the log as CSV.
//
// Postcondition: Returns ErrEmptyExport and writes nothing when the log is empty.
func (s *Simulator) Export(w io.Writer) error {
	trials := s.log.Trials()
	if err := export.WriteCSV(w, trials); err != nil {
		if errors.Is(err, ErrEmptyExport) {
			s.logger.Info("export declined; log is empty")
		}
		return err
	}
	s.logger.Info("log exported", zap.Int("trials", len(trials)))
	return nil
}

// Sound reports whether sound effects are enabled.
func (s *Simulator) Sound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sound
}

// SetSound updates the sound preference. The in-memory value changes even
// when persisting it fails.
func (s *Simulator) SetSound(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sound = enabled
	if s.prefs == nil {
		return nil
	}
	return s.prefs.SetSoundEnabled(ctx, enabled)
}

// Subscribe registers l and returns a function that removes it.
func (s *Simulator) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
		})
	}
}

// Close lands any in-flight generation immediately so its result is not lost.
//
// Postcondition: Pending() reports false.
func (s *Simulator) Close() {
	s.mu.Lock()
	g := s.inflight
	s.mu.Unlock()
	if g == nil {
		return
	}
	if g.timer != nil && g.timer.Stop() {
		s.land(g)
	}
	<-g.Done()
}

func (s *Simulator) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	// Store logs the failure; the in-memory log stays authoritative.
	_ = s.store.SaveLog(ctx, s.log)
}

func (s *Simulator) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if l, ok := s.listeners[i]; ok {
			out = append(out, l)
		}
	}
	return out
}
