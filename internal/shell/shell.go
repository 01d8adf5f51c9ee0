package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/probsim/internal/distribution"
	"github.com/cory-johannsen/probsim/internal/export"
	"github.com/cory-johannsen/probsim/internal/simulator"
	"github.com/cory-johannsen/probsim/internal/trial"
)

// ErrUnknownCommand is returned for input that names no registered command.
var ErrUnknownCommand = errors.New("unknown command")

// ErrUsage is returned when a command's arguments are malformed.
var ErrUsage = errors.New("usage")

// Options configures a Shell.
type Options struct {
	Simulator *simulator.Simulator
	Registry  *Registry
	In        io.Reader
	Out       io.Writer
	Logger    *zap.Logger
	// BatchSizes are the presets listed in help output.
	BatchSizes []int
	// HistoryLimit is the default number of trials shown by history.
	HistoryLimit int
	// ExportPath is the default export destination.
	ExportPath string
	// Refresher feeds the watch command. Optional.
	Refresher *simulator.Refresher
}

// Shell reads commands line by line and runs them against a simulator.
// It implements server.Service.
type Shell struct {
	sim       *simulator.Simulator
	registry  *Registry
	refresher *simulator.Refresher
	in        io.Reader
	logger    *zap.Logger

	batchSizes   []int
	historyLimit int
	exportPath   string

	outMu sync.Mutex
	out   io.Writer

	mu         sync.Mutex
	active     distribution.Type
	confirming bool
	watching   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Shell and binds its handlers into the registry. Nil
// Registry uses DefaultRegistry.
//
// Precondition: opts.Simulator, opts.In, opts.Out and opts.Logger must be non-nil.
func New(opts Options) *Shell {
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	exportPath := opts.ExportPath
	if exportPath == "" {
		exportPath = export.DefaultFilename
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Shell{
		sim:          opts.Simulator,
		registry:     reg,
		refresher:    opts.Refresher,
		in:           opts.In,
		out:          opts.Out,
		logger:       opts.Logger,
		batchSizes:   slices.Clone(opts.BatchSizes),
		historyLimit: max(opts.HistoryLimit, 1),
		exportPath:   exportPath,
		active:       distribution.Dice,
		ctx:          ctx,
		cancel:       cancel,
	}
	s.bindHandlers()
	return s
}

// Active returns the active distribution type.
func (s *Shell) Active() distribution.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start prints a banner and processes input until quit, end of input, or Stop.
func (s *Shell) Start() error {
	unsubscribe := s.sim.Subscribe(simulator.ListenerFuncs{TrialAppended: s.onTrialAppended})
	defer unsubscribe()

	var refreshes chan simulator.History
	if s.refresher != nil {
		refreshes = make(chan simulator.History, 1)
		s.refresher.Subscribe(refreshes)
		defer s.refresher.Unsubscribe(refreshes)
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-s.ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	s.printf("Probability simulator. %d trials loaded. Type \"help\" for commands.\n", s.sim.Size())
	s.prompt()
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case h := <-refreshes:
			if s.isWatching() {
				s.printf("\n[%s] Total simulations: %d   Session: %s\n", h.At.Format("15:04:05"), h.Total, h.Session)
				s.prompt()
			}
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := s.Execute(s.ctx, line)
			if err != nil {
				s.printf("%v\n", err)
			}
			if quit {
				s.Stop()
				return nil
			}
			s.prompt()
		}
	}
}

// Stop ends Start. Safe to call multiple times.
func (s *Shell) Stop() {
	s.cancel()
}

// Execute runs one input line.
//
// Postcondition: quit is true when the line asked to leave the shell. err
// describes a rejected command; state is unchanged in that case.
func (s *Shell) Execute(ctx context.Context, line string) (quit bool, err error) {
	if s.takeConfirmation() {
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "y" || answer == "yes" {
			s.sim.Clear(ctx)
			s.printf("History cleared.\n")
		} else {
			s.printf("Clear cancelled.\n")
		}
		return false, nil
	}

	parsed := Parse(line)
	if parsed.Command == "" {
		return false, nil
	}
	s.logger.Debug("command", zap.String("input", parsed.Command), zap.Strings("args", parsed.Args))
	return s.registry.Dispatch(ctx, parsed)
}

// bindHandlers attaches the shell's handlers to the registry.
func (s *Shell) bindHandlers() {
	noQuit := func(fn func(ctx context.Context, cmd *Command, args []string) error) HandlerFunc {
		return func(ctx context.Context, cmd *Command, args []string) (bool, error) {
			return false, fn(ctx, cmd, args)
		}
	}
	r := s.registry
	r.Bind(HandlerRoll, noQuit(func(ctx context.Context, cmd *Command, _ []string) error {
		return s.handleRoll(ctx, cmd.Name)
	}))
	r.Bind(HandlerBatch, noQuit(s.handleBatch))
	r.Bind(HandlerUse, noQuit(func(_ context.Context, cmd *Command, args []string) error {
		return s.handleUse(cmd, args)
	}))
	r.Bind(HandlerStats, noQuit(func(_ context.Context, cmd *Command, args []string) error {
		return s.handleStats(cmd, args)
	}))
	r.Bind(HandlerHistory, noQuit(func(_ context.Context, cmd *Command, args []string) error {
		return s.handleHistory(cmd, args)
	}))
	r.Bind(HandlerClear, noQuit(func(context.Context, *Command, []string) error {
		return s.handleClear()
	}))
	r.Bind(HandlerExport, noQuit(func(_ context.Context, _ *Command, args []string) error {
		return s.handleExport(args)
	}))
	r.Bind(HandlerSound, noQuit(s.handleSound))
	r.Bind(HandlerWatch, noQuit(func(_ context.Context, cmd *Command, args []string) error {
		return s.handleWatch(cmd, args)
	}))
	r.Bind(HandlerHelp, noQuit(func(context.Context, *Command, []string) error {
		s.printHelp()
		return nil
	}))
	r.Bind(HandlerQuit, func(context.Context, *Command, []string) (bool, error) {
		s.printf("Goodbye.\n")
		return true, nil
	})
}

var rollTypes = map[string]distribution.Type{
	"roll": distribution.Dice,
	"flip": distribution.Coin,
	"spin": distribution.Wheel,
}

var rollVerbs = map[distribution.Type]string{
	distribution.Dice:  "Rolling the die...",
	distribution.Coin:  "Flipping the coin...",
	distribution.Wheel: "Spinning the wheel...",
}

func (s *Shell) handleRoll(ctx context.Context, name string) error {
	t := rollTypes[name]
	if g, pending := s.sim.Pending(); pending {
		return fmt.Errorf("a %s is still in progress", g.Type.Label())
	}
	s.setActive(t)
	s.printf("%s\n", rollVerbs[t])
	_, err := s.sim.Roll(ctx, t)
	return err
}

func (s *Shell) onTrialAppended(tr trial.Trial) {
	bell := ""
	if s.sim.Sound() {
		bell = "\a"
	}
	s.printf("%s%s: %s\n", bell, tr.Type.Label(), tr.Result)
}

func (s *Shell) handleBatch(ctx context.Context, cmd *Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("%w: %s (n must be a positive integer)", ErrUsage, cmd.Usage)
	}
	t := s.Active()
	if len(args) > 1 {
		if t, err = distribution.ParseType(strings.Join(args[1:], " ")); err != nil {
			return err
		}
	}
	trials, err := s.sim.Batch(ctx, t, n)
	if err != nil {
		return err
	}
	s.printf("Recorded %d %s trials.\n", len(trials), t.Label())
	return nil
}

func (s *Shell) handleUse(cmd *Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
	}
	t, err := distribution.ParseType(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if g, pending := s.sim.Pending(); pending {
		return fmt.Errorf("wait for the %s to finish", g.Type.Label())
	}
	s.setActive(t)
	s.printf("Active distribution: %s\n", t.Label())
	return nil
}

func (s *Shell) handleStats(cmd *Command, args []string) error {
	t := s.Active()
	format := export.FormatText
	if n := len(args); n > 0 {
		switch f := strings.ToLower(args[n-1]); f {
		case export.FormatText, export.FormatJSON, export.FormatYAML:
			format = f
			args = args[:n-1]
		}
	}
	if len(args) > 0 {
		parsed, err := distribution.ParseType(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("%w: %s", err, cmd.Usage)
		}
		t = parsed
	}
	snap, err := s.sim.Statistics(t)
	if err != nil {
		return err
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	return export.Report(s.out, snap, t, format)
}

func (s *Shell) handleHistory(cmd *Command, args []string) error {
	limit := s.historyLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
		}
		limit = n
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	WriteHistory(s.out, s.sim.History(limit))
	return nil
}

// WriteHistory renders a history view as aligned text.
func WriteHistory(w io.Writer, h simulator.History) {
	fmt.Fprintf(w, "Total simulations: %d   Session: %s\n", h.Total, h.Session)
	if len(h.Entries) == 0 {
		fmt.Fprintln(w, "No history yet. Run some simulations!")
		return
	}
	for _, e := range h.Entries {
		fmt.Fprintf(w, "  %-11s %-12s %s\n", e.Label, e.Trial.Result, e.Ago)
	}
	if hidden := h.Total - len(h.Entries); hidden > 0 {
		fmt.Fprintf(w, "  ... %d older trials\n", hidden)
	}
}

func (s *Shell) handleClear() error {
	n := s.sim.Size()
	if n == 0 {
		s.printf("History is already empty.\n")
		return nil
	}
	s.mu.Lock()
	s.confirming = true
	s.mu.Unlock()
	s.printf("Clear all %d trials? [y/N] ", n)
	return nil
}

func (s *Shell) takeConfirmation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.confirming
	s.confirming = false
	return c
}

func (s *Shell) handleExport(args []string) error {
	path := s.exportPath
	if len(args) > 0 {
		path = args[0]
	}
	if s.sim.Size() == 0 {
		s.printf("No data to export.\n")
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	err = s.sim.Export(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if errors.Is(err, simulator.ErrEmptyExport) {
		_ = os.Remove(path)
		s.printf("No data to export.\n")
		return nil
	}
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	s.printf("Exported %d trials to %s\n", s.sim.Size(), path)
	return nil
}

func (s *Shell) handleSound(ctx context.Context, cmd *Command, args []string) error {
	enabled := !s.sim.Sound()
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
		}
	}
	if err := s.sim.SetSound(ctx, enabled); err != nil {
		s.logger.Warn("sound preference not saved", zap.Error(err))
	}
	state := "off"
	if enabled {
		state = "on"
	}
	s.printf("Sound %s.\n", state)
	return nil
}

func (s *Shell) handleWatch(cmd *Command, args []string) error {
	s.mu.Lock()
	watching := !s.watching
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "on":
			watching = true
		case "off":
			watching = false
		default:
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
		}
	}
	s.watching = watching
	s.mu.Unlock()

	if watching {
		s.printf("Watching the session summary.\n")
	} else {
		s.printf("Stopped watching.\n")
	}
	return nil
}

func (s *Shell) isWatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

var categoryOrder = []string{CategorySimulate, CategoryResults, CategorySystem}

func (s *Shell) printHelp() {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	byCategory := s.registry.CommandsByCategory()
	for _, cat := range categoryOrder {
		cmds := byCategory[cat]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(s.out, "%s:\n", cat)
		for _, cmd := range cmds {
			usage := cmd.Usage
			if len(cmd.Aliases) > 0 {
				usage += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			fmt.Fprintf(s.out, "  %-36s %s\n", usage, cmd.Help)
		}
	}
	if len(s.batchSizes) > 0 {
		sizes := make([]string, len(s.batchSizes))
		for i, n := range s.batchSizes {
			sizes[i] = strconv.Itoa(n)
		}
		fmt.Fprintf(s.out, "Batch presets: %s\n", strings.Join(sizes, ", "))
	}
}

func (s *Shell) setActive(t distribution.Type) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = t
}

func (s *Shell) prompt() {
	s.printf("%s> ", s.Active())
}

func (s *Shell) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
