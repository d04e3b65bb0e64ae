package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/me/mcp/internal/launcher"
	"github.com/me/mcp/internal/procstat"
	"github.com/me/mcp/pkg/model"
	"golang.org/x/sys/unix"
)

// Config holds scheduler configuration.
type Config struct {
	Quantum      time.Duration
	ReadyTimeout time.Duration
	Stats        bool   // log /proc usage each time a process is resumed
	Source       string // where the commands came from, for the report
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Quantum:      time.Second,
		ReadyTimeout: 10 * time.Second,
		Stats:        true,
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLauncher replaces the default launcher.
func WithLauncher(l *launcher.Launcher) Option {
	return func(s *Scheduler) {
		s.launcher = l
	}
}

// WithObserver registers fn to receive every scheduling event. Observers run
// synchronously on the scheduling goroutine and must not block.
func WithObserver(fn func(Event)) Option {
	return func(s *Scheduler) {
		s.observers = append(s.observers, fn)
	}
}

// Scheduler time-slices a batch of commands round robin. A Scheduler runs one
// batch; all bookkeeping is confined to the goroutine that calls Run.
type Scheduler struct {
	cfg       Config
	logger    *slog.Logger
	launcher  *launcher.Launcher
	observers []func(Event)

	// Seams over the OS, replaced in tests.
	kill  func(pid int, sig unix.Signal) error
	wait4 func(pid int, ws *unix.WaitStatus, options int, ru *unix.Rusage) (int, error)
	stats func(pid int) (procstat.Usage, bool)

	commands []model.Command
	procs    []*model.ManagedProcess
	children []*launcher.Child
	running  int

	timer   *time.Timer
	timerC  <-chan time.Time
	childCh chan os.Signal

	report *model.BatchReport
}

// New creates a scheduler for cmds. Commands run in the given order.
func New(cmds []model.Command, cfg Config, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if cfg.Quantum <= 0 {
		return nil, fmt.Errorf("quantum must be positive, got %s", cfg.Quantum)
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultConfig().ReadyTimeout
	}

	s := &Scheduler{
		cfg:      cfg,
		logger:   logger.With("component", "scheduler"),
		kill:     unix.Kill,
		wait4:    unix.Wait4,
		stats:    procstat.Read,
		commands: cmds,
		running:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.launcher == nil {
		l, err := launcher.New(logger, launcher.WithReadyTimeout(cfg.ReadyTimeout))
		if err != nil {
			return nil, err
		}
		s.launcher = l
	}
	return s, nil
}

// Run launches every command, releases them together once all are parked at
// the gate, and round-robins them until each has finished. The returned report
// is non-nil even on error; in that case every child has been killed and
// reaped.
//
// Cancelling ctx aborts the batch the same way.
func (s *Scheduler) Run(ctx context.Context) (*model.BatchReport, error) {
	s.report = &model.BatchReport{
		ID:        "batch_" + uuid.New().String(),
		Source:    s.cfg.Source,
		Quantum:   s.cfg.Quantum,
		StartedAt: time.Now().UTC(),
	}
	s.logger = s.logger.With("batch_id", s.report.ID)

	// Subscribe before the first fork so no exit notification is missed.
	s.childCh = make(chan os.Signal, 1)
	signal.Notify(s.childCh, unix.SIGCHLD)
	defer signal.Stop(s.childCh)

	s.timer = time.NewTimer(s.cfg.Quantum)
	s.disarm()
	defer s.timer.Stop()

	defer s.closeChildren()

	if err := s.run(ctx); err != nil {
		s.abort()
		return s.finishReport(), err
	}
	return s.finishReport(), nil
}

func (s *Scheduler) run(ctx context.Context) error {
	if err := s.launchAll(); err != nil {
		return err
	}
	if err := s.rendezvous(ctx); err != nil {
		return err
	}
	return s.loop(ctx)
}

// launchAll creates one gated child per command, in order.
func (s *Scheduler) launchAll() error {
	s.procs = make([]*model.ManagedProcess, 0, len(s.commands))
	s.children = make([]*launcher.Child, 0, len(s.commands))

	for i, cmd := range s.commands {
		child, err := s.launcher.Launch(cmd.Argv)
		if err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd, err)
		}
		p := model.NewManagedProcess(i, child.PID, cmd)
		s.procs = append(s.procs, p)
		s.children = append(s.children, child)
		s.emit(EventLaunched, p)
	}
	return nil
}

// Processes returns a copy of the process table. Call it only after Run returns.
func (s *Scheduler) Processes() []model.ManagedProcess {
	out := make([]model.ManagedProcess, len(s.procs))
	for i, p := range s.procs {
		out[i] = *p
	}
	return out
}

func (s *Scheduler) finishReport() *model.BatchReport {
	s.report.CompletedAt = time.Now().UTC()
	s.report.Processes = make([]model.ProcessResult, len(s.procs))
	for i, p := range s.procs {
		s.report.Processes[i] = p.Result()
	}
	return s.report
}

func (s *Scheduler) closeChildren() {
	for _, c := range s.children {
		if err := c.Close(); err != nil {
			s.logger.Debug("close child", "pid", c.PID, "error", err)
		}
	}
}

// abort kills every unfinished child and collects its exit status.
func (s *Scheduler) abort() {
	s.disarm()
	for _, p := range s.procs {
		if p.State.IsTerminal() {
			continue
		}
		if err := s.kill(p.PID, unix.SIGKILL); err != nil {
			s.logger.Warn("kill during abort", "pid", p.PID, "error", err)
		}
		s.reapBlocking(p)
	}
}

func (s *Scheduler) allFinished() bool {
	for _, p := range s.procs {
		if !p.State.IsTerminal() {
			return false
		}
	}
	return true
}

func (s *Scheduler) count(state model.ProcessState) int {
	n := 0
	for _, p := range s.procs {
		if p.State == state {
			n++
		}
	}
	return n
}
