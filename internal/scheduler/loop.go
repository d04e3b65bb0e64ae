package scheduler

import (
	"context"

	"github.com/me/mcp/pkg/model"
	"golang.org/x/sys/unix"
)

// loop is the single decision point of the scheduling phase. It wakes on
// quantum expiry or a SIGCHLD notification and never mutates state elsewhere.
func (s *Scheduler) loop(ctx context.Context) error {
	s.dispatch()

	for !s.allFinished() {
		select {
		case <-ctx.Done():
			s.logger.Warn("batch cancelled", "unfinished", len(s.procs)-s.count(model.ProcessStateFinished))
			return ctx.Err()

		case <-s.childCh:
			s.reap()
			// Hand the CPU on at once when the running process exits early.
			if s.running >= 0 && s.procs[s.running].State.IsTerminal() {
				s.dispatch()
			}

		case <-s.timerC:
			s.timerC = nil
			s.reap()
			s.dispatch()
		}
	}

	s.disarm()
	s.emit(EventComplete, nil)
	return nil
}

// dispatch performs one round-robin step: preempt the running process, then
// resume the next unfinished one in launch order after it. When nothing is
// left to run the quantum timer stays disarmed.
func (s *Scheduler) dispatch() {
	if s.running >= 0 {
		if p := s.procs[s.running]; p.State == model.ProcessStateRunning {
			if s.signal(p, unix.SIGSTOP) {
				s.transition(p, model.ProcessStateStopped)
				s.emit(EventStopped, p)
			}
		}
	}

	for {
		next := s.nextRunnable()
		if next < 0 {
			s.disarm()
			return
		}

		p := s.procs[next]
		s.running = next
		if !s.signal(p, unix.SIGCONT) {
			// Now FINISHED; keep scanning past it.
			continue
		}
		s.transition(p, model.ProcessStateRunning)
		p.Slices++
		s.emit(EventResumed, p)
		s.sampleStats(p)
		s.arm()
		return
	}
}

// nextRunnable scans the table once, starting just after the running index
// and wrapping, for the first process that is not finished. The previous
// runner is the last candidate. It returns -1 when every process finished.
func (s *Scheduler) nextRunnable() int {
	n := len(s.procs)
	for k := 1; k <= n; k++ {
		i := (s.running + k) % n
		if s.procs[i].State.IsRunnable() {
			return i
		}
	}
	return -1
}

func (s *Scheduler) transition(p *model.ManagedProcess, next model.ProcessState) {
	if err := p.Transition(next); err != nil {
		s.logger.Error("state transition", "pid", p.PID, "error", err)
	}
}

func (s *Scheduler) sampleStats(p *model.ManagedProcess) {
	if !s.cfg.Stats {
		return
	}
	u, ok := s.stats(p.PID)
	if !ok {
		s.logger.Debug("usage unavailable", "pid", p.PID)
		return
	}
	s.logger.Info("usage", "pid", p.PID, "stats", u.String())
}

func (s *Scheduler) arm() {
	s.timer.Reset(s.cfg.Quantum)
	s.timerC = s.timer.C
}

func (s *Scheduler) disarm() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timerC = nil
}
