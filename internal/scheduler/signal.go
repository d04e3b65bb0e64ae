package scheduler

import (
	"errors"
	"fmt"

	"github.com/me/mcp/pkg/model"
	"golang.org/x/sys/unix"
)

// signal delivers sig to p and reports whether the process can still be
// scheduled. Signalling a finished process is a no-op. A process that has
// vanished, or that cannot be signalled at all, is marked finished instead of
// being retried.
func (s *Scheduler) signal(p *model.ManagedProcess, sig unix.Signal) bool {
	if p.State.IsTerminal() {
		return false
	}

	err := s.kill(p.PID, sig)
	if err == nil {
		return true
	}

	if errors.Is(err, unix.ESRCH) {
		// Exited between the last reap and now; prefer the real status.
		s.reapOne(p)
		s.logger.Debug("signal to exited process", "pid", p.PID, "signal", unix.SignalName(sig))
		s.finish(p, model.ExitInfo{Outcome: model.OutcomeLost, Error: "exited before its status was collected"})
		return false
	}

	s.logger.Error("signal delivery failed", "pid", p.PID, "signal", unix.SignalName(sig), "error", err)
	s.finish(p, model.ExitInfo{Outcome: model.OutcomeLost, Error: fmt.Sprintf("%s: %v", unix.SignalName(sig), err)})
	return false
}
