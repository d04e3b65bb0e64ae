package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/me/mcp/pkg/model"
)

// rendezvous releases every launched child, then waits until each released
// gate has been observed parked (BLOCKED → READY) or has exited.
func (s *Scheduler) rendezvous(ctx context.Context) error {
	for i, child := range s.children {
		p := s.procs[i]
		if p.State.IsTerminal() {
			continue
		}
		if err := child.Release(); err != nil {
			// The gate is gone; the reaper collects its status below.
			s.logger.Warn("release failed", "pid", p.PID, "error", err)
			continue
		}
		s.emit(EventReleased, p)
	}

	deadline := time.NewTimer(s.cfg.ReadyTimeout)
	defer deadline.Stop()

	for {
		s.reap()
		blocked := s.count(model.ProcessStateBlocked)
		if blocked == 0 {
			s.logger.Debug("rendezvous complete", "ready", s.count(model.ProcessStateReady))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.childCh:
		case <-deadline.C:
			return fmt.Errorf("%w: %d of %d children not parked after %s",
				model.ErrRendezvousTimeout, blocked, len(s.procs), s.cfg.ReadyTimeout)
		}
	}
}
