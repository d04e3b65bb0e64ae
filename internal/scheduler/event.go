package scheduler

import (
	"fmt"
	"time"

	"github.com/me/mcp/pkg/model"
)

// EventKind identifies an observable scheduling step.
type EventKind int

const (
	EventLaunched EventKind = iota
	EventReleased
	EventReady
	EventStopped
	EventResumed
	EventFinished
	EventComplete
)

func (k EventKind) String() string {
	switch k {
	case EventLaunched:
		return "launched"
	case EventReleased:
		return "released"
	case EventReady:
		return "ready"
	case EventStopped:
		return "stopped"
	case EventResumed:
		return "resumed"
	case EventFinished:
		return "finished"
	case EventComplete:
		return "complete"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is emitted for every lifecycle step. Index, PID and Command are unset
// for EventComplete; Exit is set only for EventFinished.
type Event struct {
	Kind    EventKind
	Time    time.Time
	Index   int
	PID     int
	Command string
	Exit    *model.ExitInfo
}

func (s *Scheduler) emit(kind EventKind, p *model.ManagedProcess) {
	ev := Event{Kind: kind, Time: time.Now(), Index: -1}
	if p != nil {
		ev.Index = p.Index
		ev.PID = p.PID
		ev.Command = p.Command.String()
		ev.Exit = p.Exit
	}

	switch kind {
	case EventFinished:
		args := []any{"pid", ev.PID, "command", ev.Command, "outcome", ev.Exit.Outcome, "exit", ev.Exit.Describe()}
		if ev.Exit.Outcome.Errored() {
			s.logger.Warn("process finished", args...)
		} else {
			s.logger.Info("process finished", args...)
		}
	case EventComplete:
		s.logger.Info("batch complete", "processes", len(s.procs))
	case EventReady:
		s.logger.Debug("process "+kind.String(), "pid", ev.PID, "command", ev.Command)
	default:
		s.logger.Info("process "+kind.String(), "pid", ev.PID, "command", ev.Command)
	}

	for _, fn := range s.observers {
		fn(ev)
	}
}
