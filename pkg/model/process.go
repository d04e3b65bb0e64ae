package model

import (
	"fmt"
	"strings"
	"time"
)

// Command is one line of the batch input split into an argument vector.
type Command struct {
	Line string   `json:"line" yaml:"line"`
	Argv []string `json:"argv" yaml:"argv"`
}

// String returns the original command line, or the joined argv when no line was kept.
func (c Command) String() string {
	if c.Line != "" {
		return c.Line
	}
	return strings.Join(c.Argv, " ")
}

// ExitInfo describes how a process terminated. It is recorded exactly once.
type ExitInfo struct {
	Outcome    Outcome       `json:"outcome"`
	ExitCode   int           `json:"exit_code"`
	Signal     string        `json:"signal,omitempty"`
	Error      string        `json:"error,omitempty"`
	UserTime   time.Duration `json:"user_time_ns"`
	SystemTime time.Duration `json:"system_time_ns"`
	MaxRSSKB   int64         `json:"max_rss_kb"`
}

// Describe returns a short human-readable description of the exit.
func (e ExitInfo) Describe() string {
	switch e.Outcome {
	case OutcomeSuccess:
		return "exited 0"
	case OutcomeExitCode:
		return fmt.Sprintf("exited %d", e.ExitCode)
	case OutcomeSignaled:
		return "killed by " + e.Signal
	case OutcomeLaunchFailed:
		return fmt.Sprintf("launch failed (exit %d)", e.ExitCode)
	default:
		if e.Error != "" {
			return "lost: " + e.Error
		}
		return "lost"
	}
}

// ManagedProcess is the scheduler's record of one launched command.
type ManagedProcess struct {
	Index      int          `json:"index"`
	PID        int          `json:"pid"`
	Command    Command      `json:"command"`
	State      ProcessState `json:"state"`
	Exit       *ExitInfo    `json:"exit,omitempty"`
	Slices     int          `json:"slices"`
	LaunchedAt time.Time    `json:"launched_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// NewManagedProcess returns a process record in the BLOCKED state.
func NewManagedProcess(index, pid int, cmd Command) *ManagedProcess {
	return &ManagedProcess{
		Index:      index,
		PID:        pid,
		Command:    cmd,
		State:      ProcessStateBlocked,
		LaunchedAt: time.Now().UTC(),
	}
}

// Transition moves the process to next, rejecting moves the lifecycle does not allow.
func (p *ManagedProcess) Transition(next ProcessState) error {
	if !p.State.CanTransitionTo(next) {
		return &InvalidTransitionError{
			Entity: "process",
			ID:     fmt.Sprintf("pid %d", p.PID),
			From:   p.State.String(),
			To:     next.String(),
		}
	}
	p.State = next
	return nil
}

// Finish records the exit and marks the process FINISHED.
// It returns false, leaving the record untouched, if the process already finished.
func (p *ManagedProcess) Finish(info ExitInfo) bool {
	if p.State.IsTerminal() {
		return false
	}
	now := time.Now().UTC()
	p.State = ProcessStateFinished
	p.Exit = &info
	p.FinishedAt = &now
	return true
}

// Result snapshots a finished process for reporting.
func (p *ManagedProcess) Result() ProcessResult {
	r := ProcessResult{
		Index:   p.Index,
		PID:     p.PID,
		Command: p.Command.String(),
		Slices:  p.Slices,
	}
	if p.Exit != nil {
		r.Exit = *p.Exit
	}
	return r
}
