package scheduler

import (
	"errors"
	"time"

	"github.com/me/mcp/internal/launcher"
	"github.com/me/mcp/pkg/model"
	"golang.org/x/sys/unix"
)

const reapOptions = unix.WNOHANG | unix.WUNTRACED | unix.WCONTINUED

// reap collects every pending state change without blocking. It waits on each
// unfinished pid individually rather than on -1 so it never consumes the
// status of a child it does not own.
func (s *Scheduler) reap() {
	for _, p := range s.procs {
		if !p.State.IsTerminal() {
			s.reapOne(p)
		}
	}
}

func (s *Scheduler) reapOne(p *model.ManagedProcess) {
	for !p.State.IsTerminal() {
		var ws unix.WaitStatus
		var ru unix.Rusage
		pid, err := s.wait4(p.PID, &ws, reapOptions, &ru)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			s.finish(p, model.ExitInfo{Outcome: model.OutcomeLost, Error: "no longer a child of this controller"})
			return
		case err != nil:
			s.logger.Error("wait4", "pid", p.PID, "error", err)
			return
		case pid == 0:
			return
		}

		switch {
		case ws.Exited(), ws.Signaled():
			s.finish(p, exitInfo(ws, &ru))
		case ws.Stopped():
			if p.State == model.ProcessStateBlocked && s.released(p) {
				s.transition(p, model.ProcessStateReady)
				s.emit(EventReady, p)
			} else {
				s.logger.Debug("child stopped", "pid", p.PID, "signal", unix.SignalName(ws.StopSignal()))
			}
		case ws.Continued():
			s.logger.Debug("child continued", "pid", p.PID)
		}
	}
}

// released reports whether p's gate was let go. A stop seen before that
// came from somewhere else and does not mean the gate has parked.
func (s *Scheduler) released(p *model.ManagedProcess) bool {
	return p.Index < len(s.children) && s.children[p.Index].Released()
}

// reapBlocking waits for p to terminate. Used only while tearing down.
func (s *Scheduler) reapBlocking(p *model.ManagedProcess) {
	for !p.State.IsTerminal() {
		var ws unix.WaitStatus
		var ru unix.Rusage
		_, err := s.wait4(p.PID, &ws, 0, &ru)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			s.finish(p, model.ExitInfo{Outcome: model.OutcomeLost, Error: err.Error()})
		case ws.Exited(), ws.Signaled():
			s.finish(p, exitInfo(ws, &ru))
		}
	}
}

func (s *Scheduler) finish(p *model.ManagedProcess, info model.ExitInfo) {
	if p.Finish(info) {
		s.emit(EventFinished, p)
	}
}

// exitInfo converts a terminal wait status.
func exitInfo(ws unix.WaitStatus, ru *unix.Rusage) model.ExitInfo {
	info := model.ExitInfo{
		UserTime:   time.Duration(ru.Utime.Nano()),
		SystemTime: time.Duration(ru.Stime.Nano()),
		MaxRSSKB:   int64(ru.Maxrss),
	}

	switch {
	case ws.Signaled():
		info.Outcome = model.OutcomeSignaled
		info.Signal = unix.SignalName(ws.Signal())
		info.ExitCode = 128 + int(ws.Signal())
	case ws.ExitStatus() == 0:
		info.Outcome = model.OutcomeSuccess
	case ws.ExitStatus() == launcher.ExitLaunchFailed:
		info.Outcome = model.OutcomeLaunchFailed
		info.ExitCode = ws.ExitStatus()
	default:
		info.Outcome = model.OutcomeExitCode
		info.ExitCode = ws.ExitStatus()
	}
	return info
}
