package model

// ProcessState represents the lifecycle state of a ManagedProcess.
type ProcessState string

const (
	ProcessStateBlocked  ProcessState = "BLOCKED"
	ProcessStateReady    ProcessState = "READY"
	ProcessStateRunning  ProcessState = "RUNNING"
	ProcessStateStopped  ProcessState = "STOPPED"
	ProcessStateFinished ProcessState = "FINISHED"
)

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsTerminal returns true if the process is in a final state.
func (s ProcessState) IsTerminal() bool {
	return s == ProcessStateFinished
}

// IsRunnable reports whether the scheduler may select a process in this state.
func (s ProcessState) IsRunnable() bool {
	switch s {
	case ProcessStateReady, ProcessStateRunning, ProcessStateStopped:
		return true
	}
	return false
}

// ValidProcessTransitions defines the allowed state transitions for processes.
// A process may finish from any non-terminal state because it can exit on its own.
var ValidProcessTransitions = map[ProcessState][]ProcessState{
	ProcessStateBlocked: {ProcessStateReady, ProcessStateFinished},
	ProcessStateReady:   {ProcessStateRunning, ProcessStateFinished},
	ProcessStateRunning: {ProcessStateStopped, ProcessStateFinished},
	ProcessStateStopped: {ProcessStateRunning, ProcessStateFinished},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range ValidProcessTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Outcome classifies how a finished process ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeExitCode     Outcome = "exit-code"
	OutcomeSignaled     Outcome = "signaled"
	OutcomeLaunchFailed Outcome = "launch-failed"
	OutcomeLost         Outcome = "lost"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Errored returns true for every outcome other than a clean zero exit.
func (o Outcome) Errored() bool {
	return o != OutcomeSuccess
}
