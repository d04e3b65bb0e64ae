package model

import "testing"

func TestProcessState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    ProcessState
		terminal bool
	}{
		{ProcessStateBlocked, false},
		{ProcessStateReady, false},
		{ProcessStateRunning, false},
		{ProcessStateStopped, false},
		{ProcessStateFinished, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("ProcessState(%q).IsTerminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
}

func TestProcessState_IsRunnable(t *testing.T) {
	tests := []struct {
		state    ProcessState
		runnable bool
	}{
		{ProcessStateBlocked, false},
		{ProcessStateReady, true},
		{ProcessStateRunning, true},
		{ProcessStateStopped, true},
		{ProcessStateFinished, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsRunnable(); got != tt.runnable {
			t.Errorf("ProcessState(%q).IsRunnable() = %v, want %v", tt.state, got, tt.runnable)
		}
	}
}

func TestProcessState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  ProcessState
		to    ProcessState
		valid bool
	}{
		// Valid transitions
		{ProcessStateBlocked, ProcessStateReady, true},
		{ProcessStateBlocked, ProcessStateFinished, true},
		{ProcessStateReady, ProcessStateRunning, true},
		{ProcessStateReady, ProcessStateFinished, true},
		{ProcessStateRunning, ProcessStateStopped, true},
		{ProcessStateRunning, ProcessStateFinished, true},
		{ProcessStateStopped, ProcessStateRunning, true},
		{ProcessStateStopped, ProcessStateFinished, true},

		// Invalid transitions
		{ProcessStateBlocked, ProcessStateRunning, false},
		{ProcessStateReady, ProcessStateStopped, false},
		{ProcessStateRunning, ProcessStateReady, false},
		{ProcessStateStopped, ProcessStateBlocked, false},
		{ProcessStateFinished, ProcessStateRunning, false},
		{ProcessStateFinished, ProcessStateStopped, false},
		{ProcessStateFinished, ProcessStateFinished, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("ProcessState(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestOutcome_Errored(t *testing.T) {
	tests := []struct {
		outcome Outcome
		errored bool
	}{
		{OutcomeSuccess, false},
		{OutcomeExitCode, true},
		{OutcomeSignaled, true},
		{OutcomeLaunchFailed, true},
		{OutcomeLost, true},
	}
	for _, tt := range tests {
		if got := tt.outcome.Errored(); got != tt.errored {
			t.Errorf("Outcome(%q).Errored() = %v, want %v", tt.outcome, got, tt.errored)
		}
	}
}
