package model

import "testing"

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{
		Entity: "process",
		ID:     "pid 42",
		From:   "FINISHED",
		To:     "RUNNING",
	}
	want := "invalid process state transition: FINISHED → RUNNING (entity pid 42)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
