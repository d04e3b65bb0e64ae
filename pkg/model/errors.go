package model

import (
	"errors"
	"fmt"
)

var (
	// ErrLaunch wraps failures to create a child process. It is fatal to the batch.
	ErrLaunch = errors.New("launch failed")

	// ErrRendezvousTimeout is returned when released children do not park in time.
	ErrRendezvousTimeout = errors.New("rendezvous timed out")

	// ErrEmptyCommand is returned by the loader for a command with no program name.
	ErrEmptyCommand = errors.New("empty command")
)

// InvalidTransitionError is returned when a state transition is invalid.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s → %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}
