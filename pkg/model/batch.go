package model

import "time"

// ProcessResult is the reported outcome of one process in a batch.
type ProcessResult struct {
	Index   int      `json:"index"`
	PID     int      `json:"pid"`
	Command string   `json:"command"`
	Slices  int      `json:"slices"`
	Exit    ExitInfo `json:"exit"`
}

// BatchReport summarizes a completed (or aborted) scheduling batch.
type BatchReport struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Quantum     time.Duration   `json:"quantum_ns"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Processes   []ProcessResult `json:"processes"`
}

// Duration returns the wall-clock time the batch took.
func (b *BatchReport) Duration() time.Duration {
	if b.CompletedAt.IsZero() {
		return 0
	}
	return b.CompletedAt.Sub(b.StartedAt)
}

// Succeeded returns the number of processes that exited cleanly.
func (b *BatchReport) Succeeded() int {
	n := 0
	for _, p := range b.Processes {
		if !p.Exit.Outcome.Errored() {
			n++
		}
	}
	return n
}

// Errored returns the number of processes that finished with an error outcome.
func (b *BatchReport) Errored() int {
	return len(b.Processes) - b.Succeeded()
}
