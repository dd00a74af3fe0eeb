package store

import "time"

// Run is one recorded code-execution attempt. Document content is never
// stored here; only run metadata and the service's output.
type Run struct {
	ID        string
	RoomID    string
	Language  string
	Version   string
	ExitCode  int
	Output    string
	Error     string // non-empty when the execution service failed
	Duration  time.Duration
	CreatedAt time.Time
}
