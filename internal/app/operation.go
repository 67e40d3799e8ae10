package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation identifies one CLI invocation in the log. Every record written
// while it runs carries its ID.
type Operation struct {
	ID        string
	Command   string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewOperation starts an operation for command at now.
func NewOperation(command string, now time.Time) *Operation {
	return &Operation{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: now,
		Status:    "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Elapsed returns the time since the operation started, as of now.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.StartedAt)
}
