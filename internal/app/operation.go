package app

import (
	"time"

	"cpindex/internal/indexer"
)

// Operation identifies one CLI invocation. Its ID tags every log line the
// invocation writes.
type Operation struct {
	ID      string
	Name    string
	Started time.Time
	Status  string // "success" or "error"
}

// NewOperation starts an operation named after the CLI command.
func NewOperation(name string, clock indexer.Clock, idgen indexer.IDGenerator) *Operation {
	started := clock.Now().UTC()
	suffix := idgen.New()
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return &Operation{
		ID:      started.Format("20060102T150405Z") + "-" + suffix,
		Name:    name,
		Started: started,
		Status:  "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() { op.Status = "error" }

// Failed reports whether Fail was called.
func (op *Operation) Failed() bool { return op.Status == "error" }
