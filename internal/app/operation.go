package app

import "time"

// Operation tracks the CLI command being run. It is logged when the app
// closes so each command leaves one summary line behind.
type Operation struct {
	ID      string
	Name    string
	Target  string
	Status  string // "success" or "error"
	Started time.Time
}

// NewOperation creates an operation that has not failed yet.
func NewOperation(id, name string, started time.Time) *Operation {
	return &Operation{
		ID:      id,
		Name:    name,
		Status:  "success",
		Started: started,
	}
}

// Record notes target and marks the operation failed when err is non-nil.
// It returns err unchanged.
func (op *Operation) Record(target string, err error) error {
	if target != "" {
		op.Target = target
	}
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Failed returns true if any recorded step failed.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}

// newOperationID formats t as the identifier shown in every log line.
func newOperationID(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
