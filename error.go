package remap

import "fmt"

// PreconditionError reports an invalid task setup: missing or overlapping
// directories, or no mapping files at all. The task fails before touching
// the output directory.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

func preconditionf(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}
