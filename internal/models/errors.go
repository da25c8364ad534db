package models

import (
	"errors"
	"fmt"
)

// Per-record failure kinds. None of them abort a scan under the default policy.
var (
	ErrParseInvalid          = errors.New("activity tooltip invalid")
	ErrImageUnavailable      = errors.New("image unavailable")
	ErrServiceUnreachable    = errors.New("vision service unreachable")
	ErrServiceMalformedReply = errors.New("vision service reply malformed")
)

// OrchestrationFault is a scan-wide failure that aborts the pass.
// Index is the record being processed, or -1 when the fault is not tied to a record.
type OrchestrationFault struct {
	Op    string
	Index int
	Err   error
}

func (f *OrchestrationFault) Error() string {
	if f.Index >= 0 {
		return fmt.Sprintf("scan %s failed at record %d: %v", f.Op, f.Index, f.Err)
	}
	return fmt.Sprintf("scan %s failed: %v", f.Op, f.Err)
}

func (f *OrchestrationFault) Unwrap() error {
	return f.Err
}

// IsOrchestrationFault reports whether err is or wraps an OrchestrationFault.
func IsOrchestrationFault(err error) bool {
	var fault *OrchestrationFault
	return errors.As(err, &fault)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
