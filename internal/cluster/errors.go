package cluster

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the job lifecycle. The API layer maps these onto
// status codes: unknown is 404, not-ready and failed are 409.
var (
	ErrUnknownJob     = errors.New("unknown job")
	ErrJobNotReady    = errors.New("job not ready")
	ErrJobFailed      = errors.New("job failed")
	ErrInvalidRequest = errors.New("invalid request")
)

// UnsupportedResultTypeError reports a return type outside the supported set.
type UnsupportedResultTypeError struct {
	Requested string
	Supported []string
}

func (e *UnsupportedResultTypeError) Error() string {
	return fmt.Sprintf("unsupported return type %q, supported types: %s",
		e.Requested, strings.Join(e.Supported, ", "))
}

// IndexUnavailableError means a completed job's index could not be opened.
// This is an infrastructure failure, not a caller error.
type IndexUnavailableError struct {
	Location string
	Err      error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("index unavailable at %s: %v", e.Location, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

// ConversionError wraps a failure while converting records into the
// requested output representation.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("result conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
