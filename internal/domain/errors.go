package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrInternal          = errors.New("internal error")

	ErrDataSource    = errors.New("data source error")
	ErrNetwork       = errors.New("network error")
	ErrParse         = errors.New("parse error")
	ErrCountMismatch = errors.New("count mismatch")
)

// DataSourceError reports a missing or unreadable dataset.
type DataSourceError struct {
	Path string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %q: %v", e.Path, e.Err)
}

func (e *DataSourceError) Unwrap() []error { return []error{ErrDataSource, e.Err} }

// NetworkError reports a failed outbound call after any retries were spent.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("op=%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// ParseError reports model output that is not the expected structured data.
// Raw keeps the unmodified response for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse model response: %v", e.Err) }

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// GenerationError wraps any failure of a profile generation call.
type GenerationError struct {
	Raw string
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generate profile: %v", e.Err) }

func (e *GenerationError) Unwrap() error { return e.Err }

// CountMismatchError aborts a batch whose file sets cannot be paired.
// Evaluations is -1 when the check did not involve evaluation files.
type CountMismatchError struct {
	Inputs      int
	Outputs     int
	Evaluations int
}

func (e *CountMismatchError) Error() string {
	if e.Evaluations < 0 {
		return fmt.Sprintf("count mismatch: %d inputs, %d outputs", e.Inputs, e.Outputs)
	}
	return fmt.Sprintf("count mismatch: %d inputs, %d outputs, %d evaluations", e.Inputs, e.Outputs, e.Evaluations)
}

func (e *CountMismatchError) Unwrap() error { return ErrCountMismatch }

// RawResponse returns the raw model text attached to err, if any.
func RawResponse(err error) (string, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) && ge.Raw != "" {
		return ge.Raw, true
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Raw, true
	}
	return "", false
}
