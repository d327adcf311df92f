package models

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches any *FormatError via errors.Is.
	ErrFormat = errors.New("format error")

	// ErrOutOfRange is returned when a plane index lies outside the volume.
	ErrOutOfRange = errors.New("index out of range")
)

// FormatError reports a malformed or empty source: no readable band, zero
// traces, or a truncated buffer.
type FormatError struct {
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Source == "" {
		return "format error: " + e.Reason
	}
	return fmt.Sprintf("format error in %s: %s", e.Source, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// NewFormatError builds a FormatError with a formatted reason.
func NewFormatError(source, format string, args ...any) *FormatError {
	return &FormatError{Source: source, Reason: fmt.Sprintf(format, args...)}
}
