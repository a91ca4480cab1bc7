// Package errs defines the failure taxonomy shared by the views, bit readers
// and decoders of this module.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when a read would cross the bounds of a view or buffer.
	ErrOutOfRange = errors.New("out of range")

	// ErrEndOfStream is returned when a reader runs out of input mid-decode.
	ErrEndOfStream = errors.New("unexpected end of stream")

	// ErrInvalidFormat is returned when a structural invariant of the input fails.
	ErrInvalidFormat = errors.New("invalid format")
)

// RangeError describes a rejected access of Size bytes at Offset against
// a region of Limit bytes.
type RangeError struct {
	Offset int64
	Size   int64
	Limit  int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("out of range: %d bytes at offset %d exceed limit %d", e.Size, e.Offset, e.Limit)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// CheckRange returns a *RangeError unless [offset, offset+size) lies within [0, limit).
func CheckRange(offset, size, limit int64) error {
	if offset < 0 || size < 0 || offset > limit || size > limit-offset {
		return &RangeError{Offset: offset, Size: size, Limit: limit}
	}
	return nil
}

// Invalid returns an error wrapping ErrInvalidFormat.
func Invalid(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, a...))
}

// EndOfStream returns an error wrapping ErrEndOfStream.
func EndOfStream(what string) error {
	return fmt.Errorf("%w while reading %s", ErrEndOfStream, what)
}
