package riff

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidState is returned for operations on the wrong kind of chunk,
	// unknown chunk handles, or a writer that has been freed.
	ErrInvalidState = errors.New("riff: invalid state")

	// ErrSizeExceeded is returned by Update when the new payload is larger
	// than the region written originally, and by the append operations when
	// a chunk size or file offset would no longer fit in 32 bits.
	ErrSizeExceeded = errors.New("riff: size exceeded")

	// ErrMalformed is returned by Parse when chunk sizes are inconsistent.
	ErrMalformed = errors.New("riff: malformed container")
)

// IOError records a failed read, write or seek on the underlying stream.
type IOError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("riff: %s at %d: %v", e.Op, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func ioError(op string, offset int64, err error) error {
	return &IOError{Op: op, Offset: offset, Err: err}
}
