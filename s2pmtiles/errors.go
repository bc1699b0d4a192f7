package s2pmtiles

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Format violations and out-of-range conditions are
// data-integrity or programming faults and terminate the operation
// without partial effects; depth/codec/I/O errors propagate from a
// bounded descent or an injected collaborator. find_tile/get_tile
// "not found" is never one of these: it is represented as a plain
// absent return value.
var (
	ErrFormatViolation = errors.New("format violation")
	ErrOutOfRange      = errors.New("out of range")
	ErrDepthExceeded   = errors.New("max directory depth exceeded")
	ErrCodecFailure    = errors.New("codec failure")
	ErrIOFailure       = errors.New("i/o failure")
)

func newFormatError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrFormatViolation)
}

func newRangeError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrOutOfRange)
}

func newCodecError(err error) error {
	return fmt.Errorf("%w: %v", ErrCodecFailure, err)
}

func newIOError(err error) error {
	return fmt.Errorf("%w: %v", ErrIOFailure, err)
}
