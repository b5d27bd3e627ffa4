// Package bkrerrs defines the small error taxonomy shared by every codec
// stage: the distinction between a condition a stage recovers from locally
// (BadSector, Uncorrectable) and one that has to propagate to the driver
// loop (EndOfStream, Timeout, MalformedCodec, OutOfMemory, WouldBlock).
package bkrerrs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies which taxonomy bucket an error belongs to.
type Code int32

const (
	CodeUnknown Code = iota
	// CodeWouldBlock means a stage cannot make progress right now: its
	// input ring is empty or its output ring is full. Not an error in
	// the usual sense, just a cooperative-scheduling signal.
	CodeWouldBlock
	// CodeEndOfStream means the upstream producer is done and drained.
	CodeEndOfStream
	// CodeBadSector means one sector's header or RS block failed to
	// decode; the stage recovers by skipping it and keeps running.
	CodeBadSector
	// CodeUncorrectable means an RS block exceeded its correction
	// budget; the stage recovers with best-effort data and keeps running.
	CodeUncorrectable
	// CodeMalformedCodec means a configuration or on-wire invariant was
	// violated in a way no amount of retrying fixes; it propagates.
	CodeMalformedCodec
	// CodeTimeout means a blocking wait exceeded its deadline.
	CodeTimeout
	// CodeOutOfMemory means a buffer allocation failed.
	CodeOutOfMemory
)

// Error is the taxonomy-tagged error type every codec stage returns.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// New builds a tagged error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Newf is New with fmt-style formatting.
func Newf(code Code, format string, args ...interface{}) error {
	return New(code, fmt.Sprintf(format, args...))
}

// CodeOf extracts the taxonomy code from err, or CodeUnknown if err is nil
// or not one of this package's errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given taxonomy code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// Sentinel instances for the common cases, so callers can return a shared
// value instead of constructing one each time.
var (
	ErrWouldBlock  = New(CodeWouldBlock, "would block")
	ErrEndOfStream = New(CodeEndOfStream, "end of stream")
	ErrTimeout     = New(CodeTimeout, "timeout")
	ErrOutOfMemory = New(CodeOutOfMemory, "out of memory")
)

// Wrapf wraps err with a stack-carrying message, preserving its taxonomy
// code when err is one of this package's errors.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
