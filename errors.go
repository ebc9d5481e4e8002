// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is. A caller that wraps one of these
// (for instance to add the operation name) must do so with %w so the
// sentinel survives.
var (
	// errTableFull is returned by the node store's allocator when no free
	// slot exists for a new node and a cooperative GC pass failed to make
	// room (§4.2 "table full" in the design notes).
	errTableFull = errors.New("node store is full")

	// errMemory is returned when the node store is full, a GC-and-retry
	// didn't recover it, and the store has already reached its configured
	// Maxnodesize ceiling, so growing further isn't an option (§4.2
	// "Resize"). When the store hasn't hit that ceiling, the equivalent
	// failure surfaces as errTableFull instead: growth is expected to have
	// made room, and didn't, which is a different condition from "growth is
	// deliberately capped here".
	errMemory = errors.New("node store at configured size limit")

	// errInvalidVariable is returned when a caller asks for a variable
	// index outside the range declared at construction time.
	errInvalidVariable = errors.New("variable index out of range")
)

// OpError reports the failure of a single DD operation, wrapping one of the
// package sentinel errors with the name of the operation involved. Use
// errors.Is against ErrTableFull/ErrMemory rather than comparing OpError
// values directly.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("dd: %s: %s", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opError(op string, err error) *OpError {
	return &OpError{Op: op, Err: err}
}

// ErrTableFull is returned (wrapped in an *OpError) when the node store
// could not be grown to satisfy an allocation, even after a GC pass.
var ErrTableFull = errTableFull

// ErrMemory is returned (wrapped in an *OpError) when the node store is
// full and has already reached its configured Maxnodesize ceiling.
var ErrMemory = errMemory

// ErrInvalidVariable is returned (wrapped in an *OpError) when a variable
// index falls outside the range declared at construction time.
var ErrInvalidVariable = errInvalidVariable
