package domain

import (
	"errors"
	"fmt"
)

// Persistence errors form the taxonomy surfaced by the bridge and the store.
// Every error returned from a read or write wraps exactly one of these.
var (
	// ErrNotFound is returned when the save directory does not exist.
	ErrNotFound = errors.New("savesync: save directory not found")

	// ErrParseFailure is returned when the directory exists but its contents
	// cannot be read as a save.
	ErrParseFailure = errors.New("savesync: malformed save")

	// ErrIOFailure is returned for any other read or write failure
	// (permissions, disk full, unwritable path, canceled I/O).
	ErrIOFailure = errors.New("savesync: i/o failure")
)

// Store and session errors.
var (
	// ErrSuperseded is returned when a completed load is not committed because
	// a newer state was committed first.
	ErrSuperseded = errors.New("savesync: load superseded")

	// ErrNoSave is returned when an operation needs a loaded save and none is loaded.
	ErrNoSave = errors.New("savesync: no save loaded")

	// ErrAlreadyRunning is returned when Start() is called on a running session.
	ErrAlreadyRunning = errors.New("savesync: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped session.
	ErrNotRunning = errors.New("savesync: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("savesync: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("savesync: invalid configuration")
)

// Error is a classified persistence failure. Kind is one of ErrNotFound,
// ErrParseFailure or ErrIOFailure; Err is the underlying cause.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

// NewError builds an Error of the given kind wrapping err.
func NewError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the taxonomy sentinel carried by err, or nil if err is not
// classified. The outermost *Error decides when several are chained.
func KindOf(err error) error {
	var de *Error
	if errors.As(err, &de) && de.Kind != nil {
		return de.Kind
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrParseFailure):
		return ErrParseFailure
	case errors.Is(err, ErrIOFailure):
		return ErrIOFailure
	default:
		return nil
	}
}
