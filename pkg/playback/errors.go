package playback

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleHandle is returned when a handle no longer names the live binding.
	ErrStaleHandle = errors.New("playback: stale binding handle")
	// ErrBindTimeout is delivered as a completion when prepare takes too long.
	ErrBindTimeout = errors.New("playback: bind timed out")
)

// BindError is a per-item bind failure: a bad source or a backend rejection.
type BindError struct {
	Source string
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s: %v", e.Source, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }
