package playback

import (
	"context"
	"time"
)

// Session is one prepared decode/render session produced by a Backend.
type Session interface {
	Seek(pos time.Duration) error
	Start() error
	Pause() error
	Position() (time.Duration, error)
	Playing() bool
	Close() error
}

// Backend opens sessions for a locally playable URL drawing into surface.
// Open may block; Resource always calls it off the scheduling loop and
// cancels ctx when the binding is superseded.
type Backend interface {
	Open(ctx context.Context, url string, surface any) (Session, error)
}
