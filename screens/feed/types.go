package feed

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/veandco/go-sdl2/sdl"

	"autoplay/pkg/input"
	"autoplay/pkg/scheduler"
	"autoplay/pkg/sdlview"
	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/slots"
	"autoplay/ui"
)

// Scheduler is the part of *scheduler.Scheduler the screen drives.
type Scheduler interface {
	Track(id sharedTypes.ItemID, source string, target slots.RenderTarget) error
	SlotAvailable(slot sharedTypes.SlotID) error
	SlotResized(slot sharedTypes.SlotID) error
	SlotDestroyed(slot sharedTypes.SlotID) error
	Tap(slot sharedTypes.SlotID) error
	DismissFullscreen() error
	Snapshot() *scheduler.Snapshot
}

type Config struct {
	Renderer  *sdl.Renderer
	Fonts     *ui.Fonts
	Scheduler Scheduler
	Presenter *sdlview.Presenter
	// Notify is called whenever the list moved; it feeds the scroll trigger.
	Notify func()
	Feed   sharedTypes.Feed
	Layout Layout
	// Loop is the clip length the progress bar is drawn against.
	Loop   time.Duration
	Logger zerolog.Logger
}

// Screen is a scrolling feed drawn into a fixed pool of recycled slots.
type Screen struct {
	renderer  *sdl.Renderer
	fonts     *ui.Fonts
	sched     Scheduler
	presenter *sdlview.Presenter
	notify    func()
	log       zerolog.Logger

	feed   sharedTypes.Feed
	layout Layout
	loop   time.Duration
	offset int32

	pool     []*sdlview.Slot
	assigned []int // feed index drawn by each pool slot, -1 when none

	keys    input.KeyPressTracker
	pointer *input.Pointer
	wheel   int32 // accumulated from wheel events since the last Update
}
