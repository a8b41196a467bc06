package feed

import (
	"errors"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"autoplay/pkg/input"
	xlog "autoplay/pkg/log"
	"autoplay/pkg/scheduler"
	"autoplay/pkg/sdlview"
)

const (
	wheelStep = 60
	arrowStep = 120
)

// NewScreen builds the slot pool and tracks the first page of items.
func NewScreen(cfg Config) *Screen {
	if cfg.Notify == nil {
		cfg.Notify = func() {}
	}
	s := &Screen{
		renderer:  cfg.Renderer,
		fonts:     cfg.Fonts,
		sched:     cfg.Scheduler,
		presenter: cfg.Presenter,
		notify:    cfg.Notify,
		log:       cfg.Logger,
		feed:      cfg.Feed,
		layout:    cfg.Layout,
		loop:      cfg.Loop,
		keys:      input.NewKeyPressTracker(),
		pointer:   input.NewPointer(),
	}
	s.growPool()
	s.relayout()
	s.log.Info().
		Int("items", len(s.feed.Items)).
		Int("slots", len(s.pool)).
		Str("feed", s.feed.Title).
		Msg("feed: screen ready")
	return s
}

// HandleEvent consumes queued SDL events the state polling cannot see.
func (s *Screen) HandleEvent(ev sdl.Event) {
	switch e := ev.(type) {
	case *sdl.MouseWheelEvent:
		s.wheel -= e.Y * wheelStep
	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			s.Resize(e.Data1, e.Data2)
		}
	}
}

// Update polls keyboard and pointer state once per frame.
func (s *Screen) Update() error {
	keyState := sdl.GetKeyboardState()
	x, y, buttons := sdl.GetMouseState()
	s.handleInput(keyState, x, y, buttons&sdl.ButtonLMask() != 0, time.Now())
	return nil
}

func (s *Screen) handleInput(keyState []uint8, x, y int32, down bool, now time.Time) {
	if s.keys.IsPressed(keyState, sdl.SCANCODE_ESCAPE) {
		s.post("dismiss", s.sched.DismissFullscreen())
	}
	fullscreen := s.inFullscreen()
	if !fullscreen {
		if s.keys.IsPressed(keyState, sdl.SCANCODE_DOWN) {
			s.ScrollBy(arrowStep)
		}
		if s.keys.IsPressed(keyState, sdl.SCANCODE_UP) {
			s.ScrollBy(-arrowStep)
		}
		if s.wheel != 0 {
			s.ScrollBy(s.wheel)
		}
	}
	s.wheel = 0

	switch g := s.pointer.Update(x, y, down, now); g.Kind {
	case input.Tap:
		s.TapAt(g.X, g.Y)
	case input.Drag:
		if !fullscreen {
			s.ScrollBy(-g.DY)
		}
	}
}

// ScrollBy moves the list by dy pixels, recycling slots that left the page.
func (s *Screen) ScrollBy(dy int32) {
	next := s.layout.Clamp(s.offset+dy, len(s.feed.Items))
	if next == s.offset {
		return
	}
	s.offset = next
	s.relayout()
	s.notify()
}

// TapAt forwards a tap to the slot under (x, y).
func (s *Screen) TapAt(x, y int32) {
	if s.presenter != nil {
		if _, slot, ok := s.presenter.Active(); ok {
			s.post("tap", s.sched.Tap(slot.ID()))
			return
		}
	}
	p := sdl.Point{X: x, Y: y}
	if !p.InRect(&s.layout.Viewport) {
		return
	}
	for k, slot := range s.pool {
		if s.assigned[k] < 0 || !slot.OnScreen() {
			continue
		}
		b := slot.Bounds()
		if p.InRect(&b) {
			s.post("tap", s.sched.Tap(slot.ID()))
			return
		}
	}
}

// Resize adapts the viewport to a new window size.
func (s *Screen) Resize(w, h int32) {
	s.layout.Viewport.W, s.layout.Viewport.H = w, h
	s.growPool()
	for _, slot := range s.pool {
		slot.SetViewport(s.layout.Viewport)
		slot.Resize(s.layout.Viewport.W-2*s.layout.Margin, s.layout.ItemHeight)
	}
	s.offset = s.layout.Clamp(s.offset, len(s.feed.Items))
	s.relayout()
	for k, slot := range s.pool {
		if s.assigned[k] >= 0 {
			s.post("resize", s.sched.SlotResized(slot.ID()))
		}
	}
	s.notify()
}

// Close releases every slot surface.
func (s *Screen) Close() {
	for k, slot := range s.pool {
		slot.SetAvailable(false)
		slot.SetShown(false)
		if s.assigned[k] >= 0 {
			s.post("destroy", s.sched.SlotDestroyed(slot.ID()))
		}
	}
}

func (s *Screen) inFullscreen() bool {
	if s.presenter == nil {
		return false
	}
	_, _, ok := s.presenter.Active()
	return ok
}

// growPool adds slots until the viewport can be covered.
func (s *Screen) growPool() {
	want := min(s.layout.PoolSize(), len(s.feed.Items))
	grew := len(s.pool) < want
	for len(s.pool) < want {
		slot := sdlview.NewSlot(s.layout.Viewport.W-2*s.layout.Margin, s.layout.ItemHeight)
		slot.SetViewport(s.layout.Viewport)
		s.pool = append(s.pool, slot)
		s.assigned = append(s.assigned, -1)
	}
	if grew {
		// Pool growth changes the modulus; force every slot to be reassigned.
		for k := range s.assigned {
			s.assigned[k] = -2
		}
	}
}

// relayout positions every pool slot and tracks items that moved onto a
// recycled slot.
func (s *Screen) relayout() {
	n := len(s.feed.Items)
	pool := len(s.pool)
	if pool == 0 {
		return
	}
	first := s.layout.First(s.offset)
	for k, slot := range s.pool {
		idx := SlotIndex(k, first, pool)
		if idx >= n {
			slot.SetShown(false)
			continue
		}
		r := s.layout.ItemRect(idx, s.offset)
		slot.Place(r.X, r.Y)
		slot.SetShown(true)
		if s.assigned[k] == idx {
			continue
		}
		s.assigned[k] = idx
		item := s.feed.Items[idx]
		s.log.Debug().
			Str(xlog.FieldItem, string(item.Id)).
			Str(xlog.FieldSlot, string(slot.ID())).
			Msg("feed: slot recycled")
		s.post("track", s.sched.Track(item.Id, item.Source, slot))
	}
}

// realizeSurfaces makes on-screen slots drawable and tells the scheduler.
func (s *Screen) realizeSurfaces() {
	for k, slot := range s.pool {
		if s.assigned[k] < 0 || slot.IsAvailable() || !slot.OnScreen() {
			continue
		}
		slot.SetAvailable(true)
		s.post("available", s.sched.SlotAvailable(slot.ID()))
	}
}

func (s *Screen) post(what string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, scheduler.ErrClosed) {
		s.log.Debug().Str("event", what).Msg("feed: scheduler stopped")
		return
	}
	s.log.Warn().Err(err).Str("event", what).Msg("feed: post failed")
}
