package feed

import (
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"github.com/veandco/go-sdl2/ttf"

	"autoplay/pkg/scheduler"
	"autoplay/pkg/sdlview"
	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/slots"
	"autoplay/pkg/visibility"
	"autoplay/ui"
)

var (
	background = sdl.Color{R: 12, G: 12, B: 16, A: 255}
	white      = sdl.Color{R: 240, G: 240, B: 240, A: 255}
	muted      = sdl.Color{R: 150, G: 150, B: 160, A: 255}
	alert      = sdl.Color{R: 230, G: 80, B: 70, A: 255}
	track      = sdl.Color{R: 40, G: 40, B: 48, A: 255}
)

// stateColor is the fill used for a slot in the given state.
func stateColor(v scheduler.ItemView, tracked bool) sdl.Color {
	switch {
	case !tracked:
		return sdl.Color{R: 50, G: 50, B: 56, A: 255}
	case v.Failed:
		return sdl.Color{R: 120, G: 30, B: 30, A: 255}
	}
	switch v.State {
	case slots.Binding:
		return sdl.Color{R: 170, G: 120, B: 20, A: 255}
	case slots.Prepared:
		return sdl.Color{R: 40, G: 80, B: 150, A: 255}
	case slots.Playing:
		return sdl.Color{R: 30, G: 140, B: 70, A: 255}
	case slots.Paused:
		return sdl.Color{R: 30, G: 90, B: 100, A: 255}
	default:
		return sdl.Color{R: 70, G: 70, B: 80, A: 255}
	}
}

// progress is how far into a clip of length loop pos is.
func progress(pos, loop time.Duration) float64 {
	if loop <= 0 || pos <= 0 {
		return 0
	}
	return float64(pos%loop) / float64(loop)
}

func statusLine(v scheduler.ItemView) string {
	state := v.State.String()
	if v.Failed {
		state = "Failed"
	} else if v.UserPaused {
		state += " (user)"
	}
	return fmt.Sprintf("%s  %d%%  %s", state, visibility.Percent(v.Ratio), v.Position.Truncate(100*time.Millisecond))
}

// Draw renders the feed, or the takeover while one is presented.
func (s *Screen) Draw() error {
	s.realizeSurfaces()

	r := s.renderer
	r.SetDrawColor(background.R, background.G, background.B, background.A)
	if err := r.Clear(); err != nil {
		return err
	}
	snap := s.sched.Snapshot()

	if s.presenter != nil {
		if id, slot, ok := s.presenter.Active(); ok {
			s.drawFullscreen(snap, id, slot)
			r.Present()
			return nil
		}
	}

	vp := s.layout.Viewport
	r.SetClipRect(&vp)
	for k, slot := range s.pool {
		idx := s.assigned[k]
		if idx < 0 || !slot.OnScreen() {
			continue
		}
		s.drawSlot(snap, slot, s.feed.Items[idx])
	}
	r.SetClipRect(nil)
	s.drawStats(snap)

	r.Present()
	return nil
}

func (s *Screen) drawSlot(snap *scheduler.Snapshot, slot *sdlview.Slot, item sharedTypes.FeedItem) {
	b := slot.Bounds()
	v, ok := snap.BySlot(slot.ID())
	tracked := ok && v.ID == item.Id

	c := stateColor(v, tracked)
	ui.DrawGradientRect(s.renderer, b, c, ui.Darken(c, 0.45))
	if tracked && snap.Owner == v.ID {
		ui.Outline(s.renderer, b, 3, white)
	}

	s.text(item.Title, b.X+16, b.Y+12, white, s.titleFont())
	if !tracked {
		return
	}
	color := muted
	if v.Failed {
		color = alert
	}
	s.text(statusLine(v), b.X+16, b.Y+52, color, s.smallFont())

	bar := sdl.Rect{X: b.X, Y: b.Y + b.H - 6, W: b.W, H: 6}
	ui.DrawProgressBar(s.renderer, bar, progress(v.Position, s.loop), track, white)
}

func (s *Screen) drawFullscreen(snap *scheduler.Snapshot, id sharedTypes.ItemID, slot *sdlview.Slot) {
	b := slot.Bounds()
	v, ok := snap.Item(id)
	c := stateColor(v, ok)
	ui.DrawGradientRect(s.renderer, b, ui.Darken(c, 0.6), c)

	title := string(id)
	for _, it := range s.feed.Items {
		if it.Id == id {
			title = it.Title
			break
		}
	}
	s.text(title, b.X+32, b.Y+32, white, s.titleFont())
	if ok {
		s.text(statusLine(v), b.X+32, b.Y+76, muted, s.smallFont())
	}
	s.text("tap to pause or resume, Esc to close", b.X+32, b.Y+b.H-64, muted, s.smallFont())

	bar := sdl.Rect{X: b.X, Y: b.Y + b.H - 10, W: b.W, H: 10}
	ui.DrawProgressBar(s.renderer, bar, progress(v.Position, s.loop), track, white)
}

func (s *Screen) drawStats(snap *scheduler.Snapshot) {
	st := snap.Stats
	line := fmt.Sprintf("binds %d  stale %d  failures %d  timeouts %d  avg bind %s",
		st.Binds, st.Stale, st.Failures, st.Timeouts, st.BindLatency.Truncate(time.Millisecond))
	color := muted
	if st.Degrading {
		color = alert
		line += "  degrading"
	}
	vp := s.layout.Viewport
	ui.FillRect(s.renderer, sdl.Rect{X: vp.X, Y: vp.Y + vp.H - 28, W: vp.W, H: 28}, sdl.Color{A: 200})
	s.text(line, vp.X+12, vp.Y+vp.H-24, color, s.smallFont())
}

func (s *Screen) text(text string, x, y int32, color sdl.Color, font *ttf.Font) {
	// Missing fonts only lose the labels.
	_ = ui.RenderText(s.renderer, text, x, y, color, font)
}

func (s *Screen) titleFont() *ttf.Font {
	if s.fonts == nil {
		return nil
	}
	return s.fonts.Title
}

func (s *Screen) smallFont() *ttf.Font {
	if s.fonts == nil {
		return nil
	}
	return s.fonts.Small
}
