package sdlview

import (
	"errors"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/slots"
)

var ErrNoScreen = errors.New("sdlview: screen has no area")

// Presenter hands out a screen-sized slot for the fullscreen takeover.
// Presenting the item already on screen returns the same slot.
type Presenter struct {
	mu     sync.Mutex
	screen sdl.Rect
	item   sharedTypes.ItemID
	target *Slot
}

func NewPresenter(w, h int32) *Presenter {
	return &Presenter{screen: sdl.Rect{W: w, H: h}}
}

func (p *Presenter) Present(id sharedTypes.ItemID) (slots.RenderTarget, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screen.Empty() {
		return nil, ErrNoScreen
	}
	if p.target != nil && p.item == id {
		return p.target, nil
	}
	if p.target != nil {
		p.target.SetAvailable(false)
	}
	t := NewSlot(p.screen.W, p.screen.H)
	t.Place(p.screen.X, p.screen.Y)
	t.SetViewport(p.screen)
	t.SetShown(true)
	t.SetAvailable(true)
	p.item, p.target = id, t
	return t, nil
}

// Dismiss releases the takeover if id still holds it.
func (p *Presenter) Dismiss(id sharedTypes.ItemID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == nil || p.item != id {
		return
	}
	p.target.SetAvailable(false)
	p.target.SetShown(false)
	p.item, p.target = "", nil
}

// Active returns the item on screen and its slot, for drawing.
func (p *Presenter) Active() (sharedTypes.ItemID, *Slot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == nil {
		return "", nil, false
	}
	return p.item, p.target, true
}
