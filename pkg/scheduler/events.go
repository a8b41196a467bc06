package scheduler

import (
	"errors"

	"autoplay/pkg/playback"
	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/slots"
)

// ErrClosed is returned by the posting methods once Run has returned.
var ErrClosed = errors.New("scheduler: closed")

// Lifecycle events share one channel so their relative order is kept.
type trackEvent struct {
	id     sharedTypes.ItemID
	source string
	target slots.RenderTarget
}

type untrackEvent struct{ id sharedTypes.ItemID }

type slotAvailableEvent struct{ slot sharedTypes.SlotID }

type slotResizedEvent struct{ slot sharedTypes.SlotID }

type slotDestroyedEvent struct{ slot sharedTypes.SlotID }

type tickEvent struct{}

type tapEvent struct{ slot sharedTypes.SlotID }

type dismissEvent struct{}

type policyEvent struct{ policy Policy }

type completionEvent struct{ c playback.Completion }

// Track starts or refreshes tracking of id drawn by target. A target held by
// another identity is recycled: the previous identity is detached first. A
// nil target tracks id dormant.
func (s *Scheduler) Track(id sharedTypes.ItemID, source string, target slots.RenderTarget) error {
	return s.postSlot(trackEvent{id: id, source: source, target: target})
}

// Untrack forgets id, stopping playback if it owns the resource.
func (s *Scheduler) Untrack(id sharedTypes.ItemID) error {
	return s.postSlot(untrackEvent{id: id})
}

// SlotAvailable reports that slot's surface can now be drawn into.
func (s *Scheduler) SlotAvailable(slot sharedTypes.SlotID) error {
	return s.postSlot(slotAvailableEvent{slot: slot})
}

func (s *Scheduler) SlotResized(slot sharedTypes.SlotID) error {
	return s.postSlot(slotResizedEvent{slot: slot})
}

// SlotDestroyed reports that slot's surface is gone. Its item is detached.
func (s *Scheduler) SlotDestroyed(slot sharedTypes.SlotID) error {
	return s.postSlot(slotDestroyedEvent{slot: slot})
}

// Tick requests a visibility recompute. Ticks posted before the loop gets to
// them collapse into one.
func (s *Scheduler) Tick() error {
	if s.closed() {
		return ErrClosed
	}
	select {
	case s.ticks <- struct{}{}:
	default:
	}
	return nil
}

// Tap reports a user tap on slot.
func (s *Scheduler) Tap(slot sharedTypes.SlotID) error {
	if s.closed() {
		return ErrClosed
	}
	select {
	case <-s.done:
		return ErrClosed
	case s.taps <- slot:
		return nil
	}
}

// DismissFullscreen leaves the fullscreen takeover, if any.
func (s *Scheduler) DismissFullscreen() error {
	if s.closed() {
		return ErrClosed
	}
	select {
	case s.dismiss <- struct{}{}:
	default:
	}
	return nil
}

// UpdatePolicy replaces the scheduling policy. Invalid policies are rejected
// without being posted.
func (s *Scheduler) UpdatePolicy(p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if s.closed() {
		return ErrClosed
	}
	select {
	case <-s.done:
		return ErrClosed
	case s.policies <- p:
		return nil
	}
}

func (s *Scheduler) postSlot(ev any) error {
	if s.closed() {
		return ErrClosed
	}
	select {
	case <-s.done:
		return ErrClosed
	case s.slotEvents <- ev:
		return nil
	}
}

func (s *Scheduler) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
