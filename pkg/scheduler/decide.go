package scheduler

import (
	"errors"

	xlog "autoplay/pkg/log"
	"autoplay/pkg/metrics"
	"autoplay/pkg/playback"
	"autoplay/pkg/sharedTypes"
	"autoplay/pkg/slots"
	"autoplay/pkg/visibility"
)

// maxBindTimeouts consecutive timeouts mark an item failed.
const maxBindTimeouts = 3

// owner returns the item holding the live binding, if any.
func (s *Scheduler) owner() *slots.Item {
	it, _ := s.reg.FindByHandle(s.res.Active())
	return it
}

func (s *Scheduler) autoplayAllowed(it *slots.Item) bool {
	return !(it.UserPaused && s.policy.Autoplay == AutoplayRespectUserPause)
}

// recompute pauses the owner once it drops below the threshold and, when
// nothing owns the resource, binds the most visible eligible item.
func (s *Scheduler) recompute() {
	if s.fs != nil {
		return
	}
	owner := s.owner()
	var best *slots.Item
	bestRatio := 0.0
	for _, it := range s.reg.Items() {
		if it.Target == nil || it.Failed {
			continue
		}
		ratio := visibility.Estimate(slots.Sample(it.Target))
		if it == owner {
			if ratio < s.policy.VisibleThreshold {
				s.log.Debug().
					Str(xlog.FieldItem, string(it.ID)).
					Int(xlog.FieldPercent, visibility.Percent(ratio)).
					Msg("visibility: owner below threshold")
				s.pause(it, "scroll")
				owner = nil
			}
			continue
		}
		if visibility.Percent(ratio) == 0 || ratio < s.policy.VisibleThreshold {
			continue
		}
		if !s.autoplayAllowed(it) || !it.Target.IsAvailable() {
			continue
		}
		if best == nil || ratio > bestRatio {
			best, bestRatio = it, ratio
		}
	}
	if owner == nil && best != nil {
		s.log.Debug().
			Str(xlog.FieldItem, string(best.ID)).
			Float64(xlog.FieldRatio, bestRatio).
			Msg("visibility: taking over playback")
		s.bind(best)
	}
}

// bind hands the resource to it, pausing whoever held it first.
func (s *Scheduler) bind(it *slots.Item) {
	if it.Target == nil {
		return
	}
	if owner := s.owner(); owner != nil {
		s.pause(owner, "preempt")
	}
	h := s.res.Bind(it.Source, it.Target.Surface())
	if !h.Valid() {
		s.log.Debug().Str(xlog.FieldItem, string(it.ID)).Msg("bind: resource closed")
		return
	}
	it.Handle = h
	it.State = slots.Binding
	it.Intent = slots.ShouldPlay
	it.BoundAt = s.now()
	s.stats.Binds++
	metrics.IncBind()
	s.log.Debug().
		Str(xlog.FieldItem, string(it.ID)).
		Str(xlog.FieldSlot, string(it.Slot())).
		Uint64(xlog.FieldHandle, uint64(h)).
		Msg("bind: issued")
}

// pause captures the position of a live binding and releases it.
func (s *Scheduler) pause(it *slots.Item, cause string) {
	if it.Handle.Valid() && it.Handle == s.res.Active() {
		if it.State == slots.Playing || it.State == slots.Prepared {
			it.Position = s.res.PauseCapturingPosition()
		}
		s.res.Teardown()
		s.stats.Pauses++
		metrics.IncPause(cause)
	}
	it.Handle = 0
	if it.State != slots.Idle {
		it.State = slots.Paused
	}
	it.Intent = slots.ShouldPause
	s.record(it)
	s.log.Debug().
		Str(xlog.FieldItem, string(it.ID)).
		Str(xlog.FieldCause, cause).
		Int64(xlog.FieldPosition, it.Position.Milliseconds()).
		Msg("pause: position captured")
}

// detach releases the item's slot through the registry.
func (s *Scheduler) detach(it *slots.Item, cause string) {
	wasOwner := it.Handle.Valid() && it.Handle == s.res.Active()
	slot := it.Slot()
	s.reg.DetachRenderTarget(slot)
	if wasOwner {
		s.stats.Pauses++
		metrics.IncPause(cause)
	}
	s.record(it)
	s.log.Debug().
		Str(xlog.FieldItem, string(it.ID)).
		Str(xlog.FieldSlot, string(slot)).
		Str(xlog.FieldCause, cause).
		Msg("slot: detached")
}

func (s *Scheduler) record(it *slots.Item) {
	if s.sink != nil {
		s.sink.Record(it.ID, it.Position)
	}
}

func (s *Scheduler) handleCompletion(c playback.Completion) {
	it, _ := s.reg.FindByHandle(c.Handle)
	err := s.res.Complete(c)
	switch {
	case errors.Is(err, playback.ErrStaleHandle):
		s.stats.Stale++
		metrics.IncBindOutcome("stale")
		s.log.Debug().Uint64(xlog.FieldHandle, uint64(c.Handle)).Msg("bind: stale completion discarded")
	case it == nil:
		s.log.Warn().Uint64(xlog.FieldHandle, uint64(c.Handle)).Msg("bind: completion for untracked binding")
		s.res.Teardown()
	case errors.Is(err, playback.ErrBindTimeout):
		s.stats.Timeouts++
		metrics.IncBindOutcome("timeout")
		it.Timeouts++
		if it.Timeouts >= maxBindTimeouts {
			s.fail(it, err)
			return
		}
		s.monitor.RecordFailed()
		it.Handle = 0
		it.State = slots.Idle
		s.log.Warn().
			Str(xlog.FieldItem, string(it.ID)).
			Dur("timeout", c.Latency).
			Msg("bind: timed out, item back to idle")
	case err != nil:
		s.fail(it, err)
	default:
		it.Prepared = true
		it.Timeouts = 0
		s.stats.Prepared++
		s.monitor.RecordPrepared(c.Latency)
		metrics.IncBindOutcome("prepared")
		metrics.ObserveBindLatency(c.Latency)

		play := it.Intent == slots.ShouldPlay
		if err := s.res.SeekAndMaybeStart(c.Handle, it.Position, play); err != nil {
			s.res.Teardown()
			s.fail(it, err)
			return
		}
		if play {
			it.State = slots.Playing
		} else {
			it.State = slots.Prepared
		}
		s.log.Info().
			Str(xlog.FieldItem, string(it.ID)).
			Int64(xlog.FieldPosition, it.Position.Milliseconds()).
			Bool("play", play).
			Msg("bind: prepared")
	}
}

// fail marks a per-item bind failure. The item is skipped until its slot is
// recycled or the user taps it.
func (s *Scheduler) fail(it *slots.Item, err error) {
	it.Failed = true
	it.LastErr = err
	it.Timeouts = 0
	it.Prepared = false
	it.Handle = 0
	it.State = slots.Idle
	s.stats.Failures++
	s.monitor.RecordFailed()
	metrics.IncBindOutcome("failed")
	s.log.Warn().Err(err).Str(xlog.FieldItem, string(it.ID)).Msg("bind: failed")
}

func (s *Scheduler) handleTrack(id sharedTypes.ItemID, source string, target slots.RenderTarget) {
	if target != nil {
		if holder, ok := s.reg.FindByRenderTarget(target.ID()); ok && holder.ID != id {
			s.detach(holder, "recycle")
		}
	}
	if s.fs != nil && s.fs.item.ID == id && target != nil {
		// The item is in the takeover; remember where it lives inline now.
		s.fs.inline = target
		target = nil
	}
	_, known := s.reg.Find(id)
	it, err := s.reg.Upsert(id, source, target)
	if err != nil {
		s.log.Warn().Err(err).Str(xlog.FieldItem, string(id)).Msg("track: upsert rejected")
		return
	}
	if !known {
		if pos, ok := s.seed[id]; ok {
			it.Position = pos
		}
		s.log.Debug().
			Str(xlog.FieldItem, string(id)).
			Str(xlog.FieldSlot, string(it.Slot())).
			Int64(xlog.FieldPosition, it.Position.Milliseconds()).
			Msg("track: new item")
	}
	s.recompute()
}

func (s *Scheduler) handleUntrack(id sharedTypes.ItemID) {
	it, ok := s.reg.Find(id)
	if !ok {
		return
	}
	if s.fs != nil && s.fs.item == it {
		s.fs = nil
		it.Fullscreen = false
		if s.presenter != nil {
			s.presenter.Dismiss(id)
		}
	}
	if it.Handle.Valid() && it.Handle == s.res.Active() {
		metrics.IncPause("detach")
		s.stats.Pauses++
	}
	_ = s.reg.Remove(id)
	s.record(it)
	s.recompute()
}

func (s *Scheduler) handleSlotDestroyed(slot sharedTypes.SlotID) {
	if s.fs != nil && s.fs.inline != nil && s.fs.inline.ID() == slot {
		s.fs.inline = nil
	}
	it, ok := s.reg.FindByRenderTarget(slot)
	if !ok {
		s.log.Debug().Str(xlog.FieldSlot, string(slot)).Msg("slot: destroyed with no item")
		s.recompute()
		return
	}
	if s.fs != nil && s.fs.item == it {
		s.dismissFullscreen()
		return
	}
	s.detach(it, "detach")
	s.recompute()
}

func (s *Scheduler) handleTap(slot sharedTypes.SlotID) {
	it, ok := s.reg.FindByRenderTarget(slot)
	if !ok {
		s.log.Debug().Str(xlog.FieldSlot, string(slot)).Msg("tap: no item on slot")
		return
	}
	if s.fs != nil && s.fs.item != it {
		return
	}
	if it.Failed {
		it.Failed = false
		it.LastErr = nil
		it.UserPaused = false
		s.log.Info().Str(xlog.FieldItem, string(it.ID)).Msg("tap: retrying failed item")
		s.playWhenAvailable(it)
		return
	}
	switch {
	case s.fs != nil && s.policy.Fullscreen == FullscreenAlwaysReEnter:
		s.reenterFullscreen()
	case s.fs != nil:
		s.toggle(it)
	case s.presenter != nil:
		s.enterFullscreen(it)
	default:
		s.toggle(it)
	}
}

// toggle flips between user pause and resume.
func (s *Scheduler) toggle(it *slots.Item) {
	active := it.State == slots.Binding || it.State == slots.Playing || it.State == slots.Prepared
	if it.Intent == slots.ShouldPlay && active {
		it.UserPaused = true
		s.pause(it, "user")
		return
	}
	it.UserPaused = false
	s.playWhenAvailable(it)
}

// playWhenAvailable binds it now, or leaves it wanting to play until its
// surface appears.
func (s *Scheduler) playWhenAvailable(it *slots.Item) {
	if it.Target == nil || !it.Target.IsAvailable() {
		it.Intent = slots.ShouldPlay
		return
	}
	s.bind(it)
}

func (s *Scheduler) enterFullscreen(it *slots.Item) {
	target, err := s.presenter.Present(it.ID)
	if err != nil || target == nil {
		s.log.Warn().Err(err).Str(xlog.FieldItem, string(it.ID)).Msg("fullscreen: present failed, toggling inline")
		s.toggle(it)
		return
	}
	if owner := s.owner(); owner != nil {
		s.pause(owner, "fullscreen")
	}
	inline := it.Target
	if inline != nil {
		s.reg.DetachRenderTarget(inline.ID())
	}
	if _, err := s.reg.Upsert(it.ID, "", target); err != nil {
		s.log.Warn().Err(err).Str(xlog.FieldItem, string(it.ID)).Msg("fullscreen: target rejected")
		s.presenter.Dismiss(it.ID)
		if inline != nil {
			_, _ = s.reg.Upsert(it.ID, "", inline)
		}
		return
	}
	it.Fullscreen = true
	it.UserPaused = false
	s.fs = &fullscreenState{item: it, inline: inline, target: target}
	s.log.Info().Str(xlog.FieldItem, string(it.ID)).Msg("fullscreen: entered")
	s.bind(it)
}

// reenterFullscreen presents the takeover again and makes sure it plays.
func (s *Scheduler) reenterFullscreen() {
	fs := s.fs
	it := fs.item
	target, err := s.presenter.Present(it.ID)
	if err != nil || target == nil {
		s.log.Warn().Err(err).Str(xlog.FieldItem, string(it.ID)).Msg("fullscreen: re-present failed")
		return
	}
	it.UserPaused = false
	if target.ID() != fs.target.ID() {
		if owner := s.owner(); owner != nil {
			s.pause(owner, "fullscreen")
		}
		s.reg.DetachRenderTarget(fs.target.ID())
		if _, err := s.reg.Upsert(it.ID, "", target); err != nil {
			s.log.Warn().Err(err).Str(xlog.FieldItem, string(it.ID)).Msg("fullscreen: target rejected")
			return
		}
		fs.target = target
	}
	if it.State == slots.Binding || it.State == slots.Playing {
		return
	}
	s.bind(it)
}

// dismissFullscreen pauses the takeover and returns the item to its inline
// slot with the intent it had when dismissed.
func (s *Scheduler) dismissFullscreen() {
	if s.fs == nil {
		return
	}
	fs := s.fs
	it := fs.item
	intent := it.Intent
	s.fs = nil

	if it.Handle.Valid() && it.Handle == s.res.Active() {
		s.stats.Pauses++
		metrics.IncPause("fullscreen")
	}
	s.reg.DetachRenderTarget(fs.target.ID())
	s.record(it)
	it.Fullscreen = false
	if s.presenter != nil {
		s.presenter.Dismiss(it.ID)
	}

	if fs.inline == nil {
		s.log.Info().Str(xlog.FieldItem, string(it.ID)).Msg("fullscreen: dismissed, inline slot gone")
		s.recompute()
		return
	}
	if holder, ok := s.reg.FindByRenderTarget(fs.inline.ID()); ok && holder != it {
		s.log.Info().
			Str(xlog.FieldItem, string(it.ID)).
			Str(xlog.FieldSlot, string(fs.inline.ID())).
			Msg("fullscreen: dismissed, inline slot recycled")
		s.recompute()
		return
	}
	if _, err := s.reg.Upsert(it.ID, "", fs.inline); err != nil {
		s.log.Warn().Err(err).Str(xlog.FieldItem, string(it.ID)).Msg("fullscreen: reattach rejected")
		s.recompute()
		return
	}
	it.Intent = intent
	s.log.Info().
		Str(xlog.FieldItem, string(it.ID)).
		Str(xlog.FieldNewState, intent.String()).
		Msg("fullscreen: dismissed")
	if intent == slots.ShouldPlay && fs.inline.IsAvailable() {
		s.bind(it)
		return
	}
	s.recompute()
}

func (s *Scheduler) applyPolicy(p Policy) {
	if err := p.Validate(); err != nil {
		s.log.Warn().Err(err).Msg("policy: rejected")
		return
	}
	s.policy = p
	s.log.Info().
		Float64("threshold", p.VisibleThreshold).
		Str("autoplay", p.Autoplay.String()).
		Str("fullscreen", p.Fullscreen.String()).
		Msg("policy: updated")
	s.recompute()
}
