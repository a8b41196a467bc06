package scheduler

import (
	"fmt"
)

// AutoplayPolicy decides whether a just-visible item the user paused may
// start again on its own.
type AutoplayPolicy int

const (
	// AutoplayRespectUserPause keeps a user-paused item paused until tapped.
	AutoplayRespectUserPause AutoplayPolicy = iota
	// AutoplayIgnoreUserPause autoplays any visible item.
	AutoplayIgnoreUserPause
)

func (p AutoplayPolicy) String() string {
	switch p {
	case AutoplayRespectUserPause:
		return "respect-user-pause"
	case AutoplayIgnoreUserPause:
		return "ignore-user-pause"
	default:
		return fmt.Sprintf("AutoplayPolicy(%d)", int(p))
	}
}

func ParseAutoplayPolicy(s string) (AutoplayPolicy, error) {
	switch s {
	case "", "respect-user-pause":
		return AutoplayRespectUserPause, nil
	case "ignore-user-pause":
		return AutoplayIgnoreUserPause, nil
	}
	return 0, fmt.Errorf("scheduler: unknown autoplay policy %q", s)
}

// FullscreenPolicy decides what a tap on the item already in fullscreen does.
type FullscreenPolicy int

const (
	// FullscreenToggleOnSecondTap toggles play/pause while fullscreen.
	FullscreenToggleOnSecondTap FullscreenPolicy = iota
	// FullscreenAlwaysReEnter presents the takeover again and forces play.
	FullscreenAlwaysReEnter
)

func (p FullscreenPolicy) String() string {
	switch p {
	case FullscreenToggleOnSecondTap:
		return "toggle-on-second-tap"
	case FullscreenAlwaysReEnter:
		return "always-reenter"
	default:
		return fmt.Sprintf("FullscreenPolicy(%d)", int(p))
	}
}

func ParseFullscreenPolicy(s string) (FullscreenPolicy, error) {
	switch s {
	case "", "toggle-on-second-tap":
		return FullscreenToggleOnSecondTap, nil
	case "always-reenter":
		return FullscreenAlwaysReEnter, nil
	}
	return 0, fmt.Errorf("scheduler: unknown fullscreen policy %q", s)
}

// DefaultThreshold is the visible fraction at which an item may take over
// playback.
const DefaultThreshold = 0.5

type Policy struct {
	VisibleThreshold float64
	Autoplay         AutoplayPolicy
	Fullscreen       FullscreenPolicy
}

func DefaultPolicy() Policy {
	return Policy{VisibleThreshold: DefaultThreshold}
}

// Validate rejects thresholds outside (0,1] and unknown enum values.
func (p Policy) Validate() error {
	if !(p.VisibleThreshold > 0 && p.VisibleThreshold <= 1) {
		return fmt.Errorf("scheduler: visible threshold %v not in (0,1]", p.VisibleThreshold)
	}
	if p.Autoplay != AutoplayRespectUserPause && p.Autoplay != AutoplayIgnoreUserPause {
		return fmt.Errorf("scheduler: invalid autoplay policy %d", int(p.Autoplay))
	}
	if p.Fullscreen != FullscreenToggleOnSecondTap && p.Fullscreen != FullscreenAlwaysReEnter {
		return fmt.Errorf("scheduler: invalid fullscreen policy %d", int(p.Fullscreen))
	}
	return nil
}
