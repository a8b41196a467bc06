// Package scroll turns raw scroll notifications into coarse recompute ticks.
package scroll

import (
	"context"

	"golang.org/x/time/rate"
)

const defaultHz = 30

// Trigger coalesces Notify calls and fires at most hz times per second. A
// fire always follows the last Notify.
type Trigger struct {
	limiter *rate.Limiter
	fire    func()
	notify  chan struct{}
}

func NewTrigger(hz float64, fire func()) *Trigger {
	if hz <= 0 {
		hz = defaultHz
	}
	return &Trigger{
		limiter: rate.NewLimiter(rate.Limit(hz), 1),
		fire:    fire,
		notify:  make(chan struct{}, 1),
	}
}

// Notify records that the viewport moved. It never blocks.
func (t *Trigger) Notify() {
	select {
	case t.notify <- struct{}{}:
	default:
	}
}

// SetRate changes the maximum tick rate.
func (t *Trigger) SetRate(hz float64) {
	if hz <= 0 {
		hz = defaultHz
	}
	t.limiter.SetLimit(rate.Limit(hz))
}

// Run fires until ctx is done.
func (t *Trigger) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.notify:
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return nil
		}
		// Anything that arrived while waiting is covered by this fire.
		select {
		case <-t.notify:
		default:
		}
		t.fire()
	}
}
