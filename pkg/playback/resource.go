// Package playback owns the single shared decode/render session.
//
// A Resource is exclusive: binding a new (source, surface) pair always tears
// the previous binding down first. Binding is asynchronous; its outcome is
// delivered as a Completion on Completions(), and must be fed back through
// Complete on the owning loop. All methods except Completions must be called
// from that one loop goroutine.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"autoplay/pkg/source"
)

// Handle names one binding. Zero means "nothing bound". Handles are never
// reused, so a completion carrying an old handle is recognisably stale.
type Handle uint64

func (h Handle) Valid() bool { return h != 0 }

// Completion is the single outcome of a Bind. Err is nil when the binding is
// ready to seek and start.
type Completion struct {
	Handle  Handle
	Err     error
	Latency time.Duration

	session Session
}

// Config tunes a Resource.
type Config struct {
	// BindTimeout bounds how long a bind may stay unprepared. Zero disables it.
	BindTimeout time.Duration
	Logger      zerolog.Logger
}

type Resource struct {
	backend  Backend
	resolver source.Resolver
	timeout  time.Duration
	log      zerolog.Logger

	completions chan Completion
	done        chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	closed      bool

	next      Handle
	active    Handle
	completed bool
	cancel    context.CancelFunc
	timer     *time.Timer
	session   Session
	cached    time.Duration
}

func NewResource(backend Backend, resolver source.Resolver, cfg Config) *Resource {
	return &Resource{
		backend:     backend,
		resolver:    resolver,
		timeout:     cfg.BindTimeout,
		log:         cfg.Logger,
		completions: make(chan Completion, 16),
		done:        make(chan struct{}),
	}
}

// Completions delivers bind outcomes, including timeouts.
func (r *Resource) Completions() <-chan Completion {
	return r.completions
}

// Active returns the live binding handle, or zero.
func (r *Resource) Active() Handle {
	return r.active
}

// Prepared reports whether the live binding has a ready session.
func (r *Resource) Prepared() bool {
	return r.session != nil
}

// Playing reports whether the live session is currently playing.
func (r *Resource) Playing() bool {
	return r.session != nil && r.session.Playing()
}

// Bind tears down any existing binding and starts preparing src for surface.
// It returns immediately; exactly one Completion for the returned handle is
// posted later. After Close it returns zero.
func (r *Resource) Bind(src string, surface any) Handle {
	if r.closed {
		return 0
	}
	r.release()

	r.next++
	h := r.next
	r.active = h
	r.completed = false
	r.cached = 0

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	if r.timeout > 0 {
		r.wg.Add(1)
		r.timer = time.AfterFunc(r.timeout, func() {
			defer r.wg.Done()
			r.post(Completion{Handle: h, Err: ErrBindTimeout, Latency: r.timeout})
		})
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		start := time.Now()
		c := Completion{Handle: h}
		url, err := r.resolver.Resolve(ctx, src)
		if err == nil {
			c.session, err = r.backend.Open(ctx, url, surface)
		}
		if err != nil {
			c.Err = &BindError{Source: src, Err: err}
		}
		c.Latency = time.Since(start)
		r.post(c)
	}()

	r.log.Debug().Uint64("handle", uint64(h)).Str("source", src).Msg("bind: requested")
	return h
}

// Complete applies a completion on the loop. A completion for anything but
// the live, not yet completed binding returns ErrStaleHandle and releases any
// session it carries. A failed completion clears the binding and returns the
// failure.
func (r *Resource) Complete(c Completion) error {
	if c.Handle != r.active || r.completed || !c.Handle.Valid() {
		if c.session != nil {
			_ = c.session.Close()
		}
		r.log.Debug().Uint64("handle", uint64(c.Handle)).Uint64("active", uint64(r.active)).Msg("bind: discarding stale completion")
		return ErrStaleHandle
	}
	r.completed = true
	r.stopTimer()
	if c.Err != nil {
		if c.session != nil {
			_ = c.session.Close()
		}
		r.release()
		return c.Err
	}
	r.session = c.session
	return nil
}

// SeekAndMaybeStart positions the live session and starts it when play is
// set. A handle that is no longer live is a no-op returning ErrStaleHandle.
func (r *Resource) SeekAndMaybeStart(h Handle, pos time.Duration, play bool) error {
	if h != r.active || r.session == nil {
		r.log.Debug().Uint64("handle", uint64(h)).Msg("seek: ignoring stale handle")
		return ErrStaleHandle
	}
	if err := r.session.Seek(pos); err != nil {
		return err
	}
	r.cached = pos
	if play {
		return r.session.Start()
	}
	return nil
}

// PauseCapturingPosition pauses a playing session and returns its offset.
// When nothing plays, or the session misbehaves, the last known offset is
// returned unchanged.
func (r *Resource) PauseCapturingPosition() time.Duration {
	if r.session == nil || !r.session.Playing() {
		return r.cached
	}
	if pos, err := r.session.Position(); err == nil {
		r.cached = pos
	}
	if err := r.session.Pause(); err != nil {
		r.log.Debug().Err(err).Msg("pause: backend refused, keeping cached position")
	}
	return r.cached
}

// Position reads the live offset without pausing.
func (r *Resource) Position() time.Duration {
	if r.session == nil || !r.session.Playing() {
		return r.cached
	}
	if pos, err := r.session.Position(); err == nil {
		r.cached = pos
	}
	return r.cached
}

// Teardown releases the live binding. Safe when nothing is bound.
func (r *Resource) Teardown() {
	r.release()
}

// Close tears down and stops accepting binds. It waits for in-flight bind
// goroutines, which observe cancellation and exit.
func (r *Resource) Close() {
	r.closeOnce.Do(func() {
		r.release()
		r.closed = true
		close(r.done)
		r.wg.Wait()
		for {
			select {
			case c := <-r.completions:
				if c.session != nil {
					_ = c.session.Close()
				}
			default:
				return
			}
		}
	})
}

func (r *Resource) release() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.stopTimer()
	if r.session != nil {
		if err := r.session.Close(); err != nil {
			r.log.Debug().Err(err).Msg("teardown: session close failed")
		}
		r.session = nil
	}
	r.active = 0
	r.completed = false
}

func (r *Resource) stopTimer() {
	if r.timer != nil {
		if r.timer.Stop() {
			r.wg.Done()
		}
		r.timer = nil
	}
}

func (r *Resource) post(c Completion) {
	select {
	case r.completions <- c:
	case <-r.done:
		if c.session != nil {
			_ = c.session.Close()
		}
	}
}
