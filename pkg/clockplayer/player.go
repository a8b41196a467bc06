// Package clockplayer is a playback backend that does not decode anything:
// its sessions keep time against the wall clock, which is enough to drive
// and observe scheduling.
package clockplayer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"autoplay/pkg/playback"
)

var ErrClosed = errors.New("clockplayer: session closed")

type Config struct {
	// PrepareDelay simulates how long a decoder takes to become ready.
	PrepareDelay time.Duration
	// Loop wraps the position after this length. Zero plays forever.
	Loop time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type Backend struct {
	cfg Config
}

func New(cfg Config) *Backend {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Backend{cfg: cfg}
}

// Open checks that url names a readable local file, waits the prepare delay
// and returns a paused session at offset zero.
func (b *Backend) Open(ctx context.Context, url string, surface any) (playback.Session, error) {
	st, err := os.Stat(url)
	if err != nil {
		return nil, fmt.Errorf("clockplayer: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("clockplayer: %s is a directory", url)
	}
	if b.cfg.PrepareDelay > 0 {
		t := time.NewTimer(b.cfg.PrepareDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &Session{url: url, surface: surface, rate: 1, loop: b.cfg.Loop, now: b.cfg.Now}, nil
}

// Session is one opened source.
type Session struct {
	url     string
	surface any
	loop    time.Duration
	now     func() time.Time

	m       sync.Mutex
	base    time.Duration // offset at refTime
	refTime time.Time
	rate    float64
	playing bool
	closed  bool
}

func (s *Session) Seek(pos time.Duration) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return ErrClosed
	}
	if pos < 0 {
		pos = 0
	}
	s.base = s.wrap(pos)
	s.refTime = s.now()
	return nil
}

// Start marks the reference time so that playback resumes.
func (s *Session) Start() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.playing {
		s.refTime = s.now()
		s.playing = true
	}
	return nil
}

func (s *Session) Pause() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.base = s.positionLocked()
	s.playing = false
	return nil
}

func (s *Session) Position() (time.Duration, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.positionLocked(), nil
}

func (s *Session) Playing() bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.playing && !s.closed
}

// SetPlaybackRate scales how fast the position advances.
func (s *Session) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		return
	}
	s.m.Lock()
	defer s.m.Unlock()
	s.base = s.positionLocked()
	s.refTime = s.now()
	s.rate = rate
}

func (s *Session) Close() error {
	s.m.Lock()
	defer s.m.Unlock()
	s.closed = true
	s.playing = false
	return nil
}

func (s *Session) positionLocked() time.Duration {
	if !s.playing {
		return s.base
	}
	elapsed := time.Duration(float64(s.now().Sub(s.refTime)) * s.rate)
	return s.wrap(s.base + elapsed)
}

func (s *Session) wrap(pos time.Duration) time.Duration {
	if s.loop > 0 {
		return pos % s.loop
	}
	return pos
}
