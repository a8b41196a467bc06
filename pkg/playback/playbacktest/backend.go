// Package playbacktest provides a scripted playback.Backend for tests. Each
// Open blocks until the test answers it, so completions can be delivered in
// any order the test chooses.
package playbacktest

import (
	"context"
	"sync"
	"testing"
	"time"

	"autoplay/pkg/playback"
)

// Backend is a scripted backend. With AutoSucceed set, Open returns a fresh
// session immediately instead of waiting for the test.
type Backend struct {
	AutoSucceed bool
	// IgnoreCancel makes Open wait for an answer even after ctx is cancelled,
	// like a backend that cannot abort a prepare in flight.
	IgnoreCancel bool

	opened chan *Open

	mu       sync.Mutex
	sessions []*Session
}

func NewBackend() *Backend {
	return &Backend{opened: make(chan *Open, 64)}
}

// Open is one pending open request.
type Open struct {
	URL     string
	Surface any

	backend *Backend
	reply   chan openReply
}

type openReply struct {
	session *Session
	err     error
}

func (b *Backend) Open(ctx context.Context, url string, surface any) (playback.Session, error) {
	if b.AutoSucceed {
		return b.newSession(url), nil
	}
	o := &Open{URL: url, Surface: surface, backend: b, reply: make(chan openReply, 1)}
	b.opened <- o
	if b.IgnoreCancel {
		r := <-o.reply
		if r.err != nil {
			return nil, r.err
		}
		return r.session, nil
	}
	select {
	case r := <-o.reply:
		if r.err != nil {
			return nil, r.err
		}
		return r.session, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Next waits for the next Open call.
func (b *Backend) Next(t testing.TB) *Open {
	t.Helper()
	select {
	case o := <-b.opened:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("playbacktest: no Open call within 2s")
		return nil
	}
}

// Pending reports how many Open calls are waiting to be picked up by Next.
func (b *Backend) Pending() int {
	return len(b.opened)
}

// Sessions returns every session handed out so far.
func (b *Backend) Sessions() []*Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Session(nil), b.sessions...)
}

// Succeed answers the open with a new session.
func (o *Open) Succeed() *Session {
	s := o.backend.newSession(o.URL)
	o.reply <- openReply{session: s}
	return s
}

// Fail answers the open with err.
func (o *Open) Fail(err error) {
	o.reply <- openReply{err: err}
}

func (b *Backend) newSession(url string) *Session {
	s := &Session{URL: url}
	b.mu.Lock()
	b.sessions = append(b.sessions, s)
	b.mu.Unlock()
	return s
}

// Session is a fake session whose position only moves through Advance.
type Session struct {
	URL string

	mu       sync.Mutex
	pos      time.Duration
	playing  bool
	closed   bool
	seeks    []time.Duration
	starts   int
	posErr   error
	pauseErr error
}

func (s *Session) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
	s.seeks = append(s.seeks, pos)
	return nil
}

func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = true
	s.starts++
	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pauseErr != nil {
		return s.pauseErr
	}
	s.playing = false
	return nil
}

func (s *Session) Position() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.posErr
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && !s.closed
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.playing = false
	return nil
}

// Advance moves the position forward while playing.
func (s *Session) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.pos += d
	}
}

// FailPosition makes Position and Pause return err.
func (s *Session) FailPosition(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posErr = err
	s.pauseErr = err
}

func (s *Session) Seeks() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.seeks...)
}

func (s *Session) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
