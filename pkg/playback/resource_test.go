package playback_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"autoplay/pkg/clockplayer"
	"autoplay/pkg/playback"
	"autoplay/pkg/playback/playbacktest"
	"autoplay/pkg/source"
)

var passthrough = source.ResolverFunc(func(_ context.Context, ref string) (string, error) {
	return ref, nil
})

func newResource(t *testing.T, timeout time.Duration) (*playback.Resource, *playbacktest.Backend) {
	t.Helper()
	b := playbacktest.NewBackend()
	r := playback.NewResource(b, passthrough, playback.Config{BindTimeout: timeout, Logger: zerolog.Nop()})
	t.Cleanup(r.Close)
	return r, b
}

func await(t *testing.T, r *playback.Resource) playback.Completion {
	t.Helper()
	select {
	case c := <-r.Completions():
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no completion within 2s")
		return playback.Completion{}
	}
}

func TestBindPrepareStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	r, b := newResource(t, 0)

	h := r.Bind("a.mp4", "surface-a")
	require.True(t, h.Valid())
	assert.Equal(t, h, r.Active())
	assert.False(t, r.Prepared())

	open := b.Next(t)
	assert.Equal(t, "a.mp4", open.URL)
	assert.Equal(t, "surface-a", open.Surface)
	sess := open.Succeed()

	c := await(t, r)
	require.NoError(t, r.Complete(c))
	require.True(t, r.Prepared())

	require.NoError(t, r.SeekAndMaybeStart(h, 1200*time.Millisecond, true))
	assert.True(t, r.Playing())
	assert.Equal(t, []time.Duration{1200 * time.Millisecond}, sess.Seeks())

	sess.Advance(300 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, r.PauseCapturingPosition())
	assert.False(t, r.Playing())

	// Not playing any more: the cached offset comes back unchanged.
	assert.Equal(t, 1500*time.Millisecond, r.PauseCapturingPosition())
	r.Close()
}

func TestSupersededBindIsStale(t *testing.T) {
	r, b := newResource(t, 0)

	first := r.Bind("a.mp4", "slot-1")
	openA := b.Next(t)
	second := r.Bind("b.mp4", "slot-2")
	openB := b.Next(t)
	require.NotEqual(t, first, second)
	assert.Equal(t, second, r.Active())

	// A was cancelled by the second bind; its open observes ctx and fails.
	_ = openA
	cA := await(t, r)
	assert.Equal(t, first, cA.Handle)
	assert.ErrorIs(t, r.Complete(cA), playback.ErrStaleHandle)
	assert.Equal(t, second, r.Active(), "stale completion must not disturb the live binding")

	sessB := openB.Succeed()
	require.NoError(t, r.Complete(await(t, r)))
	assert.ErrorIs(t, r.SeekAndMaybeStart(first, 0, true), playback.ErrStaleHandle)
	require.NoError(t, r.SeekAndMaybeStart(second, 0, true))
	assert.Equal(t, 1, sessB.Starts())
}

func TestStaleSessionIsClosed(t *testing.T) {
	r, b := newResource(t, 0)
	b.IgnoreCancel = true

	first := r.Bind("a.mp4", "slot-1")
	openA := b.Next(t)
	r.Teardown()
	assert.False(t, r.Active().Valid())

	// The backend ignores cancellation and still produces a session.
	sess := openA.Succeed()
	c := await(t, r)
	assert.Equal(t, first, c.Handle)
	assert.ErrorIs(t, r.Complete(c), playback.ErrStaleHandle)
	assert.True(t, sess.Closed())
}

func TestBindFailureLeavesCleanState(t *testing.T) {
	r, b := newResource(t, 0)
	boom := errors.New("decoder rejected stream")

	h := r.Bind("bad.mp4", "slot-1")
	b.Next(t).Fail(boom)
	c := await(t, r)
	assert.Equal(t, h, c.Handle)

	err := r.Complete(c)
	require.ErrorIs(t, err, boom)
	var bindErr *playback.BindError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "bad.mp4", bindErr.Source)
	assert.False(t, r.Active().Valid(), "failed bind must not stay half-bound")

	// The next bind proceeds normally.
	h2 := r.Bind("good.mp4", "slot-1")
	b.Next(t).Succeed()
	require.NoError(t, r.Complete(await(t, r)))
	assert.Equal(t, h2, r.Active())
}

func TestBindTimeout(t *testing.T) {
	r, b := newResource(t, 20*time.Millisecond)

	h := r.Bind("slow.mp4", "slot-1")
	open := b.Next(t)
	c := await(t, r)
	assert.Equal(t, h, c.Handle)
	assert.ErrorIs(t, r.Complete(c), playback.ErrBindTimeout)
	assert.False(t, r.Active().Valid())

	// The late real completion is stale.
	open.Succeed()
	// Teardown cancelled the open; either outcome must be stale.
	assert.ErrorIs(t, r.Complete(await(t, r)), playback.ErrStaleHandle)
}

func TestPauseSurvivesBackendErrors(t *testing.T) {
	r, b := newResource(t, 0)

	h := r.Bind("a.mp4", "slot-1")
	sess := b.Next(t).Succeed()
	require.NoError(t, r.Complete(await(t, r)))
	require.NoError(t, r.SeekAndMaybeStart(h, 700*time.Millisecond, true))

	sess.FailPosition(errors.New("surface released"))
	assert.Equal(t, 700*time.Millisecond, r.PauseCapturingPosition())

	r.Teardown()
	r.Teardown()
	assert.Equal(t, 700*time.Millisecond, r.PauseCapturingPosition())
}

func TestBindAfterClose(t *testing.T) {
	r, _ := newResource(t, 0)
	r.Close()
	assert.False(t, r.Bind("a.mp4", "slot-1").Valid())
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestPositionFollowsLoopWrap(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "loop.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("clip"), 0o644))
	clock := &manualClock{now: time.Unix(5000, 0)}
	backend := clockplayer.New(clockplayer.Config{Loop: 10 * time.Second, Now: clock.Now})
	r := playback.NewResource(backend, passthrough, playback.Config{Logger: zerolog.Nop()})
	t.Cleanup(r.Close)

	h := r.Bind(clip, "slot-1")
	require.NoError(t, r.Complete(await(t, r)))
	require.NoError(t, r.SeekAndMaybeStart(h, 9*time.Second, true))

	clock.Advance(2 * time.Second)
	assert.Equal(t, time.Second, r.Position(), "the clip wrapped past its end")
	assert.Equal(t, time.Second, r.PauseCapturingPosition())

	// Paused: the wrapped offset is what comes back.
	clock.Advance(3 * time.Second)
	assert.Equal(t, time.Second, r.PauseCapturingPosition())
}
