package clockplayer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func videoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	return path
}

func TestSessionKeepsTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := New(Config{Now: clock.Now})
	sess, err := b.Open(context.Background(), videoFile(t), nil)
	require.NoError(t, err)

	require.NoError(t, sess.Seek(1200*time.Millisecond))
	require.NoError(t, sess.Start())
	assert.True(t, sess.Playing())
	clock.Advance(500 * time.Millisecond)

	pos, err := sess.Position()
	require.NoError(t, err)
	assert.Equal(t, 1700*time.Millisecond, pos)

	require.NoError(t, sess.Pause())
	clock.Advance(time.Second)
	pos, _ = sess.Position()
	assert.Equal(t, 1700*time.Millisecond, pos)
	assert.False(t, sess.Playing())
}

func TestSeekClampsAndLoops(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := New(Config{Now: clock.Now, Loop: 10 * time.Second})
	sess, err := b.Open(context.Background(), videoFile(t), nil)
	require.NoError(t, err)

	require.NoError(t, sess.Seek(-time.Second))
	pos, _ := sess.Position()
	assert.Zero(t, pos)

	require.NoError(t, sess.Seek(9*time.Second))
	require.NoError(t, sess.Start())
	clock.Advance(2 * time.Second)
	pos, _ = sess.Position()
	assert.Equal(t, time.Second, pos)
}

func TestPlaybackRate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	sess, err := New(Config{Now: clock.Now}).Open(context.Background(), videoFile(t), nil)
	require.NoError(t, err)
	cs := sess.(*Session)

	require.NoError(t, cs.Start())
	clock.Advance(time.Second)
	cs.SetPlaybackRate(2)
	clock.Advance(time.Second)
	pos, _ := cs.Position()
	assert.Equal(t, 3*time.Second, pos)
}

func TestOpenRejectsMissingAndDirectories(t *testing.T) {
	b := New(Config{})
	_, err := b.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = b.Open(context.Background(), t.TempDir(), nil)
	assert.Error(t, err)
}

func TestOpenHonoursCancellation(t *testing.T) {
	b := New(Config{PrepareDelay: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := b.Open(ctx, videoFile(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClosedSessionRefusesCommands(t *testing.T) {
	sess, err := New(Config{}).Open(context.Background(), videoFile(t), nil)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	assert.ErrorIs(t, sess.Start(), ErrClosed)
	assert.ErrorIs(t, sess.Seek(0), ErrClosed)
	_, err = sess.Position()
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, sess.Playing())
}
