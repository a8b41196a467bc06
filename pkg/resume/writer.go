package resume

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"autoplay/pkg/metrics"
	"autoplay/pkg/sharedTypes"
)

// Writer buffers positions and flushes them to a Store off the scheduling
// goroutine. Only the latest position per item is kept.
type Writer struct {
	store Store
	log   zerolog.Logger

	mu      sync.Mutex
	pending map[sharedTypes.ItemID]time.Duration
	wake    chan struct{}
}

func NewWriter(store Store, log zerolog.Logger) *Writer {
	return &Writer{
		store:   store,
		log:     log,
		pending: make(map[sharedTypes.ItemID]time.Duration),
		wake:    make(chan struct{}, 1),
	}
}

// Record queues pos for id. It never blocks on the store.
func (w *Writer) Record(id sharedTypes.ItemID, pos time.Duration) {
	w.mu.Lock()
	w.pending[id] = pos
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run flushes queued positions until ctx is done, then flushes once more.
func (w *Writer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			// The parent context is gone; give the last flush its own deadline.
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			w.Flush(flushCtx)
			cancel()
			return nil
		case <-w.wake:
			w.Flush(ctx)
		}
	}
}

// Flush writes everything queued so far. Failed writes are requeued unless a
// newer position arrived meanwhile.
func (w *Writer) Flush(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[sharedTypes.ItemID]time.Duration, len(batch))
	w.mu.Unlock()

	for id, pos := range batch {
		err := w.store.Put(ctx, id, pos)
		metrics.IncResumeWrite(err == nil)
		if err == nil {
			continue
		}
		w.log.Warn().Err(err).Str("item", string(id)).Msg("resume: write failed")
		w.mu.Lock()
		if _, newer := w.pending[id]; !newer {
			w.pending[id] = pos
		}
		w.mu.Unlock()
	}
}
