// Package debughttp exposes scheduler state and prometheus metrics over HTTP
// for inspecting a running feed.
package debughttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"autoplay/pkg/scheduler"
)

// SnapshotFunc returns the latest published scheduler state.
type SnapshotFunc func() *scheduler.Snapshot

type itemJSON struct {
	ID         string  `json:"id"`
	Slot       string  `json:"slot,omitempty"`
	State      string  `json:"state"`
	Intent     string  `json:"intent"`
	PositionMs int64   `json:"position_ms"`
	Ratio      float64 `json:"ratio"`
	Prepared   bool    `json:"prepared"`
	UserPaused bool    `json:"user_paused"`
	Fullscreen bool    `json:"fullscreen"`
	Failed     bool    `json:"failed"`
	Error      string  `json:"error,omitempty"`
}

type statsJSON struct {
	Binds         uint64  `json:"binds"`
	Prepared      uint64  `json:"prepared"`
	Stale         uint64  `json:"stale"`
	Failures      uint64  `json:"failures"`
	Timeouts      uint64  `json:"timeouts"`
	Pauses        uint64  `json:"pauses"`
	BindLatencyMs int64   `json:"bind_latency_ms"`
	FailureRate   float64 `json:"failure_rate"`
	Degrading     bool    `json:"degrading"`
}

type feedJSON struct {
	Owner            string     `json:"owner,omitempty"`
	Fullscreen       string     `json:"fullscreen,omitempty"`
	Threshold        float64    `json:"threshold"`
	Autoplay         string     `json:"autoplay"`
	FullscreenPolicy string     `json:"fullscreen_policy"`
	Stats            statsJSON  `json:"stats"`
	Items            []itemJSON `json:"items"`
}

// NewRouter serves /metrics, /debug/feed and /healthz.
func NewRouter(snapshot SnapshotFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/debug/feed", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(encode(snapshot()))
	})
	return r
}

func encode(s *scheduler.Snapshot) feedJSON {
	out := feedJSON{
		Owner:            string(s.Owner),
		Fullscreen:       string(s.Fullscreen),
		Threshold:        s.Policy.VisibleThreshold,
		Autoplay:         s.Policy.Autoplay.String(),
		FullscreenPolicy: s.Policy.Fullscreen.String(),
		Stats: statsJSON{
			Binds:         s.Stats.Binds,
			Prepared:      s.Stats.Prepared,
			Stale:         s.Stats.Stale,
			Failures:      s.Stats.Failures,
			Timeouts:      s.Stats.Timeouts,
			Pauses:        s.Stats.Pauses,
			BindLatencyMs: s.Stats.BindLatency.Milliseconds(),
			FailureRate:   s.Stats.FailureRate,
			Degrading:     s.Stats.Degrading,
		},
		Items: make([]itemJSON, 0, len(s.Items)),
	}
	for _, v := range s.Items {
		out.Items = append(out.Items, itemJSON{
			ID:         string(v.ID),
			Slot:       string(v.Slot),
			State:      v.State.String(),
			Intent:     v.Intent.String(),
			PositionMs: v.Position.Milliseconds(),
			Ratio:      v.Ratio,
			Prepared:   v.Prepared,
			UserPaused: v.UserPaused,
			Fullscreen: v.Fullscreen,
			Failed:     v.Failed,
			Error:      v.Err,
		})
	}
	return out
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("debughttp: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
