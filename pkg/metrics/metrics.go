// Package metrics exposes prometheus instruments for the playback scheduler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bindsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoplay_binds_total",
		Help: "Total number of bind requests issued to the playback resource",
	})

	bindOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoplay_bind_outcomes_total",
		Help: "Bind completions applied by the scheduler by outcome",
	}, []string{"outcome"}) // outcome=prepared|failed|timeout|stale

	pausesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoplay_pauses_total",
		Help: "Playback pauses by cause",
	}, []string{"cause"}) // cause=scroll|user|detach|fullscreen|preempt|shutdown

	bindLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoplay_bind_latency_seconds",
		Help:    "Time from bind request to prepared completion",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 8},
	})

	trackedItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autoplay_tracked_items",
		Help: "Number of tracked feed items",
	})

	playing = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autoplay_playing",
		Help: "Whether an item currently plays (1) or not (0)",
	})

	resumeWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoplay_resume_writes_total",
		Help: "Resume position writes by result",
	}, []string{"result"}) // result=success|failure
)

func IncBind() {
	bindsTotal.Inc()
}

// IncBindOutcome counts one applied completion.
func IncBindOutcome(outcome string) {
	bindOutcomes.WithLabelValues(outcome).Inc()
}

func IncPause(cause string) {
	pausesTotal.WithLabelValues(cause).Inc()
}

func ObserveBindLatency(d time.Duration) {
	bindLatency.Observe(d.Seconds())
}

// SetTracked records the registry size and whether anything plays.
func SetTracked(n int, isPlaying bool) {
	trackedItems.Set(float64(n))
	if isPlaying {
		playing.Set(1)
	} else {
		playing.Set(0)
	}
}

func IncResumeWrite(ok bool) {
	if ok {
		resumeWrites.WithLabelValues("success").Inc()
		return
	}
	resumeWrites.WithLabelValues("failure").Inc()
}
