// Package performance keeps rolling statistics about bind latency.
package performance

import (
	"time"
)

// RollingAverage keeps the mean of the last N durations. Not safe for
// concurrent use; the scheduler loop is its only writer.
type RollingAverage struct {
	samples []time.Duration
	sum     time.Duration
	next    int
	count   int
}

func NewRollingAverage(window int) *RollingAverage {
	if window < 1 {
		window = 1
	}
	return &RollingAverage{samples: make([]time.Duration, window)}
}

// Add records d, evicting the oldest sample once the window is full.
func (r *RollingAverage) Add(d time.Duration) {
	if r.count == len(r.samples) {
		r.sum -= r.samples[r.next]
	} else {
		r.count++
	}
	r.samples[r.next] = d
	r.sum += d
	r.next = (r.next + 1) % len(r.samples)
}

func (r *RollingAverage) Average() time.Duration {
	if r.count == 0 {
		return 0
	}
	return r.sum / time.Duration(r.count)
}

func (r *RollingAverage) Count() int { return r.count }

// BindMonitor tracks how quickly and how reliably binds prepare.
type BindMonitor struct {
	latency  *RollingAverage
	outcomes []bool
	next     int
	count    int
	failures int
}

// Report is a point-in-time summary of recent binds.
type Report struct {
	AvgLatency  time.Duration
	Samples     int
	FailureRate float64 // percent of recent binds that failed or timed out
}

// NewBindMonitor averages over the last window binds.
func NewBindMonitor(window int) *BindMonitor {
	if window < 1 {
		window = 1
	}
	return &BindMonitor{
		latency:  NewRollingAverage(window),
		outcomes: make([]bool, window),
	}
}

// RecordPrepared records a successful bind and its latency.
func (m *BindMonitor) RecordPrepared(latency time.Duration) {
	m.latency.Add(latency)
	m.push(true)
}

// RecordFailed records a bind that failed or timed out.
func (m *BindMonitor) RecordFailed() {
	m.push(false)
}

func (m *BindMonitor) push(ok bool) {
	if m.count == len(m.outcomes) {
		if !m.outcomes[m.next] {
			m.failures--
		}
	} else {
		m.count++
	}
	m.outcomes[m.next] = ok
	if !ok {
		m.failures++
	}
	m.next = (m.next + 1) % len(m.outcomes)
}

func (m *BindMonitor) Report() Report {
	r := Report{AvgLatency: m.latency.Average(), Samples: m.count}
	if m.count > 0 {
		r.FailureRate = float64(m.failures) / float64(m.count) * 100
	}
	return r
}

// Degrading reports whether binds are slow or failing often enough that the
// feed should be considered unhealthy.
func (m *BindMonitor) Degrading() bool {
	r := m.Report()
	return r.FailureRate > 25 || r.AvgLatency > 2*time.Second
}
