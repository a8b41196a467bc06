package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRollingAverageWindow(t *testing.T) {
	r := NewRollingAverage(3)
	assert.Zero(t, r.Average())

	r.Add(10 * time.Millisecond)
	r.Add(20 * time.Millisecond)
	assert.Equal(t, 15*time.Millisecond, r.Average())
	assert.Equal(t, 2, r.Count())

	r.Add(30 * time.Millisecond)
	r.Add(40 * time.Millisecond) // evicts 10ms
	assert.Equal(t, 30*time.Millisecond, r.Average())
	assert.Equal(t, 3, r.Count())
}

func TestBindMonitorFailureRate(t *testing.T) {
	m := NewBindMonitor(4)
	assert.False(t, m.Degrading())

	m.RecordPrepared(100 * time.Millisecond)
	m.RecordFailed()
	m.RecordPrepared(300 * time.Millisecond)
	m.RecordPrepared(200 * time.Millisecond)

	r := m.Report()
	assert.Equal(t, 200*time.Millisecond, r.AvgLatency)
	assert.Equal(t, 4, r.Samples)
	assert.InDelta(t, 25.0, r.FailureRate, 1e-9)
	assert.False(t, m.Degrading())

	m.RecordFailed() // evicts the first success
	assert.InDelta(t, 50.0, m.Report().FailureRate, 1e-9)
	assert.True(t, m.Degrading())

	for i := 0; i < 4; i++ {
		m.RecordPrepared(50 * time.Millisecond)
	}
	assert.Zero(t, m.Report().FailureRate)
}
