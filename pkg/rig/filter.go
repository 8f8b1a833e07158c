package rig

import "math"

// MovingAverage is the boxcar FIR filter applied to force vectors before
// display. Depth 1 passes values through unchanged.
type MovingAverage struct {
	window [][ChannelCount]float64
	sum    [ChannelCount]float64
	index  int
}

// NewMovingAverage creates a filter of the given depth with every tap
// preloaded with initial, so the first outputs decay from initial rather
// than from zero.
func NewMovingAverage(depth int, initial [ChannelCount]float64) *MovingAverage {
	if depth < 1 {
		depth = 1
	}
	m := &MovingAverage{window: make([][ChannelCount]float64, depth)}
	for i := range m.window {
		m.window[i] = initial
	}
	for ch := 0; ch < ChannelCount; ch++ {
		m.sum[ch] = initial[ch] * float64(depth)
	}
	return m
}

// Add pushes one force vector and returns the current average.
func (m *MovingAverage) Add(v [ChannelCount]float64) [ChannelCount]float64 {
	var out [ChannelCount]float64
	for ch := 0; ch < ChannelCount; ch++ {
		m.sum[ch] += v[ch] - m.window[m.index][ch]
		out[ch] = m.sum[ch] / float64(len(m.window))
	}
	m.window[m.index] = v
	m.index = (m.index + 1) % len(m.window)
	return out
}

// PeakTracker remembers the force with the greatest magnitude seen since
// the last reset. Sign is preserved: a -120 N pull beats a +80 N push.
type PeakTracker struct {
	peak float64
}

// Observe feeds one total force and returns the running peak.
func (t *PeakTracker) Observe(f float64) float64 {
	if math.Abs(f) > math.Abs(t.peak) {
		t.peak = f
	}
	return t.peak
}

// Peak returns the current peak without updating it.
func (t *PeakTracker) Peak() float64 {
	return t.peak
}

// Reset forgets the recorded peak.
func (t *PeakTracker) Reset() {
	t.peak = 0
}
