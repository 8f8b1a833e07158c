package sim

import (
	"math"
	"sync"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
)

// SampleSource produces raw ADC counts for each sampling tick.
type SampleSource interface {
	Sample(seq uint64) [rig.ChannelCount]int32
}

// SampleFunc is the func form of SampleSource.
type SampleFunc func(seq uint64) [rig.ChannelCount]int32

// Sample implements SampleSource.
func (f SampleFunc) Sample(seq uint64) [rig.ChannelCount]int32 {
	return f(seq)
}

// ConstantSource replays the same counts forever.
type ConstantSource [rig.ChannelCount]int32

// Sample implements SampleSource.
func (s ConstantSource) Sample(uint64) [rig.ChannelCount]int32 {
	return [rig.ChannelCount]int32(s)
}

// SineSource produces a slow sine per channel, phase shifted a quarter
// period between neighbors, for demo runs.
type SineSource struct {
	Amplitude int32
	Period    uint64

	lock sync.Mutex
	bias [rig.ChannelCount]int32
}

// SetBias adds a constant load to every subsequent sample of ch.
func (s *SineSource) SetBias(ch int, counts int32) {
	s.lock.Lock()
	s.bias[ch] = counts
	s.lock.Unlock()
}

// Sample implements SampleSource.
func (s *SineSource) Sample(seq uint64) (out [rig.ChannelCount]int32) {
	period := s.Period
	if period == 0 {
		period = 100
	}
	s.lock.Lock()
	bias := s.bias
	s.lock.Unlock()
	for ch := range out {
		phase := 2 * math.Pi * (float64(seq)/float64(period) + float64(ch)/4)
		out[ch] = bias[ch] + int32(float64(s.Amplitude)*math.Sin(phase))
	}
	return
}
