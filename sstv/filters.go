package sstv

import "math"

/*
 * Smoothing chain
 * Ported from connorslade/sstv-log (src/dsp/filters.rs)
 */

// LowPassFilter is a single-pole IIR low-pass filter, causal and
// allocation-free per sample.
type LowPassFilter struct {
	prevOutput float64
	alpha      float64
}

// NewLowPassFilter returns a filter with the given cutoff frequency (Hz)
// for a signal sampled at sampleRate (Hz).
func NewLowPassFilter(cutoff, sampleRate float64) *LowPassFilter {
	rc := 1.0 / (2 * math.Pi * cutoff)
	dt := 1.0 / sampleRate
	return &LowPassFilter{
		alpha: dt / (rc + dt),
	}
}

// Update feeds one sample through the filter and returns the new output.
func (f *LowPassFilter) Update(value float64) float64 {
	f.prevOutput += f.alpha * (value - f.prevOutput)
	return f.prevOutput
}

// MovingAverageFilter is a fixed-capacity ring buffer, zero-filled at
// construction, with a maintained running sum — giving O(1) update
// regardless of window length.
type MovingAverageFilter struct {
	buffer []float64
	index  int
	size   int
	sum    float64
}

// NewMovingAverageFilter returns a moving-average filter of the given
// tap count.
func NewMovingAverageFilter(size int) *MovingAverageFilter {
	return &MovingAverageFilter{
		buffer: make([]float64, size),
		size:   size,
	}
}

// Update pushes value into the ring, overwriting the oldest entry, and
// returns sum / size — the taps not yet overwritten still count as the
// zero they were initialized to, so the average ramps up from zero
// rather than being undefined before the ring fills.
func (f *MovingAverageFilter) Update(value float64) float64 {
	f.sum += value - f.buffer[f.index]
	f.buffer[f.index] = value
	f.index = (f.index + 1) % f.size

	return f.sum / float64(f.size)
}
