package sstv

import "math"

/*
 * Pulse detector
 * Ported from connorslade/sstv-log (src/sstv/pulse.rs)
 *
 * A duration-windowed majority vote of tonal presence. Used both for
 * the long leader tone (0.6s window) and the short per-line sync pulse
 * (4ms window) by varying duration independently of threshold.
 */

// PulseDetectorConfig is the immutable configuration of a pulse detector.
type PulseDetectorConfig struct {
	TargetFreq float64 // Hz
	HalfBand   float64 // Hz
	Threshold  float64 // 0-1
	Duration   float64 // seconds
}

var (
	headerPulseConfig  = PulseDetectorConfig{TargetFreq: 1900, HalfBand: 100, Threshold: 0.45, Duration: 0.6}
	visStopPulseConfig = PulseDetectorConfig{TargetFreq: 1200, HalfBand: 50, Threshold: 0.50, Duration: 0.03}
	syncPulseConfig    = PulseDetectorConfig{TargetFreq: 1200, HalfBand: 100, Threshold: 0.45, Duration: 0.004}
)

// PulseDetector is a bounded boolean ring recording whether recent
// frequency samples fell within the target band, firing once the
// fraction of matching samples in the window meets the threshold.
//
// Capacity is fixed at construction (>0 by construction, since
// Duration*sampleRate is truncated and then raised to at least one sample) and
// never grows — audio-path state must stay allocation-free.
type PulseDetector struct {
	config PulseDetectorConfig

	ring     []bool
	writePos int
	occupied int
	trueCount int
}

// NewPulseDetector returns a detector sized by duration * sampleRate.
func NewPulseDetector(config PulseDetectorConfig, sampleRate float64) *PulseDetector {
	capacity := int(config.Duration * sampleRate)
	if capacity < 1 {
		capacity = 1
	}
	return &PulseDetector{
		config: config,
		ring:   make([]bool, capacity),
	}
}

// Update appends whether freq lies within the target band (overwriting
// the oldest entry once the ring is full) and returns whether the
// detector currently fires.
func (p *PulseDetector) Update(freq float64) bool {
	match := math.Abs(freq-p.config.TargetFreq) < p.config.HalfBand

	if p.occupied < len(p.ring) {
		p.occupied++
	} else if p.ring[p.writePos] {
		p.trueCount--
	}

	p.ring[p.writePos] = match
	if match {
		p.trueCount++
	}
	p.writePos = (p.writePos + 1) % len(p.ring)

	fraction := float64(p.trueCount) / float64(p.occupied)
	return fraction >= p.config.Threshold
}
