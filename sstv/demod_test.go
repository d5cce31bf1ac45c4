package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Framer_reassemblesExactFrames(t *testing.T) {
	f := NewFramer()

	samples := make([]float32, FrameSize+100)
	for i := range samples {
		samples[i] = float32(i)
	}

	frames := f.Push(samples)
	assert.Len(t, frames, 1)
	assert.Len(t, frames[0], FrameSize)
	assert.Equal(t, 0.0, frames[0][0])

	more := f.Push(make([]float32, FrameSize-100))
	assert.Len(t, more, 1)
}

func Test_Demodulator_steadyStateConvergesToConstantFrequency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sampleRate := rapid.Float64Range(8000, 48000).Draw(t, "sampleRate")
		freq := rapid.Float64Range(200, 3000).Draw(t, "freq")

		demod := NewDemodulator(sampleRate)

		var last []float64
		for frameIdx := 0; frameIdx < 3; frameIdx++ {
			frame := make([]float64, FrameSize)
			for i := range frame {
				phase := 2 * math.Pi * freq * float64(frameIdx*FrameSize+i) / sampleRate
				frame[i] = math.Sin(phase)
			}
			last = demod.Demodulate(frame)
		}

		lo := FrameSize * 2 / 5
		hi := FrameSize * 3 / 5
		var sum float64
		for _, v := range last[lo:hi] {
			sum += v
		}
		avg := sum / float64(hi-lo)

		assert.InDelta(t, freq, avg, 5.0)
	})
}
