package sstv

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

/*
 * Hilbert-transform demodulator
 * Ported from connorslade/sstv-log (src/dsp/mod.rs, src/dsp/extentions.rs)
 *
 * Converts a frame of real audio samples into an instantaneous-frequency
 * stream: Hann window -> forward FFT -> analytic-signal mask -> inverse
 * FFT -> consecutive-sample phase difference.
 */

// FrameSize is the FFT frame length (spec §6 FRAME_SIZE).
const FrameSize = 8192

// Framer accumulates samples into fixed-size frames, buffering any
// residual tail until a full frame is available.
type Framer struct {
	pending []float64
}

// NewFramer returns an empty framer.
func NewFramer() *Framer {
	return &Framer{pending: make([]float64, 0, FrameSize)}
}

// Push appends samples and returns every full frame that can now be
// formed, leaving any remainder buffered for the next call.
func (f *Framer) Push(samples []float32) [][]float64 {
	for _, s := range samples {
		f.pending = append(f.pending, float64(s))
	}

	var frames [][]float64
	for len(f.pending) >= FrameSize {
		frame := make([]float64, FrameSize)
		copy(frame, f.pending[:FrameSize])
		frames = append(frames, frame)
		f.pending = f.pending[FrameSize:]
	}
	return frames
}

// Demodulator turns real audio frames into an instantaneous-frequency
// sample stream. It owns the FFT plan and the last analytic sample of
// the previous frame so frequency is continuous across frame boundaries.
type Demodulator struct {
	sampleRate float64
	fft        *fourier.CmplxFFT
	last       complex128
}

// NewDemodulator returns a demodulator for a fixed sample rate. The FFT
// plan is built once and reused across frames.
func NewDemodulator(sampleRate float64) *Demodulator {
	return &Demodulator{
		sampleRate: sampleRate,
		fft:        fourier.NewCmplxFFT(FrameSize),
	}
}

// Demodulate computes the analytic signal of one frame of N=FrameSize
// real samples and returns N instantaneous-frequency samples in Hz.
func (d *Demodulator) Demodulate(frame []float64) []float64 {
	analytic := hilbertTransform(d.fft, frame)

	out := make([]float64, len(analytic))
	for i, z := range analytic {
		if d.last == 0 {
			out[i] = 0
		} else {
			out[i] = phaseDiff(z, d.last) * d.sampleRate / (2 * math.Pi)
		}
		d.last = z
	}
	return out
}

// hilbertTransform applies a Hann window, forward-transforms, zeroes
// negative frequencies and doubles positive ones (the analytic-signal
// mask), then inverse-transforms.
func hilbertTransform(fft *fourier.CmplxFFT, real []float64) []complex128 {
	n := len(real)
	windowed := make([]complex128, n)
	for i, x := range real {
		window := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
		windowed[i] = complex(x*window, 0)
	}

	spectrum := fft.Coefficients(nil, windowed)

	for i := range spectrum {
		switch {
		case i == 0 || (n%2 == 0 && i == n/2):
			// DC and Nyquist (if present) are kept unchanged.
		case i < n/2:
			spectrum[i] *= 2
		default:
			spectrum[i] = 0
		}
	}

	return fft.Sequence(nil, spectrum)
}

// phaseDiff returns arg(z / prev) in (-pi, pi].
func phaseDiff(z, prev complex128) float64 {
	ratio := z / prev
	return math.Atan2(imag(ratio), real(ratio))
}
