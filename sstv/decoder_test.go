package sstv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// memSink collects every published event for inspection, standing in
// for a real Sink in tests.
type memSink struct {
	events []DecodeEvent
}

func (s *memSink) Publish(e DecodeEvent) {
	s.events = append(s.events, e)
}

// testSampleRate is lower than a typical 44100 Hz capture but still
// satisfies Config.Validate (> 2*MAX_FREQ); it keeps these scenario
// tests' sample counts tractable while preserving every duration (and
// therefore every detector/decoder threshold) exactly, since all
// configured durations are specified in seconds and scale with it.
const testSampleRate = 8000.0

func feedTone(d *Decoder, freq float64, n int) {
	for i := 0; i < n; i++ {
		d.Feed(freq)
	}
}

func feedHeaderAndVIS44(d *Decoder) {
	// Leader tone long enough to saturate the 0.6s header window.
	feedTone(d, 1900, int(1.0*testSampleRate))

	// VIS start bit.
	feedTone(d, 1200, int(0.03*testSampleRate))

	// Seven 30ms bit tones encoding VIS 44 LSB-first: 0,0,1,1,0,1,0.
	bitLen := int(0.03 * testSampleRate)
	for _, bit := range []bool{false, false, true, true, false, true, false} {
		freq := visZeroFreq
		if bit {
			freq = visOneFreq
		}
		feedTone(d, freq, bitLen)
	}

	// VIS stop bit, long enough to re-fire the stop detector.
	feedTone(d, 1200, 2*bitLen)
}

func feedMartin1Rows(d *Decoder, rows int, pixelFreq float64) {
	rowLen := int(0.48 * testSampleRate)
	syncLen := 50 // > sync detector's 32-sample window at testSampleRate

	for i := 0; i < rows; i++ {
		feedTone(d, pixelFreq, rowLen)
		feedTone(d, 1200, syncLen)
	}
}

func Test_Decoder_silentInputProducesNoEvents(t *testing.T) {
	sink := &memSink{}
	d := NewDecoder(testSampleRate, sink, nil)

	feedTone(d, 0, int(10*testSampleRate))

	assert.Empty(t, sink.events)
}

func Test_Decoder_leaderOnlyProducesNoEvents(t *testing.T) {
	sink := &memSink{}
	d := NewDecoder(testSampleRate, sink, nil)

	feedTone(d, 1900, int(1*testSampleRate))
	feedTone(d, 0, int(1*testSampleRate))

	assert.Empty(t, sink.events)
}

func Test_Decoder_fullMartin1HeaderAndRows(t *testing.T) {
	sink := &memSink{}
	d := NewDecoder(testSampleRate, sink, nil)

	feedHeaderAndVIS44(d)
	feedMartin1Rows(d, 256, 1900)

	assert.NotEmpty(t, sink.events)
	assert.Equal(t, EventStart, sink.events[0].Kind)
	assert.Equal(t, ModeMartin1, sink.events[0].Mode)

	var progress []float32
	for _, ev := range sink.events[1 : len(sink.events)-1] {
		assert.Equal(t, EventProgress, ev.Kind)
		progress = append(progress, ev.Fraction)
	}
	assert.GreaterOrEqual(t, len(progress), 200)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}

	last := sink.events[len(sink.events)-1]
	assert.Equal(t, EventEnd, last.Kind)
	assert.Equal(t, ModeMartin1, last.Mode)
	assert.Equal(t, 320, last.Image.Width)
	assert.Equal(t, 256, last.Image.Height)
}

func Test_Decoder_abortMidDecodeEmitsEndWithPartialImage(t *testing.T) {
	sink := &memSink{}
	d := NewDecoder(testSampleRate, sink, nil)

	feedHeaderAndVIS44(d)
	feedMartin1Rows(d, 80, 1900)
	feedTone(d, 0, int((abortTimeout+1)*testSampleRate))

	last := sink.events[len(sink.events)-1]
	assert.Equal(t, EventEnd, last.Kind)

	img := last.Image
	assert.Equal(t, 320, img.Width)
	assert.Equal(t, 256, img.Height)

	// Rows 80..255 were never written, so their bytes are the Image's
	// zero-initialized default.
	for y := 80; y < 256; y++ {
		for x := 0; x < 320; x++ {
			i := (y*320 + x) * 3
			assert.Equal(t, uint8(0), img.Pix[i])
			assert.Equal(t, uint8(0), img.Pix[i+1])
			assert.Equal(t, uint8(0), img.Pix[i+2])
		}
	}
}

func Test_Decoder_unrecognizedVISCodeStillDecodesAsUnknown(t *testing.T) {
	sink := &memSink{}
	d := NewDecoder(testSampleRate, sink, nil)

	feedTone(d, 1900, int(1.0*testSampleRate))
	feedTone(d, 1200, int(0.03*testSampleRate))

	// All-ones 7-bit pattern: VIS 127, unassigned in the mode table
	// (bit assembly can only ever produce a 7-bit code, so this is the
	// highest unrecognized code reachable).
	bitLen := int(0.03 * testSampleRate)
	for i := 0; i < 7; i++ {
		feedTone(d, visOneFreq, bitLen)
	}
	feedTone(d, 1200, 2*bitLen)

	assert.NotEmpty(t, sink.events)
	start := sink.events[0]
	assert.Equal(t, EventStart, start.Kind)
	assert.True(t, start.Mode.IsUnknown())
	assert.Equal(t, uint8(127), start.Mode.vis)
}

func Test_Decoder_noisyPixelSpikesKeepEventOrderingAndNearlyMatchClean(t *testing.T) {
	clean := &memSink{}
	dClean := NewDecoder(testSampleRate, clean, nil)
	feedHeaderAndVIS44(dClean)
	feedMartin1Rows(dClean, 256, 1900)

	noisy := &memSink{}
	dNoisy := NewDecoder(testSampleRate, noisy, nil)
	feedHeaderAndVIS44(dNoisy)

	rowLen := int(0.48 * testSampleRate)
	for i := 0; i < 256; i++ {
		for s := 0; s < rowLen; s++ {
			freq := 1900.0
			if s%100 == 0 { // ~1% of samples
				freq = 2500
			}
			dNoisy.Feed(freq)
		}
		feedTone(dNoisy, 1200, 50)
	}

	lastClean := clean.events[len(clean.events)-1]
	lastNoisy := noisy.events[len(noisy.events)-1]
	assert.Equal(t, EventEnd, lastClean.Kind)
	assert.Equal(t, EventEnd, lastNoisy.Kind)

	diff := 0
	for i := range lastClean.Image.Pix {
		if lastClean.Image.Pix[i] != lastNoisy.Image.Pix[i] {
			diff++
		}
	}
	assert.LessOrEqual(t, diff, len(lastClean.Image.Pix)/100)

	for _, ev := range noisy.events[1 : len(noisy.events)-1] {
		assert.Equal(t, EventProgress, ev.Kind)
	}
}
