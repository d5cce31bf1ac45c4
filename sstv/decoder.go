package sstv

import "github.com/google/uuid"

/*
 * Decoder state machine
 * Ported from connorslade/sstv-log (src/sstv/decode.rs)
 *
 * Single-threaded, one Feed(freq) call per demodulated sample. A
 * monotonic sample counter advances unconditionally. State is a closed
 * sum of three shapes (idle/vis/decoding) rather than an inheritance
 * hierarchy or nullable fields.
 */

const (
	valueRangeLow  = 1500.0 // Hz, black
	valueRangeHigh = 2300.0 // Hz, white

	visZeroFreq = 1300.0
	visOneFreq  = 1100.0
	visBandHalf = 50.0

	abortTimeout     = 3.0  // seconds without sync
	minRowDuration   = 0.1  // seconds; rows shorter than this are ignored
)

type decoderStateKind int

const (
	stateIdle decoderStateKind = iota
	stateVis
	stateDecoding
)

type idleState struct {
	header *PulseDetector
}

type visState struct {
	stop *PulseDetector
	bits []bool
}

type decodingState struct {
	sync           *PulseDetector
	lastSyncSample uint64
	mode           Mode
	modeConfig     ModeConfig
	img            *ImageBuilder
	row            []float32
}

// Decoder is the SSTV decoder state machine. It owns its smoothing
// filters and, while decoding, the ImageBuilder it is assembling.
type Decoder struct {
	sampleRate float64
	sample     uint64

	lowPass *LowPassFilter
	avg     *MovingAverageFilter

	kind     decoderStateKind
	idle     idleState
	vis      visState
	decoding decodingState

	sink    Sink
	metrics *Metrics
	cycleID uuid.UUID
}

// NewDecoder returns an idle decoder for the given sample rate, emitting
// events to sink. metrics may be nil to disable metric recording.
func NewDecoder(sampleRate float64, sink Sink, metrics *Metrics) *Decoder {
	d := &Decoder{
		sampleRate: sampleRate,
		lowPass:    NewLowPassFilter(valueRangeHigh, sampleRate),
		avg:        NewMovingAverageFilter(32),
		sink:       sink,
		metrics:    metrics,
	}
	d.resetToIdle()
	return d
}

func (d *Decoder) resetToIdle() {
	d.kind = stateIdle
	d.idle = idleState{header: NewPulseDetector(headerPulseConfig, d.sampleRate)}
}

// Feed advances the decoder by one raw (pre-smoothing) frequency sample.
func (d *Decoder) Feed(freq float64) {
	smoothed := d.avg.Update(d.lowPass.Update(freq))
	d.sample++

	switch d.kind {
	case stateIdle:
		d.feedIdle(smoothed)
	case stateVis:
		d.feedVis(smoothed)
	case stateDecoding:
		d.feedDecoding(smoothed)
	}
}

func (d *Decoder) feedIdle(freq float64) {
	if !d.idle.header.Update(freq) {
		return
	}

	d.kind = stateVis
	d.vis = visState{stop: NewPulseDetector(visStopPulseConfig, d.sampleRate)}
}

func (d *Decoder) feedVis(freq float64) {
	if dist := minDist(freq, visZeroFreq, visOneFreq); dist < visBandHalf {
		d.vis.bits = append(d.vis.bits, absDiff(freq, visOneFreq) < absDiff(freq, visZeroFreq))
	}

	stopFired := d.vis.stop.Update(freq)
	minBits := int(d.sampleRate * 0.105)
	if !stopFired || len(d.vis.bits) <= minBits {
		return
	}

	visSamples := int(d.sampleRate * 0.21)
	if visSamples > len(d.vis.bits) {
		visSamples = len(d.vis.bits)
	}
	bits := d.vis.bits[:visSamples]

	chunkSize := visSamples / 7
	var v uint8
	for i := 0; i < 7; i++ {
		start := i * chunkSize
		end := start + chunkSize
		bit := majority(bits[start:end])
		v = (v >> 1)
		if bit {
			v |= 1 << 6
		}
	}

	mode := ModeFromVIS(v)
	d.beginDecoding(mode)
}

func (d *Decoder) beginDecoding(mode Mode) {
	cfg := mode.Config()
	d.cycleID = uuid.New()

	d.kind = stateDecoding
	d.decoding = decodingState{
		sync:           NewPulseDetector(syncPulseConfig, d.sampleRate),
		lastSyncSample: d.sample,
		mode:           mode,
		modeConfig:     cfg,
		img:            NewImageBuilder(d.sampleRate, cfg.Width, cfg.Height, cfg.RowDuration),
	}

	d.publish(DecodeEvent{Kind: EventStart, CycleID: d.cycleID, Mode: mode})
	if d.metrics != nil {
		d.metrics.CycleStarted(mode.Name())
	}
}

func (d *Decoder) feedDecoding(freq float64) {
	st := &d.decoding

	if elapsed := float64(d.sample-st.lastSyncSample) / d.sampleRate; elapsed > abortTimeout {
		d.finishCycle(true)
		return
	}

	if !st.sync.Update(freq) {
		value := (freq - valueRangeLow) / (valueRangeHigh - valueRangeLow)
		if value < -1 || value > 1 {
			if len(st.row) > 0 {
				st.row = append(st.row, st.row[len(st.row)-1])
			} else {
				st.row = append(st.row, 0)
			}
		} else {
			st.row = append(st.row, float32(clamp01(value)))
		}
		return
	}

	st.lastSyncSample = d.sample
	if float64(len(st.row)) <= minRowDuration*d.sampleRate {
		return
	}

	d.publish(DecodeEvent{Kind: EventProgress, CycleID: d.cycleID, Fraction: st.img.Progress()})
	st.img.PushRow(st.row)
	st.row = st.row[:0]

	if st.img.Finished() {
		d.finishCycle(false)
	}
}

// finishCycle moves the accumulated image out, emits End, and resets to
// Idle. aborted is recorded in metrics only; the emitted event is
// identical in shape either way — an abort is not an error.
func (d *Decoder) finishCycle(aborted bool) {
	st := &d.decoding
	img := st.img.Finish()

	d.publish(DecodeEvent{Kind: EventEnd, CycleID: d.cycleID, Mode: st.mode, Image: img})
	if d.metrics != nil {
		d.metrics.CycleEnded(st.mode.Name(), aborted)
	}
	d.resetToIdle()
}

func (d *Decoder) publish(e DecodeEvent) {
	if d.sink != nil {
		d.sink.Publish(e)
	}
}

func minDist(x, a, b float64) float64 {
	da, db := absDiff(x, a), absDiff(x, b)
	if da < db {
		return da
	}
	return db
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func majority(bits []bool) bool {
	trueCount := 0
	for _, b := range bits {
		if b {
			trueCount++
		}
	}
	return trueCount*2 >= len(bits)
}
