package sstv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Extension_rejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 0

	_, err := NewExtension(cfg, nil, nil)
	assert.Error(t, err)
}

func Test_Extension_rejectsDoubleStart(t *testing.T) {
	cfg := DefaultConfig()
	ext, err := NewExtension(cfg, nil, nil)
	require.NoError(t, err)

	audioChan := make(chan []float32)
	require.NoError(t, ext.Start(audioChan))

	err = ext.Start(audioChan)
	assert.Error(t, err)

	require.NoError(t, ext.Stop())
}

func Test_Extension_feedsSilentFrameWithoutDecodeEvents(t *testing.T) {
	sink := &memSink{}
	ext, err := NewExtension(Config{SampleRate: testSampleRate, SinkCapacity: SinkCapacity}, sink, nil)
	require.NoError(t, err)

	audioChan := make(chan []float32, 1)
	require.NoError(t, ext.Start(audioChan))

	samples := make([]float32, FrameSize)
	select {
	case audioChan <- samples:
	case <-time.After(time.Second):
		t.Fatal("extension did not accept samples")
	}

	close(audioChan)
	require.NoError(t, ext.Stop())

	// A single silent frame produces no decode events, but must not
	// panic or deadlock the pipeline.
	assert.Empty(t, sink.events)
}
