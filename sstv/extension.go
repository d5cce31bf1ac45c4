package sstv

import (
	"fmt"
	"sync"
)

/*
 * Audio extension adapter
 * Wraps the decode pipeline behind a goroutine with a Start/Stop/GetName
 * contract, so a live audio source can drive it the same way it drives
 * any other pluggable signal processor.
 */

// Extension wraps Framer, Demodulator, and Decoder as a single
// runnable pipeline stage, matching the pluggable audio-processor shape
// a live audio source expects to drive.
type Extension struct {
	framer *Framer
	demod  *Demodulator
	dec    *Decoder

	running  bool
	stopChan chan struct{}
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// NewExtension builds the pipeline for the given config, publishing
// DecodeEvents to sink and recording to metrics (either may be used
// independently; metrics may be nil).
func NewExtension(cfg Config, sink Sink, metrics *Metrics) (*Extension, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Extension{
		framer: NewFramer(),
		demod:  NewDemodulator(cfg.SampleRate),
		dec:    NewDecoder(cfg.SampleRate, sink, metrics),
	}, nil
}

// GetName returns the extension name.
func (e *Extension) GetName() string {
	return "sstv"
}

// Start begins consuming samples from audioChan until Stop is called or
// the channel closes.
func (e *Extension) Start(audioChan <-chan []float32) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("sstv: extension already running")
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(audioChan)

	return nil
}

// Stop halts processing and waits for the run loop to exit.
func (e *Extension) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	close(e.stopChan)
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	return nil
}

func (e *Extension) run(audioChan <-chan []float32) {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopChan:
			return
		case samples, ok := <-audioChan:
			if !ok {
				return
			}
			for _, frame := range e.framer.Push(samples) {
				for _, freq := range e.demod.Demodulate(frame) {
					e.dec.Feed(freq)
				}
			}
		}
	}
}
