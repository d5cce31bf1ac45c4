// Command sstvdecode decodes SSTV transmissions from a WAV recording,
// logging decode events as they happen and writing each decoded image
// to a PNG file.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-audio/wav"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/sstv-decode/sink"
	"github.com/cwsl/sstv-decode/sstv"
)

/*
 * CLI entry point
 * A WAV file is a complete, already-captured signal rather than a live
 * pull-source, so decoding runs synchronously in the main goroutine.
 * The event logger/PNG writer and the optional WebSocket/metrics server
 * run in their own goroutines alongside the decode loop.
 */

func main() {
	inPath := flag.String("in", "", "Path to a WAV recording containing an SSTV transmission")
	outDir := flag.String("out", ".", "Directory to write decoded PNG images into")
	listen := flag.String("listen", "", "If set, serve a /events WebSocket and /metrics on this address")
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	flag.Parse()

	if *inPath == "" {
		log.Fatalf("sstvdecode: -in is required")
	}

	cfg := sstv.DefaultConfig()
	if *configPath != "" {
		loaded, err := sstv.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("sstvdecode: loading config: %v", err)
		}
		cfg = loaded
	}

	samples, sampleRate, err := readWAV(*inPath)
	if err != nil {
		log.Fatalf("sstvdecode: reading %q: %v", *inPath, err)
	}
	cfg.SampleRate = sampleRate
	if err := cfg.Validate(); err != nil {
		log.Fatalf("sstvdecode: invalid configuration: %v", err)
	}

	broadcast := sstv.NewBroadcastSink(cfg.SinkCapacity)
	metrics := sstv.NewMetrics(prometheus.DefaultRegisterer)
	writer := &imageWriter{dir: *outDir}

	logSub := broadcast.Subscribe()
	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		for ev := range logSub {
			logEvent(ev)
			if ev.Kind == sstv.EventEnd && ev.Image != nil {
				if err := writer.Write(ev.Mode, ev.Image); err != nil {
					log.Printf("sstvdecode: writing image: %v", err)
				}
			}
		}
	}()

	if *listen != "" {
		wsSink := sink.NewWebSocketSink(cfg.SinkCapacity)
		wsSub := broadcast.Subscribe()
		go func() {
			for ev := range wsSub {
				wsSink.Publish(ev)
			}
		}()

		mux := http.NewServeMux()
		mux.Handle("/events", wsSink)
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("sstvdecode: serving on %s", *listen)
			if err := http.ListenAndServe(*listen, mux); err != nil {
				log.Printf("sstvdecode: http server exited: %v", err)
			}
		}()
	}

	framer := sstv.NewFramer()
	demod := sstv.NewDemodulator(cfg.SampleRate)
	dec := sstv.NewDecoder(cfg.SampleRate, broadcast, metrics)

	const chunk = 4096
	for i := 0; i < len(samples); i += chunk {
		end := i + chunk
		if end > len(samples) {
			end = len(samples)
		}
		for _, frame := range framer.Push(samples[i:end]) {
			for _, freq := range demod.Demodulate(frame) {
				dec.Feed(freq)
			}
		}
	}

	broadcast.Unsubscribe(logSub)
	<-logDone
	log.Printf("sstvdecode: done, wrote %d image(s)", writer.count)
}

func logEvent(ev sstv.DecodeEvent) {
	switch ev.Kind {
	case sstv.EventStart:
		log.Printf("decode %s: started (mode %s)", ev.CycleID, ev.Mode.Name())
	case sstv.EventProgress:
		log.Printf("decode %s: %.0f%%", ev.CycleID, ev.Fraction*100)
	case sstv.EventEnd:
		log.Printf("decode %s: finished (mode %s)", ev.CycleID, ev.Mode.Name())
	}
}

// readWAV decodes a PCM WAV file to normalized [-1,1] mono float32
// samples, averaging channels down if the file is not mono.
func readWAV(path string) ([]float32, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading PCM data: %w", err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float32(int(1) << (buf.SourceBitDepth - 1))
	if scale == 0 {
		scale = 1
	}

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		out[i] = sum / float32(channels)
	}

	return out, float64(buf.Format.SampleRate), nil
}

// imageWriter writes decoded images to sequentially numbered PNG files.
type imageWriter struct {
	dir   string
	count int
}

func (w *imageWriter) Write(mode sstv.Mode, img *sstv.Image) error {
	w.count++
	name := filepath.Join(w.dir, fmt.Sprintf("sstv-%03d-%s.png", w.count, mode.Name()))

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (y*img.Width + x) * 3
			rgba.Set(x, y, color.RGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: 255})
		}
	}

	if err := png.Encode(f, rgba); err != nil {
		return err
	}

	log.Printf("sstvdecode: wrote %s", name)
	return nil
}
