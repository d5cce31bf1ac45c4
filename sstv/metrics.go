package sstv

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

/*
 * Decode-cycle metrics
 * CounterVec/Gauge collectors registered via promauto, scoped to
 * per-mode decode-cycle tracking for a single decoder.
 */

// Metrics holds the Prometheus collectors for decode-cycle tracking.
type Metrics struct {
	cyclesStarted   *prometheus.CounterVec
	cyclesCompleted *prometheus.CounterVec
	cyclesAborted   *prometheus.CounterVec
	inFlight        prometheus.Gauge

	mu       sync.Mutex
	activeBy map[string]bool
}

// NewMetrics registers and returns a Metrics collector on reg. Pass
// prometheus.DefaultRegisterer to register globally.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cyclesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sstv",
			Name:      "decode_cycles_started_total",
			Help:      "Number of SSTV decode cycles started, by mode.",
		}, []string{"mode"}),
		cyclesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sstv",
			Name:      "decode_cycles_completed_total",
			Help:      "Number of SSTV decode cycles completed without an abort, by mode.",
		}, []string{"mode"}),
		cyclesAborted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sstv",
			Name:      "decode_cycles_aborted_total",
			Help:      "Number of SSTV decode cycles ended by the no-sync abort timeout, by mode.",
		}, []string{"mode"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sstv",
			Name:      "decode_cycles_in_flight",
			Help:      "Number of SSTV decode cycles currently in progress.",
		}),
		activeBy: make(map[string]bool),
	}
}

// CycleStarted records the start of a decode cycle for mode.
func (m *Metrics) CycleStarted(mode string) {
	m.cyclesStarted.WithLabelValues(mode).Inc()

	m.mu.Lock()
	m.activeBy[mode] = true
	m.mu.Unlock()

	m.inFlight.Inc()
}

// CycleEnded records the end of a decode cycle for mode, either
// completed normally or ended by the abort timeout.
func (m *Metrics) CycleEnded(mode string, aborted bool) {
	if aborted {
		m.cyclesAborted.WithLabelValues(mode).Inc()
	} else {
		m.cyclesCompleted.WithLabelValues(mode).Inc()
	}

	m.mu.Lock()
	delete(m.activeBy, mode)
	m.mu.Unlock()

	m.inFlight.Dec()
}
