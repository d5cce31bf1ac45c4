package sstv

import (
	"sync"

	"github.com/google/uuid"
)

/*
 * Event sink
 * Bounded multi-producer/single-consumer broadcast with a non-blocking
 * send-or-drop publish: "select { case ch <- msg: default: }".
 */

// EventKind discriminates a DecodeEvent.
type EventKind int

const (
	EventStart EventKind = iota
	EventProgress
	EventEnd
)

// DecodeEvent is one of Start{mode}, Progress{fraction}, or
// End{mode, image}. CycleID correlates the Start/Progress/End events of
// one decode cycle, needed once more than one Decoder shares a Sink or
// a persistence store.
type DecodeEvent struct {
	Kind     EventKind
	CycleID  uuid.UUID
	Mode     Mode
	Fraction float32
	Image    *Image
}

// Sink is anything that can receive DecodeEvents. It must never block
// the decode hot path.
type Sink interface {
	Publish(DecodeEvent)
}

// BroadcastSink is a bounded MPSC broadcast channel: a single producer
// (the Decoder) and any number of bounded subscriber channels. Publish
// never blocks — a lagging subscriber has its event dropped rather
// than stalling the decoder.
type BroadcastSink struct {
	mu          sync.Mutex
	subscribers map[chan DecodeEvent]struct{}
	capacity    int
}

// NewBroadcastSink returns a sink whose subscriber channels are each
// buffered to capacity; 128 or more is recommended.
func NewBroadcastSink(capacity int) *BroadcastSink {
	return &BroadcastSink{
		subscribers: make(map[chan DecodeEvent]struct{}),
		capacity:    capacity,
	}
}

// Subscribe registers a new subscriber channel. Call Unsubscribe when
// the consumer goes away.
func (s *BroadcastSink) Subscribe() chan DecodeEvent {
	ch := make(chan DecodeEvent, s.capacity)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	return ch
}

// Unsubscribe removes and closes a subscriber channel returned by
// Subscribe.
func (s *BroadcastSink) Unsubscribe(ch chan DecodeEvent) {
	s.mu.Lock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// Publish fans e out to every subscriber. A subscriber whose channel is
// full has this event dropped for it — the decoder is never blocked.
func (s *BroadcastSink) Publish(e DecodeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
