// Package sink provides Sink implementations that fan SSTV decode events
// out to external consumers.
package sink

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cwsl/sstv-decode/sstv"
)

/*
 * WebSocket sink
 * Per-connection writer goroutine draining a buffered channel so a slow
 * client never blocks a write; broadcast fans one event out to every
 * registered connection.
 */

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wireEvent is the JSON shape pushed to browser clients.
type wireEvent struct {
	Type     string `json:"type"`
	CycleID  string `json:"cycle_id"`
	Mode     string `json:"mode,omitempty"`
	Fraction float32 `json:"fraction,omitempty"`
	PNG      string `json:"png,omitempty"`
}

// conn wraps one client connection with a buffered send channel, so a
// slow reader has events dropped rather than stalling the broadcaster.
type conn struct {
	ws       *websocket.Conn
	send     chan wireEvent
	writeMu  sync.Mutex
}

func (c *conn) writer() {
	for ev := range c.send {
		c.writeMu.Lock()
		c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
		err := c.ws.WriteJSON(ev)
		c.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// WebSocketSink is a sstv.Sink that publishes DecodeEvents to any number
// of connected WebSocket clients as JSON, with the End event's image
// PNG-encoded and base64-embedded.
type WebSocketSink struct {
	mu      sync.Mutex
	conns   map[*conn]struct{}
	backlog int
}

// NewWebSocketSink returns a sink whose per-connection outbound buffer
// holds backlog events before newer ones are dropped for that client.
func NewWebSocketSink(backlog int) *WebSocketSink {
	return &WebSocketSink{
		conns:   make(map[*conn]struct{}),
		backlog: backlog,
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers it as a
// subscriber until the connection closes.
func (s *WebSocketSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("sink: websocket upgrade failed: %v", err)
		return
	}

	c := &conn{ws: ws, send: make(chan wireEvent, s.backlog)}

	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	go c.writer()

	// Drain and discard reads; this sink is output-only, but a dead
	// read loop is how gorilla/websocket notices the peer is gone.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	close(c.send)
	ws.Close()
}

// Publish implements sstv.Sink. It never blocks: a client whose buffer
// is full has this event dropped for it.
func (s *WebSocketSink) Publish(e sstv.DecodeEvent) {
	ev := toWireEvent(e)

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.conns {
		select {
		case c.send <- ev:
		default:
		}
	}
}

func toWireEvent(e sstv.DecodeEvent) wireEvent {
	ev := wireEvent{CycleID: e.CycleID.String()}

	switch e.Kind {
	case sstv.EventStart:
		ev.Type = "start"
		ev.Mode = e.Mode.Name()
	case sstv.EventProgress:
		ev.Type = "progress"
		ev.Fraction = e.Fraction
	case sstv.EventEnd:
		ev.Type = "end"
		ev.Mode = e.Mode.Name()
		if e.Image != nil {
			if data, err := encodePNG(e.Image); err == nil {
				ev.PNG = base64.StdEncoding.EncodeToString(data)
			} else {
				log.Printf("sink: encoding decoded image to PNG: %v", err)
			}
		}
	}

	return ev
}

func encodePNG(img *sstv.Image) ([]byte, error) {
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (y*img.Width + x) * 3
			rgba.Set(x, y, color.RGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
