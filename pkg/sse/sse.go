// Package sse streams Server-Sent Events. A Broker fans events out to the
// streams subscribed under a key, such as a vendor's user id:
//
//	events, cancel := broker.Subscribe(vendorID)
//	defer cancel()
//	stream := sse.New(c.W, c.R)
//	stream.Pump(events, 25*time.Second)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is one message on a stream.
type Event struct {
	Name string
	Data any
}

// Stream is an open SSE response to one client.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
}

// New sets the event-stream headers. It writes a 500 and returns nil when
// the ResponseWriter cannot flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, r: r, flusher: flusher}
}

// Send writes a named event with a JSON payload.
func (s *Stream) Send(e Event) error {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("sse: marshal %s: %w", e.Name, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", e.Name, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Comment writes a comment line. Clients ignore it; proxies see traffic.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Pump forwards events until the client goes away or events is closed,
// sending a heartbeat comment every heartbeat.
func (s *Stream) Pump(events <-chan Event, heartbeat time.Duration) {
	tick := time.NewTicker(heartbeat)
	defer tick.Stop()
	for {
		select {
		case <-s.r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := s.Send(e); err != nil {
				return
			}
		case <-tick.C:
			if err := s.Comment("ping"); err != nil {
				return
			}
		}
	}
}

// Broker delivers published events to every subscriber of a key. A slow
// subscriber misses events rather than blocking the publisher.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
	buf  int
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}, buf: 16}
}

// Subscribe returns a channel of events for key and a cancel func that
// must be called to release it.
func (b *Broker) Subscribe(key string) (<-chan Event, func()) {
	ch := make(chan Event, b.buf)
	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = map[chan Event]struct{}{}
	}
	b.subs[key][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[key], ch)
			if len(b.subs[key]) == 0 {
				delete(b.subs, key)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends e to the subscribers of key and returns how many got it.
func (b *Broker) Publish(key string, e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sent := 0
	for ch := range b.subs[key] {
		select {
		case ch <- e:
			sent++
		default:
		}
	}
	return sent
}

// Subscribers counts the open subscriptions for key.
func (b *Broker) Subscribers(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}
