package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// streamSink receives drained event batches from the recording session.
// It retains everything captured since the last start so the stop
// endpoint can return the full dump, and fans each batch out to
// connected WebSocket subscribers.
type streamSink struct {
	mu     sync.Mutex
	events []json.RawMessage
	subs   map[*wsClient]struct{}
}

// wsClient is one WebSocket subscriber. Writes are serialized through
// writeMu; gorilla connections do not allow concurrent writers.
type wsClient struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func newStreamSink() *streamSink {
	return &streamSink{subs: make(map[*wsClient]struct{})}
}

// WriteEvents implements recording.EventSink.
func (s *streamSink) WriteEvents(events []json.RawMessage) error {
	s.mu.Lock()
	s.events = append(s.events, events...)
	subs := make([]*wsClient, 0, len(s.subs))
	for c := range s.subs {
		subs = append(subs, c)
	}
	s.mu.Unlock()

	if len(subs) == 0 {
		return nil
	}

	payload := struct {
		Events []json.RawMessage `json:"events"`
	}{Events: events}

	for _, c := range subs {
		c.writeMu.Lock()
		err := c.ws.WriteJSON(payload)
		c.writeMu.Unlock()
		if err != nil {
			s.unsubscribe(c)
		}
	}
	return nil
}

// drain returns everything captured since the last reset and clears the
// retained buffer.
func (s *streamSink) drain() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

// reset discards retained events at the start of a new recording.
func (s *streamSink) reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

func (s *streamSink) subscribe(ws *websocket.Conn) *wsClient {
	c := &wsClient{ws: ws}
	s.mu.Lock()
	s.subs[c] = struct{}{}
	s.mu.Unlock()
	return c
}

func (s *streamSink) unsubscribe(c *wsClient) {
	s.mu.Lock()
	_, ok := s.subs[c]
	delete(s.subs, c)
	s.mu.Unlock()
	if ok {
		_ = c.ws.Close()
	}
}
