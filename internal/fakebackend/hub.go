package fakebackend

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return c.conn.WriteMessage(msgType, data)
}

type hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	handshakes int
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.handshakes++
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *hub) snapshot() []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *hub) send(data []byte) {
	for _, c := range h.snapshot() {
		_ = c.write(websocket.TextMessage, data)
	}
}

func (h *hub) closeAll(code int) {
	for _, c := range h.snapshot() {
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, "server closing"))
		_ = c.conn.Close()
	}
}

// Message is the frame shape pushed on every stream.
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Broadcast pushes an event to every client of channel.
func (s *Server) Broadcast(channel, eventType string, data any) error {
	payload, err := json.Marshal(Message{Type: eventType, Data: data, Timestamp: time.Now().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return s.BroadcastRaw(channel, payload)
}

// BroadcastRaw pushes a frame verbatim, malformed or not.
func (s *Server) BroadcastRaw(channel string, frame []byte) error {
	h, ok := s.hubs[channel]
	if !ok {
		return fmt.Errorf("unknown channel %q", channel)
	}
	h.send(frame)
	return nil
}

// broadcast is the handler-side push, suppressed by SetBroadcast(false).
func (s *Server) broadcast(channel, eventType string, data any) {
	s.mu.Lock()
	on := s.broadcastOn
	s.mu.Unlock()
	if !on {
		return
	}
	if err := s.Broadcast(channel, eventType, data); err != nil {
		s.log.WithError(err).Warn("broadcast failed")
	}
}

// Handshakes counts upgrades accepted on channel.
func (s *Server) Handshakes(channel string) int {
	h, ok := s.hubs[channel]
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.handshakes
}

// Clients counts live connections on channel.
func (s *Server) Clients(channel string) int {
	h, ok := s.hubs[channel]
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Drop closes every connection on channel with a normal close frame.
func (s *Server) Drop(channel string) {
	if h, ok := s.hubs[channel]; ok {
		h.closeAll(websocket.CloseNormalClosure)
	}
}

func (s *Server) serveStream(channel string) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		cl := &client{conn: conn}
		h := s.hubs[channel]
		h.add(cl)
		defer func() {
			h.remove(cl)
			_ = conn.Close()
		}()

		hello, _ := json.Marshal(Message{
			Type:      "connection",
			Data:      map[string]string{"status": "connected", "channel": channel},
			Timestamp: time.Now().Format(time.RFC3339),
		})
		_ = cl.write(websocket.TextMessage, hello)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.WithError(err).WithField("channel", channel).Debug("stream client dropped")
				}
				return nil
			}
			var in struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(raw, &in) == nil && in.Type == "ping" {
				pong, _ := json.Marshal(Message{Type: "pong", Timestamp: time.Now().Format(time.RFC3339)})
				_ = cl.write(websocket.TextMessage, pong)
			}
		}
	}
}
