package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle position of a Stream.
type State int

const (
	Disconnected State = iota
	Connecting
	Open
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	// DefaultReconnectDelay is the fixed wait before a reconnection attempt.
	DefaultReconnectDelay   = 5 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 30 * time.Second
	writeTimeout            = 10 * time.Second
)

// Handler receives everything a Stream observes. Calls for one Stream never
// overlap, and are made without any Stream lock held.
type Handler interface {
	HandleMessage(Message)
	HandleDecodeError(err error, raw []byte)
	HandleStateChange(state State, err error)
}

// Options configure a Stream.
type Options struct {
	URL              string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	Logger           *logrus.Entry
}

// Stream owns one WebSocket connection and keeps it alive until Close.
type Stream struct {
	opts    Options
	handler Handler
	dialer  *websocket.Dialer
	log     *logrus.Entry

	// serializes handler callbacks
	cbMu sync.Mutex
	// serializes frame writes
	writeMu sync.Mutex

	mu       sync.Mutex
	ctx      context.Context
	state    State
	conn     *websocket.Conn
	timer    *time.Timer
	gen      uint64
	closed   bool
	attempts int
}

// New builds a Stream in the Disconnected state.
func New(opts Options, handler Handler) *Stream {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Stream{
		opts:    opts,
		handler: handler,
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		log:     log.WithField("url", opts.URL),
		state:   Disconnected,
	}
}

// Start begins connecting in the background. It is a no-op while a
// connection exists or an attempt is in flight.
func (s *Stream) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.closed = false
	gen := s.gen
	s.mu.Unlock()

	go s.connect(gen)
}

// Close tears the connection down and cancels any pending reconnection.
// A Closed transition caused by Close never schedules a reconnect.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closing"), deadline)
		_ = conn.Close()
	}
}

// State returns the current lifecycle state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether a live connection handle is held.
func (s *Stream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Attempts returns how many connection attempts have been made.
func (s *Stream) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// ReconnectPending reports whether a reconnection timer is armed.
func (s *Stream) ReconnectPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Send writes v as a JSON text frame on the live connection.
func (s *Stream) Send(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("stream not connected")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}

func (s *Stream) stale(gen uint64) bool {
	return s.closed || s.gen != gen
}

func (s *Stream) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.notify(state, err)
}

func (s *Stream) notify(state State, err error) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.handler.HandleStateChange(state, err)
}

func (s *Stream) connect(gen uint64) {
	s.mu.Lock()
	if s.stale(gen) || s.conn != nil || s.state == Connecting {
		s.mu.Unlock()
		return
	}
	s.state = Connecting
	s.attempts++
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	s.notify(Connecting, nil)
	conn, _, err := s.dialer.DialContext(ctx, s.opts.URL, nil)
	if err != nil {
		s.log.WithError(err).Warn("stream dial failed")
		s.setState(Errored, err)
		s.settle(gen)
		return
	}

	s.mu.Lock()
	if s.stale(gen) {
		// Close (and possibly Start) ran during the dial.
		restart := !s.closed
		next := s.gen
		s.mu.Unlock()
		_ = conn.Close()
		s.setState(Closed, nil)
		s.setState(Disconnected, nil)
		if restart {
			s.connect(next)
		}
		return
	}
	s.conn = conn
	s.state = Open
	s.mu.Unlock()

	s.log.Info("stream connected")
	s.notify(Open, nil)

	done := make(chan struct{})
	go s.keepalive(conn, done)
	go s.readLoop(conn, gen, done)
}

func (s *Stream) readLoop(conn *websocket.Conn, gen uint64, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.terminate(conn, gen, err)
			return
		}
		msg, err := Decode(data)
		s.cbMu.Lock()
		if err != nil {
			s.handler.HandleDecodeError(err, data)
		} else {
			s.handler.HandleMessage(msg)
		}
		s.cbMu.Unlock()
	}
}

func (s *Stream) keepalive(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				s.log.WithError(err).Debug("stream ping failed")
				return
			}
		}
	}
}

func (s *Stream) terminate(conn *websocket.Conn, gen uint64, err error) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	teardown := s.stale(gen)
	s.mu.Unlock()
	_ = conn.Close()

	switch {
	case teardown:
		s.setState(Closed, nil)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		s.log.Info("stream closed by server")
		s.setState(Closed, err)
	default:
		s.log.WithError(err).Warn("stream read failed")
		s.setState(Errored, err)
	}
	s.settle(gen)
}

// settle moves to Disconnected and arms the reconnection timer unless the
// stream was torn down, already has a handle, or already has a timer armed.
func (s *Stream) settle(gen uint64) {
	s.setState(Disconnected, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen) || s.conn != nil || s.timer != nil {
		return
	}
	if s.ctx != nil && s.ctx.Err() != nil {
		return
	}
	delay := s.opts.ReconnectDelay
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.timer = nil
		skip := s.stale(gen) || s.conn != nil
		s.mu.Unlock()
		if skip {
			return
		}
		s.connect(gen)
	})
	s.log.WithField("delay", delay).Debug("stream reconnect scheduled")
}
