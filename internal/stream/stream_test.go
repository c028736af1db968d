package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu           sync.Mutex
	messages     []Message
	decodeErrors int
	states       []State
}

func (r *recorder) HandleMessage(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *recorder) HandleDecodeError(error, []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decodeErrors++
}

func (r *recorder) HandleStateChange(s State, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() ([]Message, int, []State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...), r.decodeErrors, append([]State(nil), r.states...)
}

// wsServer upgrades every request and hands the connection to serve along
// with the 1-based handshake number.
func wsServer(t *testing.T, serve func(n int, conn *websocket.Conn)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var handshakes atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := int(handshakes.Add(1))
		serve(n, conn)
	}))
	t.Cleanup(srv.Close)
	return srv, &handshakes
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func holdOpen(conn *websocket.Conn) {
	defer conn.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestStream_ReconnectsExactlyOnceAfterServerClose(t *testing.T) {
	srv, handshakes := wsServer(t, func(n int, conn *websocket.Conn) {
		if n == 1 {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
			_ = conn.Close()
			return
		}
		holdOpen(conn)
	})

	rec := &recorder{}
	s := New(Options{URL: wsURL(srv), ReconnectDelay: 50 * time.Millisecond}, rec)
	s.Start(context.Background())
	t.Cleanup(s.Close)

	require.Eventually(t, func() bool {
		return handshakes.Load() == 2 && s.State() == Open
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(2), handshakes.Load())
	assert.Equal(t, 2, s.Attempts())
	assert.True(t, s.Connected())

	_, _, states := rec.snapshot()
	assert.Equal(t, []State{Connecting, Open, Closed, Disconnected, Connecting, Open}, states)
}

func TestStream_CloseCancelsReconnect(t *testing.T) {
	srv, handshakes := wsServer(t, func(_ int, conn *websocket.Conn) {
		holdOpen(conn)
	})

	rec := &recorder{}
	s := New(Options{URL: wsURL(srv), ReconnectDelay: 30 * time.Millisecond}, rec)
	s.Start(context.Background())

	require.Eventually(t, func() bool { return s.State() == Open }, 2*time.Second, 10*time.Millisecond)

	s.Close()
	require.Eventually(t, func() bool { return s.State() == Disconnected }, time.Second, 10*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), handshakes.Load())
	assert.False(t, s.Connected())
	assert.False(t, s.ReconnectPending())

	_, _, states := rec.snapshot()
	assert.Contains(t, states, Closed)
	assert.NotContains(t, states, Errored)
}

func TestStream_CloseDuringDialEndsDisconnected(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		holdOpen(conn)
	}))
	t.Cleanup(srv.Close)

	rec := &recorder{}
	s := New(Options{URL: wsURL(srv), ReconnectDelay: 20 * time.Millisecond}, rec)
	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Close()

	require.Eventually(t, func() bool {
		_, _, states := rec.snapshot()
		return len(states) > 0 && states[len(states)-1] == Disconnected
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	_, _, states := rec.snapshot()
	assert.Equal(t, []State{Connecting, Closed, Disconnected}, states)
	assert.Equal(t, Disconnected, s.State())
	assert.False(t, s.Connected())
	assert.False(t, s.ReconnectPending())
}

func TestStream_DecodeErrorKeepsConnection(t *testing.T) {
	srv, handshakes := wsServer(t, func(_ int, conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"status_update","data":{"status":"running"}}`))
		holdOpen(conn)
	})

	rec := &recorder{}
	s := New(Options{URL: wsURL(srv), ReconnectDelay: time.Hour}, rec)
	s.Start(context.Background())
	t.Cleanup(s.Close)

	require.Eventually(t, func() bool {
		msgs, _, _ := rec.snapshot()
		return len(msgs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	msgs, decodeErrors, _ := rec.snapshot()
	assert.Equal(t, 2, decodeErrors)
	assert.Equal(t, "status_update", msgs[0].Type)
	assert.JSONEq(t, `{"status":"running"}`, string(msgs[0].Data))
	assert.Equal(t, Open, s.State())
	assert.Equal(t, int32(1), handshakes.Load())
}

func TestStream_DialFailureRetriesAfterDelay(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	rec := &recorder{}
	s := New(Options{URL: url, ReconnectDelay: 40 * time.Millisecond}, rec)
	s.Start(context.Background())

	require.Eventually(t, func() bool { return s.Attempts() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Close()
	attempts := s.Attempts()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, attempts, s.Attempts(), "no attempts after Close")

	_, _, states := rec.snapshot()
	assert.Contains(t, states, Errored)
}

func TestStream_CancelledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Options{URL: url, ReconnectDelay: 20 * time.Millisecond}, &recorder{})
	s.Start(ctx)

	require.Eventually(t, func() bool { return s.Attempts() == 1 && s.State() == Disconnected }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, s.Attempts())
	assert.False(t, s.ReconnectPending())
}

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"device_disconnected","device_id":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, "device_disconnected", msg.Type)
	var ref struct {
		DeviceID string `json:"device_id"`
	}
	require.NoError(t, msg.Unmarshal(&ref))
	assert.Equal(t, "abc", ref.DeviceID)

	msg, err = Decode([]byte(`{"type":"game_update","data":null}`))
	require.NoError(t, err)
	assert.Equal(t, msg.Raw, msg.Data)

	_, err = Decode([]byte(`{"data":1}`))
	assert.ErrorIs(t, err, errMissingType)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "errored", Errored.String())
	assert.Equal(t, "state(42)", State(42).String())
}
