// Package fakebackend serves an in-memory imitation of the automation
// backend: the REST surface under /api and the three event streams under
// /ws. Tests use it to drive the stores end to end; the fake-backend
// command runs it standalone for UI work.
package fakebackend

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/five82/deckhand/internal/api"
)

// Stream channel names, also the last path element of each /ws route.
const (
	ChannelBot     = "bot"
	ChannelDevices = "devices"
	ChannelSystem  = "system"
)

type failure struct {
	status   int
	message  string
	rejected bool
}

// Server is a fake backend. The zero value is not usable; call New.
type Server struct {
	echo     *echo.Echo
	upgrader websocket.Upgrader
	log      *logrus.Entry

	mu          sync.Mutex
	botStatus   api.BotStatus
	config      api.BotConfig
	stats       api.BotStats
	game        *api.GameInfo
	devices     []api.Device
	prefs       api.Preferences
	notifSet    api.NotificationSettings
	bounds      api.WindowBounds
	failures    map[string]failure
	gates       map[string]chan struct{}
	requests    map[string]int
	hubs        map[string]*hub
	broadcastOn bool
}

// New returns a fake backend seeded with one disconnected emulator.
func New(log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		echo: echo.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:       log.WithField("component", "fakebackend"),
		botStatus: api.BotStopped,
		config:    api.DefaultBotConfig(),
		devices: []api.Device{{
			ID:             "emulator-5554",
			Name:           "Android Emulator",
			Model:          "sdk_gphone64",
			AndroidVersion: "14",
			ConnectionType: "usb",
			Status:         api.DeviceDisconnected,
			LastSeen:       time.Now(),
		}},
		prefs:       api.DefaultPreferences(),
		notifSet:    api.DefaultNotificationSettings(),
		bounds:      api.WindowBounds{Width: 1200, Height: 800},
		failures:    make(map[string]failure),
		gates:       make(map[string]chan struct{}),
		requests:    make(map[string]int),
		broadcastOn: true,
		hubs: map[string]*hub{
			ChannelBot:     newHub(),
			ChannelDevices: newHub(),
			ChannelSystem:  newHub(),
		},
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.inject)
	s.routes()
	return s
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("fake backend listening")
	return s.echo.Start(addr)
}

// Shutdown closes every stream and stops the listener.
func (s *Server) Shutdown() error {
	for _, h := range s.hubs {
		h.closeAll(websocket.CloseGoingAway)
	}
	return s.echo.Close()
}

// Route keys look like "POST /api/bot/stop" or "POST /api/devices/:id/connect".

// Fail makes route answer with an HTTP error status and a detail message.
func (s *Server) Fail(route string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: detail}
}

// Reject makes route answer 200 with success=false.
func (s *Server) Reject(route, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: http.StatusOK, message: message, rejected: true}
}

// Heal clears any injected failure on route.
func (s *Server) Heal(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hold blocks requests to route until the returned release is called.
func (s *Server) Hold(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, route)
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Requests counts requests received on route.
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// SetBroadcast toggles the events handlers push after state changes.
// Explicit Broadcast calls are unaffected.
func (s *Server) SetBroadcast(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastOn = on
}

// SetDevices replaces the device inventory.
func (s *Server) SetDevices(devices []api.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append([]api.Device(nil), devices...)
}

// Config returns the stored bot configuration.
func (s *Server) Config() api.BotConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// BotStatus returns the stored bot status.
func (s *Server) BotStatus() api.BotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.botStatus
}

func (s *Server) inject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Path()
		s.mu.Lock()
		s.requests[key]++
		f, failing := s.failures[key]
		gate := s.gates[key]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		if failing {
			if f.rejected {
				return c.JSON(http.StatusOK, envelope(false, f.message, nil))
			}
			return c.JSON(f.status, map[string]string{"detail": f.message})
		}
		return next(c)
	}
}

func envelope(success bool, message string, data any) map[string]any {
	return map[string]any{
		"success":   success,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

func ok(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, envelope(true, message, data))
}

func detail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"detail": message})
}
