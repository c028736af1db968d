package fakebackend

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/five82/deckhand/internal/api"
)

func (s *Server) routes() {
	s.echo.GET("/ws/bot", s.serveStream(ChannelBot))
	s.echo.GET("/ws/devices", s.serveStream(ChannelDevices))
	s.echo.GET("/ws/system", s.serveStream(ChannelSystem))

	g := s.echo.Group("/api")

	bot := g.Group("/bot")
	bot.POST("/start", s.startBot)
	bot.POST("/stop", s.botTransition(api.BotStopped, "", "Bot stop initiated", "stopping"))
	bot.POST("/pause", s.botTransition(api.BotPaused, api.BotRunning, "Bot paused", "paused"))
	bot.POST("/resume", s.botTransition(api.BotRunning, api.BotPaused, "Bot resumed", "running"))
	bot.POST("/quick-start", s.botTransition(api.BotRunning, "", "Quick start initiated", "starting"))
	bot.POST("/quit-game", s.quitGame)
	bot.PUT("/config", s.updateConfig)
	bot.DELETE("/logs", func(c echo.Context) error { return ok(c, "Logs cleared", nil) })
	bot.GET("/status", s.botStatusHandler)

	dev := g.Group("/devices")
	dev.POST("/scan", s.scan)
	dev.GET("/adb/status", s.adbStatus)
	dev.POST("/adb/restart", s.adbStatus)
	dev.GET("/:id", s.deviceInfo)
	dev.POST("/:id/connect", s.connect)
	dev.POST("/:id/disconnect", s.disconnect)
	dev.POST("/:id/install", s.deviceOK("Package installed"))
	dev.POST("/:id/input", s.deviceOK("Input sent"))
	dev.POST("/:id/screenshot", s.screenshot)
	dev.POST("/:id/check-feature", s.checkFeature)

	sys := g.Group("/system")
	sys.GET("/preferences", s.getPreferences)
	sys.PUT("/preferences", s.updatePreferences)
	sys.GET("/info", s.systemInfo)
	sys.GET("/power", s.power)
	sys.GET("/displays", s.displays)
	sys.GET("/performance", s.performance)
	sys.POST("/notifications", s.notify)
	sys.PUT("/notification-settings", s.notificationSettings)
	sys.POST("/window/:op", s.window)
	sys.PUT("/window/bounds", s.windowBounds)
}

func (s *Server) startBot(c echo.Context) error {
	cfg := s.Config()
	if err := c.Bind(&cfg); err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	s.mu.Lock()
	s.config = cfg
	s.botStatus = api.BotRunning
	now := time.Now()
	s.stats = api.BotStats{SessionStart: &now}
	s.mu.Unlock()
	s.broadcast(ChannelBot, "status_update", api.StatusUpdateData{Status: string(api.BotRunning)})
	return ok(c, "Bot start initiated", map[string]string{"state": "starting"})
}

// botTransition moves to to. A non-empty from must match the current state
// or the request is rejected the way the backend does.
func (s *Server) botTransition(to, from api.BotStatus, message, reported string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		current := s.botStatus
		if from != "" && current != from {
			s.mu.Unlock()
			return c.JSON(http.StatusOK, envelope(false, "Bot is "+string(current), map[string]string{"state": string(current)}))
		}
		s.botStatus = to
		if to == api.BotStopped {
			s.game = nil
		}
		s.mu.Unlock()
		s.broadcast(ChannelBot, "status_update", api.StatusUpdateData{Status: string(to)})
		return ok(c, message, map[string]string{"state": reported})
	}
}

func (s *Server) quitGame(c echo.Context) error {
	s.mu.Lock()
	s.game = nil
	s.mu.Unlock()
	s.broadcast(ChannelBot, "game_update", api.GameUpdateData{})
	return ok(c, "Left game", nil)
}

func (s *Server) updateConfig(c echo.Context) error {
	var patch map[string]any
	if err := c.Bind(&patch); err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := mergeJSON(s.config, patch)
	if err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	s.config = merged
	return ok(c, "Configuration updated", merged)
}

func (s *Server) botStatusHandler(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, stats := s.config, s.stats
	return ok(c, "", api.BotStatusPayload{
		State:       string(s.botStatus),
		Config:      &cfg,
		Stats:       &stats,
		CurrentGame: s.game,
	})
}

func (s *Server) scan(c echo.Context) error {
	s.mu.Lock()
	devices := append([]api.Device(nil), s.devices...)
	s.mu.Unlock()
	return ok(c, "Scan complete", devices)
}

func (s *Server) findLocked(id string) int {
	for i, d := range s.devices {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) deviceInfo(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findLocked(c.Param("id"))
	if i < 0 {
		return detail(c, http.StatusNotFound, "Device not found")
	}
	return ok(c, "", s.devices[i])
}

func (s *Server) connect(c echo.Context) error {
	s.mu.Lock()
	i := s.findLocked(c.Param("id"))
	if i < 0 {
		s.mu.Unlock()
		return detail(c, http.StatusNotFound, "Device not found")
	}
	s.devices[i].Status = api.DeviceConnected
	s.devices[i].LastSeen = time.Now()
	dev := s.devices[i]
	s.mu.Unlock()
	s.broadcast(ChannelDevices, "device_connected", dev)
	return ok(c, "Device connected", nil)
}

func (s *Server) disconnect(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	i := s.findLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return detail(c, http.StatusNotFound, "Device not found")
	}
	s.devices[i].Status = api.DeviceDisconnected
	s.mu.Unlock()
	s.broadcast(ChannelDevices, "device_disconnected", api.DeviceRefData{DeviceID: id})
	return ok(c, "Device disconnected", nil)
}

func (s *Server) deviceOK(message string) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		found := s.findLocked(c.Param("id")) >= 0
		s.mu.Unlock()
		if !found {
			return detail(c, http.StatusNotFound, "Device not found")
		}
		return ok(c, message, nil)
	}
}

func (s *Server) screenshot(c echo.Context) error {
	id := c.Param("id")
	name := id + "-" + time.Now().Format("20060102-150405") + ".png"
	return ok(c, "Screenshot captured", api.ScreenshotResult{
		Filename: name,
		Path:     "/tmp/screenshots/" + name,
		Size:     1024,
	})
}

func (s *Server) checkFeature(c echo.Context) error {
	var body struct {
		Feature string `json:"feature"`
	}
	if err := c.Bind(&body); err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	return ok(c, "", api.FeatureCheck{Feature: body.Feature, Present: true, Version: "1.0.0"})
}

func (s *Server) adbStatus(c echo.Context) error {
	s.mu.Lock()
	n := len(s.devices)
	s.mu.Unlock()
	return ok(c, "", api.ADBStatus{Running: true, Version: "1.0.41", Devices: n})
}

func (s *Server) getPreferences(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, "", s.prefs)
}

func (s *Server) updatePreferences(c echo.Context) error {
	var patch map[string]any
	if err := c.Bind(&patch); err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	s.mu.Lock()
	merged, err := mergeJSON(s.prefs, patch)
	if err != nil {
		s.mu.Unlock()
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	themeChanged := merged.Theme != s.prefs.Theme
	s.prefs = merged
	s.mu.Unlock()
	if themeChanged {
		s.broadcast(ChannelSystem, "theme_changed", map[string]string{"theme": merged.Theme})
	}
	return ok(c, "Preferences updated", merged)
}

func (s *Server) systemInfo(c echo.Context) error {
	return ok(c, "", api.SystemInfo{
		Platform:     "linux",
		Architecture: "x86_64",
		Hostname:     "fake-backend",
		CPUCount:     8,
		TotalMemory:  16 << 30,
	})
}

func (s *Server) power(c echo.Context) error {
	level, charging := 87, true
	return ok(c, "", api.PowerInfo{BatteryLevel: &level, IsCharging: &charging, PowerSource: "ac"})
}

func (s *Server) displays(c echo.Context) error {
	return ok(c, "", []api.Display{{ID: 1, Name: "Built-in", Resolution: "2560x1600", ScaleFactor: 2, RefreshRate: 60, IsPrimary: true}})
}

func (s *Server) performance(c echo.Context) error {
	return ok(c, "", api.Performance{Timestamp: time.Now(), CPUUsage: 12.5, MemoryUsage: 48.0})
}

func (s *Server) notify(c echo.Context) error {
	var n api.Notification
	if err := c.Bind(&n); err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	n.ID = uuid.NewString()
	n.Timestamp = time.Now()
	return ok(c, "Notification sent", n)
}

func (s *Server) notificationSettings(c echo.Context) error {
	var settings api.NotificationSettings
	if err := c.Bind(&settings); err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	s.mu.Lock()
	s.notifSet = settings
	s.mu.Unlock()
	return ok(c, "Notification settings updated", settings)
}

func (s *Server) window(c echo.Context) error {
	switch api.WindowOp(c.Param("op")) {
	case api.WindowMinimize, api.WindowMaximize, api.WindowClose:
		return ok(c, "Window "+c.Param("op"), nil)
	default:
		return detail(c, http.StatusBadRequest, "Unknown window operation")
	}
}

func (s *Server) windowBounds(c echo.Context) error {
	var b api.WindowBounds
	if err := c.Bind(&b); err != nil {
		return detail(c, http.StatusUnprocessableEntity, err.Error())
	}
	s.mu.Lock()
	s.bounds = b
	s.mu.Unlock()
	return ok(c, "Window bounds updated", b)
}

// mergeJSON overlays patch onto current through their JSON forms.
func mergeJSON[T any](current T, patch map[string]any) (T, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return current, err
	}
	var base map[string]any
	if err := json.Unmarshal(raw, &base); err != nil {
		return current, err
	}
	for k, v := range patch {
		base[k] = v
	}
	merged, err := json.Marshal(base)
	if err != nil {
		return current, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return current, err
	}
	return out, nil
}
