package api

import (
	"strings"
	"time"
)

// BotStatus is the bot session lifecycle state.
type BotStatus string

const (
	BotStopped BotStatus = "stopped"
	BotRunning BotStatus = "running"
	BotPaused  BotStatus = "paused"
	BotError   BotStatus = "error"
)

// ParseBotStatus normalizes a backend state name. Transitional states fold
// into the state they settle in; anything else reports ok=false.
func ParseBotStatus(value string) (BotStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "stopped", "stopping", "idle":
		return BotStopped, true
	case "running", "starting":
		return BotRunning, true
	case "paused":
		return BotPaused, true
	case "error":
		return BotError, true
	default:
		return "", false
	}
}

// Active reports whether the session is running or paused.
func (s BotStatus) Active() bool {
	return s == BotRunning || s == BotPaused
}

// BotConfig is the user-editable bot configuration. Field tags double as the
// keys accepted by partial updates.
type BotConfig struct {
	Floor              int     `json:"floor"`
	Mode               string  `json:"mode"`
	AutoMerge          bool    `json:"auto_merge"`
	AutoUpgrade        bool    `json:"auto_upgrade"`
	MergeStrategy      string  `json:"merge_strategy"`
	BattleTimeout      int     `json:"battle_timeout"`
	ScreenshotInterval float64 `json:"screenshot_interval"`
	PreferredDevice    string  `json:"preferred_device,omitempty"`
	DebugMode          bool    `json:"debug_mode"`
}

// DefaultBotConfig mirrors the backend's defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Floor:              1,
		Mode:               "pvp",
		AutoMerge:          true,
		AutoUpgrade:        true,
		MergeStrategy:      "conservative",
		BattleTimeout:      300,
		ScreenshotInterval: 1.0,
	}
}

// BotStats are counters accumulated over the life of a session.
type BotStats struct {
	GamesPlayed     int        `json:"games_played"`
	Wins            int        `json:"wins"`
	Losses          int        `json:"losses"`
	MergesPerformed int        `json:"merges_performed"`
	CardsUpgraded   int        `json:"cards_upgraded"`
	Errors          int        `json:"errors"`
	SessionStart    *time.Time `json:"session_start,omitempty"`
}

// GameInfo describes the match in progress.
type GameInfo struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Wave      int       `json:"wave"`
	Opponent  string    `json:"opponent,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// BotStatusPayload mirrors GET /bot/status.
type BotStatusPayload struct {
	State        string     `json:"state"`
	Status       string     `json:"status"`
	Config       *BotConfig `json:"config,omitempty"`
	Stats        *BotStats  `json:"stats,omitempty"`
	CurrentGame  *GameInfo  `json:"current_game,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Effective returns whichever of status or state the backend populated.
func (p BotStatusPayload) Effective() string {
	if p.Status != "" {
		return p.Status
	}
	return p.State
}

// DeviceStatus is the connection state of a device.
type DeviceStatus string

const (
	DeviceConnected    DeviceStatus = "connected"
	DeviceDisconnected DeviceStatus = "disconnected"
	DeviceUnauthorized DeviceStatus = "unauthorized"
	DeviceOffline      DeviceStatus = "offline"
	DeviceError        DeviceStatus = "error"
)

// ParseDeviceStatus normalizes adb and backend state names.
func ParseDeviceStatus(value string) DeviceStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "connected", "device", "online":
		return DeviceConnected
	case "disconnected", "connecting", "":
		return DeviceDisconnected
	case "unauthorized":
		return DeviceUnauthorized
	case "offline":
		return DeviceOffline
	default:
		return DeviceError
	}
}

// Capabilities are feature flags detected on a device.
type Capabilities struct {
	GameInstalled bool   `json:"game_installed"`
	GameVersion   string `json:"game_version,omitempty"`
	Rooted        bool   `json:"rooted"`
	Screenshots   bool   `json:"screenshots"`
}

// Device is a single Android device known to the backend.
type Device struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Model          string       `json:"model,omitempty"`
	AndroidVersion string       `json:"android_version,omitempty"`
	ConnectionType string       `json:"connection_type,omitempty"`
	Status         DeviceStatus `json:"status"`
	Capabilities   Capabilities `json:"capabilities"`
	BatteryLevel   *int         `json:"battery_level,omitempty"`
	CPUUsage       *float64     `json:"cpu_usage,omitempty"`
	MemoryUsage    *float64     `json:"memory_usage,omitempty"`
	LastSeen       time.Time    `json:"last_seen"`
}

// Clone returns a deep copy of d.
func (d Device) Clone() Device {
	out := d
	if d.BatteryLevel != nil {
		v := *d.BatteryLevel
		out.BatteryLevel = &v
	}
	if d.CPUUsage != nil {
		v := *d.CPUUsage
		out.CPUUsage = &v
	}
	if d.MemoryUsage != nil {
		v := *d.MemoryUsage
		out.MemoryUsage = &v
	}
	return out
}

// InputKind names a device input gesture.
type InputKind string

const (
	InputTap   InputKind = "tap"
	InputSwipe InputKind = "swipe"
	InputText  InputKind = "text"
	InputKey   InputKind = "key"
)

// InputAction is the body of POST /devices/{id}/input.
type InputAction struct {
	Kind       InputKind `json:"action"`
	X          int       `json:"x,omitempty"`
	Y          int       `json:"y,omitempty"`
	X2         int       `json:"x2,omitempty"`
	Y2         int       `json:"y2,omitempty"`
	DurationMS int       `json:"duration_ms,omitempty"`
	Text       string    `json:"text,omitempty"`
	KeyCode    int       `json:"key_code,omitempty"`
}

// ScreenshotResult is returned by POST /devices/{id}/screenshot.
type ScreenshotResult struct {
	Filename string `json:"filename"`
	Path     string `json:"file_path"`
	Size     int64  `json:"file_size"`
}

// FeatureCheck is returned by POST /devices/{id}/check-feature.
type FeatureCheck struct {
	Feature string `json:"feature"`
	Present bool   `json:"present"`
	Version string `json:"version,omitempty"`
}

// ADBStatus describes the adb server on the backend host.
type ADBStatus struct {
	Running bool   `json:"running"`
	Version string `json:"version"`
	Devices int    `json:"devices"`
}

// Preferences are the system-wide appearance and accessibility settings.
type Preferences struct {
	Theme        string `json:"theme"`
	AccentColor  string `json:"accent_color"`
	ReduceMotion bool   `json:"reduce_motion"`
	HighContrast bool   `json:"high_contrast"`
	Transparency bool   `json:"transparency"`
	Language     string `json:"language"`
}

// DefaultPreferences mirrors the backend's defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:        "auto",
		AccentColor:  "blue",
		Transparency: true,
		Language:     "en",
	}
}

// SystemInfo describes the backend host.
type SystemInfo struct {
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platform_version"`
	Architecture    string  `json:"architecture"`
	Hostname        string  `json:"hostname"`
	CPUCount        int     `json:"cpu_count"`
	CPUModel        string  `json:"cpu_model"`
	TotalMemory     int64   `json:"total_memory"`
	Uptime          float64 `json:"uptime"`
}

// PowerInfo is a battery and power-source snapshot.
type PowerInfo struct {
	BatteryLevel  *int   `json:"battery_level,omitempty"`
	IsCharging    *bool  `json:"is_charging,omitempty"`
	PowerSource   string `json:"power_source,omitempty"`
	TimeRemaining *int   `json:"time_remaining,omitempty"`
}

// Display is an attached monitor.
type Display struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Resolution  string  `json:"resolution"`
	ScaleFactor float64 `json:"scale_factor"`
	RefreshRate float64 `json:"refresh_rate"`
	IsPrimary   bool    `json:"is_primary"`
}

// Performance is a point-in-time resource usage snapshot.
type Performance struct {
	Timestamp       time.Time `json:"timestamp"`
	CPUUsage        float64   `json:"cpu_usage"`
	MemoryUsage     float64   `json:"memory_usage"`
	MemoryAvailable int64     `json:"memory_available"`
	DiskUsage       float64   `json:"disk_usage"`
	NetworkSent     int64     `json:"network_sent"`
	NetworkReceived int64     `json:"network_received"`
	Temperature     *float64  `json:"temperature,omitempty"`
}

// Notification is a user-facing notice.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Level     string    `json:"level,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"-"`
}

// NotificationSettings control which notifications are raised.
type NotificationSettings struct {
	Enabled      bool `json:"enabled"`
	Sound        bool `json:"sound"`
	BotEvents    bool `json:"bot_events"`
	DeviceEvents bool `json:"device_events"`
	Errors       bool `json:"errors"`
}

// DefaultNotificationSettings enables everything but sound.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Enabled: true, BotEvents: true, DeviceEvents: true, Errors: true}
}

// WindowBounds is the companion window geometry.
type WindowBounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowOp is a window control verb.
type WindowOp string

const (
	WindowMinimize WindowOp = "minimize"
	WindowMaximize WindowOp = "maximize"
	WindowClose    WindowOp = "close"
)
