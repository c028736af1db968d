package api

// Payloads carried in the data field of pushed WebSocket events.

// StatusUpdateData is the payload of status_update.
type StatusUpdateData struct {
	Status string `json:"status"`
	State  string `json:"state"`
	Error  string `json:"error,omitempty"`
}

// Effective returns whichever of status or state the backend populated.
func (d StatusUpdateData) Effective() string {
	if d.Status != "" {
		return d.Status
	}
	return d.State
}

// GameUpdateData is the payload of game_update. A nil Game ends the match.
type GameUpdateData struct {
	Game   *GameInfo `json:"game"`
	Result string    `json:"result,omitempty"`
}

// DeviceRefData identifies a device in device_disconnected.
type DeviceRefData struct {
	DeviceID string `json:"device_id"`
}

// DeviceStatusData is the payload of device_status_changed.
type DeviceStatusData struct {
	DeviceID string `json:"device_id"`
	Status   string `json:"status"`
}

// DeviceTelemetryData is the payload of device_telemetry.
type DeviceTelemetryData struct {
	DeviceID     string   `json:"device_id"`
	BatteryLevel *int     `json:"battery_level,omitempty"`
	CPUUsage     *float64 `json:"cpu_usage,omitempty"`
	MemoryUsage  *float64 `json:"memory_usage,omitempty"`
}

// LogData is the payload of log events forwarded from the backend.
type LogData struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Source  string         `json:"source,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
