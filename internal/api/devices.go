package api

import (
	"context"
	"net/http"
)

func devicePath(id, action string) string {
	p := "/devices/" + id
	if action != "" {
		p += "/" + action
	}
	return p
}

// ScanDevices asks the backend to enumerate devices.
func (c *Client) ScanDevices(ctx context.Context) ([]Device, error) {
	var out []Device
	err := c.do(ctx, http.MethodPost, "/devices/scan", nil, &out)
	return out, err
}

// ConnectDevice attaches the bot to a device.
func (c *Client) ConnectDevice(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, devicePath(id, "connect"), nil, nil)
}

// DisconnectDevice detaches a device.
func (c *Client) DisconnectDevice(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, devicePath(id, "disconnect"), nil, nil)
}

// InstallPackage installs an apk referenced by path or URL.
func (c *Client) InstallPackage(ctx context.Context, id, apk string) error {
	body := map[string]string{"apk": apk}
	return c.do(ctx, http.MethodPost, devicePath(id, "install"), body, nil)
}

// Screenshot captures the device screen and returns where it was stored.
func (c *Client) Screenshot(ctx context.Context, id string) (ScreenshotResult, error) {
	var out ScreenshotResult
	err := c.do(ctx, http.MethodPost, devicePath(id, "screenshot"), nil, &out)
	return out, err
}

// SendInput injects a gesture or key.
func (c *Client) SendInput(ctx context.Context, id string, action InputAction) error {
	return c.do(ctx, http.MethodPost, devicePath(id, "input"), action, nil)
}

// CheckFeature asks whether a feature (such as the game package) is present.
func (c *Client) CheckFeature(ctx context.Context, id, feature string) (FeatureCheck, error) {
	var out FeatureCheck
	body := map[string]string{"feature": feature}
	err := c.do(ctx, http.MethodPost, devicePath(id, "check-feature"), body, &out)
	return out, err
}

// DeviceInfo fetches a single device record.
func (c *Client) DeviceInfo(ctx context.Context, id string) (Device, error) {
	var out Device
	err := c.do(ctx, http.MethodGet, devicePath(id, ""), nil, &out)
	return out, err
}

// ADBStatus reports the adb server state.
func (c *Client) ADBStatus(ctx context.Context) (ADBStatus, error) {
	var out ADBStatus
	err := c.do(ctx, http.MethodGet, "/devices/adb/status", nil, &out)
	return out, err
}

// RestartADB restarts the adb server.
func (c *Client) RestartADB(ctx context.Context) (ADBStatus, error) {
	var out ADBStatus
	err := c.do(ctx, http.MethodPost, "/devices/adb/restart", nil, &out)
	return out, err
}
