package api

import (
	"context"
	"net/http"
)

// Preferences fetches the stored preferences.
func (c *Client) Preferences(ctx context.Context) (Preferences, error) {
	var out Preferences
	err := c.do(ctx, http.MethodGet, "/system/preferences", nil, &out)
	return out, err
}

// UpdatePreferences sends a partial preferences object.
func (c *Client) UpdatePreferences(ctx context.Context, patch map[string]any) error {
	return c.do(ctx, http.MethodPut, "/system/preferences", patch, nil)
}

// SystemInfo fetches host information.
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var out SystemInfo
	err := c.do(ctx, http.MethodGet, "/system/info", nil, &out)
	return out, err
}

// Power fetches the power snapshot.
func (c *Client) Power(ctx context.Context) (PowerInfo, error) {
	var out PowerInfo
	err := c.do(ctx, http.MethodGet, "/system/power", nil, &out)
	return out, err
}

// Displays lists attached displays.
func (c *Client) Displays(ctx context.Context) ([]Display, error) {
	var out []Display
	err := c.do(ctx, http.MethodGet, "/system/displays", nil, &out)
	return out, err
}

// Performance fetches the resource usage snapshot.
func (c *Client) Performance(ctx context.Context) (Performance, error) {
	var out Performance
	err := c.do(ctx, http.MethodGet, "/system/performance", nil, &out)
	return out, err
}

// Notify posts a notification and returns it as stored by the backend.
func (c *Client) Notify(ctx context.Context, n Notification) (Notification, error) {
	out := n
	err := c.do(ctx, http.MethodPost, "/system/notifications", n, &out)
	return out, err
}

// UpdateNotificationSettings replaces the notification settings.
func (c *Client) UpdateNotificationSettings(ctx context.Context, settings NotificationSettings) error {
	return c.do(ctx, http.MethodPut, "/system/notification-settings", settings, nil)
}

// Window performs a window control operation.
func (c *Client) Window(ctx context.Context, op WindowOp) error {
	return c.do(ctx, http.MethodPost, "/system/window/"+string(op), nil, nil)
}

// SetWindowBounds stores the window geometry.
func (c *Client) SetWindowBounds(ctx context.Context, bounds WindowBounds) error {
	return c.do(ctx, http.MethodPut, "/system/window/bounds", bounds, nil)
}
