package api

import (
	"context"
	"net/http"
)

// ActionResult is the data payload of bot control endpoints.
type ActionResult struct {
	State string `json:"state"`
}

// StartBot begins a session with cfg.
func (c *Client) StartBot(ctx context.Context, cfg BotConfig) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodPost, "/bot/start", cfg, &out)
	return out, err
}

// StopBot ends the session.
func (c *Client) StopBot(ctx context.Context) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodPost, "/bot/stop", nil, &out)
	return out, err
}

// PauseBot suspends the session.
func (c *Client) PauseBot(ctx context.Context) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodPost, "/bot/pause", nil, &out)
	return out, err
}

// ResumeBot continues a paused session.
func (c *Client) ResumeBot(ctx context.Context) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodPost, "/bot/resume", nil, &out)
	return out, err
}

// QuickStart starts a session with the backend's saved configuration.
func (c *Client) QuickStart(ctx context.Context) (ActionResult, error) {
	var out ActionResult
	err := c.do(ctx, http.MethodPost, "/bot/quick-start", nil, &out)
	return out, err
}

// QuitGame abandons the current match.
func (c *Client) QuitGame(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/bot/quit-game", nil, nil)
}

// UpdateBotConfig sends a partial configuration.
func (c *Client) UpdateBotConfig(ctx context.Context, patch map[string]any) error {
	return c.do(ctx, http.MethodPut, "/bot/config", patch, nil)
}

// ClearBotLogs drops the backend's bot log.
func (c *Client) ClearBotLogs(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/bot/logs", nil, nil)
}

// BotStatus fetches the current session state.
func (c *Client) BotStatus(ctx context.Context) (BotStatusPayload, error) {
	var out BotStatusPayload
	err := c.do(ctx, http.MethodGet, "/bot/status", nil, &out)
	return out, err
}
