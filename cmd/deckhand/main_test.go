package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/fakebackend"
)

type cli struct {
	fb     *fakebackend.Server
	config string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	fb := fakebackend.New(nil)
	srv := httptest.NewServer(fb.Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	config := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("api_url = %q\nlog_file = %q\nlog_level = \"debug\"\n",
		srv.URL+"/api", filepath.Join(dir, "deckhand.log"))
	require.NoError(t, os.WriteFile(config, []byte(body), 0o644))
	return cli{fb: fb, config: config}
}

func (c cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", c.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBotCommands(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "bot", "start")
	require.NoError(t, err)
	assert.Equal(t, "Bot started\n", out)
	assert.Equal(t, api.BotRunning, c.fb.BotStatus())

	out, err = c.run(t, "bot", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   running")

	out, err = c.run(t, "bot", "pause")
	require.NoError(t, err)
	assert.Equal(t, "Bot paused\n", out)
}

func TestBotCommandSurfacesBackendFailure(t *testing.T) {
	c := newCLI(t)
	c.fb.Fail("POST /api/bot/start", http.StatusServiceUnavailable, "adb not ready")

	_, err := c.run(t, "bot", "start")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adb not ready")
	assert.Equal(t, api.BotStopped, c.fb.BotStatus())
}

func TestDeviceCommands(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "devices", "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "emulator-5554")

	out, err = c.run(t, "devices", "connect", "emulator-5554")
	require.NoError(t, err)
	assert.Equal(t, "Connected to Android Emulator\n", out)

	_, err = c.run(t, "devices", "connect", "nope")
	require.Error(t, err)
	assert.Zero(t, c.fb.Requests("POST /api/devices/:id/connect")-1, "unknown id must not reach the backend")

	_, err = c.run(t, "devices", "connect")
	require.Error(t, err, "missing id is a usage error")
}

func TestLogsCommandReadsOwnLogFile(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "bot", "start")
	require.NoError(t, err)

	out, err := c.run(t, "logs", "-n", "0", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "Bot started")
	assert.Contains(t, out, "[bot]")
}
