package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.WSURL != "ws://127.0.0.1:8000/ws" {
		t.Fatalf("WSURL = %q, want ws://127.0.0.1:8000/ws", cfg.WSURL)
	}
	if cfg.ReconnectDelay != 5*time.Second {
		t.Fatalf("ReconnectDelay = %v, want 5s", cfg.ReconnectDelay)
	}
	if cfg.LogCapacity != defaultLogCapacity {
		t.Fatalf("LogCapacity = %d, want %d", cfg.LogCapacity, defaultLogCapacity)
	}

	wantLogFile, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLogFile {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLogFile)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://bots.example.com/api/  "
reconnect_delay_ms = 250
poll_seconds = 7
log_capacity = 50
log_level = " DEBUG "
log_file = "  ~/.deckhand/deckhand.log  "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://bots.example.com/api" {
		t.Fatalf("APIURL = %q, want trimmed https URL", cfg.APIURL)
	}
	if got := cfg.StreamURL("bot"); got != "wss://bots.example.com/ws/bot" {
		t.Fatalf("StreamURL(bot) = %q, want wss://bots.example.com/ws/bot", got)
	}
	if cfg.ReconnectDelay != 250*time.Millisecond || cfg.PollInterval != 7*time.Second {
		t.Fatalf("durations = %v/%v, want 250ms/7s", cfg.ReconnectDelay, cfg.PollInterval)
	}
	if cfg.LogCapacity != 50 || cfg.LogLevel != "debug" {
		t.Fatalf("log settings = %d/%q, want 50/debug", cfg.LogCapacity, cfg.LogLevel)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_ExplicitWSURLWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "http://10.0.0.5:8000/api"
ws_url = "ws://10.0.0.6:9000/events/"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.StreamURL("devices"); got != "ws://10.0.0.6:9000/events/devices" {
		t.Fatalf("StreamURL(devices) = %q", got)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "   "
reconnect_delay_ms = 0
log_level = ""
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.ReconnectDelay != 5*time.Second || cfg.LogLevel != defaultLogLevel {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestLoad_InvalidTOMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = [unterminated"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse config error", err)
	}
}
