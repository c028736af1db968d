package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is deckhand's runtime configuration.
type Config struct {
	APIURL         string
	WSURL          string
	ReconnectDelay time.Duration
	PollInterval   time.Duration
	LogCapacity    int
	LogLevel       string
	LogFile        string
}

const (
	defaultConfigPath       = "~/.config/deckhand/config.toml"
	defaultAPIURL           = "http://127.0.0.1:8000/api"
	defaultReconnectDelayMS = 5000
	defaultPollSeconds      = 2
	defaultLogCapacity      = 1000
	defaultLogLevel         = "info"
	defaultLogFile          = "~/.local/share/deckhand/deckhand.log"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		WSURL:          deriveWSURL(defaultAPIURL),
		ReconnectDelay: defaultReconnectDelayMS * time.Millisecond,
		PollInterval:   defaultPollSeconds * time.Second,
		LogCapacity:    defaultLogCapacity,
		LogLevel:       defaultLogLevel,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL           string `toml:"api_url"`
		WSURL            string `toml:"ws_url"`
		ReconnectDelayMS int    `toml:"reconnect_delay_ms"`
		PollSeconds      int    `toml:"poll_seconds"`
		LogCapacity      int    `toml:"log_capacity"`
		LogLevel         string `toml:"log_level"`
		LogFile          string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
		cfg.WSURL = deriveWSURL(cfg.APIURL)
	}
	if v := strings.TrimSpace(raw.WSURL); v != "" {
		cfg.WSURL = strings.TrimRight(v, "/")
	}
	if raw.ReconnectDelayMS > 0 {
		cfg.ReconnectDelay = time.Duration(raw.ReconnectDelayMS) * time.Millisecond
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.LogCapacity > 0 {
		cfg.LogCapacity = raw.LogCapacity
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}

	return cfg, nil
}

// StreamURL returns the WebSocket endpoint for one domain stream.
func (c Config) StreamURL(channel string) string {
	base := strings.TrimSpace(c.WSURL)
	if base == "" {
		base = deriveWSURL(c.APIURL)
	}
	return strings.TrimRight(base, "/") + "/" + channel
}

// deriveWSURL maps http://host/api to ws://host/ws.
func deriveWSURL(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return "ws://127.0.0.1:8000/ws"
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
