// Package config loads deckhand's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/deckhand/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing, empty, or non-positive, use defaults
//
// A file that exists but cannot be parsed is an error; deckhand refuses to
// start against a half-read configuration.
//
// # Default Values
//
//   - api_url: http://127.0.0.1:8000/api
//   - ws_url: derived from api_url (http→ws, https→wss, path /ws)
//   - reconnect_delay_ms: 5000
//   - poll_seconds: 2
//   - log_capacity: 1000 entries per store
//   - log_level: info
//   - log_file: ~/.local/share/deckhand/deckhand.log
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:8000/api"
//	ws_url = "ws://127.0.0.1:8000/ws"
//	reconnect_delay_ms = 5000
//	poll_seconds = 2
//	log_capacity = 1000
//	log_level = "info"
//	log_file = "~/.local/share/deckhand/deckhand.log"
//
// Each domain stream lives under ws_url: StreamURL("bot") yields
// <ws_url>/bot, and likewise for devices and system.
//
// # Path Expansion
//
// Tilde paths expand to the home directory and relative paths become
// absolute against the working directory.
package config
