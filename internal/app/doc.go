// Package app is deckhand's composition root.
//
// NewRuntime loads config, sets up the log file, and builds the API client,
// the bridge bus, and the three stores. Run opens the stores, starts the
// poller, and hands everything to the dashboard:
//
//	Run()
//	  ├─> config.Load()        ~/.config/deckhand/config.toml
//	  ├─> logging.Setup()      JSON lines to the log file
//	  ├─> api.NewClient()
//	  ├─> bridge.New()         stores emit, the dashboard listens
//	  ├─> store.Open()         stream + initial load, per store
//	  ├─> StartPoller()        performance samples, status fallback
//	  └─> ui.Run()             blocks until quit
//
// The poller runs each refresher in turn. A round with any failure doubles
// the wait before the next, up to 30 seconds; a clean round resets it. Bot
// status is only polled while the bot stream is down, since the stream
// already carries status_update events.
//
// One-shot CLI commands call NewRuntime with streams disabled and drive the
// stores directly, so they log and fail exactly like the dashboard does.
package app
