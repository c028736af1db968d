package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/bridge"
	"github.com/five82/deckhand/internal/config"
	"github.com/five82/deckhand/internal/logging"
	"github.com/five82/deckhand/internal/prefs"
	"github.com/five82/deckhand/internal/state"
	"github.com/five82/deckhand/internal/stream"
	"github.com/five82/deckhand/internal/ui"
)

// Stream channels under the backend's WebSocket root.
const (
	streamBot     = "bot"
	streamDevices = "devices"
	streamSystem  = "system"
)

// Options configure deckhand.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/deckhand/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
}

// Runtime is the wired set of client, bus, and stores.
type Runtime struct {
	Config  config.Config
	Client  *api.Client
	Bus     *bridge.Bus
	Bot     *state.BotStore
	Devices *state.DeviceStore
	System  *state.SystemStore

	closeLog func() error
}

// NewRuntime loads configuration, points logging at the log file, and
// builds the stores. With streams false the stores never open a WebSocket,
// which suits one-shot commands.
func NewRuntime(opts Options, streams bool) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := api.NewClient(cfg.APIURL)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	bus := bridge.New(logging.For("bridge"))
	storeOpts := func(channel string) state.Options {
		o := state.Options{
			ReconnectDelay: cfg.ReconnectDelay,
			LogCapacity:    cfg.LogCapacity,
			Logger:         logging.For(channel),
			Emitter:        bus,
		}
		if streams {
			o.StreamURL = cfg.StreamURL(channel)
		}
		return o
	}

	return &Runtime{
		Config:   cfg,
		Client:   client,
		Bus:      bus,
		Bot:      state.NewBotStore(client, storeOpts(streamBot)),
		Devices:  state.NewDeviceStore(client, storeOpts(streamDevices)),
		System:   state.NewSystemStore(client, storeOpts(streamSystem)),
		closeLog: closeLog,
	}, nil
}

// Open starts each store's stream and initial load.
func (r *Runtime) Open(ctx context.Context) {
	r.Bot.Open(ctx)
	r.Devices.Open(ctx)
	r.System.Open(ctx)
}

// Close stops the streams and flushes the log file.
func (r *Runtime) Close() error {
	r.Bot.Close()
	r.Devices.Close()
	r.System.Close()
	if r.closeLog != nil {
		return r.closeLog()
	}
	return nil
}

// Run boots the dashboard until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	rt, err := NewRuntime(opts, true)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, _ := prefs.Load(prefsPath)

	log := logging.For("app")
	log.WithField("api", rt.Config.APIURL).Info("deckhand starting")

	rt.Open(ctx)
	StartPoller(ctx, logging.For("poller"), rt.Config.PollInterval,
		rt.System.RefreshPerformance,
		unlessStreaming(rt.Bot.Stream(), rt.Bot.RefreshStatus),
	)

	err = ui.Run(ui.Options{
		Context:           ctx,
		Bot:               rt.Bot,
		Devices:           rt.Devices,
		System:            rt.System,
		Bus:               rt.Bus,
		Logger:            log,
		ThemeName:         userPrefs.Theme,
		FollowSystemTheme: userPrefs.FollowSystemTheme,
		PrefsPath:         prefsPath,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("dashboard: %w", err)
	}
	log.Info("deckhand stopped")
	return nil
}

// unlessStreaming skips fn while the stream is delivering events, so
// status polling only fills gaps.
func unlessStreaming(s *stream.Stream, fn Refresher) Refresher {
	return func(ctx context.Context) error {
		if s != nil && s.Connected() {
			return nil
		}
		return fn(ctx)
	}
}
