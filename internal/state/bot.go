package state

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/logbuf"
	"github.com/five82/deckhand/internal/stream"
)

// BotAPI is the slice of the backend the bot store talks to.
type BotAPI interface {
	StartBot(ctx context.Context, cfg api.BotConfig) (api.ActionResult, error)
	StopBot(ctx context.Context) (api.ActionResult, error)
	PauseBot(ctx context.Context) (api.ActionResult, error)
	ResumeBot(ctx context.Context) (api.ActionResult, error)
	QuickStart(ctx context.Context) (api.ActionResult, error)
	QuitGame(ctx context.Context) error
	UpdateBotConfig(ctx context.Context, patch map[string]any) error
	ClearBotLogs(ctx context.Context) error
	BotStatus(ctx context.Context) (api.BotStatusPayload, error)
}

// BotState is a snapshot of the bot session.
type BotState struct {
	Session
	Status      api.BotStatus
	IsRunning   bool
	Config      api.BotConfig
	Stats       api.BotStats
	CurrentGame *api.GameInfo
	StartedAt   *time.Time
}

// BotStatusChange is emitted on the bot-status-changed channel.
type BotStatusChange struct {
	From api.BotStatus `json:"from"`
	To   api.BotStatus `json:"to"`
}

func cloneBotState(d *BotState, sess Session) BotState {
	out := *d
	out.Session = sess
	if d.CurrentGame != nil {
		g := *d.CurrentGame
		out.CurrentGame = &g
	}
	if d.StartedAt != nil {
		t := *d.StartedAt
		out.StartedAt = &t
	}
	if d.Stats.SessionStart != nil {
		t := *d.Stats.SessionStart
		out.Stats.SessionStart = &t
	}
	return out
}

// BotStore holds bot session state and dispatches bot actions.
type BotStore struct {
	*core[BotState]
	lifecycle
	client BotAPI
}

// NewBotStore returns a stopped store with default configuration.
func NewBotStore(client BotAPI, opts Options) *BotStore {
	s := &BotStore{client: client}
	s.core = newCore("bot", BotState{
		Status: api.BotStopped,
		Config: api.DefaultBotConfig(),
	}, opts, cloneBotState)
	s.core.reduce = s.handle
	s.lifecycle = newLifecycle(opts, s.core, s.core.log)
	return s
}

// Open connects the event stream and fetches the current status.
func (s *BotStore) Open(ctx context.Context) {
	s.open(ctx)
	_ = s.RefreshStatus(ctx)
}

// Close stops the event stream. Subsequent actions still reach the backend.
func (s *BotStore) Close() { s.close() }

// setStatusLocked moves to status and queues a bridge emission on change.
func (s *BotStore) setStatusLocked(d *BotState, status api.BotStatus) {
	prev := d.Status
	d.Status = status
	d.IsRunning = status.Active()
	if prev != status {
		s.emitLocked(ChannelBotStatusChanged, BotStatusChange{From: prev, To: status})
	}
}

// transition is the shared confirmed-action path for start, stop, pause,
// resume, and quick start.
func (s *BotStore) transition(ctx context.Context, what, done string, call func(context.Context) (api.ActionResult, error), to api.BotStatus, apply func(d *BotState)) error {
	res, err := call(ctx)
	if err != nil {
		return s.fail("Failed to "+what, err)
	}
	s.mutate(func(d *BotState) bool {
		s.setStatusLocked(d, to)
		if apply != nil {
			apply(d)
		}
		var details any
		if res.State != "" {
			details = map[string]any{"backend_state": res.State}
		}
		s.succeedLocked(done, details)
		return true
	})
	return nil
}

// Start launches a session with the current configuration.
func (s *BotStore) Start(ctx context.Context) error {
	cfg := s.Snapshot().Config
	return s.transition(ctx, "start bot", "Bot started", func(ctx context.Context) (api.ActionResult, error) {
		return s.client.StartBot(ctx, cfg)
	}, api.BotRunning, func(d *BotState) {
		now := time.Now()
		d.StartedAt = &now
	})
}

// Stop ends the session.
func (s *BotStore) Stop(ctx context.Context) error {
	return s.transition(ctx, "stop bot", "Bot stopped", s.client.StopBot, api.BotStopped, func(d *BotState) {
		d.CurrentGame = nil
		d.StartedAt = nil
	})
}

// Pause suspends the session.
func (s *BotStore) Pause(ctx context.Context) error {
	return s.transition(ctx, "pause bot", "Bot paused", s.client.PauseBot, api.BotPaused, nil)
}

// Resume continues a paused session.
func (s *BotStore) Resume(ctx context.Context) error {
	return s.transition(ctx, "resume bot", "Bot resumed", s.client.ResumeBot, api.BotRunning, nil)
}

// TogglePause pauses a running session and resumes a paused one.
func (s *BotStore) TogglePause(ctx context.Context) error {
	if s.Snapshot().Status == api.BotPaused {
		return s.Resume(ctx)
	}
	return s.Pause(ctx)
}

// QuickStart launches a session with the backend's saved configuration.
func (s *BotStore) QuickStart(ctx context.Context) error {
	return s.transition(ctx, "quick start", "Quick start initiated", s.client.QuickStart, api.BotRunning, func(d *BotState) {
		if d.StartedAt == nil {
			now := time.Now()
			d.StartedAt = &now
		}
	})
}

// QuitGame leaves the current match without stopping the session.
func (s *BotStore) QuitGame(ctx context.Context) error {
	if err := s.client.QuitGame(ctx); err != nil {
		return s.fail("Failed to quit game", err)
	}
	s.mutate(func(d *BotState) bool {
		d.CurrentGame = nil
		s.succeedLocked("Left current game", nil)
		return true
	})
	return nil
}

// UpdateConfig sends a partial configuration and merges it locally once the
// backend accepts it. An empty patch is the identity and makes no request.
func (s *BotStore) UpdateConfig(ctx context.Context, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	if _, err := mergePatch(s.Snapshot().Config, patch); err != nil {
		return s.fail("Invalid bot configuration", err)
	}
	if err := s.client.UpdateBotConfig(ctx, patch); err != nil {
		return s.fail("Failed to update bot configuration", err)
	}
	s.mutate(func(d *BotState) bool {
		// Re-merge against the live value so concurrent events are kept.
		merged, err := mergePatch(d.Config, patch)
		if err != nil {
			s.failLocked("Invalid bot configuration", err)
			return true
		}
		d.Config = merged
		s.succeedLocked("Bot configuration updated", patchDetails(patch))
		return true
	})
	return nil
}

// ClearLogs clears the backend log and, on success, the local one. The
// result is a log holding only the confirmation entry.
func (s *BotStore) ClearLogs(ctx context.Context) error {
	if err := s.client.ClearBotLogs(ctx); err != nil {
		return s.fail("Failed to clear logs", err)
	}
	s.clearLogs("Logs cleared")
	return nil
}

// RefreshStatus replaces local state with the backend's view. Success does
// not log.
func (s *BotStore) RefreshStatus(ctx context.Context) error {
	payload, err := s.client.BotStatus(ctx)
	if err != nil {
		return s.fail("Failed to fetch bot status", err)
	}
	s.mutate(func(d *BotState) bool {
		if status, ok := api.ParseBotStatus(payload.Effective()); ok {
			s.setStatusLocked(d, status)
		} else if payload.Effective() != "" {
			s.recordLocked(logbuf.LevelWarning, fmt.Sprintf("Ignoring unknown bot status %q", payload.Effective()), nil)
		}
		if payload.Config != nil {
			d.Config = *payload.Config
		}
		if payload.Stats != nil {
			d.Stats = *payload.Stats
		}
		d.CurrentGame = payload.CurrentGame
		if payload.ErrorMessage != "" {
			s.session.Error = payload.ErrorMessage
		}
		return true
	})
	return nil
}

// Bot stream event variants.
type (
	statusUpdateEvent struct{ api.StatusUpdateData }
	statsUpdateEvent  struct{ api.BotStats }
	gameUpdateEvent   struct{ api.GameUpdateData }
)

func decodeBotEvent(msg stream.Message) (any, error) {
	switch msg.Type {
	case "status_update":
		var d api.StatusUpdateData
		err := msg.Unmarshal(&d)
		return statusUpdateEvent{d}, err
	case "stats_update":
		var d api.BotStats
		err := msg.Unmarshal(&d)
		return statsUpdateEvent{d}, err
	case "game_update":
		var d api.GameUpdateData
		err := msg.Unmarshal(&d)
		return gameUpdateEvent{d}, err
	default:
		return unknownEvent{Type: msg.Type}, nil
	}
}

func (s *BotStore) handle(msg stream.Message) {
	handleEvent(s.core, msg, decodeBotEvent, s.fold)
}

func (s *BotStore) fold(d *BotState, ev any) bool {
	switch e := ev.(type) {
	case statusUpdateEvent:
		status, ok := api.ParseBotStatus(e.Effective())
		if !ok {
			s.recordLocked(logbuf.LevelWarning, fmt.Sprintf("Ignoring unknown bot status %q", e.Effective()), nil)
			return true
		}
		changed := d.Status != status
		s.setStatusLocked(d, status)
		if status == api.BotStopped {
			d.CurrentGame = nil
		}
		if e.Error != "" {
			s.session.Error = e.Error
			s.recordLocked(logbuf.LevelError, "Bot reported error: "+e.Error, nil)
			return true
		}
		if changed {
			s.recordLocked(logbuf.LevelInfo, fmt.Sprintf("Bot status changed to %s", status), nil)
		}
		return changed
	case statsUpdateEvent:
		d.Stats = e.BotStats
		return true
	case gameUpdateEvent:
		d.CurrentGame = e.Game
		if e.Result != "" {
			s.recordLocked(logbuf.LevelInfo, "Game finished: "+e.Result, nil)
		}
		return true
	}
	return false
}

func patchDetails(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
