package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/logbuf"
	"github.com/five82/deckhand/internal/stream"
)

// MaxNotifications bounds the notification history.
const MaxNotifications = 100

// SystemAPI is the slice of the backend the system store talks to.
type SystemAPI interface {
	Preferences(ctx context.Context) (api.Preferences, error)
	UpdatePreferences(ctx context.Context, patch map[string]any) error
	SystemInfo(ctx context.Context) (api.SystemInfo, error)
	Power(ctx context.Context) (api.PowerInfo, error)
	Displays(ctx context.Context) ([]api.Display, error)
	Performance(ctx context.Context) (api.Performance, error)
	Notify(ctx context.Context, n api.Notification) (api.Notification, error)
	UpdateNotificationSettings(ctx context.Context, settings api.NotificationSettings) error
	Window(ctx context.Context, op api.WindowOp) error
	SetWindowBounds(ctx context.Context, bounds api.WindowBounds) error
}

// SystemState is a snapshot of host-level state.
type SystemState struct {
	Session
	Preferences          api.Preferences
	Info                 *api.SystemInfo
	Power                *api.PowerInfo
	Displays             []api.Display
	Performance          *api.Performance
	NotificationSettings api.NotificationSettings
	// Notifications are newest first.
	Notifications []api.Notification
	WindowBounds  *api.WindowBounds
}

// Unread counts notifications not yet marked read.
func (s SystemState) Unread() int {
	n := 0
	for _, note := range s.Notifications {
		if !note.Read {
			n++
		}
	}
	return n
}

func cloneSystemState(d *SystemState, sess Session) SystemState {
	out := *d
	out.Session = sess
	if d.Info != nil {
		v := *d.Info
		out.Info = &v
	}
	if d.Power != nil {
		v := clonePower(*d.Power)
		out.Power = &v
	}
	if d.Performance != nil {
		v := *d.Performance
		if v.Temperature != nil {
			t := *v.Temperature
			v.Temperature = &t
		}
		out.Performance = &v
	}
	if d.WindowBounds != nil {
		v := *d.WindowBounds
		out.WindowBounds = &v
	}
	out.Displays = append([]api.Display(nil), d.Displays...)
	out.Notifications = append([]api.Notification(nil), d.Notifications...)
	return out
}

func clonePower(p api.PowerInfo) api.PowerInfo {
	if p.BatteryLevel != nil {
		v := *p.BatteryLevel
		p.BatteryLevel = &v
	}
	if p.IsCharging != nil {
		v := *p.IsCharging
		p.IsCharging = &v
	}
	if p.TimeRemaining != nil {
		v := *p.TimeRemaining
		p.TimeRemaining = &v
	}
	return p
}

// SystemStore holds preferences, host telemetry, and notifications.
type SystemStore struct {
	*core[SystemState]
	lifecycle
	client SystemAPI
}

// NewSystemStore returns a store holding default preferences.
func NewSystemStore(client SystemAPI, opts Options) *SystemStore {
	s := &SystemStore{client: client}
	s.core = newCore("system", SystemState{
		Preferences:          api.DefaultPreferences(),
		NotificationSettings: api.DefaultNotificationSettings(),
	}, opts, cloneSystemState)
	s.core.reduce = s.handle
	s.lifecycle = newLifecycle(opts, s.core, s.core.log)
	return s
}

// Open connects the event stream and loads preferences and host info.
func (s *SystemStore) Open(ctx context.Context) {
	s.open(ctx)
	_ = s.LoadPreferences(ctx)
	_ = s.Refresh(ctx)
}

// Close stops the event stream.
func (s *SystemStore) Close() { s.close() }

// LoadPreferences replaces local preferences with the backend's.
func (s *SystemStore) LoadPreferences(ctx context.Context) error {
	prefs, err := s.client.Preferences(ctx)
	if err != nil {
		return s.fail("Failed to load preferences", err)
	}
	s.mutate(func(d *SystemState) bool {
		d.Preferences = prefs
		return true
	})
	return nil
}

// UpdatePreferences sends a partial preference update and merges it locally
// once accepted. An empty patch makes no request.
func (s *SystemStore) UpdatePreferences(ctx context.Context, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	if _, err := mergePatch(s.Snapshot().Preferences, patch); err != nil {
		return s.fail("Invalid preferences", err)
	}
	if err := s.client.UpdatePreferences(ctx, patch); err != nil {
		return s.fail("Failed to update preferences", err)
	}
	s.mutate(func(d *SystemState) bool {
		merged, err := mergePatch(d.Preferences, patch)
		if err != nil {
			s.failLocked("Invalid preferences", err)
			return true
		}
		if merged.Theme != d.Preferences.Theme {
			s.emitLocked(ChannelThemeChanged, merged.Theme)
		}
		d.Preferences = merged
		s.succeedLocked("Preferences updated", patchDetails(patch))
		return true
	})
	return nil
}

// Refresh reads host info, power, displays, and performance. Every query is
// attempted; the joined error is returned.
func (s *SystemStore) Refresh(ctx context.Context) error {
	return errors.Join(
		s.RefreshInfo(ctx),
		s.RefreshPower(ctx),
		s.RefreshDisplays(ctx),
		s.RefreshPerformance(ctx),
	)
}

// RefreshInfo reads host information.
func (s *SystemStore) RefreshInfo(ctx context.Context) error {
	info, err := s.client.SystemInfo(ctx)
	if err != nil {
		return s.fail("Failed to fetch system info", err)
	}
	s.mutate(func(d *SystemState) bool {
		d.Info = &info
		return true
	})
	return nil
}

// RefreshPower reads battery and power-source state.
func (s *SystemStore) RefreshPower(ctx context.Context) error {
	power, err := s.client.Power(ctx)
	if err != nil {
		return s.fail("Failed to fetch power info", err)
	}
	s.mutate(func(d *SystemState) bool {
		d.Power = &power
		return true
	})
	return nil
}

// RefreshDisplays reads attached displays.
func (s *SystemStore) RefreshDisplays(ctx context.Context) error {
	displays, err := s.client.Displays(ctx)
	if err != nil {
		return s.fail("Failed to fetch displays", err)
	}
	s.mutate(func(d *SystemState) bool {
		d.Displays = displays
		return true
	})
	return nil
}

// RefreshPerformance reads a resource usage snapshot.
func (s *SystemStore) RefreshPerformance(ctx context.Context) error {
	perf, err := s.client.Performance(ctx)
	if err != nil {
		return s.fail("Failed to fetch performance", err)
	}
	s.mutate(func(d *SystemState) bool {
		d.Performance = &perf
		return true
	})
	return nil
}

// Notify raises a notification through the backend and records it.
func (s *SystemStore) Notify(ctx context.Context, title, body, level string) error {
	sent, err := s.client.Notify(ctx, api.Notification{Title: title, Body: body, Level: level})
	if err != nil {
		return s.fail("Failed to send notification", err)
	}
	if sent.Title == "" {
		sent.Title, sent.Body, sent.Level = title, body, level
	}
	s.mutate(func(d *SystemState) bool {
		s.pushNotificationLocked(d, sent)
		s.succeedLocked("Notification sent", map[string]any{"title": title})
		return true
	})
	return nil
}

// MarkNotificationsRead marks the whole history read.
func (s *SystemStore) MarkNotificationsRead() {
	s.mutate(func(d *SystemState) bool {
		changed := false
		for i := range d.Notifications {
			if !d.Notifications[i].Read {
				d.Notifications[i].Read = true
				changed = true
			}
		}
		return changed
	})
}

// UpdateNotificationSettings replaces the notification settings.
func (s *SystemStore) UpdateNotificationSettings(ctx context.Context, settings api.NotificationSettings) error {
	if err := s.client.UpdateNotificationSettings(ctx, settings); err != nil {
		return s.fail("Failed to update notification settings", err)
	}
	s.mutate(func(d *SystemState) bool {
		d.NotificationSettings = settings
		s.succeedLocked("Notification settings updated", nil)
		return true
	})
	return nil
}

// WindowControl minimizes, maximizes, or closes the companion window.
func (s *SystemStore) WindowControl(ctx context.Context, op api.WindowOp) error {
	switch op {
	case api.WindowMinimize, api.WindowMaximize, api.WindowClose:
	default:
		return s.fail("Failed to control window", fmt.Errorf("unsupported window operation %q", op))
	}
	if err := s.client.Window(ctx, op); err != nil {
		return s.fail("Failed to "+string(op)+" window", err)
	}
	s.mutate(func(*SystemState) bool {
		s.succeedLocked("Window "+string(op)+" requested", nil)
		return true
	})
	return nil
}

// SetWindowBounds moves and resizes the companion window.
func (s *SystemStore) SetWindowBounds(ctx context.Context, bounds api.WindowBounds) error {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return s.fail("Failed to set window bounds", fmt.Errorf("invalid size %dx%d", bounds.Width, bounds.Height))
	}
	if err := s.client.SetWindowBounds(ctx, bounds); err != nil {
		return s.fail("Failed to set window bounds", err)
	}
	s.mutate(func(d *SystemState) bool {
		d.WindowBounds = &bounds
		s.succeedLocked("Window bounds updated", nil)
		return true
	})
	return nil
}

func (s *SystemStore) pushNotificationLocked(d *SystemState, n api.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	d.Notifications = append([]api.Notification{n}, d.Notifications...)
	if len(d.Notifications) > MaxNotifications {
		d.Notifications = d.Notifications[:MaxNotifications]
	}
	s.emitLocked(ChannelNotification, n)
}

// System stream event variants.
type (
	themeChangedEvent struct{ Patch map[string]any }
	performanceEvent  struct{ api.Performance }
	powerEvent        struct{ api.PowerInfo }
	notificationEvent struct{ api.Notification }
)

func decodeSystemEvent(msg stream.Message) (any, error) {
	switch msg.Type {
	case "theme_changed":
		var d map[string]any
		err := msg.Unmarshal(&d)
		return themeChangedEvent{d}, err
	case "performance_update":
		var d api.Performance
		err := msg.Unmarshal(&d)
		return performanceEvent{d}, err
	case "power_update":
		var d api.PowerInfo
		err := msg.Unmarshal(&d)
		return powerEvent{d}, err
	case "notification":
		var d api.Notification
		err := msg.Unmarshal(&d)
		return notificationEvent{d}, err
	default:
		return unknownEvent{Type: msg.Type}, nil
	}
}

func (s *SystemStore) handle(msg stream.Message) {
	handleEvent(s.core, msg, decodeSystemEvent, s.fold)
}

func (s *SystemStore) fold(d *SystemState, ev any) bool {
	switch e := ev.(type) {
	case themeChangedEvent:
		merged, err := mergePatch(d.Preferences, themePatch(e.Patch))
		if err != nil {
			s.recordLocked(logbuf.LevelError, "Malformed theme_changed event", map[string]any{"error": err.Error()})
			return true
		}
		changed := merged != d.Preferences
		if merged.Theme != d.Preferences.Theme {
			s.emitLocked(ChannelThemeChanged, merged.Theme)
		}
		d.Preferences = merged
		return changed
	case performanceEvent:
		p := e.Performance
		d.Performance = &p
		return true
	case powerEvent:
		p := clonePower(e.PowerInfo)
		d.Power = &p
		return true
	case notificationEvent:
		s.pushNotificationLocked(d, e.Notification)
		return true
	}
	return false
}

// themePatch keeps only preference keys, so envelope fields such as
// type and timestamp in a flat message do not fail the merge.
func themePatch(raw map[string]any) map[string]any {
	allowed := map[string]bool{
		"theme": true, "accent_color": true, "reduce_motion": true,
		"high_contrast": true, "transparency": true, "language": true,
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}
