package dashboard

import (
	"testing"
	"time"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/state"
	"github.com/five82/deckhand/internal/stream"
)

func TestCompute(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-90 * time.Minute)

	bot := state.BotState{
		Session:   state.Session{Stream: stream.Open},
		Status:    api.BotRunning,
		IsRunning: true,
		Stats:     api.BotStats{GamesPlayed: 8, Wins: 6},
		StartedAt: &started,
	}
	devices := state.DeviceState{Devices: []api.Device{
		{ID: "a", Status: api.DeviceConnected},
		{ID: "b", Status: api.DeviceOffline},
		{ID: "c", Status: api.DeviceConnected},
	}}
	system := state.SystemState{
		Session:       state.Session{Stream: stream.Open},
		Notifications: []api.Notification{{ID: "1"}, {ID: "2", Read: true}},
	}

	got := Compute(bot, devices, system, now)
	if got.ConnectedDevices != 2 || got.TotalDevices != 3 {
		t.Fatalf("devices = %d/%d, want 2/3", got.ConnectedDevices, got.TotalDevices)
	}
	if got.WinRate != 75 {
		t.Fatalf("WinRate = %v, want 75", got.WinRate)
	}
	if got.SessionDuration != 90*time.Minute {
		t.Fatalf("SessionDuration = %v, want 90m", got.SessionDuration)
	}
	if got.Unread != 1 {
		t.Fatalf("Unread = %d, want 1", got.Unread)
	}
	if got.StreamsOpen != 2 {
		t.Fatalf("StreamsOpen = %d, want 2", got.StreamsOpen)
	}
	if got.StatusLabel != "Running" {
		t.Fatalf("StatusLabel = %q, want Running", got.StatusLabel)
	}
}

func TestCompute_StoppedSessionHasNoDuration(t *testing.T) {
	started := time.Now().Add(-time.Hour)
	got := Compute(state.BotState{Status: api.BotStopped, StartedAt: &started}, state.DeviceState{}, state.SystemState{}, time.Now())
	if got.SessionDuration != 0 {
		t.Fatalf("SessionDuration = %v, want 0 when stopped", got.SessionDuration)
	}
	if got.WinRate != 0 {
		t.Fatalf("WinRate = %v, want 0 with no games", got.WinRate)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00"},
		{59 * time.Second, "0:00:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{-time.Second, "0:00:00"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
