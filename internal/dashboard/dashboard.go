// Package dashboard derives presentation values from store snapshots.
package dashboard

import (
	"fmt"
	"time"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/state"
)

// Summary is what the dashboard header shows.
type Summary struct {
	StatusLabel      string
	ConnectedDevices int
	TotalDevices     int
	GamesPlayed      int
	WinRate          float64
	SessionDuration  time.Duration
	Unread           int
	StreamsOpen      int
}

// Compute derives a Summary. It performs no I/O and keeps no state.
func Compute(bot state.BotState, devices state.DeviceState, system state.SystemState, now time.Time) Summary {
	s := Summary{
		StatusLabel:      statusLabel(bot.Status),
		ConnectedDevices: devices.ConnectedCount(),
		TotalDevices:     len(devices.Devices),
		GamesPlayed:      bot.Stats.GamesPlayed,
		WinRate:          WinRate(bot.Stats),
		Unread:           system.Unread(),
	}
	if bot.IsRunning {
		start := bot.StartedAt
		if start == nil {
			start = bot.Stats.SessionStart
		}
		if start != nil && now.After(*start) {
			s.SessionDuration = now.Sub(*start)
		}
	}
	for _, open := range []bool{bot.Connected(), devices.Connected(), system.Connected()} {
		if open {
			s.StreamsOpen++
		}
	}
	return s
}

// WinRate returns wins as a percentage of games played, 0 with no games.
func WinRate(stats api.BotStats) float64 {
	if stats.GamesPlayed <= 0 {
		return 0
	}
	return float64(stats.Wins) / float64(stats.GamesPlayed) * 100
}

// FormatDuration renders a session length as H:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func statusLabel(status api.BotStatus) string {
	switch status {
	case api.BotRunning:
		return "Running"
	case api.BotPaused:
		return "Paused"
	case api.BotError:
		return "Error"
	default:
		return "Stopped"
	}
}
