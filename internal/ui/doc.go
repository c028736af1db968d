// Package ui is deckhand's Bubble Tea dashboard.
//
// # Views
//
// Four tabs, cycled with tab and shift+tab:
//
//   - Overview: bot status, current game, host performance, recent activity
//   - Devices: the device list with a cursor; c connects, x disconnects
//   - Activity: the bot, device, and system logs merged newest first
//   - Notifications: backend notices, marked read when the tab opens
//
// The header carries the dashboard summary: bot status badge, connected
// devices, games played, win rate, session clock, and how many of the
// three event streams are open.
//
// # Data Flow
//
// The model never polls the stores. Attach subscribes to each store and to
// the bridge bus; publications become messages on two channels that Init
// and Update keep draining:
//
//	store.Subscribe ──signal──> changes (cap 1) ──> storesChangedMsg ──> Snapshot()
//	bridge.On       ──push────> events  (cap 32) ──> bridgeMsg
//	prefs.Watch     ──push────> events           ──> prefsMsg
//
// The changes channel coalesces bursts: one pending signal is enough
// because the handler re-reads every snapshot. Neither send blocks, so a
// store publishing from its stream goroutine is never held up by the UI.
//
// Store actions (start, scan, connect) run as tea.Cmds. The stores record
// their own outcome in the activity log; the UI only echoes failures in the
// status line.
//
// # Themes
//
// Nightfox, Kanagawa, and Slate. T cycles them and saves the choice to the
// prefs file, which pins it. When prefs allow following the system theme,
// theme-changed events from the backend switch to a matching local theme.
package ui
