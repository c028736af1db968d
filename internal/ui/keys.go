package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	// Bot
	StartStop  key.Binding
	Pause      key.Binding
	QuickStart key.Binding
	ClearLogs  key.Binding

	// Devices
	Scan       key.Binding
	Connect    key.Binding
	Disconnect key.Binding
	Up         key.Binding
	Down       key.Binding

	// Notifications
	MarkRead key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),

		StartStop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Start/stop bot"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pause/resume"),
		),
		QuickStart: key.NewBinding(
			key.WithKeys("Q"),
			key.WithHelp("Q", "Quick start"),
		),
		ClearLogs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Clear bot logs"),
		),

		Scan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Scan devices"),
		),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Connect device"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Disconnect device"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),

		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Mark notifications read"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.StartStop, k.Pause, k.Scan, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Up, k.Down},
		{k.StartStop, k.Pause, k.QuickStart, k.ClearLogs},
		{k.Scan, k.Connect, k.Disconnect},
		{k.MarkRead, k.CycleTheme, k.Help, k.Quit},
	}
}
