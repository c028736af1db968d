package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/deckhand/internal/dashboard"
	"github.com/five82/deckhand/internal/logbuf"
)

const logo = "deckhand"

func (m Model) renderMain() string {
	sections := []string{
		m.renderHeader(),
		m.renderTabs(),
		m.renderContent(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	st := m.theme.Styles()
	s := m.summary

	status := st.StatusStyle(string(m.botState.Status)).Render(s.StatusLabel)
	streams := fmt.Sprintf("%d/3 streams", s.StreamsOpen)
	streamStyle := st.SuccessText
	if s.StreamsOpen < 3 {
		streamStyle = st.WarningText
	}

	parts := []string{
		st.Logo.Render(logo),
		status,
		st.Text.Render(fmt.Sprintf("Devices %d/%d", s.ConnectedDevices, s.TotalDevices)),
		st.Text.Render(fmt.Sprintf("Games %d", s.GamesPlayed)),
		st.Text.Render(fmt.Sprintf("Win %.1f%%", s.WinRate)),
		st.Text.Render("Session " + dashboard.FormatDuration(s.SessionDuration)),
		streamStyle.Render(streams),
	}
	if s.Unread > 0 {
		parts = append(parts, st.AccentText.Render(fmt.Sprintf("● %d unread", s.Unread)))
	}
	return st.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderTabs() string {
	st := m.theme.Styles()
	tabs := make([]string, 0, viewCount)
	for v := View(0); v < viewCount; v++ {
		label := v.String()
		if v == ViewNotifications && m.summary.Unread > 0 {
			label = fmt.Sprintf("%s (%d)", label, m.summary.Unread)
		}
		if v == m.view {
			tabs = append(tabs, st.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, st.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderContent() string {
	switch m.view {
	case ViewDevices:
		return m.renderDevices()
	case ViewLogs:
		return m.activity.View()
	case ViewNotifications:
		return m.renderNotifications()
	default:
		return m.renderOverview()
	}
}

func (m Model) renderOverview() string {
	st := m.theme.Styles()
	b := m.botState

	var lines []string
	lines = append(lines, st.AccentText.Render("Bot"))
	lines = append(lines, fmt.Sprintf("Status   %s", st.StatusStyle(string(b.Status)).Render(string(b.Status))))
	lines = append(lines, fmt.Sprintf("Mode     %s  floor %d", b.Config.Mode, b.Config.Floor))
	if g := b.CurrentGame; g != nil {
		lines = append(lines, fmt.Sprintf("Game     %s wave %d", g.Mode, g.Wave))
	} else {
		lines = append(lines, st.MutedText.Render("Game     none"))
	}
	lines = append(lines, fmt.Sprintf("Record   %dW / %dL  merges %d  upgrades %d",
		b.Stats.Wins, b.Stats.Losses, b.Stats.MergesPerformed, b.Stats.CardsUpgraded))
	if b.Error != "" {
		lines = append(lines, st.DangerText.Render(b.Error))
	}

	perf := m.systemState.Performance
	lines = append(lines, "", st.AccentText.Render("Host"))
	if info := m.systemState.Info; info != nil {
		lines = append(lines, fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, info.Architecture))
	}
	if perf != nil {
		lines = append(lines, fmt.Sprintf("CPU %.0f%%  Memory %.0f%%  Disk %.0f%%", perf.CPUUsage, perf.MemoryUsage, perf.DiskUsage))
	} else {
		lines = append(lines, st.MutedText.Render("No performance sample yet"))
	}

	lines = append(lines, "", st.AccentText.Render("Recent activity"))
	for _, e := range m.mergedActivity(5) {
		lines = append(lines, m.formatEntry(e))
	}
	return st.Panel.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderDevices() string {
	st := m.theme.Styles()
	d := m.deviceState

	var lines []string
	header := fmt.Sprintf("%-2s%-24s %-20s %-14s %s", "", "NAME", "ID", "STATUS", "BATTERY")
	lines = append(lines, st.MutedText.Render(header))
	if len(d.Devices) == 0 {
		msg := "No devices. Press r to scan."
		if d.IsScanning {
			msg = "Scanning..."
		}
		lines = append(lines, st.FaintText.Render(msg))
	}
	for i, dev := range d.Devices {
		marker := " "
		if dev.ID == d.Selected {
			marker = "›"
		}
		battery := "-"
		if dev.BatteryLevel != nil {
			battery = fmt.Sprintf("%d%%", *dev.BatteryLevel)
		}
		name := dev.Name
		if name == "" {
			name = dev.ID
		}
		row := fmt.Sprintf("%-2s%-24s %-20s ", marker, truncate(name, 24), truncate(dev.ID, 20))
		badge := st.StatusStyle(string(dev.Status)).Render(string(dev.Status))
		line := row + badge + " " + battery
		if i == m.cursor {
			line = st.Selected.Render(row) + badge + " " + battery
		}
		lines = append(lines, line)
	}

	footer := []string{}
	if d.ADB != nil {
		state := "stopped"
		if d.ADB.Running {
			state = "running " + d.ADB.Version
		}
		footer = append(footer, "adb "+state)
	}
	if d.IsConnecting {
		footer = append(footer, "connecting...")
	}
	if d.Error != "" {
		footer = append(footer, st.DangerText.Render(d.Error))
	}
	if len(footer) > 0 {
		lines = append(lines, "", strings.Join(footer, "  "))
	}
	return st.Panel.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderNotifications() string {
	st := m.theme.Styles()
	notes := m.systemState.Notifications
	if len(notes) == 0 {
		return st.Panel.Width(max(m.width-2, 20)).Render(st.FaintText.Render("No notifications"))
	}
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		style := st.Text
		if !n.Read {
			style = st.AccentText
		}
		text := n.Title
		if n.Body != "" {
			text += ": " + n.Body
		}
		lines = append(lines, st.FaintText.Render(n.Timestamp.Local().Format("15:04:05"))+" "+style.Render(text))
	}
	return st.Panel.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	st := m.theme.Styles()
	left := m.help.View(m.keys)
	if m.flash != "" {
		style := st.InfoText
		if m.flashBad {
			style = st.DangerText
		}
		left = style.Render(m.flash) + "  " + left
	}
	return st.Footer.Render(left)
}

func (m Model) renderHelp() string {
	st := m.theme.Styles()
	h := m.help
	h.ShowAll = true
	body := st.AccentText.Render("Keys") + "\n\n" + h.View(m.keys) + "\n\n" +
		st.MutedText.Render("Themes: "+strings.Join(ThemeNames(), ", ")+"  (current "+m.theme.Name+")") + "\n" +
		st.FaintText.Render("Press any key to close")
	return st.FocusPanel.Render(body)
}

// renderActivity merges the three store logs newest first.
func (m Model) renderActivity() string {
	entries := m.mergedActivity(activityLimit)
	if len(entries) == 0 {
		return m.theme.Styles().FaintText.Render("No activity yet")
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = m.formatEntry(e)
	}
	return strings.Join(lines, "\n")
}

func (m Model) mergedActivity(limit int) []logbuf.Entry {
	all := make([]logbuf.Entry, 0, len(m.botState.Logs)+len(m.deviceState.Logs)+len(m.systemState.Logs))
	all = append(all, m.botState.Logs...)
	all = append(all, m.deviceState.Logs...)
	all = append(all, m.systemState.Logs...)
	sort.Slice(all, func(i, j int) bool { return all[i].Seq > all[j].Seq })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

func (m Model) formatEntry(e logbuf.Entry) string {
	st := m.theme.Styles()
	return fmt.Sprintf("%s %s %s %s",
		st.FaintText.Render(e.Timestamp.Local().Format("15:04:05")),
		st.LevelStyle(e.Level).Render(fmt.Sprintf("%-7s", strings.ToUpper(string(e.Level)))),
		st.MutedText.Render("["+e.Source+"]"),
		e.Message,
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
