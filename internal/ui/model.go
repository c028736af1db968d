package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/bridge"
	"github.com/five82/deckhand/internal/dashboard"
	"github.com/five82/deckhand/internal/prefs"
	"github.com/five82/deckhand/internal/state"
)

// BotController is the part of the bot store the dashboard drives.
type BotController interface {
	Snapshot() state.BotState
	Subscribe(fn func(state.BotState)) (unsubscribe func())
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	TogglePause(ctx context.Context) error
	QuickStart(ctx context.Context) error
	ClearLogs(ctx context.Context) error
}

// DeviceController is the part of the device store the dashboard drives.
type DeviceController interface {
	Snapshot() state.DeviceState
	Subscribe(fn func(state.DeviceState)) (unsubscribe func())
	Scan(ctx context.Context) error
	Connect(ctx context.Context, id string) error
	Disconnect(ctx context.Context, id string) error
	Select(id string) error
}

// SystemController is the part of the system store the dashboard drives.
type SystemController interface {
	Snapshot() state.SystemState
	Subscribe(fn func(state.SystemState)) (unsubscribe func())
	MarkNotificationsRead()
}

// View is the active dashboard tab.
type View int

const (
	ViewOverview View = iota
	ViewDevices
	ViewLogs
	ViewNotifications
	viewCount
)

func (v View) String() string {
	switch v {
	case ViewDevices:
		return "Devices"
	case ViewLogs:
		return "Activity"
	case ViewNotifications:
		return "Notifications"
	default:
		return "Overview"
	}
}

// Options configure the dashboard.
type Options struct {
	Context context.Context
	Bot     BotController
	Devices DeviceController
	System  SystemController
	Bus     *bridge.Bus
	Logger  *logrus.Entry

	// Tick drives the session clock. Zero means one second.
	Tick time.Duration

	ThemeName         string
	FollowSystemTheme bool
	PrefsPath         string
}

const (
	activityLimit = 200
	eventBacklog  = 32
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	bot     BotController
	devices DeviceController
	system  SystemController
	bus     *bridge.Bus
	log     *logrus.Entry

	prefsPath    string
	followSystem bool
	tick         time.Duration

	// changes carries at most one pending "stores moved" signal; events
	// carries bridge payloads and prefs reloads.
	changes chan tea.Msg
	events  chan tea.Msg

	theme    Theme
	keys     keyMap
	help     help.Model
	view     View
	width    int
	height   int
	ready    bool
	showHelp bool

	botState    state.BotState
	deviceState state.DeviceState
	systemState state.SystemState
	summary     dashboard.Summary
	now         time.Time

	cursor   int
	activity viewport.Model
	flash    string
	flashBad bool
}

// New builds the model. Call Attach before running it so store and bridge
// updates reach the program.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = themeOrder[0]
	}
	return Model{
		ctx:          ctx,
		bot:          opts.Bot,
		devices:      opts.Devices,
		system:       opts.System,
		bus:          opts.Bus,
		log:          log.WithField("component", "ui"),
		prefsPath:    opts.PrefsPath,
		followSystem: opts.FollowSystemTheme,
		tick:         tick,
		changes:      make(chan tea.Msg, 1),
		events:       make(chan tea.Msg, eventBacklog),
		theme:        GetTheme(themeName),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		now:          time.Now(),
		activity:     viewport.New(0, 0),
	}
}

// Attach subscribes to the stores and the bridge. The returned function
// detaches everything.
func (m Model) Attach() (detach func()) {
	var offs []func()
	if m.bot != nil {
		offs = append(offs, m.bot.Subscribe(func(state.BotState) { m.signal() }))
	}
	if m.devices != nil {
		offs = append(offs, m.devices.Subscribe(func(state.DeviceState) { m.signal() }))
	}
	if m.system != nil {
		offs = append(offs, m.system.Subscribe(func(state.SystemState) { m.signal() }))
	}
	if m.bus != nil {
		for _, ch := range bridge.DefaultChannels {
			channel := ch
			offs = append(offs, m.bus.On(channel, func(payload any) {
				m.push(bridgeMsg{channel: channel, payload: payload})
			}))
		}
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// signal never blocks; store publications happen on the stores' goroutines.
func (m Model) signal() {
	select {
	case m.changes <- storesChangedMsg{}:
	default:
	}
}

func (m Model) push(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		m.log.WithField("msg", fmt.Sprintf("%T", msg)).Debug("dashboard event dropped")
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.tick),
		waitFor(m.ctx, m.changes),
		waitFor(m.ctx, m.events),
		func() tea.Msg { return storesChangedMsg{} },
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resizeActivity()
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		m.recompute()
		return m, tickCmd(m.tick)

	case storesChangedMsg:
		m.refresh()
		return m, waitFor(m.ctx, m.changes)

	case bridgeMsg:
		m.handleBridge(msg)
		return m, waitFor(m.ctx, m.events)

	case prefsMsg:
		m.followSystem = msg.FollowSystemTheme
		if name, ok := LookupTheme(msg.Theme); ok {
			m.theme = GetTheme(name)
		}
		return m, waitFor(m.ctx, m.events)

	case actionDoneMsg:
		if msg.err != nil {
			m.setFlash(fmt.Sprintf("%s failed: %v", msg.what, msg.err), true)
		}
		return m, nil
	}

	if m.view == ViewLogs {
		var cmd tea.Cmd
		m.activity, cmd = m.activity.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		// A manual pick pins the theme.
		m.followSystem = false
		if m.prefsPath != "" {
			if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name}); err != nil {
				m.log.WithError(err).Warn("save prefs")
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.setView((m.view + 1) % viewCount)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.setView((m.view + viewCount - 1) % viewCount)
		return m, nil

	case key.Matches(msg, m.keys.StartStop):
		if m.bot == nil {
			return m, nil
		}
		if m.botState.IsRunning {
			return m, m.run("Stop", m.bot.Stop)
		}
		return m, m.run("Start", m.bot.Start)

	case key.Matches(msg, m.keys.Pause):
		if m.bot == nil {
			return m, nil
		}
		return m, m.run("Pause", m.bot.TogglePause)

	case key.Matches(msg, m.keys.QuickStart):
		if m.bot == nil {
			return m, nil
		}
		return m, m.run("Quick start", m.bot.QuickStart)

	case key.Matches(msg, m.keys.ClearLogs):
		if m.bot == nil {
			return m, nil
		}
		return m, m.run("Clear logs", m.bot.ClearLogs)

	case key.Matches(msg, m.keys.Scan):
		if m.devices == nil {
			return m, nil
		}
		return m, m.run("Scan", m.devices.Scan)

	case key.Matches(msg, m.keys.MarkRead):
		if m.system != nil {
			m.system.MarkNotificationsRead()
		}
		return m, nil
	}

	switch m.view {
	case ViewDevices:
		return m.handleDevicesKey(msg)
	case ViewLogs:
		var cmd tea.Cmd
		m.activity, cmd = m.activity.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleDevicesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.deviceState.Devices)
	if count == 0 || m.devices == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, m.selectCursor()
	case key.Matches(msg, m.keys.Down):
		if m.cursor < count-1 {
			m.cursor++
		}
		return m, m.selectCursor()
	case key.Matches(msg, m.keys.Connect):
		id := m.deviceState.Devices[m.cursor].ID
		return m, m.run("Connect", func(ctx context.Context) error { return m.devices.Connect(ctx, id) })
	case key.Matches(msg, m.keys.Disconnect):
		id := m.deviceState.Devices[m.cursor].ID
		return m, m.run("Disconnect", func(ctx context.Context) error { return m.devices.Disconnect(ctx, id) })
	}
	return m, nil
}

func (m Model) selectCursor() tea.Cmd {
	id := m.deviceState.Devices[m.cursor].ID
	devices := m.devices
	return func() tea.Msg {
		return actionDoneMsg{what: "Select", err: devices.Select(id)}
	}
}

// run performs a store action off the UI goroutine. The store records its
// own outcome; the message only feeds the status line.
func (m Model) run(what string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{what: what, err: fn(ctx)}
	}
}

func (m *Model) setView(v View) {
	m.view = v
	if v == ViewNotifications && m.system != nil && m.systemState.Unread() > 0 {
		m.system.MarkNotificationsRead()
	}
}

func (m *Model) refresh() {
	if m.bot != nil {
		m.botState = m.bot.Snapshot()
	}
	if m.devices != nil {
		m.deviceState = m.devices.Snapshot()
	}
	if m.system != nil {
		m.systemState = m.system.Snapshot()
	}
	m.clampCursor()
	m.recompute()
	m.activity.SetContent(m.renderActivity())
}

func (m *Model) recompute() {
	m.summary = dashboard.Compute(m.botState, m.deviceState, m.systemState, m.now)
}

func (m *Model) clampCursor() {
	devices := m.deviceState.Devices
	if sel := m.deviceState.Selected; sel != "" {
		for i, d := range devices {
			if d.ID == sel {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(devices) {
		m.cursor = len(devices) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) handleBridge(msg bridgeMsg) {
	switch msg.channel {
	case state.ChannelThemeChanged:
		name, _ := msg.payload.(string)
		if !m.followSystem {
			return
		}
		if local, ok := LookupTheme(name); ok {
			m.theme = GetTheme(local)
		}
	case state.ChannelNotification:
		if n, ok := msg.payload.(api.Notification); ok {
			text := n.Title
			if n.Body != "" {
				text += ": " + n.Body
			}
			m.setFlash(text, n.Level == "error")
		}
	case state.ChannelDeviceConnected:
		if d, ok := msg.payload.(api.Device); ok {
			name := d.Name
			if name == "" {
				name = d.ID
			}
			m.setFlash("Device connected: "+name, false)
		}
	case state.ChannelDeviceDisconnected:
		if id, ok := msg.payload.(string); ok {
			m.setFlash("Device disconnected: "+id, false)
		}
	case state.ChannelBotStatusChanged:
		if ch, ok := msg.payload.(state.BotStatusChange); ok {
			m.setFlash(fmt.Sprintf("Bot %s → %s", ch.From, ch.To), ch.To == api.BotError)
		}
	}
}

func (m *Model) setFlash(text string, bad bool) {
	m.flash = text
	m.flashBad = bad
}

func (m *Model) resizeActivity() {
	// header, tabs, summary, footer
	const chrome = 6
	m.activity.Width = max(m.width-2, 0)
	m.activity.Height = max(m.height-chrome, 1)
	m.activity.SetContent(m.renderActivity())
}

// Messages

type tickMsg time.Time

type storesChangedMsg struct{}

type bridgeMsg struct {
	channel string
	payload any
}

type prefsMsg prefs.Prefs

type actionDoneMsg struct {
	what string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitFor(ctx context.Context, ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			return msg
		}
	}
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(opts Options) error {
	m := New(opts)
	detach := m.Attach()
	defer detach()

	if err := prefs.Watch(m.ctx, opts.PrefsPath, m.log, func(p prefs.Prefs) {
		m.push(prefsMsg(p))
	}); err != nil {
		m.log.WithError(err).Warn("prefs watch unavailable")
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
