package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/logbuf"
	"github.com/five82/deckhand/internal/stream"
)

// ErrUnknownDevice is returned for operations naming a device the store has
// never seen. No request is made.
var ErrUnknownDevice = errors.New("unknown device")

// DeviceAPI is the slice of the backend the device store talks to.
type DeviceAPI interface {
	ScanDevices(ctx context.Context) ([]api.Device, error)
	ConnectDevice(ctx context.Context, id string) error
	DisconnectDevice(ctx context.Context, id string) error
	InstallPackage(ctx context.Context, id, apk string) error
	Screenshot(ctx context.Context, id string) (api.ScreenshotResult, error)
	SendInput(ctx context.Context, id string, action api.InputAction) error
	CheckFeature(ctx context.Context, id, feature string) (api.FeatureCheck, error)
	DeviceInfo(ctx context.Context, id string) (api.Device, error)
	ADBStatus(ctx context.Context) (api.ADBStatus, error)
	RestartADB(ctx context.Context) (api.ADBStatus, error)
}

// DeviceState is a snapshot of the known devices.
type DeviceState struct {
	Session
	// Devices keeps the order devices were first seen in.
	Devices      []api.Device
	Selected     string
	IsScanning   bool
	IsConnecting bool
	ADB          *api.ADBStatus
	LastScan     time.Time
}

// Device looks a device up by id.
func (s DeviceState) Device(id string) (api.Device, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return api.Device{}, false
}

// SelectedDevice returns the selected device, if any.
func (s DeviceState) SelectedDevice() (api.Device, bool) {
	if s.Selected == "" {
		return api.Device{}, false
	}
	return s.Device(s.Selected)
}

// ConnectedCount counts devices whose status is connected.
func (s DeviceState) ConnectedCount() int {
	n := 0
	for _, d := range s.Devices {
		if d.Status == api.DeviceConnected {
			n++
		}
	}
	return n
}

func cloneDeviceState(d *DeviceState, sess Session) DeviceState {
	out := *d
	out.Session = sess
	if d.Devices != nil {
		out.Devices = make([]api.Device, len(d.Devices))
		for i, dev := range d.Devices {
			out.Devices[i] = dev.Clone()
		}
	}
	if d.ADB != nil {
		adb := *d.ADB
		out.ADB = &adb
	}
	return out
}

func indexOf(devices []api.Device, id string) int {
	for i, d := range devices {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// DeviceStore holds device state and dispatches device actions.
type DeviceStore struct {
	*core[DeviceState]
	lifecycle
	client DeviceAPI
}

// NewDeviceStore returns an empty store.
func NewDeviceStore(client DeviceAPI, opts Options) *DeviceStore {
	s := &DeviceStore{client: client}
	s.core = newCore("devices", DeviceState{}, opts, cloneDeviceState)
	s.core.reduce = s.handle
	s.lifecycle = newLifecycle(opts, s.core, s.core.log)
	return s
}

// Open connects the event stream and runs an initial scan.
func (s *DeviceStore) Open(ctx context.Context) {
	s.open(ctx)
	_ = s.Scan(ctx)
}

// Close stops the event stream.
func (s *DeviceStore) Close() { s.close() }

// known reports whether id is in the store, recording an error entry when
// it is not.
func (s *DeviceStore) known(id, what string) error {
	var err error
	s.mutate(func(d *DeviceState) bool {
		if indexOf(d.Devices, id) >= 0 {
			return false
		}
		err = fmt.Errorf("%w: %q", ErrUnknownDevice, id)
		s.failLocked("Failed to "+what, err)
		return true
	})
	return err
}

// Scan asks the backend to enumerate devices and replaces the local list.
// A scan already in flight makes this a no-op.
func (s *DeviceStore) Scan(ctx context.Context) error {
	started := false
	s.mutate(func(d *DeviceState) bool {
		if d.IsScanning {
			return false
		}
		d.IsScanning = true
		started = true
		return true
	})
	if !started {
		return nil
	}

	devices, err := s.client.ScanDevices(ctx)
	s.mutate(func(d *DeviceState) bool {
		d.IsScanning = false
		if err != nil {
			s.failLocked("Failed to scan devices", err)
			return true
		}
		d.Devices = make([]api.Device, len(devices))
		for i, dev := range devices {
			dev.Status = api.ParseDeviceStatus(string(dev.Status))
			d.Devices[i] = dev.Clone()
		}
		if d.Selected != "" && indexOf(d.Devices, d.Selected) < 0 {
			d.Selected = ""
		}
		d.LastScan = time.Now()
		s.succeedLocked(fmt.Sprintf("Found %d devices", len(devices)), nil)
		return true
	})
	return err
}

// Connect connects a known device and selects it. A connect already in
// flight makes this a no-op.
func (s *DeviceStore) Connect(ctx context.Context, id string) error {
	if err := s.known(id, "connect device"); err != nil {
		return err
	}
	started := false
	s.mutate(func(d *DeviceState) bool {
		if d.IsConnecting {
			return false
		}
		d.IsConnecting = true
		started = true
		return true
	})
	if !started {
		return nil
	}

	err := s.client.ConnectDevice(ctx, id)
	s.mutate(func(d *DeviceState) bool {
		d.IsConnecting = false
		if err != nil {
			s.failLocked("Failed to connect device", err)
			return true
		}
		name := id
		if i := indexOf(d.Devices, id); i >= 0 {
			d.Devices[i].Status = api.DeviceConnected
			d.Devices[i].LastSeen = time.Now()
			name = displayName(d.Devices[i])
			s.emitLocked(ChannelDeviceConnected, d.Devices[i].Clone())
		}
		d.Selected = id
		s.succeedLocked("Connected to "+name, map[string]any{"device_id": id})
		return true
	})
	return err
}

// Disconnect disconnects a device and forgets it.
func (s *DeviceStore) Disconnect(ctx context.Context, id string) error {
	if err := s.known(id, "disconnect device"); err != nil {
		return err
	}
	if err := s.client.DisconnectDevice(ctx, id); err != nil {
		return s.fail("Failed to disconnect device", err)
	}
	s.mutate(func(d *DeviceState) bool {
		s.removeLocked(d, id)
		s.succeedLocked("Disconnected "+id, map[string]any{"device_id": id})
		return true
	})
	return nil
}

func (s *DeviceStore) removeLocked(d *DeviceState, id string) bool {
	i := indexOf(d.Devices, id)
	if i < 0 {
		return false
	}
	d.Devices = append(d.Devices[:i], d.Devices[i+1:]...)
	if d.Selected == id {
		d.Selected = ""
	}
	s.emitLocked(ChannelDeviceDisconnected, id)
	return true
}

// Select makes a known device the target of device actions. An empty id
// clears the selection.
func (s *DeviceStore) Select(id string) error {
	if id == "" {
		s.mutate(func(d *DeviceState) bool {
			changed := d.Selected != ""
			d.Selected = ""
			return changed
		})
		return nil
	}
	if err := s.known(id, "select device"); err != nil {
		return err
	}
	s.mutate(func(d *DeviceState) bool {
		changed := d.Selected != id
		d.Selected = id
		return changed
	})
	return nil
}

// InstallPackage installs an APK on a device.
func (s *DeviceStore) InstallPackage(ctx context.Context, id, apk string) error {
	if err := s.known(id, "install package"); err != nil {
		return err
	}
	if err := s.client.InstallPackage(ctx, id, apk); err != nil {
		return s.fail("Failed to install package", err)
	}
	s.mutate(func(*DeviceState) bool {
		s.succeedLocked("Installed package on "+id, map[string]any{"device_id": id, "apk": apk})
		return true
	})
	return nil
}

// Screenshot captures the device screen and returns the file path.
func (s *DeviceStore) Screenshot(ctx context.Context, id string) (string, error) {
	if err := s.known(id, "take screenshot"); err != nil {
		return "", err
	}
	res, err := s.client.Screenshot(ctx, id)
	if err != nil {
		return "", s.fail("Failed to take screenshot", err)
	}
	s.mutate(func(*DeviceState) bool {
		s.succeedLocked("Screenshot saved", map[string]any{"device_id": id, "path": res.Path})
		return true
	})
	return res.Path, nil
}

// SendInput sends a tap, swipe, text, or key event.
func (s *DeviceStore) SendInput(ctx context.Context, id string, action api.InputAction) error {
	if err := s.known(id, "send input"); err != nil {
		return err
	}
	if err := s.client.SendInput(ctx, id, action); err != nil {
		return s.fail("Failed to send input", err)
	}
	s.mutate(func(*DeviceState) bool {
		s.succeedLocked(fmt.Sprintf("Sent %s input", action.Kind), map[string]any{"device_id": id})
		return true
	})
	return nil
}

// CheckFeature probes a device feature. The game feature also updates the
// device's capabilities.
func (s *DeviceStore) CheckFeature(ctx context.Context, id, feature string) (bool, error) {
	if err := s.known(id, "check feature"); err != nil {
		return false, err
	}
	res, err := s.client.CheckFeature(ctx, id, feature)
	if err != nil {
		return false, s.fail("Failed to check feature", err)
	}
	s.mutate(func(d *DeviceState) bool {
		if i := indexOf(d.Devices, id); i >= 0 && feature == "game" {
			d.Devices[i].Capabilities.GameInstalled = res.Present
			d.Devices[i].Capabilities.GameVersion = res.Version
		}
		s.succeedLocked(fmt.Sprintf("Feature %s present=%t", feature, res.Present), map[string]any{"device_id": id})
		return true
	})
	return res.Present, nil
}

// RefreshDevice re-reads one device from the backend. Success does not log.
func (s *DeviceStore) RefreshDevice(ctx context.Context, id string) error {
	if err := s.known(id, "fetch device"); err != nil {
		return err
	}
	dev, err := s.client.DeviceInfo(ctx, id)
	if err != nil {
		return s.fail("Failed to fetch device", err)
	}
	dev.Status = api.ParseDeviceStatus(string(dev.Status))
	s.mutate(func(d *DeviceState) bool {
		s.upsertLocked(d, dev)
		return true
	})
	return nil
}

// RefreshADB reads the adb server status. Success does not log.
func (s *DeviceStore) RefreshADB(ctx context.Context) error {
	status, err := s.client.ADBStatus(ctx)
	if err != nil {
		return s.fail("Failed to fetch adb status", err)
	}
	s.mutate(func(d *DeviceState) bool {
		d.ADB = &status
		return true
	})
	return nil
}

// RestartADB restarts the adb server.
func (s *DeviceStore) RestartADB(ctx context.Context) error {
	status, err := s.client.RestartADB(ctx)
	if err != nil {
		return s.fail("Failed to restart adb", err)
	}
	s.mutate(func(d *DeviceState) bool {
		d.ADB = &status
		s.succeedLocked("ADB server restarted", nil)
		return true
	})
	return nil
}

func (s *DeviceStore) upsertLocked(d *DeviceState, dev api.Device) {
	if i := indexOf(d.Devices, dev.ID); i >= 0 {
		d.Devices[i] = dev.Clone()
		return
	}
	d.Devices = append(d.Devices, dev.Clone())
}

// Device stream event variants.
type (
	deviceConnectedEvent    struct{ api.Device }
	deviceDisconnectedEvent struct{ api.DeviceRefData }
	deviceStatusEvent       struct{ api.DeviceStatusData }
	deviceTelemetryEvent    struct{ api.DeviceTelemetryData }
	deviceListEvent         struct{ Devices []api.Device }
)

func decodeDeviceEvent(msg stream.Message) (any, error) {
	switch msg.Type {
	case "device_connected":
		var d api.Device
		err := msg.Unmarshal(&d)
		if err == nil && d.ID == "" {
			err = errors.New("device_connected without id")
		}
		return deviceConnectedEvent{d}, err
	case "device_disconnected":
		var d api.DeviceRefData
		err := msg.Unmarshal(&d)
		return deviceDisconnectedEvent{d}, err
	case "device_status_changed":
		var d api.DeviceStatusData
		err := msg.Unmarshal(&d)
		return deviceStatusEvent{d}, err
	case "device_telemetry":
		var d api.DeviceTelemetryData
		err := msg.Unmarshal(&d)
		return deviceTelemetryEvent{d}, err
	case "devices":
		var d []api.Device
		err := msg.Unmarshal(&d)
		return deviceListEvent{d}, err
	default:
		return unknownEvent{Type: msg.Type}, nil
	}
}

func (s *DeviceStore) handle(msg stream.Message) {
	handleEvent(s.core, msg, decodeDeviceEvent, s.fold)
}

func (s *DeviceStore) fold(d *DeviceState, ev any) bool {
	switch e := ev.(type) {
	case deviceConnectedEvent:
		dev := e.Device
		dev.Status = api.ParseDeviceStatus(string(dev.Status))
		s.upsertLocked(d, dev)
		s.emitLocked(ChannelDeviceConnected, dev.Clone())
		s.recordLocked(logbuf.LevelInfo, "Device connected: "+displayName(dev), nil)
		return true
	case deviceDisconnectedEvent:
		if !s.removeLocked(d, e.DeviceID) {
			return false
		}
		s.recordLocked(logbuf.LevelInfo, "Device disconnected: "+e.DeviceID, nil)
		return true
	case deviceStatusEvent:
		i := indexOf(d.Devices, e.DeviceID)
		if i < 0 {
			return false
		}
		d.Devices[i].Status = api.ParseDeviceStatus(e.Status)
		d.Devices[i].LastSeen = time.Now()
		return true
	case deviceTelemetryEvent:
		i := indexOf(d.Devices, e.DeviceID)
		if i < 0 {
			return false
		}
		dev := &d.Devices[i]
		if e.BatteryLevel != nil {
			v := *e.BatteryLevel
			dev.BatteryLevel = &v
		}
		if e.CPUUsage != nil {
			v := *e.CPUUsage
			dev.CPUUsage = &v
		}
		if e.MemoryUsage != nil {
			v := *e.MemoryUsage
			dev.MemoryUsage = &v
		}
		return true
	case deviceListEvent:
		d.Devices = make([]api.Device, len(e.Devices))
		for i, dev := range e.Devices {
			dev.Status = api.ParseDeviceStatus(string(dev.Status))
			d.Devices[i] = dev.Clone()
		}
		if d.Selected != "" && indexOf(d.Devices, d.Selected) < 0 {
			d.Selected = ""
		}
		return true
	}
	return false
}

func displayName(d api.Device) string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}
