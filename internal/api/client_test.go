package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultAPIURL {
		t.Fatalf("url = %q, want %q", u.String(), DefaultAPIURL)
	}

	u, err = parseBaseURL("example.com:1234/api/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Path != "/api" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func writeEnvelope(w http.ResponseWriter, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   success,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func TestClient_RoutesAndDecodesEnvelope(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotContentType string
	var gotConfigBody map[string]any
	var gotInput InputAction

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		switch r.Method + " " + r.URL.Path {
		case "POST /api/bot/start":
			gotContentType = r.Header.Get("Content-Type")
			writeEnvelope(w, true, "Bot start initiated", map[string]string{"state": "starting"})
		case "PUT /api/bot/config":
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotConfigBody)
			writeEnvelope(w, true, "ok", nil)
		case "GET /api/bot/status":
			writeEnvelope(w, true, "ok", map[string]any{"state": "paused", "config": map[string]any{"floor": 3}})
		case "POST /api/devices/scan":
			writeEnvelope(w, true, "ok", []Device{{ID: "emulator-5554", Name: "Pixel", Status: DeviceConnected}})
		case "POST /api/devices/emulator-5554/input":
			_ = json.NewDecoder(r.Body).Decode(&gotInput)
			writeEnvelope(w, true, "ok", nil)
		case "DELETE /api/bot/logs":
			w.WriteHeader(http.StatusNoContent)
		case "GET /api/system/performance":
			// Unwrapped payloads are accepted as-is.
			_ = json.NewEncoder(w).Encode(Performance{CPUUsage: 42.5})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL + "/api")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	res, err := c.StartBot(ctx, DefaultBotConfig())
	if err != nil {
		t.Fatalf("StartBot returned error: %v", err)
	}
	if res.State != "starting" {
		t.Fatalf("StartBot state = %q, want starting", res.State)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}

	if err := c.UpdateBotConfig(ctx, map[string]any{"floor": 7}); err != nil {
		t.Fatalf("UpdateBotConfig returned error: %v", err)
	}
	if len(gotConfigBody) != 1 || gotConfigBody["floor"] != float64(7) {
		t.Fatalf("config body = %#v, want only floor=7", gotConfigBody)
	}

	status, err := c.BotStatus(ctx)
	if err != nil {
		t.Fatalf("BotStatus returned error: %v", err)
	}
	if status.Effective() != "paused" || status.Config == nil || status.Config.Floor != 3 {
		t.Fatalf("BotStatus = %#v, want paused floor=3", status)
	}

	devices, err := c.ScanDevices(ctx)
	if err != nil {
		t.Fatalf("ScanDevices returned error: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != "emulator-5554" {
		t.Fatalf("ScanDevices = %#v, want one device", devices)
	}

	if err := c.SendInput(ctx, "emulator-5554", InputAction{Kind: InputTap, X: 10, Y: 20}); err != nil {
		t.Fatalf("SendInput returned error: %v", err)
	}
	if gotInput.Kind != InputTap || gotInput.X != 10 || gotInput.Y != 20 {
		t.Fatalf("input body = %#v, want tap at 10,20", gotInput)
	}

	if err := c.ClearBotLogs(ctx); err != nil {
		t.Fatalf("ClearBotLogs returned error: %v", err)
	}

	perf, err := c.Performance(ctx)
	if err != nil {
		t.Fatalf("Performance returned error: %v", err)
	}
	if perf.CPUUsage != 42.5 {
		t.Fatalf("CPUUsage = %v, want 42.5", perf.CPUUsage)
	}

	if !strings.HasPrefix(gotUserAgent, "deckhand/") {
		t.Fatalf("User-Agent = %q, want deckhand/*", gotUserAgent)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bot/stop":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"adb went away"}`))
		case "/bot/pause":
			writeEnvelope(w, false, "Bot is already stopped", map[string]string{"state": "stopped"})
		case "/bot/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"state":[1,2]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.StopBot(ctx)
	if !IsKind(err, KindStatus) || !strings.Contains(err.Error(), "status 500") || !strings.Contains(err.Error(), "adb went away") {
		t.Fatalf("StopBot error = %v, want status 500 with detail", err)
	}

	_, err = c.PauseBot(ctx)
	if !IsKind(err, KindRejected) || !strings.Contains(err.Error(), "already stopped") {
		t.Fatalf("PauseBot error = %v, want rejected", err)
	}

	_, err = c.BotStatus(ctx)
	if !IsKind(err, KindDecode) || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("BotStatus error = %v, want decode error", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	err = c.ConnectDevice(context.Background(), "abc")
	if !IsKind(err, KindTransport) {
		t.Fatalf("ConnectDevice error = %v, want transport kind", err)
	}
}

func TestParseBotStatus(t *testing.T) {
	cases := []struct {
		in   string
		want BotStatus
		ok   bool
	}{
		{"running", BotRunning, true},
		{"STARTING", BotRunning, true},
		{"stopping", BotStopped, true},
		{"paused", BotPaused, true},
		{"error", BotError, true},
		{"exploded", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseBotStatus(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseBotStatus(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseDeviceStatus(t *testing.T) {
	cases := map[string]DeviceStatus{
		"device":       DeviceConnected,
		"connected":    DeviceConnected,
		"connecting":   DeviceDisconnected,
		"unauthorized": DeviceUnauthorized,
		"offline":      DeviceOffline,
		"bricked":      DeviceError,
	}
	for in, want := range cases {
		if got := ParseDeviceStatus(in); got != want {
			t.Errorf("ParseDeviceStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeviceClone_CopiesTelemetry(t *testing.T) {
	battery := 80
	d := Device{ID: "a", BatteryLevel: &battery}
	c := d.Clone()
	*c.BatteryLevel = 10
	if *d.BatteryLevel != 80 {
		t.Fatalf("Clone shares battery pointer")
	}
}
