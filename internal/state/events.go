package state

import (
	"fmt"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/logbuf"
	"github.com/five82/deckhand/internal/stream"
)

// Event types shared by every stream.
const (
	eventLog        = "log"
	eventError      = "error"
	eventConnection = "connection"
	eventPing       = "ping"
	eventPong       = "pong"
	eventSubscribed = "subscription_confirmed"
	eventUnsubbed   = "unsubscription_confirmed"
)

// Bridge channels the stores emit on.
const (
	ChannelNotification       = "notification"
	ChannelDeviceConnected    = "device-connected"
	ChannelDeviceDisconnected = "device-disconnected"
	ChannelThemeChanged       = "theme-changed"
	ChannelBotStatusChanged   = "bot-status-changed"
)

// Event variants common to the three streams. Each store adds its own and
// folds them in a type switch.
type (
	logEvent struct{ api.LogData }
	// errorEvent is a failure the backend reports on the stream itself.
	errorEvent struct {
		Message string `json:"message"`
	}
	// controlEvent is a connection or subscription acknowledgement, or a
	// heartbeat.
	controlEvent struct{ Type string }
	// unknownEvent is any type the store does not recognize.
	unknownEvent struct{ Type string }
)

// decodeCommon handles the variants every stream shares. ok is false when
// msg.Type belongs to the store-specific set.
func decodeCommon(msg stream.Message) (ev any, ok bool, err error) {
	switch msg.Type {
	case eventLog:
		var d api.LogData
		if err := msg.Unmarshal(&d); err != nil {
			return nil, true, err
		}
		return logEvent{d}, true, nil
	case eventError:
		var e errorEvent
		if len(msg.Data) > 0 {
			if err := msg.Unmarshal(&e); err != nil {
				return nil, true, err
			}
		}
		return e, true, nil
	case eventConnection, eventPing, eventPong, eventSubscribed, eventUnsubbed:
		return controlEvent{Type: msg.Type}, true, nil
	}
	return nil, false, nil
}

// foldCommon applies a shared variant. It reports whether ev was one.
func foldCommon[T any](c *core[T], ev any) (handled, changed bool) {
	switch e := ev.(type) {
	case logEvent:
		source := e.Source
		if source == "" {
			source = c.source
		}
		var details any
		if len(e.Details) > 0 {
			details = e.Details
		}
		c.recordFromLocked(logbuf.ParseLevel(e.Level), e.Message, details, source)
		return true, true
	case errorEvent:
		message := e.Message
		if message == "" {
			message = "unspecified error"
		}
		c.recordLocked(logbuf.LevelError, fmt.Sprintf("Backend %s stream error: %s", c.source, message), nil)
		return true, true
	case controlEvent:
		return true, false
	case unknownEvent:
		c.ignoreLocked(e.Type)
		return true, true
	}
	return false, false
}

// handleEvent decodes msg with decode and folds it with fold, logging
// payload errors instead of failing the stream.
func handleEvent[T any](c *core[T], msg stream.Message, decode func(stream.Message) (any, error), fold func(d *T, ev any) bool) {
	ev, ok, err := decodeCommon(msg)
	if !ok && err == nil {
		ev, err = decode(msg)
	}
	if err != nil {
		c.HandleDecodeError(err, msg.Raw)
		return
	}
	c.mutate(func(d *T) bool {
		if handled, changed := foldCommon(c, ev); handled {
			return changed
		}
		return fold(d, ev)
	})
}
