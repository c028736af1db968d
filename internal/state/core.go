package state

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/deckhand/internal/api"
	"github.com/five82/deckhand/internal/logbuf"
	"github.com/five82/deckhand/internal/stream"
)

// Session is the part of every store snapshot that is not domain data.
type Session struct {
	Stream stream.State
	Error  string
	Logs   []logbuf.Entry
}

// Connected reports whether the store's event stream is open.
func (s Session) Connected() bool { return s.Stream == stream.Open }

// Emitter receives discrete events destined for the UI bridge.
type Emitter interface {
	Emit(channel string, payload any)
}

type emission struct {
	channel string
	payload any
}

// core holds what the three stores share: the lock, the bounded log, the
// subscriber list, and the stream.Handler plumbing. T is the snapshot type.
type core[T any] struct {
	// pubMu orders publications; mu guards data.
	pubMu sync.Mutex
	mu    sync.Mutex

	data    T
	session Session
	logs    *logbuf.Buffer
	pending []emission

	source string
	log    *logrus.Entry
	emit   Emitter
	view   func(*T, Session) T
	reduce func(stream.Message)

	subs Observable[T]
}

func newCore[T any](source string, data T, opts Options, view func(*T, Session) T) *core[T] {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &core[T]{
		data:   data,
		logs:   logbuf.New(opts.LogCapacity),
		source: source,
		log:    log.WithField("store", source),
		emit:   opts.Emitter,
		view:   view,
	}
}

// mutate runs fn with the lock held. Subscribers are notified, in mutation
// order, only when fn reports a change. Subscribers must not mutate the
// store synchronously.
func (c *core[T]) mutate(fn func(d *T) bool) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	if !fn(&c.data) {
		c.pending = nil
		c.mu.Unlock()
		return
	}
	sess := c.session
	sess.Logs = c.logs.Entries()
	base := c.view(&c.data, sess)
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	// base stays private; every subscriber gets a fresh copy of it.
	c.subs.publish(func() T {
		s := sess
		s.Logs = slices.Clone(sess.Logs)
		return c.view(&base, s)
	})
	if c.emit != nil {
		for _, e := range pending {
			c.emit.Emit(e.channel, e.payload)
		}
	}
}

func (c *core[T]) snapshotLocked() T {
	sess := c.session
	sess.Logs = c.logs.Entries()
	return c.view(&c.data, sess)
}

// Snapshot returns a deep copy of the current state.
func (c *core[T]) Snapshot() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every published snapshot.
func (c *core[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	return c.subs.Subscribe(fn)
}

// recordLocked appends a log entry and mirrors it to the process log.
func (c *core[T]) recordLocked(level logbuf.Level, message string, details any) {
	c.recordFromLocked(level, message, details, c.source)
}

func (c *core[T]) recordFromLocked(level logbuf.Level, message string, details any, source string) {
	c.logs.Add(level, message, details, source)
	entry := c.log
	if details != nil {
		entry = entry.WithField("details", details)
	}
	switch level {
	case logbuf.LevelError:
		entry.Error(message)
	case logbuf.LevelWarning:
		entry.Warn(message)
	case logbuf.LevelDebug:
		entry.Debug(message)
	default:
		entry.Info(message)
	}
}

// failLocked records a failed action: the error field is set and exactly one
// error entry is appended. Domain data is left alone.
func (c *core[T]) failLocked(what string, err error) {
	c.session.Error = fmt.Sprintf("%s: %v", what, err)
	details := map[string]any{"error": err.Error()}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		details["kind"] = string(apiErr.Kind)
		if apiErr.StatusCode != 0 {
			details["status"] = apiErr.StatusCode
		}
	}
	c.recordLocked(logbuf.LevelError, c.session.Error, details)
}

// succeedLocked clears the error field and appends one info entry.
func (c *core[T]) succeedLocked(message string, details any) {
	c.session.Error = ""
	c.recordLocked(logbuf.LevelInfo, message, details)
}

func (c *core[T]) emitLocked(channel string, payload any) {
	c.pending = append(c.pending, emission{channel: channel, payload: payload})
}

// fail is the common failure path for dispatcher actions and queries.
// Successful queries do not log.
func (c *core[T]) fail(what string, err error) error {
	c.mutate(func(*T) bool {
		c.failLocked(what, err)
		return true
	})
	return err
}

// clearLogs empties the buffer, leaving only the confirmation entry.
func (c *core[T]) clearLogs(message string) {
	c.mutate(func(*T) bool {
		c.logs.Clear()
		c.succeedLocked(message, nil)
		return true
	})
}

// stream.Handler

func (c *core[T]) HandleMessage(msg stream.Message) {
	if c.reduce != nil {
		c.reduce(msg)
	}
}

func (c *core[T]) HandleDecodeError(err error, raw []byte) {
	c.mutate(func(*T) bool {
		c.recordLocked(logbuf.LevelError, fmt.Sprintf("Malformed %s event", c.source),
			map[string]any{"error": err.Error(), "raw": truncate(string(raw), 256)})
		return true
	})
}

func (c *core[T]) HandleStateChange(state stream.State, err error) {
	c.mutate(func(*T) bool {
		prev := c.session.Stream
		c.session.Stream = state
		switch state {
		case stream.Open:
			c.recordLocked(logbuf.LevelInfo, fmt.Sprintf("Connected to %s stream", c.source), nil)
		case stream.Errored:
			details := map[string]any{}
			if err != nil {
				details["error"] = err.Error()
			}
			c.recordLocked(logbuf.LevelError, fmt.Sprintf("%s stream error", titleCase(c.source)), details)
		case stream.Closed:
			if prev == stream.Open {
				c.recordLocked(logbuf.LevelWarning, fmt.Sprintf("Disconnected from %s stream", c.source), nil)
			}
		}
		return prev != state
	})
}

// ignoreLocked records an event variant the store does not fold.
func (c *core[T]) ignoreLocked(eventType string) {
	c.recordLocked(logbuf.LevelDebug, fmt.Sprintf("Ignored %s event %q", c.source, eventType), nil)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
