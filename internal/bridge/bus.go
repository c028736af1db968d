// Package bridge is the narrow event boundary between the stores and the
// UI. Only channels on the allow-list can be listened to or emitted on;
// anything else is dropped without error.
package bridge

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Channels carried by the default bus.
var DefaultChannels = []string{
	"notification",
	"device-connected",
	"device-disconnected",
	"theme-changed",
	"bot-status-changed",
}

// Listener receives the payload emitted on a channel.
type Listener func(payload any)

// Bus dispatches payloads to listeners by channel name.
type Bus struct {
	allowed map[string]bool
	log     *logrus.Entry

	mu        sync.RWMutex
	next      int
	listeners map[string]map[int]Listener
}

// New builds a bus that accepts only the given channels. With no channels
// DefaultChannels are used.
func New(log *logrus.Entry, channels ...string) *Bus {
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	allowed := make(map[string]bool, len(channels))
	for _, ch := range channels {
		allowed[ch] = true
	}
	return &Bus{
		allowed:   allowed,
		log:       log.WithField("component", "bridge"),
		listeners: make(map[string]map[int]Listener),
	}
}

// Allowed reports whether channel is on the allow-list.
func (b *Bus) Allowed(channel string) bool {
	return b.allowed[channel]
}

// On registers fn for channel and returns a function that removes it. For
// channels off the allow-list nothing is registered and the returned
// function does nothing.
func (b *Bus) On(channel string, fn Listener) (off func()) {
	if !b.allowed[channel] || fn == nil {
		b.log.WithField("channel", channel).Debug("listen on unauthorized channel dropped")
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	if b.listeners[channel] == nil {
		b.listeners[channel] = make(map[int]Listener)
	}
	b.listeners[channel][id] = fn
	return func() { b.remove(channel, id) }
}

// Off removes every listener on channel.
func (b *Bus) Off(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, channel)
}

func (b *Bus) remove(channel string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners[channel], id)
}

// Emit delivers payload to every listener on channel, synchronously.
func (b *Bus) Emit(channel string, payload any) {
	if !b.allowed[channel] {
		b.log.WithField("channel", channel).Debug("emit on unauthorized channel dropped")
		return
	}
	b.mu.RLock()
	fns := make([]Listener, 0, len(b.listeners[channel]))
	for _, fn := range b.listeners[channel] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(payload)
	}
}
