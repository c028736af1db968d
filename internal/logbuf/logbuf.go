// Package logbuf implements the bounded, newest-first activity log shared by
// the bot, device, and system stores.
package logbuf

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the maximum number of entries kept per store.
const DefaultCapacity = 1000

// Level classifies a log entry.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// ParseLevel maps backend level names onto Level. Unknown names map to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarning
	case "error", "critical", "fatal":
		return LevelError
	default:
		return LevelInfo
	}
}

// Entry is a single immutable log record.
type Entry struct {
	ID        string
	Seq       uint64
	Timestamp time.Time
	Level     Level
	Message   string
	Details   any
	Source    string
}

var seq atomic.Uint64

// NewEntry stamps a fresh entry with a process-wide monotonic sequence number.
func NewEntry(level Level, message string, details any, source string) Entry {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Entry{
		ID:        id.String(),
		Seq:       seq.Add(1),
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Details:   details,
		Source:    source,
	}
}

// Buffer is a fixed-capacity log ordered newest first. It is not safe for
// concurrent use; each store guards its buffer with its own lock.
type Buffer struct {
	capacity int
	entries  []Entry
}

// New returns an empty buffer. Non-positive capacities use DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Push inserts e at the head and evicts from the tail beyond capacity.
func (b *Buffer) Push(e Entry) {
	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, Entry{})
	}
	copy(b.entries[1:], b.entries[:len(b.entries)-1])
	b.entries[0] = e
}

// Add creates an entry and pushes it.
func (b *Buffer) Add(level Level, message string, details any, source string) Entry {
	e := NewEntry(level, message, details, source)
	b.Push(e)
	return e
}

// Entries returns a copy of the log, newest first.
func (b *Buffer) Entries() []Entry {
	if len(b.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len reports the number of entries held.
func (b *Buffer) Len() int { return len(b.entries) }

// Capacity reports the eviction threshold.
func (b *Buffer) Capacity() int { return b.capacity }

// Clear drops every entry.
func (b *Buffer) Clear() { b.entries = nil }
