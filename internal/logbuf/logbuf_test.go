package logbuf

import (
	"fmt"
	"testing"
)

func TestBuffer_NewestFirstAndBounded(t *testing.T) {
	b := New(1000)
	for i := 0; i < 1500; i++ {
		b.Add(LevelInfo, fmt.Sprintf("entry %d", i), nil, "test")
		if b.Len() > 1000 {
			t.Fatalf("Len = %d after %d inserts, want <= 1000", b.Len(), i+1)
		}
		if got := b.Entries()[0].Message; got != fmt.Sprintf("entry %d", i) {
			t.Fatalf("head = %q, want entry %d", got, i)
		}
	}

	entries := b.Entries()
	if len(entries) != 1000 {
		t.Fatalf("len = %d, want 1000", len(entries))
	}
	if entries[999].Message != "entry 500" {
		t.Fatalf("tail = %q, want oldest surviving entry 500", entries[999].Message)
	}
}

func TestBuffer_SequenceIsMonotonic(t *testing.T) {
	b := New(10)
	for i := 0; i < 5; i++ {
		b.Add(LevelDebug, "x", nil, "")
	}
	entries := b.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Seq <= entries[i].Seq {
			t.Fatalf("seq not decreasing from head: %d then %d", entries[i-1].Seq, entries[i].Seq)
		}
		if entries[i-1].ID == entries[i].ID {
			t.Fatalf("duplicate id %q", entries[i].ID)
		}
	}
}

func TestBuffer_EntriesReturnsCopy(t *testing.T) {
	b := New(3)
	b.Add(LevelInfo, "a", nil, "")
	out := b.Entries()
	out[0].Message = "mutated"
	if b.Entries()[0].Message != "a" {
		t.Fatalf("Entries should return a copy")
	}
}

func TestBuffer_ClearAndDefaults(t *testing.T) {
	b := New(0)
	if b.Capacity() != DefaultCapacity {
		t.Fatalf("Capacity = %d, want %d", b.Capacity(), DefaultCapacity)
	}
	b.Add(LevelError, "boom", map[string]any{"k": 1}, "bot")
	b.Clear()
	if b.Len() != 0 || b.Entries() != nil {
		t.Fatalf("Clear left %d entries", b.Len())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"DEBUG":    LevelDebug,
		" warn ":   LevelWarning,
		"warning":  LevelWarning,
		"critical": LevelError,
		"error":    LevelError,
		"info":     LevelInfo,
		"":         LevelInfo,
		"verbose":  LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
