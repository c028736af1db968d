package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	rec, ok := Parse(`{"level":"warning","msg":"Bot reported error","component":"bot","time":"2026-03-01T10:00:00Z","store":"bot"}`)
	if !ok {
		t.Fatalf("Parse returned ok=false for JSON line")
	}
	if rec.Level != "warning" || rec.Message != "Bot reported error" || rec.Component != "bot" {
		t.Fatalf("record = %#v", rec)
	}
	if rec.Time.IsZero() {
		t.Fatalf("Time not parsed")
	}
	if rec.Fields["store"] != "bot" {
		t.Fatalf("Fields = %#v, want store=bot", rec.Fields)
	}

	if _, ok := Parse("plain text line"); ok {
		t.Fatalf("Parse accepted a non-JSON line")
	}
}

func TestFormatLines_FiltersAndFormats(t *testing.T) {
	lines := []string{
		`{"level":"debug","msg":"noise","time":"2026-03-01T10:00:00Z"}`,
		`{"level":"error","msg":"stream error","component":"stream","time":"2026-03-01T10:00:01Z","url":"ws://x"}`,
		"panic: something raw",
	}

	got := FormatLines(lines, "info", false)
	if len(got) != 2 {
		t.Fatalf("FormatLines returned %d lines, want 2: %q", len(got), got)
	}
	if !strings.Contains(got[0], "ERROR [stream] stream error url=ws://x") {
		t.Fatalf("formatted = %q", got[0])
	}
	if got[1] != "panic: something raw" {
		t.Fatalf("raw line = %q, want passthrough", got[1])
	}
}

func TestRecordAtLeast(t *testing.T) {
	cases := []struct {
		level, min string
		want       bool
	}{
		{"info", "info", true},
		{"debug", "info", false},
		{"error", "warning", true},
		{"custom", "error", true},
		{"debug", "", true},
	}
	for _, tc := range cases {
		if got := (Record{Level: tc.level}).AtLeast(tc.min); got != tc.want {
			t.Errorf("Record{%q}.AtLeast(%q) = %v, want %v", tc.level, tc.min, got, tc.want)
		}
	}
}
