package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Record is one structured line written by the process logger.
type Record struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	Fields    map[string]any
}

// Parse decodes a JSON log line. ok is false for lines that are not JSON
// objects, which callers show verbatim.
func Parse(line string) (Record, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Record{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Record{}, false
	}
	rec := Record{Fields: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "time":
			if s, ok := v.(string); ok {
				rec.Time, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			rec.Level, _ = v.(string)
		case "msg":
			rec.Message, _ = v.(string)
		case "component":
			rec.Component, _ = v.(string)
		default:
			rec.Fields[k] = v
		}
	}
	return rec, true
}

var levelRank = map[string]int{
	"trace": 0, "debug": 1, "info": 2, "warning": 3, "warn": 3, "error": 4, "fatal": 5, "panic": 6,
}

// AtLeast reports whether the record's level is at or above min. Records
// with unknown levels always pass.
func (r Record) AtLeast(min string) bool {
	want, ok := levelRank[strings.ToLower(min)]
	if !ok {
		return true
	}
	have, ok := levelRank[strings.ToLower(r.Level)]
	if !ok {
		return true
	}
	return have >= want
}

var (
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	componentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF"))
	fieldStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	levelStyles    = map[string]lipgloss.Style{
		"debug":   lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// Format renders a record on one line. Extra fields follow the message in
// key order.
func (r Record) Format(color bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(style(timeStyle, r.Time.Local().Format("2006-01-02 15:04:05")))
		b.WriteByte(' ')
	}
	level := strings.ToUpper(r.Level)
	if level == "" {
		level = "INFO"
	}
	ls, ok := levelStyles[strings.ToLower(r.Level)]
	if !ok {
		ls = levelStyles["info"]
	}
	b.WriteString(style(ls, fmt.Sprintf("%-5s", level)))
	if r.Component != "" {
		b.WriteByte(' ')
		b.WriteString(style(componentStyle, "["+r.Component+"]"))
	}
	b.WriteByte(' ')
	b.WriteString(r.Message)

	if len(r.Fields) > 0 {
		keys := make([]string, 0, len(r.Fields))
		for k := range r.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, r.Fields[k]))
		}
		b.WriteByte(' ')
		b.WriteString(style(fieldStyle, strings.Join(parts, " ")))
	}
	return b.String()
}

// FormatLines parses and renders lines, dropping records below minLevel.
// Unparseable lines pass through unchanged.
func FormatLines(lines []string, minLevel string, color bool) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		rec, ok := Parse(line)
		if !ok {
			out = append(out, line)
			continue
		}
		if !rec.AtLeast(minLevel) {
			continue
		}
		out = append(out, rec.Format(color))
	}
	return out
}
