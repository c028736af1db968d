package ui

import (
	"testing"

	"github.com/five82/deckhand/internal/logbuf"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestLookupTheme_CaseInsensitive(t *testing.T) {
	if got, ok := LookupTheme(" kanagawa "); !ok || got != "Kanagawa" {
		t.Fatalf("LookupTheme(kanagawa) = %q, %v; want Kanagawa, true", got, ok)
	}
	if _, ok := LookupTheme("auto"); ok {
		t.Fatalf("LookupTheme(auto) matched a theme")
	}
}

func TestThemesCoverEveryStatus(t *testing.T) {
	statuses := []string{"running", "paused", "stopped", "error", "connected", "disconnected", "unauthorized", "offline"}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, s := range statuses {
			if th.StatusColors[s] == "" {
				t.Fatalf("theme %s has no color for %q", name, s)
			}
		}
	}
}

func TestStylesLevelStyleFallsBackToMuted(t *testing.T) {
	st := GetTheme("Nightfox").Styles()
	if got := st.levelColors[logbuf.LevelError]; got != GetTheme("Nightfox").Danger {
		t.Fatalf("error level color = %q, want danger", got)
	}
	// Unknown levels render without panicking.
	_ = st.LevelStyle(logbuf.Level("trace")).Render("x")
	_ = st.StatusStyle("  RUNNING ").Render("x")
}
