package tui

import (
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"fits", "exec", 10, "exec"},
		{"exact", "web_search", 10, "web_search"},
		{"ascii", "web_search_results", 10, "web_searc…"},
		{"wide runes", "検索してください", 7, "検索し…"},
		{"tiny", "abc", 1, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
			if w := runewidth.StringWidth(got); w > tt.maxLen {
				t.Errorf("result is %d cells wide, limit %d", w, tt.maxLen)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not cut, got %q", got)
	}
}

func TestSingleLine(t *testing.T) {
	if got := singleLine("deploy\n  the\tsite\n"); got != "deploy the site" {
		t.Errorf("singleLine = %q", got)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		t        time.Time
		expected string
	}{
		{"seconds", now.Add(-10 * time.Second), "just now"},
		{"minutes", now.Add(-5*time.Minute - time.Second), "5m ago"},
		{"hours", now.Add(-3*time.Hour - time.Second), "3h ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimeAgo(tt.t); got != tt.expected {
				t.Errorf("formatTimeAgo() = %q, want %q", got, tt.expected)
			}
		})
	}

	old := now.Add(-72 * time.Hour)
	if got := formatTimeAgo(old); got != old.Format("Jan 2") {
		t.Errorf("old timestamps should show the date, got %q", got)
	}
}
