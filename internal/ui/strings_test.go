package ui

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"unlimited", 0, "unlimited"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("first_name"); got != "First Name" {
		t.Fatalf("titleCase = %q, want %q", got, "First Name")
	}
	if got := titleCase("CITY"); got != "City" {
		t.Fatalf("titleCase = %q, want %q", got, "City")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ i, n, want int }{
		{0, 0, 0},
		{-1, 5, 0},
		{3, 5, 3},
		{9, 5, 4},
	}
	for _, tt := range tests {
		if got := clamp(tt.i, tt.n); got != tt.want {
			t.Fatalf("clamp(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestListWindow(t *testing.T) {
	tests := []struct {
		n, selected, height int
		start, end          int
	}{
		{5, 2, 10, 0, 5},
		{20, 0, 5, 0, 5},
		{20, 10, 5, 8, 13},
		{20, 19, 5, 15, 20},
	}
	for _, tt := range tests {
		start, end := listWindow(tt.n, tt.selected, tt.height)
		if start != tt.start || end != tt.end {
			t.Fatalf("listWindow(%d, %d, %d) = [%d, %d), want [%d, %d)",
				tt.n, tt.selected, tt.height, start, end, tt.start, tt.end)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-10 * time.Second), "11:59:50 (now)"},
		{now.Add(-5 * time.Minute), "11:55:00 (5m ago)"},
		{now.Add(-3 * time.Hour), "09:00:00 (3h ago)"},
		{now.Add(-48 * time.Hour), "12:00:00"},
	}
	for _, tt := range tests {
		if got := formatTimestamp(tt.at, now); got != tt.want {
			t.Fatalf("formatTimestamp(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestNextFilterCycles(t *testing.T) {
	seen := map[string]bool{}
	f := nextFilter("")
	for f != "" {
		if seen[string(f)] {
			t.Fatalf("filter %q repeated before wrapping", f)
		}
		seen[string(f)] = true
		f = nextFilter(f)
	}
	if len(seen) != 7 {
		t.Fatalf("cycle visited %d buckets, want 7", len(seen))
	}
}
