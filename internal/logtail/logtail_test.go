package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
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

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v, want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	line := `time=2026-10-14T09:30:00.000Z level=WARN msg="poll failed" error="fetch campaigns: status 502" failures=2`
	e := Parse(line)

	if e.Level != slog.LevelWarn {
		t.Fatalf("Level = %v, want WARN", e.Level)
	}
	if e.Message != "poll failed" {
		t.Fatalf("Message = %q, want %q", e.Message, "poll failed")
	}
	want := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
	if v, ok := e.Attr("error"); !ok || v != "fetch campaigns: status 502" {
		t.Fatalf("Attr(error) = %q, %v", v, ok)
	}
	if v, ok := e.Attr("failures"); !ok || v != "2" {
		t.Fatalf("Attr(failures) = %q, %v", v, ok)
	}
	if _, ok := e.Attr("missing"); ok {
		t.Fatalf("Attr(missing) reported present")
	}
}

func TestParseEscapedQuotes(t *testing.T) {
	e := Parse(`time=2026-10-14T09:30:00Z level=INFO msg="said \"hi\"" lead_id=3`)
	if e.Message != `said "hi"` {
		t.Fatalf("Message = %q, want %q", e.Message, `said "hi"`)
	}
	if v, _ := e.Attr("lead_id"); v != "3" {
		t.Fatalf("Attr(lead_id) = %q, want 3", v)
	}
}

func TestParsePlainLine(t *testing.T) {
	e := Parse("panic: something broke")
	if e.Level != slog.LevelInfo || e.Message != "panic: something broke" {
		t.Fatalf("Parse(plain) = %+v", e)
	}
}

func TestTailAndFilter(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "addressable.log")
	lines := []string{
		`time=2026-10-14T09:30:00Z level=DEBUG msg="request" path=/api/v1/campaigns.json`,
		`time=2026-10-14T09:30:01Z level=INFO msg="lead tagged" lead_id=1`,
		"",
		`time=2026-10-14T09:30:02Z level=ERROR msg="mailing action failed" mailing_id=101`,
	}
	if err := os.WriteFile(logPath, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	entries, err := Tail(logPath, 0)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3 (blank line skipped)", len(entries))
	}

	tests := []struct {
		name  string
		min   slog.Level
		query string
		want  []string
	}{
		{name: "all", min: slog.LevelDebug, want: []string{"request", "lead tagged", "mailing action failed"}},
		{name: "info and up", min: slog.LevelInfo, want: []string{"lead tagged", "mailing action failed"}},
		{name: "query", min: slog.LevelDebug, query: "MAILING_ID=101", want: []string{"mailing action failed"}},
		{name: "no match", min: slog.LevelDebug, query: "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range Filter(entries, tt.min, tt.query) {
				got = append(got, e.Message)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Filter = %v, want %v", got, tt.want)
			}
		})
	}
}
