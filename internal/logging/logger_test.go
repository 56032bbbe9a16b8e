package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	return slog.New(newConsoleHandler(buf, levelVar))
}

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Info("series released",
		String(FieldComponent, "series-promoter"),
		String(FieldSeriesID, "abc"),
		Int(FieldEpisodeNumber, 3))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO series-promoter: series released") {
		t.Fatalf("component prefix missing: %q", line)
	}
	if !strings.Contains(line, "series_id=abc") || !strings.Contains(line, "episode_number=3") {
		t.Fatalf("attrs missing: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Info("msg", String("title", "Night Shift"))

	if !strings.Contains(buf.String(), `title="Night Shift"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestConsoleHandlerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo).WithGroup("tick")

	logger.Info("msg", Int("promoted", 2))

	if !strings.Contains(buf.String(), "tick.promoted=2") {
		t.Fatalf("group not flattened: %q", buf.String())
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record leaked past warn level: %q", out)
	}
	if !strings.Contains(out, "WARN shown") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestNewComponentLoggerNilBase(t *testing.T) {
	logger := NewComponentLogger(nil, "test")
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Info("does not panic")
}
