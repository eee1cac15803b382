package logging_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"radiosim/internal/config"
	"radiosim/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (func(), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "radiosim.log")
	logger, err := logging.New(logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	emit := func() {
		logging.NewComponentLogger(logger, "settings").Warn("dependency key not found",
			logging.String("dependency", "interferometer/noise/enable"),
			logging.Int("count", 2),
			logging.Error(errors.New("no such key")),
		)
		logger.Debug("debug detail")
	}
	return emit, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	emit, path := newFileLogger(t, "console", "info")
	emit()
	out := readLog(t, path)

	if !strings.Contains(out, " WARN settings: dependency key not found") {
		t.Fatalf("expected level and component prefix, got %q", out)
	}
	for _, want := range []string{"dependency=interferometer/noise/enable", "count=2", `error="no such key"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "component=") {
		t.Fatalf("component should render as a prefix, got %q", out)
	}
	if strings.Contains(out, "debug detail") {
		t.Fatalf("debug line should be filtered at info level, got %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	emit, path := newFileLogger(t, "console", "debug")
	emit()
	out := readLog(t, path)
	if !strings.Contains(out, "debug detail") {
		t.Fatalf("expected debug line, got %q", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", out)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	emit, path := newFileLogger(t, "json", "warn")
	emit()
	lines := strings.Split(strings.TrimSpace(readLog(t, path)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line at warn level, got %d", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	if entry["level"] != "warn" || entry["msg"] != "dependency key not found" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	if entry[logging.FieldComponent] != "settings" {
		t.Fatalf("expected component field, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("settings loaded", logging.Int("count", 3))

	out := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if !strings.Contains(out, "settings loaded count=3") {
		t.Fatalf("expected log line in file, got %q", out)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(t.Context(), 12) {
		t.Fatal("nop logger should not enable any level")
	}
	logging.WarnWithContext(logging.NewComponentLogger(nil, "x"), "ignored", "test_event")
}

func TestHasAttrKey(t *testing.T) {
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "x"), logging.Bool("ok", true)}
	if !logging.HasAttrKey(attrs, "ok") || logging.HasAttrKey(attrs, "missing") {
		t.Fatal("HasAttrKey mismatch")
	}
}
