package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if got := LevelString(test.level); got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("expected default format Text, got %v", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if cfg.Component != "uokbd" {
		t.Errorf("expected component uokbd, got %s", cfg.Component)
	}
	if !strings.Contains(cfg.FilePath, "uokbd") {
		t.Errorf("default log path %q does not mention uokbd", cfg.FilePath)
	}
}

func newBufferLogger(t *testing.T, format Format) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(&Config{
		Level:     LevelDebug,
		Format:    format,
		Component: "test",
		Writer:    &buf,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return logger, &buf
}

func TestJSONFormat(t *testing.T) {
	logger, buf := newBufferLogger(t, FormatJSON)
	logger.Info("hello", "input", "ami")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %s", err, buf.String())
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["input"] != "ami" {
		t.Errorf("input should not be redacted, got %v", entry["input"])
	}
}

func TestRedaction(t *testing.T) {
	logger, buf := newBufferLogger(t, FormatText)
	logger.Info("attrs",
		"password", "hunter2",
		"api_key", "abc",
		"key", "VK_A",
		"session_id", "s-1",
		"client_id", 7,
	)

	out := buf.String()
	for _, secret := range []string{"hunter2", "abc"} {
		if strings.Contains(out, secret) {
			t.Errorf("output leaks %q: %s", secret, out)
		}
	}
	for _, kept := range []string{"key=VK_A", "session_id=s-1", "client_id=7"} {
		if !strings.Contains(out, kept) {
			t.Errorf("output is missing %q: %s", kept, out)
		}
	}
}

func TestShouldRedact(t *testing.T) {
	tests := map[string]bool{
		"password":     true,
		"db_password":  true,
		"secret":       true,
		"access_token": true,
		"Credential":   true,
		"private_path": true,
		"bearer":       true,
		"key":          false,
		"session_id":   false,
		"input":        false,
		"output":       false,
		"char":         false,
	}
	for key, want := range tests {
		if got := shouldRedact(key); got != want {
			t.Errorf("shouldRedact(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestWithSessionAndComponent(t *testing.T) {
	logger, buf := newBufferLogger(t, FormatText)
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")

	logger.WithSession(id).WithComponent("ime").Info("activated")
	out := buf.String()
	if !strings.Contains(out, "session_id="+id.String()) {
		t.Errorf("missing session id: %s", out)
	}
	if !strings.Contains(out, "component=ime") {
		t.Errorf("missing component: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: LevelWarn, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") {
		t.Errorf("info line written at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("warn line missing: %s", buf.String())
	}
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	logger, buf := newBufferLogger(t, FormatText)
	SetDefault(logger)
	Default().Warn("through default")
	slog.Warn("through slog")
	if !strings.Contains(buf.String(), "through default") {
		t.Errorf("default logger not used: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "through slog") {
		t.Errorf("slog default not replaced: %s", buf.String())
	}
}

func TestLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "uokbd.log")
	logger, err := New(&Config{Level: LevelInfo, Output: "file", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("failed to create file logger: %v", err)
	}
	logger.Info("to file")
	if err := logger.Sync(); err != nil {
		t.Errorf("sync: %v", err)
	}
	files, err := logger.LogFiles()
	if err != nil || len(files) != 1 || files[0] != path {
		t.Errorf("LogFiles() = %v, %v; want [%s]", files, err, path)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("file content: %s", data)
	}
}

// fakeClock returns a clock that advances one second per call.
func fakeClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestRotator(t *testing.T, cfg *Config) *FileRotator {
	t.Helper()
	r, err := NewFileRotator(cfg)
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}
	r.now = fakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	r.lastTime = r.now()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestFileRotatorRotatesOnSize(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	r := newTestRotator(t, &Config{FilePath: logPath, MaxSize: 1, MaxBackups: 3})

	chunk := bytes.Repeat([]byte("x"), 700*1024)
	for i := 0; i < 2; i++ {
		n, err := r.Write(chunk)
		if err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		if n != len(chunk) {
			t.Errorf("expected to write %d bytes, wrote %d", len(chunk), n)
		}
	}

	files, err := r.LogFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected current + 1 rotated file, got %v", files)
	}
	st, err := os.Stat(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() != int64(len(chunk)) {
		t.Errorf("current log has %d bytes, want %d", st.Size(), len(chunk))
	}
}

func TestFileRotatorRotatesOnNewDay(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	r := newTestRotator(t, &Config{FilePath: logPath, MaxSize: 1, MaxBackups: 3, Compress: true})

	if _, err := r.Write([]byte("day one\n")); err != nil {
		t.Fatal(err)
	}
	r.now = fakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	if _, err := r.Write([]byte("day two\n")); err != nil {
		t.Fatal(err)
	}

	gz, err := filepath.Glob(filepath.Join(filepath.Dir(logPath), "test-*.log.gz"))
	if err != nil {
		t.Fatal(err)
	}
	if len(gz) != 1 {
		t.Errorf("expected one compressed backup, got %v", gz)
	}
}

func TestFileRotatorPrunesBackups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	r := newTestRotator(t, &Config{FilePath: logPath, MaxSize: 1, MaxBackups: 1})

	chunk := bytes.Repeat([]byte("y"), 600*1024)
	for i := 0; i < 4; i++ {
		if _, err := r.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	files, _ := r.LogFiles()
	if len(files) != 2 {
		t.Errorf("expected current + 1 backup, got %v", files)
	}
}

func TestCrashHandlerRecover(t *testing.T) {
	var logBuf bytes.Buffer
	logger, err := New(&Config{Level: LevelInfo, Writer: &logBuf})
	if err != nil {
		t.Fatal(err)
	}
	handler := NewCrashHandler(&CrashHandlerConfig{
		CrashDir:  t.TempDir(),
		Version:   "1.0.0",
		Component: "test",
		Logger:    logger.Logger,
	})

	err = handler.Recover(map[string]any{"command": "simulate"}, func() error {
		panic("ime: overlapping exclusive access")
	})
	if !errors.Is(err, ErrPanicked) {
		t.Fatalf("expected ErrPanicked, got %v", err)
	}

	reports, err := handler.CrashReports()
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	report := reports[0]
	if report.PanicValue != "ime: overlapping exclusive access" {
		t.Errorf("panic value = %q", report.PanicValue)
	}
	if report.Version != "1.0.0" || report.Component != "test" {
		t.Errorf("report metadata = %+v", report)
	}
	if report.Context["command"] != "simulate" {
		t.Errorf("context = %v", report.Context)
	}
	if !strings.Contains(report.StackTrace, "goroutine") {
		t.Error("stack trace missing")
	}
	if !strings.Contains(logBuf.String(), report.ID) {
		t.Errorf("crash not logged: %s", logBuf.String())
	}
}

func TestCrashHandlerPassesErrorsThrough(t *testing.T) {
	handler := NewCrashHandler(&CrashHandlerConfig{CrashDir: t.TempDir()})
	errPlain := errors.New("plain")

	if err := handler.Recover(nil, func() error { return errPlain }); !errors.Is(err, errPlain) {
		t.Errorf("expected plain error, got %v", err)
	}
	reports, _ := handler.CrashReports()
	if len(reports) != 0 {
		t.Errorf("no report expected, got %d", len(reports))
	}
}

func TestCrashHandlerCleanupOld(t *testing.T) {
	dir := t.TempDir()
	handler := NewCrashHandler(&CrashHandlerConfig{CrashDir: dir})
	handler.HandlePanic("old", nil)
	handler.HandlePanic("new", nil)

	files, _ := filepath.Glob(filepath.Join(dir, "crash-*.json"))
	if len(files) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(files))
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(files[0], old, old); err != nil {
		t.Fatal(err)
	}

	if err := handler.CleanupOldCrashReports(24 * time.Hour); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	left, _ := filepath.Glob(filepath.Join(dir, "crash-*.json"))
	if len(left) != 1 {
		t.Errorf("expected 1 report left, got %d", len(left))
	}
}
