package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrPanicked is wrapped by the error Recover returns after a panic.
var ErrPanicked = errors.New("panic recovered")

// CrashReport describes one recovered panic.
type CrashReport struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Version    string         `json:"version"`
	GOOS       string         `json:"goos"`
	GOARCH     string         `json:"goarch"`
	PanicValue string         `json:"panic_value"`
	StackTrace string         `json:"stack_trace"`
	Component  string         `json:"component,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// CrashHandler turns panics into crash reports on disk and an error.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	logger    *slog.Logger
	now       func() time.Time
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is the directory crash reports are written to.
	CrashDir string

	// Version is the application version.
	Version string

	// Component is the component name.
	Component string

	// Logger receives one error line per crash. Nil uses slog.Default.
	Logger *slog.Logger
}

// DefaultCrashDir returns the platform-specific default crash directory,
// next to the default log file.
func DefaultCrashDir() string {
	return filepath.Join(filepath.Dir(DefaultLogPath()), "crashes")
}

// NewCrashHandler creates a CrashHandler.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{}
	}
	h := &CrashHandler{
		crashDir:  cfg.CrashDir,
		version:   cfg.Version,
		component: cfg.Component,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if h.crashDir == "" {
		h.crashDir = DefaultCrashDir()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Recover runs fn. If fn panics, a crash report is written and an error
// wrapping ErrPanicked is returned.
func (h *CrashHandler) Recover(ctx map[string]any, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			report := h.HandlePanic(r, ctx)
			err = fmt.Errorf("%w: %s (report %s)", ErrPanicked, report.PanicValue, report.ID)
		}
	}()
	return fn()
}

// HandlePanic builds a crash report for panicValue, writes it and logs it.
func (h *CrashHandler) HandlePanic(panicValue any, ctx map[string]any) CrashReport {
	h.mu.Lock()
	defer h.mu.Unlock()

	report := CrashReport{
		ID:         uuid.NewString(),
		Timestamp:  h.now().UTC(),
		Version:    h.version,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		PanicValue: fmt.Sprint(panicValue),
		StackTrace: string(debug.Stack()),
		Component:  h.component,
		Context:    ctx,
	}

	path, err := h.writeCrashDump(report)
	if err != nil {
		h.logger.Error("crash", "panic", report.PanicValue, "id", report.ID, "write_error", err)
		return report
	}
	h.logger.Error("crash", "panic", report.PanicValue, "id", report.ID, "report", path)
	return report
}

func (h *CrashHandler) writeCrashDump(report CrashReport) (string, error) {
	if err := os.MkdirAll(h.crashDir, 0o750); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}

	name := fmt.Sprintf("crash-%s-%s.json", report.Timestamp.Format("20060102-150405"), report.ID[:8])
	path := filepath.Join(h.crashDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// CrashReports returns the stored reports, oldest first.
func (h *CrashHandler) CrashReports() ([]CrashReport, error) {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Timestamp.Before(reports[j].Timestamp) })
	return reports, nil
}

// CleanupOldCrashReports removes reports older than maxAge.
func (h *CrashHandler) CleanupOldCrashReports(maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return err
	}

	cutoff := h.now().Add(-maxAge)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
	return nil
}
