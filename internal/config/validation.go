package config

import (
	"fmt"
	"strings"

	"uokeyboard/internal/host"
	"uokeyboard/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors. All problems are reported
// together.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Version < 1 || c.Version > Version {
		add("version", "unsupported version %d (current: %d)", c.Version, Version)
	}

	if c.IME.LanguageID == 0 {
		add("ime.language_id", "must be non-zero")
	}
	if _, err := host.ParseGUID(c.IME.CLSID); err != nil {
		add("ime.clsid", "invalid GUID %q", c.IME.CLSID)
	}
	if _, err := host.ParseGUID(c.IME.Profile); err != nil {
		add("ime.profile", "invalid GUID %q", c.IME.Profile)
	}

	if c.Rules.Watch && c.Rules.Path == "" {
		add("rules.watch", "requires rules.path")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "unknown level %q", c.Logging.Level)
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		add("logging.format", "unknown format %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr", "discard":
	case "file", "both":
		if c.Logging.FilePath == "" {
			add("logging.file_path", "required when output is %q", c.Logging.Output)
		}
	default:
		add("logging.output", "unknown output %q", c.Logging.Output)
	}
	if c.Logging.MaxSizeMB < 0 {
		add("logging.max_size_mb", "must not be negative")
	}
	if c.Logging.MaxBackups < 0 {
		add("logging.max_backups", "must not be negative")
	}

	if c.History.Enabled && c.History.Path == "" {
		add("history.path", "required when history is enabled")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
