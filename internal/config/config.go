// Package config handles configuration loading and validation for uokbd.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"uokeyboard/internal/host"
	"uokeyboard/internal/logging"
)

// Version is the current configuration schema version.
const Version = 1

// Registration identifiers of the input method.
const (
	DefaultCLSID       = "9de5f508-1b88-42bc-9f58-be50828c40b1"
	DefaultProfile     = "5f9083f2-0f4a-4c6e-af95-12c7bfc1603e"
	DefaultDescription = "Ũõ Keyboard"
	DefaultLanguageID  = 0x0845
	DefaultIconIndex   = -12
)

// Config is the uokbd configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	IME     IMEConfig     `toml:"ime" json:"ime" yaml:"ime"`
	Rules   RulesConfig   `toml:"rules" json:"rules" yaml:"rules"`
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`
}

// IMEConfig identifies the input method to the host.
type IMEConfig struct {
	// Description is the display name.
	Description string `toml:"description" json:"description" yaml:"description"`

	// LanguageID tags composed text. 0x0845 is Bangla (Bangladesh).
	LanguageID uint16 `toml:"language_id" json:"language_id" yaml:"language_id"`

	// CLSID is the class id reported by the function provider.
	CLSID string `toml:"clsid" json:"clsid" yaml:"clsid"`

	// Profile is the language profile GUID.
	Profile string `toml:"profile" json:"profile" yaml:"profile"`

	// IconIndex is the icon resource index in the module.
	IconIndex int32 `toml:"icon_index" json:"icon_index" yaml:"icon_index"`
}

// RulesConfig selects the transliteration table.
type RulesConfig struct {
	// Path is a TOML, YAML or JSON rule table. Empty uses the built-in table.
	Path string `toml:"path" json:"path" yaml:"path"`

	// Watch reloads the table when the file changes.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file", "both" or "discard".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of rotated log files in days.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether to compress rotated logs.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// HistoryConfig controls the commit journal.
type HistoryConfig struct {
	// Enabled records committed words.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		IME: IMEConfig{
			Description: DefaultDescription,
			LanguageID:  DefaultLanguageID,
			CLSID:       DefaultCLSID,
			Profile:     DefaultProfile,
			IconIndex:   DefaultIconIndex,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "uokbd.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
		History: HistoryConfig{
			Path: filepath.Join(PlatformDataDir(), "history.db"),
		},
	}
}

// Dir returns the configuration directory, honouring UOKBD_CONFIG_DIR.
func Dir() string {
	if envDir := os.Getenv("UOKBD_CONFIG_DIR"); envDir != "" {
		return envDir
	}
	return PlatformConfigDir()
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// ApplyEnvOverrides applies UOKBD_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("UOKBD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("UOKBD_RULES"); v != "" {
		c.Rules.Path = v
	}
	if v := os.Getenv("UOKBD_HISTORY_PATH"); v != "" {
		c.History.Path = v
		c.History.Enabled = true
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ParsedCLSID returns the class id as a GUID.
func (c *IMEConfig) ParsedCLSID() (host.GUID, error) {
	id, err := host.ParseGUID(c.CLSID)
	if err != nil {
		return host.GUID{}, fmt.Errorf("clsid: %w", err)
	}
	return id, nil
}

// LoggerConfig converts the logging section for logging.New.
func (l *LoggingConfig) LoggerConfig(component string) (*logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}
	return &logging.Config{
		Level:      level,
		Format:     format,
		Output:     l.Output,
		FilePath:   l.FilePath,
		MaxSize:    int64(l.MaxSizeMB),
		MaxAge:     l.MaxAgeDays,
		MaxBackups: l.MaxBackups,
		Compress:   l.Compress,
		Component:  component,
	}, nil
}
