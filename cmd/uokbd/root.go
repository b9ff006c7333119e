package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"uokeyboard/internal/config"
	"uokeyboard/internal/logging"
)

// app carries what the root command sets up for its subcommands.
type app struct {
	configPath string
	rulesPath  string
	verbose    bool

	cfg    *config.Config
	logger *logging.Logger
	crash  *logging.CrashHandler
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "uokbd",
		Short: "Ũõ Keyboard - phonetic Bangla input method",
		Long: `uokbd drives the Ũõ Keyboard composition engine from the command line.

It converts romanized text with the active rule table, replays keystrokes
against an in-memory text host, validates rule files and reads the local
commit journal.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&a.rulesPath, "rules", "", "rule file overriding rules.path")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newConvertCommand(a))
	rootCmd.AddCommand(newSimulateCommand(a))
	rootCmd.AddCommand(newRulesCommand(a))
	rootCmd.AddCommand(newHistoryCommand(a))
	rootCmd.AddCommand(newClassifyCommand(a))
	rootCmd.AddCommand(newLogsCommand(a))

	return rootCmd
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.rulesPath != "" {
		cfg.Rules.Path = a.rulesPath
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	logCfg, err := cfg.Logging.LoggerConfig("uokbd")
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if logCfg.Output == "" || logCfg.Output == "stderr" {
		logCfg.Writer = cmd.ErrOrStderr()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	logging.SetDefault(logger)
	logger.Debug("config loaded",
		"path", a.configPath,
		"rules", cfg.Rules.Path,
		"level", logging.LevelString(logCfg.Level))

	if a.crash != nil {
		if err := a.crash.CleanupOldCrashReports(crashReportMaxAge); err != nil {
			logger.Debug("crash report cleanup failed", "error", err)
		}
	}
	return nil
}

func (a *app) close() error {
	if a.logger == nil {
		return nil
	}
	return errors.Join(a.logger.Sync(), a.logger.Close())
}

// log returns the command logger, or slog's default before setup.
func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger.Logger
}
