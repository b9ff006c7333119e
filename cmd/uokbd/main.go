// uokbd is the command-line companion of the Ũõ Keyboard input method. It
// converts romanized text, replays keystrokes through the composition
// engine against an in-memory host, checks rule tables and reads the
// commit journal.
package main

import (
	"fmt"
	"os"
	"time"

	"uokeyboard/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

const crashReportMaxAge = 30 * 24 * time.Hour

func main() {
	if err := execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func execute(args []string) error {
	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		Version:   Version,
		Component: "uokbd",
	})

	root := newRootCmd(&app{crash: crash})
	root.SetArgs(args)
	err := crash.Recover(map[string]any{"args": args}, root.Execute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
