package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "List log files",
		Long: `Print the current log file followed by any rotated ones. When
logging.output does not include a file, print where logs go instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := a.logger.LogFiles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				_, err = fmt.Fprintf(out, "logging to %s\n", a.cfg.Logging.Output)
				return err
			}
			for _, f := range files {
				_, _ = fmt.Fprintln(out, f)
			}
			return nil
		},
	}
}
