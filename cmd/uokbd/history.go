package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"uokeyboard/internal/history"
)

type historyOptions struct {
	limit int
	top   bool
}

func newHistoryCommand(a *app) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show committed words from the journal",
		Long: `List the most recent commits from the local journal, or with --top the
words committed most often.`,
		Example: `  uokbd history --limit 50
  uokbd history --top`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := history.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if opts.top {
				words, err := j.Top(opts.limit)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w, "COUNT\tOUTPUT\tINPUT")
				for _, wc := range words {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", wc.Count, wc.Output, wc.Input)
				}
				return w.Flush()
			}

			entries, err := j.Recent(opts.limit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, "TIME\tOUTPUT\tINPUT")
			for _, e := range entries {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.Output, e.Input)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "number of rows")
	cmd.Flags().BoolVar(&opts.top, "top", false, "show the most frequent words")

	cmd.AddCommand(newHistoryPruneCommand(a))
	return cmd
}

func newHistoryPruneCommand(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			j, err := history.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			n, err := j.Prune(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			a.log().Info("journal pruned", "removed", n, "older_than", olderThan)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "remove entries older than this")
	return cmd
}
