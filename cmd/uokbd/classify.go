package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"uokeyboard/internal/keyclass"
)

func newClassifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <keys>",
		Short: "Show how keys are classified",
		Long: `Classify each key against the current keyboard state, the way the
engine sees it when the key arrives. On Windows the caps lock and modifier
state is read from the system, so {shift} and {caps} have no effect; elsewhere
no modifiers are held.`,
		Example: `  uokbd classify 'ami1.{np5}{bs}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strokes, err := parseKeys(args[0])
			if err != nil {
				return err
			}
			classifier := keyclass.NewClassifier(keyclass.NewOSReader(), a.log())

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "KEY\tCODE\tCATEGORY")
			for _, k := range strokes {
				if k.toggleCaps {
					continue
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", k.label, keyclass.KeyName(k.code), classifier.Classify(k.code))
			}
			return tw.Flush()
		},
	}
}
