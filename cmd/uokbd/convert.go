package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uokeyboard/internal/translit"
)

func newConvertCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <text>...",
		Short: "Convert romanized text",
		Long:  `Print the conversion of each argument with the active rule table.`,
		Example: `  uokbd convert ami tomake
  uokbd --rules my-rules.toml convert kemon`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := translit.LoadEngine(a.cfg.Rules.Path)
			if err != nil {
				return err
			}
			a.log().Debug("rules loaded", "table", engine.Name(), "rules", engine.Rules())
			for _, arg := range args {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), engine.Convert(arg))
			}
			return nil
		},
	}
}
