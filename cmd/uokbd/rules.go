package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"uokeyboard/internal/translit"
)

func newRulesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect transliteration rule tables",
	}
	cmd.AddCommand(newRulesCheckCommand(a))
	cmd.AddCommand(newRulesShowCommand(a))
	return cmd
}

func newRulesCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a rule file",
		Long: `Load a rule file, validate it against the rule schema and compile it.

The format follows the extension: .toml, .yaml, .yml or .json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := translit.Load(args[0])
			if err != nil {
				return err
			}
			engine, err := translit.New(table)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			a.log().Debug("rules checked", "path", args[0], "table", engine.Name())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s, %d rules)\n", args[0], engine.Name(), engine.Rules())
			return nil
		},
	}
}

func newRulesShowCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active rule table",
		Long:  `Print the rule table selected by rules.path, or the built-in table.`,
		Example: `  uokbd rules show
  uokbd rules show --format yaml > my-rules.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := translit.Default()
			if path := a.cfg.Rules.Path; path != "" {
				var err error
				if table, err = translit.Load(path); err != nil {
					return err
				}
			}
			data, err := translit.Marshal(table, translit.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(translit.FormatTOML), "output format: toml, yaml, json")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"toml", "yaml", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}
