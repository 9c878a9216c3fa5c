package main

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// tracer traces with key 'lalrgen.grammar', the same key the grammar package uses.
func tracer() tracing.Trace {
	return tracing.Select("lalrgen.grammar")
}

var rootFlags = struct {
	config *string
}{}

var rootCmd = &cobra.Command{
	Use:   "lalrgen",
	Short: "Generate LALR(1) parsing tables from a grammar",
	Long: `lalrgen provides the following features:
- Generates LALR(1) parsing tables and a report from a grammar definition.
- Prints a report as text, as an action/goto grid, or as a Graphviz graph.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootFlags.config = rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (default lalrgen.yaml)")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		pterm.Error.Println(err.Error())
		return err
	}
	return nil
}
