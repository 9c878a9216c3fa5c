package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/spf13/cobra"
)

var showFlags = struct {
	format *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the action and goto tables of a report as a grid",
		Example: `  lalrgen show grammar-report.json
  lalrgen show grammar-report.json --format md`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
	showFlags.format = cmd.Flags().StringP("format", "f", "table", "output format [table|md|csv]")
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}

	return writeGrid(cmd.OutOrStdout(), report, *showFlags.format)
}

// genGrid lays the tables out one row per state. A shift is sN, a reduction rN, and a goto
// is the bare state number. The last column holds the default reduction.
func genGrid(report *spec.Report) (table.Row, []table.Row) {
	header := table.Row{"state"}
	for _, term := range report.Terminals[1:] {
		header = append(header, term.Name)
	}
	// The augmented start symbol never appears in the goto table.
	nonTerms := report.NonTerminals[2:]
	for _, nonTerm := range nonTerms {
		header = append(header, nonTerm.Name)
	}
	header = append(header, "default")

	rows := make([]table.Row, len(report.States))
	for i, s := range report.States {
		actions := make([]string, len(report.Terminals))
		if s.Accept {
			actions[report.Terminals[1].Number] = "acc"
		}
		for _, tran := range s.Shift {
			actions[tran.Symbol] = fmt.Sprintf("s%v", tran.State)
		}
		for _, reduce := range s.Reduce {
			for _, la := range reduce.LookAhead {
				actions[la] = fmt.Sprintf("r%v", reduce.Production)
			}
		}
		for _, term := range s.ExplicitErrors {
			actions[term] = "err"
		}

		goTos := make([]string, len(report.NonTerminals))
		for _, tran := range s.GoTo {
			goTos[tran.Symbol] = strconv.Itoa(tran.State)
		}

		row := table.Row{s.Number}
		for _, a := range actions[1:] {
			row = append(row, a)
		}
		for _, nonTerm := range nonTerms {
			row = append(row, goTos[nonTerm.Number])
		}
		if s.DefaultReduction != 0 {
			row = append(row, fmt.Sprintf("r%v", s.DefaultReduction))
		} else {
			row = append(row, "")
		}
		rows[i] = row
	}

	return header, rows
}

func writeGrid(w io.Writer, report *spec.Report, format string) error {
	header, rows := genGrid(report)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)

	switch format {
	case "table":
		t.Render()
	case "md", "markdown":
		t.RenderMarkdown()
	case "csv":
		t.RenderCSV()
	default:
		return fmt.Errorf("unknown format: %v", format)
	}
	return nil
}
