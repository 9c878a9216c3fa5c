package main

import (
	"fmt"
	"io"
	"strings"

	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "graph",
		Short:   "Print the automaton of a report in the Graphviz dot language",
		Example: `  lalrgen graph grammar-report.json | dot -Tsvg -o grammar.svg`,
		Args:    cobra.ExactArgs(1),
		RunE:    runGraph,
	}
	rootCmd.AddCommand(cmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}

	return writeGraph(cmd.OutOrStdout(), report)
}

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quoteDOT(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}

// writeGraph draws one node per state labeled with its kernel items. Solid edges are shifts
// and dashed edges are gotos. A conflicted state is drawn in red.
func writeGraph(w io.Writer, report *spec.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph automaton {\n")
	fmt.Fprintf(&b, "    rankdir=LR;\n")
	fmt.Fprintf(&b, "    node [shape=box, fontname=\"monospace\"];\n")

	for _, s := range report.States {
		var label strings.Builder
		fmt.Fprintf(&label, "State %v\\l", s.Number)
		for _, item := range s.Kernel {
			fmt.Fprintf(&label, "%v\\l", dotEscaper.Replace(itemText(report, item)))
		}

		var attrs []string
		if s.Accept {
			attrs = append(attrs, "peripheries=2")
		}
		if len(s.SRConflict) > 0 || len(s.RRConflict) > 0 {
			attrs = append(attrs, "color=red")
		}
		fmt.Fprintf(&b, "    s%v [label=\"%v\"", s.Number, label.String())
		for _, a := range attrs {
			fmt.Fprintf(&b, ", %v", a)
		}
		fmt.Fprintf(&b, "];\n")
	}

	for _, s := range report.States {
		for _, tran := range s.Shift {
			fmt.Fprintf(&b, "    s%v -> s%v [label=%v];\n", s.Number, tran.State, quoteDOT(report.Terminals[tran.Symbol].Name))
		}
		for _, tran := range s.GoTo {
			fmt.Fprintf(&b, "    s%v -> s%v [label=%v, style=dashed];\n", s.Number, tran.State, quoteDOT(report.NonTerminals[tran.Symbol].Name))
		}
	}
	fmt.Fprintf(&b, "}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
