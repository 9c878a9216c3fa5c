package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/nihei9/lalrgen/grammar"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "describe",
		Short:   "Print a report in a readable format",
		Example: `  lalrgen describe grammar-report.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribe,
	}
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}

	return writeDescription(cmd.OutOrStdout(), report)
}

func readReport(path string) (*spec.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open the report %s: %w", path, err)
	}
	defer f.Close()

	d, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	report := &spec.Report{}
	err = json.Unmarshal(d, report)
	if err != nil {
		return nil, err
	}

	return report, nil
}

const descTemplate = `# Class

{{ .Class }}

# Conflicts

{{ printConflictSummary . }}

# Terminals

{{ range slice .Terminals 1 -}}
{{ printTerminal . }}
{{ end }}
# Non-terminals

{{ range slice .NonTerminals 1 -}}
{{ printNonTerminal . }}
{{ end }}
# Productions

{{ range slice .Productions 1 -}}
{{ printProduction . }}
{{ end }}
# States
{{ range .States }}
## State {{ .Number }}

{{ range .Kernel -}}
{{ printItem . }}
{{ end }}
{{ if .Accept -}}
accept on <eof>
{{ end -}}
{{ range .Shift -}}
{{ printShift . }}
{{ end -}}
{{ range .Reduce -}}
{{ printReduce . }}
{{ end -}}
{{ if .DefaultReduction -}}
default reduce {{ .DefaultReduction }}
{{ end -}}
{{ range .ExplicitErrors -}}
error  on {{ printTerminalName . }}
{{ end -}}
{{ range .GoTo -}}
{{ printGoTo . }}
{{ end }}
{{ range .SRConflict -}}
{{ printSRConflict . }}
{{ end -}}
{{ range .RRConflict -}}
{{ printRRConflict . }}
{{ end -}}
{{ end }}
# Diagnostics

{{ range .Diagnostics -}}
{{ printDiagnostic . }}
{{ else -}}
No diagnostic
{{ end -}}`

func assocName(assoc string) string {
	switch assoc {
	case "l":
		return "left"
	case "r":
		return "right"
	case "n":
		return "nonassoc"
	default:
		return "no"
	}
}

// precAssocText renders a precedence and an associativity as two columns, `-` meaning none.
func precAssocText(prec int, assoc string) string {
	p := " -"
	if prec != 0 {
		p = fmt.Sprintf("%2v", prec)
	}
	if assoc == "" {
		assoc = "-"
	}
	return p + " " + assoc
}

func symbolText(report *spec.Report, e int) string {
	if e > 0 {
		return report.Terminals[e].Name
	}
	return report.NonTerminals[e*-1].Name
}

func itemText(report *spec.Report, item *spec.Item) string {
	prod := report.Productions[item.Production]

	var b strings.Builder
	fmt.Fprintf(&b, "%v →", report.NonTerminals[prod.LHS].Name)
	for i, e := range prod.RHS {
		if i == item.Dot {
			fmt.Fprintf(&b, " ・")
		}
		fmt.Fprintf(&b, " %v", symbolText(report, e))
	}
	if item.Dot >= len(prod.RHS) {
		fmt.Fprintf(&b, " ・")
	}
	return b.String()
}

func writeDescription(w io.Writer, report *spec.Report) error {
	termName := func(sym int) string {
		return report.Terminals[sym].Name
	}

	nonTermName := func(sym int) string {
		return report.NonTerminals[sym].Name
	}

	fns := template.FuncMap{
		"printConflictSummary": func(report *spec.Report) string {
			var implicit, explicit int
			for _, s := range report.States {
				for _, c := range s.SRConflict {
					if c.ResolvedBy == grammar.ResolvedByShift.Int() {
						implicit++
					} else {
						explicit++
					}
				}
				// Reduce/reduce conflicts are only ever resolved by declaration order.
				implicit += len(s.RRConflict)
			}
			if implicit+explicit == 0 {
				return "No conflict"
			}
			return fmt.Sprintf("%v shift/reduce and %v reduce/reduce conflicts; %v resolved by precedence, %v by default rules.",
				report.SRConflictCount, report.RRConflictCount, explicit, implicit)
		},
		"printTerminalName": termName,
		"printTerminal": func(term *spec.Terminal) string {
			return fmt.Sprintf("%4v %v %v", term.Number, precAssocText(term.Precedence, term.Associativity), term.Name)
		},
		"printNonTerminal": func(nonTerm *spec.NonTerminal) string {
			if nonTerm.Nullable {
				return fmt.Sprintf("%4v %v (nullable)", nonTerm.Number, nonTerm.Name)
			}
			return fmt.Sprintf("%4v %v", nonTerm.Number, nonTerm.Name)
		},
		"printProduction": func(prod *spec.Production) string {
			rhs := make([]string, len(prod.RHS))
			for i, e := range prod.RHS {
				rhs[i] = symbolText(report, e)
			}
			if len(rhs) == 0 {
				rhs = []string{"ε"}
			}
			text := fmt.Sprintf("%v → %v", nonTermName(prod.LHS), strings.Join(rhs, " "))
			if prod.Action != 0 {
				text = fmt.Sprintf("%v {%v}", text, prod.Action)
			}
			return fmt.Sprintf("%4v %v %v", prod.Number, precAssocText(prod.Precedence, prod.Associativity), text)
		},
		"printItem": func(item *spec.Item) string {
			return fmt.Sprintf("%4v %v", item.Production, itemText(report, item))
		},
		"printShift": func(tran *spec.Transition) string {
			return fmt.Sprintf("shift  %4v on %v", tran.State, termName(tran.Symbol))
		},
		"printReduce": func(reduce *spec.Reduce) string {
			var b strings.Builder
			{
				fmt.Fprintf(&b, "%v", termName(reduce.LookAhead[0]))
				for _, a := range reduce.LookAhead[1:] {
					fmt.Fprintf(&b, ", %v", termName(a))
				}
			}
			return fmt.Sprintf("reduce %4v on %v", reduce.Production, b.String())
		},
		"printGoTo": func(tran *spec.Transition) string {
			return fmt.Sprintf("goto   %4v on %v", tran.State, nonTermName(tran.Symbol))
		},
		"printSRConflict": func(sr *spec.SRConflict) string {
			var adopted string
			switch {
			case sr.AdoptedState != nil:
				adopted = fmt.Sprintf("shift %v", *sr.AdoptedState)
			case sr.AdoptedProduction != nil:
				adopted = fmt.Sprintf("reduce %v", *sr.AdoptedProduction)
			case sr.AdoptedError:
				adopted = "error"
			}
			var resolvedBy string
			switch sr.ResolvedBy {
			case grammar.ResolvedByPrec.Int():
				if sr.AdoptedState != nil {
					resolvedBy = fmt.Sprintf("symbol %v has higher precedence than production %v", termName(sr.Symbol), sr.Production)
				} else {
					resolvedBy = fmt.Sprintf("production %v has higher precedence than symbol %v", sr.Production, termName(sr.Symbol))
				}
			case grammar.ResolvedByAssoc.Int():
				resolvedBy = fmt.Sprintf("symbol %v and production %v have the same precedence, and symbol %v has %v associativity",
					termName(sr.Symbol), sr.Production, termName(sr.Symbol), assocName(report.Terminals[sr.Symbol].Associativity))
			case grammar.ResolvedByShift.Int():
				resolvedBy = fmt.Sprintf("symbol %v and production %v don't define a precedence comparison (default rule)", termName(sr.Symbol), sr.Production)
			default:
				resolvedBy = "?" // This is a bug.
			}
			return fmt.Sprintf("shift/reduce conflict (shift %v, reduce %v) on %v: %v adopted because %v", sr.State, sr.Production, termName(sr.Symbol), adopted, resolvedBy)
		},
		"printRRConflict": func(rr *spec.RRConflict) string {
			var resolvedBy string
			switch rr.ResolvedBy {
			case grammar.ResolvedByProdOrder.Int():
				resolvedBy = fmt.Sprintf("production %v is declared before %v (default rule)", rr.AdoptedProduction, rr.Production2)
			default:
				resolvedBy = "?" // This is a bug.
			}
			return fmt.Sprintf("reduce/reduce conflict (%v, %v) on %v: reduce %v adopted because %v", rr.Production1, rr.Production2, termName(rr.Symbol), rr.AdoptedProduction, resolvedBy)
		},
		"printDiagnostic": func(d *spec.Diagnostic) string {
			var b strings.Builder
			if d.ConflictNum > 0 {
				fmt.Fprintf(&b, "#%v ", d.ConflictNum)
			}
			fmt.Fprintf(&b, "%v: %v: %v", d.Kind, d.Location, d.Message)
			for _, item := range d.Items {
				fmt.Fprintf(&b, "\n    %v", item)
			}
			return b.String()
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(descTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, report)
}
