package grammar

import (
	"fmt"
	"strings"
)

type DiagnosticKind string

const (
	DiagUnreachableNonTerminal = DiagnosticKind("unreachable-nonterminal")
	DiagUselessProduction      = DiagnosticKind("useless-production")
	DiagUnusedTerminal         = DiagnosticKind("unused-terminal")
	DiagShiftReduceConflict    = DiagnosticKind("shift-reduce-conflict")
	DiagReduceReduceConflict   = DiagnosticKind("reduce-reduce-conflict")
	DiagNeverReduced           = DiagnosticKind("never-reduced")
)

func (k DiagnosticKind) String() string {
	return string(k)
}

func (k DiagnosticKind) isConflict() bool {
	return k == DiagShiftReduceConflict || k == DiagReduceReduceConflict
}

// Diagnostic is a non-fatal finding. Conflict diagnostics additionally carry the state,
// the conflicting items, the adopted action, and their position in the running count of
// conflicts.
type Diagnostic struct {
	Kind     DiagnosticKind
	Location string
	Message  string

	// Row is the line of the grammar definition, or zero when unknown.
	Row int

	State       int
	Symbol      string
	Items       []string
	Adopted     string
	ResolvedBy  ConflictResolutionMethod
	ConflictNum int
}

func (d *Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %v: %v", d.Kind, d.Location, d.Message)
	for _, item := range d.Items {
		fmt.Fprintf(&b, "\n    %v", item)
	}
	return b.String()
}

// Diagnostics accumulates the findings of every phase of a single compilation.
// Each phase receives the same value and only appends to it.
type Diagnostics struct {
	entries []*Diagnostic
	srCount int
	rrCount int
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

func (d *Diagnostics) add(diag *Diagnostic) {
	switch diag.Kind {
	case DiagShiftReduceConflict:
		d.srCount++
	case DiagReduceReduceConflict:
		d.rrCount++
	}
	if diag.Kind.isConflict() {
		diag.ConflictNum = d.srCount + d.rrCount
	} else {
		diag.State = -1
	}
	d.entries = append(d.entries, diag)
}

func (d *Diagnostics) Entries() []*Diagnostic {
	return d.entries
}

func (d *Diagnostics) Filter(kind DiagnosticKind) []*Diagnostic {
	var diags []*Diagnostic
	for _, diag := range d.entries {
		if diag.Kind != kind {
			continue
		}
		diags = append(diags, diag)
	}
	return diags
}

func (d *Diagnostics) Len() int {
	return len(d.entries)
}

func (d *Diagnostics) ConflictCount() int {
	return d.srCount + d.rrCount
}

func (d *Diagnostics) SRConflictCount() int {
	return d.srCount
}

func (d *Diagnostics) RRConflictCount() int {
	return d.rrCount
}
