package grammar

import "fmt"

// CompiledGrammar is the serializable result of a compilation.
type CompiledGrammar struct {
	Name        string         `json:"name"`
	Fingerprint string         `json:"fingerprint"`
	Syntactic   *SyntacticSpec `json:"syntactic"`
}

// RowDisplacementTable overlays sparse rows onto one array. Bounds records the row owning
// each slot, so a slot owned by another row reads as EmptyValue.
type RowDisplacementTable struct {
	OriginalRowCount int   `json:"original_row_count"`
	OriginalColCount int   `json:"original_col_count"`
	EmptyValue       int   `json:"empty_value"`
	Entries          []int `json:"entries"`
	Bounds           []int `json:"bounds"`
	RowDisplacement  []int `json:"row_displacement"`
}

func (tab *RowDisplacementTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return tab.EmptyValue, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	pos := tab.RowDisplacement[row] + col
	if pos >= len(tab.Bounds) || tab.Bounds[pos] != row {
		return tab.EmptyValue, nil
	}
	return tab.Entries[pos], nil
}

// UniqueEntriesTable stores each distinct row once. RowNums maps an original row to its
// unique row, and the unique rows are kept in a RowDisplacementTable.
type UniqueEntriesTable struct {
	UniqueEntries    *RowDisplacementTable `json:"unique_entries"`
	RowNums          []int                 `json:"row_nums"`
	OriginalRowCount int                   `json:"original_row_count"`
	OriginalColCount int                   `json:"original_col_count"`
}

func (tab *UniqueEntriesTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= tab.OriginalRowCount || col < 0 || col >= tab.OriginalColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	return tab.UniqueEntries.Lookup(tab.RowNums[row], col)
}

// SyntacticSpec holds LALR(1) tables. An action entry is a negated state number for a shift,
// a production number for a reduction, StartProduction for accepting, or zero for an error.
// A goto entry is a state number, or zero.
//
// Either the dense tables (Action and GoTo) or the compressed ones are present.
type SyntacticSpec struct {
	Action                  []int               `json:"action,omitempty"`
	GoTo                    []int               `json:"goto,omitempty"`
	CompressedAction        *UniqueEntriesTable `json:"compressed_action,omitempty"`
	CompressedGoTo          *UniqueEntriesTable `json:"compressed_goto,omitempty"`
	StateCount              int                 `json:"state_count"`
	InitialState            int                 `json:"initial_state"`
	StartProduction         int                 `json:"start_production"`
	LHSSymbols              []int               `json:"lhs_symbols"`
	AlternativeSymbolCounts []int               `json:"alternative_symbol_counts"`
	SemanticActions         []int               `json:"semantic_actions"`
	DefaultReductions       []int               `json:"default_reductions"`
	Terminals               []string            `json:"terminals"`
	TerminalCount           int                 `json:"terminal_count"`
	NonTerminals            []string            `json:"non_terminals"`
	NonTerminalCount        int                 `json:"non_terminal_count"`
	EOFSymbol               int                 `json:"eof_symbol"`
}

func (s *SyntacticSpec) LookupAction(state int, term int) (int, error) {
	if s.CompressedAction != nil {
		return s.CompressedAction.Lookup(state, term)
	}
	if state < 0 || state >= s.StateCount || term < 0 || term >= s.TerminalCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", state, term)
	}
	return s.Action[state*s.TerminalCount+term], nil
}

func (s *SyntacticSpec) LookupGoTo(state int, nonTerm int) (int, error) {
	if s.CompressedGoTo != nil {
		return s.CompressedGoTo.Lookup(state, nonTerm)
	}
	if state < 0 || state >= s.StateCount || nonTerm < 0 || nonTerm >= s.NonTerminalCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", state, nonTerm)
	}
	return s.GoTo[state*s.NonTerminalCount+nonTerm], nil
}
