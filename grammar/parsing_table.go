package grammar

import (
	"fmt"
	"strings"

	"github.com/cnf/structhash"
	"github.com/nihei9/lalrgen/grammar/symbol"
)

type ActionType string

const (
	ActionTypeShift  = ActionType("shift")
	ActionTypeReduce = ActionType("reduce")
	ActionTypeAccept = ActionType("accept")
	ActionTypeError  = ActionType("error")
)

// actionEntry encodes a shift as the negated next state and a reduction as the production
// number. Reducing the augmented start production means accepting the input.
type actionEntry int

const (
	actionEntryEmpty  = actionEntry(0)
	actionEntryAccept = actionEntry(productionNumStart)
)

func newShiftActionEntry(state stateNum) actionEntry {
	return actionEntry(state * -1)
}

func newReduceActionEntry(prod productionNum) actionEntry {
	return actionEntry(prod)
}

func (e actionEntry) isEmpty() bool {
	return e == actionEntryEmpty
}

func (e actionEntry) describe() (ActionType, stateNum, productionNum) {
	if e == actionEntryEmpty {
		return ActionTypeError, stateNumInitial, productionNumNil
	}
	if e < 0 {
		return ActionTypeShift, stateNum(e * -1), productionNumNil
	}
	if e == actionEntryAccept {
		return ActionTypeAccept, stateNumInitial, productionNumStart
	}
	return ActionTypeReduce, stateNumInitial, productionNum(e)
}

func (e actionEntry) String() string {
	ty, s, p := e.describe()
	switch ty {
	case ActionTypeShift:
		return fmt.Sprintf("shift %v", s)
	case ActionTypeReduce:
		return fmt.Sprintf("reduce %v", p)
	}
	return string(ty)
}

type GoToType string

const (
	GoToTypeRegistered = GoToType("registered")
	GoToTypeError      = GoToType("error")
)

type goToEntry uint

const goToEntryEmpty = goToEntry(0)

func newGoToEntry(state stateNum) goToEntry {
	return goToEntry(state)
}

func (e goToEntry) describe() (GoToType, stateNum) {
	if e == goToEntryEmpty {
		return GoToTypeError, stateNumInitial
	}
	return GoToTypeRegistered, stateNum(e)
}

// ParsingTable is a dense LALR(1) table. Rows are states; action columns are terminal numbers
// and goto columns are non-terminal numbers.
type ParsingTable struct {
	actionTable      []actionEntry
	goToTable        []goToEntry
	stateCount       int
	terminalCount    int
	nonTerminalCount int

	// defaultReductions[state] is the production a state reduces on every terminal it has an
	// entry for, or productionNumNil.
	defaultReductions []productionNum

	// explicitErrors holds the cells a nonassoc terminal turned into errors.
	explicitErrors map[stateNum][]symbol.SymbolNum

	InitialState stateNum
}

func (t *ParsingTable) StateCount() int {
	return t.stateCount
}

// Action returns the action of a state on a terminal, the next state of a shift, and the
// production of a reduction.
func (t *ParsingTable) Action(state int, term symbol.SymbolNum) (ActionType, int, int) {
	if state < 0 || state >= t.stateCount || term.Int() >= t.terminalCount {
		return ActionTypeError, 0, 0
	}
	ty, next, prod := t.getAction(stateNum(state), term)
	return ty, next.Int(), prod.Int()
}

func (t *ParsingTable) GoTo(state int, nonTerm symbol.SymbolNum) (GoToType, int) {
	if state < 0 || state >= t.stateCount || nonTerm.Int() >= t.nonTerminalCount {
		return GoToTypeError, 0
	}
	ty, next := t.getGoTo(stateNum(state), nonTerm)
	return ty, next.Int()
}

// DefaultReduction returns the production a state reduces by default, or zero.
func (t *ParsingTable) DefaultReduction(state int) int {
	if state < 0 || state >= t.stateCount {
		return 0
	}
	return t.defaultReductions[state].Int()
}

func (t *ParsingTable) getAction(state stateNum, sym symbol.SymbolNum) (ActionType, stateNum, productionNum) {
	pos := state.Int()*t.terminalCount + sym.Int()
	return t.actionTable[pos].describe()
}

func (t *ParsingTable) getGoTo(state stateNum, sym symbol.SymbolNum) (GoToType, stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Int()
	return t.goToTable[pos].describe()
}

func (t *ParsingTable) readAction(row int, col int) actionEntry {
	return t.actionTable[row*t.terminalCount+col]
}

func (t *ParsingTable) writeAction(row int, col int, act actionEntry) {
	t.actionTable[row*t.terminalCount+col] = act
}

func (t *ParsingTable) writeGoTo(state stateNum, sym symbol.Symbol, nextState stateNum) {
	pos := state.Int()*t.nonTerminalCount + sym.Num().Int()
	t.goToTable[pos] = newGoToEntry(nextState)
}

type tableDigest struct {
	Action            []int
	GoTo              []int
	DefaultReductions []int
	StateCount        int
	TerminalCount     int
	NonTerminalCount  int
}

// Fingerprint returns a digest of the table contents. Building the same grammar twice yields
// the same fingerprint.
func (t *ParsingTable) Fingerprint() (string, error) {
	d := &tableDigest{
		Action:            make([]int, len(t.actionTable)),
		GoTo:              make([]int, len(t.goToTable)),
		DefaultReductions: make([]int, len(t.defaultReductions)),
		StateCount:        t.stateCount,
		TerminalCount:     t.terminalCount,
		NonTerminalCount:  t.nonTerminalCount,
	}
	for i, e := range t.actionTable {
		d.Action[i] = int(e)
	}
	for i, e := range t.goToTable {
		d.GoTo[i] = int(e)
	}
	for i, p := range t.defaultReductions {
		d.DefaultReductions[i] = p.Int()
	}
	return structhash.Hash(d, 1)
}

type lrTableBuilder struct {
	automaton    *lalr1Automaton
	prods        *productionSet
	termCount    int
	nonTermCount int
	symTab       *symbol.SymbolTableReader
	precAndAssoc *precAndAssoc
	excluded     map[productionNum]struct{}
	diags        *Diagnostics

	conflicts []conflict
}

func (b *lrTableBuilder) build() (*ParsingTable, error) {
	states := b.automaton.states
	ptab := &ParsingTable{
		actionTable:       make([]actionEntry, len(states)*b.termCount),
		goToTable:         make([]goToEntry, len(states)*b.nonTermCount),
		stateCount:        len(states),
		terminalCount:     b.termCount,
		nonTerminalCount:  b.nonTermCount,
		defaultReductions: make([]productionNum, len(states)),
		explicitErrors:    map[stateNum][]symbol.SymbolNum{},
		InitialState:      b.automaton.initialState,
	}

	terms := b.symTab.TerminalSymbols()
	for _, state := range states {
		for sym, num := range state.next {
			if sym.IsNonTerminal() {
				ptab.writeGoTo(state.num, sym, b.automaton.transitions[num].to)
			}
		}

		accepting := state.accepting()
		for _, term := range terms {
			shift := stateNum(-1)
			if num, ok := state.next[term]; ok {
				shift = b.automaton.transitions[num].to
			}

			var reduce []productionNum
			for _, prod := range state.reducible {
				la := b.automaton.lookAheadOf(state.num, prod)
				if la == nil || !la.has(term.Num()) {
					continue
				}
				reduce = append(reduce, prod)
			}

			act, err := b.resolve(state.num, term, shift, reduce)
			if err != nil {
				return nil, err
			}
			if accepting && term.IsEOF() && shift >= 0 && act == newShiftActionEntry(shift) {
				act = actionEntryAccept
			}
			ptab.writeAction(state.num.Int(), term.Num().Int(), act)
		}
	}

	b.genDefaultReductions(ptab)
	b.checkNeverReduced(ptab)

	return ptab, nil
}

// resolve decides the action of a cell out of its shift target (negative when there is none)
// and the productions that can be reduced there. A reduce/reduce conflict goes to the
// production declared first, and the survivor then competes with the shift.
func (b *lrTableBuilder) resolve(state stateNum, sym symbol.Symbol, shift stateNum, reduce []productionNum) (actionEntry, error) {
	if len(reduce) == 0 {
		if shift < 0 {
			return actionEntryEmpty, nil
		}
		return newShiftActionEntry(shift), nil
	}

	prod := reduce[0]
	for _, p := range reduce[1:] {
		c := &reduceReduceConflict{
			state:      state,
			sym:        sym,
			prodNum1:   prod,
			prodNum2:   p,
			resolvedBy: ResolvedByProdOrder,
		}
		b.conflicts = append(b.conflicts, c)
		if err := b.reportRRConflict(c); err != nil {
			return actionEntryEmpty, err
		}
	}

	if shift < 0 {
		return newReduceActionEntry(prod), nil
	}

	ty, method := resolveSRConflict(b.precAndAssoc, sym.Num(), prod)
	var act actionEntry
	switch ty {
	case ActionTypeShift:
		act = newShiftActionEntry(shift)
	case ActionTypeReduce:
		act = newReduceActionEntry(prod)
	default:
		act = actionEntryEmpty
	}
	c := &shiftReduceConflict{
		state:      state,
		sym:        sym,
		nextState:  shift,
		prodNum:    prod,
		resolvedBy: method,
		adopted:    act,
	}
	b.conflicts = append(b.conflicts, c)
	if err := b.reportSRConflict(c); err != nil {
		return actionEntryEmpty, err
	}
	return act, nil
}

func (b *lrTableBuilder) reportSRConflict(c *shiftReduceConflict) error {
	symText, _ := b.symTab.ToText(c.sym)
	var items []string
	for _, item := range b.automaton.states[c.state].items {
		if item.dottedSymbol != c.sym && !(item.reducible && item.prod == c.prodNum) {
			continue
		}
		text, err := b.itemText(item)
		if err != nil {
			return err
		}
		items = append(items, text)
	}

	adopted := c.adopted.String()
	b.diags.add(&Diagnostic{
		Kind:       DiagShiftReduceConflict,
		Location:   fmt.Sprintf("state %v, symbol %v", c.state, symText),
		Message:    fmt.Sprintf("shift to state %v or reduce by production %v; adopted %v (resolved by %v)", c.nextState, c.prodNum, adopted, c.resolvedBy),
		State:      c.state.Int(),
		Symbol:     symText,
		Items:      items,
		Adopted:    adopted,
		ResolvedBy: c.resolvedBy,
	})
	tracer().Infof("shift/reduce conflict in state %v on %v: adopted %v", c.state, symText, adopted)
	return nil
}

func (b *lrTableBuilder) reportRRConflict(c *reduceReduceConflict) error {
	symText, _ := b.symTab.ToText(c.sym)
	var items []string
	for _, item := range b.automaton.states[c.state].items {
		if !item.reducible || (item.prod != c.prodNum1 && item.prod != c.prodNum2) {
			continue
		}
		text, err := b.itemText(item)
		if err != nil {
			return err
		}
		items = append(items, text)
	}

	adopted := newReduceActionEntry(c.prodNum1).String()
	b.diags.add(&Diagnostic{
		Kind:       DiagReduceReduceConflict,
		Location:   fmt.Sprintf("state %v, symbol %v", c.state, symText),
		Message:    fmt.Sprintf("reduce by production %v or %v; adopted %v (resolved by %v)", c.prodNum1, c.prodNum2, adopted, c.resolvedBy),
		State:      c.state.Int(),
		Symbol:     symText,
		Items:      items,
		Adopted:    adopted,
		ResolvedBy: c.resolvedBy,
	})
	tracer().Infof("reduce/reduce conflict in state %v on %v: adopted %v", c.state, symText, adopted)
	return nil
}

func (b *lrTableBuilder) itemText(item *lrItem) (string, error) {
	prod, ok := b.prods.findByNum(item.prod)
	if !ok {
		return "", fmt.Errorf("a production was not found: %v", item.prod)
	}
	var s strings.Builder
	lhs, _ := b.symTab.ToText(prod.lhs)
	fmt.Fprintf(&s, "%v →", lhs)
	for i, sym := range prod.rhs {
		if i == item.dot {
			fmt.Fprintf(&s, " ・")
		}
		text, _ := b.symTab.ToText(sym)
		fmt.Fprintf(&s, " %v", text)
	}
	if item.reducible {
		fmt.Fprintf(&s, " ・")
	}
	return s.String(), nil
}

// genDefaultReductions marks the states whose every entry reduces the same production.
// States holding nonassoc errors keep their explicit entries.
func (b *lrTableBuilder) genDefaultReductions(tab *ParsingTable) {
	for _, c := range b.conflicts {
		sr, ok := c.(*shiftReduceConflict)
		if !ok || !sr.adopted.isEmpty() {
			continue
		}
		tab.explicitErrors[sr.state] = append(tab.explicitErrors[sr.state], sr.sym.Num())
	}

	for state := 0; state < tab.stateCount; state++ {
		if _, ok := tab.explicitErrors[stateNum(state)]; ok {
			continue
		}
		prod := productionNumNil
		uniform := true
		for col := 0; col < tab.terminalCount; col++ {
			act := tab.readAction(state, col)
			if act.isEmpty() {
				continue
			}
			ty, _, p := act.describe()
			if ty != ActionTypeReduce || (prod != productionNumNil && p != prod) {
				uniform = false
				break
			}
			prod = p
		}
		if uniform && prod != productionNumNil {
			tab.defaultReductions[state] = prod
		}
	}
}

func (b *lrTableBuilder) checkNeverReduced(tab *ParsingTable) {
	reduced := map[productionNum]struct{}{}
	for _, act := range tab.actionTable {
		ty, _, p := act.describe()
		if ty != ActionTypeReduce {
			continue
		}
		reduced[p] = struct{}{}
	}

	for _, prod := range b.prods.getAllProductions() {
		if prod.num == productionNumStart {
			continue
		}
		if _, ok := reduced[prod.num]; ok {
			continue
		}
		if _, ok := b.excluded[prod.num]; ok {
			continue
		}
		b.diags.add(&Diagnostic{
			Kind:     DiagNeverReduced,
			Location: fmt.Sprintf("production %v", prod.num),
			Message:  fmt.Sprintf("the production is never reduced: %v", productionText(b.symTab, prod)),
			Row:      prod.row,
		})
	}
}

// checkReachability verifies that every state is reachable from the initial state.
func checkReachability(automaton *lr0Automaton) error {
	visited := make([]bool, len(automaton.states))
	visited[automaton.initialState] = true
	unchecked := []stateNum{automaton.initialState}
	for len(unchecked) > 0 {
		var next []stateNum
		for _, s := range unchecked {
			for _, num := range automaton.states[s].next {
				to := automaton.transitions[num].to
				if visited[to] {
					continue
				}
				visited[to] = true
				next = append(next, to)
			}
		}
		unchecked = next
	}
	for s, ok := range visited {
		if !ok {
			return fmt.Errorf("%w: %v", ErrUnreachableState, s)
		}
	}
	return nil
}
