package grammar

import (
	"fmt"
	"sort"

	"github.com/nihei9/lalrgen/grammar/symbol"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

func assocText(assoc assocType) string {
	switch assoc {
	case assocTypeLeft:
		return "l"
	case assocTypeRight:
		return "r"
	case assocTypeNonAssoc:
		return "n"
	}
	return ""
}

func symbolNumsToInts(nums []symbol.SymbolNum) []int {
	ints := make([]int, len(nums))
	for i, n := range nums {
		ints[i] = n.Int()
	}
	return ints
}

func (b *lrTableBuilder) genReport(tab *ParsingTable, gram *Grammar) (*spec.Report, error) {
	var terms []*spec.Terminal
	{
		termSyms := b.symTab.TerminalSymbols()
		terms = make([]*spec.Terminal, len(termSyms)+1)

		for _, sym := range termSyms {
			name, ok := b.symTab.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("failed to generate terminals: symbol not found: %v", sym)
			}

			terms[sym.Num()] = &spec.Terminal{
				Number:        sym.Num().Int(),
				Name:          name,
				Precedence:    b.precAndAssoc.terminalPrecedence(sym.Num()),
				Associativity: assocText(b.precAndAssoc.terminalAssociativity(sym.Num())),
			}
		}
	}

	var nonTerms []*spec.NonTerminal
	{
		nonTermSyms := b.symTab.NonTerminalSymbols()
		nonTerms = make([]*spec.NonTerminal, len(nonTermSyms)+1)
		for _, sym := range nonTermSyms {
			name, ok := b.symTab.ToText(sym)
			if !ok {
				return nil, fmt.Errorf("failed to generate non-terminals: symbol not found: %v", sym)
			}

			nonTerms[sym.Num()] = &spec.NonTerminal{
				Number:   sym.Num().Int(),
				Name:     name,
				Nullable: gram.isNullable(sym),
			}
		}
	}

	var prods []*spec.Production
	{
		ps := gram.productionSet.getAllProductions()
		prods = make([]*spec.Production, len(ps)+1)
		for _, p := range ps {
			rhs := make([]int, len(p.rhs))
			for i, e := range p.rhs {
				if e.IsTerminal() {
					rhs[i] = e.Num().Int()
				} else {
					rhs[i] = e.Num().Int() * -1
				}
			}

			prods[p.num.Int()] = &spec.Production{
				Number:        p.num.Int(),
				LHS:           p.lhs.Num().Int(),
				RHS:           rhs,
				Precedence:    b.precAndAssoc.productionPredence(p.num),
				Associativity: assocText(b.precAndAssoc.productionAssociativity(p.num)),
				Action:        p.action,
			}
		}
	}

	var states []*spec.State
	{
		srConflicts := map[stateNum][]*shiftReduceConflict{}
		rrConflicts := map[stateNum][]*reduceReduceConflict{}
		for _, con := range b.conflicts {
			switch c := con.(type) {
			case *shiftReduceConflict:
				srConflicts[c.state] = append(srConflicts[c.state], c)
			case *reduceReduceConflict:
				rrConflicts[c.state] = append(rrConflicts[c.state], c)
			}
		}

		states = make([]*spec.State, len(b.automaton.states))
		for _, s := range b.automaton.states {
			kernel := make([]*spec.Item, len(s.kernel.items))
			for i, item := range s.kernel.items {
				kernel[i] = &spec.Item{
					Production: item.prod.Int(),
					Dot:        item.dot,
				}
			}

			var shift []*spec.Transition
			var reduce []*spec.Reduce
			var goTo []*spec.Transition
			accept := false
			{
			TERMINALS_LOOP:
				for _, t := range b.symTab.TerminalSymbols() {
					act, next, prod := tab.getAction(s.num, t.Num())
					switch act {
					case ActionTypeShift:
						shift = append(shift, &spec.Transition{
							Symbol: t.Num().Int(),
							State:  next.Int(),
						})
					case ActionTypeAccept:
						accept = true
					case ActionTypeReduce:
						for _, r := range reduce {
							if r.Production == prod.Int() {
								r.LookAhead = append(r.LookAhead, t.Num().Int())
								continue TERMINALS_LOOP
							}
						}
						reduce = append(reduce, &spec.Reduce{
							LookAhead:  []int{t.Num().Int()},
							Production: prod.Int(),
						})
					}
				}

				for _, n := range b.symTab.NonTerminalSymbols() {
					ty, next := tab.getGoTo(s.num, n.Num())
					if ty == GoToTypeRegistered {
						goTo = append(goTo, &spec.Transition{
							Symbol: n.Num().Int(),
							State:  next.Int(),
						})
					}
				}

				sort.Slice(shift, func(i, j int) bool {
					return shift[i].State < shift[j].State
				})
				sort.Slice(reduce, func(i, j int) bool {
					return reduce[i].Production < reduce[j].Production
				})
				sort.Slice(goTo, func(i, j int) bool {
					return goTo[i].State < goTo[j].State
				})
			}

			sr := []*spec.SRConflict{}
			rr := []*spec.RRConflict{}
			{
				for _, c := range srConflicts[s.num] {
					conflict := &spec.SRConflict{
						Symbol:     c.sym.Num().Int(),
						State:      c.nextState.Int(),
						Production: c.prodNum.Int(),
						ResolvedBy: c.resolvedBy.Int(),
					}

					ty, s, p := c.adopted.describe()
					switch ty {
					case ActionTypeShift:
						n := s.Int()
						conflict.AdoptedState = &n
					case ActionTypeReduce:
						n := p.Int()
						conflict.AdoptedProduction = &n
					case ActionTypeError:
						conflict.AdoptedError = true
					}

					sr = append(sr, conflict)
				}

				sort.Slice(sr, func(i, j int) bool {
					return sr[i].Symbol < sr[j].Symbol
				})

				for _, c := range rrConflicts[s.num] {
					rr = append(rr, &spec.RRConflict{
						Symbol:            c.sym.Num().Int(),
						Production1:       c.prodNum1.Int(),
						Production2:       c.prodNum2.Int(),
						AdoptedProduction: c.prodNum1.Int(),
						ResolvedBy:        c.resolvedBy.Int(),
					})
				}

				sort.SliceStable(rr, func(i, j int) bool {
					return rr[i].Symbol < rr[j].Symbol
				})
			}

			states[s.num.Int()] = &spec.State{
				Number:           s.num.Int(),
				Kernel:           kernel,
				Shift:            shift,
				Reduce:           reduce,
				GoTo:             goTo,
				Accept:           accept,
				DefaultReduction: tab.defaultReductions[s.num].Int(),
				ExplicitErrors:   symbolNumsToInts(tab.explicitErrors[s.num]),
				SRConflict:       sr,
				RRConflict:       rr,
			}
		}
	}

	var las []*spec.LookAhead
	for _, t := range b.automaton.nonTerminalTransitions() {
		las = append(las, &spec.LookAhead{
			Transition: t.num.Int(),
			From:       t.from.Int(),
			Symbol:     t.sym.Num().Int(),
			To:         t.to.Int(),
			DirectRead: symbolNumsToInts(t.directRead.symbols()),
			Read:       symbolNumsToInts(t.read.symbols()),
			Follow:     symbolNumsToInts(t.follow.symbols()),
			Reads:      transitionNumsToInts(t.reads),
			Includes:   transitionNumsToInts(t.includes),
		})
	}

	diags := make([]*spec.Diagnostic, 0, b.diags.Len())
	for _, d := range b.diags.Entries() {
		diag := &spec.Diagnostic{
			Kind:        d.Kind.String(),
			Location:    d.Location,
			Message:     d.Message,
			Row:         d.Row,
			Items:       d.Items,
			Adopted:     d.Adopted,
			ConflictNum: d.ConflictNum,
		}
		if d.Kind.isConflict() {
			state := d.State
			diag.State = &state
		}
		diags = append(diags, diag)
	}

	return &spec.Report{
		Class:           "LALR(1)",
		Terminals:       terms,
		NonTerminals:    nonTerms,
		Productions:     prods,
		States:          states,
		LookAheads:      las,
		Diagnostics:     diags,
		SRConflictCount: b.diags.SRConflictCount(),
		RRConflictCount: b.diags.RRConflictCount(),
	}, nil
}
