package grammar

import (
	"fmt"
	"strings"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

// genNullableSet computes the non-terminals deriving the empty string. It repeats passes
// over all productions until a pass adds nothing.
func genNullableSet(prods *productionSet) map[symbol.Symbol]struct{} {
	nullable := map[symbol.Symbol]struct{}{}
	for {
		more := false
		for _, prod := range prods.getAllProductions() {
			if _, ok := nullable[prod.lhs]; ok {
				continue
			}
			if !allNullable(nullable, prod.rhs) {
				continue
			}
			nullable[prod.lhs] = struct{}{}
			more = true
		}
		if !more {
			break
		}
	}
	return nullable
}

func allNullable(nullable map[symbol.Symbol]struct{}, syms []symbol.Symbol) bool {
	for _, sym := range syms {
		if sym.IsTerminal() {
			return false
		}
		if _, ok := nullable[sym]; !ok {
			return false
		}
	}
	return true
}

// checkUsefulness reports unreachable non-terminals and useless productions. A production is
// useless when it derives no terminal string or when its left-hand side appears only inside
// useless productions. It also reports declared terminals that neither a reachable production nor
// an explicit precedence uses.
func checkUsefulness(gram *Grammar, termRows map[symbol.Symbol]int, precTerms map[symbol.Symbol]struct{}, diags *Diagnostics) {
	prods := gram.productionSet

	productive := map[symbol.Symbol]struct{}{}
	isProductive := func(prod *production) bool {
		for _, sym := range prod.rhs {
			if sym.IsTerminal() {
				continue
			}
			if _, ok := productive[sym]; !ok {
				return false
			}
		}
		return true
	}
	for {
		more := false
		for _, prod := range prods.getAllProductions() {
			if _, ok := productive[prod.lhs]; ok {
				continue
			}
			if !isProductive(prod) {
				continue
			}
			productive[prod.lhs] = struct{}{}
			more = true
		}
		if !more {
			break
		}
	}

	// reachable follows every production. live follows only productions whose RHS symbols are all
	// productive, so a productive production used solely by a useless one stays out of it.
	reach := func(through func(*production) bool) map[symbol.Symbol]struct{} {
		seen := map[symbol.Symbol]struct{}{
			gram.augmentedStartSymbol: {},
		}
		unchecked := []symbol.Symbol{gram.augmentedStartSymbol}
		for len(unchecked) > 0 {
			var next []symbol.Symbol
			for _, lhs := range unchecked {
				ps, _ := prods.findByLHS(lhs)
				for _, prod := range ps {
					if !through(prod) {
						continue
					}
					for _, sym := range prod.rhs {
						if _, ok := seen[sym]; ok {
							continue
						}
						seen[sym] = struct{}{}
						if sym.IsNonTerminal() {
							next = append(next, sym)
						}
					}
				}
			}
			unchecked = next
		}
		return seen
	}
	reachable := reach(func(*production) bool { return true })
	live := reach(isProductive)

	symTab := gram.symbolTable
	for _, sym := range symTab.NonTerminalSymbols() {
		if _, ok := reachable[sym]; ok {
			continue
		}
		name, _ := symTab.ToText(sym)
		ps, _ := prods.findByLHS(sym)
		row := 0
		if len(ps) > 0 {
			row = ps[0].row
		}
		for _, prod := range ps {
			gram.excluded[prod.num] = struct{}{}
		}
		diags.add(&Diagnostic{
			Kind:     DiagUnreachableNonTerminal,
			Location: fmt.Sprintf("non-terminal %v", name),
			Message:  "the non-terminal is unreachable from the start symbol",
			Row:      row,
		})
	}

	for _, prod := range prods.getAllProductions() {
		if _, ok := reachable[prod.lhs]; !ok {
			continue
		}
		var msg string
		if !isProductive(prod) {
			msg = "the production derives no terminal string"
		} else if _, ok := live[prod.lhs]; !ok {
			msg = "the production's result is never used in any derivable sentential form"
		} else {
			continue
		}
		gram.excluded[prod.num] = struct{}{}
		diags.add(&Diagnostic{
			Kind:     DiagUselessProduction,
			Location: fmt.Sprintf("production %v", prod.num),
			Message:  fmt.Sprintf("%v: %v", msg, productionText(symTab, prod)),
			Row:      prod.row,
		})
	}

	for _, sym := range symTab.TerminalSymbols() {
		if sym.IsEOF() {
			continue
		}
		if _, ok := reachable[sym]; ok {
			continue
		}
		if _, ok := precTerms[sym]; ok {
			continue
		}
		name, _ := symTab.ToText(sym)
		diags.add(&Diagnostic{
			Kind:     DiagUnusedTerminal,
			Location: fmt.Sprintf("terminal %v", name),
			Message:  "the terminal is not used by any reachable production",
			Row:      termRows[sym],
		})
	}
}

func productionText(symTab *symbol.SymbolTableReader, prod *production) string {
	var b strings.Builder
	lhs, _ := symTab.ToText(prod.lhs)
	fmt.Fprintf(&b, "%v →", lhs)
	if prod.isEmpty() {
		fmt.Fprintf(&b, " ε")
	}
	for _, sym := range prod.rhs {
		text, _ := symTab.ToText(sym)
		fmt.Fprintf(&b, " %v", text)
	}
	return b.String()
}
