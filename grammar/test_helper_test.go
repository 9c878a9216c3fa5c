package grammar

import (
	"fmt"
	"testing"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbol.SymbolTableReader) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := symTab.ToSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

type testProductionGenerator func(lhs string, rhs ...string) *production

// newTestProductionGenerator returns a generator looking up registered productions, so that
// the generated productions carry their numbers.
func newTestProductionGenerator(t *testing.T, genSym testSymbolGenerator, prods *productionSet) testProductionGenerator {
	return func(lhs string, rhs ...string) *production {
		t.Helper()

		rhsSym := []symbol.Symbol{}
		for _, text := range rhs {
			rhsSym = append(rhsSym, genSym(text))
		}
		prod, ok := prods.id2Prod[genProductionID(genSym(lhs), rhsSym)]
		if !ok {
			t.Fatalf("a production was not found: %v → %v", lhs, rhs)
		}

		return prod
	}
}

type testLR0ItemGenerator func(lhs string, dot int, rhs ...string) *lrItem

func newTestLR0ItemGenerator(t *testing.T, genProd testProductionGenerator) testLR0ItemGenerator {
	return func(lhs string, dot int, rhs ...string) *lrItem {
		t.Helper()

		prod := genProd(lhs, rhs...)
		item, err := newLR0Item(prod, dot)
		if err != nil {
			t.Fatalf("failed to create a LR0 item: %v", err)
		}

		return item
	}
}

func resolveTestGrammar(t *testing.T, b *GrammarBuilder) (*Grammar, *Diagnostics) {
	t.Helper()

	diags := NewDiagnostics()
	gram, err := b.Resolve(diags)
	if err != nil {
		t.Fatalf("failed to resolve a grammar: %v", err)
	}
	return gram, diags
}

func compileTestGrammar(t *testing.T, gram *Grammar, diags *Diagnostics, opts ...CompileOption) *compiledTable {
	t.Helper()

	c, err := compile(gram, diags, newCompileConfig(opts))
	if err != nil {
		t.Fatalf("failed to compile a grammar: %v", err)
	}
	return c
}

// recognize drives a table over a sequence of terminal names. It returns the productions in
// the order they were reduced and whether the input was accepted.
func recognize(tab *ParsingTable, gram *Grammar, tokens []string) ([]int, bool, error) {
	terms := make([]symbol.Symbol, 0, len(tokens)+1)
	for _, tok := range tokens {
		sym, ok := gram.symbolTable.ToSymbol(tok)
		if !ok || !sym.IsTerminal() {
			return nil, false, fmt.Errorf("unknown terminal: %v", tok)
		}
		terms = append(terms, sym)
	}
	terms = append(terms, symbol.SymbolEOF)

	var reduced []int
	stack := []stateNum{tab.InitialState}
	for pos := 0; ; {
		top := stack[len(stack)-1]
		ty, next, prodNum := tab.getAction(top, terms[pos].Num())
		switch ty {
		case ActionTypeShift:
			stack = append(stack, next)
			pos++
		case ActionTypeReduce:
			prod, ok := gram.productionSet.findByNum(prodNum)
			if !ok {
				return nil, false, fmt.Errorf("a production was not found: %v", prodNum)
			}
			stack = stack[:len(stack)-prod.rhsLen]
			gotoTy, next := tab.getGoTo(stack[len(stack)-1], prod.lhs.Num())
			if gotoTy != GoToTypeRegistered {
				return nil, false, fmt.Errorf("goto entry is missing; state: %v, symbol: %v", stack[len(stack)-1], prod.lhs)
			}
			stack = append(stack, next)
			reduced = append(reduced, prodNum.Int())
		case ActionTypeAccept:
			return reduced, true, nil
		default:
			return reduced, false, nil
		}
	}
}

// LALR(1) but not SLR(1)
func newLALRTestGrammarBuilder() *GrammarBuilder {
	return NewGrammarBuilder("lalr").
		Terminal("=", "*", "id").
		AddProduction("S", []string{"L", "=", "R"}).
		AddProduction("S", []string{"R"}).
		AddProduction("L", []string{"*", "R"}).
		AddProduction("L", []string{"id"}).
		AddProduction("R", []string{"L"})
}

func newDanglingElseTestGrammarBuilder() *GrammarBuilder {
	return NewGrammarBuilder("dangling_else").
		Terminal("IF", "THEN", "ELSE", "OTHER", "ID").
		AddProduction("stmt", []string{"IF", "expr", "THEN", "stmt"}).
		AddProduction("stmt", []string{"IF", "expr", "THEN", "stmt", "ELSE", "stmt"}).
		AddProduction("stmt", []string{"OTHER"}).
		AddProduction("expr", []string{"ID"})
}

func newArithmeticTestGrammarBuilder() *GrammarBuilder {
	return NewGrammarBuilder("arithmetic").
		Terminal("+", "*", "(", ")", "id").
		AddProduction("E", []string{"E", "+", "T"}).
		AddProduction("E", []string{"T"}).
		AddProduction("T", []string{"T", "*", "F"}).
		AddProduction("T", []string{"F"}).
		AddProduction("F", []string{"(", "E", ")"}).
		AddProduction("F", []string{"id"})
}
