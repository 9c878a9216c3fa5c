package grammar

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nihei9/lalrgen/grammar/symbol"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

type expectedLRState struct {
	kernelItems    []*lrItem
	nextStates     map[symbol.Symbol]stateNum
	reducibleProds []*production
}

func TestGenLR0Automaton(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lalrgen.grammar")
	defer teardown()

	gram, _ := resolveTestGrammar(t, newLALRTestGrammarBuilder())

	automaton, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, automatonConfig{})
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}
	if automaton == nil {
		t.Fatalf("genLR0Automaton returns nil without any error")
	}

	initialState := automaton.states[automaton.initialState]
	if initialState == nil {
		t.Errorf("failed to get an initial status: %v", automaton.initialState)
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	expectedStates := []*expectedLRState{
		{
			kernelItems: []*lrItem{
				genLR0Item("S'", 0, "S", "<eof>"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("S"):  1,
				genSym("L"):  2,
				genSym("R"):  3,
				genSym("*"):  4,
				genSym("id"): 5,
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("S'", 1, "S", "<eof>"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("<eof>"): 6,
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("S", 1, "L", "=", "R"),
				genLR0Item("R", 1, "L"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("="): 7,
			},
			reducibleProds: []*production{
				genProd("R", "L"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("S", 1, "R"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("S", "R"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("L", 1, "*", "R"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("L"):  8,
				genSym("R"):  9,
				genSym("*"):  4,
				genSym("id"): 5,
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("L", 1, "id"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("L", "id"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("S'", 2, "S", "<eof>"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("S'", "S", "<eof>"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("S", 2, "L", "=", "R"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("L"):  8,
				genSym("R"):  10,
				genSym("*"):  4,
				genSym("id"): 5,
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("R", 1, "L"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("R", "L"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("L", 2, "*", "R"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("L", "*", "R"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("S", 3, "L", "=", "R"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("S", "L", "=", "R"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton)
}

func TestLR0AutomatonContainingEmptyProduction(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "lalrgen.grammar")
	defer teardown()

	gram, _ := resolveTestGrammar(t, NewGrammarBuilder("test").
		Terminal("a", "b").
		AddProduction("s", []string{"foo", "bar"}).
		AddProduction("foo", []string{"a"}).
		AddProduction("foo", nil).
		AddProduction("bar", []string{"b"}).
		AddProduction("bar", nil))

	automaton, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, automatonConfig{})
	if err != nil {
		t.Fatalf("failed to create a LR0 automaton: %v", err)
	}

	genSym := newTestSymbolGenerator(t, gram.symbolTable)
	genProd := newTestProductionGenerator(t, genSym, gram.productionSet)
	genLR0Item := newTestLR0ItemGenerator(t, genProd)

	expectedStates := []*expectedLRState{
		{
			kernelItems: []*lrItem{
				genLR0Item("s'", 0, "s", "<eof>"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("s"):   1,
				genSym("foo"): 2,
				genSym("a"):   3,
			},
			reducibleProds: []*production{
				genProd("foo"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("s'", 1, "s", "<eof>"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("<eof>"): 4,
			},
			reducibleProds: []*production{},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("s", 1, "foo", "bar"),
			},
			nextStates: map[symbol.Symbol]stateNum{
				genSym("bar"): 5,
				genSym("b"):   6,
			},
			reducibleProds: []*production{
				genProd("bar"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("foo", 1, "a"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("foo", "a"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("s'", 2, "s", "<eof>"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("s'", "s", "<eof>"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("s", 2, "foo", "bar"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("s", "foo", "bar"),
			},
		},
		{
			kernelItems: []*lrItem{
				genLR0Item("bar", 1, "b"),
			},
			nextStates: map[symbol.Symbol]stateNum{},
			reducibleProds: []*production{
				genProd("bar", "b"),
			},
		},
	}

	testLRAutomaton(t, expectedStates, automaton)
}

func TestGenLR0Closure_IsAFixpoint(t *testing.T) {
	builders := []*GrammarBuilder{
		newLALRTestGrammarBuilder(),
		newArithmeticTestGrammarBuilder(),
		newDanglingElseTestGrammarBuilder(),
	}
	for _, b := range builders {
		t.Run(b.name, func(t *testing.T) {
			gram, _ := resolveTestGrammar(t, b)
			automaton, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, automatonConfig{})
			if err != nil {
				t.Fatal(err)
			}
			for _, state := range automaton.states {
				for i, item := range state.kernel.items {
					if state.items[i].id != item.id {
						t.Fatalf("kernel items must come first; state: %v, want: %v, got: %v", state.num, item.id, state.items[i].id)
					}
				}

				closure, err := genLR0Closure(state.items, gram.productionSet)
				if err != nil {
					t.Fatal(err)
				}
				if len(closure) != len(state.items) {
					t.Fatalf("closure of a closure must be itself; state: %v, want: %v items, got: %v items", state.num, len(state.items), len(closure))
				}
				for i, item := range closure {
					if item.id != state.items[i].id {
						t.Fatalf("unexpected item; state: %v, want: %v, got: %v", state.num, state.items[i].id, item.id)
					}
				}
			}
		})
	}
}

func TestGenLR0Automaton_Caps(t *testing.T) {
	tests := []struct {
		caption string
		config  automatonConfig
	}{
		{
			caption: "the number of states exceeds the cap",
			config: automatonConfig{
				maxStates: 3,
			},
		},
		{
			caption: "the number of items exceeds the cap",
			config: automatonConfig{
				maxItems: 5,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gram, _ := resolveTestGrammar(t, newLALRTestGrammarBuilder())
			_, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, tt.config)
			if !errors.Is(err, ErrTooLarge) {
				t.Fatalf("unexpected error; want: %v, got: %v", ErrTooLarge, err)
			}
		})
	}

	t.Run("the caps are inclusive", func(t *testing.T) {
		gram, _ := resolveTestGrammar(t, newLALRTestGrammarBuilder())
		_, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, automatonConfig{
			maxStates: 11,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestGenLR0Automaton_ParallelConstructionIsDeterministic(t *testing.T) {
	builders := []*GrammarBuilder{
		newLALRTestGrammarBuilder(),
		newArithmeticTestGrammarBuilder(),
		newDanglingElseTestGrammarBuilder(),
	}
	for _, b := range builders {
		t.Run(b.name, func(t *testing.T) {
			gram, _ := resolveTestGrammar(t, b)
			seq, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, automatonConfig{
				parallelism: 1,
			})
			if err != nil {
				t.Fatal(err)
			}
			par, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, automatonConfig{
				parallelism: 4,
			})
			if err != nil {
				t.Fatal(err)
			}

			if len(par.states) != len(seq.states) {
				t.Fatalf("unexpected state count; want: %v, got: %v", len(seq.states), len(par.states))
			}
			if len(par.transitions) != len(seq.transitions) {
				t.Fatalf("unexpected transition count; want: %v, got: %v", len(seq.transitions), len(par.transitions))
			}
			for i, s := range seq.states {
				p := par.states[i]
				if p.id != s.id {
					t.Fatalf("states are numbered differently; state: %v", i)
				}
			}
			for i, s := range seq.transitions {
				p := par.transitions[i]
				if p.from != s.from || p.sym != s.sym || p.to != s.to {
					t.Fatalf("transitions are numbered differently; want: %+v, got: %+v", s, p)
				}
			}
		})
	}
}

func testLRAutomaton(t *testing.T, expected []*expectedLRState, automaton *lr0Automaton) {
	t.Helper()

	if len(automaton.states) != len(expected) {
		t.Errorf("state count is mismatched; want: %v, got: %v", len(expected), len(automaton.states))
	}

	for i, eState := range expected {
		t.Run(fmt.Sprintf("state #%v", i), func(t *testing.T) {
			if i >= len(automaton.states) {
				t.Fatalf("a state was not found: #%v", i)
			}
			state := automaton.states[i]
			if state.num.Int() != i {
				t.Fatalf("unexpected state number; want: %v, got: %v", i, state.num)
			}

			k, err := newKernel(eState.kernelItems)
			if err != nil {
				t.Fatalf("failed to create a kernel item: %v", err)
			}
			if state.id != k.id {
				t.Fatalf("unexpected kernel; want: %v, got: %v", k.items, state.kernel.items)
			}

			if len(state.next) != len(eState.nextStates) {
				t.Errorf("next state count is mismatched; want: %v, got: %v", len(eState.nextStates), len(state.next))
			}
			for sym, eNext := range eState.nextStates {
				num, ok := state.next[sym]
				if !ok {
					t.Errorf("next state was not found; symbol: %v", sym)
					continue
				}
				tran := automaton.transitions[num]
				if tran.num != num || tran.from != state.num || tran.sym != sym {
					t.Errorf("unexpected transition: %+v", tran)
				}
				if tran.to != eNext {
					t.Errorf("unexpected next state; symbol: %v, want: %v, got: %v", sym, eNext, tran.to)
				}
			}

			if len(state.reducible) != len(eState.reducibleProds) {
				t.Fatalf("length of reducible productions is mismatched; want: %v, got: %v", len(eState.reducibleProds), len(state.reducible))
			}
			for j, eProd := range eState.reducibleProds {
				if state.reducible[j] != eProd.num {
					t.Errorf("unexpected reducible production; want: %v, got: %v", eProd.num, state.reducible[j])
				}
			}
		})
	}
}
