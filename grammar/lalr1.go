package grammar

import (
	"fmt"
	"sort"
)

type lookbackKey struct {
	state stateNum
	prod  productionNum
}

// lalr1Automaton is an LR(0) automaton decorated with LALR(1) look-ahead sets. The look-ahead
// set of a reduction in a state is the union of the Follow sets of the non-terminal transitions
// the reduction looks back to.
type lalr1Automaton struct {
	*lr0Automaton

	lookback  map[lookbackKey][]transitionNum
	lookAhead map[lookbackKey]*terminalSet

	// followSCC maps a transition number to the root transition of its strongly connected
	// component in the includes relation.
	followSCC []int
}

func (a *lalr1Automaton) lookAheadOf(state stateNum, prod productionNum) *terminalSet {
	return a.lookAhead[lookbackKey{state: state, prod: prod}]
}

// genLALR1Automaton computes look-ahead sets with the relations of DeRemer and Pennello.
//
//	DR(p, A)     = { t | p --A--> r --t--> }
//	(p, A) reads (r, C)      iff p --A--> r --C--> and C ⇒* ε
//	(p, A) includes (p', B)  iff B → β A γ, γ ⇒* ε, and p' --β--> p
//	(q, A → ω) lookback (p, A) iff p --ω--> q
//
// Read is the closure of DR over reads, Follow is the closure of Read over includes, and the
// look-ahead set of (q, A → ω) is the union of Follow over its lookback transitions.
func genLALR1Automaton(lr0 *lr0Automaton, gram *Grammar) (*lalr1Automaton, error) {
	termCount := gram.symbolTable.TerminalCount()
	prods := gram.productionSet

	automaton := &lalr1Automaton{
		lr0Automaton: lr0,
		lookback:     map[lookbackKey][]transitionNum{},
		lookAhead:    map[lookbackKey]*terminalSet{},
	}

	ntTrans := lr0.nonTerminalTransitions()

	// DR and reads
	for _, t := range ntTrans {
		t.directRead = newTerminalSet(termCount)
		for _, numOfNext := range lr0.states[t.to].next {
			next := lr0.transitions[numOfNext]
			if next.sym.IsTerminal() {
				t.directRead.add(next.sym.Num())
				continue
			}
			if gram.isNullable(next.sym) {
				t.reads = append(t.reads, next.num)
			}
		}
		sortTransitionNums(t.reads)
	}

	// includes and lookback
	for _, t := range ntTrans {
		ps, _ := prods.findByLHS(t.sym)
		for _, prod := range ps {
			state := t.from
			for i, sym := range prod.rhs {
				next, ok := lr0.findTransition(state, sym)
				if !ok {
					return nil, fmt.Errorf("a transition was not found; state: %v, symbol: %v", state, sym)
				}
				if sym.IsNonTerminal() && allNullable(gram.nullable, prod.rhs[i+1:]) {
					next.includes = append(next.includes, t.num)
				}
				state = next.to
			}
			key := lookbackKey{state: state, prod: prod.num}
			automaton.lookback[key] = append(automaton.lookback[key], t.num)
		}
	}
	for _, t := range ntTrans {
		t.includes = dedupTransitionNums(t.includes)
	}

	// Read = DR ∪ ⋃{Read(r, C) | (p, A) reads (r, C)}
	{
		sets := make([]*terminalSet, len(lr0.transitions))
		for _, t := range ntTrans {
			sets[t.num] = t.directRead
		}
		g := newDigraph(sets, func(x int) []int {
			return transitionNumsToInts(lr0.transitions[x].reads)
		})
		g.run()
		for _, t := range ntTrans {
			t.read = g.sets[t.num]
		}
	}

	// Follow = Read ∪ ⋃{Follow(p', B) | (p, A) includes (p', B)}
	{
		sets := make([]*terminalSet, len(lr0.transitions))
		for _, t := range ntTrans {
			sets[t.num] = t.read
		}
		g := newDigraph(sets, func(x int) []int {
			return transitionNumsToInts(lr0.transitions[x].includes)
		})
		g.run()
		for _, t := range ntTrans {
			t.follow = g.sets[t.num]
		}
		automaton.followSCC = g.scc
	}

	for key, ts := range automaton.lookback {
		la := newTerminalSet(termCount)
		for _, num := range ts {
			la.union(lr0.transitions[num].follow)
		}
		automaton.lookAhead[key] = la
	}

	tracer().Debugf("LALR(1) look-ahead done: %v non-terminal transitions, %v lookback entries", len(ntTrans), len(automaton.lookback))

	return automaton, nil
}

func sortTransitionNums(nums []transitionNum) {
	sort.Slice(nums, func(i, j int) bool {
		return nums[i] < nums[j]
	})
}

func dedupTransitionNums(nums []transitionNum) []transitionNum {
	if len(nums) == 0 {
		return nums
	}
	sortTransitionNums(nums)
	deduped := nums[:1]
	for _, n := range nums[1:] {
		if n == deduped[len(deduped)-1] {
			continue
		}
		deduped = append(deduped, n)
	}
	return deduped
}

func transitionNumsToInts(nums []transitionNum) []int {
	ints := make([]int, len(nums))
	for i, n := range nums {
		ints[i] = n.Int()
	}
	return ints
}
