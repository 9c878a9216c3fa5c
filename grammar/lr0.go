package grammar

import (
	"fmt"
	"sort"

	"github.com/nihei9/lalrgen/grammar/symbol"
	"golang.org/x/sync/errgroup"
)

type transitionNum int

func (n transitionNum) Int() int {
	return int(n)
}

// transition is an edge of the LR(0) automaton. Every transition is stored once in the
// automaton's arena and states refer to it by number.
type transition struct {
	num  transitionNum
	from stateNum
	sym  symbol.Symbol
	to   stateNum

	// The following fields are set only for non-terminal transitions, by the look-ahead
	// computation.
	directRead *terminalSet
	read       *terminalSet
	follow     *terminalSet
	reads      []transitionNum
	includes   []transitionNum
}

type lr0Automaton struct {
	initialState stateNum
	states       []*lrState
	transitions  []*transition
	itemCount    int
}

func (a *lr0Automaton) findTransition(from stateNum, sym symbol.Symbol) (*transition, bool) {
	if from < 0 || from.Int() >= len(a.states) {
		return nil, false
	}
	num, ok := a.states[from].next[sym]
	if !ok {
		return nil, false
	}
	return a.transitions[num], true
}

// nonTerminalTransitions returns the non-terminal transitions in ascending number order.
func (a *lr0Automaton) nonTerminalTransitions() []*transition {
	var ts []*transition
	for _, t := range a.transitions {
		if !t.sym.IsNonTerminal() {
			continue
		}
		ts = append(ts, t)
	}
	return ts
}

type automatonConfig struct {
	// maxStates and maxItems cap the size of the automaton. Zero means no cap.
	maxStates int
	maxItems  int

	// parallelism is the number of goroutines computing closures of one layer of states.
	// One or less means sequential construction. The result does not depend on it.
	parallelism int
}

// genLR0Automaton builds the canonical collection of LR(0) item sets. States are discovered
// breadth-first and numbered in order of discovery; the transitions of a state are visited in
// ascending symbol order, so the numbering is the same for every run over the same grammar.
func genLR0Automaton(prods *productionSet, startSym symbol.Symbol, config automatonConfig) (*lr0Automaton, error) {
	if !startSym.IsStart() {
		return nil, fmt.Errorf("passed symbold is not a start symbol")
	}

	automaton := &lr0Automaton{
		initialState: stateNumInitial,
	}

	knownKernels := map[kernelID]stateNum{}
	uncheckedKernels := []*kernel{}

	// Generate an initial kernel.
	{
		prods, _ := prods.findByLHS(startSym)
		initialItem, err := newLR0Item(prods[0], 0)
		if err != nil {
			return nil, err
		}

		k, err := newKernel([]*lrItem{initialItem})
		if err != nil {
			return nil, err
		}

		knownKernels[k.id] = stateNumInitial
		uncheckedKernels = append(uncheckedKernels, k)
	}

	for len(uncheckedKernels) > 0 {
		layer, err := genLayer(uncheckedKernels, prods, config.parallelism)
		if err != nil {
			return nil, err
		}

		nextUncheckedKernels := []*kernel{}
		for _, l := range layer {
			state := l.state
			state.num = knownKernels[state.id]
			if state.num.Int() != len(automaton.states) {
				return nil, fmt.Errorf("a state was numbered out of order; want: %v, got: %v", len(automaton.states), state.num)
			}
			automaton.states = append(automaton.states, state)

			automaton.itemCount += len(state.items)
			if config.maxItems > 0 && automaton.itemCount > config.maxItems {
				return nil, fmt.Errorf("%w: the automaton has more than %v items", ErrTooLarge, config.maxItems)
			}

			for _, n := range l.neighbours {
				to, known := knownKernels[n.kernel.id]
				if !known {
					to = stateNum(len(knownKernels))
					knownKernels[n.kernel.id] = to
					nextUncheckedKernels = append(nextUncheckedKernels, n.kernel)
					if config.maxStates > 0 && len(knownKernels) > config.maxStates {
						return nil, fmt.Errorf("%w: the automaton has more than %v states", ErrTooLarge, config.maxStates)
					}
				}

				t := &transition{
					num:  transitionNum(len(automaton.transitions)),
					from: state.num,
					sym:  n.symbol,
					to:   to,
				}
				automaton.transitions = append(automaton.transitions, t)
				state.next[n.symbol] = t.num
			}
		}
		uncheckedKernels = nextUncheckedKernels

		tracer().Debugf("LR(0) layer done: %v states, %v transitions", len(automaton.states), len(automaton.transitions))
	}

	return automaton, nil
}

type layerEntry struct {
	state      *lrState
	neighbours []*neighbourKernel
}

// genLayer expands every kernel of a layer. The entries are returned in the order of the
// kernels regardless of how many goroutines did the work.
func genLayer(kernels []*kernel, prods *productionSet, parallelism int) ([]*layerEntry, error) {
	layer := make([]*layerEntry, len(kernels))
	if parallelism <= 1 || len(kernels) < 2 {
		for i, k := range kernels {
			state, neighbours, err := genStateAndNeighbourKernels(k, prods)
			if err != nil {
				return nil, err
			}
			layer[i] = &layerEntry{
				state:      state,
				neighbours: neighbours,
			}
		}
		return layer, nil
	}

	var eg errgroup.Group
	eg.SetLimit(parallelism)
	for i, k := range kernels {
		eg.Go(func() error {
			state, neighbours, err := genStateAndNeighbourKernels(k, prods)
			if err != nil {
				return err
			}
			layer[i] = &layerEntry{
				state:      state,
				neighbours: neighbours,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return layer, nil
}

func genStateAndNeighbourKernels(k *kernel, prods *productionSet) (*lrState, []*neighbourKernel, error) {
	items, err := genLR0Closure(k.items, prods)
	if err != nil {
		return nil, nil, err
	}
	neighbours, err := genNeighbourKernels(items, prods)
	if err != nil {
		return nil, nil, err
	}

	var reducible []productionNum
	for _, item := range items {
		if !item.reducible {
			continue
		}
		reducible = append(reducible, item.prod)
	}
	sort.Slice(reducible, func(i, j int) bool {
		return reducible[i] < reducible[j]
	})

	return &lrState{
		kernel:    k,
		items:     items,
		next:      map[symbol.Symbol]transitionNum{},
		reducible: reducible,
	}, neighbours, nil
}

// genLR0Closure returns the closure of items. The passed items come first in the result,
// without duplicates, followed by the items the closure added.
func genLR0Closure(items []*lrItem, prods *productionSet) ([]*lrItem, error) {
	closure := []*lrItem{}
	knownItems := map[lrItemID]struct{}{}
	uncheckedItems := []*lrItem{}
	for _, item := range items {
		if _, exist := knownItems[item.id]; exist {
			continue
		}
		closure = append(closure, item)
		knownItems[item.id] = struct{}{}
		uncheckedItems = append(uncheckedItems, item)
	}
	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*lrItem{}
		for _, item := range uncheckedItems {
			if !item.dottedSymbol.IsNonTerminal() {
				continue
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				item, err := newLR0Item(prod, 0)
				if err != nil {
					return nil, err
				}
				if _, exist := knownItems[item.id]; exist {
					continue
				}
				closure = append(closure, item)
				knownItems[item.id] = struct{}{}
				nextUncheckedItems = append(nextUncheckedItems, item)
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	return closure, nil
}

type neighbourKernel struct {
	symbol symbol.Symbol
	kernel *kernel
}

func genNeighbourKernels(items []*lrItem, prods *productionSet) ([]*neighbourKernel, error) {
	kItemMap := map[symbol.Symbol][]*lrItem{}
	for _, item := range items {
		if item.dottedSymbol.IsNil() {
			continue
		}
		prod, ok := prods.findByNum(item.prod)
		if !ok {
			return nil, fmt.Errorf("a production was not found: %v", item.prod)
		}
		kItem, err := newLR0Item(prod, item.dot+1)
		if err != nil {
			return nil, err
		}
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
	}

	nextSyms := []symbol.Symbol{}
	for sym := range kItemMap {
		nextSyms = append(nextSyms, sym)
	}
	sort.Slice(nextSyms, func(i, j int) bool {
		return nextSyms[i] < nextSyms[j]
	})

	kernels := []*neighbourKernel{}
	for _, sym := range nextSyms {
		k, err := newKernel(kItemMap[sym])
		if err != nil {
			return nil, err
		}
		kernels = append(kernels, &neighbourKernel{
			symbol: sym,
			kernel: k,
		})
	}

	return kernels, nil
}
