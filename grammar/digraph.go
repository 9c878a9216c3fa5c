package grammar

import (
	"math"
	"math/bits"

	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/nihei9/lalrgen/grammar/symbol"
)

// terminalSet is a set of terminal numbers backed by a bit vector.
type terminalSet struct {
	words []uint64
}

func newTerminalSet(termCount int) *terminalSet {
	return &terminalSet{
		words: make([]uint64, (termCount+63)/64),
	}
}

func (s *terminalSet) add(num symbol.SymbolNum) bool {
	w, b := int(num)/64, uint(num)%64
	for w >= len(s.words) {
		s.words = append(s.words, 0)
	}
	if s.words[w]&(1<<b) != 0 {
		return false
	}
	s.words[w] |= 1 << b
	return true
}

func (s *terminalSet) has(num symbol.SymbolNum) bool {
	w, b := int(num)/64, uint(num)%64
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<b) != 0
}

// union adds every member of t to s and reports whether s grew.
func (s *terminalSet) union(t *terminalSet) bool {
	if t == nil {
		return false
	}
	for len(s.words) < len(t.words) {
		s.words = append(s.words, 0)
	}
	changed := false
	for i, w := range t.words {
		n := s.words[i] | w
		if n != s.words[i] {
			s.words[i] = n
			changed = true
		}
	}
	return changed
}

func (s *terminalSet) clone() *terminalSet {
	words := make([]uint64, len(s.words))
	copy(words, s.words)
	return &terminalSet{
		words: words,
	}
}

func (s *terminalSet) equal(t *terminalSet) bool {
	long, short := s.words, t.words
	if len(long) < len(short) {
		long, short = short, long
	}
	for i, w := range long {
		var v uint64
		if i < len(short) {
			v = short[i]
		}
		if w != v {
			return false
		}
	}
	return true
}

func (s *terminalSet) len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// symbols returns the members in ascending order.
func (s *terminalSet) symbols() []symbol.SymbolNum {
	var nums []symbol.SymbolNum
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			nums = append(nums, symbol.SymbolNum(i*64+b))
			w &= w - 1
		}
	}
	return nums
}

// digraph computes, for every node x, F(x) = F'(x) ∪ ⋃{F(y) | x R+ y}. Nodes of a strongly
// connected component end up sharing a single set. Every node is traversed once and every
// edge is followed once.
type digraph struct {
	// edges returns the nodes x is related to.
	edges func(x int) []int

	// sets holds F'(x) on entry and F(x) when run returns.
	sets []*terminalSet

	stack *arraystack.Stack
	depth []int

	// scc maps a node to the root node of its strongly connected component.
	scc []int
}

func newDigraph(sets []*terminalSet, edges func(x int) []int) *digraph {
	scc := make([]int, len(sets))
	for i := range scc {
		scc[i] = i
	}
	return &digraph{
		edges: edges,
		sets:  sets,
		stack: arraystack.New(),
		depth: make([]int, len(sets)),
		scc:   scc,
	}
}

// run traverses every node. Nodes whose set is nil are skipped.
func (d *digraph) run() {
	for x := range d.sets {
		if d.sets[x] == nil || d.depth[x] != 0 {
			continue
		}
		d.traverse(x)
	}
}

func (d *digraph) traverse(x int) {
	d.stack.Push(x)
	depth := d.stack.Size()
	d.depth[x] = depth
	d.sets[x] = d.sets[x].clone()

	for _, y := range d.edges(x) {
		if d.depth[y] == 0 {
			d.traverse(y)
		}
		if d.depth[y] < d.depth[x] {
			d.depth[x] = d.depth[y]
		}
		d.sets[x].union(d.sets[y])
	}

	if d.depth[x] != depth {
		return
	}
	for {
		v, _ := d.stack.Pop()
		top := v.(int)
		d.depth[top] = math.MaxInt
		d.scc[top] = x
		if top == x {
			break
		}
		d.sets[top] = d.sets[x]
	}
}
