package grammar

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"

	"github.com/nihei9/lalrgen/grammar/symbol"
)

// lrItemID packs a production number into the high 32 bits and a dot position into
// the low 32 bits, so ids order items by production first.
type lrItemID uint64

func genLRItemID(prod productionNum, dot int) lrItemID {
	return lrItemID(uint64(prod)<<32 | uint64(uint32(dot)))
}

func (id lrItemID) String() string {
	return fmt.Sprintf("%v.%v", id>>32, id&0xffffffff)
}

type lrItem struct {
	id   lrItemID
	prod productionNum

	// E → E + T
	//
	// Dot | Dotted Symbol | Item
	// ----+---------------+------------
	// 0   | E             | E →・E + T
	// 1   | +             | E → E・+ T
	// 2   | T             | E → E +・T
	// 3   | Nil           | E → E + T・
	dot          int
	dottedSymbol symbol.Symbol

	// When reducible is true, the item looks like E → E + T・.
	reducible bool

	// When kernel is true, the item is kernel item.
	kernel bool
}

func newLR0Item(prod *production, dot int) (*lrItem, error) {
	if prod == nil {
		return nil, fmt.Errorf("production must be non-nil")
	}

	if dot < 0 || dot > prod.rhsLen {
		return nil, fmt.Errorf("dot must be between 0 and %v", prod.rhsLen)
	}

	dottedSymbol := symbol.SymbolNil
	if dot < prod.rhsLen {
		dottedSymbol = prod.rhs[dot]
	}

	reducible := false
	if dot == prod.rhsLen {
		reducible = true
	}

	// S' →・S <eof> is the only kernel item with the dot at the head.
	kernel := dot > 0 || prod.lhs.IsStart()

	return &lrItem{
		id:           genLRItemID(prod.num, dot),
		prod:         prod.num,
		dot:          dot,
		dottedSymbol: dottedSymbol,
		reducible:    reducible,
		kernel:       kernel,
	}, nil
}

type kernelID [32]byte

func (id kernelID) String() string {
	return fmt.Sprintf("%x", binary.LittleEndian.Uint32(id[:]))
}

type kernel struct {
	id    kernelID
	items []*lrItem
}

func newKernel(items []*lrItem) (*kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel need at least one item")
	}

	// Remove duplicates from items.
	var sortedItems []*lrItem
	{
		m := map[lrItemID]*lrItem{}
		for _, item := range items {
			if !item.kernel {
				return nil, fmt.Errorf("not a kernel item: %v", item.id)
			}
			m[item.id] = item
		}
		sortedItems = []*lrItem{}
		for _, item := range m {
			sortedItems = append(sortedItems, item)
		}
		sort.Slice(sortedItems, func(i, j int) bool {
			return sortedItems[i].id < sortedItems[j].id
		})
	}

	var id kernelID
	{
		b := make([]byte, 0, len(sortedItems)*8)
		for _, item := range sortedItems {
			b = binary.BigEndian.AppendUint64(b, uint64(item.id))
		}
		id = sha256.Sum256(b)
	}

	return &kernel{
		id:    id,
		items: sortedItems,
	}, nil
}

type stateNum int

const stateNumInitial = stateNum(0)

func (n stateNum) Int() int {
	return int(n)
}

func (n stateNum) String() string {
	return strconv.Itoa(int(n))
}

// lrState is a node of the LR(0) automaton. It is immutable once the automaton is built;
// look-ahead sets live in a separate structure keyed by state and production.
type lrState struct {
	*kernel
	num stateNum

	// items is the closure of the kernel. Kernel items come first.
	items []*lrItem

	next map[symbol.Symbol]transitionNum

	// reducible holds the productions of the complete items in ascending order.
	reducible []productionNum
}

// accepting reports whether the state contains S' → S・<eof>.
func (s *lrState) accepting() bool {
	for _, item := range s.kernel.items {
		if item.prod == productionNumStart && item.dottedSymbol.IsEOF() {
			return true
		}
	}
	return false
}
