// Package symbol provides the opaque symbol ids shared by every phase of table construction.
//
// A Symbol packs its kind into the two high bits and a dense per-kind number into the
// remaining bits, so terminals and non-terminals can index table columns directly.
package symbol

import (
	"fmt"
)

type Kind string

const (
	KindNonTerminal = Kind("non-terminal")
	KindTerminal    = Kind("terminal")
)

func (k Kind) String() string {
	return string(k)
}

// SymbolNum is the dense number of a symbol within its kind. Terminal numbers index the
// columns of an action table and non-terminal numbers index the columns of a goto table.
type SymbolNum uint16

func (n SymbolNum) Int() int {
	return int(n)
}

// Symbol is an opaque symbol id:
//
//	bit 15     kind (0: non-terminal, 1: terminal)
//	bit 14     the augmented start symbol for a non-terminal, EOF for a terminal
//	bits 0-13  number
type Symbol uint16

const (
	bitTerminal   = uint16(0x8000)
	bitStartOrEOF = uint16(0x4000)
	bitsNumber    = uint16(0x3fff)

	SymbolNil   = Symbol(0)
	SymbolStart = Symbol(bitStartOrEOF | 1)
	SymbolEOF   = Symbol(bitTerminal | bitStartOrEOF | 1)

	// The name contains `<` and `>` so that it cannot collide with a user-defined symbol.
	NameEOF = "<eof>"

	// 1 is taken by the augmented start symbol and EOF respectively.
	nonTerminalNumMin = SymbolNum(2)
	terminalNumMin    = SymbolNum(2)

	SymbolNumMax = SymbolNum(bitsNumber)
)

func newSymbol(kind Kind, num SymbolNum) (Symbol, error) {
	if num > SymbolNumMax {
		return SymbolNil, fmt.Errorf("a symbol number exceeds the limit; limit: %v, passed: %v", SymbolNumMax, num)
	}
	if kind == KindTerminal {
		return Symbol(bitTerminal | uint16(num)), nil
	}
	return Symbol(num), nil
}

// terminalOf and nonTerminalOf rebuild a symbol from a number the table handed out.
func terminalOf(num SymbolNum) Symbol {
	if num == 1 {
		return SymbolEOF
	}
	return Symbol(bitTerminal | uint16(num))
}

func nonTerminalOf(num SymbolNum) Symbol {
	if num == 1 {
		return SymbolStart
	}
	return Symbol(num)
}

func (s Symbol) String() string {
	switch {
	case s.IsNil():
		return "nil"
	case s.IsStart():
		return fmt.Sprintf("s%v", s.Num())
	case s.IsEOF():
		return fmt.Sprintf("e%v", s.Num())
	case s.IsTerminal():
		return fmt.Sprintf("t%v", s.Num())
	}
	return fmt.Sprintf("n%v", s.Num())
}

func (s Symbol) Num() SymbolNum {
	return SymbolNum(uint16(s) & bitsNumber)
}

func (s Symbol) Kind() Kind {
	if uint16(s)&bitTerminal != 0 {
		return KindTerminal
	}
	return KindNonTerminal
}

// Byte returns a big-endian representation of the symbol. It is used to build
// hash keys out of symbol sequences.
func (s Symbol) Byte() []byte {
	return []byte{byte(uint16(s) >> 8), byte(uint16(s))}
}

func (s Symbol) IsNil() bool {
	return s.Num() == 0
}

func (s Symbol) IsStart() bool {
	return !s.IsNil() && s.Kind() == KindNonTerminal && uint16(s)&bitStartOrEOF != 0
}

func (s Symbol) IsEOF() bool {
	return !s.IsNil() && s.Kind() == KindTerminal && uint16(s)&bitStartOrEOF != 0
}

func (s Symbol) IsNonTerminal() bool {
	return !s.IsNil() && s.Kind() == KindNonTerminal
}

func (s Symbol) IsTerminal() bool {
	return !s.IsNil() && s.Kind() == KindTerminal
}

// SymbolTable maps symbol names to ids. Registration goes through a SymbolTableWriter
// and lookups through a SymbolTableReader so that a frozen grammar only hands out the
// read-only view.
type SymbolTable struct {
	text2Sym     map[string]Symbol
	sym2Text     map[Symbol]string
	nonTermTexts []string
	termTexts    []string
	nonTermNum   SymbolNum
	termNum      SymbolNum
}

type SymbolTableWriter struct {
	*SymbolTable
}

type SymbolTableReader struct {
	*SymbolTable
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		text2Sym: map[string]Symbol{
			NameEOF: SymbolEOF,
		},
		sym2Text: map[Symbol]string{
			SymbolEOF: NameEOF,
		},
		termTexts: []string{
			"",      // Nil
			NameEOF, // EOF
		},
		nonTermTexts: []string{
			"", // Nil
			"", // Start Symbol
		},
		nonTermNum: nonTerminalNumMin,
		termNum:    terminalNumMin,
	}
}

func (t *SymbolTable) Writer() *SymbolTableWriter {
	return &SymbolTableWriter{
		SymbolTable: t,
	}
}

func (t *SymbolTable) Reader() *SymbolTableReader {
	return &SymbolTableReader{
		SymbolTable: t,
	}
}

func (w *SymbolTableWriter) RegisterStartSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok && sym != SymbolStart {
		return SymbolNil, fmt.Errorf("the start symbol name is already used; name: %v", text)
	}
	w.text2Sym[text] = SymbolStart
	w.sym2Text[SymbolStart] = text
	w.nonTermTexts[SymbolStart.Num().Int()] = text
	return SymbolStart, nil
}

func (w *SymbolTableWriter) RegisterNonTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsNonTerminal() {
			return SymbolNil, fmt.Errorf("the name is already used by a terminal symbol; name: %v", text)
		}
		return sym, nil
	}
	sym, err := newSymbol(KindNonTerminal, w.nonTermNum)
	if err != nil {
		return SymbolNil, err
	}
	w.nonTermNum++
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.nonTermTexts = append(w.nonTermTexts, text)
	return sym, nil
}

func (w *SymbolTableWriter) RegisterTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsTerminal() {
			return SymbolNil, fmt.Errorf("the name is already used by a non-terminal symbol; name: %v", text)
		}
		return sym, nil
	}
	sym, err := newSymbol(KindTerminal, w.termNum)
	if err != nil {
		return SymbolNil, err
	}
	w.termNum++
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.termTexts = append(w.termTexts, text)
	return sym, nil
}

func (r *SymbolTableReader) ToSymbol(text string) (Symbol, bool) {
	if sym, ok := r.text2Sym[text]; ok {
		return sym, true
	}
	return SymbolNil, false
}

func (r *SymbolTableReader) ToText(sym Symbol) (string, bool) {
	text, ok := r.sym2Text[sym]
	return text, ok
}

// TerminalCount returns the width of an action-table row, including the nil column.
func (r *SymbolTableReader) TerminalCount() int {
	return r.termNum.Int()
}

// NonTerminalCount returns the width of a goto-table row, including the nil column.
func (r *SymbolTableReader) NonTerminalCount() int {
	return r.nonTermNum.Int()
}

// TerminalSymbols returns all terminals including EOF in ascending id order.
func (r *SymbolTableReader) TerminalSymbols() []Symbol {
	syms := make([]Symbol, 0, r.termNum.Int()-1)
	for num := SymbolNum(1); num < r.termNum; num++ {
		syms = append(syms, terminalOf(num))
	}
	return syms
}

// TerminalTexts returns the terminal names indexed by symbol number. A grammar without
// terminals still has EOF.
func (r *SymbolTableReader) TerminalTexts() []string {
	return r.termTexts
}

// NonTerminalSymbols returns all non-terminals including the augmented start symbol in
// ascending id order. The augmented start symbol is left out until it is registered.
func (r *SymbolTableReader) NonTerminalSymbols() []Symbol {
	syms := make([]Symbol, 0, r.nonTermNum.Int()-1)
	for num := SymbolNum(1); num < r.nonTermNum; num++ {
		if num == 1 && r.nonTermTexts[1] == "" {
			continue
		}
		syms = append(syms, nonTerminalOf(num))
	}
	return syms
}

// NonTerminalTexts returns the non-terminal names indexed by symbol number.
func (r *SymbolTableReader) NonTerminalTexts() ([]string, error) {
	if r.nonTermNum == nonTerminalNumMin || r.nonTermTexts[SymbolStart.Num().Int()] == "" {
		return nil, fmt.Errorf("symbol table has no non-terminals or no start symbol")
	}
	return r.nonTermTexts, nil
}
