package symbol

import "testing"

func TestSymbolTable(t *testing.T) {
	tab := NewSymbolTable()
	w := tab.Writer()
	_, _ = w.RegisterStartSymbol("stmt'")
	_, _ = w.RegisterNonTerminalSymbol("stmt")
	_, _ = w.RegisterNonTerminalSymbol("expr")
	_, _ = w.RegisterTerminalSymbol("IF")
	_, _ = w.RegisterTerminalSymbol("THEN")
	_, _ = w.RegisterTerminalSymbol("ELSE")
	_, _ = w.RegisterTerminalSymbol("OTHER")

	nonTermTexts := []string{
		"", // Nil
		"stmt'",
		"stmt",
		"expr",
	}

	termTexts := []string{
		"",      // Nil
		NameEOF, // EOF
		"IF",
		"THEN",
		"ELSE",
		"OTHER",
	}

	tests := []struct {
		text          string
		isStart       bool
		isNonTerminal bool
		isTerminal    bool
		num           SymbolNum
	}{
		{text: "stmt'", isStart: true, isNonTerminal: true, num: 1},
		{text: "stmt", isNonTerminal: true, num: 2},
		{text: "expr", isNonTerminal: true, num: 3},
		{text: "IF", isTerminal: true, num: 2},
		{text: "THEN", isTerminal: true, num: 3},
		{text: "ELSE", isTerminal: true, num: 4},
		{text: "OTHER", isTerminal: true, num: 5},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := tab.Reader()
			sym, ok := r.ToSymbol(tt.text)
			if !ok {
				t.Fatalf("symbol was not found")
			}
			testSymbolProperty(t, sym, false, tt.isStart, false, tt.isNonTerminal, tt.isTerminal)
			if sym.Num() != tt.num {
				t.Fatalf("unexpected symbol number; want: %v, got: %v", tt.num, sym.Num())
			}
			text, ok := r.ToText(sym)
			if !ok {
				t.Fatalf("text was not found")
			}
			if text != tt.text {
				t.Fatalf("unexpected text representation; want: %v, got: %v", tt.text, text)
			}
		})
	}

	t.Run("EOF", func(t *testing.T) {
		testSymbolProperty(t, SymbolEOF, false, false, true, false, true)
	})

	t.Run("Nil", func(t *testing.T) {
		testSymbolProperty(t, SymbolNil, true, false, false, false, false)
	})

	t.Run("re-registration returns the same symbol", func(t *testing.T) {
		a, err := w.RegisterTerminalSymbol("IF")
		if err != nil {
			t.Fatal(err)
		}
		b, _ := tab.Reader().ToSymbol("IF")
		if a != b {
			t.Fatalf("unexpected symbol; want: %v, got: %v", b, a)
		}
	})

	t.Run("a name cannot be both a terminal and a non-terminal", func(t *testing.T) {
		if _, err := w.RegisterNonTerminalSymbol("IF"); err == nil {
			t.Fatal("an error must occur")
		}
		if _, err := w.RegisterTerminalSymbol("stmt"); err == nil {
			t.Fatal("an error must occur")
		}
	})

	t.Run("texts of non-terminals", func(t *testing.T) {
		r := tab.Reader()
		ts, err := r.NonTerminalTexts()
		if err != nil {
			t.Fatal(err)
		}
		if len(ts) != len(nonTermTexts) || r.NonTerminalCount() != len(nonTermTexts) {
			t.Fatalf("unexpected non-terminal count; want: %v (%#v), got: %v (%#v)", len(nonTermTexts), nonTermTexts, len(ts), ts)
		}
		for i, text := range ts {
			if text != nonTermTexts[i] {
				t.Fatalf("unexpected non-terminal; want: %v, got: %v", nonTermTexts[i], text)
			}
		}
	})

	t.Run("texts of terminals", func(t *testing.T) {
		r := tab.Reader()
		ts := r.TerminalTexts()
		if len(ts) != len(termTexts) || r.TerminalCount() != len(termTexts) {
			t.Fatalf("unexpected terminal count; want: %v (%#v), got: %v (%#v)", len(termTexts), termTexts, len(ts), ts)
		}
		for i, text := range ts {
			if text != termTexts[i] {
				t.Fatalf("unexpected terminal; want: %v, got: %v", termTexts[i], text)
			}
		}
	})

	t.Run("symbols are sorted by number", func(t *testing.T) {
		r := tab.Reader()
		terms := r.TerminalSymbols()
		if len(terms) != len(termTexts)-1 || terms[0] != SymbolEOF {
			t.Fatalf("unexpected terminals: %v", terms)
		}
		nonTerms := r.NonTerminalSymbols()
		if len(nonTerms) != len(nonTermTexts)-1 || nonTerms[0] != SymbolStart {
			t.Fatalf("unexpected non-terminals: %v", nonTerms)
		}
	})
}

func testSymbolProperty(t *testing.T, sym Symbol, isNil, isStart, isEOF, isNonTerminal, isTerminal bool) {
	t.Helper()

	if v := sym.IsNil(); v != isNil {
		t.Fatalf("isNil property is mismatched; want: %v, got: %v", isNil, v)
	}
	if v := sym.IsStart(); v != isStart {
		t.Fatalf("isStart property is mismatched; want: %v, got: %v", isStart, v)
	}
	if v := sym.IsEOF(); v != isEOF {
		t.Fatalf("isEOF property is mismatched; want: %v, got: %v", isEOF, v)
	}
	if v := sym.IsNonTerminal(); v != isNonTerminal {
		t.Fatalf("isNonTerminal property is mismatched; want: %v, got: %v", isNonTerminal, v)
	}
	if v := sym.IsTerminal(); v != isTerminal {
		t.Fatalf("isTerminal property is mismatched; want: %v, got: %v", isTerminal, v)
	}
}

func TestSymbolEncoding(t *testing.T) {
	tests := []struct {
		sym  Symbol
		raw  uint16
		text string
	}{
		{sym: SymbolNil, raw: 0x0000, text: "nil"},
		{sym: SymbolStart, raw: 0x4001, text: "s1"},
		{sym: SymbolEOF, raw: 0xc001, text: "e1"},
		{sym: nonTerminalOf(2), raw: 0x0002, text: "n2"},
		{sym: terminalOf(5), raw: 0x8005, text: "t5"},
	}
	for _, tt := range tests {
		if uint16(tt.sym) != tt.raw {
			t.Errorf("unexpected encoding; want: %#04x, got: %#04x", tt.raw, uint16(tt.sym))
		}
		if tt.sym.String() != tt.text {
			t.Errorf("unexpected text; want: %v, got: %v", tt.text, tt.sym.String())
		}
		b := tt.sym.Byte()
		if len(b) != 2 || uint16(b[0])<<8|uint16(b[1]) != tt.raw {
			t.Errorf("unexpected bytes: %v", b)
		}
	}

	if _, err := newSymbol(KindTerminal, SymbolNumMax); err != nil {
		t.Fatalf("the maximum number must be accepted: %v", err)
	}
	if _, err := newSymbol(KindNonTerminal, SymbolNumMax+1); err == nil {
		t.Fatal("an error must occur")
	}
}
