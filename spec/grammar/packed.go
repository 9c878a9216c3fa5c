package grammar

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

var packedMagic = [4]byte{'L', 'A', 'L', 'R'}

const packedVersion = uint16(1)

// EncodePacked writes the tables in a compact binary form. Every number is a little-endian
// int32. After a header, each state is written as one of:
//
//	n > 0: n (terminal, action) pairs, then the gotos
//	0:     a default action (0 for none), then the gotos
//	n < 0: no pairs and no gotos; -n is the default action
//
// where the gotos are a count followed by (non-terminal, state) pairs. A state reducing the
// same production on every terminal it has an entry for is written with that production as
// its default action. The rules follow as (LHS, RHS length) pairs.
func EncodePacked(w io.Writer, s *SyntacticSpec) error {
	bw := bufio.NewWriter(w)
	pw := &packedWriter{w: bw}

	pw.write(packedMagic[:])
	pw.writeUint16(packedVersion)
	pw.writeInt(s.StateCount)
	pw.writeInt(s.TerminalCount)
	pw.writeInt(s.NonTerminalCount)
	pw.writeInt(s.InitialState)
	pw.writeInt(s.StartProduction)
	pw.writeInt(s.EOFSymbol)

	for state := 0; state < s.StateCount; state++ {
		var actions [][2]int
		for term := 0; term < s.TerminalCount; term++ {
			act, err := s.LookupAction(state, term)
			if err != nil {
				return err
			}
			if act == 0 {
				continue
			}
			actions = append(actions, [2]int{term, act})
		}
		var gotos [][2]int
		for nonTerm := 0; nonTerm < s.NonTerminalCount; nonTerm++ {
			next, err := s.LookupGoTo(state, nonTerm)
			if err != nil {
				return err
			}
			if next == 0 {
				continue
			}
			gotos = append(gotos, [2]int{nonTerm, next})
		}

		def := 0
		if state < len(s.DefaultReductions) {
			def = s.DefaultReductions[state]
		}
		switch {
		case def != 0 && len(gotos) == 0:
			pw.writeInt(-def)
			continue
		case def != 0 || len(actions) == 0:
			pw.writeInt(0)
			pw.writeInt(def)
		default:
			pw.writeInt(len(actions))
			for _, a := range actions {
				pw.writeInt(a[0])
				pw.writeInt(a[1])
			}
		}
		pw.writeInt(len(gotos))
		for _, g := range gotos {
			pw.writeInt(g[0])
			pw.writeInt(g[1])
		}
	}

	ruleCount := len(s.LHSSymbols) - 1
	if ruleCount < 0 {
		ruleCount = 0
	}
	pw.writeInt(ruleCount)
	for prod := 1; prod <= ruleCount; prod++ {
		pw.writeInt(s.LHSSymbols[prod])
		pw.writeInt(s.AlternativeSymbolCounts[prod])
	}

	if pw.err != nil {
		return pw.err
	}
	return bw.Flush()
}

type packedWriter struct {
	w   io.Writer
	err error
}

func (pw *packedWriter) write(b []byte) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.w.Write(b)
}

func (pw *packedWriter) writeUint16(v uint16) {
	pw.write(binary.LittleEndian.AppendUint16(nil, v))
}

func (pw *packedWriter) writeInt(v int) {
	pw.write(binary.LittleEndian.AppendUint32(nil, uint32(int32(v))))
}

type PackedState struct {
	Actions       map[int]int
	GoTos         map[int]int
	DefaultAction int
}

type PackedRule struct {
	LHS    int
	RHSLen int
}

// PackedTables is the decoded form of the packed encoding. Rules[0] is unused so that
// production numbers index it directly.
type PackedTables struct {
	StateCount       int
	TerminalCount    int
	NonTerminalCount int
	InitialState     int
	StartProduction  int
	EOFSymbol        int
	States           []*PackedState
	Rules            []PackedRule
}

// Action returns the explicit action of a state on a terminal, falling back on the default
// action of the state.
func (t *PackedTables) Action(state int, term int) int {
	if state < 0 || state >= len(t.States) {
		return 0
	}
	s := t.States[state]
	if act, ok := s.Actions[term]; ok {
		return act
	}
	return s.DefaultAction
}

func (t *PackedTables) GoTo(state int, nonTerm int) int {
	if state < 0 || state >= len(t.States) {
		return 0
	}
	return t.States[state].GoTos[nonTerm]
}

func DecodePacked(r io.Reader) (*PackedTables, error) {
	pr := &packedReader{r: bufio.NewReader(r)}

	var magic [4]byte
	pr.read(magic[:])
	if pr.err == nil && magic != packedMagic {
		return nil, fmt.Errorf("not packed tables; magic: %q", magic[:])
	}
	if v := pr.readUint16(); pr.err == nil && v != packedVersion {
		return nil, fmt.Errorf("unsupported version of packed tables: %v", v)
	}

	t := &PackedTables{
		StateCount:       pr.readInt(),
		TerminalCount:    pr.readInt(),
		NonTerminalCount: pr.readInt(),
		InitialState:     pr.readInt(),
		StartProduction:  pr.readInt(),
		EOFSymbol:        pr.readInt(),
	}
	if pr.err != nil {
		return nil, pr.err
	}
	if t.StateCount < 0 {
		return nil, fmt.Errorf("invalid state count: %v", t.StateCount)
	}

	t.States = make([]*PackedState, t.StateCount)
	for i := range t.States {
		s := &PackedState{
			Actions: map[int]int{},
			GoTos:   map[int]int{},
		}
		t.States[i] = s

		h := pr.readInt()
		if h < 0 {
			s.DefaultAction = -h
			continue
		}
		if h == 0 {
			s.DefaultAction = pr.readInt()
		}
		for j := 0; j < h && pr.err == nil; j++ {
			term := pr.readInt()
			s.Actions[term] = pr.readInt()
		}
		n := pr.readInt()
		for j := 0; j < n && pr.err == nil; j++ {
			nonTerm := pr.readInt()
			s.GoTos[nonTerm] = pr.readInt()
		}
		if pr.err != nil {
			return nil, pr.err
		}
	}

	n := pr.readInt()
	if pr.err != nil {
		return nil, pr.err
	}
	if n < 0 {
		return nil, fmt.Errorf("invalid rule count: %v", n)
	}
	t.Rules = make([]PackedRule, 1, n+1)
	for i := 0; i < n && pr.err == nil; i++ {
		t.Rules = append(t.Rules, PackedRule{
			LHS:    pr.readInt(),
			RHSLen: pr.readInt(),
		})
	}
	if pr.err != nil {
		return nil, pr.err
	}

	return t, nil
}

type packedReader struct {
	r   io.Reader
	err error
}

func (pr *packedReader) read(b []byte) {
	if pr.err != nil {
		return
	}
	_, pr.err = io.ReadFull(pr.r, b)
}

func (pr *packedReader) readUint16() uint16 {
	var b [2]byte
	pr.read(b[:])
	return binary.LittleEndian.Uint16(b[:])
}

func (pr *packedReader) readInt() int {
	var b [4]byte
	pr.read(b[:])
	return int(int32(binary.LittleEndian.Uint32(b[:])))
}
