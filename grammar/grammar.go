// Package grammar builds LALR(1) parsing tables out of a context-free grammar.
//
// A GrammarBuilder collects declarations and Resolve freezes them into a Grammar. Compile
// then runs the LR(0) construction, the DeRemer–Pennello look-ahead computation, and
// conflict resolution, and emits the tables as a spec.CompiledGrammar.
package grammar

import (
	"fmt"
	"strings"

	verr "github.com/nihei9/lalrgen/error"
	"github.com/nihei9/lalrgen/grammar/symbol"
	spec "github.com/nihei9/lalrgen/spec/grammar"
)

type assocType string

const (
	assocTypeNil      = assocType("")
	assocTypeLeft     = assocType("left")
	assocTypeRight    = assocType("right")
	assocTypeNonAssoc = assocType("nonassoc")
)

const (
	precNil = 0
	precMin = 1
)

// precAndAssoc represents precedence and associativities of terminal symbols and productions.
// A larger number means a higher precedence.
type precAndAssoc struct {
	// termPrec and termAssoc represent the precedence of the terminal symbols.
	termPrec  map[symbol.SymbolNum]int
	termAssoc map[symbol.SymbolNum]assocType

	// prodPrec and prodAssoc represent the precedence and the associativities of the production.
	// These values are inherited from the right-most terminal symbols in the RHS of the productions
	// unless a production names its precedence terminal explicitly.
	prodPrec  map[productionNum]int
	prodAssoc map[productionNum]assocType
}

func (pa *precAndAssoc) terminalPrecedence(sym symbol.SymbolNum) int {
	prec, ok := pa.termPrec[sym]
	if !ok {
		return precNil
	}

	return prec
}

func (pa *precAndAssoc) terminalAssociativity(sym symbol.SymbolNum) assocType {
	assoc, ok := pa.termAssoc[sym]
	if !ok {
		return assocTypeNil
	}

	return assoc
}

func (pa *precAndAssoc) productionPredence(prod productionNum) int {
	prec, ok := pa.prodPrec[prod]
	if !ok {
		return precNil
	}

	return prec
}

func (pa *precAndAssoc) productionAssociativity(prod productionNum) assocType {
	assoc, ok := pa.prodAssoc[prod]
	if !ok {
		return assocTypeNil
	}

	return assoc
}

// Grammar is a resolved grammar. It is immutable and safe to compile more than once.
type Grammar struct {
	name                 string
	symbolTable          *symbol.SymbolTableReader
	productionSet        *productionSet
	augmentedStartSymbol symbol.Symbol
	startSymbol          symbol.Symbol
	precAndAssoc         *precAndAssoc

	// nullable holds the non-terminals deriving the empty string.
	nullable map[symbol.Symbol]struct{}

	// excluded holds the productions already reported as unreachable or useless.
	excluded map[productionNum]struct{}
}

func (g *Grammar) Name() string {
	return g.name
}

func (g *Grammar) SymbolTable() *symbol.SymbolTableReader {
	return g.symbolTable
}

// ProductionCount returns the number of productions including the augmented start production.
func (g *Grammar) ProductionCount() int {
	return g.productionSet.count()
}

func (g *Grammar) isNullable(sym symbol.Symbol) bool {
	_, ok := g.nullable[sym]
	return ok
}

type symDecl struct {
	assoc assocType

	// precedence is true when the declaration introduces a precedence level.
	precedence bool
	names      []string
	row        int
}

type prodDecl struct {
	lhs    string
	rhs    []string
	prec   string
	action int
	row    int
}

type ProductionOption func(p *prodDecl)

// WithPrecedence makes a production take the precedence of the named terminal instead of
// the one of its right-most terminal.
func WithPrecedence(term string) ProductionOption {
	return func(p *prodDecl) {
		p.prec = term
	}
}

// WithAction attaches an opaque semantic-action id to a production.
func WithAction(id int) ProductionOption {
	return func(p *prodDecl) {
		p.action = id
	}
}

func atRow(row int) ProductionOption {
	return func(p *prodDecl) {
		p.row = row
	}
}

// GrammarBuilder collects the declarations of a grammar. Declaration order matters: terminals
// are numbered in the order they are declared, every Left, Right or NonAssoc call introduces a
// precedence level higher than the previous one, and productions are numbered in the order
// they are added.
type GrammarBuilder struct {
	name  string
	start string
	decls []*symDecl
	prods []*prodDecl

	// sourceName and filePath decorate the fatal errors Resolve returns.
	sourceName string
	filePath   string
}

func NewGrammarBuilder(name string) *GrammarBuilder {
	return &GrammarBuilder{
		name: name,
	}
}

// Source attaches a source name and file path to the fatal errors Resolve returns.
func (b *GrammarBuilder) Source(name string, filePath string) *GrammarBuilder {
	b.sourceName = name
	b.filePath = filePath
	return b
}

func (b *GrammarBuilder) Terminal(names ...string) *GrammarBuilder {
	b.decls = append(b.decls, &symDecl{
		assoc: assocTypeNil,
		names: names,
	})
	return b
}

func (b *GrammarBuilder) Left(names ...string) *GrammarBuilder {
	return b.precedence(assocTypeLeft, 0, names)
}

func (b *GrammarBuilder) Right(names ...string) *GrammarBuilder {
	return b.precedence(assocTypeRight, 0, names)
}

func (b *GrammarBuilder) NonAssoc(names ...string) *GrammarBuilder {
	return b.precedence(assocTypeNonAssoc, 0, names)
}

func (b *GrammarBuilder) precedence(assoc assocType, row int, names []string) *GrammarBuilder {
	b.decls = append(b.decls, &symDecl{
		assoc:      assoc,
		precedence: true,
		names:      names,
		row:        row,
	})
	return b
}

// Start sets the start symbol. Without it, the LHS of the first production is the start symbol.
func (b *GrammarBuilder) Start(name string) *GrammarBuilder {
	b.start = name
	return b
}

// AddProduction adds `lhs → rhs`. An empty rhs means an ε-production.
func (b *GrammarBuilder) AddProduction(lhs string, rhs []string, opts ...ProductionOption) *GrammarBuilder {
	p := &prodDecl{
		lhs: lhs,
		rhs: rhs,
	}
	for _, opt := range opts {
		opt(p)
	}
	b.prods = append(b.prods, p)
	return b
}

// FromDefinition turns a grammar definition into a builder, keeping the rows of the definition
// so that fatal errors point at their source lines.
func FromDefinition(def *spec.Definition) (*GrammarBuilder, error) {
	b := NewGrammarBuilder(def.Name)
	b.start = def.Start
	if len(def.Terminals) > 0 {
		b.decls = append(b.decls, &symDecl{
			assoc: assocTypeNil,
			names: def.Terminals,
			row:   def.TerminalsRow,
		})
	}
	for i, p := range def.Precedence {
		if p == nil {
			return nil, &verr.SpecError{
				Cause:  spec.ErrEmptyEntry,
				Detail: fmt.Sprintf("precedence #%v", i+1),
			}
		}
		switch assocType(p.Associativity) {
		case assocTypeLeft, assocTypeRight, assocTypeNonAssoc:
			b.precedence(assocType(p.Associativity), p.Row, p.Symbols)
		default:
			return nil, &verr.SpecError{
				Cause:  semErrInvalidAssociativity,
				Detail: p.Associativity,
				Row:    p.Row,
			}
		}
	}
	for i, p := range def.Productions {
		if p == nil {
			return nil, &verr.SpecError{
				Cause:  spec.ErrEmptyEntry,
				Detail: fmt.Sprintf("production #%v", i+1),
			}
		}
		opts := []ProductionOption{atRow(p.Row)}
		if p.Precedence != "" {
			opts = append(opts, WithPrecedence(p.Precedence))
		}
		if p.Action != nil {
			opts = append(opts, WithAction(*p.Action))
		}
		b.AddProduction(p.LHS, p.RHS, opts...)
	}
	return b, nil
}

type resolver struct {
	b         *GrammarBuilder
	symTab    *symbol.SymbolTable
	prodDecls map[productionNum]*prodDecl
	precTerms map[symbol.Symbol]struct{}
	errs      verr.SpecErrors
}

func (r *resolver) fail(cause error, detail string, row int) {
	r.errs = append(r.errs, &verr.SpecError{
		Cause:      cause,
		Detail:     detail,
		FilePath:   r.b.filePath,
		SourceName: r.b.sourceName,
		Row:        row,
	})
}

// Resolve validates the declarations and freezes them into a Grammar. Fatal problems are
// returned together as a verr.SpecErrors; unreachable non-terminals, useless productions, and
// unused terminals are appended to diags as warnings.
func (b *GrammarBuilder) Resolve(diags *Diagnostics) (*Grammar, error) {
	if diags == nil {
		diags = NewDiagnostics()
	}

	r := &resolver{
		b:         b,
		symTab:    symbol.NewSymbolTable(),
		prodDecls: map[productionNum]*prodDecl{},
		precTerms: map[symbol.Symbol]struct{}{},
	}

	if len(b.prods) == 0 {
		r.fail(semErrNoProduction, "", 0)
		return nil, r.errs
	}

	pa, termRows := r.registerTerminals()
	startSym, augStartSym := r.registerNonTerminals()
	prods := r.genProductions(startSym, augStartSym)
	if len(r.errs) > 0 {
		return nil, r.errs
	}
	r.genProductionPrecedence(pa, prods)
	if len(r.errs) > 0 {
		return nil, r.errs
	}

	gram := &Grammar{
		name:                 b.name,
		symbolTable:          r.symTab.Reader(),
		productionSet:        prods,
		augmentedStartSymbol: augStartSym,
		startSymbol:          startSym,
		precAndAssoc:         pa,
		nullable:             genNullableSet(prods),
		excluded:             map[productionNum]struct{}{},
	}

	checkUsefulness(gram, termRows, r.precTerms, diags)

	tracer().Debugf("resolved grammar %v: %v terminals, %v non-terminals, %v productions",
		gram.name, len(gram.symbolTable.TerminalSymbols()), len(gram.symbolTable.NonTerminalSymbols()), prods.count())

	return gram, nil
}

func (r *resolver) registerTerminals() (*precAndAssoc, map[symbol.Symbol]int) {
	termPrec := map[symbol.SymbolNum]int{}
	termAssoc := map[symbol.SymbolNum]assocType{}
	termRows := map[symbol.Symbol]int{}

	w := r.symTab.Writer()
	plain := map[string]struct{}{}
	prec := precMin
	for _, decl := range r.b.decls {
		for _, name := range decl.names {
			if name == "" {
				r.fail(semErrEmptyName, "", decl.row)
				continue
			}
			if name == symbol.NameEOF {
				r.fail(semErrReservedName, name, decl.row)
				continue
			}
			_, known := r.symTab.Reader().ToSymbol(name)
			sym, err := w.RegisterTerminalSymbol(name)
			if err != nil {
				r.fail(err, name, decl.row)
				continue
			}
			if !known {
				termRows[sym] = decl.row
			}
			if !decl.precedence {
				if _, ok := plain[name]; ok {
					r.fail(semErrDuplicateTerminal, name, decl.row)
				}
				plain[name] = struct{}{}
				continue
			}
			if _, ok := termPrec[sym.Num()]; ok {
				r.fail(semErrDuplicatePrecedence, name, decl.row)
				continue
			}
			termPrec[sym.Num()] = prec
			termAssoc[sym.Num()] = decl.assoc
		}
		if decl.precedence {
			prec++
		}
	}

	return &precAndAssoc{
		termPrec:  termPrec,
		termAssoc: termAssoc,
		prodPrec:  map[productionNum]int{},
		prodAssoc: map[productionNum]assocType{},
	}, termRows
}

func (r *resolver) registerNonTerminals() (symbol.Symbol, symbol.Symbol) {
	startName := r.b.start
	if startName == "" {
		startName = r.b.prods[0].lhs
	}

	// The augmented start symbol takes the name of the start symbol followed by primes
	// so that it never collides with a user-defined name.
	augName := startName + "'"
	for {
		if !r.isDeclaredName(augName) {
			break
		}
		augName += "'"
	}
	w := r.symTab.Writer()
	augStartSym, err := w.RegisterStartSymbol(augName)
	if err != nil {
		r.fail(err, augName, 0)
		return symbol.SymbolNil, symbol.SymbolNil
	}

	reader := r.symTab.Reader()
	for _, p := range r.b.prods {
		if p.lhs == "" {
			r.fail(semErrEmptyName, "", p.row)
			continue
		}
		if p.lhs == symbol.NameEOF {
			r.fail(semErrReservedName, p.lhs, p.row)
			continue
		}
		if sym, ok := reader.ToSymbol(p.lhs); ok && sym.IsTerminal() {
			r.fail(semErrTermCannotBeLHS, p.lhs, p.row)
			continue
		}
		if _, err := w.RegisterNonTerminalSymbol(p.lhs); err != nil {
			r.fail(err, p.lhs, p.row)
		}
	}

	startSym, ok := reader.ToSymbol(startName)
	if !ok || !startSym.IsNonTerminal() {
		r.fail(semErrNoStartProduction, startName, 0)
		return symbol.SymbolNil, augStartSym
	}
	return startSym, augStartSym
}

func (r *resolver) isDeclaredName(name string) bool {
	for _, decl := range r.b.decls {
		for _, n := range decl.names {
			if n == name {
				return true
			}
		}
	}
	for _, p := range r.b.prods {
		if p.lhs == name {
			return true
		}
		for _, s := range p.rhs {
			if s == name {
				return true
			}
		}
	}
	return false
}

func (r *resolver) genProductions(startSym, augStartSym symbol.Symbol) *productionSet {
	prods := newProductionSet()
	if startSym.IsNil() || augStartSym.IsNil() {
		return prods
	}

	// S' → S <eof>
	{
		p, err := newProduction(augStartSym, []symbol.Symbol{startSym, symbol.SymbolEOF})
		if err != nil {
			r.fail(err, "", 0)
			return prods
		}
		prods.append(p)
	}

	reader := r.symTab.Reader()
	for _, decl := range r.b.prods {
		lhs, ok := reader.ToSymbol(decl.lhs)
		if !ok || !lhs.IsNonTerminal() {
			// Already reported while registering non-terminals.
			continue
		}

		rhs := make([]symbol.Symbol, 0, len(decl.rhs))
		valid := true
		for _, name := range decl.rhs {
			sym, ok := reader.ToSymbol(name)
			if !ok || sym.IsStart() {
				r.fail(semErrUndefinedSym, name, decl.row)
				valid = false
				continue
			}
			if sym.IsEOF() {
				r.fail(semErrReservedName, name, decl.row)
				valid = false
				continue
			}
			rhs = append(rhs, sym)
		}
		if !valid {
			continue
		}

		p, err := newProduction(lhs, rhs)
		if err != nil {
			r.fail(err, decl.lhs, decl.row)
			continue
		}
		p.action = decl.action
		p.row = decl.row
		if prods.full() {
			r.fail(semErrTooManyProductions, fmt.Sprintf("limit: %v", productionNumMax-productionNumStart), decl.row)
			break
		}
		if !prods.append(p) {
			r.fail(semErrDuplicateProduction, fmt.Sprintf("%v → %v", decl.lhs, strings.Join(decl.rhs, " ")), decl.row)
			continue
		}
		r.prodDecls[p.num] = decl
	}

	return prods
}

func (r *resolver) genProductionPrecedence(pa *precAndAssoc, prods *productionSet) {
	reader := r.symTab.Reader()
	for _, prod := range prods.getAllProductions() {
		if decl, ok := r.prodDecls[prod.num]; ok && decl.prec != "" {
			sym, ok := reader.ToSymbol(decl.prec)
			if !ok || !sym.IsTerminal() {
				r.fail(semErrUndefinedPrecSym, decl.prec, decl.row)
				continue
			}
			r.precTerms[sym] = struct{}{}
			if prec, ok := pa.termPrec[sym.Num()]; ok {
				pa.prodPrec[prod.num] = prec
				pa.prodAssoc[prod.num] = pa.termAssoc[sym.Num()]
			}
			continue
		}

		// A production inherits precedence and associativity from the right-most terminal symbol.
		mostrightTerm := symbol.SymbolNil
		for _, sym := range prod.rhs {
			if !sym.IsTerminal() {
				continue
			}
			mostrightTerm = sym
		}
		if mostrightTerm.IsNil() {
			continue
		}
		if prec, ok := pa.termPrec[mostrightTerm.Num()]; ok {
			pa.prodPrec[prod.num] = prec
			pa.prodAssoc[prod.num] = pa.termAssoc[mostrightTerm.Num()]
		}
	}
}
