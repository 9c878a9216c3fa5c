package grammar

import (
	"github.com/nihei9/lalrgen/compressor"
	"github.com/nihei9/lalrgen/grammar/symbol"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'lalrgen.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("lalrgen.grammar")
}

const (
	DefaultMaxStates = 100000
	DefaultMaxItems  = 10000000
)

type compileConfig struct {
	isReportingEnabled   bool
	isCompressionEnabled bool
	automaton            automatonConfig
}

type CompileOption func(config *compileConfig)

func EnableReporting() CompileOption {
	return func(config *compileConfig) {
		config.isReportingEnabled = true
	}
}

// EnableCompression makes Compile emit compressed tables instead of dense ones.
func EnableCompression() CompileOption {
	return func(config *compileConfig) {
		config.isCompressionEnabled = true
	}
}

// WithMaxStates caps the number of states. Zero or less removes the cap.
func WithMaxStates(n int) CompileOption {
	return func(config *compileConfig) {
		config.automaton.maxStates = n
	}
}

// WithMaxItems caps the total number of items over all states. Zero or less removes the cap.
func WithMaxItems(n int) CompileOption {
	return func(config *compileConfig) {
		config.automaton.maxItems = n
	}
}

// WithParallelism sets the number of goroutines building the automaton. The tables do not
// depend on it.
func WithParallelism(n int) CompileOption {
	return func(config *compileConfig) {
		config.automaton.parallelism = n
	}
}

type compiledTable struct {
	automaton *lalr1Automaton
	builder   *lrTableBuilder
	table     *ParsingTable
}

func compile(gram *Grammar, diags *Diagnostics, config *compileConfig) (*compiledTable, error) {
	lr0, err := genLR0Automaton(gram.productionSet, gram.augmentedStartSymbol, config.automaton)
	if err != nil {
		return nil, err
	}
	if err := checkReachability(lr0); err != nil {
		return nil, err
	}

	lalr1, err := genLALR1Automaton(lr0, gram)
	if err != nil {
		return nil, err
	}

	b := &lrTableBuilder{
		automaton:    lalr1,
		prods:        gram.productionSet,
		termCount:    gram.symbolTable.TerminalCount(),
		nonTermCount: gram.symbolTable.NonTerminalCount(),
		symTab:       gram.symbolTable,
		precAndAssoc: gram.precAndAssoc,
		excluded:     gram.excluded,
		diags:        diags,
	}
	tab, err := b.build()
	if err != nil {
		return nil, err
	}

	tracer().Infof("compiled %v: %v states, %v shift/reduce conflicts, %v reduce/reduce conflicts",
		gram.name, tab.stateCount, diags.SRConflictCount(), diags.RRConflictCount())

	return &compiledTable{
		automaton: lalr1,
		builder:   b,
		table:     tab,
	}, nil
}

// BuildTable builds the LALR(1) parsing table of a grammar. Conflicts and productions that are
// never reduced are appended to diags.
func BuildTable(gram *Grammar, diags *Diagnostics, opts ...CompileOption) (*ParsingTable, error) {
	if diags == nil {
		diags = NewDiagnostics()
	}
	config := newCompileConfig(opts)
	c, err := compile(gram, diags, config)
	if err != nil {
		return nil, err
	}
	return c.table, nil
}

func newCompileConfig(opts []CompileOption) *compileConfig {
	config := &compileConfig{
		automaton: automatonConfig{
			maxStates:   DefaultMaxStates,
			maxItems:    DefaultMaxItems,
			parallelism: 1,
		},
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Compile builds the parsing table of a grammar and emits it as a spec.CompiledGrammar. When
// reporting is enabled, it also returns a description of the automaton, the look-ahead sets,
// and every diagnostic.
func Compile(gram *Grammar, diags *Diagnostics, opts ...CompileOption) (*spec.CompiledGrammar, *spec.Report, error) {
	if diags == nil {
		diags = NewDiagnostics()
	}
	config := newCompileConfig(opts)

	terms := gram.symbolTable.TerminalTexts()
	nonTerms, err := gram.symbolTable.NonTerminalTexts()
	if err != nil {
		return nil, nil, err
	}

	c, err := compile(gram, diags, config)
	if err != nil {
		return nil, nil, err
	}
	tab := c.table

	fingerprint, err := tab.Fingerprint()
	if err != nil {
		return nil, nil, err
	}

	var report *spec.Report
	if config.isReportingEnabled {
		report, err = c.builder.genReport(tab, gram)
		if err != nil {
			return nil, nil, err
		}
	}

	action := make([]int, len(tab.actionTable))
	for i, e := range tab.actionTable {
		action[i] = int(e)
	}
	goTo := make([]int, len(tab.goToTable))
	for i, e := range tab.goToTable {
		goTo[i] = int(e)
	}
	defaultReductions := make([]int, len(tab.defaultReductions))
	for i, p := range tab.defaultReductions {
		defaultReductions[i] = p.Int()
	}

	prodCount := gram.productionSet.count() + 1
	lhsSyms := make([]int, prodCount)
	altSymCounts := make([]int, prodCount)
	semActions := make([]int, prodCount)
	for _, p := range gram.productionSet.getAllProductions() {
		lhsSyms[p.num] = p.lhs.Num().Int()
		altSymCounts[p.num] = p.rhsLen
		semActions[p.num] = p.action
	}

	syntactic := &spec.SyntacticSpec{
		StateCount:              tab.stateCount,
		InitialState:            tab.InitialState.Int(),
		StartProduction:         productionNumStart.Int(),
		LHSSymbols:              lhsSyms,
		AlternativeSymbolCounts: altSymCounts,
		SemanticActions:         semActions,
		DefaultReductions:       defaultReductions,
		Terminals:               terms,
		TerminalCount:           tab.terminalCount,
		NonTerminals:            nonTerms,
		NonTerminalCount:        tab.nonTerminalCount,
		EOFSymbol:               symbol.SymbolEOF.Num().Int(),
	}
	if config.isCompressionEnabled {
		syntactic.CompressedAction, err = compressor.Compress(action, tab.terminalCount, int(actionEntryEmpty))
		if err != nil {
			return nil, nil, err
		}
		syntactic.CompressedGoTo, err = compressor.Compress(goTo, tab.nonTerminalCount, int(goToEntryEmpty))
		if err != nil {
			return nil, nil, err
		}
		tracer().Debugf("compressed tables: action %v -> %v entries, goto %v -> %v entries",
			len(action), len(syntactic.CompressedAction.UniqueEntries.Entries),
			len(goTo), len(syntactic.CompressedGoTo.UniqueEntries.Entries))
	} else {
		syntactic.Action = action
		syntactic.GoTo = goTo
	}

	return &spec.CompiledGrammar{
		Name:        gram.name,
		Fingerprint: fingerprint,
		Syntactic:   syntactic,
	}, report, nil
}
