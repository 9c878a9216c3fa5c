package grammar

import (
	"github.com/nihei9/lalrgen/grammar/symbol"
)

type ConflictResolutionMethod int

func (m ConflictResolutionMethod) Int() int {
	return int(m)
}

func (m ConflictResolutionMethod) String() string {
	switch m {
	case ResolvedByPrec:
		return "precedence"
	case ResolvedByAssoc:
		return "associativity"
	case ResolvedByShift:
		return "shift"
	case ResolvedByProdOrder:
		return "production order"
	}
	return ""
}

const (
	ResolvedByPrec      ConflictResolutionMethod = 1
	ResolvedByAssoc     ConflictResolutionMethod = 2
	ResolvedByShift     ConflictResolutionMethod = 3
	ResolvedByProdOrder ConflictResolutionMethod = 4
)

type conflict interface {
	conflict()
}

type shiftReduceConflict struct {
	state      stateNum
	sym        symbol.Symbol
	nextState  stateNum
	prodNum    productionNum
	resolvedBy ConflictResolutionMethod
	adopted    actionEntry
}

func (c *shiftReduceConflict) conflict() {
}

type reduceReduceConflict struct {
	state      stateNum
	sym        symbol.Symbol
	prodNum1   productionNum
	prodNum2   productionNum
	resolvedBy ConflictResolutionMethod
}

func (c *reduceReduceConflict) conflict() {
}

var (
	_ conflict = &shiftReduceConflict{}
	_ conflict = &reduceReduceConflict{}
)

// resolveSRConflict decides between shifting sym and reducing prod.
//
// When either side has no precedence, the shift wins. Otherwise the higher precedence wins,
// and on a tie the associativity of sym decides: left reduces, right shifts, and nonassoc
// makes the input an error.
func resolveSRConflict(pa *precAndAssoc, sym symbol.SymbolNum, prod productionNum) (ActionType, ConflictResolutionMethod) {
	symPrec := pa.terminalPrecedence(sym)
	prodPrec := pa.productionPredence(prod)
	if symPrec == precNil || prodPrec == precNil {
		return ActionTypeShift, ResolvedByShift
	}
	if symPrec == prodPrec {
		switch pa.terminalAssociativity(sym) {
		case assocTypeLeft:
			return ActionTypeReduce, ResolvedByAssoc
		case assocTypeNonAssoc:
			return ActionTypeError, ResolvedByAssoc
		default:
			return ActionTypeShift, ResolvedByAssoc
		}
	}
	if symPrec < prodPrec {
		return ActionTypeReduce, ResolvedByPrec
	}
	return ActionTypeShift, ResolvedByPrec
}
