package grammar

import "errors"

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoProduction         = newSemanticError("a grammar needs at least one production")
	semErrNoStartProduction    = newSemanticError("the start symbol has no production")
	semErrUndefinedSym         = newSemanticError("undefined symbol")
	semErrDuplicateProduction  = newSemanticError("duplicate production")
	semErrDuplicateTerminal    = newSemanticError("duplicate terminal")
	semErrDuplicatePrecedence  = newSemanticError("precedence of a terminal is declared more than once")
	semErrTermCannotBeLHS      = newSemanticError("a terminal cannot appear on the left-hand side of a production")
	semErrReservedName         = newSemanticError("reserved symbol name")
	semErrUndefinedPrecSym     = newSemanticError("undefined precedence symbol")
	semErrInvalidAssociativity = newSemanticError("invalid associativity")
	semErrEmptyName            = newSemanticError("a symbol name must not be empty")
	semErrTooManyProductions   = newSemanticError("too many productions")
)

var (
	// ErrTooLarge is returned when the automaton exceeds the configured state or item cap.
	ErrTooLarge = errors.New("grammar too large or malformed")

	// ErrUnreachableState reports a state that cannot be reached from the initial state.
	// It means the automaton builder is broken, never that the grammar is.
	ErrUnreachableState = errors.New("internal invariant violation: unreachable state")
)
