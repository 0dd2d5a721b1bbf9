package pvm

import "fmt"

// GrammarSyntaxError is returned when the surface grammar text fails
// to parse. Pos is the byte offset at which parsing could not
// continue.
type GrammarSyntaxError struct {
	Message string
	Pos     int
	Loc     Location
}

func (e GrammarSyntaxError) Error() string {
	return fmt.Sprintf("grammar syntax error @ %s: %s", e.Loc, e.Message)
}

// GrammarSemanticError is returned when a grammar parses but is
// ill-formed: rule ids aren't a contiguous 0..N range, or `main` is
// missing.
type GrammarSemanticError struct {
	Message string
}

func (e GrammarSemanticError) Error() string {
	return fmt.Sprintf("grammar semantic error: %s", e.Message)
}

// MarkerError is returned when the caller's rule-name-to-marker
// function rejects a rule name encountered at a SavePos instruction.
type MarkerError struct {
	RuleName string
}

func (e MarkerError) Error() string {
	return fmt.Sprintf("marker error: rule %q has no corresponding marker", e.RuleName)
}

// MatchFailure is the normal "no parse" signal: the VM halted with
// fail set, or halted having consumed less than the entire input.
// FurthestPos is the maximum cursor position ever reached during the
// match.
type MatchFailure struct {
	FurthestPos int
}

func (e MatchFailure) Error() string {
	return fmt.Sprintf("match failed, furthest position reached: %d", e.FurthestPos)
}

// BudgetExceededError is returned when a Machine configured with a
// positive instruction-count budget runs past it. It is the concrete
// realization of the cancellation hook the core leaves to the host.
type BudgetExceededError struct {
	Budget int
}

func (e BudgetExceededError) Error() string {
	return fmt.Sprintf("instruction budget of %d exceeded", e.Budget)
}

// parseError is an internal error type produced by the grammar
// front-end's combinators. It is caught and discarded when a Choice
// backtracks, mirroring the grammar loader's own backtrackingError.
type parseError struct {
	Expected string
	Message  string
	Range    Range
}

func (e *parseError) Error() string {
	return fmt.Sprintf("%s @ %s", e.Message, e.Range)
}
