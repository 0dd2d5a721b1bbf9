package pvm

import (
	"fmt"
	"strings"
)

// Backtrackable is the minimal cursor contract the generic combinators
// below need: peek/consume a byte, save/restore a cursor position,
// and the predicate-depth bookkeeping Not/And use to tell the grammar
// parser's Throw-equivalent apart from an ordinary backtrack.
type Backtrackable interface {
	Peek() byte
	Any() (byte, error)
	Backtrack(cursor int)
	Cursor() int
	NewError(expected, msg string, rg Range) error
	WithinPredicate() bool
	EnterPredicate()
	LeavePredicate()
}

// ParserFn is the signature every combinator below is built from. It
// can't be a method because Go generics don't support generic
// methods, so production code composes these as closures instead.
type ParserFn[T any] func(p Backtrackable) (T, error)

// ZeroOrMore calls fn until it errors, collecting every successful
// result and backtracking past the final, failed attempt.
func ZeroOrMore[T any](p Backtrackable, fn ParserFn[T]) ([]T, error) {
	var output []T
	for {
		state := p.Cursor()
		item, err := fn(p)
		if err != nil {
			p.Backtrack(state)
			break
		}
		output = append(output, item)
	}
	return output, nil
}

// OneOrMore matches fn once and then behaves like ZeroOrMore.
func OneOrMore[T any](p Backtrackable, fn ParserFn[T]) ([]T, error) {
	head, err := fn(p)
	if err != nil {
		return nil, err
	}
	tail, err := ZeroOrMore(p, fn)
	if err != nil {
		return nil, err
	}
	return append([]T{head}, tail...), nil
}

// ChoiceByte picks the first matching byte out of a set.
func ChoiceByte(p Backtrackable, bytes map[byte]struct{}) (byte, error) {
	start := p.Cursor()
	c := p.Peek()
	if _, ok := bytes[c]; ok {
		return p.Any()
	}
	expected := make([]string, 0, len(bytes))
	for k := range bytes {
		expected = append(expected, string(k))
	}
	exp := strings.Join(expected, ", ")
	msg := fmt.Sprintf("expected %s but got %q", exp, c)
	return 0, p.NewError(exp, msg, NewRange(start, p.Cursor()))
}

// Choice tries each fn in order, backtracking the cursor between
// attempts, and fails with the union of what each alternative
// expected if none of them match.
func Choice[T any](p Backtrackable, fns []ParserFn[T]) (T, error) {
	var (
		zero        T
		expected    []string
		expectedMap = map[string]struct{}{}
		start       = p.Cursor()
	)
	for _, fn := range fns {
		item, err := fn(p)
		if err == nil {
			return item, nil
		}
		p.Backtrack(start)
		if pe, ok := err.(*parseError); ok {
			if _, seen := expectedMap[pe.Expected]; !seen {
				expectedMap[pe.Expected] = struct{}{}
				expected = append(expected, pe.Expected)
			}
		}
	}
	exp := strings.Join(expected, ", ")
	msg := "expected " + exp + " but got " + fmt.Sprintf("%q", p.Peek())
	return zero, p.NewError(exp, msg, NewRange(start, p.Cursor()))
}

// Optional is sugar for an ordered choice whose second branch always
// succeeds with the zero value.
func Optional[T any](p Backtrackable, fn ParserFn[T]) (T, error) {
	return Choice(p, []ParserFn[T]{
		fn,
		func(p Backtrackable) (T, error) {
			var zero T
			return zero, nil
		},
	})
}

// And succeeds without consuming input if fn would succeed, and fails
// otherwise -- positive lookahead.
func And[T any](p Backtrackable, fn ParserFn[T]) (T, error) {
	var zero T
	p.EnterPredicate()
	start := p.Cursor()
	_, err := fn(p)
	p.Backtrack(start)
	p.LeavePredicate()
	if err != nil {
		return zero, p.NewError("&", "positive lookahead failed", NewRange(start, p.Cursor()))
	}
	return zero, nil
}

// Not succeeds without consuming input if fn would fail, and fails
// otherwise -- negative lookahead.
func Not[T any](p Backtrackable, fn ParserFn[T]) (T, error) {
	var zero T
	p.EnterPredicate()
	start := p.Cursor()
	_, err := fn(p)
	p.Backtrack(start)
	p.LeavePredicate()
	if err == nil {
		return zero, p.NewError("!", "negative lookahead failed", NewRange(start, p.Cursor()))
	}
	return zero, nil
}
