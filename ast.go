package pvm

import "strings"

// ByteRange is an inclusive [Lo, Hi] byte range used by CharClassNode.
type ByteRange struct{ Lo, Hi byte }

// Pattern is the closed sum of expression kinds a grammar rule body
// can be built from. Concrete node types are tagged variants
// dispatched through Accept, favoring that over an open interface
// hierarchy since the algebra never grows new members at runtime.
type Pattern interface {
	Accept(PatternVisitor) error
	String() string
}

// PatternVisitor is implemented by each pass that walks a Pattern
// tree: left-recursion analysis and compilation.
type PatternVisitor interface {
	VisitCharClassNode(*CharClassNode) error
	VisitCharSequenceNode(*CharSequenceNode) error
	VisitAnyNode(*AnyNode) error
	VisitRuleRefNode(*RuleRefNode) error
	VisitChoiceNode(*ChoiceNode) error
	VisitZeroOrMoreNode(*ZeroOrMoreNode) error
	VisitOneOrMoreNode(*OneOrMoreNode) error
	VisitSequenceNode(*SequenceNode) error
	VisitOptionalNode(*OptionalNode) error
	VisitLookaheadNode(*LookaheadNode) error
}

type CharClassNode struct{ Ranges []ByteRange }

func NewCharClassNode(ranges []ByteRange) *CharClassNode { return &CharClassNode{Ranges: ranges} }

func (n *CharClassNode) Accept(v PatternVisitor) error { return v.VisitCharClassNode(n) }

func (n *CharClassNode) String() string {
	var s strings.Builder
	s.WriteByte('[')
	for _, r := range n.Ranges {
		if r.Lo == r.Hi {
			s.WriteByte(r.Lo)
		} else {
			s.WriteByte(r.Lo)
			s.WriteByte('-')
			s.WriteByte(r.Hi)
		}
	}
	s.WriteByte(']')
	return s.String()
}

type CharSequenceNode struct{ Bytes []byte }

func NewCharSequenceNode(bs []byte) *CharSequenceNode { return &CharSequenceNode{Bytes: bs} }

func (n *CharSequenceNode) Accept(v PatternVisitor) error { return v.VisitCharSequenceNode(n) }

func (n *CharSequenceNode) String() string { return "'" + string(n.Bytes) + "'" }

type AnyNode struct{}

func NewAnyNode() *AnyNode { return &AnyNode{} }

func (n *AnyNode) Accept(v PatternVisitor) error { return v.VisitAnyNode(n) }

func (n *AnyNode) String() string { return "." }

// RuleRefNode is a reference to another rule, with an optional
// precedence annotation (-1 means "no precedence context") and the
// left-recursion flag set by analysis before compilation.
type RuleRefNode struct {
	Name            string
	RuleID          int
	Precedence      int
	CallID          int
	IsLeftRecursive bool
}

func NewRuleRefNode(name string, precedence int) *RuleRefNode {
	return &RuleRefNode{Name: name, RuleID: -1, Precedence: precedence, CallID: -1}
}

func (n *RuleRefNode) Accept(v PatternVisitor) error { return v.VisitRuleRefNode(n) }

func (n *RuleRefNode) String() string {
	if n.Precedence == -1 {
		return n.Name
	}
	return n.Name + ":" + itoa(n.Precedence)
}

type ChoiceNode struct{ Left, Right Pattern }

func NewChoiceNode(left, right Pattern) *ChoiceNode { return &ChoiceNode{Left: left, Right: right} }

func (n *ChoiceNode) Accept(v PatternVisitor) error { return v.VisitChoiceNode(n) }

func (n *ChoiceNode) String() string { return n.Left.String() + " / " + n.Right.String() }

type ZeroOrMoreNode struct{ Expr Pattern }

func NewZeroOrMoreNode(e Pattern) *ZeroOrMoreNode { return &ZeroOrMoreNode{Expr: e} }

func (n *ZeroOrMoreNode) Accept(v PatternVisitor) error { return v.VisitZeroOrMoreNode(n) }

func (n *ZeroOrMoreNode) String() string { return n.Expr.String() + "*" }

type OneOrMoreNode struct{ Expr Pattern }

func NewOneOrMoreNode(e Pattern) *OneOrMoreNode { return &OneOrMoreNode{Expr: e} }

func (n *OneOrMoreNode) Accept(v PatternVisitor) error { return v.VisitOneOrMoreNode(n) }

func (n *OneOrMoreNode) String() string { return n.Expr.String() + "+" }

type SequenceNode struct{ Items []Pattern }

func NewSequenceNode(items []Pattern) *SequenceNode { return &SequenceNode{Items: items} }

func (n *SequenceNode) Accept(v PatternVisitor) error { return v.VisitSequenceNode(n) }

func (n *SequenceNode) String() string {
	parts := make([]string, len(n.Items))
	for i, it := range n.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, " ")
}

type OptionalNode struct{ Expr Pattern }

func NewOptionalNode(e Pattern) *OptionalNode { return &OptionalNode{Expr: e} }

func (n *OptionalNode) Accept(v PatternVisitor) error { return v.VisitOptionalNode(n) }

func (n *OptionalNode) String() string { return n.Expr.String() + "?" }

type LookaheadNode struct {
	Positive bool
	Expr     Pattern
}

func NewLookaheadNode(positive bool, e Pattern) *LookaheadNode {
	return &LookaheadNode{Positive: positive, Expr: e}
}

func (n *LookaheadNode) Accept(v PatternVisitor) error { return v.VisitLookaheadNode(n) }

func (n *LookaheadNode) String() string {
	if n.Positive {
		return "&" + n.Expr.String()
	}
	return "!" + n.Expr.String()
}

// Grammar is an ordered sequence of rule Patterns plus the index of
// the entry rule. Rule indices are dense integers starting at 0, with
// `main` required to be rule 0.
type Grammar struct {
	Rules     []Pattern
	RuleNames []string
	Main      int
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Inspect traverses a Pattern tree in depth-first order, calling f on
// every node. It exists for callers that need a single-type-switch
// traversal instead of implementing the full PatternVisitor.
func Inspect(p Pattern, f func(Pattern) bool) {
	if p == nil || !f(p) {
		return
	}
	switch n := p.(type) {
	case *ChoiceNode:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *ZeroOrMoreNode:
		Inspect(n.Expr, f)
	case *OneOrMoreNode:
		Inspect(n.Expr, f)
	case *SequenceNode:
		for _, item := range n.Items {
			Inspect(item, f)
		}
	case *OptionalNode:
		Inspect(n.Expr, f)
	case *LookaheadNode:
		Inspect(n.Expr, f)
	case *CharClassNode, *CharSequenceNode, *AnyNode, *RuleRefNode:
		// leaves
	}
}
