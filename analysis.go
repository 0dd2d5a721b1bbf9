package pvm

// AnalyzeLeftRecursion walks a Grammar's patterns starting from the
// entry rule, following RuleRef edges, and sets IsLeftRecursive on
// every RuleRefNode that participates in a cycle where no input is
// guaranteed to be consumed before the recursive return.
//
// This is the AST-traversal formulation: a DFS over rule-call edges
// carrying a stack of (rule, consumed-input-before-this-point) frames.
// When a RuleRef targets a rule already on the stack, a cycle closes;
// if every frame in the cycle's slice has consumed = false, every
// call edge inside that slice is left-recursive: the closing RuleRef
// and the call into each frame after the first (the first frame's
// entry call comes from outside the cycle and is left unmarked).
func AnalyzeLeftRecursion(g *Grammar) {
	a := &lrAnalyzer{g: g, visited: map[int]bool{}, consumesOf: computeConsumesFixpoint(g)}
	a.visitRuleRef(&RuleRefNode{Name: g.RuleNames[g.Main], RuleID: g.Main})
}

type lrFrame struct {
	ruleID   int
	entryRef *RuleRefNode // call site that led into this rule; a synthetic node, not part of the grammar, for the entry into main
	consumed bool
}

type lrAnalyzer struct {
	g          *Grammar
	stack      []*lrFrame
	visited    map[int]bool
	consumesOf []bool
}

func (a *lrAnalyzer) visitRuleRef(ref *RuleRefNode) {
	r := ref.RuleID
	for idx := len(a.stack) - 1; idx >= 0; idx-- {
		if a.stack[idx].ruleID != r {
			continue
		}
		cycle := a.stack[idx:]
		allUnconsumed := true
		for _, f := range cycle {
			if f.consumed {
				allUnconsumed = false
				break
			}
		}
		if allUnconsumed {
			for _, f := range cycle[1:] {
				if f.entryRef != nil {
					f.entryRef.IsLeftRecursive = true
				}
			}
			ref.IsLeftRecursive = true
		}
		return
	}

	if a.visited[r] {
		return
	}
	a.visited[r] = true

	nf := &lrFrame{ruleID: r, entryRef: ref}
	a.stack = append(a.stack, nf)
	a.walk(a.g.Rules[r], nf)
	a.stack = a.stack[:len(a.stack)-1]
}

// walk analyzes p in the context of the rule owned by topFrame,
// updating topFrame.consumed as input-consuming constructs are
// passed, and returns whether p itself is guaranteed to consume.
func (a *lrAnalyzer) walk(p Pattern, topFrame *lrFrame) bool {
	switch n := p.(type) {
	case *CharClassNode:
		c := len(n.Ranges) > 0
		if c {
			topFrame.consumed = true
		}
		return c

	case *CharSequenceNode:
		c := len(n.Bytes) > 0
		if c {
			topFrame.consumed = true
		}
		return c

	case *AnyNode:
		topFrame.consumed = true
		return true

	case *RuleRefNode:
		a.visitRuleRef(n)
		c := a.consumesOf[n.RuleID]
		if c {
			topFrame.consumed = true
		}
		return c

	case *SequenceNode:
		acc := false
		for _, item := range n.Items {
			if a.walk(item, topFrame) {
				acc = true
			}
		}
		return acc

	case *ChoiceNode:
		base := topFrame.consumed
		cL := a.walk(n.Left, topFrame)
		topFrame.consumed = base
		cR := a.walk(n.Right, topFrame)
		topFrame.consumed = base || (cL && cR)
		return cL && cR

	case *OneOrMoreNode:
		c := a.walk(n.Expr, topFrame)
		if c {
			topFrame.consumed = true
		}
		return c

	case *ZeroOrMoreNode:
		base := topFrame.consumed
		a.walk(n.Expr, topFrame)
		topFrame.consumed = base
		return false

	case *OptionalNode:
		base := topFrame.consumed
		a.walk(n.Expr, topFrame)
		topFrame.consumed = base
		return false

	case *LookaheadNode:
		base := topFrame.consumed
		a.walk(n.Expr, topFrame)
		topFrame.consumed = base
		return false
	}
	return false
}

// computeConsumesFixpoint computes, per rule, whether matching that
// rule always consumes at least one byte of input. This is a
// monotone least-fixpoint over the grammar's call graph (standard
// nullability-style dataflow), used so that a RuleRef appearing
// earlier in a sequence correctly contributes to the "consumed before
// this point" flag used by AnalyzeLeftRecursion -- spec's own
// enumeration of consuming constructs only covers leaf patterns, but
// a call to a rule that itself always consumes must count too, or
// grammars with indirect consumption (e.g. a rule invoking a
// token-like subrule before recursing) would be misclassified.
func computeConsumesFixpoint(g *Grammar) []bool {
	n := len(g.Rules)
	consumes := make([]bool, n)
	for changed := true; changed; {
		changed = false
		for i, r := range g.Rules {
			c := patternAlwaysConsumes(r, consumes)
			if c != consumes[i] {
				consumes[i] = c
				changed = true
			}
		}
	}
	return consumes
}

func patternAlwaysConsumes(p Pattern, consumesOf []bool) bool {
	switch n := p.(type) {
	case *CharClassNode:
		return len(n.Ranges) > 0
	case *CharSequenceNode:
		return len(n.Bytes) > 0
	case *AnyNode:
		return true
	case *RuleRefNode:
		return consumesOf[n.RuleID]
	case *ChoiceNode:
		return patternAlwaysConsumes(n.Left, consumesOf) && patternAlwaysConsumes(n.Right, consumesOf)
	case *SequenceNode:
		for _, item := range n.Items {
			if patternAlwaysConsumes(item, consumesOf) {
				return true
			}
		}
		return false
	case *OneOrMoreNode:
		return patternAlwaysConsumes(n.Expr, consumesOf)
	case *ZeroOrMoreNode, *OptionalNode, *LookaheadNode:
		return false
	}
	return false
}
