package pvm

// Compile translates a Grammar's patterns into a flat Program. Each
// rule compiles to PushPos, its body, SavePos, Return -- bracketing
// the rule's own span around whatever its body matches -- and the
// whole program is prefixed with a two-instruction prologue that
// calls the entry rule and stops.
//
// Call and PrecedenceCall offsets are left as rule-id-tagged
// placeholders by the per-pattern visitor and backpatched in a
// second pass once every rule's entry pc is known, since a rule may
// reference another defined later in the grammar (or itself).
func Compile(g *Grammar) (*Program, error) {
	code := make([]Instruction, 2)
	code[1] = StopInst{}

	entryPC := make([]int, len(g.Rules))
	for i, r := range g.Rules {
		entryPC[i] = len(code)
		code = append(code, PushPosInst{RuleID: i})
		cv := &compilerVisitor{}
		if err := r.Accept(cv); err != nil {
			return nil, err
		}
		code = append(code, cv.code...)
		code = append(code, SavePosInst{}, ReturnInst{})
	}

	code[0] = CallInst{Offset: entryPC[g.Main], RuleID: g.Main}

	for pc := 2; pc < len(code); pc++ {
		switch ci := code[pc].(type) {
		case CallInst:
			code[pc] = CallInst{Offset: entryPC[ci.RuleID] - pc, RuleID: ci.RuleID}
		case PrecedenceCallInst:
			ci.Offset = entryPC[ci.RuleID] - pc
			code[pc] = ci
		}
	}

	jumpTable := buildJumpTable(code)

	return &Program{Code: code, RuleNames: g.RuleNames, JumpTable: jumpTable}, nil
}

// buildJumpTable computes, for every pc, the address of the next
// Return instruction at or after pc, scanning right to left.
func buildJumpTable(code []Instruction) []int {
	jt := make([]int, len(code)+1)
	last := len(code)
	for pc := len(code) - 1; pc >= 0; pc-- {
		if _, ok := code[pc].(ReturnInst); ok {
			last = pc
		}
		jt[pc] = last
	}
	jt[len(code)] = len(code)
	return jt
}

// compilerVisitor accumulates instructions for a single Pattern tree.
// Offsets for Choice/Jump/Commit-family instructions are resolved
// immediately, relative to the emitting instruction's own index
// within this buffer -- a property preserved when the buffer is later
// spliced into the full program at a nonzero base address, since
// every offset is a difference of two positions shifted equally.
// Call/PrecedenceCall are emitted with a zero placeholder offset and
// backpatched by Compile once every rule's entry pc is known.
type compilerVisitor struct {
	code []Instruction
}

func (c *compilerVisitor) emit(i Instruction) int {
	c.code = append(c.code, i)
	return len(c.code) - 1
}

func (c *compilerVisitor) VisitCharSequenceNode(n *CharSequenceNode) error {
	for _, b := range n.Bytes {
		c.emit(CharInst{Byte: b})
	}
	return nil
}

func (c *compilerVisitor) VisitAnyNode(n *AnyNode) error {
	c.emit(AnyInst{})
	return nil
}

// VisitCharClassNode compiles a class to a chain of CharRangeLink
// tests, each falling through to the next range on mismatch and
// jumping past the whole chain on match; the last range is a plain
// CharRange, whose own mismatch ends the chain in failure.
func (c *compilerVisitor) VisitCharClassNode(n *CharClassNode) error {
	var links []int
	last := len(n.Ranges) - 1
	for i, r := range n.Ranges {
		if i == last {
			c.emit(CharRangeInst{Lo: r.Lo, Hi: r.Hi})
		} else {
			links = append(links, c.emit(CharRangeLinkInst{Lo: r.Lo, Hi: r.Hi}))
		}
	}
	end := len(c.code)
	for _, idx := range links {
		li := c.code[idx].(CharRangeLinkInst)
		li.Offset = end - idx
		c.code[idx] = li
	}
	return nil
}

func (c *compilerVisitor) VisitRuleRefNode(n *RuleRefNode) error {
	if n.IsLeftRecursive || n.Precedence >= 0 {
		prec := n.Precedence
		if prec < 0 {
			prec = 0
		}
		c.emit(PrecedenceCallInst{RuleID: n.RuleID, Precedence: prec, IsLeftRecursive: n.IsLeftRecursive})
		return nil
	}
	c.emit(CallInst{RuleID: n.RuleID})
	return nil
}

// VisitChoiceNode: Choice L1 <left> Commit L2 L1: <right> L2:
func (c *compilerVisitor) VisitChoiceNode(n *ChoiceNode) error {
	choiceIdx := c.emit(ChoiceInst{})
	if err := n.Left.Accept(c); err != nil {
		return err
	}
	commitIdx := c.emit(CommitInst{})
	l1 := len(c.code)
	c.code[choiceIdx] = ChoiceInst{Offset: l1 - choiceIdx}
	if err := n.Right.Accept(c); err != nil {
		return err
	}
	l2 := len(c.code)
	c.code[commitIdx] = CommitInst{Offset: l2 - commitIdx}
	return nil
}

// VisitZeroOrMoreNode: Choice L2 L1: <p> PartialCommit L1 L2:
func (c *compilerVisitor) VisitZeroOrMoreNode(n *ZeroOrMoreNode) error {
	choiceIdx := c.emit(ChoiceInst{})
	l1 := len(c.code)
	if err := n.Expr.Accept(c); err != nil {
		return err
	}
	pcIdx := c.emit(PartialCommitInst{})
	c.code[pcIdx] = PartialCommitInst{Offset: l1 - pcIdx}
	l2 := len(c.code)
	c.code[choiceIdx] = ChoiceInst{Offset: l2 - choiceIdx}
	return nil
}

// VisitOneOrMoreNode: <p> Choice L2 L1: <p> PartialCommit L1 L2:
func (c *compilerVisitor) VisitOneOrMoreNode(n *OneOrMoreNode) error {
	if err := n.Expr.Accept(c); err != nil {
		return err
	}
	choiceIdx := c.emit(ChoiceInst{})
	l1 := len(c.code)
	if err := n.Expr.Accept(c); err != nil {
		return err
	}
	pcIdx := c.emit(PartialCommitInst{})
	c.code[pcIdx] = PartialCommitInst{Offset: l1 - pcIdx}
	l2 := len(c.code)
	c.code[choiceIdx] = ChoiceInst{Offset: l2 - choiceIdx}
	return nil
}

func (c *compilerVisitor) VisitSequenceNode(n *SequenceNode) error {
	for _, item := range n.Items {
		if err := item.Accept(c); err != nil {
			return err
		}
	}
	return nil
}

// VisitOptionalNode: Choice L1 <p> Commit L1 L1:
func (c *compilerVisitor) VisitOptionalNode(n *OptionalNode) error {
	choiceIdx := c.emit(ChoiceInst{})
	if err := n.Expr.Accept(c); err != nil {
		return err
	}
	commitIdx := c.emit(CommitInst{})
	l1 := len(c.code)
	c.code[choiceIdx] = ChoiceInst{Offset: l1 - choiceIdx}
	c.code[commitIdx] = CommitInst{Offset: l1 - commitIdx}
	return nil
}

// VisitLookaheadNode:
//
//	&p: Choice L1 <p> BackCommit L2 L1: Fail L2:
//	!p: Choice L1 <p> FailTwice       L1:
func (c *compilerVisitor) VisitLookaheadNode(n *LookaheadNode) error {
	choiceIdx := c.emit(ChoiceInst{})
	if err := n.Expr.Accept(c); err != nil {
		return err
	}
	if n.Positive {
		bcIdx := c.emit(BackCommitInst{})
		l1 := len(c.code)
		c.code[choiceIdx] = ChoiceInst{Offset: l1 - choiceIdx}
		c.emit(FailInst{})
		l2 := len(c.code)
		c.code[bcIdx] = BackCommitInst{Offset: l2 - bcIdx}
		return nil
	}
	c.emit(FailTwiceInst{})
	l1 := len(c.code)
	c.code[choiceIdx] = ChoiceInst{Offset: l1 - choiceIdx}
	return nil
}
