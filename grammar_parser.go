package pvm

import "fmt"

// GrammarParser recursive-descends over grammar source text and
// builds a Grammar AST, using the ZeroOrMore/OneOrMore combinators
// from the front-end's combinator toolkit, specialized to a
// byte-oriented Backtrackable instead of the generic rune-oriented
// one the combinators were first written against.
//
// Surface syntax:
//
//	grammar    <- rule+
//	rule       <- identifier '{' expression '}'
//	expression <- sequence ('/' sequence)*
//	sequence   <- prefix*
//	prefix     <- ('&' / '!')? suffix
//	suffix     <- primary ('*' / '+' / '?')?
//	primary    <- '(' expression ')' / literal / class / '.' / ref
//	ref        <- identifier (':' number)?
//	literal    <- '\'' (escape / !'\'' .)* '\''
//	class      <- '[' (range / escape)* ']'
//	range      <- byte '-' byte / byte
type GrammarParser struct {
	input      []byte
	cursor     int
	lines      *LineIndex
	predStkCnt int
}

func NewGrammarParser(input []byte) *GrammarParser {
	return &GrammarParser{input: input, lines: NewLineIndex(input)}
}

func (p *GrammarParser) Cursor() int         { return p.cursor }
func (p *GrammarParser) Backtrack(cursor int) { p.cursor = cursor }
func (p *GrammarParser) WithinPredicate() bool { return p.predStkCnt > 0 }
func (p *GrammarParser) EnterPredicate()       { p.predStkCnt++ }
func (p *GrammarParser) LeavePredicate()       { p.predStkCnt-- }

func (p *GrammarParser) Peek() byte {
	if p.cursor >= len(p.input) {
		return 0
	}
	return p.input[p.cursor]
}

func (p *GrammarParser) Any() (byte, error) {
	if p.cursor >= len(p.input) {
		return 0, p.NewError(".", "unexpected end of input", NewRange(p.cursor, p.cursor))
	}
	c := p.input[p.cursor]
	p.cursor++
	return c, nil
}

func (p *GrammarParser) NewError(expected, msg string, rg Range) error {
	return &parseError{Expected: expected, Message: msg, Range: rg}
}

func (p *GrammarParser) errorAt(msg string) error {
	loc := p.lines.LocationAt(p.cursor)
	return GrammarSyntaxError{Message: msg, Pos: p.cursor, Loc: loc}
}

var spaceBytes = map[byte]struct{}{' ': {}, '\t': {}, '\r': {}, '\n': {}}

func (p *GrammarParser) skipSpacing() {
	for {
		c := p.Peek()
		if _, ok := spaceBytes[c]; ok {
			p.cursor++
			continue
		}
		if c == '#' {
			for p.Peek() != '\n' && p.Peek() != 0 {
				p.cursor++
			}
			continue
		}
		break
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *GrammarParser) parseIdentifier() (string, error) {
	start := p.cursor
	if !isIdentStart(p.Peek()) {
		return "", p.NewError("identifier", "expected an identifier", NewRange(start, p.cursor))
	}
	p.cursor++
	for isIdentCont(p.Peek()) {
		p.cursor++
	}
	name := string(p.input[start:p.cursor])
	p.skipSpacing()
	return name, nil
}

func (p *GrammarParser) parseNumber() (int, error) {
	start := p.cursor
	if p.Peek() < '0' || p.Peek() > '9' {
		return 0, p.NewError("number", "expected a number", NewRange(start, p.cursor))
	}
	n := 0
	for p.Peek() >= '0' && p.Peek() <= '9' {
		n = n*10 + int(p.Peek()-'0')
		p.cursor++
	}
	p.skipSpacing()
	return n, nil
}

func (p *GrammarParser) expectByte(b byte) error {
	if p.Peek() != b {
		return p.NewError(string(b), fmt.Sprintf("expected %q but got %q", b, p.Peek()), NewRange(p.cursor, p.cursor))
	}
	p.cursor++
	p.skipSpacing()
	return nil
}

// grammarRule is a rule as parsed, before its name has been resolved
// to a dense id.
type grammarRule struct {
	name string
	body Pattern
}

func (p *GrammarParser) parseRule() (grammarRule, error) {
	name, err := p.parseIdentifier()
	if err != nil {
		return grammarRule{}, err
	}
	if err := p.expectByte('{'); err != nil {
		return grammarRule{}, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return grammarRule{}, err
	}
	if err := p.expectByte('}'); err != nil {
		return grammarRule{}, err
	}
	return grammarRule{name: name, body: body}, nil
}

// ParseGrammar parses source into a Grammar: identifiers already
// resolved to dense rule ids, the `main` rule required and given id
// 0 (the other rules follow in definition order), and a unique
// CallID stamped onto every RuleRefNode. The rule list itself is
// collected with the same ZeroOrMore combinator every repetition
// construct in the surface syntax compiles to.
func ParseGrammar(source []byte) (*Grammar, error) {
	p := NewGrammarParser(source)
	p.skipSpacing()

	rules, err := ZeroOrMore(p, func(pb Backtrackable) (grammarRule, error) {
		return pb.(*GrammarParser).parseRule()
	})
	if err != nil {
		return nil, p.errorAt(err.Error())
	}
	if p.Peek() != 0 {
		return nil, p.errorAt("unexpected trailing input")
	}

	for idx, r := range rules {
		if r.name == "main" {
			if idx > 0 {
				reordered := append([]grammarRule{r}, rules[:idx]...)
				rules = append(reordered, rules[idx+1:]...)
			}
			break
		}
	}

	names := map[string]int{}
	for _, r := range rules {
		if _, dup := names[r.name]; dup {
			return nil, GrammarSemanticError{Message: "duplicate rule `" + r.name + "`"}
		}
		names[r.name] = len(names)
	}

	mainID, ok := names["main"]
	if !ok {
		return nil, GrammarSemanticError{Message: "grammar has no `main` rule"}
	}

	g := &Grammar{Rules: make([]Pattern, len(rules)), RuleNames: make([]string, len(rules)), Main: mainID}
	for i, r := range rules {
		g.Rules[i] = r.body
		g.RuleNames[i] = r.name
	}

	callID := 0
	var resolveErr error
	for _, body := range g.Rules {
		Inspect(body, func(n Pattern) bool {
			ref, isRef := n.(*RuleRefNode)
			if !isRef {
				return true
			}
			id, known := names[ref.Name]
			if !known {
				resolveErr = GrammarSemanticError{Message: "undefined rule `" + ref.Name + "`"}
				return false
			}
			ref.RuleID = id
			ref.CallID = callID
			callID++
			return true
		})
		if resolveErr != nil {
			return nil, resolveErr
		}
	}

	return g, nil
}

func (p *GrammarParser) parseExpression() (Pattern, error) {
	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	for p.Peek() == '/' {
		p.cursor++
		p.skipSpacing()
		next, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		first = NewChoiceNode(first, next)
	}
	return first, nil
}

// parseSequence collects prefixes with OneOrMore: parsePrefix fails
// on the sequence's own terminators ('/', ')', '}', eof), which is
// exactly the condition OneOrMore/ZeroOrMore stop on.
func (p *GrammarParser) parseSequence() (Pattern, error) {
	items, err := OneOrMore(p, func(pb Backtrackable) (Pattern, error) {
		gp := pb.(*GrammarParser)
		switch c := gp.Peek(); c {
		case 0, '/', ')', '}':
			return nil, gp.NewError("expression", "expected an expression", NewRange(gp.cursor, gp.cursor))
		default:
			return gp.parsePrefix()
		}
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return NewSequenceNode(items), nil
}

func (p *GrammarParser) parsePrefix() (Pattern, error) {
	switch p.Peek() {
	case '&':
		p.cursor++
		p.skipSpacing()
		inner, err := p.parseSuffix()
		if err != nil {
			return nil, err
		}
		return NewLookaheadNode(true, inner), nil
	case '!':
		p.cursor++
		p.skipSpacing()
		inner, err := p.parseSuffix()
		if err != nil {
			return nil, err
		}
		return NewLookaheadNode(false, inner), nil
	}
	return p.parseSuffix()
}

func (p *GrammarParser) parseSuffix() (Pattern, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch p.Peek() {
	case '*':
		p.cursor++
		p.skipSpacing()
		return NewZeroOrMoreNode(prim), nil
	case '+':
		p.cursor++
		p.skipSpacing()
		return NewOneOrMoreNode(prim), nil
	case '?':
		p.cursor++
		p.skipSpacing()
		return NewOptionalNode(prim), nil
	}
	return prim, nil
}

func (p *GrammarParser) parsePrimary() (Pattern, error) {
	switch c := p.Peek(); {
	case c == '(':
		p.cursor++
		p.skipSpacing()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectByte(')'); err != nil {
			return nil, err
		}
		return inner, nil
	case c == '\'':
		return p.parseLiteral()
	case c == '[':
		return p.parseClass()
	case c == '.':
		p.cursor++
		p.skipSpacing()
		return NewAnyNode(), nil
	case isIdentStart(c):
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		precedence := -1
		if p.Peek() == ':' {
			p.cursor++
			p.skipSpacing()
			n, err := p.parseNumber()
			if err != nil {
				return nil, err
			}
			precedence = n
		}
		return NewRuleRefNode(name, precedence), nil
	}
	return nil, p.NewError("primary", fmt.Sprintf("unexpected %q", p.Peek()), NewRange(p.cursor, p.cursor))
}

func (p *GrammarParser) parseEscape() (byte, bool, error) {
	if p.Peek() != '\\' {
		return 0, false, nil
	}
	p.cursor++
	c, err := p.Any()
	if err != nil {
		return 0, false, err
	}
	switch c {
	case 't':
		return '\t', true, nil
	case 'r':
		return '\r', true, nil
	case 'n':
		return '\n', true, nil
	case '\\':
		return '\\', true, nil
	case '\'':
		return '\'', true, nil
	case ']':
		return ']', true, nil
	}
	return 0, false, p.NewError("escape", fmt.Sprintf("unknown escape `\\%c`", c), NewRange(p.cursor-2, p.cursor))
}

func (p *GrammarParser) parseLiteral() (Pattern, error) {
	if err := p.expectRaw('\''); err != nil {
		return nil, err
	}
	var bytes []byte
	for p.Peek() != '\'' {
		if p.Peek() == 0 {
			return nil, p.NewError("'", "unterminated literal", NewRange(p.cursor, p.cursor))
		}
		if b, ok, err := p.parseEscape(); err != nil {
			return nil, err
		} else if ok {
			bytes = append(bytes, b)
			continue
		}
		c, err := p.Any()
		if err != nil {
			return nil, err
		}
		bytes = append(bytes, c)
	}
	p.cursor++
	p.skipSpacing()
	return NewCharSequenceNode(bytes), nil
}

func (p *GrammarParser) parseClass() (Pattern, error) {
	if err := p.expectRaw('['); err != nil {
		return nil, err
	}
	var ranges []ByteRange
	for p.Peek() != ']' {
		if p.Peek() == 0 {
			return nil, p.NewError("]", "unterminated class", NewRange(p.cursor, p.cursor))
		}
		if _, ok := spaceBytes[p.Peek()]; ok {
			p.cursor++
			continue
		}
		lo, err := p.classByte()
		if err != nil {
			return nil, err
		}
		hi := lo
		if p.Peek() == '-' {
			p.cursor++
			hi, err = p.classByte()
			if err != nil {
				return nil, err
			}
		}
		ranges = append(ranges, ByteRange{Lo: lo, Hi: hi})
	}
	p.cursor++
	p.skipSpacing()
	if len(ranges) == 0 {
		return nil, p.NewError("class", "empty character class", NewRange(p.cursor, p.cursor))
	}
	return NewCharClassNode(ranges), nil
}

func (p *GrammarParser) classByte() (byte, error) {
	if b, ok, err := p.parseEscape(); err != nil {
		return 0, err
	} else if ok {
		return b, nil
	}
	return p.Any()
}

// expectRaw matches a delimiter byte without skipping trailing
// spacing -- literal and class bodies are space-significant.
func (p *GrammarParser) expectRaw(b byte) error {
	if p.Peek() != b {
		return p.NewError(string(b), fmt.Sprintf("expected %q", b), NewRange(p.cursor, p.cursor))
	}
	p.cursor++
	return nil
}
