package pvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGrammarSimpleLiteral(t *testing.T) {
	g, err := ParseGrammar([]byte(`main { 'abc' }`))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Main)
	seq, ok := g.Rules[0].(*CharSequenceNode)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), seq.Bytes)
}

func TestParseGrammarLiteralEscapes(t *testing.T) {
	g, err := ParseGrammar([]byte(`main { '\t\n\'\\' }`))
	require.NoError(t, err)
	seq, ok := g.Rules[0].(*CharSequenceNode)
	require.True(t, ok)
	assert.Equal(t, []byte{'\t', '\n', '\'', '\\'}, seq.Bytes)
}

func TestParseGrammarClassMultipleRanges(t *testing.T) {
	g, err := ParseGrammar([]byte(`main { [a-z A-Z 0-9 _] }`))
	require.NoError(t, err)
	cls, ok := g.Rules[0].(*CharClassNode)
	require.True(t, ok)
	require.Len(t, cls.Ranges, 4)
	assert.Equal(t, ByteRange{Lo: 'a', Hi: 'z'}, cls.Ranges[0])
	assert.Equal(t, ByteRange{Lo: '_', Hi: '_'}, cls.Ranges[3])
}

func TestParseGrammarPrecedenceAnnotation(t *testing.T) {
	g, err := ParseGrammar([]byte(`main { main:2 '+' 'n' / 'n' }`))
	require.NoError(t, err)
	var ref *RuleRefNode
	Inspect(g.Rules[0], func(n Pattern) bool {
		if r, ok := n.(*RuleRefNode); ok {
			ref = r
		}
		return true
	})
	require.NotNil(t, ref)
	assert.Equal(t, 2, ref.Precedence)
}

func TestParseGrammarNoPrecedenceSentinel(t *testing.T) {
	g, err := ParseGrammar([]byte(`
main { A }
A { 'x' }
`))
	require.NoError(t, err)
	var ref *RuleRefNode
	Inspect(g.Rules[0], func(n Pattern) bool {
		if r, ok := n.(*RuleRefNode); ok {
			ref = r
		}
		return true
	})
	require.NotNil(t, ref)
	assert.Equal(t, -1, ref.Precedence)
}

func TestParseGrammarNestedParens(t *testing.T) {
	g, err := ParseGrammar([]byte(`main { ('a' / 'b') 'c' }`))
	require.NoError(t, err)
	seq, ok := g.Rules[0].(*SequenceNode)
	require.True(t, ok)
	require.Len(t, seq.Items, 2)
	_, ok = seq.Items[0].(*ChoiceNode)
	assert.True(t, ok)
}

func TestParseGrammarLookaheads(t *testing.T) {
	g, err := ParseGrammar([]byte(`main { &'a' !'b' 'a' }`))
	require.NoError(t, err)
	seq, ok := g.Rules[0].(*SequenceNode)
	require.True(t, ok)
	require.Len(t, seq.Items, 3)
	pos, ok := seq.Items[0].(*LookaheadNode)
	require.True(t, ok)
	assert.True(t, pos.Positive)
	neg, ok := seq.Items[1].(*LookaheadNode)
	require.True(t, ok)
	assert.False(t, neg.Positive)
}

func TestParseGrammarSuffixes(t *testing.T) {
	g, err := ParseGrammar([]byte(`main { 'a'* 'b'+ 'c'? }`))
	require.NoError(t, err)
	seq, ok := g.Rules[0].(*SequenceNode)
	require.True(t, ok)
	require.Len(t, seq.Items, 3)
	_, ok = seq.Items[0].(*ZeroOrMoreNode)
	assert.True(t, ok)
	_, ok = seq.Items[1].(*OneOrMoreNode)
	assert.True(t, ok)
	_, ok = seq.Items[2].(*OptionalNode)
	assert.True(t, ok)
}

func TestParseGrammarMissingMainErrors(t *testing.T) {
	_, err := ParseGrammar([]byte(`foo { 'a' }`))
	require.Error(t, err)
	_, ok := err.(GrammarSemanticError)
	assert.True(t, ok)
}

func TestParseGrammarDuplicateRuleErrors(t *testing.T) {
	_, err := ParseGrammar([]byte(`
main { 'a' }
main { 'b' }
`))
	require.Error(t, err)
	_, ok := err.(GrammarSemanticError)
	assert.True(t, ok)
}

func TestParseGrammarUndefinedRuleErrors(t *testing.T) {
	_, err := ParseGrammar([]byte(`main { Missing }`))
	require.Error(t, err)
	_, ok := err.(GrammarSemanticError)
	assert.True(t, ok)
}

func TestParseGrammarUnterminatedLiteralErrors(t *testing.T) {
	_, err := ParseGrammar([]byte(`main { 'abc }`))
	require.Error(t, err)
}

func TestParseGrammarUnterminatedClassErrors(t *testing.T) {
	_, err := ParseGrammar([]byte(`main { [a-z }`))
	require.Error(t, err)
}

func TestParseGrammarEmptyClassErrors(t *testing.T) {
	_, err := ParseGrammar([]byte(`main { [] }`))
	require.Error(t, err)
}

func TestParseGrammarCommentsAreSkipped(t *testing.T) {
	g, err := ParseGrammar([]byte(`
# the entry rule
main { 'a' } # trailing comment
`))
	require.NoError(t, err)
	_, ok := g.Rules[0].(*CharSequenceNode)
	assert.True(t, ok)
}
