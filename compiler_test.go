package pvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string) *Program {
	t.Helper()
	g, err := ParseGrammar([]byte(src))
	require.NoError(t, err)
	AnalyzeLeftRecursion(g)
	prog, err := Compile(g)
	require.NoError(t, err)
	return prog
}

func TestCompilePrologueCallsEntryRule(t *testing.T) {
	prog := compileSource(t, `main { 'a' }`)
	call, ok := prog.Code[0].(CallInst)
	require.True(t, ok)
	assert.Equal(t, 0, call.RuleID)
	_, ok = prog.Code[1].(StopInst)
	assert.True(t, ok)

	entry := call.Offset
	push, ok := prog.Code[entry].(PushPosInst)
	require.True(t, ok)
	assert.Equal(t, 0, push.RuleID)
}

func TestCompileLiteralEmitsOneCharPerByte(t *testing.T) {
	prog := compileSource(t, `main { 'ab' }`)
	var chars []byte
	for _, inst := range prog.Code {
		if c, ok := inst.(CharInst); ok {
			chars = append(chars, c.Byte)
		}
	}
	assert.Equal(t, []byte{'a', 'b'}, chars)
}

func TestCompileCharClassChainsLinksAndTerminatesPlain(t *testing.T) {
	prog := compileSource(t, `main { [a-z A-Z] }`)
	var links int
	var plain int
	for _, inst := range prog.Code {
		switch inst.(type) {
		case CharRangeLinkInst:
			links++
		case CharRangeInst:
			plain++
		}
	}
	assert.Equal(t, 1, links)
	assert.Equal(t, 1, plain)
}

func TestCompileChoiceShapesChoiceCommit(t *testing.T) {
	prog := compileSource(t, `main { 'a' / 'b' }`)
	var sawChoice, sawCommit bool
	for _, inst := range prog.Code {
		switch inst.(type) {
		case ChoiceInst:
			sawChoice = true
		case CommitInst:
			sawCommit = true
		}
	}
	assert.True(t, sawChoice)
	assert.True(t, sawCommit)
}

func TestCompileZeroOrMoreUsesPartialCommit(t *testing.T) {
	prog := compileSource(t, `main { 'a'* }`)
	var pc int
	for _, inst := range prog.Code {
		if _, ok := inst.(PartialCommitInst); ok {
			pc++
		}
	}
	assert.Equal(t, 1, pc)
}

func TestCompileRuleRefBackpatchesCallOffset(t *testing.T) {
	prog := compileSource(t, `
main { A }
A { 'x' }
`)
	var call CallInst
	callPC := 0
	found := false
	for pc, inst := range prog.Code {
		if c, ok := inst.(CallInst); ok && pc != 0 {
			call = c
			callPC = pc
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, 1, call.RuleID)
	push, ok := prog.Code[callPC+call.Offset].(PushPosInst)
	require.True(t, ok)
	assert.Equal(t, 1, push.RuleID)
}

func TestCompileLeftRecursiveRefEmitsPrecedenceCall(t *testing.T) {
	prog := compileSource(t, `main { main:1 '+' 'n' / 'n' }`)
	var pcall PrecedenceCallInst
	found := false
	for _, inst := range prog.Code {
		if c, ok := inst.(PrecedenceCallInst); ok {
			pcall = c
			found = true
		}
	}
	require.True(t, found)
	assert.True(t, pcall.IsLeftRecursive)
	assert.Equal(t, 1, pcall.Precedence)
}

func TestCompileJumpTablePointsAtNextReturn(t *testing.T) {
	code := []Instruction{
		CharInst{Byte: 'a'},
		ReturnInst{},
		CharInst{Byte: 'b'},
	}
	jt := buildJumpTable(code)
	assert.Equal(t, 1, jt[0])
	assert.Equal(t, 1, jt[1])
	assert.Equal(t, 3, jt[2])
}
