package pvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAndAnalyze(t *testing.T, src string) *Grammar {
	t.Helper()
	g, err := ParseGrammar([]byte(src))
	require.NoError(t, err)
	AnalyzeLeftRecursion(g)
	return g
}

func leftRecursiveRefs(g *Grammar, ruleIdx int) int {
	n := 0
	Inspect(g.Rules[ruleIdx], func(p Pattern) bool {
		if r, ok := p.(*RuleRefNode); ok && r.IsLeftRecursive {
			n++
		}
		return true
	})
	return n
}

func TestAnalyzeDirectLeftRecursionMarksSelfCall(t *testing.T) {
	g := parseAndAnalyze(t, `main { main:1 '+' 'n' / 'n' }`)
	assert.Equal(t, 1, leftRecursiveRefs(g, g.Main))
}

func TestAnalyzeNonRecursiveRuleUnmarked(t *testing.T) {
	g := parseAndAnalyze(t, `
main { A B }
A { 'a' }
B { 'b' }
`)
	assert.Equal(t, 0, leftRecursiveRefs(g, g.Main))
	assert.Equal(t, 0, leftRecursiveRefs(g, 1))
	assert.Equal(t, 0, leftRecursiveRefs(g, 2))
}

func TestAnalyzeConsumingCallBeforeSelfCallIsNotLeftRecursive(t *testing.T) {
	// main calls Token first, which always consumes, so the later
	// self-call is not at the same starting position and is not
	// left-recursive.
	g := parseAndAnalyze(t, `
main { Token main / Token }
Token { [a-z] }
`)
	assert.Equal(t, 0, leftRecursiveRefs(g, g.Main))
}

func TestAnalyzeIndirectMutualRecursion(t *testing.T) {
	g := parseAndAnalyze(t, `
main { P }
P { L '.' 'x' / 'x' }
L { P }
`)
	total := leftRecursiveRefs(g, 1) + leftRecursiveRefs(g, 2)
	assert.Greater(t, total, 0)
}

func TestComputeConsumesFixpointTransitiveConsumption(t *testing.T) {
	g, err := ParseGrammar([]byte(`
main { Word }
Word { Letter Letter }
Letter { [a-z] }
`))
	require.NoError(t, err)
	consumes := computeConsumesFixpoint(g)
	require.Len(t, consumes, 3)
	assert.True(t, consumes[0], "main always consumes via Word")
	assert.True(t, consumes[1], "Word always consumes via two Letters")
	assert.True(t, consumes[2], "Letter always consumes")
}

func TestDetectCyclicRulesAgreesWithDirectRecursion(t *testing.T) {
	g := parseAndAnalyze(t, `main { main:1 '+' 'n' / 'n' }`)
	cyclic := DetectCyclicRules(g)
	assert.True(t, cyclic[g.Main])
}

func TestDetectCyclicRulesIsSupersetOfLeftRecursionMarks(t *testing.T) {
	g := parseAndAnalyze(t, `
main { P }
P { L '.' 'x' / 'x' }
L { P }
`)
	cyclic := DetectCyclicRules(g)

	markedRules := map[int]bool{}
	for idx := range g.Rules {
		if leftRecursiveRefs(g, idx) > 0 {
			markedRules[idx] = true
		}
	}
	for idx := range markedRules {
		var target int
		Inspect(g.Rules[idx], func(p Pattern) bool {
			if r, ok := p.(*RuleRefNode); ok && r.IsLeftRecursive {
				target = r.RuleID
			}
			return true
		})
		assert.True(t, cyclic[target], "rule %d flagged left-recursive but not reported cyclic", target)
	}
	assert.True(t, cyclic[1])
	assert.True(t, cyclic[2])
}
