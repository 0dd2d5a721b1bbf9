package pvm

// DetectCyclicRules is the call-graph formulation of left-recursion
// detection: build the graph of rule-call edges (ignoring whether
// input is consumed along the way) and find its strongly connected
// components via Tarjan's algorithm. Any rule sitting in a
// non-trivial SCC (size > 1, or a single rule with a self-loop) can
// recurse into itself without making progress through any other
// rule, and is reported as cyclic.
//
// This is a coarser, consumed-input-blind cross-check against
// AnalyzeLeftRecursion: every RuleRefNode the AST-traversal analysis
// marks left-recursive must target a rule this function reports as
// cyclic, since consuming input along a cycle can only narrow the
// set, never widen it.
func DetectCyclicRules(g *Grammar) map[int]bool {
	edges := buildCallGraph(g)
	t := &tarjan{
		edges:   edges,
		index:   map[int]int{},
		lowlink: map[int]int{},
		onStack: map[int]bool{},
		cyclic:  map[int]bool{},
	}
	for r := range g.Rules {
		if _, seen := t.index[r]; !seen {
			t.strongConnect(r)
		}
	}
	return t.cyclic
}

func buildCallGraph(g *Grammar) map[int][]int {
	edges := make(map[int][]int, len(g.Rules))
	for ruleID, p := range g.Rules {
		Inspect(p, func(n Pattern) bool {
			if ref, ok := n.(*RuleRefNode); ok {
				edges[ruleID] = append(edges[ruleID], ref.RuleID)
			}
			return true
		})
	}
	return edges
}

type tarjan struct {
	edges   map[int][]int
	index   map[int]int
	lowlink map[int]int
	onStack map[int]bool
	stack   []int
	counter int
	cyclic  map[int]bool
}

func (t *tarjan) strongConnect(v int) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.edges[v] {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}

	var scc []int
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}

	if len(scc) > 1 {
		for _, r := range scc {
			t.cyclic[r] = true
		}
		return
	}

	// Single-rule SCC: still cyclic if the rule has a direct self-loop.
	for _, w := range t.edges[v] {
		if w == v {
			t.cyclic[v] = true
			break
		}
	}
}
