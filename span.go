package pvm

import "sort"

// Span is a labeled region of the input a rule matched, emitted at
// SavePos with Start < End (empty spans are suppressed). Marker is
// produced by running the rule's name through the caller-supplied
// string-to-marker function given to NewMachine.
type Span[T comparable] struct {
	Marker T
	Start  int
	End    int
}

// SkipRange is a byte range the VM silently advances past between
// instructions while skip-on is active.
type SkipRange struct{ Lo, Hi byte }

// sortSpans orders spans (start asc, end desc) so that, for spans
// sharing a start, the widest (outermost) one sorts first -- this is
// what makes a flat span list reconstructable into a well-nested
// tree by a host-side consumer.
func sortSpans[T comparable](spans []Span[T]) {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
}
