package pvm

// MarkerFunc resolves a matched rule's name to the caller's own
// label type, letting a host keep its own enum/string marker space
// instead of working with rule names directly. It errors for names
// outside that space, surfaced to the caller as MarkerError.
type MarkerFunc[T any] func(name string) (T, error)

// Execute runs prog against input to completion, returning the
// deduplicated, well-nestedness-sorted span set on success or a
// MatchFailure carrying the furthest position reached on failure.
//
// This is a direct transcription of the reference machine's
// seed-growing execution loop: a Choice/Call/PrecedenceCall stack
// drives ordered-choice backtracking and rule invocation, and
// PrecedenceCall additionally memoizes an in-progress left-recursive
// attempt so a self-call at the same (rule entry, start position)
// reuses the best seed grown so far instead of recursing forever.
func Execute[T comparable](prog *Program, input []byte, markerFn MarkerFunc[T], skipRanges []SkipRange, skipOn bool, maxSteps int) ([]Span[T], error) {
	code := prog.Code
	pc, i := 0, 0
	fail := false
	ffp := 0
	steps := 0

	var frames frameStack
	var positions positionStack
	seen := map[Span[T]]struct{}{}

	addSpan := func(sp Span[T]) {
		if sp.Start >= sp.End {
			return
		}
		if _, ok := seen[sp]; ok {
			return
		}
		seen[sp] = struct{}{}
	}

	for {
		if maxSteps > 0 {
			steps++
			if steps > maxSteps {
				return nil, BudgetExceededError{Budget: maxSteps}
			}
		}

		if fail {
			f, ok := frames.pop()
			if !ok {
				return nil, MatchFailure{FurthestPos: ffp}
			}
			if len(positions) > f.posDepth {
				positions = positions[:f.posDepth]
			}
			switch f.kind {
			case frameBacktrack:
				i = f.savedPos
				pc = f.returnPC
				fail = false

			case frameReturn:
				// rule body failed; keep propagating to the next frame

			case framePrecedenceBacktrack:
				if (!f.hasSeed || i > f.lastAcceptPos) && i != f.startPos {
					// the attempt never reached Return, but it went
					// further than the rule's previous best seed: still
					// worth growing from, so retry the rule body with
					// this position recorded as the new high-water mark.
					nf := f
					nf.hasSeed = true
					nf.lastAcceptPos = i
					nf.failed = true
					frames.push(nf)
					i = f.startPos
					pc = f.ruleEntryPC
					fail = false
				} else if f.hasSeed {
					i = f.lastAcceptPos
					fail = f.failed
					if f.isLeftRecursive {
						pc = prog.JumpTable[f.returnPC]
						frames.dropTrailingBacktrackFrames()
						// the enclosing rule's SavePos is skipped, so drop its PushPos
						if f.posDepth > 0 && len(positions) >= f.posDepth {
							positions = positions[:f.posDepth-1]
						}
					} else {
						pc = f.returnPC
					}
				}
				// else: no seed and no progress made -- genuine failure,
				// keep propagating.
			}
			continue
		}

		if i > ffp {
			ffp = i
		}

		if skipOn && len(skipRanges) > 0 {
			for i < len(input) {
				advanced := false
				for _, r := range skipRanges {
					if input[i] >= r.Lo && input[i] <= r.Hi {
						i++
						advanced = true
						break
					}
				}
				if !advanced {
					break
				}
			}
		}

		switch in := code[pc].(type) {
		case CharInst:
			if i < len(input) && input[i] == in.Byte {
				i++
				pc++
			} else {
				fail = true
			}

		case TestCharInst:
			if i < len(input) && input[i] == in.Byte {
				pc++
			} else {
				pc += in.Offset
			}

		case AnyInst:
			if i < len(input) {
				i++
				pc++
			} else {
				fail = true
			}

		case TestAnyInst:
			if i+in.Count <= len(input) {
				pc++
			} else {
				pc += in.Offset
			}

		case CharRangeInst:
			if i < len(input) && input[i] >= in.Lo && input[i] <= in.Hi {
				i++
				pc++
			} else {
				fail = true
			}

		case CharRangeLinkInst:
			if i < len(input) && input[i] >= in.Lo && input[i] <= in.Hi {
				i++
				pc += in.Offset
			} else {
				pc++
			}

		case ChoiceInst:
			frames.push(mkBacktrackFrame(pc+in.Offset, i, len(positions)))
			pc++

		case JumpInst:
			pc += in.Offset

		case CallInst:
			frames.push(mkReturnFrame(pc+1, len(positions)))
			pc += in.Offset

		case PrecedenceCallInst:
			ruleEntryPC := pc + in.Offset
			if jf, idx := findPrecedenceFrame(frames, ruleEntryPC, i); idx >= 0 && jf.hasSeed && in.Precedence >= jf.precedence {
				i = jf.lastAcceptPos
				pc++
			} else if idx >= 0 {
				fail = true
			} else {
				frames.push(mkPrecedenceBacktrackFrame(pc+1, ruleEntryPC, i, in.Precedence, len(positions), in.IsLeftRecursive))
				pc = ruleEntryPC
			}

		case ReturnInst:
			f, ok := frames.pop()
			if !ok {
				fail = true
				continue
			}
			switch f.kind {
			case frameReturn:
				pc = f.returnPC

			case framePrecedenceBacktrack:
				if !f.hasSeed || i > f.lastAcceptPos {
					nf := f
					nf.hasSeed = true
					nf.lastAcceptPos = i
					nf.failed = false
					frames.push(nf)
					i = f.startPos
					pc = f.ruleEntryPC
				} else {
					i = f.lastAcceptPos
					if f.isLeftRecursive {
						pc = prog.JumpTable[f.returnPC]
						frames.dropTrailingBacktrackFrames()
						// the enclosing rule's SavePos is skipped, so drop its PushPos
						if f.posDepth > 0 && len(positions) >= f.posDepth {
							positions = positions[:f.posDepth-1]
						}
					} else {
						pc = f.returnPC
					}
				}

			default:
				fail = true
			}

		case CommitInst:
			frames.pop()
			pc += in.Offset

		case BackCommitInst:
			f, _ := frames.pop()
			i = f.savedPos
			pc += in.Offset

		case PartialCommitInst:
			if n := len(frames); n > 0 {
				frames[n-1].savedPos = i
			}
			pc += in.Offset

		case PushPosInst:
			positions.push(positionEntry{RuleID: in.RuleID, Start: i})
			pc++

		case SavePosInst:
			e, ok := positions.pop()
			if !ok {
				pc++
				break
			}
			marker, err := markerFn(prog.RuleNames[e.RuleID])
			if err != nil {
				return nil, MarkerError{RuleName: prog.RuleNames[e.RuleID]}
			}
			addSpan(Span[T]{Marker: marker, Start: e.Start, End: i})
			pc++

		case FailInst:
			fail = true

		case FailTwiceInst:
			if f, ok := frames.pop(); ok {
				i = f.savedPos
			}
			fail = true

		case ToggleSkipInst:
			skipOn = !skipOn
			pc++

		case StopInst:
			if fail {
				return nil, MatchFailure{FurthestPos: ffp}
			}
			if i > ffp {
				ffp = i
			}
			if i != len(input) {
				return nil, MatchFailure{FurthestPos: ffp}
			}
			spans := make([]Span[T], 0, len(seen))
			for sp := range seen {
				spans = append(spans, sp)
			}
			sortSpans(spans)
			return spans, nil
		}
	}
}

// findPrecedenceFrame searches the stack, top-down, for an open
// PrecedenceBacktrack frame belonging to the same rule entry and
// start position -- a self-call made while that rule's seed is still
// being grown.
func findPrecedenceFrame(frames frameStack, ruleEntryPC, startPos int) (frame, int) {
	for idx := len(frames) - 1; idx >= 0; idx-- {
		f := frames[idx]
		if f.kind == framePrecedenceBacktrack && f.ruleEntryPC == ruleEntryPC && f.startPos == startPos {
			return f, idx
		}
	}
	return frame{}, -1
}
