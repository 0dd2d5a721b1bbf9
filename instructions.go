package pvm

import "fmt"

// Instruction is the closed sum of VM opcodes. Operands are resolved
// values (offsets already relative to the instruction's own address
// once the compiler's backpatch pass has run); there is no separate
// binary encoding, since the program is never persisted.
type Instruction interface {
	Name() string
	String() string
}

type CharInst struct{ Byte byte }

func (CharInst) Name() string      { return "Char" }
func (i CharInst) String() string  { return fmt.Sprintf("Char %q", i.Byte) }

type TestCharInst struct {
	Byte   byte
	Offset int
}

func (TestCharInst) Name() string     { return "TestChar" }
func (i TestCharInst) String() string { return fmt.Sprintf("TestChar %q %d", i.Byte, i.Offset) }

type AnyInst struct{}

func (AnyInst) Name() string     { return "Any" }
func (AnyInst) String() string   { return "Any" }

type TestAnyInst struct {
	Count  int
	Offset int
}

func (TestAnyInst) Name() string     { return "TestAny" }
func (i TestAnyInst) String() string { return fmt.Sprintf("TestAny %d %d", i.Count, i.Offset) }

type CharRangeInst struct{ Lo, Hi byte }

func (CharRangeInst) Name() string     { return "CharRange" }
func (i CharRangeInst) String() string { return fmt.Sprintf("CharRange %q-%q", i.Lo, i.Hi) }

type CharRangeLinkInst struct {
	Lo, Hi byte
	Offset int
}

func (CharRangeLinkInst) Name() string { return "CharRangeLink" }
func (i CharRangeLinkInst) String() string {
	return fmt.Sprintf("CharRangeLink %q-%q %d", i.Lo, i.Hi, i.Offset)
}

type ChoiceInst struct{ Offset int }

func (ChoiceInst) Name() string     { return "Choice" }
func (i ChoiceInst) String() string { return fmt.Sprintf("Choice %d", i.Offset) }

type JumpInst struct{ Offset int }

func (JumpInst) Name() string     { return "Jump" }
func (i JumpInst) String() string { return fmt.Sprintf("Jump %d", i.Offset) }

type CallInst struct {
	Offset int
	RuleID int
}

func (CallInst) Name() string     { return "Call" }
func (i CallInst) String() string { return fmt.Sprintf("Call %d (rule %d)", i.Offset, i.RuleID) }

type PrecedenceCallInst struct {
	Offset          int
	RuleID          int
	Precedence      int
	IsLeftRecursive bool
}

func (PrecedenceCallInst) Name() string { return "PrecedenceCall" }
func (i PrecedenceCallInst) String() string {
	return fmt.Sprintf("PrecedenceCall %d %d %v (rule %d)", i.Offset, i.Precedence, i.IsLeftRecursive, i.RuleID)
}

type ReturnInst struct{}

func (ReturnInst) Name() string   { return "Return" }
func (ReturnInst) String() string { return "Return" }

type CommitInst struct{ Offset int }

func (CommitInst) Name() string     { return "Commit" }
func (i CommitInst) String() string { return fmt.Sprintf("Commit %d", i.Offset) }

type BackCommitInst struct{ Offset int }

func (BackCommitInst) Name() string     { return "BackCommit" }
func (i BackCommitInst) String() string { return fmt.Sprintf("BackCommit %d", i.Offset) }

type PartialCommitInst struct{ Offset int }

func (PartialCommitInst) Name() string     { return "PartialCommit" }
func (i PartialCommitInst) String() string { return fmt.Sprintf("PartialCommit %d", i.Offset) }

type PushPosInst struct{ RuleID int }

func (PushPosInst) Name() string     { return "PushPos" }
func (i PushPosInst) String() string { return fmt.Sprintf("PushPos %d", i.RuleID) }

type SavePosInst struct{}

func (SavePosInst) Name() string   { return "SavePos" }
func (SavePosInst) String() string { return "SavePos" }

type FailInst struct{}

func (FailInst) Name() string   { return "Fail" }
func (FailInst) String() string { return "Fail" }

type FailTwiceInst struct{}

func (FailTwiceInst) Name() string   { return "FailTwice" }
func (FailTwiceInst) String() string { return "FailTwice" }

type StopInst struct{}

func (StopInst) Name() string   { return "Stop" }
func (StopInst) String() string { return "Stop" }

type ToggleSkipInst struct{}

func (ToggleSkipInst) Name() string   { return "ToggleSkip" }
func (ToggleSkipInst) String() string { return "ToggleSkip" }

// Program is a flat ordered sequence of Instructions, produced once
// by the compiler and immutable for the lifetime of a Machine.
type Program struct {
	Code      []Instruction
	RuleNames []string
	// JumpTable[pc] holds the address of the next Return at or after
	// pc, used by the VM's left-recursive exit path.
	JumpTable []int
}

func (p *Program) String() string {
	s := ""
	for pc, inst := range p.Code {
		s += fmt.Sprintf("%4d  %s\n", pc, inst.String())
	}
	return s
}
