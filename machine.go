package pvm

import "os"

// Machine ties a compiled Program to an input and a marker function,
// exposing the runtime knobs (skip regions, instruction budget) a
// host can adjust between calls to Execute. T is the host's own
// label type for matched rules, produced from rule names by Marker.
type Machine[T comparable] struct {
	cfg     *Config
	program *Program
	Marker  MarkerFunc[T]

	// SkipRanges and SkipOn control the VM's whitespace-style skip
	// regions; SkipOn is the engine's initial state, further toggled
	// at runtime by a ToggleSkip instruction if the grammar emits one.
	SkipRanges []SkipRange
	SkipOn     bool
}

// NewMachine builds a Machine from an already-compiled Program.
func NewMachine[T comparable](program *Program, marker MarkerFunc[T], cfg *Config) *Machine[T] {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Machine[T]{cfg: cfg, program: program, Marker: marker}
}

// NewMachineFromSource parses, resolves, analyzes, and compiles
// grammar source text, returning a ready-to-run Machine.
func NewMachineFromSource[T comparable](source []byte, marker MarkerFunc[T], cfg *Config) (*Machine[T], error) {
	grammar, err := ParseGrammar(source)
	if err != nil {
		return nil, err
	}
	AnalyzeLeftRecursion(grammar)
	program, err := Compile(grammar)
	if err != nil {
		return nil, err
	}
	return NewMachine(program, marker, cfg), nil
}

// NewMachineFromPath reads a grammar file from disk and builds a
// Machine from it, per NewMachineFromSource.
func NewMachineFromPath[T comparable](path string, marker MarkerFunc[T], cfg *Config) (*Machine[T], error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMachineFromSource(source, marker, cfg)
}

// Execute runs the Machine's compiled Program against input and
// returns the resulting span set, or an error: MatchFailure on an
// ordinary parse failure, MarkerError if a rule name has no marker,
// or BudgetExceededError if vm.max-steps was configured and exceeded.
func (m *Machine[T]) Execute(input []byte) ([]Span[T], error) {
	maxSteps := 0
	if m.cfg != nil {
		maxSteps = m.cfg.GetInt("vm.max-steps")
	}
	return Execute(m.program, input, m.Marker, m.SkipRanges, m.SkipOn, maxSteps)
}

// Disassemble renders the Machine's compiled Program for debugging.
func (m *Machine[T]) Disassemble() string {
	return m.program.String()
}
