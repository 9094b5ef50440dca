// Package engine drives a preprocessed program through a reversible
// stepper: forward/backward/step-over/step-out transitions over a
// decision-diagram-backed quantum state, with the call/restore stack
// bookkeeping that makes backward stepping an O(1) operation even
// across sub-circuit call boundaries.
package engine

import (
	mrand "math/rand"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/errs"
	"github.com/hlalwani/qdbg/instr"
	"github.com/hlalwani/qdbg/internal/rng"
	"github.com/hlalwani/qdbg/preprocess"
	"github.com/hlalwani/qdbg/qasmfront"
)

// none is the sentinel used for lastFailedAssertion/lastMetBreakpoint
// when neither has been set since the last reset.
const none = -1

// restoreEntry records which caller frame a RETURN popped, so a
// backward step across it can push the frame back.
type restoreEntry struct {
	ReturnTargetID int
	CallerID       int
}

// ExecutionObserver is notified on every forward gate application;
// measure, reset and barrier instructions are not reported. The
// diagnostics package implements it.
type ExecutionObserver interface {
	RecordExecution(instructionID int, qubits []int, controlQubit int, controlObservedZero bool)
}

// Engine drives one debugging session: a state kernel, the
// preprocessed program, and the reversible stepper's bookkeeping.
type Engine struct {
	kernel  ddadapter.Kernel
	front   *qasmfront.Frontend
	rand    *mrand.Rand
	obs     ExecutionObserver
	checker Checker

	instructions  []*instr.Instruction
	assertions    []*assertion.Assertion
	registers     *instr.RegisterTable
	classicalVars map[string]bool
	numQubits     int

	psi *ddadapter.StateHandle

	currentInstruction  int
	previousStack       []int
	callStack           []int
	restoreStack        []restoreEntry
	breakpoints         map[int]bool
	lastFailedAssertion int
	lastMetBreakpoint   int
	paused              bool
	ready               bool
}

// New builds an Engine bound to kernel. obs may be nil when dynamic
// diagnostics aren't needed.
func New(kernel ddadapter.Kernel, obs ExecutionObserver) *Engine {
	e := &Engine{kernel: kernel, obs: obs, rand: rng.New()}
	e.Init()
	return e
}

// NewSeeded is New with a deterministic measurement RNG.
func NewSeeded(kernel ddadapter.Kernel, obs ExecutionObserver, seed int64) *Engine {
	e := &Engine{kernel: kernel, obs: obs, rand: rng.NewSeeded(seed)}
	e.Init()
	return e
}

// Init clears all stacks and marks the engine not ready.
func (e *Engine) Init() {
	e.previousStack = nil
	e.callStack = nil
	e.restoreStack = nil
	e.breakpoints = map[int]bool{}
	e.lastFailedAssertion = none
	e.lastMetBreakpoint = none
	e.paused = false
	e.ready = false
	e.currentInstruction = 0
}

// LoadCode preprocesses src, builds a zero state sized to the
// program's registers, and marks the engine ready.
func (e *Engine) LoadCode(src string) error {
	res, err := preprocess.Preprocess(src)
	if err != nil {
		return err
	}
	e.instructions = res.Instructions
	e.assertions = res.Assertions
	e.registers = res.Registers
	e.classicalVars = res.ClassicalVars
	e.numQubits = res.Registers.NumQubits()
	e.front = qasmfront.New(res.Registers)

	e.previousStack = nil
	e.callStack = nil
	e.restoreStack = nil
	e.currentInstruction = 0
	e.lastFailedAssertion = none
	e.lastMetBreakpoint = none

	if e.numQubits == 0 {
		e.numQubits = 1
	}
	e.psi = e.kernel.MakeZeroState(e.numQubits)
	e.ready = true
	log.Debug().Int("instructions", len(e.instructions)).Int("qubits", e.numQubits).Msg("program loaded")
	return nil
}

// Destroy releases the engine's reference to its state.
func (e *Engine) Destroy() {
	if e.psi != nil {
		e.kernel.DecRef(e.psi)
		e.kernel.GarbageCollect()
		e.psi = nil
	}
	e.ready = false
}

// ResetSimulation rewinds to the first instruction, clears every
// stack and classical variable, and rebuilds the zero state.
func (e *Engine) ResetSimulation() {
	e.previousStack = nil
	e.callStack = nil
	e.restoreStack = nil
	e.currentInstruction = 0
	e.lastFailedAssertion = none
	e.lastMetBreakpoint = none
	e.paused = false

	for name := range e.classicalVars {
		e.classicalVars[name] = false
	}

	if e.psi != nil {
		e.kernel.DecRef(e.psi)
	}
	e.psi = e.kernel.MakeZeroState(e.numQubits)
	e.kernel.GarbageCollect()
}

// PauseSimulation stops the current (or next) run loop at the next
// step boundary.
func (e *Engine) PauseSimulation() { e.paused = true }

func (e *Engine) IsFinished() bool { return e.currentInstruction >= len(e.instructions) }

func (e *Engine) DidAssertionFail() bool { return e.lastFailedAssertion == e.currentInstruction }

func (e *Engine) WasBreakpointHit() bool { return e.lastMetBreakpoint == e.currentInstruction }

func (e *Engine) CanStepBackward() bool { return len(e.previousStack) > 0 }

func (e *Engine) CanStepForward() bool { return e.ready && !e.IsFinished() }

func (e *Engine) GetCurrentInstruction() int { return e.currentInstruction }

func (e *Engine) GetInstructionCount() int { return len(e.instructions) }

func (e *Engine) GetNumQubits() int { return e.numQubits }

func (e *Engine) GetNumClassicalVariables() int { return len(e.classicalVars) }

// GetInstructionPosition returns the source span of id.
func (e *Engine) GetInstructionPosition(id int) (int, int, error) {
	if id < 0 || id >= len(e.instructions) || e.instructions[id] == nil {
		return 0, 0, errs.NewPreconditionError("unknown instruction id %d", id)
	}
	in := e.instructions[id]
	return in.SourceStart, in.SourceEnd, nil
}

// GetClassicalVariable reads a classical bit by name, e.g. "c[0]".
func (e *Engine) GetClassicalVariable(name string) (bool, error) {
	v, ok := e.classicalVars[name]
	if !ok {
		return false, errs.NewPreconditionError("unknown classical variable %q", name)
	}
	return v, nil
}

// GetClassicalVariableName returns the i-th classical variable's name
// in sorted order.
func (e *Engine) GetClassicalVariableName(i int) (string, error) {
	if i < 0 || i >= len(e.classicalVars) {
		return "", errs.NewPreconditionError("classical variable index %d out of range", i)
	}
	names := make([]string, 0, len(e.classicalVars))
	for name := range e.classicalVars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[i], nil
}

// GetStackDepth is the number of active call frames plus one for the
// top-level program.
func (e *Engine) GetStackDepth() int { return len(e.callStack) + 1 }

// GetStackTrace returns the current instruction and its enclosing
// callers, padded with -1 past the actual stack depth.
func (e *Engine) GetStackTrace(maxDepth int) []int {
	out := make([]int, maxDepth)
	for i := range out {
		out[i] = -1
	}
	if maxDepth > 0 {
		out[0] = e.currentInstruction
	}
	for k := 1; k < maxDepth; k++ {
		idx := len(e.callStack) - k
		if idx < 0 {
			break
		}
		out[k] = e.callStack[idx]
	}
	return out
}

// callFrames returns the active CALL substitution maps, innermost
// first.
func (e *Engine) callFrames() []map[string]string {
	frames := make([]map[string]string, 0, len(e.callStack))
	for i := len(e.callStack) - 1; i >= 0; i-- {
		frames = append(frames, e.instructions[e.callStack[i]].CallSubstitution)
	}
	return frames
}

// SetBreakpoint arms the instruction whose source span most tightly
// contains pos, so a position inside a gate body picks the nested
// child rather than the definition header. Returns the chosen id.
func (e *Engine) SetBreakpoint(pos int) (int, error) {
	best := -1
	bestSpan := -1
	for _, in := range e.instructions {
		if in == nil || !in.ContainsOffset(pos) {
			continue
		}
		span := in.SourceEnd - in.SourceStart
		if best == -1 || span < bestSpan {
			best = in.ID
			bestSpan = span
		}
	}
	if best == -1 {
		return 0, errs.NewPreconditionError("no instruction contains offset %d", pos)
	}
	e.breakpoints[best] = true
	return best, nil
}

// ClearBreakpoints disarms every breakpoint.
func (e *Engine) ClearBreakpoints() { e.breakpoints = map[int]bool{} }

// Instructions exposes the dense instruction array. Callers must not
// mutate it.
func (e *Engine) Instructions() []*instr.Instruction { return e.instructions }

// Assertions exposes the parsed assertion list.
func (e *Engine) Assertions() []*assertion.Assertion { return e.assertions }

// Registers exposes the register layout.
func (e *Engine) Registers() *instr.RegisterTable { return e.registers }

// Kernel exposes the bound kernel.
func (e *Engine) Kernel() ddadapter.Kernel { return e.kernel }

func (e *Engine) State() *ddadapter.StateHandle { return e.psi }

// GetDiagnostics returns the execution observer bound at construction,
// nil if none.
func (e *Engine) GetDiagnostics() ExecutionObserver { return e.obs }
