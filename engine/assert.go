package engine

import (
	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/instr"
)

// Checker evaluates one Assertion against the engine's current state.
// Defined here rather than imported: the checker package constructs
// sub-Engines, so importing it back would cycle.
type Checker interface {
	Check(e *Engine, a *assertion.Assertion) (bool, error)
}

// SetChecker binds the assertion evaluator. Until one is set, every
// assertion is treated as passing.
func (e *Engine) SetChecker(c Checker) { e.checker = c }

func (e *Engine) evaluateAssertion(in *instr.Instruction) (bool, error) {
	a := e.assertions[in.AssertionIdx]
	if e.checker == nil {
		return true, nil
	}
	return e.checker.Check(e, a)
}
