// Package checker evaluates parsed Assertions against a running
// Engine's state. It implements engine.Checker from outside the engine
// package so circuit equality can construct a second Engine without an
// import cycle.
package checker

import (
	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/engine"
	"github.com/hlalwani/qdbg/errs"
)

// Checker is the concrete assertion evaluator.
type Checker struct{}

// New returns a Checker ready to bind.
func New() *Checker { return &Checker{} }

// Check dispatches on the assertion's kind.
func (c *Checker) Check(e *engine.Engine, a *assertion.Assertion) (bool, error) {
	switch a.Kind {
	case assertion.Entanglement:
		return checkEntanglement(e, a)
	case assertion.Superposition:
		return checkSuperposition(e, a)
	case assertion.StatevectorEquality:
		return checkStatevectorEquality(e, a)
	case assertion.CircuitEquality:
		return checkCircuitEquality(e, a)
	case assertion.Span:
		return false, errs.ErrNotImplemented
	default:
		return false, errs.NewAssertionSemanticError("unknown assertion kind %v", a.Kind)
	}
}

// resolveTargets maps target expressions to global qubit indices.
func resolveTargets(e *engine.Engine, targets []string) ([]int, error) {
	qubits := make([]int, len(targets))
	for i, t := range targets {
		q, err := e.ResolveQubit(t)
		if err != nil {
			return nil, err
		}
		qubits[i] = q
	}
	return qubits, nil
}
