package diagnostics

import (
	"sort"

	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/engine"
	"github.com/hlalwani/qdbg/errs"
	"github.com/hlalwani/qdbg/instr"
)

// ErrorCauseKind classifies a diagnosed cause of an assertion
// failure.
type ErrorCauseKind int

const (
	// ZeroControl: a controlled gate whose control has been |0> at
	// every execution so far.
	ZeroControl ErrorCauseKind = iota
	// MissingInteraction: two target qubits with no static interaction
	// path before the assertion.
	MissingInteraction
)

// ErrorCause is one diagnosed explanation. Qubits[1] is -1 for
// ZeroControl.
type ErrorCause struct {
	Kind        ErrorCauseKind
	Instruction int
	Qubits      [2]int
}

// PotentialErrorCauses combines tryFindZeroControls and
// tryFindMissingInteraction until count causes are produced or both
// are exhausted.
func PotentialErrorCauses(e *engine.Engine, tracker *Tracker, failedAssertion int, count int) ([]ErrorCause, error) {
	instructions := e.Instructions()
	if failedAssertion < 0 || failedAssertion >= len(instructions) || instructions[failedAssertion] == nil {
		return nil, errs.NewPreconditionError("unknown instruction id %d", failedAssertion)
	}
	in := instructions[failedAssertion]
	if in.Kind != instr.ASSERTION {
		return nil, errs.NewPreconditionError("instruction %d is not an assertion", failedAssertion)
	}

	var out []ErrorCause
	for _, c := range tryFindZeroControls(tracker, failedAssertion) {
		if len(out) >= count {
			return out, nil
		}
		out = append(out, c)
	}

	a := e.Assertions()[in.AssertionIdx]
	missing, err := tryFindMissingInteraction(e, a, failedAssertion)
	if err != nil {
		return out, err
	}
	for _, c := range missing {
		if len(out) >= count {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

// tryFindZeroControls reports instructions before beforeInstruction
// whose control has only ever been observed |0>.
func tryFindZeroControls(tracker *Tracker, beforeInstruction int) []ErrorCause {
	var out []ErrorCause
	for _, id := range tracker.GetZeroControlInstructions() {
		if id >= beforeInstruction {
			continue
		}
		qubits := make([]int, 0, len(tracker.ZeroControls(id)))
		for q := range tracker.ZeroControls(id) {
			qubits = append(qubits, q)
		}
		sort.Ints(qubits)
		out = append(out, ErrorCause{Kind: ZeroControl, Instruction: id, Qubits: [2]int{qubits[0], -1}})
	}
	return out
}

// tryFindMissingInteraction checks every target pair of an
// entanglement or equality assertion for a static interaction path.
func tryFindMissingInteraction(e *engine.Engine, a *assertion.Assertion, failedAssertion int) ([]ErrorCause, error) {
	switch a.Kind {
	case assertion.Entanglement, assertion.StatevectorEquality, assertion.CircuitEquality:
	default:
		return nil, nil
	}

	qubits := make([]int, len(a.Targets))
	for i, t := range a.Targets {
		q, err := e.ResolveQubit(t)
		if err != nil {
			return nil, err
		}
		qubits[i] = q
	}

	var out []ErrorCause
	for i := 0; i < len(qubits); i++ {
		reachable, err := GetInteractions(e.Instructions(), e.Registers(), failedAssertion, qubits[i])
		if err != nil {
			return nil, err
		}
		reach := map[int]bool{}
		for _, q := range reachable {
			reach[q] = true
		}
		for j := i + 1; j < len(qubits); j++ {
			if !reach[qubits[j]] {
				out = append(out, ErrorCause{Kind: MissingInteraction, Instruction: failedAssertion, Qubits: [2]int{qubits[i], qubits[j]}})
			}
		}
	}
	return out, nil
}
