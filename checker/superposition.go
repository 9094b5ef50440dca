package checker

import (
	"math/cmplx"

	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/engine"
)

// checkSuperposition projects every non-negligible computational basis
// amplitude onto the target qubits and requires at least two distinct
// projections to appear.
func checkSuperposition(e *engine.Engine, a *assertion.Assertion) (bool, error) {
	qubits, err := resolveTargets(e, a.Targets)
	if err != nil {
		return false, err
	}

	full := e.GetStateVectorFull()
	seen := map[int]bool{}
	for idx, amp := range full {
		if cmplx.Abs(amp) <= 1e-8 {
			continue
		}
		proj := 0
		for bitPos, q := range qubits {
			if idx&(1<<q) != 0 {
				proj |= 1 << bitPos
			}
		}
		seen[proj] = true
		if len(seen) >= 2 {
			return true, nil
		}
	}
	return false, nil
}
