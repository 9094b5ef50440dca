package checker

import (
	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/density"
	"github.com/hlalwani/qdbg/engine"
	"github.com/hlalwani/qdbg/errs"
)

// checkEntanglement requires every pair of distinct target qubits to
// have strictly positive mutual information S(A) + S(B) - S(AB).
func checkEntanglement(e *engine.Engine, a *assertion.Assertion) (bool, error) {
	qubits, err := resolveTargets(e, a.Targets)
	if err != nil {
		return false, err
	}
	if len(qubits) < 2 {
		return false, errs.NewAssertionSemanticError("entanglement assertion needs at least two targets")
	}

	full := e.GetStateVectorFull()
	n := e.GetNumQubits()

	for i := 0; i < len(qubits); i++ {
		for j := i + 1; j < len(qubits); j++ {
			qa, qb := qubits[i], qubits[j]

			sA, err := entropyOf(density.PartialTrace(full, n, []int{qa}))
			if err != nil {
				return false, err
			}
			sB, err := entropyOf(density.PartialTrace(full, n, []int{qb}))
			if err != nil {
				return false, err
			}
			sAB, err := entropyOf(density.PartialTrace(full, n, []int{qa, qb}))
			if err != nil {
				return false, err
			}

			if sA+sB-sAB <= 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

func entropyOf(rho density.Matrix) (float64, error) {
	eig := density.Eigen(rho)
	return density.VonNeumannEntropy(eig.Values)
}
