package engine

import (
	"github.com/hlalwani/qdbg/density"
	"github.com/hlalwani/qdbg/errs"
)

// GetAmplitudeIndex reads the amplitude at basis index i.
func (e *Engine) GetAmplitudeIndex(i int) (complex128, error) {
	if i < 0 || i >= (1<<e.numQubits) {
		return 0, errs.NewPreconditionError("amplitude index %d out of range for %d qubits", i, e.numQubits)
	}
	return e.kernel.Amplitude(e.psi, i), nil
}

// GetAmplitudeBitstring reads the amplitude at a little-endian
// bitstring index (bits[0] is qubit 0).
func (e *Engine) GetAmplitudeBitstring(bits string) (complex128, error) {
	if len(bits) != e.numQubits {
		return 0, errs.NewPreconditionError("bitstring length %d does not match %d qubits", len(bits), e.numQubits)
	}
	index := 0
	for q, ch := range bits {
		switch ch {
		case '1':
			index |= 1 << q
		case '0':
		default:
			return 0, errs.NewPreconditionError("invalid bitstring character %q", ch)
		}
	}
	return e.kernel.Amplitude(e.psi, index), nil
}

// ResolveQubit resolves a target expression to its global qubit
// index, substituting through the active call frames first.
func (e *Engine) ResolveQubit(expr string) (int, error) {
	return e.front.ResolveTarget(expr, e.callFrames())
}

// GetStateVectorFull returns every amplitude by basis index.
func (e *Engine) GetStateVectorFull() []complex128 {
	return e.kernel.Amplitudes(e.psi)
}

// GetStateVectorSub extracts the reduced pure state over qubits. The
// reduced density matrix must be a rank-1 projector, i.e. the targets
// unentangled with the rest.
func (e *Engine) GetStateVectorSub(qubits []int) ([]complex128, error) {
	full := e.kernel.Amplitudes(e.psi)
	rho := density.PartialTrace(full, e.numQubits, qubits)

	if p := density.Purity(rho); p < 1-1e-8 {
		return nil, errs.NewAssertionSemanticError("sub-state over %v is not legal: reduced density matrix is mixed (purity %.6f)", qubits, p)
	}

	eig := density.Eigen(rho)
	best := -1
	for i, v := range eig.Values {
		if v > 1-1e-6 {
			best = i
			break
		}
	}
	if best < 0 {
		return nil, errs.NewAssertionSemanticError("sub-state over %v is not legal: no eigenvalue equals 1", qubits)
	}
	return eig.Vectors[best], nil
}
