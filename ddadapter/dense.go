package ddadapter

import (
	"math"
	"math/cmplx"
)

// denseState is the concrete backing store for a StateHandle: a full
// 2^n-entry amplitude vector, refcounted exactly the way the engine's
// ownership invariant expects of a real DD-backed state.
type denseState struct {
	amps      []complex128
	numQubits int
	refCount  int
}

// denseOp is the concrete backing store for an OpHandle: a pure
// function from (amplitude copy, qubit count) to a new amplitude slice,
// built once by GetDD/GetInverseDD/MakeIdent and applied by Multiply.
type denseOp struct {
	apply func(amps []complex128, numQubits int) []complex128
}

// DenseKernel is the in-tree Kernel implementation: a dense statevector
// simulator over arbitrary qubit counts, wrapped with the reference
// counting a real DD kernel would require.
type DenseKernel struct {
	states      map[int]*denseState
	ops         map[int]*denseOp
	nextStateID int
	nextOpID    int
}

// NewDenseKernel returns an empty kernel with no live states.
func NewDenseKernel() *DenseKernel {
	return &DenseKernel{
		states: map[int]*denseState{},
		ops:    map[int]*denseOp{},
	}
}

func (k *DenseKernel) registerState(s *denseState) *StateHandle {
	id := k.nextStateID
	k.nextStateID++
	k.states[id] = s
	return &StateHandle{id: id}
}

func (k *DenseKernel) registerOp(o *denseOp) *OpHandle {
	id := k.nextOpID
	k.nextOpID++
	k.ops[id] = o
	return &OpHandle{id: id}
}

func (k *DenseKernel) MakeZeroState(numQubits int) *StateHandle {
	n := 1 << numQubits
	amps := make([]complex128, n)
	amps[0] = 1
	return k.registerState(&denseState{amps: amps, numQubits: numQubits, refCount: 1})
}

func (k *DenseKernel) MakeIdent(numQubits int) *OpHandle {
	return k.registerOp(&denseOp{apply: func(amps []complex128, _ int) []complex128 {
		out := make([]complex128, len(amps))
		copy(out, amps)
		return out
	}})
}

func (k *DenseKernel) GetDD(op Operation, numQubits int) *OpHandle {
	return k.registerOp(&denseOp{apply: gateApplier(op, false)})
}

func (k *DenseKernel) GetInverseDD(op Operation, numQubits int) *OpHandle {
	return k.registerOp(&denseOp{apply: gateApplier(op, true)})
}

func (k *DenseKernel) Multiply(opH *OpHandle, psiH *StateHandle) *StateHandle {
	op := k.ops[opH.id]
	psi := k.states[psiH.id]
	newAmps := op.apply(psi.amps, psi.numQubits)
	return k.registerState(&denseState{amps: newAmps, numQubits: psi.numQubits, refCount: 0})
}

func (k *DenseKernel) IncRef(h *StateHandle) {
	if s, ok := k.states[h.id]; ok {
		s.refCount++
	}
}

func (k *DenseKernel) DecRef(h *StateHandle) {
	if s, ok := k.states[h.id]; ok {
		s.refCount--
	}
}

func (k *DenseKernel) GarbageCollect() {
	for id, s := range k.states {
		if s.refCount <= 0 {
			delete(k.states, id)
		}
	}
}

func (k *DenseKernel) LiveHandles() int {
	count := 0
	for _, s := range k.states {
		if s.refCount > 0 {
			count++
		}
	}
	return count
}

func (k *DenseKernel) DetermineMeasurementProbabilities(psiH *StateHandle, qubit int) (p0, p1 float64) {
	psi := k.states[psiH.id]
	bit := 1 << qubit
	for i, a := range psi.amps {
		p := real(a * cmplx.Conj(a))
		if i&bit == 0 {
			p0 += p
		} else {
			p1 += p
		}
	}
	return p0, p1
}

func (k *DenseKernel) PerformCollapsingMeasurement(psiH *StateHandle, qubit int, outcome bool) *StateHandle {
	psi := k.states[psiH.id]
	bit := 1 << qubit
	n := len(psi.amps)
	newAmps := make([]complex128, n)

	var norm float64
	for i, a := range psi.amps {
		bitSet := i&bit != 0
		if bitSet == outcome {
			newAmps[i] = a
			norm += real(a * cmplx.Conj(a))
		}
	}
	if norm > 0 {
		scale := complex(1/math.Sqrt(norm), 0)
		for i := range newAmps {
			newAmps[i] *= scale
		}
	}
	return k.registerState(&denseState{amps: newAmps, numQubits: psi.numQubits, refCount: 0})
}

func (k *DenseKernel) Amplitude(psiH *StateHandle, index int) complex128 {
	return k.states[psiH.id].amps[index]
}

func (k *DenseKernel) Amplitudes(psiH *StateHandle) []complex128 {
	psi := k.states[psiH.id]
	out := make([]complex128, len(psi.amps))
	copy(out, psi.amps)
	return out
}

func (k *DenseKernel) NumQubits(psiH *StateHandle) int {
	return k.states[psiH.id].numQubits
}

// gateApplier returns a pure apply function for one Operation. Each
// application works on a fresh copy so the kernel never mutates a state
// another handle may still reference. inverse selects the adjoint where
// one is needed (phase gates and rotations); the rest of the gate set
// here is self-inverse.
func gateApplier(op Operation, inverse bool) func([]complex128, int) []complex128 {
	mnemonic := op.Mnemonic
	params := op.Params
	qubits := op.Qubits

	return func(amps []complex128, numQubits int) []complex128 {
		out := make([]complex128, len(amps))
		copy(out, amps)

		switch mnemonic {
		case "H":
			applyH(out, qubits[0])
		case "X":
			applyX(out, qubits[0])
		case "Y":
			applyY(out, qubits[0])
		case "Z":
			applyZ(out, qubits[0])
		case "S":
			applyS(out, qubits[0], inverse)
		case "SDG":
			applyS(out, qubits[0], !inverse)
		case "T":
			applyT(out, qubits[0], inverse)
		case "TDG":
			applyT(out, qubits[0], !inverse)
		case "RX":
			applyRX(out, qubits[0], signedTheta(params, inverse))
		case "RY":
			applyRY(out, qubits[0], signedTheta(params, inverse))
		case "RZ", "P", "U1":
			applyRZ(out, qubits[0], signedTheta(params, inverse))
		case "CX":
			applyCX(out, qubits[0], qubits[1])
		case "CZ":
			applyCZ(out, qubits[0], qubits[1])
		case "SWAP":
			applySWAP(out, qubits[0], qubits[1])
		case "BARRIER":
			// no-op by construction
		}
		return out
	}
}

func signedTheta(params []float64, inverse bool) float64 {
	theta := 0.0
	if len(params) > 0 {
		theta = params[0]
	}
	if inverse {
		return -theta
	}
	return theta
}

func applyH(amps []complex128, q int) {
	hFactor := complex(1.0/math.Sqrt2, 0)
	bit := 1 << q
	src := make([]complex128, len(amps))
	copy(src, amps)
	for i := range amps {
		if i&bit == 0 {
			j := i | bit
			amps[i] = hFactor * (src[i] + src[j])
			amps[j] = hFactor * (src[i] - src[j])
		}
	}
}

func applyX(amps []complex128, q int) {
	bit := 1 << q
	for i := range amps {
		if i&bit == 0 {
			j := i | bit
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}

func applyY(amps []complex128, q int) {
	bit := 1 << q
	src := make([]complex128, len(amps))
	copy(src, amps)
	for i := range amps {
		if i&bit == 0 {
			j := i | bit
			amps[i] = 1i * src[j]
			amps[j] = -1i * src[i]
		}
	}
}

func applyZ(amps []complex128, q int) {
	bit := 1 << q
	for i := range amps {
		if i&bit != 0 {
			amps[i] *= -1
		}
	}
}

func applyS(amps []complex128, q int, dagger bool) {
	bit := 1 << q
	factor := complex128(1i)
	if dagger {
		factor = -1i
	}
	for i := range amps {
		if i&bit != 0 {
			amps[i] *= factor
		}
	}
}

func applyT(amps []complex128, q int, dagger bool) {
	bit := 1 << q
	var factor complex128
	if dagger {
		factor = cmplx.Exp(complex(0, -math.Pi/4))
	} else {
		factor = cmplx.Exp(complex(0, math.Pi/4))
	}
	for i := range amps {
		if i&bit != 0 {
			amps[i] *= factor
		}
	}
}

func applyRX(amps []complex128, q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	src := make([]complex128, len(amps))
	copy(src, amps)
	for i := range amps {
		if i&bit == 0 {
			j := i | bit
			amps[i] = c*src[i] + js*src[j]
			amps[j] = js*src[i] + c*src[j]
		}
	}
}

func applyRY(amps []complex128, q int, theta float64) {
	bit := 1 << q
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	src := make([]complex128, len(amps))
	copy(src, amps)
	for i := range amps {
		if i&bit == 0 {
			j := i | bit
			amps[i] = c*src[i] - s*src[j]
			amps[j] = s*src[i] + c*src[j]
		}
	}
}

func applyRZ(amps []complex128, q int, theta float64) {
	bit := 1 << q
	phase := cmplx.Exp(complex(0, theta/2))
	conjPhase := cmplx.Conj(phase)
	for i := range amps {
		if i&bit != 0 {
			amps[i] *= phase
		} else {
			amps[i] *= conjPhase
		}
	}
}

func applyCX(amps []complex128, control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range amps {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}

func applyCZ(amps []complex128, control, target int) {
	cBit := 1 << control
	tBit := 1 << target
	for i := range amps {
		if i&cBit != 0 && i&tBit != 0 {
			amps[i] *= -1
		}
	}
}

func applySWAP(amps []complex128, q1, q2 int) {
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := range amps {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}
