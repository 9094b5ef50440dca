// Package ddadapter bridges the execution engine to a quantum state
// kernel behind a small ref-counted interface. A real deployment would
// drive an external decision diagram package through this seam; the
// dense kernel here is the in-tree stand-in.
package ddadapter

// StateHandle is an opaque, ref-counted reference to a quantum state.
type StateHandle struct {
	id int
}

// OpHandle is an opaque reference to a gate operator. Operators are
// built fresh per application and carry no refcount.
type OpHandle struct {
	id int
}

// Operation describes one gate application, already resolved to
// global qubit indices.
type Operation struct {
	Mnemonic string
	Params   []float64
	Qubits   []int // mnemonic order; [control, target] for CX/CZ
}

// Kernel is the numerical backend the engine drives, mirroring the
// operations a real decision-diagram library would expose.
type Kernel interface {
	// MakeZeroState returns |0...0>, with one reference already held.
	MakeZeroState(numQubits int) *StateHandle

	// MakeIdent returns the identity operator.
	MakeIdent(numQubits int) *OpHandle

	GetDD(op Operation, numQubits int) *OpHandle
	GetInverseDD(op Operation, numQubits int) *OpHandle

	// Multiply returns op applied to psi. The result starts with a
	// refcount of zero; IncRef it before DecRef-ing what it replaces.
	Multiply(op *OpHandle, psi *StateHandle) *StateHandle

	IncRef(h *StateHandle)
	DecRef(h *StateHandle)
	GarbageCollect()

	// DetermineMeasurementProbabilities returns (p0, p1) for qubit
	// without collapsing it.
	DetermineMeasurementProbabilities(psi *StateHandle, qubit int) (p0, p1 float64)

	// PerformCollapsingMeasurement returns a renormalized state with
	// qubit projected onto the outcome.
	PerformCollapsingMeasurement(psi *StateHandle, qubit int, outcome bool) *StateHandle

	Amplitude(psi *StateHandle, index int) complex128
	Amplitudes(psi *StateHandle) []complex128
	NumQubits(psi *StateHandle) int

	// LiveHandles counts states with a nonzero refcount, for leak tests.
	LiveHandles() int
}
