package ddadapter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBellStateViaHAndCX(t *testing.T) {
	k := NewDenseKernel()
	psi := k.MakeZeroState(2)

	h := k.GetDD(Operation{Mnemonic: "H", Qubits: []int{0}}, 2)
	next := k.Multiply(h, psi)
	k.IncRef(next)
	k.DecRef(psi)
	k.GarbageCollect()
	psi = next

	cx := k.GetDD(Operation{Mnemonic: "CX", Qubits: []int{0, 1}}, 2)
	next = k.Multiply(cx, psi)
	k.IncRef(next)
	k.DecRef(psi)
	k.GarbageCollect()
	psi = next

	amps := k.Amplitudes(psi)
	require.Len(t, amps, 4)
	inv := complex(1/math.Sqrt2, 0)
	require.InDelta(t, real(inv), real(amps[0]), 1e-9)
	require.InDelta(t, 0, real(amps[1]), 1e-9)
	require.InDelta(t, 0, real(amps[2]), 1e-9)
	require.InDelta(t, real(inv), real(amps[3]), 1e-9)
	require.Equal(t, 1, k.LiveHandles())
}

func TestRXInverseUndoesRotation(t *testing.T) {
	k := NewDenseKernel()
	psi := k.MakeZeroState(1)

	fwd := k.GetDD(Operation{Mnemonic: "RX", Params: []float64{math.Pi / 3}, Qubits: []int{0}}, 1)
	rotated := k.Multiply(fwd, psi)
	k.IncRef(rotated)

	inv := k.GetInverseDD(Operation{Mnemonic: "RX", Params: []float64{math.Pi / 3}, Qubits: []int{0}}, 1)
	restored := k.Multiply(inv, rotated)
	k.IncRef(restored)

	amps := k.Amplitudes(restored)
	require.InDelta(t, 1, real(amps[0]), 1e-9)
	require.InDelta(t, 0, real(amps[1]), 1e-9)
}

func TestMeasurementProbabilitiesAndCollapse(t *testing.T) {
	k := NewDenseKernel()
	psi := k.MakeZeroState(1)
	h := k.GetDD(Operation{Mnemonic: "H", Qubits: []int{0}}, 1)
	next := k.Multiply(h, psi)
	k.IncRef(next)

	p0, p1 := k.DetermineMeasurementProbabilities(next, 0)
	require.InDelta(t, 0.5, p0, 1e-9)
	require.InDelta(t, 0.5, p1, 1e-9)

	collapsed := k.PerformCollapsingMeasurement(next, 0, true)
	k.IncRef(collapsed)
	amps := k.Amplitudes(collapsed)
	require.InDelta(t, 0, real(amps[0]), 1e-9)
	require.InDelta(t, 1, real(amps[1]), 1e-9)
}
