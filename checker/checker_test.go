package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/engine"
)

func newReadyEngine(t *testing.T, src string) *engine.Engine {
	t.Helper()
	e := engine.NewSeeded(ddadapter.NewDenseKernel(), nil, 7)
	require.NoError(t, e.LoadCode(src))
	_, err := e.RunAll()
	require.NoError(t, err)
	return e
}

func TestCheckEntanglementPassesOnBellState(t *testing.T) {
	e := newReadyEngine(t, `qreg q[2];
h q[0];
cx q[0],q[1];`)

	a := &assertion.Assertion{Kind: assertion.Entanglement, Targets: []string{"q[0]", "q[1]"}}
	ok, err := New().Check(e, a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckEntanglementFailsOnSeparableState(t *testing.T) {
	e := newReadyEngine(t, `qreg q[2];
h q[0];
h q[1];`)

	a := &assertion.Assertion{Kind: assertion.Entanglement, Targets: []string{"q[0]", "q[1]"}}
	ok, err := New().Check(e, a)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckSuperpositionPassesAfterHadamard(t *testing.T) {
	e := newReadyEngine(t, `qreg q[1];
h q[0];`)

	a := &assertion.Assertion{Kind: assertion.Superposition, Targets: []string{"q[0]"}}
	ok, err := New().Check(e, a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckSuperpositionFailsOnBasisState(t *testing.T) {
	e := newReadyEngine(t, `qreg q[1];
x q[0];`)

	a := &assertion.Assertion{Kind: assertion.Superposition, Targets: []string{"q[0]"}}
	ok, err := New().Check(e, a)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckStatevectorEqualityPassesOnPlusState(t *testing.T) {
	e := newReadyEngine(t, `qreg q[1];
h q[0];`)

	inv := 1 / 1.4142135623730951
	a := &assertion.Assertion{
		Kind:                assertion.StatevectorEquality,
		Targets:             []string{"q[0]"},
		SimilarityThreshold: 0.999,
		Expected: &assertion.Statevector{Amplitudes: []assertion.Complex{
			{Real: inv}, {Real: inv},
		}},
	}
	ok, err := New().Check(e, a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckStatevectorEqualityErrorsOnEntangledTarget(t *testing.T) {
	e := newReadyEngine(t, `qreg q[2];
h q[0];
cx q[0],q[1];`)

	a := &assertion.Assertion{
		Kind:                assertion.StatevectorEquality,
		Targets:             []string{"q[0]"},
		SimilarityThreshold: 0.9,
		Expected:            &assertion.Statevector{Amplitudes: []assertion.Complex{{Real: 1}, {Real: 0}}},
	}
	_, err := New().Check(e, a)
	require.Error(t, err)
}

func TestCheckCircuitEqualityPassesAgainstEquivalentCircuit(t *testing.T) {
	e := newReadyEngine(t, `qreg q[1];
x q[0];`)

	a := &assertion.Assertion{
		Kind:                assertion.CircuitEquality,
		Targets:             []string{"q[0]"},
		SimilarityThreshold: 0.999,
		CircuitCode:         "qreg q[1];\nx q[0];\n",
	}
	ok, err := New().Check(e, a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCheckCircuitEqualitySynthesizesTargetDeclarations(t *testing.T) {
	e := newReadyEngine(t, `qreg q[2];
h q[0];
cx q[0],q[1];`)

	// The body references the assertion's own targets without a qreg of
	// its own, the way the source grammar writes it.
	a := &assertion.Assertion{
		Kind:                assertion.CircuitEquality,
		Targets:             []string{"q[0]", "q[1]"},
		SimilarityThreshold: 0.999,
		CircuitCode:         " h q[0]; cx q[0], q[1]; ",
	}
	ok, err := New().Check(e, a)
	require.NoError(t, err)
	require.True(t, ok)
}
