package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hlalwani/qdbg/ddadapter"
)

func newTestEngine(t *testing.T, src string) *Engine {
	t.Helper()
	e := NewSeeded(ddadapter.NewDenseKernel(), nil, 1)
	require.NoError(t, e.LoadCode(src))
	return e
}

func amplitude(t *testing.T, e *Engine, index int) complex128 {
	t.Helper()
	return e.Kernel().Amplitude(e.State(), index)
}

func TestBellCircuitEndsEntangled(t *testing.T) {
	e := newTestEngine(t, `qreg q[2];
h q[0];
cx q[0],q[1];`)

	_, err := e.RunAll()
	require.NoError(t, err)
	require.True(t, e.IsFinished())

	const inv = 1 / math.Sqrt2
	require.InDelta(t, inv, real(amplitude(t, e, 0)), 1e-9)
	require.InDelta(t, 0, real(amplitude(t, e, 1)), 1e-9)
	require.InDelta(t, 0, real(amplitude(t, e, 2)), 1e-9)
	require.InDelta(t, inv, real(amplitude(t, e, 3)), 1e-9)
}

func TestStepForwardAdvancesOneInstructionAtATime(t *testing.T) {
	e := newTestEngine(t, `qreg q[2];
h q[0];
cx q[0],q[1];`)

	require.Equal(t, 0, e.GetCurrentInstruction())
	require.NoError(t, e.StepForward())
	require.Equal(t, 1, e.GetCurrentInstruction())
	require.InDelta(t, 1/math.Sqrt2, real(amplitude(t, e, 0)), 1e-9)
	require.InDelta(t, 1/math.Sqrt2, real(amplitude(t, e, 1)), 1e-9)

	require.NoError(t, e.StepForward())
	require.True(t, e.IsFinished())
}

func TestStepBackwardUndoesGateApplication(t *testing.T) {
	e := newTestEngine(t, `qreg q[1];
h q[0];`)

	require.NoError(t, e.StepForward())
	require.InDelta(t, 1/math.Sqrt2, real(amplitude(t, e, 0)), 1e-9)

	require.True(t, e.CanStepBackward())
	require.NoError(t, e.StepBackward())
	require.Equal(t, 0, e.GetCurrentInstruction())
	require.InDelta(t, 1, real(amplitude(t, e, 0)), 1e-9)
	require.InDelta(t, 0, real(amplitude(t, e, 1)), 1e-9)
}

func TestReverseStepRoundTripLeavesNoLeakedReference(t *testing.T) {
	e := newTestEngine(t, `qreg q[2];
h q[0];
cx q[0],q[1];
h q[1];`)

	for !e.IsFinished() {
		require.NoError(t, e.StepForward())
	}
	for e.CanStepBackward() {
		require.NoError(t, e.StepBackward())
	}

	require.Equal(t, 0, e.GetCurrentInstruction())
	require.InDelta(t, 1, real(amplitude(t, e, 0)), 1e-9)
	require.Equal(t, 1, e.Kernel().LiveHandles())
}

func TestMeasurementIsIrreversible(t *testing.T) {
	e := newTestEngine(t, `qreg q[1];
creg c[1];
h q[0];
measure q[0] -> c[0];`)

	require.NoError(t, e.StepForward())
	require.NoError(t, e.StepForward())
	require.True(t, e.IsFinished())
	require.False(t, e.CanStepBackward())
}

func TestStepOverForwardSkipsGateBody(t *testing.T) {
	e := newTestEngine(t, `qreg q[2];
gate bump q0 {
  x q0;
}
h q[0];
bump q[1];
h q[1];`)

	require.NoError(t, e.StepForward()) // gate definition header
	require.NoError(t, e.StepForward()) // h q[0]
	require.Equal(t, 0, len(e.callStack))

	require.NoError(t, e.StepOverForward()) // over the bump call
	require.Equal(t, 0, len(e.callStack))
	require.InDelta(t, 1/math.Sqrt2, real(amplitude(t, e, 2)), 1e-9)
	require.InDelta(t, 1/math.Sqrt2, real(amplitude(t, e, 3)), 1e-9)
}

func TestClassicallyControlledGateRespectsMeasuredBit(t *testing.T) {
	e := newTestEngine(t, `qreg q[2];
creg c[1];
x q[0];
measure q[0] -> c[0];
if (c[0]==1) x q[1];`)

	require.NoError(t, e.StepForward())
	require.NoError(t, e.StepForward())
	v, err := e.GetClassicalVariable("c[0]")
	require.NoError(t, err)
	require.True(t, v)

	require.NoError(t, e.StepForward())
	require.True(t, e.IsFinished())
	require.InDelta(t, 1, real(amplitude(t, e, 3)), 1e-9) // both qubits now |1>
}

func TestSetBreakpointStopsRunAtInnermostSpan(t *testing.T) {
	e := newTestEngine(t, `qreg q[1];
h q[0];
x q[0];
h q[0];`)

	pos := e.instructions[1].SourceStart
	id, err := e.SetBreakpoint(pos)
	require.NoError(t, err)
	require.Equal(t, 1, id)

	require.NoError(t, e.RunSimulation())
	require.Equal(t, 1, e.GetCurrentInstruction())
	require.True(t, e.WasBreakpointHit())
}

func TestRunAllCountsFailedAssertionsAndResets(t *testing.T) {
	e := newTestEngine(t, `qreg q[1];
h q[0];
assert-ent q[0];`)
	// No checker bound: every ASSERTION passes, so this should report 0
	// failures and leave the engine having run to completion.
	failures, err := e.RunAll()
	require.NoError(t, err)
	require.Equal(t, 0, failures)
	require.True(t, e.IsFinished())
}

func TestAmplitudeByIndexAndBitstringAgree(t *testing.T) {
	e := newTestEngine(t, `qreg q[2];
h q[0];`)
	_, err := e.RunAll()
	require.NoError(t, err)

	// bits[0] is qubit 0: "10" is qubit0=1, qubit1=0, index 1.
	byBits, err := e.GetAmplitudeBitstring("10")
	require.NoError(t, err)
	byIndex, err := e.GetAmplitudeIndex(1)
	require.NoError(t, err)
	require.Equal(t, byIndex, byBits)
	require.InDelta(t, 1/math.Sqrt2, real(byBits), 1e-9)
}

func TestWholeRegisterMeasureWritesEveryBit(t *testing.T) {
	e := newTestEngine(t, `qreg q[2];
creg c[2];
x q[0];
x q[1];
measure q -> c;`)

	_, err := e.RunAll()
	require.NoError(t, err)
	require.True(t, e.IsFinished())
	require.False(t, e.CanStepBackward())

	for _, name := range []string{"c[0]", "c[1]"} {
		v, err := e.GetClassicalVariable(name)
		require.NoError(t, err)
		require.True(t, v)
	}
}
