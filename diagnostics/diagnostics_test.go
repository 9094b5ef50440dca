package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hlalwani/qdbg/checker"
	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/engine"
)

func TestGetZeroControlInstructionsFlagsAnAlwaysZeroControl(t *testing.T) {
	tr := NewTracker()
	e := engine.NewSeeded(ddadapter.NewDenseKernel(), tr, 1)
	e.SetChecker(checker.New())
	require.NoError(t, e.LoadCode(`qreg q[3];
h q[0];
cx q[0],q[1];
cx q[2],q[0];
assert-ent q[0],q[1];
assert-ent q[0],q[2];`))

	failures, err := e.RunAll()
	require.NoError(t, err)
	require.Equal(t, 1, failures)

	flagged := tr.GetZeroControlInstructions()
	require.NotEmpty(t, flagged)

	instructions := e.Instructions()
	foundSecondCX := false
	for _, id := range flagged {
		if instructions[id].Op != nil && instructions[id].Op.Mnemonic == "CX" {
			foundSecondCX = true
		}
	}
	require.True(t, foundSecondCX, "expected the always-|0> controlled cx to be flagged")
}

func TestPotentialErrorCausesExplainsMissedEntanglement(t *testing.T) {
	tr := NewTracker()
	e := engine.NewSeeded(ddadapter.NewDenseKernel(), tr, 1)
	e.SetChecker(checker.New())
	require.NoError(t, e.LoadCode(`qreg q[3];
h q[0];
cx q[0],q[1];
cx q[2],q[0];
assert-ent q[0],q[1];
assert-ent q[0],q[2];`))

	require.NoError(t, e.RunSimulation())
	require.True(t, e.DidAssertionFail())

	failedID := e.GetCurrentInstruction()
	causes, err := PotentialErrorCauses(e, tr, failedID, 3)
	require.NoError(t, err)
	require.NotEmpty(t, causes)

	sawZeroControl := false
	for _, c := range causes {
		if c.Kind == ZeroControl {
			sawZeroControl = true
		}
	}
	require.True(t, sawZeroControl)
}

func TestGetDataDependenciesTracksLastWriterChain(t *testing.T) {
	e := engine.NewSeeded(ddadapter.NewDenseKernel(), nil, 1)
	require.NoError(t, e.LoadCode(`qreg q[2];
h q[0];
x q[0];
cx q[0],q[1];`))

	instructions := e.Instructions()
	var cxID int
	for _, in := range instructions {
		if in.Op != nil && in.Op.Mnemonic == "CX" {
			cxID = in.ID
		}
	}

	deps := GetDataDependencies(instructions, cxID, false)
	require.Contains(t, deps, cxID)
	require.Len(t, deps, 3, "cx's dependency chain on q[0] should transitively reach both the x and the earlier h")
}

func TestGetDataDependenciesIncludesCallSitesAcrossAGateBody(t *testing.T) {
	e := engine.NewSeeded(ddadapter.NewDenseKernel(), nil, 1)
	require.NoError(t, e.LoadCode(`qreg q[2];
gate bump q0 {
  x q0;
}
bump q[0];
cx q[0],q[1];`))

	instructions := e.Instructions()
	var xID, callID int
	for _, in := range instructions {
		switch {
		case in.Op != nil && in.Op.Mnemonic == "X" && in.FunctionName == "bump":
			xID = in.ID
		case in.IsFunctionCall:
			callID = in.ID
		}
	}

	deps := GetDataDependencies(instructions, xID, true)
	require.Contains(t, deps, callID, "crossing into bump's body should pull in its call site")

	withoutCallers := GetDataDependencies(instructions, xID, false)
	require.NotContains(t, withoutCallers, callID, "without includeCallers the call site shouldn't be pulled in")
}

func TestGetInteractionsFindsDirectCoOccurrence(t *testing.T) {
	e := engine.NewSeeded(ddadapter.NewDenseKernel(), nil, 1)
	require.NoError(t, e.LoadCode(`qreg q[3];
h q[0];
cx q[0],q[1];
cx q[2],q[0];
assert-ent q[0],q[1];`))

	instructions := e.Instructions()
	var lastAssertID int
	for _, in := range instructions {
		if in.Kind.String() == "ASSERTION" {
			lastAssertID = in.ID
		}
	}

	q0, err := e.ResolveQubit("q[0]")
	require.NoError(t, err)
	reachable, err := GetInteractions(instructions, e.Registers(), lastAssertID, q0)
	require.NoError(t, err)

	q1, err := e.ResolveQubit("q[1]")
	require.NoError(t, err)
	q2, err := e.ResolveQubit("q[2]")
	require.NoError(t, err)
	require.Contains(t, reachable, q1)
	require.Contains(t, reachable, q2)
}
