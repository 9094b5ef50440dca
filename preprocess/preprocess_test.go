package preprocess

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hlalwani/qdbg/instr"
)

func TestPreprocessSimpleBellCircuit(t *testing.T) {
	src := `qreg q[2];
creg c[2];
h q[0];
cx q[0],q[1];
assert-ent q[0],q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];`

	res, err := Preprocess(src)
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Equal(t, 2, res.Registers.NumQubits())
	require.Equal(t, 2, res.Registers.NumClassicalBits())
	require.Len(t, res.Assertions, 1)
	require.Equal(t, instr.ASSERTION, res.Instructions[2].Kind)

	// Dense, source-ordered ids: h(0), cx(1), assert(2), measure(3), measure(4).
	require.Len(t, res.Instructions, 5)
	require.Equal(t, "H", res.Instructions[0].Op.Mnemonic)
	require.Equal(t, []string{"q[0]"}, res.Instructions[0].Targets)
	require.Equal(t, "CX", res.Instructions[1].Op.Mnemonic)
	require.Equal(t, []string{"q[0]", "q[1]"}, res.Instructions[1].Targets)

	// The final instruction falls through to the isFinished sentinel id.
	last := res.Instructions[len(res.Instructions)-1]
	require.False(t, last.Successor.Pop)
	require.Equal(t, len(res.Instructions), last.Successor.Target)

	// Sequential successor wiring skips nothing at the top level here.
	require.Equal(t, instr.Next(1), res.Instructions[0].Successor)
	require.Equal(t, instr.Next(2), res.Instructions[1].Successor)
}

func TestPreprocessGateDefinitionAndCall(t *testing.T) {
	src := `qreg q[2];
gate bell a,b { h a; cx a,b; }
bell q[0],q[1];`

	res, err := Preprocess(src)
	require.NoError(t, err)

	// ids: header(0), h(1), cx(2), return(3), call(4).
	require.Len(t, res.Instructions, 5)

	header := res.Instructions[0]
	require.True(t, header.IsFunctionDefinition)
	require.Len(t, header.Block, 3)
	require.Equal(t, instr.NOP, header.Kind)

	body := header.Block
	require.Equal(t, "H", body[0].Op.Mnemonic)
	require.Equal(t, []string{"a"}, body[0].Targets)
	require.Equal(t, instr.RETURN, body[2].Kind)
	require.True(t, body[2].Successor.Pop)

	call := res.Instructions[4]
	require.True(t, call.IsFunctionCall)
	require.Equal(t, "bell", call.CalledFunction)
	require.Equal(t, []string{"q[0]", "q[1]"}, call.Targets)
	require.Equal(t, map[string]string{"a": "q[0]", "b": "q[1]"}, call.CallSubstitution)
	// The call's successor jumps into the callee's first body instruction,
	// not the next top-level statement.
	require.Equal(t, instr.Next(body[0].ID), call.Successor)

	// Defining a gate doesn't execute it: the header's successor skips
	// past the body to the call.
	require.Equal(t, instr.Next(call.ID), header.Successor)
}

func TestPreprocessClassicalControlledGate(t *testing.T) {
	src := `qreg q[1];
creg c[1];
measure q[0] -> c[0];
if (c[0]==1) x q[0];`

	res, err := Preprocess(src)
	require.NoError(t, err)
	require.Len(t, res.Instructions, 2)

	guarded := res.Instructions[1]
	require.NotNil(t, guarded.Op.ClassicalControl)
	require.Equal(t, "c", guarded.Op.ClassicalControl.Register)
	require.Equal(t, 0, guarded.Op.ClassicalControl.Index)
	require.Equal(t, 1, guarded.Op.ClassicalControl.Value)
	require.Equal(t, "X", guarded.Op.Mnemonic)
}

func TestPreprocessDataDependenciesChain(t *testing.T) {
	src := `qreg q[1];
h q[0];
x q[0];
h q[0];`

	res, err := Preprocess(src)
	require.NoError(t, err)
	require.Len(t, res.Instructions, 3)

	require.Empty(t, res.Instructions[0].DataDependencies)
	require.Equal(t, []instr.DataDependency{{InstructionID: 0, TargetIndex: 0}}, res.Instructions[1].DataDependencies)
	require.Equal(t, []instr.DataDependency{{InstructionID: 1, TargetIndex: 0}}, res.Instructions[2].DataDependencies)
}

func TestPreprocessCleanSourceDropsAssertions(t *testing.T) {
	src := `qreg q[1];
h q[0];
assert-sup q[0];
x q[0];`

	res, err := Preprocess(src)
	require.NoError(t, err)
	require.NotContains(t, res.CleanSource, "assert-")
	require.Contains(t, res.CleanSource, "h q[0]")
	require.Contains(t, res.CleanSource, "x q[0]")
}

func TestPreprocessRejectsOutOfBoundsTarget(t *testing.T) {
	src := `qreg q[1];
h q[3];`

	_, err := Preprocess(src)
	require.Error(t, err)
}

func TestPreprocessRejectsArityMismatchOnCall(t *testing.T) {
	src := `qreg q[2];
gate bell a,b { h a; cx a,b; }
bell q[0];`

	_, err := Preprocess(src)
	require.Error(t, err)
}

func TestPreprocessMeasureAndReset(t *testing.T) {
	src := `qreg q[1];
creg c[1];
measure q[0] -> c[0];
reset q[0];`

	res, err := Preprocess(src)
	require.NoError(t, err)
	require.Len(t, res.Instructions, 2)
	require.True(t, res.Instructions[0].Op.IsMeasure)
	require.Equal(t, []string{"c[0]"}, res.Instructions[0].Op.MeasureDests)
	require.True(t, res.Instructions[1].Op.IsReset)
}

func TestPreprocessWholeRegisterMeasure(t *testing.T) {
	src := `qreg q[2];
creg c[2];
measure q -> c;`

	res, err := Preprocess(src)
	require.NoError(t, err)
	require.Len(t, res.Instructions, 1)

	in := res.Instructions[0]
	require.Equal(t, []string{"q[0]", "q[1]"}, in.Targets)
	require.Equal(t, []string{"c[0]", "c[1]"}, in.Op.MeasureDests)
}

func TestPreprocessWholeRegisterMeasureSizeMismatch(t *testing.T) {
	src := `qreg q[2];
creg c[1];
measure q -> c;`

	_, err := Preprocess(src)
	require.Error(t, err)
}

func TestPreprocessWholeRegisterReset(t *testing.T) {
	src := `qreg q[2];
reset q;`

	res, err := Preprocess(src)
	require.NoError(t, err)
	require.Len(t, res.Instructions, 1)
	require.Equal(t, []string{"q[0]", "q[1]"}, res.Instructions[0].Targets)
}
