package engine

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/errs"
	"github.com/hlalwani/qdbg/instr"
)

// StepForward advances one instruction: resolve the successor, update
// the call and previous stacks, then dispatch on the instruction kind.
func (e *Engine) StepForward() error {
	if !e.ready {
		return errs.NewPreconditionError("engine not ready: call LoadCode first")
	}
	if e.IsFinished() {
		return errs.NewPreconditionError("cannot step forward: simulation finished")
	}

	i := e.currentInstruction
	in := e.instructions[i]

	next := in.Successor
	if next.Pop {
		callerID := e.callStack[len(e.callStack)-1]
		e.callStack = e.callStack[:len(e.callStack)-1]
		e.currentInstruction = callerID + 1
		e.restoreStack = append(e.restoreStack, restoreEntry{ReturnTargetID: e.currentInstruction, CallerID: callerID})
	} else {
		e.currentInstruction = next.Target
	}

	if e.breakpoints[e.currentInstruction] {
		e.lastMetBreakpoint = e.currentInstruction
	}
	if in.Kind == instr.CALL {
		e.callStack = append(e.callStack, i)
	}
	e.previousStack = append(e.previousStack, i)

	switch in.Kind {
	case instr.NOP, instr.CALL, instr.RETURN:
		// No DD work.
	case instr.ASSERTION:
		return e.dispatchAssertion(i, in)
	case instr.SIMULATE:
		return e.dispatchSimulateForward(in)
	}
	return nil
}

func (e *Engine) dispatchAssertion(i int, in *instr.Instruction) error {
	passed, err := e.evaluateAssertion(in)
	if err != nil {
		return err
	}
	if !passed && e.lastFailedAssertion != i {
		e.lastFailedAssertion = i
		log.Warn().Int("instruction", i).Msg("assertion failed, rewinding one step")
		return e.StepBackward()
	}
	return nil
}

// StepBackward undoes the most recently executed instruction. Measure
// and Reset clear previousStack, so stepping back across them never
// comes up.
func (e *Engine) StepBackward() error {
	if len(e.previousStack) == 0 {
		return errs.NewPreconditionError("cannot step backward: no prior instruction")
	}

	i := e.previousStack[len(e.previousStack)-1]
	e.previousStack = e.previousStack[:len(e.previousStack)-1]

	if len(e.restoreStack) > 0 {
		top := e.restoreStack[len(e.restoreStack)-1]
		if top.ReturnTargetID == e.currentInstruction {
			e.callStack = append(e.callStack, top.CallerID)
			e.restoreStack = e.restoreStack[:len(e.restoreStack)-1]
		}
	}
	if len(e.callStack) > 0 && e.callStack[len(e.callStack)-1] == i {
		e.callStack = e.callStack[:len(e.callStack)-1]
	}

	e.currentInstruction = i
	if e.breakpoints[i] {
		e.lastMetBreakpoint = i
	}

	in := e.instructions[i]
	if in.Kind == instr.SIMULATE {
		return e.dispatchSimulateBackward(in)
	}
	return nil
}

// StepOverForward steps forward; on a CALL it keeps going until
// control returns to the call's sibling, or a breakpoint, failed
// assertion or pause stops it.
func (e *Engine) StepOverForward() error {
	cur := e.currentInstruction
	if !e.ready || e.IsFinished() {
		return e.StepForward()
	}
	wasCall := e.instructions[cur].Kind == instr.CALL

	if err := e.StepForward(); err != nil {
		return err
	}
	if !wasCall || e.DidAssertionFail() || e.WasBreakpointHit() {
		return nil
	}

	target := len(e.callStack) - 1
	for len(e.callStack) > target {
		if e.IsFinished() {
			return nil
		}
		if e.paused {
			e.paused = false
			return nil
		}
		if err := e.StepForward(); err != nil {
			return err
		}
		if e.DidAssertionFail() || e.WasBreakpointHit() {
			return nil
		}
	}
	return nil
}

// StepOverBackward steps backward; on a RETURN it keeps going until
// the call stack shrinks back to its prior size.
func (e *Engine) StepOverBackward() error {
	if len(e.previousStack) == 0 {
		return errs.NewPreconditionError("cannot step backward: no prior instruction")
	}
	topID := e.previousStack[len(e.previousStack)-1]
	if e.instructions[topID].Kind != instr.RETURN {
		return e.StepBackward()
	}

	depth0 := len(e.callStack)
	if err := e.StepBackward(); err != nil {
		return err
	}
	for len(e.callStack) > depth0 {
		if len(e.previousStack) == 0 {
			return nil
		}
		if err := e.StepBackward(); err != nil {
			return err
		}
	}
	return nil
}

// StepOutForward runs forward until the enclosing call returns. With
// an empty call stack it is equivalent to RunSimulation.
func (e *Engine) StepOutForward() error {
	if len(e.callStack) == 0 {
		return e.RunSimulation()
	}
	target := len(e.callStack) - 1
	for len(e.callStack) > target {
		if e.IsFinished() {
			return nil
		}
		if e.paused {
			e.paused = false
			return nil
		}
		if err := e.StepForward(); err != nil {
			return err
		}
		if e.DidAssertionFail() || e.WasBreakpointHit() {
			return nil
		}
	}
	return nil
}

// StepOutBackward is the symmetric reverse of StepOutForward: it runs
// backward until the call stack shrinks back by one, stopping on a hit
// breakpoint or a failing assertion the same way the forward loop does.
func (e *Engine) StepOutBackward() error {
	if len(e.callStack) == 0 {
		return e.RunSimulationBackward()
	}
	target := len(e.callStack) - 1
	for len(e.callStack) > target {
		if len(e.previousStack) == 0 {
			return nil
		}
		if e.paused {
			e.paused = false
			return nil
		}
		if err := e.StepBackward(); err != nil {
			return err
		}
		if e.WasBreakpointHit() || e.DidAssertionFail() {
			return nil
		}
	}
	return nil
}

// RunSimulation steps forward until the program finishes, a breakpoint
// is hit, an assertion fails, or a pause is requested.
func (e *Engine) RunSimulation() error {
	for !e.IsFinished() {
		if e.paused {
			e.paused = false
			return nil
		}
		if err := e.StepForward(); err != nil {
			return err
		}
		if e.DidAssertionFail() || e.WasBreakpointHit() {
			return nil
		}
	}
	return nil
}

// RunSimulationBackward is RunSimulation's mirror image.
func (e *Engine) RunSimulationBackward() error {
	for len(e.previousStack) > 0 {
		if e.paused {
			e.paused = false
			return nil
		}
		if err := e.StepBackward(); err != nil {
			return err
		}
		if e.DidAssertionFail() || e.WasBreakpointHit() {
			return nil
		}
	}
	return nil
}

// RunAll resets the program and runs it to completion, counting failed
// assertions. A breakpoint still interrupts the run early.
func (e *Engine) RunAll() (int, error) {
	e.ResetSimulation()
	failures := 0
	for !e.IsFinished() {
		if err := e.RunSimulation(); err != nil {
			return failures, err
		}
		if e.DidAssertionFail() {
			failures++
			if err := e.StepForward(); err != nil {
				return failures, err
			}
			continue
		}
		if e.WasBreakpointHit() {
			break
		}
		if !e.IsFinished() {
			// RunSimulation returned without finishing, failing, or
			// hitting a breakpoint: a pause request stopped it early.
			break
		}
	}
	return failures, nil
}

// dispatchSimulateForward applies one SIMULATE instruction's forward
// effect.
func (e *Engine) dispatchSimulateForward(in *instr.Instruction) error {
	op := in.Op
	switch {
	case op.IsBarrier:
		return nil
	case op.IsMeasure:
		return e.doMeasure(in)
	case op.IsReset:
		return e.doReset(in)
	default:
		return e.doGateForward(in)
	}
}

func (e *Engine) dispatchSimulateBackward(in *instr.Instruction) error {
	op := in.Op
	if op.IsBarrier || op.IsMeasure || op.IsReset {
		return nil
	}
	return e.doGateBackward(in)
}

func (e *Engine) doGateForward(in *instr.Instruction) error {
	resolved, controlQubit, err := e.resolveWithControl(in)
	if err != nil {
		return err
	}

	useIdentity, err := e.classicalControlBlocks(in.Op)
	if err != nil {
		return err
	}

	if e.obs != nil && controlQubit >= 0 {
		p0, _ := e.kernel.DetermineMeasurementProbabilities(e.psi, controlQubit)
		e.obs.RecordExecution(in.ID, resolved.Qubits, controlQubit, p0 > 1-1e-9)
	} else if e.obs != nil {
		e.obs.RecordExecution(in.ID, resolved.Qubits, -1, false)
	}

	var opHandle *ddadapter.OpHandle
	if useIdentity {
		opHandle = e.kernel.MakeIdent(e.numQubits)
	} else {
		opHandle = e.kernel.GetDD(resolved, e.numQubits)
	}
	e.applyOperator(opHandle)
	return nil
}

func (e *Engine) doGateBackward(in *instr.Instruction) error {
	resolved, _, err := e.resolveWithControl(in)
	if err != nil {
		return err
	}
	useIdentity, err := e.classicalControlBlocks(in.Op)
	if err != nil {
		return err
	}

	var opHandle *ddadapter.OpHandle
	if useIdentity {
		opHandle = e.kernel.MakeIdent(e.numQubits)
	} else {
		opHandle = e.kernel.GetInverseDD(resolved, e.numQubits)
	}
	e.applyOperator(opHandle)
	return nil
}

// resolveWithControl resolves the instruction's operation and reports
// the control qubit position for two-qubit gates (CX/CZ), -1 otherwise.
func (e *Engine) resolveWithControl(in *instr.Instruction) (ddadapter.Operation, int, error) {
	resolved, err := e.front.ResolveOperation(in, e.callFrames())
	if err != nil {
		return ddadapter.Operation{}, -1, err
	}
	controlQubit := -1
	switch resolved.Mnemonic {
	case "CX", "CZ":
		if len(resolved.Qubits) > 0 {
			controlQubit = resolved.Qubits[0]
		}
	}
	return resolved, controlQubit, nil
}

// classicalControlBlocks reports whether a classical guard currently
// evaluates false. The backward stepper reuses the live classical
// values here, which is only exact if no later measurement rewrote
// them. Known limitation.
func (e *Engine) classicalControlBlocks(op *instr.GateOp) (bool, error) {
	cc := op.ClassicalControl
	if cc == nil {
		return false, nil
	}
	val, err := e.readClassicalControl(cc)
	if err != nil {
		return false, err
	}
	return val != cc.Value, nil
}

func (e *Engine) readClassicalControl(cc *instr.ClassicalControl) (int, error) {
	if cc.Index >= 0 {
		name := cc.Register + "[" + strconv.Itoa(cc.Index) + "]"
		v, ok := e.classicalVars[name]
		if !ok {
			return 0, errs.NewPreconditionError("unknown classical variable %q", name)
		}
		if v {
			return 1, nil
		}
		return 0, nil
	}
	def, ok := e.registers.Lookup(cc.Register)
	if !ok || !def.Classical {
		return 0, errs.NewPreconditionError("unknown classical register %q", cc.Register)
	}
	value := 0
	for i := 0; i < def.Size; i++ {
		name := cc.Register + "[" + strconv.Itoa(i) + "]"
		if e.classicalVars[name] {
			value |= 1 << i
		}
	}
	return value, nil
}

func (e *Engine) applyOperator(op *ddadapter.OpHandle) {
	next := e.kernel.Multiply(op, e.psi)
	e.kernel.IncRef(next)
	e.kernel.DecRef(e.psi)
	e.psi = next
	e.kernel.GarbageCollect()
}

// collapseQubit draws an outcome for one qubit and replaces psi with
// the collapsed state.
func (e *Engine) collapseQubit(qubit int) bool {
	_, p1 := e.kernel.DetermineMeasurementProbabilities(e.psi, qubit)
	outcomeIsOne := e.rand.Float64() < p1

	collapsed := e.kernel.PerformCollapsingMeasurement(e.psi, qubit, outcomeIsOne)
	e.kernel.IncRef(collapsed)
	e.kernel.DecRef(e.psi)
	e.psi = collapsed
	e.kernel.GarbageCollect()
	return outcomeIsOne
}

// doMeasure collapses each target qubit and writes the outcome into the
// matching classical destination. Irreversible: clears both
// reversibility stacks.
func (e *Engine) doMeasure(in *instr.Instruction) error {
	resolved, err := e.front.ResolveOperation(in, e.callFrames())
	if err != nil {
		return err
	}
	if len(resolved.Qubits) == 0 {
		return errs.NewParsingError(0, "operation %q has no target qubit", in.Op.Mnemonic)
	}
	for i, qubit := range resolved.Qubits {
		outcomeIsOne := e.collapseQubit(qubit)
		dest := in.Op.MeasureDests[i]
		e.classicalVars[dest] = outcomeIsOne
		log.Debug().Str("dest", dest).Bool("outcome", outcomeIsOne).Msg("measurement collapsed")
	}
	e.previousStack = nil
	e.restoreStack = nil
	return nil
}

// doReset measures each target qubit, discards the outcome, and applies
// X where it collapsed to |1>. Also irreversible.
func (e *Engine) doReset(in *instr.Instruction) error {
	resolved, err := e.front.ResolveOperation(in, e.callFrames())
	if err != nil {
		return err
	}
	if len(resolved.Qubits) == 0 {
		return errs.NewParsingError(0, "operation %q has no target qubit", in.Op.Mnemonic)
	}
	for _, qubit := range resolved.Qubits {
		if e.collapseQubit(qubit) {
			opX := e.kernel.GetDD(ddadapter.Operation{Mnemonic: "X", Qubits: []int{qubit}}, e.numQubits)
			e.applyOperator(opX)
		}
	}
	e.previousStack = nil
	e.restoreStack = nil
	return nil
}
