package diagnostics

import (
	"sort"
	"strconv"

	"github.com/hlalwani/qdbg/errs"
	"github.com/hlalwani/qdbg/instr"
	"github.com/hlalwani/qdbg/qasmfront"
)

// GetInteractions marks every qubit that co-appears in a targets-set
// with qubit in any instruction before beforeInstruction, iterated to
// a fixed point. A CALL touching a reachable qubit opens its callee's
// body for one level of crossing; calls made from inside that body are
// not followed.
func GetInteractions(instructions []*instr.Instruction, registers *instr.RegisterTable, beforeInstruction int, qubit int) ([]int, error) {
	front := qasmfront.New(registers)

	startLabel, err := labelForQubit(registers, qubit)
	if err != nil {
		return nil, err
	}

	reachable := map[string]bool{startLabel: true}
	for {
		changed := expandScope(instructions, "", beforeInstruction, reachable)
		if crossCalls(instructions, beforeInstruction, reachable) {
			changed = true
		}
		if !changed {
			break
		}
	}

	out := make([]int, 0, len(reachable))
	for label := range reachable {
		q, err := front.ResolveQubit(label)
		if err != nil {
			continue
		}
		out = append(out, q)
	}
	sort.Ints(out)
	return out, nil
}

// expandScope grows reachable by one pass over scopeName's
// instructions, reporting whether anything was added. beforeID < 0
// disables the position bound.
func expandScope(instructions []*instr.Instruction, scopeName string, beforeID int, reachable map[string]bool) bool {
	changed := false
	for _, in := range instructions {
		if in == nil || in.FunctionName != scopeName {
			continue
		}
		if in.Kind != instr.SIMULATE && in.Kind != instr.ASSERTION {
			continue
		}
		if beforeID >= 0 && in.ID >= beforeID {
			continue
		}
		hit := false
		for _, t := range in.Targets {
			if reachable[t] {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		for _, t := range in.Targets {
			if !reachable[t] {
				reachable[t] = true
				changed = true
			}
		}
	}
	return changed
}

// crossCalls explores callee bodies of CALLs whose arguments
// intersect reachable, folding implicated arguments back in.
func crossCalls(instructions []*instr.Instruction, beforeID int, reachable map[string]bool) bool {
	changed := false
	for _, in := range instructions {
		if in == nil || in.Kind != instr.CALL || in.FunctionName != "" {
			continue
		}
		if beforeID >= 0 && in.ID >= beforeID {
			continue
		}
		touches := false
		for _, t := range in.Targets {
			if reachable[t] {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}

		seeds := map[string]bool{}
		for formal, actual := range in.CallSubstitution {
			if reachable[actual] {
				seeds[formal] = true
			}
		}
		if len(seeds) == 0 {
			continue
		}

		calleeReachable := map[string]bool{}
		for s := range seeds {
			calleeReachable[s] = true
		}
		for expandScope(instructions, in.CalledFunction, -1, calleeReachable) {
		}

		for formal, actual := range in.CallSubstitution {
			if calleeReachable[formal] && !reachable[actual] {
				reachable[actual] = true
				changed = true
			}
		}
	}
	return changed
}

// labelForQubit is the inverse of RegisterTable.GlobalIndex.
func labelForQubit(registers *instr.RegisterTable, qubit int) (string, error) {
	for _, d := range registers.Quantum {
		if qubit >= d.Index && qubit < d.Index+d.Size {
			idx := qubit - d.Index
			return d.Name + "[" + strconv.Itoa(idx) + "]", nil
		}
	}
	return "", errs.NewPreconditionError("qubit index %d is not covered by any declared register", qubit)
}
