// Package diagnostics watches an Engine's forward execution and
// answers the static and dynamic questions behind "why did this
// assertion fail": data dependencies, qubit interactions, and controls
// stuck at |0>.
package diagnostics

import (
	"sort"
	"strconv"
	"strings"
)

// Tracker implements engine.ExecutionObserver: per instruction, the
// control qubits observed |0> vs |1> and the resolved qubit tuples
// acted on.
type Tracker struct {
	zeroControls    map[int]map[int]bool
	nonZeroControls map[int]map[int]bool
	actualQubits    map[int]map[string]bool
}

// NewTracker returns a Tracker with nothing recorded yet.
func NewTracker() *Tracker {
	return &Tracker{
		zeroControls:    map[int]map[int]bool{},
		nonZeroControls: map[int]map[int]bool{},
		actualQubits:    map[int]map[string]bool{},
	}
}

// RecordExecution is called on every forward gate application (not
// for measure, reset or barrier). controlQubit is -1 for gates with no
// control.
func (t *Tracker) RecordExecution(instructionID int, qubits []int, controlQubit int, controlObservedZero bool) {
	if t.actualQubits[instructionID] == nil {
		t.actualQubits[instructionID] = map[string]bool{}
	}
	t.actualQubits[instructionID][tupleKey(qubits)] = true

	if controlQubit < 0 {
		return
	}
	if controlObservedZero {
		if t.zeroControls[instructionID] == nil {
			t.zeroControls[instructionID] = map[int]bool{}
		}
		t.zeroControls[instructionID][controlQubit] = true
	} else {
		if t.nonZeroControls[instructionID] == nil {
			t.nonZeroControls[instructionID] = map[int]bool{}
		}
		t.nonZeroControls[instructionID][controlQubit] = true
	}
}

// ZeroControls returns the control qubits observed |0> at id.
func (t *Tracker) ZeroControls(id int) map[int]bool { return t.zeroControls[id] }

// NonZeroControls returns the control qubits observed |1> at id.
func (t *Tracker) NonZeroControls(id int) map[int]bool { return t.nonZeroControls[id] }

// ActualQubits returns every resolved qubit tuple id has acted on.
func (t *Tracker) ActualQubits(id int) []string {
	keys := make([]string, 0, len(t.actualQubits[id]))
	for k := range t.actualQubits[id] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetZeroControlInstructions marks instructions whose control qubit
// has only ever been observed |0>.
func (t *Tracker) GetZeroControlInstructions() []int {
	var out []int
	for id, zc := range t.zeroControls {
		if len(zc) == 0 {
			continue
		}
		if len(t.nonZeroControls[id]) == 0 {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func tupleKey(qubits []int) string {
	parts := make([]string, len(qubits))
	for i, q := range qubits {
		parts[i] = strconv.Itoa(q)
	}
	return strings.Join(parts, ",")
}
