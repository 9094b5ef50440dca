package diagnostics

import (
	"sort"

	"github.com/hlalwani/qdbg/instr"
)

// GetDataDependencies marks every instruction transitively reachable
// from i through DataDependencies, plus i itself. When includeCallers
// is true, reaching an instruction inside a gate body also pulls in
// every CALL invoking that gate.
func GetDataDependencies(instructions []*instr.Instruction, i int, includeCallers bool) []int {
	visited := map[int]bool{}
	var order []int
	queue := []int{}

	var addNode func(id int)
	addNode = func(id int) {
		if id < 0 || id >= len(instructions) || instructions[id] == nil || visited[id] {
			return
		}
		visited[id] = true
		order = append(order, id)
		queue = append(queue, id)

		if includeCallers && instructions[id].FunctionName != "" {
			fn := instructions[id].FunctionName
			for _, c := range instructions {
				if c != nil && c.Kind == instr.CALL && c.CalledFunction == fn {
					addNode(c.ID)
				}
			}
		}
	}

	addNode(i)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range instructions[id].DataDependencies {
			addNode(dep.InstructionID)
		}
	}

	sort.Ints(order)
	return order
}
