package preprocess

import "github.com/hlalwani/qdbg/instr"

// computeDataDependencies records, for each target of each sibling,
// the most recent prior sibling that wrote to it. A CALL participates
// through its actual arguments.
func computeDataDependencies(siblings []*instr.Instruction) {
	lastWriter := map[string]instr.DataDependency{}
	for _, in := range siblings {
		if len(in.Targets) == 0 {
			continue
		}
		for idx, t := range in.Targets {
			if dep, ok := lastWriter[t]; ok {
				in.DataDependencies = append(in.DataDependencies, dep)
			}
			lastWriter[t] = instr.DataDependency{InstructionID: in.ID, TargetIndex: idx}
		}
	}
}
