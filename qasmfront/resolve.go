// Package qasmfront turns an Instruction's raw target expressions
// into globally-indexed qubits. Resolution happens dynamically, once
// per execution, rather than by flattening the program ahead of time.
package qasmfront

import (
	"strconv"
	"strings"

	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/errs"
	"github.com/hlalwani/qdbg/instr"
)

// Frontend resolves target expressions against a register layout.
type Frontend struct {
	registers *instr.RegisterTable
}

// New builds a Frontend over the given registers.
func New(registers *instr.RegisterTable) *Frontend {
	return &Frontend{registers: registers}
}

// ResolveOperation substitutes in.Targets through the active call
// frames, innermost first, and resolves the result to global qubit
// indices.
func (f *Frontend) ResolveOperation(in *instr.Instruction, frames []map[string]string) (ddadapter.Operation, error) {
	qubits := make([]int, 0, len(in.Targets))
	for _, t := range in.Targets {
		resolved := substituteChain(t, frames)
		q, err := f.ResolveQubit(resolved)
		if err != nil {
			return ddadapter.Operation{}, err
		}
		qubits = append(qubits, q)
	}
	return ddadapter.Operation{
		Mnemonic: in.Op.Mnemonic,
		Params:   in.Op.Params,
		Qubits:   qubits,
	}, nil
}

// substituteChain walks name through frames innermost to outermost,
// replacing it wherever it appears as a formal parameter.
func substituteChain(name string, frames []map[string]string) string {
	cur := name
	for _, frame := range frames {
		if repl, ok := frame[cur]; ok {
			cur = repl
		}
	}
	return cur
}

// ResolveTarget substitutes expr through the active call frames, then
// resolves it to its global qubit index.
func (f *Frontend) ResolveTarget(expr string, frames []map[string]string) (int, error) {
	return f.ResolveQubit(substituteChain(expr, frames))
}

// ResolveQubit resolves a concrete target expression, "name[idx]" or
// a bare single-qubit register name, to its flat-space offset.
func (f *Frontend) ResolveQubit(expr string) (int, error) {
	name, idx, err := splitSubscript(expr)
	if err != nil {
		if d, ok := f.registers.Lookup(expr); ok && !d.Classical && d.Size == 1 {
			return d.Index, nil
		}
		return 0, err
	}
	return f.registers.GlobalIndex(name, idx)
}

// ResolveClassicalBit resolves a classical target expression. No
// substitution applies to classical references.
func (f *Frontend) ResolveClassicalBit(expr string) (int, error) {
	name, idx, err := splitSubscript(expr)
	if err != nil {
		return 0, err
	}
	d, ok := f.registers.Lookup(name)
	if !ok || !d.Classical {
		return 0, errs.NewParsingError(0, "undefined classical register %q", name)
	}
	if idx < 0 || idx >= d.Size {
		return 0, errs.NewParsingError(0, "index %d out of bounds for register %q of size %d", idx, name, d.Size)
	}
	return d.Index + idx, nil
}

func splitSubscript(expr string) (name string, idx int, err error) {
	open := strings.IndexByte(expr, '[')
	if open < 0 || !strings.HasSuffix(expr, "]") {
		return "", 0, errs.NewParsingError(0, "expected a subscripted register reference, got %q", expr)
	}
	name = expr[:open]
	idx, convErr := strconv.Atoi(expr[open+1 : len(expr)-1])
	if convErr != nil {
		return "", 0, errs.NewParsingError(0, "invalid subscript in %q", expr)
	}
	return name, idx, nil
}
