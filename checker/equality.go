package checker

import (
	"fmt"
	"math/cmplx"
	"strconv"
	"strings"

	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/engine"
	"github.com/hlalwani/qdbg/errs"
)

// checkStatevectorEquality extracts the reduced sub-state over the
// assertion's targets (erroring if it is entangled with the rest of the
// system) and compares it against the literal expected amplitudes.
func checkStatevectorEquality(e *engine.Engine, a *assertion.Assertion) (bool, error) {
	qubits, err := resolveTargets(e, a.Targets)
	if err != nil {
		return false, err
	}
	sub, err := e.GetStateVectorSub(qubits)
	if err != nil {
		return false, err
	}
	expected := toComplexSlice(a.Expected.Amplitudes)
	if len(sub) != len(expected) {
		return false, errs.NewAssertionSemanticError("expected state vector of length %d, sub-state has length %d", len(expected), len(sub))
	}
	return similarity(sub, expected) >= a.SimilarityThreshold, nil
}

// checkCircuitEquality runs the embedded sub-circuit to completion on
// a second engine and compares its full state against this engine's
// reduced sub-state. The reference circuit must have as many qubits as
// the assertion has targets; its qubit i is compared against target i.
// A body without a qreg gets declarations synthesized by circuitSource.
func checkCircuitEquality(e *engine.Engine, a *assertion.Assertion) (bool, error) {
	if strings.Contains(a.CircuitCode, "assert-") {
		return false, errs.NewAssertionSemanticError("circuit-equality body must not itself contain assertions")
	}

	qubits, err := resolveTargets(e, a.Targets)
	if err != nil {
		return false, err
	}
	sub, err := e.GetStateVectorSub(qubits)
	if err != nil {
		return false, err
	}

	reference := engine.New(ddadapter.NewDenseKernel(), nil)
	if err := reference.LoadCode(circuitSource(a)); err != nil {
		return false, err
	}
	if _, err := reference.RunAll(); err != nil {
		return false, err
	}
	expected := reference.GetStateVectorFull()

	if reference.GetNumQubits() != len(qubits) {
		return false, errs.NewAssertionSemanticError(
			"circuit-equality body declares %d qubits, assertion has %d targets", reference.GetNumQubits(), len(qubits))
	}
	if len(sub) != len(expected) {
		return false, errs.NewAssertionSemanticError("reduced sub-state and reference state differ in length")
	}
	return similarity(sub, expected) >= a.SimilarityThreshold, nil
}

// circuitSource returns the embedded body as loadable source. The
// grammar lets a body reference the assertion's own targets without
// redeclaring them, so when the body carries no qreg of its own the
// declarations are synthesized from the target list.
func circuitSource(a *assertion.Assertion) string {
	if strings.Contains(a.CircuitCode, "qreg") {
		return a.CircuitCode
	}
	sizes := map[string]int{}
	var order []string
	for _, t := range a.Targets {
		name, size := t, 1
		if open := strings.IndexByte(t, '['); open >= 0 && strings.HasSuffix(t, "]") {
			name = t[:open]
			if idx, err := strconv.Atoi(t[open+1 : len(t)-1]); err == nil {
				size = idx + 1
			}
		}
		if _, ok := sizes[name]; !ok {
			order = append(order, name)
		}
		if size > sizes[name] {
			sizes[name] = size
		}
	}
	var sb strings.Builder
	for _, name := range order {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", name, sizes[name])
	}
	sb.WriteString(a.CircuitCode)
	return sb.String()
}

func toComplexSlice(amps []assertion.Complex) []complex128 {
	out := make([]complex128, len(amps))
	for i, a := range amps {
		out[i] = complex(a.Real, a.Imaginary)
	}
	return out
}

// similarity is the absolute value of the inner product <a|b>.
func similarity(a, b []complex128) float64 {
	var inner complex128
	for i := range a {
		inner += cmplx.Conj(a[i]) * b[i]
	}
	return cmplx.Abs(inner)
}
