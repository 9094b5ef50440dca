package assertion

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hlalwani/qdbg/errs"
)

// fakeResolver stands in for the preprocessor's scope during parsing.
type fakeResolver struct {
	registers map[string]int
	shadowed  map[string]bool
}

func (r fakeResolver) RegisterSize(name string) (int, bool) {
	size, ok := r.registers[name]
	return size, ok
}

func (r fakeResolver) IsShadowed(name string) bool { return r.shadowed[name] }

func TestParseEntanglement(t *testing.T) {
	a, err := ParseLine("assert-ent q[0], q[1]", 4, nil)
	require.NoError(t, err)
	require.Equal(t, Entanglement, a.Kind)
	require.Equal(t, []string{"q[0]", "q[1]"}, a.Targets)
	require.Equal(t, 4, a.Line)
}

func TestParseSuperpositionExpandsWholeRegister(t *testing.T) {
	resolver := fakeResolver{registers: map[string]int{"q": 3}}
	a, err := ParseLine("assert-sup q", 1, resolver)
	require.NoError(t, err)
	require.Equal(t, Superposition, a.Kind)
	require.Equal(t, []string{"q[0]", "q[1]", "q[2]"}, a.Targets)
}

func TestParseShadowedFormalNotExpanded(t *testing.T) {
	resolver := fakeResolver{
		registers: map[string]int{"a": 2},
		shadowed:  map[string]bool{"a": true},
	}
	a, err := ParseLine("assert-ent a, b", 1, resolver)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, a.Targets)
}

func TestParseStatevectorEquality(t *testing.T) {
	a, err := ParseLine("assert-eq 0.9 q[0], q[1] { 0.7071+0i, 0, 0, 0.7071+0i }", 2, nil)
	require.NoError(t, err)
	require.Equal(t, StatevectorEquality, a.Kind)
	require.InDelta(t, 0.9, a.SimilarityThreshold, 1e-12)
	require.NotNil(t, a.Expected)
	require.Len(t, a.Expected.Amplitudes, 4)
	require.InDelta(t, 0.7071, a.Expected.Amplitudes[0].Real, 1e-12)
	require.InDelta(t, 0, a.Expected.Amplitudes[0].Imaginary, 1e-12)
	require.InDelta(t, 0.7071, a.Expected.Amplitudes[3].Real, 1e-12)
}

func TestParseEqualityDefaultThreshold(t *testing.T) {
	a, err := ParseLine("assert-eq q[0] { 1.0, 0.0 }", 1, nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, a.SimilarityThreshold)
}

func TestParseComplexLiterals(t *testing.T) {
	cases := []struct {
		in         string
		real, imag float64
	}{
		{"1", 1, 0},
		{"-0.5", -0.5, 0},
		{"0.5i", 0, 0.5},
		{"i", 0, 1},
		{"-i", 0, -1},
		{"1+0i", 1, 0},
		{"-0.5-0.5i", -0.5, -0.5},
		{"0.25+0.75i", 0.25, 0.75},
	}
	for _, tc := range cases {
		c, err := parseComplex(tc.in)
		require.NoError(t, err, tc.in)
		require.InDelta(t, tc.real, c.Real, 1e-12, tc.in)
		require.InDelta(t, tc.imag, c.Imaginary, 1e-12, tc.in)
	}
}

func TestParseCircuitEquality(t *testing.T) {
	a, err := ParseLine("assert-eq 0.999 q[0], q[1] { h q[0]; cx q[0], q[1]; }", 5, nil)
	require.NoError(t, err)
	require.Equal(t, CircuitEquality, a.Kind)
	require.Contains(t, a.CircuitCode, "h q[0];")
	require.Contains(t, a.CircuitCode, "cx q[0], q[1];")
}

func TestParseNestedAssertionRejected(t *testing.T) {
	_, err := ParseLine("assert-eq 0.9 q[0] { h q[0]; assert-sup q[0]; }", 3, nil)
	var semErr *errs.AssertionSemanticError
	require.ErrorAs(t, err, &semErr)
}

func TestParseSpanReserved(t *testing.T) {
	a, err := ParseLine("assert-span q[0], q[1]", 1, nil)
	require.NoError(t, err)
	require.Equal(t, Span, a.Kind)
}

func TestParseErrors(t *testing.T) {
	resolver := fakeResolver{registers: map[string]int{"q": 2}}
	cases := []struct {
		name string
		line string
	}{
		{"not an assertion", "h q[0]"},
		{"threshold above one", "assert-eq 1.5 q[0] { 1.0, 0.0 }"},
		{"vector length mismatch", "assert-eq 0.9 q[0] { 1.0, 0.0, 0.0, 0.0 }"},
		{"missing body", "assert-eq 0.9 q[0]"},
		{"no targets", "assert-ent"},
		{"index out of bounds", "assert-ent q[2], q[0]"},
		{"bad target", "assert-ent q[0], 1q!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLine(tc.line, 1, resolver)
			require.Error(t, err)
			var semErr *errs.AssertionSemanticError
			if !errors.As(err, &semErr) {
				var parseErr *errs.ParsingError
				require.ErrorAs(t, err, &parseErr)
			}
		})
	}
}
