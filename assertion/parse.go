package assertion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hlalwani/qdbg/errs"
)

// TargetResolver supplies the scope information needed to expand a
// whole-register target into its indexed qubits. A target naming a
// gate's formal parameter is never expanded.
type TargetResolver interface {
	RegisterSize(name string) (int, bool)
	IsShadowed(name string) bool
}

var (
	keywordRegex   = regexp.MustCompile(`^(assert-ent|assert-sup|assert-span|assert-eq)\b\s*(.*)$`)
	thresholdRegex = regexp.MustCompile(`^(\d*\.?\d+)\s+(.*)$`)
	subscriptRegex = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)
	bareNameRegex  = regexp.MustCompile(`^\w+$`)
	complexRegex   = regexp.MustCompile(`^(-?\d+\.?\d*(?:[eE][+-]?\d+)?)?\s*([+-]\s*\d*\.?\d*(?:[eE][+-]?\d+)?i)?$|^(-?\d*\.?\d*(?:[eE][+-]?\d+)?i)$`)
)

// ParseLine parses a single assertion statement (without its trailing
// ';') into an Assertion. lineNo is carried into any ParsingError for
// diagnostics.
func ParseLine(line string, lineNo int, resolver TargetResolver) (*Assertion, error) {
	line = strings.TrimSpace(line)
	m := keywordRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, errs.NewParsingError(lineNo, "not an assertion statement: %q", line)
	}
	keyword, rest := m[1], strings.TrimSpace(m[2])

	a := &Assertion{Line: lineNo, SimilarityThreshold: 1.0}
	switch keyword {
	case "assert-ent":
		a.Kind = Entanglement
	case "assert-sup":
		a.Kind = Superposition
	case "assert-span":
		a.Kind = Span
	case "assert-eq":
		a.Kind = StatevectorEquality // refined to CircuitEquality below if body is code
	}

	if a.Kind == StatevectorEquality {
		if tm := thresholdRegex.FindStringSubmatch(rest); tm != nil {
			threshold, err := strconv.ParseFloat(tm[1], 64)
			if err != nil {
				return nil, errs.NewParsingError(lineNo, "invalid threshold %q", tm[1])
			}
			if threshold < 0 || threshold > 1 {
				return nil, errs.NewParsingError(lineNo, "threshold %v out of range [0,1]", threshold)
			}
			a.SimilarityThreshold = threshold
			rest = strings.TrimSpace(tm[2])
		}
	}

	targetsPart, body, hasBody := splitBody(rest)
	targets, err := parseTargetList(targetsPart, lineNo, resolver)
	if err != nil {
		return nil, err
	}
	a.Targets = targets

	if a.Kind == StatevectorEquality {
		if !hasBody {
			return nil, errs.NewParsingError(lineNo, "assert-eq requires a literal state vector or sub-circuit body")
		}
		body = strings.TrimSpace(body)
		if looksLikeCircuitBody(body) {
			a.Kind = CircuitEquality
			a.CircuitCode = body
			if strings.Contains(body, "assert-") {
				return nil, errs.NewAssertionSemanticError("nested assertion inside circuit-equality body at line %d", lineNo)
			}
		} else {
			amps, err := parseLiteralStatevector(body, lineNo)
			if err != nil {
				return nil, err
			}
			expectedLen := 1 << len(a.Targets)
			if len(amps) != expectedLen {
				return nil, errs.NewParsingError(lineNo, "expected state vector of length %d (2^%d targets), got %d", expectedLen, len(a.Targets), len(amps))
			}
			a.Expected = &Statevector{Amplitudes: amps}
		}
	}

	return a, nil
}

// splitBody separates the leading target-list text from a trailing
// `{ ... }` body, if present.
func splitBody(rest string) (targets string, body string, hasBody bool) {
	idx := strings.IndexByte(rest, '{')
	if idx < 0 {
		return strings.TrimSpace(rest), "", false
	}
	end := strings.LastIndexByte(rest, '}')
	if end < idx {
		return strings.TrimSpace(rest), "", false
	}
	return strings.TrimSpace(rest[:idx]), rest[idx+1 : end], true
}

// looksLikeCircuitBody distinguishes a sub-circuit body (contains a `;`
// terminated statement) from a literal amplitude list (comma-separated
// complex numbers, no `;`).
func looksLikeCircuitBody(body string) bool {
	return strings.Contains(body, ";")
}

// parseTargetList splits a comma-separated target list and expands any
// bare register name (not shadowed by an enclosing gate's formal
// parameter) into its indexed qubits.
func parseTargetList(s string, lineNo int, resolver TargetResolver) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errs.NewParsingError(lineNo, "assertion has no targets")
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if subscriptRegex.MatchString(part) {
			m := subscriptRegex.FindStringSubmatch(part)
			name := m[1]
			idx, _ := strconv.Atoi(m[2])
			if resolver != nil {
				if size, ok := resolver.RegisterSize(name); ok && idx >= size {
					return nil, errs.NewParsingError(lineNo, "index %d out of bounds for register %q of size %d", idx, name, size)
				}
			}
			out = append(out, part)
			continue
		}
		if !bareNameRegex.MatchString(part) {
			return nil, errs.NewParsingError(lineNo, "invalid assertion target %q", part)
		}
		if resolver != nil && resolver.IsShadowed(part) {
			out = append(out, part)
			continue
		}
		if resolver != nil {
			if size, ok := resolver.RegisterSize(part); ok {
				for i := 0; i < size; i++ {
					out = append(out, part+"["+strconv.Itoa(i)+"]")
				}
				continue
			}
		}
		// Not a known register (or no resolver). Kept as-is; an unknown
		// name fails when the target is resolved at check time.
		out = append(out, part)
	}
	return out, nil
}

// parseLiteralStatevector parses a comma-separated list of complex
// amplitudes, e.g. "1.0, 0.0, 0.0, 0.0" or "0.7071+0i, 0, 0, 0.7071+0i".
func parseLiteralStatevector(body string, lineNo int) ([]Complex, error) {
	var out []Complex
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c, err := parseComplex(part)
		if err != nil {
			return nil, errs.NewParsingError(lineNo, "invalid amplitude %q: %v", part, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// parseComplex parses a single amplitude literal such as "1", "0.7071",
// "0.5i", "-0.5-0.5i", "1+0i".
func parseComplex(s string) (Complex, error) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Complex{}, errs.NewParsingError(0, "empty amplitude")
	}
	if !strings.Contains(s, "i") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Complex{}, err
		}
		return Complex{Real: v}, nil
	}
	// Purely imaginary, e.g. "i", "-i", "0.5i".
	imagOnly := s
	if idx := splitRealImagBoundary(s); idx >= 0 {
		realPart := s[:idx]
		imagPart := s[idx:]
		realV, err := strconv.ParseFloat(realPart, 64)
		if err != nil {
			return Complex{}, err
		}
		imagV, err := parseImagCoefficient(imagPart)
		if err != nil {
			return Complex{}, err
		}
		return Complex{Real: realV, Imaginary: imagV}, nil
	}
	imagV, err := parseImagCoefficient(imagOnly)
	if err != nil {
		return Complex{}, err
	}
	return Complex{Imaginary: imagV}, nil
}

// splitRealImagBoundary finds the '+'/'-' that separates a real prefix
// from a trailing imaginary term in strings like "-0.5-0.5i"; returns -1
// when there is no real prefix (the whole string is the imaginary term).
func splitRealImagBoundary(s string) int {
	for i := len(s) - 2; i > 0; i-- {
		if (s[i] == '+' || s[i] == '-') && (s[i-1] != 'e' && s[i-1] != 'E') {
			return i
		}
	}
	return -1
}

func parseImagCoefficient(s string) (float64, error) {
	s = strings.TrimSuffix(s, "i")
	switch s {
	case "", "+":
		return 1, nil
	case "-":
		return -1, nil
	}
	return strconv.ParseFloat(s, 64)
}
