// Package preprocess turns raw source into a dense, successor-linked
// Instruction array plus side tables and a cleaned source string.
// Statement boundaries come from a brace-depth-aware scanner, which
// keeps every instruction's source span an exact offset into the
// comment-stripped text.
package preprocess

import (
	"strings"

	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/instr"
)

// Result is the output of preprocessing one source file.
type Result struct {
	Instructions  []*instr.Instruction
	Assertions    []*assertion.Assertion
	Registers     *instr.RegisterTable
	ClassicalVars map[string]bool
	CleanSource   string
}

// funcInfo wires a CALL to its callee.
type funcInfo struct {
	headerID       int
	firstBodyID    int
	formalQubits   []string
	formalClassic  []string
	definitionLine int
}

// ctx threads shared preprocessing state through the recursive
// descent over nested scopes.
type ctx struct {
	registers     *instr.RegisterTable
	classicalVars map[string]bool
	functions     map[string]*funcInfo
	nextID        int
	clean         *strings.Builder
	assertions    []*assertion.Assertion
	source        string
}

// lineOf converts a byte offset to a 1-based line number.
func (c *ctx) lineOf(pos int) int {
	if pos > len(c.source) {
		pos = len(c.source)
	}
	return 1 + strings.Count(c.source[:pos], "\n")
}

func (c *ctx) allocID() int {
	id := c.nextID
	c.nextID++
	return id
}

// scope is the per-descent context for one gate body.
type scope struct {
	inFunctionDefinition bool
	formalQubits         map[string]bool
	formalClassic        map[string]bool
	enclosingFunction    string
}

// Preprocess runs the full pipeline over raw source.
func Preprocess(src string) (*Result, error) {
	stripped := stripComments(src)
	c := &ctx{
		registers:     instr.NewRegisterTable(),
		classicalVars: map[string]bool{},
		functions:     map[string]*funcInfo{},
		clean:         &strings.Builder{},
		source:        stripped,
	}

	topScope := scope{formalQubits: map[string]bool{}, formalClassic: map[string]bool{}}

	siblings, err := c.processScope(stripped, 0, topScope)
	if err != nil {
		return nil, err
	}

	// Top-level scope terminates at the sentinel id N (isFinished). A
	// trailing CALL keeps its jump into the callee; its RETURN resumes at
	// the call's id + 1, which is N here.
	if len(siblings) > 0 && siblings[len(siblings)-1].Kind != instr.CALL {
		siblings[len(siblings)-1].Successor = instr.Next(c.nextID)
	}

	all := make([]*instr.Instruction, c.nextID)
	collectFlat(siblings, all)

	c.clean.WriteString(buildCleanSource(stripped))

	return &Result{
		Instructions:  all,
		Assertions:    c.assertions,
		Registers:     c.registers,
		ClassicalVars: c.classicalVars,
		CleanSource:   c.clean.String(),
	}, nil
}

// collectFlat writes every instruction into its dense ID slot.
func collectFlat(siblings []*instr.Instruction, all []*instr.Instruction) {
	for _, in := range siblings {
		all[in.ID] = in
		if len(in.Block) > 0 {
			collectFlat(in.Block, all)
		}
	}
}

// stripComments replaces comment spans with spaces, preserving every
// byte offset.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))
	inComment := false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if !inComment && ch == '/' && i+1 < len(src) && src[i+1] == '/' {
			inComment = true
		}
		if inComment {
			if ch == '\n' {
				inComment = false
				sb.WriteByte(ch)
			} else {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// statement is one depth-0 span of raw source, offsets preserved.
type statement struct {
	Raw   string
	Start int
}

// splitStatements scans src for boundaries at brace depth 0. A
// statement ends at a depth-0 ';' or at the '}' closing a depth-0
// block: a gate definition's body is its own terminator.
func splitStatements(src string) []statement {
	var out []statement
	depth := 0
	start := 0
	emit := func(end int) {
		raw := src[start:end]
		if strings.TrimSpace(raw) != "" {
			out = append(out, statement{Raw: raw, Start: start})
		}
		start = end
	}
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && !pendingSemicolon(src, i+1) {
					emit(i + 1)
				}
			}
		case ';':
			if depth == 0 {
				emit(i)
				start = i + 1
			}
		}
	}
	return out
}

// pendingSemicolon reports whether the next non-space byte after pos
// is a ';'. An assertion's `{...};` body belongs to its statement.
func pendingSemicolon(src string, pos int) bool {
	for i := pos; i < len(src); i++ {
		if isSpace(src[i]) {
			continue
		}
		return src[i] == ';'
	}
	return false
}

// trimmedOffsets returns the absolute byte range of the
// non-whitespace content of s.
func trimmedOffsets(s string, absStart int) (int, int) {
	l := 0
	for l < len(s) && isSpace(s[l]) {
		l++
	}
	r := len(s)
	for r > l && isSpace(s[r-1]) {
		r--
	}
	return absStart + l, absStart + r
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// extractBlock splits raw at its first top-level `{...}`, returning
// the head, the inner text, and the inner text's absolute span.
func extractBlock(raw string, absStart int) (head string, inner string, innerStart, innerEnd int, ok bool) {
	open := strings.IndexByte(raw, '{')
	if open < 0 {
		return raw, "", 0, 0, false
	}
	depth := 0
	for i := open; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[:open], raw[open+1 : i], absStart + open + 1, absStart + i, true
			}
		}
	}
	return raw[:open], raw[open+1:], absStart + open + 1, absStart + len(raw), true
}
