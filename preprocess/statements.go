package preprocess

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hlalwani/qdbg/assertion"
	"github.com/hlalwani/qdbg/errs"
	"github.com/hlalwani/qdbg/instr"
)

var (
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\[(\d+)\]$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\[(\d+)\]$`)
	gateDefRegex = regexp.MustCompile(`^gate\s+(\w+)\s*(?:\(([^)]*)\))?\s*(.*)$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*(\w+)(?:\[(\d+)\])?\s*==\s*(\d+)\s*\)\s+(.+)$`)
	measureRegex = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(\w+)(?:\[(\d+)\])?$`)
	resetRegex   = regexp.MustCompile(`^reset\s+(.+)$`)
	barrierRegex = regexp.MustCompile(`^barrier\b`)
	opRegex      = regexp.MustCompile(`^(\w+)\s*(?:\(([^)]*)\))?\s+(.+)$`)

	// piExprRegex matches pi-valued gate parameters: "pi", "-pi",
	// "pi/2", "3*pi/4".
	piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)
)

// processScope builds the instruction list for one lexical scope,
// wiring each sibling's Successor to the next; a CALL keeps its jump
// into the callee's body. A gate body also gets a synthetic RETURN.
func (c *ctx) processScope(text string, base int, sc scope) ([]*instr.Instruction, error) {
	statements := splitStatements(text)
	var siblings []*instr.Instruction

	for _, stmt := range statements {
		absStart := base + stmt.Start
		in, err := c.buildStatement(stmt.Raw, absStart, sc)
		if err != nil {
			return nil, err
		}
		if in != nil {
			if sc.inFunctionDefinition && !in.IsFunctionDefinition {
				in.FunctionName = sc.enclosingFunction
			}
			siblings = append(siblings, in)
		}
	}

	for i := 0; i < len(siblings)-1; i++ {
		if siblings[i].Kind == instr.CALL {
			continue
		}
		siblings[i].Successor = instr.Next(siblings[i+1].ID)
	}

	if sc.inFunctionDefinition {
		ret := instr.NewInstruction(c.allocID(), instr.RETURN)
		ret.Successor = instr.PopSuccessor
		ret.InFunctionDefinition = true
		if len(siblings) > 0 {
			last := siblings[len(siblings)-1]
			end := last.SourceEnd
			ret.SourceStart, ret.SourceEnd = end, end
		}
		if len(siblings) > 0 && siblings[len(siblings)-1].Kind != instr.CALL {
			siblings[len(siblings)-1].Successor = instr.Next(ret.ID)
		}
		siblings = append(siblings, ret)
	}

	computeDataDependencies(siblings)
	return siblings, nil
}

// buildStatement classifies one statement and returns the instruction
// it produces (nil for declarations, which are absorbed into side
// tables without occupying an instruction slot).
func (c *ctx) buildStatement(raw string, absStart int, sc scope) (*instr.Instruction, error) {
	head, inner, innerStart, innerEnd, hasBlock := extractBlock(raw, absStart)
	outerStart, outerEnd := trimmedOffsets(raw, absStart)
	text := strings.TrimSpace(head)
	lineNo := c.lineOf(absStart)

	switch {
	case qregRegex.MatchString(text):
		m := qregRegex.FindStringSubmatch(text)
		size, _ := strconv.Atoi(m[2])
		c.registers.Declare(m[1], size, false)
		return nil, nil

	case cregRegex.MatchString(text):
		m := cregRegex.FindStringSubmatch(text)
		size, _ := strconv.Atoi(m[2])
		c.registers.Declare(m[1], size, true)
		for i := 0; i < size; i++ {
			c.classicalVars[m[1]+"["+strconv.Itoa(i)+"]"] = false
		}
		return nil, nil

	case strings.HasPrefix(text, "gate"):
		if !hasBlock {
			return nil, errs.NewParsingError(lineNo, "gate definition %q missing body", text)
		}
		return c.buildGateDefinition(text, outerStart, outerEnd, inner, innerStart, innerEnd, sc)

	case strings.HasPrefix(text, "assert-"):
		return c.buildAssertion(text, inner, hasBlock, outerStart, outerEnd, lineNo, sc)

	case ifRegex.MatchString(text):
		return c.buildClassicalControlled(text, outerStart, outerEnd, lineNo, sc)

	case measureRegex.MatchString(text):
		return c.buildMeasure(text, outerStart, outerEnd, lineNo, sc)

	case resetRegex.MatchString(text):
		return c.buildReset(text, outerStart, outerEnd, lineNo, sc)

	case barrierRegex.MatchString(text):
		return c.buildBarrier(outerStart, outerEnd), nil

	default:
		return c.buildOperationOrCall(text, outerStart, outerEnd, lineNo, sc)
	}
}

func (c *ctx) buildGateDefinition(text string, outerStart, outerEnd int, inner string, innerStart, innerEnd int, sc scope) (*instr.Instruction, error) {
	m := gateDefRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, errs.NewParsingError(c.lineOf(outerStart), "malformed gate definition %q", text)
	}
	name := m[1]
	classicParams := splitNonEmpty(m[2])
	qubitParams := splitNonEmpty(m[3])

	header := instr.NewInstruction(c.allocID(), instr.NOP)
	header.IsFunctionDefinition = true
	header.InFunctionDefinition = sc.inFunctionDefinition
	header.FunctionName = name
	header.SourceStart, header.SourceEnd = outerStart, outerEnd

	info := &funcInfo{
		headerID:       header.ID,
		firstBodyID:    c.nextID, // body's first instruction gets the very next id
		formalQubits:   qubitParams,
		formalClassic:  classicParams,
		definitionLine: c.lineOf(outerStart),
	}
	c.functions[name] = info

	childScope := scope{
		inFunctionDefinition: true,
		formalQubits:         toSet(qubitParams),
		formalClassic:        toSet(classicParams),
		enclosingFunction:    name,
	}
	body, err := c.processScope(inner, innerStart, childScope)
	if err != nil {
		return nil, err
	}
	header.Block = body
	return header, nil
}

func (c *ctx) buildAssertion(text string, inner string, hasBlock bool, outerStart, outerEnd, lineNo int, sc scope) (*instr.Instruction, error) {
	stmt := text
	if hasBlock {
		stmt = text + " {" + inner + "}"
	}
	resolver := &scopeResolver{registers: c.registers, shadowed: sc.formalQubits}
	a, err := assertion.ParseLine(strings.TrimSpace(stmt), lineNo, resolver)
	if err != nil {
		return nil, err
	}
	idx := len(c.assertions)
	c.assertions = append(c.assertions, a)

	in := instr.NewInstruction(c.allocID(), instr.ASSERTION)
	in.SourceStart, in.SourceEnd = outerStart, outerEnd
	in.InFunctionDefinition = sc.inFunctionDefinition
	in.Targets = append([]string(nil), a.Targets...)
	in.AssertionIdx = idx
	return in, nil
}

func (c *ctx) buildClassicalControlled(text string, outerStart, outerEnd, lineNo int, sc scope) (*instr.Instruction, error) {
	m := ifRegex.FindStringSubmatch(text)
	reg := m[1]
	idx := -1
	if m[2] != "" {
		idx, _ = strconv.Atoi(m[2])
	}
	value, _ := strconv.Atoi(m[3])
	rest := m[4]

	in, err := c.buildOperationOrCall(rest, outerStart, outerEnd, lineNo, sc)
	if err != nil {
		return nil, err
	}
	if in.Op == nil {
		return nil, errs.NewParsingError(lineNo, "classically-controlled statement %q is not a simulable operation", text)
	}
	in.Op.ClassicalControl = &instr.ClassicalControl{Register: reg, Index: idx, Value: value}
	return in, nil
}

func (c *ctx) buildMeasure(text string, outerStart, outerEnd, lineNo int, sc scope) (*instr.Instruction, error) {
	m := measureRegex.FindStringSubmatch(text)
	source := strings.TrimSpace(m[1])
	destReg := m[2]
	destIdx := m[3]

	in := instr.NewInstruction(c.allocID(), instr.SIMULATE)
	in.SourceStart, in.SourceEnd = outerStart, outerEnd
	in.InFunctionDefinition = sc.inFunctionDefinition
	in.Op = &instr.GateOp{Mnemonic: "MEASURE", IsMeasure: true}

	if destIdx != "" {
		in.Targets = []string{source}
		in.Op.MeasureDests = []string{destReg + "[" + destIdx + "]"}
		return in, nil
	}

	// measure q -> c; expands to one target/destination pair per qubit
	src, ok := c.registers.Lookup(source)
	if !ok || src.Classical {
		return nil, errs.NewParsingError(lineNo, "cannot measure %q: not a declared quantum register", source)
	}
	dst, ok := c.registers.Lookup(destReg)
	if !ok || !dst.Classical {
		return nil, errs.NewParsingError(lineNo, "measure destination %q is not a declared classical register", destReg)
	}
	if src.Size != dst.Size {
		return nil, errs.NewParsingError(lineNo, "cannot measure %s[%d] into %s[%d]: sizes differ", source, src.Size, destReg, dst.Size)
	}
	for i := 0; i < src.Size; i++ {
		in.Targets = append(in.Targets, source+"["+strconv.Itoa(i)+"]")
		in.Op.MeasureDests = append(in.Op.MeasureDests, destReg+"["+strconv.Itoa(i)+"]")
	}
	return in, nil
}

func (c *ctx) buildReset(text string, outerStart, outerEnd, lineNo int, sc scope) (*instr.Instruction, error) {
	m := resetRegex.FindStringSubmatch(text)
	target := strings.TrimSpace(m[1])

	in := instr.NewInstruction(c.allocID(), instr.SIMULATE)
	in.SourceStart, in.SourceEnd = outerStart, outerEnd
	in.InFunctionDefinition = sc.inFunctionDefinition
	in.Op = &instr.GateOp{Mnemonic: "RESET", IsReset: true}

	// reset q; expands to every qubit of the register
	if d, ok := c.registers.Lookup(target); ok && !d.Classical && !sc.formalQubits[target] {
		for i := 0; i < d.Size; i++ {
			in.Targets = append(in.Targets, target+"["+strconv.Itoa(i)+"]")
		}
		return in, nil
	}
	in.Targets = []string{target}
	return in, nil
}

func (c *ctx) buildBarrier(outerStart, outerEnd int) *instr.Instruction {
	in := instr.NewInstruction(c.allocID(), instr.SIMULATE)
	in.SourceStart, in.SourceEnd = outerStart, outerEnd
	in.Op = &instr.GateOp{Mnemonic: "BARRIER", IsBarrier: true}
	return in
}

func (c *ctx) buildOperationOrCall(text string, outerStart, outerEnd, lineNo int, sc scope) (*instr.Instruction, error) {
	m := opRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, errs.NewParsingError(lineNo, "unrecognized statement %q", text)
	}
	name := m[1]
	paramsStr := m[2]
	targetsStr := m[3]

	targets := splitNonEmpty(targetsStr)
	for _, t := range targets {
		if err := validateTarget(t, c.registers, sc.formalQubits); err != nil {
			return nil, errs.NewParsingError(lineNo, "%v", err)
		}
	}

	if info, ok := c.functions[name]; ok {
		if len(targets) != len(info.formalQubits) {
			return nil, errs.NewParsingError(lineNo, "gate %q called with %d arguments, expected %d", name, len(targets), len(info.formalQubits))
		}
		in := instr.NewInstruction(c.allocID(), instr.CALL)
		in.SourceStart, in.SourceEnd = outerStart, outerEnd
		in.InFunctionDefinition = sc.inFunctionDefinition
		in.Targets = targets
		in.IsFunctionCall = true
		in.CalledFunction = name
		in.Successor = instr.Next(info.firstBodyID)
		sub := map[string]string{}
		for i, formal := range info.formalQubits {
			sub[formal] = targets[i]
		}
		in.CallSubstitution = sub
		return in, nil
	}

	params, err := parseParamList(paramsStr)
	if err != nil {
		return nil, errs.NewParsingError(lineNo, "%v", err)
	}

	in := instr.NewInstruction(c.allocID(), instr.SIMULATE)
	in.SourceStart, in.SourceEnd = outerStart, outerEnd
	in.InFunctionDefinition = sc.inFunctionDefinition
	in.Targets = targets
	in.Op = &instr.GateOp{Mnemonic: strings.ToUpper(name), Params: params}
	return in, nil
}

// validateTarget checks that a target expression names either an
// enclosing gate's formal parameter or a declared register (optionally
// subscripted, in bounds).
func validateTarget(t string, regs *instr.RegisterTable, formals map[string]bool) error {
	if formals[t] {
		return nil
	}
	if idx := strings.IndexByte(t, '['); idx >= 0 && strings.HasSuffix(t, "]") {
		name := t[:idx]
		if formals[name] {
			return nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(t[idx+1 : len(t)-1]))
		if err != nil {
			return errs.NewParsingError(0, "invalid target expression %q", t)
		}
		if _, err := regs.GlobalIndex(name, i); err != nil {
			return err
		}
		return nil
	}
	if _, ok := regs.Lookup(t); ok {
		return nil
	}
	return errs.NewParsingError(0, "undefined target %q", t)
}

// scopeResolver adapts ctx's register table and the current gate's
// formal-parameter set to assertion.TargetResolver.
type scopeResolver struct {
	registers *instr.RegisterTable
	shadowed  map[string]bool
}

func (r *scopeResolver) RegisterSize(name string) (int, bool) {
	d, ok := r.registers.Lookup(name)
	if !ok {
		return 0, false
	}
	return d.Size, true
}

func (r *scopeResolver) IsShadowed(name string) bool {
	return r.shadowed[name]
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func parseParamList(s string) ([]float64, error) {
	parts := splitNonEmpty(s)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, ok := parseParamExpr(p)
		if !ok {
			return nil, errs.NewParsingError(0, "invalid parameter expression %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseParamExpr parses a plain number or a pi-expression ("pi/2",
// "3*pi/4", "-pi").
func parseParamExpr(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}
	low := strings.ToLower(s)
	m := piExprRegex.FindStringSubmatch(low)
	if m == nil {
		return 0, false
	}
	negative := m[1] == "-"
	coeff := 1.0
	if m[2] != "" {
		var err error
		coeff, err = strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, false
		}
	}
	result := coeff * math.Pi
	if m[3] != "" {
		denom, err := strconv.ParseFloat(m[3], 64)
		if err != nil || denom == 0 {
			return 0, false
		}
		result /= denom
	}
	if negative {
		result = -result
	}
	return result, true
}
