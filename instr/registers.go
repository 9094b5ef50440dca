package instr

import "github.com/hlalwani/qdbg/errs"

// RegisterDef is one `qreg`/`creg` declaration: name, the base offset of
// the register in the flat qubit (or classical bit) space, and its size.
type RegisterDef struct {
	Name      string
	Index     int
	Size      int
	Classical bool
}

// RegisterTable accumulates register definitions in declaration order,
// tracking the monotonically increasing base offsets for the quantum and
// classical flat spaces independently.
type RegisterTable struct {
	Quantum   []RegisterDef
	Classical []RegisterDef
	nextQ     int
	nextC     int
}

// NewRegisterTable returns an empty table.
func NewRegisterTable() *RegisterTable {
	return &RegisterTable{}
}

// Declare adds a register of the given name and size, returning its
// RegisterDef. classical selects the creg/qreg space.
func (t *RegisterTable) Declare(name string, size int, classical bool) RegisterDef {
	if classical {
		def := RegisterDef{Name: name, Index: t.nextC, Size: size, Classical: true}
		t.Classical = append(t.Classical, def)
		t.nextC += size
		return def
	}
	def := RegisterDef{Name: name, Index: t.nextQ, Size: size, Classical: false}
	t.Quantum = append(t.Quantum, def)
	t.nextQ += size
	return def
}

// Lookup finds a register by name in either space.
func (t *RegisterTable) Lookup(name string) (RegisterDef, bool) {
	for _, d := range t.Quantum {
		if d.Name == name {
			return d, true
		}
	}
	for _, d := range t.Classical {
		if d.Name == name {
			return d, true
		}
	}
	return RegisterDef{}, false
}

// Size returns the declared size of name, or an error if the register
// is unknown.
func (t *RegisterTable) Size(name string) (int, error) {
	d, ok := t.Lookup(name)
	if !ok {
		return 0, errs.NewParsingError(0, "undefined register %q", name)
	}
	return d.Size, nil
}

// GlobalIndex resolves name[idx] to its offset in the flat qubit space,
// validating idx < size(name).
func (t *RegisterTable) GlobalIndex(name string, idx int) (int, error) {
	d, ok := t.Lookup(name)
	if !ok {
		return 0, errs.NewParsingError(0, "undefined register %q", name)
	}
	if idx < 0 || idx >= d.Size {
		return 0, errs.NewParsingError(0, "index %d out of bounds for register %q of size %d", idx, name, d.Size)
	}
	return d.Index + idx, nil
}

// NumQubits returns the total flat qubit space size.
func (t *RegisterTable) NumQubits() int { return t.nextQ }

// NumClassicalBits returns the total flat classical bit space size.
func (t *RegisterTable) NumClassicalBits() int { return t.nextC }
