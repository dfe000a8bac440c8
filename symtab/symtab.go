// Package symtab implements the flat, append-only symbol table spec.md
// §4.3 describes: one array of declarations tagged with a lexical level,
// searched from newest to oldest so inner declarations shadow outer ones.
package symtab

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// MaxSymbols is the table's capacity (spec.md §3). Overflow is fatal.
const MaxSymbols = 100

// Kind distinguishes the three declaration forms XPL0 supports.
type Kind int

const (
	// Constant entries store a literal value. Level and Addr are unused.
	Constant Kind = iota
	// Variable entries store the offset of a slot in their declaring
	// block's activation record.
	Variable
	// Procedure entries store the code index of their entry instruction,
	// patched once the body is compiled.
	Procedure
)

func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	case Procedure:
		return "procedure"
	default:
		return "unknown"
	}
}

// Entry is one declaration. See SPEC_FULL.md §5 / spec.md §3 for the
// field semantics by Kind.
type Entry struct {
	Name  string
	Kind  Kind
	Val   int // Constant
	Level int // Variable, Procedure
	Addr  int // Variable, Procedure
}

// Table is the flat append-only symbol table for one compile.
type Table struct {
	entries []Entry
}

// New returns an empty Table.
func New() *Table {
	return &Table{}
}

// EnterConstant appends a Constant entry with the given literal value.
func (t *Table) EnterConstant(name string, val int) error {
	if err := t.checkCapacity(); err != nil {
		return err
	}
	t.entries = append(t.entries, Entry{Name: name, Kind: Constant, Val: val})
	return nil
}

// EnterVariable appends a Variable entry at level, assigning it the next
// free offset in *dx and advancing *dx by one, exactly as spec.md §4.3's
// enter(Variable, lev, &dx) does.
func (t *Table) EnterVariable(name string, level int, dx *int) error {
	if err := t.checkCapacity(); err != nil {
		return err
	}
	t.entries = append(t.entries, Entry{Name: name, Kind: Variable, Level: level, Addr: *dx})
	*dx++
	return nil
}

// EnterProcedure appends a Procedure entry at level. Its Addr is 0 until
// PatchAddr is called once the procedure's entry INT instruction is known.
func (t *Table) EnterProcedure(name string, level int) error {
	if err := t.checkCapacity(); err != nil {
		return err
	}
	t.entries = append(t.entries, Entry{Name: name, Kind: Procedure, Level: level})
	return nil
}

func (t *Table) checkCapacity() error {
	if len(t.entries) >= MaxSymbols {
		return errors.Errorf("too many symbols: table full at %d entries", MaxSymbols)
	}
	return nil
}

// PatchAddr sets the Addr field of the entry at index idx. Used to
// backpatch a Procedure's entry address once its body's INT is emitted.
func (t *Table) PatchAddr(idx, addr int) {
	t.entries[idx].Addr = addr
}

// Len returns the number of entries appended so far, i.e. the index a
// following Enter* call will occupy.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the entry at idx.
func (t *Table) At(idx int) Entry {
	return t.entries[idx]
}

// Find scans from the most recently appended entry backwards and returns
// the first one named name, so that an inner declaration shadows an outer
// one of the same name (spec.md §3, §4.3).
func (t *Table) Find(name string) (Entry, int, error) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Name == name {
			return t.entries[i], i, nil
		}
	}
	return Entry{}, -1, errors.Errorf("undeclared identifier: %s", name)
}

// WriteDump renders the table in the column layout of the reference
// implementation's debug dump (original_source/xpl0.c's dump()); used
// only from debug builds (SPEC_FULL.md §6).
func (t *Table) WriteDump(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "name\tkind\tlevel\taddr\tval"); err != nil {
		return errors.Wrap(err, "write failed")
	}
	for _, e := range t.entries {
		var err error
		switch e.Kind {
		case Constant:
			_, err = fmt.Fprintf(w, "%s\t%s\t-\t-\t%d\n", e.Name, e.Kind, e.Val)
		default:
			_, err = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t-\n", e.Name, e.Kind, e.Level, e.Addr)
		}
		if err != nil {
			return errors.Wrap(err, "write failed")
		}
	}
	return nil
}
