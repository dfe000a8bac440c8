// Package code implements the append-and-patch instruction store spec.md
// §3/§4.4 calls the "code buffer": a flat array of three-field
// instructions that the compiler appends to while parsing, and patches in
// place at recorded indices to close forward jumps.
//
// The opcode set and the append/patch contract play the same role here
// that the ngaro VM's Cell image and asm package's parser.write/Disassemble
// play for a Forth-like machine; adapted to XPL0's LIT/OPR/LOD/STO/CAL/
// INT/JMP/JPC instruction set.
package code

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// MaxCode is the code buffer's capacity (spec.md §3). Overflow is fatal.
const MaxCode = 2000

// Op is an XPL0 stack-machine opcode.
type Op int

// Opcodes, per spec.md §3.
const (
	LIT Op = iota
	OPR
	LOD
	STO
	CAL
	INT
	JMP
	JPC
)

var opNames = [...]string{"LIT", "OPR", "LOD", "STO", "CAL", "INT", "JMP", "JPC"}

func (op Op) String() string {
	if int(op) < 0 || int(op) >= len(opNames) {
		return "???"
	}
	return opNames[op]
}

// Operator codes used as the `a` field of an OPR instruction (spec.md §3).
// Code 7 is intentionally unused, matching the reference enumeration.
const (
	RET Op = iota
	NEGATE
	ADD
	SUB
	MUL
	DIV
	ODD
	_ // unused operator code 7
	EQ
	NEQ
	LT
	GEQ
	GT
	LEQ
)

var operatorNames = map[Op]string{
	RET: "ret", NEGATE: "neg", ADD: "+", SUB: "-", MUL: "*", DIV: "/",
	ODD: "odd", EQ: "=", NEQ: "#", LT: "<", GEQ: ">=", GT: ">", LEQ: "<=",
}

// Instruction is the (m, l, a) triple spec.md §3 defines.
type Instruction struct {
	Op Op
	L  int
	A  int
}

func (ins Instruction) String() string {
	if ins.Op == OPR {
		return fmt.Sprintf("OPR 0,%s", operatorNames[Op(ins.A)])
	}
	return fmt.Sprintf("%s %d,%d", ins.Op, ins.L, ins.A)
}

// Buffer is the append-only, in-place-patchable code array.
type Buffer struct {
	code []Instruction
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Gen appends an instruction and returns its index, so the caller can
// later Patch it (the "capture cx just before gen" idiom of spec.md §4.4).
func (b *Buffer) Gen(op Op, l, a int) (int, error) {
	if len(b.code) >= MaxCode {
		return 0, errors.Errorf("source too large: code buffer full at %d instructions", MaxCode)
	}
	idx := len(b.code)
	b.code = append(b.code, Instruction{Op: op, L: l, A: a})
	return idx, nil
}

// Patch overwrites the `a` field of the instruction at idx. No other
// field, and no other index, is ever modified by Patch.
func (b *Buffer) Patch(idx, a int) {
	b.code[idx].A = a
}

// Len returns the number of instructions generated so far; this is the
// index the next Gen call will occupy.
func (b *Buffer) Len() int {
	return len(b.code)
}

// At returns the instruction at idx.
func (b *Buffer) At(idx int) Instruction {
	return b.code[idx]
}

// Instructions returns the generated code as a read-only snapshot, for
// handing off to the interpreter.
func (b *Buffer) Instructions() []Instruction {
	out := make([]Instruction, len(b.code))
	copy(out, b.code)
	return out
}

// WriteListing renders the buffer as "idx: MNEMONIC l,a" lines, one per
// instruction, following original_source/xpl0.c's dump() layout. Used by
// debug builds only (SPEC_FULL.md §7).
func (b *Buffer) WriteListing(w io.Writer) error {
	for i, ins := range b.code {
		if _, err := fmt.Fprintf(w, "%4d: %s %d,%d\n", i, ins.Op, ins.L, ins.A); err != nil {
			return errors.Wrap(err, "write failed")
		}
	}
	return nil
}
