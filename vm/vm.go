// Package vm is the XPL0 stack-machine interpreter: it executes the
// instruction sequence compiler.Compile produces against an integer
// stack addressed through a (p, b, t) register triple, exactly as
// spec.md §4.6 specifies.
//
// The Option constructor pattern, the panic/recover wrapping inside Run,
// and the pkg/errors annotation style are all adapted from the teacher
// repository's vm.Instance/vm.Option/vm/core.go Run loop.
package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/mukaiizawa/XPL0/code"
)

// Activation-record offsets from a frame's base register b, per spec.md
// §3's "Activation record" layout. Named so CAL, Run's RET case, and base
// never disagree about where the linkage slots live.
const (
	offStaticLink  = 0
	offDynamicLink = 1
	offReturnAddr  = 2
	offLocalsBase  = 3
)

// DefaultStackSize is the data-stack capacity spec.md leaves
// implementation-defined; original_source/xpl0.c uses 50, which is too
// tight for anything beyond toy programs, so a more generous default is
// used here. Override with StackSize.
const DefaultStackSize = 4096

// Option configures an Instance at construction time.
type Option func(*Instance) error

// StackSize overrides the data stack's capacity.
func StackSize(n int) Option {
	return func(i *Instance) error {
		if n <= offLocalsBase {
			return errors.Errorf("stack size %d too small", n)
		}
		i.stack = make([]int, n)
		return nil
	}
}

// Output sets the writer that receives "assign V" trace lines (spec.md
// §6). Defaults to io.Discard.
func Output(w io.Writer) Option {
	return func(i *Instance) error {
		i.out = w
		return nil
	}
}

// VMTrace sets the writer that receives one line per executed
// instruction: opcode, `l,a`, `b`, `t`, and the live stack contents with
// `^` marking base and `$` marking top. Debug builds wire this up;
// normal builds never call it (spec.md §6, "per-instruction VM trace").
func VMTrace(w io.Writer) Option {
	return func(i *Instance) error {
		i.vmTrace = w
		return nil
	}
}

// Instance is one run of the XPL0 stack machine.
type Instance struct {
	code []code.Instruction
	// p, b, t are the program counter, base register, and top-of-stack
	// index spec.md §4.6 names.
	p, b, t  int
	stack    []int
	out      io.Writer
	vmTrace  io.Writer
	insCount int64
}

// New creates an Instance ready to execute prog. p starts at 0, b at 1, t
// at 0, and the stack is zero-initialized, so that the outermost
// procedure's unwritten return-address slot reads back as 0 and RET at
// depth 1 ends execution (spec.md §9.4).
func New(prog []code.Instruction, opts ...Option) (*Instance, error) {
	i := &Instance{
		code: prog,
		b:    1,
		out:  io.Discard,
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if i.stack == nil {
		i.stack = make([]int, DefaultStackSize)
	}
	return i, nil
}

// InstructionCount returns the number of instructions executed so far.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}

// base walks the static-link chain level times starting from b, the way
// spec.md §4.6 defines it.
func (i *Instance) base(b, level int) int {
	for ; level > 0; level-- {
		b = i.stack[b+offStaticLink]
	}
	return b
}

// Run executes the code array starting at p=0 until a RET at the
// outermost frame sets p back to 0 (spec.md §4.6). Any runtime panic
// (index out of range from a malformed program, for instance) is
// recovered and reported as an error, the way vm/core.go's Run does.
func (i *Instance) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrapf(e, "runtime error at p=%d", i.p)
			} else {
				err = errors.Errorf("runtime error at p=%d: %v", i.p, r)
			}
		}
	}()

	for {
		if i.t >= len(i.stack) {
			return errors.New("stack overflow")
		}
		inst := i.code[i.p]
		if i.vmTrace != nil {
			if err := i.traceInstruction(inst); err != nil {
				return err
			}
		}
		i.p++
		if err := i.step(inst); err != nil {
			return err
		}
		i.insCount++
		if i.p == 0 {
			return nil
		}
	}
}

func (i *Instance) step(inst code.Instruction) error {
	s := i.stack
	switch inst.Op {
	case code.LIT:
		i.t++
		s[i.t] = inst.A
	case code.OPR:
		return i.operate(code.Op(inst.A))
	case code.LOD:
		i.t++
		s[i.t] = s[i.base(i.b, inst.L)+inst.A]
	case code.STO:
		if err := i.trace(s[i.t]); err != nil {
			return err
		}
		s[i.base(i.b, inst.L)+inst.A] = s[i.t]
		i.t--
	case code.CAL:
		s[i.t+1+offStaticLink] = i.base(i.b, inst.L)
		s[i.t+1+offDynamicLink] = i.b
		s[i.t+1+offReturnAddr] = i.p
		i.b = i.t + 1
		i.p = inst.A
	case code.INT:
		i.t += inst.A
	case code.JMP:
		i.p = inst.A
	case code.JPC:
		cond := s[i.t]
		i.t--
		if cond == 0 {
			i.p = inst.A
		}
	default:
		return errors.Errorf("illegal opcode %v", inst.Op)
	}
	return nil
}

func (i *Instance) operate(op code.Op) error {
	s := i.stack
	switch op {
	case code.RET:
		// Read the dynamic link and return address out of the current
		// frame (based at i.b) before i.b itself is overwritten; using
		// the post-teardown t here, as offDynamicLink/offReturnAddr are
		// defined relative to b, would read one slot too early.
		dynamicLink := s[i.b+offDynamicLink]
		returnAddr := s[i.b+offReturnAddr]
		i.t = i.b - 1
		i.b = dynamicLink
		i.p = returnAddr
	case code.NEGATE:
		s[i.t] = -s[i.t]
	case code.ADD:
		i.t--
		s[i.t] = s[i.t] + s[i.t+1]
	case code.SUB:
		i.t--
		s[i.t] = s[i.t] - s[i.t+1]
	case code.MUL:
		i.t--
		s[i.t] = s[i.t] * s[i.t+1]
	case code.DIV:
		i.t--
		s[i.t] = s[i.t] / s[i.t+1]
	case code.ODD:
		// spec.md §3: ODD replaces top with top mod 2 (Go's % keeps the
		// dividend's sign, matching the reference's C semantics).
		s[i.t] = s[i.t] % 2
	case code.EQ:
		i.t--
		s[i.t] = boolInt(s[i.t] == s[i.t+1])
	case code.NEQ:
		i.t--
		s[i.t] = boolInt(s[i.t] != s[i.t+1])
	case code.LT:
		i.t--
		s[i.t] = boolInt(s[i.t] < s[i.t+1])
	case code.GEQ:
		i.t--
		s[i.t] = boolInt(s[i.t] >= s[i.t+1])
	case code.GT:
		i.t--
		s[i.t] = boolInt(s[i.t] > s[i.t+1])
	case code.LEQ:
		i.t--
		s[i.t] = boolInt(s[i.t] <= s[i.t+1])
	default:
		return errors.Errorf("illegal operator %v", op)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// traceInstruction writes one VMTrace line for inst before it executes,
// following original_source/xpl0.c's debug dump layout: opcode, l,a, the
// current b and t, then the live stack with ^ marking base and $ marking
// top.
func (i *Instance) traceInstruction(inst code.Instruction) error {
	var stk strings.Builder
	for idx := 1; idx <= i.t; idx++ {
		if idx > 1 {
			stk.WriteByte(' ')
		}
		fmt.Fprintf(&stk, "%d", i.stack[idx])
		if idx == i.b {
			stk.WriteByte('^')
		}
		if idx == i.t {
			stk.WriteByte('$')
		}
	}
	_, err := fmt.Fprintf(i.vmTrace, "%-4s %d,%-4d b=%-4d t=%-4d [%s]\n",
		inst.Op, inst.L, inst.A, i.b, i.t, stk.String())
	if err != nil {
		return errors.Wrap(err, "vm trace write failed")
	}
	return nil
}

func (i *Instance) trace(v int) error {
	if _, err := fmt.Fprintf(i.out, "assign %d\n", v); err != nil {
		return errors.Wrap(err, "trace write failed")
	}
	return nil
}
