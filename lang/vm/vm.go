package vm

import (
	"fmt"
	"math"
	"time"

	"github.com/felys-lang/felys/lang/bytecode"
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
)

// DEPTH bounds the call stack; exceeding it raises StackOverflow (§4.5).
const DEPTH = 4096

// RustFn is one standard-library callback: it reads its arguments and may
// append to out, matching the embedder-facing "mutable output buffer" of
// §6's standard library surface.
type RustFn func(args []Object, out *[]byte) (Object, error)

// Frame is one call's register file and program counter (§4.5). args holds
// the argument values copied from the caller's registers at call time, read
// by LOADARG; retReg is the register of this frame that receives the return
// value of the call it is currently waiting on.
type Frame struct {
	callable *bytecode.Callable
	pc       uint32
	regs     []Object
	args     []Object
	retReg   uint8
}

// Thread executes one Elysia program to completion. It is not safe for
// concurrent use; run one Thread per goroutine.
type Thread struct {
	program  *bytecode.Elysia
	rust     []RustFn
	stack    []*Frame
	stdout   []byte
	deadline <-chan time.Time
	maxDepth int
}

// New builds a Thread ready to run program, with rust providing the
// callback implementations for every Pointer(Rust, idx) the program refers
// to (§6 "the standard-library callback table is re-linked at load time").
func New(program *bytecode.Elysia, rust []RustFn) *Thread {
	return &Thread{program: program, rust: rust, maxDepth: DEPTH}
}

// SetMaxDepth overrides the call-stack depth bound (DEPTH by default), for
// embedders that configure it at startup (e.g. from an env var).
func (t *Thread) SetMaxDepth(depth int) {
	if depth > 0 {
		t.maxDepth = depth
	}
}

// Run executes the program's main callable with arg bound as its single
// parameter, honoring timeout if nonzero (§5 "cooperative time-boxing").
func (t *Thread) Run(arg Object, timeout time.Duration) (Object, string, error) {
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		t.deadline = timer.C
	}
	frame := &Frame{
		callable: &t.program.Main,
		regs:     make([]Object, t.program.Main.Regs),
		args:     []Object{arg},
	}
	t.stack = []*Frame{frame}
	ret, err := t.loop()
	return ret, string(t.stdout), err
}

func (t *Thread) loop() (Object, error) {
	for {
		if len(t.stack) == 0 {
			return VoidVal(), nil
		}
		select {
		case <-t.deadline:
			return Object{}, reporting.ErrTimeout
		default:
		}
		frame := t.stack[len(t.stack)-1]
		op, operands, next, err := decode(frame.callable.Code, frame.pc)
		if err != nil {
			return Object{}, err
		}
		frame.pc = next
		done, ret, err := t.execute(frame, op, operands)
		if err != nil {
			return Object{}, err
		}
		if done {
			if len(t.stack) == 1 {
				return ret, nil
			}
			callerFrame := t.stack[len(t.stack)-2]
			callerFrame.regs[callerFrame.retReg] = ret
			t.stack = t.stack[:len(t.stack)-1]
		}
	}
}

// execute runs one decoded instruction against frame, returning (true, ret,
// nil) when it was a Return that popped the frame.
func (t *Thread) execute(frame *Frame, op bytecode.Op, o operands) (bool, Object, error) {
	switch op {
	case bytecode.NOP:
	case bytecode.MOVE:
		frame.regs[o.regs[0]] = frame.regs[o.regs[1]]
	case bytecode.LOADK:
		frame.regs[o.regs[0]] = constToObject(t.program.Data[o.imm[0]])
	case bytecode.LOADARG:
		n := o.imm[0]
		if int(n) < len(frame.args) {
			frame.regs[o.regs[0]] = frame.args[n]
		} else {
			frame.regs[o.regs[0]] = VoidVal()
		}
	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.EQL, bytecode.NEQ, bytecode.LT, bytecode.GT, bytecode.LE, bytecode.GE,
		bytecode.AND, bytecode.OR:
		res, err := binaryOp(op, frame.regs[o.regs[1]], frame.regs[o.regs[2]])
		if err != nil {
			return false, Object{}, err
		}
		frame.regs[o.regs[0]] = res
	case bytecode.NEG, bytecode.NOT:
		res, err := unaryOp(op, frame.regs[o.regs[1]])
		if err != nil {
			return false, Object{}, err
		}
		frame.regs[o.regs[0]] = res
	case bytecode.FIELD:
		res, err := fieldAccess(t.program, frame.regs[o.regs[1]], o.imm[0])
		if err != nil {
			return false, Object{}, err
		}
		frame.regs[o.regs[0]] = res
	case bytecode.UNPACK:
		res, err := unpack(frame.regs[o.regs[1]], int(o.imm[0]))
		if err != nil {
			return false, Object{}, err
		}
		frame.regs[o.regs[0]] = res
	case bytecode.POINTER:
		frame.regs[o.regs[0]] = Object{Kind: Pointer, PtrKind: namespace.Kind(o.imm[0]), PtrIdx: o.imm[1]}
	case bytecode.INDEX:
		res, err := index(frame.regs[o.regs[1]], frame.regs[o.regs[2]])
		if err != nil {
			return false, Object{}, err
		}
		frame.regs[o.regs[0]] = res
	case bytecode.LIST:
		elems := make([]Object, len(o.regs)-1)
		for i, r := range o.regs[1:] {
			elems[i] = frame.regs[r]
		}
		frame.regs[o.regs[0]] = Object{Kind: List, List: elems}
	case bytecode.TUPLE:
		elems := make([]Object, len(o.regs)-1)
		for i, r := range o.regs[1:] {
			elems[i] = frame.regs[r]
		}
		frame.regs[o.regs[0]] = Object{Kind: Tuple, Tuple: elems}
	case bytecode.CALL:
		return false, Object{}, t.call(frame, o)
	case bytecode.METHOD:
		return false, Object{}, t.method(frame, o)
	case bytecode.JUMP:
		frame.pc = uint32(o.target)
	case bytecode.BRANCH:
		if frame.regs[o.regs[0]].Truthy() {
			frame.pc = uint32(o.yes)
		} else {
			frame.pc = uint32(o.no)
		}
	case bytecode.RETURN:
		return true, frame.regs[o.regs[0]], nil
	case bytecode.COPY:
		frame.regs[o.regs[0]] = frame.regs[o.regs[1]]
	}
	return false, Object{}, nil
}

func (t *Thread) call(frame *Frame, o operands) error {
	dst := o.regs[0]
	fn := frame.regs[o.regs[1]]
	if fn.Kind != Pointer {
		return reporting.DataType("call", kindName(fn.Kind))
	}
	argRegs := o.regs[2:]
	switch fn.PtrKind {
	case namespace.Group:
		elems := make([]Object, len(argRegs))
		for i, r := range argRegs {
			elems[i] = frame.regs[r]
		}
		frame.regs[dst] = Object{Kind: GroupVal, GroupDef: fn.PtrIdx, Fields: elems}
		return nil
	case namespace.Rust:
		if int(fn.PtrIdx) >= len(t.rust) {
			return fmt.Errorf("vm: rust pointer %d out of range", fn.PtrIdx)
		}
		args := make([]Object, len(argRegs))
		for i, r := range argRegs {
			args[i] = frame.regs[r]
		}
		res, err := t.rust[fn.PtrIdx](args, &t.stdout)
		if err != nil {
			return err
		}
		frame.regs[dst] = res
		return nil
	default: // namespace.Function
		return t.pushCall(frame, fn.PtrIdx, argRegs, dst)
	}
}

func (t *Thread) method(frame *Frame, o operands) error {
	dst := o.regs[0]
	recv := frame.regs[o.regs[1]]
	if recv.Kind != GroupVal {
		return reporting.DataType("method", kindName(recv.Kind))
	}
	if int(recv.GroupDef) >= len(t.program.Groups) {
		return fmt.Errorf("vm: group %d out of range", recv.GroupDef)
	}
	group := t.program.Groups[recv.GroupDef]
	nameID := o.imm[0]
	var fnIdx uint32
	found := false
	for _, p := range group.Methods {
		if p.ID == nameID {
			fnIdx, found = p.Idx, true
			break
		}
	}
	if !found {
		return fmt.Errorf("vm: method %d not defined on group %d", nameID, recv.GroupDef)
	}
	argRegs := append([]uint8{}, o.regs[2:]...)
	args := make([]Object, len(argRegs)+1)
	for i, r := range argRegs {
		args[i] = frame.regs[r]
	}
	args[len(argRegs)] = recv
	return t.pushCallArgs(frame, fnIdx, args, dst)
}

func (t *Thread) pushCall(frame *Frame, fnIdx uint32, argRegs []uint8, dst uint8) error {
	args := make([]Object, len(argRegs))
	for i, r := range argRegs {
		args[i] = frame.regs[r]
	}
	return t.pushCallArgs(frame, fnIdx, args, dst)
}

func (t *Thread) pushCallArgs(frame *Frame, fnIdx uint32, args []Object, dst uint8) error {
	if len(t.stack) >= t.maxDepth {
		return reporting.ErrStackOverflow
	}
	if int(fnIdx) >= len(t.program.Text) {
		return fmt.Errorf("vm: function %d out of range", fnIdx)
	}
	callee := &t.program.Text[fnIdx]
	frame.retReg = dst
	t.stack = append(t.stack, &Frame{
		callable: callee,
		regs:     make([]Object, callee.Regs),
		args:     args,
	})
	return nil
}

func kindName(k Kind) string { return k.String() }

func constToObject(c ir.Const) Object {
	switch c.Kind {
	case ir.CInt:
		return IntVal(c.Int)
	case ir.CFloat:
		return Object{Kind: Float, Float: math.Float32frombits(c.Float)}
	case ir.CBool:
		return BoolVal(c.Bool)
	default:
		return StrVal(c.Str)
	}
}
