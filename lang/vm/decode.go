package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/felys-lang/felys/lang/bytecode"
)

// operands is one decoded instruction's operand bytes, laid out exactly as
// lang/codegen's assembler wrote them: fixed registers, then immediates,
// then (for LIST/TUPLE/CALL/METHOD) a variable-length trailing register
// list whose length is always one of the already-decoded immediates.
type operands struct {
	regs     []uint8
	imm      []uint32
	variadic []uint8
	target   int
	yes, no  int
}

// decode reads one instruction starting at pc, returning it and the pc of
// the following instruction. It mirrors lang/codegen/emit.go's encode byte
// for byte.
func decode(code []byte, pc uint32) (bytecode.Op, operands, uint32, error) {
	if int(pc) >= len(code) {
		return 0, operands{}, 0, fmt.Errorf("vm: pc %d out of range (len %d)", pc, len(code))
	}
	op := bytecode.Op(code[pc])
	i := int(pc) + 1

	readRegs := func(n int) ([]uint8, error) {
		if i+n > len(code) {
			return nil, fmt.Errorf("vm: truncated register operands for %s", op)
		}
		out := code[i : i+n]
		i += n
		return out, nil
	}
	readImm := func(n int) ([]uint32, error) {
		if i+4*n > len(code) {
			return nil, fmt.Errorf("vm: truncated immediate operands for %s", op)
		}
		out := make([]uint32, n)
		for k := 0; k < n; k++ {
			out[k] = binary.BigEndian.Uint32(code[i : i+4])
			i += 4
		}
		return out, nil
	}

	nRegs, nImm, variadicFromImm := operandShape(op)
	regs, err := readRegs(nRegs)
	if err != nil {
		return 0, operands{}, 0, err
	}
	imm, err := readImm(nImm)
	if err != nil {
		return 0, operands{}, 0, err
	}
	var variadic []uint8
	if variadicFromImm >= 0 {
		variadic, err = readRegs(int(imm[variadicFromImm]))
		if err != nil {
			return 0, operands{}, 0, err
		}
	}

	o := operands{regs: regs, imm: imm, variadic: variadic}
	// o.regs is consumed by execute as a combined slice for variadic ops.
	if variadicFromImm >= 0 {
		o.regs = append(append([]uint8{}, regs...), variadic...)
	}

	switch op {
	case bytecode.JUMP:
		t, err := readImm(1)
		if err != nil {
			return 0, operands{}, 0, err
		}
		o.target = int(t[0])
	case bytecode.BRANCH:
		t, err := readImm(2)
		if err != nil {
			return 0, operands{}, 0, err
		}
		o.yes, o.no = int(t[0]), int(t[1])
	}
	return op, o, uint32(i), nil
}

// operandShape returns the fixed register count, fixed immediate count, and
// (for variadic opcodes) which imm index holds the trailing register-list
// length, or -1 if the opcode has no variadic tail.
func operandShape(op bytecode.Op) (regs, imm int, variadicFromImm int) {
	switch op {
	case bytecode.NOP:
		return 0, 0, -1
	case bytecode.MOVE, bytecode.COPY:
		return 2, 0, -1
	case bytecode.LOADK, bytecode.LOADARG:
		return 1, 1, -1
	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.EQL, bytecode.NEQ, bytecode.LT, bytecode.GT, bytecode.LE, bytecode.GE,
		bytecode.AND, bytecode.OR, bytecode.INDEX:
		return 3, 0, -1
	case bytecode.NEG, bytecode.NOT:
		return 2, 0, -1
	case bytecode.FIELD, bytecode.UNPACK:
		return 2, 1, -1
	case bytecode.POINTER:
		return 1, 2, -1
	case bytecode.LIST, bytecode.TUPLE:
		return 1, 1, 0
	case bytecode.CALL:
		return 2, 1, 0
	case bytecode.METHOD:
		return 2, 2, 1
	case bytecode.JUMP:
		return 0, 0, -1
	case bytecode.BRANCH:
		return 1, 0, -1
	case bytecode.RETURN:
		return 1, 0, -1
	default:
		return 0, 0, -1
	}
}
