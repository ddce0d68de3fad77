package codegen

import (
	"encoding/binary"

	"github.com/felys-lang/felys/lang/bytecode"
	"github.com/felys-lang/felys/lang/ir"
)

// copy is one element of a phi's parallel-copy resolution: dst := src,
// both already mapped to physical registers (§4.4 "phi deconstruction").
type copy struct{ dst, src uint8 }

// asmInstr is one not-yet-addressed bytecode instruction: register
// operands, immediates, and (for JUMP/BRANCH) symbolic targets that are
// resolved to byte offsets once every chunk's length is known.
type asmInstr struct {
	op    bytecode.Op
	regs  []uint8  // fixed-position register operands, right after the opcode byte
	imm   []uint32 // immediates, right after the fixed registers
	// variadic holds a trailing register list (LIST/TUPLE/CALL/METHOD argument
	// registers). It is emitted last, after imm, so its length (one of imm's
	// values) is always known by the time a decoder reaches it.
	variadic []uint8
	isJump   bool
	target   int // chunk index, meaningful when isJump
	isBranch bool
	yes, no  int // chunk indices, meaningful when isBranch
}

func (a asmInstr) encodedLen() int {
	n := 1 + len(a.regs) + 4*len(a.imm) + len(a.variadic)
	if a.isJump {
		n += 4
	}
	if a.isBranch {
		n += 8
	}
	return n
}

// chunk is a maximal straight-line run of asmInstr ending in a terminator:
// either a real reachable block or a synthetic phi-resolution trampoline
// reached only from a Branch arm.
type chunk struct {
	instrs []asmInstr
}

func (c *chunk) length() int {
	n := 0
	for _, in := range c.instrs {
		n += in.encodedLen()
	}
	return n
}

// sequentialize orders a set of register-to-register copies so that no
// copy clobbers a source another pending copy still needs, breaking any
// cyclic dependency (e.g. a loop-header phi swap) through scratch.
func sequentialize(copies []copy, scratch uint8) []asmInstr {
	pending := make(map[uint8]copy, len(copies))
	for _, c := range copies {
		pending[c.dst] = c
	}
	srcCount := make(map[uint8]int, len(copies))
	for _, c := range pending {
		srcCount[c.src]++
	}

	var out []asmInstr
	emit := func(dst, src uint8) {
		out = append(out, asmInstr{op: bytecode.COPY, regs: []uint8{dst, src}})
	}

	for len(pending) > 0 {
		progressed := false
		for dst, c := range pending {
			if srcCount[dst] == 0 || (srcCount[c.src] == 1 && c.src == dst) {
				emit(c.dst, c.src)
				srcCount[c.src]--
				delete(pending, dst)
				progressed = true
			}
		}
		if progressed {
			continue
		}
		// Every remaining copy is part of a cycle; break one via scratch.
		var start uint8
		for d := range pending {
			start = d
			break
		}
		emit(scratch, start)
		cur := start
		for {
			c, ok := pending[cur]
			if !ok {
				break
			}
			delete(pending, cur)
			srcCount[c.src]--
			if c.src == start {
				emit(c.dst, scratch)
				break
			}
			emit(c.dst, c.src)
			cur = c.src
		}
	}
	return out
}

// encode appends instr's final bytes to buf, resolving jump/branch targets
// via chunkOffset.
func encode(buf []byte, instr asmInstr, chunkOffset []int) []byte {
	buf = append(buf, byte(instr.op))
	buf = append(buf, instr.regs...)
	for _, v := range instr.imm {
		buf = binary.BigEndian.AppendUint32(buf, v)
	}
	buf = append(buf, instr.variadic...)
	if instr.isJump {
		buf = binary.BigEndian.AppendUint32(buf, uint32(chunkOffset[instr.target]))
	}
	if instr.isBranch {
		buf = binary.BigEndian.AppendUint32(buf, uint32(chunkOffset[instr.yes]))
		buf = binary.BigEndian.AppendUint32(buf, uint32(chunkOffset[instr.no]))
	}
	return buf
}

// assemble lays out chunks in order and produces the final byte stream,
// resolving every jump/branch target to a byte offset in a second pass
// (§4.4, grounded on the teacher's two-pass lang/compiler/asm.go
// assembler).
func assemble(chunks []chunk) []byte {
	offsets := make([]int, len(chunks)+1)
	for i, c := range chunks {
		offsets[i+1] = offsets[i] + c.length()
	}
	var buf []byte
	for _, c := range chunks {
		for _, instr := range c.instrs {
			buf = encode(buf, instr, offsets)
		}
	}
	return buf
}

func binOpcode(op ir.Op) bytecode.Op {
	// ir.Op's iota order (Add..Not) matches bytecode's ADD..NOT run exactly,
	// since opcode.go was laid out to mirror it (§4.4).
	return bytecode.ADD + bytecode.Op(op)
}
