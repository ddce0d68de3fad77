package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/felys-lang/felys/lang/ir"
)

// Callable is a compiled function value ready for the VM: its arity,
// register-file size, and flat bytecode (§9 "Callable").
type Callable struct {
	Args uint8
	Regs uint8
	Code []byte
}

// IDPair is one (interned id, slot index) entry of a group's field-index or
// method table. Kept as an ordered slice rather than a map so
// serialization is byte-for-byte deterministic (§7 "Bytecode round trip").
type IDPair struct {
	ID  uint32
	Idx uint32
}

// Group is the on-disk layout of a user-defined group: its field-name to
// positional-index table and its method-name to function-index table.
type Group struct {
	Indices []IDPair
	Methods []IDPair
}

// Elysia is the whole serialized program (§9): the entry callable, every
// other compiled function, the deduplicated constant pool, and every
// group's layout. The standard-library callback table ("rust") is
// deliberately absent: it is re-linked against the host's registry at load
// time rather than serialized.
type Elysia struct {
	Main   Callable
	Text   []Callable
	Data   []ir.Const
	Groups []Group
}

// Dump serializes e per §6's big-endian wire format: the main callable,
// then len:u32 + callables, then len:u32 + constants, then len:u32 +
// groups.
func Dump(e *Elysia) []byte {
	var w writer
	w.callable(e.Main)
	w.u32(uint32(len(e.Text)))
	for _, c := range e.Text {
		w.callable(c)
	}
	w.u32(uint32(len(e.Data)))
	for _, c := range e.Data {
		w.constant(c)
	}
	w.u32(uint32(len(e.Groups)))
	for _, g := range e.Groups {
		w.group(g)
	}
	return w.buf
}

// Load deserializes the bytes Dump produced. It returns an error on a
// truncated or structurally invalid buffer; it does not itself verify a
// content hash (see DumpChecked/LoadChecked for that).
func Load(b []byte) (*Elysia, error) {
	r := &reader{buf: b}
	e := &Elysia{}
	var err error
	if e.Main, err = r.callable(); err != nil {
		return nil, err
	}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		e.Text = make([]Callable, n)
	}
	for i := range e.Text {
		if e.Text[i], err = r.callable(); err != nil {
			return nil, err
		}
	}
	if n, err = r.u32(); err != nil {
		return nil, err
	}
	if n > 0 {
		e.Data = make([]ir.Const, n)
	}
	for i := range e.Data {
		if e.Data[i], err = r.constant(); err != nil {
			return nil, err
		}
	}
	if n, err = r.u32(); err != nil {
		return nil, err
	}
	if n > 0 {
		e.Groups = make([]Group, n)
	}
	for i := range e.Groups {
		if e.Groups[i], err = r.group(); err != nil {
			return nil, err
		}
	}
	if len(r.buf) != 0 {
		return nil, fmt.Errorf("bytecode: %d trailing bytes after groups", len(r.buf))
	}
	return e, nil
}

// DumpChecked appends an 8-byte xxhash64 checksum of the payload, so a
// corrupted or truncated saved file is caught at LoadChecked time rather
// than surfacing as a confusing mid-VM decode error.
func DumpChecked(e *Elysia) []byte {
	payload := Dump(e)
	sum := xxhash.Sum64(payload)
	out := make([]byte, len(payload)+8)
	copy(out, payload)
	binary.BigEndian.PutUint64(out[len(payload):], sum)
	return out
}

// LoadChecked verifies the trailing checksum DumpChecked appended before
// decoding.
func LoadChecked(b []byte) (*Elysia, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("bytecode: file too short for checksum")
	}
	payload, want := b[:len(b)-8], binary.BigEndian.Uint64(b[len(b)-8:])
	if got := xxhash.Sum64(payload); got != want {
		return nil, fmt.Errorf("bytecode: checksum mismatch (corrupt file): want %x got %x", want, got)
	}
	return Load(payload)
}

type writer struct{ buf []byte }

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) callable(c Callable) {
	w.u8(c.Args)
	w.u8(c.Regs)
	w.bytes(c.Code)
}

func (w *writer) constant(c ir.Const) {
	w.u8(uint8(c.Kind))
	switch c.Kind {
	case ir.CInt:
		w.u32(uint32(c.Int))
	case ir.CFloat:
		w.u32(c.Float)
	case ir.CBool:
		if c.Bool {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case ir.CStr:
		w.bytes([]byte(c.Str))
	}
}

func (w *writer) pairs(ps []IDPair) {
	w.u32(uint32(len(ps)))
	for _, p := range ps {
		w.u32(p.ID)
		w.u32(p.Idx)
	}
}

func (w *writer) group(g Group) {
	w.pairs(g.Indices)
	w.pairs(g.Methods)
}

type reader struct{ buf []byte }

func (r *reader) u8() (uint8, error) {
	if len(r.buf) < 1 {
		return 0, fmt.Errorf("bytecode: truncated u8")
	}
	v := r.buf[0]
	r.buf = r.buf[1:]
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if len(r.buf) < 4 {
		return 0, fmt.Errorf("bytecode: truncated u32")
	}
	v := binary.BigEndian.Uint32(r.buf)
	r.buf = r.buf[4:]
	return v, nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if uint32(len(r.buf)) < n {
		return nil, fmt.Errorf("bytecode: truncated byte slice of length %d", n)
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b, nil
}

func (r *reader) callable() (Callable, error) {
	args, err := r.u8()
	if err != nil {
		return Callable{}, err
	}
	regs, err := r.u8()
	if err != nil {
		return Callable{}, err
	}
	code, err := r.bytes()
	if err != nil {
		return Callable{}, err
	}
	return Callable{Args: args, Regs: regs, Code: append([]byte(nil), code...)}, nil
}

func (r *reader) constant() (ir.Const, error) {
	tag, err := r.u8()
	if err != nil {
		return ir.Const{}, err
	}
	switch ir.ConstKind(tag) {
	case ir.CInt:
		v, err := r.u32()
		if err != nil {
			return ir.Const{}, err
		}
		return ir.IntConst(int32(v)), nil
	case ir.CFloat:
		v, err := r.u32()
		if err != nil {
			return ir.Const{}, err
		}
		return ir.FloatConst(v), nil
	case ir.CBool:
		v, err := r.u8()
		if err != nil {
			return ir.Const{}, err
		}
		return ir.BoolConst(v != 0), nil
	case ir.CStr:
		b, err := r.bytes()
		if err != nil {
			return ir.Const{}, err
		}
		return ir.StrConst(string(b)), nil
	default:
		return ir.Const{}, fmt.Errorf("bytecode: unknown constant tag %d", tag)
	}
}

func (r *reader) pairs() ([]IDPair, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]IDPair, n)
	for i := range out {
		id, err := r.u32()
		if err != nil {
			return nil, err
		}
		idx, err := r.u32()
		if err != nil {
			return nil, err
		}
		out[i] = IDPair{ID: id, Idx: idx}
	}
	return out, nil
}

func (r *reader) group() (Group, error) {
	indices, err := r.pairs()
	if err != nil {
		return Group{}, err
	}
	methods, err := r.pairs()
	if err != nil {
		return Group{}, err
	}
	return Group{Indices: indices, Methods: methods}, nil
}
