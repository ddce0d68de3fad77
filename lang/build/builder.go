// Package build lowers a parsed ast.Root to per-function IR in pruned SSA
// form, following Braun, Buchwald, Hack "Simple and Efficient Construction
// of Static Single Assignment Form" (§4.2): on-the-fly definition tracking,
// incomplete phis at unsealed blocks, sealing, and phi insertion on demand.
//
// The shape of this package — walk the AST once, keep scope state in local
// maps, and collect structural errors into a list rather than panicking —
// is adapted from the teacher's lang/resolver package, generalized from
// name-binding resolution to SSA value construction.
package build

import (
	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
)

// fn is the state kept while building a single function's CFG.
type fn struct {
	f          *ir.Function
	nextVar    ir.Var
	nextLabel  uint32
	defs       map[ir.Label]map[string]ir.Var
	incomplete map[ir.Label]map[string]ir.Var // local name -> phi Var awaiting operands
	sealed     map[ir.Label]bool
	loops      []*loopState
	forCounter int // disambiguates synthetic `for`-desugaring bindings
}

type loopState struct {
	header ir.Label // loop continues here
	after  ir.Label // break target
	hasVal bool     // whether any break so far recorded a value
}

// constPool deduplicates constant-pool entries across every function built
// by a single Builder, matching the single shared constants array that the
// bytecode format serializes (§6).
type constPool struct {
	values []ir.Const
	index  map[ir.Const]uint32
}

func newConstPool() *constPool {
	return &constPool{index: make(map[ir.Const]uint32)}
}

func (p *constPool) intern(c ir.Const) uint32 {
	if id, ok := p.index[c]; ok {
		return id
	}
	id := uint32(len(p.values))
	p.values = append(p.values, c)
	p.index[c] = id
	return id
}

// Constants returns the accumulated, deduplicated constant pool in
// insertion order, ready for bytecode serialization.
func (b *Builder) Constants() []ir.Const { return b.pool.values }

// retName is the reserved pseudo-binding used to thread a function's return
// value (or an if/loop expression's produced value) through the exit/join
// block, as described in §4.2 and §9.
const retName = "$ret"

// Builder turns a single function body into SSA IR, resolving identifiers
// against a shared namespace and interner.
type Builder struct {
	in   *interner.Interner
	ns   *namespace.Namespace
	errs *reporting.ErrorList
	pool *constPool
	cur  *fn
}

// New returns a Builder sharing in and ns with the rest of the compilation
// unit, collecting faults into errs.
func New(in *interner.Interner, ns *namespace.Namespace, errs *reporting.ErrorList) *Builder {
	return &Builder{in: in, ns: ns, errs: errs, pool: newConstPool()}
}

func (b *Builder) newVar() ir.Var {
	b.cur.nextVar++
	return b.cur.nextVar
}

func (b *Builder) newLabel() ir.Label {
	l := ir.BlockLabel(b.cur.nextLabel)
	b.cur.nextLabel++
	b.cur.f.SetFragment(l, &ir.Fragment{})
	return l
}

func (b *Builder) fragment(l ir.Label) *ir.Fragment { return b.cur.f.Fragment(l) }

// alive reports whether l can still receive instructions/terminators: it is
// alive unless it already ends in a terminator (e.g. after a return, break
// or continue) or has been sealed with zero predecessors (and is not
// Entry), per §4.2's dead-path handling.
func (b *Builder) alive(l ir.Label) bool {
	frag := b.fragment(l)
	if frag == nil || frag.Terminator != nil {
		return false
	}
	if l.Kind == ir.LabelEntry {
		return true
	}
	if b.cur.sealed[l] && len(frag.Predecessors) == 0 {
		return false
	}
	return true
}

// emit appends instr to l's instruction list, silently dropping it if l is
// dead (§4.2).
func (b *Builder) emit(l ir.Label, instr ir.Instruction) {
	if !b.alive(l) {
		return
	}
	frag := b.fragment(l)
	frag.Instructions = append(frag.Instructions, instr)
}

// setTerm attaches term to l as its terminator, silently dropping it if l
// is dead. It never overwrites an existing terminator (only one terminator
// per reachable fragment is allowed, §3).
func (b *Builder) setTerm(l ir.Label, term ir.Terminator) {
	if !b.alive(l) {
		return
	}
	frag := b.fragment(l)
	if frag.Terminator != nil {
		return
	}
	t := term
	frag.Terminator = &t
}

// addEdge records that pred is (now) a predecessor of succ. It must be
// called before succ is sealed.
func (b *Builder) addEdge(pred, succ ir.Label) {
	frag := b.fragment(succ)
	frag.Predecessors = append(frag.Predecessors, pred)
}

// define records that name is bound to v within label's local scope.
func (b *Builder) define(label ir.Label, name string, v ir.Var) {
	m := b.cur.defs[label]
	if m == nil {
		m = make(map[string]ir.Var)
		b.cur.defs[label] = m
	}
	m[name] = v
}

// lookup resolves name's reaching definition at label, installing
// incomplete phis at unsealed blocks and real phis at sealed join blocks,
// per Braun et al.'s algorithm.
func (b *Builder) lookup(label ir.Label, name string) (ir.Var, bool) {
	if m, ok := b.cur.defs[label]; ok {
		if v, ok := m[name]; ok {
			return v, true
		}
	}
	return b.lookupInBlock(label, name)
}

func (b *Builder) lookupInBlock(label ir.Label, name string) (ir.Var, bool) {
	if !b.cur.sealed[label] {
		// Not sealed yet: allocate a placeholder Var and remember it as an
		// incomplete phi to be filled in when label is sealed.
		v := b.newVar()
		b.define(label, name, v)
		m := b.cur.incomplete[label]
		if m == nil {
			m = make(map[string]ir.Var)
			b.cur.incomplete[label] = m
		}
		m[name] = v
		return v, true
	}

	frag := b.fragment(label)
	if frag == nil {
		return 0, false
	}
	preds := frag.Predecessors
	if len(preds) == 0 {
		return 0, false
	}
	if len(preds) == 1 {
		v, ok := b.lookup(preds[0], name)
		if ok {
			b.define(label, name, v)
		}
		return v, ok
	}

	// Multiple predecessors: allocate a phi result, bind it locally first to
	// break lookup cycles at loop headers, then fill operands.
	v := b.newVar()
	b.define(label, name, v)
	phi := ir.Phi{Dst: v}
	found := false
	for _, p := range preds {
		pv, ok := b.lookup(p, name)
		if ok {
			found = true
		}
		phi.Labels = append(phi.Labels, p)
		phi.Inputs = append(phi.Inputs, pv)
	}
	if !found {
		return 0, false
	}
	frag.Phis = append(frag.Phis, phi)
	return v, true
}

// seal marks label as having its final predecessor set, materializing any
// incomplete phis recorded for it (§4.2).
func (b *Builder) seal(label ir.Label) {
	if b.cur.sealed[label] {
		return
	}
	b.cur.sealed[label] = true
	pending := b.cur.incomplete[label]
	delete(b.cur.incomplete, label)
	frag := b.fragment(label)
	if frag == nil || len(pending) == 0 {
		return
	}
	if len(frag.Predecessors) <= 1 {
		// single predecessor (or none, e.g. unreachable): no phi needed, the
		// placeholder Var already equals the predecessor's value via lookup
		// once re-resolved below.
		for name, v := range pending {
			if len(frag.Predecessors) == 1 {
				if pv, ok := b.lookup(frag.Predecessors[0], name); ok {
					b.aliasTo(label, v, pv)
				}
			}
		}
		return
	}
	for name, v := range pending {
		phi := ir.Phi{Dst: v}
		for _, p := range frag.Predecessors {
			pv, _ := b.lookup(p, name)
			phi.Labels = append(phi.Labels, p)
			phi.Inputs = append(phi.Inputs, pv)
		}
		frag.Phis = append(frag.Phis, phi)
	}
}

// aliasTo records that v and pv denote the same value when a placeholder
// var turned out not to need a phi; callers that later look up v by name
// keep getting v itself (SSA identity), but we record a trivial Phi so the
// optimizer's rename pass can fold it away uniformly. Using a single-input
// phi keeps the "a Var is either an instruction result or a phi result"
// invariant simple for later stages.
func (b *Builder) aliasTo(label ir.Label, v, pv ir.Var) {
	frag := b.fragment(label)
	frag.Phis = append(frag.Phis, ir.Phi{Dst: v, Labels: frag.Predecessors, Inputs: []ir.Var{pv}})
}

// BuildFunction lowers one function body to SSA IR: name is its already
// interned identity, args its parameter names bound in argument order via
// InstrArg, and body its statement block. The zero Var is never assigned,
// so NumVars is one greater than the highest Var actually allocated.
func (b *Builder) BuildFunction(name interner.ID, args []string, body *ast.Block) *ir.Function {
	f := &ir.Function{Name: name}
	b.cur = &fn{
		f:          f,
		defs:       make(map[ir.Label]map[string]ir.Var),
		incomplete: make(map[ir.Label]map[string]ir.Var),
		sealed:     make(map[ir.Label]bool),
	}
	f.SetFragment(ir.EntryLabel(), &ir.Fragment{})
	f.SetFragment(ir.ExitLabel(), &ir.Fragment{})
	b.seal(ir.EntryLabel())

	f.Args = make([]ir.Var, len(args))
	for i, name := range args {
		v := b.newVar()
		b.emit(ir.EntryLabel(), ir.Instruction{Op: ir.InstrArg, Dst: v, ID: uint32(i)})
		b.define(ir.EntryLabel(), name, v)
		f.Args[i] = v
	}

	end, val, has := b.lowerBlock(ir.EntryLabel(), body)
	if b.alive(end) {
		if has {
			b.define(end, retName, val)
		} else {
			b.errs.Add(reporting.FunctionNoReturn(body.Span()))
			val = b.loadDummy(end)
			b.define(end, retName, val)
		}
		b.addEdge(end, ir.ExitLabel())
		b.setTerm(end, ir.Terminator{Op: ir.TermJump, Target: ir.ExitLabel()})
	}

	b.seal(ir.ExitLabel())
	retVar, _ := b.lookup(ir.ExitLabel(), retName)
	exit := f.Fragment(ir.ExitLabel())
	if exit.Terminator == nil {
		exit.Terminator = &ir.Terminator{Op: ir.TermReturn, RetVar: retVar}
	}

	f.NumVars = uint32(b.cur.nextVar) + 1
	b.cur = nil
	return f
}
