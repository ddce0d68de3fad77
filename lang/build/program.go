package build

import (
	"fmt"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
)

// Program is the whole-file result of building an ast.Root: every function
// (free, associated, or method) in one flat, namespace-indexed slice, every
// group's layout, and the distinguished main entry point (§4.2, §6).
type Program struct {
	Functions []*ir.Function
	Groups    []*ir.GroupDef
	Constants []ir.Const
	Main      *ir.Function
	MainArg   string
}

// pendingFn is a function body whose namespace slot has already been
// reserved (so forward references from sibling bodies resolve) but whose
// IR has not yet been built.
type pendingFn struct {
	idx  int
	name string
	args []string
	body *ast.Block
}

// BuildProgram lowers every item in root to IR, populating ns with a leaf
// for every group, free function, and associated function (methods are
// reachable only through their group's GroupDef.Methods table, per §3's
// method-dispatch design). ns should already contain any standard-library
// bindings the program is allowed to reference.
func BuildProgram(in *interner.Interner, ns *namespace.Namespace, errs *reporting.ErrorList, root *ast.Root) *Program {
	p := &Program{}
	b := New(in, ns, errs)

	var pending []pendingFn
	var mains []*ast.Main

	// Phase 1a: groups, so impl blocks (processed next) can find them
	// regardless of declaration order.
	groupIdx := make(map[string]int)
	for _, item := range root.Items {
		g, ok := item.(*ast.Group)
		if !ok {
			continue
		}
		idx := len(p.Groups)
		gd := &ir.GroupDef{
			Name:    in.Intern(g.Name),
			Fields:  make([]interner.ID, len(g.Fields)),
			Indices: make(map[interner.ID]int, len(g.Fields)),
			Methods: make(map[interner.ID]uint32),
		}
		for i, fld := range g.Fields {
			id := in.Intern(fld)
			gd.Fields[i] = id
			gd.Indices[id] = i
		}
		p.Groups = append(p.Groups, gd)
		groupIdx[g.Name] = idx
		path := namespace.Path{in.Intern(g.Name)}
		if err := ns.Allocate(path, namespace.Leaf{Kind: namespace.Group, Idx: uint32(idx)}); err != nil {
			errs.Add(reporting.DuplicatePath(g.Span(), g.Name))
		}
	}

	// Phase 1b: free functions and main, reserving a function slot per fn.
	for _, item := range root.Items {
		switch it := item.(type) {
		case *ast.Group:
			// handled above
		case *ast.Fn:
			idx := len(p.Functions)
			p.Functions = append(p.Functions, nil)
			path := namespace.Path{in.Intern(it.Name)}
			if err := ns.Allocate(path, namespace.Leaf{Kind: namespace.Function, Idx: uint32(idx)}); err != nil {
				errs.Add(reporting.DuplicatePath(it.Span(), it.Name))
			}
			pending = append(pending, pendingFn{idx, it.Name, it.Args, it.Body})
		case *ast.Main:
			mains = append(mains, it)
		case *ast.Impl:
			// handled below, once every group is known
		default:
			panic(fmt.Sprintf("build: unknown item %T", item))
		}
	}

	// Phase 1c: impl blocks, attaching associated functions to the namespace
	// and registering methods in their group's method table.
	for _, item := range root.Items {
		impl, ok := item.(*ast.Impl)
		if !ok {
			continue
		}
		gi, ok := groupIdx[impl.GroupName]
		if !ok {
			errs.Add(reporting.PathNotExist(impl.Span(), impl.GroupName))
			continue
		}
		groupPath := namespace.Path{in.Intern(impl.GroupName)}
		for _, member := range impl.Members {
			switch m := member.(type) {
			case *ast.Associated:
				idx := len(p.Functions)
				p.Functions = append(p.Functions, nil)
				nameID := in.Intern(m.Name)
				if err := ns.Attach(groupPath, nameID, namespace.Leaf{Kind: namespace.Function, Idx: uint32(idx)}); err != nil {
					errs.Add(reporting.DuplicatePath(m.Span(), impl.GroupName+"::"+m.Name))
				}
				pending = append(pending, pendingFn{idx, m.Name, m.Args, m.Body})
			case *ast.Method:
				nameID := in.Intern(m.Name)
				if _, dup := p.Groups[gi].Methods[nameID]; dup {
					errs.Add(reporting.DuplicatePath(m.Span(), impl.GroupName+"."+m.Name))
					continue
				}
				idx := len(p.Functions)
				p.Functions = append(p.Functions, nil)
				p.Groups[gi].Methods[nameID] = uint32(idx)
				args := append(append([]string{}, m.Args...), "self")
				pending = append(pending, pendingFn{idx, m.Name, args, m.Body})
			default:
				panic(fmt.Sprintf("build: unknown impl member %T", member))
			}
		}
	}

	// Phase 2: build every reserved function body now that every path
	// resolves, so forward and mutually recursive references both work.
	for _, pf := range pending {
		p.Functions[pf.idx] = b.BuildFunction(in.Intern(pf.name), pf.args, pf.body)
	}

	switch len(mains) {
	case 0:
		errs.Add(reporting.MainNotFound())
	default:
		m := mains[0]
		p.Main = b.BuildFunction(in.Intern("main"), []string{m.Arg}, m.Body)
		p.MainArg = m.Arg
	}

	p.Constants = b.Constants()
	return p
}
