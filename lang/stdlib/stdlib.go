// Package stdlib is the flat (namespace, name, callback) table of built-in
// functions (§6 "Standard library surface"), in the spirit of the teacher's
// lang/machine/universe.go predeclared-value set: a fixed table the
// embedder links in before a program is built, never mutated afterward.
package stdlib

import (
	"strings"

	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
	"github.com/felys-lang/felys/lang/vm"
)

// Entry is one std::<namespace>::<name> callback.
type Entry struct {
	Namespace string
	Name      string
	Func      vm.RustFn
}

// Table is the fixed standard library. Register wires each entry into a
// namespace.Namespace, in declaration order, and returns the parallel
// []vm.RustFn slice codegen's Pointer(Rust, idx) indices refer to.
var Table = []Entry{
	{Namespace: "io", Name: "print", Func: ioPrint},
	{Namespace: "io", Name: "println", Func: ioPrintln},
	{Namespace: "str", Name: "len", Func: strLen},
}

// Register allocates std::<namespace>::<name> for every Table entry and
// returns the callback slice indexed the same way, for vm.New.
func Register(in *interner.Interner, ns *namespace.Namespace) []vm.RustFn {
	std := in.Intern("std")
	callbacks := make([]vm.RustFn, len(Table))
	for idx, e := range Table {
		path := namespace.Path{std, in.Intern(e.Namespace), in.Intern(e.Name)}
		if err := ns.Allocate(path, namespace.Leaf{Kind: namespace.Rust, Idx: uint32(idx)}); err != nil {
			panic(err) // Table entries are distinct by construction
		}
		callbacks[idx] = e.Func
	}
	return callbacks
}

func ioPrint(args []vm.Object, out *[]byte) (vm.Object, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	*out = append(*out, strings.Join(parts, " ")...)
	return vm.VoidVal(), nil
}

func ioPrintln(args []vm.Object, out *[]byte) (vm.Object, error) {
	ret, err := ioPrint(args, out)
	if err != nil {
		return ret, err
	}
	*out = append(*out, '\n')
	return ret, nil
}

func strLen(args []vm.Object, out *[]byte) (vm.Object, error) {
	if len(args) != 1 {
		return vm.Object{}, reporting.NumArgsNotMatch(1, len(args))
	}
	n, ok := args[0].Len()
	if !ok {
		return vm.Object{}, reporting.DataType("str::len", args[0].Kind.String())
	}
	return vm.IntVal(int32(n)), nil
}
