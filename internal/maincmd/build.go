package maincmd

import (
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"

	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/ir"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/reporting"
	"github.com/felys-lang/felys/lang/stdlib"
)

// Build runs the parser and the IR builder and prints each function's
// control-flow graph, or the accumulated build faults if any (§4.2, §7).
func (c *Cmd) Build(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	for _, file := range args {
		if err := buildFile(stdio, file); err != nil {
			errored = true
		}
	}
	if errored {
		return fmt.Errorf("build: one or more files failed")
	}
	return nil
}

func buildFile(stdio mainer.Stdio, file string) error {
	root, err := parseFile(file)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	in := interner.New(256)
	ns := namespace.New()
	stdlib.Register(in, ns)

	var errs reporting.ErrorList
	prog := build.BuildProgram(in, ns, &errs, root)
	if errs.HasErrors() {
		fmt.Fprintln(stdio.Stderr, errs.Error())
		return &errs
	}

	for _, f := range prog.Functions {
		dumpFunction(stdio.Stdout, in.Lookup(f.Name), f)
	}
	dumpFunction(stdio.Stdout, "main", prog.Main)
	return nil
}

// dumpFunction renders one function's fragments in entry..exit order, the
// pipeline-inspection counterpart of ast.Printer for post-build IR (§6).
func dumpFunction(w io.Writer, name string, f *ir.Function) {
	fmt.Fprintf(w, "%s(%v):\n", name, f.Args)
	for _, lbl := range f.Labels() {
		frag := f.Fragment(lbl)
		fmt.Fprintf(w, "%s:\n", lbl)
		for _, phi := range frag.Phis {
			fmt.Fprintf(w, "  v%d = phi %v %v\n", phi.Dst, phi.Labels, phi.Inputs)
		}
		for _, in := range frag.Instructions {
			fmt.Fprintf(w, "  v%d = %s\n", in.Dst, instrString(in))
		}
		if frag.Terminator != nil {
			fmt.Fprintf(w, "  %s\n", termString(*frag.Terminator))
		}
	}
}

func instrString(in ir.Instruction) string {
	switch in.Op {
	case ir.InstrArg:
		return fmt.Sprintf("arg[%d]", in.ID)
	case ir.InstrField:
		return fmt.Sprintf("field v%d #%d", in.A, in.ID)
	case ir.InstrUnpack:
		return fmt.Sprintf("unpack v%d #%d", in.A, in.ID)
	case ir.InstrPointer:
		return fmt.Sprintf("pointer %s[%d]", in.Kind, in.ID)
	case ir.InstrLoad:
		return fmt.Sprintf("load const[%d]", in.ID)
	case ir.InstrBinary:
		return fmt.Sprintf("v%d %s v%d", in.A, in.BinOp, in.B)
	case ir.InstrUnary:
		return fmt.Sprintf("%s v%d", in.UnOp, in.A)
	case ir.InstrCall:
		return fmt.Sprintf("call v%d %v", in.A, in.Args)
	case ir.InstrList:
		return fmt.Sprintf("list %v", in.Args)
	case ir.InstrTuple:
		return fmt.Sprintf("tuple %v", in.Args)
	case ir.InstrIndex:
		return fmt.Sprintf("index v%d[v%d]", in.A, in.B)
	case ir.InstrMethod:
		return fmt.Sprintf("method v%d #%d %v", in.A, in.ID, in.Args)
	default:
		return "?"
	}
}

func termString(t ir.Terminator) string {
	switch t.Op {
	case ir.TermBranch:
		return fmt.Sprintf("branch v%d %s %s", t.Cond, t.Yes, t.No)
	case ir.TermJump:
		return fmt.Sprintf("jump %s", t.Target)
	case ir.TermReturn:
		return fmt.Sprintf("return v%d", t.RetVar)
	default:
		return "?"
	}
}
