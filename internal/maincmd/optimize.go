package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/optimize"
	"github.com/felys-lang/felys/lang/reporting"
	"github.com/felys-lang/felys/lang/stdlib"
)

// Optimize runs the parser, the IR builder, and SCCP, then prints each
// function's optimized control-flow graph (§5).
func (c *Cmd) Optimize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	for _, file := range args {
		if err := optimizeFile(stdio, file); err != nil {
			errored = true
		}
	}
	if errored {
		return fmt.Errorf("optimize: one or more files failed")
	}
	return nil
}

func optimizeFile(stdio mainer.Stdio, file string) error {
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

	if err := optimize.OptimizeProgram(prog); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	for _, f := range prog.Functions {
		dumpFunction(stdio.Stdout, in.Lookup(f.Name), f)
	}
	dumpFunction(stdio.Stdout, "main", prog.Main)
	return nil
}
