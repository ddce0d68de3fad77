package maincmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mna/mainer"

	"github.com/felys-lang/felys/lang/bytecode"
	"github.com/felys-lang/felys/lang/build"
	"github.com/felys-lang/felys/lang/codegen"
	"github.com/felys-lang/felys/lang/interner"
	"github.com/felys-lang/felys/lang/namespace"
	"github.com/felys-lang/felys/lang/optimize"
	"github.com/felys-lang/felys/lang/reporting"
	"github.com/felys-lang/felys/lang/stdlib"
	"github.com/felys-lang/felys/lang/vm"
)

// Compile runs the full pipeline through codegen and writes the program's
// serialized bytecode (§6, §9 "Bytecode round trip") to stdout.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		err := fmt.Errorf("compile: exactly one file must be provided")
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	prog, _, err := compileFile(stdio, args[0])
	if err != nil {
		return err
	}
	if _, err := stdio.Stdout.Write(bytecode.Dump(prog)); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}

// Run compiles a single file and executes it with arg bound to Int(c.Arg),
// printing the program's stdout followed by its exit value (§5, §6).
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 1 {
		err := fmt.Errorf("run: exactly one file must be provided")
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	prog, rust, err := compileFile(stdio, args[0])
	if err != nil {
		return err
	}

	cfg, err := loadEnvConfig()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	timeout := cfg.Timeout
	if c.TimeoutMS > 0 {
		timeout = time.Duration(c.TimeoutMS) * time.Millisecond
	}

	t := vm.New(prog, rust)
	t.SetMaxDepth(cfg.StackDepth)
	ret, stdout, err := t.Run(vm.IntVal(int32(c.Arg)), timeout)
	fmt.Fprint(stdio.Stdout, stdout)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	fmt.Fprintln(stdio.Stdout, ret.String())
	return nil
}

func compileFile(stdio mainer.Stdio, file string) (*bytecode.Elysia, []vm.RustFn, error) {
	root, err := parseFile(file)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return nil, nil, err
	}

	in := interner.New(256)
	ns := namespace.New()
	rust := stdlib.Register(in, ns)

	var errs reporting.ErrorList
	prog := build.BuildProgram(in, ns, &errs, root)
	if errs.HasErrors() {
		fmt.Fprintln(stdio.Stderr, errs.Error())
		return nil, nil, &errs
	}

	if err := optimize.OptimizeProgram(prog); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return nil, nil, err
	}

	return codegen.CompileProgram(in, prog), rust, nil
}
