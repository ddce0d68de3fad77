package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/felys-lang/felys/lang/ast"
	"github.com/felys-lang/felys/lang/parser"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	printer := ast.Printer{Output: stdio.Stdout}
	for _, file := range args {
		root, err := parseFile(file)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			errored = true
			continue
		}
		printer.Print(root)
	}
	if errored {
		return fmt.Errorf("parse: one or more files failed")
	}
	return nil
}

func parseFile(file string) (*ast.Root, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return parser.Parse(src)
}
