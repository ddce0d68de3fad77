package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/felys-lang/felys/lang/scanner"
	"github.com/felys-lang/felys/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	var errored bool
	for _, file := range args {
		src, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			errored = true
			continue
		}
		sc := scanner.New(src)
		for {
			tok, lit, sp := sc.Scan()
			line, col := sp.Start.LineCol()
			fmt.Fprintf(stdio.Stdout, "%s:%d:%d: %s", file, line, col, tok)
			if lit != "" {
				fmt.Fprintf(stdio.Stdout, " %q", lit)
			}
			fmt.Fprintln(stdio.Stdout)
			if tok == token.EOF {
				break
			}
		}
		if errs := sc.Errors(); len(errs) > 0 {
			scanner.PrintError(stdio.Stderr, errs)
			errored = true
		}
	}
	if errored {
		return fmt.Errorf("tokenize: one or more files failed")
	}
	return nil
}
