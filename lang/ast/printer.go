package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer pretty-prints an AST as an indented S-expression tree, used by the
// "parse" driver subcommand (§6) to inspect the parse result without a
// dedicated pretty-printing subsystem (out of scope, §1).
type Printer struct {
	Output io.Writer
}

// Print walks n and writes its structure to p.Output.
func (p *Printer) Print(n Node) {
	pp := &printer{w: p.Output}
	Walk(pp, n)
}

type printer struct {
	w     io.Writer
	depth int
}

func (pp *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit {
		pp.depth--
		return pp
	}
	fmt.Fprintf(pp.w, "%s%s\n", strings.Repeat("  ", pp.depth), label(n))
	pp.depth++
	return pp
}

func label(n Node) string {
	switch x := n.(type) {
	case *Root:
		return "root"
	case *Group:
		return fmt.Sprintf("group %s%v", x.Name, x.Fields)
	case *Impl:
		return fmt.Sprintf("impl %s", x.GroupName)
	case *Associated:
		return fmt.Sprintf("associated %s%v", x.Name, x.Args)
	case *Method:
		return fmt.Sprintf("method %s%v", x.Name, x.Args)
	case *Fn:
		return fmt.Sprintf("fn %s%v", x.Name, x.Args)
	case *Main:
		return fmt.Sprintf("main %s", x.Arg)
	case *Block:
		return "block"
	case *EmptyStmt:
		return "empty"
	case *ExprStmt:
		return "expr-stmt"
	case *SemiStmt:
		return "semi-stmt"
	case *AssignStmt:
		return fmt.Sprintf("assign op=%d", x.Op)
	case *AnyPat:
		return "_"
	case *TuplePat:
		return "tuple-pat"
	case *LitPat:
		return "lit-pat"
	case *IdentPat:
		return fmt.Sprintf("ident-pat %s", x.Name)
	case *BlockExpr:
		return "block-expr"
	case *BreakExpr:
		return "break"
	case *ContinueExpr:
		return "continue"
	case *ForExpr:
		return "for"
	case *IfExpr:
		return "if"
	case *LoopExpr:
		return "loop"
	case *ReturnExpr:
		return "return"
	case *WhileExpr:
		return "while"
	case *BinaryExpr:
		return fmt.Sprintf("binary op=%d", x.Op)
	case *UnaryExpr:
		return fmt.Sprintf("unary op=%d", x.Op)
	case *CallExpr:
		return "call"
	case *FieldExpr:
		return fmt.Sprintf("field %s", x.Name)
	case *MethodExpr:
		return fmt.Sprintf("method-call %s", x.Name)
	case *IndexExpr:
		return "index"
	case *TupleExpr:
		return "tuple"
	case *ListExpr:
		return "list"
	case *ParenExpr:
		return "paren"
	case *PathExpr:
		return fmt.Sprintf("path#%d %v", x.ID, x.Components)
	case *LitExpr:
		return fmt.Sprintf("lit kind=%d %s", x.Kind, x.Sym)
	default:
		return fmt.Sprintf("%T", n)
	}
}
