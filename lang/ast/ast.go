// Package ast defines the abstract syntax tree produced by lang/parser
// (§3). The tree is source-faithful: numeric literals keep their interned
// source lexeme rather than a parsed value, so later stages (which may
// fail on overflow) can attach that failure to the right span.
package ast

import "github.com/felys-lang/felys/lang/token"

// Node is implemented by every AST node. Span is used for diagnostics and
// Walk for traversal.
type Node interface {
	Span() token.Span
	Walk(v Visitor)
}

// PathID uniquely identifies a Path expression node, allocated at parse
// time (monotonically, starting at 1) so later stages can attach side
// tables (e.g. the resolved namespace leaf, or a local Var) without
// mutating the AST itself.
type PathID uint32

// Root is the top-level parse result: an ordered list of items.
type Root struct {
	Items []Item
}

func (n *Root) Span() token.Span {
	if len(n.Items) == 0 {
		return token.Span{}
	}
	return n.Items[0].Span().Join(n.Items[len(n.Items)-1].Span())
}

func (n *Root) Walk(v Visitor) {
	for _, it := range n.Items {
		Walk(v, it)
	}
}

// Item is one top-level declaration: Group, Impl, Fn, or Main.
type Item interface {
	Node
	item()
}

// Group declares a tagged record of positional fields, the language's sole
// form of user-defined aggregate (§9).
type Group struct {
	Sp     token.Span
	Name   string
	Fields []string
}

func (n *Group) Span() token.Span { return n.Sp }
func (n *Group) Walk(Visitor)     {}
func (*Group) item()              {}

// Impl declares either associated functions or methods attached to a group.
type Impl struct {
	Sp        token.Span
	GroupName string
	Members   []ImplMember
}

func (n *Impl) Span() token.Span { return n.Sp }
func (n *Impl) Walk(v Visitor) {
	for _, m := range n.Members {
		Walk(v, m)
	}
}
func (*Impl) item() {}

// ImplMember is either Associated(name, args?, Block) or Method(name, args, Block).
type ImplMember interface {
	Node
	implMember()
}

// Associated is a group-namespaced function with no implicit self.
type Associated struct {
	Sp     token.Span
	Name   string
	Args   []string
	Body   *Block
}

func (n *Associated) Span() token.Span { return n.Sp }
func (n *Associated) Walk(v Visitor)   { Walk(v, n.Body) }
func (*Associated) implMember()        {}

// Method is a group-namespaced function with an implicit trailing self
// parameter (§3).
type Method struct {
	Sp   token.Span
	Name string
	Args []string
	Body *Block
}

func (n *Method) Span() token.Span { return n.Sp }
func (n *Method) Walk(v Visitor)   { Walk(v, n.Body) }
func (*Method) implMember()        {}

// Fn declares a free (non-method) named function.
type Fn struct {
	Sp   token.Span
	Name string
	Args []string
	Body *Block
}

func (n *Fn) Span() token.Span { return n.Sp }
func (n *Fn) Walk(v Visitor)   { Walk(v, n.Body) }
func (*Fn) item()              {}

// Main declares the program entry point, fn main(arg) block (§6).
type Main struct {
	Sp   token.Span
	Arg  string
	Body *Block
}

func (n *Main) Span() token.Span { return n.Sp }
func (n *Main) Walk(v Visitor)   { Walk(v, n.Body) }
func (*Main) item()              {}
