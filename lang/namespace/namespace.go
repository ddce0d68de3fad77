// Package namespace implements the two-phase allocate/attach trie that
// partitions compile-time pointers (functions, groups, standard-library
// entries) into disjoint spaces keyed by interned path segments (§3).
package namespace

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/felys-lang/felys/lang/interner"
)

// Kind distinguishes the three disjoint pointer spaces the namespace can
// hold a leaf for.
type Kind uint8

const (
	Function Kind = iota
	Group
	Rust
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Group:
		return "group"
	case Rust:
		return "rust"
	default:
		return "unknown"
	}
}

// Leaf is what a fully resolved path resolves to: a kind tag plus a
// compile-time-stable index within that kind's space.
type Leaf struct {
	Kind Kind
	Idx  uint32
}

// Path is a non-empty sequence of interned identifiers, e.g. std::io::print.
type Path []interner.ID

// DuplicatePathError is returned by Allocate when path already names a leaf.
type DuplicatePathError struct{ Path Path }

func (e *DuplicatePathError) Error() string { return "duplicate path" }

// PathNotExistError is returned by Get when path resolves to nothing.
type PathNotExistError struct{ Path Path }

func (e *PathNotExistError) Error() string { return "path does not exist" }

type node struct {
	children *swiss.Map[interner.ID, *node]
	leaf     *Leaf
}

func newNode() *node {
	return &node{children: swiss.NewMap[interner.ID, *node](4)}
}

// Namespace is the root of the trie. The zero value is not usable; use New.
type Namespace struct {
	root *node
}

// New returns an empty Namespace.
func New() *Namespace {
	return &Namespace{root: newNode()}
}

// Allocate reserves a fresh leaf at path, failing with *DuplicatePathError
// if a leaf (not just an intermediate node) already exists there.
func (ns *Namespace) Allocate(path Path, leaf Leaf) error {
	if len(path) == 0 {
		panic("namespace: empty path")
	}
	n := ns.root
	for _, seg := range path {
		next, ok := n.children.Get(seg)
		if !ok {
			next = newNode()
			n.children.Put(seg, next)
		}
		n = next
	}
	if n.leaf != nil {
		return &DuplicatePathError{Path: path}
	}
	l := leaf
	n.leaf = &l
	return nil
}

// Attach appends a leaf under an existing internal node, identified by
// prefix, naming it name. It fails the same way Allocate does if the
// resulting path already has a leaf.
func (ns *Namespace) Attach(prefix Path, name interner.ID, leaf Leaf) error {
	full := make(Path, 0, len(prefix)+1)
	full = append(full, prefix...)
	full = append(full, name)
	return ns.Allocate(full, leaf)
}

// Get resolves path to its leaf, or returns *PathNotExistError.
func (ns *Namespace) Get(path Path) (Leaf, error) {
	if len(path) == 0 {
		panic("namespace: empty path")
	}
	n := ns.root
	for _, seg := range path {
		next, ok := n.children.Get(seg)
		if !ok {
			return Leaf{}, &PathNotExistError{Path: path}
		}
		n = next
	}
	if n.leaf == nil {
		return Leaf{}, &PathNotExistError{Path: path}
	}
	return *n.leaf, nil
}

// Has reports whether path resolves to a leaf, discarding Get's error.
func (ns *Namespace) Has(path Path) bool {
	_, err := ns.Get(path)
	return err == nil
}

// String renders a path using in for diagnostics, e.g. "std::io::print".
func (p Path) String(in *interner.Interner) string {
	s := ""
	for i, id := range p {
		if i > 0 {
			s += "::"
		}
		s += in.Lookup(id)
	}
	return s
}

func (e *DuplicatePathError) GoString() string { return fmt.Sprintf("DuplicatePath(%v)", []interner.ID(e.Path)) }
func (e *PathNotExistError) GoString() string  { return fmt.Sprintf("PathNotExist(%v)", []interner.ID(e.Path)) }
