package namespace

import (
	"testing"

	"github.com/felys-lang/felys/lang/interner"
)

func TestAllocateAttachGet(t *testing.T) {
	in := interner.New(0)
	std := in.Intern("std")
	io := in.Intern("io")
	print := in.Intern("print")

	ns := New()
	if err := ns.Allocate(Path{std, io, print}, Leaf{Kind: Rust, Idx: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaf, err := ns.Get(Path{std, io, print})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leaf.Kind != Rust || leaf.Idx != 0 {
		t.Fatalf("unexpected leaf: %+v", leaf)
	}

	if err := ns.Allocate(Path{std, io, print}, Leaf{Kind: Rust, Idx: 1}); err == nil {
		t.Fatalf("expected duplicate path error")
	} else if _, ok := err.(*DuplicatePathError); !ok {
		t.Fatalf("expected *DuplicatePathError, got %T", err)
	}
}

func TestGetMissing(t *testing.T) {
	in := interner.New(0)
	foo := in.Intern("foo")
	ns := New()
	if _, err := ns.Get(Path{foo}); err == nil {
		t.Fatalf("expected path-not-exist error")
	} else if _, ok := err.(*PathNotExistError); !ok {
		t.Fatalf("expected *PathNotExistError, got %T", err)
	}
	if ns.Has(Path{foo}) {
		t.Fatalf("expected Has to report false")
	}
}

func TestAttach(t *testing.T) {
	in := interner.New(0)
	v := in.Intern("V")
	add := in.Intern("add")

	ns := New()
	if err := ns.Allocate(Path{v}, Leaf{Kind: Group, Idx: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ns.Attach(Path{v}, add, Leaf{Kind: Function, Idx: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leaf, err := ns.Get(Path{v, add})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leaf.Idx != 7 {
		t.Fatalf("want idx 7, got %d", leaf.Idx)
	}
}
