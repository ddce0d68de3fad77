package interner

import "testing"

func TestInternDedup(t *testing.T) {
	in := New(0)
	a := in.Intern("foo")
	b := in.Intern("bar")
	c := in.Intern("foo")
	if a != c {
		t.Fatalf("expected same id for repeated intern, got %d and %d", a, c)
	}
	if a == b {
		t.Fatalf("expected distinct ids for distinct strings")
	}
	if in.Lookup(a) != "foo" || in.Lookup(b) != "bar" {
		t.Fatalf("lookup mismatch")
	}
	if in.Len() != 2 {
		t.Fatalf("want 2 distinct strings, got %d", in.Len())
	}
}

func TestInternMonotonic(t *testing.T) {
	in := New(0)
	var ids []ID
	for _, s := range []string{"a", "b", "c", "a", "d"} {
		ids = append(ids, in.Intern(s))
	}
	want := []ID{1, 2, 3, 1, 4}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("index %d: want %d, got %d", i, want[i], id)
		}
	}
}
