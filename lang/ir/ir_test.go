package ir

import "testing"

func TestFunctionFragmentRoundTrip(t *testing.T) {
	f := &Function{}
	entry := &Fragment{}
	f.SetFragment(EntryLabel(), entry)
	b0 := &Fragment{}
	f.SetFragment(BlockLabel(0), b0)
	exit := &Fragment{}
	f.SetFragment(ExitLabel(), exit)

	if f.Fragment(EntryLabel()) != entry {
		t.Fatalf("entry mismatch")
	}
	if f.Fragment(BlockLabel(0)) != b0 {
		t.Fatalf("block 0 mismatch")
	}
	if f.Fragment(ExitLabel()) != exit {
		t.Fatalf("exit mismatch")
	}
	if f.Fragment(BlockLabel(1)) != nil {
		t.Fatalf("expected nil for unknown block")
	}
}

func TestLabelsOrder(t *testing.T) {
	f := &Function{}
	f.SetFragment(EntryLabel(), &Fragment{})
	f.SetFragment(ExitLabel(), &Fragment{})
	f.SetFragment(BlockLabel(2), &Fragment{})
	f.SetFragment(BlockLabel(0), &Fragment{})
	f.SetFragment(BlockLabel(1), &Fragment{})

	labels := f.Labels()
	want := []Label{EntryLabel(), BlockLabel(0), BlockLabel(1), BlockLabel(2), ExitLabel()}
	if len(labels) != len(want) {
		t.Fatalf("want %d labels, got %d", len(want), len(labels))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("index %d: want %v, got %v", i, want[i], labels[i])
		}
	}
}

func TestConstEquality(t *testing.T) {
	a := IntConst(42)
	b := IntConst(42)
	if a != b {
		t.Fatalf("expected equal int consts")
	}
	if IntConst(1) == IntConst(2) {
		t.Fatalf("expected distinct int consts")
	}
}
