package token

import "testing"

func TestMakePos(t *testing.T) {
	p := MakePos(12, 34)
	line, col := p.LineCol()
	if line != 12 || col != 34 {
		t.Fatalf("want 12:34, got %d:%d", line, col)
	}
	if p.Unknown() {
		t.Fatalf("expected known position")
	}
}

func TestPosUnknown(t *testing.T) {
	if !Pos(0).Unknown() {
		t.Fatalf("zero Pos must be unknown")
	}
	if MakePos(0, 3).Unknown() != true {
		t.Fatalf("line 0 must be unknown")
	}
	if MakePos(3, 0).Unknown() != true {
		t.Fatalf("col 0 must be unknown")
	}
}

func TestSpanJoin(t *testing.T) {
	a := Span{Start: MakePos(1, 1), End: MakePos(1, 5)}
	b := Span{Start: MakePos(1, 3), End: MakePos(2, 1)}
	got := a.Join(b)
	if got.Start != a.Start {
		t.Fatalf("want start %v, got %v", a.Start, got.Start)
	}
	if got.End != b.End {
		t.Fatalf("want end %v, got %v", b.End, got.End)
	}
}
