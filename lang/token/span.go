package token

// Span is a half-open source range [Start, End), used by every later stage
// to attach diagnostics to AST nodes, IR instructions and faults without
// re-walking the source text.
type Span struct {
	Start, End Pos
}

// MakeSpan returns the smallest Span covering both a and b.
func MakeSpan(a, b Pos) Span { return Span{Start: a, End: b} }

// Join returns the smallest Span covering both s and o.
func (s Span) Join(o Span) Span {
	start, end := s.Start, s.End
	if o.Start < start {
		start = o.Start
	}
	if o.End > end {
		end = o.End
	}
	return Span{Start: start, End: end}
}
