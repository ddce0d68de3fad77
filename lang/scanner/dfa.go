package scanner

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// dfa.go builds the small lexical automata the scanner runs identifiers,
// numeric digit runs, and string escape units through (§4.1): a regex is
// desugared into a Thompson NFA over a per-rule alphabet of rune-class
// predicates, then the NFA is determinized into a DFA by subset
// construction (Algorithm 3.36) — each DFA state is the set of NFA states
// reachable on the same input, collapsed to an integer id the first time
// that set is seen. The result is a plain transition(state, class) table
// plus an acceptance table, run by DFA.match in maximal-munch style: feed
// runes one at a time, remembering the last position at which the current
// state was accepting, and stop at the first rune with no transition.
//
// The automata built this way are tiny (identifiers, digit runs, one
// escape unit), so this stays a hand-rolled regex/NFA/DFA pipeline rather
// than a generated one; it is the same technique described in the Dragon
// Book's Algorithm 3.36, scaled down to the rule set this scanner needs.

const epsilon = -1

// regex is the small AST fixed-point regexes are built from: a leaf names
// one class index into the alphabet passed to build; the rest are the
// usual combinators.
type regex interface{ isRegex() }

type reClass int // index into an alphabet []classPred

func (reClass) isRegex() {}

type reConcat []regex

func (reConcat) isRegex() {}

type reStar struct{ x regex }

func (reStar) isRegex() {}

type rePlus struct{ x regex }

func (rePlus) isRegex() {}

type reOpt struct{ x regex }

func (reOpt) isRegex() {}

type classPred func(rune) bool

type nfaEdge struct {
	sym int // index into the alphabet, or epsilon
	to  int
}

// nfaBuilder accumulates Thompson-construction fragments; edges[s] holds
// state s's outgoing edges.
type nfaBuilder struct {
	edges [][]nfaEdge
}

func (b *nfaBuilder) state() int {
	b.edges = append(b.edges, nil)
	return len(b.edges) - 1
}

func (b *nfaBuilder) edge(from, sym, to int) {
	b.edges[from] = append(b.edges[from], nfaEdge{sym, to})
}

type nfaFrag struct{ start, accept int }

// build lowers re into a Thompson fragment, one state pair per
// combinator, epsilon transitions stitching them together (§4.1
// "Regex-style rules are desugared to a character-class language").
func (b *nfaBuilder) build(re regex) nfaFrag {
	switch n := re.(type) {
	case reClass:
		s, a := b.state(), b.state()
		b.edge(s, int(n), a)
		return nfaFrag{s, a}
	case reConcat:
		cur := b.build(n[0])
		for _, sub := range n[1:] {
			next := b.build(sub)
			b.edge(cur.accept, epsilon, next.start)
			cur = nfaFrag{cur.start, next.accept}
		}
		return cur
	case reStar:
		// star and opt fragments are nullable: the start state reaches
		// accept directly on epsilon, so the whole fragment can match the
		// empty string.
		inner := b.build(n.x)
		s, a := b.state(), b.state()
		b.edge(s, epsilon, inner.start)
		b.edge(s, epsilon, a)
		b.edge(inner.accept, epsilon, inner.start)
		b.edge(inner.accept, epsilon, a)
		return nfaFrag{s, a}
	case rePlus:
		inner := b.build(n.x)
		star := b.build(reStar{n.x})
		b.edge(inner.accept, epsilon, star.start)
		return nfaFrag{inner.start, star.accept}
	case reOpt:
		inner := b.build(n.x)
		s, a := b.state(), b.state()
		b.edge(s, epsilon, inner.start)
		b.edge(s, epsilon, a)
		b.edge(inner.accept, epsilon, a)
		return nfaFrag{s, a}
	default:
		panic("scanner: unknown regex node")
	}
}

func (b *nfaBuilder) closure(states map[int]bool) map[int]bool {
	stack := make([]int, 0, len(states))
	for s := range states {
		stack = append(stack, s)
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range b.edges[s] {
			if e.sym == epsilon && !states[e.to] {
				states[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return states
}

func (b *nfaBuilder) move(states map[int]bool, sym int) map[int]bool {
	out := map[int]bool{}
	for s := range states {
		for _, e := range b.edges[s] {
			if e.sym == sym {
				out[e.to] = true
			}
		}
	}
	return out
}

// setKey canonicalizes an NFA state set into a comparable string, so
// subsetConstruction can tell whether a given set was already turned into
// a DFA state.
func setKey(states map[int]bool) string {
	ids := make([]int, 0, len(states))
	for s := range states {
		ids = append(ids, s)
	}
	sort.Ints(ids)
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(itoa(id))
	}
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// DFA is the determinized form of an nfaBuilder's fragment: trans[state]
// maps an alphabet symbol to the next state, accept[state] reports
// whether that state is accepting.
type DFA struct {
	alphabet []classPred
	trans    []map[int]int
	accept   []bool
}

// subsetConstruction determinizes the NFA fragment (start, acceptState)
// into a DFA over alphabet (Algorithm 3.36): each DFA state is the
// epsilon-closure of a set of NFA states, discovered breadth-first from
// the start closure.
func subsetConstruction(b *nfaBuilder, start, acceptState int, alphabet []classPred) *DFA {
	d := &DFA{alphabet: alphabet}
	keyToID := map[string]int{}
	var worklist []map[int]bool

	addState := func(set map[int]bool) int {
		k := setKey(set)
		if id, ok := keyToID[k]; ok {
			return id
		}
		id := len(d.trans)
		keyToID[k] = id
		d.trans = append(d.trans, map[int]int{})
		d.accept = append(d.accept, set[acceptState])
		worklist = append(worklist, set)
		return id
	}

	addState(b.closure(map[int]bool{start: true}))
	for i := 0; i < len(worklist); i++ {
		set := worklist[i]
		for sym := range alphabet {
			moved := b.closure(b.move(set, sym))
			if len(moved) == 0 {
				continue
			}
			d.trans[i][sym] = addState(moved)
		}
	}
	return d
}

// buildDFA desugars re over alphabet straight into its determinized form.
func buildDFA(re regex, alphabet []classPred) *DFA {
	b := &nfaBuilder{}
	frag := b.build(re)
	return subsetConstruction(b, frag.start, frag.accept, alphabet)
}

// match runs the DFA over src[pos:], maximal-munch style, and returns the
// byte length of the longest accepted prefix (0 if none).
func (d *DFA) match(src []byte, pos int) int {
	state := 0
	longest := 0
	off := pos
	for off < len(src) {
		r, w := utf8.DecodeRune(src[off:])
		sym := -1
		for i, pred := range d.alphabet {
			if pred(r) {
				sym = i
				break
			}
		}
		if sym < 0 {
			break
		}
		next, ok := d.trans[state][sym]
		if !ok {
			break
		}
		state = next
		off += w
		if d.accept[state] {
			longest = off - pos
		}
	}
	return longest
}

// --- concrete automata used by the scanner ---

func isHexDigit(r rune) bool {
	return isDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

func isOctDigit(r rune) bool { return '0' <= r && r <= '7' }

func isBinDigit(r rune) bool { return r == '0' || r == '1' }

func isUnderscore(r rune) bool { return r == '_' }

// identDFA recognizes (alpha|'_') (alpha|digit|'_')*, the identifier/
// keyword lexeme (§3) before lang/token.Lookup classifies it.
var identDFA = buildDFA(
	reConcat{reClass(0), reOpt{rePlus{reClass(1)}}},
	[]classPred{isLetter, func(r rune) bool { return isLetter(r) || isDigit(r) }},
)

// digitRunDFA builds (digit (digit|'_')+ | digit), i.e. a maximal run of
// digits-with-underscore-separators, for one base's digit predicate.
func digitRunDFA(isDigitOfBase classPred) *DFA {
	return buildDFA(
		reConcat{reClass(0), reStar{reClass(1)}},
		[]classPred{isDigitOfBase, func(r rune) bool { return isDigitOfBase(r) || isUnderscore(r) }},
	)
}

var (
	decDigitsDFA = digitRunDFA(isDigit)
	hexDigitsDFA = digitRunDFA(isHexDigit)
	octDigitsDFA = digitRunDFA(isOctDigit)
	binDigitsDFA = digitRunDFA(isBinDigit)
)

// escapeDFA recognizes one string escape unit, '\' followed by any single
// rune, as a fixed two-rune lexeme (§3); lang/parser later validates and
// chunks the specific escape name.
var escapeDFA = buildDFA(
	reConcat{reClass(0), reClass(1)},
	[]classPred{
		func(r rune) bool { return r == '\\' },
		func(rune) bool { return true },
	},
)

func digitDFAFor(base int) *DFA {
	switch base {
	case 16:
		return hexDigitsDFA
	case 8:
		return octDigitsDFA
	case 2:
		return binDigitsDFA
	default:
		return decDigitsDFA
	}
}
