// Package interner implements the string interning table shared by every
// stage of the pipeline (§3). It is a monotonic, append-only mapping
// between a dense, one-based id and the string it represents: identifiers,
// literal source lexemes, and field/method names all flow through it so
// later stages can compare ids instead of strings.
package interner

import "github.com/dolthub/swiss"

// ID identifies an interned string. The zero value is never returned by
// Intern; it is reserved so a zero ID can mean "absent" in side tables.
type ID uint32

// Interner is the id<->string table. The zero value is not usable; use New.
type Interner struct {
	strings []string       // id-1 -> string
	byName  *swiss.Map[string, ID]
}

// New returns an empty Interner with initial capacity for at least size
// distinct strings.
func New(size int) *Interner {
	if size < 16 {
		size = 16
	}
	return &Interner{
		strings: make([]string, 0, size),
		byName:  swiss.NewMap[string, ID](uint32(size)),
	}
}

// Intern returns the ID for s, allocating a fresh one if s was never seen
// before. The table never shrinks during a compilation.
func (in *Interner) Intern(s string) ID {
	if id, ok := in.byName.Get(s); ok {
		return id
	}
	in.strings = append(in.strings, s)
	id := ID(len(in.strings))
	in.byName.Put(s, id)
	return id
}

// Lookup returns the string for id, or panics if id was never interned by
// this table. Callers that only have ids obtained from this same Interner
// never trip this.
func (in *Interner) Lookup(id ID) string {
	if id == 0 || int(id) > len(in.strings) {
		panic("interner: invalid id")
	}
	return in.strings[id-1]
}

// Len returns the number of distinct strings interned so far.
func (in *Interner) Len() int { return len(in.strings) }
