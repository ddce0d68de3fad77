package optimize

import "github.com/felys-lang/felys/lang/ir"

// pool interns constants discovered while folding, mirroring
// lang/build.Builder's constPool so a value already in the program's
// constant table is reused instead of duplicated.
type pool struct {
	values []ir.Const
	index  map[ir.Const]uint32
}

func newPool(seed []ir.Const) *pool {
	p := &pool{values: append([]ir.Const{}, seed...), index: make(map[ir.Const]uint32, len(seed))}
	for i, c := range seed {
		p.index[c] = uint32(i)
	}
	return p
}

func (p *pool) intern(c ir.Const) uint32 {
	if id, ok := p.index[c]; ok {
		return id
	}
	id := uint32(len(p.values))
	p.values = append(p.values, c)
	p.index[c] = id
	return id
}
