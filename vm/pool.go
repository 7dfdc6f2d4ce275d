package vm

// ---------------------------------------------------------------------------
// ConstantPool: insertion-ordered literal table
// ---------------------------------------------------------------------------

// ConstantPool is an index-addressed, insertion-ordered table of literal
// values referenced by instructions. Indices are assigned sequentially from
// zero and never reused; there is no removal or mutation API, so a pool is
// safely shareable read-only across repeated runs.
type ConstantPool struct {
	values []Value
}

// Add appends a value and returns its index.
func (p *ConstantPool) Add(v Value) uint32 {
	p.values = append(p.values, v)
	return uint32(len(p.values) - 1)
}

// Get returns the value at idx, or false if idx is out of range.
func (p *ConstantPool) Get(idx uint32) (Value, bool) {
	if int(idx) >= len(p.values) {
		return Value{}, false
	}
	return p.values[idx], true
}

// Len returns the number of entries.
func (p *ConstantPool) Len() int {
	return len(p.values)
}

// Equal reports structural equality of two pools.
func (p *ConstantPool) Equal(o *ConstantPool) bool {
	if len(p.values) != len(o.values) {
		return false
	}
	for i := range p.values {
		if p.values[i].kind != o.values[i].kind || !p.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}
