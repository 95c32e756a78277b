package b2

// pool is a generational arena. Released slots are reused LIFO and bump the
// generation so stale handles can be detected.
type pool[T any] struct {
	items []T
	gens  []uint32
	live  []bool
	free  []int32
	count int
}

func (p *pool[T]) alloc() (int32, uint32) {
	var idx int32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = int32(len(p.items))
		var zero T
		p.items = append(p.items, zero)
		p.gens = append(p.gens, 0)
		p.live = append(p.live, false)
	}
	p.live[idx] = true
	p.count++
	return idx, p.gens[idx]
}

func (p *pool[T]) release(idx int32) {
	assert(p.live[idx], "double free of slot ", idx)
	var zero T
	p.items[idx] = zero
	p.live[idx] = false
	p.gens[idx]++
	p.free = append(p.free, idx)
	p.count--
}

func (p *pool[T]) valid(idx int32, gen uint32) bool {
	return idx >= 0 && int(idx) < len(p.items) && p.live[idx] && p.gens[idx] == gen
}

// get panics on a stale or destroyed handle.
func (p *pool[T]) get(idx int32, gen uint32) *T {
	assert(p.valid(idx, gen), "stale handle ", idx)
	return &p.items[idx]
}

func (p *pool[T]) at(idx int32) *T {
	return &p.items[idx]
}
