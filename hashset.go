package b2

// HashValue identifies an unordered pair of shape indices.
type HashValue uint64

func pairHash(a, b int32) HashValue {
	if a > b {
		a, b = b, a
	}
	return HashValue(uint32(a))<<32 | HashValue(uint32(b))
}

// pairSet maps shape pairs to the contact that joins them.
type pairSet struct {
	entries uint
	table   map[HashValue]int32
}

func newPairSet() *pairSet {
	return &pairSet{table: map[HashValue]int32{}}
}

func (set *pairSet) Count() uint {
	return set.entries
}

// Insert adds the pair unless present and returns the stored contact.
func (set *pairSet) Insert(a, b int32, contact int32) int32 {
	hash := pairHash(a, b)
	if c, ok := set.table[hash]; ok {
		return c
	}
	set.table[hash] = contact
	set.entries++
	return contact
}

func (set *pairSet) Remove(a, b int32) (int32, bool) {
	hash := pairHash(a, b)
	c, ok := set.table[hash]
	if ok {
		delete(set.table, hash)
		set.entries--
	}
	return c, ok
}

func (set *pairSet) Find(a, b int32) (int32, bool) {
	c, ok := set.table[pairHash(a, b)]
	return c, ok
}
