package b2

import (
	"slices"
)

const (
	staticTree  = 0
	movableTree = 1
)

// proxy keys tag the owning tree in the low bit
func proxyKey(id int32, tree int) int32 {
	return id<<1 | int32(tree)
}

func proxyID(key int32) int32 {
	return key >> 1
}

func proxyTree(key int32) int {
	return int(key & 1)
}

type proxyPair struct {
	a, b int32
}

// BroadPhase keeps static shapes and moving shapes in separate trees, so
// static shapes are never queried against each other, and buffers the
// proxies that moved since the last pair update.
type BroadPhase struct {
	trees      [2]*BBTree
	moveBuffer []int32
	pairBuffer []proxyPair
}

func NewBroadPhase(margin, multiplier float32) *BroadPhase {
	return &BroadPhase{
		trees: [2]*BBTree{
			NewBBTree(margin, multiplier),
			NewBBTree(margin, multiplier),
		},
	}
}

func (bp *BroadPhase) CreateProxy(bb BB, static bool, userData int32) (int32, error) {
	t := movableTree
	if static {
		t = staticTree
	}
	id, err := bp.trees[t].CreateProxy(bb, userData)
	if err != nil {
		return nullNode, err
	}
	key := proxyKey(id, t)
	bp.bufferMove(key)
	return key, nil
}

func (bp *BroadPhase) DestroyProxy(key int32) {
	bp.unbufferMove(key)
	bp.trees[proxyTree(key)].DestroyProxy(proxyID(key))
}

// MoveProxy updates the fat box of a proxy, buffering it for pairing when
// it was reinserted.
func (bp *BroadPhase) MoveProxy(key int32, bb BB, displacement Vector) {
	if bp.trees[proxyTree(key)].MoveProxy(proxyID(key), bb, displacement) {
		bp.bufferMove(key)
	}
}

// TouchProxy forces a proxy to be re-paired on the next update.
func (bp *BroadPhase) TouchProxy(key int32) {
	bp.bufferMove(key)
}

func (bp *BroadPhase) bufferMove(key int32) {
	bp.moveBuffer = append(bp.moveBuffer, key)
}

func (bp *BroadPhase) unbufferMove(key int32) {
	for i, k := range bp.moveBuffer {
		if k == key {
			bp.moveBuffer[i] = nullNode
		}
	}
}

func (bp *BroadPhase) FatBB(key int32) BB {
	return bp.trees[proxyTree(key)].FatBB(proxyID(key))
}

func (bp *BroadPhase) UserData(key int32) int32 {
	return bp.trees[proxyTree(key)].UserData(proxyID(key))
}

func (bp *BroadPhase) TestOverlap(keyA, keyB int32) bool {
	return bp.FatBB(keyA).Intersects(bp.FatBB(keyB))
}

func (bp *BroadPhase) ProxyCount() int {
	return bp.trees[staticTree].ProxyCount() + bp.trees[movableTree].ProxyCount()
}

func (bp *BroadPhase) MoveCount() int {
	return len(bp.moveBuffer)
}

func (bp *BroadPhase) Tree(static bool) *BBTree {
	if static {
		return bp.trees[staticTree]
	}
	return bp.trees[movableTree]
}

// UpdatePairs finds new overlaps of moved proxies and reports each pair of
// user data once, in sorted order.
func (bp *BroadPhase) UpdatePairs(f func(userDataA, userDataB int32)) {
	bp.pairBuffer = bp.pairBuffer[:0]

	for _, queryKey := range bp.moveBuffer {
		if queryKey == nullNode {
			continue
		}

		fat := bp.FatBB(queryKey)
		queryTree := proxyTree(queryKey)

		query := func(t int) {
			tree := bp.trees[t]
			tree.Query(fat, func(id int32) bool {
				key := proxyKey(id, t)
				if key == queryKey {
					return true
				}
				// both moved: only the smaller key reports the pair
				if tree.WasMoved(id) && key > queryKey {
					return true
				}
				a, b := min(key, queryKey), max(key, queryKey)
				bp.pairBuffer = append(bp.pairBuffer, proxyPair{a, b})
				return true
			})
		}

		query(movableTree)
		if queryTree == movableTree {
			query(staticTree)
		}
	}

	for _, key := range bp.moveBuffer {
		if key != nullNode {
			bp.trees[proxyTree(key)].ClearMoved(proxyID(key))
		}
	}
	bp.moveBuffer = bp.moveBuffer[:0]

	slices.SortFunc(bp.pairBuffer, func(p, q proxyPair) int {
		if p.a != q.a {
			return int(p.a - q.a)
		}
		return int(p.b - q.b)
	})
	bp.pairBuffer = slices.Compact(bp.pairBuffer)

	for _, p := range bp.pairBuffer {
		f(bp.UserData(p.a), bp.UserData(p.b))
	}
}

// Query calls f with the key of each proxy whose fat box overlaps bb.
func (bp *BroadPhase) Query(bb BB, f func(key int32) bool) {
	for t := range bp.trees {
		stop := false
		bp.trees[t].Query(bb, func(id int32) bool {
			if !f(proxyKey(id, t)) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// RayCast walks both trees, carrying the clipped fraction from one to the other.
func (bp *BroadPhase) RayCast(input RayCastInput, f func(input RayCastInput, key int32) float32) {
	for t := range bp.trees {
		stop := false
		bp.trees[t].RayCast(input, func(sub RayCastInput, id int32) float32 {
			value := f(sub, proxyKey(id, t))
			if value == 0 {
				stop = true
			} else if value > 0 {
				input.MaxFraction = value
			}
			return value
		})
		if stop {
			return
		}
	}
}

// QueryOverlaps collects the keys of all proxies overlapping bb.
func (bp *BroadPhase) QueryOverlaps(bb BB) []int32 {
	var keys []int32
	bp.Query(bb, func(key int32) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
