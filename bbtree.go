package b2

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

const nullNode int32 = -1

type treeNode struct {
	bb       BB
	userData int32

	// parent doubles as the next link of the free list
	parent         int32
	child1, child2 int32

	// leaf = 0, free node = -1
	height int32
	moved  bool
}

func (n *treeNode) IsLeaf() bool {
	return n.child1 == nullNode
}

// BBTree is a dynamic AABB tree. Leaves hold fat boxes that are larger than
// the objects they bound, so objects can move a little before the tree is
// touched. Internal nodes are kept balanced with rotations.
// Nodes live in a growable slice and are recycled through a free list.
type BBTree struct {
	root      int32
	nodes     []treeNode
	nodeCount int
	freeList  int32

	insertionCount int

	margin     float32
	multiplier float32
}

func NewBBTree(margin, multiplier float32) *BBTree {
	tree := &BBTree{
		root:       nullNode,
		freeList:   nullNode,
		margin:     margin,
		multiplier: multiplier,
	}
	tree.grow(16)
	return tree
}

func (tree *BBTree) grow(capacity int) {
	start := len(tree.nodes)
	for i := start; i < capacity; i++ {
		tree.nodes = append(tree.nodes, treeNode{parent: int32(i + 1), height: -1, child1: nullNode, child2: nullNode})
	}
	tree.nodes[capacity-1].parent = tree.freeList
	tree.freeList = int32(start)
}

func (tree *BBTree) nodeFromPool() int32 {
	if tree.freeList == nullNode {
		tree.grow(2 * len(tree.nodes))
	}

	id := tree.freeList
	node := &tree.nodes[id]
	tree.freeList = node.parent
	*node = treeNode{
		parent:   nullNode,
		child1:   nullNode,
		child2:   nullNode,
		userData: -1,
	}
	tree.nodeCount++
	return id
}

func (tree *BBTree) nodeRecycle(id int32) {
	tree.nodes[id].parent = tree.freeList
	tree.nodes[id].height = -1
	tree.freeList = id
	tree.nodeCount--
}

// CreateProxy inserts a leaf for bb fattened by the margin. Boxes that are
// inverted, non-finite or without extent are rejected.
func (tree *BBTree) CreateProxy(bb BB, userData int32) (int32, error) {
	if !bb.IsValid() || bb.IsEmpty() {
		return nullNode, errors.Wrapf(ErrInvalidAABB, "%v", bb)
	}

	id := tree.nodeFromPool()
	node := &tree.nodes[id]
	node.bb = bb.Grow(tree.margin)
	node.userData = userData
	node.height = 0
	node.moved = true

	tree.insertLeaf(id)
	return id, nil
}

func (tree *BBTree) DestroyProxy(id int32) {
	assert(tree.nodes[id].IsLeaf(), "proxy is not a leaf")
	tree.removeLeaf(id)
	tree.nodeRecycle(id)
}

// MoveProxy updates a leaf whose object now has box bb after moving by
// displacement. The leaf is only reinserted when bb escapes the fat box or
// the fat box has become far too large. Returns true if reinserted.
func (tree *BBTree) MoveProxy(id int32, bb BB, displacement Vector) bool {
	assert(tree.nodes[id].IsLeaf(), "proxy is not a leaf")
	if !bb.IsValid() {
		return false
	}

	fat := bb.Grow(tree.margin)

	// predict motion
	d := displacement.Mult(tree.multiplier)
	if d.X < 0 {
		fat.L += d.X
	} else {
		fat.R += d.X
	}
	if d.Y < 0 {
		fat.B += d.Y
	} else {
		fat.T += d.Y
	}

	treeBB := tree.nodes[id].bb
	if treeBB.Contains(bb) {
		// The tree box still contains the object, but it might be too large.
		// Perhaps the object was moving fast but has since gone to sleep.
		huge := fat.Grow(4 * tree.margin)
		if huge.Contains(treeBB) {
			return false
		}
	}

	tree.removeLeaf(id)
	tree.nodes[id].bb = fat
	tree.insertLeaf(id)
	tree.nodes[id].moved = true
	return true
}

func (tree *BBTree) UserData(id int32) int32 {
	return tree.nodes[id].userData
}

func (tree *BBTree) FatBB(id int32) BB {
	return tree.nodes[id].bb
}

func (tree *BBTree) WasMoved(id int32) bool {
	return tree.nodes[id].moved
}

func (tree *BBTree) ClearMoved(id int32) {
	tree.nodes[id].moved = false
}

func (tree *BBTree) ProxyCount() int {
	return (tree.nodeCount + 1) / 2
}

func (tree *BBTree) insertLeaf(leaf int32) {
	tree.insertionCount++

	if tree.root == nullNode {
		tree.root = leaf
		tree.nodes[leaf].parent = nullNode
		return
	}

	// best sibling by perimeter cost
	leafBB := tree.nodes[leaf].bb
	index := tree.root
	for !tree.nodes[index].IsLeaf() {
		node := &tree.nodes[index]
		child1 := node.child1
		child2 := node.child2

		area := node.bb.Perimeter()
		combinedArea := node.bb.MergedPerimeter(leafBB)

		// cost of creating a new parent for this node and the new leaf
		cost := 2 * combinedArea
		// minimum cost of pushing the leaf further down the tree
		inheritanceCost := 2 * (combinedArea - area)

		cost1 := tree.descendCost(child1, leafBB) + inheritanceCost
		cost2 := tree.descendCost(child2, leafBB) + inheritanceCost

		if cost < cost1 && cost < cost2 {
			break
		}

		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index

	oldParent := tree.nodes[sibling].parent
	newParent := tree.nodeFromPool()
	tree.nodes[newParent].parent = oldParent
	tree.nodes[newParent].bb = leafBB.Merge(tree.nodes[sibling].bb)
	tree.nodes[newParent].height = tree.nodes[sibling].height + 1

	if oldParent != nullNode {
		if tree.nodes[oldParent].child1 == sibling {
			tree.nodes[oldParent].child1 = newParent
		} else {
			tree.nodes[oldParent].child2 = newParent
		}
	} else {
		tree.root = newParent
	}
	tree.nodes[newParent].child1 = sibling
	tree.nodes[newParent].child2 = leaf
	tree.nodes[sibling].parent = newParent
	tree.nodes[leaf].parent = newParent

	tree.refit(tree.nodes[leaf].parent)
}

func (tree *BBTree) descendCost(child int32, leafBB BB) float32 {
	node := &tree.nodes[child]
	if node.IsLeaf() {
		return node.bb.MergedPerimeter(leafBB)
	}
	return node.bb.MergedPerimeter(leafBB) - node.bb.Perimeter()
}

// refit walks to the root fixing heights and boxes, balancing on the way.
func (tree *BBTree) refit(index int32) {
	for index != nullNode {
		index = tree.balance(index)

		node := &tree.nodes[index]
		c1 := &tree.nodes[node.child1]
		c2 := &tree.nodes[node.child2]
		node.height = 1 + max(c1.height, c2.height)
		node.bb = c1.bb.Merge(c2.bb)

		index = node.parent
	}
}

func (tree *BBTree) removeLeaf(leaf int32) {
	if leaf == tree.root {
		tree.root = nullNode
		return
	}

	parent := tree.nodes[leaf].parent
	grandParent := tree.nodes[parent].parent
	var sibling int32
	if tree.nodes[parent].child1 == leaf {
		sibling = tree.nodes[parent].child2
	} else {
		sibling = tree.nodes[parent].child1
	}

	if grandParent != nullNode {
		// destroy parent and connect sibling to grandparent
		if tree.nodes[grandParent].child1 == parent {
			tree.nodes[grandParent].child1 = sibling
		} else {
			tree.nodes[grandParent].child2 = sibling
		}
		tree.nodes[sibling].parent = grandParent
		tree.nodeRecycle(parent)
		tree.refit(grandParent)
	} else {
		tree.root = sibling
		tree.nodes[sibling].parent = nullNode
		tree.nodeRecycle(parent)
	}
}

// balance performs a left or right rotation if node iA is imbalanced and
// returns the new root of the subtree.
func (tree *BBTree) balance(iA int32) int32 {
	A := &tree.nodes[iA]
	if A.IsLeaf() || A.height < 2 {
		return iA
	}

	iB := A.child1
	iC := A.child2
	B := &tree.nodes[iB]
	C := &tree.nodes[iC]

	balance := C.height - B.height

	// rotate C up
	if balance > 1 {
		iF := C.child1
		iG := C.child2
		F := &tree.nodes[iF]
		G := &tree.nodes[iG]

		C.child1 = iA
		C.parent = A.parent
		A.parent = iC

		tree.replaceChild(C.parent, iA, iC)

		if F.height > G.height {
			C.child2 = iF
			A.child2 = iG
			G.parent = iA
			A.bb = B.bb.Merge(G.bb)
			C.bb = A.bb.Merge(F.bb)
			A.height = 1 + max(B.height, G.height)
			C.height = 1 + max(A.height, F.height)
		} else {
			C.child2 = iG
			A.child2 = iF
			F.parent = iA
			A.bb = B.bb.Merge(F.bb)
			C.bb = A.bb.Merge(G.bb)
			A.height = 1 + max(B.height, F.height)
			C.height = 1 + max(A.height, G.height)
		}
		return iC
	}

	// rotate B up
	if balance < -1 {
		iD := B.child1
		iE := B.child2
		D := &tree.nodes[iD]
		E := &tree.nodes[iE]

		B.child1 = iA
		B.parent = A.parent
		A.parent = iB

		tree.replaceChild(B.parent, iA, iB)

		if D.height > E.height {
			B.child2 = iD
			A.child1 = iE
			E.parent = iA
			A.bb = C.bb.Merge(E.bb)
			B.bb = A.bb.Merge(D.bb)
			A.height = 1 + max(C.height, E.height)
			B.height = 1 + max(A.height, D.height)
		} else {
			B.child2 = iE
			A.child1 = iD
			D.parent = iA
			A.bb = C.bb.Merge(D.bb)
			B.bb = A.bb.Merge(E.bb)
			A.height = 1 + max(C.height, D.height)
			B.height = 1 + max(A.height, E.height)
		}
		return iB
	}

	return iA
}

func (tree *BBTree) replaceChild(parent, old, new int32) {
	if parent == nullNode {
		tree.root = new
		return
	}
	p := &tree.nodes[parent]
	if p.child1 == old {
		p.child1 = new
	} else {
		assert(p.child2 == old, "broken tree link")
		p.child2 = new
	}
}

// Height of the root, 0 for an empty tree.
func (tree *BBTree) Height() int {
	if tree.root == nullNode {
		return 0
	}
	return int(tree.nodes[tree.root].height)
}

// AreaRatio is the total node perimeter over the root perimeter, a measure
// of tree quality.
func (tree *BBTree) AreaRatio() float32 {
	if tree.root == nullNode {
		return 0
	}
	rootArea := tree.nodes[tree.root].bb.Perimeter()
	var total float32
	for i := range tree.nodes {
		if tree.nodes[i].height < 0 {
			continue
		}
		total += tree.nodes[i].bb.Perimeter()
	}
	return total / rootArea
}

// Query calls f for each leaf whose fat box overlaps bb until f returns false.
func (tree *BBTree) Query(bb BB, f func(id int32) bool) {
	var buf [64]int32
	stack := append(buf[:0], tree.root)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == nullNode {
			continue
		}

		node := &tree.nodes[id]
		if !node.bb.Intersects(bb) {
			continue
		}
		if node.IsLeaf() {
			if !f(id) {
				return
			}
		} else {
			stack = append(stack, node.child1, node.child2)
		}
	}
}

// RayCastFunc is called for each leaf the ray touches. It returns the new
// max fraction: 0 terminates, a negative value ignores the leaf, and a
// positive value clips the ray.
type TreeRayCastFunc func(input RayCastInput, id int32) float32

// RayCast walks the leaves hit by the segment p1->p2 of the input. The cost
// is bounded by the separating axis test against each box.
func (tree *BBTree) RayCast(input RayCastInput, f TreeRayCastFunc) {
	p1 := input.P1
	p2 := input.P2
	r := p2.Sub(p1)
	if r.LengthSq() == 0 {
		return
	}
	r = r.Normalize()

	// v is perpendicular to the segment
	v := CrossSV(1, r)
	absV := v.Abs()

	maxFraction := input.MaxFraction

	segmentBB := func() BB {
		t := p1.Add(p2.Sub(p1).Mult(maxFraction))
		lo := p1.Min(t)
		hi := p1.Max(t)
		return BB{lo.X, lo.Y, hi.X, hi.Y}
	}
	segBB := segmentBB()

	var buf [64]int32
	stack := append(buf[:0], tree.root)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == nullNode {
			continue
		}

		node := &tree.nodes[id]
		if !node.bb.Intersects(segBB) {
			continue
		}

		// |dot(v, p1 - c)| > dot(|v|, h)
		c := node.bb.Center()
		h := node.bb.Extents()
		separation := math32.Abs(v.Dot(p1.Sub(c))) - absV.Dot(h)
		if separation > 0 {
			continue
		}

		if node.IsLeaf() {
			sub := RayCastInput{P1: input.P1, P2: input.P2, MaxFraction: maxFraction}
			value := f(sub, id)
			if value == 0 {
				return
			}
			if value > 0 {
				maxFraction = value
				segBB = segmentBB()
			}
		} else {
			stack = append(stack, node.child1, node.child2)
		}
	}
}

// Validate checks structure and metrics, panicking on corruption.
func (tree *BBTree) Validate() {
	if tree.root != nullNode {
		assert(tree.nodes[tree.root].parent == nullNode, "root has a parent")
		tree.validateNode(tree.root)
	}

	freeCount := 0
	for free := tree.freeList; free != nullNode; free = tree.nodes[free].parent {
		freeCount++
	}
	assert(tree.nodeCount+freeCount == len(tree.nodes), "node accounting is off")
}

func (tree *BBTree) validateNode(index int32) {
	node := &tree.nodes[index]
	if node.IsLeaf() {
		assert(node.child2 == nullNode, "leaf with a child")
		assert(node.height == 0, "leaf height ", node.height)
		return
	}

	c1, c2 := node.child1, node.child2
	assert(tree.nodes[c1].parent == index, "child1 parent link")
	assert(tree.nodes[c2].parent == index, "child2 parent link")

	h1 := tree.nodes[c1].height
	h2 := tree.nodes[c2].height
	assert(node.height == 1+max(h1, h2), "height mismatch")

	bb := tree.nodes[c1].bb.Merge(tree.nodes[c2].bb)
	assert(bb == node.bb, "stale box")

	tree.validateNode(c1)
	tree.validateNode(c2)
}
