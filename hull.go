package b2

// ConvexHull computes the counter-clockwise convex hull of points with
// QuickHull. The input is left untouched. Points within tol of a hull edge
// are dropped, so collinear and interior points never survive.
func ConvexHull(points []Vector, tol float32) []Vector {
	count := len(points)
	if count == 0 {
		return nil
	}
	result := make([]Vector, count)
	copy(result, points)

	start, end := loopIndexes(result)
	if start == end {
		return result[:1]
	}

	result[0], result[start] = result[start], result[0]
	if end == 0 {
		end = start
	}
	result[1], result[end] = result[end], result[1]

	a := result[0]
	b := result[1]

	n := qhullReduce(tol, result[2:], count-2, a, b, a, result[1:]) + 1
	hull := result[:n]
	if signedArea(hull) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			hull[i], hull[j] = hull[j], hull[i]
		}
	}
	return hull
}

// loopIndexes finds the lexicographically lowest and highest points.
func loopIndexes(verts []Vector) (int, int) {
	start := 0
	end := 0

	min := verts[0]
	max := min

	for i, v := range verts {
		if v.X < min.X || (v.X == min.X && v.Y < min.Y) {
			min = v
			start = i
		} else if v.X > max.X || (v.X == max.X && v.Y > max.Y) {
			max = v
			end = i
		}
	}

	return start, end
}

// qhullReduce does an in place reduction, using result as scratch space.
func qhullReduce(tol float32, verts []Vector, count int, a, pivot, b Vector, result []Vector) int {
	if count < 0 {
		return 0
	}

	if count == 0 {
		result[0] = pivot
		return 1
	}

	leftCount := qhullPartition(verts, count, a, pivot, tol)
	index := qhullReduce(tol, verts[1:], leftCount-1, a, verts[0], pivot, result)

	result[index] = pivot
	index++

	rightCount := qhullPartition(verts[leftCount:], count-leftCount, pivot, b, tol)
	if rightCount == 0 {
		return index
	}

	return index + qhullReduce(tol, verts[leftCount+1:], rightCount-1, pivot, verts[leftCount], b, result[index:])
}

// qhullPartition moves the points right of a->b to the front, the farthest
// first, and returns how many there are.
func qhullPartition(verts []Vector, count int, a, b Vector, tol float32) int {
	if count == 0 {
		return 0
	}

	var max float32
	pivot := 0

	delta := b.Sub(a)
	valueTol := tol * delta.Length()

	head := 0
	for tail := count - 1; head <= tail; {
		value := verts[head].Sub(a).Cross(delta)
		if value > valueTol {
			if value > max {
				max = value
				pivot = head
			}
			head++
		} else {
			verts[head], verts[tail] = verts[tail], verts[head]
			tail--
		}
	}

	if pivot != 0 {
		verts[0], verts[pivot] = verts[pivot], verts[0]
	}
	return head
}

func signedArea(verts []Vector) float32 {
	var area float32
	n := len(verts)
	for i := 0; i < n; i++ {
		area += verts[i].Cross(verts[(i+1)%n])
	}
	return 0.5 * area
}
