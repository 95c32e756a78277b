package b2

import "github.com/chewxy/math32"

// PolyLine is an open or closed (first point repeated last) list of points,
// usually collected from a marching squares contour.
type PolyLine struct {
	Verts []Vector
}

type PolyLineSet struct {
	Lines []*PolyLine
}

func next(i, count int) int {
	return (i + 1) % count
}

func sharpness(a, b, c Vector) float32 {
	return a.Sub(b).Normalize().Dot(c.Sub(b).Normalize())
}

func (pl *PolyLine) Push(v Vector) *PolyLine {
	pl.Verts = append(pl.Verts, v)
	return pl
}

func (pl *PolyLine) Enqueue(v Vector) *PolyLine {
	pl.Verts = append([]Vector{v}, pl.Verts...)
	return pl
}

func (pl *PolyLine) IsClosed() bool {
	return len(pl.Verts) > 1 && pl.Verts[0].Equal(pl.Verts[len(pl.Verts)-1])
}

func (pl *PolyLine) isShort(count, start, end int, min float32) bool {
	var length float32
	for i := start; i != end; i = next(i, count) {
		length += pl.Verts[i].Distance(pl.Verts[next(i, count)])
		if length > min {
			return false
		}
	}
	return true
}

// simplifyVertices joins adjacent segments that turn by less than tol
// radians. Works well for hard edged shapes.
func simplifyVertices(pts []Vector, tol float32, loop bool) []Vector {
	if len(pts) < 3 {
		return pts
	}
	reduced := []Vector{pts[0], pts[1]}
	minSharp := -math32.Cos(tol)

	for i := 2; i < len(pts); i++ {
		v := pts[i]
		n := len(reduced)
		if sharpness(reduced[n-2], reduced[n-1], v) <= minSharp {
			reduced[n-1] = v
		} else {
			reduced = append(reduced, v)
		}
	}

	if loop && len(reduced) > 3 {
		n := len(reduced)
		if sharpness(reduced[n-1], reduced[0], reduced[1]) <= minSharp {
			reduced = reduced[1:]
		}
	}
	return reduced
}

func douglasPeucker(verts []Vector, reduced *PolyLine, length, start, end int, min, tol float32) *PolyLine {
	// adjacent points
	if (end-start+length)%length < 2 {
		return reduced
	}

	a := verts[start]
	b := verts[end]

	if a.Near(b, min) && reduced.isShort(length, start, end, min) {
		return reduced
	}

	var max float32
	maxi := start

	n := b.Sub(a).Perp().Normalize()
	d := n.Dot(a)

	for i := next(start, length); i != end; i = next(i, length) {
		dist := math32.Abs(n.Dot(verts[i]) - d)
		if dist > max {
			max = dist
			maxi = i
		}
	}

	if max > tol {
		reduced = douglasPeucker(verts, reduced, length, start, maxi, min, tol)
		reduced.Push(verts[maxi])
		reduced = douglasPeucker(verts, reduced, length, maxi, end, min, tol)
	}

	return reduced
}

// SimplifyCurves reduces the vertex count so the result never strays more
// than tol from the original. Works best for smooth shapes.
func (pl *PolyLine) SimplifyCurves(tol float32) *PolyLine {
	reduced := &PolyLine{}
	min := tol / 2
	n := len(pl.Verts)
	if n < 3 {
		reduced.Verts = append(reduced.Verts, pl.Verts...)
		return reduced
	}

	if pl.IsClosed() {
		// split the loop at the point farthest from the first one
		start, end := 0, 0
		var maxD float32
		for i := 1; i < n-1; i++ {
			if d := pl.Verts[0].DistanceSq(pl.Verts[i]); d > maxD {
				maxD = d
				end = i
			}
		}

		reduced.Push(pl.Verts[start])
		reduced = douglasPeucker(pl.Verts, reduced, n-1, start, end, min, tol)
		reduced.Push(pl.Verts[end])
		reduced = douglasPeucker(pl.Verts, reduced, n-1, end, start, min, tol)
		reduced.Push(pl.Verts[start])
	} else {
		reduced.Push(pl.Verts[0])
		reduced = douglasPeucker(pl.Verts, reduced, n, 0, n-1, min, tol)
		reduced.Push(pl.Verts[n-1])
	}

	return reduced
}

// ChainDef turns the polyline into a chain definition. A closed polyline
// becomes a loop.
func (pl *PolyLine) ChainDef() ChainDef {
	if pl.IsClosed() {
		pts := make([]Vector, len(pl.Verts)-1)
		copy(pts, pl.Verts)
		return DefaultChainDef(pts, true)
	}
	pts := make([]Vector, len(pl.Verts))
	copy(pts, pl.Verts)
	return DefaultChainDef(pts, false)
}

func (pls *PolyLineSet) findEnds(v Vector) int {
	for i, line := range pls.Lines {
		if !line.IsClosed() && line.Verts[len(line.Verts)-1].Equal(v) {
			return i
		}
	}
	return -1
}

func (pls *PolyLineSet) findStarts(v Vector) int {
	for i, line := range pls.Lines {
		if !line.IsClosed() && line.Verts[0].Equal(v) {
			return i
		}
	}
	return -1
}

func (pls *PolyLineSet) join(before, after int) {
	pls.Lines[before].Verts = append(pls.Lines[before].Verts, pls.Lines[after].Verts...)
	copy(pls.Lines[after:], pls.Lines[after+1:])
	pls.Lines = pls.Lines[:len(pls.Lines)-1]
}

// CollectSegment adds a segment to the set. It either starts a new
// polyline, extends or closes one, or joins two.
func (pls *PolyLineSet) CollectSegment(v0, v1 Vector) {
	before := pls.findEnds(v0)
	after := pls.findStarts(v1)

	switch {
	case before >= 0 && after >= 0:
		if before == after {
			pls.Lines[before].Push(v1)
		} else {
			pls.join(before, after)
		}
	case before >= 0:
		pls.Lines[before].Push(v1)
	case after >= 0:
		pls.Lines[after].Enqueue(v0)
	default:
		pls.Lines = append(pls.Lines, &PolyLine{Verts: []Vector{v0, v1}})
	}
}
