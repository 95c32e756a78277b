package b2

// DistanceProxy is a convex vertex cloud with a radius, the GJK view of a
// geometry. Set it in place; copying a proxy set from a circle or edge
// leaves Vertices pointing at the original buffer.
type DistanceProxy struct {
	buffer   [2]Vector
	Vertices []Vector
	Radius   float32
}

func (p *DistanceProxy) Set(g Geometry) {
	switch g := g.(type) {
	case *Circle:
		p.buffer[0] = g.Center
		p.Vertices = p.buffer[:1]
		p.Radius = g.Radius
	case *Edge:
		p.buffer[0] = g.V1
		p.buffer[1] = g.V2
		p.Vertices = p.buffer[:2]
		p.Radius = POLYGON_RADIUS
	case *Polygon:
		p.Vertices = g.Vertices[:g.Count]
		p.Radius = g.Radius
	default:
		panic("unknown geometry")
	}
}

func (p *DistanceProxy) SetPoints(vertices []Vector, radius float32) {
	p.Vertices = vertices
	p.Radius = radius
}

// Support returns the index of the vertex farthest along d.
func (p *DistanceProxy) Support(d Vector) int {
	best := 0
	bestValue := p.Vertices[0].Dot(d)
	for i := 1; i < len(p.Vertices); i++ {
		if v := p.Vertices[i].Dot(d); v > bestValue {
			best = i
			bestValue = v
		}
	}
	return best
}

func (p *DistanceProxy) Vertex(i int) Vector {
	return p.Vertices[i]
}

// SimplexCache warm starts GJK between calls for the same pair.
type SimplexCache struct {
	Metric float32
	Count  int
	IndexA [3]uint8
	IndexB [3]uint8
}

type DistanceInput struct {
	ProxyA, ProxyB         *DistanceProxy
	TransformA, TransformB Transform
	UseRadii               bool
}

type DistanceOutput struct {
	PointA, PointB Vector
	Distance       float32
	Iterations     int
}

type simplexVertex struct {
	wA, wB, w      Vector
	a              float32
	indexA, indexB int
}

type simplex struct {
	v     [3]simplexVertex
	count int
}

func (s *simplex) readCache(cache *SimplexCache, proxyA *DistanceProxy, xfA Transform, proxyB *DistanceProxy, xfB Transform) {
	s.count = cache.Count
	for i := 0; i < s.count; i++ {
		v := &s.v[i]
		v.indexA = int(cache.IndexA[i])
		v.indexB = int(cache.IndexB[i])
		v.wA = xfA.Point(proxyA.Vertex(v.indexA))
		v.wB = xfB.Point(proxyB.Vertex(v.indexB))
		v.w = v.wB.Sub(v.wA)
		v.a = -1
	}

	// Flush the simplex if the metric changed a lot.
	if s.count > 1 {
		metric1 := cache.Metric
		metric2 := s.metric()
		if metric2 < 0.5*metric1 || 2*metric1 < metric2 || metric2 < epsilon {
			s.count = 0
		}
	}

	if s.count == 0 {
		v := &s.v[0]
		v.indexA = 0
		v.indexB = 0
		v.wA = xfA.Point(proxyA.Vertex(0))
		v.wB = xfB.Point(proxyB.Vertex(0))
		v.w = v.wB.Sub(v.wA)
		v.a = 1
		s.count = 1
	}
}

func (s *simplex) writeCache(cache *SimplexCache) {
	cache.Metric = s.metric()
	cache.Count = s.count
	for i := 0; i < s.count; i++ {
		cache.IndexA[i] = uint8(s.v[i].indexA)
		cache.IndexB[i] = uint8(s.v[i].indexB)
	}
}

func (s *simplex) searchDirection() Vector {
	switch s.count {
	case 1:
		return s.v[0].w.Neg()
	case 2:
		e12 := s.v[1].w.Sub(s.v[0].w)
		sgn := e12.Cross(s.v[0].w.Neg())
		if sgn > 0 {
			// origin is left of e12
			return CrossSV(1, e12)
		}
		return CrossVS(e12, 1)
	}
	return Vector{}
}

func (s *simplex) witnessPoints() (Vector, Vector) {
	switch s.count {
	case 1:
		return s.v[0].wA, s.v[0].wB
	case 2:
		pA := s.v[0].wA.Mult(s.v[0].a).Add(s.v[1].wA.Mult(s.v[1].a))
		pB := s.v[0].wB.Mult(s.v[0].a).Add(s.v[1].wB.Mult(s.v[1].a))
		return pA, pB
	case 3:
		pA := s.v[0].wA.Mult(s.v[0].a).Add(s.v[1].wA.Mult(s.v[1].a)).Add(s.v[2].wA.Mult(s.v[2].a))
		return pA, pA
	}
	return Vector{}, Vector{}
}

func (s *simplex) metric() float32 {
	switch s.count {
	case 2:
		return s.v[0].w.Distance(s.v[1].w)
	case 3:
		return s.v[1].w.Sub(s.v[0].w).Cross(s.v[2].w.Sub(s.v[0].w))
	}
	return 0
}

// solve2 uses barycentric coordinates on the segment w1-w2 to find the
// closest feature to the origin.
func (s *simplex) solve2() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	e12 := w2.Sub(w1)

	// w1 region
	d12_2 := -w1.Dot(e12)
	if d12_2 <= 0 {
		s.v[0].a = 1
		s.count = 1
		return
	}

	// w2 region
	d12_1 := w2.Dot(e12)
	if d12_1 <= 0 {
		s.v[1].a = 1
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	inv := 1 / (d12_1 + d12_2)
	s.v[0].a = d12_1 * inv
	s.v[1].a = d12_2 * inv
	s.count = 2
}

// solve3 checks the vertex, edge and interior regions of the triangle.
func (s *simplex) solve3() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	w3 := s.v[2].w

	e12 := w2.Sub(w1)
	d12_1 := w2.Dot(e12)
	d12_2 := -w1.Dot(e12)

	e13 := w3.Sub(w1)
	d13_1 := w3.Dot(e13)
	d13_2 := -w1.Dot(e13)

	e23 := w3.Sub(w2)
	d23_1 := w3.Dot(e23)
	d23_2 := -w2.Dot(e23)

	n123 := e12.Cross(e13)
	d123_1 := n123 * w2.Cross(w3)
	d123_2 := n123 * w3.Cross(w1)
	d123_3 := n123 * w1.Cross(w2)

	if d12_2 <= 0 && d13_2 <= 0 {
		s.v[0].a = 1
		s.count = 1
		return
	}

	if d12_1 > 0 && d12_2 > 0 && d123_3 <= 0 {
		inv := 1 / (d12_1 + d12_2)
		s.v[0].a = d12_1 * inv
		s.v[1].a = d12_2 * inv
		s.count = 2
		return
	}

	if d13_1 > 0 && d13_2 > 0 && d123_2 <= 0 {
		inv := 1 / (d13_1 + d13_2)
		s.v[0].a = d13_1 * inv
		s.v[2].a = d13_2 * inv
		s.count = 2
		s.v[1] = s.v[2]
		return
	}

	if d12_1 <= 0 && d23_2 <= 0 {
		s.v[1].a = 1
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	if d13_1 <= 0 && d23_1 <= 0 {
		s.v[2].a = 1
		s.count = 1
		s.v[0] = s.v[2]
		return
	}

	if d23_1 > 0 && d23_2 > 0 && d123_1 <= 0 {
		inv := 1 / (d23_1 + d23_2)
		s.v[1].a = d23_1 * inv
		s.v[2].a = d23_2 * inv
		s.count = 2
		s.v[0] = s.v[2]
		return
	}

	inv := 1 / (d123_1 + d123_2 + d123_3)
	s.v[0].a = d123_1 * inv
	s.v[1].a = d123_2 * inv
	s.v[2].a = d123_3 * inv
	s.count = 3
}

// Distance computes the closest points between two convex proxies with GJK.
// The cache is read and updated.
func Distance(input *DistanceInput, cache *SimplexCache) DistanceOutput {
	proxyA := input.ProxyA
	proxyB := input.ProxyB
	xfA := input.TransformA
	xfB := input.TransformB

	var s simplex
	s.readCache(cache, proxyA, xfA, proxyB, xfB)

	var saveA, saveB [3]int
	iter := 0
	for iter < MAX_GJK_ITERATIONS {
		saveCount := s.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = s.v[i].indexA
			saveB[i] = s.v[i].indexB
		}

		switch s.count {
		case 2:
			s.solve2()
		case 3:
			s.solve3()
		}

		// origin is inside the triangle
		if s.count == 3 {
			break
		}

		d := s.searchDirection()
		if d.LengthSq() < epsilon*epsilon {
			// The origin is probably on the simplex. Overlap is assumed.
			break
		}

		v := &s.v[s.count]
		v.indexA = proxyA.Support(xfA.Q.InvRotate(d.Neg()))
		v.wA = xfA.Point(proxyA.Vertex(v.indexA))
		v.indexB = proxyB.Support(xfB.Q.InvRotate(d))
		v.wB = xfB.Point(proxyB.Vertex(v.indexB))
		v.w = v.wB.Sub(v.wA)

		iter++

		duplicate := false
		for i := 0; i < saveCount; i++ {
			if v.indexA == saveA[i] && v.indexB == saveB[i] {
				duplicate = true
				break
			}
		}
		if duplicate {
			break
		}

		s.count++
	}

	var out DistanceOutput
	out.PointA, out.PointB = s.witnessPoints()
	out.Distance = out.PointA.Distance(out.PointB)
	out.Iterations = iter

	s.writeCache(cache)

	if input.UseRadii {
		if out.Distance < epsilon {
			p := out.PointA.Add(out.PointB).Mult(0.5)
			out.PointA = p
			out.PointB = p
			out.Distance = 0
		} else {
			rA := proxyA.Radius
			rB := proxyB.Radius
			normal := out.PointB.Sub(out.PointA).Normalize()
			out.Distance = max(0, out.Distance-rA-rB)
			out.PointA = out.PointA.Add(normal.Mult(rA))
			out.PointB = out.PointB.Sub(normal.Mult(rB))
		}
	}
	return out
}

// TestOverlap reports whether two geometries overlap, skins included.
func TestOverlap(a Geometry, xfA Transform, b Geometry, xfB Transform) bool {
	var proxyA, proxyB DistanceProxy
	proxyA.Set(a)
	proxyB.Set(b)
	input := DistanceInput{
		ProxyA:     &proxyA,
		ProxyB:     &proxyB,
		TransformA: xfA,
		TransformB: xfB,
		UseRadii:   true,
	}
	var cache SimplexCache
	out := Distance(&input, &cache)
	return out.Distance < 10*epsilon
}
