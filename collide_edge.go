package b2

// collideEdgeAndCircle computes the manifold between an edge and a circle,
// using the ghost vertices of one-sided edges to skip regions owned by the
// neighboring edge.
func collideEdgeAndCircle(m *Manifold, edgeA *Edge, xfA Transform, circleB *Circle, xfB Transform) {
	m.PointCount = 0

	// circle in frame of edge
	Q := xfA.InvPoint(xfB.Point(circleB.Center))

	A, B := edgeA.V1, edgeA.V2
	e := B.Sub(A)

	// normal points to the right for a CCW winding
	n := Vector{e.Y, -e.X}
	offset := n.Dot(Q.Sub(A))

	if edgeA.OneSided && offset < 0 {
		return
	}

	// barycentric coordinates
	u := e.Dot(B.Sub(Q))
	v := e.Dot(Q.Sub(A))

	radius := POLYGON_RADIUS + circleB.Radius

	id := ContactID{IndexB: 0, TypeB: FEATURE_VERTEX}

	// region A
	if v <= 0 {
		P := A
		if Q.DistanceSq(P) > radius*radius {
			return
		}
		// circle in region AB of the previous edge?
		if edgeA.OneSided {
			e1 := A.Sub(edgeA.V0)
			if e1.Dot(A.Sub(Q)) > 0 {
				return
			}
		}
		id.IndexA = 0
		id.TypeA = FEATURE_VERTEX
		m.PointCount = 1
		m.Type = MANIFOLD_CIRCLES
		m.LocalNormal = Vector{}
		m.LocalPoint = P
		m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center, ID: id}
		return
	}

	// region B
	if u <= 0 {
		P := B
		if Q.DistanceSq(P) > radius*radius {
			return
		}
		// circle in region AB of the next edge?
		if edgeA.OneSided {
			e2 := edgeA.V3.Sub(B)
			if e2.Dot(Q.Sub(B)) > 0 {
				return
			}
		}
		id.IndexA = 1
		id.TypeA = FEATURE_VERTEX
		m.PointCount = 1
		m.Type = MANIFOLD_CIRCLES
		m.LocalNormal = Vector{}
		m.LocalPoint = P
		m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center, ID: id}
		return
	}

	// region AB
	den := e.Dot(e)
	P := A.Mult(u).Add(B.Mult(v)).Mult(1 / den)
	if Q.DistanceSq(P) > radius*radius {
		return
	}

	if offset < 0 {
		n = n.Neg()
	}
	n = n.Normalize()

	id.IndexA = 0
	id.TypeA = FEATURE_FACE
	m.PointCount = 1
	m.Type = MANIFOLD_FACE_A
	m.LocalNormal = n
	m.LocalPoint = A
	m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center, ID: id}
}

type epAxisKind int

const (
	epAxisUnknown epAxisKind = iota
	epAxisEdgeA
	epAxisEdgeB
)

type epAxis struct {
	normal     Vector
	kind       epAxisKind
	index      int
	separation float32
}

type tempPolygon struct {
	vertices [MAX_POLYGON_VERTICES]Vector
	normals  [MAX_POLYGON_VERTICES]Vector
	count    int
}

type referenceFace struct {
	i1, i2      int
	v1, v2      Vector
	normal      Vector
	sideNormal1 Vector
	sideOffset1 float32
	sideNormal2 Vector
	sideOffset2 float32
}

func computeEdgeSeparation(polygonB *tempPolygon, v1, normal1 Vector) epAxis {
	axis := epAxis{kind: epAxisEdgeA, index: -1, separation: -maxFloat}
	axes := [2]Vector{normal1, normal1.Neg()}

	// axis with least overlap
	for j := 0; j < 2; j++ {
		sj := maxFloat
		for i := 0; i < polygonB.count; i++ {
			if si := axes[j].Dot(polygonB.vertices[i].Sub(v1)); si < sj {
				sj = si
			}
		}
		if sj > axis.separation {
			axis.index = j
			axis.separation = sj
			axis.normal = axes[j]
		}
	}
	return axis
}

func computePolygonSeparation(polygonB *tempPolygon, v1, v2 Vector) epAxis {
	axis := epAxis{kind: epAxisUnknown, index: -1, separation: -maxFloat}
	for i := 0; i < polygonB.count; i++ {
		n := polygonB.normals[i].Neg()
		s1 := n.Dot(polygonB.vertices[i].Sub(v1))
		s2 := n.Dot(polygonB.vertices[i].Sub(v2))
		s := min(s1, s2)
		if s > axis.separation {
			axis.kind = epAxisEdgeB
			axis.index = i
			axis.separation = s
			axis.normal = n
		}
	}
	return axis
}

// collideEdgeAndPolygon works in the frame of the edge. For one-sided edges
// the Gauss map of the neighboring edges decides whether a normal is
// admitted, skipped, or snapped to the edge normal, which removes ghost
// collisions on smooth chains.
func collideEdgeAndPolygon(m *Manifold, edgeA *Edge, xfA Transform, polygonB *Polygon, xfB Transform) {
	m.PointCount = 0

	xf := xfA.MulT(xfB)

	centroidB := xf.Point(polygonB.Centroid)

	v1 := edgeA.V1
	v2 := edgeA.V2

	edge1 := v2.Sub(v1).Normalize()

	// normal points to the right for a CCW winding
	normal1 := Vector{edge1.Y, -edge1.X}
	offset1 := normal1.Dot(centroidB.Sub(v1))

	if edgeA.OneSided && offset1 < 0 {
		return
	}

	var tempB tempPolygon
	tempB.count = polygonB.Count
	for i := 0; i < polygonB.Count; i++ {
		tempB.vertices[i] = xf.Point(polygonB.Vertices[i])
		tempB.normals[i] = xf.Q.Rotate(polygonB.Normals[i])
	}

	radius := polygonB.Radius + POLYGON_RADIUS

	edgeAxis := computeEdgeSeparation(&tempB, v1, normal1)
	if edgeAxis.separation > radius {
		return
	}

	polygonAxis := computePolygonSeparation(&tempB, v1, v2)
	if polygonAxis.separation > radius {
		return
	}

	// hysteresis for jitter reduction
	const relativeTol = 0.98
	const absoluteTol = 0.001

	var primaryAxis epAxis
	if polygonAxis.separation-radius > relativeTol*(edgeAxis.separation-radius)+absoluteTol {
		primaryAxis = polygonAxis
	} else {
		primaryAxis = edgeAxis
	}

	if edgeA.OneSided {
		edge0 := v1.Sub(edgeA.V0).Normalize()
		normal0 := Vector{edge0.Y, -edge0.X}
		convex1 := edge0.Cross(edge1) >= 0

		edge2 := edgeA.V3.Sub(v2).Normalize()
		normal2 := Vector{edge2.Y, -edge2.X}
		convex2 := edge1.Cross(edge2) >= 0

		const sinTol = 0.1
		side1 := primaryAxis.normal.Dot(edge1) <= 0

		if side1 {
			if convex1 {
				if primaryAxis.normal.Cross(normal0) > sinTol {
					// skip region
					return
				}
			} else {
				// snap region
				primaryAxis = edgeAxis
			}
		} else {
			if convex2 {
				if normal2.Cross(primaryAxis.normal) > sinTol {
					return
				}
			} else {
				primaryAxis = edgeAxis
			}
		}
	}

	var clipPoints [2]ClipVertex
	var ref referenceFace
	if primaryAxis.kind == epAxisEdgeA {
		m.Type = MANIFOLD_FACE_A

		// polygon normal most anti-parallel to the edge normal
		bestIndex := 0
		bestValue := primaryAxis.normal.Dot(tempB.normals[0])
		for i := 1; i < tempB.count; i++ {
			if value := primaryAxis.normal.Dot(tempB.normals[i]); value < bestValue {
				bestValue = value
				bestIndex = i
			}
		}

		i1 := bestIndex
		i2 := (i1 + 1) % tempB.count

		clipPoints[0] = ClipVertex{
			V:  tempB.vertices[i1],
			ID: ContactID{IndexA: 0, IndexB: uint8(i1), TypeA: FEATURE_FACE, TypeB: FEATURE_VERTEX},
		}
		clipPoints[1] = ClipVertex{
			V:  tempB.vertices[i2],
			ID: ContactID{IndexA: 0, IndexB: uint8(i2), TypeA: FEATURE_FACE, TypeB: FEATURE_VERTEX},
		}

		ref.i1 = 0
		ref.i2 = 1
		ref.v1 = v1
		ref.v2 = v2
		ref.normal = primaryAxis.normal
		ref.sideNormal1 = edge1.Neg()
		ref.sideNormal2 = edge1
	} else {
		m.Type = MANIFOLD_FACE_B

		clipPoints[0] = ClipVertex{
			V:  v2,
			ID: ContactID{IndexA: 1, IndexB: uint8(primaryAxis.index), TypeA: FEATURE_VERTEX, TypeB: FEATURE_FACE},
		}
		clipPoints[1] = ClipVertex{
			V:  v1,
			ID: ContactID{IndexA: 0, IndexB: uint8(primaryAxis.index), TypeA: FEATURE_VERTEX, TypeB: FEATURE_FACE},
		}

		ref.i1 = primaryAxis.index
		ref.i2 = (ref.i1 + 1) % tempB.count
		ref.v1 = tempB.vertices[ref.i1]
		ref.v2 = tempB.vertices[ref.i2]
		ref.normal = tempB.normals[ref.i1]

		// CCW winding
		ref.sideNormal1 = Vector{ref.normal.Y, -ref.normal.X}
		ref.sideNormal2 = ref.sideNormal1.Neg()
	}

	ref.sideOffset1 = ref.sideNormal1.Dot(ref.v1)
	ref.sideOffset2 = ref.sideNormal2.Dot(ref.v2)

	var clipPoints1, clipPoints2 [2]ClipVertex
	if ClipSegmentToLine(&clipPoints1, clipPoints, ref.sideNormal1, ref.sideOffset1, ref.i1) < MAX_MANIFOLD_POINTS {
		return
	}
	if ClipSegmentToLine(&clipPoints2, clipPoints1, ref.sideNormal2, ref.sideOffset2, ref.i2) < MAX_MANIFOLD_POINTS {
		return
	}

	if primaryAxis.kind == epAxisEdgeA {
		m.LocalNormal = ref.normal
		m.LocalPoint = ref.v1
	} else {
		m.LocalNormal = polygonB.Normals[ref.i1]
		m.LocalPoint = polygonB.Vertices[ref.i1]
	}

	pointCount := 0
	for i := 0; i < MAX_MANIFOLD_POINTS; i++ {
		separation := ref.normal.Dot(clipPoints2[i].V.Sub(ref.v1))
		if separation <= radius {
			cp := &m.Points[pointCount]
			if primaryAxis.kind == epAxisEdgeA {
				*cp = ManifoldPoint{LocalPoint: xf.InvPoint(clipPoints2[i].V), ID: clipPoints2[i].ID}
			} else {
				*cp = ManifoldPoint{LocalPoint: clipPoints2[i].V, ID: clipPoints2[i].ID.flip()}
			}
			pointCount++
		}
	}
	m.PointCount = pointCount
}
