package b2

// findMaxSeparation finds the edge normal of poly1 with the largest
// separation from poly2.
func findMaxSeparation(poly1 *Polygon, xf1 Transform, poly2 *Polygon, xf2 Transform) (int, float32) {
	xf := xf2.MulT(xf1)

	bestIndex := 0
	maxSeparation := -maxFloat
	for i := 0; i < poly1.Count; i++ {
		// poly1 normal and vertex in poly2's frame
		n := xf.Q.Rotate(poly1.Normals[i])
		v1 := xf.Point(poly1.Vertices[i])

		si := maxFloat
		for j := 0; j < poly2.Count; j++ {
			if sij := n.Dot(poly2.Vertices[j].Sub(v1)); sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}
	return bestIndex, maxSeparation
}

// findIncidentEdge picks the edge of poly2 most anti-parallel to the
// reference normal.
func findIncidentEdge(c *[2]ClipVertex, poly1 *Polygon, xf1 Transform, edge1 int, poly2 *Polygon, xf2 Transform) {
	normal1 := xf2.Q.InvRotate(xf1.Q.Rotate(poly1.Normals[edge1]))

	index := 0
	minDot := maxFloat
	for i := 0; i < poly2.Count; i++ {
		if dot := normal1.Dot(poly2.Normals[i]); dot < minDot {
			minDot = dot
			index = i
		}
	}

	i1 := index
	i2 := (i1 + 1) % poly2.Count

	c[0] = ClipVertex{
		V:  xf2.Point(poly2.Vertices[i1]),
		ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i1), TypeA: FEATURE_FACE, TypeB: FEATURE_VERTEX},
	}
	c[1] = ClipVertex{
		V:  xf2.Point(poly2.Vertices[i2]),
		ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i2), TypeA: FEATURE_FACE, TypeB: FEATURE_VERTEX},
	}
}

// collidePolygons finds the separating axis over the face normals of both
// polygons, then clips the incident edge against the side planes of the
// reference face. Reference face is chosen with a small tolerance so it does
// not flip between frames.
func collidePolygons(m *Manifold, polyA *Polygon, xfA Transform, polyB *Polygon, xfB Transform) {
	m.PointCount = 0
	totalRadius := polyA.Radius + polyB.Radius

	edgeA, separationA := findMaxSeparation(polyA, xfA, polyB, xfB)
	if separationA > totalRadius {
		return
	}

	edgeB, separationB := findMaxSeparation(polyB, xfB, polyA, xfA)
	if separationB > totalRadius {
		return
	}

	var poly1, poly2 *Polygon
	var xf1, xf2 Transform
	var edge1 int
	var flip bool
	const tol = 0.1 * LINEAR_SLOP

	if separationB > separationA+tol {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		m.Type = MANIFOLD_FACE_B
		flip = true
	} else {
		poly1, poly2 = polyA, polyB
		xf1, xf2 = xfA, xfB
		edge1 = edgeA
		m.Type = MANIFOLD_FACE_A
	}

	var incidentEdge [2]ClipVertex
	findIncidentEdge(&incidentEdge, poly1, xf1, edge1, poly2, xf2)

	iv1 := edge1
	iv2 := (edge1 + 1) % poly1.Count

	v11 := poly1.Vertices[iv1]
	v12 := poly1.Vertices[iv2]

	localTangent := v12.Sub(v11).Normalize()
	localNormal := CrossVS(localTangent, 1)
	planePoint := v11.Add(v12).Mult(0.5)

	tangent := xf1.Q.Rotate(localTangent)
	normal := CrossVS(tangent, 1)

	v11 = xf1.Point(v11)
	v12 = xf1.Point(v12)

	frontOffset := normal.Dot(v11)

	// side offsets, extended by the polygon radius
	sideOffset1 := -tangent.Dot(v11) + totalRadius
	sideOffset2 := tangent.Dot(v12) + totalRadius

	var clipPoints1, clipPoints2 [2]ClipVertex
	if ClipSegmentToLine(&clipPoints1, incidentEdge, tangent.Neg(), sideOffset1, iv1) < 2 {
		return
	}
	if ClipSegmentToLine(&clipPoints2, clipPoints1, tangent, sideOffset2, iv2) < 2 {
		return
	}

	m.LocalNormal = localNormal
	m.LocalPoint = planePoint

	pointCount := 0
	for i := 0; i < MAX_MANIFOLD_POINTS; i++ {
		separation := normal.Dot(clipPoints2[i].V) - frontOffset
		if separation <= totalRadius {
			id := clipPoints2[i].ID
			if flip {
				id = id.flip()
			}
			m.Points[pointCount] = ManifoldPoint{
				LocalPoint: xf2.InvPoint(clipPoints2[i].V),
				ID:         id,
			}
			pointCount++
		}
	}
	m.PointCount = pointCount
}
