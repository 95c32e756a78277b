package b2

func collideCircles(m *Manifold, circleA *Circle, xfA Transform, circleB *Circle, xfB Transform) {
	m.PointCount = 0

	pA := xfA.Point(circleA.Center)
	pB := xfB.Point(circleB.Center)

	distSqr := pA.DistanceSq(pB)
	radius := circleA.Radius + circleB.Radius
	if distSqr > radius*radius {
		return
	}

	m.Type = MANIFOLD_CIRCLES
	m.LocalPoint = circleA.Center
	m.LocalNormal = Vector{}
	m.PointCount = 1
	m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center}
}

func collidePolygonAndCircle(m *Manifold, polyA *Polygon, xfA Transform, circleB *Circle, xfB Transform) {
	m.PointCount = 0

	// circle position in the frame of the polygon
	c := xfB.Point(circleB.Center)
	cLocal := xfA.InvPoint(c)

	// minimum separating edge
	normalIndex := 0
	separation := -maxFloat
	radius := polyA.Radius + circleB.Radius

	for i := 0; i < polyA.Count; i++ {
		s := polyA.Normals[i].Dot(cLocal.Sub(polyA.Vertices[i]))
		if s > radius {
			return
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	v1 := polyA.Vertices[normalIndex]
	v2 := polyA.Vertices[(normalIndex+1)%polyA.Count]

	// center is inside the polygon
	if separation < epsilon {
		m.PointCount = 1
		m.Type = MANIFOLD_FACE_A
		m.LocalNormal = polyA.Normals[normalIndex]
		m.LocalPoint = v1.Add(v2).Mult(0.5)
		m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center}
		return
	}

	u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
	u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))
	switch {
	case u1 <= 0:
		if cLocal.DistanceSq(v1) > radius*radius {
			return
		}
		m.PointCount = 1
		m.Type = MANIFOLD_FACE_A
		m.LocalNormal = cLocal.Sub(v1).Normalize()
		m.LocalPoint = v1
		m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center}
	case u2 <= 0:
		if cLocal.DistanceSq(v2) > radius*radius {
			return
		}
		m.PointCount = 1
		m.Type = MANIFOLD_FACE_A
		m.LocalNormal = cLocal.Sub(v2).Normalize()
		m.LocalPoint = v2
		m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center}
	default:
		faceCenter := v1.Add(v2).Mult(0.5)
		s := cLocal.Sub(faceCenter).Dot(polyA.Normals[normalIndex])
		if s > radius {
			return
		}
		m.PointCount = 1
		m.Type = MANIFOLD_FACE_A
		m.LocalNormal = polyA.Normals[normalIndex]
		m.LocalPoint = faceCenter
		m.Points[0] = ManifoldPoint{LocalPoint: circleB.Center}
	}
}
