package b2

const (
	FEATURE_VERTEX uint8 = 0
	FEATURE_FACE   uint8 = 1
)

// ContactID names the features that intersect to form a contact point.
// Matching IDs across steps carry accumulated impulses forward.
type ContactID struct {
	IndexA, IndexB uint8
	TypeA, TypeB   uint8
}

func (id ContactID) Key() uint32 {
	return uint32(id.IndexA) | uint32(id.IndexB)<<8 | uint32(id.TypeA)<<16 | uint32(id.TypeB)<<24
}

func (id ContactID) flip() ContactID {
	return ContactID{IndexA: id.IndexB, IndexB: id.IndexA, TypeA: id.TypeB, TypeB: id.TypeA}
}

type ManifoldType int

const (
	MANIFOLD_CIRCLES ManifoldType = iota
	MANIFOLD_FACE_A
	MANIFOLD_FACE_B
)

// ManifoldPoint is a contact point in local coordinates. Its meaning
// depends on the manifold type: for circles and face A it is the local
// center of B or the clip point of B; for face B the clip point of A.
type ManifoldPoint struct {
	LocalPoint     Vector
	NormalImpulse  float32
	TangentImpulse float32
	ID             ContactID
}

// Manifold is the contact patch between two convex shapes, at most two
// points, sharing one normal.
type Manifold struct {
	Points      [MAX_MANIFOLD_POINTS]ManifoldPoint
	LocalNormal Vector
	LocalPoint  Vector
	Type        ManifoldType
	PointCount  int
}

// WorldManifold is a manifold resolved into world space. Normal points
// from A to B.
type WorldManifold struct {
	Normal      Vector
	Points      [MAX_MANIFOLD_POINTS]Vector
	Separations [MAX_MANIFOLD_POINTS]float32
}

func (wm *WorldManifold) Initialize(m *Manifold, xfA Transform, radiusA float32, xfB Transform, radiusB float32) {
	if m.PointCount == 0 {
		return
	}

	switch m.Type {
	case MANIFOLD_CIRCLES:
		wm.Normal = Vector{1, 0}
		pointA := xfA.Point(m.LocalPoint)
		pointB := xfB.Point(m.Points[0].LocalPoint)
		if pointA.DistanceSq(pointB) > epsilon*epsilon {
			wm.Normal = pointB.Sub(pointA).Normalize()
		}
		cA := pointA.Add(wm.Normal.Mult(radiusA))
		cB := pointB.Sub(wm.Normal.Mult(radiusB))
		wm.Points[0] = cA.Add(cB).Mult(0.5)
		wm.Separations[0] = cB.Sub(cA).Dot(wm.Normal)

	case MANIFOLD_FACE_A:
		wm.Normal = xfA.Q.Rotate(m.LocalNormal)
		planePoint := xfA.Point(m.LocalPoint)
		for i := 0; i < m.PointCount; i++ {
			clipPoint := xfB.Point(m.Points[i].LocalPoint)
			cA := clipPoint.Add(wm.Normal.Mult(radiusA - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cB := clipPoint.Sub(wm.Normal.Mult(radiusB))
			wm.Points[i] = cA.Add(cB).Mult(0.5)
			wm.Separations[i] = cB.Sub(cA).Dot(wm.Normal)
		}

	case MANIFOLD_FACE_B:
		wm.Normal = xfB.Q.Rotate(m.LocalNormal)
		planePoint := xfB.Point(m.LocalPoint)
		for i := 0; i < m.PointCount; i++ {
			clipPoint := xfA.Point(m.Points[i].LocalPoint)
			cB := clipPoint.Add(wm.Normal.Mult(radiusB - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cA := clipPoint.Sub(wm.Normal.Mult(radiusA))
			wm.Points[i] = cA.Add(cB).Mult(0.5)
			wm.Separations[i] = cA.Sub(cB).Dot(wm.Normal)
		}
		// Ensure normal points from A to B.
		wm.Normal = wm.Normal.Neg()
	}
}

type PointState int

const (
	POINT_NULL    PointState = iota
	POINT_ADD                // new this update
	POINT_PERSIST            // present in both updates
	POINT_REMOVE             // gone this update
)

// GetPointStates compares two manifolds by contact ID.
func GetPointStates(m1, m2 *Manifold) (state1, state2 [MAX_MANIFOLD_POINTS]PointState) {
	for i := 0; i < m1.PointCount; i++ {
		key := m1.Points[i].ID.Key()
		state1[i] = POINT_REMOVE
		for j := 0; j < m2.PointCount; j++ {
			if m2.Points[j].ID.Key() == key {
				state1[i] = POINT_PERSIST
				break
			}
		}
	}
	for i := 0; i < m2.PointCount; i++ {
		key := m2.Points[i].ID.Key()
		state2[i] = POINT_ADD
		for j := 0; j < m1.PointCount; j++ {
			if m1.Points[j].ID.Key() == key {
				state2[i] = POINT_PERSIST
				break
			}
		}
	}
	return
}

type ClipVertex struct {
	V  Vector
	ID ContactID
}

// ClipSegmentToLine clips vIn against the half plane dot(normal, v) <= offset.
func ClipSegmentToLine(vOut *[2]ClipVertex, vIn [2]ClipVertex, normal Vector, offset float32, vertexIndexA int) int {
	numOut := 0

	distance0 := normal.Dot(vIn[0].V) - offset
	distance1 := normal.Dot(vIn[1].V) - offset

	if distance0 <= 0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if distance1 <= 0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	// points are on different sides of the plane
	if distance0*distance1 < 0 {
		interp := distance0 / (distance0 - distance1)
		vOut[numOut].V = vIn[0].V.Add(vIn[1].V.Sub(vIn[0].V).Mult(interp))
		vOut[numOut].ID = ContactID{
			IndexA: uint8(vertexIndexA),
			IndexB: vIn[0].ID.IndexB,
			TypeA:  FEATURE_VERTEX,
			TypeB:  FEATURE_FACE,
		}
		numOut++
	}

	return numOut
}

type collideFunc func(m *Manifold, a Geometry, xfA Transform, b Geometry, xfB Transform)

// collideTable is indexed by (kind of A, kind of B). Pairs registered only
// in the mirrored slot are swapped when the contact is created. Edge vs edge
// has no routine, so such pairs never make contacts.
var collideTable = [shapeKindCount][shapeKindCount]collideFunc{
	SHAPE_CIRCLE: {
		SHAPE_CIRCLE: func(m *Manifold, a Geometry, xfA Transform, b Geometry, xfB Transform) {
			collideCircles(m, a.(*Circle), xfA, b.(*Circle), xfB)
		},
	},
	SHAPE_EDGE: {
		SHAPE_CIRCLE: func(m *Manifold, a Geometry, xfA Transform, b Geometry, xfB Transform) {
			collideEdgeAndCircle(m, a.(*Edge), xfA, b.(*Circle), xfB)
		},
		SHAPE_POLYGON: func(m *Manifold, a Geometry, xfA Transform, b Geometry, xfB Transform) {
			collideEdgeAndPolygon(m, a.(*Edge), xfA, b.(*Polygon), xfB)
		},
	},
	SHAPE_POLYGON: {
		SHAPE_CIRCLE: func(m *Manifold, a Geometry, xfA Transform, b Geometry, xfB Transform) {
			collidePolygonAndCircle(m, a.(*Polygon), xfA, b.(*Circle), xfB)
		},
		SHAPE_POLYGON: func(m *Manifold, a Geometry, xfA Transform, b Geometry, xfB Transform) {
			collidePolygons(m, a.(*Polygon), xfA, b.(*Polygon), xfB)
		},
	},
}

// lookupCollide finds the routine for a kind pair and reports whether the
// shapes must be swapped to use it.
func lookupCollide(kindA, kindB ShapeKind) (collideFunc, bool) {
	if fn := collideTable[kindA][kindB]; fn != nil {
		return fn, false
	}
	if fn := collideTable[kindB][kindA]; fn != nil {
		return fn, true
	}
	return nil, false
}

// Collide computes the manifold between two geometries. ok is false when
// the pair has no routine. When swapped is true the manifold describes
// (b, a) instead of (a, b).
func Collide(a Geometry, xfA Transform, b Geometry, xfB Transform) (m Manifold, swapped, ok bool) {
	fn, swap := lookupCollide(a.Kind(), b.Kind())
	if fn == nil {
		return m, false, false
	}
	if swap {
		fn(&m, b, xfB, a, xfA)
	} else {
		fn(&m, a, xfA, b, xfB)
	}
	return m, swap, true
}
