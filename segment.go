package b2

import "github.com/pkg/errors"

// Edge is a line segment from V1 to V2. A one-sided edge collides only on
// its right side (normal points right of V1->V2) and uses the ghost
// vertices V0 and V3 to smooth collisions across neighboring edges.
type Edge struct {
	V0, V1, V2, V3 Vector
	OneSided       bool
}

// NewEdge is a two-sided segment.
func NewEdge(v1, v2 Vector) *Edge {
	return &Edge{V1: v1, V2: v2}
}

// NewOneSidedEdge is a chain link with ghost vertices v0 and v3.
func NewOneSidedEdge(v0, v1, v2, v3 Vector) *Edge {
	return &Edge{V0: v0, V1: v1, V2: v2, V3: v3, OneSided: true}
}

func (e *Edge) Kind() ShapeKind {
	return SHAPE_EDGE
}

func (e *Edge) skin() float32 {
	return POLYGON_RADIUS
}

func (e *Edge) clone() Geometry {
	ee := *e
	return &ee
}

func (e *Edge) validate() error {
	if !e.V1.IsValid() || !e.V2.IsValid() {
		return errors.Wrap(ErrInvalidShape, "edge vertex is not finite")
	}
	if e.OneSided && (!e.V0.IsValid() || !e.V3.IsValid()) {
		return errors.Wrap(ErrInvalidShape, "edge ghost vertex is not finite")
	}
	if e.V1.DistanceSq(e.V2) <= LINEAR_SLOP*LINEAR_SLOP {
		return errors.Wrapf(ErrInvalidShape, "edge shorter than %v", LINEAR_SLOP)
	}
	return nil
}

func (e *Edge) ComputeAABB(xf Transform) BB {
	v1 := xf.Point(e.V1)
	v2 := xf.Point(e.V2)
	lower := v1.Min(v2)
	upper := v1.Max(v2)
	return BB{lower.X, lower.Y, upper.X, upper.Y}.Grow(POLYGON_RADIUS)
}

func (e *Edge) ComputeMass(float32) MassData {
	return MassData{Center: e.V1.Add(e.V2).Mult(0.5)}
}

func (e *Edge) TestPoint(Transform, Vector) bool {
	return false
}

func (e *Edge) RayCast(input RayCastInput, xf Transform) RayCastOutput {
	var out RayCastOutput
	p1 := xf.Q.InvRotate(input.P1.Sub(xf.P))
	p2 := xf.Q.InvRotate(input.P2.Sub(xf.P))
	d := p2.Sub(p1)

	v1, v2 := e.V1, e.V2
	edge := v2.Sub(v1)
	normal := Vector{edge.Y, -edge.X}.Normalize()

	// q = p1 + t * d
	// dot(normal, q - v1) = 0
	numerator := normal.Dot(v1.Sub(p1))
	if e.OneSided && numerator > 0 {
		return out
	}
	denominator := normal.Dot(d)
	if denominator == 0 {
		return out
	}

	t := numerator / denominator
	if t < 0 || input.MaxFraction < t {
		return out
	}

	q := p1.Add(d.Mult(t))
	rr := edge.Dot(edge)
	if rr == 0 {
		return out
	}
	s := q.Sub(v1).Dot(edge) / rr
	if s < 0 || 1 < s {
		return out
	}

	out.Fraction = t
	if numerator > 0 {
		normal = normal.Neg()
	}
	out.Normal = xf.Q.Rotate(normal)
	out.Hit = true
	return out
}
