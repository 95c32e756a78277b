package b2

import (
	"github.com/pkg/errors"
)

// Polygon is a solid convex polygon with counter-clockwise winding and at
// most MAX_POLYGON_VERTICES vertices. Radius is the collision skin.
type Polygon struct {
	Vertices [MAX_POLYGON_VERTICES]Vector
	Normals  [MAX_POLYGON_VERTICES]Vector
	Count    int
	Centroid Vector
	Radius   float32
}

// MakePolygon builds a convex polygon from points. Degenerate input is an
// error: too few or too many points, points closer than LINEAR_SLOP, or
// points that are not all on the convex hull.
func MakePolygon(points []Vector) (*Polygon, error) {
	n := len(points)
	if n < 3 {
		return nil, errors.Wrapf(ErrInvalidPolygon, "need at least 3 points, got %d", n)
	}
	if n > MAX_POLYGON_VERTICES {
		return nil, errors.Wrapf(ErrInvalidPolygon, "at most %d points, got %d", MAX_POLYGON_VERTICES, n)
	}
	for i, p := range points {
		if !p.IsValid() {
			return nil, errors.Wrapf(ErrInvalidPolygon, "point %d is not finite", i)
		}
		for j := 0; j < i; j++ {
			if p.DistanceSq(points[j]) < LINEAR_SLOP*LINEAR_SLOP {
				return nil, errors.Wrapf(ErrInvalidPolygon, "points %d and %d are closer than %v", j, i, LINEAR_SLOP)
			}
		}
	}

	hull := ConvexHull(points, 0)
	if len(hull) != n {
		return nil, errors.Wrapf(ErrInvalidPolygon, "not convex, hull keeps %d of %d points", len(hull), n)
	}

	poly := &Polygon{Radius: POLYGON_RADIUS}
	poly.set(hull)
	if err := poly.validate(); err != nil {
		return nil, err
	}
	return poly, nil
}

// MakeBox builds a box centered on the body origin from half extents.
func MakeBox(hx, hy float32) *Polygon {
	poly := &Polygon{Radius: POLYGON_RADIUS}
	poly.set([]Vector{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}})
	return poly
}

func MakeSquare(h float32) *Polygon {
	return MakeBox(h, h)
}

// MakeOffsetBox builds a box with half extents, centered at center and
// rotated by angle, in body space.
func MakeOffsetBox(hx, hy float32, center Vector, angle float32) *Polygon {
	poly := MakeBox(hx, hy)
	xf := NewTransform(center, angle)
	for i := 0; i < poly.Count; i++ {
		poly.Vertices[i] = xf.Point(poly.Vertices[i])
		poly.Normals[i] = xf.Q.Rotate(poly.Normals[i])
	}
	poly.Centroid = center
	return poly
}

func (p *Polygon) set(verts []Vector) {
	p.Count = len(verts)
	copy(p.Vertices[:], verts)
	for i := 0; i < p.Count; i++ {
		edge := p.Vertices[(i+1)%p.Count].Sub(p.Vertices[i])
		p.Normals[i] = CrossVS(edge, 1).Normalize()
	}
	p.Centroid = computeCentroid(p.Vertices[:p.Count])
}

func computeCentroid(vs []Vector) Vector {
	var c Vector
	var area float32
	origin := vs[0]
	const inv3 = 1.0 / 3.0
	for i := 1; i < len(vs)-1; i++ {
		e1 := vs[i].Sub(origin)
		e2 := vs[i+1].Sub(origin)
		a := 0.5 * e1.Cross(e2)
		c = c.Add(e1.Add(e2).Mult(a * inv3))
		area += a
	}
	if area <= epsilon {
		return origin
	}
	return c.Mult(1 / area).Add(origin)
}

func (p *Polygon) Kind() ShapeKind {
	return SHAPE_POLYGON
}

func (p *Polygon) skin() float32 {
	return p.Radius
}

func (p *Polygon) clone() Geometry {
	pp := *p
	return &pp
}

func (p *Polygon) validate() error {
	if p.Count < 3 || p.Count > MAX_POLYGON_VERTICES {
		return errors.Wrapf(ErrInvalidPolygon, "vertex count %d", p.Count)
	}
	if !validRadius(p.Radius) {
		return errors.Wrapf(ErrInvalidPolygon, "radius %v", p.Radius)
	}
	for i := 0; i < p.Count; i++ {
		if !p.Vertices[i].IsValid() || !p.Normals[i].IsValid() {
			return errors.Wrapf(ErrInvalidPolygon, "vertex %d is not finite", i)
		}
	}
	for i := 0; i < p.Count; i++ {
		i2 := (i + 1) % p.Count
		v := p.Vertices[i]
		e := p.Vertices[i2].Sub(v)
		if e.LengthSq() < LINEAR_SLOP*LINEAR_SLOP {
			return errors.Wrapf(ErrInvalidPolygon, "edge %d is degenerate", i)
		}
		for j := 0; j < p.Count; j++ {
			if j == i || j == i2 {
				continue
			}
			if e.Cross(p.Vertices[j].Sub(v)) <= 0 {
				return errors.Wrapf(ErrInvalidPolygon, "not convex at vertex %d", j)
			}
		}
	}
	return nil
}

func (p *Polygon) ComputeAABB(xf Transform) BB {
	lower := xf.Point(p.Vertices[0])
	upper := lower
	for i := 1; i < p.Count; i++ {
		v := xf.Point(p.Vertices[i])
		lower = lower.Min(v)
		upper = upper.Max(v)
	}
	return BB{lower.X, lower.Y, upper.X, upper.Y}.Grow(p.Radius)
}

// ComputeMass integrates over triangles fanned from the first vertex, which
// keeps round-off down for polygons far from the origin.
func (p *Polygon) ComputeMass(density float32) MassData {
	var center Vector
	var area, I float32
	s := p.Vertices[0]
	const inv3 = 1.0 / 3.0

	for i := 0; i < p.Count; i++ {
		e1 := p.Vertices[i].Sub(s)
		e2 := p.Vertices[(i+1)%p.Count].Sub(s)
		D := e1.Cross(e2)

		triangleArea := 0.5 * D
		area += triangleArea
		center = center.Add(e1.Add(e2).Mult(triangleArea * inv3))

		intx2 := e1.X*e1.X + e2.X*e1.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e2.Y*e1.Y + e2.Y*e2.Y
		I += (0.25 * inv3 * D) * (intx2 + inty2)
	}

	var md MassData
	md.Mass = density * area
	center = center.Mult(1 / area)
	md.Center = center.Add(s)
	md.I = density * I
	md.I += md.Mass * (md.Center.Dot(md.Center) - center.Dot(center))
	return md
}

func (p *Polygon) TestPoint(xf Transform, point Vector) bool {
	local := xf.InvPoint(point)
	for i := 0; i < p.Count; i++ {
		if p.Normals[i].Dot(local.Sub(p.Vertices[i])) > 0 {
			return false
		}
	}
	return true
}

func (p *Polygon) RayCast(input RayCastInput, xf Transform) RayCastOutput {
	var out RayCastOutput
	p1 := xf.InvPoint(input.P1)
	p2 := xf.InvPoint(input.P2)
	d := p2.Sub(p1)

	var lower float32
	upper := input.MaxFraction
	index := -1

	for i := 0; i < p.Count; i++ {
		numerator := p.Normals[i].Dot(p.Vertices[i].Sub(p1))
		denominator := p.Normals[i].Dot(d)

		if denominator == 0 {
			if numerator < 0 {
				return out
			}
		} else {
			if denominator < 0 && numerator < lower*denominator {
				lower = numerator / denominator
				index = i
			} else if denominator > 0 && numerator < upper*denominator {
				upper = numerator / denominator
			}
		}

		if upper < lower {
			return out
		}
	}

	if index >= 0 {
		out.Fraction = lower
		out.Normal = xf.Q.Rotate(p.Normals[index])
		out.Hit = true
	}
	return out
}
