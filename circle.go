package b2

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type Circle struct {
	Center Vector
	Radius float32
}

func NewCircle(center Vector, radius float32) *Circle {
	return &Circle{Center: center, Radius: radius}
}

func (c *Circle) Kind() ShapeKind {
	return SHAPE_CIRCLE
}

func (c *Circle) skin() float32 {
	return c.Radius
}

func (c *Circle) clone() Geometry {
	cc := *c
	return &cc
}

func (c *Circle) validate() error {
	if !c.Center.IsValid() || !validRadius(c.Radius) || c.Radius == 0 {
		return errors.Wrapf(ErrInvalidShape, "circle radius %v center %v", c.Radius, c.Center)
	}
	return nil
}

func (c *Circle) ComputeAABB(xf Transform) BB {
	return NewBBForCircle(xf.Point(c.Center), c.Radius)
}

func (c *Circle) ComputeMass(density float32) MassData {
	rr := c.Radius * c.Radius
	mass := density * math32.Pi * rr
	return MassData{
		Mass:   mass,
		Center: c.Center,
		I:      mass * (0.5*rr + c.Center.Dot(c.Center)),
	}
}

func (c *Circle) TestPoint(xf Transform, p Vector) bool {
	center := xf.Point(c.Center)
	return p.DistanceSq(center) <= c.Radius*c.Radius
}

// RayCast solves |p1 + t*d - center| = radius for the smallest t.
func (c *Circle) RayCast(input RayCastInput, xf Transform) RayCastOutput {
	var out RayCastOutput
	position := xf.Point(c.Center)
	s := input.P1.Sub(position)
	b := s.Dot(s) - c.Radius*c.Radius

	r := input.P2.Sub(input.P1)
	cc := s.Dot(r)
	rr := r.Dot(r)
	sigma := cc*cc - rr*b

	if sigma < 0 || rr < epsilon {
		return out
	}

	a := -(cc + math32.Sqrt(sigma))
	if 0 <= a && a <= input.MaxFraction*rr {
		a /= rr
		out.Fraction = a
		out.Normal = s.Add(r.Mult(a)).Normalize()
		out.Hit = true
	}
	return out
}
