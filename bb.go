package b2

import "github.com/chewxy/math32"

// BB is an axis-aligned bounding box.
type BB struct {
	L, B, R, T float32
}

func NewBB(l, b, r, t float32) BB {
	return BB{l, b, r, t}
}

func NewBBForExtents(c Vector, hw, hh float32) BB {
	return BB{
		L: c.X - hw,
		B: c.Y - hh,
		R: c.X + hw,
		T: c.Y + hh,
	}
}

func NewBBForCircle(p Vector, r float32) BB {
	return NewBBForExtents(p, r, r)
}

func (a BB) Intersects(b BB) bool {
	return a.L <= b.R && b.L <= a.R && a.B <= b.T && b.B <= a.T
}

func (bb BB) Contains(other BB) bool {
	return bb.L <= other.L && bb.R >= other.R && bb.B <= other.B && bb.T >= other.T
}

func (bb BB) ContainsVect(v Vector) bool {
	return bb.L <= v.X && bb.R >= v.X && bb.B <= v.Y && bb.T >= v.Y
}

func (a BB) Merge(b BB) BB {
	return BB{
		math32.Min(a.L, b.L),
		math32.Min(a.B, b.B),
		math32.Max(a.R, b.R),
		math32.Max(a.T, b.T),
	}
}

func (bb BB) Expand(v Vector) BB {
	return BB{
		math32.Min(bb.L, v.X),
		math32.Min(bb.B, v.Y),
		math32.Max(bb.R, v.X),
		math32.Max(bb.T, v.Y),
	}
}

// Grow pads every side by r.
func (bb BB) Grow(r float32) BB {
	return BB{bb.L - r, bb.B - r, bb.R + r, bb.T + r}
}

func (bb BB) Offset(v Vector) BB {
	return BB{bb.L + v.X, bb.B + v.Y, bb.R + v.X, bb.T + v.Y}
}

func (bb BB) Center() Vector {
	return Vector{0.5 * (bb.L + bb.R), 0.5 * (bb.B + bb.T)}
}

// Extents returns the half widths.
func (bb BB) Extents() Vector {
	return Vector{0.5 * (bb.R - bb.L), 0.5 * (bb.T - bb.B)}
}

func (bb BB) Area() float32 {
	return (bb.R - bb.L) * (bb.T - bb.B)
}

// Perimeter is the insertion cost metric of the tree.
func (bb BB) Perimeter() float32 {
	return 2 * ((bb.R - bb.L) + (bb.T - bb.B))
}

func (a BB) MergedPerimeter(b BB) float32 {
	return 2 * ((math32.Max(a.R, b.R) - math32.Min(a.L, b.L)) + (math32.Max(a.T, b.T) - math32.Min(a.B, b.B)))
}

// IsValid is false for inverted boxes and non-finite bounds.
func (bb BB) IsValid() bool {
	if bb.R < bb.L || bb.T < bb.B {
		return false
	}
	return IsValid(bb.L) && IsValid(bb.B) && IsValid(bb.R) && IsValid(bb.T)
}

// IsEmpty reports a box with no extent on either axis.
func (bb BB) IsEmpty() bool {
	return bb.R == bb.L && bb.T == bb.B
}

// SegmentQuery returns the fraction along a->b where the segment enters the
// box, or +Inf if it misses.
func (bb BB) SegmentQuery(a, b Vector) float32 {
	delta := b.Sub(a)
	tmin := -math32.Inf(1)
	tmax := math32.Inf(1)

	if delta.X == 0 {
		if a.X < bb.L || bb.R < a.X {
			return math32.Inf(1)
		}
	} else {
		t1 := (bb.L - a.X) / delta.X
		t2 := (bb.R - a.X) / delta.X
		tmin = math32.Max(tmin, math32.Min(t1, t2))
		tmax = math32.Min(tmax, math32.Max(t1, t2))
	}

	if delta.Y == 0 {
		if a.Y < bb.B || bb.T < a.Y {
			return math32.Inf(1)
		}
	} else {
		t1 := (bb.B - a.Y) / delta.Y
		t2 := (bb.T - a.Y) / delta.Y
		tmin = math32.Max(tmin, math32.Min(t1, t2))
		tmax = math32.Min(tmax, math32.Max(t1, t2))
	}

	if tmin <= tmax && 0 <= tmax && tmin <= 1 {
		return math32.Max(tmin, 0)
	}
	return math32.Inf(1)
}

func (bb BB) IntersectsSegment(a, b Vector) bool {
	return !math32.IsInf(bb.SegmentQuery(a, b), 1)
}

func (bb BB) ClampVect(v Vector) Vector {
	return Vector{Clamp(v.X, bb.L, bb.R), Clamp(v.Y, bb.B, bb.T)}
}

func (a BB) Proximity(b BB) float32 {
	return math32.Abs(a.L+a.R-b.L-b.R) + math32.Abs(a.B+a.T-b.B-b.T)
}
