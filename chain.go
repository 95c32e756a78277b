package b2

import (
	"github.com/pkg/errors"
)

// ChainDef describes a polyline of one-sided edges. Each link collides on
// the right side looking from one point to the next, so a counter-clockwise
// loop keeps bodies outside and a clockwise loop keeps them inside.
type ChainDef struct {
	Points []Vector
	Loop   bool
	// SimplifyAngle merges vertices that turn by less than this many radians.
	SimplifyAngle float32

	Friction    float32
	Restitution float32
	IsSensor    bool
	Filter      Filter
	UserData    interface{}
}

func DefaultChainDef(points []Vector, loop bool) ChainDef {
	return ChainDef{
		Points:   points,
		Loop:     loop,
		Friction: 0.6,
		Filter:   DefaultFilter,
	}
}

func (def *ChainDef) shapeDef(edge *Edge) ShapeDef {
	return ShapeDef{
		Geometry:    edge,
		Friction:    def.Friction,
		Restitution: def.Restitution,
		IsSensor:    def.IsSensor,
		Filter:      def.Filter,
		UserData:    def.UserData,
	}
}

// edges expands the chain into linked one-sided edges.
func (def *ChainDef) edges() ([]*Edge, error) {
	pts := def.Points
	for i, p := range pts {
		if !p.IsValid() {
			return nil, errors.Wrapf(ErrInvalidShape, "chain point %d is not finite", i)
		}
	}
	if def.SimplifyAngle > 0 {
		pts = simplifyVertices(pts, def.SimplifyAngle, def.Loop)
	}

	n := len(pts)
	if n < 2 || (def.Loop && n < 3) {
		return nil, errors.Wrapf(ErrInvalidShape, "chain needs more points, got %d", n)
	}
	for i := 1; i < n; i++ {
		if pts[i-1].DistanceSq(pts[i]) <= LINEAR_SLOP*LINEAR_SLOP {
			return nil, errors.Wrapf(ErrInvalidShape, "chain points %d and %d are too close", i-1, i)
		}
	}

	if def.Loop {
		if pts[0].DistanceSq(pts[n-1]) <= LINEAR_SLOP*LINEAR_SLOP {
			return nil, errors.Wrap(ErrInvalidShape, "chain loop repeats its first point")
		}
		edges := make([]*Edge, n)
		for i := 0; i < n; i++ {
			edges[i] = NewOneSidedEdge(
				pts[(i+n-1)%n],
				pts[i],
				pts[(i+1)%n],
				pts[(i+2)%n],
			)
		}
		return edges, nil
	}

	edges := make([]*Edge, n-1)
	for i := 0; i < n-1; i++ {
		var v0, v3 Vector
		if i > 0 {
			v0 = pts[i-1]
		} else {
			v0 = pts[0].Mult(2).Sub(pts[1])
		}
		if i+2 < n {
			v3 = pts[i+2]
		} else {
			v3 = pts[n-1].Mult(2).Sub(pts[n-2])
		}
		edges[i] = NewOneSidedEdge(v0, pts[i], pts[i+1], v3)
	}
	return edges, nil
}
