package b2

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

func TestShapeCircleMass(t *testing.T) {
	circle := NewCircle(V(0, 0), 2)
	md := circle.ComputeMass(1)
	if !near(md.Mass, 4*math32.Pi, 1e-4) {
		t.Errorf("Expected mass 4pi, got %v", md.Mass)
	}
	if !near(md.I, 0.5*md.Mass*4, 1e-4) {
		t.Errorf("Expected I mr^2/2, got %v", md.I)
	}

	// parallel axis
	offset := NewCircle(V(3, 0), 2)
	if md2 := offset.ComputeMass(1); !near(md2.I, md.I+md.Mass*9, 1e-3) || !md2.Center.Equal(V(3, 0)) {
		t.Errorf("offset circle got %+v", md2)
	}
}

func TestShapeBoxMass(t *testing.T) {
	box := MakeBox(1, 1)
	md := box.ComputeMass(2)
	if !near(md.Mass, 8, 1e-5) {
		t.Errorf("Expected mass 8, got %v", md.Mass)
	}
	if !md.Center.Near(Vector{}, 1e-6) {
		t.Errorf("Expected centered box, got %v", md.Center)
	}
	if !near(md.I, 8*(4+4)/12.0, 1e-4) {
		t.Errorf("Expected I 16/3, got %v", md.I)
	}

	shifted := MakeOffsetBox(1, 1, V(2, 0), 0.3)
	md2 := shifted.ComputeMass(2)
	if !md2.Center.Near(V(2, 0), 1e-5) || !near(md2.I, md.I+8*4, 1e-3) {
		t.Errorf("offset box got %+v", md2)
	}
}

func TestMakePolygonErrors(t *testing.T) {
	cases := map[string][]Vector{
		"too few":    {{0, 0}, {1, 0}},
		"too many":   {{0, 0}, {1, 0}, {2, 0.5}, {2.5, 1.5}, {2, 2.5}, {1, 3}, {0, 3}, {-0.5, 2}, {-0.5, 1}},
		"duplicate":  {{0, 0}, {1, 0}, {1, 0.001}, {0, 1}},
		"not convex": {{0, 0}, {2, 0}, {1, 0.5}, {2, 2}, {0, 2}},
		"collinear":  {{0, 0}, {1, 0}, {2, 0}},
		"nan":        {{0, 0}, {1, 0}, {math32.NaN(), 1}},
	}
	for name, pts := range cases {
		if _, err := MakePolygon(pts); !errors.Is(err, ErrInvalidPolygon) {
			t.Errorf("%s: expected ErrInvalidPolygon, got %v", name, err)
		}
	}

	// clockwise input is reordered
	poly, err := MakePolygon([]Vector{{0, 0}, {0, 1}, {1, 1}, {1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	if poly.Count != 4 || signedArea(poly.Vertices[:poly.Count]) <= 0 {
		t.Errorf("expected counter-clockwise square, got %v", poly.Vertices[:poly.Count])
	}
	if !poly.Centroid.Near(V(0.5, 0.5), 1e-6) {
		t.Errorf("centroid got %v", poly.Centroid)
	}
	for i := 0; i < poly.Count; i++ {
		if !near(poly.Normals[i].Length(), 1, 1e-6) {
			t.Errorf("normal %d is not unit: %v", i, poly.Normals[i])
		}
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Vector{{0, 0}, {2, 0}, {1, 1}, {2, 2}, {0, 2}, {1, 0}, {0.5, 1.5}}
	hull := ConvexHull(pts, 0)
	if len(hull) != 4 {
		t.Fatalf("Expected 4 hull points, got %v", hull)
	}
	if signedArea(hull) <= 0 {
		t.Errorf("hull is not counter-clockwise: %v", hull)
	}
	for _, want := range []Vector{{0, 0}, {2, 0}, {2, 2}, {0, 2}} {
		found := false
		for _, v := range hull {
			found = found || v.Equal(want)
		}
		if !found {
			t.Errorf("hull %v misses %v", hull, want)
		}
	}
	if pts[1] != V(2, 0) || pts[5] != V(1, 0) {
		t.Errorf("input was modified: %v", pts)
	}
}

func TestShapeTestPointRayCast(t *testing.T) {
	xf := NewTransform(V(5, 0), math32.Pi/4)
	box := MakeBox(1, 1)
	if !box.TestPoint(xf, V(5, 1.3)) {
		t.Errorf("rotated box should contain (5, 1.3)")
	}
	if box.TestPoint(xf, V(6, 1)) {
		t.Errorf("rotated box should not contain (6, 1)")
	}

	circle := NewCircle(V(0, 0), 1)
	out := circle.RayCast(RayCastInput{P1: V(-5, 0), P2: V(5, 0), MaxFraction: 1}, NewTransformIdentity())
	if !out.Hit || !near(out.Fraction, 0.4, 1e-5) || !out.Normal.Near(V(-1, 0), 1e-5) {
		t.Errorf("circle ray cast got %+v", out)
	}
	if out := circle.RayCast(RayCastInput{P1: V(-5, 0), P2: V(5, 0), MaxFraction: 0.3}, NewTransformIdentity()); out.Hit {
		t.Errorf("ray cast ignored MaxFraction")
	}

	out = box.RayCast(RayCastInput{P1: V(5, 10), P2: V(5, -10), MaxFraction: 1}, NewTransform(V(5, 0), 0))
	if !out.Hit || !near(out.Fraction, 0.45, 1e-5) || !out.Normal.Near(V(0, 1), 1e-5) {
		t.Errorf("box ray cast got %+v", out)
	}

	edge := NewEdge(V(-1, 0), V(1, 0))
	if edge.TestPoint(NewTransformIdentity(), V(0, 0)) {
		t.Errorf("edges contain nothing")
	}
	out = edge.RayCast(RayCastInput{P1: V(0, 1), P2: V(0, -1), MaxFraction: 1}, NewTransformIdentity())
	if !out.Hit || !near(out.Fraction, 0.5, 1e-6) {
		t.Errorf("edge ray cast got %+v", out)
	}
}

func manifoldSeparations(g1 Geometry, xf1 Transform, g2 Geometry, xf2 Transform) (int, []float32) {
	m, swapped, ok := Collide(g1, xf1, g2, xf2)
	if !ok {
		return -1, nil
	}
	var wm WorldManifold
	if swapped {
		wm.Initialize(&m, xf2, g2.skin(), xf1, g1.skin())
	} else {
		wm.Initialize(&m, xf1, g1.skin(), xf2, g2.skin())
	}
	return m.PointCount, wm.Separations[:m.PointCount]
}

func TestCollideRigidMotion(t *testing.T) {
	type pair struct {
		name   string
		a, b   Geometry
		xfA    Transform
		xfB    Transform
		points int
	}
	pairs := []pair{
		{"boxes", MakeBox(1, 1), MakeBox(0.5, 0.5), NewTransform(V(0, 0), 0), NewTransform(V(0.2, 1.4), 0), 2},
		{"circles", NewCircle(V(0, 0), 1), NewCircle(V(0, 0), 0.5), NewTransform(V(0, 0), 0), NewTransform(V(1.4, 0), 0), 1},
		{"box circle", MakeBox(1, 1), NewCircle(V(0, 0), 0.5), NewTransform(V(0, 0), 0), NewTransform(V(0.3, 1.4), 0), 1},
		{"edge box", NewEdge(V(-5, 0), V(5, 0)), MakeBox(0.5, 0.5), NewTransform(V(0, 0), 0), NewTransform(V(0, 0.49), 0), 2},
		{"edge circle", NewEdge(V(-5, 0), V(5, 0)), NewCircle(V(0, 0), 0.5), NewTransform(V(0, 0), 0), NewTransform(V(1, 0.45), 0), 1},
		{"apart", MakeBox(1, 1), MakeBox(1, 1), NewTransform(V(0, 0), 0), NewTransform(V(5, 0), 0), 0},
	}

	motion := NewTransform(V(3, -2), 0.8)
	for _, p := range pairs {
		n1, s1 := manifoldSeparations(p.a, p.xfA, p.b, p.xfB)
		if n1 != p.points {
			t.Errorf("%s: expected %d points, got %d", p.name, p.points, n1)
			continue
		}
		n2, s2 := manifoldSeparations(p.a, motion.Mul(p.xfA), p.b, motion.Mul(p.xfB))
		if n1 != n2 {
			t.Errorf("%s: point count changed under rigid motion: %d vs %d", p.name, n1, n2)
			continue
		}
		for i := range s1 {
			if !near(s1[i], s2[i], 1e-4) {
				t.Errorf("%s: separation %d changed: %v vs %v", p.name, i, s1[i], s2[i])
			}
		}

		// swapping the arguments gives the same patch
		n3, s3 := manifoldSeparations(p.b, p.xfB, p.a, p.xfA)
		if n3 != n1 {
			t.Errorf("%s: swapped point count %d vs %d", p.name, n3, n1)
			continue
		}
		if n1 > 0 && !near(min32(s1), min32(s3), 1e-4) {
			t.Errorf("%s: swapped separation %v vs %v", p.name, s3, s1)
		}
	}
}

func min32(s []float32) float32 {
	m := s[0]
	for _, v := range s[1:] {
		m = math32.Min(m, v)
	}
	return m
}

func TestDistance(t *testing.T) {
	var proxyA, proxyB DistanceProxy
	proxyA.Set(NewCircle(V(0, 0), 1))
	proxyB.Set(MakeBox(1, 1))

	input := DistanceInput{
		ProxyA:     &proxyA,
		ProxyB:     &proxyB,
		TransformA: NewTransform(V(0, 0), 0),
		TransformB: NewTransform(V(5, 0), 0),
		UseRadii:   true,
	}
	var cache SimplexCache
	out := Distance(&input, &cache)
	want := float32(5 - 1 - 1 - POLYGON_RADIUS)
	if !near(out.Distance, want, 1e-4) {
		t.Errorf("Expected distance %v, got %v", want, out.Distance)
	}
	if !out.PointA.Near(V(1, 0), 1e-4) {
		t.Errorf("witness A got %v", out.PointA)
	}

	// warm started call agrees
	if again := Distance(&input, &cache); !near(again.Distance, out.Distance, 1e-6) {
		t.Errorf("cached distance %v vs %v", again.Distance, out.Distance)
	}

	if !TestOverlap(MakeBox(1, 1), NewTransform(V(0, 0), 0), MakeBox(1, 1), NewTransform(V(1.5, 0.5), 0.3)) {
		t.Errorf("overlapping boxes reported apart")
	}
	if TestOverlap(MakeBox(1, 1), NewTransform(V(0, 0), 0), NewCircle(V(0, 0), 1), NewTransform(V(3, 0), 0)) {
		t.Errorf("separate shapes reported overlapping")
	}
}

func TestTimeOfImpact(t *testing.T) {
	var proxyA, proxyB DistanceProxy
	proxyA.Set(MakeBox(1, 1))
	proxyB.Set(MakeBox(0.5, 0.5))

	input := TOIInput{
		ProxyA: &proxyA,
		ProxyB: &proxyB,
		SweepA: Sweep{},
		SweepB: Sweep{C0: V(-10, 0), C: V(10, 0)},
		TMax:   1,
	}
	out := TimeOfImpact(&input)
	if out.State != TOI_TOUCHING {
		t.Fatalf("Expected touching, got %v", out.State)
	}
	// faces meet when the center reaches -1.5, at t = 0.425
	if out.T <= 0.4 || out.T > 0.425 {
		t.Errorf("TOI got %v", out.T)
	}

	input.SweepB = Sweep{C0: V(-10, 5), C: V(10, 5)}
	if out := TimeOfImpact(&input); out.State != TOI_SEPARATED || out.T != 1 {
		t.Errorf("Expected separated at 1, got %v %v", out.State, out.T)
	}

	input.SweepB = Sweep{C0: V(0.5, 0), C: V(0.5, 0)}
	if out := TimeOfImpact(&input); out.State != TOI_OVERLAPPED {
		t.Errorf("Expected overlapped, got %v", out.State)
	}
}

func TestCreateChainErrors(t *testing.T) {
	w, err := NewWorld(DefaultWorldDef())
	if err != nil {
		t.Fatal(err)
	}
	ground, _ := w.CreateBody(DefaultBodyDef())

	bad := []ChainDef{
		DefaultChainDef([]Vector{{0, 0}}, false),
		DefaultChainDef([]Vector{{0, 0}, {1, 0}}, true),
		DefaultChainDef([]Vector{{0, 0}, {0, 0.001}, {1, 0}}, false),
		DefaultChainDef([]Vector{{0, 0}, {1, 0}, {math32.Inf(1), 1}}, false),
		DefaultChainDef([]Vector{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, true),
	}
	for i, def := range bad {
		if _, err := w.CreateChain(ground, def); !errors.Is(err, ErrInvalidShape) {
			t.Errorf("chain %d: expected ErrInvalidShape, got %v", i, err)
		}
	}
	if w.ShapeCount() != 0 {
		t.Errorf("failed chains left %d shapes", w.ShapeCount())
	}

	shapes, err := w.CreateChain(ground, DefaultChainDef([]Vector{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, true))
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 4 || w.ShapeCount() != 4 {
		t.Errorf("loop of 4 made %d shapes", len(shapes))
	}
	e := shapes[0].Geometry().(*Edge)
	if !e.OneSided || !e.V0.Equal(V(0, 4)) || !e.V3.Equal(V(4, 4)) {
		t.Errorf("loop ghosts wrong: %+v", e)
	}

	// collinear points merge
	def := DefaultChainDef([]Vector{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {3, 1}}, false)
	def.SimplifyAngle = 0.01
	shapes, err = w.CreateChain(ground, def)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 2 {
		t.Errorf("simplified chain made %d edges", len(shapes))
	}
}
