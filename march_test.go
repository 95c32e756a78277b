package b2

import (
	"testing"
)

func diskField(r float32) MarchSampleFunc {
	return func(p Vector) float32 {
		return 1 + r - p.Length()
	}
}

func TestMarchTerrainDisk(t *testing.T) {
	const r = 1.05
	bounds := NewBB(-2, -2, 2, 2)
	defs := MarchTerrain(bounds, 33, 33, 1, 0, diskField(r))
	if len(defs) != 1 {
		t.Fatalf("Expected one contour, got %d", len(defs))
	}
	def := defs[0]
	if !def.Loop {
		t.Fatalf("disk contour is not a loop")
	}
	for _, p := range def.Points {
		if d := p.Length(); !near(d, r, 0.02) {
			t.Errorf("contour point %v is %v from the center", p, d)
		}
	}
	// solid on the left: counter-clockwise
	if a := signedArea(def.Points); a <= 0 || !near(a, 3.14159*r*r, 0.1) {
		t.Errorf("signed area %v", a)
	}

	simple := MarchTerrain(bounds, 33, 33, 1, 0.05, diskField(r))
	if len(simple) != 1 {
		t.Fatalf("Expected one simplified contour, got %d", len(simple))
	}
	if n := len(simple[0].Points); n >= len(def.Points) || n < 6 {
		t.Errorf("simplified from %d to %d points", len(def.Points), n)
	}

	// nothing above the threshold, nothing traced
	if defs := MarchTerrain(bounds, 9, 9, 10, 0, diskField(r)); len(defs) != 0 {
		t.Errorf("empty field traced %d contours", len(defs))
	}
}

func TestMarchTerrainCollides(t *testing.T) {
	const r = 1.05
	w := newTestWorld(t, DefaultWorldDef())
	ground, _ := w.CreateBody(DefaultBodyDef())
	for _, def := range MarchTerrain(NewBB(-2, -2, 2, 2), 33, 33, 1, 0.02, diskField(r)) {
		if _, err := w.CreateChain(ground, def); err != nil {
			t.Fatal(err)
		}
	}

	ball := addBall(t, w, V(0.1, 3), Vector{}, 0.25, 0)
	for i := 0; i < 90; i++ {
		w.Step(testDt, 0, 0)
		if d := ball.Position().Length(); d < r+0.25-0.05 {
			t.Fatalf("step %d: ball sank into the terrain, %v from the center", i, d)
		}
	}
	if ball.Position().Y > 2.9 {
		t.Errorf("ball did not fall")
	}
}

func TestPolyLineSet(t *testing.T) {
	var set PolyLineSet
	set.CollectSegment(V(0, 0), V(1, 0))
	set.CollectSegment(V(2, 0), V(3, 0))
	if len(set.Lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(set.Lines))
	}

	// bridges the two
	set.CollectSegment(V(1, 0), V(2, 0))
	if len(set.Lines) != 1 || len(set.Lines[0].Verts) != 4 {
		t.Fatalf("join failed: %v", set.Lines)
	}
	if set.Lines[0].IsClosed() {
		t.Errorf("open line reports closed")
	}

	set.CollectSegment(V(3, 0), V(3, 1))
	set.CollectSegment(V(3, 1), V(0, 0))
	line := set.Lines[0]
	if !line.IsClosed() || len(line.Verts) != 6 {
		t.Fatalf("loop not closed: %v", line.Verts)
	}
	def := line.ChainDef()
	if !def.Loop || len(def.Points) != 5 {
		t.Errorf("ChainDef got loop %v with %d points", def.Loop, len(def.Points))
	}

	// prepend
	set.CollectSegment(V(5, 5), V(6, 6))
	set.CollectSegment(V(4, 4), V(5, 5))
	if len(set.Lines) != 2 || !set.Lines[1].Verts[0].Equal(V(4, 4)) || len(set.Lines[1].Verts) != 3 {
		t.Errorf("Enqueue failed: %v", set.Lines[1].Verts)
	}
}

func TestSimplifyCurves(t *testing.T) {
	line := &PolyLine{}
	for i := 0; i <= 10; i++ {
		line.Push(V(float32(i), 0.001*float32(i%2)))
	}
	reduced := line.SimplifyCurves(0.01)
	if len(reduced.Verts) != 2 {
		t.Errorf("nearly straight line kept %v", reduced.Verts)
	}
	if !reduced.Verts[0].Equal(V(0, 0)) || !reduced.Verts[1].Equal(V(10, 0)) {
		t.Errorf("end points moved: %v", reduced.Verts)
	}

	corner := &PolyLine{Verts: []Vector{{0, 0}, {1, 0}, {2, 0}, {2, 1}, {2, 2}}}
	if got := corner.SimplifyCurves(0.01).Verts; len(got) != 3 || !got[1].Equal(V(2, 0)) {
		t.Errorf("corner got %v", got)
	}
}
