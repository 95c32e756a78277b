package b2

import (
	"testing"
)

type recordingDrawer struct {
	flags uint

	polygons, solidPolygons, circles, solidCircles int
	segments, transforms, points                   int
	outlines                                       []FColor
}

func (d *recordingDrawer) DrawPolygon(verts []Vector, color FColor) {
	d.polygons++
}

func (d *recordingDrawer) DrawSolidPolygon(verts []Vector, radius float32, outline, fill FColor) {
	d.solidPolygons++
	d.outlines = append(d.outlines, outline)
}

func (d *recordingDrawer) DrawCircle(center Vector, radius float32, color FColor) {
	d.circles++
}

func (d *recordingDrawer) DrawSolidCircle(center Vector, radius float32, axis Vector, outline, fill FColor) {
	d.solidCircles++
	d.outlines = append(d.outlines, outline)
}

func (d *recordingDrawer) DrawSegment(a, b Vector, color FColor) {
	d.segments++
}

func (d *recordingDrawer) DrawTransform(xf Transform) {
	d.transforms++
}

func (d *recordingDrawer) DrawPoint(p Vector, size float32, color FColor) {
	d.points++
}

func (d *recordingDrawer) Flags() uint {
	return d.flags
}

func TestDebugDraw(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground := addGround(t, w)
	box := addBox(t, w, BODY_DYNAMIC, V(0, 0.5), 0.5)
	ball := addBall(t, w, V(3, 0.25), Vector{}, 0.25, 0)
	w.CreateShape(ground, DefaultShapeDef(NewEdge(V(-5, 5), V(5, 5))))

	def := NewRevoluteJointDef(box, ball, V(1.5, 0.5))
	if _, err := w.CreateJoint(&def); err != nil {
		t.Fatal(err)
	}
	w.Step(testDt, 0, 0)

	d := &recordingDrawer{}
	w.DebugDraw(d)
	if d.polygons+d.solidPolygons+d.circles+d.solidCircles+d.segments+d.transforms+d.points != 0 {
		t.Errorf("no flags still drew: %+v", d)
	}

	d = &recordingDrawer{flags: DRAW_SHAPES}
	w.DebugDraw(d)
	if d.solidPolygons != 2 || d.solidCircles != 1 || d.segments != 1 || d.points != 2 {
		t.Errorf("shapes: %+v", d)
	}
	if d.outlines[0] != colorStatic {
		t.Errorf("ground drawn in %v", d.outlines[0])
	}

	d = &recordingDrawer{flags: DRAW_JOINTS}
	w.DebugDraw(d)
	if d.segments != 3 {
		t.Errorf("revolute joint drew %d segments", d.segments)
	}

	d = &recordingDrawer{flags: DRAW_AABBS | DRAW_CENTER_OF_MASS}
	w.DebugDraw(d)
	if d.polygons != w.ShapeCount() || d.transforms != w.BodyCount() {
		t.Errorf("aabbs %d of %d, transforms %d of %d", d.polygons, w.ShapeCount(), d.transforms, w.BodyCount())
	}

	d = &recordingDrawer{flags: DRAW_CONTACTS}
	w.DebugDraw(d)
	if d.points == 0 || d.points != d.segments {
		t.Errorf("contacts drew %d points and %d normals", d.points, d.segments)
	}

	box.SetAwake(false)
	d = &recordingDrawer{flags: DRAW_SHAPES}
	w.DebugDraw(d)
	if d.outlines[1] != colorAsleep {
		t.Errorf("sleeping box drawn in %v", d.outlines[1])
	}
}
