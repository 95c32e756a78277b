package b2

// Draw flags
const (
	DRAW_SHAPES = 1 << iota
	DRAW_JOINTS
	DRAW_AABBS
	DRAW_CONTACTS
	DRAW_CENTER_OF_MASS
)

// 16 bytes
type FColor struct {
	R, G, B, A float32
}

func (c FColor) alpha(a float32) FColor {
	return FColor{c.R, c.G, c.B, a}
}

// Drawer is the debug draw sink. Coordinates are in world space (meters).
type Drawer interface {
	DrawPolygon(verts []Vector, color FColor)
	DrawSolidPolygon(verts []Vector, radius float32, outline, fill FColor)
	DrawCircle(center Vector, radius float32, color FColor)
	// axis is a unit vector showing the rotation of the circle
	DrawSolidCircle(center Vector, radius float32, axis Vector, outline, fill FColor)
	DrawSegment(a, b Vector, color FColor)
	// DrawTransform draws the x and y axes of a frame.
	DrawTransform(xf Transform)
	DrawPoint(p Vector, size float32, color FColor)

	Flags() uint
}

var (
	colorStatic    = FColor{0.5, 0.9, 0.5, 1}
	colorKinematic = FColor{0.5, 0.5, 0.9, 1}
	colorAsleep    = FColor{0.6, 0.6, 0.6, 1}
	colorAwake     = FColor{0.9, 0.7, 0.7, 1}
	colorFrozen    = FColor{1, 0.2, 0.2, 1}
	colorSensor    = FColor{0.9, 0.9, 0.2, 1}
	colorJoint     = FColor{0.5, 0.8, 0.8, 1}
	colorAABB      = FColor{0.9, 0.3, 0.9, 1}
	colorContact   = FColor{0.9, 0.9, 0.3, 1}
	colorNormal    = FColor{0.4, 0.9, 0.4, 1}
)

func bodyColor(b *rigidBody) FColor {
	switch {
	case b.frozen:
		return colorFrozen
	case b.typ == BODY_STATIC:
		return colorStatic
	case b.typ == BODY_KINEMATIC:
		return colorKinematic
	case !b.awake:
		return colorAsleep
	}
	return colorAwake
}

func (w *World) drawShape(d Drawer, f *fixture, xf Transform, color FColor) {
	if f.sensor {
		color = colorSensor
	}
	fill := color.alpha(0.5)

	switch g := f.geom.(type) {
	case *Circle:
		d.DrawSolidCircle(xf.Point(g.Center), g.Radius, xf.Q.XAxis(), color, fill)
	case *Edge:
		d.DrawSegment(xf.Point(g.V1), xf.Point(g.V2), color)
		if !g.OneSided {
			d.DrawPoint(xf.Point(g.V1), 4, color)
			d.DrawPoint(xf.Point(g.V2), 4, color)
		}
	case *Polygon:
		var verts [MAX_POLYGON_VERTICES]Vector
		for i := 0; i < g.Count; i++ {
			verts[i] = xf.Point(g.Vertices[i])
		}
		d.DrawSolidPolygon(verts[:g.Count], g.Radius, color, fill)
	default:
		panic("Unknown shape type")
	}
}

func (w *World) drawJoint(d Drawer, j *joint) {
	xfA := w.bodies.at(j.bodyA).xf
	xfB := w.bodies.at(j.bodyB).xf
	pA := j.class.AnchorA()
	pB := j.class.AnchorB()

	switch j.kind {
	case JOINT_DISTANCE:
		d.DrawSegment(pA, pB, colorJoint)
	case JOINT_MOUSE:
		d.DrawPoint(pA, 4, colorNormal)
		d.DrawPoint(pB, 4, colorNormal)
		d.DrawSegment(pA, pB, colorJoint.alpha(0.8))
	default:
		d.DrawSegment(xfA.P, pA, colorJoint)
		d.DrawSegment(pA, pB, colorJoint)
		d.DrawSegment(xfB.P, pB, colorJoint)
	}
}

// DebugDraw sends the world to d, filtered by d.Flags().
func (w *World) DebugDraw(d Drawer) {
	flags := d.Flags()

	if flags&DRAW_SHAPES != 0 {
		for bi := range w.bodies.items {
			if !w.bodies.live[bi] {
				continue
			}
			b := &w.bodies.items[bi]
			color := bodyColor(b)
			for _, si := range b.shapes {
				w.drawShape(d, w.shapes.at(si), b.xf, color)
			}
		}
	}

	if flags&DRAW_JOINTS != 0 {
		for ji, j := range w.joints.items {
			if w.joints.live[ji] {
				w.drawJoint(d, j)
			}
		}
	}

	if flags&DRAW_AABBS != 0 {
		for si := range w.shapes.items {
			if !w.shapes.live[si] {
				continue
			}
			bb := w.shapes.items[si].fatAABB
			d.DrawPolygon([]Vector{{bb.L, bb.B}, {bb.R, bb.B}, {bb.R, bb.T}, {bb.L, bb.T}}, colorAABB)
		}
	}

	if flags&DRAW_CONTACTS != 0 {
		w.EachContact(func(c *Contact) {
			if !c.IsTouching() || c.IsSensor() {
				return
			}
			wm := c.WorldManifold()
			for i := 0; i < c.manifold.PointCount; i++ {
				p := wm.Points[i]
				d.DrawPoint(p, 5, colorContact)
				d.DrawSegment(p, p.Add(wm.Normal.Mult(0.3)), colorNormal)
			}
		})
	}

	if flags&DRAW_CENTER_OF_MASS != 0 {
		for bi := range w.bodies.items {
			if !w.bodies.live[bi] {
				continue
			}
			b := &w.bodies.items[bi]
			d.DrawTransform(Transform{P: b.sweep.C, Q: b.xf.Q})
		}
	}
}
