package b2

const (
	contactTouching uint32 = 1 << iota
	contactEnabled
	// re-run filtering before the next update
	contactFilter
	contactIsland
	contactSensor
)

// Contact edges are keyed by contact index and side: side 0 lives in the
// list of body A, side 1 in the list of body B.
const nullEdge int32 = -1

func edgeKey(contact int32, side int) int32 {
	return contact<<1 | int32(side)
}

func edgeContact(key int32) int32 {
	return key >> 1
}

func edgeSide(key int32) int {
	return int(key & 1)
}

type contactEdge struct {
	other      int32
	prev, next int32
}

// Contact is a persistent pair of shapes whose fat boxes overlap. A touching
// contact has a manifold with at least one point. Contact pointers handed to
// callbacks are only valid for the duration of the callback.
type Contact struct {
	world *World
	index int32
	flags uint32

	shapeA, shapeB int32
	bodyA, bodyB   int32
	edges          [2]contactEdge

	manifold Manifold
	collide  collideFunc

	friction     float32
	restitution  float32
	tangentSpeed float32

	// island local body indices, set when the island is built
	indexA, indexB int32
}

func (c *Contact) ShapeA() Shape {
	return c.world.shapeHandle(c.shapeA)
}

func (c *Contact) ShapeB() Shape {
	return c.world.shapeHandle(c.shapeB)
}

func (c *Contact) BodyA() Body {
	return c.world.bodyHandle(c.bodyA)
}

func (c *Contact) BodyB() Body {
	return c.world.bodyHandle(c.bodyB)
}

// Manifold is in the local frames of the two bodies. Modify it only from
// PreSolve.
func (c *Contact) Manifold() *Manifold {
	return &c.manifold
}

func (c *Contact) WorldManifold() WorldManifold {
	var wm WorldManifold
	w := c.world
	fA := w.shapes.at(c.shapeA)
	fB := w.shapes.at(c.shapeB)
	bA := w.bodies.at(c.bodyA)
	bB := w.bodies.at(c.bodyB)
	wm.Initialize(&c.manifold, bA.xf, fA.geom.skin(), bB.xf, fB.geom.skin())
	return wm
}

func (c *Contact) IsTouching() bool {
	return c.flags&contactTouching != 0
}

func (c *Contact) IsSensor() bool {
	return c.flags&contactSensor != 0
}

// SetEnabled disables the contact for the current step. It is re-enabled on
// every update, so call it from PreSolve.
func (c *Contact) SetEnabled(flag bool) {
	if flag {
		c.flags |= contactEnabled
	} else {
		c.flags &^= contactEnabled
	}
}

func (c *Contact) IsEnabled() bool {
	return c.flags&contactEnabled != 0
}

func (c *Contact) Friction() float32 {
	return c.friction
}

// SetFriction overrides the mixed friction until the contact is destroyed.
func (c *Contact) SetFriction(friction float32) {
	c.friction = friction
}

func (c *Contact) ResetFriction() {
	c.friction = MixFriction(c.world.shapes.at(c.shapeA).friction, c.world.shapes.at(c.shapeB).friction)
}

func (c *Contact) Restitution() float32 {
	return c.restitution
}

func (c *Contact) SetRestitution(restitution float32) {
	c.restitution = restitution
}

func (c *Contact) ResetRestitution() {
	c.restitution = MixRestitution(c.world.shapes.at(c.shapeA).restitution, c.world.shapes.at(c.shapeB).restitution)
}

// TangentSpeed makes the contact behave like a conveyor belt, in m/s.
func (c *Contact) TangentSpeed() float32 {
	return c.tangentSpeed
}

func (c *Contact) SetTangentSpeed(speed float32) {
	c.tangentSpeed = speed
}

// update recomputes the manifold, carries impulses over to points with
// matching feature ids and reports touching transitions.
func (c *Contact) update(w *World) {
	oldManifold := c.manifold

	c.flags |= contactEnabled

	wasTouching := c.flags&contactTouching != 0
	touching := false

	fA := w.shapes.at(c.shapeA)
	fB := w.shapes.at(c.shapeB)
	bA := w.bodies.at(c.bodyA)
	bB := w.bodies.at(c.bodyB)
	xfA, xfB := bA.xf, bB.xf

	sensor := c.flags&contactSensor != 0
	if sensor {
		touching = TestOverlap(fA.geom, xfA, fB.geom, xfB)
		c.manifold.PointCount = 0
	} else {
		c.collide(&c.manifold, fA.geom, xfA, fB.geom, xfB)
		touching = c.manifold.PointCount > 0

		for i := 0; i < c.manifold.PointCount; i++ {
			mp2 := &c.manifold.Points[i]
			mp2.NormalImpulse = 0
			mp2.TangentImpulse = 0
			if !w.warmStarting {
				continue
			}
			key := mp2.ID.Key()
			for j := 0; j < oldManifold.PointCount; j++ {
				mp1 := &oldManifold.Points[j]
				if mp1.ID.Key() == key {
					mp2.NormalImpulse = mp1.NormalImpulse
					mp2.TangentImpulse = mp1.TangentImpulse
					break
				}
			}
		}

		if touching != wasTouching {
			bA.setAwake(true)
			bB.setAwake(true)
		}
	}

	if touching {
		c.flags |= contactTouching
	} else {
		c.flags &^= contactTouching
	}

	listener := w.listeners.Contact
	if listener == nil {
		return
	}
	if !wasTouching && touching {
		listener.BeginContact(c)
	}
	if wasTouching && !touching {
		listener.EndContact(c)
	}
	if !sensor && touching {
		listener.PreSolve(c, &oldManifold)
	}
}
