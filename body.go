package b2

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type BodyType int

const (
	// BODY_STATIC bodies have zero mass and zero velocity and never move
	// unless moved by hand.
	BODY_STATIC BodyType = iota
	// BODY_KINEMATIC bodies move by their velocity and ignore forces and contacts.
	BODY_KINEMATIC
	BODY_DYNAMIC
)

func (t BodyType) String() string {
	switch t {
	case BODY_STATIC:
		return "static"
	case BODY_KINEMATIC:
		return "kinematic"
	case BODY_DYNAMIC:
		return "dynamic"
	}
	return "unknown"
}

type BodyState int

const (
	BODY_AWAKE BodyState = iota
	// BODY_SOLVING is reported for members of the island being solved.
	BODY_SOLVING
	BODY_ASLEEP
	// BODY_FIXED covers static and kinematic bodies, which are never part
	// of an island.
	BODY_FIXED
)

func (s BodyState) String() string {
	switch s {
	case BODY_AWAKE:
		return "awake"
	case BODY_SOLVING:
		return "solving"
	case BODY_ASLEEP:
		return "asleep"
	case BODY_FIXED:
		return "fixed"
	}
	return "unknown"
}

type BodyDef struct {
	Type            BodyType `yaml:"type"`
	Position        Vector   `yaml:"position"`
	Angle           float32  `yaml:"angle"`
	LinearVelocity  Vector   `yaml:"linearVelocity"`
	AngularVelocity float32  `yaml:"angularVelocity"`
	LinearDamping   float32  `yaml:"linearDamping"`
	AngularDamping  float32  `yaml:"angularDamping"`
	GravityScale    float32  `yaml:"gravityScale"`
	AllowSleep      bool     `yaml:"allowSleep"`
	Awake           bool     `yaml:"awake"`
	FixedRotation   bool     `yaml:"fixedRotation"`
	// Bullet bodies are swept against dynamic bodies too, not only static ones.
	Bullet   bool        `yaml:"bullet"`
	UserData interface{} `yaml:"-"`
}

func DefaultBodyDef() BodyDef {
	return BodyDef{
		Type:         BODY_STATIC,
		GravityScale: 1,
		AllowSleep:   true,
		Awake:        true,
	}
}

func (def *BodyDef) validate() error {
	if def.Type < BODY_STATIC || def.Type > BODY_DYNAMIC {
		return errors.Wrapf(ErrInvalidBody, "unknown body type %d", def.Type)
	}
	if !def.Position.IsValid() || !IsValid(def.Angle) {
		return errors.Wrapf(ErrInvalidBody, "non-finite pose %v %v", def.Position, def.Angle)
	}
	if !def.LinearVelocity.IsValid() || !IsValid(def.AngularVelocity) {
		return errors.Wrap(ErrInvalidBody, "non-finite velocity")
	}
	if !IsValid(def.LinearDamping) || def.LinearDamping < 0 || !IsValid(def.AngularDamping) || def.AngularDamping < 0 {
		return errors.Wrap(ErrInvalidBody, "damping must be finite and non-negative")
	}
	if !IsValid(def.GravityScale) {
		return errors.Wrap(ErrInvalidBody, "non-finite gravity scale")
	}
	return nil
}

// rigidBody is the world's record for a body.
type rigidBody struct {
	typ BodyType

	xf    Transform
	sweep Sweep

	linearVelocity  Vector
	angularVelocity float32

	force  Vector
	torque float32

	mass, invMass float32
	// inertia about the center of mass
	inertia, invI float32

	linearDamping  float32
	angularDamping float32
	gravityScale   float32

	sleepTime float32

	awake         bool
	allowSleep    bool
	bullet        bool
	fixedRotation bool
	frozen        bool
	pendingKill   bool

	// island bookkeeping, rebuilt every step
	islandFlag  bool
	solving     bool
	islandStamp int32
	islandLocal int32

	shapes []int32
	joints []int32
	// head of the intrusive contact edge list, see contactEdgeKey
	contactList int32

	// extents from the center of mass, for continuous collision
	minExtent, maxExtent float32

	userData interface{}
}

// resetMassData recomputes mass, inertia and center of mass from the
// attached shapes. Static and kinematic bodies have zero mass.
func (b *rigidBody) resetMassData(w *World) {
	b.mass, b.invMass = 0, 0
	b.inertia, b.invI = 0, 0
	b.sweep.LocalCenter = Vector{}
	b.minExtent, b.maxExtent = maxFloat, 0

	if b.typ != BODY_DYNAMIC {
		b.sweep.C0 = b.xf.P
		b.sweep.C = b.xf.P
		b.sweep.A0 = b.sweep.A
		b.computeExtents(w)
		return
	}

	var localCenter Vector
	var rotationalInertia float32
	for _, si := range b.shapes {
		f := w.shapes.at(si)
		if f.density == 0 {
			continue
		}
		md := f.geom.ComputeMass(f.density)
		b.mass += md.Mass
		localCenter = localCenter.Add(md.Center.Mult(md.Mass))
		rotationalInertia += md.I
	}

	if b.mass > 0 {
		b.invMass = 1 / b.mass
		localCenter = localCenter.Mult(b.invMass)
	} else {
		// a dynamic body always has mass
		b.mass = 1
		b.invMass = 1
	}

	if rotationalInertia > 0 && !b.fixedRotation {
		// about the center of mass
		b.inertia = rotationalInertia - b.mass*localCenter.Dot(localCenter)
		assert(b.inertia > 0, "non-positive rotational inertia")
		b.invI = 1 / b.inertia
	}

	oldCenter := b.sweep.C
	b.sweep.LocalCenter = localCenter
	b.sweep.C = b.xf.Point(localCenter)
	b.sweep.C0 = b.sweep.C

	// keep the velocity of the old center of mass
	b.linearVelocity = b.linearVelocity.Add(CrossSV(b.angularVelocity, b.sweep.C.Sub(oldCenter)))

	b.computeExtents(w)
}

func (b *rigidBody) computeExtents(w *World) {
	b.minExtent, b.maxExtent = maxFloat, 0
	for _, si := range b.shapes {
		lo, hi := shapeExtent(w.shapes.at(si).geom, b.sweep.LocalCenter)
		b.minExtent = min(b.minExtent, lo)
		b.maxExtent = max(b.maxExtent, hi)
	}
	if len(b.shapes) == 0 {
		b.minExtent = 0
	}
}

// shapeExtent returns the distance from localCenter to the closest face and
// to the farthest point of the shape.
func shapeExtent(g Geometry, localCenter Vector) (float32, float32) {
	switch s := g.(type) {
	case *Circle:
		return s.Radius, s.Center.Distance(localCenter) + s.Radius
	case *Polygon:
		minExtent := maxFloat
		var maxExtentSq float32
		for i := 0; i < s.Count; i++ {
			v := s.Vertices[i]
			minExtent = min(minExtent, s.Normals[i].Dot(v.Sub(s.Centroid)))
			maxExtentSq = max(maxExtentSq, v.DistanceSq(localCenter))
		}
		return minExtent + s.Radius, math32.Sqrt(maxExtentSq) + s.Radius
	case *Edge:
		return POLYGON_RADIUS, max(s.V1.Distance(localCenter), s.V2.Distance(localCenter)) + POLYGON_RADIUS
	}
	return 0, 0
}

func (b *rigidBody) synchronizeTransform() {
	b.xf.Q = NewRot(b.sweep.A)
	b.xf.P = b.sweep.C.Sub(b.xf.Q.Rotate(b.sweep.LocalCenter))
}

// setAwake wakes or sleeps the body. Static bodies never wake and kinematic
// bodies never sleep.
func (b *rigidBody) setAwake(flag bool) {
	if b.typ == BODY_STATIC || (b.typ == BODY_KINEMATIC && !flag) {
		return
	}
	if flag {
		if !b.awake {
			b.awake = true
			b.sleepTime = 0
		}
		return
	}
	b.awake = false
	b.sleepTime = 0
	b.linearVelocity = Vector{}
	b.angularVelocity = 0
	b.force = Vector{}
	b.torque = 0
}

// solverMass is the inverse mass seen by constraints. Frozen bodies act
// as if they were static.
func (b *rigidBody) solverMass() (invMass, invI float32) {
	if b.frozen {
		return 0, 0
	}
	return b.invMass, b.invI
}

// propagates reports whether the island search may continue through b.
func (b *rigidBody) propagates() bool {
	return b.typ == BODY_DYNAMIC && !b.frozen
}

func (b *rigidBody) isMoving() bool {
	return b.linearVelocity.LengthSq() > 0 || b.angularVelocity != 0
}

// Body is a handle to a rigid body owned by a World.
type Body struct {
	world *World
	index int32
	gen   uint32
}

func (body Body) String() string {
	return fmt.Sprintf("Body{%d:%d}", body.index, body.gen)
}

func (body Body) body() *rigidBody {
	assert(body.world != nil, "nil body handle")
	return body.world.bodies.get(body.index, body.gen)
}

func (body Body) Valid() bool {
	return body.world != nil && body.world.bodies.valid(body.index, body.gen)
}

func (body Body) World() *World {
	return body.world
}

func (body Body) Type() BodyType {
	return body.body().typ
}

// SetType changes the body type, moving its proxies to the matching tree and
// dropping its contacts.
func (body Body) SetType(t BodyType) {
	w := body.world
	assert(!w.IsLocked(), "SetType while the world is locked")
	b := body.body()
	if b.typ == t {
		return
	}
	b.typ = t
	b.resetMassData(w)

	if t == BODY_STATIC {
		b.linearVelocity = Vector{}
		b.angularVelocity = 0
		b.sweep.A0 = b.sweep.A
		b.sweep.C0 = b.sweep.C
		b.awake = false
		b.sleepTime = 0
	} else {
		b.setAwake(true)
	}
	b.force = Vector{}
	b.torque = 0

	w.destroyBodyContacts(body.index)

	for _, si := range b.shapes {
		f := w.shapes.at(si)
		w.broadPhase.DestroyProxy(f.proxyKey)
		key, err := w.broadPhase.CreateProxy(f.aabb, t == BODY_STATIC, si)
		assert(err == nil, err)
		f.proxyKey = key
		f.fatAABB = w.broadPhase.FatBB(key)
	}
}

// Position is the world position of the body origin.
func (body Body) Position() Vector {
	return body.body().xf.P
}

func (body Body) Angle() float32 {
	return body.body().sweep.A
}

func (body Body) Transform() Transform {
	return body.body().xf
}

func (body Body) WorldCenter() Vector {
	return body.body().sweep.C
}

func (body Body) LocalCenter() Vector {
	return body.body().sweep.LocalCenter
}

// SetTransform teleports the body and wakes it. Contacts are updated on the
// next step.
func (body Body) SetTransform(position Vector, angle float32) {
	w := body.world
	assert(!w.IsLocked(), "SetTransform while the world is locked")
	assert(position.IsValid() && IsValid(angle), "non-finite transform")
	b := body.body()

	b.xf = NewTransform(position, angle)
	b.sweep.C = b.xf.Point(b.sweep.LocalCenter)
	b.sweep.A = angle
	b.sweep.C0 = b.sweep.C
	b.sweep.A0 = angle
	b.frozen = false

	for _, si := range b.shapes {
		w.synchronizeShape(si, b.xf, b.xf)
	}
	b.setAwake(true)
}

func (body Body) LinearVelocity() Vector {
	return body.body().linearVelocity
}

func (body Body) SetLinearVelocity(v Vector) {
	b := body.body()
	if b.typ == BODY_STATIC {
		return
	}
	if v.LengthSq() > 0 {
		b.setAwake(true)
	}
	b.linearVelocity = v
}

func (body Body) AngularVelocity() float32 {
	return body.body().angularVelocity
}

func (body Body) SetAngularVelocity(w float32) {
	b := body.body()
	if b.typ == BODY_STATIC {
		return
	}
	if w*w > 0 {
		b.setAwake(true)
	}
	b.angularVelocity = w
}

// GetLinearVelocityFromWorldPoint is the velocity of a world point attached
// to the body.
func (body Body) GetLinearVelocityFromWorldPoint(p Vector) Vector {
	b := body.body()
	return b.linearVelocity.Add(CrossSV(b.angularVelocity, p.Sub(b.sweep.C)))
}

func (body Body) GetLinearVelocityFromLocalPoint(p Vector) Vector {
	return body.GetLinearVelocityFromWorldPoint(body.GetWorldPoint(p))
}

// ApplyForce applies a force at a world point. Forces on a sleeping body are
// dropped unless wake is set.
func (body Body) ApplyForce(force, point Vector, wake bool) {
	b := body.body()
	if b.typ != BODY_DYNAMIC {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if b.awake {
		b.force = b.force.Add(force)
		b.torque += point.Sub(b.sweep.C).Cross(force)
	}
}

func (body Body) ApplyForceToCenter(force Vector, wake bool) {
	b := body.body()
	if b.typ != BODY_DYNAMIC {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if b.awake {
		b.force = b.force.Add(force)
	}
}

func (body Body) ApplyTorque(torque float32, wake bool) {
	b := body.body()
	if b.typ != BODY_DYNAMIC {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if b.awake {
		b.torque += torque
	}
}

func (body Body) ApplyLinearImpulse(impulse, point Vector, wake bool) {
	b := body.body()
	if b.typ != BODY_DYNAMIC {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if b.awake {
		b.linearVelocity = b.linearVelocity.Add(impulse.Mult(b.invMass))
		b.angularVelocity += b.invI * point.Sub(b.sweep.C).Cross(impulse)
	}
}

func (body Body) ApplyLinearImpulseToCenter(impulse Vector, wake bool) {
	b := body.body()
	if b.typ != BODY_DYNAMIC {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if b.awake {
		b.linearVelocity = b.linearVelocity.Add(impulse.Mult(b.invMass))
	}
}

func (body Body) ApplyAngularImpulse(impulse float32, wake bool) {
	b := body.body()
	if b.typ != BODY_DYNAMIC {
		return
	}
	if wake && !b.awake {
		b.setAwake(true)
	}
	if b.awake {
		b.angularVelocity += b.invI * impulse
	}
}

func (body Body) Mass() float32 {
	return body.body().mass
}

// Inertia is the rotational inertia about the body origin.
func (body Body) Inertia() float32 {
	b := body.body()
	return b.inertia + b.mass*b.sweep.LocalCenter.Dot(b.sweep.LocalCenter)
}

func (body Body) MassData() MassData {
	b := body.body()
	return MassData{Mass: b.mass, Center: b.sweep.LocalCenter, I: body.Inertia()}
}

func (body Body) GetWorldPoint(local Vector) Vector {
	return body.body().xf.Point(local)
}

func (body Body) GetWorldVector(local Vector) Vector {
	return body.body().xf.Q.Rotate(local)
}

func (body Body) GetLocalPoint(world Vector) Vector {
	return body.body().xf.InvPoint(world)
}

func (body Body) GetLocalVector(world Vector) Vector {
	return body.body().xf.Q.InvRotate(world)
}

func (body Body) LinearDamping() float32 {
	return body.body().linearDamping
}

func (body Body) SetLinearDamping(damping float32) {
	body.body().linearDamping = damping
}

func (body Body) AngularDamping() float32 {
	return body.body().angularDamping
}

func (body Body) SetAngularDamping(damping float32) {
	body.body().angularDamping = damping
}

func (body Body) GravityScale() float32 {
	return body.body().gravityScale
}

func (body Body) SetGravityScale(scale float32) {
	body.body().gravityScale = scale
}

func (body Body) IsBullet() bool {
	return body.body().bullet
}

func (body Body) SetBullet(flag bool) {
	body.body().bullet = flag
}

func (body Body) IsSleepingAllowed() bool {
	return body.body().allowSleep
}

func (body Body) SetSleepingAllowed(flag bool) {
	b := body.body()
	b.allowSleep = flag
	if !flag {
		b.setAwake(true)
	}
}

func (body Body) IsAwake() bool {
	return body.body().awake
}

// SetAwake wakes or puts the body to sleep. Sleeping clears its velocity
// and forces.
func (body Body) SetAwake(flag bool) {
	body.body().setAwake(flag)
}

func (body Body) State() BodyState {
	b := body.body()
	switch {
	case b.typ != BODY_DYNAMIC:
		return BODY_FIXED
	case b.solving:
		return BODY_SOLVING
	case b.awake:
		return BODY_AWAKE
	}
	return BODY_ASLEEP
}

// IsFrozen reports a body that was stopped after its state became
// non-finite. SetTransform clears it.
func (body Body) IsFrozen() bool {
	return body.body().frozen
}

func (body Body) IsFixedRotation() bool {
	return body.body().fixedRotation
}

func (body Body) SetFixedRotation(flag bool) {
	b := body.body()
	if b.fixedRotation == flag {
		return
	}
	b.fixedRotation = flag
	b.angularVelocity = 0
	b.resetMassData(body.world)
}

// ResetMassData recomputes the mass from the attached shapes.
func (body Body) ResetMassData() {
	body.body().resetMassData(body.world)
}

func (body Body) Shapes() []Shape {
	b := body.body()
	shapes := make([]Shape, 0, len(b.shapes))
	for _, si := range b.shapes {
		shapes = append(shapes, body.world.shapeHandle(si))
	}
	return shapes
}

func (body Body) Joints() []Joint {
	b := body.body()
	joints := make([]Joint, 0, len(b.joints))
	for _, ji := range b.joints {
		joints = append(joints, body.world.jointHandle(ji))
	}
	return joints
}

// EachContact calls f with every contact touching the body.
func (body Body) EachContact(f func(*Contact)) {
	w := body.world
	b := body.body()
	for key := b.contactList; key != nullEdge; {
		c := w.contacts.at(edgeContact(key))
		next := c.edges[edgeSide(key)].next
		f(c)
		key = next
	}
}

func (body Body) UserData() interface{} {
	return body.body().userData
}

func (body Body) SetUserData(data interface{}) {
	body.body().userData = data
}
