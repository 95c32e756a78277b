package b2

import (
	"log"
	"slices"

	"github.com/pkg/errors"
)

// WorldDef configures a World. Start from DefaultWorldDef or LoadWorldDef.
type WorldDef struct {
	Gravity Vector `yaml:"gravity"`

	// Used by Step when it is called with non-positive iteration counts.
	VelocityIterations int `yaml:"velocityIterations"`
	PositionIterations int `yaml:"positionIterations"`

	AllowSleep            bool    `yaml:"allowSleep"`
	LinearSleepTolerance  float32 `yaml:"linearSleepTolerance"`
	AngularSleepTolerance float32 `yaml:"angularSleepTolerance"`
	TimeToSleep           float32 `yaml:"timeToSleep"`

	AABBMargin     float32 `yaml:"aabbMargin"`
	AABBMultiplier float32 `yaml:"aabbMultiplier"`

	// RestitutionThreshold is the approach speed below which collisions are
	// inelastic, in m/s.
	RestitutionThreshold float32 `yaml:"restitutionThreshold"`
	WarmStarting         bool    `yaml:"warmStarting"`
	EnableContinuous     bool    `yaml:"enableContinuous"`

	// Workers > 1 solves islands on that many goroutines. Results are the
	// same as with a single worker.
	Workers int `yaml:"workers"`

	Logger    *log.Logger `yaml:"-"`
	Listeners Listeners   `yaml:"-"`
}

func (def *WorldDef) validate() error {
	if !def.Gravity.IsValid() {
		return errors.Wrapf(ErrInvalidWorld, "non-finite gravity %v", def.Gravity)
	}
	if def.VelocityIterations <= 0 || def.PositionIterations < 0 {
		return errors.Wrapf(ErrInvalidWorld, "bad iteration counts %d/%d", def.VelocityIterations, def.PositionIterations)
	}
	for _, v := range []float32{def.LinearSleepTolerance, def.AngularSleepTolerance, def.TimeToSleep,
		def.AABBMargin, def.AABBMultiplier, def.RestitutionThreshold} {
		if !IsValid(v) || v < 0 {
			return errors.Wrapf(ErrInvalidWorld, "tolerances must be finite and non-negative, got %v", v)
		}
	}
	if def.Workers < 0 {
		return errors.Wrapf(ErrInvalidWorld, "negative worker count %d", def.Workers)
	}
	return nil
}

// World owns bodies, shapes, joints and contacts and advances them with Step.
type World struct {
	bodies   pool[rigidBody]
	shapes   pool[fixture]
	joints   pool[*joint]
	contacts pool[Contact]

	pairs      *pairSet
	broadPhase *BroadPhase
	listeners  Listeners
	logger     *log.Logger

	gravity            Vector
	velocityIterations int
	positionIterations int

	allowSleep            bool
	linearSleepTolerance  float32
	angularSleepTolerance float32
	timeToSleep           float32

	restitutionThreshold float32
	warmStarting         bool
	continuous           bool
	workers              int

	// locked is a counter so nested locks are allowed
	locked            int
	postStepCallbacks []postStepCallback

	invDt0    float32
	stepCount int

	islandCounter int32
	islandStack   []int32
	islandCount   int
	// bodies moved by the last solve, in island order
	solved []int32
}

func NewWorld(def WorldDef) (*World, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	logger := def.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &World{
		pairs:                 newPairSet(),
		broadPhase:            NewBroadPhase(def.AABBMargin, def.AABBMultiplier),
		listeners:             def.Listeners,
		logger:                logger,
		gravity:               def.Gravity,
		velocityIterations:    def.VelocityIterations,
		positionIterations:    def.PositionIterations,
		allowSleep:            def.AllowSleep,
		linearSleepTolerance:  def.LinearSleepTolerance,
		angularSleepTolerance: def.AngularSleepTolerance,
		timeToSleep:           def.TimeToSleep,
		restitutionThreshold:  def.RestitutionThreshold,
		warmStarting:          def.WarmStarting,
		continuous:            def.EnableContinuous,
		workers:               def.Workers,
	}, nil
}

func (w *World) IsLocked() bool {
	return w.locked > 0
}

func (w *World) Lock() {
	w.locked++
}

// Unlock releases one level of locking. When the world becomes unlocked
// and runPostStep is set, queued post-step callbacks run.
func (w *World) Unlock(runPostStep bool) {
	w.locked--
	assert(w.locked >= 0, "World lock underflow")

	if w.locked == 0 && runPostStep {
		w.runPostStepCallbacks()
	}
}

func (w *World) bodyHandle(idx int32) Body {
	return Body{world: w, index: idx, gen: w.bodies.gens[idx]}
}

func (w *World) shapeHandle(idx int32) Shape {
	return Shape{world: w, index: idx, gen: w.shapes.gens[idx]}
}

func (w *World) jointHandle(idx int32) Joint {
	return Joint{world: w, index: idx, gen: w.joints.gens[idx]}
}

func (w *World) CreateBody(def BodyDef) (Body, error) {
	assert(!w.IsLocked(), "CreateBody while the world is locked")
	if err := def.validate(); err != nil {
		return Body{}, err
	}

	idx, gen := w.bodies.alloc()
	b := w.bodies.at(idx)
	*b = rigidBody{
		typ:            def.Type,
		xf:             NewTransform(def.Position, def.Angle),
		linearDamping:  def.LinearDamping,
		angularDamping: def.AngularDamping,
		gravityScale:   def.GravityScale,
		allowSleep:     def.AllowSleep,
		bullet:         def.Bullet,
		fixedRotation:  def.FixedRotation,
		contactList:    nullEdge,
		userData:       def.UserData,
	}
	b.sweep = Sweep{C0: def.Position, C: def.Position, A0: def.Angle, A: def.Angle}

	switch def.Type {
	case BODY_DYNAMIC:
		b.awake = def.Awake
		b.linearVelocity = def.LinearVelocity
		b.angularVelocity = def.AngularVelocity
	case BODY_KINEMATIC:
		b.awake = true
		b.linearVelocity = def.LinearVelocity
		b.angularVelocity = def.AngularVelocity
	}

	b.resetMassData(w)
	return Body{world: w, index: idx, gen: gen}, nil
}

// DestroyBody destroys the body with its shapes, joints and contacts. While
// the world is locked the destruction is deferred until it unlocks.
// Destroying a body twice panics.
func (w *World) DestroyBody(body Body) {
	b := body.body()
	assert(!b.pendingKill, "body destroyed twice")
	if w.IsLocked() {
		b.pendingKill = true
		w.AddPostStepCallback(func(w *World, key interface{}) {
			w.destroyBody(key.(Body).index)
		}, body)
		return
	}
	w.destroyBody(body.index)
}

func (w *World) destroyBody(idx int32) {
	b := w.bodies.at(idx)

	for len(b.joints) > 0 {
		ji := b.joints[0]
		if l := w.listeners.Destruction; l != nil {
			l.SayGoodbyeJoint(w.jointHandle(ji))
		}
		w.destroyJoint(ji)
	}

	w.destroyBodyContacts(idx)

	for _, si := range slices.Clone(b.shapes) {
		if !w.shapes.live[si] {
			continue
		}
		if l := w.listeners.Destruction; l != nil {
			l.SayGoodbyeShape(w.shapeHandle(si))
		}
		w.destroyShape(si, false)
	}

	w.bodies.release(idx)
}

// CreateShape attaches a copy of def.Geometry to the body and updates its
// mass.
func (w *World) CreateShape(body Body, def ShapeDef) (Shape, error) {
	assert(!w.IsLocked(), "CreateShape while the world is locked")
	b := body.body()
	if err := def.validate(b.typ); err != nil {
		return Shape{}, err
	}

	geom := def.Geometry.clone()
	aabb := geom.ComputeAABB(b.xf)

	si, gen := w.shapes.alloc()
	key, err := w.broadPhase.CreateProxy(aabb, b.typ == BODY_STATIC, si)
	if err != nil {
		w.shapes.release(si)
		return Shape{}, err
	}

	f := w.shapes.at(si)
	*f = fixture{
		geom:        geom,
		body:        body.index,
		density:     def.Density,
		friction:    def.Friction,
		restitution: def.Restitution,
		sensor:      def.IsSensor,
		filter:      def.Filter,
		userData:    def.UserData,
		aabb:        aabb,
		fatAABB:     w.broadPhase.FatBB(key),
		proxyKey:    key,
	}

	b.shapes = append(b.shapes, si)
	if f.density > 0 {
		b.resetMassData(w)
	} else {
		b.computeExtents(w)
	}
	return Shape{world: w, index: si, gen: gen}, nil
}

// CreateChain attaches the links of a chain as one-sided edges. Either every
// link is created or none is.
func (w *World) CreateChain(body Body, def ChainDef) ([]Shape, error) {
	edges, err := def.edges()
	if err != nil {
		return nil, err
	}
	shapes := make([]Shape, 0, len(edges))
	for _, e := range edges {
		s, err := w.CreateShape(body, def.shapeDef(e))
		if err != nil {
			for _, created := range shapes {
				w.DestroyShape(created)
			}
			return nil, err
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// DestroyShape removes the shape and its contacts and updates the body mass.
// While the world is locked the destruction is deferred.
func (w *World) DestroyShape(shape Shape) {
	f := shape.fixture()
	assert(!f.pendingKill, "shape destroyed twice")
	if w.IsLocked() {
		f.pendingKill = true
		w.AddPostStepCallback(func(w *World, key interface{}) {
			if s := key.(Shape); s.Valid() {
				w.destroyShape(s.index, true)
			}
		}, shape)
		return
	}
	w.destroyShape(shape.index, true)
}

func (w *World) destroyShape(si int32, updateMass bool) {
	f := w.shapes.at(si)
	bi := f.body
	b := w.bodies.at(bi)

	for key := b.contactList; key != nullEdge; {
		c := w.contacts.at(edgeContact(key))
		next := c.edges[edgeSide(key)].next
		if c.shapeA == si || c.shapeB == si {
			w.destroyContact(c.index)
		}
		key = next
	}

	w.broadPhase.DestroyProxy(f.proxyKey)

	b.shapes = slices.DeleteFunc(b.shapes, func(i int32) bool { return i == si })
	w.shapes.release(si)

	if updateMass {
		b.resetMassData(w)
	}
}

// CreateJoint connects two bodies of this world. def is a pointer to one of
// the joint definitions, for example &RevoluteJointDef{...}.
func (w *World) CreateJoint(def JointDef) (Joint, error) {
	assert(!w.IsLocked(), "CreateJoint while the world is locked")
	base := def.jointDef()
	bodyA, bodyB := base.BodyA, base.BodyB
	if bodyA.world != w || bodyB.world != w {
		return Joint{}, errors.Wrap(ErrInvalidJoint, "bodies must belong to this world")
	}
	// stale handles panic here
	bodyA.body()
	bodyB.body()
	if bodyA.index == bodyB.index {
		return Joint{}, errors.Wrapf(ErrInvalidJoint, "%v joined to itself", bodyA)
	}
	if err := def.validate(); err != nil {
		return Joint{}, err
	}

	ji, gen := w.joints.alloc()
	j := &joint{
		kind:             def.kind(),
		world:            w,
		index:            ji,
		bodyA:            bodyA.index,
		bodyB:            bodyB.index,
		collideConnected: base.CollideConnected,
		userData:         base.UserData,
	}
	j.class = def.create(j)
	*w.joints.at(ji) = j

	bA := w.bodies.at(j.bodyA)
	bB := w.bodies.at(j.bodyB)
	bA.joints = append(bA.joints, ji)
	bB.joints = append(bB.joints, ji)

	if !j.collideConnected {
		w.flagBodyContacts(j.bodyA, j.bodyB)
	}
	return Joint{world: w, index: ji, gen: gen}, nil
}

// DestroyJoint removes the joint and wakes both bodies. While the world is
// locked the destruction is deferred.
func (w *World) DestroyJoint(joint Joint) {
	j := joint.joint()
	assert(!j.pendingKill, "joint destroyed twice")
	if w.IsLocked() {
		j.pendingKill = true
		w.AddPostStepCallback(func(w *World, key interface{}) {
			if jt := key.(Joint); jt.Valid() {
				w.destroyJoint(jt.index)
			}
		}, joint)
		return
	}
	w.destroyJoint(joint.index)
}

func (w *World) destroyJoint(ji int32) {
	j := *w.joints.at(ji)
	bA := w.bodies.at(j.bodyA)
	bB := w.bodies.at(j.bodyB)

	bA.setAwake(true)
	bB.setAwake(true)

	remove := func(i int32) bool { return i == ji }
	bA.joints = slices.DeleteFunc(bA.joints, remove)
	bB.joints = slices.DeleteFunc(bB.joints, remove)

	// the bodies may collide now, have the broad phase report them again
	if !j.collideConnected {
		for _, si := range bB.shapes {
			w.broadPhase.TouchProxy(w.shapes.at(si).proxyKey)
		}
	}

	w.joints.release(ji)
}

// synchronizeShape moves the proxy of a shape to cover its motion from xf1
// to xf2.
func (w *World) synchronizeShape(si int32, xf1, xf2 Transform) {
	f := w.shapes.at(si)
	box1 := f.geom.ComputeAABB(xf1)
	f.aabb = f.geom.ComputeAABB(xf2)
	displacement := f.aabb.Center().Sub(box1.Center())
	w.broadPhase.MoveProxy(f.proxyKey, box1.Merge(f.aabb), displacement)
	f.fatAABB = w.broadPhase.FatBB(f.proxyKey)
}

func (w *World) synchronizeBroadPhase() {
	for _, bi := range w.solved {
		b := w.bodies.at(bi)
		xf1 := b.sweep.Transform(0)
		for _, si := range b.shapes {
			w.synchronizeShape(si, xf1, b.xf)
		}
	}
}

// Step advances the world by dt seconds. Non-positive iteration counts use
// the WorldDef defaults. A zero dt only updates contacts.
func (w *World) Step(dt float32, velocityIterations, positionIterations int) {
	assert(!w.IsLocked(), "Step while the world is locked")
	assert(IsValid(dt) && dt >= 0, "invalid time step ", dt)

	if velocityIterations <= 0 {
		velocityIterations = w.velocityIterations
	}
	if positionIterations <= 0 {
		positionIterations = w.positionIterations
	}

	step := timeStep{
		dt:                 dt,
		velocityIterations: velocityIterations,
		positionIterations: positionIterations,
		warmStarting:       w.warmStarting,
	}
	if dt > 0 {
		step.invDt = 1 / dt
	}
	step.dtRatio = w.invDt0 * dt

	w.Lock()
	{
		w.updatePairs()
		w.collide()
	}
	// destroys requested by contact callbacks happen before solving
	w.Unlock(true)

	w.Lock()
	{
		w.solved = w.solved[:0]
		if dt > 0 {
			w.solve(step)
			w.synchronizeBroadPhase()
			if w.continuous {
				w.solveContinuous()
			}
			w.invDt0 = step.invDt
		}
		w.ClearForces()
	}
	w.Unlock(true)

	w.stepCount++
}

// ClearForces zeroes accumulated forces and torques. Step calls it at the
// end of every step.
func (w *World) ClearForces() {
	for bi := range w.bodies.items {
		b := &w.bodies.items[bi]
		b.force = Vector{}
		b.torque = 0
	}
}

// QueryAABB calls f for every shape whose box overlaps bb until f returns
// false.
func (w *World) QueryAABB(bb BB, f func(Shape) bool) {
	w.broadPhase.Query(bb, func(key int32) bool {
		si := w.broadPhase.UserData(key)
		if !w.shapes.at(si).aabb.Intersects(bb) {
			return true
		}
		return f(w.shapeHandle(si))
	})
}

// RayCastFunc is called for each shape hit by a ray. Return -1 to ignore
// the shape, 0 to stop, fraction to clip the ray to this hit or 1 to keep
// going.
type RayCastFunc func(shape Shape, point, normal Vector, fraction float32) float32

// RayCast reports the shapes hit by the segment from p1 to p2. Hits are not
// ordered.
func (w *World) RayCast(p1, p2 Vector, fn RayCastFunc) {
	input := RayCastInput{P1: p1, P2: p2, MaxFraction: 1}
	w.broadPhase.RayCast(input, func(sub RayCastInput, key int32) float32 {
		si := w.broadPhase.UserData(key)
		f := w.shapes.at(si)
		out := f.geom.RayCast(sub, w.bodies.at(f.body).xf)
		if !out.Hit {
			return sub.MaxFraction
		}
		point := p1.Lerp(p2, out.Fraction)
		return fn(w.shapeHandle(si), point, out.Normal, out.Fraction)
	})
}

type RayHit struct {
	Shape    Shape
	Point    Vector
	Normal   Vector
	Fraction float32
}

// RayCastClosest returns the first shape along the ray, sensors excluded.
func (w *World) RayCastClosest(p1, p2 Vector) (RayHit, bool) {
	var hit RayHit
	found := false
	w.RayCast(p1, p2, func(shape Shape, point, normal Vector, fraction float32) float32 {
		if shape.IsSensor() {
			return -1
		}
		hit = RayHit{Shape: shape, Point: point, Normal: normal, Fraction: fraction}
		found = true
		return fraction
	})
	return hit, found
}

func (w *World) Gravity() Vector {
	return w.gravity
}

func (w *World) SetGravity(gravity Vector) {
	w.gravity = gravity
}

// SetAllowSleep turns sleeping on or off. Turning it off wakes every body.
func (w *World) SetAllowSleep(flag bool) {
	if flag == w.allowSleep {
		return
	}
	w.allowSleep = flag
	if !flag {
		for bi := range w.bodies.items {
			if w.bodies.live[bi] {
				w.bodies.items[bi].setAwake(true)
			}
		}
	}
}

func (w *World) SetWarmStarting(flag bool) {
	w.warmStarting = flag
}

func (w *World) SetContinuous(flag bool) {
	w.continuous = flag
}

func (w *World) BodyCount() int {
	return w.bodies.count
}

func (w *World) ShapeCount() int {
	return w.shapes.count
}

func (w *World) JointCount() int {
	return w.joints.count
}

func (w *World) ContactCount() int {
	return w.contacts.count
}

func (w *World) StepCount() int {
	return w.stepCount
}

// EachBody calls f with every body in creation slot order.
func (w *World) EachBody(f func(Body)) {
	for bi := range w.bodies.items {
		if w.bodies.live[bi] {
			f(w.bodyHandle(int32(bi)))
		}
	}
}

func (w *World) EachJoint(f func(Joint)) {
	for ji := range w.joints.items {
		if w.joints.live[ji] {
			f(w.jointHandle(int32(ji)))
		}
	}
}

func (w *World) EachContact(f func(*Contact)) {
	for ci := range w.contacts.items {
		if w.contacts.live[ci] {
			f(&w.contacts.items[ci])
		}
	}
}

// Stats is a snapshot of world sizes for profiling.
type Stats struct {
	Bodies, AwakeBodies int
	Shapes, Joints      int
	Contacts, Touching  int
	Islands             int
	Proxies             int
	TreeHeight          int
	TreeAreaRatio       float32
}

func (w *World) Stats() Stats {
	s := Stats{
		Bodies:        w.bodies.count,
		Shapes:        w.shapes.count,
		Joints:        w.joints.count,
		Contacts:      w.contacts.count,
		Islands:       w.islandCount,
		Proxies:       w.broadPhase.ProxyCount(),
		TreeHeight:    w.broadPhase.Tree(false).Height(),
		TreeAreaRatio: w.broadPhase.Tree(false).AreaRatio(),
	}
	for bi := range w.bodies.items {
		b := &w.bodies.items[bi]
		if w.bodies.live[bi] && b.typ == BODY_DYNAMIC && b.awake {
			s.AwakeBodies++
		}
	}
	w.EachContact(func(c *Contact) {
		if c.IsTouching() {
			s.Touching++
		}
	})
	return s
}
