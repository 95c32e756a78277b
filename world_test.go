package b2

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

const testDt = 1.0 / 60

func newTestWorld(t *testing.T, def WorldDef) *World {
	t.Helper()
	w, err := NewWorld(def)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func zeroGravity() WorldDef {
	def := DefaultWorldDef()
	def.Gravity = Vector{}
	return def
}

func addBox(t *testing.T, w *World, typ BodyType, p Vector, h float32) Body {
	t.Helper()
	def := DefaultBodyDef()
	def.Type = typ
	def.Position = p
	body, err := w.CreateBody(def)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.CreateShape(body, DefaultShapeDef(MakeBox(h, h))); err != nil {
		t.Fatal(err)
	}
	return body
}

func addBall(t *testing.T, w *World, p, v Vector, radius, restitution float32) Body {
	t.Helper()
	def := DefaultBodyDef()
	def.Type = BODY_DYNAMIC
	def.Position = p
	def.LinearVelocity = v
	body, err := w.CreateBody(def)
	if err != nil {
		t.Fatal(err)
	}
	sd := DefaultShapeDef(NewCircle(Vector{}, radius))
	sd.Friction = 0
	sd.Restitution = restitution
	if _, err := w.CreateShape(body, sd); err != nil {
		t.Fatal(err)
	}
	return body
}

// addGround makes a static slab whose top face is at y = 0.
func addGround(t *testing.T, w *World) Body {
	t.Helper()
	ground, err := w.CreateBody(DefaultBodyDef())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.CreateShape(ground, DefaultShapeDef(MakeOffsetBox(40, 1, V(0, -1), 0))); err != nil {
		t.Fatal(err)
	}
	return ground
}

func TestWorldDefErrors(t *testing.T) {
	bad := []func(*WorldDef){
		func(d *WorldDef) { d.Gravity = V(math32.NaN(), 0) },
		func(d *WorldDef) { d.VelocityIterations = 0 },
		func(d *WorldDef) { d.PositionIterations = -1 },
		func(d *WorldDef) { d.TimeToSleep = -1 },
		func(d *WorldDef) { d.AABBMargin = math32.Inf(1) },
		func(d *WorldDef) { d.Workers = -2 },
	}
	for i, mod := range bad {
		def := DefaultWorldDef()
		mod(&def)
		if _, err := NewWorld(def); !errors.Is(err, ErrInvalidWorld) {
			t.Errorf("def %d: expected ErrInvalidWorld, got %v", i, err)
		}
	}
}

func TestWorldFixedBodiesUntouched(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground := addGround(t, w)
	wall := addBox(t, w, BODY_STATIC, V(5, 1), 1)

	def := DefaultBodyDef()
	def.Type = BODY_KINEMATIC
	def.Position = V(-5, 3)
	def.LinearVelocity = V(1, 0)
	def.AngularVelocity = 0.5
	platform, _ := w.CreateBody(def)
	w.CreateShape(platform, DefaultShapeDef(MakeBox(2, 0.25)))

	// heavy traffic on the static bodies
	for i := 0; i < 10; i++ {
		addBox(t, w, BODY_DYNAMIC, V(float32(i)-5, 6+float32(i)), 0.4)
	}

	for i := 0; i < 120; i++ {
		w.Step(testDt, 0, 0)
	}

	if !ground.Position().Equal(Vector{}) || ground.Angle() != 0 || !ground.LinearVelocity().Equal(Vector{}) {
		t.Errorf("ground moved: %v %v", ground.Position(), ground.LinearVelocity())
	}
	if !wall.Position().Equal(V(5, 1)) {
		t.Errorf("wall moved: %v", wall.Position())
	}
	// kinematic bodies follow their velocity and ignore contacts
	if p := platform.Position(); !p.Near(V(-3, 3), 1e-3) {
		t.Errorf("platform at %v, want (-3, 3)", p)
	}
	if a := platform.Angle(); !near(a, 1, 1e-3) {
		t.Errorf("platform angle %v, want 1", a)
	}
	if !platform.LinearVelocity().Equal(V(1, 0)) || !platform.IsAwake() {
		t.Errorf("platform velocity changed to %v", platform.LinearVelocity())
	}
}

func TestWorldRestingBoxSleeps(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	addGround(t, w)
	box := addBox(t, w, BODY_DYNAMIC, V(0, 0.5), 0.5)

	for i := 0; i < 300 && box.IsAwake(); i++ {
		w.Step(testDt, 0, 0)
	}
	if box.IsAwake() {
		t.Fatalf("resting box never slept, v = %v", box.LinearVelocity())
	}
	p := box.Position()
	if math32.Abs(p.X) > 0.01 || math32.Abs(p.Y-0.5) > 0.03 || math32.Abs(box.Angle()) > 0.01 {
		t.Errorf("box drifted to %v, angle %v", p, box.Angle())
	}

	for i := 0; i < 60; i++ {
		w.Step(testDt, 0, 0)
	}
	if !box.Position().Equal(p) {
		t.Errorf("sleeping box moved from %v to %v", p, box.Position())
	}
	if st := w.Stats(); st.AwakeBodies != 0 || st.Islands != 0 {
		t.Errorf("asleep world reports %+v", st)
	}

	// a poke wakes it
	box.ApplyLinearImpulseToCenter(V(0, 2), true)
	w.Step(testDt, 0, 0)
	if !box.IsAwake() || box.Position().Y <= p.Y {
		t.Errorf("impulse did not wake the box")
	}
}

func TestWorldRestitution(t *testing.T) {
	for _, tc := range []struct {
		restitution float32
		va, vb      float32
	}{
		{1, 0, 5},
		{0, 2.5, 2.5},
	} {
		w := newTestWorld(t, zeroGravity())
		a := addBall(t, w, V(-2, 0), V(5, 0), 0.5, tc.restitution)
		b := addBall(t, w, V(0, 0), Vector{}, 0.5, tc.restitution)

		for i := 0; i < 60; i++ {
			w.Step(testDt, 0, 0)
		}

		va, vb := a.LinearVelocity(), b.LinearVelocity()
		if !near(va.X, tc.va, 0.1) || !near(vb.X, tc.vb, 0.1) {
			t.Errorf("restitution %v: velocities %v %v, want %v %v", tc.restitution, va, vb, tc.va, tc.vb)
		}
		// momentum is conserved either way
		if !near(va.X+vb.X, 5, 1e-3) {
			t.Errorf("restitution %v: momentum %v", tc.restitution, va.X+vb.X)
		}
		if math32.Abs(va.Y)+math32.Abs(vb.Y) > 1e-4 {
			t.Errorf("head-on collision went sideways: %v %v", va, vb)
		}
	}
}

func TestWorldContinuous(t *testing.T) {
	for _, continuous := range []bool{true, false} {
		def := zeroGravity()
		def.EnableContinuous = continuous
		w := newTestWorld(t, def)

		wall, _ := w.CreateBody(DefaultBodyDef())
		w.CreateShape(wall, DefaultShapeDef(MakeOffsetBox(0.05, 5, V(5, 0), 0)))

		// 6 m per step through a 10 cm wall
		ball := addBall(t, w, V(0, 0), V(360, 0), 0.1, 0)

		for i := 0; i < 10; i++ {
			w.Step(testDt, 0, 0)
		}

		x := ball.Position().X
		if continuous && x > 4.95 {
			t.Errorf("ball tunneled to %v with continuous collision", x)
		}
		if !continuous && x < 5.05 {
			t.Errorf("ball stopped at %v without continuous collision", x)
		}
	}
}

func TestWorldBulletHitsDynamic(t *testing.T) {
	w := newTestWorld(t, zeroGravity())
	target := addBox(t, w, BODY_DYNAMIC, V(5, 0), 0.05)
	target.SetSleepingAllowed(false)

	bullet := addBall(t, w, V(0, 0), V(360, 0), 0.1, 0)
	bullet.SetBullet(true)

	for i := 0; i < 5; i++ {
		w.Step(testDt, 0, 0)
	}
	if target.LinearVelocity().X <= 0 {
		t.Errorf("bullet passed through a dynamic body: bullet at %v", bullet.Position())
	}
}

func buildStacks(t *testing.T, workers int) (*World, []Body) {
	def := DefaultWorldDef()
	def.Workers = workers
	w := newTestWorld(t, def)
	addGround(t, w)

	var bodies []Body
	for s := 0; s < 6; s++ {
		x := float32(s)*5 - 15
		for i := 0; i < 5; i++ {
			b := addBox(t, w, BODY_DYNAMIC, V(x+0.05*float32(i), 0.5+float32(i)*1.02), 0.5)
			bodies = append(bodies, b)
		}
		bodies = append(bodies, addBall(t, w, V(x+0.3, 8), V(0, -5), 0.3, 0.4))
	}
	return w, bodies
}

func TestWorldParallelDeterminism(t *testing.T) {
	serial, a := buildStacks(t, 1)
	parallel, b := buildStacks(t, 4)

	serial.Step(testDt, 0, 0)
	parallel.Step(testDt, 0, 0)
	if n := parallel.Stats().Islands; n < 6 {
		t.Errorf("expected at least one island per stack, got %d", n)
	}

	for i := 0; i < 180; i++ {
		serial.Step(testDt, 0, 0)
		parallel.Step(testDt, 0, 0)
	}
	for i := range a {
		if a[i].Transform() != b[i].Transform() || a[i].LinearVelocity() != b[i].LinearVelocity() {
			t.Fatalf("body %d differs: %v vs %v", i, a[i].Transform(), b[i].Transform())
		}
	}
	if serial.ContactCount() != parallel.ContactCount() {
		t.Errorf("contact counts differ: %d vs %d", serial.ContactCount(), parallel.ContactCount())
	}
}

type recordingListener struct {
	begin, end, pre, post int
	maxImpulse            float32
}

func (l *recordingListener) BeginContact(*Contact) { l.begin++ }
func (l *recordingListener) EndContact(*Contact)   { l.end++ }
func (l *recordingListener) PreSolve(*Contact, *Manifold) {
	l.pre++
}
func (l *recordingListener) PostSolve(c *Contact, impulse *ContactImpulse) {
	l.post++
	for i := 0; i < impulse.Count; i++ {
		l.maxImpulse = math32.Max(l.maxImpulse, impulse.NormalImpulses[i])
	}
}

func TestWorldContactListener(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	rec := &recordingListener{}
	w.SetContactListener(rec)

	addGround(t, w)
	box := addBox(t, w, BODY_DYNAMIC, V(0, 2), 0.5)

	for i := 0; i < 60; i++ {
		w.Step(testDt, 0, 0)
	}
	if rec.begin != 1 || rec.end != 0 {
		t.Errorf("begin %d end %d, want 1 0", rec.begin, rec.end)
	}
	if rec.pre == 0 || rec.post == 0 || rec.maxImpulse <= 0 {
		t.Errorf("solve events: pre %d post %d impulse %v", rec.pre, rec.post, rec.maxImpulse)
	}

	box.ApplyLinearImpulseToCenter(V(0, 5), true)
	for i := 0; i < 10; i++ {
		w.Step(testDt, 0, 0)
	}
	if rec.end != 1 {
		t.Errorf("no end event after the box left the ground")
	}

	// destroying a touching body reports the end
	for i := 0; i < 200; i++ {
		w.Step(testDt, 0, 0)
	}
	if rec.begin != 2 {
		t.Fatalf("box did not land again, begin %d", rec.begin)
	}
	w.DestroyBody(box)
	if rec.end != 2 {
		t.Errorf("destroy did not end the contact, end %d", rec.end)
	}
	if w.ContactCount() != 0 {
		t.Errorf("%d contacts left", w.ContactCount())
	}
}

func TestWorldSensor(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	rec := &recordingListener{}
	w.SetContactListener(rec)
	addGround(t, w)

	zone, _ := w.CreateBody(DefaultBodyDef())
	sd := DefaultShapeDef(MakeOffsetBox(2, 0.5, V(0, 2), 0))
	sd.IsSensor = true
	sensor, _ := w.CreateShape(zone, sd)

	box := addBox(t, w, BODY_DYNAMIC, V(0, 4), 0.25)
	for i := 0; i < 120; i++ {
		w.Step(testDt, 0, 0)
	}

	// fell through the sensor onto the ground
	if box.Position().Y > 0.5 {
		t.Errorf("sensor stopped the box at %v", box.Position())
	}
	if rec.begin != 2 || rec.end != 1 {
		t.Errorf("begin %d end %d, want 2 1", rec.begin, rec.end)
	}

	if hit, ok := w.RayCastClosest(V(0, 10), V(0, -10)); !ok || hit.Shape == sensor || hit.Shape.Body() != box {
		t.Errorf("ray cast got %+v %v", hit, ok)
	}
}

func TestWorldFiltering(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	addGround(t, w)

	a := addBox(t, w, BODY_DYNAMIC, V(-2, 0.5), 0.5)
	b := addBox(t, w, BODY_DYNAMIC, V(2, 0.5), 0.5)

	// a ignores the ground by mask, b by the custom filter
	a.Shapes()[0].SetFilter(Filter{CategoryBits: 2, MaskBits: 0xFFFF &^ 1})
	w.SetContactFilter(filterFunc(func(x, y Shape) bool {
		return x.Body() != b && y.Body() != b
	}))

	for i := 0; i < 30; i++ {
		w.Step(testDt, 0, 0)
	}
	if a.Position().Y >= 0 || b.Position().Y >= 0 {
		t.Errorf("filtered boxes did not fall: %v %v", a.Position(), b.Position())
	}

	// same negative group never collides
	w2 := newTestWorld(t, zeroGravity())
	c := addBall(t, w2, V(0, 0), V(1, 0), 0.5, 0)
	d := addBall(t, w2, V(0.5, 0), Vector{}, 0.5, 0)
	c.Shapes()[0].SetFilter(Filter{CategoryBits: 1, MaskBits: 0xFFFF, GroupIndex: -1})
	d.Shapes()[0].SetFilter(Filter{CategoryBits: 1, MaskBits: 0xFFFF, GroupIndex: -1})
	for i := 0; i < 10; i++ {
		w2.Step(testDt, 0, 0)
	}
	if w2.ContactCount() != 0 || d.LinearVelocity().X != 0 {
		t.Errorf("negative group collided")
	}
}

type filterFunc func(a, b Shape) bool

func (f filterFunc) ShouldCollide(a, b Shape) bool {
	return f(a, b)
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	addGround(t, w)
	box := addBox(t, w, BODY_DYNAMIC, V(0, 1), 0.5)
	other := addBox(t, w, BODY_DYNAMIC, V(3, 1), 0.5)

	var createPanicked, doublePanicked bool
	destroyed := 0
	w.SetContactListener(&ContactHandler{
		BeginFunc: func(c *Contact) {
			if c.BodyA() != box && c.BodyB() != box {
				return
			}
			if !box.Valid() {
				return
			}
			w.DestroyBody(box)
			destroyed++

			func() {
				defer func() { doublePanicked = recover() != nil }()
				w.DestroyBody(box)
			}()
			func() {
				defer func() { createPanicked = recover() != nil }()
				w.CreateBody(DefaultBodyDef())
			}()
		},
	})

	for i := 0; i < 60; i++ {
		w.Step(testDt, 0, 0)
	}

	if destroyed != 1 || box.Valid() {
		t.Errorf("box destroyed %d times, valid %v", destroyed, box.Valid())
	}
	if !doublePanicked {
		t.Errorf("destroying twice did not panic")
	}
	if !createPanicked {
		t.Errorf("creating a body while locked did not panic")
	}
	if w.BodyCount() != 2 || !other.Valid() {
		t.Errorf("body count %d", w.BodyCount())
	}
	if w.IsLocked() {
		t.Errorf("world left locked")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("destroying a dead body did not panic")
		}
	}()
	w.DestroyBody(box)
}

type goodbyeRecorder struct {
	joints, shapes int
}

func (g *goodbyeRecorder) SayGoodbyeJoint(Joint) { g.joints++ }
func (g *goodbyeRecorder) SayGoodbyeShape(Shape) { g.shapes++ }

func TestWorldDestroyBodyCascade(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	rec := &goodbyeRecorder{}
	w.SetDestructionListener(rec)

	ground := addGround(t, w)
	a := addBox(t, w, BODY_DYNAMIC, V(0, 3), 0.5)
	w.CreateShape(a, DefaultShapeDef(NewCircle(V(0, 1), 0.25)))
	b := addBox(t, w, BODY_DYNAMIC, V(2, 3), 0.5)

	jd := NewRevoluteJointDef(a, b, V(1, 3))
	joint, err := w.CreateJoint(&jd)
	if err != nil {
		t.Fatal(err)
	}
	dd := NewDistanceJointDef(ground, a, V(0, 0), V(0, 3))
	if _, err := w.CreateJoint(&dd); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 30; i++ {
		w.Step(testDt, 0, 0)
	}

	w.DestroyBody(a)
	if rec.joints != 2 || rec.shapes != 2 {
		t.Errorf("goodbyes: %d joints %d shapes", rec.joints, rec.shapes)
	}
	if joint.Valid() || w.JointCount() != 0 || w.ShapeCount() != 2 {
		t.Errorf("leftovers: joints %d shapes %d", w.JointCount(), w.ShapeCount())
	}
	if len(b.Joints()) != 0 || len(ground.Joints()) != 0 {
		t.Errorf("bodies still list joints")
	}
	b.EachContact(func(c *Contact) {
		if c.BodyA() == a || c.BodyB() == a {
			t.Errorf("contact with destroyed body survived")
		}
	})
	if !b.IsAwake() {
		t.Errorf("losing a joint did not wake the other body")
	}
}

func TestWorldPostStepCallbacks(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())

	calls := 0
	f := func(*World, interface{}) { calls++ }
	if !w.AddPostStepCallback(f, "k") || calls != 1 {
		t.Errorf("unlocked callback did not run at once")
	}

	w.Lock()
	if !w.AddPostStepCallback(f, "k") {
		t.Errorf("first keyed callback rejected")
	}
	if w.AddPostStepCallback(f, "k") {
		t.Errorf("duplicate key accepted")
	}
	w.AddPostStepCallback(f, nil)
	w.AddPostStepCallback(f, nil)
	// nested callbacks run in the same flush
	w.AddPostStepCallback(func(w *World, _ interface{}) {
		w.AddPostStepCallback(f, "nested")
	}, "outer")
	if calls != 1 {
		t.Errorf("callbacks ran while locked")
	}
	w.Unlock(true)

	if calls != 5 {
		t.Errorf("expected 5 calls, got %d", calls)
	}
}

func TestWorldLockedPanics(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	body := addBox(t, w, BODY_DYNAMIC, V(0, 0), 0.5)

	for name, f := range map[string]func(){
		"CreateBody":   func() { w.CreateBody(DefaultBodyDef()) },
		"CreateShape":  func() { w.CreateShape(body, DefaultShapeDef(MakeBox(1, 1))) },
		"SetTransform": func() { body.SetTransform(V(1, 1), 0) },
		"Step":         func() { w.Step(testDt, 0, 0) },
	} {
		func() {
			w.Lock()
			defer w.Unlock(false)
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic while locked", name)
				}
			}()
			f()
		}()
	}

	defer func() {
		if recover() == nil {
			t.Errorf("negative dt did not panic")
		}
	}()
	w.Step(-1, 0, 0)
}

func TestWorldQueries(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	var boxes []Body
	for i := 0; i < 5; i++ {
		boxes = append(boxes, addBox(t, w, BODY_STATIC, V(float32(i)*3, 0), 0.5))
	}

	var found []Body
	w.QueryAABB(NewBB(2, -1, 7, 1), func(s Shape) bool {
		found = append(found, s.Body())
		return true
	})
	if len(found) != 2 {
		t.Errorf("QueryAABB found %v", found)
	}

	hit, ok := w.RayCastClosest(V(20, 0), V(-20, 0))
	if !ok || hit.Shape.Body() != boxes[4] {
		t.Fatalf("RayCastClosest got %+v", hit)
	}
	if !hit.Point.Near(V(12.5, 0), 1e-4) || !hit.Normal.Near(V(1, 0), 1e-4) {
		t.Errorf("hit at %v normal %v", hit.Point, hit.Normal)
	}
	if _, ok := w.RayCastClosest(V(-5, 5), V(20, 5)); ok {
		t.Errorf("ray above the boxes hit something")
	}

	count := 0
	w.RayCast(V(-5, 0), V(20, 0), func(Shape, Vector, Vector, float32) float32 {
		count++
		return 1
	})
	if count != 5 {
		t.Errorf("RayCast reported %d hits, want 5", count)
	}
}

func TestWorldZeroStep(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	addGround(t, w)
	box := addBox(t, w, BODY_DYNAMIC, V(0, 0.45), 0.5)

	w.Step(0, 0, 0)
	if !box.Position().Equal(V(0, 0.45)) {
		t.Errorf("zero step moved the box")
	}
	if w.ContactCount() != 1 {
		t.Errorf("zero step did not update contacts: %d", w.ContactCount())
	}
	if w.StepCount() != 1 {
		t.Errorf("StepCount got %d", w.StepCount())
	}
}
