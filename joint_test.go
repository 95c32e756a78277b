package b2

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
)

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.Step(testDt, 0, 0)
	}
}

func TestRevoluteJointPendulum(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground, _ := w.CreateBody(DefaultBodyDef())
	bob := addBox(t, w, BODY_DYNAMIC, V(2, 5), 0.25)

	def := NewRevoluteJointDef(ground, bob, V(0, 5))
	joint, err := w.CreateJoint(&def)
	if err != nil {
		t.Fatal(err)
	}
	if joint.Kind() != JOINT_REVOLUTE || joint.BodyA() != ground || joint.BodyB() != bob {
		t.Errorf("joint handle reports %v %v %v", joint.Kind(), joint.BodyA(), joint.BodyB())
	}

	lowest := float32(5)
	for i := 0; i < 180; i++ {
		w.Step(testDt, 0, 0)
		if d := joint.AnchorA().Distance(joint.AnchorB()); d > 0.01 {
			t.Fatalf("step %d: anchors drifted %v apart", i, d)
		}
		if d := bob.Position().Distance(V(0, 5)); !near(d, 2, 0.01) {
			t.Fatalf("step %d: arm length %v", i, d)
		}
		lowest = math32.Min(lowest, bob.Position().Y)
	}
	if !near(lowest, 3, 0.05) {
		t.Errorf("pendulum bottom at %v, want 3", lowest)
	}
	if joint.ReactionForce(1/testDt).Length() == 0 {
		t.Errorf("no reaction force on a loaded pin")
	}
}

func TestRevoluteJointLimitAndMotor(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground, _ := w.CreateBody(DefaultBodyDef())
	arm := addBox(t, w, BODY_DYNAMIC, V(1, 0), 0.25)

	def := NewRevoluteJointDef(ground, arm, V(0, 0))
	def.EnableLimit = true
	def.LowerAngle = -0.25
	def.UpperAngle = 0.25
	j, err := w.CreateJoint(&def)
	if err != nil {
		t.Fatal(err)
	}
	rj := j.Revolute()

	// the first swing may overshoot by one step of position correction
	for i := 0; i < 120; i++ {
		w.Step(testDt, 0, 0)
		if a := rj.JointAngle(); a < -0.25-MAX_ANGULAR_CORRECTION || a > 0.25+MAX_ANGULAR_CORRECTION {
			t.Fatalf("step %d: angle %v outside the limit", i, a)
		}
	}
	// settled against the lower stop
	if a := rj.JointAngle(); a < -0.25-ANGULAR_SLOP || a > -0.25+ANGULAR_SLOP {
		t.Errorf("arm rests at %v, want the lower limit", a)
	}

	rj.EnableLimit(false)
	rj.EnableMotor(true)
	rj.SetMaxMotorTorque(1000)
	rj.SetMotorSpeed(2)
	w.SetGravity(Vector{})
	stepN(w, 30)
	if s := rj.JointSpeed(); !near(s, 2, 0.01) {
		t.Errorf("motor speed %v, want 2", s)
	}
	if rj.MotorTorque(1/testDt) > 1000 {
		t.Errorf("motor torque over the limit: %v", rj.MotorTorque(1/testDt))
	}
}

func TestDistanceJoint(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground, _ := w.CreateBody(DefaultBodyDef())
	ball := addBall(t, w, V(3, 10), Vector{}, 0.25, 0)

	def := NewDistanceJointDef(ground, ball, V(0, 10), V(3, 10))
	j, err := w.CreateJoint(&def)
	if err != nil {
		t.Fatal(err)
	}
	dj := j.Distance()
	if !near(dj.Length(), 3, 1e-5) {
		t.Errorf("rest length %v", dj.Length())
	}

	for i := 0; i < 120; i++ {
		w.Step(testDt, 0, 0)
		if l := dj.CurrentLength(); !near(l, 3, 0.02) {
			t.Fatalf("step %d: rod length %v", i, l)
		}
	}

	// a soft rope: spring with a hard range
	dj.SetLimits(2, 3.5)
	dj.SetStiffness(1)
	dj.SetDamping(0.1)
	stepN(w, 240)
	if l := dj.CurrentLength(); l < 2-0.02 || l > 3.5+0.02 {
		t.Errorf("rope length %v outside [2, 3.5]", l)
	}
}

func TestPrismaticJoint(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground, _ := w.CreateBody(DefaultBodyDef())
	slider := addBox(t, w, BODY_DYNAMIC, V(0, 2), 0.5)

	def := NewPrismaticJointDef(ground, slider, V(0, 2), V(1, 0))
	def.EnableLimit = true
	def.LowerTranslation = -1
	def.UpperTranslation = 2
	def.EnableMotor = true
	def.MaxMotorForce = 100
	def.MotorSpeed = 3
	j, err := w.CreateJoint(&def)
	if err != nil {
		t.Fatal(err)
	}
	pj := j.Prismatic()

	for i := 0; i < 120; i++ {
		w.Step(testDt, 0, 0)
		p := slider.Position()
		if !near(p.Y, 2, 0.01) || !near(slider.Angle(), 0, 0.01) {
			t.Fatalf("step %d: slider left the rail at %v angle %v", i, p, slider.Angle())
		}
		if tr := pj.JointTranslation(); tr > 2+LINEAR_SLOP || tr < -1-LINEAR_SLOP {
			t.Fatalf("step %d: translation %v outside the limit", i, tr)
		}
	}
	if tr := pj.JointTranslation(); !near(tr, 2, 0.01) {
		t.Errorf("motor should press against the upper limit, got %v", tr)
	}

	pj.SetMotorSpeed(-3)
	stepN(w, 120)
	if tr := pj.JointTranslation(); !near(tr, -1, 0.01) {
		t.Errorf("motor should press against the lower limit, got %v", tr)
	}
}

func TestWeldJoint(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground, _ := w.CreateBody(DefaultBodyDef())
	a := addBox(t, w, BODY_DYNAMIC, V(1, 5), 0.5)
	b := addBox(t, w, BODY_DYNAMIC, V(2, 5), 0.5)

	wa := NewWeldJointDef(ground, a, V(0.5, 5))
	if _, err := w.CreateJoint(&wa); err != nil {
		t.Fatal(err)
	}
	wb := NewWeldJointDef(a, b, V(1.5, 5))
	if _, err := w.CreateJoint(&wb); err != nil {
		t.Fatal(err)
	}

	stepN(w, 120)
	// a rigid cantilever sags a little, but not much
	if p := b.Position(); !p.Near(V(2, 5), 0.1) {
		t.Errorf("welded box sagged to %v", p)
	}
	if d := b.Angle() - a.Angle(); math32.Abs(d) > 0.05 {
		t.Errorf("weld twisted by %v", d)
	}
}

func TestMotorJoint(t *testing.T) {
	w := newTestWorld(t, zeroGravity())
	ground, _ := w.CreateBody(DefaultBodyDef())
	box := addBox(t, w, BODY_DYNAMIC, V(0, 0), 0.5)

	def := NewMotorJointDef(ground, box)
	def.MaxForce = 100
	def.MaxTorque = 100
	j, err := w.CreateJoint(&def)
	if err != nil {
		t.Fatal(err)
	}
	mj := j.Motor()
	mj.SetLinearOffset(V(3, 1))
	mj.SetAngularOffset(0.5)

	stepN(w, 300)
	if p := box.Position(); !p.Near(V(3, 1), 0.05) {
		t.Errorf("motor joint left the box at %v", p)
	}
	if a := box.Angle(); !near(a, 0.5, 0.05) {
		t.Errorf("motor joint angle %v", a)
	}
}

func TestMouseJoint(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	ground, _ := w.CreateBody(DefaultBodyDef())
	box := addBox(t, w, BODY_DYNAMIC, V(0, 0), 0.5)

	def := NewMouseJointDef(ground, box, V(0, 0))
	j, err := w.CreateJoint(&def)
	if err != nil {
		t.Fatal(err)
	}
	mj := j.Mouse()
	box.SetAwake(false)
	mj.SetTarget(V(4, 2))
	if !box.IsAwake() {
		t.Errorf("moving the target did not wake the body")
	}

	stepN(w, 180)
	if p := box.Position(); !p.Near(V(4, 2), 0.1) {
		t.Errorf("dragged box at %v, want near (4, 2)", p)
	}
	if !j.AnchorA().Equal(V(4, 2)) {
		t.Errorf("mouse anchor A should be the target, got %v", j.AnchorA())
	}
}

func TestJointCollideConnected(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	addGround(t, w)
	a := addBox(t, w, BODY_DYNAMIC, V(0, 0.5), 0.5)
	b := addBox(t, w, BODY_DYNAMIC, V(0.5, 0.5), 0.5)

	// overlapping boxes would push apart without the joint filter
	def := NewDistanceJointDef(a, b, a.Position(), b.Position())
	def.MinLength = 0
	def.MaxLength = 10
	j, err := w.CreateJoint(&def)
	if err != nil {
		t.Fatal(err)
	}
	if j.CollideConnected() {
		t.Errorf("joints collide their bodies by default")
	}

	stepN(w, 10)
	touching := false
	a.EachContact(func(c *Contact) {
		if c.BodyB() == b || c.BodyA() == b {
			touching = true
		}
	})
	if touching {
		t.Errorf("joined bodies have a contact")
	}

	w.DestroyJoint(j)
	stepN(w, 10)
	a.EachContact(func(c *Contact) {
		if c.BodyB() == b || c.BodyA() == b {
			touching = true
		}
	})
	if !touching {
		t.Errorf("contact not created after the joint was destroyed")
	}
}

func TestJointDefErrors(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	a := addBox(t, w, BODY_DYNAMIC, V(0, 0), 0.5)
	b := addBox(t, w, BODY_DYNAMIC, V(2, 0), 0.5)

	other := newTestWorld(t, DefaultWorldDef())
	foreign := addBox(t, other, BODY_DYNAMIC, V(0, 0), 0.5)

	self := NewRevoluteJointDef(a, a, V(0, 0))
	crossWorld := NewRevoluteJointDef(a, foreign, V(0, 0))
	limits := NewRevoluteJointDef(a, b, V(1, 0))
	limits.LowerAngle, limits.UpperAngle = 1, -1
	length := NewDistanceJointDef(a, b, V(0, 0), V(2, 0))
	length.MaxLength = 1
	axis := NewPrismaticJointDef(a, b, V(1, 0), V(0, 0))
	spring := NewWeldJointDef(a, b, V(1, 0))
	spring.Stiffness = -1
	motor := NewMotorJointDef(a, b)
	motor.CorrectionFactor = 2
	mouse := NewMouseJointDef(a, b, V(math32.NaN(), 0))

	for name, def := range map[string]JointDef{
		"self":        &self,
		"cross world": &crossWorld,
		"limits":      &limits,
		"length":      &length,
		"axis":        &axis,
		"spring":      &spring,
		"motor":       &motor,
		"mouse":       &mouse,
	} {
		if _, err := w.CreateJoint(def); !errors.Is(err, ErrInvalidJoint) {
			t.Errorf("%s: expected ErrInvalidJoint, got %v", name, err)
		}
	}
	if w.JointCount() != 0 {
		t.Errorf("failed defs created %d joints", w.JointCount())
	}
}

func TestJointSetterPanics(t *testing.T) {
	w := newTestWorld(t, DefaultWorldDef())
	a := addBox(t, w, BODY_DYNAMIC, V(0, 0), 0.5)
	b := addBox(t, w, BODY_DYNAMIC, V(2, 0), 0.5)
	def := NewRevoluteJointDef(a, b, V(1, 0))
	j, _ := w.CreateJoint(&def)

	defer func() {
		if recover() == nil {
			t.Errorf("wrong kind accessor did not panic")
		}
	}()
	j.Prismatic()
}
