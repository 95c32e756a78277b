package b2

import (
	"github.com/pkg/errors"
)

// MouseJointDef pulls a point on body B toward a world target with a soft
// spring. Body A is only a reference, usually a static ground body.
type MouseJointDef struct {
	JointDefBase
	Target    Vector
	MaxForce  float32
	Stiffness float32
	Damping   float32
}

// NewMouseJointDef grabs body b at target. The spring runs at 5 Hz with
// critical damping and can lift 1000 times the body's weight under gravity.
func NewMouseJointDef(ground, b Body, target Vector) MouseJointDef {
	stiffness, damping := LinearStiffness(5, 0.7, ground, b)
	g := b.World().Gravity().Length()
	if g == 0 {
		g = 10
	}
	return MouseJointDef{
		JointDefBase: JointDefBase{BodyA: ground, BodyB: b},
		Target:       target,
		MaxForce:     1000 * b.Mass() * g,
		Stiffness:    stiffness,
		Damping:      damping,
	}
}

func (def *MouseJointDef) kind() JointKind {
	return JOINT_MOUSE
}

func (def *MouseJointDef) validate() error {
	if err := validJointValues(def.Target.X, def.Target.Y, def.MaxForce, def.Stiffness, def.Damping); err != nil {
		return err
	}
	if def.MaxForce < 0 || def.Stiffness < 0 || def.Damping < 0 {
		return errors.Wrap(ErrInvalidJoint, "negative force or spring coefficients")
	}
	return nil
}

func (def *MouseJointDef) create(j *joint) Constrainer {
	return &MouseJoint{
		joint:        j,
		targetA:      def.Target,
		localAnchorB: def.BodyB.GetLocalPoint(def.Target),
		maxForce:     def.MaxForce,
		stiffness:    def.Stiffness,
		damping:      def.Damping,
	}
}

type MouseJoint struct {
	*joint

	targetA      Vector
	localAnchorB Vector
	maxForce     float32
	stiffness    float32
	damping      float32

	impulse Vector

	rB          Vector
	mass        Mat22
	C           Vector
	gamma, beta float32
}

func (joint *MouseJoint) PreStep(data *solverData) {
	joint.prepare()
	iB := joint.indexB
	mB := joint.invMassB
	IB := joint.invIB

	cB, aB := data.positions[iB].c, data.positions[iB].a
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	qB := NewRot(aB)

	joint.gamma, joint.beta = softness(joint.stiffness, joint.damping, data.step.dt)

	joint.rB = qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))

	var K Mat22
	K.Ex.X = mB + IB*joint.rB.Y*joint.rB.Y + joint.gamma
	K.Ex.Y = -IB * joint.rB.X * joint.rB.Y
	K.Ey.X = K.Ex.Y
	K.Ey.Y = mB + IB*joint.rB.X*joint.rB.X + joint.gamma
	joint.mass = K.Inverse()

	joint.C = cB.Add(joint.rB).Sub(joint.targetA).Mult(joint.beta)

	// a little extra angular damping keeps grabbed bodies from spinning up
	wB *= 0.98

	if data.step.warmStarting {
		joint.impulse = joint.impulse.Mult(data.step.dtRatio)
		vB = vB.Add(joint.impulse.Mult(mB))
		wB += IB * joint.rB.Cross(joint.impulse)
	} else {
		joint.impulse = Vector{}
	}

	data.velocities[iB] = velocity{vB, wB}
}

func (joint *MouseJoint) ApplyImpulse(data *solverData) {
	iB := joint.indexB
	mB := joint.invMassB
	IB := joint.invIB

	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	Cdot := vB.Add(CrossSV(wB, joint.rB))
	impulse := joint.mass.MulV(Cdot.Add(joint.C).Add(joint.impulse.Mult(joint.gamma)).Neg())

	old := joint.impulse
	joint.impulse = joint.impulse.Add(impulse)
	maxImpulse := data.step.dt * joint.maxForce
	if joint.impulse.LengthSq() > maxImpulse*maxImpulse {
		joint.impulse = joint.impulse.Mult(maxImpulse / joint.impulse.Length())
	}
	impulse = joint.impulse.Sub(old)

	vB = vB.Add(impulse.Mult(mB))
	wB += IB * joint.rB.Cross(impulse)

	data.velocities[iB] = velocity{vB, wB}
}

func (joint *MouseJoint) SolvePosition(*solverData) bool {
	return true
}

func (joint *MouseJoint) AnchorA() Vector {
	return joint.targetA
}

func (joint *MouseJoint) AnchorB() Vector {
	return joint.b().xf.Point(joint.localAnchorB)
}

func (joint *MouseJoint) ReactionForce(invDt float32) Vector {
	return joint.impulse.Mult(invDt)
}

func (joint *MouseJoint) ReactionTorque(float32) float32 {
	return 0
}

func (joint *MouseJoint) Target() Vector {
	return joint.targetA
}

// SetTarget moves the target and wakes the dragged body.
func (joint *MouseJoint) SetTarget(target Vector) {
	if !target.Equal(joint.targetA) {
		joint.b().setAwake(true)
		joint.targetA = target
	}
}

func (joint *MouseJoint) SetMaxForce(force float32) {
	joint.maxForce = force
}

func (joint *MouseJoint) SetStiffness(stiffness float32) {
	joint.stiffness = stiffness
}

func (joint *MouseJoint) SetDamping(damping float32) {
	joint.damping = damping
}
