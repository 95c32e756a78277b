package b2

import (
	"github.com/pkg/errors"
)

// MotorJointDef drives body B toward a target offset from body A using
// bounded force and torque.
type MotorJointDef struct {
	JointDefBase
	// LinearOffset is the target position of B in the frame of A.
	LinearOffset  Vector
	AngularOffset float32
	MaxForce      float32
	MaxTorque     float32
	// CorrectionFactor in [0,1] is the fraction of the error removed per step.
	CorrectionFactor float32
}

// NewMotorJointDef targets the current relative pose of the two bodies.
func NewMotorJointDef(a, b Body) MotorJointDef {
	return MotorJointDef{
		JointDefBase:     JointDefBase{BodyA: a, BodyB: b},
		LinearOffset:     a.GetLocalPoint(b.Position()),
		AngularOffset:    b.Angle() - a.Angle(),
		MaxForce:         1,
		MaxTorque:        1,
		CorrectionFactor: 0.3,
	}
}

func (def *MotorJointDef) kind() JointKind {
	return JOINT_MOTOR
}

func (def *MotorJointDef) validate() error {
	if err := validJointValues(def.LinearOffset.X, def.LinearOffset.Y, def.AngularOffset,
		def.MaxForce, def.MaxTorque, def.CorrectionFactor); err != nil {
		return err
	}
	if def.MaxForce < 0 || def.MaxTorque < 0 {
		return errors.Wrap(ErrInvalidJoint, "negative max force or torque")
	}
	if def.CorrectionFactor < 0 || def.CorrectionFactor > 1 {
		return errors.Wrapf(ErrInvalidJoint, "correction factor %v outside [0,1]", def.CorrectionFactor)
	}
	return nil
}

func (def *MotorJointDef) create(j *joint) Constrainer {
	return &MotorJoint{
		joint:            j,
		linearOffset:     def.LinearOffset,
		angularOffset:    def.AngularOffset,
		maxForce:         def.MaxForce,
		maxTorque:        def.MaxTorque,
		correctionFactor: def.CorrectionFactor,
	}
}

type MotorJoint struct {
	*joint

	linearOffset     Vector
	angularOffset    float32
	maxForce         float32
	maxTorque        float32
	correctionFactor float32

	linearImpulse  Vector
	angularImpulse float32

	rA, rB       Vector
	linearError  Vector
	angularError float32
	linearMass   Mat22
	angularMass  float32
}

func (joint *MotorJoint) PreStep(data *solverData) {
	joint.prepare()
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	cA, aA := data.positions[iA].c, data.positions[iA].a
	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	cB, aB := data.positions[iB].c, data.positions[iB].a
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	qA, qB := NewRot(aA), NewRot(aB)
	joint.rA = qA.Rotate(joint.linearOffset.Sub(joint.localCenterA))
	joint.rB = qB.Rotate(joint.localCenterB.Neg())

	joint.linearMass = pointMass(mA, mB, IA, IB, joint.rA, joint.rB).Inverse()

	joint.angularMass = IA + IB
	if joint.angularMass > 0 {
		joint.angularMass = 1 / joint.angularMass
	}

	joint.linearError = cB.Add(joint.rB).Sub(cA).Sub(joint.rA)
	joint.angularError = aB - aA - joint.angularOffset

	if data.step.warmStarting {
		joint.linearImpulse = joint.linearImpulse.Mult(data.step.dtRatio)
		joint.angularImpulse *= data.step.dtRatio

		P := joint.linearImpulse
		vA = vA.Sub(P.Mult(mA))
		wA -= IA * (joint.rA.Cross(P) + joint.angularImpulse)
		vB = vB.Add(P.Mult(mB))
		wB += IB * (joint.rB.Cross(P) + joint.angularImpulse)
	} else {
		joint.linearImpulse = Vector{}
		joint.angularImpulse = 0
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *MotorJoint) ApplyImpulse(data *solverData) {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	h := data.step.dt
	invH := data.step.invDt

	// angular
	{
		Cdot := wB - wA + invH*joint.correctionFactor*joint.angularError
		impulse := -joint.angularMass * Cdot

		old := joint.angularImpulse
		maxImpulse := h * joint.maxTorque
		joint.angularImpulse = Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = joint.angularImpulse - old

		wA -= IA * impulse
		wB += IB * impulse
	}

	// linear
	{
		Cdot := vB.Add(CrossSV(wB, joint.rB)).Sub(vA).Sub(CrossSV(wA, joint.rA)).
			Add(joint.linearError.Mult(invH * joint.correctionFactor))

		impulse := joint.linearMass.MulV(Cdot).Neg()
		old := joint.linearImpulse
		joint.linearImpulse = joint.linearImpulse.Add(impulse)

		maxImpulse := h * joint.maxForce
		if joint.linearImpulse.LengthSq() > maxImpulse*maxImpulse {
			joint.linearImpulse = joint.linearImpulse.Normalize().Mult(maxImpulse)
		}
		impulse = joint.linearImpulse.Sub(old)

		vA = vA.Sub(impulse.Mult(mA))
		wA -= IA * joint.rA.Cross(impulse)
		vB = vB.Add(impulse.Mult(mB))
		wB += IB * joint.rB.Cross(impulse)
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *MotorJoint) SolvePosition(*solverData) bool {
	return true
}

func (joint *MotorJoint) AnchorA() Vector {
	return joint.a().xf.P
}

func (joint *MotorJoint) AnchorB() Vector {
	return joint.b().xf.P
}

func (joint *MotorJoint) ReactionForce(invDt float32) Vector {
	return joint.linearImpulse.Mult(invDt)
}

func (joint *MotorJoint) ReactionTorque(invDt float32) float32 {
	return invDt * joint.angularImpulse
}

func (joint *MotorJoint) LinearOffset() Vector {
	return joint.linearOffset
}

func (joint *MotorJoint) SetLinearOffset(offset Vector) {
	if !offset.Equal(joint.linearOffset) {
		joint.ActivateBodies()
		joint.linearOffset = offset
	}
}

func (joint *MotorJoint) AngularOffset() float32 {
	return joint.angularOffset
}

func (joint *MotorJoint) SetAngularOffset(offset float32) {
	if offset != joint.angularOffset {
		joint.ActivateBodies()
		joint.angularOffset = offset
	}
}

func (joint *MotorJoint) SetMaxForce(force float32) {
	assert(IsValid(force) && force >= 0, "Must be positive")
	joint.maxForce = force
}

func (joint *MotorJoint) SetMaxTorque(torque float32) {
	assert(IsValid(torque) && torque >= 0, "Must be positive")
	joint.maxTorque = torque
}

func (joint *MotorJoint) SetCorrectionFactor(factor float32) {
	assert(IsValid(factor) && factor >= 0 && factor <= 1, "correction factor outside [0,1]")
	joint.correctionFactor = factor
}
