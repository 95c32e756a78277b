package b2

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// RevoluteJointDef pins two bodies together at a shared point, with an
// optional angle limit and motor.
type RevoluteJointDef struct {
	JointDefBase
	LocalAnchorA, LocalAnchorB Vector
	// ReferenceAngle is the angle of B minus the angle of A at rest.
	ReferenceAngle float32

	EnableLimit            bool
	LowerAngle, UpperAngle float32

	EnableMotor    bool
	MotorSpeed     float32
	MaxMotorTorque float32
}

// NewRevoluteJointDef pins two bodies at a world point.
func NewRevoluteJointDef(a, b Body, pivot Vector) RevoluteJointDef {
	return RevoluteJointDef{
		JointDefBase:   JointDefBase{BodyA: a, BodyB: b},
		LocalAnchorA:   a.GetLocalPoint(pivot),
		LocalAnchorB:   b.GetLocalPoint(pivot),
		ReferenceAngle: b.Angle() - a.Angle(),
	}
}

func (def *RevoluteJointDef) kind() JointKind {
	return JOINT_REVOLUTE
}

func (def *RevoluteJointDef) validate() error {
	if err := validLocalAnchors(def.LocalAnchorA, def.LocalAnchorB); err != nil {
		return err
	}
	if err := validJointValues(def.ReferenceAngle, def.LowerAngle, def.UpperAngle, def.MotorSpeed, def.MaxMotorTorque); err != nil {
		return err
	}
	if def.LowerAngle > def.UpperAngle {
		return errors.Wrapf(ErrInvalidJoint, "lower angle %v above upper angle %v", def.LowerAngle, def.UpperAngle)
	}
	if def.MaxMotorTorque < 0 {
		return errors.Wrap(ErrInvalidJoint, "negative motor torque")
	}
	return nil
}

func (def *RevoluteJointDef) create(j *joint) Constrainer {
	return &RevoluteJoint{
		joint:          j,
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		enableLimit:    def.EnableLimit,
		lowerAngle:     def.LowerAngle,
		upperAngle:     def.UpperAngle,
		enableMotor:    def.EnableMotor,
		motorSpeed:     def.MotorSpeed,
		maxMotorTorque: def.MaxMotorTorque,
	}
}

type RevoluteJoint struct {
	*joint

	localAnchorA, localAnchorB Vector
	referenceAngle             float32

	enableLimit            bool
	lowerAngle, upperAngle float32

	enableMotor    bool
	motorSpeed     float32
	maxMotorTorque float32

	impulse      Vector
	motorImpulse float32
	lowerImpulse float32
	upperImpulse float32

	rA, rB    Vector
	K         Mat22
	angle     float32
	axialMass float32
}

func pointMass(mA, mB, iA, iB float32, rA, rB Vector) Mat22 {
	var K Mat22
	K.Ex.X = mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	K.Ey.X = -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	K.Ex.Y = K.Ey.X
	K.Ey.Y = mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	return K
}

func (joint *RevoluteJoint) PreStep(data *solverData) {
	joint.prepare()
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	aA := data.positions[iA].a
	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	aB := data.positions[iB].a
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	qA, qB := NewRot(aA), NewRot(aB)
	joint.rA = qA.Rotate(joint.localAnchorA.Sub(joint.localCenterA))
	joint.rB = qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))

	joint.K = pointMass(mA, mB, IA, IB, joint.rA, joint.rB)

	joint.axialMass = IA + IB
	fixedRotation := joint.axialMass == 0
	if joint.axialMass > 0 {
		joint.axialMass = 1 / joint.axialMass
	}

	joint.angle = aB - aA - joint.referenceAngle
	if !joint.enableLimit || fixedRotation {
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}
	if !joint.enableMotor || fixedRotation {
		joint.motorImpulse = 0
	}

	if data.step.warmStarting {
		ratio := data.step.dtRatio
		joint.impulse = joint.impulse.Mult(ratio)
		joint.motorImpulse *= ratio
		joint.lowerImpulse *= ratio
		joint.upperImpulse *= ratio

		axialImpulse := joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse
		P := joint.impulse

		vA = vA.Sub(P.Mult(mA))
		wA -= IA * (joint.rA.Cross(P) + axialImpulse)
		vB = vB.Add(P.Mult(mB))
		wB += IB * (joint.rB.Cross(P) + axialImpulse)
	} else {
		joint.impulse = Vector{}
		joint.motorImpulse = 0
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *RevoluteJoint) ApplyImpulse(data *solverData) {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	fixedRotation := IA+IB == 0

	if joint.enableMotor && !fixedRotation {
		Cdot := wB - wA - joint.motorSpeed
		impulse := -joint.axialMass * Cdot
		old := joint.motorImpulse
		maxImpulse := data.step.dt * joint.maxMotorTorque
		joint.motorImpulse = Clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - old

		wA -= IA * impulse
		wB += IB * impulse
	}

	if joint.enableLimit && !fixedRotation {
		// lower limit
		{
			C := joint.angle - joint.lowerAngle
			Cdot := wB - wA
			impulse := -joint.axialMass * (Cdot + max(C, 0)*data.step.invDt)
			old := joint.lowerImpulse
			joint.lowerImpulse = max(old+impulse, 0)
			impulse = joint.lowerImpulse - old

			wA -= IA * impulse
			wB += IB * impulse
		}

		// upper limit, signs flipped so the accumulated impulse stays positive
		{
			C := joint.upperAngle - joint.angle
			Cdot := wA - wB
			impulse := -joint.axialMass * (Cdot + max(C, 0)*data.step.invDt)
			old := joint.upperImpulse
			joint.upperImpulse = max(old+impulse, 0)
			impulse = joint.upperImpulse - old

			wA += IA * impulse
			wB -= IB * impulse
		}
	}

	// point to point
	{
		Cdot := vB.Add(CrossSV(wB, joint.rB)).Sub(vA).Sub(CrossSV(wA, joint.rA))
		impulse := joint.K.Solve(Cdot.Neg())

		joint.impulse = joint.impulse.Add(impulse)

		vA = vA.Sub(impulse.Mult(mA))
		wA -= IA * joint.rA.Cross(impulse)
		vB = vB.Add(impulse.Mult(mB))
		wB += IB * joint.rB.Cross(impulse)
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *RevoluteJoint) SolvePosition(data *solverData) bool {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	cA, aA := data.positions[iA].c, data.positions[iA].a
	cB, aB := data.positions[iB].c, data.positions[iB].a

	var angularError, positionError float32
	fixedRotation := IA+IB == 0

	if joint.enableLimit && !fixedRotation {
		angle := aB - aA - joint.referenceAngle
		var C float32
		switch {
		case math32.Abs(joint.upperAngle-joint.lowerAngle) < 2*ANGULAR_SLOP:
			// prevent large angular corrections
			C = Clamp(angle-joint.lowerAngle, -MAX_ANGULAR_CORRECTION, MAX_ANGULAR_CORRECTION)
		case angle <= joint.lowerAngle:
			// prevent large angular corrections and allow some slop
			C = Clamp(angle-joint.lowerAngle+ANGULAR_SLOP, -MAX_ANGULAR_CORRECTION, 0)
		case angle >= joint.upperAngle:
			C = Clamp(angle-joint.upperAngle-ANGULAR_SLOP, 0, MAX_ANGULAR_CORRECTION)
		}

		limitImpulse := -joint.axialMass * C
		aA -= IA * limitImpulse
		aB += IB * limitImpulse
		angularError = math32.Abs(C)
	}

	// point to point
	{
		qA, qB := NewRot(aA), NewRot(aB)
		rA := qA.Rotate(joint.localAnchorA.Sub(joint.localCenterA))
		rB := qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))

		C := cB.Add(rB).Sub(cA).Sub(rA)
		positionError = C.Length()

		K := pointMass(mA, mB, IA, IB, rA, rB)
		impulse := K.Solve(C).Neg()

		cA = cA.Sub(impulse.Mult(mA))
		aA -= IA * rA.Cross(impulse)
		cB = cB.Add(impulse.Mult(mB))
		aB += IB * rB.Cross(impulse)
	}

	data.positions[iA] = position{cA, aA}
	data.positions[iB] = position{cB, aB}

	return positionError <= LINEAR_SLOP && angularError <= ANGULAR_SLOP
}

func (joint *RevoluteJoint) AnchorA() Vector {
	return joint.a().xf.Point(joint.localAnchorA)
}

func (joint *RevoluteJoint) AnchorB() Vector {
	return joint.b().xf.Point(joint.localAnchorB)
}

func (joint *RevoluteJoint) ReactionForce(invDt float32) Vector {
	return joint.impulse.Mult(invDt)
}

func (joint *RevoluteJoint) ReactionTorque(invDt float32) float32 {
	return invDt * (joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse)
}

// JointAngle is the current angle of B relative to A, minus the reference angle.
func (joint *RevoluteJoint) JointAngle() float32 {
	return joint.b().sweep.A - joint.a().sweep.A - joint.referenceAngle
}

func (joint *RevoluteJoint) JointSpeed() float32 {
	return joint.b().angularVelocity - joint.a().angularVelocity
}

func (joint *RevoluteJoint) IsLimitEnabled() bool {
	return joint.enableLimit
}

func (joint *RevoluteJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.ActivateBodies()
		joint.enableLimit = flag
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}
}

func (joint *RevoluteJoint) Limits() (lower, upper float32) {
	return joint.lowerAngle, joint.upperAngle
}

func (joint *RevoluteJoint) SetLimits(lower, upper float32) {
	assert(lower <= upper, "lower limit above upper limit")
	if lower != joint.lowerAngle || upper != joint.upperAngle {
		joint.ActivateBodies()
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
		joint.lowerAngle = lower
		joint.upperAngle = upper
	}
}

func (joint *RevoluteJoint) IsMotorEnabled() bool {
	return joint.enableMotor
}

func (joint *RevoluteJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.ActivateBodies()
		joint.enableMotor = flag
	}
}

func (joint *RevoluteJoint) MotorSpeed() float32 {
	return joint.motorSpeed
}

func (joint *RevoluteJoint) SetMotorSpeed(speed float32) {
	if speed != joint.motorSpeed {
		joint.ActivateBodies()
		joint.motorSpeed = speed
	}
}

func (joint *RevoluteJoint) MaxMotorTorque() float32 {
	return joint.maxMotorTorque
}

func (joint *RevoluteJoint) SetMaxMotorTorque(torque float32) {
	assert(torque >= 0, "Must be positive")
	if torque != joint.maxMotorTorque {
		joint.ActivateBodies()
		joint.maxMotorTorque = torque
	}
}

// MotorTorque is the torque applied by the motor in the last step.
func (joint *RevoluteJoint) MotorTorque(invDt float32) float32 {
	return invDt * joint.motorImpulse
}
