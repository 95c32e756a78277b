package b2

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// PrismaticJointDef lets body B slide along an axis fixed in body A, with
// no relative rotation.
type PrismaticJointDef struct {
	JointDefBase
	LocalAnchorA, LocalAnchorB Vector
	// LocalAxisA is the unit slide axis in the frame of A.
	LocalAxisA     Vector
	ReferenceAngle float32

	EnableLimit                        bool
	LowerTranslation, UpperTranslation float32

	EnableMotor   bool
	MaxMotorForce float32
	MotorSpeed    float32
}

// NewPrismaticJointDef sets up a slide along a world axis through a world anchor.
func NewPrismaticJointDef(a, b Body, anchor, axis Vector) PrismaticJointDef {
	return PrismaticJointDef{
		JointDefBase:   JointDefBase{BodyA: a, BodyB: b},
		LocalAnchorA:   a.GetLocalPoint(anchor),
		LocalAnchorB:   b.GetLocalPoint(anchor),
		LocalAxisA:     a.GetLocalVector(axis).Normalize(),
		ReferenceAngle: b.Angle() - a.Angle(),
	}
}

func (def *PrismaticJointDef) kind() JointKind {
	return JOINT_PRISMATIC
}

func (def *PrismaticJointDef) validate() error {
	if err := validLocalAnchors(def.LocalAnchorA, def.LocalAnchorB); err != nil {
		return err
	}
	if err := validJointValues(def.LocalAxisA.X, def.LocalAxisA.Y, def.ReferenceAngle,
		def.LowerTranslation, def.UpperTranslation, def.MaxMotorForce, def.MotorSpeed); err != nil {
		return err
	}
	if def.LocalAxisA.Length() < LINEAR_SLOP {
		return errors.Wrap(ErrInvalidJoint, "zero slide axis")
	}
	if def.LowerTranslation > def.UpperTranslation {
		return errors.Wrapf(ErrInvalidJoint, "lower translation %v above upper %v", def.LowerTranslation, def.UpperTranslation)
	}
	if def.MaxMotorForce < 0 {
		return errors.Wrap(ErrInvalidJoint, "negative motor force")
	}
	return nil
}

func (def *PrismaticJointDef) create(j *joint) Constrainer {
	axis := def.LocalAxisA.Normalize()
	return &PrismaticJoint{
		joint:            j,
		localAnchorA:     def.LocalAnchorA,
		localAnchorB:     def.LocalAnchorB,
		localXAxisA:      axis,
		localYAxisA:      CrossSV(1, axis),
		referenceAngle:   def.ReferenceAngle,
		enableLimit:      def.EnableLimit,
		lowerTranslation: def.LowerTranslation,
		upperTranslation: def.UpperTranslation,
		enableMotor:      def.EnableMotor,
		maxMotorForce:    def.MaxMotorForce,
		motorSpeed:       def.MotorSpeed,
	}
}

type PrismaticJoint struct {
	*joint

	localAnchorA, localAnchorB Vector
	localXAxisA, localYAxisA   Vector
	referenceAngle             float32

	enableLimit                        bool
	lowerTranslation, upperTranslation float32

	enableMotor   bool
	maxMotorForce float32
	motorSpeed    float32

	// perpendicular and angular
	impulse      Vector
	motorImpulse float32
	lowerImpulse float32
	upperImpulse float32

	axis, perp  Vector
	s1, s2      float32
	a1, a2      float32
	K           Mat22
	translation float32
	axialMass   float32
}

func (joint *PrismaticJoint) PreStep(data *solverData) {
	joint.prepare()
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	cA, aA := data.positions[iA].c, data.positions[iA].a
	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	cB, aB := data.positions[iB].c, data.positions[iB].a
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	qA, qB := NewRot(aA), NewRot(aB)
	rA := qA.Rotate(joint.localAnchorA.Sub(joint.localCenterA))
	rB := qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))
	d := cB.Sub(cA).Add(rB).Sub(rA)

	// motor and limit
	joint.axis = qA.Rotate(joint.localXAxisA)
	joint.a1 = d.Add(rA).Cross(joint.axis)
	joint.a2 = rB.Cross(joint.axis)

	joint.axialMass = mA + mB + IA*joint.a1*joint.a1 + IB*joint.a2*joint.a2
	if joint.axialMass > 0 {
		joint.axialMass = 1 / joint.axialMass
	}

	// prismatic constraint
	joint.perp = qA.Rotate(joint.localYAxisA)
	joint.s1 = d.Add(rA).Cross(joint.perp)
	joint.s2 = rB.Cross(joint.perp)

	k11 := mA + mB + IA*joint.s1*joint.s1 + IB*joint.s2*joint.s2
	k12 := IA*joint.s1 + IB*joint.s2
	k22 := IA + IB
	if k22 == 0 {
		// both bodies have fixed rotation
		k22 = 1
	}
	joint.K = Mat22{Vector{k11, k12}, Vector{k12, k22}}

	if joint.enableLimit {
		joint.translation = joint.axis.Dot(d)
	} else {
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}
	if !joint.enableMotor {
		joint.motorImpulse = 0
	}

	if data.step.warmStarting {
		ratio := data.step.dtRatio
		joint.impulse = joint.impulse.Mult(ratio)
		joint.motorImpulse *= ratio
		joint.lowerImpulse *= ratio
		joint.upperImpulse *= ratio

		axialImpulse := joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse
		P := joint.perp.Mult(joint.impulse.X).Add(joint.axis.Mult(axialImpulse))
		LA := joint.impulse.X*joint.s1 + joint.impulse.Y + axialImpulse*joint.a1
		LB := joint.impulse.X*joint.s2 + joint.impulse.Y + axialImpulse*joint.a2

		vA = vA.Sub(P.Mult(mA))
		wA -= IA * LA
		vB = vB.Add(P.Mult(mB))
		wB += IB * LB
	} else {
		joint.impulse = Vector{}
		joint.motorImpulse = 0
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *PrismaticJoint) ApplyImpulse(data *solverData) {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	applyAxial := func(impulse float32) {
		P := joint.axis.Mult(impulse)
		vA = vA.Sub(P.Mult(mA))
		wA -= IA * impulse * joint.a1
		vB = vB.Add(P.Mult(mB))
		wB += IB * impulse * joint.a2
	}
	axialSpeed := func() float32 {
		return joint.axis.Dot(vB.Sub(vA)) + joint.a2*wB - joint.a1*wA
	}

	if joint.enableMotor {
		Cdot := axialSpeed()
		impulse := joint.axialMass * (joint.motorSpeed - Cdot)
		old := joint.motorImpulse
		maxImpulse := data.step.dt * joint.maxMotorForce
		joint.motorImpulse = Clamp(old+impulse, -maxImpulse, maxImpulse)
		applyAxial(joint.motorImpulse - old)
	}

	if joint.enableLimit {
		// lower limit
		{
			C := joint.translation - joint.lowerTranslation
			impulse := -joint.axialMass * (axialSpeed() + max(C, 0)*data.step.invDt)
			old := joint.lowerImpulse
			joint.lowerImpulse = max(old+impulse, 0)
			applyAxial(joint.lowerImpulse - old)
		}

		// upper limit, signs flipped so the accumulated impulse stays positive
		{
			C := joint.upperTranslation - joint.translation
			impulse := -joint.axialMass * (-axialSpeed() + max(C, 0)*data.step.invDt)
			old := joint.upperImpulse
			joint.upperImpulse = max(old+impulse, 0)
			applyAxial(-(joint.upperImpulse - old))
		}
	}

	// solve the prismatic constraint in block form
	{
		Cdot := Vector{
			joint.perp.Dot(vB.Sub(vA)) + joint.s2*wB - joint.s1*wA,
			wB - wA,
		}

		df := joint.K.Solve(Cdot.Neg())
		joint.impulse = joint.impulse.Add(df)

		P := joint.perp.Mult(df.X)
		LA := df.X*joint.s1 + df.Y
		LB := df.X*joint.s2 + df.Y

		vA = vA.Sub(P.Mult(mA))
		wA -= IA * LA
		vB = vB.Add(P.Mult(mB))
		wB += IB * LB
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *PrismaticJoint) SolvePosition(data *solverData) bool {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	cA, aA := data.positions[iA].c, data.positions[iA].a
	cB, aB := data.positions[iB].c, data.positions[iB].a

	qA, qB := NewRot(aA), NewRot(aB)
	rA := qA.Rotate(joint.localAnchorA.Sub(joint.localCenterA))
	rB := qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))
	d := cB.Add(rB).Sub(cA).Sub(rA)

	axis := qA.Rotate(joint.localXAxisA)
	a1 := d.Add(rA).Cross(axis)
	a2 := rB.Cross(axis)
	perp := qA.Rotate(joint.localYAxisA)

	s1 := d.Add(rA).Cross(perp)
	s2 := rB.Cross(perp)

	C1 := Vector{perp.Dot(d), aB - aA - joint.referenceAngle}

	linearError := math32.Abs(C1.X)
	angularError := math32.Abs(C1.Y)

	active := false
	var C2 float32
	if joint.enableLimit {
		translation := axis.Dot(d)
		switch {
		case math32.Abs(joint.upperTranslation-joint.lowerTranslation) < 2*LINEAR_SLOP:
			C2 = translation - joint.lowerTranslation
			linearError = max(linearError, math32.Abs(C2))
			active = true
		case translation <= joint.lowerTranslation:
			C2 = min(translation-joint.lowerTranslation, 0)
			linearError = max(linearError, joint.lowerTranslation-translation)
			active = true
		case translation >= joint.upperTranslation:
			C2 = max(translation-joint.upperTranslation, 0)
			linearError = max(linearError, translation-joint.upperTranslation)
			active = true
		}
	}

	k11 := mA + mB + IA*s1*s1 + IB*s2*s2
	k12 := IA*s1 + IB*s2
	k22 := IA + IB
	if k22 == 0 {
		k22 = 1
	}

	var impulse Vec3
	if active {
		k13 := IA*s1*a1 + IB*s2*a2
		k23 := IA*a1 + IB*a2
		k33 := mA + mB + IA*a1*a1 + IB*a2*a2

		K := Mat33{
			Ex: Vec3{k11, k12, k13},
			Ey: Vec3{k12, k22, k23},
			Ez: Vec3{k13, k23, k33},
		}
		impulse = K.Solve33(Vec3{C1.X, C1.Y, C2}.Neg())
	} else {
		K := Mat22{Vector{k11, k12}, Vector{k12, k22}}
		impulse1 := K.Solve(C1.Neg())
		impulse = Vec3{impulse1.X, impulse1.Y, 0}
	}

	P := perp.Mult(impulse.X).Add(axis.Mult(impulse.Z))
	LA := impulse.X*s1 + impulse.Y + impulse.Z*a1
	LB := impulse.X*s2 + impulse.Y + impulse.Z*a2

	cA = cA.Sub(P.Mult(mA))
	aA -= IA * LA
	cB = cB.Add(P.Mult(mB))
	aB += IB * LB

	data.positions[iA] = position{cA, aA}
	data.positions[iB] = position{cB, aB}

	return linearError <= LINEAR_SLOP && angularError <= ANGULAR_SLOP
}

func (joint *PrismaticJoint) AnchorA() Vector {
	return joint.a().xf.Point(joint.localAnchorA)
}

func (joint *PrismaticJoint) AnchorB() Vector {
	return joint.b().xf.Point(joint.localAnchorB)
}

func (joint *PrismaticJoint) ReactionForce(invDt float32) Vector {
	axial := joint.motorImpulse + joint.lowerImpulse - joint.upperImpulse
	return joint.perp.Mult(joint.impulse.X).Add(joint.axis.Mult(axial)).Mult(invDt)
}

func (joint *PrismaticJoint) ReactionTorque(invDt float32) float32 {
	return invDt * joint.impulse.Y
}

// JointTranslation is the offset of anchor B from anchor A along the axis.
func (joint *PrismaticJoint) JointTranslation() float32 {
	bA := joint.a()
	pA := bA.xf.Point(joint.localAnchorA)
	pB := joint.b().xf.Point(joint.localAnchorB)
	axis := bA.xf.Q.Rotate(joint.localXAxisA)
	return pB.Sub(pA).Dot(axis)
}

func (joint *PrismaticJoint) JointSpeed() float32 {
	bA := joint.a()
	bB := joint.b()

	rA := bA.xf.Q.Rotate(joint.localAnchorA.Sub(bA.sweep.LocalCenter))
	rB := bB.xf.Q.Rotate(joint.localAnchorB.Sub(bB.sweep.LocalCenter))
	p1 := bA.sweep.C.Add(rA)
	p2 := bB.sweep.C.Add(rB)
	d := p2.Sub(p1)
	axis := bA.xf.Q.Rotate(joint.localXAxisA)

	vA, wA := bA.linearVelocity, bA.angularVelocity
	vB, wB := bB.linearVelocity, bB.angularVelocity

	return d.Dot(CrossSV(wA, axis)) +
		axis.Dot(vB.Add(CrossSV(wB, rB)).Sub(vA).Sub(CrossSV(wA, rA)))
}

func (joint *PrismaticJoint) IsLimitEnabled() bool {
	return joint.enableLimit
}

func (joint *PrismaticJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.ActivateBodies()
		joint.enableLimit = flag
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}
}

func (joint *PrismaticJoint) Limits() (lower, upper float32) {
	return joint.lowerTranslation, joint.upperTranslation
}

func (joint *PrismaticJoint) SetLimits(lower, upper float32) {
	assert(lower <= upper, "lower limit above upper limit")
	if lower != joint.lowerTranslation || upper != joint.upperTranslation {
		joint.ActivateBodies()
		joint.lowerTranslation = lower
		joint.upperTranslation = upper
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}
}

func (joint *PrismaticJoint) IsMotorEnabled() bool {
	return joint.enableMotor
}

func (joint *PrismaticJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.ActivateBodies()
		joint.enableMotor = flag
	}
}

func (joint *PrismaticJoint) MotorSpeed() float32 {
	return joint.motorSpeed
}

func (joint *PrismaticJoint) SetMotorSpeed(speed float32) {
	if speed != joint.motorSpeed {
		joint.ActivateBodies()
		joint.motorSpeed = speed
	}
}

func (joint *PrismaticJoint) SetMaxMotorForce(force float32) {
	assert(force >= 0, "Must be positive")
	if force != joint.maxMotorForce {
		joint.ActivateBodies()
		joint.maxMotorForce = force
	}
}

func (joint *PrismaticJoint) MotorForce(invDt float32) float32 {
	return invDt * joint.motorImpulse
}
