package b2

import (
	"github.com/pkg/errors"
)

// WeldJointDef glues two bodies together. A positive Stiffness makes the
// angular part a spring.
type WeldJointDef struct {
	JointDefBase
	LocalAnchorA, LocalAnchorB Vector
	ReferenceAngle             float32
	// Stiffness in N·m, zero for a rigid weld.
	Stiffness float32
	Damping   float32
}

// NewWeldJointDef welds two bodies at a world anchor in their current pose.
func NewWeldJointDef(a, b Body, anchor Vector) WeldJointDef {
	return WeldJointDef{
		JointDefBase:   JointDefBase{BodyA: a, BodyB: b},
		LocalAnchorA:   a.GetLocalPoint(anchor),
		LocalAnchorB:   b.GetLocalPoint(anchor),
		ReferenceAngle: b.Angle() - a.Angle(),
	}
}

func (def *WeldJointDef) kind() JointKind {
	return JOINT_WELD
}

func (def *WeldJointDef) validate() error {
	if err := validLocalAnchors(def.LocalAnchorA, def.LocalAnchorB); err != nil {
		return err
	}
	if err := validJointValues(def.ReferenceAngle, def.Stiffness, def.Damping); err != nil {
		return err
	}
	if def.Stiffness < 0 || def.Damping < 0 {
		return errors.Wrap(ErrInvalidJoint, "negative spring coefficients")
	}
	return nil
}

func (def *WeldJointDef) create(j *joint) Constrainer {
	return &WeldJoint{
		joint:          j,
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		stiffness:      def.Stiffness,
		damping:        def.Damping,
	}
}

type WeldJoint struct {
	*joint

	localAnchorA, localAnchorB Vector
	referenceAngle             float32
	stiffness, damping         float32

	impulse Vec3

	rA, rB      Vector
	mass        Mat33
	gamma, bias float32
}

func weldMass(mA, mB, iA, iB float32, rA, rB Vector) Mat33 {
	var K Mat33
	K.Ex.X = mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	K.Ey.X = -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	K.Ez.X = -rA.Y*iA - rB.Y*iB
	K.Ex.Y = K.Ey.X
	K.Ey.Y = mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	K.Ez.Y = rA.X*iA + rB.X*iB
	K.Ex.Z = K.Ez.X
	K.Ey.Z = K.Ez.Y
	K.Ez.Z = iA + iB
	return K
}

func (joint *WeldJoint) PreStep(data *solverData) {
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

	K := weldMass(mA, mB, IA, IB, joint.rA, joint.rB)

	switch {
	case joint.stiffness > 0:
		joint.mass = K.GetInverse22()

		invM := IA + IB
		C := aB - aA - joint.referenceAngle
		var biasRate float32
		joint.gamma, biasRate = softness(joint.stiffness, joint.damping, data.step.dt)
		joint.bias = C * biasRate

		invM += joint.gamma
		if invM != 0 {
			joint.mass.Ez.Z = 1 / invM
		} else {
			joint.mass.Ez.Z = 0
		}
	case K.Ez.Z == 0:
		joint.mass = K.GetInverse22()
		joint.gamma = 0
		joint.bias = 0
	default:
		joint.mass = K.GetSymInverse33()
		joint.gamma = 0
		joint.bias = 0
	}

	if data.step.warmStarting {
		joint.impulse = joint.impulse.Mult(data.step.dtRatio)

		P := Vector{joint.impulse.X, joint.impulse.Y}
		vA = vA.Sub(P.Mult(mA))
		wA -= IA * (joint.rA.Cross(P) + joint.impulse.Z)
		vB = vB.Add(P.Mult(mB))
		wB += IB * (joint.rB.Cross(P) + joint.impulse.Z)
	} else {
		joint.impulse = Vec3{}
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *WeldJoint) ApplyImpulse(data *solverData) {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	if joint.stiffness > 0 {
		Cdot2 := wB - wA

		impulse2 := -joint.mass.Ez.Z * (Cdot2 + joint.bias + joint.gamma*joint.impulse.Z)
		joint.impulse.Z += impulse2

		wA -= IA * impulse2
		wB += IB * impulse2

		Cdot1 := vB.Add(CrossSV(wB, joint.rB)).Sub(vA).Sub(CrossSV(wA, joint.rA))

		impulse1 := joint.mass.MulV2(Cdot1).Neg()
		joint.impulse.X += impulse1.X
		joint.impulse.Y += impulse1.Y

		P := impulse1
		vA = vA.Sub(P.Mult(mA))
		wA -= IA * joint.rA.Cross(P)
		vB = vB.Add(P.Mult(mB))
		wB += IB * joint.rB.Cross(P)
	} else {
		Cdot1 := vB.Add(CrossSV(wB, joint.rB)).Sub(vA).Sub(CrossSV(wA, joint.rA))
		Cdot2 := wB - wA
		Cdot := Vec3{Cdot1.X, Cdot1.Y, Cdot2}

		impulse := joint.mass.MulV(Cdot).Neg()
		joint.impulse = joint.impulse.Add(impulse)

		P := Vector{impulse.X, impulse.Y}
		vA = vA.Sub(P.Mult(mA))
		wA -= IA * (joint.rA.Cross(P) + impulse.Z)
		vB = vB.Add(P.Mult(mB))
		wB += IB * (joint.rB.Cross(P) + impulse.Z)
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *WeldJoint) SolvePosition(data *solverData) bool {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	cA, aA := data.positions[iA].c, data.positions[iA].a
	cB, aB := data.positions[iB].c, data.positions[iB].a

	qA, qB := NewRot(aA), NewRot(aB)
	rA := qA.Rotate(joint.localAnchorA.Sub(joint.localCenterA))
	rB := qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))

	K := weldMass(mA, mB, IA, IB, rA, rB)

	var positionError, angularError float32

	if joint.stiffness > 0 {
		C1 := cB.Add(rB).Sub(cA).Sub(rA)
		positionError = C1.Length()

		P := K.Solve22(C1).Neg()
		cA = cA.Sub(P.Mult(mA))
		aA -= IA * rA.Cross(P)
		cB = cB.Add(P.Mult(mB))
		aB += IB * rB.Cross(P)
	} else {
		C1 := cB.Add(rB).Sub(cA).Sub(rA)
		C2 := aB - aA - joint.referenceAngle

		positionError = C1.Length()
		angularError = max(C2, -C2)

		var impulse Vec3
		if K.Ez.Z > 0 {
			impulse = K.Solve33(Vec3{C1.X, C1.Y, C2}).Neg()
		} else {
			impulse2 := K.Solve22(C1).Neg()
			impulse = Vec3{impulse2.X, impulse2.Y, 0}
		}

		P := Vector{impulse.X, impulse.Y}
		cA = cA.Sub(P.Mult(mA))
		aA -= IA * (rA.Cross(P) + impulse.Z)
		cB = cB.Add(P.Mult(mB))
		aB += IB * (rB.Cross(P) + impulse.Z)
	}

	data.positions[iA] = position{cA, aA}
	data.positions[iB] = position{cB, aB}

	return positionError <= LINEAR_SLOP && angularError <= ANGULAR_SLOP
}

func (joint *WeldJoint) AnchorA() Vector {
	return joint.a().xf.Point(joint.localAnchorA)
}

func (joint *WeldJoint) AnchorB() Vector {
	return joint.b().xf.Point(joint.localAnchorB)
}

func (joint *WeldJoint) ReactionForce(invDt float32) Vector {
	return Vector{joint.impulse.X, joint.impulse.Y}.Mult(invDt)
}

func (joint *WeldJoint) ReactionTorque(invDt float32) float32 {
	return invDt * joint.impulse.Z
}

func (joint *WeldJoint) SetStiffness(stiffness float32) {
	assert(stiffness >= 0, "Must be positive")
	joint.stiffness = stiffness
	joint.ActivateBodies()
}

func (joint *WeldJoint) SetDamping(damping float32) {
	assert(damping >= 0, "Must be positive")
	joint.damping = damping
	joint.ActivateBodies()
}
