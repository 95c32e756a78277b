package b2

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// DistanceJointDef keeps two anchor points at a fixed distance, within a
// [MinLength, MaxLength] range, or joined by a spring when Stiffness > 0.
type DistanceJointDef struct {
	JointDefBase
	LocalAnchorA, LocalAnchorB Vector
	Length                     float32
	MinLength, MaxLength       float32
	// Stiffness in N/m, zero for a rigid rod.
	Stiffness float32
	Damping   float32
}

// NewDistanceJointDef joins two world anchors at their current distance.
func NewDistanceJointDef(a, b Body, anchorA, anchorB Vector) DistanceJointDef {
	length := max(anchorB.Sub(anchorA).Length(), LINEAR_SLOP)
	return DistanceJointDef{
		JointDefBase: JointDefBase{BodyA: a, BodyB: b},
		LocalAnchorA: a.GetLocalPoint(anchorA),
		LocalAnchorB: b.GetLocalPoint(anchorB),
		Length:       length,
		MinLength:    length,
		MaxLength:    length,
	}
}

func (def *DistanceJointDef) kind() JointKind {
	return JOINT_DISTANCE
}

func (def *DistanceJointDef) validate() error {
	if err := validLocalAnchors(def.LocalAnchorA, def.LocalAnchorB); err != nil {
		return err
	}
	if err := validJointValues(def.Length, def.MinLength, def.Stiffness, def.Damping); err != nil {
		return err
	}
	if math32.IsNaN(def.MaxLength) {
		return errors.Wrap(ErrInvalidJoint, "NaN max length")
	}
	if def.Length < 0 || def.MinLength < 0 || def.MaxLength < def.MinLength {
		return errors.Wrapf(ErrInvalidJoint, "bad lengths %v [%v, %v]", def.Length, def.MinLength, def.MaxLength)
	}
	if def.Stiffness < 0 || def.Damping < 0 {
		return errors.Wrap(ErrInvalidJoint, "negative spring coefficients")
	}
	return nil
}

func (def *DistanceJointDef) create(j *joint) Constrainer {
	joint := &DistanceJoint{
		joint:        j,
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		length:       max(def.Length, LINEAR_SLOP),
		minLength:    max(def.MinLength, LINEAR_SLOP),
		stiffness:    def.Stiffness,
		damping:      def.Damping,
	}
	joint.maxLength = max(def.MaxLength, joint.minLength)
	return joint
}

type DistanceJoint struct {
	*joint

	localAnchorA, localAnchorB Vector
	length                     float32
	minLength, maxLength       float32
	stiffness, damping         float32

	impulse, lowerImpulse, upperImpulse float32

	u, rA, rB     Vector
	currentLength float32
	mass          float32
	softMass      float32
	gamma, bias   float32
}

func (joint *DistanceJoint) PreStep(data *solverData) {
	joint.prepare()
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	cA, aA := data.positions[iA].c, data.positions[iA].a
	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	cB, aB := data.positions[iB].c, data.positions[iB].a
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	qA, qB := NewRot(aA), NewRot(aB)
	joint.rA = qA.Rotate(joint.localAnchorA.Sub(joint.localCenterA))
	joint.rB = qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))
	joint.u = cB.Add(joint.rB).Sub(cA).Sub(joint.rA)

	joint.currentLength = joint.u.Length()
	if joint.currentLength > LINEAR_SLOP {
		joint.u = joint.u.Mult(1 / joint.currentLength)
	} else {
		joint.u = Vector{}
		joint.mass = 0
		joint.impulse = 0
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}

	crAu := joint.rA.Cross(joint.u)
	crBu := joint.rB.Cross(joint.u)
	invMass := mA + IA*crAu*crAu + mB + IB*crBu*crBu
	if invMass != 0 {
		joint.mass = 1 / invMass
	} else {
		joint.mass = 0
	}

	if joint.stiffness > 0 && joint.minLength < joint.maxLength {
		C := joint.currentLength - joint.length
		var biasRate float32
		joint.gamma, biasRate = softness(joint.stiffness, joint.damping, data.step.dt)
		joint.bias = C * biasRate

		invMass += joint.gamma
		if invMass != 0 {
			joint.softMass = 1 / invMass
		} else {
			joint.softMass = 0
		}
	} else {
		// rigid
		joint.gamma = 0
		joint.bias = 0
		joint.softMass = joint.mass
	}

	if data.step.warmStarting {
		joint.impulse *= data.step.dtRatio
		joint.lowerImpulse *= data.step.dtRatio
		joint.upperImpulse *= data.step.dtRatio

		P := joint.u.Mult(joint.impulse + joint.lowerImpulse - joint.upperImpulse)
		vA = vA.Sub(P.Mult(mA))
		wA -= IA * joint.rA.Cross(P)
		vB = vB.Add(P.Mult(mB))
		wB += IB * joint.rB.Cross(P)
	} else {
		joint.impulse = 0
		joint.lowerImpulse = 0
		joint.upperImpulse = 0
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *DistanceJoint) ApplyImpulse(data *solverData) {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	vA, wA := data.velocities[iA].v, data.velocities[iA].w
	vB, wB := data.velocities[iB].v, data.velocities[iB].w

	apply := func(impulse float32) {
		P := joint.u.Mult(impulse)
		vA = vA.Sub(P.Mult(mA))
		wA -= IA * joint.rA.Cross(P)
		vB = vB.Add(P.Mult(mB))
		wB += IB * joint.rB.Cross(P)
	}
	cdot := func() float32 {
		vpA := vA.Add(CrossSV(wA, joint.rA))
		vpB := vB.Add(CrossSV(wB, joint.rB))
		return joint.u.Dot(vpB.Sub(vpA))
	}

	if joint.minLength < joint.maxLength {
		if joint.stiffness > 0 {
			// spring
			impulse := -joint.softMass * (cdot() + joint.bias + joint.gamma*joint.impulse)
			joint.impulse += impulse
			apply(impulse)
		}

		// lower
		{
			C := joint.currentLength - joint.minLength
			bias := max(0, C) * data.step.invDt
			impulse := -joint.mass * (cdot() + bias)
			old := joint.lowerImpulse
			joint.lowerImpulse = max(0, joint.lowerImpulse+impulse)
			apply(joint.lowerImpulse - old)
		}

		// upper
		{
			C := joint.maxLength - joint.currentLength
			bias := max(0, C) * data.step.invDt
			impulse := -joint.mass * (-cdot() + bias)
			old := joint.upperImpulse
			joint.upperImpulse = max(0, joint.upperImpulse+impulse)
			apply(-(joint.upperImpulse - old))
		}
	} else {
		// equal limits
		impulse := -joint.mass * cdot()
		joint.impulse += impulse
		apply(impulse)
	}

	data.velocities[iA] = velocity{vA, wA}
	data.velocities[iB] = velocity{vB, wB}
}

func (joint *DistanceJoint) SolvePosition(data *solverData) bool {
	iA, iB := joint.indexA, joint.indexB
	mA, mB := joint.invMassA, joint.invMassB
	IA, IB := joint.invIA, joint.invIB

	cA, aA := data.positions[iA].c, data.positions[iA].a
	cB, aB := data.positions[iB].c, data.positions[iB].a

	qA, qB := NewRot(aA), NewRot(aB)
	rA := qA.Rotate(joint.localAnchorA.Sub(joint.localCenterA))
	rB := qB.Rotate(joint.localAnchorB.Sub(joint.localCenterB))
	length, u := cB.Add(rB).Sub(cA).Sub(rA).GetLengthAndNormalize()

	var C float32
	switch {
	case joint.minLength == joint.maxLength:
		C = length - joint.minLength
	case length < joint.minLength:
		C = length - joint.minLength
	case joint.maxLength < length:
		C = length - joint.maxLength
	default:
		return true
	}

	impulse := -joint.mass * C
	P := u.Mult(impulse)

	cA = cA.Sub(P.Mult(mA))
	aA -= IA * rA.Cross(P)
	cB = cB.Add(P.Mult(mB))
	aB += IB * rB.Cross(P)

	data.positions[iA] = position{cA, aA}
	data.positions[iB] = position{cB, aB}

	return math32.Abs(C) < LINEAR_SLOP
}

func (joint *DistanceJoint) AnchorA() Vector {
	return joint.a().xf.Point(joint.localAnchorA)
}

func (joint *DistanceJoint) AnchorB() Vector {
	return joint.b().xf.Point(joint.localAnchorB)
}

func (joint *DistanceJoint) ReactionForce(invDt float32) Vector {
	return joint.u.Mult(invDt * (joint.impulse + joint.lowerImpulse - joint.upperImpulse))
}

func (joint *DistanceJoint) ReactionTorque(float32) float32 {
	return 0
}

func (joint *DistanceJoint) Length() float32 {
	return joint.length
}

// SetLength changes the rest length and clears the spring impulse.
func (joint *DistanceJoint) SetLength(length float32) {
	joint.impulse = 0
	joint.length = max(length, LINEAR_SLOP)
	joint.ActivateBodies()
}

func (joint *DistanceJoint) MinLength() float32 {
	return joint.minLength
}

func (joint *DistanceJoint) MaxLength() float32 {
	return joint.maxLength
}

// SetLimits sets the allowed length range.
func (joint *DistanceJoint) SetLimits(minLength, maxLength float32) {
	assert(minLength <= maxLength, "min length above max length")
	joint.lowerImpulse = 0
	joint.upperImpulse = 0
	joint.minLength = max(minLength, LINEAR_SLOP)
	joint.maxLength = max(maxLength, joint.minLength)
	joint.ActivateBodies()
}

func (joint *DistanceJoint) CurrentLength() float32 {
	return joint.AnchorB().Distance(joint.AnchorA())
}

func (joint *DistanceJoint) Stiffness() float32 {
	return joint.stiffness
}

func (joint *DistanceJoint) SetStiffness(stiffness float32) {
	assert(stiffness >= 0, "Must be positive")
	joint.stiffness = stiffness
	joint.ActivateBodies()
}

func (joint *DistanceJoint) Damping() float32 {
	return joint.damping
}

func (joint *DistanceJoint) SetDamping(damping float32) {
	assert(damping >= 0, "Must be positive")
	joint.damping = damping
	joint.ActivateBodies()
}
