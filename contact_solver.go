package b2

// the 2-point block solver gives up on ill-conditioned manifolds
const maxConditionNumber = 1000

type velocityConstraintPoint struct {
	rA, rB         Vector
	normalImpulse  float32
	tangentImpulse float32
	normalMass     float32
	tangentMass    float32
	velocityBias   float32
}

type contactVelocityConstraint struct {
	points       [MAX_MANIFOLD_POINTS]velocityConstraintPoint
	normal       Vector
	normalMass   Mat22
	K            Mat22
	indexA       int32
	indexB       int32
	invMassA     float32
	invMassB     float32
	invIA        float32
	invIB        float32
	friction     float32
	restitution  float32
	threshold    float32
	tangentSpeed float32
	pointCount   int
	contact      *Contact
}

type contactPositionConstraint struct {
	localPoints  [MAX_MANIFOLD_POINTS]Vector
	localNormal  Vector
	localPoint   Vector
	indexA       int32
	indexB       int32
	invMassA     float32
	invMassB     float32
	localCenterA Vector
	localCenterB Vector
	invIA        float32
	invIB        float32
	kind         ManifoldType
	radiusA      float32
	radiusB      float32
	pointCount   int
}

type contactSolver struct {
	step       timeStep
	positions  []position
	velocities []velocity
	pcs        []contactPositionConstraint
	vcs        []contactVelocityConstraint
}

func newContactSolver(w *World, contacts []int32, data *solverData) *contactSolver {
	cs := &contactSolver{
		step:       data.step,
		positions:  data.positions,
		velocities: data.velocities,
		pcs:        make([]contactPositionConstraint, len(contacts)),
		vcs:        make([]contactVelocityConstraint, len(contacts)),
	}

	for i, ci := range contacts {
		c := w.contacts.at(ci)
		fA := w.shapes.at(c.shapeA)
		fB := w.shapes.at(c.shapeB)
		bA := w.bodies.at(c.bodyA)
		bB := w.bodies.at(c.bodyB)
		m := &c.manifold

		assert(m.PointCount > 0, "solving a contact without points")

		vc := &cs.vcs[i]
		vc.friction = c.friction
		vc.restitution = c.restitution
		vc.threshold = w.restitutionThreshold
		vc.tangentSpeed = c.tangentSpeed
		vc.indexA = c.indexA
		vc.indexB = c.indexB
		vc.invMassA, vc.invIA = bA.solverMass()
		vc.invMassB, vc.invIB = bB.solverMass()
		vc.contact = c
		vc.pointCount = m.PointCount

		pc := &cs.pcs[i]
		pc.indexA = c.indexA
		pc.indexB = c.indexB
		pc.invMassA, pc.invIA = vc.invMassA, vc.invIA
		pc.invMassB, pc.invIB = vc.invMassB, vc.invIB
		pc.localCenterA = bA.sweep.LocalCenter
		pc.localCenterB = bB.sweep.LocalCenter
		pc.localNormal = m.LocalNormal
		pc.localPoint = m.LocalPoint
		pc.pointCount = m.PointCount
		pc.radiusA = fA.geom.skin()
		pc.radiusB = fB.geom.skin()
		pc.kind = m.Type

		for j := 0; j < m.PointCount; j++ {
			cp := &m.Points[j]
			vcp := &vc.points[j]
			if cs.step.warmStarting {
				vcp.normalImpulse = cs.step.dtRatio * cp.NormalImpulse
				vcp.tangentImpulse = cs.step.dtRatio * cp.TangentImpulse
			}
			pc.localPoints[j] = cp.LocalPoint
		}
	}
	return cs
}

func (cs *contactSolver) initializeVelocityConstraints() {
	for i := range cs.vcs {
		vc := &cs.vcs[i]
		pc := &cs.pcs[i]

		mA, mB := vc.invMassA, vc.invMassB
		iA, iB := vc.invIA, vc.invIB

		cA, aA := cs.positions[vc.indexA].c, cs.positions[vc.indexA].a
		vA, wA := cs.velocities[vc.indexA].v, cs.velocities[vc.indexA].w
		cB, aB := cs.positions[vc.indexB].c, cs.positions[vc.indexB].a
		vB, wB := cs.velocities[vc.indexB].v, cs.velocities[vc.indexB].w

		var xfA, xfB Transform
		xfA.Q = NewRot(aA)
		xfB.Q = NewRot(aB)
		xfA.P = cA.Sub(xfA.Q.Rotate(pc.localCenterA))
		xfB.P = cB.Sub(xfB.Q.Rotate(pc.localCenterB))

		var wm WorldManifold
		wm.Initialize(&vc.contact.manifold, xfA, pc.radiusA, xfB, pc.radiusB)

		vc.normal = wm.Normal
		tangent := CrossVS(vc.normal, 1)

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]

			vcp.rA = wm.Points[j].Sub(cA)
			vcp.rB = wm.Points[j].Sub(cB)

			rnA := vcp.rA.Cross(vc.normal)
			rnB := vcp.rB.Cross(vc.normal)
			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
			if kNormal > 0 {
				vcp.normalMass = 1 / kNormal
			} else {
				vcp.normalMass = 0
			}

			rtA := vcp.rA.Cross(tangent)
			rtB := vcp.rB.Cross(tangent)
			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
			if kTangent > 0 {
				vcp.tangentMass = 1 / kTangent
			} else {
				vcp.tangentMass = 0
			}

			// restitution bias from the approach speed before solving
			vcp.velocityBias = 0
			vRel := vc.normal.Dot(vB.Add(CrossSV(wB, vcp.rB)).Sub(vA).Sub(CrossSV(wA, vcp.rA)))
			if vRel < -vc.threshold {
				vcp.velocityBias = -vc.restitution * vRel
			}
		}

		if vc.pointCount == 2 {
			vcp1 := &vc.points[0]
			vcp2 := &vc.points[1]

			rn1A := vcp1.rA.Cross(vc.normal)
			rn1B := vcp1.rB.Cross(vc.normal)
			rn2A := vcp2.rA.Cross(vc.normal)
			rn2B := vcp2.rB.Cross(vc.normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			if k11*k11 < maxConditionNumber*(k11*k22-k12*k12) {
				vc.K.Ex = Vector{k11, k12}
				vc.K.Ey = Vector{k12, k22}
				vc.normalMass = vc.K.Inverse()
			} else {
				// nearly redundant points, solve only one
				vc.pointCount = 1
			}
		}
	}
}

func (cs *contactSolver) warmStart() {
	for i := range cs.vcs {
		vc := &cs.vcs[i]

		mA, mB := vc.invMassA, vc.invMassB
		iA, iB := vc.invIA, vc.invIB

		vA, wA := cs.velocities[vc.indexA].v, cs.velocities[vc.indexA].w
		vB, wB := cs.velocities[vc.indexB].v, cs.velocities[vc.indexB].w

		normal := vc.normal
		tangent := CrossVS(normal, 1)

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]
			P := normal.Mult(vcp.normalImpulse).Add(tangent.Mult(vcp.tangentImpulse))
			wA -= iA * vcp.rA.Cross(P)
			vA = vA.Sub(P.Mult(mA))
			wB += iB * vcp.rB.Cross(P)
			vB = vB.Add(P.Mult(mB))
		}

		cs.velocities[vc.indexA] = velocity{vA, wA}
		cs.velocities[vc.indexB] = velocity{vB, wB}
	}
}

// solveVelocityConstraints applies normal impulses first, then friction
// clamped by the normal impulse just computed.
func (cs *contactSolver) solveVelocityConstraints() {
	for i := range cs.vcs {
		vc := &cs.vcs[i]

		mA, mB := vc.invMassA, vc.invMassB
		iA, iB := vc.invIA, vc.invIB

		vA, wA := cs.velocities[vc.indexA].v, cs.velocities[vc.indexA].w
		vB, wB := cs.velocities[vc.indexB].v, cs.velocities[vc.indexB].w

		normal := vc.normal
		tangent := CrossVS(normal, 1)

		if vc.pointCount == 1 {
			vcp := &vc.points[0]

			dv := vB.Add(CrossSV(wB, vcp.rB)).Sub(vA).Sub(CrossSV(wA, vcp.rA))
			vn := dv.Dot(normal)

			lambda := -vcp.normalMass * (vn - vcp.velocityBias)
			newImpulse := max(vcp.normalImpulse+lambda, 0)
			lambda = newImpulse - vcp.normalImpulse
			vcp.normalImpulse = newImpulse

			P := normal.Mult(lambda)
			vA = vA.Sub(P.Mult(mA))
			wA -= iA * vcp.rA.Cross(P)
			vB = vB.Add(P.Mult(mB))
			wB += iB * vcp.rB.Cross(P)
		} else {
			vA, wA, vB, wB = cs.solveBlock(vc, vA, wA, vB, wB)
		}

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]

			dv := vB.Add(CrossSV(wB, vcp.rB)).Sub(vA).Sub(CrossSV(wA, vcp.rA))
			vt := dv.Dot(tangent) - vc.tangentSpeed
			lambda := vcp.tangentMass * -vt

			maxFriction := vc.friction * vcp.normalImpulse
			newImpulse := Clamp(vcp.tangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.tangentImpulse
			vcp.tangentImpulse = newImpulse

			P := tangent.Mult(lambda)
			vA = vA.Sub(P.Mult(mA))
			wA -= iA * vcp.rA.Cross(P)
			vB = vB.Add(P.Mult(mB))
			wB += iB * vcp.rB.Cross(P)
		}

		cs.velocities[vc.indexA] = velocity{vA, wA}
		cs.velocities[vc.indexB] = velocity{vB, wB}
	}
}

// solveBlock solves the 2-point normal LCP
//
//	vn = A * x + b, vn >= 0, x >= 0, vn_i * x_i = 0
//
// on the accumulated impulses, by enumerating the four complementarity cases.
func (cs *contactSolver) solveBlock(vc *contactVelocityConstraint, vA Vector, wA float32, vB Vector, wB float32) (Vector, float32, Vector, float32) {
	mA, mB := vc.invMassA, vc.invMassB
	iA, iB := vc.invIA, vc.invIB
	normal := vc.normal

	cp1 := &vc.points[0]
	cp2 := &vc.points[1]

	a := Vector{cp1.normalImpulse, cp2.normalImpulse}
	assert(a.X >= 0 && a.Y >= 0, "negative accumulated impulse")

	dv1 := vB.Add(CrossSV(wB, cp1.rB)).Sub(vA).Sub(CrossSV(wA, cp1.rA))
	dv2 := vB.Add(CrossSV(wB, cp2.rB)).Sub(vA).Sub(CrossSV(wA, cp2.rA))

	vn1 := dv1.Dot(normal)
	vn2 := dv2.Dot(normal)

	b := Vector{vn1 - cp1.velocityBias, vn2 - cp2.velocityBias}
	b = b.Sub(vc.K.MulV(a))

	apply := func(x Vector) {
		d := x.Sub(a)
		P1 := normal.Mult(d.X)
		P2 := normal.Mult(d.Y)
		vA = vA.Sub(P1.Add(P2).Mult(mA))
		wA -= iA * (cp1.rA.Cross(P1) + cp2.rA.Cross(P2))
		vB = vB.Add(P1.Add(P2).Mult(mB))
		wB += iB * (cp1.rB.Cross(P1) + cp2.rB.Cross(P2))
		cp1.normalImpulse = x.X
		cp2.normalImpulse = x.Y
	}

	// both points active
	x := vc.normalMass.MulV(b).Neg()
	if x.X >= 0 && x.Y >= 0 {
		apply(x)
		return vA, wA, vB, wB
	}

	// only the first point
	x = Vector{-cp1.normalMass * b.X, 0}
	vn2 = vc.K.Ex.Y*x.X + b.Y
	if x.X >= 0 && vn2 >= 0 {
		apply(x)
		return vA, wA, vB, wB
	}

	// only the second point
	x = Vector{0, -cp2.normalMass * b.Y}
	vn1 = vc.K.Ey.X*x.Y + b.X
	if x.Y >= 0 && vn1 >= 0 {
		apply(x)
		return vA, wA, vB, wB
	}

	// separating
	x = Vector{}
	vn1 = b.X
	vn2 = b.Y
	if vn1 >= 0 && vn2 >= 0 {
		apply(x)
	}
	return vA, wA, vB, wB
}

func (cs *contactSolver) storeImpulses() {
	for i := range cs.vcs {
		vc := &cs.vcs[i]
		m := &vc.contact.manifold
		for j := 0; j < vc.pointCount; j++ {
			m.Points[j].NormalImpulse = vc.points[j].normalImpulse
			m.Points[j].TangentImpulse = vc.points[j].tangentImpulse
		}
	}
}

func (cs *contactSolver) impulses(i int) ContactImpulse {
	vc := &cs.vcs[i]
	ci := ContactImpulse{Count: vc.pointCount}
	for j := 0; j < vc.pointCount; j++ {
		ci.NormalImpulses[j] = vc.points[j].normalImpulse
		ci.TangentImpulses[j] = vc.points[j].tangentImpulse
	}
	return ci
}

type positionSolverManifold struct {
	normal     Vector
	point      Vector
	separation float32
}

func (psm *positionSolverManifold) initialize(pc *contactPositionConstraint, xfA, xfB Transform, index int) {
	assert(pc.pointCount > 0, "empty position constraint")

	switch pc.kind {
	case MANIFOLD_CIRCLES:
		pointA := xfA.Point(pc.localPoint)
		pointB := xfB.Point(pc.localPoints[0])
		psm.normal = pointB.Sub(pointA).Normalize()
		psm.point = pointA.Add(pointB).Mult(0.5)
		psm.separation = pointB.Sub(pointA).Dot(psm.normal) - pc.radiusA - pc.radiusB

	case MANIFOLD_FACE_A:
		psm.normal = xfA.Q.Rotate(pc.localNormal)
		planePoint := xfA.Point(pc.localPoint)
		clipPoint := xfB.Point(pc.localPoints[index])
		psm.separation = clipPoint.Sub(planePoint).Dot(psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

	case MANIFOLD_FACE_B:
		psm.normal = xfB.Q.Rotate(pc.localNormal)
		planePoint := xfB.Point(pc.localPoint)
		clipPoint := xfA.Point(pc.localPoints[index])
		psm.separation = clipPoint.Sub(planePoint).Dot(psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

		// normal points from A to B
		psm.normal = psm.normal.Neg()
	}
}

// solvePositionConstraints pushes penetrating points apart and reports
// whether the worst separation is within tolerance.
func (cs *contactSolver) solvePositionConstraints() bool {
	var minSeparation float32

	for i := range cs.pcs {
		pc := &cs.pcs[i]

		indexA, indexB := pc.indexA, pc.indexB
		localCenterA, localCenterB := pc.localCenterA, pc.localCenterB

		mA, iA := pc.invMassA, pc.invIA
		mB, iB := pc.invMassB, pc.invIB

		cA, aA := cs.positions[indexA].c, cs.positions[indexA].a
		cB, aB := cs.positions[indexB].c, cs.positions[indexB].a

		for j := 0; j < pc.pointCount; j++ {
			var xfA, xfB Transform
			xfA.Q = NewRot(aA)
			xfB.Q = NewRot(aB)
			xfA.P = cA.Sub(xfA.Q.Rotate(localCenterA))
			xfB.P = cB.Sub(xfB.Q.Rotate(localCenterB))

			var psm positionSolverManifold
			psm.initialize(pc, xfA, xfB, j)
			normal := psm.normal

			rA := psm.point.Sub(cA)
			rB := psm.point.Sub(cB)

			minSeparation = min(minSeparation, psm.separation)

			// prevent large corrections and allow slop
			C := Clamp(BAUMGARTE*(psm.separation+LINEAR_SLOP), -MAX_LINEAR_CORRECTION, 0)

			rnA := rA.Cross(normal)
			rnB := rB.Cross(normal)
			K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			var impulse float32
			if K > 0 {
				impulse = -C / K
			}

			P := normal.Mult(impulse)

			cA = cA.Sub(P.Mult(mA))
			aA -= iA * rA.Cross(P)
			cB = cB.Add(P.Mult(mB))
			aB += iB * rB.Cross(P)
		}

		cs.positions[indexA] = position{cA, aA}
		cs.positions[indexB] = position{cB, aB}
	}

	// we can't expect minSeparation >= -LINEAR_SLOP because we don't push
	// the separation above -LINEAR_SLOP
	return minSeparation >= -3*LINEAR_SLOP
}
