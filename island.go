package b2

import (
	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"
)

// This is an internal structure.
type position struct {
	c Vector
	a float32
}

// This is an internal structure.
type velocity struct {
	v Vector
	w float32
}

type timeStep struct {
	dt      float32
	invDt   float32
	dtRatio float32 // dt * invDt0

	velocityIterations int
	positionIterations int
	warmStarting       bool
}

// solverData is shared by the contact solver and the joints of one island.
type solverData struct {
	step       timeStep
	positions  []position
	velocities []velocity
}

// island is a set of dynamic bodies connected by touching contacts and
// joints. Static, kinematic and frozen neighbors are copied into extras so
// islands never share writable state.
type island struct {
	stamp     int32
	bodies    []int32
	extras    []int32
	contacts  []int32
	joints    []int32
	keepAwake bool

	// filled by solve, consumed in island order afterwards
	impulses []ContactImpulse
	frozen   []int32
}

func (isl *island) addExtra(w *World, bi int32) {
	b := w.bodies.at(bi)
	if b.islandStamp == isl.stamp {
		return
	}
	b.islandStamp = isl.stamp
	b.islandLocal = int32(len(isl.extras))
	isl.extras = append(isl.extras, bi)
	if b.typ == BODY_KINEMATIC && b.isMoving() {
		isl.keepAwake = true
	}
}

// local maps a body to its slot in the island's solver arrays.
func (isl *island) local(w *World, bi int32) int32 {
	b := w.bodies.at(bi)
	if b.propagates() {
		return b.islandLocal
	}
	return int32(len(isl.bodies)) + b.islandLocal
}

// wakeKinematicNeighbors wakes dynamic bodies touching a moving kinematic
// body so a sleeping stack on a platform is carried along.
func (w *World) wakeKinematicNeighbors() {
	for bi := int32(0); bi < int32(len(w.bodies.items)); bi++ {
		if !w.bodies.live[bi] {
			continue
		}
		b := w.bodies.at(bi)
		if b.typ != BODY_KINEMATIC || !b.isMoving() {
			continue
		}
		for key := b.contactList; key != nullEdge; {
			c := w.contacts.at(edgeContact(key))
			e := c.edges[edgeSide(key)]
			if c.flags&contactTouching != 0 && c.flags&contactSensor == 0 {
				w.bodies.at(e.other).setAwake(true)
			}
			key = e.next
		}
	}
}

// buildIslands flood fills the constraint graph from every awake dynamic
// body using an explicit stack. The search does not cross static,
// kinematic or frozen bodies.
func (w *World) buildIslands() []*island {
	for bi := range w.bodies.items {
		w.bodies.items[bi].islandFlag = false
	}
	for ci := range w.contacts.items {
		w.contacts.items[ci].flags &^= contactIsland
	}
	for ji := range w.joints.items {
		if j := w.joints.items[ji]; j != nil {
			j.islandFlag = false
		}
	}

	var islands []*island
	stack := w.islandStack[:0]

	for seed := int32(0); seed < int32(len(w.bodies.items)); seed++ {
		if !w.bodies.live[seed] {
			continue
		}
		sb := w.bodies.at(seed)
		if sb.islandFlag || !sb.awake || !sb.propagates() {
			continue
		}

		w.islandCounter++
		isl := &island{stamp: w.islandCounter}

		stack = append(stack[:0], seed)
		sb.islandFlag = true

		for len(stack) > 0 {
			bi := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			b := w.bodies.at(bi)
			b.islandStamp = isl.stamp
			b.islandLocal = int32(len(isl.bodies))
			isl.bodies = append(isl.bodies, bi)
			b.setAwake(true)

			for key := b.contactList; key != nullEdge; {
				c := w.contacts.at(edgeContact(key))
				e := c.edges[edgeSide(key)]
				key = e.next

				if c.flags&contactIsland != 0 {
					continue
				}
				if c.flags&(contactEnabled|contactTouching) != contactEnabled|contactTouching {
					continue
				}
				if c.flags&contactSensor != 0 {
					continue
				}

				c.flags |= contactIsland
				isl.contacts = append(isl.contacts, c.index)

				other := w.bodies.at(e.other)
				if !other.propagates() {
					isl.addExtra(w, e.other)
					continue
				}
				if other.islandFlag {
					continue
				}
				other.islandFlag = true
				stack = append(stack, e.other)
			}

			for _, ji := range b.joints {
				j := *w.joints.at(ji)
				if j.islandFlag {
					continue
				}
				j.islandFlag = true
				isl.joints = append(isl.joints, ji)

				oi := j.bodyA
				if oi == bi {
					oi = j.bodyB
				}
				other := w.bodies.at(oi)
				if !other.propagates() {
					isl.addExtra(w, oi)
					continue
				}
				if other.islandFlag {
					continue
				}
				other.islandFlag = true
				stack = append(stack, oi)
			}
		}

		// extras are stamped for this island only, resolve indices now
		for _, ci := range isl.contacts {
			c := w.contacts.at(ci)
			c.indexA = isl.local(w, c.bodyA)
			c.indexB = isl.local(w, c.bodyB)
		}
		for _, ji := range isl.joints {
			j := *w.joints.at(ji)
			j.indexA = isl.local(w, j.bodyA)
			j.indexB = isl.local(w, j.bodyB)
		}

		islands = append(islands, isl)
	}

	w.islandStack = stack
	return islands
}

// solveIsland integrates one island. It writes only to the island's own
// dynamic bodies, contacts and joints, so islands may run concurrently.
func (w *World) solveIsland(isl *island, step timeStep, reportImpulses bool) {
	h := step.dt
	n := len(isl.bodies)
	positions := make([]position, n+len(isl.extras))
	velocities := make([]velocity, n+len(isl.extras))

	for i, bi := range isl.bodies {
		b := w.bodies.at(bi)
		b.solving = true

		c := b.sweep.C
		a := b.sweep.A
		v := b.linearVelocity
		av := b.angularVelocity

		b.sweep.C0 = c
		b.sweep.A0 = a

		v = v.Add(w.gravity.Mult(b.gravityScale * b.mass).Add(b.force).Mult(h * b.invMass))
		av += h * b.invI * b.torque

		// Pade approximation of exp(-h*d), stable for large damping
		v = v.Mult(1 / (1 + h*b.linearDamping))
		av *= 1 / (1 + h*b.angularDamping)

		positions[i] = position{c, a}
		velocities[i] = velocity{v, av}
	}
	for k, bi := range isl.extras {
		b := w.bodies.at(bi)
		positions[n+k] = position{b.sweep.C, b.sweep.A}
		if b.typ == BODY_KINEMATIC {
			velocities[n+k] = velocity{b.linearVelocity, b.angularVelocity}
		}
	}

	data := solverData{step: step, positions: positions, velocities: velocities}

	cs := newContactSolver(w, isl.contacts, &data)
	cs.initializeVelocityConstraints()
	cs.warmStart()

	for _, ji := range isl.joints {
		(*w.joints.at(ji)).class.PreStep(&data)
	}

	for i := 0; i < step.velocityIterations; i++ {
		for _, ji := range isl.joints {
			(*w.joints.at(ji)).class.ApplyImpulse(&data)
		}
		cs.solveVelocityConstraints()
	}

	cs.storeImpulses()

	for i := range positions {
		c, a := positions[i].c, positions[i].a
		v, av := velocities[i].v, velocities[i].w

		translation := v.Mult(h)
		if translation.Dot(translation) > maxTranslationSquared {
			v = v.Mult(MAX_TRANSLATION / translation.Length())
		}
		rotation := h * av
		if rotation*rotation > maxRotationSquared {
			av *= MAX_ROTATION / math32.Abs(rotation)
		}

		positions[i] = position{c.Add(v.Mult(h)), a + h*av}
		velocities[i] = velocity{v, av}
	}

	positionSolved := false
	for i := 0; i < step.positionIterations; i++ {
		contactsOkay := cs.solvePositionConstraints()

		jointsOkay := true
		for _, ji := range isl.joints {
			jointOkay := (*w.joints.at(ji)).class.SolvePosition(&data)
			jointsOkay = jointsOkay && jointOkay
		}

		if contactsOkay && jointsOkay {
			positionSolved = true
			break
		}
	}

	for i, bi := range isl.bodies {
		b := w.bodies.at(bi)
		b.sweep.C = positions[i].c
		b.sweep.A = positions[i].a
		b.linearVelocity = velocities[i].v
		b.angularVelocity = velocities[i].w

		if !b.sweep.C.IsValid() || !IsValid(b.sweep.A) || !b.linearVelocity.IsValid() || !IsValid(b.angularVelocity) {
			b.sweep.C = b.sweep.C0
			b.sweep.A = b.sweep.A0
			b.linearVelocity = Vector{}
			b.angularVelocity = 0
			b.frozen = true
			isl.frozen = append(isl.frozen, bi)
		}
		b.synchronizeTransform()
	}

	if reportImpulses {
		isl.impulses = make([]ContactImpulse, len(isl.contacts))
		for i := range isl.contacts {
			isl.impulses[i] = cs.impulses(i)
		}
	}

	if w.allowSleep {
		minSleepTime := maxFloat
		linTolSqr := w.linearSleepTolerance * w.linearSleepTolerance
		angTolSqr := w.angularSleepTolerance * w.angularSleepTolerance

		for _, bi := range isl.bodies {
			b := w.bodies.at(bi)
			if !b.allowSleep || b.angularVelocity*b.angularVelocity > angTolSqr || b.linearVelocity.LengthSq() > linTolSqr {
				b.sleepTime = 0
				minSleepTime = 0
			} else {
				b.sleepTime += h
				minSleepTime = min(minSleepTime, b.sleepTime)
			}
		}
		if isl.keepAwake {
			minSleepTime = 0
		}

		if minSleepTime >= w.timeToSleep && positionSolved {
			for _, bi := range isl.bodies {
				w.bodies.at(bi).setAwake(false)
			}
		}
	}

	for _, bi := range isl.bodies {
		w.bodies.at(bi).solving = false
	}
}

// solve builds the islands and solves them, on w.workers goroutines when
// more than one is configured. Reports run afterwards in island order so
// the outcome does not depend on scheduling.
func (w *World) solve(step timeStep) {
	w.wakeKinematicNeighbors()
	islands := w.buildIslands()
	w.islandCount = len(islands)

	listener := w.listeners.Contact
	report := listener != nil

	if w.workers > 1 && len(islands) > 1 {
		var g errgroup.Group
		g.SetLimit(w.workers)
		for _, isl := range islands {
			isl := isl
			g.Go(func() error {
				w.solveIsland(isl, step, report)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for _, isl := range islands {
			w.solveIsland(isl, step, report)
		}
	}

	w.solved = w.solved[:0]
	for _, isl := range islands {
		w.solved = append(w.solved, isl.bodies...)
		for _, bi := range isl.frozen {
			w.logger.Printf("b2: body %d has a non-finite state and was frozen", bi)
		}
		if report {
			for i, ci := range isl.contacts {
				listener.PostSolve(w.contacts.at(ci), &isl.impulses[i])
			}
		}
	}

	// kinematic bodies are moved once here, islands only saw copies
	for bi := int32(0); bi < int32(len(w.bodies.items)); bi++ {
		if !w.bodies.live[bi] {
			continue
		}
		b := w.bodies.at(bi)
		if b.typ != BODY_KINEMATIC {
			continue
		}
		b.sweep.C0 = b.sweep.C
		b.sweep.A0 = b.sweep.A
		b.sweep.C = b.sweep.C.Add(b.linearVelocity.Mult(step.dt))
		b.sweep.A += step.dt * b.angularVelocity
		b.synchronizeTransform()
		w.solved = append(w.solved, bi)
	}
}
