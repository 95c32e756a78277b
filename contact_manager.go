package b2

// shouldCollideBodies rejects pairs without a dynamic body and pairs joined
// by a joint that disables collision.
func (w *World) shouldCollideBodies(a, b int32) bool {
	bA := w.bodies.at(a)
	bB := w.bodies.at(b)
	if bA.typ != BODY_DYNAMIC && bB.typ != BODY_DYNAMIC {
		return false
	}

	joints := bA.joints
	if len(bB.joints) < len(joints) {
		joints = bB.joints
	}
	for _, ji := range joints {
		j := *w.joints.at(ji)
		if (j.bodyA == a && j.bodyB == b) || (j.bodyA == b && j.bodyB == a) {
			if !j.collideConnected {
				return false
			}
		}
	}
	return true
}

func (w *World) shouldCollideShapes(a, b int32) bool {
	fA := w.shapes.at(a)
	fB := w.shapes.at(b)
	if !fA.filter.ShouldCollide(fB.filter) {
		return false
	}
	if filter := w.listeners.Filter; filter != nil {
		return filter.ShouldCollide(w.shapeHandle(a), w.shapeHandle(b))
	}
	return true
}

// addPair is the broad-phase callback. It creates a contact for a new
// overlapping pair unless filtering rejects it.
func (w *World) addPair(shapeA, shapeB int32) {
	fA := w.shapes.at(shapeA)
	fB := w.shapes.at(shapeB)
	bodyA, bodyB := fA.body, fB.body

	if bodyA == bodyB {
		return
	}
	if _, ok := w.pairs.Find(shapeA, shapeB); ok {
		return
	}
	if !w.shouldCollideBodies(bodyA, bodyB) {
		return
	}
	if !w.shouldCollideShapes(shapeA, shapeB) {
		return
	}

	fn, swap := lookupCollide(fA.geom.Kind(), fB.geom.Kind())
	if fn == nil {
		return
	}
	if swap {
		shapeA, shapeB = shapeB, shapeA
	}
	w.createContact(shapeA, shapeB, fn)
}

func (w *World) createContact(shapeA, shapeB int32, fn collideFunc) {
	idx, _ := w.contacts.alloc()
	c := w.contacts.at(idx)

	fA := w.shapes.at(shapeA)
	fB := w.shapes.at(shapeB)

	*c = Contact{
		world:       w,
		index:       idx,
		flags:       contactEnabled,
		shapeA:      shapeA,
		shapeB:      shapeB,
		bodyA:       fA.body,
		bodyB:       fB.body,
		collide:     fn,
		friction:    MixFriction(fA.friction, fB.friction),
		restitution: MixRestitution(fA.restitution, fB.restitution),
	}
	if fA.sensor || fB.sensor {
		c.flags |= contactSensor
	}

	w.linkEdge(idx, 0, c.bodyA, c.bodyB)
	w.linkEdge(idx, 1, c.bodyB, c.bodyA)

	w.pairs.Insert(shapeA, shapeB, idx)
}

// linkEdge pushes the contact onto the front of the body's edge list.
func (w *World) linkEdge(contact int32, side int, body, other int32) {
	b := w.bodies.at(body)
	c := w.contacts.at(contact)
	key := edgeKey(contact, side)

	c.edges[side] = contactEdge{other: other, prev: nullEdge, next: b.contactList}
	if b.contactList != nullEdge {
		head := w.contacts.at(edgeContact(b.contactList))
		head.edges[edgeSide(b.contactList)].prev = key
	}
	b.contactList = key
}

func (w *World) unlinkEdge(contact int32, side int, body int32) {
	b := w.bodies.at(body)
	e := w.contacts.at(contact).edges[side]

	if e.prev != nullEdge {
		w.contacts.at(edgeContact(e.prev)).edges[edgeSide(e.prev)].next = e.next
	} else {
		b.contactList = e.next
	}
	if e.next != nullEdge {
		w.contacts.at(edgeContact(e.next)).edges[edgeSide(e.next)].prev = e.prev
	}
}

// destroyContact reports the end of a touching contact before unlinking it.
func (w *World) destroyContact(idx int32) {
	c := w.contacts.at(idx)
	if c.flags&contactTouching != 0 && w.listeners.Contact != nil {
		w.listeners.Contact.EndContact(c)
	}

	w.unlinkEdge(idx, 0, c.bodyA)
	w.unlinkEdge(idx, 1, c.bodyB)
	w.pairs.Remove(c.shapeA, c.shapeB)
	w.contacts.release(idx)
}

// destroyBodyContacts removes every contact of a body and wakes the bodies
// it was touching.
func (w *World) destroyBodyContacts(body int32) {
	b := w.bodies.at(body)
	for b.contactList != nullEdge {
		key := b.contactList
		c := w.contacts.at(edgeContact(key))
		other := c.edges[edgeSide(key)].other
		if c.flags&contactTouching != 0 {
			w.bodies.at(other).setAwake(true)
		}
		w.destroyContact(edgeContact(key))
	}
}

// refilter flags the contacts of a shape for filtering and makes the broad
// phase report its pairs again.
func (w *World) refilter(shape int32) {
	f := w.shapes.at(shape)
	b := w.bodies.at(f.body)
	for key := b.contactList; key != nullEdge; {
		c := w.contacts.at(edgeContact(key))
		if c.shapeA == shape || c.shapeB == shape {
			c.flags |= contactFilter
		}
		key = c.edges[edgeSide(key)].next
	}
	w.broadPhase.TouchProxy(f.proxyKey)
}

// flagBodyContacts marks the contacts between two bodies for filtering.
func (w *World) flagBodyContacts(a, b int32) {
	bA := w.bodies.at(a)
	for key := bA.contactList; key != nullEdge; {
		c := w.contacts.at(edgeContact(key))
		e := c.edges[edgeSide(key)]
		if e.other == b {
			c.flags |= contactFilter
		}
		key = e.next
	}
}

func (w *World) updatePairs() {
	w.broadPhase.UpdatePairs(w.addPair)
}

// collide updates every contact: filtering, fat box overlap, then the
// narrow phase. Contacts between two resting bodies are left alone.
func (w *World) collide() {
	for idx := int32(0); idx < int32(len(w.contacts.items)); idx++ {
		if !w.contacts.live[idx] {
			continue
		}
		c := w.contacts.at(idx)

		if c.flags&contactFilter != 0 {
			if !w.shouldCollideBodies(c.bodyA, c.bodyB) || !w.shouldCollideShapes(c.shapeA, c.shapeB) {
				w.destroyContact(idx)
				continue
			}
			c.flags &^= contactFilter
		}

		bA := w.bodies.at(c.bodyA)
		bB := w.bodies.at(c.bodyB)
		activeA := bA.awake && bA.typ != BODY_STATIC
		activeB := bB.awake && bB.typ != BODY_STATIC
		if !activeA && !activeB {
			continue
		}

		keyA := w.shapes.at(c.shapeA).proxyKey
		keyB := w.shapes.at(c.shapeB).proxyKey
		if !w.broadPhase.TestOverlap(keyA, keyB) {
			w.destroyContact(idx)
			continue
		}

		c.update(w)
	}
}
