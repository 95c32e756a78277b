package b2

import "github.com/chewxy/math32"

// fraction of the minimum extent a body may move per step before it is
// swept
const ccdSafetyFactor = 0.5

// solveContinuous sweeps fast bodies and bullets against what they may have
// tunneled through and rolls them back to the first time of impact.
// Non-bullets are swept first so bullets see their final poses.
func (w *World) solveContinuous() {
	for _, bullets := range [2]bool{false, true} {
		for _, bi := range w.solved {
			b := w.bodies.at(bi)
			if b.typ != BODY_DYNAMIC || b.frozen || !b.awake || b.bullet != bullets {
				continue
			}
			if len(b.shapes) == 0 || !b.isFast() {
				continue
			}
			w.sweepBody(bi)
		}
	}
}

func (b *rigidBody) isFast() bool {
	if b.bullet {
		return true
	}
	d := b.sweep.C.Distance(b.sweep.C0) + math32.Abs(b.sweep.A-b.sweep.A0)*b.maxExtent
	return d > 0 && d >= ccdSafetyFactor*b.minExtent
}

func (w *World) sweepBody(bi int32) {
	b := w.bodies.at(bi)
	sweep := b.sweep
	sweep.Alpha0 = 0
	xf0 := sweep.Transform(0)

	minT := float32(1)

	for _, si := range b.shapes {
		f := w.shapes.at(si)
		if f.sensor {
			continue
		}
		box := f.geom.ComputeAABB(xf0).Merge(f.aabb)

		var proxyB DistanceProxy
		proxyB.Set(f.geom)

		w.broadPhase.Query(box, func(key int32) bool {
			oi := w.broadPhase.UserData(key)
			of := w.shapes.at(oi)
			if of.body == bi || of.sensor {
				return true
			}
			ob := w.bodies.at(of.body)
			if ob.typ == BODY_DYNAMIC && (!b.bullet || ob.bullet) {
				return true
			}
			if !w.shouldCollideBodies(bi, of.body) || !w.shouldCollideShapes(si, oi) {
				return true
			}
			if e, ok := of.geom.(*Edge); ok && e.OneSided && !crossesEdge(e, ob.xf, sweep.C0, sweep.C) {
				return true
			}

			var proxyA DistanceProxy
			proxyA.Set(of.geom)

			out := TimeOfImpact(&TOIInput{
				ProxyA: &proxyA,
				ProxyB: &proxyB,
				SweepA: Sweep{
					LocalCenter: ob.sweep.LocalCenter,
					C0:          ob.sweep.C,
					C:           ob.sweep.C,
					A0:          ob.sweep.A,
					A:           ob.sweep.A,
				},
				SweepB: sweep,
				TMax:   1,
			})

			switch out.State {
			case TOI_TOUCHING:
				// touching at the start is left to the discrete solver
				if out.T > 0 && out.T < minT {
					minT = out.T
				}
			case TOI_FAILED:
				w.logger.Printf("b2: time of impact failed for body %d against shape %d", bi, oi)
				minT = 0
			}
			return true
		})
	}

	if minT >= 1 {
		return
	}

	b.sweep.C = sweep.C0.Lerp(sweep.C, minT)
	b.sweep.A = Lerp(sweep.A0, sweep.A, minT)
	b.sweep.C0 = b.sweep.C
	b.sweep.A0 = b.sweep.A
	b.synchronizeTransform()

	for _, si := range b.shapes {
		w.synchronizeShape(si, b.xf, b.xf)
	}
}

// crossesEdge reports whether a center moving from c1 to c2 starts in front
// of a one-sided edge and ends behind it. Anything else is left to the
// discrete solver.
func crossesEdge(e *Edge, xf Transform, c1, c2 Vector) bool {
	p1 := xf.Point(e.V1)
	p2 := xf.Point(e.V2)
	d := p2.Sub(p1)
	// in front is to the right of p1->p2
	offset1 := c1.Sub(p1).Cross(d)
	offset2 := c2.Sub(p1).Cross(d)
	return offset1 >= 0 && offset2 <= 0
}
