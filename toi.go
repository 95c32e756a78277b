package b2

import "github.com/chewxy/math32"

type TOIState int

const (
	TOI_UNKNOWN TOIState = iota
	TOI_FAILED
	TOI_OVERLAPPED
	TOI_TOUCHING
	TOI_SEPARATED
)

func (s TOIState) String() string {
	switch s {
	case TOI_FAILED:
		return "failed"
	case TOI_OVERLAPPED:
		return "overlapped"
	case TOI_TOUCHING:
		return "touching"
	case TOI_SEPARATED:
		return "separated"
	}
	return "unknown"
}

type TOIInput struct {
	ProxyA, ProxyB *DistanceProxy
	SweepA, SweepB Sweep
	// TMax is the sweep interval upper bound, in [0,1].
	TMax float32
}

type TOIOutput struct {
	State TOIState
	T     float32
}

type separationKind int

const (
	separationPoints separationKind = iota
	separationFaceA
	separationFaceB
)

type separationFunction struct {
	proxyA, proxyB *DistanceProxy
	sweepA, sweepB Sweep
	kind           separationKind
	localPoint     Vector
	axis           Vector
}

func (f *separationFunction) initialize(cache *SimplexCache, proxyA *DistanceProxy, sweepA Sweep, proxyB *DistanceProxy, sweepB Sweep, t1 float32) float32 {
	f.proxyA = proxyA
	f.proxyB = proxyB
	f.sweepA = sweepA
	f.sweepB = sweepB

	xfA := f.sweepA.Transform(t1)
	xfB := f.sweepB.Transform(t1)

	if cache.Count == 1 {
		f.kind = separationPoints
		pointA := xfA.Point(proxyA.Vertex(int(cache.IndexA[0])))
		pointB := xfB.Point(proxyB.Vertex(int(cache.IndexB[0])))
		var s float32
		s, f.axis = pointB.Sub(pointA).GetLengthAndNormalize()
		return s
	}

	if cache.IndexA[0] == cache.IndexA[1] {
		// Two points on B and one on A.
		f.kind = separationFaceB
		localPointB1 := proxyB.Vertex(int(cache.IndexB[0]))
		localPointB2 := proxyB.Vertex(int(cache.IndexB[1]))

		f.axis = CrossVS(localPointB2.Sub(localPointB1), 1).Normalize()
		normal := xfB.Q.Rotate(f.axis)

		f.localPoint = localPointB1.Add(localPointB2).Mult(0.5)
		pointB := xfB.Point(f.localPoint)
		pointA := xfA.Point(proxyA.Vertex(int(cache.IndexA[0])))

		s := pointA.Sub(pointB).Dot(normal)
		if s < 0 {
			f.axis = f.axis.Neg()
			s = -s
		}
		return s
	}

	// Two points on A and one or two points on B.
	f.kind = separationFaceA
	localPointA1 := proxyA.Vertex(int(cache.IndexA[0]))
	localPointA2 := proxyA.Vertex(int(cache.IndexA[1]))

	f.axis = CrossVS(localPointA2.Sub(localPointA1), 1).Normalize()
	normal := xfA.Q.Rotate(f.axis)

	f.localPoint = localPointA1.Add(localPointA2).Mult(0.5)
	pointA := xfA.Point(f.localPoint)
	pointB := xfB.Point(proxyB.Vertex(int(cache.IndexB[0])))

	s := pointB.Sub(pointA).Dot(normal)
	if s < 0 {
		f.axis = f.axis.Neg()
		s = -s
	}
	return s
}

// findMinSeparation returns the deepest points at t and their separation.
func (f *separationFunction) findMinSeparation(t float32) (int, int, float32) {
	xfA := f.sweepA.Transform(t)
	xfB := f.sweepB.Transform(t)

	switch f.kind {
	case separationPoints:
		axisA := xfA.Q.InvRotate(f.axis)
		axisB := xfB.Q.InvRotate(f.axis.Neg())
		indexA := f.proxyA.Support(axisA)
		indexB := f.proxyB.Support(axisB)
		pointA := xfA.Point(f.proxyA.Vertex(indexA))
		pointB := xfB.Point(f.proxyB.Vertex(indexB))
		return indexA, indexB, pointB.Sub(pointA).Dot(f.axis)

	case separationFaceA:
		normal := xfA.Q.Rotate(f.axis)
		pointA := xfA.Point(f.localPoint)
		axisB := xfB.Q.InvRotate(normal.Neg())
		indexB := f.proxyB.Support(axisB)
		pointB := xfB.Point(f.proxyB.Vertex(indexB))
		return -1, indexB, pointB.Sub(pointA).Dot(normal)

	case separationFaceB:
		normal := xfB.Q.Rotate(f.axis)
		pointB := xfB.Point(f.localPoint)
		axisA := xfA.Q.InvRotate(normal.Neg())
		indexA := f.proxyA.Support(axisA)
		pointA := xfA.Point(f.proxyA.Vertex(indexA))
		return indexA, -1, pointA.Sub(pointB).Dot(normal)
	}
	panic("unknown separation kind")
}

func (f *separationFunction) evaluate(indexA, indexB int, t float32) float32 {
	xfA := f.sweepA.Transform(t)
	xfB := f.sweepB.Transform(t)

	switch f.kind {
	case separationPoints:
		pointA := xfA.Point(f.proxyA.Vertex(indexA))
		pointB := xfB.Point(f.proxyB.Vertex(indexB))
		return pointB.Sub(pointA).Dot(f.axis)

	case separationFaceA:
		normal := xfA.Q.Rotate(f.axis)
		pointA := xfA.Point(f.localPoint)
		pointB := xfB.Point(f.proxyB.Vertex(indexB))
		return pointB.Sub(pointA).Dot(normal)

	case separationFaceB:
		normal := xfB.Q.Rotate(f.axis)
		pointB := xfB.Point(f.localPoint)
		pointA := xfA.Point(f.proxyA.Vertex(indexA))
		return pointA.Sub(pointB).Dot(normal)
	}
	panic("unknown separation kind")
}

// TimeOfImpact computes the upper bound on the time before two shapes
// penetrate, using conservative advancement along separating axes. Time is
// the fraction of the sweep interval [0, TMax]. The result keeps the shapes
// a little apart so a TOI of zero only happens when they start touching.
func TimeOfImpact(input *TOIInput) TOIOutput {
	out := TOIOutput{State: TOI_UNKNOWN, T: input.TMax}

	proxyA := input.ProxyA
	proxyB := input.ProxyB

	sweepA := input.SweepA
	sweepB := input.SweepB
	// Large rotations can make the root finder fail.
	sweepA.Normalize()
	sweepB.Normalize()

	tMax := input.TMax

	totalRadius := proxyA.Radius + proxyB.Radius
	target := math32.Max(LINEAR_SLOP, totalRadius-3*LINEAR_SLOP)
	tolerance := float32(0.25 * LINEAR_SLOP)

	var t1 float32
	var cache SimplexCache
	distanceInput := DistanceInput{ProxyA: proxyA, ProxyB: proxyB}
	var fcn separationFunction

	iter := 0
	for {
		xfA := sweepA.Transform(t1)
		xfB := sweepB.Transform(t1)

		// Get the distance between shapes. We can also use the results
		// to get a separating axis.
		distanceInput.TransformA = xfA
		distanceInput.TransformB = xfB
		distanceOutput := Distance(&distanceInput, &cache)

		if distanceOutput.Distance <= 0 {
			out.State = TOI_OVERLAPPED
			out.T = 0
			break
		}

		if distanceOutput.Distance < target+tolerance {
			out.State = TOI_TOUCHING
			out.T = t1
			break
		}

		fcn.initialize(&cache, proxyA, sweepA, proxyB, sweepB, t1)

		// Resolve the deepest point in turn; bounded by the vertex count.
		done := false
		t2 := tMax
		pushBackIter := 0
		for {
			indexA, indexB, s2 := fcn.findMinSeparation(t2)

			// final configuration is separated
			if s2 > target+tolerance {
				out.State = TOI_SEPARATED
				out.T = tMax
				done = true
				break
			}

			if s2 > target-tolerance {
				t1 = t2
				break
			}

			s1 := fcn.evaluate(indexA, indexB, t1)

			// Initial overlap. The root finder ran out of iterations.
			if s1 < target-tolerance {
				out.State = TOI_FAILED
				out.T = t1
				done = true
				break
			}

			if s1 <= target+tolerance {
				out.State = TOI_TOUCHING
				out.T = t1
				done = true
				break
			}

			// 1D root of f(t) - target = 0, mixing bisection and secant.
			a1, a2 := t1, t2
			for rootIter := 0; rootIter < MAX_ROOT_ITERATIONS; rootIter++ {
				var t float32
				if rootIter&1 != 0 {
					t = a1 + (target-s1)*(a2-a1)/(s2-s1)
				} else {
					t = 0.5 * (a1 + a2)
				}

				s := fcn.evaluate(indexA, indexB, t)

				if math32.Abs(s-target) < tolerance {
					t2 = t
					break
				}

				if s > target {
					a1 = t
					s1 = s
				} else {
					a2 = t
					s2 = s
				}
			}

			pushBackIter++
			if pushBackIter == MAX_POLYGON_VERTICES {
				break
			}
		}

		iter++
		if done {
			break
		}

		if iter == MAX_TOI_ITERATIONS {
			out.State = TOI_FAILED
			out.T = t1
			break
		}
	}

	return out
}
