package b2

// MarchSampleFunc samples a density field, for example the alpha of an
// image or a tile map.
type MarchSampleFunc func(point Vector) float32

// MarchSegmentFunc receives each contour segment. The solid side (samples
// above the threshold) is on the left of v0->v1, so a chain built from the
// segments collides on the empty side and solid regions become
// counter-clockwise loops.
type MarchSegmentFunc func(v0, v1 Vector)

type marchCellFunc func(t, a, b, c, d, x0, x1, y0, y1 float32, segment MarchSegmentFunc)

// marchCells shares the looping and sample caching between MarchSoft and
// MarchHard.
func marchCells(bb BB, xSamples, ySamples int, t float32, segment MarchSegmentFunc, sample MarchSampleFunc, cell marchCellFunc) {
	assert(xSamples > 1 && ySamples > 1, "need at least 2 samples per axis")
	xDenom := 1 / float32(xSamples-1)
	yDenom := 1 / float32(ySamples-1)

	buffer := make([]float32, xSamples)
	for i := 0; i < xSamples; i++ {
		buffer[i] = sample(Vector{Lerp(bb.L, bb.R, float32(i)*xDenom), bb.B})
	}

	for j := 0; j < ySamples-1; j++ {
		y0 := Lerp(bb.B, bb.T, float32(j+0)*yDenom)
		y1 := Lerp(bb.B, bb.T, float32(j+1)*yDenom)

		b := buffer[0]
		d := sample(Vector{bb.L, y1})
		buffer[0] = d

		for i := 0; i < xSamples-1; i++ {
			x0 := Lerp(bb.L, bb.R, float32(i+0)*xDenom)
			x1 := Lerp(bb.L, bb.R, float32(i+1)*xDenom)

			a := b
			b = buffer[i+1]
			c := d
			d = sample(Vector{x1, y1})
			buffer[i+1] = d

			cell(t, a, b, c, d, x0, x1, y0, y1, segment)
		}
	}
}

func seg(v0, v1 Vector, segment MarchSegmentFunc) {
	if !v0.Equal(v1) {
		segment(v1, v0)
	}
}

func midlerp(x0, x1, s0, s1, t float32) float32 {
	return Lerp(x0, x1, (t-s0)/(s1-s0))
}

func cellCase(t, a, b, c, d float32) int {
	var k int
	if a > t {
		k |= 0x1
	}
	if b > t {
		k |= 0x2
	}
	if c > t {
		k |= 0x4
	}
	if d > t {
		k |= 0x8
	}
	return k
}

func marchCellSoft(t, a, b, c, d, x0, x1, y0, y1 float32, segment MarchSegmentFunc) {
	switch cellCase(t, a, b, c, d) {
	case 0x1:
		seg(Vector{x0, midlerp(y0, y1, a, c, t)}, Vector{midlerp(x0, x1, a, b, t), y0}, segment)
	case 0x2:
		seg(Vector{midlerp(x0, x1, a, b, t), y0}, Vector{x1, midlerp(y0, y1, b, d, t)}, segment)
	case 0x3:
		seg(Vector{x0, midlerp(y0, y1, a, c, t)}, Vector{x1, midlerp(y0, y1, b, d, t)}, segment)
	case 0x4:
		seg(Vector{midlerp(x0, x1, c, d, t), y1}, Vector{x0, midlerp(y0, y1, a, c, t)}, segment)
	case 0x5:
		seg(Vector{midlerp(x0, x1, c, d, t), y1}, Vector{midlerp(x0, x1, a, b, t), y0}, segment)
	case 0x6:
		seg(Vector{midlerp(x0, x1, a, b, t), y0}, Vector{x1, midlerp(y0, y1, b, d, t)}, segment)
		seg(Vector{midlerp(x0, x1, c, d, t), y1}, Vector{x0, midlerp(y0, y1, a, c, t)}, segment)
	case 0x7:
		seg(Vector{midlerp(x0, x1, c, d, t), y1}, Vector{x1, midlerp(y0, y1, b, d, t)}, segment)
	case 0x8:
		seg(Vector{x1, midlerp(y0, y1, b, d, t)}, Vector{midlerp(x0, x1, c, d, t), y1}, segment)
	case 0x9:
		seg(Vector{x0, midlerp(y0, y1, a, c, t)}, Vector{midlerp(x0, x1, a, b, t), y0}, segment)
		seg(Vector{x1, midlerp(y0, y1, b, d, t)}, Vector{midlerp(x0, x1, c, d, t), y1}, segment)
	case 0xA:
		seg(Vector{midlerp(x0, x1, a, b, t), y0}, Vector{midlerp(x0, x1, c, d, t), y1}, segment)
	case 0xB:
		seg(Vector{x0, midlerp(y0, y1, a, c, t)}, Vector{midlerp(x0, x1, c, d, t), y1}, segment)
	case 0xC:
		seg(Vector{x1, midlerp(y0, y1, b, d, t)}, Vector{x0, midlerp(y0, y1, a, c, t)}, segment)
	case 0xD:
		seg(Vector{x1, midlerp(y0, y1, b, d, t)}, Vector{midlerp(x0, x1, a, b, t), y0}, segment)
	case 0xE:
		seg(Vector{midlerp(x0, x1, a, b, t), y0}, Vector{x0, midlerp(y0, y1, a, c, t)}, segment)
	}
}

// MarchSoft traces an anti-aliased contour of a sampled field at threshold
// t, taking xSamples by ySamples samples spread over bb.
func MarchSoft(bb BB, xSamples, ySamples int, t float32, segment MarchSegmentFunc, sample MarchSampleFunc) {
	marchCells(bb, xSamples, ySamples, t, segment, sample, marchCellSoft)
}

func segs(a, b, c Vector, segment MarchSegmentFunc) {
	seg(b, c, segment)
	seg(a, b, segment)
}

func marchCellHard(t, a, b, c, d, x0, x1, y0, y1 float32, segment MarchSegmentFunc) {
	xm := Lerp(x0, x1, 0.5)
	ym := Lerp(y0, y1, 0.5)

	switch cellCase(t, a, b, c, d) {
	case 0x1:
		segs(Vector{x0, ym}, Vector{xm, ym}, Vector{xm, y0}, segment)
	case 0x2:
		segs(Vector{xm, y0}, Vector{xm, ym}, Vector{x1, ym}, segment)
	case 0x3:
		seg(Vector{x0, ym}, Vector{x1, ym}, segment)
	case 0x4:
		segs(Vector{xm, y1}, Vector{xm, ym}, Vector{x0, ym}, segment)
	case 0x5:
		seg(Vector{xm, y1}, Vector{xm, y0}, segment)
	case 0x6:
		segs(Vector{xm, y0}, Vector{xm, ym}, Vector{x0, ym}, segment)
		segs(Vector{xm, y1}, Vector{xm, ym}, Vector{x1, ym}, segment)
	case 0x7:
		segs(Vector{xm, y1}, Vector{xm, ym}, Vector{x1, ym}, segment)
	case 0x8:
		segs(Vector{x1, ym}, Vector{xm, ym}, Vector{xm, y1}, segment)
	case 0x9:
		segs(Vector{x1, ym}, Vector{xm, ym}, Vector{xm, y0}, segment)
		segs(Vector{x0, ym}, Vector{xm, ym}, Vector{xm, y1}, segment)
	case 0xA:
		seg(Vector{xm, y0}, Vector{xm, y1}, segment)
	case 0xB:
		segs(Vector{x0, ym}, Vector{xm, ym}, Vector{xm, y1}, segment)
	case 0xC:
		seg(Vector{x1, ym}, Vector{x0, ym}, segment)
	case 0xD:
		segs(Vector{x1, ym}, Vector{xm, ym}, Vector{xm, y0}, segment)
	case 0xE:
		segs(Vector{xm, y0}, Vector{xm, ym}, Vector{x0, ym}, segment)
	}
}

// MarchHard traces an aliased, axis aligned contour of a sampled field.
func MarchHard(bb BB, xSamples, ySamples int, t float32, segment MarchSegmentFunc, sample MarchSampleFunc) {
	marchCells(bb, xSamples, ySamples, t, segment, sample, marchCellHard)
}

// MarchTerrain traces the contour of a field and returns chain definitions
// ready for CreateChain on a static body. Points are simplified with
// tolerance tol, zero keeps every sample crossing.
func MarchTerrain(bb BB, xSamples, ySamples int, t, tol float32, sample MarchSampleFunc) []ChainDef {
	var set PolyLineSet
	MarchSoft(bb, xSamples, ySamples, t, set.CollectSegment, sample)

	defs := make([]ChainDef, 0, len(set.Lines))
	for _, line := range set.Lines {
		if tol > 0 {
			line = line.SimplifyCurves(tol)
		}
		def := line.ChainDef()
		if len(def.Points) < 2 || (def.Loop && len(def.Points) < 3) {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}
