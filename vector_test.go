package b2

import (
	"testing"

	"github.com/chewxy/math32"
)

func near(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}

func TestVector(t *testing.T) {
	v := V(3, 4)
	if v.Length() != 5 {
		t.Errorf("Expected length 5, got %v", v.Length())
	}
	if n := v.Normalize(); !n.Near(V(0.6, 0.8), 1e-6) {
		t.Errorf("Normalize got %v", n)
	}
	if u := (Vector{}).Normalize(); !u.Equal(Vector{}) {
		t.Errorf("Expected zero vector, got %v", u)
	}
	if l, u := (Vector{1e-9, 0}).GetLengthAndNormalize(); l != 0 || !u.Equal(Vector{}) {
		t.Errorf("Expected zero length, got %v %v", l, u)
	}

	if c := V(1, 0).Cross(V(0, 1)); c != 1 {
		t.Errorf("Cross got %v", c)
	}
	if p := V(1, 0).Perp(); !p.Equal(V(0, 1)) {
		t.Errorf("Perp got %v", p)
	}
	if p := CrossSV(2, V(1, 0)); !p.Equal(V(0, 2)) {
		t.Errorf("CrossSV got %v", p)
	}
	if p := CrossVS(V(1, 0), 2); !p.Equal(V(0, -2)) {
		t.Errorf("CrossVS got %v", p)
	}

	if c := V(10, 0).Clamp(2); !c.Near(V(2, 0), 1e-6) {
		t.Errorf("Clamp got %v", c)
	}
	if p := V(5, 5).ClosestPointOnSegment(V(0, 0), V(10, 0)); !p.Equal(V(5, 0)) {
		t.Errorf("ClosestPointOnSegment got %v", p)
	}

	if IsValid(math32.NaN()) || IsValid(math32.Inf(1)) || !IsValid(0) {
		t.Errorf("IsValid is wrong")
	}
	if (Vector{math32.NaN(), 0}).IsValid() {
		t.Errorf("NaN vector is valid")
	}
}

func TestRotTransform(t *testing.T) {
	q := NewRot(math32.Pi / 2)
	if r := q.Rotate(V(1, 0)); !r.Near(V(0, 1), 1e-6) {
		t.Errorf("Rotate got %v", r)
	}
	if r := q.InvRotate(V(0, 1)); !r.Near(V(1, 0), 1e-6) {
		t.Errorf("InvRotate got %v", r)
	}
	if a := q.Mul(NewRot(0.25)).Angle(); !near(a, math32.Pi/2+0.25, 1e-5) {
		t.Errorf("Mul angle got %v", a)
	}
	if a := q.MulT(NewRot(0.25)).Angle(); !near(a, 0.25-math32.Pi/2, 1e-5) {
		t.Errorf("MulT angle got %v", a)
	}

	xf := NewTransform(V(1, 2), 0.7)
	p := V(-3, 5)
	if r := xf.InvPoint(xf.Point(p)); !r.Near(p, 1e-5) {
		t.Errorf("InvPoint(Point(p)) got %v", r)
	}

	other := NewTransform(V(-4, 0.5), -1.1)
	composed := xf.Mul(other)
	if r := composed.Point(p); !r.Near(xf.Point(other.Point(p)), 1e-5) {
		t.Errorf("Mul got %v", r)
	}
	if r := xf.MulT(composed).Point(p); !r.Near(other.Point(p), 1e-4) {
		t.Errorf("MulT got %v", r)
	}
}

func TestMatSolve(t *testing.T) {
	m := Mat22{Ex: V(4, 1), Ey: V(2, 3)}
	x := V(0.5, -2)
	b := m.MulV(x)
	if r := m.Solve(b); !r.Near(x, 1e-5) {
		t.Errorf("Solve got %v", r)
	}
	if r := m.Inverse().MulV(b); !r.Near(x, 1e-5) {
		t.Errorf("Inverse got %v", r)
	}

	// singular matrices solve to zero instead of blowing up
	if r := (Mat22{}).Solve(V(1, 1)); !r.Equal(Vector{}) {
		t.Errorf("singular Solve got %v", r)
	}

	k := Mat33{Ex: Vec3{4, 1, 0}, Ey: Vec3{1, 3, 1}, Ez: Vec3{0, 1, 2}}
	x3 := Vec3{1, -1, 2}
	r3 := k.Solve33(k.MulV(x3))
	if !near(r3.X, x3.X, 1e-5) || !near(r3.Y, x3.Y, 1e-5) || !near(r3.Z, x3.Z, 1e-5) {
		t.Errorf("Solve33 got %v", r3)
	}
}

func TestSweep(t *testing.T) {
	s := Sweep{C0: V(0, 0), C: V(10, 0), A0: 0, A: 1}
	xf := s.Transform(0.5)
	if !xf.P.Near(V(5, 0), 1e-6) || !near(xf.Q.Angle(), 0.5, 1e-6) {
		t.Errorf("Transform(0.5) got %v %v", xf.P, xf.Q.Angle())
	}

	s.Advance(0.5)
	if !s.C0.Near(V(5, 0), 1e-6) || s.Alpha0 != 0.5 {
		t.Errorf("Advance got %v %v", s.C0, s.Alpha0)
	}
	// the end of the sweep does not move
	if xf := s.Transform(1); !xf.P.Near(V(10, 0), 1e-6) {
		t.Errorf("Transform(1) got %v", xf.P)
	}

	s = Sweep{A0: 7, A: 8}
	s.Normalize()
	if s.A0 < 0 || s.A0 >= 2*math32.Pi || !near(s.A-s.A0, 1, 1e-5) {
		t.Errorf("Normalize got %v %v", s.A0, s.A)
	}
}
