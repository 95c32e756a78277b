package b2

import "github.com/chewxy/math32"

// Rot is a rotation stored as sine and cosine.
type Rot struct {
	S, C float32
}

var RotIdentity = Rot{0, 1}

func NewRot(angle float32) Rot {
	return Rot{math32.Sin(angle), math32.Cos(angle)}
}

func (q Rot) Angle() float32 {
	return math32.Atan2(q.S, q.C)
}

func (q Rot) XAxis() Vector {
	return Vector{q.C, q.S}
}

func (q Rot) YAxis() Vector {
	return Vector{-q.S, q.C}
}

// Rotate rotates v by q.
func (q Rot) Rotate(v Vector) Vector {
	return Vector{q.C*v.X - q.S*v.Y, q.S*v.X + q.C*v.Y}
}

// InvRotate rotates v by the inverse of q.
func (q Rot) InvRotate(v Vector) Vector {
	return Vector{q.C*v.X + q.S*v.Y, -q.S*v.X + q.C*v.Y}
}

// Mul returns q * r.
func (q Rot) Mul(r Rot) Rot {
	return Rot{q.S*r.C + q.C*r.S, q.C*r.C - q.S*r.S}
}

// MulT returns inverse(q) * r.
func (q Rot) MulT(r Rot) Rot {
	return Rot{q.C*r.S - q.S*r.C, q.C*r.C + q.S*r.S}
}

// Transform is a rigid transform: translation P and rotation Q.
type Transform struct {
	P Vector
	Q Rot
}

func NewTransformIdentity() Transform {
	return Transform{Q: RotIdentity}
}

func NewTransform(p Vector, angle float32) Transform {
	return Transform{p, NewRot(angle)}
}

func (t Transform) Point(p Vector) Vector {
	return t.Q.Rotate(p).Add(t.P)
}

func (t Transform) InvPoint(p Vector) Vector {
	return t.Q.InvRotate(p.Sub(t.P))
}

// Mul returns a * b.
func (a Transform) Mul(b Transform) Transform {
	return Transform{a.Q.Rotate(b.P).Add(a.P), a.Q.Mul(b.Q)}
}

// MulT returns inverse(a) * b.
func (a Transform) MulT(b Transform) Transform {
	return Transform{a.Q.InvRotate(b.P.Sub(a.P)), a.Q.MulT(b.Q)}
}

type Mat22 struct {
	Ex, Ey Vector
}

func (m Mat22) MulV(v Vector) Vector {
	return Vector{m.Ex.X*v.X + m.Ey.X*v.Y, m.Ex.Y*v.X + m.Ey.Y*v.Y}
}

func (m Mat22) Inverse() Mat22 {
	a, b, c, d := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a*d - b*c
	if det != 0 {
		det = 1 / det
	}
	return Mat22{Vector{det * d, -det * c}, Vector{-det * b, det * a}}
}

// Solve solves m * x = b.
func (m Mat22) Solve(b Vector) Vector {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0 {
		det = 1 / det
	}
	return Vector{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

type Mat33 struct {
	Ex, Ey, Ez Vec3
}

func (m Mat33) MulV(v Vec3) Vec3 {
	return m.Ex.Mult(v.X).Add(m.Ey.Mult(v.Y)).Add(m.Ez.Mult(v.Z))
}

func (m Mat33) MulV2(v Vector) Vector {
	return Vector{m.Ex.X*v.X + m.Ey.X*v.Y, m.Ex.Y*v.X + m.Ey.Y*v.Y}
}

// Solve33 solves m * x = b.
func (m Mat33) Solve33(b Vec3) Vec3 {
	det := m.Ex.Dot(m.Ey.Cross(m.Ez))
	if det != 0 {
		det = 1 / det
	}
	return Vec3{
		det * b.Dot(m.Ey.Cross(m.Ez)),
		det * m.Ex.Dot(b.Cross(m.Ez)),
		det * m.Ex.Dot(m.Ey.Cross(b)),
	}
}

// Solve22 solves the upper 2x2 block of m * x = b.
func (m Mat33) Solve22(b Vector) Vector {
	return Mat22{Vector{m.Ex.X, m.Ex.Y}, Vector{m.Ey.X, m.Ey.Y}}.Solve(b)
}

func (m Mat33) GetInverse22() Mat33 {
	a, b, c, d := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a*d - b*c
	if det != 0 {
		det = 1 / det
	}
	return Mat33{
		Ex: Vec3{det * d, -det * c, 0},
		Ey: Vec3{-det * b, det * a, 0},
	}
}

// GetSymInverse33 returns the inverse of a symmetric matrix, zero if singular.
func (m Mat33) GetSymInverse33() Mat33 {
	det := m.Ex.Dot(m.Ey.Cross(m.Ez))
	if det != 0 {
		det = 1 / det
	}
	a11, a12, a13 := m.Ex.X, m.Ey.X, m.Ez.X
	a22, a23 := m.Ey.Y, m.Ez.Y
	a33 := m.Ez.Z

	var r Mat33
	r.Ex.X = det * (a22*a33 - a23*a23)
	r.Ex.Y = det * (a13*a23 - a12*a33)
	r.Ex.Z = det * (a12*a23 - a13*a22)
	r.Ey.X = r.Ex.Y
	r.Ey.Y = det * (a11*a33 - a13*a13)
	r.Ey.Z = det * (a13*a12 - a11*a23)
	r.Ez.X = r.Ex.Z
	r.Ez.Y = r.Ey.Z
	r.Ez.Z = det * (a11*a22 - a12*a12)
	return r
}

// Sweep describes the motion of a body over a time step for continuous
// collision. Positions are of the center of mass.
type Sweep struct {
	LocalCenter Vector
	C0, C       Vector
	A0, A       float32
	// Alpha0 is the fraction of the step already consumed, in [0,1).
	Alpha0 float32
}

// Transform returns the interpolated transform at beta in [0,1].
func (s *Sweep) Transform(beta float32) Transform {
	var xf Transform
	xf.P = s.C0.Mult(1 - beta).Add(s.C.Mult(beta))
	xf.Q = NewRot((1-beta)*s.A0 + beta*s.A)
	xf.P = xf.P.Sub(xf.Q.Rotate(s.LocalCenter))
	return xf
}

// Advance moves the start of the sweep forward to alpha.
func (s *Sweep) Advance(alpha float32) {
	assert(s.Alpha0 < 1, "sweep already at end")
	beta := (alpha - s.Alpha0) / (1 - s.Alpha0)
	s.C0 = s.C0.Add(s.C.Sub(s.C0).Mult(beta))
	s.A0 += beta * (s.A - s.A0)
	s.Alpha0 = alpha
}

// Normalize shifts both angles so A0 lies in [0, 2pi).
func (s *Sweep) Normalize() {
	d := 2 * math32.Pi * math32.Floor(s.A0/(2*math32.Pi))
	s.A0 -= d
	s.A -= d
}
