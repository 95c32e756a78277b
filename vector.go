package b2

import (
	"fmt"

	"github.com/chewxy/math32"
)

type Vector struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

var Vector0 = Vector{}

func V(x, y float32) Vector {
	return Vector{x, y}
}

func (v Vector) String() string {
	return fmt.Sprintf("%f,%f", v.X, v.Y)
}

func (v Vector) Equal(other Vector) bool {
	return v.X == other.X && v.Y == other.Y
}

func (v Vector) Add(other Vector) Vector {
	return Vector{v.X + other.X, v.Y + other.Y}
}

func (v Vector) Sub(other Vector) Vector {
	return Vector{v.X - other.X, v.Y - other.Y}
}

func (v Vector) Neg() Vector {
	return Vector{-v.X, -v.Y}
}

func (v Vector) Mult(s float32) Vector {
	return Vector{v.X * s, v.Y * s}
}

// MulAdd returns v + s*other.
func (v Vector) MulAdd(s float32, other Vector) Vector {
	return Vector{v.X + s*other.X, v.Y + s*other.Y}
}

// MulSub returns v - s*other.
func (v Vector) MulSub(s float32, other Vector) Vector {
	return Vector{v.X - s*other.X, v.Y - s*other.Y}
}

func (v Vector) Dot(other Vector) float32 {
	return v.X*other.X + v.Y*other.Y
}

// Cross is the 2D cross product analog. The cross product of 2D vectors
// results in a 3D vector with only a z component; this is its magnitude.
func (v Vector) Cross(other Vector) float32 {
	return v.X*other.Y - v.Y*other.X
}

// CrossSV returns s x v for a scalar s treated as a z axis vector.
func CrossSV(s float32, v Vector) Vector {
	return Vector{-s * v.Y, s * v.X}
}

// CrossVS returns v x s.
func CrossVS(v Vector, s float32) Vector {
	return Vector{s * v.Y, -s * v.X}
}

func (v Vector) Perp() Vector {
	return Vector{-v.Y, v.X}
}

func (v Vector) ReversePerp() Vector {
	return Vector{v.Y, -v.X}
}

// ForAngle returns the unit length vector for the given angle (in radians).
func ForAngle(a float32) Vector {
	return Vector{math32.Cos(a), math32.Sin(a)}
}

func (v Vector) ToAngle() float32 {
	return math32.Atan2(v.Y, v.X)
}

func (v Vector) LengthSq() float32 {
	return v.Dot(v)
}

func (v Vector) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector, or the zero vector when v is too short.
func (v Vector) Normalize() Vector {
	l := v.Length()
	if l < epsilon {
		return Vector{}
	}
	return v.Mult(1 / l)
}

// GetLengthAndNormalize returns the length and the unit vector.
func (v Vector) GetLengthAndNormalize() (float32, Vector) {
	l := v.Length()
	if l < epsilon {
		return 0, Vector{}
	}
	return l, v.Mult(1 / l)
}

func (v Vector) Lerp(other Vector, t float32) Vector {
	return v.Mult(1 - t).Add(other.Mult(t))
}

func (v Vector) Distance(other Vector) float32 {
	return v.Sub(other).Length()
}

func (v Vector) DistanceSq(other Vector) float32 {
	return v.Sub(other).LengthSq()
}

func (v Vector) Near(other Vector, d float32) bool {
	return v.DistanceSq(other) < d*d
}

func (v Vector) Abs() Vector {
	return Vector{math32.Abs(v.X), math32.Abs(v.Y)}
}

func (v Vector) Min(other Vector) Vector {
	return Vector{math32.Min(v.X, other.X), math32.Min(v.Y, other.Y)}
}

func (v Vector) Max(other Vector) Vector {
	return Vector{math32.Max(v.X, other.X), math32.Max(v.Y, other.Y)}
}

func (v Vector) Clamp(length float32) Vector {
	if v.Dot(v) > length*length {
		return v.Normalize().Mult(length)
	}
	return v
}

// IsValid is false when either component is NaN or infinite.
func (v Vector) IsValid() bool {
	return IsValid(v.X) && IsValid(v.Y)
}

func (p Vector) ClosestPointOnSegment(a, b Vector) Vector {
	delta := a.Sub(b)
	l := delta.LengthSq()
	if l == 0 {
		return a
	}
	t := Clamp01(delta.Dot(p.Sub(b)) / l)
	return b.Add(delta.Mult(t))
}

func IsValid(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func Clamp(f, min, max float32) float32 {
	return math32.Min(math32.Max(f, min), max)
}

func Clamp01(f float32) float32 {
	return math32.Max(0, math32.Min(f, 1))
}

func Lerp(f1, f2, t float32) float32 {
	return f1*(1-t) + f2*t
}

// Vec3 is used by the 3x3 joint solvers.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) Mult(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}
