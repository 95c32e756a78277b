package b2

import "github.com/chewxy/math32"

const (
	epsilon = 1.1920929e-07

	// MAX_POLYGON_VERTICES bounds the vertex count of a convex polygon.
	MAX_POLYGON_VERTICES = 8

	// LINEAR_SLOP is the collision and constraint tolerance, in meters.
	LINEAR_SLOP = 0.005
	// ANGULAR_SLOP is the angular tolerance, in radians.
	ANGULAR_SLOP = 2.0 / 180.0 * math32.Pi
	// POLYGON_RADIUS is the skin around polygons that keeps TOI away from zero.
	POLYGON_RADIUS = 2 * LINEAR_SLOP

	// AABB_MARGIN fattens broad-phase boxes so small moves do not touch the tree.
	AABB_MARGIN = 0.1
	// AABB_MULTIPLIER scales displacement when predicting the fat box.
	AABB_MULTIPLIER = 4.0

	VELOCITY_THRESHOLD     = 1.0
	MAX_LINEAR_CORRECTION  = 0.2
	MAX_ANGULAR_CORRECTION = 8.0 / 180.0 * math32.Pi
	MAX_TRANSLATION        = 2.0
	MAX_ROTATION           = 0.5 * math32.Pi

	BAUMGARTE = 0.2

	TIME_TO_SLEEP           = 0.5
	LINEAR_SLEEP_TOLERANCE  = 0.01
	ANGULAR_SLEEP_TOLERANCE = 2.0 / 180.0 * math32.Pi

	MAX_GJK_ITERATIONS   = 20
	MAX_TOI_ITERATIONS   = 20
	MAX_ROOT_ITERATIONS  = 50
	MAX_MANIFOLD_POINTS  = 2
	DEFAULT_VELOCITY_ITS = 8
	DEFAULT_POSITION_ITS = 3
)

const (
	maxTranslationSquared = MAX_TRANSLATION * MAX_TRANSLATION
	maxRotationSquared    = MAX_ROTATION * MAX_ROTATION
	maxFloat      float32 = math32.MaxFloat32
)

// MixFriction is the geometric mean of two friction coefficients.
func MixFriction(f1, f2 float32) float32 {
	return math32.Sqrt(f1 * f2)
}

// MixRestitution takes the bouncier of the two.
func MixRestitution(r1, r2 float32) float32 {
	if r1 > r2 {
		return r1
	}
	return r2
}
