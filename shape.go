package b2

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type ShapeKind int

const (
	SHAPE_CIRCLE ShapeKind = iota
	SHAPE_EDGE
	SHAPE_POLYGON
	shapeKindCount
)

func (k ShapeKind) String() string {
	switch k {
	case SHAPE_CIRCLE:
		return "circle"
	case SHAPE_EDGE:
		return "edge"
	case SHAPE_POLYGON:
		return "polygon"
	}
	return "unknown"
}

// MassData holds the mass properties of a shape or body. Center is
// relative to the body origin, I is about the body origin.
type MassData struct {
	Mass   float32
	Center Vector
	I      float32
}

type RayCastInput struct {
	P1, P2      Vector
	MaxFraction float32
}

type RayCastOutput struct {
	Normal   Vector
	Fraction float32
	Hit      bool
}

// Geometry is the closed set of collision shapes: *Circle, *Edge and *Polygon.
// All coordinates are in body space.
type Geometry interface {
	Kind() ShapeKind
	ComputeAABB(xf Transform) BB
	ComputeMass(density float32) MassData
	RayCast(input RayCastInput, xf Transform) RayCastOutput
	TestPoint(xf Transform, p Vector) bool

	skin() float32
	clone() Geometry
	validate() error
}

// Filter decides which shapes may collide. Shapes in the same non-zero group
// always collide (positive) or never collide (negative); otherwise the
// category of each must be in the mask of the other.
type Filter struct {
	CategoryBits uint16 `yaml:"category"`
	MaskBits     uint16 `yaml:"mask"`
	GroupIndex   int16  `yaml:"group"`
}

var DefaultFilter = Filter{CategoryBits: 1, MaskBits: 0xFFFF}

func (a Filter) ShouldCollide(b Filter) bool {
	if a.GroupIndex == b.GroupIndex && a.GroupIndex != 0 {
		return a.GroupIndex > 0
	}
	return (a.MaskBits&b.CategoryBits) != 0 && (a.CategoryBits&b.MaskBits) != 0
}

type ShapeDef struct {
	Geometry    Geometry
	Density     float32
	Friction    float32
	Restitution float32
	// IsSensor shapes report begin and end events but never generate a response.
	IsSensor bool
	Filter   Filter
	UserData interface{}
}

func DefaultShapeDef(g Geometry) ShapeDef {
	return ShapeDef{
		Geometry: g,
		Density:  1,
		Friction: 0.6,
		Filter:   DefaultFilter,
	}
}

func (def *ShapeDef) validate(bodyType BodyType) error {
	if def.Geometry == nil {
		return errors.Wrap(ErrInvalidShape, "missing geometry")
	}
	if !IsValid(def.Density) || !IsValid(def.Friction) || !IsValid(def.Restitution) {
		return errors.Wrap(ErrInvalidShape, "non-finite material")
	}
	if def.Friction < 0 {
		return errors.Wrapf(ErrInvalidShape, "negative friction %v", def.Friction)
	}
	if def.Restitution < 0 {
		return errors.Wrapf(ErrInvalidShape, "negative restitution %v", def.Restitution)
	}
	if def.Density < 0 {
		return errors.Wrapf(ErrInvalidShape, "negative density %v", def.Density)
	}
	if bodyType == BODY_DYNAMIC && def.Density == 0 && !def.IsSensor {
		return errors.Wrap(ErrInvalidShape, "dynamic body shape needs positive density")
	}
	return def.Geometry.validate()
}

// fixture is the world's record for an attached shape.
type fixture struct {
	geom        Geometry
	body        int32
	density     float32
	friction    float32
	restitution float32
	sensor      bool
	filter      Filter
	userData    interface{}

	aabb     BB
	fatAABB  BB
	proxyKey int32

	pendingKill bool
}

// Shape is a handle to a shape attached to a body.
type Shape struct {
	world *World
	index int32
	gen   uint32
}

func (s Shape) fixture() *fixture {
	assert(s.world != nil, "nil shape handle")
	return s.world.shapes.get(s.index, s.gen)
}

func (s Shape) Valid() bool {
	return s.world != nil && s.world.shapes.valid(s.index, s.gen)
}

func (s Shape) World() *World {
	return s.world
}

func (s Shape) Body() Body {
	f := s.fixture()
	return s.world.bodyHandle(f.body)
}

func (s Shape) Kind() ShapeKind {
	return s.fixture().geom.Kind()
}

// Geometry returns a copy of the shape's geometry.
func (s Shape) Geometry() Geometry {
	return s.fixture().geom.clone()
}

func (s Shape) IsSensor() bool {
	return s.fixture().sensor
}

func (s Shape) Density() float32 {
	return s.fixture().density
}

// SetDensity changes the density and recomputes the body mass.
func (s Shape) SetDensity(density float32) {
	assert(IsValid(density) && density >= 0, "invalid density ", density)
	f := s.fixture()
	f.density = density
	s.world.bodies.at(f.body).resetMassData(s.world)
}

func (s Shape) Friction() float32 {
	return s.fixture().friction
}

// SetFriction affects contacts created afterwards.
func (s Shape) SetFriction(friction float32) {
	s.fixture().friction = friction
}

func (s Shape) Restitution() float32 {
	return s.fixture().restitution
}

func (s Shape) SetRestitution(restitution float32) {
	s.fixture().restitution = restitution
}

func (s Shape) Filter() Filter {
	return s.fixture().filter
}

// SetFilter re-filters every contact of the shape on the next step.
func (s Shape) SetFilter(filter Filter) {
	f := s.fixture()
	f.filter = filter
	s.world.refilter(s.index)
}

func (s Shape) UserData() interface{} {
	return s.fixture().userData
}

func (s Shape) SetUserData(data interface{}) {
	s.fixture().userData = data
}

// AABB returns the tight world box computed at the last step.
func (s Shape) AABB() BB {
	return s.fixture().aabb
}

// FatAABB returns the enlarged box stored in the broad phase.
func (s Shape) FatAABB() BB {
	return s.fixture().fatAABB
}

func (s Shape) TestPoint(p Vector) bool {
	f := s.fixture()
	return f.geom.TestPoint(s.world.bodies.at(f.body).xf, p)
}

func (s Shape) RayCast(input RayCastInput) RayCastOutput {
	f := s.fixture()
	return f.geom.RayCast(input, s.world.bodies.at(f.body).xf)
}

func (s Shape) MassData() MassData {
	f := s.fixture()
	return f.geom.ComputeMass(f.density)
}

func validRadius(r float32) bool {
	return IsValid(r) && r >= 0 && r < math32.MaxFloat32
}
