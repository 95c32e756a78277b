package b2

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type JointKind int

const (
	JOINT_DISTANCE JointKind = iota
	JOINT_REVOLUTE
	JOINT_PRISMATIC
	JOINT_WELD
	JOINT_MOTOR
	JOINT_MOUSE
)

func (k JointKind) String() string {
	switch k {
	case JOINT_DISTANCE:
		return "distance"
	case JOINT_REVOLUTE:
		return "revolute"
	case JOINT_PRISMATIC:
		return "prismatic"
	case JOINT_WELD:
		return "weld"
	case JOINT_MOTOR:
		return "motor"
	case JOINT_MOUSE:
		return "mouse"
	}
	return "unknown"
}

// Constrainer is implemented by every joint kind. The solver calls PreStep
// once per step (which also warm starts), ApplyImpulse once per velocity
// iteration and SolvePosition once per position iteration.
type Constrainer interface {
	PreStep(data *solverData)
	ApplyImpulse(data *solverData)
	SolvePosition(data *solverData) bool

	AnchorA() Vector
	AnchorB() Vector
	ReactionForce(invDt float32) Vector
	ReactionTorque(invDt float32) float32
}

// JointDefBase holds the fields shared by every joint definition.
type JointDefBase struct {
	BodyA, BodyB Body
	// CollideConnected lets the two bodies collide with each other.
	CollideConnected bool
	UserData         interface{}
}

func (d *JointDefBase) jointDef() *JointDefBase {
	return d
}

// JointDef is implemented by pointers to the joint definitions of this
// package: *DistanceJointDef, *RevoluteJointDef, *PrismaticJointDef,
// *WeldJointDef, *MotorJointDef and *MouseJointDef.
type JointDef interface {
	jointDef() *JointDefBase
	kind() JointKind
	validate() error
	create(j *joint) Constrainer
}

// joint is the world's record for a joint, embedded by each joint kind.
type joint struct {
	class Constrainer
	kind  JointKind
	world *World
	index int32

	bodyA, bodyB     int32
	collideConnected bool
	islandFlag       bool
	pendingKill      bool
	userData         interface{}

	// solver temporaries, island local
	indexA, indexB             int32
	localCenterA, localCenterB Vector
	invMassA, invMassB         float32
	invIA, invIB               float32
}

func (j *joint) prepare() {
	bA := j.world.bodies.at(j.bodyA)
	bB := j.world.bodies.at(j.bodyB)
	j.localCenterA = bA.sweep.LocalCenter
	j.localCenterB = bB.sweep.LocalCenter
	j.invMassA, j.invIA = bA.solverMass()
	j.invMassB, j.invIB = bB.solverMass()
}

func (j *joint) a() *rigidBody {
	return j.world.bodies.at(j.bodyA)
}

func (j *joint) b() *rigidBody {
	return j.world.bodies.at(j.bodyB)
}

// ActivateBodies wakes both bodies, used by setters that change the joint.
func (j *joint) ActivateBodies() {
	j.a().setAwake(true)
	j.b().setAwake(true)
}

// Joint is a handle to a joint owned by a World.
type Joint struct {
	world *World
	index int32
	gen   uint32
}

func (j Joint) String() string {
	return fmt.Sprintf("Joint{%d:%d}", j.index, j.gen)
}

func (j Joint) joint() *joint {
	assert(j.world != nil, "nil joint handle")
	return *j.world.joints.get(j.index, j.gen)
}

func (j Joint) Valid() bool {
	return j.world != nil && j.world.joints.valid(j.index, j.gen)
}

func (j Joint) Kind() JointKind {
	return j.joint().kind
}

func (j Joint) BodyA() Body {
	return j.world.bodyHandle(j.joint().bodyA)
}

func (j Joint) BodyB() Body {
	return j.world.bodyHandle(j.joint().bodyB)
}

// AnchorA is the anchor on body A in world coordinates.
func (j Joint) AnchorA() Vector {
	return j.joint().class.AnchorA()
}

func (j Joint) AnchorB() Vector {
	return j.joint().class.AnchorB()
}

// ReactionForce is the force applied on body B at the anchor, in N.
func (j Joint) ReactionForce(invDt float32) Vector {
	return j.joint().class.ReactionForce(invDt)
}

func (j Joint) ReactionTorque(invDt float32) float32 {
	return j.joint().class.ReactionTorque(invDt)
}

func (j Joint) CollideConnected() bool {
	return j.joint().collideConnected
}

func (j Joint) UserData() interface{} {
	return j.joint().userData
}

func (j Joint) SetUserData(data interface{}) {
	j.joint().userData = data
}

func (j Joint) class(kind JointKind) Constrainer {
	jt := j.joint()
	assert(jt.kind == kind, "joint is ", jt.kind, ", not ", kind)
	return jt.class
}

func (j Joint) Distance() *DistanceJoint {
	return j.class(JOINT_DISTANCE).(*DistanceJoint)
}

func (j Joint) Revolute() *RevoluteJoint {
	return j.class(JOINT_REVOLUTE).(*RevoluteJoint)
}

func (j Joint) Prismatic() *PrismaticJoint {
	return j.class(JOINT_PRISMATIC).(*PrismaticJoint)
}

func (j Joint) Weld() *WeldJoint {
	return j.class(JOINT_WELD).(*WeldJoint)
}

func (j Joint) Motor() *MotorJoint {
	return j.class(JOINT_MOTOR).(*MotorJoint)
}

func (j Joint) Mouse() *MouseJoint {
	return j.class(JOINT_MOUSE).(*MouseJoint)
}

// LinearStiffness converts a frequency and damping ratio into spring
// stiffness and damping for two bodies.
func LinearStiffness(frequencyHertz, dampingRatio float32, bodyA, bodyB Body) (stiffness, damping float32) {
	massA := bodyA.Mass()
	massB := bodyB.Mass()
	var mass float32
	switch {
	case massA > 0 && massB > 0:
		mass = massA * massB / (massA + massB)
	case massA > 0:
		mass = massA
	default:
		mass = massB
	}

	omega := 2 * math32.Pi * frequencyHertz
	stiffness = mass * omega * omega
	damping = 2 * mass * dampingRatio * omega
	return
}

// AngularStiffness is LinearStiffness for rotational springs.
func AngularStiffness(frequencyHertz, dampingRatio float32, bodyA, bodyB Body) (stiffness, damping float32) {
	IA := bodyA.Inertia()
	IB := bodyB.Inertia()
	var I float32
	switch {
	case IA > 0 && IB > 0:
		I = IA * IB / (IA + IB)
	case IA > 0:
		I = IA
	default:
		I = IB
	}

	omega := 2 * math32.Pi * frequencyHertz
	stiffness = I * omega * omega
	damping = 2 * I * dampingRatio * omega
	return
}

// softness turns spring stiffness and damping into the soft constraint
// coefficients gamma and beta·C/h for a step of h.
func softness(stiffness, damping, h float32) (gamma, biasRate float32) {
	gamma = h * (damping + h*stiffness)
	if gamma != 0 {
		gamma = 1 / gamma
	}
	return gamma, h * stiffness * gamma
}

func validJointValues(values ...float32) error {
	for _, v := range values {
		if !IsValid(v) {
			return errors.Wrapf(ErrInvalidJoint, "non-finite value %v", v)
		}
	}
	return nil
}

func validLocalAnchors(a, b Vector) error {
	if !a.IsValid() || !b.IsValid() {
		return errors.Wrapf(ErrInvalidJoint, "non-finite anchor %v %v", a, b)
	}
	return nil
}
