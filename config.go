package b2

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultWorldDef is Earth gravity with sleeping, warm starting and
// continuous collision on.
func DefaultWorldDef() WorldDef {
	return WorldDef{
		Gravity:               Vector{0, -10},
		VelocityIterations:    DEFAULT_VELOCITY_ITS,
		PositionIterations:    DEFAULT_POSITION_ITS,
		AllowSleep:            true,
		LinearSleepTolerance:  LINEAR_SLEEP_TOLERANCE,
		AngularSleepTolerance: ANGULAR_SLEEP_TOLERANCE,
		TimeToSleep:           TIME_TO_SLEEP,
		AABBMargin:            AABB_MARGIN,
		AABBMultiplier:        AABB_MULTIPLIER,
		RestitutionThreshold:  VELOCITY_THRESHOLD,
		WarmStarting:          true,
		EnableContinuous:      true,
		Workers:               1,
	}
}

// LoadWorldDef decodes a YAML document over DefaultWorldDef. Keys that are
// absent keep their defaults, unknown keys are an error.
//
//	gravity: {x: 0, y: -9.8}
//	velocityIterations: 10
//	workers: 4
func LoadWorldDef(r io.Reader) (WorldDef, error) {
	def := DefaultWorldDef()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && err != io.EOF {
		return WorldDef{}, errors.Wrapf(ErrInvalidWorld, "decoding world: %v", err)
	}
	if err := def.validate(); err != nil {
		return WorldDef{}, err
	}
	return def, nil
}
