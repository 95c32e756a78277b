package b2

import "github.com/pkg/errors"

// Definition errors. Every error returned by a Create or Load call wraps one
// of these, test with errors.Is.
var (
	ErrInvalidWorld   = errors.New("invalid world definition")
	ErrInvalidBody    = errors.New("invalid body definition")
	ErrInvalidShape   = errors.New("invalid shape definition")
	ErrInvalidPolygon = errors.New("invalid polygon")
	ErrInvalidJoint   = errors.New("invalid joint definition")
	ErrInvalidAABB    = errors.New("invalid bounding box")
)
