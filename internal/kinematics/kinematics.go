// Package kinematics provides reference integrators that advance entity state.
package kinematics

import (
	"math"

	"github.com/roadsim/roadsim/pkg/core"
)

// Integrator computes the next kinematic state of an entity over dt seconds.
// Implementations must not mutate the entity.
type Integrator interface {
	Next(e core.Entity, dt float64) core.KinematicState
}

// ConstantVelocity moves entities along their heading at their current speed.
// Speeds are clamped to the entity's MaxSpeed when one is set. Road objects never move.
type ConstantVelocity struct{}

func (ConstantVelocity) Next(e core.Entity, dt float64) core.KinematicState {
	s := e.Base().State()
	if e.Type() == core.TypeRoadObject {
		return s
	}
	s.Speed = ClampSpeed(e, s.Speed)
	s.Position = s.Position.Add(core.FromPolar(s.Speed*dt, s.Heading))
	return s
}

// ClampSpeed limits |speed| to the entity's bound, keeping the sign.
func ClampSpeed(e core.Entity, speed float64) float64 {
	bound, ok := e.Base().MaxSpeed()
	if !ok {
		return speed
	}
	if math.Abs(speed) > bound {
		return math.Copysign(bound, speed)
	}
	return speed
}
