// pkg/core/vehicle.go
package core

// Vehicle is a car-like entity. IsAV marks the policy-controlled (ego) vehicle.
type Vehicle struct {
	Object
	isAV          bool
	expertControl bool
}

// NewVehicle creates a vehicle. The display color always starts as the vehicle
// default regardless of WithColor.
func NewVehicle(id int64, length, width float64, state, target KinematicState, isAV bool, opts ...Option) *Vehicle {
	obj, _ := newObject(id, length, width, state, target, opts)
	v := &Vehicle{Object: obj, isAV: isAV}
	v.initColor(nil, TypeVehicle)
	return v
}

func (v *Vehicle) Type() ObjectType { return TypeVehicle }
func (v *Vehicle) entity()          {}

func (v *Vehicle) IsAV() bool { return v.isAV }

// ColorAsSource recolors the vehicle, typically to mark the observation source.
// A nil color restores the vehicle default.
func (v *Vehicle) ColorAsSource(c *Color) {
	v.initColor(c, TypeVehicle)
}

// ExpertControl reports whether logged expert data drives this vehicle instead
// of policy actions.
func (v *Vehicle) ExpertControl() bool { return v.expertControl }

func (v *Vehicle) SetExpertControl(b bool) { v.expertControl = b }
