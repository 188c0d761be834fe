// pkg/core/types.go
package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownObjectType is returned when a type name does not map to a variant
var ErrUnknownObjectType = errors.New("unknown object type")

// ObjectType discriminates the concrete entity variant.
type ObjectType uint8

const (
	TypeUnset ObjectType = iota
	TypeVehicle
	TypePedestrian
	TypeCyclist
	TypeRoadObject
)

func (t ObjectType) String() string {
	switch t {
	case TypeVehicle:
		return "vehicle"
	case TypePedestrian:
		return "pedestrian"
	case TypeCyclist:
		return "cyclist"
	case TypeRoadObject:
		return "road_object"
	default:
		return "unset"
	}
}

// ParseObjectType converts a name produced by String back into an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch s {
	case "vehicle":
		return TypeVehicle, nil
	case "pedestrian":
		return TypePedestrian, nil
	case "cyclist":
		return TypeCyclist, nil
	case "road_object":
		return TypeRoadObject, nil
	case "unset":
		return TypeUnset, nil
	}
	return TypeUnset, fmt.Errorf("%w: %q", ErrUnknownObjectType, s)
}

// Vector2D is a point or direction in the scene plane, in meters.
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromPolar builds a vector of length r pointing at theta radians.
func FromPolar(r, theta float64) Vector2D {
	return Vector2D{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

func (v Vector2D) Add(o Vector2D) Vector2D  { return Vector2D{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vector2D) Sub(o Vector2D) Vector2D  { return Vector2D{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector2D) Scale(k float64) Vector2D { return Vector2D{X: v.X * k, Y: v.Y * k} }
func (v Vector2D) Dot(o Vector2D) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vector2D) Norm() float64            { return math.Hypot(v.X, v.Y) }

// Angle returns the direction of v in radians, in (-pi, pi].
func (v Vector2D) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Rotate returns v rotated counter-clockwise by theta radians.
func (v Vector2D) Rotate(theta float64) Vector2D {
	s, c := math.Sincos(theta)
	return Vector2D{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// KinematicState is a position, heading (radians) and signed speed along the heading.
// The same shape describes both the current state and the goal state.
type KinematicState struct {
	Position Vector2D `json:"position"`
	Heading  float64  `json:"heading"`
	Speed    float64  `json:"speed"`
}

// Color is an 8-bit RGBA display color
type Color struct {
	R, G, B, A uint8
}

var (
	Black   = Color{0, 0, 0, 255}
	White   = Color{255, 255, 255, 255}
	Red     = Color{255, 0, 0, 255}
	Green   = Color{0, 255, 0, 255}
	Blue    = Color{0, 0, 255, 255}
	Yellow  = Color{255, 255, 0, 255}
	Magenta = Color{255, 0, 255, 255}
	Cyan    = Color{0, 255, 255, 255}
)

// IsZero reports whether the color was never assigned.
func (c Color) IsZero() bool { return c == Color{} }

// Hex formats the color as #rrggbbaa.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// DefaultColor returns the display color a variant starts with.
func DefaultColor(t ObjectType) Color {
	switch t {
	case TypeVehicle:
		return Blue
	case TypePedestrian:
		return Green
	case TypeCyclist:
		return Yellow
	default:
		return White
	}
}
