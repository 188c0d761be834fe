package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectType_StringRoundTrip(t *testing.T) {
	for _, ot := range []ObjectType{TypeUnset, TypeVehicle, TypePedestrian, TypeCyclist, TypeRoadObject} {
		got, err := ParseObjectType(ot.String())
		require.NoError(t, err)
		assert.Equal(t, ot, got)
	}
}

func TestParseObjectType_Unknown(t *testing.T) {
	_, err := ParseObjectType("tank")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownObjectType))
}

func TestVector2D_Arithmetic(t *testing.T) {
	a := Vector2D{3, 4}
	b := Vector2D{1, -2}

	assert.Equal(t, Vector2D{4, 2}, a.Add(b))
	assert.Equal(t, Vector2D{2, 6}, a.Sub(b))
	assert.Equal(t, Vector2D{6, 8}, a.Scale(2))
	assert.Equal(t, -5.0, a.Dot(b))
	assert.Equal(t, 5.0, a.Norm())
}

func TestVector2D_RotateAndPolar(t *testing.T) {
	r := Vector2D{1, 0}.Rotate(math.Pi / 2)
	assert.InDelta(t, 0, r.X, 1e-12)
	assert.InDelta(t, 1, r.Y, 1e-12)

	p := FromPolar(2, math.Pi)
	assert.InDelta(t, -2, p.X, 1e-12)
	assert.InDelta(t, 0, p.Y, 1e-12)
	assert.InDelta(t, math.Pi, p.Angle(), 1e-12)
}

func TestColor_Hex(t *testing.T) {
	assert.Equal(t, "#0000ffff", Blue.Hex())
	assert.Equal(t, "#ff0000ff", Red.Hex())
	assert.True(t, Color{}.IsZero())
	assert.False(t, Black.IsZero())
}
