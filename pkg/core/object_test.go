package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariants_TypeAndDefaultColor(t *testing.T) {
	state := KinematicState{Position: Vector2D{1, 2}, Heading: 0.5, Speed: 1}
	target := KinematicState{Position: Vector2D{5, 5}}

	tests := []struct {
		name   string
		entity Entity
		want   ObjectType
		color  Color
	}{
		{"vehicle", NewVehicle(1, 4, 2, state, target, false), TypeVehicle, Blue},
		{"pedestrian", NewPedestrian(2, 0.5, 0.5, state, target), TypePedestrian, Green},
		{"cyclist", NewCyclist(3, 1.8, 0.6, state, target), TypeCyclist, Yellow},
		{"road object", NewRoadObject(4, 1, 1, Vector2D{3, 3}, 0), TypeRoadObject, White},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entity.Type())
			assert.Equal(t, tt.color, tt.entity.Base().Color())
			assert.Equal(t, tt.color, DefaultColor(tt.want))
		})
	}
}

func TestVariants_WithColorOverridesDefault(t *testing.T) {
	p := NewPedestrian(1, 0.5, 0.5, KinematicState{}, KinematicState{}, WithColor(Cyan))
	assert.Equal(t, Cyan, p.Color())

	r := NewRoadObject(2, 1, 1, Vector2D{}, 0, WithColor(Black))
	assert.Equal(t, Black, r.Color())
}

func TestObject_FlagsAreIndependent(t *testing.T) {
	for _, sight := range []bool{true, false} {
		for _, collided := range []bool{true, false} {
			for _, check := range []bool{true, false} {
				c := NewCyclist(1, 1.8, 0.6, KinematicState{}, KinematicState{},
					WithCanBlockSight(sight),
					WithCanBeCollided(collided),
					WithCheckCollision(check),
				)
				assert.Equal(t, sight, c.CanBlockSight())
				assert.Equal(t, collided, c.CanBeCollided())
				assert.Equal(t, check, c.CheckCollision())
			}
		}
	}
}

func TestObject_Mutators(t *testing.T) {
	p := NewPedestrian(7, 0.5, 0.5, KinematicState{}, KinematicState{})

	p.SetPosition(Vector2D{3, 4})
	p.SetHeading(1.2)
	p.SetSpeed(-0.5)
	assert.Equal(t, KinematicState{Position: Vector2D{3, 4}, Heading: 1.2, Speed: -0.5}, p.State())

	goal := KinematicState{Position: Vector2D{9, 9}, Heading: 3, Speed: 1}
	p.SetTarget(goal)
	assert.Equal(t, goal, p.Target())
	assert.Equal(t, int64(7), p.ID())
}

func TestObject_DistinctIDsSurviveMutation(t *testing.T) {
	a := NewVehicle(1, 4, 2, KinematicState{}, KinematicState{}, false)
	b := NewVehicle(2, 4, 2, KinematicState{}, KinematicState{}, false)

	for i := 0; i < 10; i++ {
		s := KinematicState{Position: Vector2D{float64(i), 0}, Speed: float64(i)}
		a.SetState(s)
		b.SetState(s)
	}
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRoadObject_TargetIsPlacement(t *testing.T) {
	r := NewRoadObject(1, 2, 2, Vector2D{4, -1}, 1.5)

	assert.Equal(t, r.State(), r.Target())
	assert.Equal(t, 0.0, r.Speed())
}

func TestSnapshot(t *testing.T) {
	v := NewVehicle(3, 4, 2, KinematicState{Position: Vector2D{1, 1}, Speed: 2}, KinematicState{}, true)
	v.SetExpertControl(true)

	s := Snapshot(v, 12)
	assert.Equal(t, int64(3), s.ObjectID)
	assert.Equal(t, uint(12), s.Tick)
	assert.Equal(t, v.State(), s.State)
	assert.True(t, s.ExpertControl)

	p := NewPedestrian(4, 0.5, 0.5, KinematicState{}, KinematicState{})
	assert.False(t, Snapshot(p, 0).ExpertControl)
}
