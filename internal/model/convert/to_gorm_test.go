package convert

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadsim/roadsim/internal/geo"
	"github.com/roadsim/roadsim/internal/trajectory"
	"github.com/roadsim/roadsim/pkg/core"
)

func TestCoreToScene(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	info := core.SceneInfo{
		RunID:     "abc",
		Name:      "intersection",
		StartTime: start,
		TickDelta: 0.1,
		Origin:    core.Vector2D{X: 10, Y: -5},
		Params:    map[string]any{"vehicles": 8},
	}

	m, err := CoreToScene(info)
	require.NoError(t, err)

	assert.Equal(t, "abc", m.RunID)
	assert.Equal(t, "intersection", m.Name)
	assert.Equal(t, start, m.StartTime)
	assert.Equal(t, 0.1, m.TickDelta)
	assert.Equal(t, core.Vector2D{X: 10, Y: -5}, pointToVector(m.Origin))

	var params map[string]any
	require.NoError(t, json.Unmarshal(m.Params, &params))
	assert.Equal(t, float64(8), params["vehicles"])
}

func TestCoreToScene_NoParams(t *testing.T) {
	m, err := CoreToScene(core.SceneInfo{Name: "empty"})
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(m.Params))
}

func TestCoreToEntity_Vehicle(t *testing.T) {
	v := core.NewVehicle(7, 4.5, 1.8,
		core.KinematicState{Position: core.Vector2D{X: 1, Y: 2}, Speed: 5},
		core.KinematicState{Position: core.Vector2D{X: 50, Y: 2}, Heading: 0.5, Speed: 0},
		true,
		core.WithMaxSpeed(30),
		core.WithCanBlockSight(false),
	)
	v.ColorAsSource(&core.Red)

	m, err := CoreToEntity(v)
	require.NoError(t, err)

	assert.Equal(t, int64(7), m.ObjectID)
	assert.Equal(t, "vehicle", m.Kind)
	assert.Equal(t, 4.5, m.Length)
	assert.Equal(t, 1.8, m.Width)
	assert.True(t, m.MaxSpeed.Valid)
	assert.Equal(t, 30.0, m.MaxSpeed.Float64)
	assert.True(t, m.IsAV)
	assert.False(t, m.CanBlockSight)
	assert.True(t, m.CanBeCollided)
	assert.True(t, m.CheckCollision)
	assert.Equal(t, "#ff0000ff", m.Color)
	assert.Equal(t, core.Vector2D{X: 50, Y: 2}, pointToVector(m.TargetPosition))
	assert.Equal(t, 0.5, m.TargetHeading)
}

func TestCoreToEntity_Unbounded(t *testing.T) {
	p := core.NewPedestrian(3, 0.5, 0.5, core.KinematicState{}, core.KinematicState{})

	m, err := CoreToEntity(p)
	require.NoError(t, err)

	assert.Equal(t, "pedestrian", m.Kind)
	assert.False(t, m.MaxSpeed.Valid)
	assert.False(t, m.IsAV)
	assert.Equal(t, core.Green.Hex(), m.Color)
}

func TestCoreToEntity_RoadObject(t *testing.T) {
	r := core.NewRoadObject(9, 1, 1, core.Vector2D{X: 3, Y: 4}, 1.2)

	m, err := CoreToEntity(r)
	require.NoError(t, err)

	assert.Equal(t, "road_object", m.Kind)
	assert.Equal(t, core.Vector2D{X: 3, Y: 4}, pointToVector(m.TargetPosition))
	assert.Equal(t, 1.2, m.TargetHeading)
}

func TestEntityState_CoreRoundTrip(t *testing.T) {
	s := core.EntityState{
		ObjectID:      4,
		Tick:          17,
		State:         core.KinematicState{Position: core.Vector2D{X: -2.5, Y: 8}, Heading: 3.1, Speed: 12},
		ExpertControl: true,
	}

	m, err := CoreToEntityState(s)
	require.NoError(t, err)
	assert.Equal(t, uint(17), m.Tick)
	assert.Equal(t, s, EntityStateToCore(m))
}

func TestCoreToEntityState_NonFinitePosition(t *testing.T) {
	s := core.EntityState{ObjectID: 9, Tick: 3, State: core.KinematicState{Position: core.Vector2D{X: math.Inf(1)}}}

	_, err := CoreToEntityState(s)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestCoreToEntity_NonFiniteTarget(t *testing.T) {
	p := core.NewPedestrian(2, 0.5, 0.5, core.KinematicState{},
		core.KinematicState{Position: core.Vector2D{Y: math.NaN()}})

	_, err := CoreToEntity(p)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestPointToVector_Empty(t *testing.T) {
	assert.Equal(t, core.Vector2D{}, pointToVector(geom.Point{}))
}

func TestPathSummaries(t *testing.T) {
	stats := map[int64]trajectory.PathStats{
		5: {IntersectingPaths: 0},
		2: {IntersectingPaths: 1, MinStepDiff: 12, HasStepDiff: true},
	}

	rows := PathSummaries(stats)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].ObjectID)
	assert.Equal(t, 1, rows[0].IntersectingPaths)
	assert.True(t, rows[0].MinStepDiff.Valid)
	assert.Equal(t, int64(12), rows[0].MinStepDiff.Int64)
	assert.Equal(t, int64(5), rows[1].ObjectID)
	assert.False(t, rows[1].MinStepDiff.Valid)
}
