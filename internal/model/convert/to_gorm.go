// Package convert maps core scene types to GORM models and back
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/roadsim/roadsim/internal/geo"
	"github.com/roadsim/roadsim/internal/model"
	"github.com/roadsim/roadsim/internal/trajectory"
	"github.com/roadsim/roadsim/pkg/core"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// paramsToJSON converts free-form scene parameters to datatypes.JSON for DB storage.
func paramsToJSON(params map[string]any) datatypes.JSON {
	if len(params) == 0 {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(params)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// pointToVector reads the XY of p. An empty point maps to the origin.
func pointToVector(p geom.Point) core.Vector2D {
	c, ok := p.Coordinates()
	if !ok {
		return core.Vector2D{}
	}
	return core.Vector2D{X: c.XY.X, Y: c.XY.Y}
}

// CoreToScene converts scene run metadata to a GORM model.Scene.
func CoreToScene(info core.SceneInfo) (model.Scene, error) {
	origin, err := geo.Point(info.Origin)
	if err != nil {
		return model.Scene{}, fmt.Errorf("scene %s origin: %w", info.RunID, err)
	}
	return model.Scene{
		RunID:     info.RunID,
		Name:      info.Name,
		StartTime: info.StartTime,
		TickDelta: info.TickDelta,
		Origin:    origin,
		Params:    paramsToJSON(info.Params),
	}, nil
}

// CoreToEntity converts any scene entity to a GORM model.Entity. SceneID is left for the
// caller to stamp.
func CoreToEntity(e core.Entity) (model.Entity, error) {
	o := e.Base()
	target, err := geo.Point(o.TargetPosition())
	if err != nil {
		return model.Entity{}, fmt.Errorf("object %d target: %w", o.ID(), err)
	}
	m := model.Entity{
		ObjectID:       o.ID(),
		Kind:           e.Type().String(),
		Length:         o.Length(),
		Width:          o.Width(),
		CanBlockSight:  o.CanBlockSight(),
		CanBeCollided:  o.CanBeCollided(),
		CheckCollision: o.CheckCollision(),
		Color:          o.Color().Hex(),
		TargetPosition: target,
		TargetHeading:  o.TargetHeading(),
		TargetSpeed:    o.TargetSpeed(),
	}
	if v, ok := o.MaxSpeed(); ok {
		m.MaxSpeed = sql.NullFloat64{Float64: v, Valid: true}
	}
	if v, ok := e.(*core.Vehicle); ok {
		m.IsAV = v.IsAV()
	}
	return m, nil
}

// CoreToEntityState converts a tick snapshot to a GORM model.EntityState.
func CoreToEntityState(s core.EntityState) (model.EntityState, error) {
	pos, err := geo.Point(s.State.Position)
	if err != nil {
		return model.EntityState{}, fmt.Errorf("object %d at tick %d: %w", s.ObjectID, s.Tick, err)
	}
	return model.EntityState{
		ObjectID:      s.ObjectID,
		Tick:          s.Tick,
		Position:      pos,
		Heading:       s.State.Heading,
		Speed:         s.State.Speed,
		ExpertControl: s.ExpertControl,
	}, nil
}

// EntityStateToCore converts a stored state row back to a snapshot.
func EntityStateToCore(m model.EntityState) core.EntityState {
	return core.EntityState{
		ObjectID: m.ObjectID,
		Tick:     m.Tick,
		State: core.KinematicState{
			Position: pointToVector(m.Position),
			Heading:  m.Heading,
			Speed:    m.Speed,
		},
		ExpertControl: m.ExpertControl,
	}
}

// PathSummaries converts intersecting-path results to rows, ordered by object id.
func PathSummaries(stats map[int64]trajectory.PathStats) []model.PathSummary {
	out := make([]model.PathSummary, 0, len(stats))
	for _, id := range slices.Sorted(maps.Keys(stats)) {
		st := stats[id]
		row := model.PathSummary{
			ObjectID:          id,
			IntersectingPaths: st.IntersectingPaths,
		}
		if st.HasStepDiff {
			row.MinStepDiff = sql.NullInt64{Int64: int64(st.MinStepDiff), Valid: true}
		}
		out = append(out, row)
	}
	return out
}
