// pkg/core/scene.go
package core

import "time"

// SceneInfo describes one recorded scene run
type SceneInfo struct {
	RunID     string
	Name      string
	StartTime time.Time
	TickDelta float64 // seconds per tick
	Origin    Vector2D
	Params    map[string]any
}

// EntityState is a value snapshot of one entity at one tick.
type EntityState struct {
	ObjectID      int64
	Tick          uint
	State         KinematicState
	ExpertControl bool
}

// Snapshot captures the current state of e at tick.
func Snapshot(e Entity, tick uint) EntityState {
	s := EntityState{
		ObjectID: e.Base().ID(),
		Tick:     tick,
		State:    e.Base().State(),
	}
	if v, ok := e.(*Vehicle); ok {
		s.ExpertControl = v.ExpertControl()
	}
	return s
}
