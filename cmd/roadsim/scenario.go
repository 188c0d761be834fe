package main

import (
	"fmt"
	"math"

	"github.com/roadsim/roadsim/internal/config"
	"github.com/roadsim/roadsim/internal/scene"
	"github.com/roadsim/roadsim/pkg/core"
)

const (
	vehicleLength = 4.5
	vehicleWidth  = 1.8
)

// buildScenario fills sc with two perpendicular streams of vehicles that cross near
// the origin halfway through the run, plus a pedestrian and a parked obstacle.
// Even-indexed vehicles drive east, odd-indexed north. The first cfg.AVs vehicles are
// policy controlled and marked red; every other vehicle replays expert data.
func buildScenario(sc *scene.Scene, cfg config.SceneConfig) error {
	if cfg.Vehicles < 0 || cfg.AVs < 0 || cfg.AVs > cfg.Vehicles {
		return fmt.Errorf("invalid scenario: %d vehicles, %d AVs", cfg.Vehicles, cfg.AVs)
	}

	runLength := cfg.Speed * cfg.Dt.Seconds() * float64(cfg.Ticks)
	approach := runLength / 2

	var opts []core.Option
	if cfg.MaxSpeed > 0 {
		opts = append(opts, core.WithMaxSpeed(cfg.MaxSpeed))
	}

	for i := range cfg.Vehicles {
		lane := float64(i/2) * cfg.LaneSpacing
		var start, goal core.KinematicState
		if i%2 == 0 {
			start = core.KinematicState{Position: core.Vector2D{X: -approach, Y: lane}, Heading: 0, Speed: cfg.Speed}
			goal = core.KinematicState{Position: core.Vector2D{X: approach, Y: lane}, Heading: 0}
		} else {
			start = core.KinematicState{Position: core.Vector2D{X: lane, Y: -approach}, Heading: math.Pi / 2, Speed: cfg.Speed}
			goal = core.KinematicState{Position: core.Vector2D{X: lane, Y: approach}, Heading: math.Pi / 2}
		}

		isAV := i < cfg.AVs
		v := core.NewVehicle(int64(i), vehicleLength, vehicleWidth, start, goal, isAV, opts...)
		if isAV {
			v.ColorAsSource(&core.Red)
		} else {
			v.SetExpertControl(true)
		}
		if err := sc.Add(v); err != nil {
			return err
		}
	}

	base := int64(cfg.Vehicles)
	walker := core.NewPedestrian(base, 0.5, 0.5,
		core.KinematicState{Position: core.Vector2D{X: -approach / 4, Y: -approach / 4}, Heading: math.Pi / 4, Speed: 1.4},
		core.KinematicState{Position: core.Vector2D{X: approach / 4, Y: approach / 4}},
		core.WithMaxSpeed(2), core.WithCanBlockSight(false))
	if err := sc.Add(walker); err != nil {
		return err
	}

	parked := core.NewRoadObject(base+1, vehicleLength, vehicleWidth,
		core.Vector2D{X: -approach, Y: -2 * cfg.LaneSpacing}, 0)
	return sc.Add(parked)
}
