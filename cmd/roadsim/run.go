package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/roadsim/roadsim/internal/config"
	"github.com/roadsim/roadsim/internal/geo"
	"github.com/roadsim/roadsim/internal/influx"
	"github.com/roadsim/roadsim/internal/kinematics"
	"github.com/roadsim/roadsim/internal/scene"
	"github.com/roadsim/roadsim/internal/storage"
	"github.com/roadsim/roadsim/internal/trajectory"
	"github.com/roadsim/roadsim/pkg/core"
)

// runDeps are the collaborators of one scene run. Influx is optional.
type runDeps struct {
	Backend storage.Backend
	Influx  *influx.Manager
	Logger  *slog.Logger
	// Tick mirrors the current tick for the logging context handler
	Tick *atomic.Uint64
}

// summary is what a run reports back to the CLI
type summary struct {
	RunID      string
	Ticks      int
	Entities   int
	Collisions int
	Paths      map[int64]trajectory.PathStats
	ExportPath string
}

// runScene builds the configured scenario, records every tick to the backend and
// analyses vehicle paths at the end.
func runScene(ctx context.Context, deps runDeps, cfg config.SceneConfig) (summary, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	sc, err := scene.New(cfg.Name, scene.WithLogger(log))
	if err != nil {
		return summary{}, err
	}
	if err := buildScenario(sc, cfg); err != nil {
		return summary{}, err
	}

	info := &core.SceneInfo{
		RunID:     sc.RunID(),
		Name:      sc.Name(),
		StartTime: time.Now().UTC(),
		TickDelta: cfg.Dt.Seconds(),
		Origin:    geo.OriginFrom4326(cfg.OriginLon, cfg.OriginLat),
		Params: map[string]any{
			"vehicles":    cfg.Vehicles,
			"avs":         cfg.AVs,
			"ticks":       cfg.Ticks,
			"speed":       cfg.Speed,
			"laneSpacing": cfg.LaneSpacing,
		},
	}
	if err := deps.Backend.StartScene(info); err != nil {
		return summary{}, fmt.Errorf("failed to start scene: %w", err)
	}
	for _, e := range sc.Entities() {
		if err := deps.Backend.AddEntity(e); err != nil {
			return summary{}, fmt.Errorf("failed to register entity %d: %w", e.Base().ID(), err)
		}
	}

	vehicles := sc.Vehicles()
	ids := make([]int64, len(vehicles))
	for i, v := range vehicles {
		ids[i] = v.ID()
	}
	recorder := trajectory.NewRecorder(ids, cfg.Ticks)

	integrator := kinematics.ConstantVelocity{}
	dt := cfg.Dt.Seconds()
	collisions := 0

	log.Info("Scene started", "runId", info.RunID, "entities", sc.Len(), "ticks", cfg.Ticks)
	for tick := range cfg.Ticks {
		if deps.Tick != nil {
			deps.Tick.Store(uint64(tick))
		}

		snaps := sc.Snapshots()
		for _, s := range snaps {
			if err := deps.Backend.RecordState(s); err != nil {
				return summary{}, fmt.Errorf("failed to record state: %w", err)
			}
		}
		if err := recorder.Record(tick, vehicles); err != nil {
			return summary{}, err
		}
		if deps.Influx != nil {
			at := info.StartTime.Add(time.Duration(tick) * cfg.Dt)
			if err := deps.Influx.WritePoint(influx.TickPoint(info, uint(tick), at, snaps)); err != nil {
				log.Warn("Failed to write tick point", "error", err)
			}
		}

		n, err := countCollisions(sc.Collidable())
		if err != nil {
			return summary{}, err
		}
		if n > 0 {
			log.Debug("Overlapping footprints", "count", n)
		}
		collisions += n

		if err := sc.Step(ctx, integrator, dt); err != nil {
			return summary{}, err
		}
	}

	stats, err := recorder.IntersectingPaths(cfg.IntersectWindow)
	if err != nil {
		return summary{}, fmt.Errorf("failed to analyse paths: %w", err)
	}
	if err := deps.Backend.RecordPathStats(stats); err != nil {
		return summary{}, fmt.Errorf("failed to record path stats: %w", err)
	}
	if deps.Influx != nil {
		for _, p := range influx.PathPoints(info, time.Now().UTC(), stats) {
			if err := deps.Influx.WritePoint(p); err != nil {
				log.Warn("Failed to write path point", "error", err)
			}
		}
	}
	if err := deps.Backend.EndScene(); err != nil {
		return summary{}, fmt.Errorf("failed to end scene: %w", err)
	}

	out := summary{
		RunID:      info.RunID,
		Ticks:      cfg.Ticks,
		Entities:   sc.Len(),
		Collisions: collisions,
		Paths:      stats,
	}
	if ex, ok := deps.Backend.(storage.Exporter); ok {
		out.ExportPath = ex.ExportedFilePath()
	}
	log.Info("Scene finished", "runId", info.RunID, "intersectingPaths", trajectory.Total(stats), "collisions", collisions)
	return out, nil
}

// countCollisions counts overlapping pairs where at least one side checks collisions.
func countCollisions(entities []core.Entity) (int, error) {
	n := 0
	for i := range entities {
		for j := i + 1; j < len(entities); j++ {
			a, b := entities[i], entities[j]
			if !a.Base().CheckCollision() && !b.Base().CheckCollision() {
				continue
			}
			hit, err := geo.Overlaps(a, b)
			if err != nil {
				return 0, err
			}
			if hit {
				n++
			}
		}
	}
	return n, nil
}

// printSummary writes a per-vehicle table of path results.
func printSummary(s summary) string {
	out := fmt.Sprintf("run %s: %d entities, %d ticks, %d overlapping pairs, %d intersecting paths\n",
		s.RunID, s.Entities, s.Ticks, s.Collisions, trajectory.Total(s.Paths))
	for _, id := range slices.Sorted(maps.Keys(s.Paths)) {
		st := s.Paths[id]
		diff := "-"
		if st.HasStepDiff {
			diff = fmt.Sprint(st.MinStepDiff)
		}
		out += fmt.Sprintf("  vehicle %d: intersecting=%d minStepDiff=%s\n", id, st.IntersectingPaths, diff)
	}
	if s.ExportPath != "" {
		out += fmt.Sprintf("recording: %s\n", s.ExportPath)
	}
	return out
}
