// Package trajectory records vehicle paths over an episode and finds pairs of
// vehicles whose paths cross within a short time of each other.
package trajectory

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/roadsim/roadsim/internal/geo"
	"github.com/roadsim/roadsim/pkg/core"
	"gonum.org/v1/gonum/floats"
)

// ErrTickOutOfRange is returned when recording beyond the recorder's horizon
var ErrTickOutOfRange = errors.New("tick outside recorder horizon")

// Recorder samples the position and speed of a fixed set of vehicles once per tick.
// Missing samples (vehicle done or not yet recorded) are NaN.
type Recorder struct {
	ids       []int64
	rows      map[int64]int
	done      map[int64]bool
	positions [][]core.Vector2D
	speeds    [][]float64
}

// NewRecorder tracks the given vehicle ids over ticks samples.
func NewRecorder(ids []int64, ticks int) *Recorder {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	r := &Recorder{
		ids:       sorted,
		rows:      make(map[int64]int, len(sorted)),
		done:      make(map[int64]bool),
		positions: make([][]core.Vector2D, len(sorted)),
		speeds:    make([][]float64, len(sorted)),
	}
	nan := math.NaN()
	for i, id := range sorted {
		r.rows[id] = i
		r.positions[i] = make([]core.Vector2D, ticks)
		r.speeds[i] = make([]float64, ticks)
		for t := 0; t < ticks; t++ {
			r.positions[i][t] = core.Vector2D{X: nan, Y: nan}
			r.speeds[i][t] = nan
		}
	}
	return r
}

// IDs returns the tracked vehicle ids in ascending order.
func (r *Recorder) IDs() []int64 { return slices.Clone(r.ids) }

// Record stores the current state of every tracked, not-done vehicle in vehicles.
// Untracked vehicles are ignored.
func (r *Recorder) Record(tick int, vehicles []*core.Vehicle) error {
	for _, v := range vehicles {
		row, ok := r.rows[v.ID()]
		if !ok || r.done[v.ID()] {
			continue
		}
		if tick < 0 || tick >= len(r.positions[row]) {
			return fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
		}
		r.positions[row][tick] = v.Position()
		r.speeds[row][tick] = v.Speed()
	}
	return nil
}

// MarkDone stops sampling a vehicle, e.g. after a collision or goal reached.
func (r *Recorder) MarkDone(id int64) {
	if _, ok := r.rows[id]; ok {
		r.done[id] = true
	}
}

// Path returns the recorded positions of a vehicle, NaN where missing.
func (r *Recorder) Path(id int64) ([]core.Vector2D, bool) {
	row, ok := r.rows[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(r.positions[row]), true
}

// Speeds returns the recorded speeds of a vehicle, NaN where missing.
func (r *Recorder) Speeds(id int64) ([]float64, bool) {
	row, ok := r.rows[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(r.speeds[row]), true
}

// PathStats summarizes how one vehicle's path interacts with the others.
type PathStats struct {
	IntersectingPaths int
	MinStepDiff       int
	HasStepDiff       bool
}

// IntersectingPaths compares every pair of recorded paths over the ticks both
// vehicles were sampled. Where the paths cross, the crossing is located on each path
// by its nearest sample; the pair counts as intersecting when those samples are
// fewer than window ticks apart.
func (r *Recorder) IntersectingPaths(window int) (map[int64]PathStats, error) {
	stats := make(map[int64]PathStats, len(r.ids))
	for _, id := range r.ids {
		stats[id] = PathStats{}
	}

	for i := 0; i < len(r.ids); i++ {
		for j := i + 1; j < len(r.ids); j++ {
			pathI, pathJ := sharedSamples(r.positions[i], r.positions[j])
			if len(pathI) < 2 {
				continue
			}

			stepDists, err := crossingStepDistances(pathI, pathJ)
			if err != nil {
				return nil, fmt.Errorf("vehicles %d and %d: %w", r.ids[i], r.ids[j], err)
			}
			if len(stepDists) == 0 {
				continue
			}

			minStep := slices.Min(stepDists)
			for _, id := range []int64{r.ids[i], r.ids[j]} {
				s := stats[id]
				if minStep < window {
					s.IntersectingPaths++
				}
				if !s.HasStepDiff || minStep < s.MinStepDiff {
					s.MinStepDiff = minStep
					s.HasStepDiff = true
				}
				stats[id] = s
			}
		}
	}
	return stats, nil
}

// Total sums the intersecting path counts over all vehicles.
func Total(stats map[int64]PathStats) int {
	total := 0
	for _, s := range stats {
		total += s.IntersectingPaths
	}
	return total
}

func sharedSamples(a, b []core.Vector2D) ([]core.Vector2D, []core.Vector2D) {
	var outA, outB []core.Vector2D
	for t := range a {
		if missing(a[t]) || missing(b[t]) {
			continue
		}
		outA = append(outA, a[t])
		outB = append(outB, b[t])
	}
	return outA, outB
}

func missing(v core.Vector2D) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y)
}

// crossingStepDistances returns, per crossing, how many ticks apart the two vehicles
// passed it. A vehicle that never moved sweeps no path and crosses nothing.
func crossingStepDistances(pathA, pathB []core.Vector2D) ([]int, error) {
	lineA, err := geo.LineString(pathA)
	if errors.Is(err, geo.ErrDegeneratePath) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lineB, err := geo.LineString(pathB)
	if errors.Is(err, geo.ErrDegeneratePath) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	points, err := geo.CrossingPoints(lineA, lineB)
	if err != nil {
		return nil, err
	}

	dists := make([]int, 0, len(points))
	for _, p := range points {
		ia := closestIndex(pathA, p)
		ib := closestIndex(pathB, p)
		d := ia - ib
		if d < 0 {
			d = -d
		}
		dists = append(dists, d)
	}
	return dists, nil
}

func closestIndex(path []core.Vector2D, p core.Vector2D) int {
	sq := make([]float64, len(path))
	for i, q := range path {
		d := q.Sub(p)
		sq[i] = d.Dot(d)
	}
	return floats.MinIdx(sq)
}
