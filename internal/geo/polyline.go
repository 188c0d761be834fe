package geo

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/roadsim/roadsim/pkg/core"
)

// ErrDegeneratePath is returned when a path does not cover two distinct points
var ErrDegeneratePath = errors.New("path needs at least 2 distinct points")

// LineString builds a path through the given points.
func LineString(points []core.Vector2D) (geom.LineString, error) {
	if !hasDistinct(points) {
		return geom.LineString{}, fmt.Errorf("%w, got %d points", ErrDegeneratePath, len(points))
	}

	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.X, p.Y)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build path: %w", err)
	}
	return ls, nil
}

func hasDistinct(points []core.Vector2D) bool {
	for _, p := range points[min(1, len(points)):] {
		if p != points[0] {
			return true
		}
	}
	return false
}

// CrossingPoints returns the points where two paths cross. Collinear overlaps are
// not reported; only point intersections count.
func CrossingPoints(a, b geom.LineString) ([]core.Vector2D, error) {
	ga, gb := a.AsGeometry(), b.AsGeometry()
	if !geom.Intersects(ga, gb) {
		return nil, nil
	}

	inter, err := geom.Intersection(ga, gb)
	if err != nil {
		return nil, fmt.Errorf("failed to intersect paths: %w", err)
	}

	var points []core.Vector2D
	if pt, ok := inter.AsPoint(); ok {
		if p, ok := pointXY(pt); ok {
			points = append(points, p)
		}
	}
	if mp, ok := inter.AsMultiPoint(); ok {
		for i := 0; i < mp.NumPoints(); i++ {
			if p, ok := pointXY(mp.PointN(i)); ok {
				points = append(points, p)
			}
		}
	}
	return points, nil
}

func pointXY(p geom.Point) (core.Vector2D, bool) {
	coords, ok := p.Coordinates()
	if !ok {
		return core.Vector2D{}, false
	}
	return core.Vector2D{X: coords.X, Y: coords.Y}, true
}
