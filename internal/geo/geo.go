package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/roadsim/roadsim/pkg/core"
)

// Scene coordinates are planar meters. Geometry is built with simplefeatures so the
// same values can be stored as WKB points by the GORM models.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// Vector2DFromString parses "x,y" into a core.Vector2D. Extra components are ignored.
func Vector2DFromString(coords string) (core.Vector2D, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 {
		return core.Vector2D{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Vector2D{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Vector2D{}, ErrInvalidCoordinates
	}
	return core.Vector2D{X: x, Y: y}, nil
}

// Point converts a scene vector to a 2D geom.Point. Non-finite components are rejected
// with ErrInvalidCoordinates.
func Point(v core.Vector2D) (geom.Point, error) {
	point, err := geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X, Y: v.Y},
		Type: geom.DimXY,
	})
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// Corners returns the four corners of the entity's oriented footprint,
// counter-clockwise starting at the front-left.
func Corners(e core.Entity) [4]core.Vector2D {
	o := e.Base()
	halfL := o.Length() / 2
	halfW := o.Width() / 2
	local := [4]core.Vector2D{
		{X: halfL, Y: halfW},
		{X: -halfL, Y: halfW},
		{X: -halfL, Y: -halfW},
		{X: halfL, Y: -halfW},
	}
	var out [4]core.Vector2D
	for i, c := range local {
		out[i] = c.Rotate(o.Heading()).Add(o.Position())
	}
	return out
}

// Footprint returns the entity's oriented bounding box as a polygon.
func Footprint(e core.Entity) (geom.Geometry, error) {
	c := Corners(e)
	wkt := fmt.Sprintf("POLYGON((%g %g,%g %g,%g %g,%g %g,%g %g))",
		c[0].X, c[0].Y, c[1].X, c[1].Y, c[2].X, c[2].Y, c[3].X, c[3].Y, c[0].X, c[0].Y)
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("failed to build footprint for object %d: %w", e.Base().ID(), err)
	}
	return g, nil
}

// Overlaps reports whether the footprints of a and b touch or overlap.
// Collision flags are not consulted; callers filter on CanBeCollided/CheckCollision.
func Overlaps(a, b core.Entity) (bool, error) {
	fa, err := Footprint(a)
	if err != nil {
		return false, err
	}
	fb, err := Footprint(b)
	if err != nil {
		return false, err
	}
	return geom.Intersects(fa, fb), nil
}

// OriginFrom4326 projects a WGS84 longitude/latitude anchor into EPSG:3857 meters,
// so a scene's local frame can be placed on a web map.
func OriginFrom4326(longitude, latitude float64) core.Vector2D {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return core.Vector2D{X: x, Y: y}
}
