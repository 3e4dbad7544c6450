// Package zones resolves a delivery coordinate or city to a configured
// delivery fee. Everything here works on already-loaded configuration and
// performs no I/O.
package zones

import "math"

// coordEpsilon is the tolerance, in degrees, for exact-point comparisons.
const coordEpsilon = 1e-9

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is a finite coordinate inside the lat/lng ranges.
func (p Point) Valid() bool {
	return finite(p.Lat) && finite(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Lng >= -180 && p.Lng <= 180
}

func (p Point) equal(o Point) bool {
	return math.Abs(p.Lat-o.Lat) < coordEpsilon && math.Abs(p.Lng-o.Lng) < coordEpsilon
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Geometry is the catchment area of a zone: a Circle or a BoundingBox.
type Geometry interface {
	// Contains reports whether p is inside the area, and the distance from
	// the area's reference point when one exists.
	Contains(p Point, distance DistanceFunc) (bool, float64)
	isGeometry()
}

// Circle is a center with a radius in meters.
type Circle struct {
	Center Point `json:"center"`
	Radius int   `json:"radius"`
}

func (Circle) isGeometry() {}

// Contains uses distance <= radius. A zero radius only matches the center.
func (c Circle) Contains(p Point, distance DistanceFunc) (bool, float64) {
	if c.Radius == 0 {
		return c.Center.equal(p), 0
	}
	d := distance(c.Center, p)
	return d <= float64(c.Radius), d
}

// BoundingBox is the legacy rectangular zone shape. Bounds are inclusive.
type BoundingBox struct {
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LngMin float64 `json:"lngMin"`
	LngMax float64 `json:"lngMax"`
}

func (BoundingBox) isGeometry() {}

// Contains ignores the distance function; boxes have no reference point.
func (b BoundingBox) Contains(p Point, _ DistanceFunc) (bool, float64) {
	return p.Lat >= b.LatMin && p.Lat <= b.LatMax && p.Lng >= b.LngMin && p.Lng <= b.LngMax, 0
}

func (b BoundingBox) valid() bool {
	return Point{b.LatMin, b.LngMin}.Valid() && Point{b.LatMax, b.LngMax}.Valid() &&
		b.LatMin <= b.LatMax && b.LngMin <= b.LngMax
}
