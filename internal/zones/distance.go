package zones

import (
	"fmt"
	"math"
	"strings"
)

const earthRadiusMeters = 6371000.0

// DistanceFunc returns the distance between two points in meters.
type DistanceFunc func(a, b Point) float64

func rad(d float64) float64 { return d * math.Pi / 180.0 }

// Haversine is the great-circle distance.
func Haversine(a, b Point) float64 {
	dlat := rad(b.Lat - a.Lat)
	dlng := rad(b.Lng - a.Lng)
	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dlng/2)*math.Sin(dlng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Equirectangular is the planar approximation, adequate for city-scale radii.
func Equirectangular(a, b Point) float64 {
	x := rad(b.Lng-a.Lng) * math.Cos(rad((a.Lat+b.Lat)/2))
	y := rad(b.Lat - a.Lat)
	return earthRadiusMeters * math.Sqrt(x*x+y*y)
}

// DistanceMethod picks a DistanceFunc by name ("haversine" or "equirectangular").
func DistanceMethod(name string) (DistanceFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "haversine":
		return Haversine, nil
	case "equirectangular", "planar":
		return Equirectangular, nil
	}
	return nil, fmt.Errorf("unknown distance method %q", name)
}
