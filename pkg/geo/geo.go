// Package geo implements great-circle helpers used to rank stations and lay
// charging stops along a straight-line route.
package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DefaultMaxDetourPercent is the detour tolerance for a station to count as
// being along a route.
const DefaultMaxDetourPercent = 30.0

// maxPercent caps the detour percentage when the direct distance is zero.
const maxPercent = 1e9

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies inside the WGS84 coordinate range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm returns the haversine distance between a and b in kilometers.
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Detour is the extra distance needed to pass through a waypoint.
type Detour struct {
	Km      float64 `json:"km"`
	Percent float64 `json:"percent"`
}

// DetourVia computes how much longer origin -> via -> destination is than the
// direct origin -> destination leg.
func DetourVia(origin, destination, via Point) Detour {
	direct := DistanceKm(origin, destination)
	through := DistanceKm(origin, via) + DistanceKm(via, destination)

	extra := through - direct
	if extra < 0 {
		// floating point noise when via sits on the segment
		extra = 0
	}

	var pct float64
	switch {
	case direct > 0:
		pct = extra / direct * 100
	case extra > 0:
		pct = maxPercent
	}

	return Detour{Km: extra, Percent: pct}
}

// IsAlongRoute reports whether via adds at most maxDetourPercent to the direct
// distance. A non-positive tolerance falls back to DefaultMaxDetourPercent.
func IsAlongRoute(origin, destination, via Point, maxDetourPercent float64) bool {
	if maxDetourPercent <= 0 {
		maxDetourPercent = DefaultMaxDetourPercent
	}
	return DetourVia(origin, destination, via).Percent <= maxDetourPercent
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
