// Package route holds the immutable route model consumed by the tracker:
// points, maneuver steps and the route itself, plus the decoder for the
// routing service's plan format.
package route

import (
	"math"

	"nav_tracker/pkg/geo"
)

// Point is a WGS-84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point has finite, in-range coordinates.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceTo returns the great-circle distance in meters to q.
func (p Point) DistanceTo(q Point) float64 {
	return geo.Haversine(p.Lat, p.Lng, q.Lat, q.Lng)
}

// BearingTo returns the initial bearing in degrees from p to q.
func (p Point) BearingTo(q Point) float64 {
	return geo.Bearing(p.Lat, p.Lng, q.Lat, q.Lng)
}

// ManeuverKind classifies the maneuver that starts a step.
type ManeuverKind string

const (
	ManeuverStraight   ManeuverKind = "straight"
	ManeuverTurnLeft   ManeuverKind = "turnLeft"
	ManeuverTurnRight  ManeuverKind = "turnRight"
	ManeuverUTurn      ManeuverKind = "uTurn"
	ManeuverArrive     ManeuverKind = "arrive"
	ManeuverEnterRoad  ManeuverKind = "enterRoad"
	ManeuverMergeRoad  ManeuverKind = "mergeRoad"
	ManeuverRoundabout ManeuverKind = "roundabout"
)

// IsValid checks if the maneuver kind is one of the known kinds
func (k ManeuverKind) IsValid() bool {
	switch k {
	case ManeuverStraight, ManeuverTurnLeft, ManeuverTurnRight, ManeuverUTurn,
		ManeuverArrive, ManeuverEnterRoad, ManeuverMergeRoad, ManeuverRoundabout:
		return true
	default:
		return false
	}
}

// Step is one maneuver segment of a route.
type Step struct {
	Instruction     string
	DistanceMeters  float64
	DurationSeconds float64
	Maneuver        ManeuverKind
	RoadName        string
	Polyline        []Point // may be empty
}

// Route is an ordered sequence of steps. It is treated as immutable once
// handed to a session.
type Route struct {
	Steps []Step
}

// Empty reports whether the route has no polyline points at all.
func (r Route) Empty() bool {
	for _, s := range r.Steps {
		if len(s.Polyline) > 0 {
			return false
		}
	}
	return true
}

// NumPoints returns the total polyline point count across all steps.
func (r Route) NumPoints() int {
	n := 0
	for _, s := range r.Steps {
		n += len(s.Polyline)
	}
	return n
}

// TotalDistanceMeters sums the distance of every step.
func (r Route) TotalDistanceMeters() float64 {
	total := 0.0
	for _, s := range r.Steps {
		total += s.DistanceMeters
	}
	return total
}

// TotalDurationSeconds sums the duration of every step.
func (r Route) TotalDurationSeconds() float64 {
	total := 0.0
	for _, s := range r.Steps {
		total += s.DurationSeconds
	}
	return total
}

// Bounds is a lat/lng bounding box.
type Bounds struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

// Extend grows b to include p.
func (b Bounds) Extend(p Point) Bounds {
	return Bounds{
		MinLat: math.Min(b.MinLat, p.Lat),
		MinLng: math.Min(b.MinLng, p.Lng),
		MaxLat: math.Max(b.MaxLat, p.Lat),
		MaxLng: math.Max(b.MaxLng, p.Lng),
	}
}

// Contains reports whether p lies inside b (edges inclusive).
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Bounds returns the bounding box over every polyline point. ok is false
// when the route has no points.
func (r Route) Bounds() (b Bounds, ok bool) {
	for _, s := range r.Steps {
		for _, p := range s.Polyline {
			if !ok {
				b = Bounds{MinLat: p.Lat, MinLng: p.Lng, MaxLat: p.Lat, MaxLng: p.Lng}
				ok = true
				continue
			}
			b = b.Extend(p)
		}
	}
	return b, ok
}
