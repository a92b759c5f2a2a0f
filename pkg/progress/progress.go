// Package progress turns a route match into remaining distance and time.
package progress

import (
	"nav_tracker/pkg/match"
	"nav_tracker/pkg/route"
)

// Progress is an immutable snapshot of where the traveler is on the route.
type Progress struct {
	StepIndex                int
	Fraction                 float64
	RemainingDistanceMeters  float64
	RemainingDurationSeconds float64
	Arrived                  bool

	// Current-step detail for turn-by-turn display.
	StepRemainingDistanceMeters float64
	Instruction                 string
	RoadName                    string
	Maneuver                    route.ManeuverKind
	OffRouteMeters              float64 // fix to matched point
}

// Zero is the degraded progress reported when a fix cannot be matched.
var Zero = Progress{}

// Aggregate returns the distance and duration left from m to the end of r:
// the unfinished share of the matched step plus every later step in full.
func Aggregate(m match.Match, r route.Route) (distanceMeters, durationSeconds float64) {
	if m.StepIndex < 0 || m.StepIndex >= len(r.Steps) {
		return 0, 0
	}
	left := 1 - m.Fraction
	step := r.Steps[m.StepIndex]
	distanceMeters = left * step.DistanceMeters
	durationSeconds = left * step.DurationSeconds
	for _, s := range r.Steps[m.StepIndex+1:] {
		distanceMeters += s.DistanceMeters
		durationSeconds += s.DurationSeconds
	}
	return distanceMeters, durationSeconds
}

// FromMatch builds the snapshot for m. Arrived is left to the caller.
func FromMatch(m match.Match, r route.Route) Progress {
	dist, dur := Aggregate(m, r)
	step := r.Steps[m.StepIndex]
	return Progress{
		StepIndex:                   m.StepIndex,
		Fraction:                    m.Fraction,
		RemainingDistanceMeters:     dist,
		RemainingDurationSeconds:    dur,
		StepRemainingDistanceMeters: (1 - m.Fraction) * step.DistanceMeters,
		Instruction:                 step.Instruction,
		RoadName:                    step.RoadName,
		Maneuver:                    step.Maneuver,
		OffRouteMeters:              m.Dist,
	}
}
