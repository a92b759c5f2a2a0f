// Package match maps a position fix onto a route by nearest polyline point.
package match

import (
	"math"

	"nav_tracker/pkg/route"
)

// Match is the result of mapping a fix onto a route.
type Match struct {
	StepIndex  int
	PointIndex int     // index into the step's polyline
	Fraction   float64 // 0.0 at the step's first point, 1.0 at its last
	Dist       float64 // meters from the fix to the matched point
}

// Point returns the matched polyline point.
func (m Match) Point(r route.Route) route.Point {
	return r.Steps[m.StepIndex].Polyline[m.PointIndex]
}

// Nearest finds the polyline point closest to fix by scanning every point of
// every step in order. Ties go to the earliest (step, point) pair, so a
// boundary point shared by step i and step i+1 matches step i. ok is false
// when the route has no points.
func Nearest(fix route.Point, r route.Route) (m Match, ok bool) {
	bestDist := math.Inf(1)
	bestStep, bestPoint := -1, -1

	for si, step := range r.Steps {
		for pi, p := range step.Polyline {
			d := fix.DistanceTo(p)
			if d < bestDist {
				bestDist = d
				bestStep, bestPoint = si, pi
			}
		}
	}

	if bestStep < 0 {
		return Match{}, false
	}
	return newMatch(r, bestStep, bestPoint, bestDist), true
}

func newMatch(r route.Route, stepIdx, pointIdx int, dist float64) Match {
	n := len(r.Steps[stepIdx].Polyline)
	frac := 0.0
	if n > 1 {
		frac = float64(pointIdx) / float64(n-1)
	}
	return Match{
		StepIndex:  stepIdx,
		PointIndex: pointIdx,
		Fraction:   frac,
		Dist:       dist,
	}
}
