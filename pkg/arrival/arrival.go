// Package arrival decides when a fix has reached the route's destination.
package arrival

import "nav_tracker/pkg/route"

// ThresholdMeters is the fixed arrival radius around the destination.
const ThresholdMeters = 30.0

// Destination returns the last point of the last step that has a polyline.
func Destination(r route.Route) (route.Point, bool) {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		if poly := r.Steps[i].Polyline; len(poly) > 0 {
			return poly[len(poly)-1], true
		}
	}
	return route.Point{}, false
}

// IsArrived reports whether fix is strictly within ThresholdMeters of the
// destination. A route without points never arrives.
func IsArrived(fix route.Point, r route.Route) bool {
	dest, ok := Destination(r)
	if !ok {
		return false
	}
	return fix.DistanceTo(dest) < ThresholdMeters
}
