// Package trace records a navigation run and exports it as GeoJSON for
// inspection in any map viewer.
package trace

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"nav_tracker/pkg/camera"
	"nav_tracker/pkg/route"
	"nav_tracker/pkg/session"
)

// Sample is one processed fix.
type Sample struct {
	Fix    route.Point
	Update session.Update
}

// Recorder accumulates samples for a single route.
type Recorder struct {
	route   route.Route
	samples []Sample
}

// NewRecorder starts a recording for r.
func NewRecorder(r route.Route) *Recorder {
	return &Recorder{route: r}
}

// Add records one fix and what the session made of it.
func (rec *Recorder) Add(fix route.Point, u session.Update) {
	rec.samples = append(rec.samples, Sample{Fix: fix, Update: u})
}

// Samples returns the recorded samples.
func (rec *Recorder) Samples() []Sample {
	return rec.samples
}

func toOrb(p route.Point) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// FeatureCollection renders each step as a LineString (a Point for
// single-point steps), each applied fix as a Point carrying its progress,
// and the applied fixes as a "trail" LineString.
func (rec *Recorder) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, s := range rec.route.Steps {
		var f *geojson.Feature
		switch len(s.Polyline) {
		case 0:
			continue
		case 1:
			f = geojson.NewFeature(toOrb(s.Polyline[0]))
		default:
			ls := make(orb.LineString, len(s.Polyline))
			for j, p := range s.Polyline {
				ls[j] = toOrb(p)
			}
			f = geojson.NewFeature(ls)
		}
		f.Properties["kind"] = "step"
		f.Properties["stepIndex"] = i
		f.Properties["instruction"] = s.Instruction
		f.Properties["maneuver"] = string(s.Maneuver)
		f.Properties["roadName"] = s.RoadName
		f.Properties["distanceMeters"] = s.DistanceMeters
		f.Properties["durationSeconds"] = s.DurationSeconds
		fc.Append(f)
	}

	var trail orb.LineString
	for i, smp := range rec.samples {
		if smp.Update.Outcome != session.Applied {
			continue
		}
		trail = append(trail, toOrb(smp.Fix))

		p := smp.Update.Progress
		f := geojson.NewFeature(toOrb(smp.Fix))
		f.Properties["kind"] = "fix"
		f.Properties["seq"] = i
		f.Properties["matched"] = smp.Update.Matched
		f.Properties["stepIndex"] = p.StepIndex
		f.Properties["fractionWithinStep"] = p.Fraction
		f.Properties["remainingDistanceMeters"] = p.RemainingDistanceMeters
		f.Properties["remainingDurationSeconds"] = p.RemainingDurationSeconds
		f.Properties["arrived"] = p.Arrived
		if smp.Update.Camera.Kind != camera.KindNone {
			f.Properties["camera"] = smp.Update.Camera.Kind.String()
			f.Properties["bearingDegrees"] = smp.Update.Camera.Follow.BearingDegrees
		}
		fc.Append(f)
	}
	if len(trail) > 1 {
		f := geojson.NewFeature(trail)
		f.Properties["kind"] = "trail"
		fc.Append(f)
	}

	return fc
}

// GeoJSON marshals FeatureCollection.
func (rec *Recorder) GeoJSON() ([]byte, error) {
	return rec.FeatureCollection().MarshalJSON()
}
