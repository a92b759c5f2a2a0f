package fixsource

import (
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"

	"nav_tracker/pkg/route"
)

// ReadGPX extracts fixes from every track segment in order. Files without
// tracks fall back to route points, then waypoints.
func ReadGPX(r io.Reader) ([]Fix, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading gpx: %w", err)
	}
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing gpx: %w", err)
	}

	var fixes []Fix
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				fixes = append(fixes, gpxFix(p))
			}
		}
	}
	if len(fixes) > 0 {
		return fixes, nil
	}

	for _, rte := range g.Routes {
		for _, p := range rte.Points {
			fixes = append(fixes, gpxFix(p))
		}
	}
	if len(fixes) > 0 {
		return fixes, nil
	}

	for _, p := range g.Waypoints {
		fixes = append(fixes, gpxFix(p))
	}
	return fixes, nil
}

func gpxFix(p gpx.GPXPoint) Fix {
	return Fix{
		Point: route.Point{Lat: p.Latitude, Lng: p.Longitude},
		Time:  p.Timestamp,
	}
}
