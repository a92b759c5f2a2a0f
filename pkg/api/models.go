package api

import (
	"nav_tracker/pkg/camera"
	"nav_tracker/pkg/progress"
	"nav_tracker/pkg/route"
	"nav_tracker/pkg/session"
)

// FixRequest is the JSON body for POST /api/v1/sessions/{id}/fixes.
// Coordinates are pointers so a missing field can be told from zero.
type FixRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// FollowingRequest is the JSON body for PUT /api/v1/sessions/{id}/following.
type FollowingRequest struct {
	Following *bool `json:"following"`
}

// LatLngJSON represents a lat/lng pair in JSON.
type LatLngJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundsJSON is a lat/lng bounding box.
type BoundsJSON struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// FollowJSON carries a follow-mode camera directive.
type FollowJSON struct {
	Target         LatLngJSON `json:"target"`
	BearingDegrees float64    `json:"bearingDegrees"`
	Zoom           float64    `json:"zoom"`
	TiltDegrees    float64    `json:"tiltDegrees"`
}

// CameraJSON is a camera directive. Only the member matching Kind is set.
type CameraJSON struct {
	Kind   string      `json:"kind"`
	Follow *FollowJSON `json:"follow,omitempty"`
	Bounds *BoundsJSON `json:"bounds,omitempty"`
}

// ProgressJSON is a progress snapshot.
type ProgressJSON struct {
	StepIndex                   int     `json:"stepIndex"`
	FractionWithinStep          float64 `json:"fractionWithinStep"`
	RemainingDistanceMeters     float64 `json:"remainingDistanceMeters"`
	RemainingDurationSeconds    float64 `json:"remainingDurationSeconds"`
	Arrived                     bool    `json:"arrived"`
	StepRemainingDistanceMeters float64 `json:"stepRemainingDistanceMeters"`
	Instruction                 string  `json:"instruction,omitempty"`
	RoadName                    string  `json:"roadName,omitempty"`
	Maneuver                    string  `json:"maneuver,omitempty"`
	OffRouteMeters              float64 `json:"offRouteMeters"`
}

// UpdateJSON is the response for a processed fix.
type UpdateJSON struct {
	Outcome  string       `json:"outcome"`
	Matched  bool         `json:"matched"`
	Progress ProgressJSON `json:"progress"`
	Camera   CameraJSON   `json:"camera"`
	Mode     string       `json:"mode"`
}

// StateJSON describes a session.
type StateJSON struct {
	ID        string       `json:"id"`
	Mode      string       `json:"mode"`
	Following bool         `json:"following"`
	HasRoute  bool         `json:"hasRoute"`
	Fixes     int          `json:"fixes"`
	Progress  ProgressJSON `json:"progress"`
}

// CommandResponse reports whether a state command took effect.
type CommandResponse struct {
	Accepted bool      `json:"accepted"`
	State    StateJSON `json:"state"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	ActiveSessions  int     `json:"activeSessions"`
	SessionsStarted int64   `json:"sessionsStarted"`
	SessionsExpired int64   `json:"sessionsExpired"`
	FixesApplied    int64   `json:"fixesApplied"`
	FixesDiscarded  int64   `json:"fixesDiscarded"`
	FixesIgnored    int64   `json:"fixesIgnored"`
	Arrivals        int64   `json:"arrivals"`
	UptimeSeconds   float64 `json:"uptimeSeconds"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

func toLatLng(p route.Point) LatLngJSON {
	return LatLngJSON{Lat: p.Lat, Lng: p.Lng}
}

func toProgressJSON(p progress.Progress) ProgressJSON {
	return ProgressJSON{
		StepIndex:                   p.StepIndex,
		FractionWithinStep:          p.Fraction,
		RemainingDistanceMeters:     p.RemainingDistanceMeters,
		RemainingDurationSeconds:    p.RemainingDurationSeconds,
		Arrived:                     p.Arrived,
		StepRemainingDistanceMeters: p.StepRemainingDistanceMeters,
		Instruction:                 p.Instruction,
		RoadName:                    p.RoadName,
		Maneuver:                    string(p.Maneuver),
		OffRouteMeters:              p.OffRouteMeters,
	}
}

func toCameraJSON(d camera.Directive) CameraJSON {
	out := CameraJSON{Kind: d.Kind.String()}
	switch d.Kind {
	case camera.KindFollow:
		out.Follow = &FollowJSON{
			Target:         toLatLng(d.Follow.Target),
			BearingDegrees: d.Follow.BearingDegrees,
			Zoom:           d.Follow.Zoom,
			TiltDegrees:    d.Follow.TiltDegrees,
		}
	case camera.KindOverview:
		out.Bounds = &BoundsJSON{
			MinLat: d.Bounds.MinLat,
			MinLng: d.Bounds.MinLng,
			MaxLat: d.Bounds.MaxLat,
			MaxLng: d.Bounds.MaxLng,
		}
	}
	return out
}

func toStateJSON(id string, st session.State) StateJSON {
	return StateJSON{
		ID:        id,
		Mode:      st.Mode.String(),
		Following: st.Following,
		HasRoute:  st.HasRoute,
		Fixes:     st.Fixes,
		Progress:  toProgressJSON(st.Progress),
	}
}
