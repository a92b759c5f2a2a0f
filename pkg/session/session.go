// Package session runs the navigation lifecycle: it owns the loaded route
// and the latest progress, and turns each position fix into a progress
// snapshot plus a camera directive.
//
// A Session is not safe for concurrent use. Callers that receive fixes and
// user commands on different goroutines must serialize access.
package session

import (
	"fmt"

	"go.uber.org/zap"

	"nav_tracker/pkg/arrival"
	"nav_tracker/pkg/camera"
	"nav_tracker/pkg/match"
	"nav_tracker/pkg/progress"
	"nav_tracker/pkg/route"
)

// Mode is the session lifecycle state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeNavigating
	ModePaused
	ModeArrived
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeNavigating:
		return "navigating"
	case ModePaused:
		return "paused"
	case ModeArrived:
		return "arrived"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Outcome says what ProcessFix did with a fix.
type Outcome int

const (
	// Applied: the fix was matched (or degraded to Zero) and progress updated.
	Applied Outcome = iota
	// Ignored: the session is not navigating (idle, paused or arrived).
	Ignored
	// Discarded: the fix had NaN or out-of-range coordinates.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Discarded:
		return "discarded"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Update is emitted for every fix handed to ProcessFix. For Ignored and
// Discarded fixes Progress repeats the previous snapshot unchanged and
// Camera is camera.None.
type Update struct {
	Progress progress.Progress
	Camera   camera.Directive
	Matched  bool
	Outcome  Outcome
}

// State is a read-only view of the session.
type State struct {
	Mode      Mode
	Following bool
	HasRoute  bool
	Progress  progress.Progress
	Fixes     int // fixes applied since Start
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCamera sets the follow framing.
func WithCamera(opts camera.Options) Option {
	return func(s *Session) {
		s.cameraOpts = opts
	}
}

// WithSpatialIndex selects the R-tree matcher (true, the default) or the
// plain linear scan (false). Both produce identical matches.
func WithSpatialIndex(enabled bool) Option {
	return func(s *Session) {
		s.spatialIndex = enabled
	}
}

// Session is a single navigation session.
type Session struct {
	log          *zap.Logger
	cameraOpts   camera.Options
	spatialIndex bool

	mode      Mode
	route     route.Route
	matcher   match.Matcher
	cam       *camera.Controller
	following bool
	last      progress.Progress
	fixes     int
}

// New creates an idle session.
func New(opts ...Option) *Session {
	s := &Session{
		log:          zap.NewNop(),
		cameraOpts:   camera.DefaultOptions(),
		spatialIndex: true,
	}
	for _, o := range opts {
		o(s)
	}
	s.cam = camera.NewController(s.cameraOpts)
	return s
}

// Mode returns the current lifecycle state.
func (s *Session) Mode() Mode { return s.mode }

// Following reports whether the camera follows the traveler.
func (s *Session) Following() bool { return s.following }

// Progress returns the latest progress snapshot.
func (s *Session) Progress() progress.Progress { return s.last }

// Route returns the loaded route. ok is false while idle.
func (s *Session) Route() (r route.Route, ok bool) {
	return s.route, s.mode != ModeIdle
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	return State{
		Mode:      s.mode,
		Following: s.following,
		HasRoute:  s.mode != ModeIdle,
		Progress:  s.last,
		Fixes:     s.fixes,
	}
}

// Start loads r and begins navigating with the camera following. Starting
// from any state other than Idle first exits the current session. A route
// without points is accepted; fixes then degrade to progress.Zero.
func (s *Session) Start(r route.Route) {
	if s.mode != ModeIdle {
		s.Exit()
	}

	s.route = r
	if s.spatialIndex {
		s.matcher = match.NewIndex(r)
	} else {
		s.matcher = match.NewLinear(r)
	}
	s.cam.Reset()
	s.following = true
	s.last = progress.Zero
	s.fixes = 0
	s.setMode(ModeNavigating)

	if r.Empty() {
		s.log.Warn("route has no geometry; progress will stay at zero",
			zap.Int("steps", len(r.Steps)))
	}
	s.log.Info("navigation started",
		zap.Int("steps", len(r.Steps)),
		zap.Int("points", r.NumPoints()),
		zap.Float64("distance_m", r.TotalDistanceMeters()),
		zap.Float64("duration_s", r.TotalDurationSeconds()))
}

// Pause suspends fix processing. It reports whether the mode changed.
func (s *Session) Pause() bool {
	if s.mode != ModeNavigating {
		return false
	}
	s.setMode(ModePaused)
	return true
}

// Resume continues after Pause. It reports whether the mode changed.
func (s *Session) Resume() bool {
	if s.mode != ModePaused {
		return false
	}
	s.setMode(ModeNavigating)
	return true
}

// Exit discards the route and all progress and returns to Idle. Calling it
// while idle does nothing.
func (s *Session) Exit() {
	if s.mode == ModeIdle {
		return
	}
	s.route = route.Route{}
	s.matcher = nil
	s.following = false
	s.last = progress.Zero
	s.fixes = 0
	s.cam.Reset()
	s.setMode(ModeIdle)
}

// SetFollowing toggles follow mode while navigating. It reports whether the
// command was accepted.
func (s *Session) SetFollowing(following bool) bool {
	if s.mode != ModeNavigating {
		return false
	}
	if s.following != following {
		s.log.Debug("follow mode changed", zap.Bool("following", following))
	}
	s.following = following
	return true
}

// Overview frames the whole loaded route regardless of follow mode, without
// changing it. It returns camera.None when no route with points is loaded.
func (s *Session) Overview() camera.Directive {
	if s.mode == ModeIdle || s.matcher == nil {
		return camera.None
	}
	return camera.Overview(s.matcher.Bounds())
}

// ProcessFix advances the session with one position fix.
func (s *Session) ProcessFix(fix route.Point) Update {
	if s.mode != ModeNavigating {
		return Update{Progress: s.last, Camera: camera.None, Outcome: Ignored}
	}
	if !fix.Valid() {
		s.log.Debug("discarding invalid fix",
			zap.Float64("lat", fix.Lat), zap.Float64("lng", fix.Lng))
		return Update{Progress: s.last, Camera: camera.None, Outcome: Discarded}
	}

	s.fixes++
	m, ok := s.matcher.Nearest(fix)
	if !ok {
		s.last = progress.Zero
		return Update{Progress: s.last, Camera: camera.None, Outcome: Applied}
	}

	p := progress.FromMatch(m, s.route)
	p.Arrived = arrival.IsArrived(fix, s.route)
	s.last = p

	cam := camera.None
	if s.following {
		cam = s.cam.Follow(s.route, m)
	}

	if p.Arrived {
		s.setMode(ModeArrived)
		s.log.Info("destination reached",
			zap.Int("fixes", s.fixes),
			zap.Float64("off_route_m", p.OffRouteMeters))
	}

	return Update{Progress: p, Camera: cam, Matched: true, Outcome: Applied}
}

func (s *Session) setMode(m Mode) {
	if s.mode == m {
		return
	}
	s.log.Info("session mode changed",
		zap.Stringer("from", s.mode),
		zap.Stringer("to", m))
	s.mode = m
}
