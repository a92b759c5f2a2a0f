// Package camera produces map-camera directives for the renderer.
package camera

import (
	"fmt"

	"nav_tracker/pkg/match"
	"nav_tracker/pkg/route"
)

// Kind tags which variant a Directive carries.
type Kind int

const (
	KindNone Kind = iota
	KindFollow
	KindOverview
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindFollow:
		return "follow"
	case KindOverview:
		return "overview"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Follow recenters and orients the camera on the traveler.
type Follow struct {
	Target         route.Point
	BearingDegrees float64
	Zoom           float64
	TiltDegrees    float64
}

// Directive is a closed variant: only the field matching Kind is meaningful.
type Directive struct {
	Kind   Kind
	Follow Follow       // KindFollow
	Bounds route.Bounds // KindOverview
}

// None means "leave the camera alone".
var None = Directive{Kind: KindNone}

const (
	DefaultZoom        = 17.0
	DefaultTiltDegrees = 45.0
)

// Options fixes the close-in framing used while following.
type Options struct {
	Zoom        float64
	TiltDegrees float64
}

// DefaultOptions returns the stock follow framing.
func DefaultOptions() Options {
	return Options{Zoom: DefaultZoom, TiltDegrees: DefaultTiltDegrees}
}

// Controller computes follow directives. It remembers the last heading so
// the camera keeps its orientation at the end of the route.
type Controller struct {
	opts    Options
	heading float64
}

// NewController creates a controller with the given framing.
func NewController(opts Options) *Controller {
	return &Controller{opts: opts}
}

// Reset forgets the remembered heading.
func (c *Controller) Reset() {
	c.heading = 0
}

// Heading returns the last heading used.
func (c *Controller) Heading() float64 {
	return c.heading
}

// Follow returns a follow directive targeting the matched polyline point,
// oriented towards the next distinct point along the route.
func (c *Controller) Follow(r route.Route, m match.Match) Directive {
	at := m.Point(r)
	if next, ok := nextPoint(r, m.StepIndex, m.PointIndex, at); ok {
		c.heading = at.BearingTo(next)
	}
	return Directive{
		Kind: KindFollow,
		Follow: Follow{
			Target:         at,
			BearingDegrees: c.heading,
			Zoom:           c.opts.Zoom,
			TiltDegrees:    c.opts.TiltDegrees,
		},
	}
}

// nextPoint walks forward from (stepIdx, pointIdx) to the first point whose
// coordinates differ from at, crossing into later steps as needed. Repeated
// points (such as a boundary shared by two steps) are skipped because the
// bearing between identical points is undefined.
func nextPoint(r route.Route, stepIdx, pointIdx int, at route.Point) (route.Point, bool) {
	start := pointIdx + 1
	for si := stepIdx; si < len(r.Steps); si++ {
		poly := r.Steps[si].Polyline
		for pi := start; pi < len(poly); pi++ {
			if poly[pi] != at {
				return poly[pi], true
			}
		}
		start = 0
	}
	return route.Point{}, false
}

// Overview frames the whole route. ok is false for a route without points,
// in which case no camera action is taken.
func Overview(b route.Bounds, ok bool) Directive {
	if !ok {
		return None
	}
	return Directive{Kind: KindOverview, Bounds: b}
}
