package match

import (
	"math"

	"github.com/tidwall/rtree"

	"nav_tracker/pkg/geo"
	"nav_tracker/pkg/route"
)

// Matcher maps fixes onto a single loaded route.
type Matcher interface {
	Nearest(fix route.Point) (Match, bool)
	Bounds() (route.Bounds, bool)
}

// Linear is a Matcher that scans the whole route on every fix.
type Linear struct {
	r route.Route
}

// NewLinear returns a scanning matcher for r.
func NewLinear(r route.Route) *Linear {
	return &Linear{r: r}
}

// Nearest implements Matcher.
func (l *Linear) Nearest(fix route.Point) (Match, bool) {
	return Nearest(fix, l.r)
}

// Bounds implements Matcher.
func (l *Linear) Bounds() (route.Bounds, bool) {
	return l.r.Bounds()
}

const (
	// Below this many points a plain scan beats the tree.
	linearScanMax = 32

	initialSearchMeters = 250.0
	maxSearchMeters     = 200_000.0

	// Boxes are padded so points at exactly the best distance are never
	// clipped by rounding.
	boxMargin  = 1.01
	boxEpsilon = 1e-9 // degrees
)

// pointRef locates a polyline point within the route.
type pointRef struct {
	step  int
	point int
}

func (a pointRef) before(b pointRef) bool {
	return a.step < b.step || (a.step == b.step && a.point < b.point)
}

// Index is a Matcher backed by an R-tree over every polyline point. It
// returns exactly what Nearest returns, ties included, and falls back to a
// full scan whenever its search box cannot be bounded (near the poles,
// across the antimeridian, or with no point within maxSearchMeters).
type Index struct {
	r      route.Route
	tr     rtree.RTreeG[pointRef]
	bounds route.Bounds
}

// NewIndex builds the spatial index for r.
func NewIndex(r route.Route) *Index {
	idx := &Index{r: r}
	for si, s := range r.Steps {
		for pi, p := range s.Polyline {
			pt := [2]float64{p.Lng, p.Lat}
			idx.tr.Insert(pt, pt, pointRef{step: si, point: pi})
		}
	}
	if idx.tr.Len() > 0 {
		min, max := idx.tr.Bounds()
		idx.bounds = route.Bounds{MinLat: min[1], MinLng: min[0], MaxLat: max[1], MaxLng: max[0]}
	}
	return idx
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return idx.tr.Len()
}

// Bounds implements Matcher.
func (idx *Index) Bounds() (route.Bounds, bool) {
	return idx.bounds, idx.tr.Len() > 0
}

// Nearest implements Matcher.
func (idx *Index) Nearest(fix route.Point) (Match, bool) {
	n := idx.tr.Len()
	if n == 0 {
		return Match{}, false
	}
	if n <= linearScanMax {
		return Nearest(fix, idx.r)
	}

	// Grow a box around the fix until it holds at least one point. That
	// point's distance is an upper bound on the true nearest distance.
	upper := math.Inf(1)
	for radius := initialSearchMeters; math.IsInf(upper, 1); radius *= 4 {
		if radius > maxSearchMeters {
			return Nearest(fix, idx.r)
		}
		min, max, ok := searchBox(fix, radius)
		if !ok {
			return Nearest(fix, idx.r)
		}
		idx.tr.Search(min, max, func(_, _ [2]float64, ref pointRef) bool {
			if d := fix.DistanceTo(idx.point(ref)); d < upper {
				upper = d
			}
			return true
		})
	}

	// Every point within upper meters lies in this box, so the minimum
	// (and all points tied with it) are among its results.
	min, max, ok := searchBox(fix, upper)
	if !ok {
		return Nearest(fix, idx.r)
	}
	bestDist := math.Inf(1)
	best := pointRef{step: -1}
	idx.tr.Search(min, max, func(_, _ [2]float64, ref pointRef) bool {
		d := fix.DistanceTo(idx.point(ref))
		if d < bestDist || (d == bestDist && ref.before(best)) {
			bestDist = d
			best = ref
		}
		return true
	})
	if best.step < 0 {
		return Nearest(fix, idx.r)
	}
	return newMatch(idx.r, best.step, best.point, bestDist), true
}

func (idx *Index) point(ref pointRef) route.Point {
	return idx.r.Steps[ref.step].Polyline[ref.point]
}

// searchBox returns an rtree box ([lng, lat] corners) containing every point
// within meters of center. ok is false when such a box would touch a pole or
// wrap the antimeridian.
func searchBox(center route.Point, meters float64) (min, max [2]float64, ok bool) {
	dLat := geo.MetersToDegreesLat(meters)*boxMargin + boxEpsilon
	minLat, maxLat := center.Lat-dLat, center.Lat+dLat
	if minLat <= -90 || maxLat >= 90 {
		return min, max, false
	}

	// A spherical cap of angular radius delta centred at latitude phi spans
	// asin(sin(delta)/cos(phi)) of longitude; using the box's extreme
	// latitude only widens it.
	delta := dLat * math.Pi / 180
	cosPhi := math.Cos(math.Max(math.Abs(minLat), math.Abs(maxLat)) * math.Pi / 180)
	s := math.Sin(delta) / cosPhi
	if s >= 1 {
		return min, max, false
	}
	dLng := math.Asin(s)*180/math.Pi*boxMargin + boxEpsilon
	minLng, maxLng := center.Lng-dLng, center.Lng+dLng
	if minLng < -180 || maxLng > 180 {
		return min, max, false
	}

	return [2]float64{minLng, minLat}, [2]float64{maxLng, maxLat}, true
}
