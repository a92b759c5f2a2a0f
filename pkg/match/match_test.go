package match

import (
	"math"
	"math/rand/v2"
	"testing"

	"nav_tracker/pkg/geo"
	"nav_tracker/pkg/route"
)

// straightStep builds a step of n points spaced spacing meters apart heading
// along bearing from start.
func straightStep(start route.Point, n int, spacing, bearing float64) route.Step {
	pts := make([]route.Point, n)
	pts[0] = start
	for i := 1; i < n; i++ {
		lat, lng := geo.Offset(pts[i-1].Lat, pts[i-1].Lng, spacing, bearing)
		pts[i] = route.Point{Lat: lat, Lng: lng}
	}
	return route.Step{
		DistanceMeters:  spacing * float64(n-1),
		DurationSeconds: spacing * float64(n-1) / 10,
		Polyline:        pts,
	}
}

// zigzagRoute builds steps whose consecutive polylines share their boundary
// point, like a real routing response.
func zigzagRoute(steps, pointsPerStep int, spacing float64) route.Route {
	var r route.Route
	start := route.Point{Lat: 1.3000, Lng: 103.8000}
	for i := 0; i < steps; i++ {
		bearing := 45.0
		if i%2 == 1 {
			bearing = 135
		}
		s := straightStep(start, pointsPerStep, spacing, bearing)
		r.Steps = append(r.Steps, s)
		start = s.Polyline[len(s.Polyline)-1]
	}
	return r
}

func TestNearestExactPoint(t *testing.T) {
	r := zigzagRoute(4, 7, 50)

	for i, s := range r.Steps {
		for k, p := range s.Polyline {
			m, ok := Nearest(p, r)
			if !ok {
				t.Fatalf("no match for step %d point %d", i, k)
			}
			wantStep, wantFrac := i, float64(k)/float64(len(s.Polyline)-1)
			// A step's first point is shared with the previous step's last
			// point; the earlier step wins.
			if k == 0 && i > 0 {
				wantStep, wantFrac = i-1, 1.0
			}
			if m.StepIndex != wantStep || m.Fraction != wantFrac {
				t.Errorf("step %d point %d: got (%d, %f), want (%d, %f)", i, k, m.StepIndex, m.Fraction, wantStep, wantFrac)
			}
			if m.Dist != 0 {
				t.Errorf("step %d point %d: Dist = %f, want 0", i, k, m.Dist)
			}
		}
	}
}

func TestNearestDistinctPoints(t *testing.T) {
	// Steps that do not share endpoints: every point maps to itself.
	r := route.Route{Steps: []route.Step{
		straightStep(route.Point{Lat: 1.30, Lng: 103.80}, 5, 40, 0),
		straightStep(route.Point{Lat: 1.31, Lng: 103.80}, 3, 40, 90),
		straightStep(route.Point{Lat: 1.32, Lng: 103.80}, 9, 40, 180),
	}}
	for i, s := range r.Steps {
		for k, p := range s.Polyline {
			m, ok := Nearest(p, r)
			if !ok || m.StepIndex != i || m.PointIndex != k {
				t.Fatalf("point (%d,%d) matched (%d,%d) ok=%v", i, k, m.StepIndex, m.PointIndex, ok)
			}
			want := float64(k) / float64(len(s.Polyline)-1)
			if m.Fraction != want {
				t.Errorf("point (%d,%d) fraction = %f, want %f", i, k, m.Fraction, want)
			}
		}
	}
}

func TestNearestTieBreak(t *testing.T) {
	p := route.Point{Lat: 1.3, Lng: 103.8}
	q := route.Point{Lat: 1.301, Lng: 103.8}
	r := route.Route{Steps: []route.Step{
		{Polyline: []route.Point{q, p}},
		{Polyline: []route.Point{p, q}},
	}}

	m, ok := Nearest(p, r)
	if !ok {
		t.Fatal("no match")
	}
	if m.StepIndex != 0 || m.PointIndex != 1 || m.Fraction != 1 {
		t.Errorf("got %+v, want step 0 point 1", m)
	}

	// Same point repeated within one step: lower point index wins.
	r = route.Route{Steps: []route.Step{{Polyline: []route.Point{q, p, p, q}}}}
	m, _ = Nearest(p, r)
	if m.PointIndex != 1 {
		t.Errorf("PointIndex = %d, want 1", m.PointIndex)
	}
}

func TestNearestSinglePointStep(t *testing.T) {
	p := route.Point{Lat: 1.3, Lng: 103.8}
	r := route.Route{Steps: []route.Step{{Polyline: []route.Point{p}}}}
	m, ok := Nearest(route.Point{Lat: 1.31, Lng: 103.81}, r)
	if !ok {
		t.Fatal("no match")
	}
	if m.StepIndex != 0 || m.Fraction != 0 {
		t.Errorf("got %+v, want (0, 0)", m)
	}
}

func TestNearestSkipsEmptySteps(t *testing.T) {
	p := route.Point{Lat: 1.3, Lng: 103.8}
	r := route.Route{Steps: []route.Step{
		{},
		{Polyline: []route.Point{p, {Lat: 1.302, Lng: 103.8}}},
		{},
	}}
	m, ok := Nearest(p, r)
	if !ok || m.StepIndex != 1 || m.Fraction != 0 {
		t.Errorf("got %+v ok=%v, want step 1 fraction 0", m, ok)
	}
}

func TestNearestNoPoints(t *testing.T) {
	fix := route.Point{Lat: 1.3, Lng: 103.8}
	for name, r := range map[string]route.Route{
		"empty route":     {},
		"all steps empty": {Steps: []route.Step{{}, {DistanceMeters: 10}}},
	} {
		t.Run(name, func(t *testing.T) {
			if m, ok := Nearest(fix, r); ok {
				t.Errorf("got %+v, want no match", m)
			}
			if m, ok := NewIndex(r).Nearest(fix); ok {
				t.Errorf("index got %+v, want no match", m)
			}
			if _, ok := NewIndex(r).Bounds(); ok {
				t.Error("index Bounds ok for route without points")
			}
		})
	}
}

func TestIndexMatchesLinearScan(t *testing.T) {
	r := zigzagRoute(6, 60, 25)
	idx := NewIndex(r)
	if idx.Len() != r.NumPoints() {
		t.Fatalf("Len = %d, want %d", idx.Len(), r.NumPoints())
	}

	rng := rand.New(rand.NewPCG(1, 2))
	b, _ := r.Bounds()
	for i := 0; i < 2000; i++ {
		fix := route.Point{
			Lat: b.MinLat - 0.01 + rng.Float64()*(b.MaxLat-b.MinLat+0.02),
			Lng: b.MinLng - 0.01 + rng.Float64()*(b.MaxLng-b.MinLng+0.02),
		}
		want, _ := Nearest(fix, r)
		got, ok := idx.Nearest(fix)
		if !ok || got != want {
			t.Fatalf("fix %+v: index %+v (ok=%v), linear %+v", fix, got, ok, want)
		}
	}
}

func TestIndexPreservesTieBreak(t *testing.T) {
	r := zigzagRoute(6, 60, 25)
	idx := NewIndex(r)
	for i := 1; i < len(r.Steps); i++ {
		shared := r.Steps[i].Polyline[0]
		m, ok := idx.Nearest(shared)
		if !ok || m.StepIndex != i-1 || m.Fraction != 1 {
			t.Errorf("shared point %d: got %+v, want step %d fraction 1", i, m, i-1)
		}
	}
}

func TestIndexFarFixFallsBack(t *testing.T) {
	r := zigzagRoute(3, 40, 25)
	idx := NewIndex(r)
	for _, fix := range []route.Point{
		{Lat: 40.7, Lng: -74.0}, // far beyond the search radius
		{Lat: 89.99, Lng: 0},    // box would touch the pole
		{Lat: 1.3, Lng: 179.9999},
	} {
		want, _ := Nearest(fix, r)
		got, ok := idx.Nearest(fix)
		if !ok || got != want {
			t.Errorf("fix %+v: index %+v, linear %+v", fix, got, want)
		}
	}
}

func TestIndexBounds(t *testing.T) {
	r := zigzagRoute(4, 50, 30)
	want, _ := r.Bounds()
	got, ok := NewIndex(r).Bounds()
	if !ok {
		t.Fatal("Bounds not ok")
	}
	if got != want {
		t.Errorf("Bounds = %+v, want %+v", got, want)
	}
	lin, _ := NewLinear(r).Bounds()
	if lin != want {
		t.Errorf("Linear Bounds = %+v, want %+v", lin, want)
	}
}

func TestSearchBoxContainsCircle(t *testing.T) {
	centers := []route.Point{{Lat: 1.3, Lng: 103.8}, {Lat: 60, Lng: 10}, {Lat: -45, Lng: -70}}
	for _, c := range centers {
		for _, radius := range []float64{0, 10, 500, 20_000} {
			min, max, ok := searchBox(c, radius)
			if !ok {
				t.Fatalf("searchBox(%+v, %v) not ok", c, radius)
			}
			for bearing := 0.0; bearing < 360; bearing += 7.5 {
				lat, lng := geo.Offset(c.Lat, c.Lng, radius, bearing)
				if lng < min[0] || lng > max[0] || lat < min[1] || lat > max[1] {
					t.Errorf("center %+v r=%v bearing %v: (%f,%f) outside box %v-%v", c, radius, bearing, lat, lng, min, max)
				}
			}
		}
	}
	if _, _, ok := searchBox(route.Point{Lat: 89.9999, Lng: 0}, 100); ok {
		t.Error("searchBox near pole should not be ok")
	}
	if _, _, ok := searchBox(route.Point{Lat: 0, Lng: -179.9999}, 100); ok {
		t.Error("searchBox across antimeridian should not be ok")
	}
}

func TestMatchPoint(t *testing.T) {
	r := zigzagRoute(2, 5, 40)
	target := r.Steps[1].Polyline[3]
	m, _ := Nearest(target, r)
	if got := m.Point(r); got != target {
		t.Errorf("Point = %+v, want %+v", got, target)
	}
	if math.IsNaN(m.Fraction) {
		t.Error("Fraction is NaN")
	}
}

func BenchmarkNearest(b *testing.B) {
	r := zigzagRoute(20, 100, 20)
	fix := route.Point{Lat: 1.305, Lng: 103.805}
	for b.Loop() {
		Nearest(fix, r)
	}
}

func BenchmarkIndexNearest(b *testing.B) {
	r := zigzagRoute(20, 100, 20)
	idx := NewIndex(r)
	fix := route.Point{Lat: 1.305, Lng: 103.805}
	for b.Loop() {
		idx.Nearest(fix)
	}
}
