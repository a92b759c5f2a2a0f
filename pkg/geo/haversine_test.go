package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name: "Singapore CBD to Changi Airport",
			lat1: 1.2830, lon1: 103.8513, // Raffles Place
			lat2: 1.3644, lon2: 103.9915, // Changi Airport
			wantMeters:       18_023,
			tolerancePercent: 1,
		},
		{
			name: "Same point",
			lat1: 1.3521, lon1: 103.8198,
			lat2: 1.3521, lon2: 103.8198,
			wantMeters:       0,
			tolerancePercent: 0,
		},
		{
			name: "London to Paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			wantMeters:       343_500,
			tolerancePercent: 1,
		},
		{
			name: "Short distance (~100m)",
			lat1: 1.3521, lon1: 103.8198,
			lat2: 1.3530, lon2: 103.8198,
			wantMeters:       100,
			tolerancePercent: 5,
		},
		{
			name: "Antipodal",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 180,
			wantMeters:       math.Pi * earthRadiusMeters,
			tolerancePercent: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f m, want ~%f m (diff %.1f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	pts := [][2]float64{
		{1.3521, 103.8198},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{89.9, 10},
		{-89.9, -170},
	}
	for i, a := range pts {
		if d := Haversine(a[0], a[1], a[0], a[1]); d != 0 {
			t.Errorf("Haversine(p%d, p%d) = %f, want 0", i, i, d)
		}
		for j, b := range pts {
			ab := Haversine(a[0], a[1], b[0], b[1])
			ba := Haversine(b[0], b[1], a[0], a[1])
			if ab != ba {
				t.Errorf("Haversine(p%d, p%d) = %f but reverse = %f", i, j, ab, ba)
			}
			if ab < 0 || math.IsNaN(ab) {
				t.Errorf("Haversine(p%d, p%d) = %f, want finite non-negative", i, j, ab)
			}
		}
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		want       float64
	}{
		{name: "North", lat1: 0, lon1: 0, lat2: 1, lon2: 0, want: 0},
		{name: "East", lat1: 0, lon1: 0, lat2: 0, lon2: 1, want: 90},
		{name: "South", lat1: 1, lon1: 0, lat2: 0, lon2: 0, want: 180},
		{name: "West", lat1: 0, lon1: 1, lat2: 0, lon2: 0, want: 270},
		{name: "London to Paris", lat1: 51.5074, lon1: -0.1278, lat2: 48.8566, lon2: 2.3522, want: 148.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > 0.1 {
				t.Errorf("Bearing = %f, want ~%f", got, tt.want)
			}
			if got < 0 || got >= 360 {
				t.Errorf("Bearing = %f, want in [0, 360)", got)
			}
		})
	}
}

func TestBearingRange(t *testing.T) {
	for lat := -80.0; lat <= 80; lat += 20 {
		for lon := -170.0; lon <= 170; lon += 34 {
			for _, d := range [][2]float64{{0.001, 0}, {-0.001, 0}, {0, 0.001}, {0, -0.001}, {0.3, -0.7}, {-1e-9, 0}} {
				b := Bearing(lat, lon, lat+d[0], lon+d[1])
				if b < 0 || b >= 360 {
					t.Fatalf("Bearing(%f,%f -> +%v) = %f, out of [0, 360)", lat, lon, d, b)
				}
			}
		}
	}
}

func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{725, 5},
		{-1e-15, 0},
	}
	for _, tt := range tests {
		if got := NormalizeBearing(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeBearing(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOffset(t *testing.T) {
	lat, lon := 1.3521, 103.8198
	for _, bearing := range []float64{0, 45, 90, 180, 270, 333} {
		for _, dist := range []float64{5, 29, 31, 1000} {
			lat2, lon2 := Offset(lat, lon, dist, bearing)
			got := Haversine(lat, lon, lat2, lon2)
			if math.Abs(got-dist) > 1e-6*math.Max(1, dist) {
				t.Errorf("Offset(%v m @ %v°) lands %f m away", dist, bearing, got)
			}
			b := Bearing(lat, lon, lat2, lon2)
			diff := math.Abs(b - bearing)
			if diff > 180 {
				diff = 360 - diff
			}
			if diff > 1e-6 {
				t.Errorf("Offset(%v m @ %v°) has bearing %f", dist, bearing, b)
			}
		}
	}
}

func BenchmarkHaversine(b *testing.B) {
	for b.Loop() {
		Haversine(1.3521, 103.8198, 1.2905, 103.8520)
	}
}

func BenchmarkBearing(b *testing.B) {
	for b.Loop() {
		Bearing(1.3521, 103.8198, 1.2905, 103.8520)
	}
}
