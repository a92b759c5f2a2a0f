package geo

import "math"

const earthRadiusMeters = 6_371_000.0

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * degToRad
	lat2r := lat2 * degToRad
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a marginally past 1 for antipodal points.
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Bearing returns the initial compass bearing in degrees from point 1 to
// point 2, normalized into [0, 360). The result is arbitrary when the two
// points coincide.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dLon := (lon2 - lon1) * degToRad

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	return NormalizeBearing(math.Atan2(y, x) * radToDeg)
}

// NormalizeBearing folds any angle in degrees into [0, 360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	// -tiny + 360 rounds to exactly 360.
	if b >= 360 {
		b = 0
	}
	return b
}

// Offset returns the point reached by travelling distMeters from (lat, lon)
// along the great circle with the given initial bearing.
func Offset(lat, lon, distMeters, bearingDeg float64) (float64, float64) {
	delta := distMeters / earthRadiusMeters
	theta := bearingDeg * degToRad
	phi1 := lat * degToRad
	lambda1 := lon * degToRad

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(sinPhi2)
	y := math.Sin(theta) * math.Sin(delta) * math.Cos(phi1)
	x := math.Cos(delta) - math.Sin(phi1)*sinPhi2
	lambda2 := lambda1 + math.Atan2(y, x)

	lon2 := math.Mod(lambda2*radToDeg+540, 360) - 180
	return phi2 * radToDeg, lon2
}

// MetersToDegreesLat converts a north-south distance in meters to degrees of
// latitude.
func MetersToDegreesLat(meters float64) float64 {
	return meters / earthRadiusMeters * radToDeg
}
