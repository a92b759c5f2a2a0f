package route

import (
	"errors"
	"math"
)

// ErrBadPolyline is returned for truncated or otherwise undecodable
// encoded polylines.
var ErrBadPolyline = errors.New("malformed encoded polyline")

// DecodePolyline decodes a Google-style encoded polyline. Valhalla and OSRM
// emit precision 6, Google precision 5.
func DecodePolyline(encoded string, precision int) ([]Point, error) {
	if encoded == "" {
		return nil, nil
	}
	if precision <= 0 {
		precision = 5
	}
	factor := math.Pow10(precision)

	var points []Point
	lat, lng := 0, 0
	index := 0
	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next
		lat += dLat
		lng += dLng
		points = append(points, Point{Lat: float64(lat) / factor, Lng: float64(lng) / factor})
	}
	return points, nil
}

// decodeValue consumes one zig-zag varint starting at index.
func decodeValue(encoded string, index int) (value, next int, err error) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, 0, ErrBadPolyline
		}
		b := int(encoded[index]) - 63
		index++
		if b < 0 || b > 0x3f {
			return 0, 0, ErrBadPolyline
		}
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(points []Point, precision int) string {
	if precision <= 0 {
		precision = 5
	}
	factor := math.Pow10(precision)

	var buf []byte
	prevLat, prevLng := 0, 0
	for _, p := range points {
		lat := int(math.Round(p.Lat * factor))
		lng := int(math.Round(p.Lng * factor))
		buf = appendValue(buf, lat-prevLat)
		buf = appendValue(buf, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

func appendValue(buf []byte, v int) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		buf = append(buf, byte((0x20|(u&0x1f))+63))
		u >>= 5
	}
	return append(buf, byte(u+63))
}
