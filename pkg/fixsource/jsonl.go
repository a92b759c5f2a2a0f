package fixsource

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"nav_tracker/pkg/route"
)

// fixJSON is one line of a JSON-lines fix file:
//
//	{"lat":1.3521,"lng":103.8198,"time":"2024-05-01T08:00:00Z"}
type fixJSON struct {
	Lat  float64   `json:"lat"`
	Lng  float64   `json:"lng"`
	Time time.Time `json:"time,omitempty"`
}

// ReadJSONLines decodes one fix per line. Blank lines and lines starting
// with # are skipped. Coordinates are not range-checked here; the session
// discards invalid fixes itself.
func ReadJSONLines(r io.Reader) ([]Fix, error) {
	var fixes []Fix
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var fj fixJSON
		if err := json.Unmarshal([]byte(text), &fj); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fixes = append(fixes, Fix{Point: route.Point{Lat: fj.Lat, Lng: fj.Lng}, Time: fj.Time})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading fixes: %w", err)
	}
	return fixes, nil
}

// WriteJSONLines is the inverse of ReadJSONLines.
func WriteJSONLines(w io.Writer, fixes []Fix) error {
	enc := json.NewEncoder(w)
	for _, f := range fixes {
		if err := enc.Encode(fixJSON{Lat: f.Point.Lat, Lng: f.Point.Lng, Time: f.Time}); err != nil {
			return err
		}
	}
	return nil
}
