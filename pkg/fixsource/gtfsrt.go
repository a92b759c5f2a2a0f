package fixsource

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"nav_tracker/pkg/route"
)

// maxFeedBytes bounds a GTFS-Realtime feed read.
const maxFeedBytes = 64 << 20

// ReadGTFSRealtime decodes a GTFS-Realtime FeedMessage and returns the
// VehiclePosition fixes of one vehicle ordered by timestamp. An empty
// vehicleID selects the first vehicle in the feed. Entities without a
// position are skipped.
func ReadGTFSRealtime(r io.Reader, vehicleID string) ([]Fix, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("parsing protobuf: %w", err)
	}
	return VehicleFixes(feed, vehicleID), nil
}

// VehicleFixes extracts one vehicle's positions from a decoded feed.
func VehicleFixes(feed *gtfs.FeedMessage, vehicleID string) []Fix {
	var fixes []Fix
	for _, entity := range feed.GetEntity() {
		vp := entity.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}
		id := vehicleKey(entity, vp)
		if vehicleID == "" {
			vehicleID = id
		}
		if id != vehicleID {
			continue
		}

		pos := vp.GetPosition()
		fix := Fix{Point: route.Point{Lat: float64(pos.GetLatitude()), Lng: float64(pos.GetLongitude())}}
		ts := vp.GetTimestamp()
		if ts == 0 {
			ts = feed.GetHeader().GetTimestamp()
		}
		if ts > 0 {
			fix.Time = time.Unix(int64(ts), 0).UTC()
		}
		fixes = append(fixes, fix)
	}

	sort.SliceStable(fixes, func(i, j int) bool {
		return fixes[i].Time.Before(fixes[j].Time)
	})
	return fixes
}

// vehicleKey prefers the vehicle descriptor id, then the entity id.
func vehicleKey(entity *gtfs.FeedEntity, vp *gtfs.VehiclePosition) string {
	if id := vp.GetVehicle().GetId(); id != "" {
		return id
	}
	return entity.GetId()
}
