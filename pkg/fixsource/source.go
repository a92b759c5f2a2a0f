// Package fixsource loads recorded position fixes and replays them at a
// fixed cadence, standing in for a live positioning provider.
package fixsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nav_tracker/pkg/route"
)

// ErrUnknownFormat is returned by Load for unrecognised file extensions.
var ErrUnknownFormat = errors.New("unknown fix file format")

// Fix is one reported position. Time is zero when the source has none.
type Fix struct {
	Point route.Point
	Time  time.Time
}

// LoadOptions narrows what Load extracts from multi-vehicle sources.
type LoadOptions struct {
	VehicleID string // GTFS-Realtime only; empty takes the first vehicle seen
}

// Load reads fixes from path, choosing the decoder by extension:
// .gpx, .jsonl/.ndjson, or .pb/.bin (GTFS-Realtime FeedMessage).
func Load(path string, opts LoadOptions) ([]Fix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fix file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpx":
		return ReadGPX(f)
	case ".jsonl", ".ndjson":
		return ReadJSONLines(f)
	case ".pb", ".bin":
		return ReadGTFSRealtime(f, opts.VehicleID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Playback hands fixes to fn one at a time, one per interval, the way a
// simulated positioning provider would. The first fix is delivered
// immediately. It stops early when ctx is cancelled or fn returns an error;
// fn returning ErrStop ends playback without error.
func Playback(ctx context.Context, fixes []Fix, interval time.Duration, fn func(int, Fix) error) error {
	if len(fixes) == 0 {
		return nil
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i, fix := range fixes {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(i, fix); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// ErrStop can be returned from a Playback callback to end playback early.
var ErrStop = errors.New("stop playback")
