package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nav_tracker/pkg/config"
)

const replayPlan = `{"steps":[
 {"instruction":"Head north","distanceMeters":100,"durationSeconds":60,
  "polyline":[{"lat":1.3000,"lng":103.8},{"lat":1.3005,"lng":103.8},{"lat":1.3010,"lng":103.8}]},
 {"instruction":"Turn right","distanceMeters":200,"durationSeconds":120,"maneuverKind":"turnRight",
  "polyline":[{"lat":1.3010,"lng":103.8},{"lat":1.3010,"lng":103.802}]}
]}`

// The out-of-range fix is discarded; the fix after arrival is never played.
const replayFixes = `{"lat":1.3000,"lng":103.8}
{"lat":91,"lng":103.8}
{"lat":1.3010,"lng":103.802}
{"lat":1.3005,"lng":103.8}
`

func TestRunCountsOutcomes(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.json")
	fixesPath := filepath.Join(dir, "drive.jsonl")
	tracePath := filepath.Join(dir, "trace.geojson")
	if err := os.WriteFile(planPath, []byte(replayPlan), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fixesPath, []byte(replayFixes), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Replay.IntervalMS = 0
	core, logs := observer.New(zapcore.InfoLevel)

	if err := run(cfg, zap.New(core), planPath, fixesPath, tracePath); err != nil {
		t.Fatalf("run: %v", err)
	}

	done := logs.FilterMessage("replay finished").All()
	if len(done) != 1 {
		t.Fatalf("got %d 'replay finished' entries, want 1", len(done))
	}
	fields := done[0].ContextMap()
	if fields["fixes_applied"] != int64(2) {
		t.Errorf("fixes_applied = %v, want 2", fields["fixes_applied"])
	}
	if fields["discarded"] != int64(1) {
		t.Errorf("discarded = %v, want 1", fields["discarded"])
	}
	if fields["arrived"] != true || fields["mode"] != "arrived" {
		t.Errorf("arrived = %v, mode = %v", fields["arrived"], fields["mode"])
	}

	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("trace not written: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("UnmarshalFeatureCollection: %v", err)
	}
	// 2 steps + 2 applied fixes + trail.
	if len(fc.Features) != 5 {
		t.Errorf("got %d features, want 5", len(fc.Features))
	}
}

func TestRunMissingRoute(t *testing.T) {
	dir := t.TempDir()
	err := run(config.Default(), zap.NewNop(), filepath.Join(dir, "missing.json"), filepath.Join(dir, "drive.jsonl"), "")
	if err == nil {
		t.Error("expected error for missing route plan")
	}
}
