package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"nav_tracker/pkg/config"
	"nav_tracker/pkg/fixsource"
	"nav_tracker/pkg/route"
	"nav_tracker/pkg/session"
	"nav_tracker/pkg/trace"
)

func main() {
	routePath := flag.String("route", "", "Path to JSON route plan")
	fixesPath := flag.String("fixes", "", "Path to fixes (.gpx, .jsonl, .pb)")
	configPath := flag.String("config", "", "Path to YAML or TOML config file")
	interval := flag.Duration("interval", -1, "Delay between fixes (default from config; 0 = as fast as possible)")
	vehicle := flag.String("vehicle", "", "GTFS-RT vehicle id (default from config, else first vehicle)")
	geojsonPath := flag.String("geojson", "", "Write route and trail as GeoJSON to this path")
	linear := flag.Bool("linear", false, "Use the linear matcher instead of the spatial index")
	flag.Parse()

	if *routePath == "" || *fixesPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: replay --route <plan.json> --fixes <drive.gpx|drive.jsonl|feed.pb> [--interval 1s] [--geojson out.geojson]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *interval >= 0 {
		cfg.Replay.IntervalMS = int(*interval / time.Millisecond)
	}
	if *vehicle != "" {
		cfg.Replay.VehicleID = *vehicle
	}
	if *linear {
		cfg.Session.SpatialIndex = false
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *routePath, *fixesPath, *geojsonPath); err != nil {
		log.Error("replay failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger, routePath, fixesPath, geojsonPath string) error {
	start := time.Now()

	f, err := os.Open(routePath)
	if err != nil {
		return fmt.Errorf("opening route: %w", err)
	}
	rt, err := route.DecodePlan(f)
	f.Close()
	if err != nil {
		return err
	}

	fixes, err := fixsource.Load(fixesPath, fixsource.LoadOptions{VehicleID: cfg.Replay.VehicleID})
	if err != nil {
		return err
	}
	log.Info("loaded replay input",
		zap.Int("steps", len(rt.Steps)),
		zap.Float64("distance_m", rt.TotalDistanceMeters()),
		zap.Int("fixes", len(fixes)))

	s := session.New(
		session.WithLogger(log),
		session.WithCamera(cfg.CameraOptions()),
		session.WithSpatialIndex(cfg.Session.SpatialIndex))
	s.Start(rt)
	rec := trace.NewRecorder(rt)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.Default(int64(len(fixes)), "Replaying")
	var applied, discarded int
	err = fixsource.Playback(ctx, fixes, cfg.ReplayInterval(), func(i int, fix fixsource.Fix) error {
		u := s.ProcessFix(fix.Point)
		rec.Add(fix.Point, u)
		switch u.Outcome {
		case session.Applied:
			applied++
		case session.Discarded:
			discarded++
		}
		bar.Describe(fmt.Sprintf("%.0f m / %.0f s left", u.Progress.RemainingDistanceMeters, u.Progress.RemainingDurationSeconds))
		bar.Add(1)
		if u.Progress.Arrived {
			return fixsource.ErrStop
		}
		return nil
	})
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("playback: %w", err)
	}

	p := s.Progress()
	log.Info("replay finished",
		zap.Stringer("mode", s.Mode()),
		zap.Bool("arrived", p.Arrived),
		zap.Float64("remaining_m", p.RemainingDistanceMeters),
		zap.Float64("remaining_s", p.RemainingDurationSeconds),
		zap.Int("fixes_applied", applied),
		zap.Int("discarded", discarded),
		zap.Duration("took", time.Since(start).Round(time.Millisecond)))

	if geojsonPath != "" {
		data, err := rec.GeoJSON()
		if err != nil {
			return fmt.Errorf("encoding trace: %w", err)
		}
		if err := os.WriteFile(geojsonPath, data, 0o644); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		log.Info("wrote trace", zap.String("path", geojsonPath))
	}
	return nil
}
