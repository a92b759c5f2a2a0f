package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"nav_tracker/pkg/api"
	"nav_tracker/pkg/config"
	"nav_tracker/pkg/session"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML or TOML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Addr = fmt.Sprintf(":%d", *port)
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigin = *corsOrigin
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	handlers := api.NewHandlers(cfg.SessionTTL(), log,
		session.WithCamera(cfg.CameraOptions()),
		session.WithSpatialIndex(cfg.Session.SpatialIndex))
	defer handlers.Close()

	srvCfg := api.DefaultConfig(cfg.Server.Addr)
	srvCfg.ReadTimeout = cfg.ReadTimeout()
	srvCfg.WriteTimeout = cfg.WriteTimeout()
	srvCfg.MaxConcurrent = cfg.Server.MaxConcurrent
	srvCfg.CORSOrigin = cfg.Server.CORSOrigin

	log.Info("starting navigation tracker",
		zap.String("addr", srvCfg.Addr),
		zap.Duration("session_ttl", cfg.SessionTTL()),
		zap.Bool("spatial_index", cfg.Session.SpatialIndex))

	srv := api.NewServer(srvCfg, handlers, log)
	if err := api.ListenAndServe(srv, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}
