// Package config loads tracker configuration from YAML or TOML files, a .env
// file and NAV_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"nav_tracker/pkg/camera"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string `yaml:"addr" toml:"addr" validate:"required"`
	ReadTimeoutMS  int    `yaml:"readTimeoutMS" toml:"read_timeout_ms" validate:"gt=0"`
	WriteTimeoutMS int    `yaml:"writeTimeoutMS" toml:"write_timeout_ms" validate:"gt=0"`
	MaxConcurrent  int    `yaml:"maxConcurrent" toml:"max_concurrent" validate:"gt=0"`
	CORSOrigin     string `yaml:"corsOrigin" toml:"cors_origin"`
}

// SessionConfig holds navigation session settings.
type SessionConfig struct {
	TTLSeconds   int     `yaml:"ttlSeconds" toml:"ttl_seconds" validate:"gt=0"`
	FollowZoom   float64 `yaml:"followZoom" toml:"follow_zoom" validate:"gte=0,lte=22"`
	FollowTilt   float64 `yaml:"followTilt" toml:"follow_tilt" validate:"gte=0,lte=90"`
	SpatialIndex bool    `yaml:"spatialIndex" toml:"spatial_index"`
}

// ReplayConfig holds fix playback settings.
type ReplayConfig struct {
	IntervalMS int    `yaml:"intervalMS" toml:"interval_ms" validate:"gte=0"`
	VehicleID  string `yaml:"vehicleID" toml:"vehicle_id"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `yaml:"level" toml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development" toml:"development"`
}

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Replay  ReplayConfig  `yaml:"replay" toml:"replay"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeoutMS:  5000,
			WriteTimeoutMS: 5000,
			MaxConcurrent:  runtime.NumCPU() * 2,
		},
		Session: SessionConfig{
			TTLSeconds:   1800,
			FollowZoom:   camera.DefaultZoom,
			FollowTilt:   camera.DefaultTiltDegrees,
			SpatialIndex: true,
		},
		Replay: ReplayConfig{IntervalMS: 1000},
		Log:    LogConfig{Level: "info"},
	}
}

// ReadTimeout returns Server.ReadTimeoutMS as a duration.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns Server.WriteTimeoutMS as a duration.
func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutMS) * time.Millisecond
}

// SessionTTL returns Session.TTLSeconds as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLSeconds) * time.Second
}

// ReplayInterval returns Replay.IntervalMS as a duration.
func (c Config) ReplayInterval() time.Duration {
	return time.Duration(c.Replay.IntervalMS) * time.Millisecond
}

// CameraOptions returns the follow-mode camera settings.
func (c Config) CameraOptions() camera.Options {
	return camera.Options{Zoom: c.Session.FollowZoom, TiltDegrees: c.Session.FollowTilt}
}

// Load builds a Config from Default, then the file at path (if non-empty),
// then a .env file in the working directory (if present), then NAV_*
// environment variables, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
	case ".yml", ".yaml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q", path, ext)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Addr = getEnv("NAV_ADDR", cfg.Server.Addr)
	cfg.Server.CORSOrigin = getEnv("NAV_CORS_ORIGIN", cfg.Server.CORSOrigin)
	cfg.Replay.VehicleID = getEnv("NAV_VEHICLE_ID", cfg.Replay.VehicleID)
	cfg.Log.Level = getEnv("NAV_LOG_LEVEL", cfg.Log.Level)

	ints := []struct {
		key string
		dst *int
	}{
		{"NAV_MAX_CONCURRENT", &cfg.Server.MaxConcurrent},
		{"NAV_SESSION_TTL_SECONDS", &cfg.Session.TTLSeconds},
		{"NAV_REPLAY_INTERVAL_MS", &cfg.Replay.IntervalMS},
	}
	for _, e := range ints {
		v, ok := os.LookupEnv(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"NAV_SPATIAL_INDEX", &cfg.Session.SpatialIndex},
		{"NAV_LOG_DEVELOPMENT", &cfg.Log.Development},
	}
	for _, e := range bools {
		v, ok := os.LookupEnv(e.key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = b
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
