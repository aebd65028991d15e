// Package config provides environment-driven configuration for the route planning engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/routingalgorithm"
)

const (
	PathSourceGraph = "graph"
	PathSourceOSRM  = "osrm"
)

// Config holds all application configuration values.
type Config struct {
	ListenAddr       string
	Region           string
	PBFFiles         map[string]string
	Networks         []datastructure.NetworkType
	SnapshotDir      string
	ModelDir         string
	GraphLoadTimeout time.Duration
	ShutdownTimeout  time.Duration
	SnapRadiusM      float64
	KPaths           int
	Strategy         routingalgorithm.Strategy
	PenaltyFactor    float64
	ModeMultipliers  map[datastructure.TravelMode]float64
	Location         *time.Location
	PathSource       string
	OSRMURLs         map[datastructure.NetworkType]string
	LogLevel         string
	LogFormat        string
}

// Load reads configuration from environment variables with sensible defaults.
// a .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  envOrDefault("LISTEN_ADDR", ":5000"),
		Region:      envOrDefault("REGION", "indore"),
		SnapshotDir: os.Getenv("SNAPSHOT_DIR"),
		ModelDir:    envOrDefault("MODEL_DIR", "./speedmodel"),
		PathSource:  strings.ToLower(envOrDefault("PATH_SOURCE", PathSourceGraph)),
		LogLevel:    strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
		OSRMURLs:    map[datastructure.NetworkType]string{},
	}

	var err error
	if cfg.PBFFiles, err = parsePairs(envOrDefault("PBF_FILES", "indore=indore.osm.pbf")); err != nil {
		return nil, fmt.Errorf("PBF_FILES: %w", err)
	}
	if cfg.Networks, err = parseNetworks(envOrDefault("NETWORKS", "drive,bike,walk")); err != nil {
		return nil, fmt.Errorf("NETWORKS: %w", err)
	}
	if cfg.GraphLoadTimeout, err = time.ParseDuration(envOrDefault("GRAPH_LOAD_TIMEOUT", "10m")); err != nil {
		return nil, fmt.Errorf("GRAPH_LOAD_TIMEOUT must be a duration: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration: %w", err)
	}
	if cfg.SnapRadiusM, err = strconv.ParseFloat(envOrDefault("SNAP_RADIUS_M", "1000"), 64); err != nil {
		return nil, fmt.Errorf("SNAP_RADIUS_M must be a number: %w", err)
	}
	if cfg.KPaths, err = strconv.Atoi(envOrDefault("K_PATHS", strconv.Itoa(routingalgorithm.DefaultK))); err != nil {
		return nil, fmt.Errorf("K_PATHS must be an integer: %w", err)
	}
	if cfg.PenaltyFactor, err = strconv.ParseFloat(envOrDefault("PENALTY_FACTOR",
		strconv.FormatFloat(routingalgorithm.DefaultPenaltyFactor, 'f', -1, 64)), 64); err != nil {
		return nil, fmt.Errorf("PENALTY_FACTOR must be a number: %w", err)
	}

	switch strings.ToLower(envOrDefault("ALTERNATIVE_STRATEGY", "exclude")) {
	case "exclude":
		cfg.Strategy = routingalgorithm.StrategyExclude
	case "penalize":
		cfg.Strategy = routingalgorithm.StrategyPenalize
	default:
		return nil, fmt.Errorf("ALTERNATIVE_STRATEGY must be 'exclude' or 'penalize'")
	}

	if cfg.ModeMultipliers, err = parseMultipliers(envOrDefault("MODE_MULTIPLIERS", "drive=1,bike=0.5,walk=0.1")); err != nil {
		return nil, fmt.Errorf("MODE_MULTIPLIERS: %w", err)
	}
	if cfg.Location, err = parseOffset(envOrDefault("TIMEZONE_OFFSET", "+05:30")); err != nil {
		return nil, fmt.Errorf("TIMEZONE_OFFSET: %w", err)
	}

	for key, network := range map[string]datastructure.NetworkType{
		"OSRM_DRIVE_URL": datastructure.NetworkDrive,
		"OSRM_BIKE_URL":  datastructure.NetworkBike,
		"OSRM_WALK_URL":  datastructure.NetworkWalk,
	} {
		if v := strings.TrimRight(os.Getenv(key), "/"); v != "" {
			cfg.OSRMURLs[network] = v
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// PBFFile path of the openstreetmap extract of the configured region.
func (c *Config) PBFFile() string {
	return c.PBFFiles[c.Region]
}

func parsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("entry %q must be key=value", item)
		}
		out[k] = v
	}
	return out, nil
}

func parseNetworks(s string) ([]datastructure.NetworkType, error) {
	var out []datastructure.NetworkType
	seen := make(map[datastructure.NetworkType]bool)
	for _, item := range strings.Split(s, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		n, ok := datastructure.ParseNetworkType(item)
		if !ok {
			return nil, fmt.Errorf("unknown network %q", item)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

func parseMultipliers(s string) (map[datastructure.TravelMode]float64, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	out := make(map[datastructure.TravelMode]float64, len(pairs))
	for mode, raw := range pairs {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("multiplier of %q must be a positive number", mode)
		}
		m := datastructure.TravelMode(strings.ToLower(mode))
		out[m] = f
		// aliases follow their network mode unless set explicitly.
		switch m {
		case datastructure.ModeDrive:
			if _, ok := pairs[string(datastructure.ModeCar)]; !ok {
				out[datastructure.ModeCar] = f
			}
		case datastructure.ModeWalk:
			if _, ok := pairs[string(datastructure.ModeFoot)]; !ok {
				out[datastructure.ModeFoot] = f
			}
		}
	}
	return out, nil
}

// parseOffset parse "+05:30" style offsets into a fixed zone.
func parseOffset(s string) (*time.Location, error) {
	t, err := time.Parse("-07:00", strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("offset %q must look like +05:30", s)
	}
	_, offset := t.Zone()
	return time.FixedZone(s, offset), nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
