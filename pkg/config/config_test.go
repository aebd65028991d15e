package config

import (
	"testing"
	"time"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/routingalgorithm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, "indore", cfg.Region)
	assert.Equal(t, "indore.osm.pbf", cfg.PBFFile())
	assert.Equal(t, []datastructure.NetworkType{
		datastructure.NetworkDrive, datastructure.NetworkBike, datastructure.NetworkWalk,
	}, cfg.Networks)
	assert.Equal(t, 10*time.Minute, cfg.GraphLoadTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 1000.0, cfg.SnapRadiusM)
	assert.Equal(t, routingalgorithm.DefaultK, cfg.KPaths)
	assert.Equal(t, routingalgorithm.StrategyExclude, cfg.Strategy)
	assert.Equal(t, routingalgorithm.DefaultPenaltyFactor, cfg.PenaltyFactor)
	assert.Equal(t, PathSourceGraph, cfg.PathSource)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.OSRMURLs)

	assert.Equal(t, map[datastructure.TravelMode]float64{
		datastructure.ModeDrive: 1,
		datastructure.ModeCar:   1,
		datastructure.ModeBike:  0.5,
		datastructure.ModeWalk:  0.1,
		datastructure.ModeFoot:  0.1,
	}, cfg.ModeMultipliers)

	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location).Zone()
	assert.Equal(t, 5*3600+30*60, offset)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:8080")
	t.Setenv("REGION", "bhopal")
	t.Setenv("PBF_FILES", "indore=/data/indore.osm.pbf, bhopal=/data/bhopal.osm.pbf")
	t.Setenv("NETWORKS", "walk,drive,walk")
	t.Setenv("K_PATHS", "5")
	t.Setenv("ALTERNATIVE_STRATEGY", "Penalize")
	t.Setenv("PENALTY_FACTOR", "2")
	t.Setenv("MODE_MULTIPLIERS", "drive=0.9,foot=0.2")
	t.Setenv("TIMEZONE_OFFSET", "-03:00")
	t.Setenv("PATH_SOURCE", "osrm")
	t.Setenv("OSRM_DRIVE_URL", "http://localhost:5001/")
	t.Setenv("OSRM_WALK_URL", "http://localhost:5003")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "/data/bhopal.osm.pbf", cfg.PBFFile())
	assert.Equal(t, []datastructure.NetworkType{datastructure.NetworkWalk, datastructure.NetworkDrive}, cfg.Networks)
	assert.Equal(t, 5, cfg.KPaths)
	assert.Equal(t, routingalgorithm.StrategyPenalize, cfg.Strategy)
	assert.Equal(t, 2.0, cfg.PenaltyFactor)
	assert.Equal(t, map[datastructure.TravelMode]float64{
		datastructure.ModeDrive: 0.9,
		datastructure.ModeCar:   0.9,
		datastructure.ModeFoot:  0.2,
	}, cfg.ModeMultipliers)
	assert.Equal(t, map[datastructure.NetworkType]string{
		datastructure.NetworkDrive: "http://localhost:5001",
		datastructure.NetworkWalk:  "http://localhost:5003",
	}, cfg.OSRMURLs)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location).Zone()
	assert.Equal(t, -3*3600, offset)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"listen addr", "LISTEN_ADDR", "5000"},
		{"pbf entry", "PBF_FILES", "indore"},
		{"network", "NETWORKS", "drive,boat"},
		{"load timeout", "GRAPH_LOAD_TIMEOUT", "ten minutes"},
		{"negative load timeout", "GRAPH_LOAD_TIMEOUT", "-1m"},
		{"snap radius", "SNAP_RADIUS_M", "-5"},
		{"k too large", "K_PATHS", "50"},
		{"k not a number", "K_PATHS", "three"},
		{"strategy", "ALTERNATIVE_STRATEGY", "yen"},
		{"penalty", "PENALTY_FACTOR", "0.5"},
		{"multiplier value", "MODE_MULTIPLIERS", "drive=fast"},
		{"multiplier mode", "MODE_MULTIPLIERS", "plane=3"},
		{"offset", "TIMEZONE_OFFSET", "IST"},
		{"path source", "PATH_SOURCE", "google"},
		{"osrm without url", "PATH_SOURCE", "osrm"},
		{"log level", "LOG_LEVEL", "loud"},
		{"log format", "LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsBadOSRMURL(t *testing.T) {
	t.Setenv("PATH_SOURCE", "osrm")
	t.Setenv("OSRM_DRIVE_URL", "localhost:5001")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresGraphInput(t *testing.T) {
	t.Setenv("REGION", "bhopal")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SNAPSHOT_DIR", t.TempDir())
	_, err = Load()
	assert.NoError(t, err)
}
