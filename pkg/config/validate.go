package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	log "github.com/sirupsen/logrus"
)

func (c *Config) validate() error {
	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateRouting(); err != nil {
		return err
	}

	if err := c.validatePathSource(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateNetwork() error {
	if c.ListenAddr == "" || !strings.Contains(c.ListenAddr, ":") {
		return fmt.Errorf("LISTEN_ADDR must be host:port or :port, got %q", c.ListenAddr)
	}

	if c.Region == "" {
		return fmt.Errorf("REGION is required")
	}

	if len(c.Networks) == 0 {
		return fmt.Errorf("NETWORKS must name at least one of drive, bike, walk")
	}

	if c.GraphLoadTimeout <= 0 {
		return fmt.Errorf("GRAPH_LOAD_TIMEOUT must be positive")
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}

	return nil
}

func (c *Config) validateRouting() error {
	if c.SnapRadiusM <= 0 {
		return fmt.Errorf("SNAP_RADIUS_M must be positive")
	}

	if c.KPaths < 1 || c.KPaths > 10 {
		return fmt.Errorf("K_PATHS must be an integer between 1 and 10")
	}

	if c.PenaltyFactor <= 1 {
		return fmt.Errorf("PENALTY_FACTOR must be greater than 1")
	}

	for mode := range c.ModeMultipliers {
		switch mode {
		case datastructure.ModeDrive, datastructure.ModeCar, datastructure.ModeBike,
			datastructure.ModeWalk, datastructure.ModeFoot:
		default:
			return fmt.Errorf("MODE_MULTIPLIERS has unknown travel mode %q", mode)
		}
	}

	return nil
}

func (c *Config) validatePathSource() error {
	switch c.PathSource {
	case PathSourceGraph:
		if c.PBFFile() == "" && c.SnapshotDir == "" {
			return fmt.Errorf("PBF_FILES has no entry for region %q and SNAPSHOT_DIR is empty", c.Region)
		}
	case PathSourceOSRM:
		if _, ok := c.OSRMURLs[datastructure.NetworkDrive]; !ok {
			return fmt.Errorf("OSRM_DRIVE_URL is required when PATH_SOURCE is osrm")
		}
		for network, raw := range c.OSRMURLs {
			u, err := url.ParseRequestURI(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("OSRM url of %s network is not a valid http url: %q", network, raw)
			}
		}
	default:
		return fmt.Errorf("PATH_SOURCE must be 'graph' or 'osrm', got %q", c.PathSource)
	}

	return nil
}

func (c *Config) validateLogging() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got %q", c.LogFormat)
	}

	return nil
}
