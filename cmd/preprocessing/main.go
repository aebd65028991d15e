package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/lintang-b-s/trafficnav/pkg/config"
	"github.com/lintang-b-s/trafficnav/pkg/kv"
	"github.com/lintang-b-s/trafficnav/pkg/osmparser"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	mapFile     = flag.String("f", "", "openstreetmap pbf file of the region, overrides PBF_FILES")
	snapshotDir = flag.String("out", "", "badger directory the snapshots are written to, overrides SNAPSHOT_DIR")
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to this file")
)

// preprocessing parse the region's pbf once per network type and store the road networks
// in the badger snapshot cache the engine reads at startup.
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *mapFile != "" {
		cfg.PBFFiles[cfg.Region] = *mapFile
	}
	if *snapshotDir != "" {
		cfg.SnapshotDir = *snapshotDir
	}
	cfg.SetupLogger()

	if cfg.SnapshotDir == "" {
		log.Fatal("SNAPSHOT_DIR (or -out) is required, an in-memory snapshot would be lost on exit")
	}
	if cfg.PBFFile() == "" {
		log.Fatalf("no openstreetmap file configured for region %s", cfg.Region)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	kvDB, err := kv.Open(cfg.SnapshotDir)
	if err != nil {
		log.Fatal(err)
	}
	defer kvDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GraphLoadTimeout)
	defer cancel()

	log.Infof("reading osm file %s", cfg.PBFFile())
	start := time.Now()
	provider := osmparser.NewPBFProvider(cfg.PBFFiles)

	g, gctx := errgroup.WithContext(ctx)
	for _, network := range cfg.Networks {
		network := network
		g.Go(func() error {
			rn, err := provider.Network(gctx, cfg.Region, network)
			if err != nil {
				return fmt.Errorf("parse %s network: %w", network, err)
			}
			log.WithFields(log.Fields{
				"network":  network.String(),
				"nodes":    len(rn.Nodes),
				"segments": len(rn.Segments),
			}).Info("road network parsed")
			return kvDB.SaveNetwork(gctx, rn)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	recordMemProfile(memprofile, "finish_preprocessing")
	log.Infof("snapshots of %d networks written to %s in %s", len(cfg.Networks), cfg.SnapshotDir, time.Since(start))
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		path := strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(path)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
