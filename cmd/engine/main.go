package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lintang-b-s/trafficnav/docs"
	"github.com/lintang-b-s/trafficnav/pkg/config"
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/osrm"
	"github.com/lintang-b-s/trafficnav/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/trafficnav/pkg/engine/scoring"
	"github.com/lintang-b-s/trafficnav/pkg/engine/speed"
	"github.com/lintang-b-s/trafficnav/pkg/graph"
	"github.com/lintang-b-s/trafficnav/pkg/kv"
	"github.com/lintang-b-s/trafficnav/pkg/osmparser"
	"github.com/lintang-b-s/trafficnav/pkg/server/rest"
	"github.com/lintang-b-s/trafficnav/pkg/server/rest/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
)

var (
	listenAddr = flag.String("listenaddr", "", "server listen address, overrides LISTEN_ADDR")
	mapFile    = flag.String("f", "", "openstreetmap pbf file of the region, overrides PBF_FILES")
	modelDir   = flag.String("model", "", "speed model directory, overrides MODEL_DIR")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

//	@title			trafficnav API
//	@version		1.0
//	@description	traffic-aware route planning over an openstreetmap road network. k distinct candidate routes, every segment scored with a historical speed model.

//	@license.name	GNU Affero General Public License v3.0
//	@license.url	https://www.gnu.org/licenses/gpl-3.0.en.html

// @host		localhost:5000
// @BasePath	/
// @schemes	http
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *mapFile != "" {
		cfg.PBFFiles[cfg.Region] = *mapFile
	}
	if *modelDir != "" {
		cfg.ModelDir = *modelDir
	}
	cfg.SetupLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := rest.NewMetrics(reg)

	model, err := speed.ReadProfileModel(cfg.ModelDir)
	if err != nil {
		log.Fatalf("load speed model from %s: %v", cfg.ModelDir, err)
	}
	predictor, err := speed.NewPredictor(model, speed.WithFallbackCounter(m.FallbackPredictions))
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("classes", predictor.NumClasses()).Info("speed model loaded")

	enumerator := routingalgorithm.NewKShortestPaths(cfg.KPaths,
		routingalgorithm.WithStrategy(cfg.Strategy),
		routingalgorithm.WithPenaltyFactor(cfg.PenaltyFactor),
	)
	scorer := scoring.NewScorer(predictor, scoring.WithModeMultipliers(cfg.ModeMultipliers))
	opts := []service.Option{
		service.WithLocation(cfg.Location),
		service.WithModelInfo(predictor),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var graphs []service.RoadGraph
	if cfg.PathSource == config.PathSourceOSRM {
		opts = append(opts, service.WithExternalPathSource(osrm.NewClient(cfg.OSRMURLs)))
		log.WithField("networks", len(cfg.OSRMURLs)).Info("candidate routes come from osrm")
	} else {
		graphs, err = loadGraphs(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
	}
	recordMemProfile(memprofile, "graphs_loaded")

	planner := service.NewPlanningService(graphs, enumerator, scorer, opts...)

	r := chi.NewRouter()

	r.Use(rest.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", rest.RequestIDHeader},
		ExposedHeaders:   []string{"Link", rest.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // url pointing to API definition
	))

	rest.RoutesRouter(r, planner, m)

	go reloadModelOnHangup(ctx, cfg.ModelDir, predictor)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("server started at %s", cfg.ListenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("graceful shutdown: %v", err)
		}
	}
}

// loadGraphs build one road graph per configured network. graphs are read from the badger
// snapshot cache and parsed from the pbf file on a miss.
func loadGraphs(ctx context.Context, cfg *config.Config) ([]service.RoadGraph, error) {
	kvDB, err := kv.Open(cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}
	defer kvDB.Close()

	provider := kv.NewSnapshotProvider(kvDB, osmparser.NewPBFProvider(cfg.PBFFiles))

	loaded := make([]*graph.RoadGraph, len(cfg.Networks))
	g, gctx := errgroup.WithContext(ctx)
	for i, network := range cfg.Networks {
		i, network := i, network
		g.Go(func() error {
			rg, err := graph.Load(gctx, provider, cfg.Region, network, cfg.GraphLoadTimeout,
				graph.WithSnapRadius(cfg.SnapRadiusM))
			if err != nil {
				return fmt.Errorf("load %s graph of %s: %w", network, cfg.Region, err)
			}
			loaded[i] = rg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graphs := make([]service.RoadGraph, 0, len(loaded))
	for _, rg := range loaded {
		graphs = append(graphs, rg)
	}
	if !hasNetwork(cfg.Networks, datastructure.NetworkDrive) {
		log.Warn("drive graph not loaded, requests for missing networks will fail")
	}
	return graphs, nil
}

func hasNetwork(networks []datastructure.NetworkType, n datastructure.NetworkType) bool {
	for _, nt := range networks {
		if nt == n {
			return true
		}
	}
	return false
}

// reloadModelOnHangup re-read the speed model on SIGHUP and swap it in. a model that fails
// to load leaves the current one in place.
func reloadModelOnHangup(ctx context.Context, dir string, predictor *speed.Predictor) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			model, err := speed.ReadProfileModel(dir)
			if err != nil {
				log.Errorf("reload speed model from %s: %v", dir, err)
				continue
			}
			if err := predictor.Swap(model); err != nil {
				log.Errorf("swap speed model: %v", err)
			}
		}
	}
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
