package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/ranking"
	"github.com/lintang-b-s/trafficnav/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/trafficnav/pkg/engine/scoring"
	"github.com/lintang-b-s/trafficnav/pkg/engine/speed"
	"github.com/lintang-b-s/trafficnav/pkg/graph"
	"github.com/lintang-b-s/trafficnav/pkg/server"
	"github.com/lintang-b-s/trafficnav/pkg/util"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	ShortestRouteName = "Shortest Distance"
)

type PlanRequest struct {
	Source      string
	Destination string
	DepartAt    string
	Mode        string
}

type Option func(*PlanningService)

// WithLocation offset used for naive timestamps and for the hour/weekday of a request.
func WithLocation(loc *time.Location) Option {
	return func(ps *PlanningService) {
		if loc != nil {
			ps.loc = loc
		}
	}
}

// WithExternalPathSource route every request through an external routing backend
// instead of the road graphs.
func WithExternalPathSource(src ExternalPathSource) Option {
	return func(ps *PlanningService) {
		ps.external = src
	}
}

func WithModelInfo(m ModelInfo) Option {
	return func(ps *PlanningService) {
		ps.model = m
	}
}

type PlanningService struct {
	graphs     map[datastructure.NetworkType]RoadGraph
	enumerator PathEnumerator
	scorer     SegmentScorer
	external   ExternalPathSource
	model      ModelInfo
	loc        *time.Location
}

func NewPlanningService(graphs []RoadGraph, enumerator PathEnumerator, scorer SegmentScorer,
	opts ...Option) *PlanningService {
	ps := &PlanningService{
		graphs:     make(map[datastructure.NetworkType]RoadGraph, len(graphs)),
		enumerator: enumerator,
		scorer:     scorer,
		loc:        DefaultLocation,
	}
	for _, g := range graphs {
		ps.graphs[g.Network()] = g
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// RouteName name of the i-th enumerated path. alternatives are numbered from 2, the shortest
// path counts as route 1.
func RouteName(i int) string {
	if i == 0 {
		return ShortestRouteName
	}
	return fmt.Sprintf("Alternative Route %d", i+1)
}

// graphFor the graph of the network, or the drive graph when that variant is not loaded.
func (ps *PlanningService) graphFor(network datastructure.NetworkType) (RoadGraph, error) {
	if g, ok := ps.graphs[network]; ok {
		return g, nil
	}
	if g, ok := ps.graphs[datastructure.NetworkDrive]; ok {
		return g, nil
	}
	return nil, server.NewErrorf(server.ErrGraphUnavailable, "no road graph loaded for %s", network)
}

type plan struct {
	src, dst  datastructure.Coordinate
	departAt  time.Time
	mode      datastructure.TravelMode
	hour, dow int
}

func (ps *PlanningService) parse(req PlanRequest) (plan, error) {
	src, err := ParseCoordinate(req.Source)
	if err != nil {
		return plan{}, server.WrapErrorf(err, server.ErrInvalidInput, "invalid source")
	}
	dst, err := ParseCoordinate(req.Destination)
	if err != nil {
		return plan{}, server.WrapErrorf(err, server.ErrInvalidInput, "invalid destination")
	}
	departAt, err := ParseDepartAt(req.DepartAt, ps.loc)
	if err != nil {
		return plan{}, server.WrapErrorf(err, server.ErrInvalidInput, "invalid date_time")
	}
	mode, err := ParseTravelMode(req.Mode)
	if err != nil {
		return plan{}, server.WrapErrorf(err, server.ErrInvalidInput, "invalid travel_mode")
	}
	hour, dow := TimeSlot(departAt)
	return plan{src: src, dst: dst, departAt: departAt, mode: mode, hour: hour, dow: dow}, nil
}

// Plan compute up to k candidate routes between two coordinates and rank them by
// predicted travel time at the requested departure.
func (ps *PlanningService) Plan(ctx context.Context, req PlanRequest) ([]ranking.Route, error) {
	start := time.Now()
	p, err := ps.parse(req)
	if err != nil {
		return nil, err
	}

	var routes []ranking.Route
	if ps.external != nil {
		routes, err = ps.planExternal(ctx, p)
	} else {
		routes, err = ps.planOnGraph(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	fallbacks := 0
	for _, r := range routes {
		for _, s := range r.Segments {
			if s.Fallback {
				fallbacks++
			}
		}
	}
	log.WithFields(log.Fields{
		"component":  "planner",
		"mode":       string(p.mode),
		"hour":       p.hour,
		"dow":        p.dow,
		"routes":     len(routes),
		"best_min":   util.RoundFloat(routes[0].TotalTimeMin, 2),
		"fallbacks":  fallbacks,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("routes planned")
	return routes, nil
}

func (ps *PlanningService) planOnGraph(ctx context.Context, p plan) ([]ranking.Route, error) {
	g, err := ps.graphFor(p.mode.Network())
	if err != nil {
		return nil, err
	}

	from, err := g.NearestNode(p.src.Lat, p.src.Lon)
	if err != nil {
		return nil, endpointError(err, "source")
	}
	to, err := g.NearestNode(p.dst.Lat, p.dst.Lon)
	if err != nil {
		return nil, endpointError(err, "destination")
	}

	if !g.Reachable(from, to) {
		return nil, server.WrapErrorf(routingalgorithm.ErrNoRouteFound, server.ErrNoRouteFound,
			"no route between source and destination")
	}

	paths, err := ps.enumerator.Enumerate(ctx, g, from, to)
	if err != nil {
		if errors.Is(err, routingalgorithm.ErrNoRouteFound) {
			return nil, server.WrapErrorf(err, server.ErrNoRouteFound, "no route between source and destination")
		}
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}

	resolvers := make([]scoring.SegmentResolver, len(paths))
	nodes := make([][]int32, len(paths))
	for i, path := range paths {
		resolvers[i] = g
		nodes[i] = path.Nodes
	}
	return ps.scoreAndRank(ctx, p, resolvers, nodes)
}

func (ps *PlanningService) planExternal(ctx context.Context, p plan) ([]ranking.Route, error) {
	tracks, err := ps.external.Routes(ctx, p.mode.Network(), p.src, p.dst, ps.enumerator.K())
	if err != nil {
		switch {
		case errors.Is(err, routingalgorithm.ErrNoRouteFound):
			return nil, server.WrapErrorf(err, server.ErrNoRouteFound, "no route between source and destination")
		case errors.Is(err, graph.ErrGraphUnavailable):
			return nil, server.WrapErrorf(err, server.ErrGraphUnavailable, "routing backend unavailable")
		default:
			return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
		}
	}

	resolvers := make([]scoring.SegmentResolver, len(tracks))
	nodes := make([][]int32, len(tracks))
	for i, t := range tracks {
		resolvers[i] = t
		nodes[i] = t.Nodes()
	}
	return ps.scoreAndRank(ctx, p, resolvers, nodes)
}

// scoreAndRank score every candidate concurrently. each goroutine writes its own slot so
// the candidates keep enumeration order.
func (ps *PlanningService) scoreAndRank(ctx context.Context, p plan, resolvers []scoring.SegmentResolver,
	nodes [][]int32) ([]ranking.Route, error) {
	candidates := make([]ranking.Candidate, len(nodes))

	eg, egCtx := errgroup.WithContext(ctx)
	for i := range nodes {
		i := i
		eg.Go(func() error {
			segments, err := ps.scorer.Score(egCtx, resolvers[i], nodes[i], p.mode, p.hour, p.dow)
			if err != nil {
				return err
			}
			pairs := 0
			if len(nodes[i]) > 1 {
				pairs = len(nodes[i]) - 1
			}
			candidates[i] = ranking.Candidate{Name: RouteName(i), Pairs: pairs, Segments: segments}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if errors.Is(err, speed.ErrModelUnavailable) {
			return nil, server.WrapErrorf(err, server.ErrModelUnavailable, "speed model unavailable")
		}
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}

	routes, err := ranking.Rank(candidates)
	if err != nil {
		if errors.Is(err, ranking.ErrNoRoutesFound) {
			return nil, server.WrapErrorf(err, server.ErrNoRoutesFound, "no scorable route between source and destination")
		}
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	return routes, nil
}

func endpointError(err error, which string) error {
	if errors.Is(err, graph.ErrNoNodeFound) {
		return server.WrapErrorf(err, server.ErrEndpointUnresolvable, "%s is not covered by the road network", which)
	}
	return server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
}

type Health struct {
	Graphs       []graph.Stats `json:"graphs"`
	ModelClasses int           `json:"model_classes"`
	PathSource   string        `json:"path_source"`
}

func (ps *PlanningService) Health() Health {
	h := Health{Graphs: []graph.Stats{}, PathSource: "graph"}
	for _, network := range []datastructure.NetworkType{datastructure.NetworkDrive, datastructure.NetworkBike,
		datastructure.NetworkWalk} {
		if g, ok := ps.graphs[network]; ok {
			h.Graphs = append(h.Graphs, g.Stats())
		}
	}
	if ps.model != nil {
		h.ModelClasses = ps.model.NumClasses()
	}
	if ps.external != nil {
		h.PathSource = "osrm"
	}
	return h
}
