package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/geo"
	"github.com/lintang-b-s/trafficnav/pkg/snap"
	"github.com/uber/h3-go/v4"
)

var (
	ErrNoNodeFound      = errors.New("no graph node found near the coordinate")
	ErrGraphUnavailable = errors.New("road graph unavailable")
)

const (
	// resolution 7 cells are ~5 km2, coarse enough to cover a city with a few thousand cells.
	coverageResolution = 7
	snapCandidates     = 16
	DefaultSnapRadius  = 1000.0 // meter
)

type Option func(*RoadGraph)

func WithSnapRadius(meter float64) Option {
	return func(g *RoadGraph) {
		if meter > 0 {
			g.snapRadius = meter
		}
	}
}

// RoadGraph immutable road network of one region and network type. every method
// is safe for concurrent use, nothing is mutated after NewRoadGraph returns.
type RoadGraph struct {
	region  string
	network datastructure.NetworkType

	nodes    []datastructure.Node
	segments []datastructure.Segment
	// outSegments[u] segment ids leaving u, ordered by (To, Length, ID).
	outSegments [][]int32
	// bestSegment[u][v] minimum length segment among the parallel u->v segments.
	bestSegment []map[int32]int32

	// component[u] strongly connected component of u, see buildComponents.
	component     []int32
	componentSize []int32
	componentAdj  [][]int32

	coverage   map[h3.Cell]struct{}
	snapper    *snap.RoadSnapper
	snapRadius float64
	bbox       [4]float64 // minLat, minLon, maxLat, maxLon
}

func NewRoadGraph(network *datastructure.RoadNetwork, opts ...Option) (*RoadGraph, error) {
	if network == nil || len(network.Nodes) == 0 {
		return nil, fmt.Errorf("%w: empty road network", ErrGraphUnavailable)
	}

	g := &RoadGraph{
		region:      network.Region,
		network:     network.Network,
		nodes:       network.Nodes,
		segments:    network.Segments,
		outSegments: make([][]int32, len(network.Nodes)),
		bestSegment: make([]map[int32]int32, len(network.Nodes)),
		coverage:    make(map[h3.Cell]struct{}),
		snapRadius:  DefaultSnapRadius,
	}
	for _, opt := range opts {
		opt(g)
	}

	for i, n := range g.nodes {
		if n.ID != int32(i) {
			return nil, fmt.Errorf("%w: node at index %d has id %d", ErrGraphUnavailable, i, n.ID)
		}
	}

	for i, seg := range g.segments {
		if seg.ID != int32(i) {
			return nil, fmt.Errorf("%w: segment at index %d has id %d", ErrGraphUnavailable, i, seg.ID)
		}
		if !g.validNode(seg.From) || !g.validNode(seg.To) {
			return nil, fmt.Errorf("%w: segment %d references unknown node", ErrGraphUnavailable, seg.ID)
		}
		g.outSegments[seg.From] = append(g.outSegments[seg.From], seg.ID)
	}

	for u := range g.outSegments {
		out := g.outSegments[u]
		sort.Slice(out, func(i, j int) bool {
			a, b := g.segments[out[i]], g.segments[out[j]]
			if a.To != b.To {
				return a.To < b.To
			}
			if a.Length != b.Length {
				return a.Length < b.Length
			}
			return a.ID < b.ID
		})
		if len(out) == 0 {
			continue
		}
		best := make(map[int32]int32, len(out))
		for _, segID := range out {
			to := g.segments[segID].To
			// out is sorted, first hit for a target is the best one.
			if _, ok := best[to]; !ok {
				best[to] = segID
			}
		}
		g.bestSegment[u] = best
	}

	g.buildCoverage()
	g.buildComponents()
	g.snapper = snap.NewRoadSnapper(g.nodes, g.segments)
	return g, nil
}

func (g *RoadGraph) buildCoverage() {
	g.bbox = [4]float64{90, 180, -90, -180}
	for _, n := range g.nodes {
		cell := h3.LatLngToCell(h3.NewLatLng(n.Lat, n.Lon), coverageResolution)
		g.coverage[cell] = struct{}{}

		g.bbox[0] = min(g.bbox[0], n.Lat)
		g.bbox[1] = min(g.bbox[1], n.Lon)
		g.bbox[2] = max(g.bbox[2], n.Lat)
		g.bbox[3] = max(g.bbox[3], n.Lon)
	}

	// nodes close to a cell border snap points from the neighbouring cell too.
	border := make([]h3.Cell, 0, len(g.coverage))
	for cell := range g.coverage {
		border = append(border, cell)
	}
	for _, cell := range border {
		for _, neighbor := range h3.GridDisk(cell, 1) {
			g.coverage[neighbor] = struct{}{}
		}
	}
}

func (g *RoadGraph) validNode(id int32) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Covers whether the coordinate lies inside the region served by this graph.
func (g *RoadGraph) Covers(lat, lon float64) bool {
	cell := h3.LatLngToCell(h3.NewLatLng(lat, lon), coverageResolution)
	_, ok := g.coverage[cell]
	return ok
}

// NearestNode snap a coordinate to a graph node: the closest segment by projection
// distance is picked, then its endpoint closer to the coordinate. ties go to the
// lower segment id and the lower node id.
func (g *RoadGraph) NearestNode(lat, lon float64) (int32, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, fmt.Errorf("%w: coordinate %f,%f out of range", ErrNoNodeFound, lat, lon)
	}
	if !g.Covers(lat, lon) {
		return 0, fmt.Errorf("%w: coordinate %f,%f outside region %s", ErrNoNodeFound, lat, lon, g.region)
	}

	candidates := g.snapper.NearestSegments(lat, lon, snapCandidates)
	if len(candidates) == 0 {
		return g.nearestNodeLinear(lat, lon)
	}

	best := candidates[0]
	if best.Distance > g.snapRadius {
		return 0, fmt.Errorf("%w: closest road is %.0f m away", ErrNoNodeFound, best.Distance)
	}

	fromNode := g.nodes[best.From]
	toNode := g.nodes[best.To]
	distFrom := geo.CalculateHaversineDistance(lat, lon, fromNode.Lat, fromNode.Lon)
	distTo := geo.CalculateHaversineDistance(lat, lon, toNode.Lat, toNode.Lon)

	if distFrom < distTo || (distFrom == distTo && best.From < best.To) {
		return best.From, nil
	}
	return best.To, nil
}

// nearestNodeLinear fallback for graphs without any segment.
func (g *RoadGraph) nearestNodeLinear(lat, lon float64) (int32, error) {
	bestID := int32(-1)
	bestDist := 0.0
	for _, n := range g.nodes {
		d := geo.CalculateHaversineDistance(lat, lon, n.Lat, n.Lon) * 1000
		if bestID == -1 || d < bestDist {
			bestID = n.ID
			bestDist = d
		}
	}
	if bestID == -1 || bestDist > g.snapRadius {
		return 0, fmt.Errorf("%w: no node within %.0f m", ErrNoNodeFound, g.snapRadius)
	}
	return bestID, nil
}

// SegmentBetween the minimum length segment from u to v, ties broken by lowest segment id.
func (g *RoadGraph) SegmentBetween(u, v int32) (datastructure.Segment, bool) {
	if !g.validNode(u) || g.bestSegment[u] == nil {
		return datastructure.Segment{}, false
	}
	segID, ok := g.bestSegment[u][v]
	if !ok {
		return datastructure.Segment{}, false
	}
	return g.segments[segID], true
}

// Neighbors segments leaving u ordered by (To, Length, ID). the returned slice must not be modified.
func (g *RoadGraph) Neighbors(u int32) []datastructure.Segment {
	if !g.validNode(u) {
		return nil
	}
	out := make([]datastructure.Segment, len(g.outSegments[u]))
	for i, segID := range g.outSegments[u] {
		out[i] = g.segments[segID]
	}
	return out
}

// ForEachNeighbor calls fn for every segment leaving u in Neighbors order.
func (g *RoadGraph) ForEachNeighbor(u int32, fn func(seg *datastructure.Segment)) {
	if !g.validNode(u) {
		return
	}
	for _, segID := range g.outSegments[u] {
		fn(&g.segments[segID])
	}
}

func (g *RoadGraph) Node(id int32) (datastructure.Node, bool) {
	if !g.validNode(id) {
		return datastructure.Node{}, false
	}
	return g.nodes[id], true
}

func (g *RoadGraph) NumNodes() int {
	return len(g.nodes)
}

func (g *RoadGraph) NumSegments() int {
	return len(g.segments)
}

func (g *RoadGraph) Region() string {
	return g.region
}

func (g *RoadGraph) Network() datastructure.NetworkType {
	return g.network
}

type Stats struct {
	Region      string     `json:"region"`
	Network     string     `json:"network"`
	Nodes       int        `json:"nodes"`
	Segments    int        `json:"segments"`
	CoverageH3  int        `json:"coverage_cells"`
	BoundingBox [4]float64 `json:"bbox"`
	// Components count of strongly connected components, more than one means some
	// node pairs have no route.
	Components       int `json:"components"`
	LargestComponent int `json:"largest_component"`
}

func (g *RoadGraph) Stats() Stats {
	return Stats{
		Region:      g.region,
		Network:     g.network.String(),
		Nodes:       len(g.nodes),
		Segments:    len(g.segments),
		CoverageH3:  len(g.coverage),
		BoundingBox: g.bbox,

		Components:       len(g.componentSize),
		LargestComponent: g.largestComponent(),
	}
}
