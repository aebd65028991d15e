package service

import (
	"context"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/osrm"
	"github.com/lintang-b-s/trafficnav/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/trafficnav/pkg/engine/scoring"
	"github.com/lintang-b-s/trafficnav/pkg/graph"
)

type RoadGraph interface {
	NearestNode(lat, lon float64) (int32, error)
	NumNodes() int
	ForEachNeighbor(u int32, fn func(seg *datastructure.Segment))
	SegmentBetween(u, v int32) (datastructure.Segment, bool)
	Reachable(u, v int32) bool
	Network() datastructure.NetworkType
	Stats() graph.Stats
}

type PathEnumerator interface {
	Enumerate(ctx context.Context, g routingalgorithm.Graph, from, to int32) ([]routingalgorithm.Path, error)
	K() int
}

type SegmentScorer interface {
	Score(ctx context.Context, g scoring.SegmentResolver, nodes []int32, mode datastructure.TravelMode,
		hour, dayOfWeek int) ([]scoring.ScoredSegment, error)
}

// ExternalPathSource routing backend that computes candidate routes itself.
type ExternalPathSource interface {
	Routes(ctx context.Context, network datastructure.NetworkType, from, to datastructure.Coordinate,
		k int) ([]*osrm.Track, error)
}

type ModelInfo interface {
	NumClasses() int
}
