package routingalgorithm

import "github.com/lintang-b-s/trafficnav/pkg/datastructure"

// Graph read-only view of a road graph used by the searches.
type Graph interface {
	NumNodes() int
	ForEachNeighbor(u int32, fn func(seg *datastructure.Segment))
	SegmentBetween(u, v int32) (datastructure.Segment, bool)
}
