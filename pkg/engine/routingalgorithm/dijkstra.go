package routingalgorithm

import (
	"errors"
	"math"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/util"
)

var (
	ErrNoRouteFound = errors.New("no route found")
)

type Path struct {
	Nodes  []int32
	Length float64 // meter, sum of the minimum length segment of every node pair
}

// Pairs number of node pairs (traversed segments) in the path.
func (p Path) Pairs() int {
	if len(p.Nodes) == 0 {
		return 0
	}
	return len(p.Nodes) - 1
}

type RouteAlgorithm struct {
	g Graph
}

func NewRouteAlgorithm(g Graph) *RouteAlgorithm {
	return &RouteAlgorithm{g: g}
}

// ShortestPath dijkstra by segment length on the graph seen through the overlay (nil
// means no override). nodes are settled in (distance, node id) order and a label is
// only replaced on strict improvement, so equal length paths always resolve the same way.
func (rt *RouteAlgorithm) ShortestPath(from, to int32, overlay *Overlay) (Path, error) {
	n := rt.g.NumNodes()
	if from < 0 || to < 0 || int(from) >= n || int(to) >= n {
		return Path{}, ErrNoRouteFound
	}
	if from == to {
		return Path{Nodes: []int32{from}}, nil
	}

	pq := datastructure.NewMinHeap[int32]()
	costSoFar := make(map[int32]float64)
	cameFrom := make(map[int32]int32)
	visited := make(map[int32]struct{})

	costSoFar[from] = 0
	cameFrom[from] = -1
	pq.Insert(datastructure.NewPriorityQueueNode(0, from))

	for pq.Size() > 0 {
		current, _ := pq.ExtractMin()
		if current.Item == to {
			return rt.buildPath(cameFrom, to), nil
		}
		visited[current.Item] = struct{}{}

		rt.g.ForEachNeighbor(current.Item, func(seg *datastructure.Segment) {
			if _, ok := visited[seg.To]; ok {
				return
			}
			w := overlay.weight(seg.From, seg.To, seg.Length)
			if math.IsInf(w, 1) {
				return
			}
			newCost := costSoFar[current.Item] + w
			old, ok := costSoFar[seg.To]
			if ok && newCost >= old {
				return
			}
			costSoFar[seg.To] = newCost
			cameFrom[seg.To] = current.Item
			if ok {
				pq.DecreaseKey(datastructure.NewPriorityQueueNode(newCost, seg.To))
			} else {
				pq.Insert(datastructure.NewPriorityQueueNode(newCost, seg.To))
			}
		})
	}

	return Path{}, ErrNoRouteFound
}

func (rt *RouteAlgorithm) buildPath(cameFrom map[int32]int32, to int32) Path {
	nodes := []int32{}
	for curr := to; curr != -1; curr = cameFrom[curr] {
		nodes = append(nodes, curr)
	}
	nodes = util.ReverseG(nodes)
	return Path{Nodes: nodes, Length: rt.PathLength(nodes)}
}

// PathLength true length of a node sequence, ignoring any overlay.
func (rt *RouteAlgorithm) PathLength(nodes []int32) float64 {
	length := 0.0
	for i := 0; i+1 < len(nodes); i++ {
		if seg, ok := rt.g.SegmentBetween(nodes[i], nodes[i+1]); ok {
			length += seg.Length
		}
	}
	return length
}
