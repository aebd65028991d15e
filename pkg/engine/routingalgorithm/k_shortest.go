package routingalgorithm

import (
	"context"
	"sort"
)

type Strategy int

const (
	// StrategyExclude removes every node pair used by an accepted path before the next search.
	StrategyExclude Strategy = iota
	// StrategyPenalize multiplies the weight of used node pairs instead of removing them.
	StrategyPenalize
)

const (
	DefaultK             = 3
	DefaultPenaltyFactor = 1.4
)

type KShortestOption func(*KShortestPaths)

func WithStrategy(s Strategy) KShortestOption {
	return func(ks *KShortestPaths) {
		ks.strategy = s
	}
}

func WithPenaltyFactor(f float64) KShortestOption {
	return func(ks *KShortestPaths) {
		if f > 1 {
			ks.penalty = f
		}
	}
}

// KShortestPaths enumerate up to k distinct loopless paths. the first one is always the
// shortest path by length, the next ones are searched on a request-local overlay.
type KShortestPaths struct {
	k        int
	strategy Strategy
	penalty  float64
}

func NewKShortestPaths(k int, opts ...KShortestOption) *KShortestPaths {
	if k <= 0 {
		k = DefaultK
	}
	ks := &KShortestPaths{k: k, strategy: StrategyExclude, penalty: DefaultPenaltyFactor}
	for _, opt := range opts {
		opt(ks)
	}
	return ks
}

func (ks *KShortestPaths) K() int {
	return ks.k
}

func (ks *KShortestPaths) Enumerate(ctx context.Context, g Graph, from, to int32) ([]Path, error) {
	rt := NewRouteAlgorithm(g)

	shortest, err := rt.ShortestPath(from, to, nil)
	if err != nil {
		return nil, err
	}
	accepted := []Path{shortest}
	if from == to || ks.k == 1 {
		return accepted, nil
	}

	edgeSets := []map[nodePair]struct{}{edgeSet(shortest.Nodes)}
	overlay := NewOverlay()
	ks.spoil(overlay, shortest.Nodes)

	for attempt := 0; len(accepted) < ks.k && attempt < 2*ks.k; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate, err := rt.ShortestPath(from, to, overlay)
		if err != nil {
			// destination unreachable on the overlay, nothing left to find.
			break
		}
		ks.spoil(overlay, candidate.Nodes)

		set := edgeSet(candidate.Nodes)
		if containsEdgeSet(edgeSets, set) {
			continue
		}
		edgeSets = append(edgeSets, set)
		accepted = append(accepted, candidate)
	}

	if ks.strategy == StrategyPenalize {
		alternatives := accepted[1:]
		sort.SliceStable(alternatives, func(i, j int) bool {
			return alternatives[i].Length < alternatives[j].Length
		})
	}
	return accepted, nil
}

func (ks *KShortestPaths) spoil(overlay *Overlay, nodes []int32) {
	if ks.strategy == StrategyPenalize {
		overlay.PenalizePath(nodes, ks.penalty)
		return
	}
	overlay.ExcludePath(nodes)
}

func edgeSet(nodes []int32) map[nodePair]struct{} {
	set := make(map[nodePair]struct{}, len(nodes))
	for i := 0; i+1 < len(nodes); i++ {
		set[nodePair{nodes[i], nodes[i+1]}] = struct{}{}
	}
	return set
}

func containsEdgeSet(sets []map[nodePair]struct{}, set map[nodePair]struct{}) bool {
	for _, s := range sets {
		if len(s) != len(set) {
			continue
		}
		same := true
		for p := range set {
			if _, ok := s[p]; !ok {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}
