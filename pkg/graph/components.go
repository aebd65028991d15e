package graph

import (
	"github.com/lintang-b-s/trafficnav/pkg/util"
)

// buildComponents label every node with its strongly connected component (kosaraju).
// components are numbered in topological order of the condensation graph, so an edge
// between two components always goes from the lower to the higher id.
func (g *RoadGraph) buildComponents() {
	n := int32(len(g.nodes))

	inNodes := make([][]int32, n)
	for _, seg := range g.segments {
		inNodes[seg.To] = append(inNodes[seg.To], seg.From)
	}

	order := make([]int32, 0, n)
	visited := make([]bool, n)
	for i := int32(0); i < n; i++ {
		if !visited[i] {
			g.dfsForward(i, &order, visited)
		}
	}
	order = util.ReverseG[int32](order)

	visited = make([]bool, n)
	g.component = make([]int32, n)
	g.componentSize = g.componentSize[:0]
	for _, v := range order {
		if visited[v] {
			continue
		}
		members := make([]int32, 0)
		dfsReversed(v, inNodes, &members, visited)
		id := int32(len(g.componentSize))
		for _, node := range members {
			g.component[node] = id
		}
		g.componentSize = append(g.componentSize, int32(len(members)))
	}

	g.componentAdj = make([][]int32, len(g.componentSize))
	seen := make(map[[2]int32]struct{})
	for _, seg := range g.segments {
		cu, cv := g.component[seg.From], g.component[seg.To]
		if cu == cv {
			continue
		}
		if _, ok := seen[[2]int32{cu, cv}]; ok {
			continue
		}
		seen[[2]int32{cu, cv}] = struct{}{}
		g.componentAdj[cu] = append(g.componentAdj[cu], cv)
	}
}

func (g *RoadGraph) dfsForward(v int32, output *[]int32, visited []bool) {
	visited[v] = true
	for _, segID := range g.outSegments[v] {
		to := g.segments[segID].To
		if !visited[to] {
			g.dfsForward(to, output, visited)
		}
	}
	*output = append(*output, v)
}

func dfsReversed(v int32, inNodes [][]int32, output *[]int32, visited []bool) {
	visited[v] = true
	for _, from := range inNodes[v] {
		if !visited[from] {
			dfsReversed(from, inNodes, output, visited)
		}
	}
	*output = append(*output, v)
}

// Reachable reports whether any directed path leads from u to v.
func (g *RoadGraph) Reachable(u, v int32) bool {
	if !g.validNode(u) || !g.validNode(v) {
		return false
	}
	cu, cv := g.component[u], g.component[v]
	if cu == cv {
		return true
	}
	if cu > cv {
		return false
	}

	visited := map[int32]bool{cu: true}
	stack := []int32{cu}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.componentAdj[c] {
			if next == cv {
				return true
			}
			if next > cv || visited[next] {
				continue
			}
			visited[next] = true
			stack = append(stack, next)
		}
	}
	return false
}

// Component strongly connected component id of a node, -1 for unknown nodes.
func (g *RoadGraph) Component(u int32) int32 {
	if !g.validNode(u) {
		return -1
	}
	return g.component[u]
}

func (g *RoadGraph) largestComponent() int {
	largest := int32(0)
	for _, size := range g.componentSize {
		largest = max(largest, size)
	}
	return int(largest)
}
