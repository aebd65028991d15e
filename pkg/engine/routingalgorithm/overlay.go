package routingalgorithm

import "math"

type nodePair [2]int32

// Overlay request-local weight overrides on top of a shared graph. a directed node
// pair is either excluded (every parallel segment u->v is skipped) or penalized
// (its weight multiplied). the graph itself is never touched.
type Overlay struct {
	factor map[nodePair]float64
}

func NewOverlay() *Overlay {
	return &Overlay{factor: make(map[nodePair]float64)}
}

func (o *Overlay) Exclude(u, v int32) {
	o.factor[nodePair{u, v}] = math.Inf(1)
}

func (o *Overlay) Penalize(u, v int32, factor float64) {
	p := nodePair{u, v}
	if cur, ok := o.factor[p]; ok {
		o.factor[p] = cur * factor
		return
	}
	o.factor[p] = factor
}

func (o *Overlay) ExcludePath(nodes []int32) {
	for i := 0; i+1 < len(nodes); i++ {
		o.Exclude(nodes[i], nodes[i+1])
	}
}

func (o *Overlay) PenalizePath(nodes []int32, factor float64) {
	for i := 0; i+1 < len(nodes); i++ {
		o.Penalize(nodes[i], nodes[i+1], factor)
	}
}

// weight of a segment u->v of the given length, +Inf when excluded.
func (o *Overlay) weight(u, v int32, length float64) float64 {
	if o == nil {
		return length
	}
	f, ok := o.factor[nodePair{u, v}]
	if !ok {
		return length
	}
	return length * f
}
