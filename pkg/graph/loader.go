package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	log "github.com/sirupsen/logrus"
)

// Provider supplies the raw road network of a region for one network type.
type Provider interface {
	Network(ctx context.Context, region string, network datastructure.NetworkType) (*datastructure.RoadNetwork, error)
}

// Load build the road graph once at startup. the provider call is bounded by timeout,
// any failure is reported as ErrGraphUnavailable.
func Load(ctx context.Context, provider Provider, region string, network datastructure.NetworkType,
	timeout time.Duration, opts ...Option) (*RoadGraph, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	logger := log.WithFields(log.Fields{
		"component": "graph",
		"region":    region,
		"network":   network.String(),
	})
	logger.Info("loading road graph")

	type result struct {
		network *datastructure.RoadNetwork
		err     error
	}
	done := make(chan result, 1)
	go func() {
		n, err := provider.Network(ctx, region, network)
		done <- result{n, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: loading %s/%s: %v", ErrGraphUnavailable, region, network, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return nil, fmt.Errorf("%w: loading %s/%s: %v", ErrGraphUnavailable, region, network, res.err)
	}

	g, err := NewRoadGraph(res.network, opts...)
	if err != nil {
		return nil, err
	}

	st := g.Stats()
	logger.WithFields(log.Fields{
		"nodes":             st.Nodes,
		"segments":          st.Segments,
		"components":        st.Components,
		"largest_component": st.LargestComponent,
		"took":              time.Since(start).String(),
	}).Info("road graph loaded")
	return g, nil
}
