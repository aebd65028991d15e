package kv

import (
	"context"
	"errors"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	log "github.com/sirupsen/logrus"
)

type Source interface {
	Network(ctx context.Context, region string, network datastructure.NetworkType) (*datastructure.RoadNetwork, error)
}

// SnapshotProvider read-through cache in front of a slower network source
// (usually the pbf parser). snapshots are written on the first miss.
type SnapshotProvider struct {
	kv     *KVDB
	source Source
}

func NewSnapshotProvider(kv *KVDB, source Source) *SnapshotProvider {
	return &SnapshotProvider{kv: kv, source: source}
}

func (sp *SnapshotProvider) Network(ctx context.Context, region string, network datastructure.NetworkType) (*datastructure.RoadNetwork, error) {
	cached, err := sp.kv.LoadNetwork(region, network)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrSnapshotNotFound) || sp.source == nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"component": "kv",
		"region":    region,
		"network":   network.String(),
	}).Info("snapshot missing, building road network from source")

	built, err := sp.source.Network(ctx, region, network)
	if err != nil {
		return nil, err
	}
	if err := sp.kv.SaveNetwork(ctx, built); err != nil {
		return nil, err
	}
	return built, nil
}
