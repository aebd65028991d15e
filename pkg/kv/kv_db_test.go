package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNetwork(region string) *datastructure.RoadNetwork {
	return &datastructure.RoadNetwork{
		Region:  region,
		Network: datastructure.NetworkBike,
		Nodes: []datastructure.Node{
			datastructure.NewNode(0, 501, 22.7196, 75.8577),
			datastructure.NewNode(1, 502, 22.7201, 75.8590),
		},
		Segments: []datastructure.Segment{
			{
				ID: 0, From: 0, To: 1,
				RoadIDs: []int64{9001, 9002},
				Class:   datastructure.RoadClassSecondary,
				Length:  142.5,
				Geometry: []datastructure.Coordinate{
					{Lat: 22.7196, Lon: 75.8577},
					{Lat: 22.7199, Lon: 75.8583},
					{Lat: 22.7201, Lon: 75.8590},
				},
			},
		},
	}
}

type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) Network(ctx context.Context, region string, network datastructure.NetworkType) (*datastructure.RoadNetwork, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	n := testNetwork(region)
	n.Network = network
	return n, nil
}

func TestSnapshotRoundTrip(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	network := testNetwork("indore")
	require.NoError(t, db.SaveNetwork(context.Background(), network))

	got, err := db.LoadNetwork("indore", datastructure.NetworkBike)
	require.NoError(t, err)
	assert.Equal(t, network.Region, got.Region)
	assert.Equal(t, network.Network, got.Network)
	assert.Equal(t, network.Nodes, got.Nodes)
	assert.Equal(t, network.Segments, got.Segments)

	_, err = db.LoadNetwork("indore", datastructure.NetworkWalk)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotProviderReadThrough(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	source := &countingSource{}
	provider := NewSnapshotProvider(db, source)

	first, err := provider.Network(context.Background(), "indore", datastructure.NetworkDrive)
	require.NoError(t, err)
	second, err := provider.Network(context.Background(), "indore", datastructure.NetworkDrive)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first.Segments, second.Segments)
}

func TestSnapshotProviderSourceError(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	sourceErr := errors.New("pbf unreadable")
	provider := NewSnapshotProvider(db, &countingSource{err: sourceErr})

	_, err = provider.Network(context.Background(), "indore", datastructure.NetworkDrive)
	assert.ErrorIs(t, err, sourceErr)

	_, err = NewSnapshotProvider(db, nil).Network(context.Background(), "indore", datastructure.NetworkDrive)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestCompressRoundTrip(t *testing.T) {
	in := []byte("road network road network road network")
	out, err := decompress(compress(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decompress([]byte("not zstd"))
	assert.Error(t, err)
}
