package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseLat = 22.7196
	baseLon = 75.8577
)

func seg(id, from, to int32, length float64, nodes []datastructure.Node) datastructure.Segment {
	return datastructure.Segment{
		ID:      id,
		From:    from,
		To:      to,
		RoadIDs: []int64{int64(1000 + id)},
		Class:   datastructure.RoadClassResidential,
		Length:  length,
		Geometry: []datastructure.Coordinate{
			datastructure.NewCoordinate(nodes[from].Lat, nodes[from].Lon),
			datastructure.NewCoordinate(nodes[to].Lat, nodes[to].Lon),
		},
	}
}

/*
	0 ---- 1 ---- 2
	       |
	       3

0->1 has two parallel segments (id 0 and id 1), the second is shorter.
1->2 has two parallel segments of equal length (id 3 and id 4).
*/
func testNetwork() *datastructure.RoadNetwork {
	nodes := []datastructure.Node{
		datastructure.NewNode(0, 10, baseLat, baseLon),
		datastructure.NewNode(1, 11, baseLat, baseLon+0.002),
		datastructure.NewNode(2, 12, baseLat, baseLon+0.004),
		datastructure.NewNode(3, 13, baseLat-0.002, baseLon+0.002),
	}
	segments := []datastructure.Segment{
		seg(0, 0, 1, 230, nodes),
		seg(1, 0, 1, 205, nodes),
		seg(2, 1, 0, 205, nodes),
		seg(3, 1, 2, 205, nodes),
		seg(4, 1, 2, 205, nodes),
		seg(5, 1, 3, 222, nodes),
		seg(6, 3, 1, 222, nodes),
	}
	return &datastructure.RoadNetwork{
		Region:   "indore",
		Network:  datastructure.NetworkDrive,
		Nodes:    nodes,
		Segments: segments,
	}
}

func TestSegmentBetween(t *testing.T) {
	g, err := NewRoadGraph(testNetwork())
	require.NoError(t, err)

	cases := []struct {
		name   string
		u, v   int32
		wantID int32
		found  bool
	}{
		{"shorter parallel segment wins", 0, 1, 1, true},
		{"equal length parallel goes to lower id", 1, 2, 3, true},
		{"reverse direction", 1, 0, 2, true},
		{"one way", 2, 1, 0, false},
		{"unknown node", 9, 1, 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, ok := g.SegmentBetween(c.u, c.v)
			assert.Equal(t, c.found, ok)
			if c.found {
				assert.Equal(t, c.wantID, s.ID)
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	g, err := NewRoadGraph(testNetwork())
	require.NoError(t, err)

	out := g.Neighbors(1)
	ids := []int32{}
	for _, s := range out {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []int32{2, 3, 4, 5}, ids)

	ids = ids[:0]
	g.ForEachNeighbor(0, func(s *datastructure.Segment) {
		ids = append(ids, s.ID)
	})
	assert.Equal(t, []int32{1, 0}, ids)

	assert.Empty(t, g.Neighbors(2))
	assert.Nil(t, g.Neighbors(-1))
}

func TestNearestNode(t *testing.T) {
	g, err := NewRoadGraph(testNetwork(), WithSnapRadius(150))
	require.NoError(t, err)

	cases := []struct {
		name     string
		lat, lon float64
		want     int32
		wantErr  error
	}{
		{"close to node 0", baseLat + 0.0001, baseLon + 0.0002, 0, nil},
		{"close to node 1 on road 0-1", baseLat - 0.0001, baseLon + 0.0015, 1, nil},
		{"close to node 3", baseLat - 0.0018, baseLon + 0.0021, 3, nil},
		{"outside region", 0, 0, 0, ErrNoNodeFound},
		{"inside region but beyond snapping radius", baseLat + 0.005, baseLon + 0.002, 0, ErrNoNodeFound},
		{"invalid coordinate", 120, 0, 0, ErrNoNodeFound},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := g.NearestNode(c.lat, c.lon)
			if c.wantErr != nil {
				assert.ErrorIs(t, err, c.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestNearestNodeDeterministic(t *testing.T) {
	g, err := NewRoadGraph(testNetwork())
	require.NoError(t, err)

	first, err := g.NearestNode(baseLat+0.0003, baseLon+0.0031)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		got, err := g.NearestNode(baseLat+0.0003, baseLon+0.0031)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestNewRoadGraphInvalid(t *testing.T) {
	_, err := NewRoadGraph(nil)
	assert.ErrorIs(t, err, ErrGraphUnavailable)

	network := testNetwork()
	network.Segments = append(network.Segments, datastructure.Segment{ID: 7, From: 0, To: 42})
	_, err = NewRoadGraph(network)
	assert.ErrorIs(t, err, ErrGraphUnavailable)
}

func TestStats(t *testing.T) {
	g, err := NewRoadGraph(testNetwork())
	require.NoError(t, err)

	st := g.Stats()
	assert.Equal(t, "indore", st.Region)
	assert.Equal(t, "drive", st.Network)
	assert.Equal(t, 4, st.Nodes)
	assert.Equal(t, 7, st.Segments)
	assert.Greater(t, st.CoverageH3, 1)
	assert.True(t, g.Covers(baseLat, baseLon))
	assert.False(t, g.Covers(-33.86, 151.2))
	assert.Equal(t, 2, st.Components)
	assert.Equal(t, 3, st.LargestComponent)

	// geometry of the fixture is consistent with its lengths
	n0, _ := g.Node(0)
	n1, _ := g.Node(1)
	assert.InDelta(t, 205, geo.CalculateHaversineDistance(n0.Lat, n0.Lon, n1.Lat, n1.Lon)*1000, 2)
}

type fakeProvider struct {
	network *datastructure.RoadNetwork
	err     error
	block   bool
}

func (f *fakeProvider) Network(ctx context.Context, region string, network datastructure.NetworkType) (*datastructure.RoadNetwork, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.network, f.err
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	g, err := Load(ctx, &fakeProvider{network: testNetwork()}, "indore", datastructure.NetworkDrive, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NumNodes())

	_, err = Load(ctx, &fakeProvider{err: errors.New("pbf missing")}, "indore", datastructure.NetworkDrive, time.Second)
	assert.ErrorIs(t, err, ErrGraphUnavailable)

	_, err = Load(ctx, &fakeProvider{block: true}, "indore", datastructure.NetworkDrive, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrGraphUnavailable)
}

/*
	0 --> 1 --> 2 <--> 3
	^     |
	|     v
	+---- 4

{0,1,4} and {2,3} are strongly connected, 1->2 is the only way between them.
*/
func TestComponents(t *testing.T) {
	nodes := make([]datastructure.Node, 6)
	for i := range nodes {
		nodes[i] = datastructure.NewNode(int32(i), int64(100+i), baseLat+float64(i)*0.001, baseLon)
	}
	pairs := [][2]int32{{0, 1}, {1, 2}, {1, 4}, {2, 3}, {3, 2}, {4, 0}}
	segments := make([]datastructure.Segment, 0, len(pairs))
	for i, p := range pairs {
		segments = append(segments, seg(int32(i), p[0], p[1], 100, nodes))
	}
	g, err := NewRoadGraph(&datastructure.RoadNetwork{
		Region: "indore", Network: datastructure.NetworkDrive, Nodes: nodes, Segments: segments,
	})
	require.NoError(t, err)

	assert.Equal(t, g.Component(0), g.Component(1))
	assert.Equal(t, g.Component(0), g.Component(4))
	assert.Equal(t, g.Component(2), g.Component(3))
	assert.NotEqual(t, g.Component(0), g.Component(2))
	assert.Equal(t, int32(-1), g.Component(42))

	st := g.Stats()
	// node 5 has no segments and is a component of its own.
	assert.Equal(t, 3, st.Components)
	assert.Equal(t, 3, st.LargestComponent)

	assert.True(t, g.Reachable(0, 3))
	assert.True(t, g.Reachable(4, 2))
	assert.True(t, g.Reachable(3, 2))
	assert.False(t, g.Reachable(3, 0))
	assert.False(t, g.Reachable(0, 5))
	assert.False(t, g.Reachable(5, 0))
	assert.True(t, g.Reachable(5, 5))
	assert.False(t, g.Reachable(0, 42))
}
