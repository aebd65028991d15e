package osmparser

import (
	"context"
	"testing"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWay(id int64, nodeIDs []int64, tags ...string) *osm.Way {
	way := &osm.Way{ID: osm.WayID(id)}
	for _, n := range nodeIDs {
		way.Nodes = append(way.Nodes, osm.WayNode{ID: osm.NodeID(n)})
	}
	for i := 0; i+1 < len(tags); i += 2 {
		way.Tags = append(way.Tags, osm.Tag{Key: tags[i], Value: tags[i+1]})
	}
	return way
}

// feed runs both passes of the parser on in-memory ways. node i sits at lat 22.72, lon 75.85 + i*0.001.
func feed(p *OsmParser, ways ...*osm.Way) *datastructure.RoadNetwork {
	accepted := []*osm.Way{}
	for _, w := range ways {
		if p.filter.accept(w) {
			accepted = append(accepted, w)
			p.markWayNodes(w)
		}
	}
	for id := range p.wayNodeMap {
		p.addNode(&osm.Node{ID: osm.NodeID(id), Lat: 22.72, Lon: 75.85 + float64(id)*0.001})
	}
	for _, w := range accepted {
		p.processWay(w)
	}
	return p.roadNetwork("indore")
}

func TestProcessWaySplitsAtJunctions(t *testing.T) {
	p := NewOSMParser(datastructure.NetworkDrive)
	network := feed(p,
		newWay(100, []int64{1, 2, 3, 4}, "highway", "primary"),
		newWay(200, []int64{3, 5}, "highway", "residential"),
	)

	// way 100 is split at node 3, both ways are two way roads.
	assert.Len(t, network.Segments, 6)
	assert.Len(t, network.Nodes, 4)

	first := network.Segments[0]
	assert.Equal(t, []int64{100}, first.RoadIDs)
	assert.Equal(t, datastructure.RoadClassPrimary, first.Class)
	assert.Len(t, first.Geometry, 3)
	assert.InDelta(t, 205.1, first.Length, 1.0)

	reverse := network.Segments[1]
	assert.Equal(t, first.From, reverse.To)
	assert.Equal(t, first.To, reverse.From)
	assert.Equal(t, first.Geometry[0], reverse.Geometry[2])

	for i, n := range network.Nodes {
		assert.Equal(t, int32(i), n.ID)
	}
}

func TestProcessWayOneWay(t *testing.T) {
	cases := []struct {
		name      string
		network   datastructure.NetworkType
		tags      []string
		wantCount int
		reversed  bool
	}{
		{"drive oneway", datastructure.NetworkDrive, []string{"highway", "secondary", "oneway", "yes"}, 1, false},
		{"drive reversed oneway", datastructure.NetworkDrive, []string{"highway", "secondary", "oneway", "-1"}, 1, true},
		{"drive roundabout", datastructure.NetworkDrive, []string{"highway", "tertiary", "junction", "roundabout"}, 1, false},
		{"drive two way", datastructure.NetworkDrive, []string{"highway", "tertiary"}, 2, false},
		{"bike contraflow allowed", datastructure.NetworkBike, []string{"highway", "residential", "oneway", "yes", "oneway:bicycle", "no"}, 2, false},
		{"bike oneway", datastructure.NetworkBike, []string{"highway", "residential", "oneway", "yes"}, 1, false},
		{"walk ignores oneway", datastructure.NetworkWalk, []string{"highway", "residential", "oneway", "yes"}, 2, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := NewOSMParser(c.network)
			network := feed(p, newWay(1, []int64{1, 2}, c.tags...))
			require.Len(t, network.Segments, c.wantCount)
			if c.wantCount == 1 {
				s := network.Segments[0]
				from := network.Nodes[s.From]
				if c.reversed {
					assert.Equal(t, int64(2), from.OsmID)
				} else {
					assert.Equal(t, int64(1), from.OsmID)
				}
			}
		})
	}
}

func TestWayFilters(t *testing.T) {
	cases := []struct {
		name    string
		network datastructure.NetworkType
		tags    []string
		want    bool
	}{
		{"drive primary", datastructure.NetworkDrive, []string{"highway", "primary"}, true},
		{"drive footway", datastructure.NetworkDrive, []string{"highway", "footway"}, false},
		{"drive parking aisle", datastructure.NetworkDrive, []string{"highway", "service", "service", "parking_aisle"}, false},
		{"drive private", datastructure.NetworkDrive, []string{"highway", "residential", "access", "private"}, false},
		{"drive construction", datastructure.NetworkDrive, []string{"highway", "construction"}, false},
		{"drive no highway", datastructure.NetworkDrive, []string{"building", "yes"}, false},
		{"bike motorway", datastructure.NetworkBike, []string{"highway", "motorway"}, false},
		{"bike cycleway", datastructure.NetworkBike, []string{"highway", "cycleway"}, true},
		{"bike footway", datastructure.NetworkBike, []string{"highway", "footway"}, false},
		{"bike designated footway", datastructure.NetworkBike, []string{"highway", "footway", "bicycle", "designated"}, true},
		{"walk footway", datastructure.NetworkWalk, []string{"highway", "footway"}, true},
		{"walk trunk", datastructure.NetworkWalk, []string{"highway", "trunk"}, false},
		{"walk foot no", datastructure.NetworkWalk, []string{"highway", "residential", "foot", "no"}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, filterFor(c.network).accept(newWay(1, []int64{1, 2}, c.tags...)))
		})
	}
}

func TestClosedWayHasNoSelfLoop(t *testing.T) {
	p := NewOSMParser(datastructure.NetworkDrive)
	network := feed(p, newWay(7, []int64{1, 2, 3, 4, 1}, "highway", "residential"))

	assert.NotEmpty(t, network.Segments)
	for _, s := range network.Segments {
		assert.NotEqual(t, s.From, s.To)
	}
}

func TestPBFProviderUnknownRegion(t *testing.T) {
	_, err := NewPBFProvider(map[string]string{}).Network(context.Background(), "indore", datastructure.NetworkDrive)
	assert.Error(t, err)

	_, err = NewPBFProvider(map[string]string{"indore": "/nonexistent/indore.osm.pbf"}).
		Network(context.Background(), "indore", datastructure.NetworkDrive)
	assert.Error(t, err)
}
