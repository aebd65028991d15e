package osmparser

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	log "github.com/sirupsen/logrus"
)

type nodeType uint8

const (
	endNode nodeType = iota + 1
	betweenNode
	junctionNode
)

type nodeCoord struct {
	lat float64
	lon float64
}

type node struct {
	id    int64
	coord nodeCoord
}

type OsmParser struct {
	network datastructure.NetworkType
	filter  wayFilter

	wayNodeMap      map[int64]nodeType
	acceptedNodeMap map[int64]nodeCoord
	nodeIDMap       map[int64]int32

	segments []datastructure.Segment
}

func NewOSMParser(network datastructure.NetworkType) *OsmParser {
	return &OsmParser{
		network:         network,
		filter:          filterFor(network),
		wayNodeMap:      make(map[int64]nodeType),
		acceptedNodeMap: make(map[int64]nodeCoord),
		nodeIDMap:       make(map[int64]int32),
		segments:        make([]datastructure.Segment, 0),
	}
}

// Parse read an osm pbf file in two passes. the first pass finds the nodes shared by
// accepted ways (junctions), the second pass reads node coordinates and splits every
// accepted way into segments at its junctions.
func (p *OsmParser) Parse(ctx context.Context, f io.ReadSeeker, region string) (*datastructure.RoadNetwork, error) {
	logger := log.WithFields(log.Fields{"component": "osmparser", "region": region, "network": p.network.String()})

	scanner := osmpbf.New(ctx, f, 0)
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || !p.filter.accept(way) {
			continue
		}
		if (countWays+1)%50000 == 0 {
			logger.Infof("reading openstreetmap ways: %d...", countWays+1)
		}
		countWays++
		p.markWayNodes(way)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("scanning ways: %w", err)
	}
	scanner.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	// pbf blocks keep nodes before ways, coordinates are known once ways arrive.
	scanner = osmpbf.New(ctx, f, 0)
	scanner.SkipRelations = true
	defer scanner.Close()
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			p.addNode(o)
		case *osm.Way:
			if !p.filter.accept(o) {
				continue
			}
			p.processWay(o)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning nodes and ways: %w", err)
	}

	network := p.roadNetwork(region)
	logger.WithFields(log.Fields{
		"ways":     countWays,
		"nodes":    len(network.Nodes),
		"segments": len(network.Segments),
	}).Info("openstreetmap parsed")
	return network, nil
}

func (p *OsmParser) markWayNodes(way *osm.Way) {
	if len(way.Nodes) < 2 {
		return
	}
	for i, wn := range way.Nodes {
		id := int64(wn.ID)
		if _, ok := p.wayNodeMap[id]; !ok {
			if i == 0 || i == len(way.Nodes)-1 {
				p.wayNodeMap[id] = endNode
			} else {
				p.wayNodeMap[id] = betweenNode
			}
		} else {
			p.wayNodeMap[id] = junctionNode
		}
	}
}

func (p *OsmParser) addNode(n *osm.Node) {
	if _, ok := p.wayNodeMap[int64(n.ID)]; ok {
		p.acceptedNodeMap[int64(n.ID)] = nodeCoord{lat: n.Lat, lon: n.Lon}
	}
}

func (p *OsmParser) isSplitNode(id int64) bool {
	t := p.wayNodeMap[id]
	return t == junctionNode || t == endNode
}

func (p *OsmParser) processWay(way *osm.Way) {
	if len(way.Nodes) < 2 {
		return
	}

	class := datastructure.ParseRoadClass(way.Tags.Find("highway"))
	forward, backward := p.filter.directions(way)
	if !forward && !backward {
		return
	}

	piece := make([]node, 0, len(way.Nodes))
	for i, wn := range way.Nodes {
		coord, ok := p.acceptedNodeMap[int64(wn.ID)]
		if !ok {
			// node outside the extract, the way is cut here.
			if len(piece) > 1 {
				p.addPiece(piece, int64(way.ID), class, forward, backward)
			}
			piece = piece[:0]
			continue
		}
		n := node{id: int64(wn.ID), coord: coord}
		piece = append(piece, n)

		if i > 0 && i < len(way.Nodes)-1 && p.isSplitNode(n.id) && len(piece) > 1 {
			p.addPiece(piece, int64(way.ID), class, forward, backward)
			piece = []node{n}
		}
	}
	if len(piece) > 1 {
		p.addPiece(piece, int64(way.ID), class, forward, backward)
	}
}

// addPiece turn a way piece into one segment per allowed direction. closed pieces
// are split in the middle so the graph never has self loops.
func (p *OsmParser) addPiece(piece []node, wayID int64, class datastructure.RoadClass, forward, backward bool) {
	if len(piece) == 2 && piece[0].id == piece[1].id {
		return
	}
	if piece[0].id == piece[len(piece)-1].id {
		if len(piece) < 3 {
			return
		}
		mid := len(piece) / 2
		p.addPiece(append([]node{}, piece[:mid+1]...), wayID, class, forward, backward)
		p.addPiece(append([]node{}, piece[mid:]...), wayID, class, forward, backward)
		return
	}

	geometry := make([]datastructure.Coordinate, len(piece))
	for i, n := range piece {
		geometry[i] = datastructure.NewCoordinate(n.coord.lat, n.coord.lon)
	}
	length := geo.PolylineLength(geometry)

	from := p.nodeIndex(piece[0])
	to := p.nodeIndex(piece[len(piece)-1])

	if forward {
		p.appendSegment(from, to, wayID, class, length, geometry)
	}
	if backward {
		reversed := make([]datastructure.Coordinate, len(geometry))
		for i := range geometry {
			reversed[i] = geometry[len(geometry)-1-i]
		}
		p.appendSegment(to, from, wayID, class, length, reversed)
	}
}

func (p *OsmParser) appendSegment(from, to int32, wayID int64, class datastructure.RoadClass, length float64,
	geometry []datastructure.Coordinate) {
	p.segments = append(p.segments, datastructure.Segment{
		ID:       int32(len(p.segments)),
		From:     from,
		To:       to,
		RoadIDs:  []int64{wayID},
		Class:    class,
		Length:   length,
		Geometry: geometry,
	})
}

func (p *OsmParser) nodeIndex(n node) int32 {
	if idx, ok := p.nodeIDMap[n.id]; ok {
		return idx
	}
	idx := int32(len(p.nodeIDMap))
	p.nodeIDMap[n.id] = idx
	return idx
}

func (p *OsmParser) roadNetwork(region string) *datastructure.RoadNetwork {
	nodes := make([]datastructure.Node, len(p.nodeIDMap))
	for osmID, idx := range p.nodeIDMap {
		coord := p.acceptedNodeMap[osmID]
		nodes[idx] = datastructure.NewNode(idx, osmID, coord.lat, coord.lon)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return &datastructure.RoadNetwork{
		Region:   region,
		Network:  p.network,
		Nodes:    nodes,
		Segments: p.segments,
	}
}
