package snap

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/geo"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	// rtreego rejects zero-length rectangle sides, horizontal/vertical segments get this padding (degree).
	bboxPadding = 1e-7
)

// segmentLeaf r-tree leaf, bounding box of one road segment geometry.
type segmentLeaf struct {
	segmentID int32
	from      int32
	to        int32
	geometry  []datastructure.Coordinate
	bounds    rtreego.Rect
}

func (l *segmentLeaf) Bounds() rtreego.Rect {
	return l.bounds
}

// Candidate a road segment near a query point.
type Candidate struct {
	SegmentID  int32
	From       int32
	To         int32
	Distance   float64 // meter, query point to its projection on the segment
	Projection datastructure.Coordinate
}

type RoadSnapper struct {
	rtree *rtreego.Rtree
	size  int
}

// NewRoadSnapper index every segment geometry of the network. only one of each
// directed pair u->v / v->u is inserted, both directions share the geometry.
func NewRoadSnapper(nodes []datastructure.Node, segments []datastructure.Segment) *RoadSnapper {
	rs := &RoadSnapper{rtree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)}

	seen := make(map[[2]int32]struct{}, len(segments))
	for _, seg := range segments {
		key := [2]int32{min(seg.From, seg.To), max(seg.From, seg.To)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		geometry := seg.Geometry
		if len(geometry) < 2 {
			from, to := nodes[seg.From], nodes[seg.To]
			geometry = []datastructure.Coordinate{
				datastructure.NewCoordinate(from.Lat, from.Lon),
				datastructure.NewCoordinate(to.Lat, to.Lon),
			}
		}
		rs.insert(seg, geometry)
	}
	return rs
}

func (rs *RoadSnapper) insert(seg datastructure.Segment, geometry []datastructure.Coordinate) {
	latMin, latMax := math.Inf(1), math.Inf(-1)
	lonMin, lonMax := math.Inf(1), math.Inf(-1)
	for _, c := range geometry {
		latMin = min(latMin, c.Lat)
		latMax = max(latMax, c.Lat)
		lonMin = min(lonMin, c.Lon)
		lonMax = max(lonMax, c.Lon)
	}

	rect, err := rtreego.NewRect(
		rtreego.Point{latMin - bboxPadding, lonMin - bboxPadding},
		[]float64{latMax - latMin + 2*bboxPadding, lonMax - lonMin + 2*bboxPadding},
	)
	if err != nil {
		return
	}

	rs.rtree.Insert(&segmentLeaf{
		segmentID: seg.ID,
		from:      seg.From,
		to:        seg.To,
		geometry:  geometry,
		bounds:    rect,
	})
	rs.size++
}

func (rs *RoadSnapper) Size() int {
	return rs.size
}

// NearestSegments up to k segments closest to the query point, ordered by the
// distance from the point to its projection on each segment, then by segment id.
func (rs *RoadSnapper) NearestSegments(lat, lon float64, k int) []Candidate {
	if rs.size == 0 || k <= 0 {
		return []Candidate{}
	}

	query := datastructure.NewCoordinate(lat, lon)
	leaves := rs.rtree.NearestNeighbors(k, rtreego.Point{lat, lon})

	candidates := make([]Candidate, 0, len(leaves))
	for _, obj := range leaves {
		leaf, ok := obj.(*segmentLeaf)
		if !ok || leaf == nil {
			continue
		}

		bestDist := math.Inf(1)
		var bestProjection datastructure.Coordinate
		for i := 0; i < len(leaf.geometry)-1; i++ {
			projection := geo.ProjectPointToLineCoord(leaf.geometry[i], leaf.geometry[i+1], query)
			dist := geo.CalculateHaversineDistance(lat, lon, projection.Lat, projection.Lon) * 1000
			if dist < bestDist {
				bestDist = dist
				bestProjection = projection
			}
		}

		candidates = append(candidates, Candidate{
			SegmentID:  leaf.segmentID,
			From:       leaf.from,
			To:         leaf.to,
			Distance:   bestDist,
			Projection: bestProjection,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].SegmentID < candidates[j].SegmentID
	})
	return candidates
}
