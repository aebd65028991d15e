package osrm

import (
	"math"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/geo"
	"github.com/lintang-b-s/trafficnav/pkg/util"
)

const (
	latOffset = 900000  // 90 * 1e4
	lonOffset = 1800000 // 180 * 1e4
	latBits   = 21
)

// SyntheticRoadID road id of a segment starting at (lat, lon), from the point rounded to
// 4 decimals. always negative so it never collides with an osm way id.
func SyntheticRoadID(lat, lon float64) int64 {
	la := int64(math.Round(lat*1e4)) + latOffset
	lo := int64(math.Round(lon*1e4)) + lonOffset
	return -util.BitPackInt64(la, lo, latBits) - 1
}

// SyntheticRoadPoint inverse of SyntheticRoadID, up to the rounding.
func SyntheticRoadPoint(roadID int64) (float64, float64) {
	la, lo := util.BitUnpackInt64(-(roadID + 1), latBits)
	return float64(la-latOffset) / 1e4, float64(lo-lonOffset) / 1e4
}

// Track one externally computed route. node i is the i-th geometry point, so the path of
// the track is 0, 1, ..., n-1 and only consecutive points have a segment.
type Track struct {
	Points    []datastructure.Coordinate
	DistanceM float64
	DurationS float64
}

func NewTrack(points []datastructure.Coordinate, distance, duration float64) *Track {
	return &Track{Points: points, DistanceM: distance, DurationS: duration}
}

func (t *Track) Nodes() []int32 {
	nodes := make([]int32, len(t.Points))
	for i := range nodes {
		nodes[i] = int32(i)
	}
	return nodes
}

func (t *Track) SegmentBetween(u, v int32) (datastructure.Segment, bool) {
	if u < 0 || v != u+1 || int(v) >= len(t.Points) {
		return datastructure.Segment{}, false
	}
	a, b := t.Points[u], t.Points[v]
	return datastructure.Segment{
		ID:       u,
		From:     u,
		To:       v,
		RoadIDs:  []int64{SyntheticRoadID(a.Lat, a.Lon)},
		Class:    datastructure.RoadClassOther,
		Length:   geo.CalculateHaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon) * 1000,
		Geometry: []datastructure.Coordinate{a, b},
	}, true
}
