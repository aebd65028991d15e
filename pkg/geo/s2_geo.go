package geo

import (
	"github.com/golang/geo/s2"
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
)

func toS2Point(c datastructure.Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lon))
}

// ProjectPointToLineCoord closest point to snap on the line from a to b.
func ProjectPointToLineCoord(a, b, snap datastructure.Coordinate) datastructure.Coordinate {
	projection := s2.Project(toS2Point(snap), toS2Point(a), toS2Point(b))
	projectLatLng := s2.LatLngFromPoint(projection)
	return datastructure.NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// PolylineLength length in meter.
func PolylineLength(line []datastructure.Coordinate) float64 {
	length := 0.0
	for i := 1; i < len(line); i++ {
		length += CalculateHaversineDistance(line[i-1].Lat, line[i-1].Lon, line[i].Lat, line[i].Lon)
	}
	return length * 1000
}
