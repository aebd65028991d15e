package datastructure

import "strings"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// Node is a road network intersection. ID is the dense index inside one graph.
type Node struct {
	ID    int32
	OsmID int64
	Lat   float64
	Lon   float64
}

func NewNode(id int32, osmID int64, lat, lon float64) Node {
	return Node{ID: id, OsmID: osmID, Lat: lat, Lon: lon}
}

type RoadClass uint8

const (
	RoadClassOther RoadClass = iota
	RoadClassMotorway
	RoadClassPrimary
	RoadClassSecondary
	RoadClassTertiary
	RoadClassResidential
	RoadClassUnclassified
)

func (c RoadClass) String() string {
	switch c {
	case RoadClassMotorway:
		return "motorway"
	case RoadClassPrimary:
		return "primary"
	case RoadClassSecondary:
		return "secondary"
	case RoadClassTertiary:
		return "tertiary"
	case RoadClassResidential:
		return "residential"
	case RoadClassUnclassified:
		return "unclassified"
	default:
		return "other"
	}
}

// ParseRoadClass maps an osm highway tag value to a RoadClass. link roads
// (primary_link etc) share the class of the road they connect to.
func ParseRoadClass(highway string) RoadClass {
	highway = strings.TrimSuffix(highway, "_link")
	switch highway {
	case "motorway":
		return RoadClassMotorway
	case "primary":
		return RoadClassPrimary
	case "secondary":
		return RoadClassSecondary
	case "tertiary":
		return RoadClassTertiary
	case "residential", "living_street":
		return RoadClassResidential
	case "unclassified":
		return RoadClassUnclassified
	default:
		return RoadClassOther
	}
}

// Segment is a directed road segment. RoadIDs holds the osm way ids the segment
// was built from, the first one is the canonical road identifier.
type Segment struct {
	ID       int32
	From     int32
	To       int32
	RoadIDs  []int64
	Class    RoadClass
	Length   float64 // meter
	Geometry []Coordinate
}

func (s Segment) RoadID() int64 {
	if len(s.RoadIDs) == 0 {
		return 0
	}
	return s.RoadIDs[0]
}

func (s Segment) HasGeometry() bool {
	return len(s.Geometry) >= 2
}

// RoadNetwork is the raw output of a network provider, before indexing.
type RoadNetwork struct {
	Region   string
	Network  NetworkType
	Nodes    []Node
	Segments []Segment
}

type NetworkType uint8

const (
	NetworkDrive NetworkType = iota
	NetworkBike
	NetworkWalk
)

func (n NetworkType) String() string {
	switch n {
	case NetworkBike:
		return "bike"
	case NetworkWalk:
		return "walk"
	default:
		return "drive"
	}
}

func ParseNetworkType(s string) (NetworkType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drive":
		return NetworkDrive, true
	case "bike":
		return NetworkBike, true
	case "walk":
		return NetworkWalk, true
	}
	return NetworkDrive, false
}

type TravelMode string

const (
	ModeDrive TravelMode = "drive"
	ModeCar   TravelMode = "car"
	ModeBike  TravelMode = "bike"
	ModeWalk  TravelMode = "walk"
	ModeFoot  TravelMode = "foot"
)

// Network returns the road network variant a travel mode is routed on.
// unknown modes are routed on the drive network.
func (m TravelMode) Network() NetworkType {
	switch m {
	case ModeBike:
		return NetworkBike
	case ModeWalk, ModeFoot:
		return NetworkWalk
	default:
		return NetworkDrive
	}
}
