package osmparser

import (
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/paulmach/osm"
)

var (
	// highway values never routable, whatever the network type.
	skipHighway = map[string]struct{}{
		"construction":    {},
		"proposed":        {},
		"abandoned":       {},
		"platform":        {},
		"raceway":         {},
		"bus_guideway":    {},
		"elevator":        {},
		"escalator":       {},
		"corridor":        {},
		"bus_stop":        {},
		"crossing":        {},
		"street_lamp":     {},
		"traffic_signals": {},
		"speed_camera":    {},
		"milestone":       {},
		"emergency_bay":   {},
		"rest_area":       {},
		"services":        {},
	}

	skipDriveHighway = map[string]struct{}{
		"footway":    {},
		"cycleway":   {},
		"path":       {},
		"pedestrian": {},
		"steps":      {},
		"track":      {},
		"bridleway":  {},
		"busway":     {},
	}

	skipDriveService = map[string]struct{}{
		"parking":          {},
		"parking_aisle":    {},
		"driveway":         {},
		"private":          {},
		"emergency_access": {},
	}

	skipBikeHighway = map[string]struct{}{
		"motorway":      {},
		"motorway_link": {},
		"trunk":         {},
		"trunk_link":    {},
		"steps":         {},
		"bridleway":     {},
	}

	skipWalkHighway = map[string]struct{}{
		"motorway":      {},
		"motorway_link": {},
		"trunk":         {},
		"trunk_link":    {},
		"busway":        {},
	}
)

func isRestricted(value string) bool {
	switch value {
	case "no", "restricted", "military", "emergency", "private", "permit":
		return true
	}
	return false
}

func isOneWayValue(value string) bool {
	return value == "yes" || value == "true" || value == "1"
}

type wayFilter interface {
	accept(way *osm.Way) bool
	// directions whether the way can be travelled in its drawing direction and against it.
	directions(way *osm.Way) (forward, backward bool)
}

func filterFor(network datastructure.NetworkType) wayFilter {
	switch network {
	case datastructure.NetworkBike:
		return bikeFilter{}
	case datastructure.NetworkWalk:
		return walkFilter{}
	default:
		return driveFilter{}
	}
}

func baseAccept(way *osm.Way) (string, bool) {
	if len(way.Nodes) < 2 {
		return "", false
	}
	highway := way.Tags.Find("highway")
	if highway == "" {
		return "", false
	}
	if _, ok := skipHighway[highway]; ok {
		return "", false
	}
	if way.Tags.Find("area") == "yes" {
		return "", false
	}
	return highway, true
}

type driveFilter struct{}

func (driveFilter) accept(way *osm.Way) bool {
	highway, ok := baseAccept(way)
	if !ok {
		return false
	}
	if _, skip := skipDriveHighway[highway]; skip {
		return false
	}
	if highway == "service" {
		if _, skip := skipDriveService[way.Tags.Find("service")]; skip {
			return false
		}
	}
	if isRestricted(way.Tags.Find("access")) && way.Tags.Find("motor_vehicle") != "yes" {
		return false
	}
	if way.Tags.Find("motor_vehicle") == "no" || way.Tags.Find("motorcar") == "no" {
		return false
	}
	return true
}

func (driveFilter) directions(way *osm.Way) (bool, bool) {
	oneway := way.Tags.Find("oneway")
	forwardRestricted := isRestricted(way.Tags.Find("vehicle:forward")) || isRestricted(way.Tags.Find("motor_vehicle:forward"))
	backwardRestricted := isRestricted(way.Tags.Find("vehicle:backward")) || isRestricted(way.Tags.Find("motor_vehicle:backward"))

	switch {
	case oneway == "-1" || oneway == "reverse":
		return false, true
	case oneway == "no":
		return !forwardRestricted, !backwardRestricted
	case isOneWayValue(oneway),
		way.Tags.Find("junction") == "roundabout",
		way.Tags.Find("highway") == "motorway":
		return true, false
	}
	return !forwardRestricted, !backwardRestricted
}

type bikeFilter struct{}

func (bikeFilter) accept(way *osm.Way) bool {
	highway, ok := baseAccept(way)
	if !ok {
		return false
	}
	bicycle := way.Tags.Find("bicycle")
	if bicycle == "no" || bicycle == "dismount" {
		return false
	}
	if _, skip := skipBikeHighway[highway]; skip {
		return false
	}
	if highway == "footway" || highway == "pedestrian" {
		return bicycle == "yes" || bicycle == "designated"
	}
	if isRestricted(way.Tags.Find("access")) && bicycle != "yes" {
		return false
	}
	return true
}

func (bikeFilter) directions(way *osm.Way) (bool, bool) {
	if way.Tags.Find("oneway:bicycle") == "no" {
		return true, true
	}
	oneway := way.Tags.Find("oneway")
	switch {
	case oneway == "-1" || oneway == "reverse":
		return false, true
	case isOneWayValue(oneway), way.Tags.Find("junction") == "roundabout":
		return true, false
	}
	return true, true
}

type walkFilter struct{}

func (walkFilter) accept(way *osm.Way) bool {
	highway, ok := baseAccept(way)
	if !ok {
		return false
	}
	foot := way.Tags.Find("foot")
	if foot == "no" {
		return false
	}
	if _, skip := skipWalkHighway[highway]; skip {
		return false
	}
	if highway == "cycleway" {
		return foot == "yes" || foot == "designated"
	}
	if isRestricted(way.Tags.Find("access")) && foot != "yes" {
		return false
	}
	return true
}

// one way restrictions never apply to pedestrians.
func (walkFilter) directions(way *osm.Way) (bool, bool) {
	return true, true
}
