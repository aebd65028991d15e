package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/speed"
)

// DefaultLocation offset naive timestamps are read in, UTC+05:30.
var DefaultLocation = time.FixedZone("IST", 5*60*60+30*60)

// ParseCoordinate parse "lat,lon".
func ParseCoordinate(s string) (datastructure.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return datastructure.Coordinate{}, fmt.Errorf("coordinate %q must be \"lat,lon\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return datastructure.Coordinate{}, fmt.Errorf("latitude of %q is not a number", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return datastructure.Coordinate{}, fmt.Errorf("longitude of %q is not a number", s)
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return datastructure.Coordinate{}, fmt.Errorf("coordinate %q out of range", s)
	}
	return datastructure.NewCoordinate(lat, lon), nil
}

// offsetLayouts ISO-8601 zone designators: "+05:30", "+0530", "+05" and "Z".
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04-07",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDepartAt parse an ISO-8601 timestamp. a timestamp with a zone designator is
// converted to loc, one without is read as local time in loc.
func ParseDepartAt(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date_time is required")
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date_time %q is not an ISO-8601 timestamp", s)
}

// ParseTravelMode normalize a travel mode, empty means drive.
func ParseTravelMode(s string) (datastructure.TravelMode, error) {
	mode := datastructure.TravelMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case "":
		return datastructure.ModeDrive, nil
	case datastructure.ModeDrive, datastructure.ModeCar, datastructure.ModeBike,
		datastructure.ModeWalk, datastructure.ModeFoot:
		return mode, nil
	}
	return "", fmt.Errorf("travel_mode %q must be one of drive, bike, walk", s)
}

// TimeSlot hour (0-23) and weekday (monday=0) of t.
func TimeSlot(t time.Time) (int, int) {
	return t.Hour(), speed.DayOfWeek(t)
}
