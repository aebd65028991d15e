package ranking

import (
	"errors"
	"sort"

	"github.com/lintang-b-s/trafficnav/pkg/engine/scoring"
)

var (
	ErrNoRoutesFound = errors.New("no routes found")
)

// Candidate a scored path in enumeration order. Pairs is the number of node pairs of the
// path, used to tell an origin == destination path apart from a fully unresolvable one.
type Candidate struct {
	Name     string
	Pairs    int
	Segments []scoring.ScoredSegment
}

type Route struct {
	Name            string
	Segments        []scoring.ScoredSegment
	TotalDistanceKm float64
	TotalTimeMin    float64
	Recommended     bool
}

// Rank aggregate every candidate, drop the ones where no segment could be scored and sort
// ascending by total time. equal times keep enumeration order; the first route is the
// recommended one.
func Rank(candidates []Candidate) ([]Route, error) {
	routes := make([]Route, 0, len(candidates))
	for _, c := range candidates {
		if c.Pairs > 0 && len(c.Segments) == 0 {
			continue
		}
		routes = append(routes, aggregate(c))
	}
	if len(routes) == 0 {
		return nil, ErrNoRoutesFound
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].TotalTimeMin < routes[j].TotalTimeMin
	})
	routes[0].Recommended = true
	return routes, nil
}

func aggregate(c Candidate) Route {
	r := Route{Name: c.Name, Segments: c.Segments}
	if r.Segments == nil {
		r.Segments = []scoring.ScoredSegment{}
	}
	for _, s := range c.Segments {
		r.TotalDistanceKm += s.LengthM / 1000.0
		r.TotalTimeMin += s.TravelTimeMin
	}
	return r
}
