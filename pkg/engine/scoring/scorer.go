package scoring

import (
	"context"
	"math"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/speed"
)

const (
	MinSpeedKmh = 5.0
)

type Congestion string

const (
	CongestionRed    Congestion = "red"
	CongestionYellow Congestion = "yellow"
	CongestionGreen  Congestion = "green"
)

// ScoredSegment one traversed segment with its predicted speed and timing.
type ScoredSegment struct {
	RoadID        int64
	Start         datastructure.Coordinate
	End           datastructure.Coordinate
	Class         datastructure.RoadClass
	SpeedKmh      float64
	Congestion    Congestion
	LengthM       float64
	TravelTimeMin float64
	Fallback      bool
}

type SegmentResolver interface {
	SegmentBetween(u, v int32) (datastructure.Segment, bool)
}

type SpeedPredictor interface {
	Predict(roadID int64, hour, dayOfWeek int) (speed.Prediction, error)
}

var defaultModeMultipliers = map[datastructure.TravelMode]float64{
	datastructure.ModeDrive: 1.0,
	datastructure.ModeCar:   1.0,
	datastructure.ModeBike:  0.5,
	datastructure.ModeWalk:  0.1,
	datastructure.ModeFoot:  0.1,
}

type Option func(*Scorer)

// WithModeMultipliers override the speed factor of the given travel modes.
func WithModeMultipliers(m map[datastructure.TravelMode]float64) Option {
	return func(s *Scorer) {
		for mode, f := range m {
			if f > 0 {
				s.multipliers[mode] = f
			}
		}
	}
}

type Scorer struct {
	predictor   SpeedPredictor
	multipliers map[datastructure.TravelMode]float64
}

func NewScorer(predictor SpeedPredictor, opts ...Option) *Scorer {
	s := &Scorer{
		predictor:   predictor,
		multipliers: make(map[datastructure.TravelMode]float64, len(defaultModeMultipliers)),
	}
	for mode, f := range defaultModeMultipliers {
		s.multipliers[mode] = f
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Multiplier speed factor of a travel mode, unknown modes get 1.
func (s *Scorer) Multiplier(mode datastructure.TravelMode) float64 {
	if f, ok := s.multipliers[mode]; ok {
		return f
	}
	return 1.0
}

// Score annotate every consecutive node pair of a path. pairs without a segment, or whose
// segment has no usable geometry, are skipped. only a model failure is an error.
func (s *Scorer) Score(ctx context.Context, g SegmentResolver, nodes []int32, mode datastructure.TravelMode,
	hour, dayOfWeek int) ([]ScoredSegment, error) {
	scored := make([]ScoredSegment, 0, len(nodes))
	factor := s.Multiplier(mode)

	for i := 0; i+1 < len(nodes); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seg, ok := g.SegmentBetween(nodes[i], nodes[i+1])
		if !ok || !seg.HasGeometry() {
			continue
		}

		pred, err := s.predictor.Predict(seg.RoadID(), hour, dayOfWeek)
		if err != nil {
			return nil, err
		}

		v := ClampSpeed(pred.SpeedKmh*factor, seg.Class)
		scored = append(scored, ScoredSegment{
			RoadID:        seg.RoadID(),
			Start:         seg.Geometry[0],
			End:           seg.Geometry[len(seg.Geometry)-1],
			Class:         seg.Class,
			SpeedKmh:      v,
			Congestion:    ClassifyCongestion(v, seg.Class),
			LengthM:       seg.Length,
			TravelTimeMin: TravelTimeMin(seg.Length, v),
			Fallback:      pred.Fallback,
		})
	}
	return scored, nil
}

// SpeedCeiling highest plausible speed (km/h) on a road class.
func SpeedCeiling(class datastructure.RoadClass) float64 {
	switch class {
	case datastructure.RoadClassMotorway:
		return 120
	case datastructure.RoadClassPrimary:
		return 90
	case datastructure.RoadClassSecondary:
		return 80
	case datastructure.RoadClassTertiary:
		return 70
	case datastructure.RoadClassUnclassified:
		return 60
	case datastructure.RoadClassResidential:
		return 50
	default:
		return 60
	}
}

// ClassMaxSpeed reference free flow speed (km/h) used for congestion levels.
func ClassMaxSpeed(class datastructure.RoadClass) float64 {
	switch class {
	case datastructure.RoadClassMotorway:
		return 80
	case datastructure.RoadClassPrimary:
		return 60
	case datastructure.RoadClassSecondary:
		return 50
	case datastructure.RoadClassResidential:
		return 30
	default:
		return 50
	}
}

func ClampSpeed(v float64, class datastructure.RoadClass) float64 {
	if math.IsNaN(v) || v < MinSpeedKmh {
		return MinSpeedKmh
	}
	return math.Min(v, SpeedCeiling(class))
}

func ClassifyCongestion(v float64, class datastructure.RoadClass) Congestion {
	max := ClassMaxSpeed(class)
	switch {
	case v < 0.4*max:
		return CongestionRed
	case v < 0.7*max:
		return CongestionYellow
	default:
		return CongestionGreen
	}
}

func TravelTimeMin(lengthM, speedKmh float64) float64 {
	return (lengthM / 1000.0) / speedKmh * 60.0
}
