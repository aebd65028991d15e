package speed

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	ErrModelUnavailable = errors.New("speed model unavailable")
)

// Model a trained speed model. Classes are the road ids the model was fitted on.
type Model interface {
	Classes() []int64
	Predict(roadID int64, hour, dayOfWeek int) (float64, error)
}

type Prediction struct {
	SpeedKmh float64
	// Fallback is set when the road id was unseen and the default road id was used.
	Fallback bool
}

type loadedModel struct {
	model     Model
	known     map[int64]struct{}
	defaultID int64
}

func newLoadedModel(m Model) (*loadedModel, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", ErrModelUnavailable)
	}
	classes := append([]int64(nil), m.Classes()...)
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: model has no classes", ErrModelUnavailable)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	known := make(map[int64]struct{}, len(classes))
	for _, c := range classes {
		known[c] = struct{}{}
	}
	return &loadedModel{model: m, known: known, defaultID: classes[0]}, nil
}

type Option func(*Predictor)

// WithFallbackCounter count predictions that used the default road id.
func WithFallbackCounter(c prometheus.Counter) Option {
	return func(p *Predictor) {
		p.fallbacks = c
	}
}

// Predictor adapter in front of a Model. safe for concurrent use, Swap replaces the model
// without touching the one in-flight requests are reading.
type Predictor struct {
	current   atomic.Pointer[loadedModel]
	fallbacks prometheus.Counter
}

func NewPredictor(m Model, opts ...Option) (*Predictor, error) {
	lm, err := newLoadedModel(m)
	if err != nil {
		return nil, err
	}
	p := &Predictor{}
	for _, opt := range opts {
		opt(p)
	}
	p.current.Store(lm)
	return p, nil
}

// Swap install a new model. a model that cannot be used is rejected and the old one stays.
func (p *Predictor) Swap(m Model) error {
	lm, err := newLoadedModel(m)
	if err != nil {
		return err
	}
	old := p.current.Swap(lm)

	log.WithFields(log.Fields{
		"component":   "speed",
		"classes":     len(lm.known),
		"old_classes": len(old.known),
	}).Info("speed model swapped")
	return nil
}

func (p *Predictor) NumClasses() int {
	return len(p.current.Load().known)
}

// DefaultRoadID road id used for unseen roads (lowest known road id).
func (p *Predictor) DefaultRoadID() int64 {
	return p.current.Load().defaultID
}

// Predict raw speed in km/h for a road at hour (0-23) on dayOfWeek (0-6, monday=0).
func (p *Predictor) Predict(roadID int64, hour, dayOfWeek int) (Prediction, error) {
	if hour < 0 || hour > 23 || dayOfWeek < 0 || dayOfWeek > 6 {
		return Prediction{}, fmt.Errorf("invalid time slot hour=%d day=%d", hour, dayOfWeek)
	}

	lm := p.current.Load()
	pred := Prediction{}
	if _, ok := lm.known[roadID]; !ok {
		roadID = lm.defaultID
		pred.Fallback = true
		if p.fallbacks != nil {
			p.fallbacks.Inc()
		}
	}

	speed, err := lm.model.Predict(roadID, hour, dayOfWeek)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: road %d: %v", ErrModelUnavailable, roadID, err)
	}
	pred.SpeedKmh = speed
	return pred, nil
}
