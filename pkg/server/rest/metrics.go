package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPDuration        *prometheus.HistogramVec
	HTTPRequests        *prometheus.CounterVec
	PlanErrors          *prometheus.CounterVec
	RoutesReturned      prometheus.Histogram
	FallbackPredictions prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trafficnav_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trafficnav_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		PlanErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trafficnav_plan_errors_total",
				Help: "Route planning errors by kind",
			},
			[]string{"kind"},
		),
		RoutesReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trafficnav_routes_returned",
				Help:    "Number of routes returned per successful plan",
				Buckets: []float64{1, 2, 3, 4, 5},
			},
		),
		FallbackPredictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trafficnav_speed_fallback_predictions_total",
				Help: "Speed predictions that used the default road id",
			},
		),
	}
	reg.MustRegister(m.HTTPDuration, m.HTTPRequests, m.PlanErrors, m.RoutesReturned, m.FallbackPredictions)
	return m
}

// PromeHttpMiddleware record duration and count of every request, labelled by route pattern.
func PromeHttpMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			labels := []string{r.Method, path, strconv.Itoa(status)}
			m.HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			m.HTTPRequests.WithLabelValues(labels...).Inc()
		})
	}
}
