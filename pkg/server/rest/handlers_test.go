package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/ranking"
	"github.com/lintang-b-s/trafficnav/pkg/engine/scoring"
	"github.com/lintang-b-s/trafficnav/pkg/graph"
	"github.com/lintang-b-s/trafficnav/pkg/server"
	"github.com/lintang-b-s/trafficnav/pkg/server/rest/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanner struct {
	routes []ranking.Route
	err    error
	got    service.PlanRequest
}

func (f *fakePlanner) Plan(ctx context.Context, req service.PlanRequest) ([]ranking.Route, error) {
	f.got = req
	return f.routes, f.err
}

func (f *fakePlanner) Health() service.Health {
	return service.Health{Graphs: []graph.Stats{{Region: "indore", Network: "drive", Nodes: 9}}, ModelClasses: 4, PathSource: "graph"}
}

func newTestRouter(svc PlanningService) (*chi.Mux, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(PromeHttpMiddleware(m))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	RoutesRouter(r, svc, m)
	return r, reg
}

func postRoutes(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/routes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const validBody = `{"source":"22.7196,75.8577","destination":"22.7533,75.8937","date_time":"2024-01-01T08:30:00","travel_mode":"Bike"}`

func TestPlanRoutesOK(t *testing.T) {
	svc := &fakePlanner{routes: []ranking.Route{
		{
			Name:            "Alternative Route 1",
			TotalDistanceKm: 1.2,
			TotalTimeMin:    3.6,
			Recommended:     true,
			Segments: []scoring.ScoredSegment{{
				RoadID:        42,
				Start:         datastructure.NewCoordinate(22.7196, 75.8577),
				End:           datastructure.NewCoordinate(22.7290, 75.8610),
				SpeedKmh:      20,
				Congestion:    scoring.CongestionYellow,
				LengthM:       1200,
				TravelTimeMin: 3.6,
			}},
		},
		{Name: "Shortest Distance", TotalDistanceKm: 1.0, TotalTimeMin: 4, Segments: []scoring.ScoredSegment{}},
	}}
	r, _ := newTestRouter(svc)

	rec := postRoutes(t, r, validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	assert.Equal(t, service.PlanRequest{
		Source:      "22.7196,75.8577",
		Destination: "22.7533,75.8937",
		DepartAt:    "2024-01-01T08:30:00",
		Mode:        "bike",
	}, svc.got)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Alternative Route 1", got[0]["route_name"])
	assert.Equal(t, 1.2, got[0]["total_distance_km"])
	assert.Equal(t, 3.6, got[0]["total_time_min"])
	assert.Equal(t, true, got[0]["recommended"])
	assert.Equal(t, false, got[1]["recommended"])
	assert.Equal(t, []interface{}{}, got[1]["segments"])

	seg := got[0]["segments"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"road_id":          42.0,
		"latitude_start":   22.7196,
		"longitude_start":  75.8577,
		"latitude_end":     22.729,
		"longitude_end":    75.861,
		"speed_kmh":        20.0,
		"congestion_level": "yellow",
		"length_m":         1200.0,
		"travel_time_min":  3.6,
	}, seg)
}

func TestPlanRoutesTrailingSlash(t *testing.T) {
	svc := &fakePlanner{routes: []ranking.Route{{Name: "Shortest Distance", Recommended: true}}}
	r, _ := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/routes/", bytes.NewBufferString(validBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlanRoutesBadRequest(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		validation bool
	}{
		{"malformed json", `{"source":`, false},
		{"missing source", `{"destination":"22.75,75.89","date_time":"2024-01-01T08:30:00"}`, true},
		{"missing date_time", `{"source":"22.71,75.85","destination":"22.75,75.89"}`, true},
		{"unknown travel mode", `{"source":"22.71,75.85","destination":"22.75,75.89","date_time":"2024-01-01T08:30:00","travel_mode":"plane"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePlanner{}
			r, _ := newTestRouter(svc)

			rec := postRoutes(t, r, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "InvalidInput", body["kind"])
			assert.Equal(t, "Invalid request.", body["status"])
			if tt.validation {
				assert.NotEmpty(t, body["validation"])
			}
			assert.Equal(t, service.PlanRequest{}, svc.got)
		})
	}
}

func TestPlanRoutesServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"invalid input", server.WrapErrorf(errors.New(`coordinate "x" must be "lat,lon"`), server.ErrInvalidInput, "invalid source"), http.StatusBadRequest, "InvalidInput"},
		{"endpoint", server.NewErrorf(server.ErrEndpointUnresolvable, "source is not covered by the road network"), http.StatusBadRequest, "EndpointUnresolvable"},
		{"no route", server.NewErrorf(server.ErrNoRouteFound, "no route between source and destination"), http.StatusNotFound, "NoRouteFound"},
		{"no routes", server.NewErrorf(server.ErrNoRoutesFound, "no scorable route"), http.StatusNotFound, "NoRoutesFound"},
		{"graph", server.NewErrorf(server.ErrGraphUnavailable, "no road graph loaded"), http.StatusInternalServerError, "GraphUnavailable"},
		{"model", server.NewErrorf(server.ErrModelUnavailable, "speed model unavailable"), http.StatusInternalServerError, "ModelUnavailable"},
		{"untyped", errors.New("secret detail"), http.StatusInternalServerError, "Internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(&fakePlanner{err: tt.err})

			rec := postRoutes(t, r, validBody)
			require.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotContains(t, rec.Body.String(), "secret detail")
		})
	}
}

func TestInvalidInputMessageNamesField(t *testing.T) {
	err := server.WrapErrorf(errors.New(`coordinate "x" must be "lat,lon"`), server.ErrInvalidInput, "invalid source")
	resp := ErrFromService(err)
	assert.Equal(t, `invalid source: coordinate "x" must be "lat,lon"`, resp.ErrorText)
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(&fakePlanner{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var h service.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, 4, h.ModelClasses)
	require.Len(t, h.Graphs, 1)
	assert.Equal(t, "indore", h.Graphs[0].Region)
}

func TestMetricsRecorded(t *testing.T) {
	r, _ := newTestRouter(&fakePlanner{err: server.NewErrorf(server.ErrNoRouteFound, "no route")})
	postRoutes(t, r, validBody)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	out, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, `trafficnav_http_requests_total{method="POST",path="/api/routes",status="404"} 1`)
	assert.Contains(t, text, `trafficnav_plan_errors_total{kind="NoRouteFound"} 1`)
}

func TestRequestIDIgnoresClientID(t *testing.T) {
	r, _ := newTestRouter(&fakePlanner{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-chosen")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	id := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "client-chosen", id)
}
