package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lintang-b-s/trafficnav/pkg/engine/ranking"
	"github.com/lintang-b-s/trafficnav/pkg/server"
	"github.com/lintang-b-s/trafficnav/pkg/server/rest/service"
	log "github.com/sirupsen/logrus"
)

type PlanningService interface {
	Plan(ctx context.Context, req service.PlanRequest) ([]ranking.Route, error)
	Health() service.Health
}

type RoutesHandler struct {
	svc      PlanningService
	metrics  *Metrics
	validate *validator.Validate
	trans    ut.Translator
}

func NewRoutesHandler(svc PlanningService, m *Metrics) *RoutesHandler {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return &RoutesHandler{svc: svc, metrics: m, validate: validate, trans: trans}
}

func RoutesRouter(r *chi.Mux, svc PlanningService, m *Metrics) {
	handler := NewRoutesHandler(svc, m)

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Post("/routes", handler.PlanRoutes)
			r.Post("/routes/", handler.PlanRoutes)
		})
	})
	r.Get("/healthz", handler.Health)
}

// RouteRequest request body of POST /api/routes.
//
//	@Description	request body for route planning
type RouteRequest struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	DateTime    string `json:"date_time" validate:"required"`
	TravelMode  string `json:"travel_mode" validate:"omitempty,oneof=drive car bike walk foot"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	s.Source = strings.TrimSpace(s.Source)
	s.Destination = strings.TrimSpace(s.Destination)
	s.DateTime = strings.TrimSpace(s.DateTime)
	s.TravelMode = strings.ToLower(strings.TrimSpace(s.TravelMode))
	return nil
}

// SegmentResponse
//
//	@Description	one road segment of a route with its predicted speed and congestion
type SegmentResponse struct {
	RoadID          int64   `json:"road_id"`
	LatitudeStart   float64 `json:"latitude_start"`
	LongitudeStart  float64 `json:"longitude_start"`
	LatitudeEnd     float64 `json:"latitude_end"`
	LongitudeEnd    float64 `json:"longitude_end"`
	SpeedKmh        float64 `json:"speed_kmh"`
	CongestionLevel string  `json:"congestion_level"`
	LengthM         float64 `json:"length_m"`
	TravelTimeMin   float64 `json:"travel_time_min"`
}

// RouteResponse
//
//	@Description	one candidate route
type RouteResponse struct {
	RouteName       string            `json:"route_name"`
	TotalDistanceKm float64           `json:"total_distance_km"`
	TotalTimeMin    float64           `json:"total_time_min"`
	Segments        []SegmentResponse `json:"segments"`
	Recommended     bool              `json:"recommended"`
}

func RenderRouteResponse(routes []ranking.Route) []RouteResponse {
	resp := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		segments := make([]SegmentResponse, 0, len(r.Segments))
		for _, s := range r.Segments {
			segments = append(segments, SegmentResponse{
				RoadID:          s.RoadID,
				LatitudeStart:   s.Start.Lat,
				LongitudeStart:  s.Start.Lon,
				LatitudeEnd:     s.End.Lat,
				LongitudeEnd:    s.End.Lon,
				SpeedKmh:        s.SpeedKmh,
				CongestionLevel: string(s.Congestion),
				LengthM:         s.LengthM,
				TravelTimeMin:   s.TravelTimeMin,
			})
		}
		resp = append(resp, RouteResponse{
			RouteName:       r.Name,
			TotalDistanceKm: r.TotalDistanceKm,
			TotalTimeMin:    r.TotalTimeMin,
			Segments:        segments,
			Recommended:     r.Recommended,
		})
	}
	return resp
}

// PlanRoutes
//
//	@Summary		up to 3 candidate routes between two coordinates, ranked by predicted travel time
//	@Description	candidate routes between source and destination, every segment scored with the predicted speed at date_time for the travel mode
//	@Tags			routes
//	@Param			body	body	RouteRequest	true	"source, destination, departure time and travel mode"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/api/routes [post]
//	@Success		200	{array}		RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *RoutesHandler) PlanRoutes(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		h.countError(server.ErrInvalidInput)
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if err := h.validate.Struct(*data); err != nil {
		h.countError(server.ErrInvalidInput)
		vv := translateError(err, h.trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	routes, err := h.svc.Plan(r.Context(), service.PlanRequest{
		Source:      data.Source,
		Destination: data.Destination,
		DepartAt:    data.DateTime,
		Mode:        data.TravelMode,
	})
	if err != nil {
		rend := ErrFromService(err)
		h.countError(rend.Kind)
		if rend.HTTPStatusCode >= http.StatusInternalServerError {
			log.WithFields(log.Fields{
				"component":  "rest",
				"request_id": middleware.GetReqID(r.Context()),
				"kind":       rend.Kind.String(),
			}).Errorf("planning failed: %v", err)
		}
		render.Render(w, r, rend)
		return
	}

	if h.metrics != nil {
		h.metrics.RoutesReturned.Observe(float64(len(routes)))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(routes))
}

// Health
//
//	@Summary	loaded road graphs and speed model
//	@Tags		health
//	@Produce	application/json
//	@Router		/healthz [get]
//	@Success	200	{object}	service.Health
func (h *RoutesHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.svc.Health())
}

func (h *RoutesHandler) countError(kind server.ErrorCode) {
	if h.metrics != nil {
		h.metrics.PlanErrors.WithLabelValues(kind.String()).Inc()
	}
}

// ErrResponse model info
//
//	@Description	model untuk error response
type ErrResponse struct {
	Err            error            `json:"-"` // low-level runtime error
	HTTPStatusCode int              `json:"-"` // http response status code
	Kind           server.ErrorCode `json:"-"`

	StatusText    string   `json:"status"`          // user-level status message
	KindText      string   `json:"kind"`            // error kind, e.g. NoRouteFound
	ErrorText     string   `json:"error,omitempty"` // application-level error message
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		Kind:           server.ErrInvalidInput,
		StatusText:     "Invalid request.",
		KindText:       server.ErrInvalidInput.String(),
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, errV []error) *ErrResponse {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	resp := ErrInvalidRequest(err)
	resp.ErrorText = "request validation failed"
	resp.ErrValidation = vv
	return resp
}

func ErrInternalServerErrorRend(err error) *ErrResponse {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		Kind:           server.ErrInternalServerError,
		StatusText:     "Internal server error.",
		KindText:       server.ErrInternalServerError.String(),
		ErrorText:      "internal server error",
	}
}

// ErrFromService render an error returned by the planning service. errors without a kind
// are internal and their text is not exposed.
func ErrFromService(err error) *ErrResponse {
	var se *server.Error
	if !errors.As(err, &se) {
		return ErrInternalServerErrorRend(err)
	}

	code := se.Code()
	status := code.HTTPStatus()
	resp := &ErrResponse{
		Err:            err,
		HTTPStatusCode: status,
		Kind:           code,
		StatusText:     statusText(status),
		KindText:       code.String(),
		ErrorText:      se.Message(),
	}
	if code == server.ErrInvalidInput {
		// the wrapped parse error says which field is wrong.
		resp.ErrorText = se.Error()
	}
	return resp
}

func statusText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request."
	case http.StatusNotFound:
		return "Not found."
	default:
		return "Internal server error."
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf("%s", e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
