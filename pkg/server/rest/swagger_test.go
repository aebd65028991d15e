package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/lintang-b-s/trafficnav/docs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	httpSwagger "github.com/swaggo/http-swagger"
)

func TestSwaggerDocServed(t *testing.T) {
	r, _ := newTestRouter(&fakePlanner{})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Swagger     string                            `json:"swagger"`
		Paths       map[string]map[string]interface{} `json:"paths"`
		Definitions map[string]struct {
			Required   []string               `json:"required"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	assert.Equal(t, "2.0", doc.Swagger)
	assert.Contains(t, doc.Paths["/api/routes"], "post")
	assert.Contains(t, doc.Paths["/healthz"], "get")

	reqDef, ok := doc.Definitions["rest.RouteRequest"]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"source", "destination", "date_time"}, reqDef.Required)
	assert.Contains(t, reqDef.Properties, "travel_mode")

	assert.Contains(t, doc.Definitions["rest.RouteResponse"].Properties, "recommended")
	assert.Contains(t, doc.Definitions["rest.ErrResponse"].Properties, "kind")
}
