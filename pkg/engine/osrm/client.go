package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lintang-b-s/trafficnav/pkg/datastructure"
	"github.com/lintang-b-s/trafficnav/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/trafficnav/pkg/graph"
	log "github.com/sirupsen/logrus"
	"github.com/twpayne/go-polyline"
)

type OSRMResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []OSRMRoute `json:"routes"`
}

type OSRMRoute struct {
	Distance float64 `json:"distance"` // meter
	Duration float64 `json:"duration"` // second
	Geometry string  `json:"geometry"`
}

var profiles = map[datastructure.NetworkType]string{
	datastructure.NetworkDrive: "driving",
	datastructure.NetworkBike:  "cycling",
	datastructure.NetworkWalk:  "foot",
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client route source backed by OSRM compatible servers, one base url per network type.
type Client struct {
	baseURLs   map[datastructure.NetworkType]string
	httpClient *http.Client
}

func NewClient(baseURLs map[datastructure.NetworkType]string, opts ...Option) *Client {
	c := &Client{
		baseURLs: make(map[datastructure.NetworkType]string, len(baseURLs)),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for n, u := range baseURLs {
		if u != "" {
			c.baseURLs[n] = strings.TrimRight(u, "/")
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Supports whether a base url is configured for the network type.
func (c *Client) Supports(network datastructure.NetworkType) bool {
	_, ok := c.baseURLs[network]
	return ok
}

func (c *Client) routeURL(network datastructure.NetworkType, from, to datastructure.Coordinate) (string, error) {
	base, ok := c.baseURLs[network]
	if !ok {
		base, ok = c.baseURLs[datastructure.NetworkDrive]
		if !ok {
			return "", fmt.Errorf("%w: no osrm server for %s", graph.ErrGraphUnavailable, network)
		}
		network = datastructure.NetworkDrive
	}
	return fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?alternatives=true&overview=full&geometries=polyline&steps=false",
		base, profiles[network], from.Lon, from.Lat, to.Lon, to.Lat), nil
}

// Routes fetch the alternatives of the server between two coordinates, at most k of them
// (k <= 0 means all). each route is returned as a Track ready to be scored.
func (c *Client) Routes(ctx context.Context, network datastructure.NetworkType, from, to datastructure.Coordinate,
	k int) ([]*Track, error) {
	url, err := c.routeURL(network, from, to)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: osrm request: %v", graph.ErrGraphUnavailable, err)
	}
	defer resp.Body.Close()

	var osrmResp OSRMResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&osrmResp)

	// osrm answers 400 with a json body for unroutable queries, e.g. {"code":"NoRoute"}.
	if resp.StatusCode != http.StatusOK && (decodeErr != nil || osrmResp.Code == "") {
		return nil, fmt.Errorf("%w: osrm returned status %d", graph.ErrGraphUnavailable, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode osrm response: %v", graph.ErrGraphUnavailable, decodeErr)
	}
	if osrmResp.Code != "Ok" || len(osrmResp.Routes) == 0 {
		return nil, fmt.Errorf("%w: osrm code %s %s", routingalgorithm.ErrNoRouteFound, osrmResp.Code, osrmResp.Message)
	}

	tracks := make([]*Track, 0, len(osrmResp.Routes))
	for i, r := range osrmResp.Routes {
		if k > 0 && len(tracks) == k {
			break
		}
		coords, _, err := polyline.DecodeCoords([]byte(r.Geometry))
		if err != nil {
			log.WithFields(log.Fields{
				"component": "osrm",
				"route":     i,
			}).Warnf("skipping route with bad geometry: %v", err)
			continue
		}
		points := make([]datastructure.Coordinate, 0, len(coords))
		for _, c := range coords {
			points = append(points, datastructure.NewCoordinate(c[0], c[1]))
		}
		tracks = append(tracks, NewTrack(points, r.Distance, r.Duration))
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: osrm routes had no usable geometry", routingalgorithm.ErrNoRouteFound)
	}
	return tracks, nil
}
