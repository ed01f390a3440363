// Package directions fetches driving routes from a Mapbox Directions v5 or
// OSRM endpoint. Both answer with GeoJSON geometries.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wandermap/navigator/pkg/domain/navigation"
	httputil "github.com/wandermap/navigator/pkg/infrastructure/http"
)

type Provider string

const (
	ProviderMapbox Provider = "mapbox"
	ProviderOSRM   Provider = "osrm"
)

const (
	DefaultMapboxBaseURL = "https://api.mapbox.com"
	DefaultOSRMBaseURL   = "https://router.project-osrm.org"
	DefaultProfile       = "driving"
	DefaultTimeout       = 10 * time.Second
)

// ErrNoRoute means the provider answered but found no route between the
// two points.
var ErrNoRoute = errors.New("no route found")

type Config struct {
	Provider    Provider
	BaseURL     string
	Profile     string
	AccessToken string
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.Provider == "" {
		cfg.Provider = ProviderMapbox
	}
	if cfg.BaseURL == "" {
		if cfg.Provider == ProviderOSRM {
			cfg.BaseURL = DefaultOSRMBaseURL
		} else {
			cfg.BaseURL = DefaultMapboxBaseURL
		}
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Provider == ProviderMapbox && cfg.AccessToken != "" {
		authed := *httpClient
		authed.Transport = &TokenTransport{Token: cfg.AccessToken, Base: httpClient.Transport}
		httpClient = &authed
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger.With("component", "directions", "provider", string(cfg.Provider)),
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry json.RawMessage `json:"geometry"`
		Distance float64         `json:"distance"`
		Duration float64         `json:"duration"`
	} `json:"routes"`
}

// Route requests a route from one point to another and returns the first
// alternative.
func (c *Client) Route(ctx context.Context, from, to orb.Point) (navigation.Route, error) {
	reqURL, err := c.buildURL(from, to)
	if err != nil {
		return navigation.Route{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return navigation.Route{}, fmt.Errorf("build directions request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return navigation.Route{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	if httpErr := httputil.ParseErrorResponse(resp); httpErr != nil {
		// OSRM reports unroutable points as 400 NoRoute/NoSegment
		if code := decodeCode(resp.Body); isNoRoute(code) {
			return navigation.Route{}, fmt.Errorf("%w: %s", ErrNoRoute, code)
		}
		return navigation.Route{}, fmt.Errorf("directions request: %w", httpErr)
	}

	var parsed routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return navigation.Route{}, fmt.Errorf("decode directions response: %w", err)
	}
	if isNoRoute(parsed.Code) || len(parsed.Routes) == 0 {
		return navigation.Route{}, ErrNoRoute
	}

	first := parsed.Routes[0]
	geom, err := geojson.UnmarshalGeometry(first.Geometry)
	if err != nil {
		return navigation.Route{}, fmt.Errorf("decode route geometry: %w", err)
	}
	line, ok := geom.Geometry().(orb.LineString)
	if !ok {
		return navigation.Route{}, fmt.Errorf("route geometry is %s, want LineString", geom.Type)
	}

	c.logger.Debug("Route fetched",
		"points", len(line),
		"distance_m", first.Distance,
		"duration_s", first.Duration,
		"elapsed", time.Since(start),
	)

	return navigation.Route{
		Points:          line,
		DistanceMeters:  first.Distance,
		DurationSeconds: first.Duration,
	}, nil
}

func (c *Client) buildURL(from, to orb.Point) (*url.URL, error) {
	coords := fmt.Sprintf("%f,%f;%f,%f", from.Lon(), from.Lat(), to.Lon(), to.Lat())

	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid directions base url: %w", err)
	}
	q := url.Values{}
	q.Set("geometries", "geojson")

	switch c.cfg.Provider {
	case ProviderOSRM:
		u = u.JoinPath("route", "v1", c.cfg.Profile, coords)
		q.Set("overview", "full")
	default:
		u = u.JoinPath("directions", "v5", "mapbox", c.cfg.Profile, coords)
	}

	u.RawQuery = q.Encode()
	return u, nil
}

func decodeCode(body io.Reader) string {
	var r routeResponse
	if err := json.NewDecoder(body).Decode(&r); err != nil {
		return ""
	}
	return r.Code
}

func isNoRoute(code string) bool {
	return code == "NoRoute" || code == "NoSegment"
}
