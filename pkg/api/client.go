package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb"

	"github.com/wandermap/navigator/pkg/geolocation"
	httputil "github.com/wandermap/navigator/pkg/infrastructure/http"
)

// Client drives one user of a running navigator, the way a device would.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

func NewClient(baseURL, userID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 45 * time.Second}
	}
	return &Client{baseURL: baseURL, userID: userID, http: httpClient}
}

// State is the navigation state as reported by the server.
type State = stateResponse

func (c *Client) SetPermission(ctx context.Context, state geolocation.PermissionState) error {
	return c.call(ctx, http.MethodPut, "/permission", permissionRequest{Location: string(state)}, nil)
}

func (c *Client) PushPosition(ctx context.Context, s geolocation.Sample) error {
	lon, lat := s.Longitude(), s.Latitude()
	req := positionRequest{Longitude: &lon, Latitude: &lat, Accuracy: s.Accuracy}
	if !s.Timestamp.IsZero() {
		req.Timestamp = s.Timestamp.UnixMilli()
	}
	return c.call(ctx, http.MethodPost, "/positions", req, nil)
}

func (c *Client) Locate(ctx context.Context) (State, error) {
	var st State
	err := c.call(ctx, http.MethodPost, "/locate", nil, &st)
	return st, err
}

func (c *Client) SelectDestination(ctx context.Context, p orb.Point) (State, error) {
	lon, lat := p.Lon(), p.Lat()
	var st State
	err := c.call(ctx, http.MethodPost, "/destination", destinationRequest{Longitude: &lon, Latitude: &lat}, &st)
	return st, err
}

func (c *Client) StartNavigation(ctx context.Context) (State, error) {
	var st State
	err := c.call(ctx, http.MethodPost, "/navigation/start", nil, &st)
	return st, err
}

func (c *Client) StopNavigation(ctx context.Context) (State, error) {
	var st State
	err := c.call(ctx, http.MethodPost, "/navigation/stop", nil, &st)
	return st, err
}

func (c *Client) State(ctx context.Context) (State, error) {
	var st State
	err := c.call(ctx, http.MethodGet, "/navigation", nil, &st)
	return st, err
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	endpoint, err := url.JoinPath(c.baseURL, "api", "users", c.userID)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	endpoint += path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
