package directions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httputil "github.com/wandermap/navigator/pkg/infrastructure/http"
)

const okBody = `{
  "code": "Ok",
  "routes": [{
    "geometry": {"type": "LineString", "coordinates": [[-55.9414, -15.2924], [-55.94, -15.29], [-55.93, -15.28]]},
    "distance": 1834.6,
    "duration": 245.2
  }]
}`

func TestClient_Mapbox(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderMapbox, BaseURL: srv.URL, AccessToken: "pk.test"}, srv.Client(), nil)

	route, err := c.Route(context.Background(), orb.Point{-55.9414, -15.2924}, orb.Point{-55.93, -15.28})
	require.NoError(t, err)

	assert.Equal(t, "/directions/v5/mapbox/driving/-55.941400,-15.292400;-55.930000,-15.280000", gotPath)
	assert.Contains(t, gotQuery, "geometries=geojson")
	assert.Contains(t, gotQuery, "access_token=pk.test")

	assert.Len(t, route.Points, 3)
	assert.Equal(t, orb.Point{-55.9414, -15.2924}, route.Points[0])
	assert.Equal(t, 1834.6, route.DistanceMeters)
	assert.Equal(t, 245.2, route.DurationSeconds)
}

func TestClient_OSRM(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c := NewClient(Config{Provider: ProviderOSRM, BaseURL: srv.URL, AccessToken: "ignored"}, srv.Client(), nil)

	_, err := c.Route(context.Background(), orb.Point{1, 2}, orb.Point{3, 4})
	require.NoError(t, err)

	assert.Equal(t, "/route/v1/driving/1.000000,2.000000;3.000000,4.000000", gotPath)
	assert.Contains(t, gotQuery, "overview=full")
	assert.NotContains(t, gotQuery, "access_token")
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		check   func(t *testing.T, err error)
	}{
		{
			name:    "empty routes",
			status:  http.StatusOK,
			body:    `{"code":"Ok","routes":[]}`,
			wantErr: ErrNoRoute,
		},
		{
			name:    "mapbox no route code",
			status:  http.StatusOK,
			body:    `{"code":"NoRoute","message":"No route found","routes":[]}`,
			wantErr: ErrNoRoute,
		},
		{
			name:    "osrm no segment",
			status:  http.StatusBadRequest,
			body:    `{"code":"NoSegment","message":"Could not find a matching segment"}`,
			wantErr: ErrNoRoute,
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"message":"Not Authorized - Invalid Token"}`,
			check: func(t *testing.T, err error) {
				var httpErr *httputil.HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
				assert.Contains(t, httpErr.Body, "Invalid Token")
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"routes": [`,
			check: func(t *testing.T, err error) {
				assert.True(t, strings.Contains(err.Error(), "decode directions response"))
			},
		},
		{
			name:   "point geometry",
			status: http.StatusOK,
			body:   `{"code":"Ok","routes":[{"geometry":{"type":"Point","coordinates":[1,2]},"distance":1,"duration":1}]}`,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "want LineString")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL}, srv.Client(), nil)
			_, err := c.Route(context.Background(), orb.Point{0, 0}, orb.Point{1, 1})

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(Config{BaseURL: srv.URL}, srv.Client(), nil)
	_, err := c.Route(ctx, orb.Point{0, 0}, orb.Point{1, 1})
	assert.ErrorIs(t, err, context.Canceled)
}
