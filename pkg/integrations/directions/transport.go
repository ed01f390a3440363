package directions

import (
	"log/slog"
	"net/http"
)

// TokenTransport is an http.RoundTripper that adds the access token to every
// request. The token goes on a clone, so the URL callers see in errors and
// logs never carries it.
type TokenTransport struct {
	Token string

	// Base is the RoundTripper used to make the actual HTTP requests.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper
}

func (t *TokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	req2 := cloneRequest(req)
	q := req2.URL.Query()
	q.Set("access_token", t.Token)
	req2.URL.RawQuery = q.Encode()

	resp, err := base.RoundTrip(req2)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		slog.Warn("Directions access token rejected", "host", req.URL.Host)
	}
	return resp, nil
}

// cloneRequest returns a shallow copy of r with its own URL and Header.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	u := *r.URL
	r2.URL = &u
	r2.Header = make(http.Header, len(r.Header))
	for k, s := range r.Header {
		r2.Header[k] = append([]string(nil), s...)
	}
	return r2
}
