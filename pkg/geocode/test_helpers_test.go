package geocode

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient sends requests for URLs under prefix to server instead,
// keeping the path suffix and query. Other requests pass through.
func newRewriteClient(server, prefix string) *http.Client {
	return &http.Client{Transport: redirectTo{server: server, prefix: prefix}}
}

type redirectTo struct {
	server, prefix string
}

func (r redirectTo) RoundTrip(req *http.Request) (*http.Response, error) {
	rest, ok := strings.CutPrefix(req.URL.String(), r.prefix)
	if !ok {
		return http.DefaultTransport.RoundTrip(req)
	}
	target, err := url.Parse(r.server + rest)
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.URL, out.Host = target, target.Host
	return http.DefaultTransport.RoundTrip(out)
}
