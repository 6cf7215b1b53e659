// Package geocode resolves free-form addresses to coordinates with the Google
// Geocoding API, rate limited and optionally cached in Postgres.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ooh-planner/internal/db"
)

// ErrNoAPIKey is returned when no Google API key is configured.
var ErrNoAPIKey = eris.New("geocode: google api key not configured")

// Client geocodes addresses. It is safe for concurrent use.
type Client interface {
	// Geocode resolves one address. An unmatched address is not an error:
	// it returns a Result with Matched false.
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Source           string // "google" or "cache"
	Quality          string // "rooftop", "range", "centroid", "approximate"
	Matched          bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithGoogleAPIKey sets the Google Geocoding API key.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRegion biases results toward a ccTLD region code such as "mx".
func WithRegion(region string) Option {
	return func(g *geocoder) {
		g.region = region
	}
}

// WithLanguage sets the language of formatted addresses.
func WithLanguage(lang string) Option {
	return func(g *geocoder) {
		g.language = lang
	}
}

// WithCache stores results in the geocode_cache table. ttlDays <= 0 keeps
// entries forever.
func WithCache(pool db.Pool, ttlDays int) Option {
	return func(g *geocoder) {
		g.pool = pool
		g.cacheTTLDays = ttlDays
	}
}

type geocoder struct {
	httpClient   *http.Client
	googleKey    string
	region       string
	language     string
	limiter      *rate.Limiter
	pool         db.Pool
	cacheTTLDays int
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
		region:     "mx",
		language:   "es",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode checks the cache, then asks Google. Both matches and non-matches
// are cached; provider errors are not.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return &Result{Matched: false}, nil
	}

	var key string
	if g.pool != nil {
		key = cacheKey(address)
		if r, err := g.checkCache(ctx, key); err == nil {
			return r, nil
		}
	}

	result, err := g.geocodeGoogle(ctx, address)
	if err != nil {
		return nil, err
	}

	if g.pool != nil {
		if err := g.storeCache(ctx, key, result); err != nil {
			zap.L().Warn("geocode: cache store failed", zap.Error(err))
		}
	}
	return result, nil
}
