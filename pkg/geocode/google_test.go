package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(srvURL string) *geocoder {
	return &geocoder{
		httpClient: newRewriteClient(srvURL, googleGeocodeURL),
		googleKey:  "test-key",
		region:     "mx",
		language:   "es",
		limiter:    newTestLimiter(),
	}
}

func TestGoogleGeocode_Rooftop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Av. Juárez 10, CDMX", r.URL.Query().Get("address"))
		assert.Equal(t, "mx", r.URL.Query().Get("region"))
		assert.Equal(t, "es", r.URL.Query().Get("language"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 19.4357, "lng": -99.1431},
					"location_type": "ROOFTOP"
				},
				"formatted_address": "Av. Juárez 10, Centro, 06000 Ciudad de México, CDMX"
			}]
		}`)
	}))
	defer srv.Close()

	result, err := newTestGeocoder(srv.URL).geocodeGoogle(context.Background(), "Av. Juárez 10, CDMX")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 19.4357, result.Latitude, 0.0001)
	assert.InDelta(t, -99.1431, result.Longitude, 0.0001)
	assert.Equal(t, "google", result.Source)
	assert.Equal(t, "rooftop", result.Quality)
	assert.Contains(t, result.FormattedAddress, "Ciudad de México")
}

func TestGoogleGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	result, err := newTestGeocoder(srv.URL).geocodeGoogle(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGoogleGeocode_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   string
		errMsg string
	}{
		{"denied", http.StatusOK, `{"status": "REQUEST_DENIED", "error_message": "bad key"}`, "REQUEST_DENIED: bad key"},
		{"quota", http.StatusOK, `{"status": "OVER_QUERY_LIMIT"}`, "OVER_QUERY_LIMIT"},
		{"http 500", http.StatusInternalServerError, ``, "status 500"},
		{"bad json", http.StatusOK, `{not json`, "parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestGeocoder(srv.URL).geocodeGoogle(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGoogleGeocode_NoKey(t *testing.T) {
	g := &geocoder{limiter: newTestLimiter()}
	_, err := g.geocodeGoogle(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGoogleLocationTypeToQuality(t *testing.T) {
	tests := map[string]string{
		"ROOFTOP":            "rooftop",
		"range_interpolated": "range",
		"GEOMETRIC_CENTER":   "centroid",
		"APPROXIMATE":        "approximate",
		"":                   "approximate",
	}
	for in, want := range tests {
		assert.Equal(t, want, googleLocationTypeToQuality(in), in)
	}
}
