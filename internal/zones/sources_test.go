package zones

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/pkg/geocode"
)

func TestFromSearchResult(t *testing.T) {
	z, err := FromSearchResult("Estadio Azteca", 19.3029, -99.1505, 500)
	require.NoError(t, err)
	assert.Equal(t, geo.OriginSearchResult, z.Origin)
	assert.Equal(t, "Estadio Azteca", z.Label)
	assert.NotEmpty(t, z.ID)
}

func TestFromManualPin(t *testing.T) {
	z, err := FromManualPin(19.4326, -99.1332, 300)
	require.NoError(t, err)
	assert.Equal(t, geo.OriginManualPin, z.Origin)
	assert.Equal(t, "19.43260,-99.13320", z.Label)

	_, err = FromManualPin(100, 0, 300)
	assert.True(t, errors.Is(err, geo.ErrInvalidCoordinate))

	_, err = FromManualPin(19, -99, 0)
	assert.True(t, errors.Is(err, geo.ErrInvalidRadius))
}

func TestFromResolvedAddress(t *testing.T) {
	r := &geocode.Result{Latitude: 20.67, Longitude: -103.35, FormattedAddress: "Guadalajara, Jal.", Matched: true}
	z, err := FromResolvedAddress("gdl centro", r, 250)
	require.NoError(t, err)
	assert.Equal(t, geo.OriginResolvedAddress, z.Origin)
	assert.Equal(t, "Guadalajara, Jal.", z.Label)
	assert.Equal(t, 250.0, z.RadiusMeters)

	r.FormattedAddress = ""
	z, err = FromResolvedAddress("gdl centro", r, 250)
	require.NoError(t, err)
	assert.Equal(t, "gdl centro", z.Label)

	_, err = FromResolvedAddress("nowhere", &geocode.Result{}, 250)
	assert.Error(t, err)
}
