package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/textnorm"
)

// CacheMigration creates the cache table used by WithCache.
const CacheMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash      TEXT PRIMARY KEY,
	latitude          DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude         DOUBLE PRECISION NOT NULL DEFAULT 0,
	formatted_address TEXT NOT NULL DEFAULT '',
	quality           TEXT NOT NULL DEFAULT '',
	matched           BOOLEAN NOT NULL DEFAULT false,
	cached_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// cacheKey returns SHA-256 hex of the folded address, so case, accents, and
// surrounding space do not create separate entries.
func cacheKey(address string) string {
	h := sha256.Sum256([]byte(textnorm.Fold(address)))
	return fmt.Sprintf("%x", h)
}

// checkCache looks up a cached result, respecting the TTL if configured.
// Cached non-matches are returned too.
func (g *geocoder) checkCache(ctx context.Context, key string) (*Result, error) {
	query := "SELECT latitude, longitude, formatted_address, quality, matched FROM geocode_cache WHERE address_hash = $1"
	if g.cacheTTLDays > 0 {
		query += fmt.Sprintf(" AND cached_at > now() - interval '%d days'", g.cacheTTLDays)
	}

	r := &Result{Source: "cache"}
	row := g.pool.QueryRow(ctx, query, key)
	if err := row.Scan(&r.Latitude, &r.Longitude, &r.FormattedAddress, &r.Quality, &r.Matched); err != nil {
		return nil, err
	}

	keyPrefix := key
	if len(keyPrefix) > 12 {
		keyPrefix = keyPrefix[:12]
	}
	zap.L().Debug("geocode cache hit", zap.String("key", keyPrefix), zap.Bool("matched", r.Matched))
	return r, nil
}

// storeCache upserts a result (match or non-match) into the cache.
func (g *geocoder) storeCache(ctx context.Context, key string, result *Result) error {
	_, err := g.pool.Exec(ctx, `
		INSERT INTO geocode_cache (address_hash, latitude, longitude, formatted_address, quality, matched, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (address_hash) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			formatted_address = EXCLUDED.formatted_address,
			quality = EXCLUDED.quality,
			matched = EXCLUDED.matched,
			cached_at = now()`,
		key, result.Latitude, result.Longitude, result.FormattedAddress, result.Quality, result.Matched,
	)
	if err != nil {
		return eris.Wrap(err, "geocode: store cache")
	}
	return nil
}
