package main

import (
	"context"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ooh-planner/internal/fetcher"
	"github.com/sells-group/ooh-planner/internal/inventory"
	"github.com/sells-group/ooh-planner/internal/planner"
	"github.com/sells-group/ooh-planner/internal/reservation"
	"github.com/sells-group/ooh-planner/internal/store"
	"github.com/sells-group/ooh-planner/internal/zones"
	"github.com/sells-group/ooh-planner/pkg/geocode"
)

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.Pool.MaxConns,
		MinConns: cfg.Store.Pool.MinConns,
	})
}

func calendar() (reservation.Calendar, error) {
	anchor, err := cfg.Calendar.AnchorTime()
	if err != nil {
		return reservation.Calendar{}, err
	}
	return reservation.NewCalendar(anchor), nil
}

// loadInventory reads the sheet at src, falling back to inventory.path.
// http(s) sources are downloaded first.
func loadInventory(ctx context.Context, src string) ([]inventory.Item, error) {
	if src == "" {
		src = cfg.Inventory.Path
	}
	if src == "" {
		return nil, eris.New("inventory source is required (--inventory or OOH_INVENTORY_PATH)")
	}

	path := src
	if fetcher.IsRemote(src) {
		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		tmp, cleanup, err := fetcher.ToTempFile(ctx, f, src)
		if err != nil {
			return nil, eris.Wrap(err, "fetch inventory")
		}
		defer cleanup()
		path = tmp
	}

	opts := inventory.LoadOptions{
		Charset: cfg.Inventory.Charset,
		Sheet:   cfg.Inventory.Sheet,
	}
	if r, _ := utf8.DecodeRuneInString(cfg.Inventory.Delimiter); r != utf8.RuneError {
		opts.Delimiter = r
	}

	items, err := inventory.LoadFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	zap.L().Info("inventory loaded", zap.String("source", src), zap.Int("items", len(items)))
	return items, nil
}

// newSession builds a planner session over items with the saved zones.
// The returned metrics are nil unless metrics.textfile is set.
func newSession(items []inventory.Item) (*planner.Session, *planner.Metrics, error) {
	opts := []planner.Option{planner.WithPalette(cfg.Palette)}

	var metrics *planner.Metrics
	if cfg.Metrics.Textfile != "" {
		m, err := planner.NewMetrics(prometheus.NewRegistry())
		if err != nil {
			return nil, nil, err
		}
		metrics = m
		opts = append(opts, planner.WithMetrics(m))
	}

	s := planner.New(items, opts...)
	zs, err := zones.LoadFile(cfg.Zones.File)
	if err != nil {
		return nil, nil, err
	}
	if err := s.AddZones(zs); err != nil {
		return nil, nil, err
	}
	return s, metrics, nil
}

func writeMetrics(m *planner.Metrics) {
	if m == nil {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		zap.L().Warn("write metrics textfile", zap.Error(err))
	}
}

// newGeocoder builds the address resolver. With the postgres driver results
// are cached in geocode_cache; the returned closer releases that pool.
func newGeocoder(ctx context.Context) (geocode.Client, func(), error) {
	if err := cfg.Validate("geocode"); err != nil {
		return nil, nil, err
	}
	opts := []geocode.Option{
		geocode.WithGoogleAPIKey(cfg.Geocode.GoogleAPIKey),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
		geocode.WithRegion(cfg.Geocode.Region),
		geocode.WithLanguage(cfg.Geocode.Language),
	}

	closer := func() {}
	if cfg.Store.Driver == "postgres" {
		st, err := initStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		if pg, ok := st.(*store.PostgresStore); ok {
			opts = append(opts, geocode.WithCache(pg.Pool(), cfg.Geocode.CacheTTLDays))
		}
		closer = func() { _ = st.Close() }
	}
	return geocode.NewClient(opts...), closer, nil
}
