package zones

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ooh-planner/internal/geo"
	"github.com/sells-group/ooh-planner/pkg/geocode"
)

// Resolution is the outcome of ResolveAddresses.
type Resolution struct {
	Zones     []geo.Zone // matched addresses, in input order
	Unmatched []string   // addresses the provider could not place
}

// ResolveAddresses geocodes addrs with up to concurrency requests in flight.
// Any provider failure cancels the rest and returns no zones at all, so a
// caller never adds a partial batch. There are no retries.
func ResolveAddresses(ctx context.Context, client geocode.Client, addrs []string, radiusMeters float64, concurrency int) (*Resolution, error) {
	if !(radiusMeters > 0) {
		return nil, eris.Wrapf(geo.ErrInvalidRadius, "zones: radius %v", radiusMeters)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*geocode.Result, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, addr := range addrs {
		g.Go(func() error {
			r, err := client.Geocode(gctx, addr)
			if err != nil {
				return eris.Wrapf(err, "zones: geocode %q", addr)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Resolution{}
	for i, addr := range addrs {
		if results[i] == nil || !results[i].Matched {
			res.Unmatched = append(res.Unmatched, addr)
			continue
		}
		z, err := FromResolvedAddress(addr, results[i], radiusMeters)
		if err != nil {
			return nil, err
		}
		res.Zones = append(res.Zones, z)
	}

	zap.L().Info("zones: addresses resolved",
		zap.Int("requested", len(addrs)),
		zap.Int("matched", len(res.Zones)),
		zap.Int("unmatched", len(res.Unmatched)),
	)
	return res, nil
}
