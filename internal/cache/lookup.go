package cache

import (
	"context"
	"errors"
	"time"

	"routeplanner/internal/metrics"
	"routeplanner/internal/providers"
)

// noName marks a cached "provider has no name for this cell" answer.
const noName = "\x00"

// Geocoder wraps a ReverseGeocoder. Names and confirmed misses are cached;
// transport errors are not.
type Geocoder struct {
	Next  providers.ReverseGeocoder
	Cache Cache
	TTL   time.Duration
}

func (g *Geocoder) ReverseGeocode(ctx context.Context, p providers.Point) (string, error) {
	key := Key("geo", p.Lat, p.Lng)
	if v, ok := g.Cache.Get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("geo", "hit").Inc()
		if v == noName {
			return "", providers.ErrNoResult
		}
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues("geo", "miss").Inc()
	name, err := g.Next.ReverseGeocode(ctx, p)
	switch {
	case err == nil:
		g.Cache.Set(ctx, key, name, g.TTL)
	case errors.Is(err, providers.ErrNoResult):
		g.Cache.Set(ctx, key, noName, g.TTL)
	}
	return name, err
}

// Weather wraps a Weather provider. Conditions change, so keep TTL short.
type Weather struct {
	Next  providers.Weather
	Cache Cache
	TTL   time.Duration
}

func (w *Weather) Current(ctx context.Context, p providers.Point) (string, error) {
	key := Key("wx", p.Lat, p.Lng)
	if v, ok := w.Cache.Get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("wx", "hit").Inc()
		return v, nil
	}
	metrics.CacheLookups.WithLabelValues("wx", "miss").Inc()
	desc, err := w.Next.Current(ctx, p)
	if err == nil {
		w.Cache.Set(ctx, key, desc, w.TTL)
	}
	return desc, err
}
