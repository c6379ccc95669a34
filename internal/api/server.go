package api

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"routeplanner/internal/cache"
	"routeplanner/internal/config"
	"routeplanner/internal/model"
	"routeplanner/internal/optimize"
	"routeplanner/internal/providers"
	"routeplanner/internal/providers/google"
	"routeplanner/internal/providers/openweather"
	"routeplanner/internal/providers/tomtom"
	"routeplanner/internal/store"
)

// Optimizer computes route results for a request.
type Optimizer interface {
	Optimize(ctx context.Context, req model.RouteRequest) ([]model.RouteResult, error)
}

type Server struct {
	Cfg       config.Config
	Log       *zap.Logger
	Store     store.Store
	Optimizer Optimizer
	Broker    EventBroker
	// Lookups is the geocode/weather cache; /readyz pings it when it can.
	Lookups cache.Cache

	closers []func() error
}

// NewServer wires the store, lookup cache, upstream providers and optimiser
// from cfg. Without DATABASE_URL history is kept in memory; without REDIS_URL
// the lookup cache and run events are process-local.
func NewServer(cfg config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{Cfg: cfg, Log: log}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s.Store = store.NewMemory(0)
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DBMigrate {
			if err := sp.MigrateDir("db/migrations"); err != nil {
				log.Warn("migrations failed", zap.Error(err))
			}
		}
		s.Store = sp
		s.closers = append(s.closers, sp.Close)
	}

	var lookups cache.Cache = cache.NewMemory()
	s.Broker = NewBroker()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, log)
		if err != nil {
			log.Warn("redis cache unavailable, using memory", zap.Error(err))
		} else {
			lookups = rc
			s.closers = append(s.closers, rc.Close)
		}
		if rb, err := NewRedisBroker(cfg.RedisURL, log); err != nil {
			log.Warn("redis broker unavailable, using in-process", zap.Error(err))
		} else {
			s.Broker = rb
			s.closers = append(s.closers, rb.Close)
		}
	}

	alternatives := cfg.MaxRoutes - 1
	if alternatives < 0 {
		alternatives = 0
	}
	router := tomtom.New(cfg.TomTomBaseURL, cfg.TomTomAPIKey, alternatives,
		providers.NewHTTP("tomtom", cfg.UpstreamTimeout, cfg.UpstreamRPS, log))
	geo := &cache.Geocoder{
		Next:  google.New(cfg.GoogleBaseURL, cfg.GoogleAPIKey, providers.NewHTTP("google", cfg.UpstreamTimeout, cfg.UpstreamRPS, log)),
		Cache: lookups,
		TTL:   cfg.CacheTTL,
	}
	wx := &cache.Weather{
		Next:  openweather.New(cfg.OpenWeatherBaseURL, cfg.OpenWeatherAPIKey, providers.NewHTTP("openweather", cfg.UpstreamTimeout, cfg.UpstreamRPS, log)),
		Cache: lookups,
		TTL:   cfg.CacheTTL,
	}

	s.Lookups = lookups
	history := &publishingStore{Store: s.Store, Broker: s.Broker}
	s.Optimizer = optimize.New(router, geo, wx, history, log, optimize.Config{
		MaxRoutes:    cfg.MaxRoutes,
		SampleEvery:  cfg.SampleEvery,
		MaxLocations: cfg.MaxLocations,
		Concurrency:  cfg.Concurrency,
	})
	return s, nil
}

// Close releases database and Redis connections.
func (s *Server) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
