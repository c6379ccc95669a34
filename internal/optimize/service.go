// Package optimize turns a RouteRequest into ranked, annotated route results:
// traffic-aware routes from the router, CO2 estimates from the vehicle's fuel
// efficiency, and place names plus weather sampled along each path.
package optimize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"routeplanner/internal/metrics"
	"routeplanner/internal/model"
	"routeplanner/internal/providers"
	"routeplanner/internal/store"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoTrafficData = errors.New("No traffic data available")
	ErrUpstream      = errors.New("upstream failure")
)

const (
	UnknownLocation = "Unknown Location"
	LocationError   = "Error Fetching Location"
	UnknownWeather  = "Unknown"
)

type Config struct {
	MaxRoutes    int
	SampleEvery  int
	MaxLocations int
	Concurrency  int
}

func DefaultConfig() Config {
	return Config{MaxRoutes: 3, SampleEvery: 100, MaxLocations: 5, Concurrency: 8}
}

type Service struct {
	Router  providers.Router
	Geo     providers.ReverseGeocoder
	Weather providers.Weather
	Store   store.Store // optional
	Log     *zap.Logger
	Cfg     Config
}

func New(router providers.Router, geo providers.ReverseGeocoder, wx providers.Weather, st store.Store, log *zap.Logger, cfg Config) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Router: router, Geo: geo, Weather: wx, Store: st, Log: log.Named("optimize"), Cfg: cfg}
}

// Optimize computes up to Cfg.MaxRoutes results. Lookup failures along the
// route are reported inside the results, never as an error.
func (s *Service) Optimize(ctx context.Context, req model.RouteRequest) ([]model.RouteResult, error) {
	fuel, factor, err := parseVehicle(req)
	if err != nil {
		metrics.OptimizeRuns.WithLabelValues("invalid").Inc()
		return nil, err
	}
	run := store.Run{Origin: *req.Origin, Destination: *req.Destination, FuelEfficiency: fuel, EmissionFactor: factor}

	results, err := s.optimize(ctx, req, fuel, factor)
	if err != nil {
		run.Error = err.Error()
		metrics.OptimizeRuns.WithLabelValues(outcome(err)).Inc()
	} else {
		run.RouteCount = len(results)
		for _, r := range results {
			run.Distances = append(run.Distances, r.Distance)
		}
		metrics.OptimizeRuns.WithLabelValues("ok").Inc()
	}
	s.record(ctx, run)
	return results, err
}

func (s *Service) optimize(ctx context.Context, req model.RouteRequest, fuel, factor float64) ([]model.RouteResult, error) {
	from := providers.Point{Lat: req.Origin.Lat, Lng: req.Origin.Lng}
	to := providers.Point{Lat: req.Destination.Lat, Lng: req.Destination.Lng}

	routes, err := s.Router.Routes(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(routes) == 0 {
		return nil, ErrNoTrafficData
	}
	if len(routes) > s.Cfg.MaxRoutes {
		routes = routes[:s.Cfg.MaxRoutes]
	}

	results := make([]model.RouteResult, len(routes))
	samples := make([][]sample, len(routes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.Concurrency)
	for i, rt := range routes {
		results[i] = summarize(i, rt, fuel, factor)
		samples[i] = make([]sample, 0, len(rt.Points)/s.Cfg.SampleEvery+1)
		for j := 0; j < len(rt.Points); j += s.Cfg.SampleEvery {
			samples[i] = append(samples[i], sample{at: rt.Points[j]})
		}
		for j := range samples[i] {
			sp := &samples[i][j]
			g.Go(func() error {
				s.lookup(gctx, sp)
				return nil
			})
		}
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		results[i].TrafficLocations = make([]string, 0, len(samples[i]))
		results[i].WeatherData = make([]model.WeatherData, 0, len(samples[i]))
		for _, sp := range samples[i] {
			results[i].TrafficLocations = append(results[i].TrafficLocations, sp.locationName())
			results[i].WeatherData = append(results[i].WeatherData, sp.weather())
		}
		if len(results[i].TrafficLocations) > s.Cfg.MaxLocations {
			results[i].TrafficLocations = results[i].TrafficLocations[:s.Cfg.MaxLocations]
		}
	}
	return results, nil
}

func summarize(i int, rt providers.Route, fuel, factor float64) model.RouteResult {
	pts := make([]model.RoutePoint, len(rt.Points))
	for k, p := range rt.Points {
		pts[k] = model.RoutePoint{Latitude: p.Lat, Longitude: p.Lng}
	}
	return model.RouteResult{
		RouteIndex:   i + 1,
		Distance:     model.FormatDistance(rt.Summary.LengthMeters),
		Duration:     model.FormatDuration(rt.Summary.TravelTimeSec),
		TrafficDelay: model.FormatTrafficDelay(rt.Summary.TrafficDelaySec),
		Emissions:    model.FormatEmissions(model.Emissions(rt.Summary.LengthMeters, fuel, factor)),
		RoutePoints:  pts,
	}
}

// sample is one point along a route with its lookups.
type sample struct {
	at      providers.Point
	name    string
	nameErr error
	desc    string
	descErr error
}

func (s *Service) lookup(ctx context.Context, sp *sample) {
	sp.name, sp.nameErr = s.Geo.ReverseGeocode(ctx, sp.at)
	if sp.nameErr != nil && !errors.Is(sp.nameErr, providers.ErrNoResult) {
		s.Log.Debug("reverse geocode failed", zap.Float64("lat", sp.at.Lat), zap.Float64("lng", sp.at.Lng), zap.Error(sp.nameErr))
	}
	sp.desc, sp.descErr = s.Weather.Current(ctx, sp.at)
	if sp.descErr != nil {
		s.Log.Debug("weather failed", zap.Float64("lat", sp.at.Lat), zap.Float64("lng", sp.at.Lng), zap.Error(sp.descErr))
	}
}

func (sp sample) locationName() string {
	switch {
	case sp.nameErr == nil:
		return sp.name
	case providers.Unnamed(sp.nameErr):
		return UnknownLocation
	default:
		return LocationError
	}
}

// weather reports lookup failures as {"Error", <message>}; a refused weather
// lookup is UnknownWeather at the named place.
func (sp sample) weather() model.WeatherData {
	desc := sp.desc
	switch {
	case errors.Is(sp.descErr, providers.ErrRefused):
		desc = UnknownWeather
	case sp.descErr != nil:
		return model.WeatherData{Location: "Error", Weather: sp.descErr.Error()}
	}
	if sp.nameErr != nil && !providers.Unnamed(sp.nameErr) {
		return model.WeatherData{Location: "Error", Weather: sp.nameErr.Error()}
	}
	loc := sp.name
	if sp.nameErr != nil {
		loc = UnknownLocation
	}
	return model.WeatherData{Location: loc, Weather: desc}
}

func parseVehicle(req model.RouteRequest) (fuel, factor float64, err error) {
	if req.Origin == nil || req.Destination == nil {
		return 0, 0, fmt.Errorf("%w: origin and destination are required", ErrInvalidInput)
	}
	fuel, err = req.FuelEfficiency.Float()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: fuel_efficiency: %v", ErrInvalidInput, err)
	}
	if fuel <= 0 {
		return 0, 0, fmt.Errorf("%w: fuel_efficiency must be > 0", ErrInvalidInput)
	}
	factor, err = req.EmissionFactor.Float()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: emission_factor: %v", ErrInvalidInput, err)
	}
	if factor < 0 {
		return 0, 0, fmt.Errorf("%w: emission_factor must be >= 0", ErrInvalidInput)
	}
	return fuel, factor, nil
}

func (s *Service) record(ctx context.Context, run store.Run) {
	if s.Store == nil {
		return
	}
	// History must outlive a cancelled request.
	if _, err := s.Store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		s.Log.Warn("record run failed", zap.Error(err))
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNoTrafficData):
		return "no_routes"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}
