// Package providers defines the upstream capabilities the optimiser relies on
// (routing with traffic, reverse geocoding, weather) and the HTTP plumbing the
// concrete clients share.
package providers

import (
	"context"
	"errors"
)

type Point struct {
	Lat float64
	Lng float64
}

type RouteSummary struct {
	LengthMeters    int
	TravelTimeSec   int
	TrafficDelaySec int
}

// Route is one routing alternative; Points are flattened across legs.
type Route struct {
	Summary RouteSummary
	Points  []Point
}

type Place struct {
	Name     string
	Location Point
}

// Router returns traffic-aware routes between two points, best first.
type Router interface {
	Routes(ctx context.Context, from, to Point) ([]Route, error)
}

// ReverseGeocoder names a coordinate. ErrNoResult when the provider has none,
// ErrRefused when it declined to answer (quota, key, provider fault).
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, p Point) (string, error)
}

// Geocoder resolves free text to a place.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Place, error)
}

// Weather describes current conditions at a coordinate.
type Weather interface {
	Current(ctx context.Context, p Point) (string, error)
}

var (
	ErrNoResult = errors.New("no result")
	ErrRefused  = errors.New("request refused")
)

// Unnamed reports whether err leaves a point without a name rather than
// failing the lookup outright.
func Unnamed(err error) bool {
	return errors.Is(err, ErrNoResult) || errors.Is(err, ErrRefused)
}
