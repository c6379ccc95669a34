package planner

import (
	"context"

	"routeplanner/internal/model"
)

// Map is an opaque map view handle owned by the Widget.
type Map any

type PathStyle struct {
	StrokeColor  string
	StrokeWeight int
}

// PathOverlay is a polyline drawn on a map.
type PathOverlay interface {
	SetPath(path []model.LatLng)
}

// Place is a resolved autocomplete selection.
type Place struct {
	Name     string
	Location model.LatLng
}

// Autocomplete is bound to a text input; Place reports false while the user
// has not picked a suggestion.
type Autocomplete interface {
	Place() (Place, bool)
}

// Widget is the host mapping capability.
type Widget interface {
	CreateMap(container string, center model.LatLng, zoom int) Map
	CreatePathOverlay(m Map, style PathStyle) PathOverlay
	BindAutocomplete(input string) Autocomplete
}

// Fields reads raw values of plain form inputs.
type Fields interface {
	Value(input string) string
}

// Results is the container summary blocks are appended to.
type Results interface {
	Clear()
	Append(s Summary)
}

type Alerter interface {
	Alert(msg string)
}

// Transport sends one optimisation request. Errors are transport failures
// (network, non-JSON body); server-reported errors come back in the response.
type Transport interface {
	Optimize(ctx context.Context, endpoint string, req model.RouteRequest) (model.OptimizeResponse, error)
}

// Summary is the textual block rendered for one route.
type Summary struct {
	Index            int
	Distance         string
	Duration         string
	TrafficDelay     string
	Emissions        string
	TrafficLocations []string
	Weather          []model.WeatherData
}

func summaryOf(i int, r model.RouteResult) Summary {
	return Summary{
		Index:            i + 1,
		Distance:         r.Distance,
		Duration:         r.Duration,
		TrafficDelay:     r.TrafficDelay,
		Emissions:        r.Emissions,
		TrafficLocations: r.TrafficLocations,
		Weather:          r.WeatherData,
	}
}
