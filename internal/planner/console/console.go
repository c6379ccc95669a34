// Package console is a terminal host for the route planner: text fields are
// preset values, place autocomplete is backed by a geocoder and overlays are
// printed instead of drawn.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"routeplanner/internal/model"
	"routeplanner/internal/planner"
	"routeplanner/internal/providers"
)

// Page holds the input values and implements planner.Widget,
// planner.Fields and planner.Alerter.
type Page struct {
	Inputs   map[string]string
	Geocoder providers.Geocoder
	Out      io.Writer
	Err      io.Writer
	Log      *zap.Logger

	mu       sync.Mutex
	boxes    []*Autocomplete
	overlays []*Overlay
}

type mapView struct {
	Container string
	Center    model.LatLng
	Zoom      int
}

func (p *Page) CreateMap(container string, center model.LatLng, zoom int) planner.Map {
	p.logger().Debug("map created", zap.String("container", container), zap.Float64("lat", center.Lat), zap.Float64("lng", center.Lng), zap.Int("zoom", zoom))
	return &mapView{Container: container, Center: center, Zoom: zoom}
}

func (p *Page) CreatePathOverlay(_ planner.Map, style planner.PathStyle) planner.PathOverlay {
	o := &Overlay{Style: style, out: p.Out}
	p.mu.Lock()
	p.overlays = append(p.overlays, o)
	p.mu.Unlock()
	return o
}

func (p *Page) BindAutocomplete(input string) planner.Autocomplete {
	a := &Autocomplete{Input: input, query: p.Inputs[input]}
	p.mu.Lock()
	p.boxes = append(p.boxes, a)
	p.mu.Unlock()
	return a
}

func (p *Page) Value(input string) string { return p.Inputs[input] }

func (p *Page) Alert(msg string) {
	if p.Err != nil {
		fmt.Fprintln(p.Err, msg)
	}
}

// Overlays returns the overlays in creation order.
func (p *Page) Overlays() []*Overlay {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Overlay(nil), p.overlays...)
}

// Resolve geocodes every bound input, the terminal equivalent of the user
// picking a suggestion. Inputs that cannot be resolved stay unresolved.
func (p *Page) Resolve(ctx context.Context) {
	p.mu.Lock()
	boxes := append([]*Autocomplete(nil), p.boxes...)
	p.mu.Unlock()
	for _, a := range boxes {
		if a.query == "" || p.Geocoder == nil {
			continue
		}
		place, err := p.Geocoder.Geocode(ctx, a.query)
		if err != nil {
			p.logger().Warn("place not resolved", zap.String("input", a.Input), zap.String("query", a.query), zap.Error(err))
			continue
		}
		a.set(planner.Place{Name: place.Name, Location: model.LatLng{Lat: place.Location.Lat, Lng: place.Location.Lng}})
	}
}

func (p *Page) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

type Autocomplete struct {
	Input string
	query string

	mu    sync.Mutex
	place *planner.Place
}

func (a *Autocomplete) set(pl planner.Place) {
	a.mu.Lock()
	a.place = &pl
	a.mu.Unlock()
}

func (a *Autocomplete) Place() (planner.Place, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.place == nil {
		return planner.Place{}, false
	}
	return *a.place, true
}

// Overlay records its current path and reports updates to out.
type Overlay struct {
	Style planner.PathStyle
	out   io.Writer

	mu   sync.Mutex
	path []model.LatLng
}

func (o *Overlay) SetPath(path []model.LatLng) {
	o.mu.Lock()
	o.path = path
	o.mu.Unlock()
	if o.out != nil && len(path) > 0 {
		fmt.Fprintf(o.out, "[%s] %d points from %.5f,%.5f to %.5f,%.5f\n", o.Style.StrokeColor, len(path),
			path[0].Lat, path[0].Lng, path[len(path)-1].Lat, path[len(path)-1].Lng)
	}
}

func (o *Overlay) Path() []model.LatLng {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.path
}
