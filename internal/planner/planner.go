// Package planner is the Route Planner front end: it collects an origin and a
// destination from autocomplete inputs plus two vehicle parameters, submits
// them to the /optimize endpoint and draws up to three returned routes as map
// overlays with a textual summary for each.
//
// The mapping widget, the page and the network are injected so the same
// logic drives the browser page's behaviour contract, the terminal client and
// tests.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"routeplanner/internal/model"
)

const (
	DefaultZoom = 7

	MsgInvalidPlaces = "Please select valid origin and destination."
)

// DefaultCenter is the initial map center (Chennai).
var DefaultCenter = model.LatLng{Lat: 13.0827, Lng: 80.2707}

// OverlayStyles are the per-route stroke styles, in route order.
var OverlayStyles = [...]PathStyle{
	{StrokeColor: "#FF0000", StrokeWeight: 4},
	{StrokeColor: "#00FF00", StrokeWeight: 4},
	{StrokeColor: "#0000FF", StrokeWeight: 4},
}

// MaxRoutes is the number of routes that can be drawn at once.
const MaxRoutes = len(OverlayStyles)

// Form names the page inputs.
type Form struct {
	Origin         string
	Destination    string
	FuelEfficiency string
	EmissionFactor string
}

// DefaultForm matches the element ids of the bundled page.
func DefaultForm() Form {
	return Form{
		Origin:         "origin-input",
		Destination:    "destination-input",
		FuelEfficiency: "fuel-efficiency",
		EmissionFactor: "emission-factor",
	}
}

type Deps struct {
	Widget    Widget
	Container string
	Form      Form
	Fields    Fields
	Results   Results
	Alerter   Alerter
	Transport Transport
	Endpoint  string
	Log       *zap.Logger
}

var (
	ErrUnresolvedPlace = errors.New("origin or destination not selected")
	// ErrSuperseded is returned by a Submit whose response arrived after a
	// newer submission started; nothing is rendered for it.
	ErrSuperseded = errors.New("submission superseded")
)

// ServerError is an error reported by the /optimize endpoint.
type ServerError struct{ Msg string }

func (e *ServerError) Error() string { return e.Msg }

type Planner struct {
	deps        Deps
	log         *zap.Logger
	mapView     Map
	overlays    [MaxRoutes]PathOverlay
	origin      Autocomplete
	destination Autocomplete

	mu       sync.Mutex
	gen      uint64
	inflight context.CancelFunc
}

// Init builds the map, the route overlays and the autocomplete bindings.
func Init(d Deps) (*Planner, error) {
	switch {
	case d.Widget == nil:
		return nil, fmt.Errorf("planner: widget is required")
	case d.Fields == nil || d.Results == nil || d.Alerter == nil:
		return nil, fmt.Errorf("planner: fields, results and alerter are required")
	case d.Transport == nil:
		return nil, fmt.Errorf("planner: transport is required")
	case d.Endpoint == "":
		return nil, fmt.Errorf("planner: endpoint is required")
	}
	if d.Form == (Form{}) {
		d.Form = DefaultForm()
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	p := &Planner{deps: d, log: d.Log.Named("planner")}
	p.mapView = d.Widget.CreateMap(d.Container, DefaultCenter, DefaultZoom)
	for i, st := range OverlayStyles {
		p.overlays[i] = d.Widget.CreatePathOverlay(p.mapView, st)
	}
	p.origin = d.Widget.BindAutocomplete(d.Form.Origin)
	p.destination = d.Widget.BindAutocomplete(d.Form.Destination)
	return p, nil
}

// Map returns the map view created by Init.
func (p *Planner) Map() Map { return p.mapView }

// Submit handles one form submission. A newer Submit cancels an older one
// still waiting for its response; the older call then returns ErrSuperseded.
func (p *Planner) Submit(ctx context.Context) error {
	from, okFrom := p.origin.Place()
	to, okTo := p.destination.Place()
	if !okFrom || !okTo {
		p.deps.Alerter.Alert(MsgInvalidPlaces)
		return ErrUnresolvedPlace
	}

	req := model.RouteRequest{
		Origin:         &model.LatLng{Lat: from.Location.Lat, Lng: from.Location.Lng},
		Destination:    &model.LatLng{Lat: to.Location.Lat, Lng: to.Location.Lng},
		FuelEfficiency: model.Numeric(p.deps.Fields.Value(p.deps.Form.FuelEfficiency)),
		EmissionFactor: model.Numeric(p.deps.Fields.Value(p.deps.Form.EmissionFactor)),
	}

	ctx, gen := p.begin(ctx)
	resp, err := p.deps.Transport.Optimize(ctx, p.deps.Endpoint, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return ErrSuperseded
	}
	p.inflight()
	p.inflight = nil
	if err != nil {
		p.log.Error("optimize request failed", zap.String("endpoint", p.deps.Endpoint), zap.Error(err))
		return err
	}
	if resp.Error != "" {
		p.deps.Alerter.Alert("Error: " + resp.Error)
		return &ServerError{Msg: resp.Error}
	}
	p.render(resp.Routes)
	return nil
}

// begin registers a new submission and cancels the previous one.
func (p *Planner) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight != nil {
		p.inflight()
	}
	p.gen++
	p.inflight = cancel
	return ctx, p.gen
}

// render must be called with p.mu held.
func (p *Planner) render(routes []model.RouteResult) {
	p.deps.Results.Clear()
	for i, r := range routes {
		if i >= MaxRoutes {
			break
		}
		path := make([]model.LatLng, len(r.RoutePoints))
		for k, pt := range r.RoutePoints {
			path[k] = model.LatLng{Lat: pt.Latitude, Lng: pt.Longitude}
		}
		p.overlays[i].SetPath(path)
		p.deps.Results.Append(summaryOf(i, r))
	}
	if len(routes) > MaxRoutes {
		p.log.Debug("dropping extra routes", zap.Int("received", len(routes)))
	}
}
