package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"routeplanner/internal/model"
)

type fakeOverlay struct {
	style PathStyle
	sets  int
	path  []model.LatLng
}

func (o *fakeOverlay) SetPath(p []model.LatLng) { o.sets++; o.path = p }

type fakeAuto struct {
	place *Place
}

func (a *fakeAuto) Place() (Place, bool) {
	if a.place == nil {
		return Place{}, false
	}
	return *a.place, true
}

type fakeWidget struct {
	container string
	center    model.LatLng
	zoom      int
	overlays  []*fakeOverlay
	autos     map[string]*fakeAuto
}

func (w *fakeWidget) CreateMap(container string, center model.LatLng, zoom int) Map {
	w.container, w.center, w.zoom = container, center, zoom
	return "map"
}

func (w *fakeWidget) CreatePathOverlay(m Map, style PathStyle) PathOverlay {
	o := &fakeOverlay{style: style}
	w.overlays = append(w.overlays, o)
	return o
}

func (w *fakeWidget) BindAutocomplete(input string) Autocomplete {
	if w.autos == nil {
		w.autos = map[string]*fakeAuto{}
	}
	a := &fakeAuto{}
	w.autos[input] = a
	return a
}

type fakeFields map[string]string

func (f fakeFields) Value(input string) string { return f[input] }

type fakeResults struct {
	clears int
	blocks []Summary
}

func (r *fakeResults) Clear()           { r.clears++; r.blocks = nil }
func (r *fakeResults) Append(s Summary) { r.blocks = append(r.blocks, s) }

type fakeAlerter struct{ msgs []string }

func (a *fakeAlerter) Alert(msg string) { a.msgs = append(a.msgs, msg) }

type fakeTransport struct {
	mu    sync.Mutex
	calls []model.RouteRequest
	resp  model.OptimizeResponse
	err   error
}

func (t *fakeTransport) Optimize(_ context.Context, _ string, req model.RouteRequest) (model.OptimizeResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, req)
	return t.resp, t.err
}

type rig struct {
	p       *Planner
	widget  *fakeWidget
	results *fakeResults
	alerts  *fakeAlerter
	tr      *fakeTransport
}

func newRig(t *testing.T, tr Transport) *rig {
	t.Helper()
	r := &rig{widget: &fakeWidget{}, results: &fakeResults{}, alerts: &fakeAlerter{}}
	if ft, ok := tr.(*fakeTransport); ok {
		r.tr = ft
	}
	p, err := Init(Deps{
		Widget:    r.widget,
		Container: "map",
		Fields:    fakeFields{"fuel-efficiency": "15", "emission-factor": "2.3"},
		Results:   r.results,
		Alerter:   r.alerts,
		Transport: tr,
		Endpoint:  "/optimize",
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	r.p = p
	return r
}

func (r *rig) selectPlaces() {
	r.widget.autos["origin-input"].place = &Place{Name: "A", Location: model.LatLng{Lat: 13.05, Lng: 80.25}}
	r.widget.autos["destination-input"].place = &Place{Name: "B", Location: model.LatLng{Lat: 13.10, Lng: 80.30}}
}

func routes(n int) []model.RouteResult {
	out := make([]model.RouteResult, n)
	for i := range out {
		out[i] = model.RouteResult{
			RouteIndex:       i + 1,
			Distance:         fmt.Sprintf("%d.00 km", i+1),
			Duration:         "0 hours 10 mins",
			TrafficDelay:     "No delay",
			Emissions:        "1.00 kg CO2",
			TrafficLocations: []string{fmt.Sprintf("loc%d", i)},
			WeatherData:      []model.WeatherData{{Location: fmt.Sprintf("loc%d", i), Weather: "clear"}},
			RoutePoints:      []model.RoutePoint{{Latitude: float64(i), Longitude: 1}, {Latitude: float64(i), Longitude: 2}},
		}
	}
	return out
}

func TestInitBuildsMapOverlaysAndBindings(t *testing.T) {
	r := newRig(t, &fakeTransport{})
	if r.widget.container != "map" || r.widget.center != DefaultCenter || r.widget.zoom != DefaultZoom {
		t.Fatalf("map: %+v", r.widget)
	}
	if len(r.widget.overlays) != 3 {
		t.Fatalf("want 3 overlays, got %d", len(r.widget.overlays))
	}
	for i, o := range r.widget.overlays {
		if o.style != OverlayStyles[i] || o.sets != 0 {
			t.Fatalf("overlay %d: %+v", i, o)
		}
	}
	if _, ok := r.widget.autos["origin-input"]; !ok {
		t.Fatal("origin autocomplete not bound")
	}
	if _, ok := r.widget.autos["destination-input"]; !ok {
		t.Fatal("destination autocomplete not bound")
	}
	if r.p.Map() != "map" {
		t.Fatal("map handle not kept")
	}
}

func TestInitRequiresDeps(t *testing.T) {
	if _, err := Init(Deps{}); err == nil {
		t.Fatal("expected error without widget")
	}
	if _, err := Init(Deps{Widget: &fakeWidget{}, Fields: fakeFields{}, Results: &fakeResults{}, Alerter: &fakeAlerter{}, Transport: &fakeTransport{}}); err == nil {
		t.Fatal("expected error without endpoint")
	}
}

func TestSubmitUnresolvedPlaceNeverSends(t *testing.T) {
	r := newRig(t, &fakeTransport{})
	for _, setup := range []func(){
		func() {},
		func() { r.widget.autos["origin-input"].place = &Place{} },
		func() {
			r.widget.autos["origin-input"].place = nil
			r.widget.autos["destination-input"].place = &Place{}
		},
	} {
		setup()
		if err := r.p.Submit(context.Background()); !errors.Is(err, ErrUnresolvedPlace) {
			t.Fatalf("want ErrUnresolvedPlace, got %v", err)
		}
	}
	if len(r.tr.calls) != 0 {
		t.Fatalf("no request expected, got %d", len(r.tr.calls))
	}
	if len(r.alerts.msgs) != 3 || r.alerts.msgs[0] != MsgInvalidPlaces {
		t.Fatalf("alerts: %v", r.alerts.msgs)
	}
}

func TestSubmitRendersRoutesInOrder(t *testing.T) {
	for n := 1; n <= 3; n++ {
		tr := &fakeTransport{resp: model.OptimizeResponse{Routes: routes(n)}}
		r := newRig(t, tr)
		r.selectPlaces()
		if err := r.p.Submit(context.Background()); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(r.results.blocks) != n || r.results.clears != 1 {
			t.Fatalf("n=%d: blocks=%d clears=%d", n, len(r.results.blocks), r.results.clears)
		}
		for i, b := range r.results.blocks {
			if b.Index != i+1 || b.Distance != fmt.Sprintf("%d.00 km", i+1) || b.TrafficLocations[0] != fmt.Sprintf("loc%d", i) {
				t.Fatalf("n=%d block %d: %+v", n, i, b)
			}
		}
		for i, o := range r.widget.overlays {
			if i < n {
				if o.sets != 1 || len(o.path) != 2 || o.path[0] != (model.LatLng{Lat: float64(i), Lng: 1}) {
					t.Fatalf("n=%d overlay %d: %+v", n, i, o)
				}
			} else if o.sets != 0 {
				t.Fatalf("n=%d overlay %d should be untouched", n, i)
			}
		}
		if len(r.alerts.msgs) != 0 {
			t.Fatalf("unexpected alerts: %v", r.alerts.msgs)
		}
	}
}

func TestSubmitDropsRoutesBeyondThird(t *testing.T) {
	r := newRig(t, &fakeTransport{resp: model.OptimizeResponse{Routes: routes(5)}})
	r.selectPlaces()
	if err := r.p.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(r.results.blocks) != 3 || r.results.blocks[2].Index != 3 {
		t.Fatalf("blocks: %+v", r.results.blocks)
	}
	for i, o := range r.widget.overlays {
		if o.sets != 1 || o.path[0].Lat != float64(i) {
			t.Fatalf("overlay %d: %+v", i, o)
		}
	}
}

func TestSubmitFewerRoutesKeepsPreviousPaths(t *testing.T) {
	tr := &fakeTransport{resp: model.OptimizeResponse{Routes: routes(3)}}
	r := newRig(t, tr)
	r.selectPlaces()
	if err := r.p.Submit(context.Background()); err != nil {
		t.Fatalf("first: %v", err)
	}
	third := r.widget.overlays[2].path

	tr.resp = model.OptimizeResponse{Routes: routes(1)}
	if err := r.p.Submit(context.Background()); err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(r.results.blocks) != 1 {
		t.Fatalf("results should be replaced, got %d blocks", len(r.results.blocks))
	}
	if r.widget.overlays[0].sets != 2 || r.widget.overlays[2].sets != 1 {
		t.Fatalf("overlay sets: %d %d", r.widget.overlays[0].sets, r.widget.overlays[2].sets)
	}
	if &r.widget.overlays[2].path[0] != &third[0] {
		t.Fatal("third overlay should keep its previous path")
	}
}

func TestSubmitServerErrorLeavesStateUntouched(t *testing.T) {
	tr := &fakeTransport{resp: model.OptimizeResponse{Routes: routes(2)}}
	r := newRig(t, tr)
	r.selectPlaces()
	if err := r.p.Submit(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tr.resp = model.OptimizeResponse{Error: "No traffic data available"}
	err := r.p.Submit(context.Background())
	var se *ServerError
	if !errors.As(err, &se) || se.Msg != "No traffic data available" {
		t.Fatalf("want ServerError, got %v", err)
	}
	if len(r.alerts.msgs) != 1 || r.alerts.msgs[0] != "Error: No traffic data available" {
		t.Fatalf("alerts: %v", r.alerts.msgs)
	}
	if r.results.clears != 1 || len(r.results.blocks) != 2 {
		t.Fatalf("results must be untouched: clears=%d blocks=%d", r.results.clears, len(r.results.blocks))
	}
	for i, o := range r.widget.overlays {
		want := 0
		if i < 2 {
			want = 1
		}
		if o.sets != want {
			t.Fatalf("overlay %d modified: %d sets", i, o.sets)
		}
	}
}

func TestSubmitTransportFailureIsSilent(t *testing.T) {
	tr := &fakeTransport{err: errors.New("connection refused")}
	r := newRig(t, tr)
	r.selectPlaces()
	if err := r.p.Submit(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	if len(r.alerts.msgs) != 0 {
		t.Fatalf("transport failures must not alert: %v", r.alerts.msgs)
	}
	if r.results.clears != 0 {
		t.Fatal("results must not be cleared")
	}
}

func TestSubmitRequestMatchesSelection(t *testing.T) {
	var got []byte
	var ctype string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, _ = io.ReadAll(req.Body)
		ctype = req.Header.Get("Content-Type")
		if req.Method != http.MethodPost {
			t.Errorf("method %s", req.Method)
		}
		_, _ = w.Write([]byte(`{"routes":[]}`))
	}))
	defer srv.Close()

	r := newRig(t, NewHTTPTransport(time.Second))
	r.p.deps.Endpoint = srv.URL + "/optimize"
	r.selectPlaces()
	if err := r.p.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ctype != "application/json" {
		t.Fatalf("content type %q", ctype)
	}
	var body map[string]any
	if err := json.Unmarshal(got, &body); err != nil {
		t.Fatalf("body not JSON: %s", got)
	}
	want := map[string]any{
		"origin":          map[string]any{"lat": 13.05, "lng": 80.25},
		"destination":     map[string]any{"lat": 13.10, "lng": 80.30},
		"fuel_efficiency": "15",
		"emission_factor": "2.3",
	}
	wb, _ := json.Marshal(want)
	gb, _ := json.Marshal(body)
	if !bytes.Equal(wb, gb) {
		t.Fatalf("request body\n got %s\nwant %s", gb, wb)
	}
	if r.results.clears != 1 || len(r.results.blocks) != 0 {
		t.Fatal("empty route list should clear results")
	}
}

// blockingTransport holds the first call until its context is cancelled.
type blockingTransport struct {
	started chan struct{}
	calls   int
	mu      sync.Mutex
}

func (b *blockingTransport) Optimize(ctx context.Context, _ string, _ model.RouteRequest) (model.OptimizeResponse, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()
	if n == 1 {
		close(b.started)
		<-ctx.Done()
		return model.OptimizeResponse{Routes: routes(3)}, nil
	}
	return model.OptimizeResponse{Routes: routes(1)}, nil
}

func TestResubmitSupersedesInflight(t *testing.T) {
	bt := &blockingTransport{started: make(chan struct{})}
	r := newRig(t, bt)
	r.selectPlaces()

	first := make(chan error, 1)
	go func() { first <- r.p.Submit(context.Background()) }()
	<-bt.started

	if err := r.p.Submit(context.Background()); err != nil {
		t.Fatalf("second: %v", err)
	}
	select {
	case err := <-first:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("first: want ErrSuperseded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first submission was not cancelled")
	}
	if len(r.results.blocks) != 1 || r.results.clears != 1 {
		t.Fatalf("only the newest response may render: blocks=%d clears=%d", len(r.results.blocks), r.results.clears)
	}
	if r.widget.overlays[1].sets != 0 {
		t.Fatal("stale response touched overlays")
	}
}

func TestHTTPTransportStatusAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/html") {
			_, _ = w.Write([]byte("<html>oops</html>"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream failure"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(time.Second)
	resp, err := tr.Optimize(context.Background(), srv.URL+"/optimize", model.RouteRequest{})
	if err != nil || resp.Error != "upstream failure" {
		t.Fatalf("json error body: %+v %v", resp, err)
	}
	if _, err := tr.Optimize(context.Background(), srv.URL+"/html", model.RouteRequest{}); err == nil {
		t.Fatal("non-JSON body should be a transport error")
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	res := &TextResults{W: &buf}
	res.Append(summaryOf(0, routes(1)[0]))
	out := buf.String()
	for _, want := range []string{"Route 1", "Distance:      1.00 km", "Traffic Delay: No delay", "    - loc0\n", "    - loc0: clear"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if len(res.Blocks()) != 1 {
		t.Fatal("block not kept")
	}
	res.Clear()
	if len(res.Blocks()) != 0 {
		t.Fatal("clear did not drop blocks")
	}
}
