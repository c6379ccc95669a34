package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"routeplanner/internal/providers"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "gk", providers.NewHTTP("google", time.Second, 0, nil))
}

func TestReverseGeocode(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/maps/api/geocode/json" || r.URL.Query().Get("latlng") != "13.05,80.25" || r.URL.Query().Get("key") != "gk" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Chennai, Tamil Nadu, India"},{"formatted_address":"India"}]}`))
	})
	name, err := c.ReverseGeocode(context.Background(), providers.Point{Lat: 13.05, Lng: 80.25})
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if name != "Chennai, Tamil Nadu, India" {
		t.Fatalf("got %q", name)
	}
}

func TestReverseGeocodeStatuses(t *testing.T) {
	cases := []struct {
		body string
		want error
	}{
		{`{"status":"ZERO_RESULTS","results":[]}`, providers.ErrNoResult},
		{`{"status":"OK","results":[]}`, providers.ErrNoResult},
		{`{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`, providers.ErrRefused},
		{`{"status":"OVER_QUERY_LIMIT","results":[]}`, providers.ErrRefused},
		{`{"status":"UNKNOWN_ERROR","results":[]}`, providers.ErrRefused},
	}
	for _, tc := range cases {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(tc.body)) })
		_, err := c.ReverseGeocode(context.Background(), providers.Point{})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.body, tc.want, err)
		}
		if !providers.Unnamed(err) {
			t.Fatalf("%s: should leave the point unnamed", tc.body)
		}
	}
}

func TestReverseGeocodeHTTPError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	_, err := c.ReverseGeocode(context.Background(), providers.Point{})
	var se *providers.StatusError
	if !errors.As(err, &se) || se.Code != 500 {
		t.Fatalf("want StatusError 500, got %v", err)
	}
}

func TestGeocode(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") != "Marina Beach, Chennai" {
			t.Errorf("address: %q", r.URL.Query().Get("address"))
		}
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"Marina Beach","geometry":{"location":{"lat":13.05,"lng":80.28}}}]}`))
	})
	p, err := c.Geocode(context.Background(), "Marina Beach, Chennai")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if p.Name != "Marina Beach" || p.Location != (providers.Point{Lat: 13.05, Lng: 80.28}) {
		t.Fatalf("got %+v", p)
	}
}
