package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"routeplanner/internal/providers"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/data/2.5/weather" || q.Get("lat") != "13.05" || q.Get("lon") != "80.25" || q.Get("units") != "metric" || q.Get("appid") != "wk" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"weather":[{"main":"Clouds","description":"scattered clouds"}],"main":{"temp":31.2}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "wk", providers.NewHTTP("openweather", time.Second, 0, nil))
	desc, err := c.Current(context.Background(), providers.Point{Lat: 13.05, Lng: 80.25})
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if desc != "scattered clouds" {
		t.Fatalf("got %q", desc)
	}
}

func TestCurrentMissingDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"main":{"temp":20}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "wk", providers.NewHTTP("openweather", time.Second, 0, nil))
	desc, err := c.Current(context.Background(), providers.Point{})
	if err != nil || desc != Unknown {
		t.Fatalf("got %q %v", desc, err)
	}
}

func TestCurrentUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "bad", providers.NewHTTP("openweather", time.Second, 0, nil))
	desc, err := c.Current(context.Background(), providers.Point{})
	if !errors.Is(err, providers.ErrRefused) || desc != Unknown {
		t.Fatalf("got %q %v", desc, err)
	}
}

func TestCurrentTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, "wk", providers.NewHTTP("openweather", time.Second, 0, nil))
	_, err := c.Current(context.Background(), providers.Point{})
	if err == nil || errors.Is(err, providers.ErrRefused) {
		t.Fatalf("want plain transport error, got %v", err)
	}
}
