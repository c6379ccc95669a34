// Package tomtom calls the TomTom Routing API for traffic-aware routes.
package tomtom

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"routeplanner/internal/providers"
)

type Client struct {
	BaseURL string
	APIKey  string
	// Alternatives requested in addition to the best route.
	Alternatives int
	HTTP         *providers.HTTP
}

func New(baseURL, apiKey string, alternatives int, h *providers.HTTP) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, Alternatives: alternatives, HTTP: h}
}

type calculateRouteResponse struct {
	Routes []struct {
		Summary struct {
			LengthInMeters        int `json:"lengthInMeters"`
			TravelTimeInSeconds   int `json:"travelTimeInSeconds"`
			TrafficDelayInSeconds int `json:"trafficDelayInSeconds"`
		} `json:"summary"`
		Legs []struct {
			Points []struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"points"`
		} `json:"legs"`
	} `json:"routes"`
}

// Routes returns up to 1+Alternatives routes. A non-2xx answer from TomTom is
// reported as no routes rather than an error; transport failures are errors.
func (c *Client) Routes(ctx context.Context, from, to providers.Point) ([]providers.Route, error) {
	q := url.Values{}
	q.Set("traffic", "true")
	q.Set("key", c.APIKey)
	if c.Alternatives > 0 {
		q.Set("maxAlternatives", fmt.Sprintf("%d", c.Alternatives))
	}
	u := fmt.Sprintf("%s/routing/1/calculateRoute/%s:%s/json?%s", c.BaseURL, latLng(from), latLng(to), q.Encode())

	var body calculateRouteResponse
	if err := c.HTTP.GetJSON(ctx, u, &body); err != nil {
		var se *providers.StatusError
		if errors.As(err, &se) {
			c.HTTP.Log.Info("no routes", zap.Int("status", se.Code))
			return nil, nil
		}
		return nil, err
	}

	out := make([]providers.Route, 0, len(body.Routes))
	for _, r := range body.Routes {
		rt := providers.Route{Summary: providers.RouteSummary{
			LengthMeters:    r.Summary.LengthInMeters,
			TravelTimeSec:   r.Summary.TravelTimeInSeconds,
			TrafficDelaySec: r.Summary.TrafficDelayInSeconds,
		}}
		for _, lg := range r.Legs {
			for _, p := range lg.Points {
				rt.Points = append(rt.Points, providers.Point{Lat: p.Latitude, Lng: p.Longitude})
			}
		}
		out = append(out, rt)
	}
	return out, nil
}

func latLng(p providers.Point) string {
	return fmt.Sprintf("%v,%v", p.Lat, p.Lng)
}
