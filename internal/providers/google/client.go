// Package google wraps the Google Geocoding API (forward and reverse).
package google

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"routeplanner/internal/providers"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *providers.HTTP
}

func New(baseURL, apiKey string, h *providers.HTTP) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, HTTP: h}
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ReverseGeocode returns the formatted address of the best match.
func (c *Client) ReverseGeocode(ctx context.Context, p providers.Point) (string, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%v,%v", p.Lat, p.Lng))
	q.Set("key", c.APIKey)
	body, err := c.get(ctx, q)
	if err != nil {
		return "", err
	}
	return body.Results[0].FormattedAddress, nil
}

// Geocode resolves a free-text address to its best match.
func (c *Client) Geocode(ctx context.Context, query string) (providers.Place, error) {
	q := url.Values{}
	q.Set("address", query)
	q.Set("key", c.APIKey)
	body, err := c.get(ctx, q)
	if err != nil {
		return providers.Place{}, err
	}
	r := body.Results[0]
	return providers.Place{
		Name:     r.FormattedAddress,
		Location: providers.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
	}, nil
}

// get guarantees at least one result on success. Only ZERO_RESULTS and an
// empty OK are ErrNoResult; every other status is ErrRefused.
func (c *Client) get(ctx context.Context, q url.Values) (geocodeResponse, error) {
	var body geocodeResponse
	if err := c.HTTP.GetJSON(ctx, c.BaseURL+"/maps/api/geocode/json?"+q.Encode(), &body); err != nil {
		return body, err
	}
	switch {
	case body.Status == "OK" && len(body.Results) > 0:
		return body, nil
	case body.Status == "OK", body.Status == "ZERO_RESULTS":
		return body, fmt.Errorf("%w: geocode status %s", providers.ErrNoResult, body.Status)
	default:
		return body, fmt.Errorf("%w: geocode status %s %s", providers.ErrRefused, body.Status, body.ErrorMessage)
	}
}
