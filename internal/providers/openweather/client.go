// Package openweather fetches current conditions from OpenWeatherMap.
package openweather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"routeplanner/internal/providers"
)

// Unknown is reported when the provider answers without a description.
const Unknown = "Unknown"

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *providers.HTTP
}

func New(baseURL, apiKey string, h *providers.HTTP) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, HTTP: h}
}

type currentResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Current returns the first weather description, e.g. "scattered clouds". A
// non-2xx answer yields Unknown together with ErrRefused.
func (c *Client) Current(ctx context.Context, p providers.Point) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%v", p.Lat))
	q.Set("lon", fmt.Sprintf("%v", p.Lng))
	q.Set("appid", c.APIKey)
	q.Set("units", "metric")

	var body currentResponse
	if err := c.HTTP.GetJSON(ctx, c.BaseURL+"/data/2.5/weather?"+q.Encode(), &body); err != nil {
		var se *providers.StatusError
		if errors.As(err, &se) {
			return Unknown, fmt.Errorf("%w: %v", providers.ErrRefused, err)
		}
		return "", err
	}
	if len(body.Weather) == 0 || body.Weather[0].Description == "" {
		return Unknown, nil
	}
	return body.Weather[0].Description, nil
}
