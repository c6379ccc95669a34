package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Wire types for POST /optimize.

type LatLng struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Numeric is a form value sent either as a JSON string or a JSON number.
// The raw text is kept so the request body echoes what the user typed.
type Numeric string

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*n = Numeric(num.String())
	return nil
}

func (n Numeric) MarshalJSON() ([]byte, error) { return json.Marshal(string(n)) }

// Float parses the value, tolerating surrounding whitespace.
func (n Numeric) Float() (float64, error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

type RouteRequest struct {
	Origin         *LatLng `json:"origin" validate:"required"`
	Destination    *LatLng `json:"destination" validate:"required"`
	FuelEfficiency Numeric `json:"fuel_efficiency" validate:"required,float"`
	EmissionFactor Numeric `json:"emission_factor" validate:"required,float"`
}

type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type WeatherData struct {
	Location string `json:"location"`
	Weather  string `json:"weather"`
}

// RouteResult describes one candidate route. Metric fields are preformatted
// for display.
type RouteResult struct {
	RouteIndex       int           `json:"route_index"`
	Distance         string        `json:"distance"`
	Duration         string        `json:"duration"`
	TrafficDelay     string        `json:"traffic_delay"`
	Emissions        string        `json:"emissions"`
	TrafficLocations []string      `json:"traffic_locations"`
	WeatherData      []WeatherData `json:"weather_data"`
	RoutePoints      []RoutePoint  `json:"route_points"`
}

// OptimizeResponse carries either Routes or Error.
type OptimizeResponse struct {
	Routes []RouteResult `json:"routes,omitempty"`
	Error  string        `json:"error,omitempty"`
}
