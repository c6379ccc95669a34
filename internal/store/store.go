package store

import (
	"context"
	"errors"
	"time"

	"routeplanner/internal/model"
)

// Run records one /optimize call.
type Run struct {
	ID             string       `json:"id"`
	CreatedAt      time.Time    `json:"createdAt"`
	Origin         model.LatLng `json:"origin"`
	Destination    model.LatLng `json:"destination"`
	FuelEfficiency float64      `json:"fuelEfficiency"`
	EmissionFactor float64      `json:"emissionFactor"`
	RouteCount     int          `json:"routeCount"`
	Distances      []string     `json:"distances,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// Store is the persistence interface for optimisation history.
type Store interface {
	RecordRun(ctx context.Context, run Run) (Run, error)
	// ListRuns returns the newest runs first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

const (
	defaultLimit = 50
	maxLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
