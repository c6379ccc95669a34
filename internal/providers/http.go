package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"routeplanner/internal/buildinfo"
	"routeplanner/internal/metrics"
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.Code, e.Body)
}

// HTTP issues rate-limited GETs against one provider and decodes JSON.
type HTTP struct {
	Name    string
	Client  *http.Client
	Limiter *rate.Limiter
	Log     *zap.Logger
}

// NewHTTP builds an HTTP helper. rps <= 0 disables limiting.
func NewHTTP(name string, timeout time.Duration, rps float64, log *zap.Logger) *HTTP {
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{
		Name:    name,
		Client:  &http.Client{Timeout: timeout},
		Limiter: lim,
		Log:     log.Named(name),
	}
}

// GetJSON fetches url and decodes the body into v.
func (h *HTTP) GetJSON(ctx context.Context, url string, v any) error {
	if err := h.Limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	start := time.Now()
	resp, err := h.Client.Do(req)
	metrics.UpstreamLatency.WithLabelValues(h.Name).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(h.Name, "error").Inc()
		h.Log.Warn("request failed", zap.Error(err))
		return fmt.Errorf("%s: %w", h.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.UpstreamRequests.WithLabelValues(h.Name, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		h.Log.Warn("upstream error", zap.Int("status", resp.StatusCode))
		return &StatusError{Provider: h.Name, Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode: %w", h.Name, err)
	}
	return nil
}
