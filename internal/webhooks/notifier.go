// Package webhooks delivers run notifications to an operator-configured URL
// as signed JSON POSTs, retrying with exponential backoff.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"routeplanner/internal/buildinfo"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type Notifier struct {
	URL         string
	Secret      string
	HTTP        *http.Client
	MaxAttempts int
	Log         *zap.Logger

	// backoff is swapped in tests
	backoff func(attempt int) time.Duration
}

func NewNotifier(url, secret string, maxAttempts int, log *zap.Logger) *Notifier {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		URL:         url,
		Secret:      secret,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: maxAttempts,
		Log:         log.Named("webhooks"),
		backoff:     nextBackoff,
	}
}

// Run delivers events until ctx is done or events is closed.
func (n *Notifier) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := n.Deliver(ctx, evt); err != nil {
				n.Log.Warn("webhook delivery failed", zap.String("type", evt.Type), zap.Error(err))
			}
		}
	}
}

// Deliver posts evt, retrying non-2xx answers and transport errors up to
// MaxAttempts times.
func (n *Notifier) Deliver(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	var lastErr error
	for attempt := 0; attempt < n.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.backoff(attempt - 1)):
			}
		}
		start := time.Now()
		code, err := n.post(ctx, evt.Type, body)
		n.Log.Debug("webhook attempt",
			zap.String("type", evt.Type),
			zap.Int("attempt", attempt+1),
			zap.Int("status", code),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("gave up after %d attempts: %w", n.MaxAttempts, lastErr)
}

func (n *Notifier) post(ctx context.Context, eventType string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set(EventTypeHeader, eventType)
	if n.Secret != "" {
		req.Header.Set(SignatureHeader, SignHMAC(n.Secret, body))
	}
	resp, err := n.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Minute {
		base = time.Minute
	}
	return base
}
