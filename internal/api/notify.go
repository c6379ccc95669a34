package api

import (
	"context"

	"routeplanner/internal/webhooks"
)

// StartWebhooks forwards run events to WEBHOOK_URL until ctx is done. It is
// a no-op when no URL is configured.
func (s *Server) StartWebhooks(ctx context.Context) {
	if s.Cfg.WebhookURL == "" {
		return
	}
	n := webhooks.NewNotifier(s.Cfg.WebhookURL, s.Cfg.WebhookSecret, s.Cfg.WebhookMaxAttempts, s.Log)
	sub := s.Broker.Subscribe(RunsTopic)
	events := make(chan webhooks.Event, 8)

	go func() {
		defer close(events)
		defer s.Broker.Unsubscribe(RunsTopic, sub)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-sub:
				if !ok {
					return
				}
				select {
				case events <- webhooks.Event{Type: evt.Type, Data: evt.Data}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	go n.Run(ctx, events)
}
