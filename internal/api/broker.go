package api

import (
	"context"
	"sync"

	"routeplanner/internal/store"
)

// RunsTopic carries one event per recorded optimisation run.
const RunsTopic = "runs"

type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type EventBroker interface {
	Subscribe(topic string) chan SSEEvent
	Unsubscribe(topic string, ch chan SSEEvent)
	Publish(topic string, evt SSEEvent)
}

// Broker fans events out to in-process subscribers. Slow subscribers miss
// events rather than block publishers.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SSEEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SSEEvent]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan SSEEvent {
	ch := make(chan SSEEvent, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan SSEEvent]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[topic]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, topic)
	}
	close(ch)
}

func (b *Broker) Publish(topic string, evt SSEEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// publishingStore announces every recorded run on RunsTopic.
type publishingStore struct {
	store.Store
	Broker EventBroker
}

func (p *publishingStore) RecordRun(ctx context.Context, run store.Run) (store.Run, error) {
	saved, err := p.Store.RecordRun(ctx, run)
	if err != nil {
		return saved, err
	}
	if p.Broker != nil {
		p.Broker.Publish(RunsTopic, runEvent(saved))
	}
	return saved, nil
}

func runEvent(r store.Run) SSEEvent {
	data := map[string]any{
		"id":          r.ID,
		"createdAt":   r.CreatedAt,
		"origin":      r.Origin,
		"destination": r.Destination,
		"routeCount":  r.RouteCount,
	}
	if r.Error != "" {
		data["error"] = r.Error
	}
	return SSEEvent{Type: "run.recorded", Data: data}
}
