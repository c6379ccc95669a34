package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a bounded in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu   sync.Mutex
	runs []Run // oldest first
	byID map[string]int
	cap  int
}

// NewMemory keeps at most capacity runs (maxLimit when capacity <= 0).
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = maxLimit
	}
	return &Memory{byID: map[string]int{}, cap: capacity}
}

func (m *Memory) RecordRun(_ context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	if len(m.runs) > m.cap {
		m.runs = append([]Run(nil), m.runs[len(m.runs)-m.cap:]...)
	}
	m.byID = make(map[string]int, len(m.runs))
	for i, r := range m.runs {
		m.byID[r.ID] = i
	}
	return run, nil
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]Run, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Run, 0, min(limit, len(m.runs)))
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *Memory) GetRun(_ context.Context, id string) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return m.runs[i], nil
}

func (m *Memory) Ping(context.Context) error { return nil }
