package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMemoryRecordListGet(t *testing.T) {
	m := NewMemory(3)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		r, err := m.RecordRun(ctx, Run{RouteCount: i, Distances: []string{fmt.Sprintf("%d km", i)}})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if r.ID == "" || r.CreatedAt.IsZero() {
			t.Fatalf("id/createdAt not set: %+v", r)
		}
		ids = append(ids, r.ID)
	}

	runs, err := m.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("capacity 3, got %d", len(runs))
	}
	if runs[0].RouteCount != 4 || runs[2].RouteCount != 2 {
		t.Fatalf("want newest first, got %d..%d", runs[0].RouteCount, runs[2].RouteCount)
	}

	if got, _ := m.ListRuns(ctx, 1); len(got) != 1 || got[0].ID != ids[4] {
		t.Fatalf("limit 1: %+v", got)
	}
	if r, err := m.GetRun(ctx, ids[3]); err != nil || r.RouteCount != 3 {
		t.Fatalf("get: %+v %v", r, err)
	}
	if _, err := m.GetRun(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("evicted run should be gone, got %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	if clampLimit(0) != defaultLimit || clampLimit(-1) != defaultLimit {
		t.Fatal("non-positive limit should use default")
	}
	if clampLimit(10_000) != maxLimit {
		t.Fatal("limit should be capped")
	}
	if clampLimit(7) != 7 {
		t.Fatal("limit in range should pass through")
	}
}

func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Fatal("empty -> nil expected")
	}
	if nullIfEmpty("x") != "x" {
		t.Fatal("non-empty passthrough expected")
	}
}
