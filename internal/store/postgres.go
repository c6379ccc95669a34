package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// MigrateDir executes every *.sql file in dir in lexical order. Migrations
// must be idempotent (CREATE ... IF NOT EXISTS).
func (p *Postgres) MigrateDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if _, err := p.db.Exec(string(b)); err != nil {
			return fmt.Errorf("migrate %s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

func (p *Postgres) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	dist, err := json.Marshal(run.Distances)
	if err != nil {
		return Run{}, err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO optimize_runs
        (id, created_at, origin_lat, origin_lng, dest_lat, dest_lng, fuel_efficiency, emission_factor, route_count, distances, error)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		run.ID, run.CreatedAt, run.Origin.Lat, run.Origin.Lng, run.Destination.Lat, run.Destination.Lng,
		run.FuelEfficiency, run.EmissionFactor, run.RouteCount, dist, nullIfEmpty(run.Error))
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

const runColumns = `id::text, created_at, origin_lat, origin_lng, dest_lat, dest_lng, fuel_efficiency, emission_factor, route_count, distances, error`

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+runColumns+` FROM optimize_runs ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) GetRun(ctx context.Context, id string) (Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Run{}, ErrNotFound
	}
	r, err := scanRun(p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM optimize_runs WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

type scanner interface{ Scan(dest ...any) error }

func scanRun(s scanner) (Run, error) {
	var r Run
	var dist []byte
	var errText sql.NullString
	if err := s.Scan(&r.ID, &r.CreatedAt, &r.Origin.Lat, &r.Origin.Lng, &r.Destination.Lat, &r.Destination.Lng,
		&r.FuelEfficiency, &r.EmissionFactor, &r.RouteCount, &dist, &errText); err != nil {
		return Run{}, err
	}
	if len(dist) > 0 {
		if err := json.Unmarshal(dist, &r.Distances); err != nil {
			return Run{}, err
		}
	}
	r.Error = errText.String
	return r, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
