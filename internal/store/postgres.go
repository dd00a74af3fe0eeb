package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"log/slog"
)

// Postgres persists the run log via a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgres connects to postgres and returns a pool wrapper
func NewPostgres(ctx context.Context, url string, log *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, log: log}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

// SaveRun inserts one execution attempt
func (p *Postgres) SaveRun(ctx context.Context, r Run) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO exec_runs (id, room_id, language, version, exit_code, output, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.ID, r.RoomID, r.Language, r.Version, r.ExitCode, r.Output, r.Error, r.Duration.Milliseconds(), r.CreatedAt)
	if err != nil {
		return err
	}
	p.log.Debug("run.saved", "id", r.ID, "language", r.Language)
	return nil
}

// RecentRuns returns the newest runs first
func (p *Postgres) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, room_id, language, version, exit_code, output, error, duration_ms, created_at
		FROM exec_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var durMS int64
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Language, &r.Version, &r.ExitCode, &r.Output, &r.Error, &durMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
