package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// Postgres stores one row per map with the marker list and options as JSONB.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL, verifies the connection and creates
// the schema when missing.
func OpenPostgres(ctx context.Context, databaseURL string, maxConns, minConns int32) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres: database url is required")
	}
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}
	if minConns > 0 {
		poolCfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := NewPostgres(pool)
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return p, nil
}

// NewPostgres wraps an existing pool. The schema must already exist.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// EnsureSchema creates the maps table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS maps (
            id TEXT PRIMARY KEY,
            markers JSONB NOT NULL DEFAULT '[]'::jsonb,
            revision BIGINT NOT NULL DEFAULT 0,
            options JSONB,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) GetMarkers(ctx context.Context, mapID string) ([]core.Marker, core.Revision, error) {
	var (
		raw []byte
		rev int64
	)
	err := p.pool.QueryRow(ctx, `SELECT markers, revision FROM maps WHERE id = $1`, mapID).Scan(&raw, &rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return []core.Marker{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	markers := []core.Marker{}
	if err := json.Unmarshal(raw, &markers); err != nil {
		return nil, 0, fmt.Errorf("decode markers of map %s: %w", mapID, err)
	}
	return markers, core.Revision(rev), nil
}

// SetMarkers locks the map row for the duration of the transaction so that
// the revision check and the write are atomic.
func (p *Postgres) SetMarkers(ctx context.Context, mapID string, markers []core.Marker, expect core.Revision) (core.Revision, error) {
	if markers == nil {
		markers = []core.Marker{}
	}
	data, err := json.Marshal(markers)
	if err != nil {
		return 0, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO maps (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, mapID); err != nil {
		return 0, err
	}

	var current int64
	if err := tx.QueryRow(ctx, `SELECT revision FROM maps WHERE id = $1 FOR UPDATE`, mapID).Scan(&current); err != nil {
		return 0, err
	}
	if err := checkRevision(expect, core.Revision(current)); err != nil {
		return 0, err
	}

	var next int64
	err = tx.QueryRow(ctx,
		`UPDATE maps SET markers = $2::jsonb, revision = revision + 1, updated_at = NOW()
         WHERE id = $1 RETURNING revision`,
		mapID, string(data),
	).Scan(&next)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return core.Revision(next), nil
}

func (p *Postgres) GetOptions(ctx context.Context, mapID string) (core.MapOptions, bool, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT options FROM maps WHERE id = $1 AND options IS NOT NULL`, mapID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MapOptions{}, false, nil
	}
	if err != nil {
		return core.MapOptions{}, false, err
	}

	var opts core.MapOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return core.MapOptions{}, false, fmt.Errorf("decode options of map %s: %w", mapID, err)
	}
	return opts, true, nil
}

func (p *Postgres) SetOptions(ctx context.Context, mapID string, opts core.MapOptions) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO maps (id, options) VALUES ($1, $2::jsonb)
         ON CONFLICT (id) DO UPDATE SET options = EXCLUDED.options, updated_at = NOW()`,
		mapID, string(data),
	)
	return err
}
