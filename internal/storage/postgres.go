package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campaign-console/internal/campaign"
	"campaign-console/internal/config"
)

var ErrNotFound = errors.New("campaign not found")

// DefaultChannel is the NOTIFY channel used when none is configured.
const DefaultChannel = "campaign_changed"

type Store struct {
	pool    *pgxpool.Pool
	channel string
}

// notifyChannel is the channel upserts publish on and the listener joins.
func notifyChannel(cfg config.Config) string {
	if cfg.Listener.Channel == "" {
		return DefaultChannel
	}
	return cfg.Listener.Channel
}

func New(ctx context.Context, cfg config.Config) (*Store, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &Store{pool: pool, channel: notifyChannel(cfg)}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS campaigns (
			id         TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate campaigns: %w", err)
	}
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (campaign.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM campaigns WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query campaign %s: %w", id, err)
	}

	var c campaign.Campaign
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, fmt.Errorf("decode campaign %s: %w", id, err)
	}
	return c, nil
}

// UpsertCampaign writes c and notifies other sandbox instances.
func (s *Store) UpsertCampaign(ctx context.Context, c campaign.Campaign) error {
	id := c.ID()
	if id == "" {
		return campaign.ErrMissingID
	}
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode campaign %s: %w", id, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO campaigns (id, body, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`, id, string(body)); err != nil {
		return fmt.Errorf("upsert campaign %s: %w", id, err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, s.channel, id); err != nil {
		return fmt.Errorf("notify campaign %s: %w", id, err)
	}
	return tx.Commit(ctx)
}

func (s *Store) ListenChannel() string {
	return s.channel
}

func (s *Store) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}
