package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapscope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pools (
	chain_id     BIGINT      NOT NULL,
	pool_address TEXT        NOT NULL,
	token0       TEXT        NOT NULL,
	token1       TEXT        NOT NULL,
	fee          INTEGER     NOT NULL,
	tick_spacing INTEGER     NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address)
)`

// querier is the subset of pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is the Postgres pool registry. It records resolved pools, never swaps.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, db: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the registry table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create pools table: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_address, token0, token1, fee, tick_spacing, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee = EXCLUDED.fee,
				tick_spacing = EXCLUDED.tick_spacing,
				updated_at = now()
		`,
			int64(pool.ChainID),
			pool.Address,
			pool.Token0,
			pool.Token1,
			int32(pool.Fee),
			pool.TickSpacing,
		)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	for _, pool := range pools {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert pool %s: %w", pool.Address, err)
		}
	}
	return nil
}

// ListPools returns registered pools for a chain, ordered by fee.
func (s *Store) ListPools(ctx context.Context, chainID uint64) ([]model.Pool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT chain_id, pool_address, token0, token1, fee, tick_spacing
		FROM pools
		WHERE chain_id = $1
		ORDER BY fee, pool_address
	`, int64(chainID))
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Pool, error) {
		var (
			p       model.Pool
			chain   int64
			fee     int32
			spacing int32
		)
		if err := row.Scan(&chain, &p.Address, &p.Token0, &p.Token1, &fee, &spacing); err != nil {
			return model.Pool{}, err
		}
		p.ChainID = uint64(chain)
		p.Fee = uint32(fee)
		p.TickSpacing = spacing
		return p, nil
	})
}
