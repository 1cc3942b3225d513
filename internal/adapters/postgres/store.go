package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS market_item (
    world_id BIGINT      NOT NULL,
    item_id  BIGINT      NOT NULL,
    updated  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (world_id, item_id)
);

CREATE TABLE IF NOT EXISTS sale (
    id               UUID        PRIMARY KEY,
    world_id         BIGINT      NOT NULL,
    item_id          BIGINT      NOT NULL,
    hq               BOOLEAN     NOT NULL DEFAULT FALSE,
    price_per_unit   BIGINT      NOT NULL DEFAULT 0,
    quantity         BIGINT      NOT NULL DEFAULT 0,
    buyer_name       TEXT,
    on_mannequin     BOOLEAN     NOT NULL DEFAULT FALSE,
    sale_time        TIMESTAMPTZ NOT NULL,
    uploader_id_hash TEXT
);

CREATE INDEX IF NOT EXISTS idx_sale_world_item_time ON sale (world_id, item_id, sale_time DESC);

-- Bases creadas con INTEGER: las claves son uint32 y no caben en int4.
ALTER TABLE market_item ALTER COLUMN world_id TYPE BIGINT, ALTER COLUMN item_id TYPE BIGINT;
ALTER TABLE sale ALTER COLUMN world_id TYPE BIGINT, ALTER COLUMN item_id TYPE BIGINT;
`

// uniqueViolation es el SQLSTATE de una violación de PK/UNIQUE.
const uniqueViolation = "23505"

// Store implementa ports.MarketItemStore y ports.SaleStore sobre un pgxpool.
type Store struct {
	db *pgxpool.Pool
}

// NewStore envuelve un pool ya conectado. El pool sigue siendo del caller.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ApplySchema crea las tablas si no existen y lleva las claves a BIGINT.
func (s *Store) ApplySchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres.ApplySchema: %w", err)
	}
	return nil
}

// Ping verifica la conexión.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func toInt64s(ids []uint32) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
