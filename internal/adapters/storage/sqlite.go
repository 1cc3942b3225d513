package storage

// sqlite.go — backend SQLite de markers y ventas.
//
// Estrategia:
//   - `market_item`: UNA fila por (world_id, item_id). La PK compuesta es la
//     que impide duplicados; Update es un UPSERT atómico.
//   - `sale`: append-only, PK por UUID. Índice (world, item, sale_time DESC)
//     para servir "las N más recientes" sin ordenar en memoria.
//   - Cada llamada es su propia unidad de trabajo: no hay transacción que
//     abarque marker + ventas.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
-- Un marker por par world/item
CREATE TABLE IF NOT EXISTS market_item (
    world_id INTEGER   NOT NULL,
    item_id  INTEGER   NOT NULL,
    updated  TIMESTAMP NOT NULL,
    PRIMARY KEY (world_id, item_id)
);

-- Ventas, append-only
CREATE TABLE IF NOT EXISTS sale (
    id               TEXT      PRIMARY KEY,
    world_id         INTEGER   NOT NULL,
    item_id          INTEGER   NOT NULL,
    hq               INTEGER   NOT NULL DEFAULT 0,
    price_per_unit   INTEGER   NOT NULL DEFAULT 0,
    quantity         INTEGER   NOT NULL DEFAULT 0,
    buyer_name       TEXT,
    on_mannequin     INTEGER   NOT NULL DEFAULT 0,
    sale_time        TIMESTAMP NOT NULL,
    uploader_id_hash TEXT
);

CREATE INDEX IF NOT EXISTS idx_sale_world_item_time ON sale(world_id, item_id, sale_time DESC);
`

// SQLiteStorage implementa ports.MarketItemStore y ports.SaleStore usando
// SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer; también mantiene viva una DB :memory:
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Ping verifica que la conexión siga viva.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// isConstraintViolation detecta una violación de PK/UNIQUE.
// Se compara el código primario (byte bajo) para cubrir los códigos extendidos.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// placeholders devuelve "?, ?, ?" para n parámetros.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
