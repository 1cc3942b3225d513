package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// Insert escribe un marker nuevo. Un par ya existente lo rechaza la PK.
func (s *SQLiteStorage) Insert(ctx context.Context, item domain.MarketItem) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO market_item (world_id, item_id, updated) VALUES (?, ?, ?)`,
		item.WorldID, item.ItemID, item.LastUploadTime.UTC(),
	); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("storage.Insert: world %d item %d: %w", item.WorldID, item.ItemID, domain.ErrDuplicateMarker)
		}
		return fmt.Errorf("storage.Insert: %w", err)
	}
	return nil
}

// Update hace upsert del marker en una sola sentencia: inserta si no existe,
// si no sobreescribe `updated`. No hay ventana entre lectura y escritura.
func (s *SQLiteStorage) Update(ctx context.Context, item domain.MarketItem) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO market_item (world_id, item_id, updated) VALUES (?, ?, ?)
		ON CONFLICT(world_id, item_id) DO UPDATE SET
			updated = excluded.updated
	`, item.WorldID, item.ItemID, item.LastUploadTime.UTC()); err != nil {
		return fmt.Errorf("storage.Update: %w", err)
	}
	return nil
}

// Retrieve devuelve el marker de (world, item), o nil si no hay fila.
func (s *SQLiteStorage) Retrieve(ctx context.Context, query domain.MarketItemQuery) (*domain.MarketItem, error) {
	var (
		item    domain.MarketItem
		updated time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT world_id, item_id, updated FROM market_item WHERE world_id = ? AND item_id = ?`,
		query.WorldID, query.ItemID,
	).Scan(&item.WorldID, &item.ItemID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Retrieve: %w", err)
	}

	item.LastUploadTime = updated.UTC()
	return &item, nil
}

// RetrieveMany devuelve en una sola query los markers existentes de
// WorldIDs × ItemIDs, ordenados por (world_id, item_id).
func (s *SQLiteStorage) RetrieveMany(ctx context.Context, query domain.MarketItemManyQuery) ([]domain.MarketItem, error) {
	if len(query.WorldIDs) == 0 || len(query.ItemIDs) == 0 {
		return []domain.MarketItem{}, nil
	}

	args := make([]any, 0, len(query.WorldIDs)+len(query.ItemIDs))
	for _, w := range query.WorldIDs {
		args = append(args, w)
	}
	for _, i := range query.ItemIDs {
		args = append(args, i)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT world_id, item_id, updated
		FROM market_item
		WHERE world_id IN (%s) AND item_id IN (%s)
		ORDER BY world_id, item_id
	`, placeholders(len(query.WorldIDs)), placeholders(len(query.ItemIDs))), args...)
	if err != nil {
		return nil, fmt.Errorf("storage.RetrieveMany: query: %w", err)
	}
	defer rows.Close()

	items := []domain.MarketItem{}
	for rows.Next() {
		var (
			item    domain.MarketItem
			updated time.Time
		)
		if err := rows.Scan(&item.WorldID, &item.ItemID, &updated); err != nil {
			return nil, fmt.Errorf("storage.RetrieveMany: scan row: %w", err)
		}
		item.LastUploadTime = updated.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RetrieveMany: %w", err)
	}
	return items, nil
}
