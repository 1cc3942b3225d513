package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// Insert escribe un marker nuevo; la PK rechaza un (world, item) repetido.
func (s *Store) Insert(ctx context.Context, item domain.MarketItem) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO market_item (world_id, item_id, updated) VALUES ($1, $2, $3)`,
		int64(item.WorldID), int64(item.ItemID), item.LastUploadTime.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres.Insert: world %d item %d: %w", item.WorldID, item.ItemID, domain.ErrDuplicateMarker)
		}
		return fmt.Errorf("postgres.Insert: %w", err)
	}
	return nil
}

// Update hace upsert atómico del marker.
func (s *Store) Update(ctx context.Context, item domain.MarketItem) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO market_item (world_id, item_id, updated) VALUES ($1, $2, $3)
		ON CONFLICT (world_id, item_id) DO UPDATE SET updated = EXCLUDED.updated
	`, int64(item.WorldID), int64(item.ItemID), item.LastUploadTime.UTC())
	if err != nil {
		return fmt.Errorf("postgres.Update: %w", err)
	}
	return nil
}

// Retrieve devuelve el marker o nil si no existe.
func (s *Store) Retrieve(ctx context.Context, query domain.MarketItemQuery) (*domain.MarketItem, error) {
	var (
		worldID, itemID int64
		updated         time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT world_id, item_id, updated FROM market_item WHERE world_id = $1 AND item_id = $2`,
		int64(query.WorldID), int64(query.ItemID),
	).Scan(&worldID, &itemID, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres.Retrieve: %w", err)
	}

	return &domain.MarketItem{
		WorldID:        uint32(worldID),
		ItemID:         uint32(itemID),
		LastUploadTime: updated.UTC(),
	}, nil
}

// RetrieveMany devuelve los markers de WorldIDs × ItemIDs en una sola query.
func (s *Store) RetrieveMany(ctx context.Context, query domain.MarketItemManyQuery) ([]domain.MarketItem, error) {
	if len(query.WorldIDs) == 0 || len(query.ItemIDs) == 0 {
		return []domain.MarketItem{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT world_id, item_id, updated
		FROM market_item
		WHERE world_id = ANY($1::bigint[]) AND item_id = ANY($2::bigint[])
		ORDER BY world_id, item_id
	`, toInt64s(query.WorldIDs), toInt64s(query.ItemIDs))
	if err != nil {
		return nil, fmt.Errorf("postgres.RetrieveMany: query: %w", err)
	}
	defer rows.Close()

	items := []domain.MarketItem{}
	for rows.Next() {
		var (
			worldID, itemID int64
			updated         time.Time
		)
		if err := rows.Scan(&worldID, &itemID, &updated); err != nil {
			return nil, fmt.Errorf("postgres.RetrieveMany: scan row: %w", err)
		}
		items = append(items, domain.MarketItem{
			WorldID:        uint32(worldID),
			ItemID:         uint32(itemID),
			LastUploadTime: updated.UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.RetrieveMany: %w", err)
	}
	return items, nil
}
