package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/alejandrodnm/marketboard/internal/domain"
	"github.com/google/uuid"
)

// InsertMany persiste las ventas en una sola transacción.
// Las ventas sin ID reciben uno nuevo; un ID repetido se ignora.
func (s *SQLiteStorage) InsertMany(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.InsertMany: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sale
			(id, world_id, item_id, hq, price_per_unit, quantity,
			 buyer_name, on_mannequin, sale_time, uploader_id_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("storage.InsertMany: prepare: %w", err)
	}
	defer stmt.Close()

	for _, sale := range sales {
		sale = sale.WithID()
		if _, err := stmt.ExecContext(ctx,
			sale.ID.String(),
			sale.WorldID,
			sale.ItemID,
			boolToInt(sale.Hq),
			sale.PricePerUnit,
			sale.Quantity,
			sale.BuyerName,
			boolToInt(sale.OnMannequin),
			sale.SaleTime.UTC(),
			sale.UploaderIDHash,
		); err != nil {
			return fmt.Errorf("storage.InsertMany: insert %s: %w", sale.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.InsertMany: commit: %w", err)
	}
	return nil
}

// RetrieveBySaleTime devuelve hasta count ventas de (world, item), las más
// recientes primero. Empates en sale_time se ordenan por id.
func (s *SQLiteStorage) RetrieveBySaleTime(ctx context.Context, worldID, itemID uint32, count int) ([]domain.Sale, error) {
	if count <= 0 {
		return []domain.Sale{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, world_id, item_id, hq, price_per_unit, quantity,
		       buyer_name, on_mannequin, sale_time, uploader_id_hash
		FROM sale
		WHERE world_id = ? AND item_id = ?
		ORDER BY sale_time DESC, id ASC
		LIMIT ?
	`, worldID, itemID, count)
	if err != nil {
		return nil, fmt.Errorf("storage.RetrieveBySaleTime: query: %w", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	for rows.Next() {
		var (
			sale        domain.Sale
			id          string
			hq, onMann  int
			saleTime    time.Time
			buyer, hash *string
		)
		if err := rows.Scan(
			&id,
			&sale.WorldID,
			&sale.ItemID,
			&hq,
			&sale.PricePerUnit,
			&sale.Quantity,
			&buyer,
			&onMann,
			&saleTime,
			&hash,
		); err != nil {
			return nil, fmt.Errorf("storage.RetrieveBySaleTime: scan row: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("storage.RetrieveBySaleTime: parse id %q: %w", id, err)
		}
		sale.ID = parsed
		sale.Hq = hq == 1
		sale.OnMannequin = onMann == 1
		sale.SaleTime = saleTime.UTC()
		if buyer != nil {
			sale.BuyerName = *buyer
		}
		if hash != nil {
			sale.UploaderIDHash = *hash
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.RetrieveBySaleTime: %w", err)
	}
	return sales, nil
}
