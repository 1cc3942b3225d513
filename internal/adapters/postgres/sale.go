package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

const insertSaleSQL = `
	INSERT INTO sale
		(id, world_id, item_id, hq, price_per_unit, quantity,
		 buyer_name, on_mannequin, sale_time, uploader_id_hash)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING
`

// InsertMany inserta las ventas con pgx.Batch en un solo round trip.
// Un ID repetido se ignora (ON CONFLICT DO NOTHING).
func (s *Store) InsertMany(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, sale := range sales {
		sale = sale.WithID()
		batch.Queue(insertSaleSQL,
			sale.ID.String(),
			int64(sale.WorldID),
			int64(sale.ItemID),
			sale.Hq,
			int64(sale.PricePerUnit),
			int64(sale.Quantity),
			sale.BuyerName,
			sale.OnMannequin,
			sale.SaleTime.UTC(),
			sale.UploaderIDHash,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range sales {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres.InsertMany: %w", err)
		}
	}
	return nil
}

// RetrieveBySaleTime devuelve hasta count ventas, las más recientes primero.
func (s *Store) RetrieveBySaleTime(ctx context.Context, worldID, itemID uint32, count int) ([]domain.Sale, error) {
	if count <= 0 {
		return []domain.Sale{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id::text, world_id, item_id, hq, price_per_unit, quantity,
		       COALESCE(buyer_name, ''), on_mannequin, sale_time, COALESCE(uploader_id_hash, '')
		FROM sale
		WHERE world_id = $1 AND item_id = $2
		ORDER BY sale_time DESC, id ASC
		LIMIT $3
	`, int64(worldID), int64(itemID), count)
	if err != nil {
		return nil, fmt.Errorf("postgres.RetrieveBySaleTime: query: %w", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	for rows.Next() {
		var (
			sale            domain.Sale
			id              string
			world, item     int64
			price, quantity int64
			saleTime        time.Time
		)
		if err := rows.Scan(
			&id,
			&world,
			&item,
			&sale.Hq,
			&price,
			&quantity,
			&sale.BuyerName,
			&sale.OnMannequin,
			&saleTime,
			&sale.UploaderIDHash,
		); err != nil {
			return nil, fmt.Errorf("postgres.RetrieveBySaleTime: scan row: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("postgres.RetrieveBySaleTime: parse id %q: %w", id, err)
		}
		sale.ID = parsed
		sale.WorldID = uint32(world)
		sale.ItemID = uint32(item)
		sale.PricePerUnit = uint32(price)
		sale.Quantity = uint32(quantity)
		sale.SaleTime = saleTime.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.RetrieveBySaleTime: %w", err)
	}
	return sales, nil
}
