package ports

import (
	"context"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// SaleStore persiste las ventas de cada (world, item).
type SaleStore interface {
	InsertMany(ctx context.Context, sales []domain.Sale) error

	// RetrieveBySaleTime devuelve hasta count ventas, las más recientes primero.
	RetrieveBySaleTime(ctx context.Context, worldID, itemID uint32, count int) ([]domain.Sale, error)
}
