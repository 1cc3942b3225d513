package ports

import (
	"context"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// MarketItemStore persiste el marker de última subida por (world, item).
type MarketItemStore interface {
	// Insert escribe un marker nuevo. Falla con domain.ErrDuplicateMarker si ya existe.
	Insert(ctx context.Context, item domain.MarketItem) error

	// Update inserta el marker o sobreescribe su timestamp si ya existe.
	Update(ctx context.Context, item domain.MarketItem) error

	// Retrieve devuelve el marker o nil si no existe. Ausencia no es un error.
	Retrieve(ctx context.Context, query domain.MarketItemQuery) (*domain.MarketItem, error)

	// RetrieveMany devuelve los markers existentes de WorldIDs × ItemIDs.
	RetrieveMany(ctx context.Context, query domain.MarketItemManyQuery) ([]domain.MarketItem, error)
}
