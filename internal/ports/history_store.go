package ports

import (
	"context"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// HistoryStore compone MarketItemStore y SaleStore en el agregado History.
type HistoryStore interface {
	Create(ctx context.Context, history domain.History) error
	Retrieve(ctx context.Context, query domain.HistoryQuery) (*domain.History, error)
	RetrieveMany(ctx context.Context, query domain.HistoryManyQuery) ([]domain.History, error)
	InsertSales(ctx context.Context, sales []domain.Sale, query domain.HistoryQuery) error
}

// HistoryRenderer muestra historias al usuario (consola, etc.).
type HistoryRenderer interface {
	RenderHistory(ctx context.Context, history domain.History) error
	RenderHistories(ctx context.Context, histories []domain.History) error
}
