// Package history compone MarketItemStore y SaleStore en el agregado
// domain.History. No tiene estado propio: cada operación son a lo sumo dos
// llamadas a store, en secuencia y sin transacción entre ellas.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/marketboard/internal/domain"
	"github.com/alejandrodnm/marketboard/internal/ports"
)

// DefaultWorkers es el número de lecturas de ventas en paralelo en RetrieveMany.
const DefaultWorkers = 4

// Access implementa ports.HistoryStore.
type Access struct {
	items        ports.MarketItemStore
	sales        ports.SaleStore
	defaultCount int
	workers      int
	limiter      *rate.Limiter // nil = sin límite
	now          func() time.Time
	logger       *slog.Logger
}

// Option configura un Access.
type Option func(*Access)

// WithDefaultCount cambia el límite de ventas usado cuando la query no trae Count.
func WithDefaultCount(n int) Option {
	return func(a *Access) {
		if n > 0 {
			a.defaultCount = n
		}
	}
}

// WithWorkers fija cuántas lecturas de ventas corren a la vez en RetrieveMany.
// 1 reproduce el bucle secuencial.
func WithWorkers(n int) Option {
	return func(a *Access) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithFetchRate limita las lecturas de ventas por segundo en RetrieveMany.
// r <= 0 desactiva el límite.
func WithFetchRate(r rate.Limit, burst int) Option {
	return func(a *Access) {
		if r <= 0 {
			a.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(r, burst)
	}
}

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(a *Access) { a.now = now }
}

// WithLogger fija el logger para los mensajes de debug.
func WithLogger(l *slog.Logger) Option {
	return func(a *Access) {
		if l != nil {
			a.logger = l
		}
	}
}

// New crea un Access sobre los dos stores.
func New(items ports.MarketItemStore, sales ports.SaleStore, opts ...Option) *Access {
	a := &Access{
		items:        items,
		sales:        sales,
		defaultCount: domain.DefaultSaleCount,
		workers:      DefaultWorkers,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Create inserta el marker de la historia y después sus ventas.
// Si falla el insert del marker (p. ej. domain.ErrDuplicateMarker) no se
// escribe ninguna venta. Si fallan las ventas, el marker queda escrito.
func (a *Access) Create(ctx context.Context, history domain.History) error {
	if err := a.items.Insert(ctx, history.Marker()); err != nil {
		return fmt.Errorf("history.Create: insert marker: %w", err)
	}
	if err := a.sales.InsertMany(ctx, history.Sales); err != nil {
		return fmt.Errorf("history.Create: insert sales: %w", err)
	}
	return nil
}

// Retrieve devuelve la historia de (world, item) o nil si no hay marker.
// Sin marker no se consulta el SaleStore.
func (a *Access) Retrieve(ctx context.Context, query domain.HistoryQuery) (*domain.History, error) {
	marker, err := a.items.Retrieve(ctx, domain.MarketItemQuery{WorldID: query.WorldID, ItemID: query.ItemID})
	if err != nil {
		return nil, fmt.Errorf("history.Retrieve: marker: %w", err)
	}
	if marker == nil {
		return nil, nil
	}

	sales, err := a.sales.RetrieveBySaleTime(ctx, query.WorldID, query.ItemID, a.count(query.Count))
	if err != nil {
		return nil, fmt.Errorf("history.Retrieve: sales: %w", err)
	}

	h := domain.HistoryFromMarker(*marker, sales)
	return &h, nil
}

// InsertSales refresca el marker de (world, item) con la hora actual (UTC) y
// añade las ventas. El marker se escribe con Update: un segundo append para
// la misma clave sobreescribe el timestamp en lugar de duplicar la fila.
func (a *Access) InsertSales(ctx context.Context, sales []domain.Sale, query domain.HistoryQuery) error {
	marker := domain.MarketItem{
		WorldID:        query.WorldID,
		ItemID:         query.ItemID,
		LastUploadTime: a.now().UTC(),
	}
	if err := a.items.Update(ctx, marker); err != nil {
		return fmt.Errorf("history.InsertSales: refresh marker: %w", err)
	}
	if err := a.sales.InsertMany(ctx, sales); err != nil {
		return fmt.Errorf("history.InsertSales: insert sales: %w", err)
	}
	return nil
}

func (a *Access) count(n int) int {
	if n <= 0 {
		return a.defaultCount
	}
	return n
}
