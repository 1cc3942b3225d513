package history

// many.go — RetrieveMany con fan-out acotado.
//
// Los markers se piden en una sola llamada; las ventas, una llamada por
// marker encontrado, repartidas entre `workers` goroutines. Cada goroutine
// escribe solo su propio índice de `out`, así que no hace falta mutex.

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// RetrieveMany devuelve una historia por cada marker existente en
// WorldIDs × ItemIDs, en el orden en que el store devuelve los markers.
// Las claves sin marker se omiten y un conjunto vacío de mundos o items da
// una lista vacía sin tocar los stores. El primer error cancela el resto.
func (a *Access) RetrieveMany(ctx context.Context, query domain.HistoryManyQuery) ([]domain.History, error) {
	keys := query.Keys()
	if len(keys) == 0 {
		return []domain.History{}, nil
	}

	markers, err := a.items.RetrieveMany(ctx, domain.MarketItemManyQuery{
		WorldIDs: query.WorldIDs,
		ItemIDs:  query.ItemIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("history.RetrieveMany: markers: %w", err)
	}

	// Solo claves pedidas; un store que devuelva de más no cuela historias.
	wanted := make(map[domain.Key]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	found := markers[:0:0]
	seen := make(map[domain.Key]struct{}, len(markers))
	for _, m := range markers {
		k := m.Key()
		if _, ok := wanted[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		found = append(found, m)
	}

	count := a.count(query.Count)
	out := make([]domain.History, len(found))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, m := range found {
		g.Go(func() error {
			if a.limiter != nil {
				if err := a.limiter.Wait(gctx); err != nil {
					return fmt.Errorf("world %d item %d: %w", m.WorldID, m.ItemID, err)
				}
			}
			sales, err := a.sales.RetrieveBySaleTime(gctx, m.WorldID, m.ItemID, count)
			if err != nil {
				return fmt.Errorf("world %d item %d: %w", m.WorldID, m.ItemID, err)
			}
			out[i] = domain.HistoryFromMarker(m, sales)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("history.RetrieveMany: sales: %w", err)
	}

	a.logger.Debug("history fan-out complete",
		"keys_requested", len(keys),
		"markers_found", len(found),
		"workers", a.workers,
	)

	return out, nil
}
