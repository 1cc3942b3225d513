package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/marketboard/config"
	"github.com/alejandrodnm/marketboard/internal/adapters/postgres"
	"github.com/alejandrodnm/marketboard/internal/adapters/storage"
	"github.com/alejandrodnm/marketboard/internal/application/history"
	"github.com/alejandrodnm/marketboard/internal/ports"
)

// backend agrupa los stores abiertos y cómo cerrarlos.
type backend struct {
	items ports.MarketItemStore
	sales ports.SaleStore
	close func()
}

// openBackend abre el driver configurado. El caller debe llamar a close.
func openBackend(ctx context.Context, cfg config.StorageConfig) (*backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		slog.Debug("connecting to postgres",
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		pool, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(pool)
		if err := store.ApplySchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &backend{items: store, sales: store, close: pool.Close}, nil

	case config.DriverSQLite:
		slog.Debug("opening sqlite", "dsn", cfg.DSN)
		store, err := storage.NewSQLiteStorage(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &backend{items: store, sales: store, close: func() { store.Close() }}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// newAccess arma el orquestador con las opciones de la config.
func newAccess(b *backend, cfg config.HistoryConfig) *history.Access {
	return history.New(b.items, b.sales,
		history.WithDefaultCount(cfg.DefaultCount),
		history.WithWorkers(cfg.FetchWorkers),
		history.WithFetchRate(rate.Limit(cfg.FetchRatePerSec), cfg.FetchBurst),
		history.WithLogger(slog.Default()),
	)
}
