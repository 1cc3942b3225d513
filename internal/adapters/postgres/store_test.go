package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// newTestStore conecta a la base indicada en MARKETBOARD_TEST_POSTGRES_DSN.
// Sin la variable el test se salta.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("MARKETBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MARKETBOARD_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewStore(pool)
	require.NoError(t, s.ApplySchema(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE market_item, sale`)
	require.NoError(t, err)
	return s
}

func TestStore_MarketItemLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	missing, err := s.Retrieve(ctx, domain.MarketItemQuery{WorldID: 1, ItemID: 100})
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, s.Insert(ctx, domain.MarketItem{WorldID: 1, ItemID: 100, LastUploadTime: t1}))
	assert.ErrorIs(t, s.Insert(ctx, domain.MarketItem{WorldID: 1, ItemID: 100, LastUploadTime: t1}), domain.ErrDuplicateMarker)

	require.NoError(t, s.Update(ctx, domain.MarketItem{WorldID: 1, ItemID: 100, LastUploadTime: t2}))
	got, err := s.Retrieve(ctx, domain.MarketItemQuery{WorldID: 1, ItemID: 100})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, t2.Equal(got.LastUploadTime))

	require.NoError(t, s.Update(ctx, domain.MarketItem{WorldID: 2, ItemID: 100, LastUploadTime: t1}))
	items, err := s.RetrieveMany(ctx, domain.MarketItemManyQuery{WorldIDs: []uint32{1, 2, 3}, ItemIDs: []uint32{100}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint32(1), items[0].WorldID)
	assert.Equal(t, uint32(2), items[1].WorldID)
}

func TestStore_FullUint32KeySpace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const maxID = uint32(4294967295)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, domain.MarketItem{WorldID: maxID, ItemID: maxID, LastUploadTime: at}))
	got, err := s.Retrieve(ctx, domain.MarketItemQuery{WorldID: maxID, ItemID: maxID})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, maxID, got.WorldID)
	assert.Equal(t, maxID, got.ItemID)

	require.NoError(t, s.InsertMany(ctx, []domain.Sale{{WorldID: maxID, ItemID: maxID, PricePerUnit: 1, Quantity: 1, SaleTime: at}}))
	sales, err := s.RetrieveBySaleTime(ctx, maxID, maxID, 10)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, maxID, sales[0].WorldID)
}

func TestStore_Sales(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	older := domain.Sale{ID: uuid.New(), WorldID: 1, ItemID: 100, PricePerUnit: 10, Quantity: 1, SaleTime: base.Add(-time.Minute)}
	newer := domain.Sale{ID: uuid.New(), WorldID: 1, ItemID: 100, PricePerUnit: 20, Quantity: 1, SaleTime: base, Hq: true}
	require.NoError(t, s.InsertMany(ctx, []domain.Sale{older, newer}))

	got, err := s.RetrieveBySaleTime(ctx, 1, 100, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.True(t, got[0].Hq)
}
