package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/marketboard/internal/adapters/storage"
	"github.com/alejandrodnm/marketboard/internal/application/history"
	"github.com/alejandrodnm/marketboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteAccess(t *testing.T, opts ...history.Option) (*history.Access, *storage.SQLiteStorage) {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return history.New(db, db, opts...), db
}

func TestSQLite_CreateThenRetrieve(t *testing.T) {
	a, _ := newSQLiteAccess(t)
	ctx := context.Background()
	const uploaded = int64(1700000000000)
	base := time.UnixMilli(uploaded).UTC()

	s1 := sale(1, 100, base.Add(-time.Millisecond), 10)
	s2 := sale(1, 100, base, 20)
	require.NoError(t, a.Create(ctx, domain.History{
		WorldID:                        1,
		ItemID:                         100,
		LastUploadTimeUnixMilliseconds: uploaded,
		Sales:                          []domain.Sale{s1, s2},
	}))

	h, err := a.Retrieve(ctx, domain.HistoryQuery{WorldID: 1, ItemID: 100, Count: 1})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, uploaded, h.LastUploadTimeUnixMilliseconds)
	require.Len(t, h.Sales, 1)
	assert.Equal(t, s2.ID, h.Sales[0].ID)

	all, err := a.Retrieve(ctx, domain.HistoryQuery{WorldID: 1, ItemID: 100})
	require.NoError(t, err)
	require.NotNil(t, all)
	require.Len(t, all.Sales, 2)
	assert.Equal(t, s2.ID, all.Sales[0].ID)
	assert.Equal(t, s1.ID, all.Sales[1].ID)
}

func TestSQLite_CreateDuplicate(t *testing.T) {
	a, db := newSQLiteAccess(t)
	ctx := context.Background()
	h := domain.History{WorldID: 1, ItemID: 1, LastUploadTimeUnixMilliseconds: 1700000000000}

	require.NoError(t, a.Create(ctx, h))
	h.Sales = []domain.Sale{sale(1, 1, time.Now().UTC(), 5)}
	err := a.Create(ctx, h)
	assert.ErrorIs(t, err, domain.ErrDuplicateMarker)

	got, err := db.RetrieveBySaleTime(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, got, "a rejected create must not write sales")
}

func TestSQLite_MarkerWithoutSales(t *testing.T) {
	a, db := newSQLiteAccess(t)
	ctx := context.Background()
	require.NoError(t, db.Insert(ctx, domain.MarketItem{WorldID: 3, ItemID: 3, LastUploadTime: time.Now().UTC()}))

	h, err := a.Retrieve(ctx, domain.HistoryQuery{WorldID: 3, ItemID: 3})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Empty(t, h.Sales)
}

func TestSQLite_SalesWithoutMarkerAreHidden(t *testing.T) {
	a, db := newSQLiteAccess(t)
	ctx := context.Background()
	require.NoError(t, db.InsertMany(ctx, []domain.Sale{sale(1, 100, time.Now().UTC(), 1)}))

	h, err := a.Retrieve(ctx, domain.HistoryQuery{WorldID: 1, ItemID: 100})
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestSQLite_InsertSalesTwice(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	a, _ := newSQLiteAccess(t, history.WithClock(func() time.Time { return clock }))
	ctx := context.Background()
	q := domain.HistoryQuery{WorldID: 5, ItemID: 50}

	require.NoError(t, a.InsertSales(ctx, []domain.Sale{sale(5, 50, now.Add(-time.Hour), 1)}, q))
	clock = now.Add(time.Minute)
	require.NoError(t, a.InsertSales(ctx, []domain.Sale{sale(5, 50, now, 2)}, q))

	h, err := a.Retrieve(ctx, q)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, clock.UnixMilli(), h.LastUploadTimeUnixMilliseconds)
	require.Len(t, h.Sales, 2)
	assert.Equal(t, uint32(2), h.Sales[0].PricePerUnit)
}

func TestSQLite_RetrieveMany(t *testing.T) {
	a, _ := newSQLiteAccess(t)
	ctx := context.Background()
	base := time.UnixMilli(1700000000000).UTC()

	for _, k := range []domain.Key{{WorldID: 1, ItemID: 100}, {WorldID: 2, ItemID: 200}} {
		require.NoError(t, a.Create(ctx, domain.History{
			WorldID:                        k.WorldID,
			ItemID:                         k.ItemID,
			LastUploadTimeUnixMilliseconds: base.UnixMilli(),
			Sales:                          []domain.Sale{sale(k.WorldID, k.ItemID, base, k.ItemID)},
		}))
	}

	got, err := a.RetrieveMany(ctx, domain.HistoryManyQuery{
		WorldIDs: []uint32{1, 2, 3},
		ItemIDs:  []uint32{100, 200},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Key{WorldID: 1, ItemID: 100}, domain.Key{WorldID: got[0].WorldID, ItemID: got[0].ItemID})
	assert.Equal(t, domain.Key{WorldID: 2, ItemID: 200}, domain.Key{WorldID: got[1].WorldID, ItemID: got[1].ItemID})
	require.Len(t, got[0].Sales, 1)
	assert.Equal(t, uint32(100), got[0].Sales[0].PricePerUnit)
	require.Len(t, got[1].Sales, 1)
	assert.Equal(t, uint32(200), got[1].Sales[0].PricePerUnit)

	got, err = a.RetrieveMany(ctx, domain.HistoryManyQuery{WorldIDs: []uint32{1}})
	require.NoError(t, err)
	assert.Equal(t, []domain.History{}, got)
}

func TestSQLite_CanceledCreate(t *testing.T) {
	a, db := newSQLiteAccess(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Create(ctx, domain.History{WorldID: 1, ItemID: 1, LastUploadTimeUnixMilliseconds: 1})
	assert.ErrorIs(t, err, context.Canceled)

	item, err := db.Retrieve(context.Background(), domain.MarketItemQuery{WorldID: 1, ItemID: 1})
	require.NoError(t, err)
	assert.Nil(t, item)
}
