package history_test

import (
	"context"
	"sort"
	"sync"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// fakeItems es un MarketItemStore en memoria que cuenta llamadas.
type fakeItems struct {
	mu       sync.Mutex
	items    map[domain.Key]domain.MarketItem
	order    []domain.Key // orden de RetrieveMany; vacío = orden de inserción
	inserted []domain.MarketItem
	updated  []domain.MarketItem

	insertErr, updateErr, retrieveErr, manyErr error
	retrieveCalls, manyCalls                   int
	extra                                      []domain.MarketItem // devuelto además por RetrieveMany
}

func newFakeItems() *fakeItems {
	return &fakeItems{items: make(map[domain.Key]domain.MarketItem)}
}

func (f *fakeItems) Insert(_ context.Context, item domain.MarketItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.items[item.Key()]; ok {
		return domain.ErrDuplicateMarker
	}
	f.items[item.Key()] = item
	f.order = append(f.order, item.Key())
	f.inserted = append(f.inserted, item)
	return nil
}

func (f *fakeItems) Update(_ context.Context, item domain.MarketItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.items[item.Key()]; !ok {
		f.order = append(f.order, item.Key())
	}
	f.items[item.Key()] = item
	f.updated = append(f.updated, item)
	return nil
}

func (f *fakeItems) Retrieve(_ context.Context, q domain.MarketItemQuery) (*domain.MarketItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieveCalls++
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	item, ok := f.items[domain.Key{WorldID: q.WorldID, ItemID: q.ItemID}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeItems) RetrieveMany(_ context.Context, q domain.MarketItemManyQuery) ([]domain.MarketItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manyCalls++
	if f.manyErr != nil {
		return nil, f.manyErr
	}
	worlds := make(map[uint32]bool)
	for _, w := range q.WorldIDs {
		worlds[w] = true
	}
	items := make(map[uint32]bool)
	for _, i := range q.ItemIDs {
		items[i] = true
	}

	var out []domain.MarketItem
	for _, k := range f.order {
		if worlds[k.WorldID] && items[k.ItemID] {
			out = append(out, f.items[k])
		}
	}
	return append(out, f.extra...), nil
}

type saleCall struct {
	key   domain.Key
	count int
}

// fakeSales es un SaleStore en memoria.
type fakeSales struct {
	mu        sync.Mutex
	sales     map[domain.Key][]domain.Sale
	calls     []saleCall
	batches   [][]domain.Sale
	insertErr error
	failKey   *domain.Key
	fetchErr  error
}

func newFakeSales() *fakeSales {
	return &fakeSales{sales: make(map[domain.Key][]domain.Sale)}
}

func (f *fakeSales) InsertMany(_ context.Context, sales []domain.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.batches = append(f.batches, sales)
	for _, s := range sales {
		f.sales[s.Key()] = append(f.sales[s.Key()], s)
	}
	return nil
}

func (f *fakeSales) RetrieveBySaleTime(ctx context.Context, worldID, itemID uint32, count int) ([]domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := domain.Key{WorldID: worldID, ItemID: itemID}
	f.calls = append(f.calls, saleCall{key: k, count: count})
	if f.failKey != nil && *f.failKey == k {
		return nil, f.fetchErr
	}

	sales := append([]domain.Sale(nil), f.sales[k]...)
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].SaleTime.After(sales[j].SaleTime) })
	if len(sales) > count {
		sales = sales[:count]
	}
	return sales, nil
}
