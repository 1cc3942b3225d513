package domain

import (
	"errors"
	"time"
)

// DefaultSaleCount es el número de ventas devueltas por History cuando la
// query no especifica un límite.
const DefaultSaleCount = 1000

// ErrDuplicateMarker indica que ya existe un marker para (world, item).
var ErrDuplicateMarker = errors.New("market item already exists")

// MarketItem es el marker "este par world/item recibió datos de mercado en T".
// Hay como mucho uno por (WorldID, ItemID).
type MarketItem struct {
	WorldID        uint32
	ItemID         uint32
	LastUploadTime time.Time // siempre UTC
}

// Key devuelve la clave natural del marker.
func (m MarketItem) Key() Key {
	return Key{WorldID: m.WorldID, ItemID: m.ItemID}
}

// Key es la clave compuesta (world, item) que une markers y ventas.
type Key struct {
	WorldID uint32
	ItemID  uint32
}

// History es el agregado en memoria: un marker más sus ventas más recientes.
// No se persiste; se construye en cada lectura.
type History struct {
	WorldID                        uint32
	ItemID                         uint32
	LastUploadTimeUnixMilliseconds int64
	Sales                          []Sale
}

// Marker convierte el timestamp en milisegundos del agregado a un MarketItem UTC.
func (h History) Marker() MarketItem {
	return MarketItem{
		WorldID:        h.WorldID,
		ItemID:         h.ItemID,
		LastUploadTime: time.UnixMilli(h.LastUploadTimeUnixMilliseconds).UTC(),
	}
}

// HistoryFromMarker arma el agregado a partir de un marker y sus ventas.
// Sales nunca es nil, para que un marker sin ventas sea una lista vacía.
func HistoryFromMarker(m MarketItem, sales []Sale) History {
	if sales == nil {
		sales = []Sale{}
	}
	return History{
		WorldID:                        m.WorldID,
		ItemID:                         m.ItemID,
		LastUploadTimeUnixMilliseconds: m.LastUploadTime.UnixMilli(),
		Sales:                          sales,
	}
}

// HistoryQuery selecciona la historia de un par world/item.
// Count <= 0 usa el límite por defecto (DefaultSaleCount salvo configuración).
type HistoryQuery struct {
	WorldID uint32
	ItemID  uint32
	Count   int
}

// HistoryManyQuery selecciona el producto cartesiano WorldIDs × ItemIDs.
type HistoryManyQuery struct {
	WorldIDs []uint32
	ItemIDs  []uint32
	Count    int
}

// Keys devuelve el producto cartesiano sin duplicados, en orden world-major.
// Si cualquiera de los dos conjuntos está vacío el resultado es vacío.
func (q HistoryManyQuery) Keys() []Key {
	worlds := dedup(q.WorldIDs)
	items := dedup(q.ItemIDs)

	keys := make([]Key, 0, len(worlds)*len(items))
	for _, w := range worlds {
		for _, i := range items {
			keys = append(keys, Key{WorldID: w, ItemID: i})
		}
	}
	return keys
}

// MarketItemQuery es la búsqueda puntual de un marker.
type MarketItemQuery struct {
	WorldID uint32
	ItemID  uint32
}

// MarketItemManyQuery busca todos los markers de WorldIDs × ItemIDs en una llamada.
type MarketItemManyQuery struct {
	WorldIDs []uint32
	ItemIDs  []uint32
}

func dedup(ids []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(ids))
	out := make([]uint32, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
