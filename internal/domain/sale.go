package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sale representa una venta registrada en el market board de un mundo.
// La capa de historia solo mira WorldID, ItemID y SaleTime; el resto lo
// persiste el SaleStore tal cual.
type Sale struct {
	ID             uuid.UUID
	WorldID        uint32
	ItemID         uint32
	Hq             bool
	PricePerUnit   uint32
	Quantity       uint32
	BuyerName      string
	OnMannequin    bool
	SaleTime       time.Time
	UploaderIDHash string
}

// Total devuelve el importe de la venta (precio unitario × cantidad).
func (s Sale) Total() uint64 {
	return uint64(s.PricePerUnit) * uint64(s.Quantity)
}

// Key devuelve la clave (world, item) de la venta.
func (s Sale) Key() Key {
	return Key{WorldID: s.WorldID, ItemID: s.ItemID}
}

// WithID devuelve la venta con un ID asignado si no tenía uno.
func (s Sale) WithID() Sale {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return s
}
