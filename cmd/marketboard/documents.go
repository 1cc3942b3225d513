package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/marketboard/internal/domain"
)

// historyDocument es el formato JSON que acepta `create`.
type historyDocument struct {
	WorldID                        uint32         `json:"worldID"`
	ItemID                         uint32         `json:"itemID"`
	LastUploadTimeUnixMilliseconds int64          `json:"lastUploadTime"`
	Sales                          []saleDocument `json:"entries"`
}

// saleDocument es una venta; Timestamp en segundos unix.
type saleDocument struct {
	ID             string `json:"id,omitempty"`
	Hq             bool   `json:"hq"`
	PricePerUnit   uint32 `json:"pricePerUnit"`
	Quantity       uint32 `json:"quantity"`
	BuyerName      string `json:"buyerName"`
	OnMannequin    bool   `json:"onMannequin"`
	Timestamp      int64  `json:"timestamp"`
	UploaderIDHash string `json:"uploaderID,omitempty"`
}

func (d historyDocument) toDomain() (domain.History, error) {
	sales := make([]domain.Sale, len(d.Sales))
	for i, s := range d.Sales {
		sale, err := s.toDomain(d.WorldID, d.ItemID)
		if err != nil {
			return domain.History{}, fmt.Errorf("entries[%d]: %w", i, err)
		}
		sales[i] = sale
	}
	return domain.History{
		WorldID:                        d.WorldID,
		ItemID:                         d.ItemID,
		LastUploadTimeUnixMilliseconds: d.LastUploadTimeUnixMilliseconds,
		Sales:                          sales,
	}, nil
}

// toDomain convierte la venta. Sin id el store asigna uno; un id mal formado
// es un error.
func (d saleDocument) toDomain(worldID, itemID uint32) (domain.Sale, error) {
	var id uuid.UUID
	if d.ID != "" {
		parsed, err := uuid.Parse(d.ID)
		if err != nil {
			return domain.Sale{}, fmt.Errorf("invalid sale id %q: %w", d.ID, err)
		}
		id = parsed
	}
	return domain.Sale{
		ID:             id,
		WorldID:        worldID,
		ItemID:         itemID,
		Hq:             d.Hq,
		PricePerUnit:   d.PricePerUnit,
		Quantity:       d.Quantity,
		BuyerName:      d.BuyerName,
		OnMannequin:    d.OnMannequin,
		SaleTime:       time.Unix(d.Timestamp, 0).UTC(),
		UploaderIDHash: d.UploaderIDHash,
	}, nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}
	return nil
}
