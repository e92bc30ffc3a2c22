package models

import (
	"time"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// GatewayEvent is the transaction ledger: one append-only row per gateway
// interaction, request or callback, with the raw payload kept verbatim.
// Rows are never updated or deleted.
type GatewayEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Gateway     domain.Gateway `gorm:"size:30;not null;index" json:"gateway"`
	Direction   string         `gorm:"size:10;not null;index" json:"direction"` // REQUEST or CALLBACK
	ReferenceID string         `gorm:"size:64;index" json:"reference_id"`
	ExternalID  string         `gorm:"size:128;index" json:"external_id"`
	Outcome     string         `gorm:"size:30" json:"outcome"`
	RawPayload  string         `gorm:"type:text" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (GatewayEvent) TableName() string {
	return "gateway_events"
}
