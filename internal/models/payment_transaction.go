package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// PaymentTransaction is one outbound collection attempt against a gateway.
// ReferenceID is our idempotency key for the request; ExternalID is the
// provider's id used to correlate inbound callbacks. Status only ever moves
// forward to a terminal value.
type PaymentTransaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ReferenceID string         `gorm:"size:64;uniqueIndex;not null" json:"reference_id"`
	ExternalID  string         `gorm:"size:128;uniqueIndex" json:"external_id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"`
	Gateway     domain.Gateway `gorm:"size:30;not null;index" json:"gateway"`
	Msisdn      string         `gorm:"size:20;not null" json:"msisdn"`
	Amount      int64          `gorm:"not null" json:"amount"`
	Currency    string         `gorm:"size:3;default:'RWF'" json:"currency"`
	Type        domain.TxType  `gorm:"size:20;not null" json:"type"`
	Status      domain.TxStatus `gorm:"size:20;not null;index" json:"status"`

	FinancialTransactionID string `gorm:"size:128" json:"financial_transaction_id"`
	FailureReason          string `gorm:"size:255" json:"failure_reason,omitempty"`
	// Raw provider response, retained verbatim for audit.
	RawResponse string `gorm:"type:text" json:"-"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
