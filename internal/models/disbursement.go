package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// DisbursementTransaction is one payout attempt to a restaurant for a paid
// order. At most one non-FAILED row may exist per order; a retry after a
// failure is a fresh row with a fresh reference id.
type DisbursementTransaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ReferenceID  string          `gorm:"size:64;uniqueIndex;not null" json:"reference_id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	RestaurantID uint            `gorm:"not null;index" json:"restaurant_id"`
	Msisdn       string          `gorm:"size:20;not null" json:"msisdn"`
	GrossAmount  int64           `gorm:"not null" json:"gross_amount"`
	Commission   int64           `gorm:"not null" json:"commission_amount"`
	NetAmount    int64           `gorm:"not null" json:"net_amount"`
	Currency     string          `gorm:"size:3;default:'RWF'" json:"currency"`
	Status       domain.TxStatus `gorm:"size:20;not null;index" json:"status"`

	FinancialTransactionID string `gorm:"size:128" json:"financial_transaction_id"`
	FailureReason          string `gorm:"size:255" json:"failure_reason,omitempty"`
	RawResponse            string `gorm:"type:text" json:"-"`

	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DisbursementTransaction) TableName() string {
	return "disbursement_transactions"
}
