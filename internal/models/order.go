package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

type Order struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	OrderNumber   string               `gorm:"size:40;uniqueIndex;not null" json:"order_number"`
	CustomerID    uint                 `gorm:"not null;index" json:"customer_id"`
	RestaurantID  uint                 `gorm:"not null;index" json:"restaurant_id"`
	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items"`
	SubTotal      int64                `gorm:"not null" json:"sub_total"`
	DeliveryFee   int64                `gorm:"not null" json:"delivery_fee"`
	Discount      int64                `gorm:"not null" json:"discount_amount"`
	FinalAmount   int64                `gorm:"not null" json:"final_amount"`
	Currency      string               `gorm:"size:3;default:'RWF'" json:"currency"`
	OrderStatus   domain.OrderStatus   `gorm:"size:20;not null;index" json:"order_status"`
	PaymentStatus domain.PaymentStatus `gorm:"size:20;not null;index" json:"payment_status"`

	// Denormalized payout summary for fast reads; the disbursement_transactions
	// table is the source of truth.
	DisbursementReference string          `gorm:"size:64;index" json:"disbursement_reference"`
	DisbursementStatus    domain.TxStatus `gorm:"size:20" json:"disbursement_status"`

	// Optimistic concurrency token: every status write must match and bump it.
	LockVersion uint `gorm:"not null;default:0" json:"-"`

	CancelReason string         `gorm:"size:255" json:"cancel_reason,omitempty"`
	PlacedAt     time.Time      `json:"placed_at"`
	ConfirmedAt  *time.Time     `json:"confirmed_at"`
	PreparingAt  *time.Time     `json:"preparing_at"`
	ReadyAt      *time.Time     `json:"ready_at"`
	PickedUpAt   *time.Time     `json:"picked_up_at"`
	DeliveredAt  *time.Time     `json:"delivered_at"`
	CancelledAt  *time.Time     `json:"cancelled_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is an immutable snapshot of a menu item at order time.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	MenuItemID uint      `gorm:"not null" json:"menu_item_id"`
	Name       string    `gorm:"size:120;not null" json:"name"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
