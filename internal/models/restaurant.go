package models

import (
	"time"

	"gorm.io/gorm"
)

type Restaurant struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:120;not null" json:"name"`
	PayoutMsisdn string         `gorm:"size:20;not null" json:"payout_msisdn"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Restaurant) TableName() string {
	return "restaurants"
}

type MenuItem struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	RestaurantID uint           `gorm:"not null;index" json:"restaurant_id"`
	Name         string         `gorm:"size:120;not null" json:"name"`
	Price        int64          `gorm:"not null" json:"price"`
	IsAvailable  bool           `gorm:"default:true" json:"is_available"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MenuItem) TableName() string {
	return "menu_items"
}

// PlatformAgreement carries the commission terms for a restaurant. The active
// agreement is the source of the disbursement commission rate.
type PlatformAgreement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RestaurantID   uint      `gorm:"not null;index" json:"restaurant_id"`
	CommissionRate float64   `gorm:"not null" json:"commission_rate"` // e.g. 0.10
	Active         bool      `gorm:"not null;index" json:"active"`
	EffectiveFrom  time.Time `json:"effective_from"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PlatformAgreement) TableName() string {
	return "platform_agreements"
}
