package repository

import (
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
)

// GatewayEventRepository appends to the transaction ledger. There is no update
// or delete path on purpose.
type GatewayEventRepository struct {
	db *gorm.DB
}

func NewGatewayEventRepository(db *gorm.DB) *GatewayEventRepository {
	return &GatewayEventRepository{db: db}
}

func (r *GatewayEventRepository) Append(e *models.GatewayEvent) error {
	return r.db.Create(e).Error
}

func (r *GatewayEventRepository) AppendTx(tx *gorm.DB, e *models.GatewayEvent) error {
	return tx.Create(e).Error
}

func (r *GatewayEventRepository) ListByReferenceID(ref string) ([]models.GatewayEvent, error) {
	var events []models.GatewayEvent
	err := r.db.Where("reference_id = ?", ref).Order("created_at ASC").Find(&events).Error
	return events, err
}

func (r *GatewayEventRepository) CountByExternalID(ext string) (int64, error) {
	var count int64
	err := r.db.Model(&models.GatewayEvent{}).Where("external_id = ?", ext).Count(&count).Error
	return count, err
}
