package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
)

type DisbursementRepository struct {
	db *gorm.DB
}

func NewDisbursementRepository(db *gorm.DB) *DisbursementRepository {
	return &DisbursementRepository{db: db}
}

func (r *DisbursementRepository) Create(tx *gorm.DB, d *models.DisbursementTransaction) error {
	return tx.Create(d).Error
}

func (r *DisbursementRepository) GetByReferenceID(ref string) (*models.DisbursementTransaction, error) {
	var d models.DisbursementTransaction
	err := r.db.Where("reference_id = ?", ref).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DisbursementRepository) GetByReferenceIDForUpdate(tx *gorm.DB, ref string) (*models.DisbursementTransaction, error) {
	var d models.DisbursementTransaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference_id = ?", ref).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DisbursementRepository) GetLatestByOrderID(orderID uint) (*models.DisbursementTransaction, error) {
	var d models.DisbursementTransaction
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CountNonFailedForOrder counts attempts that are PENDING or SUCCESS for the
// order, under a row lock so concurrent triggers serialize on the same check.
func (r *DisbursementRepository) CountNonFailedForOrder(tx *gorm.DB, orderID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.DisbursementTransaction{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND status <> ?", orderID, domain.TxFailed).
		Count(&count).Error
	return count, err
}

func (r *DisbursementRepository) Update(tx *gorm.DB, d *models.DisbursementTransaction) error {
	return tx.Save(d).Error
}

// StoreProviderResponse records the synchronous transfer response on a
// still-PENDING payout. Guarded so a callback that resolved the row while the
// call was in flight is never overwritten.
func (r *DisbursementRepository) StoreProviderResponse(referenceID, rawBody string) error {
	return r.db.Model(&models.DisbursementTransaction{}).
		Where("reference_id = ? AND status = ?", referenceID, domain.TxPending).
		Updates(map[string]interface{}{
			"raw_response": rawBody,
		}).Error
}

func (r *DisbursementRepository) MarkFailed(referenceID, reason string) error {
	now := time.Now()
	return r.db.Model(&models.DisbursementTransaction{}).
		Where("reference_id = ? AND status = ?", referenceID, domain.TxPending).
		Updates(map[string]interface{}{
			"status":         domain.TxFailed,
			"failure_reason": reason,
			"completed_at":   &now,
		}).Error
}

func (r *DisbursementRepository) ListPendingOlderThan(cutoff time.Time, limit int) ([]models.DisbursementTransaction, error) {
	var ds []models.DisbursementTransaction
	err := r.db.Where("status = ? AND created_at < ?", domain.TxPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&ds).Error
	return ds, err
}
