package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
)

type PaymentTxRepository struct {
	db *gorm.DB
}

func NewPaymentTxRepository(db *gorm.DB) *PaymentTxRepository {
	return &PaymentTxRepository{db: db}
}

func (r *PaymentTxRepository) Create(t *models.PaymentTransaction) error {
	return r.db.Create(t).Error
}

func (r *PaymentTxRepository) GetByReferenceID(ref string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := r.db.Where("reference_id = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PaymentTxRepository) GetByExternalID(ext string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := r.db.Where("external_id = ?", ext).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByExternalIDForUpdate locks the transaction row. Must run inside a
// transaction.
func (r *PaymentTxRepository) GetByExternalIDForUpdate(tx *gorm.DB, ext string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_id = ?", ext).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PaymentTxRepository) GetByReferenceIDForUpdate(tx *gorm.DB, ref string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference_id = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PaymentTxRepository) Update(tx *gorm.DB, t *models.PaymentTransaction) error {
	return tx.Save(t).Error
}

// StoreProviderResponse records the synchronous provider response on a
// still-PENDING transaction. The status guard keeps this write from clobbering
// a row a webhook resolved while the gateway call was in flight; zero rows
// affected means the webhook won and the response is dropped.
func (r *PaymentTxRepository) StoreProviderResponse(referenceID, externalID, rawBody string) error {
	return r.db.Model(&models.PaymentTransaction{}).
		Where("reference_id = ? AND status = ?", referenceID, domain.TxPending).
		Updates(map[string]interface{}{
			"external_id":  externalID,
			"raw_response": rawBody,
		}).Error
}

// MarkFailed moves a still-PENDING transaction to FAILED. The status guard in
// the WHERE clause keeps a terminal row from being re-opened.
func (r *PaymentTxRepository) MarkFailed(referenceID, reason string) error {
	now := time.Now()
	return r.db.Model(&models.PaymentTransaction{}).
		Where("reference_id = ? AND status = ?", referenceID, domain.TxPending).
		Updates(map[string]interface{}{
			"status":         domain.TxFailed,
			"failure_reason": reason,
			"completed_at":   &now,
		}).Error
}

// ListPendingOlderThan returns PENDING collections that have outlived the
// grace period, for the reconciliation sweep.
func (r *PaymentTxRepository) ListPendingOlderThan(cutoff time.Time, limit int) ([]models.PaymentTransaction, error) {
	var txs []models.PaymentTransaction
	err := r.db.Where("status = ? AND created_at < ?", domain.TxPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
