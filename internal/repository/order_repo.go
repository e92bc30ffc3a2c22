package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}

func (r *OrderRepository) Create(tx *gorm.DB, o *models.Order) error {
	return tx.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.Preload("Items").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByIDForUpdate reads the order row under SELECT ... FOR UPDATE. Must be
// called inside a transaction.
func (r *OrderRepository) GetByIDForUpdate(tx *gorm.DB, id uint) (*models.Order, error) {
	var o models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) ListByCustomer(customerID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// UpdateVersioned applies updates only if the order's lock_version still
// matches expected, bumping the version in the same statement. Zero rows
// affected means another writer got there first.
func (r *OrderRepository) UpdateVersioned(tx *gorm.DB, orderID uint, expectedVersion uint, updates map[string]interface{}) error {
	updates["lock_version"] = expectedVersion + 1
	res := tx.Model(&models.Order{}).
		Where("id = ? AND lock_version = ?", orderID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}
