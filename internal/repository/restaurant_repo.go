package repository

import (
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
)

type RestaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

func (r *RestaurantRepository) GetByID(id uint) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.db.First(&rest, id).Error
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

// GetActiveAgreement returns the restaurant's active platform agreement, the
// source of the commission rate.
func (r *RestaurantRepository) GetActiveAgreement(restaurantID uint) (*models.PlatformAgreement, error) {
	var a models.PlatformAgreement
	err := r.db.Where("restaurant_id = ? AND active = ?", restaurantID, true).
		Order("effective_from DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *RestaurantRepository) GetMenuItems(restaurantID uint, ids []uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Where("restaurant_id = ? AND id IN ?", restaurantID, ids).Find(&items).Error
	return items, err
}
