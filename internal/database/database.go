package database

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.MenuItem{},
		&models.PlatformAgreement{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentTransaction{},
		&models.DisbursementTransaction{},
		&models.GatewayEvent{},
		&models.AuditLog{},
	)
}

// SeedOperator ensures at least one operator account exists so the manual
// disbursement endpoints are reachable on a fresh install.
func SeedOperator(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleOperator).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("operator123"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] bcrypt: %v", err)
		return
	}
	op := &models.User{
		Email:        "operator@godelivery.local",
		PasswordHash: string(hash),
		Role:         domain.RoleOperator,
		IsActive:     true,
	}
	if err := db.Create(op).Error; err != nil {
		log.Printf("[seed] operator: %v", err)
		return
	}
	log.Printf("[seed] created default operator %s (change the password)", op.Email)
}

// SeedDemoData creates a sample restaurant with a menu and commission
// agreement so a fresh development install can run a full checkout-to-payout
// cycle. Not for production environments.
func SeedDemoData(db *gorm.DB) {
	var count int64
	db.Model(&models.Restaurant{}).Count(&count)
	if count > 0 {
		return
	}
	restaurant := &models.Restaurant{
		Name:         "Kigali Bites",
		PayoutMsisdn: "250788000111",
		IsActive:     true,
	}
	if err := db.Create(restaurant).Error; err != nil {
		log.Printf("[seed] restaurant: %v", err)
		return
	}
	menu := []models.MenuItem{
		{RestaurantID: restaurant.ID, Name: "Chips Mayai", Price: 2500, IsAvailable: true},
		{RestaurantID: restaurant.ID, Name: "Brochette", Price: 1500, IsAvailable: true},
		{RestaurantID: restaurant.ID, Name: "Fanta Citron", Price: 800, IsAvailable: true},
	}
	if err := db.Create(&menu).Error; err != nil {
		log.Printf("[seed] menu: %v", err)
	}
	agreement := &models.PlatformAgreement{
		RestaurantID:   restaurant.ID,
		CommissionRate: 0.10,
		Active:         true,
		EffectiveFrom:  time.Now(),
	}
	if err := db.Create(agreement).Error; err != nil {
		log.Printf("[seed] agreement: %v", err)
	}
	log.Printf("[seed] created demo restaurant %q with %d menu items", restaurant.Name, len(menu))
}
