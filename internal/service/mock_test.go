package service

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// matchAny accepts whatever SQL gorm generates; the tests assert on call
// order, arguments and returned rows instead of SQL text.
var matchAny = sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error { return nil })

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matchAny))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return gormDB, mock
}

var orderColumns = []string{
	"id", "order_number", "customer_id", "restaurant_id",
	"sub_total", "delivery_fee", "discount", "final_amount", "currency",
	"order_status", "payment_status", "disbursement_reference", "disbursement_status",
	"lock_version",
}

var paymentTxColumns = []string{
	"id", "reference_id", "external_id", "order_id", "gateway",
	"msisdn", "amount", "currency", "type", "status",
}

var disbursementColumns = []string{
	"id", "reference_id", "order_id", "restaurant_id", "msisdn",
	"gross_amount", "commission", "net_amount", "currency", "status",
}
