package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
)

type fakeDisburser struct {
	orders []uint
	actors []string
	err    error
}

func (f *fakeDisburser) ProcessOrder(ctx context.Context, orderID uint, actor string) (*models.DisbursementTransaction, error) {
	f.orders = append(f.orders, orderID)
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return &models.DisbursementTransaction{OrderID: orderID}, nil
}

func newReconciler(db *gorm.DB, disburser Disburser) *Reconciler {
	return NewReconciler(
		db,
		repository.NewPaymentTxRepository(db),
		repository.NewDisbursementRepository(db),
		repository.NewOrderRepository(db),
		repository.NewGatewayEventRepository(db),
		repository.NewAuditLogRepository(db),
		disburser,
	)
}

func expectPaymentTxRow(mock sqlmock.Sqlmock, status domain.TxStatus, txType domain.TxType) {
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(paymentTxColumns).AddRow(
			21, "pay-ref-1", "ext-1", 11, domain.GatewayMomo,
			"250781234567", 1100, "RWF", txType, status,
		))
}

func expectLockedOrderRow(mock sqlmock.Sqlmock, payment domain.PaymentStatus, version int64) {
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(orderColumns).AddRow(
			11, "GD-TEST1234", 3, 7,
			1000, 200, 100, 1100, "RWF",
			domain.OrderConfirmed, payment, "", "",
			version,
		))
}

func TestApplyCollectionSuccessMarksPaidAndDisburses(t *testing.T) {
	db, mock := newMockDB(t)
	disburser := &fakeDisburser{}
	r := newReconciler(db, disburser)

	mock.ExpectBegin()
	expectPaymentTxRow(mock, domain.TxPending, domain.TxCollection)
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // ledger
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1)) // tx row
	expectLockedOrderRow(mock, domain.PaymentPending, 0)
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1)) // order versioned
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // audit

	err := r.ApplyCollection(context.Background(), CollectionOutcome{
		Gateway:                domain.GatewayMomo,
		ExternalID:             "ext-1",
		Outcome:                domain.TxSuccess,
		FinancialTransactionID: "fin-999",
		RawBody:                `{"financialTransactionId":"fin-999"}`,
		Actor:                  "webhook:momo",
	})
	require.NoError(t, err)

	require.Len(t, disburser.orders, 1)
	assert.Equal(t, uint(11), disburser.orders[0])
	assert.Equal(t, domain.ActorReconciler, disburser.actors[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCollectionDuplicateIsRejected(t *testing.T) {
	db, mock := newMockDB(t)
	disburser := &fakeDisburser{}
	r := newReconciler(db, disburser)

	mock.ExpectBegin()
	expectPaymentTxRow(mock, domain.TxSuccess, domain.TxCollection)
	// No ledger row lands for a replayed callback.
	mock.ExpectRollback()

	err := r.ApplyCollection(context.Background(), CollectionOutcome{
		Gateway:    domain.GatewayMomo,
		ExternalID: "ext-1",
		Outcome:    domain.TxSuccess,
		RawBody:    `{}`,
		Actor:      "webhook:momo",
	})

	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.Empty(t, disburser.orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCollectionUnknownExternalID(t *testing.T) {
	db, mock := newMockDB(t)
	r := newReconciler(db, &fakeDisburser{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(paymentTxColumns))
	mock.ExpectRollback()

	err := r.ApplyCollection(context.Background(), CollectionOutcome{
		Gateway:    domain.GatewayAirtel,
		ExternalID: "never-issued",
		Outcome:    domain.TxFailed,
		RawBody:    `{}`,
		Actor:      "webhook:airtel",
	})

	assert.ErrorIs(t, err, domain.ErrUnknownTransaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCollectionIgnoresNonTerminalEcho(t *testing.T) {
	db, mock := newMockDB(t)
	disburser := &fakeDisburser{}
	r := newReconciler(db, disburser)

	mock.ExpectBegin()
	expectPaymentTxRow(mock, domain.TxPending, domain.TxCollection)
	mock.ExpectCommit()

	err := r.ApplyCollection(context.Background(), CollectionOutcome{
		Gateway:    domain.GatewayMomo,
		ExternalID: "ext-1",
		Outcome:    domain.TxPending,
		RawBody:    `{}`,
		Actor:      "webhook:momo",
	})

	assert.NoError(t, err)
	assert.Empty(t, disburser.orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCollectionFailureNeverDowngradesPaidOrder(t *testing.T) {
	db, mock := newMockDB(t)
	disburser := &fakeDisburser{}
	r := newReconciler(db, disburser)

	mock.ExpectBegin()
	expectPaymentTxRow(mock, domain.TxPending, domain.TxCollection)
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // ledger
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	expectLockedOrderRow(mock, domain.PaymentPaid, 1)
	// No order update follows: the PAID status stands.
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.ApplyCollection(context.Background(), CollectionOutcome{
		Gateway:    domain.GatewayMomo,
		ExternalID: "ext-1",
		Outcome:    domain.TxFailed,
		Reason:     "PAYER_DECLINED",
		RawBody:    `{}`,
		Actor:      "webhook:momo",
	})

	assert.NoError(t, err)
	assert.Empty(t, disburser.orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCollectionRefundSuccessMarksRefunded(t *testing.T) {
	db, mock := newMockDB(t)
	disburser := &fakeDisburser{}
	r := newReconciler(db, disburser)

	mock.ExpectBegin()
	expectPaymentTxRow(mock, domain.TxPending, domain.TxRefund)
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // ledger
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	expectLockedOrderRow(mock, domain.PaymentPaid, 2)
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.ApplyCollection(context.Background(), CollectionOutcome{
		Gateway:    domain.GatewayMomo,
		ExternalID: "ext-1",
		Outcome:    domain.TxSuccess,
		RawBody:    `{"financialTransactionId":"fin-refund"}`,
		Actor:      domain.ActorReconciler,
	})

	assert.NoError(t, err)
	// A refund settling never triggers a payout.
	assert.Empty(t, disburser.orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDisbursementSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	r := newReconciler(db, &fakeDisburser{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(disbursementColumns).AddRow(
			31, "dsb-ref-1", 11, 7, "250788000111",
			1100, 110, 990, "RWF", domain.TxPending,
		))
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // ledger
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	expectLockedOrderRow(mock, domain.PaymentPaid, 3)
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))

	err := r.ApplyDisbursement(context.Background(), DisbursementOutcome{
		Gateway:     domain.GatewayMomoDisbursement,
		ReferenceID: "dsb-ref-1",
		Outcome:     domain.TxSuccess,
		RawBody:     `{"financialTransactionId":"fin-disb"}`,
		Actor:       "webhook:disbursement",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDisbursementDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	r := newReconciler(db, &fakeDisburser{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(disbursementColumns).AddRow(
			31, "dsb-ref-1", 11, 7, "250788000111",
			1100, 110, 990, "RWF", domain.TxSuccess,
		))
	mock.ExpectRollback()

	err := r.ApplyDisbursement(context.Background(), DisbursementOutcome{
		Gateway:     domain.GatewayMomoDisbursement,
		ReferenceID: "dsb-ref-1",
		Outcome:     domain.TxSuccess,
		RawBody:     `{}`,
		Actor:       "webhook:disbursement",
	})

	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractFinancialID(t *testing.T) {
	assert.Equal(t, "fin-1", extractFinancialID(`{"financialTransactionId":"fin-1"}`))
	assert.Equal(t, "am-2", extractFinancialID(`{"data":{"transaction":{"airtel_money_id":"am-2"}}}`))
	assert.Equal(t, "", extractFinancialID(`{"unrelated":true}`))
	assert.Equal(t, "", extractFinancialID(""))
}
