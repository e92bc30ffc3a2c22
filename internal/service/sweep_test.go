package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

func TestSweepResolvesStuckCollection(t *testing.T) {
	db, mock := newMockDB(t)
	collStub := gateway.NewStubProvider(domain.GatewayMomo)
	disbStub := gateway.NewStubProvider(domain.GatewayMomoDisbursement)
	disburser := &fakeDisburser{}
	sweep := NewSweepService(
		repository.NewPaymentTxRepository(db),
		repository.NewDisbursementRepository(db),
		newReconciler(db, disburser),
		map[domain.Gateway]gateway.CollectionProvider{domain.GatewayMomo: collStub},
		disbStub,
		15*time.Minute,
	)
	collStub.Outcomes["ext-1"] = domain.TxSuccess

	// One stuck collection, no stuck disbursements.
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(paymentTxColumns).AddRow(
			21, "pay-ref-1", "ext-1", 11, domain.GatewayMomo,
			"250781234567", 1100, "RWF", domain.TxCollection, domain.TxPending,
		))
	mock.ExpectBegin()
	expectPaymentTxRow(mock, domain.TxPending, domain.TxCollection)
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // ledger
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	expectLockedOrderRow(mock, domain.PaymentPending, 0)
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // audit
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(disbursementColumns))

	sweep.RunOnce(context.Background())

	require.Len(t, disburser.orders, 1)
	assert.Equal(t, uint(11), disburser.orders[0])
	assert.Equal(t, domain.ActorReconciler, disburser.actors[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepSkipsStillPendingProviderAnswer(t *testing.T) {
	db, mock := newMockDB(t)
	collStub := gateway.NewStubProvider(domain.GatewayMomo)
	disbStub := gateway.NewStubProvider(domain.GatewayMomoDisbursement)
	disburser := &fakeDisburser{}
	sweep := NewSweepService(
		repository.NewPaymentTxRepository(db),
		repository.NewDisbursementRepository(db),
		newReconciler(db, disburser),
		map[domain.Gateway]gateway.CollectionProvider{domain.GatewayMomo: collStub},
		disbStub,
		15*time.Minute,
	)
	// collStub answers PENDING for unknown external ids.

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(paymentTxColumns).AddRow(
			21, "pay-ref-1", "ext-1", 11, domain.GatewayMomo,
			"250781234567", 1100, "RWF", domain.TxCollection, domain.TxPending,
		))
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(disbursementColumns))

	sweep.RunOnce(context.Background())

	assert.Empty(t, disburser.orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepResolvesStuckDisbursement(t *testing.T) {
	db, mock := newMockDB(t)
	disbStub := gateway.NewStubProvider(domain.GatewayMomoDisbursement)
	disburser := &fakeDisburser{}
	sweep := NewSweepService(
		repository.NewPaymentTxRepository(db),
		repository.NewDisbursementRepository(db),
		newReconciler(db, disburser),
		map[domain.Gateway]gateway.CollectionProvider{},
		disbStub,
		15*time.Minute,
	)
	disbStub.Outcomes["dsb-ref-1"] = domain.TxSuccess

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(paymentTxColumns))
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(disbursementColumns).AddRow(
			31, "dsb-ref-1", 11, 7, "250788000111",
			1100, 110, 990, "RWF", domain.TxPending,
		))
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
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1)) // audit

	sweep.RunOnce(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}
