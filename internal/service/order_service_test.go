package service

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
)

func newOrderService(t *testing.T) (*OrderService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	svc := NewOrderService(
		db,
		repository.NewOrderRepository(db),
		repository.NewRestaurantRepository(db),
		repository.NewAuditLogRepository(db),
	)
	return svc, mock
}

func TestCreateOrderComputesTotalsFromMenu(t *testing.T) {
	svc, mock := newOrderService(t)

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "restaurant_id", "name", "price", "is_available"}).
			AddRow(1, 7, "Chips", 300, true).
			AddRow(2, 7, "Brochette", 400, true))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))

	order, err := svc.CreateOrder(context.Background(), 3, 7, []CheckoutItem{
		{MenuItemID: 1, Quantity: 2},
		{MenuItemID: 2, Quantity: 1},
	}, 200, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(1000), order.SubTotal)
	assert.Equal(t, int64(1100), order.FinalAmount)
	assert.Equal(t, domain.OrderPlaced, order.OrderStatus)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "GD-"))
	assert.Len(t, order.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	svc, mock := newOrderService(t)

	_, err := svc.CreateOrder(context.Background(), 3, 7, nil, 0, 0)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsNonPositiveQuantity(t *testing.T) {
	svc, mock := newOrderService(t)

	_, err := svc.CreateOrder(context.Background(), 3, 7, []CheckoutItem{{MenuItemID: 1, Quantity: 0}}, 0, 0)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRejectsUnavailableItem(t *testing.T) {
	svc, mock := newOrderService(t)

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "restaurant_id", "name", "price", "is_available"}).
			AddRow(1, 7, "Chips", 300, false))

	_, err := svc.CreateOrder(context.Background(), 3, 7, []CheckoutItem{{MenuItemID: 1, Quantity: 1}}, 0, 0)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectOrderLoad(mock sqlmock.Sqlmock, id int64, status domain.OrderStatus, payment domain.PaymentStatus, version int64) {
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(orderColumns).AddRow(
			id, "GD-TEST1234", 3, 7,
			1000, 200, 100, 1100, "RWF",
			status, payment, "", "",
			version,
		))
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "unit_price", "quantity"}))
}

func TestTransitionHappyPath(t *testing.T) {
	svc, mock := newOrderService(t)

	expectOrderLoad(mock, 11, domain.OrderPlaced, domain.PaymentPending, 0)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	expectOrderLoad(mock, 11, domain.OrderConfirmed, domain.PaymentPending, 1)

	order, err := svc.Transition(context.Background(), 11, domain.OrderConfirmed, "restaurant:owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed, order.OrderStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRejectsSkippingAhead(t *testing.T) {
	svc, mock := newOrderService(t)

	expectOrderLoad(mock, 11, domain.OrderPlaced, domain.PaymentPending, 0)

	_, err := svc.Transition(context.Background(), 11, domain.OrderDelivered, "biker:b@example.com")

	var ist *domain.InvalidStateTransition
	require.ErrorAs(t, err, &ist)
	assert.Equal(t, domain.OrderPlaced, ist.From)
	assert.Equal(t, domain.OrderDelivered, ist.To)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRejectsTerminalOrder(t *testing.T) {
	svc, mock := newOrderService(t)

	expectOrderLoad(mock, 11, domain.OrderDelivered, domain.PaymentPaid, 5)

	_, err := svc.Transition(context.Background(), 11, domain.OrderConfirmed, "operator:op@example.com")

	var ist *domain.InvalidStateTransition
	assert.ErrorAs(t, err, &ist)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionLosesVersionRace(t *testing.T) {
	svc, mock := newOrderService(t)

	expectOrderLoad(mock, 11, domain.OrderPlaced, domain.PaymentPending, 0)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Transition(context.Background(), 11, domain.OrderConfirmed, "restaurant:owner@example.com")

	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPaidOrderKeepsPaymentPaid(t *testing.T) {
	svc, mock := newOrderService(t)

	expectOrderLoad(mock, 11, domain.OrderConfirmed, domain.PaymentPaid, 2)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	expectOrderLoad(mock, 11, domain.OrderCancelled, domain.PaymentPaid, 3)

	order, err := svc.CancelOrder(context.Background(), 11, "customer changed mind", "customer:3")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, order.OrderStatus)
	assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectsDeliveredOrder(t *testing.T) {
	svc, mock := newOrderService(t)

	expectOrderLoad(mock, 11, domain.OrderDelivered, domain.PaymentPaid, 5)

	_, err := svc.CancelOrder(context.Background(), 11, "too late", "customer:3")

	var ist *domain.InvalidStateTransition
	assert.ErrorAs(t, err, &ist)
	assert.NoError(t, mock.ExpectationsWereMet())
}
