package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

// PaymentService drives outbound collections. The PENDING record and the
// ledger row are committed before the provider is called, so a crash or
// timeout mid-call can always be reconciled later.
type PaymentService struct {
	db          *gorm.DB
	txRepo      *repository.PaymentTxRepository
	orderRepo   *repository.OrderRepository
	eventRepo   *repository.GatewayEventRepository
	auditRepo   *repository.AuditLogRepository
	reconciler  *Reconciler
	providers   map[domain.Gateway]gateway.CollectionProvider
	callTimeout time.Duration
}

func NewPaymentService(
	db *gorm.DB,
	txRepo *repository.PaymentTxRepository,
	orderRepo *repository.OrderRepository,
	eventRepo *repository.GatewayEventRepository,
	auditRepo *repository.AuditLogRepository,
	reconciler *Reconciler,
	providers map[domain.Gateway]gateway.CollectionProvider,
) *PaymentService {
	return &PaymentService{
		db:          db,
		txRepo:      txRepo,
		orderRepo:   orderRepo,
		eventRepo:   eventRepo,
		auditRepo:   auditRepo,
		reconciler:  reconciler,
		providers:   providers,
		callTimeout: 35 * time.Second,
	}
}

// RequestCollection initiates a collection for the order's final amount and
// returns the transaction with its reference id. The provider confirms
// asynchronously; a synchronous definitive rejection marks the transaction
// FAILED, while a timeout leaves it PENDING for the webhook or sweep.
func (s *PaymentService) RequestCollection(ctx context.Context, orderID uint, msisdn string, amount int64, gw domain.Gateway, actor string) (*models.PaymentTransaction, error) {
	provider, ok := s.providers[gw]
	if !ok {
		return nil, domain.Validationf("unsupported gateway %s", gw)
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus == domain.OrderCancelled {
		return nil, domain.Validationf("order %s is cancelled", order.OrderNumber)
	}
	if order.PaymentStatus == domain.PaymentPaid {
		return nil, domain.ErrAlreadyProcessed
	}
	if amount != order.FinalAmount {
		return nil, domain.Validationf("amount %d does not match order final amount %d", amount, order.FinalAmount)
	}

	ref := fmt.Sprintf("pay-%s", uuid.New().String())
	tx := &models.PaymentTransaction{
		ReferenceID: ref,
		// ExternalID starts as the reference id; providers that assign their
		// own id overwrite it from the synchronous response.
		ExternalID: ref,
		OrderID:    order.ID,
		Gateway:    gw,
		Msisdn:     msisdn,
		Amount:     amount,
		Currency:   order.Currency,
		Type:       domain.TxCollection,
		Status:     domain.TxPending,
	}
	if err := s.txRepo.Create(tx); err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}
	_ = s.eventRepo.Append(&models.GatewayEvent{
		Gateway:     gw,
		Direction:   domain.EventRequest,
		ReferenceID: ref,
		ExternalID:  tx.ExternalID,
		Outcome:     string(domain.TxPending),
		RawPayload:  fmt.Sprintf(`{"order_id":%d,"msisdn":%q,"amount":%d}`, order.ID, msisdn, amount),
	})
	_ = s.auditRepo.Create(&models.AuditLog{
		Actor:      actor,
		Action:     "collection_requested",
		Resource:   "payment_transaction",
		ResourceID: ref,
		Metadata:   fmt.Sprintf(`{"order":%q,"gateway":%q,"amount":%d}`, order.OrderNumber, gw, amount),
	})

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	resp, err := provider.RequestToPay(callCtx, gateway.CollectionRequest{
		ReferenceID: ref,
		Msisdn:      msisdn,
		Amount:      amount,
		Currency:    order.Currency,
		Note:        order.OrderNumber,
	})
	if err != nil {
		if domain.IsDefinitiveGatewayFailure(err) {
			log.Printf("[payment] %s rejected ref=%s: %v", gw, ref, err)
			_ = s.txRepo.MarkFailed(ref, err.Error())
			return s.txRepo.GetByReferenceID(ref)
		}
		// Timeout or transport fault: the provider may still process the
		// charge, so the transaction stays PENDING.
		log.Printf("[payment] %s unreachable ref=%s, left PENDING: %v", gw, ref, err)
		return tx, nil
	}

	externalID := tx.ExternalID
	if resp.ExternalID != "" {
		externalID = resp.ExternalID
	}
	// Guarded write: a webhook may have resolved the row while the call was in
	// flight, and a terminal record is never re-opened.
	if err := s.txRepo.StoreProviderResponse(ref, externalID, resp.RawBody); err != nil {
		return nil, fmt.Errorf("store provider response: %w", err)
	}
	return s.txRepo.GetByReferenceID(ref)
}

// QueryStatus is the active poll fallback. A terminal answer from the
// provider goes through the reconciler, never applied directly, so the
// webhook and poll paths share the same terminal-state rules.
func (s *PaymentService) QueryStatus(ctx context.Context, referenceID string) (*models.PaymentTransaction, error) {
	tx, err := s.txRepo.GetByReferenceID(referenceID)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		return tx, nil
	}
	provider, ok := s.providers[tx.Gateway]
	if !ok {
		return tx, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	status, err := provider.QueryStatus(callCtx, tx.ExternalID)
	if err != nil {
		log.Printf("[payment] status query ref=%s failed: %v", referenceID, err)
		return tx, nil
	}
	if !status.Outcome.Terminal() {
		return tx, nil
	}
	if err := s.reconciler.ApplyCollection(ctx, CollectionOutcome{
		Gateway:                tx.Gateway,
		ExternalID:             tx.ExternalID,
		Outcome:                status.Outcome,
		FinancialTransactionID: status.FinancialTransactionID,
		Reason:                 status.Reason,
		RawBody:                status.RawBody,
		Actor:                  domain.ActorReconciler,
	}); err != nil && err != domain.ErrAlreadyProcessed {
		return nil, err
	}
	return s.txRepo.GetByReferenceID(referenceID)
}
