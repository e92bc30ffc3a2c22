package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
)

// Disburser is the guarded disbursement entry point the reconciler invokes
// after a confirmed collection.
type Disburser interface {
	ProcessOrder(ctx context.Context, orderID uint, actor string) (*models.DisbursementTransaction, error)
}

// CollectionOutcome is a normalized provider verdict on a collection, from a
// webhook or a status poll.
type CollectionOutcome struct {
	Gateway                domain.Gateway
	ExternalID             string
	Outcome                domain.TxStatus
	FinancialTransactionID string
	Reason                 string
	RawBody                string
	Actor                  string
}

// DisbursementOutcome is the same for a payout.
type DisbursementOutcome struct {
	Gateway                domain.Gateway
	ReferenceID            string
	Outcome                domain.TxStatus
	FinancialTransactionID string
	Reason                 string
	RawBody                string
	Actor                  string
}

// Reconciler is the single choke point every gateway callback passes through.
// It deduplicates on terminal state, applies the outcome under a row lock, and
// never creates a transaction from a callback alone.
type Reconciler struct {
	db        *gorm.DB
	txRepo    *repository.PaymentTxRepository
	disbRepo  *repository.DisbursementRepository
	orderRepo *repository.OrderRepository
	eventRepo *repository.GatewayEventRepository
	auditRepo *repository.AuditLogRepository
	disburser Disburser
}

func NewReconciler(
	db *gorm.DB,
	txRepo *repository.PaymentTxRepository,
	disbRepo *repository.DisbursementRepository,
	orderRepo *repository.OrderRepository,
	eventRepo *repository.GatewayEventRepository,
	auditRepo *repository.AuditLogRepository,
	disburser Disburser,
) *Reconciler {
	return &Reconciler{
		db:        db,
		txRepo:    txRepo,
		disbRepo:  disbRepo,
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		auditRepo: auditRepo,
		disburser: disburser,
	}
}

// ApplyCollection records the callback in the ledger and applies the outcome.
// Returns ErrUnknownTransaction for external ids we never issued and
// ErrAlreadyProcessed for duplicates; both are acknowledged upstream.
func (r *Reconciler) ApplyCollection(ctx context.Context, o CollectionOutcome) error {
	if o.FinancialTransactionID == "" {
		o.FinancialTransactionID = extractFinancialID(o.RawBody)
	}

	var orderID uint
	var orderNumber string
	var txType domain.TxType
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		t, err := r.txRepo.GetByExternalIDForUpdate(dbtx, o.ExternalID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrUnknownTransaction
			}
			return err
		}
		if t.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}
		if !o.Outcome.Terminal() {
			// Provider echoed a still-pending state; nothing to apply.
			return nil
		}

		// Ledger row committed with the state change it caused, after the
		// dedup decision: a replayed callback leaves no trace here.
		if err := r.eventRepo.AppendTx(dbtx, &models.GatewayEvent{
			Gateway:     t.Gateway,
			Direction:   domain.EventCallback,
			ReferenceID: t.ReferenceID,
			ExternalID:  o.ExternalID,
			Outcome:     string(o.Outcome),
			RawPayload:  o.RawBody,
		}); err != nil {
			return err
		}

		now := time.Now()
		t.Status = o.Outcome
		t.CompletedAt = &now
		t.RawResponse = o.RawBody
		if o.Outcome == domain.TxSuccess {
			t.FinancialTransactionID = o.FinancialTransactionID
		} else {
			t.FailureReason = o.Reason
		}
		if err := r.txRepo.Update(dbtx, t); err != nil {
			return err
		}

		order, err := r.orderRepo.GetByIDForUpdate(dbtx, t.OrderID)
		if err != nil {
			return err
		}
		orderID = order.ID
		orderNumber = order.OrderNumber
		txType = t.Type

		var target domain.PaymentStatus
		switch {
		case t.Type == domain.TxRefund && o.Outcome == domain.TxSuccess:
			target = domain.PaymentRefunded
		case o.Outcome == domain.TxSuccess:
			target = domain.PaymentPaid
		default:
			target = domain.PaymentFailed
		}
		// A FAILED retry never downgrades an order that a prior attempt paid.
		if order.PaymentStatus == domain.PaymentPaid && target == domain.PaymentFailed {
			return nil
		}
		return r.orderRepo.UpdateVersioned(dbtx, order.ID, order.LockVersion, map[string]interface{}{
			"payment_status": target,
		})
	})
	if err != nil {
		if err == domain.ErrUnknownTransaction || err == domain.ErrAlreadyProcessed {
			return err
		}
		return fmt.Errorf("apply collection outcome: %w", err)
	}
	if orderID == 0 {
		return nil
	}

	_ = r.auditRepo.Create(&models.AuditLog{
		Actor:      o.Actor,
		Action:     "collection_" + statusWord(o.Outcome),
		Resource:   "payment_transaction",
		ResourceID: o.ExternalID,
		Metadata:   fmt.Sprintf(`{"order":%q,"gateway":%q}`, orderNumber, o.Gateway),
	})

	// Disbursement is triggered after the payment commit, never under the
	// lock; a miss here is compensated by the operator trigger or the sweep.
	if o.Outcome == domain.TxSuccess && txType == domain.TxCollection {
		if _, err := r.disburser.ProcessOrder(ctx, orderID, domain.ActorReconciler); err != nil {
			log.Printf("[reconciler] auto disbursement for order %d: %v", orderID, err)
		}
	}
	return nil
}

// ApplyDisbursement applies a payout verdict under the same dedup rules.
func (r *Reconciler) ApplyDisbursement(ctx context.Context, o DisbursementOutcome) error {
	if o.FinancialTransactionID == "" {
		o.FinancialTransactionID = extractFinancialID(o.RawBody)
	}

	var orderNumber string
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		d, err := r.disbRepo.GetByReferenceIDForUpdate(dbtx, o.ReferenceID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrUnknownTransaction
			}
			return err
		}
		if d.Status.Terminal() {
			return domain.ErrAlreadyProcessed
		}
		if !o.Outcome.Terminal() {
			return nil
		}

		if err := r.eventRepo.AppendTx(dbtx, &models.GatewayEvent{
			Gateway:     o.Gateway,
			Direction:   domain.EventCallback,
			ReferenceID: o.ReferenceID,
			ExternalID:  o.ReferenceID,
			Outcome:     string(o.Outcome),
			RawPayload:  o.RawBody,
		}); err != nil {
			return err
		}

		now := time.Now()
		d.Status = o.Outcome
		d.CompletedAt = &now
		d.RawResponse = o.RawBody
		if o.Outcome == domain.TxSuccess {
			d.FinancialTransactionID = o.FinancialTransactionID
		} else {
			d.FailureReason = o.Reason
		}
		if err := r.disbRepo.Update(dbtx, d); err != nil {
			return err
		}

		order, err := r.orderRepo.GetByIDForUpdate(dbtx, d.OrderID)
		if err != nil {
			return err
		}
		orderNumber = order.OrderNumber
		return r.orderRepo.UpdateVersioned(dbtx, order.ID, order.LockVersion, map[string]interface{}{
			"disbursement_status": o.Outcome,
		})
	})
	if err != nil {
		if err == domain.ErrUnknownTransaction || err == domain.ErrAlreadyProcessed {
			return err
		}
		return fmt.Errorf("apply disbursement outcome: %w", err)
	}
	if orderNumber == "" {
		return nil
	}
	_ = r.auditRepo.Create(&models.AuditLog{
		Actor:      o.Actor,
		Action:     "disbursement_" + statusWord(o.Outcome),
		Resource:   "disbursement_transaction",
		ResourceID: o.ReferenceID,
		Metadata:   fmt.Sprintf(`{"order":%q,"gateway":%q}`, orderNumber, o.Gateway),
	})
	return nil
}

// extractFinancialID digs the provider's financial transaction id out of a raw
// payload regardless of which gateway shaped it.
func extractFinancialID(raw string) string {
	for _, path := range []string{"financialTransactionId", "data.transaction.airtel_money_id", "transaction_id", "receipt_number"} {
		if v := gjson.Get(raw, path); v.Exists() {
			return v.String()
		}
	}
	return ""
}

func statusWord(s domain.TxStatus) string {
	switch s {
	case domain.TxSuccess:
		return "succeeded"
	case domain.TxFailed:
		return "failed"
	case domain.TxCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}
