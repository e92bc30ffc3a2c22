package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

// DisbursementService pays restaurants their net share after a verified
// collection. ProcessOrder is the single guarded entry point for both the
// automatic (reconciler) and manual (operator) paths, so the double-payment
// precondition lives in exactly one place.
type DisbursementService struct {
	db             *gorm.DB
	orderRepo      *repository.OrderRepository
	disbRepo       *repository.DisbursementRepository
	restaurantRepo *repository.RestaurantRepository
	eventRepo      *repository.GatewayEventRepository
	auditRepo      *repository.AuditLogRepository
	provider       gateway.DisbursementProvider
	callTimeout    time.Duration
}

func NewDisbursementService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	disbRepo *repository.DisbursementRepository,
	restaurantRepo *repository.RestaurantRepository,
	eventRepo *repository.GatewayEventRepository,
	auditRepo *repository.AuditLogRepository,
	provider gateway.DisbursementProvider,
) *DisbursementService {
	return &DisbursementService{
		db:             db,
		orderRepo:      orderRepo,
		disbRepo:       disbRepo,
		restaurantRepo: restaurantRepo,
		eventRepo:      eventRepo,
		auditRepo:      auditRepo,
		provider:       provider,
		callTimeout:    35 * time.Second,
	}
}

// ComputeCommission splits a gross amount by rate, rounding the commission
// half-up. net + commission == gross always.
func ComputeCommission(gross int64, rate float64) (commission, net int64) {
	commission = int64(math.Round(float64(gross) * rate))
	net = gross - commission
	return commission, net
}

// ProcessOrder issues a payout for a PAID order with no prior non-failed
// attempt. The preconditions are checked under row locks in one transaction;
// the gateway call happens only after that transaction commits.
func (s *DisbursementService) ProcessOrder(ctx context.Context, orderID uint, actor string) (*models.DisbursementTransaction, error) {
	var (
		d          *models.DisbursementTransaction
		restaurant *models.Restaurant
	)
	err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		order, err := s.orderRepo.GetByIDForUpdate(dbtx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus != domain.PaymentPaid {
			return domain.ErrOrderNotPaid
		}
		count, err := s.disbRepo.CountNonFailedForOrder(dbtx, order.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadyProcessed
		}

		restaurant, err = s.restaurantRepo.GetByID(order.RestaurantID)
		if err != nil {
			return fmt.Errorf("load restaurant %d: %w", order.RestaurantID, err)
		}
		agreement, err := s.restaurantRepo.GetActiveAgreement(order.RestaurantID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.Validationf("restaurant %d has no active platform agreement", order.RestaurantID)
			}
			return err
		}

		gross := order.FinalAmount
		commission, net := ComputeCommission(gross, agreement.CommissionRate)
		d = &models.DisbursementTransaction{
			ReferenceID:  fmt.Sprintf("dsb-%s", uuid.New().String()),
			OrderID:      order.ID,
			RestaurantID: order.RestaurantID,
			Msisdn:       restaurant.PayoutMsisdn,
			GrossAmount:  gross,
			Commission:   commission,
			NetAmount:    net,
			Currency:     order.Currency,
			Status:       domain.TxPending,
		}
		if err := s.disbRepo.Create(dbtx, d); err != nil {
			return err
		}
		if err := s.eventRepo.AppendTx(dbtx, &models.GatewayEvent{
			Gateway:     s.provider.Name(),
			Direction:   domain.EventRequest,
			ReferenceID: d.ReferenceID,
			ExternalID:  d.ReferenceID,
			Outcome:     string(domain.TxPending),
			RawPayload:  fmt.Sprintf(`{"order":%q,"gross":%d,"commission":%d,"net":%d}`, order.OrderNumber, gross, commission, net),
		}); err != nil {
			return err
		}
		return s.orderRepo.UpdateVersioned(dbtx, order.ID, order.LockVersion, map[string]interface{}{
			"disbursement_reference": d.ReferenceID,
			"disbursement_status":    domain.TxPending,
		})
	})
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Create(&models.AuditLog{
		Actor:      actor,
		Action:     "disbursement_requested",
		Resource:   "disbursement_transaction",
		ResourceID: d.ReferenceID,
		Metadata:   fmt.Sprintf(`{"order_id":%d,"gross":%d,"commission":%d,"net":%d}`, orderID, d.GrossAmount, d.Commission, d.NetAmount),
	})

	// Gateway call outside any lock. A definitive rejection fails this
	// attempt; a timeout leaves it PENDING for the sweep to resolve.
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	resp, err := s.provider.Transfer(callCtx, gateway.TransferRequest{
		ReferenceID: d.ReferenceID,
		Msisdn:      restaurant.PayoutMsisdn,
		Amount:      d.NetAmount,
		Currency:    d.Currency,
		Note:        fmt.Sprintf("Payout for order %d", orderID),
	})
	if err != nil {
		if domain.IsDefinitiveGatewayFailure(err) {
			log.Printf("[disbursement] %s rejected ref=%s: %v", s.provider.Name(), d.ReferenceID, err)
			_ = s.disbRepo.MarkFailed(d.ReferenceID, err.Error())
			return s.disbRepo.GetByReferenceID(d.ReferenceID)
		}
		log.Printf("[disbursement] %s unreachable ref=%s, left PENDING: %v", s.provider.Name(), d.ReferenceID, err)
		return d, nil
	}
	// Guarded write: a callback may have resolved the payout while the call was
	// in flight, and a terminal record is never re-opened.
	if err := s.disbRepo.StoreProviderResponse(d.ReferenceID, resp.RawBody); err != nil {
		return nil, fmt.Errorf("store provider response: %w", err)
	}
	return s.disbRepo.GetByReferenceID(d.ReferenceID)
}

// Status returns the payout summary for an order.
func (s *DisbursementService) Status(orderID uint) (*models.Order, *models.DisbursementTransaction, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.disbRepo.GetLatestByOrderID(orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return order, nil, nil
		}
		return nil, nil, err
	}
	return order, d, nil
}
