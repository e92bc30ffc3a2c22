package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
)

// OrderService owns the order lifecycle. It is the only writer of
// orderStatus; paymentStatus and the disbursement summary fields are written
// here and by the reconciler.
type OrderService struct {
	db             *gorm.DB
	orderRepo      *repository.OrderRepository
	restaurantRepo *repository.RestaurantRepository
	auditRepo      *repository.AuditLogRepository
}

func NewOrderService(db *gorm.DB, orderRepo *repository.OrderRepository, restaurantRepo *repository.RestaurantRepository, auditRepo *repository.AuditLogRepository) *OrderService {
	return &OrderService{db: db, orderRepo: orderRepo, restaurantRepo: restaurantRepo, auditRepo: auditRepo}
}

type CheckoutItem struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,min=1"`
}

// CreateOrder validates the cart and creates the order in PLACED/PENDING.
// Totals are recomputed from menu rows; client-submitted prices are ignored.
func (s *OrderService) CreateOrder(ctx context.Context, customerID, restaurantID uint, items []CheckoutItem, deliveryFee, discount int64) (*models.Order, error) {
	if len(items) == 0 {
		return nil, domain.Validationf("order must contain at least one item")
	}
	if deliveryFee < 0 || discount < 0 {
		return nil, domain.Validationf("delivery fee and discount must not be negative")
	}
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, domain.Validationf("quantity must be positive for menu item %d", it.MenuItemID)
		}
		ids = append(ids, it.MenuItemID)
	}
	menuItems, err := s.restaurantRepo.GetMenuItems(restaurantID, ids)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	byID := make(map[uint]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	var subTotal int64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		m, ok := byID[it.MenuItemID]
		if !ok {
			return nil, domain.Validationf("menu item %d not found for this restaurant", it.MenuItemID)
		}
		if !m.IsAvailable {
			return nil, domain.Validationf("menu item %q is not available", m.Name)
		}
		subTotal += m.Price * int64(it.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID: m.ID,
			Name:       m.Name,
			UnitPrice:  m.Price,
			Quantity:   it.Quantity,
		})
	}
	finalAmount := subTotal + deliveryFee - discount
	if finalAmount < 0 {
		return nil, domain.Validationf("discount exceeds order total")
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:   newOrderNumber(),
		CustomerID:    customerID,
		RestaurantID:  restaurantID,
		Items:         orderItems,
		SubTotal:      subTotal,
		DeliveryFee:   deliveryFee,
		Discount:      discount,
		FinalAmount:   finalAmount,
		Currency:      domain.Currency,
		OrderStatus:   domain.OrderPlaced,
		PaymentStatus: domain.PaymentPending,
		PlacedAt:      now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.Create(tx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	_ = s.auditRepo.Create(&models.AuditLog{
		Actor:      fmt.Sprintf("customer:%d", customerID),
		Action:     "order_created",
		Resource:   "order",
		ResourceID: order.OrderNumber,
	})
	return order, nil
}

// Transition moves the order to targetStatus if the lifecycle table allows it,
// stamping the milestone timestamp. An optimistic version check rejects the
// loser of a concurrent transition race.
func (s *OrderService) Transition(ctx context.Context, orderID uint, target domain.OrderStatus, actor string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.Terminal() {
		return nil, &domain.InvalidStateTransition{From: order.OrderStatus, To: target}
	}
	if !domain.CanTransition(order.OrderStatus, target) {
		return nil, &domain.InvalidStateTransition{From: order.OrderStatus, To: target}
	}

	now := time.Now()
	updates := map[string]interface{}{"order_status": target}
	if col := milestoneColumn(target); col != "" {
		updates[col] = &now
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.UpdateVersioned(tx, order.ID, order.LockVersion, updates)
	})
	if err != nil {
		return nil, err
	}
	_ = s.auditRepo.Create(&models.AuditLog{
		Actor:      actor,
		Action:     "order_transition",
		Resource:   "order",
		ResourceID: order.OrderNumber,
		Metadata:   fmt.Sprintf(`{"from":%q,"to":%q}`, order.OrderStatus, target),
	})
	return s.orderRepo.GetByID(orderID)
}

// CancelOrder is allowed from any state prior to DELIVERED. If the order was
// already PAID the payment stays PAID; REFUNDED is only ever set by the
// reconciler once a refund is confirmed, never here.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, reason, actor string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.Terminal() {
		return nil, &domain.InvalidStateTransition{From: order.OrderStatus, To: domain.OrderCancelled}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"order_status":  domain.OrderCancelled,
		"cancel_reason": reason,
		"cancelled_at":  &now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.orderRepo.UpdateVersioned(tx, order.ID, order.LockVersion, updates)
	})
	if err != nil {
		return nil, err
	}
	action := "order_cancelled"
	if order.PaymentStatus == domain.PaymentPaid {
		// Money already collected: the refund workflow picks this up.
		action = "order_cancelled_refund_required"
	}
	_ = s.auditRepo.Create(&models.AuditLog{
		Actor:      actor,
		Action:     action,
		Resource:   "order",
		ResourceID: order.OrderNumber,
		Metadata:   fmt.Sprintf(`{"reason":%q}`, reason),
	})
	return s.orderRepo.GetByID(orderID)
}

func milestoneColumn(s domain.OrderStatus) string {
	switch s {
	case domain.OrderConfirmed:
		return "confirmed_at"
	case domain.OrderPreparing:
		return "preparing_at"
	case domain.OrderReady:
		return "ready_at"
	case domain.OrderOutForDelivery, domain.OrderPickedUp:
		return "picked_up_at"
	case domain.OrderDelivered:
		return "delivered_at"
	}
	return ""
}

func newOrderNumber() string {
	return fmt.Sprintf("GD-%s", strings.ToUpper(uuid.New().String()[:8]))
}
