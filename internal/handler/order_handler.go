package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/middleware"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/service"
)

type OrderHandler struct {
	orderSvc  *service.OrderService
	orderRepo *repository.OrderRepository
}

func NewOrderHandler(orderSvc *service.OrderService, orderRepo *repository.OrderRepository) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, orderRepo: orderRepo}
}

// Create is the checkout endpoint: validates the cart, recomputes totals and
// creates the order in PLACED/PENDING.
func (h *OrderHandler) Create(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	var req struct {
		RestaurantID uint                   `json:"restaurant_id" binding:"required"`
		Items        []service.CheckoutItem `json:"items" binding:"required,dive"`
		DeliveryFee  int64                  `json:"delivery_fee" binding:"min=0"`
		Discount     int64                  `json:"discount_amount" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orderSvc.CreateOrder(c.Request.Context(), customerID, req.RestaurantID, req.Items, req.DeliveryFee, req.Discount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.orderRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	customerID := middleware.GetUserID(c)
	orders, err := h.orderRepo.ListByCustomer(customerID, 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Transition moves the order along its lifecycle (restaurant/biker/operator).
func (h *OrderHandler) Transition(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Status domain.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orderSvc.Transition(c.Request.Context(), uint(id), req.Status, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.orderSvc.CancelOrder(c.Request.Context(), uint(id), req.Reason, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
