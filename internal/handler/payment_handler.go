package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/middleware"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/service"
)

type PaymentHandler struct {
	paymentSvc *service.PaymentService
}

func NewPaymentHandler(paymentSvc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// Initiate starts a mobile-money collection for an order. The amount must
// match the order's final amount exactly.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req struct {
		OrderID uint           `json:"order_id" binding:"required"`
		Msisdn  string         `json:"msisdn" binding:"required,msisdn"`
		Amount  int64          `json:"amount" binding:"required,min=1"`
		Gateway domain.Gateway `json:"gateway" binding:"required,oneof=MTN_MOMO AIRTEL_MONEY"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := h.paymentSvc.RequestCollection(c.Request.Context(), req.OrderID, req.Msisdn, req.Amount, req.Gateway, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"reference_id": tx.ReferenceID,
		"status":       tx.Status,
		"gateway":      tx.Gateway,
		"amount":       tx.Amount,
		"currency":     tx.Currency,
	})
}

// Status returns the current transaction state, polling the provider if the
// transaction is still pending.
func (h *PaymentHandler) Status(c *gin.Context) {
	ref := c.Param("reference")
	tx, err := h.paymentSvc.QueryStatus(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference_id":             tx.ReferenceID,
		"status":                   tx.Status,
		"gateway":                  tx.Gateway,
		"amount":                   tx.Amount,
		"currency":                 tx.Currency,
		"financial_transaction_id": tx.FinancialTransactionID,
		"failure_reason":           tx.FailureReason,
		"completed_at":             tx.CompletedAt,
	})
}
