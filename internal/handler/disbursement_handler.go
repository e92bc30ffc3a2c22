package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/middleware"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/service"
)

type DisbursementHandler struct {
	disbSvc *service.DisbursementService
}

func NewDisbursementHandler(disbSvc *service.DisbursementService) *DisbursementHandler {
	return &DisbursementHandler{disbSvc: disbSvc}
}

// Trigger lets an operator issue a payout for a paid order that has no
// disbursement yet. The same guarded entry point the reconciler uses applies
// the preconditions, so a race with an automatic trigger cannot pay twice.
func (h *DisbursementHandler) Trigger(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	d, err := h.disbSvc.ProcessOrder(c.Request.Context(), uint(orderID), middleware.GetActor(c))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotPaid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order is not paid"})
			return
		}
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order already has a disbursement"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference_id": d.ReferenceID,
		"status":       d.Status,
		"gross_amount": d.GrossAmount,
		"commission":   d.Commission,
		"net_amount":   d.NetAmount,
	})
}

// Status returns the payment and payout state for an order.
func (h *DisbursementHandler) Status(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, d, err := h.disbSvc.Status(uint(orderID))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{
		"order_number":   order.OrderNumber,
		"payment_status": order.PaymentStatus,
	}
	if d != nil {
		resp["disbursement_status"] = d.Status
		resp["disbursement_reference"] = d.ReferenceID
		resp["completed_at"] = d.CompletedAt
		resp["failure_reason"] = d.FailureReason
	} else {
		resp["disbursement_status"] = nil
	}
	c.JSON(http.StatusOK, resp)
}
