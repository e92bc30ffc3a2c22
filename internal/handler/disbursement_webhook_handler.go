package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/service"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

// DisbursementCallback is the transfer result from the MoMo disbursement
// product; externalId carries our dsb- reference.
type DisbursementCallback struct {
	FinancialTransactionID string `json:"financialTransactionId"`
	ExternalID             string `json:"externalId"`
	ReferenceID            string `json:"referenceId"`
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
	Status                 string `json:"status"`
}

type DisbursementWebhookHandler struct {
	cfg        *config.DisbursementConfig
	reconciler *service.Reconciler
	auditRepo  *repository.AuditLogRepository
}

func NewDisbursementWebhookHandler(cfg *config.DisbursementConfig, reconciler *service.Reconciler, auditRepo *repository.AuditLogRepository) *DisbursementWebhookHandler {
	return &DisbursementWebhookHandler{cfg: cfg, reconciler: reconciler, auditRepo: auditRepo}
}

func (h *DisbursementWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !verifySignature(h.cfg.WebhookSecret, body, c.GetHeader(signatureHeader)) {
		rejectSecurityFailure(c, h.auditRepo, "Disbursement")
		return
	}
	log.Printf("[Disbursement callback] raw body: %s", string(body))
	var payload DisbursementCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Disbursement callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ref := payload.ExternalID
	if ref == "" {
		ref = payload.ReferenceID
	}
	if ref == "" {
		log.Printf("[Disbursement callback] no reference in payload, acknowledging")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	outcome := gateway.MomoOutcome(payload.Status)
	reason := gjson.GetBytes(body, "reason.message").String()
	if reason == "" {
		reason = gjson.GetBytes(body, "reason").String()
	}
	err = h.reconciler.ApplyDisbursement(c.Request.Context(), service.DisbursementOutcome{
		Gateway:                domain.GatewayMomoDisbursement,
		ReferenceID:            ref,
		Outcome:                outcome,
		FinancialTransactionID: payload.FinancialTransactionID,
		Reason:                 reason,
		RawBody:                string(body),
		Actor:                  domain.ActorReconciler,
	})
	switch err {
	case nil:
	case domain.ErrAlreadyProcessed:
		log.Printf("[Disbursement callback] duplicate for ref=%s, discarded", ref)
	case domain.ErrUnknownTransaction:
		log.Printf("[Disbursement callback] unknown ref=%s, rejected", ref)
	default:
		log.Printf("[Disbursement callback] apply error for ref=%s: %v", ref, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
