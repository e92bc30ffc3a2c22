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

// MomoCallback is the request-to-pay result MTN posts back. The externalId is
// the reference we submitted on the outbound request.
type MomoCallback struct {
	FinancialTransactionID string `json:"financialTransactionId"`
	ExternalID             string `json:"externalId"`
	ReferenceID            string `json:"referenceId"`
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
	Status                 string `json:"status"` // SUCCESSFUL, FAILED
}

type MomoWebhookHandler struct {
	cfg        *config.MomoConfig
	reconciler *service.Reconciler
	auditRepo  *repository.AuditLogRepository
}

func NewMomoWebhookHandler(cfg *config.MomoConfig, reconciler *service.Reconciler, auditRepo *repository.AuditLogRepository) *MomoWebhookHandler {
	return &MomoWebhookHandler{cfg: cfg, reconciler: reconciler, auditRepo: auditRepo}
}

// Handle processes the MoMo collection callback. Unknown and duplicate
// callbacks are acknowledged without side effects.
func (h *MomoWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !verifySignature(h.cfg.WebhookSecret, body, c.GetHeader(signatureHeader)) {
		rejectSecurityFailure(c, h.auditRepo, "MoMo")
		return
	}
	log.Printf("[MoMo callback] raw body: %s", string(body))
	var payload MomoCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[MoMo callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	externalID := payload.ExternalID
	if externalID == "" {
		externalID = payload.ReferenceID
	}
	if externalID == "" {
		log.Printf("[MoMo callback] no external id in payload, acknowledging")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	// Same three-way mapping as the status poll: an in-progress echo must stay
	// PENDING, not terminally fail the transaction.
	outcome := gateway.MomoOutcome(payload.Status)
	// reason may be a bare string or an object depending on the failure class
	reason := gjson.GetBytes(body, "reason.message").String()
	if reason == "" {
		reason = gjson.GetBytes(body, "reason").String()
	}
	err = h.reconciler.ApplyCollection(c.Request.Context(), service.CollectionOutcome{
		Gateway:                domain.GatewayMomo,
		ExternalID:             externalID,
		Outcome:                outcome,
		FinancialTransactionID: payload.FinancialTransactionID,
		Reason:                 reason,
		RawBody:                string(body),
		Actor:                  domain.ActorReconciler,
	})
	switch err {
	case nil:
	case domain.ErrAlreadyProcessed:
		log.Printf("[MoMo callback] duplicate for external_id=%s, discarded", externalID)
	case domain.ErrUnknownTransaction:
		log.Printf("[MoMo callback] unknown external_id=%s, rejected", externalID)
	default:
		log.Printf("[MoMo callback] apply error for external_id=%s: %v", externalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
