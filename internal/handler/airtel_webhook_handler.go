package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/service"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

// AirtelCallback is the payment result Airtel Money posts back.
type AirtelCallback struct {
	Transaction struct {
		ID            string `json:"id"` // our transaction id
		AirtelMoneyID string `json:"airtel_money_id"`
		StatusCode    string `json:"status_code"` // TS success, TF failed
		Message       string `json:"message"`
	} `json:"transaction"`
}

type AirtelWebhookHandler struct {
	cfg        *config.AirtelConfig
	reconciler *service.Reconciler
	auditRepo  *repository.AuditLogRepository
}

func NewAirtelWebhookHandler(cfg *config.AirtelConfig, reconciler *service.Reconciler, auditRepo *repository.AuditLogRepository) *AirtelWebhookHandler {
	return &AirtelWebhookHandler{cfg: cfg, reconciler: reconciler, auditRepo: auditRepo}
}

func (h *AirtelWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if !verifySignature(h.cfg.WebhookSecret, body, c.GetHeader(signatureHeader)) {
		rejectSecurityFailure(c, h.auditRepo, "Airtel")
		return
	}
	log.Printf("[Airtel callback] raw body: %s", string(body))
	var payload AirtelCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Airtel callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	externalID := payload.Transaction.ID
	if externalID == "" {
		log.Printf("[Airtel callback] no transaction id in payload, acknowledging")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	// TIP and other in-progress codes stay PENDING; only TS/TF are terminal.
	outcome := gateway.AirtelOutcome(payload.Transaction.StatusCode)
	err = h.reconciler.ApplyCollection(c.Request.Context(), service.CollectionOutcome{
		Gateway:                domain.GatewayAirtel,
		ExternalID:             externalID,
		Outcome:                outcome,
		FinancialTransactionID: payload.Transaction.AirtelMoneyID,
		Reason:                 payload.Transaction.Message,
		RawBody:                string(body),
		Actor:                  domain.ActorReconciler,
	})
	switch err {
	case nil:
	case domain.ErrAlreadyProcessed:
		log.Printf("[Airtel callback] duplicate for transaction id=%s, discarded", externalID)
	case domain.ErrUnknownTransaction:
		log.Printf("[Airtel callback] unknown transaction id=%s, rejected", externalID)
	default:
		log.Printf("[Airtel callback] apply error for transaction id=%s: %v", externalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
