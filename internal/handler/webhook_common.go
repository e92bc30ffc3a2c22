package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/models"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
)

const signatureHeader = "X-Webhook-Signature"

// verifySignature checks the HMAC-SHA256 hex signature over the raw body. An
// empty secret disables the check (sandbox providers do not sign).
func verifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// rejectSecurityFailure logs and audits a signature failure. The response is
// still a plain acknowledgment so an attacker learns nothing from probing.
func rejectSecurityFailure(c *gin.Context, auditRepo *repository.AuditLogRepository, gatewayName string) {
	log.Printf("[%s callback] signature verification failed from %s", gatewayName, c.ClientIP())
	_ = auditRepo.Create(&models.AuditLog{
		Actor:     "webhook:" + gatewayName,
		Action:    "webhook_signature_rejected",
		Resource:  "webhook",
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	c.JSON(200, gin.H{"received": true})
}
