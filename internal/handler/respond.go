package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
)

// respondError maps domain errors to HTTP statuses with a structured body.
func respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	var ist *domain.InvalidStateTransition
	var ge *domain.GatewayError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.As(err, &ist):
		c.JSON(http.StatusConflict, gin.H{"error": ist.Error()})
	case errors.Is(err, domain.ErrOrderNotPaid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "order is not paid"})
	case errors.Is(err, domain.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "already processed"})
	case errors.Is(err, domain.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent modification, retry"})
	case errors.Is(err, domain.ErrUnknownTransaction):
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &ge):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
