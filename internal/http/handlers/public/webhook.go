package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/emberline/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// PaymentWebhook receives signed payment-provider events. Unlike the rest of
// the API, this endpoint speaks raw HTTP status codes because the provider's
// retry machinery keys off them: 2xx acknowledges (including idempotent
// duplicates and ignored event types), 400 rejects a bad signature for good,
// and 5xx asks for a redelivery.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("payment_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	log.Infow("payment_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	result, err := h.FulfillmentService.HandleWebhook(service.WebhookInput{
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookSignatureDenied),
			errors.Is(err, service.ErrWebhookPayloadInvalid):
			log.Warnw("payment_webhook_rejected", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		case errors.Is(err, service.ErrWebhookNotConfigured):
			log.Errorw("payment_webhook_not_configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		default:
			// Processing failed after the signature checked out; ask the
			// provider to redeliver.
			log.Errorw("payment_webhook_processing_failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		}
		return
	}

	ack := gin.H{
		"received":   true,
		"event_type": result.EventType,
		"handled":    result.Handled,
		"duplicate":  result.Duplicate,
	}
	if result.Order != nil {
		ack["order_no"] = result.Order.OrderNo
	}
	c.JSON(http.StatusOK, ack)
}
