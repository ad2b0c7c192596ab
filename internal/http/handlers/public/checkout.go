package public

import (
	"errors"

	"github.com/emberline/storefront/internal/http/response"
	"github.com/emberline/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutSessionRequest is the payment-session creation payload. Items carry
// product ids and quantities only; prices always come from the catalog.
type CheckoutSessionRequest struct {
	Items        []service.SessionItemInput `json:"items" binding:"required"`
	Customer     service.CustomerInfo       `json:"customer"`
	Shipping     service.ShippingAddress    `json:"shipping"`
	DeliveryNote string                     `json:"delivery_note"`
}

// CreateCheckoutSession validates the cart against the catalog and redirects
// the buyer to the hosted payment page. Guests and signed-in users share this
// endpoint; identity only decides which cart gets cleared on fulfillment.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}

	result, err := h.CheckoutService.CreateSession(c.Request.Context(), service.CreateSessionInput{
		UserID:       optionalUserID(c),
		Items:        req.Items,
		Customer:     req.Customer,
		Shipping:     req.Shipping,
		DeliveryNote: req.DeliveryNote,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartEmpty),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrUnknownProduct),
			errors.Is(err, service.ErrProductNotAvailable),
			errors.Is(err, service.ErrPriceInvalid),
			errors.Is(err, service.ErrInvalidCustomerInfo),
			errors.Is(err, service.ErrInvalidCartItem):
			// The sentinel message names the offending identifiers.
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrGatewayUnavailable),
			errors.Is(err, service.ErrGatewayResponseInvalid):
			requestLog(c).Warnw("checkout_gateway_error", "error", err)
			response.ServiceUnavailable(c, "payment service temporarily unavailable, please try again")
		default:
			respondError(c, response.CodeInternal, "failed to start checkout", err)
		}
		return
	}
	response.Success(c, result)
}

// CheckoutSessionStatus answers the post-redirect confirmation poll.
func (h *Handler) CheckoutSessionStatus(c *gin.Context) {
	sessionID := c.Query("session_id")
	view, err := h.CheckoutService.SessionStatus(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionIDInvalid):
			response.BadRequest(c, "session id is malformed")
		case errors.Is(err, service.ErrGatewayUnavailable),
			errors.Is(err, service.ErrGatewayResponseInvalid):
			response.ServiceUnavailable(c, "payment service temporarily unavailable, please try again")
		default:
			respondError(c, response.CodeInternal, "failed to query session status", err)
		}
		return
	}
	response.Success(c, view)
}

// optionalUserID reads the authenticated user id when present; guests get 0.
func optionalUserID(c *gin.Context) uint {
	value, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	if id, ok := value.(uint); ok {
		return id
	}
	return 0
}
