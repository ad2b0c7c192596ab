package backoffice

import (
	"errors"
	"strconv"

	handlershared "github.com/emberline/storefront/internal/http/handlers/shared"
	"github.com/emberline/storefront/internal/http/response"
	"github.com/emberline/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderStatusRequest is an operator-driven lifecycle transition.
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionOrderStatus moves an order along the fulfillment lifecycle.
// Orders are born confirmed by the webhook; everything after is operator
// work.
func (h *Handler) TransitionOrderStatus(c *gin.Context) {
	rawID := c.Param("id")
	orderID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || orderID == 0 {
		response.BadRequest(c, "order id is invalid")
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}
	order, err := h.OrderService.TransitionStatus(uint(orderID), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, service.ErrOrderStatusInvalid):
			response.BadRequest(c, "status transition not allowed")
		default:
			handlershared.RespondError(c, response.CodeInternal, "failed to update order", err)
		}
		return
	}
	response.Success(c, order)
}
