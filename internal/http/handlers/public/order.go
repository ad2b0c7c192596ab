package public

import (
	"errors"
	"strconv"

	"github.com/emberline/storefront/internal/http/response"
	"github.com/emberline/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders returns the caller's orders, newest first.
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orders, err := h.OrderService.ListByUser(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load orders", err)
		return
	}
	response.Success(c, gin.H{"orders": orders})
}

// GetOrder returns one of the caller's orders. Orders of other identities
// read as not found.
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	rawID := c.Param("id")
	orderID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil || orderID == 0 {
		response.BadRequest(c, "order id is invalid")
		return
	}
	order, err := h.OrderService.GetForUser(uid, uint(orderID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		default:
			respondError(c, response.CodeInternal, "failed to load order", err)
		}
		return
	}
	response.Success(c, order)
}
