package public

import (
	"errors"
	"strings"

	"github.com/emberline/storefront/internal/http/response"
	"github.com/emberline/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest sets the absolute desired quantity for one product.
type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// CartMergeRequest offers guest line items for migration after sign-in.
type CartMergeRequest struct {
	Items []service.GuestCartItem `json:"items"`
}

// GetCart returns the caller's server cart.
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.CartService.GetByUser(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load cart", err)
		return
	}
	response.Success(c, view)
}

// UpsertCartItem sets the quantity for one product; zero or less deletes the
// line.
func (h *Handler) UpsertCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}
	err := h.CartService.UpsertItem(service.UpsertCartItemInput{
		UserID:      uid,
		ProductSlug: req.ProductID,
		Quantity:    req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCartItem):
			response.BadRequest(c, "cart item is invalid")
		case errors.Is(err, service.ErrProductNotAvailable):
			response.BadRequest(c, "product not available")
		default:
			respondError(c, response.CodeInternal, "failed to update cart", err)
		}
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem removes one product from the cart.
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID := strings.TrimSpace(c.Param("product_id"))
	if productID == "" {
		response.BadRequest(c, "product id required")
		return
	}
	if err := h.CartService.RemoveItem(uid, productID); err != nil {
		respondError(c, response.CodeInternal, "failed to update cart", err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondError(c, response.CodeInternal, "failed to clear cart", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

// MergeCart folds guest line items into the caller's server cart and returns
// the product ids that were migrated; the client removes exactly those from
// its guest storage.
func (h *Handler) MergeCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartMergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body is invalid")
		return
	}
	migrated, err := h.CartService.MergeGuestItems(uid, req.Items)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to merge cart", err)
		return
	}
	if migrated == nil {
		migrated = []string{}
	}
	response.Success(c, gin.H{"migrated": migrated})
}
