package public

import (
	"strings"

	"github.com/emberline/storefront/internal/http/response"
	"github.com/emberline/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// ProductView is the public catalog representation.
type ProductView struct {
	Slug        string             `json:"slug"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       models.Money       `json:"price"`
	Currency    string             `json:"currency"`
	Images      models.StringArray `json:"images"`
	Tags        models.StringArray `json:"tags"`
}

// ListProducts returns the active catalog.
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.ProductRepo.ListActive()
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load catalog", err)
		return
	}
	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, toProductView(product))
	}
	response.Success(c, gin.H{"products": views})
}

// GetProduct returns one catalog entry by slug.
func (h *Handler) GetProduct(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		response.BadRequest(c, "product slug required")
		return
	}
	product, err := h.ProductRepo.GetBySlug(slug)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load product", err)
		return
	}
	if product == nil || !product.IsActive {
		response.NotFound(c, "product not found")
		return
	}
	response.Success(c, toProductView(*product))
}

func toProductView(product models.Product) ProductView {
	return ProductView{
		Slug:        product.Slug,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.PriceAmount,
		Currency:    product.PriceCurrency,
		Images:      product.Images,
		Tags:        product.Tags,
	}
}
