// Package backoffice holds operator endpoints, guarded by a static bearer
// token from config.
package backoffice

import "github.com/emberline/storefront/internal/provider"

// Handler is the back-office handler entry point.
type Handler struct {
	*provider.Container
}

// New creates the back-office handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
