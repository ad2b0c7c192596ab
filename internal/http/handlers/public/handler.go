// Package public holds the storefront-facing API handlers: catalog reads,
// the authenticated cart surface, checkout, webhooks and account auth.
package public

import "github.com/emberline/storefront/internal/provider"

// Handler is the public API handler entry point.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
