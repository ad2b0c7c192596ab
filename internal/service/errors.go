package service

import "errors"

// Validation failures. Rejected before any external side effect and surfaced
// as a single human-readable message.
var (
	ErrCartEmpty           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrInvalidCartItem     = errors.New("cart item is invalid")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrProductNotAvailable = errors.New("product not available")
	ErrPriceInvalid        = errors.New("product price is invalid")
	ErrInvalidCustomerInfo = errors.New("customer info is invalid")
	ErrSessionIDInvalid    = errors.New("session id is malformed")
)

// External-service failures. Distinct from validation so callers can offer
// "try again" instead of "fix your input".
var (
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrGatewayResponseInvalid = errors.New("payment gateway response invalid")
)

// Integrity failures on the webhook path. Never shown to end users.
var (
	ErrWebhookNotConfigured   = errors.New("webhook secret not configured")
	ErrWebhookSignatureDenied = errors.New("webhook signature verification failed")
	ErrWebhookPayloadInvalid  = errors.New("webhook payload invalid")
)

// Account and order errors.
var (
	ErrInvalidEmail       = errors.New("email address is invalid")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmailDisabled      = errors.New("email sending disabled")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("account is disabled")
	ErrWeakPassword       = errors.New("password too short")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status transition not allowed")
)
