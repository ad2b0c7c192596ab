package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emberline/storefront/internal/cache"
	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/constants"
	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/payment/stripe"
	"github.com/emberline/storefront/internal/repository"

	"github.com/shopspring/decimal"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SessionItemInput identifies a requested line by product id and quantity
// only. Prices and names submitted by the client are never read.
type SessionItemInput struct {
	ProductSlug string `json:"product_id"`
	Quantity    int    `json:"quantity"`
}

// CustomerInfo is the validated customer block gathered by the checkout
// wizard.
type CustomerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// ShippingAddress is the delivery destination.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

// CreateSessionInput is a checkout attempt.
type CreateSessionInput struct {
	UserID       uint // 0 for guests
	Items        []SessionItemInput
	Customer     CustomerInfo
	Shipping     ShippingAddress
	DeliveryNote string
}

// CreateSessionResult carries the redirect target for the hosted payment page.
type CreateSessionResult struct {
	SessionID   string       `json:"session_id"`
	RedirectURL string       `json:"redirect_url"`
	AmountTotal models.Money `json:"amount_total"`
	Currency    string       `json:"currency"`
}

// SessionStatusView is the non-sensitive post-redirect confirmation payload.
type SessionStatusView struct {
	Email         string       `json:"email"`
	AmountTotal   models.Money `json:"amount_total"`
	Currency      string       `json:"currency"`
	PaymentStatus string       `json:"payment_status"`
}

// metadataItem is one resolved line carried through provider metadata so
// fulfillment can rebuild the order after the redirect.
type metadataItem struct {
	ProductSlug string `json:"product_id"`
	ProductName string `json:"name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

// CheckoutService re-validates every requested line against the catalog and
// creates external payment sessions. The amount charged is always derived
// from catalog prices at session-creation time.
type CheckoutService struct {
	productRepo repository.ProductRepository
	gatewayCfg  *stripe.Config
	checkout    config.CheckoutConfig
}

// NewCheckoutService creates the checkout service.
func NewCheckoutService(productRepo repository.ProductRepository, payment config.PaymentConfig, checkout config.CheckoutConfig) *CheckoutService {
	if strings.TrimSpace(checkout.Currency) == "" {
		checkout.Currency = constants.DefaultCurrency
	}
	return &CheckoutService{
		productRepo: productRepo,
		gatewayCfg: &stripe.Config{
			SecretKey:               payment.SecretKey,
			WebhookSecret:           payment.WebhookSecret,
			APIBase:                 payment.APIBase,
			WebhookToleranceSeconds: payment.WebhookToleranceSeconds,
			TimeoutMS:               payment.TimeoutMS,
		},
		checkout: checkout,
	}
}

// CreateSession validates the request and creates one external payment
// session. Rejections happen in full before the provider is contacted;
// partial sessions are never created.
func (s *CheckoutService) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	if err := validateCustomerInfo(input.Customer, input.Shipping); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, ErrCartEmpty
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.ProductSlug) == "" {
			return nil, fmt.Errorf("%w: product id is blank", ErrInvalidCartItem)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, item.ProductSlug)
		}
	}

	slugs, quantities := dedupeItems(input.Items)

	products, err := s.productRepo.ListBySlugs(slugs)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]models.Product, len(products))
	for _, product := range products {
		bySlug[product.Slug] = product
	}
	var unknown []string
	for _, slug := range slugs {
		product, ok := bySlug[slug]
		if !ok || !product.IsActive {
			unknown = append(unknown, slug)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, strings.Join(unknown, ", "))
	}

	// Authoritative prices only; client-claimed prices never reach this point.
	total := decimal.Zero
	lineItems := make([]stripe.SessionLineItem, 0, len(slugs))
	resolved := make([]metadataItem, 0, len(slugs))
	for _, slug := range slugs {
		product := bySlug[slug]
		quantity := quantities[slug]
		if product.PriceAmount.Cmp(decimal.Zero) <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrPriceInvalid, slug)
		}
		total = total.Add(product.PriceAmount.Mul(decimal.NewFromInt(int64(quantity))))
		lineItems = append(lineItems, stripe.SessionLineItem{
			Name:            product.Name,
			UnitAmountMinor: product.PriceAmount.MinorUnits(),
			Quantity:        quantity,
		})
		resolved = append(resolved, metadataItem{
			ProductSlug: product.Slug,
			ProductName: product.Name,
			UnitPrice:   product.PriceAmount.String(),
			Quantity:    quantity,
		})
	}

	if err := stripe.ValidateConfig(s.gatewayCfg); err != nil {
		logger.Errorw("checkout_gateway_not_configured", "error", err)
		return nil, ErrGatewayUnavailable
	}

	metadata, err := buildSessionMetadata(input, resolved)
	if err != nil {
		return nil, err
	}

	result, err := stripe.CreateCheckoutSession(ctx, s.gatewayCfg, stripe.CreateSessionInput{
		CustomerEmail: strings.TrimSpace(input.Customer.Email),
		Currency:      s.checkout.Currency,
		SuccessURL:    s.checkout.SuccessURL,
		CancelURL:     s.checkout.CancelURL,
		LineItems:     lineItems,
		Metadata:      metadata,
	})
	if err != nil {
		logger.Errorw("checkout_session_create_failed",
			"user_id", input.UserID,
			"items", len(lineItems),
			"error", err,
		)
		if errors.Is(err, stripe.ErrResponseInvalid) {
			return nil, ErrGatewayResponseInvalid
		}
		return nil, ErrGatewayUnavailable
	}

	amount := models.NewMoneyFromDecimal(total)
	logger.Infow("checkout_session_created",
		"session_id", result.SessionID,
		"user_id", input.UserID,
		"items", len(lineItems),
		"amount_total", amount.String(),
		"currency", s.checkout.Currency,
	)
	return &CreateSessionResult{
		SessionID:   result.SessionID,
		RedirectURL: result.URL,
		AmountTotal: amount,
		Currency:    s.checkout.Currency,
	}, nil
}

// SessionStatus returns the provider's view of one session for the
// confirmation screen, cached briefly to absorb post-redirect polling.
func (s *CheckoutService) SessionStatus(ctx context.Context, sessionID string) (*SessionStatusView, error) {
	sessionID = strings.TrimSpace(sessionID)
	if !stripe.IsValidSessionID(sessionID) {
		return nil, ErrSessionIDInvalid
	}

	cacheKey := "checkout:session_status:" + sessionID
	var cached SessionStatusView
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	if err := stripe.ValidateConfig(s.gatewayCfg); err != nil {
		return nil, ErrGatewayUnavailable
	}
	status, err := stripe.QueryCheckoutSession(ctx, s.gatewayCfg, sessionID)
	if err != nil {
		logger.Warnw("checkout_session_status_query_failed", "session_id", sessionID, "error", err)
		if errors.Is(err, stripe.ErrResponseInvalid) {
			return nil, ErrGatewayResponseInvalid
		}
		return nil, ErrGatewayUnavailable
	}

	view := &SessionStatusView{
		Email:         status.CustomerEmail,
		AmountTotal:   models.NewMoneyFromMinor(status.AmountTotalMinor),
		Currency:      status.Currency,
		PaymentStatus: status.PaymentStatus,
	}
	ttl := time.Duration(s.checkout.StatusCacheTTLSeconds) * time.Second
	if ttl > 0 {
		if err := cache.SetJSON(ctx, cacheKey, view, ttl); err != nil {
			logger.Debugw("checkout_session_status_cache_failed", "session_id", sessionID, "error", err)
		}
	}
	return view, nil
}

func dedupeItems(items []SessionItemInput) ([]string, map[string]int) {
	slugs := make([]string, 0, len(items))
	quantities := make(map[string]int, len(items))
	for _, item := range items {
		slug := strings.TrimSpace(item.ProductSlug)
		if _, seen := quantities[slug]; !seen {
			slugs = append(slugs, slug)
		}
		quantities[slug] += item.Quantity
	}
	return slugs, quantities
}

func validateCustomerInfo(customer CustomerInfo, shipping ShippingAddress) error {
	var missing []string
	if strings.TrimSpace(customer.FirstName) == "" {
		missing = append(missing, "first name")
	}
	if strings.TrimSpace(customer.LastName) == "" {
		missing = append(missing, "last name")
	}
	if !emailPattern.MatchString(strings.TrimSpace(customer.Email)) {
		missing = append(missing, "valid email")
	}
	if strings.TrimSpace(shipping.Line1) == "" {
		missing = append(missing, "address line")
	}
	if strings.TrimSpace(shipping.PostalCode) == "" {
		missing = append(missing, "postal code")
	}
	if strings.TrimSpace(shipping.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidCustomerInfo, strings.Join(missing, ", "))
	}
	return nil
}

func buildSessionMetadata(input CreateSessionInput, resolved []metadataItem) (map[string]string, error) {
	itemsJSON, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCartItem, err)
	}
	userID := constants.GuestUserSentinel
	if input.UserID > 0 {
		userID = strconv.FormatUint(uint64(input.UserID), 10)
	}
	return map[string]string{
		"user_id":              userID,
		"first_name":           strings.TrimSpace(input.Customer.FirstName),
		"last_name":            strings.TrimSpace(input.Customer.LastName),
		"phone":                strings.TrimSpace(input.Customer.Phone),
		"shipping_line1":       strings.TrimSpace(input.Shipping.Line1),
		"shipping_line2":       strings.TrimSpace(input.Shipping.Line2),
		"shipping_postal_code": strings.TrimSpace(input.Shipping.PostalCode),
		"shipping_city":        strings.TrimSpace(input.Shipping.City),
		"shipping_country":     strings.TrimSpace(input.Shipping.Country),
		"delivery_note":        strings.TrimSpace(input.DeliveryNote),
		"items":                string(itemsJSON),
	}, nil
}
