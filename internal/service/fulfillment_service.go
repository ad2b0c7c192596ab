package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/constants"
	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/payment/stripe"
	"github.com/emberline/storefront/internal/queue"
	"github.com/emberline/storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WebhookInput is one raw webhook delivery: untouched body bytes plus the
// headers needed for signature verification.
type WebhookInput struct {
	Headers map[string]string
	Body    []byte
	Now     time.Time
}

// WebhookResult tells the HTTP layer how the delivery was handled. Every
// non-error result must be acknowledged with a 2xx so the provider stops
// retrying.
type WebhookResult struct {
	EventType string
	Handled   bool
	Duplicate bool
	Order     *models.Order
}

// FulfillmentService converts verified payment webhooks into durable orders,
// exactly once per payment session.
type FulfillmentService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	queueClient *queue.Client
	gatewayCfg  *stripe.Config
}

// NewFulfillmentService creates the fulfillment service.
func NewFulfillmentService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, queueClient *queue.Client, payment config.PaymentConfig) *FulfillmentService {
	return &FulfillmentService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		queueClient: queueClient,
		gatewayCfg: &stripe.Config{
			SecretKey:               payment.SecretKey,
			WebhookSecret:           payment.WebhookSecret,
			APIBase:                 payment.APIBase,
			WebhookToleranceSeconds: payment.WebhookToleranceSeconds,
			TimeoutMS:               payment.TimeoutMS,
		},
	}
}

// HandleWebhook verifies one delivery and fulfills it. Redelivered events for
// an already-fulfilled session are reported as duplicates, not errors; the
// provider gets the same acknowledgement either way and no second order row
// ever exists.
func (s *FulfillmentService) HandleWebhook(input WebhookInput) (*WebhookResult, error) {
	if strings.TrimSpace(s.gatewayCfg.WebhookSecret) == "" {
		return nil, ErrWebhookNotConfigured
	}

	event, err := stripe.VerifyAndParseWebhook(s.gatewayCfg, input.Headers, input.Body, input.Now)
	if err != nil {
		if errors.Is(err, stripe.ErrSignatureInvalid) {
			logger.Warnw("webhook_signature_denied", "error", err)
			return nil, ErrWebhookSignatureDenied
		}
		logger.Warnw("webhook_payload_rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayloadInvalid, err)
	}

	result := &WebhookResult{EventType: event.EventType}
	switch event.EventType {
	case constants.EventCheckoutSessionCompleted, constants.EventCheckoutAsyncPaymentSucceeded:
	default:
		// Unknown event types are acknowledged without side effects so the
		// provider does not retry them forever.
		logger.Infow("webhook_event_ignored", "event_id", event.EventID, "event_type", event.EventType)
		return result, nil
	}

	if event.Session.PaymentStatus != constants.ProviderPaymentStatusPaid {
		logger.Infow("webhook_session_not_paid",
			"event_id", event.EventID,
			"session_id", event.Session.ID,
			"payment_status", event.Session.PaymentStatus,
		)
		return result, nil
	}
	if strings.TrimSpace(event.Session.ID) == "" {
		return nil, fmt.Errorf("%w: session id missing", ErrWebhookPayloadInvalid)
	}

	order, err := s.buildOrder(event)
	if err != nil {
		return nil, err
	}

	created := false
	err = s.orderRepo.DB().Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		created = true
		// The server cart backed this purchase only for signed-in buyers;
		// guest carts live client-side and are cleared there.
		if order.UserID != nil {
			if err := s.cartRepo.WithTx(tx).ClearByUser(*order.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, lookupErr := s.orderRepo.GetByPaymentRef(order.PaymentRef)
		if lookupErr != nil {
			return nil, lookupErr
		}
		logger.Infow("webhook_duplicate_delivery",
			"event_id", event.EventID,
			"session_id", event.Session.ID,
		)
		result.Handled = true
		result.Duplicate = true
		result.Order = existing
		return result, nil
	}
	if err != nil {
		logger.Errorw("webhook_fulfillment_failed",
			"event_id", event.EventID,
			"session_id", event.Session.ID,
			"created", created,
			"error", err,
		)
		return nil, err
	}

	logger.Infow("order_fulfilled",
		"event_id", event.EventID,
		"session_id", event.Session.ID,
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"amount_total", order.TotalAmount.String(),
	)

	// Confirmation email is best effort; the order stands regardless.
	if err := s.queueClient.EnqueueOrderConfirmedEmail(queue.OrderConfirmedEmailPayload{OrderID: order.ID}); err != nil {
		logger.Warnw("order_confirmed_email_enqueue_failed", "order_id", order.ID, "error", err)
	}

	result.Handled = true
	result.Order = order
	return result, nil
}

// buildOrder converts the session carried in the event into an order row.
// Line items come back out of the session metadata written at
// session-creation time, so they reflect the catalog prices that were
// actually charged.
func (s *FulfillmentService) buildOrder(event *stripe.WebhookEvent) (*models.Order, error) {
	metadata := event.Session.Metadata

	var metaItems []metadataItem
	rawItems := strings.TrimSpace(metadata["items"])
	if rawItems == "" {
		return nil, fmt.Errorf("%w: items metadata missing", ErrWebhookPayloadInvalid)
	}
	if err := json.Unmarshal([]byte(rawItems), &metaItems); err != nil {
		return nil, fmt.Errorf("%w: items metadata malformed: %v", ErrWebhookPayloadInvalid, err)
	}
	if len(metaItems) == 0 {
		return nil, fmt.Errorf("%w: items metadata empty", ErrWebhookPayloadInvalid)
	}

	computed := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(metaItems))
	for _, item := range metaItems {
		unitPrice, err := decimal.NewFromString(strings.TrimSpace(item.UnitPrice))
		if err != nil || item.Quantity <= 0 || strings.TrimSpace(item.ProductSlug) == "" {
			return nil, fmt.Errorf("%w: bad item %q", ErrWebhookPayloadInvalid, item.ProductSlug)
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		computed = computed.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			ProductSlug: strings.TrimSpace(item.ProductSlug),
			ProductName: item.ProductName,
			UnitPrice:   models.NewMoneyFromDecimal(unitPrice),
			Quantity:    item.Quantity,
			TotalPrice:  models.NewMoneyFromDecimal(lineTotal),
		})
	}

	// Prefer the amount the provider actually settled; fall back to the sum
	// of the metadata lines when the event omits it.
	total := models.NewMoneyFromDecimal(computed)
	if event.Session.AmountTotalMinor > 0 {
		total = models.NewMoneyFromMinor(event.Session.AmountTotalMinor)
	}
	currency := event.Session.Currency
	if currency == "" {
		currency = constants.DefaultCurrency
	}

	var userID *uint
	if raw := strings.TrimSpace(metadata["user_id"]); raw != "" && raw != constants.GuestUserSentinel {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: user_id metadata malformed", ErrWebhookPayloadInvalid)
		}
		id := uint(parsed)
		userID = &id
	}

	now := time.Now()
	return &models.Order{
		OrderNo:            newOrderNo(now),
		UserID:             userID,
		PaymentRef:         event.Session.ID,
		Status:             constants.OrderStatusConfirmed,
		Currency:           currency,
		TotalAmount:        total,
		CustomerEmail:      event.Session.CustomerEmail,
		CustomerFirstName:  metadata["first_name"],
		CustomerLastName:   metadata["last_name"],
		CustomerPhone:      metadata["phone"],
		ShippingLine1:      metadata["shipping_line1"],
		ShippingLine2:      metadata["shipping_line2"],
		ShippingPostalCode: metadata["shipping_postal_code"],
		ShippingCity:       metadata["shipping_city"],
		ShippingCountry:    metadata["shipping_country"],
		DeliveryNote:       metadata["delivery_note"],
		PaidAt:             &now,
		Items:              orderItems,
	}, nil
}

func newOrderNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("EMB%s%s", now.Format("20060102"), suffix)
}
