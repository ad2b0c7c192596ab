package constants

// Order statuses. Fulfillment only ever produces OrderStatusConfirmed; later
// transitions belong to the back office.
const (
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// User account statuses.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// GuestUserSentinel marks a checkout session created without a signed-in
// identity in provider metadata.
const GuestUserSentinel = "guest"

// DefaultCurrency is the storefront currency (ISO 4217).
const DefaultCurrency = "EUR"

// Payment provider event types this system acts on.
const (
	EventCheckoutSessionCompleted      = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// Provider-side payment statuses.
const (
	ProviderPaymentStatusPaid   = "paid"
	ProviderPaymentStatusUnpaid = "unpaid"
)

// Asynq task names.
const (
	TaskOrderConfirmedEmail = "order:confirmed_email"
)

// Queue names.
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// LocalItemIDPrefix distinguishes client-generated guest line-item ids from
// server-assigned ones.
const LocalItemIDPrefix = "local-"
