package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Gateway errors, mapped by the service layer onto its own taxonomy.
var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultAPIBase          = "https://api.stripe.com"
	defaultTimeoutMS        = 10000
	defaultToleranceSeconds = 300
)

// Config holds credentials for the hosted-checkout API.
type Config struct {
	SecretKey               string
	WebhookSecret           string
	APIBase                 string
	WebhookToleranceSeconds int
	TimeoutMS               int
}

func (c *Config) normalize() {
	if c == nil {
		return
	}
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = defaultAPIBase
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultToleranceSeconds
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = defaultTimeoutMS
	}
}

// ValidateConfig checks that session creation is possible.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	cfg.normalize()
	if cfg.SecretKey == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	return nil
}

// SessionLineItem is one resolved line of a checkout session. UnitAmountMinor
// is in the currency's minor unit (cents).
type SessionLineItem struct {
	Name            string
	UnitAmountMinor int64
	Quantity        int
}

// CreateSessionInput is the request for a hosted checkout session.
type CreateSessionInput struct {
	CustomerEmail string
	Currency      string
	SuccessURL    string
	CancelURL     string
	LineItems     []SessionLineItem
	Metadata      map[string]string
}

// SessionResult is the created session.
type SessionResult struct {
	SessionID string
	URL       string
}

// SessionStatus is the non-sensitive view of a session, for the post-redirect
// confirmation screen.
type SessionStatus struct {
	SessionID        string
	CustomerEmail    string
	AmountTotalMinor int64
	Currency         string
	PaymentStatus    string
}

// WebhookEvent is a verified provider notification.
type WebhookEvent struct {
	EventID   string
	EventType string
	Session   SessionObject
	Raw       map[string]interface{}
}

// SessionObject is the checkout session carried inside a webhook event.
type SessionObject struct {
	ID               string
	PaymentStatus    string
	AmountTotalMinor int64
	Currency         string
	CustomerEmail    string
	Metadata         map[string]string
}

var sessionIDPattern = regexp.MustCompile(`^cs_(test_|live_)?[A-Za-z0-9]{8,200}$`)

// IsValidSessionID reports whether the id is plausibly a checkout session id.
// Malformed ids are rejected before any provider round trip.
func IsValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(strings.TrimSpace(id))
}

// CreateCheckoutSession creates a hosted checkout session.
func CreateCheckoutSession(ctx context.Context, cfg *Config, input CreateSessionInput) (*SessionResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(input.LineItems) == 0 {
		return nil, fmt.Errorf("%w: line items are required", ErrRequestFailed)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", input.SuccessURL)
	form.Set("cancel_url", input.CancelURL)
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	for i, item := range input.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmountMinor, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}
	for key, value := range input.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	body, status, err := doFormRequest(ctx, cfg, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, status, readErrorMessage(raw))
	}
	sessionID := strings.TrimSpace(readString(raw, "id"))
	sessionURL := strings.TrimSpace(readString(raw, "url"))
	if sessionID == "" || sessionURL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return &SessionResult{SessionID: sessionID, URL: sessionURL}, nil
}

// QueryCheckoutSession fetches the status of one session.
func QueryCheckoutSession(ctx context.Context, cfg *Config, sessionID string) (*SessionStatus, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if !IsValidSessionID(sessionID) {
		return nil, fmt.Errorf("%w: malformed session id", ErrRequestFailed)
	}

	body, status, err := doJSONRequest(ctx, cfg, http.MethodGet, "/v1/checkout/sessions/"+sessionID)
	if err != nil {
		return nil, err
	}
	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, status, readErrorMessage(raw))
	}
	return &SessionStatus{
		SessionID:        strings.TrimSpace(readString(raw, "id")),
		CustomerEmail:    strings.TrimSpace(readString(raw, "customer_email")),
		AmountTotalMinor: readInt64(raw, "amount_total"),
		Currency:         strings.ToUpper(strings.TrimSpace(readString(raw, "currency"))),
		PaymentStatus:    strings.TrimSpace(readString(raw, "payment_status")),
	}, nil
}

// VerifyAndParseWebhook checks the signed-payload header against the shared
// webhook secret and decodes the event. Nothing is parsed for business content
// before the signature matches.
func VerifyAndParseWebhook(cfg *Config, headers map[string]string, body []byte, now time.Time) (*WebhookEvent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	cfg.normalize()
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}

	signatureHeader := getHeaderValue(headers, "Stripe-Signature")
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	if cfg.WebhookToleranceSeconds > 0 {
		delta := math.Abs(float64(now.Unix() - timestamp))
		if delta > float64(cfg.WebhookToleranceSeconds) {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
		}
	}

	expected := ComputeSignature(cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	eventType := strings.TrimSpace(readString(raw, "type"))
	if eventType == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	dataRaw, ok := raw["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}
	objectRaw, ok := dataRaw["object"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: missing event object", ErrResponseInvalid)
	}

	event := &WebhookEvent{
		EventID:   strings.TrimSpace(readString(raw, "id")),
		EventType: eventType,
		Raw:       raw,
		Session: SessionObject{
			ID:               strings.TrimSpace(readString(objectRaw, "id")),
			PaymentStatus:    strings.TrimSpace(readString(objectRaw, "payment_status")),
			AmountTotalMinor: readInt64(objectRaw, "amount_total"),
			Currency:         strings.ToUpper(strings.TrimSpace(readString(objectRaw, "currency"))),
			CustomerEmail:    strings.TrimSpace(readString(objectRaw, "customer_email")),
			Metadata:         readStringMap(objectRaw, "metadata"),
		},
	}
	return event, nil
}

// ComputeSignature builds the hex HMAC-SHA256 of "<timestamp>.<body>". It is
// exported so webhook producers in tests and tooling can sign payloads.
func ComputeSignature(secret string, timestamp int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", timestamp)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// SignatureHeader renders a complete Stripe-Signature header value.
func SignatureHeader(secret string, timestamp int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, ComputeSignature(secret, timestamp, body))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0)
	for _, part := range strings.Split(signatureHeader, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func doFormRequest(ctx context.Context, cfg *Config, method, path string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, cfg.APIBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return doRequest(cfg, req)
}

func doJSONRequest(ctx context.Context, cfg *Config, method, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, cfg.APIBase+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	return doRequest(cfg, req)
}

func doRequest(cfg *Config, req *http.Request) ([]byte, int, error) {
	client := &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return body, resp.StatusCode, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return raw, nil
}

func readErrorMessage(raw map[string]interface{}) string {
	errObj := readMap(raw, "error")
	if errObj == nil {
		return "unknown error"
	}
	if msg := strings.TrimSpace(readString(errObj, "message")); msg != "" {
		return msg
	}
	return "unknown error"
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil {
		return 0
	}
	switch v := raw[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil {
		return nil
	}
	if value, ok := raw[key].(map[string]interface{}); ok {
		return value
	}
	return nil
}

func readStringMap(raw map[string]interface{}, key string) map[string]string {
	inner := readMap(raw, key)
	if inner == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(inner))
	for k, v := range inner {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func getHeaderValue(headers map[string]string, key string) string {
	if headers == nil {
		return ""
	}
	if value, ok := headers[key]; ok {
		return value
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
