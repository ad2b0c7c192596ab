package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCheckoutServiceTest(t *testing.T, apiBase string) (*CheckoutService, *repository.GormProductRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:checkout_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products failed: %v", err)
	}
	productRepo := repository.NewProductRepository(db)
	svc := NewCheckoutService(productRepo, config.PaymentConfig{
		SecretKey: "sk_test_123",
		APIBase:   apiBase,
	}, config.CheckoutConfig{
		SuccessURL: "https://shop.example/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.example/checkout",
		Currency:   "EUR",
	})
	return svc, productRepo
}

func createCatalogProduct(t *testing.T, repo *repository.GormProductRepository, slug string, price float64, active bool) {
	t.Helper()
	product := &models.Product{
		Slug:          slug,
		Name:          strings.ReplaceAll(slug, "-", " "),
		PriceAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(price)),
		PriceCurrency: "EUR",
		IsActive:      active,
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product %s failed: %v", slug, err)
	}
}

func newFakeGateway(t *testing.T) (*httptest.Server, *map[string][]string) {
	t.Helper()
	form := map[string][]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		for k, v := range r.PostForm {
			form[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_abc12345678","url":"https://pay.example/cs_test_abc12345678"}`))
	}))
	return server, &form
}

func validCustomer() CustomerInfo {
	return CustomerInfo{
		FirstName: "Jo",
		LastName:  "Martin",
		Email:     "jo@example.com",
		Phone:     "+33600000000",
	}
}

func validShipping() ShippingAddress {
	return ShippingAddress{
		Line1:      "12 Rue des Forges",
		PostalCode: "69001",
		City:       "Lyon",
		Country:    "FR",
	}
}

func TestCreateSessionUsesCatalogPrices(t *testing.T) {
	server, form := newFakeGateway(t)
	defer server.Close()
	svc, productRepo := setupCheckoutServiceTest(t, server.URL)
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	result, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items:    []SessionItemInput{{ProductSlug: "brasero-80", Quantity: 2}},
		Customer: validCustomer(),
		Shipping: validShipping(),
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if result.SessionID != "cs_test_abc12345678" {
		t.Fatalf("unexpected session id: %s", result.SessionID)
	}
	if result.RedirectURL == "" {
		t.Fatalf("expected redirect url")
	}
	if result.AmountTotal.MinorUnits() != 178000 {
		t.Fatalf("expected total 178000 minor units, got %d", result.AmountTotal.MinorUnits())
	}
	if result.Currency != "EUR" {
		t.Fatalf("unexpected currency: %s", result.Currency)
	}

	got := *form
	if v := got["line_items[0][price_data][unit_amount]"]; len(v) != 1 || v[0] != "89000" {
		t.Fatalf("expected catalog unit amount 89000, got %v", v)
	}
	if v := got["line_items[0][quantity]"]; len(v) != 1 || v[0] != "2" {
		t.Fatalf("expected quantity 2, got %v", v)
	}
}

func TestCreateSessionDedupesRepeatedLines(t *testing.T) {
	server, form := newFakeGateway(t)
	defer server.Close()
	svc, productRepo := setupCheckoutServiceTest(t, server.URL)
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	result, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []SessionItemInput{
			{ProductSlug: "brasero-80", Quantity: 1},
			{ProductSlug: "brasero-80", Quantity: 1},
		},
		Customer: validCustomer(),
		Shipping: validShipping(),
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if result.AmountTotal.MinorUnits() != 178000 {
		t.Fatalf("expected merged total 178000, got %d", result.AmountTotal.MinorUnits())
	}
	got := *form
	if v := got["line_items[0][quantity]"]; len(v) != 1 || v[0] != "2" {
		t.Fatalf("expected merged quantity 2, got %v", v)
	}
	if _, ok := got["line_items[1][quantity]"]; ok {
		t.Fatalf("expected a single merged line item")
	}
}

func TestCreateSessionCarriesMetadata(t *testing.T) {
	server, form := newFakeGateway(t)
	defer server.Close()
	svc, productRepo := setupCheckoutServiceTest(t, server.URL)
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	input := CreateSessionInput{
		UserID:       42,
		Items:        []SessionItemInput{{ProductSlug: "brasero-80", Quantity: 2}},
		Customer:     validCustomer(),
		Shipping:     validShipping(),
		DeliveryNote: "leave at the gate",
	}
	if _, err := svc.CreateSession(context.Background(), input); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	got := *form
	if v := got["metadata[user_id]"]; len(v) != 1 || v[0] != "42" {
		t.Fatalf("expected user_id metadata 42, got %v", v)
	}
	if v := got["metadata[delivery_note]"]; len(v) != 1 || v[0] != "leave at the gate" {
		t.Fatalf("expected delivery note metadata, got %v", v)
	}
	itemsRaw := got["metadata[items]"]
	if len(itemsRaw) != 1 {
		t.Fatalf("expected items metadata, got %v", itemsRaw)
	}
	var items []map[string]interface{}
	if err := json.Unmarshal([]byte(itemsRaw[0]), &items); err != nil {
		t.Fatalf("items metadata not json: %v", err)
	}
	if len(items) != 1 || items[0]["product_id"] != "brasero-80" {
		t.Fatalf("unexpected items metadata: %v", items)
	}
}

func TestCreateSessionGuestSentinel(t *testing.T) {
	server, form := newFakeGateway(t)
	defer server.Close()
	svc, productRepo := setupCheckoutServiceTest(t, server.URL)
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	if _, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items:    []SessionItemInput{{ProductSlug: "brasero-80", Quantity: 1}},
		Customer: validCustomer(),
		Shipping: validShipping(),
	}); err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	got := *form
	if v := got["metadata[user_id]"]; len(v) != 1 || v[0] != "guest" {
		t.Fatalf("expected guest sentinel, got %v", v)
	}
}

func TestCreateSessionEmptyCart(t *testing.T) {
	svc, _ := setupCheckoutServiceTest(t, "http://127.0.0.1:0")

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Customer: validCustomer(),
		Shipping: validShipping(),
	})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty, got: %v", err)
	}
}

func TestCreateSessionInvalidQuantity(t *testing.T) {
	svc, productRepo := setupCheckoutServiceTest(t, "http://127.0.0.1:0")
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items:    []SessionItemInput{{ProductSlug: "brasero-80", Quantity: 0}},
		Customer: validCustomer(),
		Shipping: validShipping(),
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got: %v", err)
	}
}

func TestCreateSessionBlankProductID(t *testing.T) {
	svc, productRepo := setupCheckoutServiceTest(t, "http://127.0.0.1:0")
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	for _, slug := range []string{"", "   "} {
		_, err := svc.CreateSession(context.Background(), CreateSessionInput{
			Items: []SessionItemInput{
				{ProductSlug: "brasero-80", Quantity: 1},
				{ProductSlug: slug, Quantity: 1},
			},
			Customer: validCustomer(),
			Shipping: validShipping(),
		})
		if !errors.Is(err, ErrInvalidCartItem) {
			t.Fatalf("expected invalid cart item for slug %q, got: %v", slug, err)
		}
	}
}

func TestCreateSessionRejectsUnknownAndInactive(t *testing.T) {
	svc, productRepo := setupCheckoutServiceTest(t, "http://127.0.0.1:0")
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)
	createCatalogProduct(t, productRepo, "retired-poker", 35.00, false)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []SessionItemInput{
			{ProductSlug: "brasero-80", Quantity: 1},
			{ProductSlug: "retired-poker", Quantity: 1},
			{ProductSlug: "no-such-thing", Quantity: 1},
		},
		Customer: validCustomer(),
		Shipping: validShipping(),
	})
	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected unknown product, got: %v", err)
	}
	// The message names every offending id so the client can fix its cart.
	if !strings.Contains(err.Error(), "retired-poker") || !strings.Contains(err.Error(), "no-such-thing") {
		t.Fatalf("expected offending ids in message, got: %v", err)
	}
	if strings.Contains(err.Error(), "brasero-80") {
		t.Fatalf("valid product should not be named: %v", err)
	}
}

func TestCreateSessionAggregatesCustomerErrors(t *testing.T) {
	svc, productRepo := setupCheckoutServiceTest(t, "http://127.0.0.1:0")
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items: []SessionItemInput{{ProductSlug: "brasero-80", Quantity: 1}},
		Customer: CustomerInfo{
			LastName: "Martin",
			Email:    "not-an-email",
		},
		Shipping: ShippingAddress{City: "Lyon"},
	})
	if !errors.Is(err, ErrInvalidCustomerInfo) {
		t.Fatalf("expected invalid customer info, got: %v", err)
	}
	for _, want := range []string{"first name", "valid email", "address line", "postal code"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in aggregated message, got: %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "last name") || strings.Contains(err.Error(), "city") {
		t.Fatalf("present fields should not be reported: %v", err)
	}
}

func TestCreateSessionGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	}))
	defer server.Close()
	svc, productRepo := setupCheckoutServiceTest(t, server.URL)
	createCatalogProduct(t, productRepo, "brasero-80", 890.00, true)

	_, err := svc.CreateSession(context.Background(), CreateSessionInput{
		Items:    []SessionItemInput{{ProductSlug: "brasero-80", Quantity: 1}},
		Customer: validCustomer(),
		Shipping: validShipping(),
	})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got: %v", err)
	}
}

func TestSessionStatusRejectsMalformedID(t *testing.T) {
	svc, _ := setupCheckoutServiceTest(t, "http://127.0.0.1:0")

	_, err := svc.SessionStatus(context.Background(), "not-a-session")
	if !errors.Is(err, ErrSessionIDInvalid) {
		t.Fatalf("expected malformed session id error, got: %v", err)
	}
}

func TestSessionStatusQueriesProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/checkout/sessions/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_abc12345678","customer_email":"jo@example.com","amount_total":178000,"currency":"eur","payment_status":"paid"}`))
	}))
	defer server.Close()
	svc, _ := setupCheckoutServiceTest(t, server.URL)

	view, err := svc.SessionStatus(context.Background(), "cs_test_abc12345678")
	if err != nil {
		t.Fatalf("session status failed: %v", err)
	}
	if view.Email != "jo@example.com" {
		t.Fatalf("unexpected email: %s", view.Email)
	}
	if view.AmountTotal.MinorUnits() != 178000 {
		t.Fatalf("unexpected amount: %d", view.AmountTotal.MinorUnits())
	}
	if view.PaymentStatus != "paid" {
		t.Fatalf("unexpected payment status: %s", view.PaymentStatus)
	}
	if view.Currency != "EUR" {
		t.Fatalf("unexpected currency: %s", view.Currency)
	}
}
