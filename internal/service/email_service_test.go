package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/emberline/storefront/internal/config"
	"github.com/emberline/storefront/internal/models"
)

func TestSendOrderConfirmedEmailDisabled(t *testing.T) {
	order := &models.Order{OrderNo: "ORD-1", CustomerEmail: "jo@example.com"}

	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	if err := svc.SendOrderConfirmedEmail(order); !errors.Is(err, ErrEmailDisabled) {
		t.Fatalf("expected email disabled, got: %v", err)
	}

	// Enabled but unconfigured behaves the same.
	svc = NewEmailService(&config.EmailConfig{Enabled: true})
	if err := svc.SendOrderConfirmedEmail(order); !errors.Is(err, ErrEmailDisabled) {
		t.Fatalf("expected email disabled for missing host, got: %v", err)
	}

	svc = NewEmailService(nil)
	if err := svc.SendOrderConfirmedEmail(order); !errors.Is(err, ErrEmailDisabled) {
		t.Fatalf("expected email disabled for nil config, got: %v", err)
	}
}

func TestSendOrderConfirmedEmailRejectsBadRecipient(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "shop@example.com",
	})
	order := &models.Order{OrderNo: "ORD-1", CustomerEmail: "not-an-address"}

	if err := svc.SendOrderConfirmedEmail(order); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got: %v", err)
	}
}

func TestSendOrderConfirmedEmailNilOrder(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	if err := svc.SendOrderConfirmedEmail(nil); err != nil {
		t.Fatalf("nil order must be a no-op, got: %v", err)
	}
}

func TestBuildEmailMessageHeaders(t *testing.T) {
	msg := buildEmailMessage("shop@example.com", "jo@example.com", "Order ORD-1 confirmed", "Hi Jo,")

	for _, want := range []string{
		"From: shop@example.com\r\n",
		"To: jo@example.com\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"\r\n\r\nHi Jo,",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message, got:\n%s", want, msg)
		}
	}
}

func TestBuildFromAddressEncodesDisplayName(t *testing.T) {
	if got := buildFromAddress("shop@example.com", ""); got != "shop@example.com" {
		t.Fatalf("empty name must yield the bare address, got %s", got)
	}
	got := buildFromAddress("shop@example.com", "Emberline Shop")
	if !strings.Contains(got, "shop@example.com") || !strings.Contains(got, "Emberline") {
		t.Fatalf("unexpected from address: %s", got)
	}
}
