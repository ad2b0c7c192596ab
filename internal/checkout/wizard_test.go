package checkout

import (
	"errors"
	"strings"
	"testing"
)

func validDetails() CustomerDetails {
	return CustomerDetails{
		FirstName:    "Jo",
		LastName:     "Martin",
		Email:        "jo@example.com",
		AddressLine1: "12 Rue des Forges",
		PostalCode:   "69001",
		City:         "Lyon",
		Country:      "FR",
	}
}

func completeThroughDelivery(t *testing.T) *Wizard {
	t.Helper()
	w := NewWizard()
	if err := w.CompleteInfos(validDetails()); err != nil {
		t.Fatalf("complete infos failed: %v", err)
	}
	if err := w.CompleteAddress(); err != nil {
		t.Fatalf("complete address failed: %v", err)
	}
	if err := w.CompleteDelivery("standard"); err != nil {
		t.Fatalf("complete delivery failed: %v", err)
	}
	return w
}

func TestWizardAdvancesInOrder(t *testing.T) {
	w := NewWizard()
	if w.ActiveStage() != StageInfos {
		t.Fatalf("expected infos active, got %s", w.ActiveStage())
	}

	if err := w.CompleteInfos(validDetails()); err != nil {
		t.Fatalf("complete infos failed: %v", err)
	}
	if w.ActiveStage() != StageAddress {
		t.Fatalf("expected address active, got %s", w.ActiveStage())
	}

	if err := w.CompleteAddress(); err != nil {
		t.Fatalf("complete address failed: %v", err)
	}
	if w.ActiveStage() != StageDelivery {
		t.Fatalf("expected delivery active, got %s", w.ActiveStage())
	}

	if err := w.CompleteDelivery("express"); err != nil {
		t.Fatalf("complete delivery failed: %v", err)
	}
	if w.ActiveStage() != StagePayment {
		t.Fatalf("expected payment active, got %s", w.ActiveStage())
	}
	if !w.PaymentActionable() {
		t.Fatalf("expected payment actionable")
	}
	if w.DeliveryOption() != "express" {
		t.Fatalf("unexpected delivery option: %s", w.DeliveryOption())
	}
}

func TestWizardGatesEarlierStages(t *testing.T) {
	w := NewWizard()

	if err := w.CompleteAddress(); !errors.Is(err, ErrStageNotReady) {
		t.Fatalf("expected stage not ready for address, got: %v", err)
	}
	if err := w.CompleteDelivery("standard"); !errors.Is(err, ErrStageNotReady) {
		t.Fatalf("expected stage not ready for delivery, got: %v", err)
	}
	if err := w.SelectPaymentMethod("card"); !errors.Is(err, ErrStageNotReady) {
		t.Fatalf("expected stage not ready for payment, got: %v", err)
	}
	if w.PaymentActionable() {
		t.Fatalf("payment must not be actionable on a fresh wizard")
	}
}

func TestWizardInfosAggregatesEveryMissingField(t *testing.T) {
	w := NewWizard()

	err := w.CompleteInfos(CustomerDetails{
		LastName: "Martin",
		Email:    "not-an-email",
		City:     "Lyon",
	})
	if !errors.Is(err, ErrInfosInvalid) {
		t.Fatalf("expected infos invalid, got: %v", err)
	}
	for _, want := range []string{"first name", "valid email", "address line", "postal code"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in message, got: %v", want, err)
		}
	}
	if strings.Contains(err.Error(), "last name") || strings.Contains(err.Error(), "city") {
		t.Fatalf("present fields must not be reported: %v", err)
	}
	if w.IsCompleted(StageInfos) {
		t.Fatalf("failed validation must not complete the stage")
	}
}

func TestWizardDeliveryOptionRequired(t *testing.T) {
	w := NewWizard()
	if err := w.CompleteInfos(validDetails()); err != nil {
		t.Fatalf("complete infos failed: %v", err)
	}
	if err := w.CompleteAddress(); err != nil {
		t.Fatalf("complete address failed: %v", err)
	}
	if err := w.CompleteDelivery("  "); !errors.Is(err, ErrDeliveryOptionRequired) {
		t.Fatalf("expected delivery option required, got: %v", err)
	}
}

func TestWizardReopenCascades(t *testing.T) {
	w := completeThroughDelivery(t)

	if err := w.Reopen(StageAddress); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if w.ActiveStage() != StageAddress {
		t.Fatalf("expected address active after reopen, got %s", w.ActiveStage())
	}
	if !w.IsCompleted(StageInfos) {
		t.Fatalf("infos must survive reopening a later stage")
	}
	if w.IsCompleted(StageAddress) || w.IsCompleted(StageDelivery) {
		t.Fatalf("address and delivery must be reset")
	}
	if w.PaymentActionable() {
		t.Fatalf("payment must be unreachable after the cascade")
	}

	// Walking forward again restores the gate.
	if err := w.CompleteAddress(); err != nil {
		t.Fatalf("re-complete address failed: %v", err)
	}
	if err := w.CompleteDelivery("standard"); err != nil {
		t.Fatalf("re-complete delivery failed: %v", err)
	}
	if !w.PaymentActionable() {
		t.Fatalf("expected payment actionable after redoing stages")
	}
}

func TestWizardReopenUnknownStage(t *testing.T) {
	w := NewWizard()
	if err := w.Reopen(Stage("review")); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected unknown stage, got: %v", err)
	}
}

func TestWizardNeverCompletesPayment(t *testing.T) {
	w := completeThroughDelivery(t)

	if err := w.SelectPaymentMethod("card"); err != nil {
		t.Fatalf("select payment method failed: %v", err)
	}
	if w.PaymentMethod() != "card" {
		t.Fatalf("unexpected payment method: %s", w.PaymentMethod())
	}
	// Only a verified webhook concludes a purchase; the wizard has no way to
	// mark payment complete.
	if w.IsCompleted(StagePayment) {
		t.Fatalf("payment stage must never be completed by the wizard")
	}
}
