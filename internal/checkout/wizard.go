// Package checkout models the four-stage purchase wizard. The wizard is
// ephemeral per client session: it gates when payment may start but holds no
// pricing logic and is never persisted.
package checkout

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Stage is one step of the linear purchase wizard.
type Stage string

const (
	StageInfos    Stage = "infos"
	StageAddress  Stage = "address"
	StageDelivery Stage = "delivery"
	StagePayment  Stage = "payment"
)

var stageOrder = []Stage{StageInfos, StageAddress, StageDelivery, StagePayment}

var (
	// ErrStageNotReady means an earlier stage is still incomplete.
	ErrStageNotReady = errors.New("earlier checkout stage incomplete")
	// ErrUnknownStage means the stage name is not part of the wizard.
	ErrUnknownStage = errors.New("unknown checkout stage")
	// ErrInfosInvalid aggregates every missing customer field into one message.
	ErrInfosInvalid = errors.New("customer info incomplete")
	// ErrDeliveryOptionRequired means no delivery option was selected.
	ErrDeliveryOptionRequired = errors.New("delivery option required")
)

// CustomerDetails is the customer block gathered by the infos stage.
type CustomerDetails struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	PostalCode   string
	City         string
	Country      string
}

// Wizard walks infos -> address -> delivery -> payment. Completing a stage
// with valid input advances; reopening a stage cascades, resetting it and
// every later stage. The payment stage is never marked complete here: only a
// verified webhook can conclude a purchase.
//
// A Wizard belongs to one client session and is not safe for concurrent use.
type Wizard struct {
	active    Stage
	completed map[Stage]bool

	details        CustomerDetails
	deliveryOption string
	paymentMethod  string
}

// NewWizard starts a fresh checkout at the infos stage.
func NewWizard() *Wizard {
	return &Wizard{
		active:    StageInfos,
		completed: make(map[Stage]bool, len(stageOrder)),
	}
}

// ActiveStage returns the stage currently being edited.
func (w *Wizard) ActiveStage() Stage {
	return w.active
}

// IsCompleted reports whether a stage has been completed.
func (w *Wizard) IsCompleted(stage Stage) bool {
	return w.completed[stage]
}

// Details returns the customer block captured so far.
func (w *Wizard) Details() CustomerDetails {
	return w.details
}

// DeliveryOption returns the selected delivery option.
func (w *Wizard) DeliveryOption() string {
	return w.deliveryOption
}

// PaymentMethod returns the selected payment method.
func (w *Wizard) PaymentMethod() string {
	return w.paymentMethod
}

// CompleteInfos validates the customer block and completes the infos stage.
// All failures are reported together as one aggregated error, not
// field-by-field.
func (w *Wizard) CompleteInfos(details CustomerDetails) error {
	var missing []string
	if strings.TrimSpace(details.FirstName) == "" {
		missing = append(missing, "first name")
	}
	if strings.TrimSpace(details.LastName) == "" {
		missing = append(missing, "last name")
	}
	if !isPlausibleEmail(details.Email) {
		missing = append(missing, "valid email")
	}
	if strings.TrimSpace(details.AddressLine1) == "" {
		missing = append(missing, "address line")
	}
	if strings.TrimSpace(details.PostalCode) == "" {
		missing = append(missing, "postal code")
	}
	if strings.TrimSpace(details.City) == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInfosInvalid, strings.Join(missing, ", "))
	}
	w.details = details
	w.complete(StageInfos)
	return nil
}

// CompleteAddress confirms the shipping destination captured at the infos
// stage.
func (w *Wizard) CompleteAddress() error {
	if !w.completed[StageInfos] {
		return ErrStageNotReady
	}
	w.complete(StageAddress)
	return nil
}

// CompleteDelivery records the selected delivery option.
func (w *Wizard) CompleteDelivery(option string) error {
	if !w.completed[StageAddress] {
		return ErrStageNotReady
	}
	option = strings.TrimSpace(option)
	if option == "" {
		return ErrDeliveryOptionRequired
	}
	w.deliveryOption = option
	w.complete(StageDelivery)
	return nil
}

// SelectPaymentMethod records the payment method choice. It does not complete
// the payment stage; the wizard has no authority to conclude a purchase.
func (w *Wizard) SelectPaymentMethod(method string) error {
	if !w.PaymentActionable() {
		return ErrStageNotReady
	}
	w.paymentMethod = strings.TrimSpace(method)
	return nil
}

// PaymentActionable reports whether the payment stage may be entered. It
// requires every earlier stage to be complete.
func (w *Wizard) PaymentActionable() bool {
	return w.completed[StageInfos] && w.completed[StageAddress] && w.completed[StageDelivery]
}

// Reopen makes a stage editable again. Reopening stage N resets N and every
// later stage: re-editing the address invalidates delivery and payment since
// shipping cost or eligibility could change.
func (w *Wizard) Reopen(stage Stage) error {
	idx := stageIndex(stage)
	if idx < 0 {
		return ErrUnknownStage
	}
	for _, later := range stageOrder[idx:] {
		w.completed[later] = false
	}
	w.active = stage
	return nil
}

// complete marks the stage done and advances the active stage.
func (w *Wizard) complete(stage Stage) {
	w.completed[stage] = true
	idx := stageIndex(stage)
	if idx >= 0 && idx+1 < len(stageOrder) {
		w.active = stageOrder[idx+1]
	}
}

func stageIndex(stage Stage) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

func isPlausibleEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
