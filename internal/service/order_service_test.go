package service

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emberline/storefront/internal/constants"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *repository.GormOrderRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate tables failed: %v", err)
	}
	orderRepo := repository.NewOrderRepository(db)
	return NewOrderService(orderRepo), orderRepo
}

var seedOrderSeq uint64

func seedOrder(t *testing.T, repo *repository.GormOrderRepository, userID uint, status string) *models.Order {
	t.Helper()
	var owner *uint
	if userID != 0 {
		owner = &userID
	}
	seq := atomic.AddUint64(&seedOrderSeq, 1)
	order := &models.Order{
		OrderNo:       fmt.Sprintf("ORD-%d", seq),
		PaymentRef:    fmt.Sprintf("cs_test_%d", seq),
		UserID:        owner,
		Status:        status,
		Currency:      "EUR",
		TotalAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(890)),
		CustomerEmail: "jo@example.com",
	}
	if err := repo.Create(order); err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
	return order
}

func TestCanTransitionOrderStatus(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusCancelled, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusShipped, false},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusConfirmed, false},
		{constants.OrderStatusDelivered, constants.OrderStatusRefunded, false},
		{constants.OrderStatusCancelled, constants.OrderStatusProcessing, false},
		{"unknown", constants.OrderStatusProcessing, false},
	}
	for _, tc := range cases {
		if got := CanTransitionOrderStatus(tc.from, tc.to); got != tc.want {
			t.Errorf("%s -> %s: want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestTransitionStatusHappyPath(t *testing.T) {
	svc, repo := setupOrderServiceTest(t)
	order := seedOrder(t, repo, 1, constants.OrderStatusConfirmed)

	updated, err := svc.TransitionStatus(order.ID, "Processing")
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}

	reloaded, err := repo.GetByID(order.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected persisted processing, got %s", reloaded.Status)
	}
}

func TestTransitionStatusRejectsIllegalMove(t *testing.T) {
	svc, repo := setupOrderServiceTest(t)
	order := seedOrder(t, repo, 1, constants.OrderStatusConfirmed)

	if _, err := svc.TransitionStatus(order.ID, constants.OrderStatusDelivered); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected invalid status error, got: %v", err)
	}
	if _, err := svc.TransitionStatus(order.ID, "archived"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected invalid status for unknown value, got: %v", err)
	}

	reloaded, err := repo.GetByID(order.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusConfirmed {
		t.Fatalf("rejected transitions must not persist, got %s", reloaded.Status)
	}
}

func TestTransitionStatusMissingOrder(t *testing.T) {
	svc, _ := setupOrderServiceTest(t)

	if _, err := svc.TransitionStatus(999, constants.OrderStatusProcessing); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}
}

func TestGetForUserHidesOtherIdentities(t *testing.T) {
	svc, repo := setupOrderServiceTest(t)
	owned := seedOrder(t, repo, 1, constants.OrderStatusConfirmed)
	foreign := seedOrder(t, repo, 2, constants.OrderStatusConfirmed)
	guest := seedOrder(t, repo, 0, constants.OrderStatusConfirmed)

	got, err := svc.GetForUser(1, owned.ID)
	if err != nil {
		t.Fatalf("get own order failed: %v", err)
	}
	if got.ID != owned.ID {
		t.Fatalf("expected order %d, got %d", owned.ID, got.ID)
	}

	// Someone else's order and a guest order both read as absent.
	if _, err := svc.GetForUser(1, foreign.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for foreign order, got: %v", err)
	}
	if _, err := svc.GetForUser(1, guest.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for guest order, got: %v", err)
	}
	if _, err := svc.GetForUser(1, 424242); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found for missing id, got: %v", err)
	}
}

func TestListByUserScopesAndOrders(t *testing.T) {
	svc, repo := setupOrderServiceTest(t)
	seedOrder(t, repo, 1, constants.OrderStatusConfirmed)
	seedOrder(t, repo, 1, constants.OrderStatusProcessing)
	seedOrder(t, repo, 2, constants.OrderStatusConfirmed)

	orders, err := svc.ListByUser(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	for _, order := range orders {
		if order.UserID == nil || *order.UserID != 1 {
			t.Fatalf("expected only user 1 orders, got %+v", order)
		}
	}
}
