package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/emberline/storefront/internal/constants"
	"github.com/emberline/storefront/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) *GormOrderRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate order tables failed: %v", err)
	}
	return NewOrderRepository(db)
}

func buildTestOrder(orderNo, paymentRef string, userID *uint) *models.Order {
	return &models.Order{
		OrderNo:       orderNo,
		UserID:        userID,
		PaymentRef:    paymentRef,
		Status:        constants.OrderStatusConfirmed,
		Currency:      "EUR",
		TotalAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(1780)),
		CustomerEmail: "jo@example.com",
		Items: []models.OrderItem{
			{
				ProductSlug: "brasero-80",
				ProductName: "Brasero 80 Fire Bowl",
				UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(890)),
				Quantity:    2,
				TotalPrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(1780)),
			},
		},
	}
}

func TestCreateOrderDuplicatePaymentRef(t *testing.T) {
	repo := setupOrderRepositoryTest(t)

	first := buildTestOrder("EMB20260831AAAA0001", "cs_test_dup12345678", nil)
	if err := repo.Create(first); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	second := buildTestOrder("EMB20260831AAAA0002", "cs_test_dup12345678", nil)
	err := repo.Create(second)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicated key error, got: %v", err)
	}

	existing, err := repo.GetByPaymentRef("cs_test_dup12345678")
	if err != nil {
		t.Fatalf("get by payment ref failed: %v", err)
	}
	if existing == nil || existing.ID != first.ID {
		t.Fatalf("expected first order back, got %+v", existing)
	}
	if len(existing.Items) != 1 {
		t.Fatalf("expected items preloaded, got %d", len(existing.Items))
	}
}

func TestGetByPaymentRefMissing(t *testing.T) {
	repo := setupOrderRepositoryTest(t)
	order, err := repo.GetByPaymentRef("cs_test_missing12345")
	if err != nil {
		t.Fatalf("get by payment ref failed: %v", err)
	}
	if order != nil {
		t.Fatalf("expected nil, got %+v", order)
	}
}

func TestListByUserScopesToOwner(t *testing.T) {
	repo := setupOrderRepositoryTest(t)
	userA := uint(7)
	userB := uint(8)
	if err := repo.Create(buildTestOrder("EMB20260831BBBB0001", "cs_test_list00000001", &userA)); err != nil {
		t.Fatalf("create order for user a failed: %v", err)
	}
	if err := repo.Create(buildTestOrder("EMB20260831BBBB0002", "cs_test_list00000002", &userA)); err != nil {
		t.Fatalf("create second order for user a failed: %v", err)
	}
	if err := repo.Create(buildTestOrder("EMB20260831BBBB0003", "cs_test_list00000003", &userB)); err != nil {
		t.Fatalf("create order for user b failed: %v", err)
	}

	orders, err := repo.ListByUser(userA)
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	for _, order := range orders {
		if order.UserID == nil || *order.UserID != userA {
			t.Fatalf("order %s does not belong to user %d", order.OrderNo, userA)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := setupOrderRepositoryTest(t)
	order := buildTestOrder("EMB20260831CCCC0001", "cs_test_status000001", nil)
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if err := repo.UpdateStatus(order.ID, constants.OrderStatusProcessing); err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if got.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", got.Status)
	}
}
