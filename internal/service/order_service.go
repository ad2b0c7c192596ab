package service

import (
	"strings"

	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/models"
	"github.com/emberline/storefront/internal/repository"
)

// OrderService reads orders for their owners and applies back-office status
// transitions. It never creates orders; that is fulfillment's job alone.
type OrderService struct {
	orderRepo repository.OrderRepository
}

// NewOrderService creates the order service.
func NewOrderService(orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{orderRepo: orderRepo}
}

// ListByUser returns the user's orders, newest first.
func (s *OrderService) ListByUser(userID uint) ([]models.Order, error) {
	if userID == 0 {
		return nil, ErrOrderNotFound
	}
	return s.orderRepo.ListByUser(userID)
}

// GetForUser returns one order when it belongs to the user. Other identities'
// orders read as not found; cross-identity access is never distinguishable
// from absence.
func (s *OrderService) GetForUser(userID, orderID uint) (*models.Order, error) {
	if userID == 0 || orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID == nil || *order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// TransitionStatus applies a back-office lifecycle transition.
func (s *OrderService) TransitionStatus(orderID uint, next string) (*models.Order, error) {
	next = strings.TrimSpace(strings.ToLower(next))
	if !IsKnownOrderStatus(next) {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !CanTransitionOrderStatus(order.Status, next) {
		return nil, ErrOrderStatusInvalid
	}
	if err := s.orderRepo.UpdateStatus(order.ID, next); err != nil {
		return nil, err
	}
	logger.Infow("order_status_transitioned",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"from", order.Status,
		"to", next,
	)
	order.Status = next
	return order, nil
}
