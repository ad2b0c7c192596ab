package queue

import (
	"encoding/json"

	"github.com/emberline/storefront/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderConfirmedEmail notifies the customer that payment settled and
	// the order is confirmed.
	TaskOrderConfirmedEmail = constants.TaskOrderConfirmedEmail
)

// OrderConfirmedEmailPayload identifies the order to announce.
type OrderConfirmedEmailPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderConfirmedEmailTask creates an order confirmation email task.
func NewOrderConfirmedEmailTask(payload OrderConfirmedEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderConfirmedEmail, body), nil
}
