package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/emberline/storefront/internal/logger"
	"github.com/emberline/storefront/internal/provider"
	"github.com/emberline/storefront/internal/queue"
	"github.com/emberline/storefront/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer handles async tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{Container: c}
}

// Register wires task handlers into the mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderConfirmedEmail, c.handleOrderConfirmedEmail)
}

func (c *Consumer) handleOrderConfirmedEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.OrderConfirmedEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_confirmed_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_confirmed_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_confirmed_email_fetch_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_confirmed_email_skip_not_found", "order_id", payload.OrderID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_confirmed_email_skip_service_nil", "order_id", order.ID)
		return nil
	}
	if err := c.EmailService.SendOrderConfirmedEmail(order); err != nil {
		if errors.Is(err, service.ErrEmailDisabled) {
			// Sending is an optional feature; the order stands without it.
			logger.Debugw("worker_order_confirmed_email_skip_disabled", "order_id", order.ID)
			return nil
		}
		logger.Warnw("worker_order_confirmed_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
		return err
	}
	logger.Infow("order_confirmed_email_sent", "order_id", order.ID, "order_no", order.OrderNo)
	return nil
}
