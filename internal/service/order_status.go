package service

import "github.com/emberline/storefront/internal/constants"

// orderStatusTransitions is the back-office order lifecycle. Fulfillment only
// ever produces "confirmed"; everything after is operator-driven.
var orderStatusTransitions = map[string][]string{
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered,
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusDelivered: {},
	constants.OrderStatusCancelled: {},
	constants.OrderStatusRefunded:  {},
}

// CanTransitionOrderStatus reports whether from -> to is a legal transition.
func CanTransitionOrderStatus(from, to string) bool {
	allowed, ok := orderStatusTransitions[from]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsKnownOrderStatus reports whether the status is part of the lifecycle.
func IsKnownOrderStatus(status string) bool {
	_, ok := orderStatusTransitions[status]
	return ok
}
