package orders

import (
	"fmt"

	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
)

// transitionRule describes one edge of the order state machine. A nil
// `to` means the event leaves the order status untouched (item-level or
// assignment events).
type transitionRule struct {
	from  []enums.OrderStatus
	to    enums.OrderStatus
	same  bool
	roles []enums.ActorRole
}

var transitionRules = map[enums.OrderEvent]transitionRule{
	enums.OrderEventAccept: {
		from:  []enums.OrderStatus{enums.OrderStatusPlaced},
		to:    enums.OrderStatusAccepted,
		roles: []enums.ActorRole{enums.ActorRoleSeller, enums.ActorRoleAdmin},
	},
	enums.OrderEventAssignAgent: {
		from:  []enums.OrderStatus{enums.OrderStatusAccepted, enums.OrderStatusPrepared},
		same:  true,
		roles: []enums.ActorRole{enums.ActorRoleAdmin, enums.ActorRoleSystem},
	},
	enums.OrderEventMarkPrepared: {
		from:  []enums.OrderStatus{enums.OrderStatusAccepted},
		to:    enums.OrderStatusPrepared,
		roles: []enums.ActorRole{enums.ActorRoleSeller, enums.ActorRoleAdmin},
	},
	enums.OrderEventMarkShipped: {
		from:  []enums.OrderStatus{enums.OrderStatusPrepared},
		to:    enums.OrderStatusShipped,
		roles: []enums.ActorRole{enums.ActorRoleSeller, enums.ActorRoleAdmin},
	},
	enums.OrderEventMarkOutForDelivery: {
		from:  []enums.OrderStatus{enums.OrderStatusShipped},
		to:    enums.OrderStatusOutForDelivery,
		roles: []enums.ActorRole{enums.ActorRoleDeliveryAgent, enums.ActorRoleAdmin},
	},
	enums.OrderEventMarkDelivered: {
		from:  []enums.OrderStatus{enums.OrderStatusOutForDelivery},
		to:    enums.OrderStatusDelivered,
		roles: []enums.ActorRole{enums.ActorRoleDeliveryAgent, enums.ActorRoleAdmin},
	},
	enums.OrderEventCancel: {
		from: []enums.OrderStatus{
			enums.OrderStatusDraft,
			enums.OrderStatusPlaced,
			enums.OrderStatusAccepted,
			enums.OrderStatusPrepared,
			enums.OrderStatusShipped,
			enums.OrderStatusOutForDelivery,
		},
		to: enums.OrderStatusCancelled,
		roles: []enums.ActorRole{
			enums.ActorRoleCustomer,
			enums.ActorRoleSeller,
			enums.ActorRoleAdmin,
			enums.ActorRoleSystem,
		},
	},
	enums.OrderEventRequestReturn: {
		from:  []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusRefundInProgress},
		same:  true,
		roles: []enums.ActorRole{enums.ActorRoleCustomer, enums.ActorRoleAdmin},
	},
	enums.OrderEventApproveReturn: {
		from:  []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusRefundInProgress},
		same:  true,
		roles: []enums.ActorRole{enums.ActorRoleAdmin},
	},
}

func illegalTransition(from enums.OrderStatus, event enums.OrderEvent) error {
	return apperrors.New(apperrors.CodeIllegalTransition,
		fmt.Sprintf("event %s is not allowed from state %s", event, from)).
		WithDetails(map[string]string{"from": string(from), "event": string(event)})
}

// nextStatus resolves the target status for an event, or an
// illegal-transition error when the edge does not exist.
func nextStatus(from enums.OrderStatus, event enums.OrderEvent) (enums.OrderStatus, error) {
	rule, ok := transitionRules[event]
	if !ok {
		return "", illegalTransition(from, event)
	}
	for _, allowed := range rule.from {
		if allowed == from {
			if rule.same {
				return from, nil
			}
			return rule.to, nil
		}
	}
	return "", illegalTransition(from, event)
}

// roleMayFire reports whether the role is ever allowed to fire the event.
// Ownership checks (this seller, this agent) happen in the service.
func roleMayFire(event enums.OrderEvent, role enums.ActorRole) bool {
	rule, ok := transitionRules[event]
	if !ok {
		return false
	}
	for _, allowed := range rule.roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// cancelAllowed applies the role-specific cutoffs on the cancel edge:
// customers may cancel before shipment, sellers before they accept, admins
// and the system any time pre-delivery.
func cancelAllowed(status enums.OrderStatus, role enums.ActorRole) bool {
	switch role {
	case enums.ActorRoleCustomer:
		switch status {
		case enums.OrderStatusDraft, enums.OrderStatusPlaced, enums.OrderStatusAccepted, enums.OrderStatusPrepared:
			return true
		}
		return false
	case enums.ActorRoleSeller:
		switch status {
		case enums.OrderStatusDraft, enums.OrderStatusPlaced:
			return true
		}
		return false
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		switch status {
		case enums.OrderStatusDelivered, enums.OrderStatusCancelled,
			enums.OrderStatusRefundInProgress, enums.OrderStatusRefunded:
			return false
		}
		return true
	default:
		return false
	}
}
