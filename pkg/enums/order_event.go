package enums

import "fmt"

// OrderEvent names the transitions the order state machine accepts.
type OrderEvent string

const (
	// OrderEventPlace is recorded on the draft to placed timeline entry.
	// It is not accepted through the transition API.
	OrderEventPlace              OrderEvent = "place"
	OrderEventAccept             OrderEvent = "accept"
	OrderEventAssignAgent        OrderEvent = "assign_agent"
	OrderEventMarkPrepared       OrderEvent = "mark_prepared"
	OrderEventMarkShipped        OrderEvent = "mark_shipped"
	OrderEventMarkOutForDelivery OrderEvent = "mark_out_for_delivery"
	OrderEventMarkDelivered      OrderEvent = "mark_delivered"
	OrderEventCancel             OrderEvent = "cancel"
	OrderEventRequestReturn      OrderEvent = "request_return"
	OrderEventApproveReturn      OrderEvent = "approve_return"
)

var validOrderEvents = []OrderEvent{
	OrderEventPlace,
	OrderEventAccept,
	OrderEventAssignAgent,
	OrderEventMarkPrepared,
	OrderEventMarkShipped,
	OrderEventMarkOutForDelivery,
	OrderEventMarkDelivered,
	OrderEventCancel,
	OrderEventRequestReturn,
	OrderEventApproveReturn,
}

// IsValid reports whether the value matches a known order event.
func (e OrderEvent) IsValid() bool {
	for _, candidate := range validOrderEvents {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOrderEvent converts raw input into OrderEvent.
func ParseOrderEvent(value string) (OrderEvent, error) {
	for _, candidate := range validOrderEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order event %q", value)
}
