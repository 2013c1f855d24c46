package enums

import "fmt"

// OrderItemStatus maps to the order_item_status enum in Postgres.
type OrderItemStatus string

const (
	OrderItemStatusPending         OrderItemStatus = "pending"
	OrderItemStatusAccepted        OrderItemStatus = "accepted"
	OrderItemStatusShipped         OrderItemStatus = "shipped"
	OrderItemStatusDelivered       OrderItemStatus = "delivered"
	OrderItemStatusCancelled       OrderItemStatus = "cancelled"
	OrderItemStatusReturnRequested OrderItemStatus = "return_requested"
	OrderItemStatusReturned        OrderItemStatus = "returned"
	OrderItemStatusRefunded        OrderItemStatus = "refunded"
)

var validOrderItemStatuses = []OrderItemStatus{
	OrderItemStatusPending,
	OrderItemStatusAccepted,
	OrderItemStatusShipped,
	OrderItemStatusDelivered,
	OrderItemStatusCancelled,
	OrderItemStatusReturnRequested,
	OrderItemStatusReturned,
	OrderItemStatusRefunded,
}

// IsValid reports whether the value matches the canonical item status enum.
func (s OrderItemStatus) IsValid() bool {
	for _, candidate := range validOrderItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderItemStatus converts raw input into OrderItemStatus.
func ParseOrderItemStatus(value string) (OrderItemStatus, error) {
	for _, candidate := range validOrderItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order item status %q", value)
}
