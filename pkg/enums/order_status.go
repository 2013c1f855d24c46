package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusDraft            OrderStatus = "draft"
	OrderStatusPlaced           OrderStatus = "placed"
	OrderStatusAccepted         OrderStatus = "accepted"
	OrderStatusPrepared         OrderStatus = "prepared"
	OrderStatusShipped          OrderStatus = "shipped"
	OrderStatusOutForDelivery   OrderStatus = "out_for_delivery"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusRefundInProgress OrderStatus = "refund_in_progress"
	OrderStatusRefunded         OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusPlaced,
	OrderStatusAccepted,
	OrderStatusPrepared,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefundInProgress,
	OrderStatusRefunded,
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further order transitions are defined.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
