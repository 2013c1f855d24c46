package enums

import "fmt"

// FulfillmentType maps to the fulfillment_type enum in Postgres.
type FulfillmentType string

const (
	FulfillmentTypeDelivery FulfillmentType = "delivery"
	FulfillmentTypePickup   FulfillmentType = "pickup"
)

// IsValid reports whether the value matches the canonical fulfillment type enum.
func (t FulfillmentType) IsValid() bool {
	return t == FulfillmentTypeDelivery || t == FulfillmentTypePickup
}

// ParseFulfillmentType converts raw input into FulfillmentType.
func ParseFulfillmentType(value string) (FulfillmentType, error) {
	switch FulfillmentType(value) {
	case FulfillmentTypeDelivery:
		return FulfillmentTypeDelivery, nil
	case FulfillmentTypePickup:
		return FulfillmentTypePickup, nil
	default:
		return "", fmt.Errorf("invalid fulfillment type %q", value)
	}
}
