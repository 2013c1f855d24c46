package enums

import "fmt"

// PartyKind identifies the ledger participant variant.
type PartyKind string

const (
	PartyKindPlatform      PartyKind = "platform"
	PartyKindSeller        PartyKind = "seller"
	PartyKindDeliveryAgent PartyKind = "delivery_agent"
	PartyKindCustomer      PartyKind = "customer"
)

var validPartyKinds = []PartyKind{
	PartyKindPlatform,
	PartyKindSeller,
	PartyKindDeliveryAgent,
	PartyKindCustomer,
}

// IsValid reports whether the value matches the canonical party kind enum.
func (k PartyKind) IsValid() bool {
	for _, candidate := range validPartyKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePartyKind converts raw input into PartyKind.
func ParsePartyKind(value string) (PartyKind, error) {
	for _, candidate := range validPartyKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party kind %q", value)
}
