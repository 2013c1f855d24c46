package enums

import "fmt"

// SettlementStatus tracks whether an item's commissions have been posted to the ledger.
type SettlementStatus string

const (
	SettlementStatusUnsettled SettlementStatus = "unsettled"
	SettlementStatusSettled   SettlementStatus = "settled"
	SettlementStatusReversed  SettlementStatus = "reversed"
)

var validSettlementStatuses = []SettlementStatus{
	SettlementStatusUnsettled,
	SettlementStatusSettled,
	SettlementStatusReversed,
}

// IsValid reports whether the value matches the canonical settlement status enum.
func (s SettlementStatus) IsValid() bool {
	for _, candidate := range validSettlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettlementStatus converts raw input into SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	for _, candidate := range validSettlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement status %q", value)
}
