package enums

import "fmt"

// LedgerReason maps to the ledger_reason enum in Postgres.
type LedgerReason string

const (
	LedgerReasonSaleEarning            LedgerReason = "sale_earning"
	LedgerReasonPlatformCommission     LedgerReason = "platform_commission"
	LedgerReasonDeliveryFee            LedgerReason = "delivery_fee"
	LedgerReasonRefund                 LedgerReason = "refund"
	LedgerReasonWithdrawalDisbursement LedgerReason = "withdrawal_disbursement"
	LedgerReasonWithdrawalHold         LedgerReason = "withdrawal_hold"
	LedgerReasonAdjustment             LedgerReason = "adjustment"
)

var validLedgerReasons = []LedgerReason{
	LedgerReasonSaleEarning,
	LedgerReasonPlatformCommission,
	LedgerReasonDeliveryFee,
	LedgerReasonRefund,
	LedgerReasonWithdrawalDisbursement,
	LedgerReasonWithdrawalHold,
	LedgerReasonAdjustment,
}

// IsValid reports whether the value matches the canonical ledger reason enum.
func (r LedgerReason) IsValid() bool {
	for _, candidate := range validLedgerReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseLedgerReason converts raw input into LedgerReason.
func ParseLedgerReason(value string) (LedgerReason, error) {
	for _, candidate := range validLedgerReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger reason %q", value)
}
