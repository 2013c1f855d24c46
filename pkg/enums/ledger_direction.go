package enums

import "fmt"

// LedgerDirection maps to the ledger_direction enum in Postgres.
type LedgerDirection string

const (
	LedgerDirectionCredit LedgerDirection = "credit"
	LedgerDirectionDebit  LedgerDirection = "debit"
)

// IsValid reports whether the value matches the canonical direction enum.
func (d LedgerDirection) IsValid() bool {
	return d == LedgerDirectionCredit || d == LedgerDirectionDebit
}

// Flip returns the opposite direction, used when building reversal entries.
func (d LedgerDirection) Flip() LedgerDirection {
	if d == LedgerDirectionCredit {
		return LedgerDirectionDebit
	}
	return LedgerDirectionCredit
}

// ParseLedgerDirection converts raw input into LedgerDirection.
func ParseLedgerDirection(value string) (LedgerDirection, error) {
	switch LedgerDirection(value) {
	case LedgerDirectionCredit:
		return LedgerDirectionCredit, nil
	case LedgerDirectionDebit:
		return LedgerDirectionDebit, nil
	default:
		return "", fmt.Errorf("invalid ledger direction %q", value)
	}
}
