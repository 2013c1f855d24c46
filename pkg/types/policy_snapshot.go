package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// PolicySnapshot freezes the commission inputs used at settlement time so
// later audits reproduce the computation. Stored as jsonb on the order item.
type PolicySnapshot struct {
	PolicyID uuid.UUID             `json:"policy_id"`
	Scope    enums.CommissionScope `json:"scope"`
	Rate     decimal.Decimal       `json:"rate"`
	Fixed    decimal.Decimal       `json:"fixed"`
}
