package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// WithdrawalRequest is a payout request from a seller or delivery agent.
// The requested amount is held against the party's ledger balance the
// moment the request is accepted.
type WithdrawalRequest struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartyKind   enums.PartyKind        `gorm:"column:party_kind;type:text;not null;index:idx_withdrawal_party,priority:1"`
	PartyID     uuid.UUID              `gorm:"column:party_id;type:uuid;not null;index:idx_withdrawal_party,priority:2"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(14,4);not null"`
	Currency    enums.Currency         `gorm:"column:currency;type:text;not null"`
	Status      enums.WithdrawalStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Note        *string                `gorm:"column:note"`
	DecidedBy   *uuid.UUID             `gorm:"column:decided_by;type:uuid"`
	DecidedAt   *time.Time             `gorm:"column:decided_at"`
	DisbursedAt *time.Time             `gorm:"column:disbursed_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
