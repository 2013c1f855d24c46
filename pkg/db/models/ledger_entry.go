package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// LedgerEntry is one immutable row in the double-entry ledger. Rows are
// only ever inserted; corrections are posted as compensating entries.
// correlation_id carries a unique index so replays of the same economic
// event collapse into a single row.
type LedgerEntry struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartyKind     enums.PartyKind       `gorm:"column:party_kind;type:text;not null;index:idx_ledger_party_posted,priority:1"`
	PartyID       uuid.UUID             `gorm:"column:party_id;type:uuid;not null;index:idx_ledger_party_posted,priority:2"`
	Direction     enums.LedgerDirection `gorm:"column:direction;type:text;not null"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(14,4);not null"`
	Currency      enums.Currency        `gorm:"column:currency;type:text;not null"`
	Reason        enums.LedgerReason    `gorm:"column:reason;type:text;not null"`
	CorrelationID string                `gorm:"column:correlation_id;not null;uniqueIndex:uq_ledger_correlation"`
	OrderID       *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	OrderItemID   *uuid.UUID            `gorm:"column:order_item_id;type:uuid"`
	WithdrawalID  *uuid.UUID            `gorm:"column:withdrawal_id;type:uuid;index"`
	Memo          string                `gorm:"column:memo;not null;default:''"`
	PostedAt      time.Time             `gorm:"column:posted_at;not null;index:idx_ledger_party_posted,priority:3"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// SignedAmount returns the amount with credit positive and debit negative,
// which is the convention balance queries sum over.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == enums.LedgerDirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
