package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	GetByCorrelationID(ctx context.Context, correlationID string) (*models.LedgerEntry, error)
	ListByParty(ctx context.Context, party types.Party, cursor *pagination.Cursor, limit int) ([]models.LedgerEntry, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	AvailableBalance(ctx context.Context, party types.Party) (decimal.Decimal, error)
	PendingHolds(ctx context.Context, party types.Party) (decimal.Decimal, error)
	LifetimeTotals(ctx context.Context, party types.Party) (credited, debited decimal.Decimal, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.PostedAt.IsZero() {
		entry.PostedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) GetByCorrelationID(ctx context.Context, correlationID string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByParty(ctx context.Context, party types.Party, cursor *pagination.Cursor, limit int) ([]models.LedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Where("party_kind = ? AND party_id = ?", party.Kind, party.ID)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var entries []models.LedgerEntry
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// AvailableBalance sums credits minus debits for the party. Hold debits and
// the adjustment credits that release them are bookkeeping around a pending
// withdrawal, not money movement, so both are excluded; the disbursement
// debit is the row that actually takes the money out.
func (r *repository) AvailableBalance(ctx context.Context, party types.Party) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE -amount END), 0) AS total",
			enums.LedgerDirectionCredit).
		Where("party_kind = ? AND party_id = ?", party.Kind, party.ID).
		Where("reason <> ?", enums.LedgerReasonWithdrawalHold).
		Where("NOT (reason = ? AND withdrawal_id IS NOT NULL)", enums.LedgerReasonAdjustment).
		Scan(&result).Error
	return result.Total, err
}

// LifetimeTotals sums every credit and every debit ever posted for the
// party, hold bookkeeping included. These are audit figures, not a
// position.
func (r *repository) LifetimeTotals(ctx context.Context, party types.Party) (decimal.Decimal, decimal.Decimal, error) {
	var result struct {
		Credited decimal.Decimal
		Debited  decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select(`COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS credited,
			COALESCE(SUM(CASE WHEN direction = ? THEN amount ELSE 0 END), 0) AS debited`,
			enums.LedgerDirectionCredit, enums.LedgerDirectionDebit).
		Where("party_kind = ? AND party_id = ?", party.Kind, party.ID).
		Scan(&result).Error
	return result.Credited, result.Debited, err
}

// PendingHolds sums hold debits whose withdrawal has neither been disbursed
// nor reversed yet.
func (r *repository) PendingHolds(ctx context.Context, party types.Party) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("party_kind = ? AND party_id = ?", party.Kind, party.ID).
		Where("reason = ? AND direction = ?", enums.LedgerReasonWithdrawalHold, enums.LedgerDirectionDebit).
		Where(`NOT EXISTS (
			SELECT 1 FROM ledger_entries settled
			WHERE settled.withdrawal_id = ledger_entries.withdrawal_id
			AND settled.reason IN (?, ?)
		)`, enums.LedgerReasonWithdrawalDisbursement, enums.LedgerReasonAdjustment).
		Scan(&result).Error
	return result.Total, err
}
