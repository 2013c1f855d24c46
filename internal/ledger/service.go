package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/nearcart/nearcart-backend/pkg/db"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/money"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

// Service defines the operations the double-entry ledger exposes.
type Service interface {
	Post(ctx context.Context, input PostEntryInput) (*models.LedgerEntry, error)
	PostIdempotent(ctx context.Context, tx *gorm.DB, input PostEntryInput) (*models.LedgerEntry, bool, error)
	Balance(ctx context.Context, party types.Party) (*BalanceSummary, error)
	History(ctx context.Context, party types.Party, params pagination.Params) ([]models.LedgerEntry, string, error)
	EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// PostEntryInput captures the immutable data a ledger entry requires.
type PostEntryInput struct {
	Party         types.Party
	Direction     enums.LedgerDirection
	Amount        decimal.Decimal
	Currency      enums.Currency
	Reason        enums.LedgerReason
	CorrelationID string
	OrderID       *uuid.UUID
	OrderItemID   *uuid.UUID
	WithdrawalID  *uuid.UUID
	Memo          string
	PostedAt      time.Time
}

// BalanceSummary is the derived view of a party's ledger position.
// Available already has pending withdrawal holds deducted; the holds are
// reported alongside so callers can see what is tied up. The lifetime
// sums are gross movement figures for audit, not a position.
type BalanceSummary struct {
	Party            types.Party     `json:"party"`
	Available        decimal.Decimal `json:"available"`
	PendingHolds     decimal.Decimal `json:"pending_holds"`
	LifetimeCredited decimal.Decimal `json:"lifetime_credited"`
	LifetimeDebited  decimal.Decimal `json:"lifetime_debited"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (i PostEntryInput) validate() error {
	if err := i.Party.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "invalid ledger party")
	}
	if !i.Direction.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid ledger direction %q", i.Direction))
	}
	if !money.IsPositive(i.Amount) {
		return apperrors.New(apperrors.CodeInvalidAmount, "ledger amount must be positive")
	}
	if !i.Amount.Equal(money.RoundStorage(i.Amount)) {
		return apperrors.New(apperrors.CodeInvalidAmount, "ledger amount exceeds storage precision")
	}
	if !i.Currency.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid currency %q", i.Currency))
	}
	if !i.Reason.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid ledger reason %q", i.Reason))
	}
	if i.CorrelationID == "" {
		return apperrors.New(apperrors.CodeValidation, "correlation id is required")
	}
	return nil
}

func (i PostEntryInput) toModel() *models.LedgerEntry {
	postedAt := i.PostedAt
	if postedAt.IsZero() {
		postedAt = time.Now().UTC()
	}
	return &models.LedgerEntry{
		PartyKind:     i.Party.Kind,
		PartyID:       i.Party.ID,
		Direction:     i.Direction,
		Amount:        i.Amount,
		Currency:      i.Currency,
		Reason:        i.Reason,
		CorrelationID: i.CorrelationID,
		OrderID:       i.OrderID,
		OrderItemID:   i.OrderItemID,
		WithdrawalID:  i.WithdrawalID,
		Memo:          i.Memo,
		PostedAt:      postedAt,
	}
}

// Post appends one entry. A correlation id that has already been posted is
// rejected so callers at the API boundary surface the replay.
func (s *service) Post(ctx context.Context, input PostEntryInput) (*models.LedgerEntry, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	entry := input.toModel()
	if err := s.repo.Create(ctx, entry); err != nil {
		if dbpkg.IsUniqueViolation(err, "uq_ledger_correlation") {
			return nil, apperrors.Wrap(apperrors.CodeDuplicateCorrelation, err,
				fmt.Sprintf("correlation %q already posted", input.CorrelationID))
		}
		return nil, err
	}
	return entry, nil
}

// PostIdempotent appends one entry inside the caller's transaction. A replay
// of an already-posted correlation returns the existing row with created
// false instead of failing, which is what settlement retries rely on.
func (s *service) PostIdempotent(ctx context.Context, tx *gorm.DB, input PostEntryInput) (*models.LedgerEntry, bool, error) {
	if err := input.validate(); err != nil {
		return nil, false, err
	}
	repo := s.repo.WithTx(tx)
	existing, err := repo.GetByCorrelationID(ctx, input.CorrelationID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	entry := input.toModel()
	if err := repo.Create(ctx, entry); err != nil {
		if dbpkg.IsUniqueViolation(err, "uq_ledger_correlation") {
			// Lost a race inside the same tx scope; surface the winner.
			winner, getErr := repo.GetByCorrelationID(ctx, input.CorrelationID)
			if getErr == nil && winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, err
	}
	return entry, true, nil
}

func (s *service) Balance(ctx context.Context, party types.Party) (*BalanceSummary, error) {
	if err := party.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid ledger party")
	}
	available, err := s.repo.AvailableBalance(ctx, party)
	if err != nil {
		return nil, err
	}
	holds, err := s.repo.PendingHolds(ctx, party)
	if err != nil {
		return nil, err
	}
	credited, debited, err := s.repo.LifetimeTotals(ctx, party)
	if err != nil {
		return nil, err
	}
	return &BalanceSummary{
		Party:            party,
		Available:        money.RoundStorage(available.Sub(holds)),
		PendingHolds:     money.RoundStorage(holds),
		LifetimeCredited: money.RoundStorage(credited),
		LifetimeDebited:  money.RoundStorage(debited),
	}, nil
}

func (s *service) History(ctx context.Context, party types.Party, params pagination.Params) ([]models.LedgerEntry, string, error) {
	if err := party.Validate(); err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid ledger party")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByParty(ctx, party, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", err
	}
	page, next := pagination.TrimPage(rows, params.Limit,
		func(e models.LedgerEntry) time.Time { return e.CreatedAt },
		func(e models.LedgerEntry) uuid.UUID { return e.ID })
	return page, next, nil
}

func (s *service) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}
