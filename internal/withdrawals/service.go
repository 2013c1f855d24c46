package withdrawals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/internal/ledger"
	"github.com/nearcart/nearcart-backend/pkg/config"
	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/money"
	"github.com/nearcart/nearcart-backend/pkg/outbox"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerPoster interface {
	PostIdempotent(ctx context.Context, tx *gorm.DB, input ledger.PostEntryInput) (*models.LedgerEntry, bool, error)
}

// balanceReader reads a party's position inside the caller's transaction,
// which is the only read that counts once the party lock is held.
type balanceReader interface {
	WithTx(tx *gorm.DB) ledger.Repository
}

// Service runs the withdrawal workflow: request holds funds, an admin
// approves or rejects, and an approved request is disbursed.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, id uuid.UUID, decision DecisionInput) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, id uuid.UUID, decision DecisionInput) (*models.WithdrawalRequest, error)
	Disburse(ctx context.Context, id uuid.UUID, decision DecisionInput) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListByParty(ctx context.Context, party types.Party, params pagination.Params) ([]models.WithdrawalRequest, string, error)
	ListPending(ctx context.Context, limit int) ([]models.WithdrawalRequest, error)
}

// RequestInput opens a withdrawal request for a payable party.
type RequestInput struct {
	Party    types.Party
	Amount   decimal.Decimal
	Currency enums.Currency
	Note     string
}

// DecisionInput identifies the admin acting on a request.
type DecisionInput struct {
	ActorID uuid.UUID
	Note    string
}

type service struct {
	repo      Repository
	tx        txRunner
	ledger    ledgerPoster
	balances  balanceReader
	events    outboxEmitter
	minAmount decimal.Decimal
}

// NewService wires the withdrawal workflow service.
func NewService(repo Repository, tx txRunner, ledgerSvc ledgerPoster, balances balanceReader, events outboxEmitter, cfg config.WithdrawalConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("withdrawals tx runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("withdrawals ledger service required")
	}
	if balances == nil {
		return nil, fmt.Errorf("withdrawals balance reader required")
	}
	if events == nil {
		return nil, fmt.Errorf("withdrawals outbox emitter required")
	}
	minAmount, err := decimal.NewFromString(cfg.MinAmount)
	if err != nil {
		return nil, fmt.Errorf("parsing withdrawal min amount %q: %w", cfg.MinAmount, err)
	}
	return &service{
		repo:      repo,
		tx:        tx,
		ledger:    ledgerSvc,
		balances:  balances,
		events:    events,
		minAmount: minAmount,
	}, nil
}

func (i RequestInput) validate(minAmount decimal.Decimal) error {
	if err := i.Party.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "invalid withdrawal party")
	}
	if i.Party.Kind != enums.PartyKindSeller && i.Party.Kind != enums.PartyKindDeliveryAgent {
		return apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("%s parties cannot request withdrawals", i.Party.Kind))
	}
	if !money.IsPositive(i.Amount) {
		return apperrors.New(apperrors.CodeInvalidAmount, "withdrawal amount must be positive")
	}
	if !i.Amount.Equal(money.RoundStorage(i.Amount)) {
		return apperrors.New(apperrors.CodeInvalidAmount, "withdrawal amount exceeds storage precision")
	}
	if i.Amount.LessThan(minAmount) {
		return apperrors.New(apperrors.CodeInvalidAmount,
			fmt.Sprintf("withdrawal amount is below the minimum of %s", minAmount))
	}
	if !i.Currency.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid currency %q", i.Currency))
	}
	return nil
}

// Request opens a pending withdrawal and holds the amount against the
// party's balance. The party lock makes the balance read and the hold one
// atomic step, so concurrent requests cannot both pass the check.
func (s *service) Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error) {
	if err := input.validate(s.minAmount); err != nil {
		return nil, err
	}

	request := &models.WithdrawalRequest{
		PartyKind: input.Party.Kind,
		PartyID:   input.Party.ID,
		Amount:    input.Amount,
		Currency:  input.Currency,
		Status:    enums.WithdrawalStatusPending,
		Note:      notePtr(input.Note),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.AcquirePartyLock(ctx, input.Party); err != nil {
			return err
		}

		balances := s.balances.WithTx(tx)
		available, err := balances.AvailableBalance(ctx, input.Party)
		if err != nil {
			return err
		}
		holds, err := balances.PendingHolds(ctx, input.Party)
		if err != nil {
			return err
		}
		withdrawable := available.Sub(holds)
		if input.Amount.GreaterThan(withdrawable) {
			return apperrors.New(apperrors.CodeInsufficientBalance,
				fmt.Sprintf("requested %s exceeds withdrawable balance %s", input.Amount, withdrawable)).
				WithDetails(map[string]string{
					"requested":    input.Amount.String(),
					"withdrawable": withdrawable.String(),
				})
		}

		if err := repo.Create(ctx, request); err != nil {
			return err
		}
		_, _, err = s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
			Party:         input.Party,
			Direction:     enums.LedgerDirectionDebit,
			Amount:        input.Amount,
			Currency:      input.Currency,
			Reason:        enums.LedgerReasonWithdrawalHold,
			CorrelationID: fmt.Sprintf("withdraw-hold:%s", request.ID),
			WithdrawalID:  &request.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Approve moves a pending request to approved. Funds stay held until
// disbursement.
func (s *service) Approve(ctx context.Context, id uuid.UUID, decision DecisionInput) (*models.WithdrawalRequest, error) {
	return s.decide(ctx, id, decision, "approve", func(ctx context.Context, tx *gorm.DB, request *models.WithdrawalRequest) error {
		if request.Status != enums.WithdrawalStatusPending {
			return apperrors.New(apperrors.CodeConflict,
				fmt.Sprintf("withdrawal is %s, only pending requests can be approved", request.Status))
		}
		request.Status = enums.WithdrawalStatusApproved
		return nil
	})
}

// Reject moves a pending request to rejected and releases the hold with an
// adjustment credit tied to the withdrawal.
func (s *service) Reject(ctx context.Context, id uuid.UUID, decision DecisionInput) (*models.WithdrawalRequest, error) {
	return s.decide(ctx, id, decision, "reject", func(ctx context.Context, tx *gorm.DB, request *models.WithdrawalRequest) error {
		if request.Status != enums.WithdrawalStatusPending {
			return apperrors.New(apperrors.CodeConflict,
				fmt.Sprintf("withdrawal is %s, only pending requests can be rejected", request.Status))
		}
		request.Status = enums.WithdrawalStatusRejected
		_, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
			Party:         types.Party{Kind: request.PartyKind, ID: request.PartyID},
			Direction:     enums.LedgerDirectionCredit,
			Amount:        request.Amount,
			Currency:      request.Currency,
			Reason:        enums.LedgerReasonAdjustment,
			CorrelationID: fmt.Sprintf("withdraw-reject:%s", request.ID),
			WithdrawalID:  &request.ID,
		})
		return err
	})
}

// Disburse finalizes an approved request: the disbursement debit replaces
// the hold as the row that carries the money out.
func (s *service) Disburse(ctx context.Context, id uuid.UUID, decision DecisionInput) (*models.WithdrawalRequest, error) {
	return s.decide(ctx, id, decision, "disburse", func(ctx context.Context, tx *gorm.DB, request *models.WithdrawalRequest) error {
		if request.Status != enums.WithdrawalStatusApproved {
			return apperrors.New(apperrors.CodeConflict,
				fmt.Sprintf("withdrawal is %s, only approved requests can be disbursed", request.Status))
		}
		request.Status = enums.WithdrawalStatusDisbursed
		now := time.Now().UTC()
		request.DisbursedAt = &now
		_, _, err := s.ledger.PostIdempotent(ctx, tx, ledger.PostEntryInput{
			Party:         types.Party{Kind: request.PartyKind, ID: request.PartyID},
			Direction:     enums.LedgerDirectionDebit,
			Amount:        request.Amount,
			Currency:      request.Currency,
			Reason:        enums.LedgerReasonWithdrawalDisbursement,
			CorrelationID: fmt.Sprintf("disburse:%s", request.ID),
			WithdrawalID:  &request.ID,
		})
		return err
	})
}

func (s *service) decide(ctx context.Context, id uuid.UUID, decision DecisionInput, action string, apply func(ctx context.Context, tx *gorm.DB, request *models.WithdrawalRequest) error) (*models.WithdrawalRequest, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "withdrawal id is required")
	}
	if decision.ActorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "deciding actor id is required")
	}

	var result *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request == nil {
			return apperrors.New(apperrors.CodeNotFound, "withdrawal request not found")
		}

		if err := apply(ctx, tx, request); err != nil {
			return err
		}

		now := time.Now().UTC()
		request.DecidedBy = &decision.ActorID
		request.DecidedAt = &now
		if note := notePtr(decision.Note); note != nil {
			request.Note = note
		}
		if err := repo.Save(ctx, request); err != nil {
			return err
		}

		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalDecided,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{ActorID: &decision.ActorID, Role: enums.ActorRoleAdmin},
			Data: map[string]any{
				"action": action,
				"status": request.Status,
				"amount": request.Amount,
			},
		}); err != nil {
			return err
		}
		result = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "withdrawal id is required")
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "withdrawal request not found")
	}
	return request, nil
}

func (s *service) ListByParty(ctx context.Context, party types.Party, params pagination.Params) ([]models.WithdrawalRequest, string, error) {
	if err := party.Validate(); err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid withdrawal party")
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
		func(r models.WithdrawalRequest) time.Time { return r.CreatedAt },
		func(r models.WithdrawalRequest) uuid.UUID { return r.ID })
	return page, next, nil
}

func (s *service) ListPending(ctx context.Context, limit int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	return s.repo.ListByStatus(ctx, enums.WithdrawalStatusPending, limit)
}

func notePtr(note string) *string {
	if note == "" {
		return nil
	}
	return &note
}
