package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/money"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

// maxCategoryDepth bounds the parent walk so a cyclic taxonomy cannot hang
// the resolver.
const maxCategoryDepth = 32

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service resolves and administers commission policies.
type Service interface {
	Resolve(ctx context.Context, sellerID uuid.UUID, categoryID *uuid.UUID, at time.Time) (*types.PolicySnapshot, error)
	ResolveTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, categoryID *uuid.UUID, at time.Time) (*types.PolicySnapshot, error)
	UpsertPolicy(ctx context.Context, input UpsertPolicyInput) (*models.CommissionPolicy, error)
	ListPolicies(ctx context.Context, filter ListFilter) ([]models.CommissionPolicy, error)
}

// UpsertPolicyInput carries an admin's policy change. A nil EffectiveFrom
// starts the interval now; a nil EffectiveTo leaves it open-ended.
type UpsertPolicyInput struct {
	Scope         enums.CommissionScope
	ScopeID       *uuid.UUID
	Rate          decimal.Decimal
	Fixed         decimal.Decimal
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	ActorID       *uuid.UUID
	Note          string
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a commission service with its repository and tx runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("commission tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Resolve finds the policy in force at the timestamp: a vendor override
// wins, then the product's category chain walked parent-ward, then the
// platform default. No match is a configuration fault, not a caller error.
func (s *service) Resolve(ctx context.Context, sellerID uuid.UUID, categoryID *uuid.UUID, at time.Time) (*types.PolicySnapshot, error) {
	return s.resolveWith(ctx, s.repo, sellerID, categoryID, at)
}

// ResolveTx is Resolve running against the caller's transaction, so the
// snapshot is consistent with whatever that transaction already read.
func (s *service) ResolveTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, categoryID *uuid.UUID, at time.Time) (*types.PolicySnapshot, error) {
	return s.resolveWith(ctx, s.repo.WithTx(tx), sellerID, categoryID, at)
}

func (s *service) resolveWith(ctx context.Context, repo Repository, sellerID uuid.UUID, categoryID *uuid.UUID, at time.Time) (*types.PolicySnapshot, error) {
	if sellerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "seller id is required")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if policy, err := repo.FindEffectiveAt(ctx, enums.CommissionScopeVendorOverride, &sellerID, at); err != nil {
		return nil, err
	} else if policy != nil {
		return snapshotOf(policy), nil
	}

	next := categoryID
	for depth := 0; next != nil && depth < maxCategoryDepth; depth++ {
		if policy, err := repo.FindEffectiveAt(ctx, enums.CommissionScopeCategory, next, at); err != nil {
			return nil, err
		} else if policy != nil {
			return snapshotOf(policy), nil
		}
		category, err := repo.GetCategory(ctx, *next)
		if err != nil {
			return nil, err
		}
		if category == nil {
			break
		}
		next = category.ParentID
	}

	if policy, err := repo.FindEffectiveAt(ctx, enums.CommissionScopePlatformDefault, nil, at); err != nil {
		return nil, err
	} else if policy != nil {
		return snapshotOf(policy), nil
	}

	return nil, apperrors.New(apperrors.CodeNoApplicablePolicy, "no commission policy configured")
}

func snapshotOf(policy *models.CommissionPolicy) *types.PolicySnapshot {
	return &types.PolicySnapshot{
		PolicyID: policy.ID,
		Scope:    policy.Scope,
		Rate:     policy.Rate,
		Fixed:    policy.Fixed,
	}
}

// Compute splits a commissionable amount into platform commission and
// seller net using the frozen snapshot. Banker's rounding at display
// scale, commission clamped to the commissionable amount so the seller
// net never goes negative.
func Compute(commissionable decimal.Decimal, snapshot types.PolicySnapshot) (commission, sellerNet decimal.Decimal) {
	commission = money.ApplyRate(commissionable, snapshot.Rate).Add(snapshot.Fixed)
	commission = money.RoundDisplay(commission)
	if commission.GreaterThan(commissionable) {
		commission = commissionable
	}
	if commission.IsNegative() {
		commission = decimal.Zero
	}
	sellerNet = commissionable.Sub(commission)
	return commission, sellerNet
}

// UpsertPolicy closes the scope pair's open interval at the new policy's
// effective_from and installs the new interval in the same transaction.
func (s *service) UpsertPolicy(ctx context.Context, input UpsertPolicyInput) (*models.CommissionPolicy, error) {
	if !input.Scope.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid commission scope %q", input.Scope))
	}
	if input.Scope.RequiresScopeID() && input.ScopeID == nil {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("scope %s requires a scope id", input.Scope))
	}
	if !input.Scope.RequiresScopeID() && input.ScopeID != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "platform default policy cannot carry a scope id")
	}
	if input.Rate.IsNegative() || input.Rate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apperrors.New(apperrors.CodeValidation, "rate must be between 0 and 100")
	}
	if input.Fixed.IsNegative() {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "fixed amount cannot be negative")
	}
	effectiveFrom := time.Now().UTC()
	if input.EffectiveFrom != nil {
		effectiveFrom = input.EffectiveFrom.UTC()
	}
	if input.EffectiveTo != nil && !input.EffectiveTo.After(effectiveFrom) {
		return nil, apperrors.New(apperrors.CodeValidation, "effective_to must be after effective_from")
	}

	policy := &models.CommissionPolicy{
		Scope:         input.Scope,
		ScopeID:       input.ScopeID,
		Rate:          input.Rate,
		Fixed:         money.RoundStorage(input.Fixed),
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   input.EffectiveTo,
		ActorID:       input.ActorID,
		Note:          input.Note,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CloseOpenInterval(ctx, input.Scope, input.ScopeID, effectiveFrom); err != nil {
			return err
		}
		return repo.Create(ctx, policy)
	})
	if err != nil {
		return nil, err
	}
	return policy, nil
}

func (s *service) ListPolicies(ctx context.Context, filter ListFilter) ([]models.CommissionPolicy, error) {
	return s.repo.List(ctx, filter)
}
