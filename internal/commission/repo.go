package commission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// ListFilter narrows a policy listing to one scope pair. Nil fields
// match everything.
type ListFilter struct {
	Scope   *enums.CommissionScope
	ScopeID *uuid.UUID
}

// Repository manages persistence for commission policies and the category
// taxonomy the resolver walks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindEffectiveAt(ctx context.Context, scope enums.CommissionScope, scopeID *uuid.UUID, at time.Time) (*models.CommissionPolicy, error)
	CloseOpenInterval(ctx context.Context, scope enums.CommissionScope, scopeID *uuid.UUID, at time.Time) error
	Create(ctx context.Context, policy *models.CommissionPolicy) error
	List(ctx context.Context, filter ListFilter) ([]models.CommissionPolicy, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a commission repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func scopePair(q *gorm.DB, scope enums.CommissionScope, scopeID *uuid.UUID) *gorm.DB {
	q = q.Where("scope = ?", scope)
	if scopeID != nil {
		return q.Where("scope_id = ?", *scopeID)
	}
	return q.Where("scope_id IS NULL")
}

// FindEffectiveAt returns the policy whose interval contains `at`. The
// latest effective_from wins when retroactive rows overlap.
func (r *repository) FindEffectiveAt(ctx context.Context, scope enums.CommissionScope, scopeID *uuid.UUID, at time.Time) (*models.CommissionPolicy, error) {
	q := scopePair(r.db.WithContext(ctx), scope, scopeID).
		Where("effective_from <= ?", at).
		Where("effective_to IS NULL OR effective_to > ?", at).
		Order("effective_from DESC")
	var policy models.CommissionPolicy
	if err := q.First(&policy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &policy, nil
}

// CloseOpenInterval terminates the scope pair's open-ended policy at `at`,
// making room for a successor interval.
func (r *repository) CloseOpenInterval(ctx context.Context, scope enums.CommissionScope, scopeID *uuid.UUID, at time.Time) error {
	q := scopePair(r.db.WithContext(ctx).Model(&models.CommissionPolicy{}), scope, scopeID).
		Where("effective_to IS NULL")
	return q.Update("effective_to", at).Error
}

func (r *repository) Create(ctx context.Context, policy *models.CommissionPolicy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.CommissionPolicy, error) {
	q := r.db.WithContext(ctx)
	if filter.Scope != nil {
		q = q.Where("scope = ?", *filter.Scope)
	}
	if filter.ScopeID != nil {
		q = q.Where("scope_id = ?", *filter.ScopeID)
	}
	var policies []models.CommissionPolicy
	err := q.Order("effective_from DESC").
		Order("created_at DESC").
		Find(&policies).Error
	return policies, err
}

func (r *repository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}
