package verification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// Repository manages persistence for verifiable entities.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entity *models.VerifiableEntity) error
	GetBySubject(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (*models.VerifiableEntity, error)
	GetBySubjectForUpdate(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (*models.VerifiableEntity, error)
	Save(ctx context.Context, entity *models.VerifiableEntity) error
	ListByStatus(ctx context.Context, status enums.VerificationStatus, limit int) ([]models.VerifiableEntity, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a verification repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entity *models.VerifiableEntity) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *repository) GetBySubject(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (*models.VerifiableEntity, error) {
	return r.getBySubject(ctx, r.db, kind, subjectID)
}

func (r *repository) GetBySubjectForUpdate(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (*models.VerifiableEntity, error) {
	return r.getBySubject(ctx, r.db.Clauses(forUpdateClause()), kind, subjectID)
}

func forUpdateClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func (r *repository) getBySubject(ctx context.Context, db *gorm.DB, kind enums.VerificationKind, subjectID uuid.UUID) (*models.VerifiableEntity, error) {
	var entity models.VerifiableEntity
	err := db.WithContext(ctx).
		Where("kind = ? AND subject_id = ?", kind, subjectID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

func (r *repository) Save(ctx context.Context, entity *models.VerifiableEntity) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

func (r *repository) ListByStatus(ctx context.Context, status enums.VerificationStatus, limit int) ([]models.VerifiableEntity, error) {
	var entities []models.VerifiableEntity
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("submitted_at ASC").
		Limit(limit).
		Find(&entities).Error
	return entities, err
}
