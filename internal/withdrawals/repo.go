package withdrawals

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

// Repository manages persistence for withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	Save(ctx context.Context, request *models.WithdrawalRequest) error
	ListByParty(ctx context.Context, party types.Party, cursor *pagination.Cursor, limit int) ([]models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.WithdrawalRequest, error)
	AcquirePartyLock(ctx context.Context, party types.Party) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawals repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return r.getOne(ctx, r.db, id)
}

func (r *repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return r.getOne(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repository) getOne(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) Save(ctx context.Context, request *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *repository) ListByParty(ctx context.Context, party types.Party, cursor *pagination.Cursor, limit int) ([]models.WithdrawalRequest, error) {
	q := r.db.WithContext(ctx).
		Where("party_kind = ? AND party_id = ?", party.Kind, party.ID)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var requests []models.WithdrawalRequest
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

func (r *repository) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// AcquirePartyLock serializes concurrent withdrawal requests for one party
// inside the current transaction, so two requests cannot both read the same
// balance and over-hold it. The lock is released at commit or rollback.
func (r *repository) AcquirePartyLock(ctx context.Context, party types.Party) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(?)", partyLockKey(party)).Error
}

func partyLockKey(party types.Party) int64 {
	h := fnv.New64a()
	h.Write([]byte("withdrawal:"))
	h.Write([]byte(party.String()))
	return int64(h.Sum64())
}
