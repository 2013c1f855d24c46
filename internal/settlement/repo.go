package settlement

import (
	"context"

	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
)

// Repository persists the settlement side effects on order items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SaveItem(ctx context.Context, item *models.OrderItem) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}
