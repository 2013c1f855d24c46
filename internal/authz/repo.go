package authz

import (
	"context"

	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
)

// Repository reads the role permission matrix.
type Repository interface {
	List(ctx context.Context) ([]models.RolePermission, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an authz repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]models.RolePermission, error) {
	var rows []models.RolePermission
	err := r.db.WithContext(ctx).
		Order("role ASC, resource ASC, action ASC").
		Find(&rows).Error
	return rows, err
}
