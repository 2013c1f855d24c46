package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
)

// Repository manages persistence for orders, their items and the timeline.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetBySlug(ctx context.Context, slug string) (*models.Order, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
	SaveItem(ctx context.Context, item *models.OrderItem) error
	AppendTimeline(ctx context.Context, entry *models.OrderTimelineEntry) error
	ListTimeline(ctx context.Context, orderID uuid.UUID) ([]models.OrderTimelineEntry, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.getOne(ctx, r.db, "id = ?", id)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*models.Order, error) {
	return r.getOne(ctx, r.db, "slug = ?", slug)
}

// GetByIDForUpdate takes the row-level exclusive lock that serializes
// concurrent transitions on the same order. Items are loaded after the
// lock is held so they reflect the winner's writes.
func (r *repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) getOne(ctx context.Context, db *gorm.DB, query string, arg any) (*models.Order, error) {
	var order models.Order
	err := db.WithContext(ctx).
		Preload("Items").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where(query, arg).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Omit("Items", "Timeline").
		Save(order).Error
}

func (r *repository) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) AppendTimeline(ctx context.Context, entry *models.OrderTimelineEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListTimeline(ctx context.Context, orderID uuid.UUID) ([]models.OrderTimelineEntry, error) {
	var entries []models.OrderTimelineEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	return r.list(ctx, r.db.Where("customer_id = ?", customerID), cursor, limit)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	sub := r.db.Model(&models.OrderItem{}).
		Select("DISTINCT order_id").
		Where("seller_id = ?", sellerID)
	return r.list(ctx, r.db.Where("id IN (?)", sub), cursor, limit)
}

func (r *repository) list(ctx context.Context, q *gorm.DB, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q = q.WithContext(ctx).Preload("Items")
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var orders []models.Order
	err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repository) ListPlacedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND created_at < ?", enums.OrderStatusPlaced, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
