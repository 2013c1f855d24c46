package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearcart/nearcart-backend/pkg/enums"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

// OrderItem snapshots one line of an order. Title, SKU and unit price are
// immutable after creation so audits reproduce what the customer saw.
type OrderItem struct {
	ID                     uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID              uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	SellerID               uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	StoreID                uuid.UUID              `gorm:"column:store_id;type:uuid;not null"`
	CategoryID             *uuid.UUID             `gorm:"column:category_id;type:uuid"`
	Title                  string                 `gorm:"column:title;not null"`
	SKU                    string                 `gorm:"column:sku;not null"`
	Qty                    int                    `gorm:"column:qty;not null"`
	UnitPrice              decimal.Decimal        `gorm:"column:unit_price;type:numeric(14,4);not null"`
	LineDiscount           decimal.Decimal        `gorm:"column:line_discount;type:numeric(14,4);not null;default:0"`
	Subtotal               decimal.Decimal        `gorm:"column:subtotal;type:numeric(14,4);not null"`
	TaxAmount              decimal.Decimal        `gorm:"column:tax_amount;type:numeric(14,4);not null;default:0"`
	AdminCommissionAmount  decimal.Decimal        `gorm:"column:admin_commission_amount;type:numeric(14,4);not null;default:0"`
	SellerCommissionAmount decimal.Decimal        `gorm:"column:seller_commission_amount;type:numeric(14,4);not null;default:0"`
	CommissionSettled      enums.SettlementStatus `gorm:"column:commission_settled;type:settlement_status;not null;default:'unsettled'"`
	Status                 enums.OrderItemStatus  `gorm:"column:status;type:order_item_status;not null;default:'pending'"`
	Returnable             bool                   `gorm:"column:returnable;not null;default:true"`
	ReturnReason           *string                `gorm:"column:return_reason"`
	PolicySnapshot         *types.PolicySnapshot  `gorm:"column:policy_snapshot;type:jsonb;serializer:json"`
	CreatedAt              time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
