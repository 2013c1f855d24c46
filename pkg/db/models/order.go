package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// Order is the aggregate root for the fulfilment lifecycle. Orders arrive
// already tenderised from checkout; the engine only advances their state.
// Orders are never hard-deleted, only cancelled.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug             string                `gorm:"column:slug;not null;uniqueIndex"`
	CustomerID       uuid.UUID             `gorm:"column:customer_id;type:uuid;not null"`
	Status           enums.OrderStatus     `gorm:"column:status;type:order_status;not null;default:'placed'"`
	PaymentStatus    enums.PaymentStatus   `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	FulfillmentType  enums.FulfillmentType `gorm:"column:fulfillment_type;type:fulfillment_type;not null;default:'delivery'"`
	Currency         enums.Currency        `gorm:"column:currency;type:text;not null;default:'USD'"`
	Subtotal         decimal.Decimal       `gorm:"column:subtotal;type:numeric(14,4);not null"`
	DeliveryCharge   decimal.Decimal       `gorm:"column:delivery_charge;type:numeric(14,4);not null;default:0"`
	PromoDiscount    decimal.Decimal       `gorm:"column:promo_discount;type:numeric(14,4);not null;default:0"`
	GiftCardDiscount decimal.Decimal       `gorm:"column:gift_card_discount;type:numeric(14,4);not null;default:0"`
	WalletApplied    decimal.Decimal       `gorm:"column:wallet_applied;type:numeric(14,4);not null;default:0"`
	FinalTotal       decimal.Decimal       `gorm:"column:final_total;type:numeric(14,4);not null"`
	DeliveryAgentID  *uuid.UUID            `gorm:"column:delivery_agent_id;type:uuid"`
	DeliveryZone     string                `gorm:"column:delivery_zone;not null;default:''"`
	AgentZone        string                `gorm:"column:agent_zone;not null;default:''"`
	DeliveredAt      *time.Time            `gorm:"column:delivered_at"`
	CancelledAt      *time.Time            `gorm:"column:cancelled_at"`
	Items            []OrderItem           `gorm:"foreignKey:OrderID"`
	Timeline         []OrderTimelineEntry  `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
