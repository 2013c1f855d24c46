package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// OrderTimelineEntry is the append-only audit log of order transitions.
type OrderTimelineEntry struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;type:order_status;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;type:order_status;not null"`
	Event      enums.OrderEvent  `gorm:"column:event;type:text;not null"`
	ActorRole  enums.ActorRole   `gorm:"column:actor_role;type:text;not null"`
	ActorID    *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	Note       *string           `gorm:"column:note"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
