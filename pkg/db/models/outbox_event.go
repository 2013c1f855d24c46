package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// OutboxEvent is a domain event staged in the same transaction as the
// state change it describes. The publisher drains unpublished rows to
// Pub/Sub and stamps published_at; a retention job prunes old rows.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:text;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:text;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null;index"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	Attempts      int                       `gorm:"column:attempts;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
	PublishedAt   *time.Time                `gorm:"column:published_at;index"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime;index"`
}

// RolePermission maps a role to an allowed action on a resource. Seeded by
// migration, editable by admins.
type RolePermission struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Role      string    `gorm:"column:role;not null;uniqueIndex:uq_role_permission,priority:1"`
	Resource  string    `gorm:"column:resource;not null;uniqueIndex:uq_role_permission,priority:2"`
	Action    string    `gorm:"column:action;not null;uniqueIndex:uq_role_permission,priority:3"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
