package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// CommissionPolicy configures a commission rate at one scope of the
// resolution hierarchy, valid for the [effective_from, effective_to)
// interval. Historical rows per (scope, scope_id) pair are retained;
// the record in force at a timestamp is the one whose interval contains
// it, so older snapshots keep a stable policy id to cite. An open
// interval has a null effective_to.
type CommissionPolicy struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Scope         enums.CommissionScope `gorm:"column:scope;type:text;not null;index:idx_policy_scope_effective,priority:1"`
	ScopeID       *uuid.UUID            `gorm:"column:scope_id;type:uuid;index:idx_policy_scope_effective,priority:2"`
	Rate          decimal.Decimal       `gorm:"column:rate;type:numeric(7,4);not null"`
	Fixed         decimal.Decimal       `gorm:"column:fixed;type:numeric(14,4);not null;default:0"`
	EffectiveFrom time.Time             `gorm:"column:effective_from;not null;index:idx_policy_scope_effective,priority:3"`
	EffectiveTo   *time.Time            `gorm:"column:effective_to"`
	ActorID       *uuid.UUID            `gorm:"column:actor_id;type:uuid"`
	Note          string                `gorm:"column:note;not null;default:''"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// Category is the product taxonomy node the resolver walks parent-ward
// when no vendor override applies.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	Name      string     `gorm:"column:name;not null"`
	Slug      string     `gorm:"column:slug;not null;uniqueIndex"`
	Depth     int        `gorm:"column:depth;not null;default:0"`
	Active    bool       `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
