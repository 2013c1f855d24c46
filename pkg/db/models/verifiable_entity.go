package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// VerifiableEntity tracks the review state of a seller, store, product or
// delivery agent. One row per (kind, subject_id); decisions update the row
// in place and the decision history lives in the outbox/event stream.
// Revision counts submissions: it starts at 1 and each resubmission after
// a rejection bumps it.
type VerifiableEntity struct {
	ID          uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind        enums.VerificationKind   `gorm:"column:kind;type:text;not null;uniqueIndex:uq_verifiable_subject,priority:1"`
	SubjectID   uuid.UUID                `gorm:"column:subject_id;type:uuid;not null;uniqueIndex:uq_verifiable_subject,priority:2"`
	OwnerID     *uuid.UUID               `gorm:"column:owner_id;type:uuid;index"`
	Status      enums.VerificationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Revision    int                      `gorm:"column:revision;not null;default:1"`
	Reason      *string                  `gorm:"column:reason"`
	DecidedBy   *uuid.UUID               `gorm:"column:decided_by;type:uuid"`
	DecidedAt   *time.Time               `gorm:"column:decided_at"`
	SubmittedAt time.Time                `gorm:"column:submitted_at;not null"`
	CreatedAt   time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
