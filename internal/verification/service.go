package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages the review lifecycle of sellers, stores, products and
// delivery agents, and answers the gate checks the order flow relies on.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.VerifiableEntity, error)
	Decide(ctx context.Context, input DecideInput) (*models.VerifiableEntity, error)
	Suspend(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID, adminID uuid.UUID, reason string) (*models.VerifiableEntity, error)
	Status(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (enums.VerificationStatus, error)
	IsApproved(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (bool, error)
	ListPending(ctx context.Context, limit int) ([]models.VerifiableEntity, error)
}

// SubmitInput registers a subject for review, or re-submits a rejected one.
type SubmitInput struct {
	Kind      enums.VerificationKind
	SubjectID uuid.UUID
	OwnerID   *uuid.UUID
}

// DecideInput carries an admin's approve or reject decision.
type DecideInput struct {
	Kind      enums.VerificationKind
	SubjectID uuid.UUID
	Approve   bool
	AdminID   uuid.UUID
	Reason    string
}

type service struct {
	repo   Repository
	tx     txRunner
	events outboxEmitter
}

// NewService wires a verification service.
func NewService(repo Repository, tx txRunner, events outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("verification repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("verification tx runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("verification outbox emitter required")
	}
	return &service{repo: repo, tx: tx, events: events}, nil
}

// Submit creates a pending review row at revision 1, or resets a rejected
// subject back to pending and bumps its revision. Submitting an already
// pending or approved subject is a no-op returning the current row.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.VerifiableEntity, error) {
	if !input.Kind.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid verification kind %q", input.Kind))
	}
	if input.SubjectID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "subject id is required")
	}

	var result *models.VerifiableEntity
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.GetBySubjectForUpdate(ctx, input.Kind, input.SubjectID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if existing == nil {
			entity := &models.VerifiableEntity{
				Kind:        input.Kind,
				SubjectID:   input.SubjectID,
				OwnerID:     input.OwnerID,
				Status:      enums.VerificationStatusPending,
				Revision:    1,
				SubmittedAt: now,
			}
			if err := repo.Create(ctx, entity); err != nil {
				return err
			}
			result = entity
			return nil
		}
		if existing.Status == enums.VerificationStatusRejected {
			existing.Status = enums.VerificationStatusPending
			existing.Revision++
			existing.Reason = nil
			existing.DecidedBy = nil
			existing.DecidedAt = nil
			existing.SubmittedAt = now
			if err := repo.Save(ctx, existing); err != nil {
				return err
			}
		}
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Decide records an approve or reject. Only pending subjects can be
// decided; a reject requires a reason.
func (s *service) Decide(ctx context.Context, input DecideInput) (*models.VerifiableEntity, error) {
	if !input.Kind.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid verification kind %q", input.Kind))
	}
	if input.SubjectID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "subject id is required")
	}
	if input.AdminID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "admin id is required")
	}
	if !input.Approve && input.Reason == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "a rejection requires a reason")
	}

	var result *models.VerifiableEntity
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entity, err := repo.GetBySubjectForUpdate(ctx, input.Kind, input.SubjectID)
		if err != nil {
			return err
		}
		if entity == nil {
			return apperrors.New(apperrors.CodeNotFound, "verification subject not found")
		}
		if entity.Status != enums.VerificationStatusPending {
			return apperrors.New(apperrors.CodeConflict,
				fmt.Sprintf("subject is %s, only pending subjects can be decided", entity.Status))
		}

		now := time.Now().UTC()
		if input.Approve {
			entity.Status = enums.VerificationStatusApproved
			entity.Reason = nil
		} else {
			entity.Status = enums.VerificationStatusRejected
			entity.Reason = &input.Reason
		}
		entity.DecidedBy = &input.AdminID
		entity.DecidedAt = &now
		if err := repo.Save(ctx, entity); err != nil {
			return err
		}

		result = entity
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVerificationDecided,
			AggregateType: enums.AggregateVerifiableEntity,
			AggregateID:   entity.ID,
			Actor:         &outbox.ActorRef{ActorID: &input.AdminID, Role: enums.ActorRoleAdmin},
			Data: map[string]any{
				"kind":       entity.Kind,
				"subject_id": entity.SubjectID,
				"status":     entity.Status,
				"reason":     entity.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Suspend moves an approved subject to rejected, cutting off new activity
// until the owner resubmits and an admin re-reviews it.
func (s *service) Suspend(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID, adminID uuid.UUID, reason string) (*models.VerifiableEntity, error) {
	if !kind.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid verification kind %q", kind))
	}
	if subjectID == uuid.Nil || adminID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "subject and admin ids are required")
	}

	var result *models.VerifiableEntity
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entity, err := repo.GetBySubjectForUpdate(ctx, kind, subjectID)
		if err != nil {
			return err
		}
		if entity == nil {
			return apperrors.New(apperrors.CodeNotFound, "verification subject not found")
		}
		if entity.Status != enums.VerificationStatusApproved {
			return apperrors.New(apperrors.CodeConflict, "only approved subjects can be suspended")
		}
		now := time.Now().UTC()
		entity.Status = enums.VerificationStatusRejected
		entity.Reason = &reason
		entity.DecidedBy = &adminID
		entity.DecidedAt = &now
		if err := repo.Save(ctx, entity); err != nil {
			return err
		}
		result = entity
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVerificationDecided,
			AggregateType: enums.AggregateVerifiableEntity,
			AggregateID:   entity.ID,
			Actor:         &outbox.ActorRef{ActorID: &adminID, Role: enums.ActorRoleAdmin},
			Data: map[string]any{
				"kind":       entity.Kind,
				"subject_id": entity.SubjectID,
				"status":     entity.Status,
				"reason":     entity.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Status returns the review state. An unknown subject reads as pending, so
// everything is gated until explicitly approved.
func (s *service) Status(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (enums.VerificationStatus, error) {
	if !kind.IsValid() {
		return "", apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid verification kind %q", kind))
	}
	if subjectID == uuid.Nil {
		return "", apperrors.New(apperrors.CodeValidation, "subject id is required")
	}
	entity, err := s.repo.GetBySubject(ctx, kind, subjectID)
	if err != nil {
		return "", err
	}
	if entity == nil {
		return enums.VerificationStatusPending, nil
	}
	return entity.Status, nil
}

func (s *service) IsApproved(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (bool, error) {
	status, err := s.Status(ctx, kind, subjectID)
	if err != nil {
		return false, err
	}
	return status == enums.VerificationStatusApproved, nil
}

func (s *service) ListPending(ctx context.Context, limit int) ([]models.VerifiableEntity, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, enums.VerificationStatusPending, limit)
}
