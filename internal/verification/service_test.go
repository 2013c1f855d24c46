package verification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/outbox"
)

type subjectKey struct {
	kind      enums.VerificationKind
	subjectID uuid.UUID
}

type fakeRepository struct {
	entities map[subjectKey]*models.VerifiableEntity
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{entities: map[subjectKey]*models.VerifiableEntity{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, entity *models.VerifiableEntity) error {
	entity.ID = uuid.New()
	f.entities[subjectKey{entity.Kind, entity.SubjectID}] = entity
	return nil
}

func (f *fakeRepository) GetBySubject(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (*models.VerifiableEntity, error) {
	return f.entities[subjectKey{kind, subjectID}], nil
}

func (f *fakeRepository) GetBySubjectForUpdate(ctx context.Context, kind enums.VerificationKind, subjectID uuid.UUID) (*models.VerifiableEntity, error) {
	return f.GetBySubject(ctx, kind, subjectID)
}

func (f *fakeRepository) Save(ctx context.Context, entity *models.VerifiableEntity) error {
	f.entities[subjectKey{entity.Kind, entity.SubjectID}] = entity
	return nil
}

func (f *fakeRepository) ListByStatus(ctx context.Context, status enums.VerificationStatus, limit int) ([]models.VerifiableEntity, error) {
	var out []models.VerifiableEntity
	for _, e := range f.entities {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newService(t *testing.T) (Service, *fakeRepository, *fakeEmitter) {
	t.Helper()
	repo := newFakeRepository()
	emitter := &fakeEmitter{}
	svc, err := NewService(repo, fakeTxRunner{}, emitter)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc, repo, emitter
}

func TestSubmitCreatesPending(t *testing.T) {
	svc, _, _ := newService(t)
	subjectID := uuid.New()

	entity, err := svc.Submit(context.Background(), SubmitInput{
		Kind:      enums.VerificationKindSeller,
		SubjectID: subjectID,
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if entity.Status != enums.VerificationStatusPending {
		t.Fatalf("expected pending, got %s", entity.Status)
	}
	if entity.SubmittedAt.IsZero() {
		t.Fatal("expected submitted_at to be set")
	}
	if entity.Revision != 1 {
		t.Fatalf("expected revision 1 on first submission, got %d", entity.Revision)
	}
}

func TestSubmitResetsRejected(t *testing.T) {
	svc, _, _ := newService(t)
	subjectID := uuid.New()
	adminID := uuid.New()

	if _, err := svc.Submit(context.Background(), SubmitInput{
		Kind: enums.VerificationKindProduct, SubjectID: subjectID,
	}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := svc.Decide(context.Background(), DecideInput{
		Kind: enums.VerificationKindProduct, SubjectID: subjectID,
		Approve: false, AdminID: adminID, Reason: "blurry documents",
	}); err != nil {
		t.Fatalf("Decide error: %v", err)
	}

	entity, err := svc.Submit(context.Background(), SubmitInput{
		Kind: enums.VerificationKindProduct, SubjectID: subjectID,
	})
	if err != nil {
		t.Fatalf("resubmit error: %v", err)
	}
	if entity.Status != enums.VerificationStatusPending {
		t.Fatalf("expected pending after resubmit, got %s", entity.Status)
	}
	if entity.Reason != nil {
		t.Fatal("expected rejection reason to be cleared")
	}
	if entity.Revision != 2 {
		t.Fatalf("expected revision 2 after resubmit, got %d", entity.Revision)
	}
}

func TestDecideApprove(t *testing.T) {
	svc, _, emitter := newService(t)
	subjectID := uuid.New()

	if _, err := svc.Submit(context.Background(), SubmitInput{
		Kind: enums.VerificationKindSeller, SubjectID: subjectID,
	}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	entity, err := svc.Decide(context.Background(), DecideInput{
		Kind: enums.VerificationKindSeller, SubjectID: subjectID,
		Approve: true, AdminID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if entity.Status != enums.VerificationStatusApproved {
		t.Fatalf("expected approved, got %s", entity.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventVerificationDecided {
		t.Fatalf("expected one verification.decided event, got %+v", emitter.events)
	}

	approved, err := svc.IsApproved(context.Background(), enums.VerificationKindSeller, subjectID)
	if err != nil || !approved {
		t.Fatalf("expected IsApproved true, got %v %v", approved, err)
	}
}

func TestDecideRejectRequiresReason(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Decide(context.Background(), DecideInput{
		Kind: enums.VerificationKindSeller, SubjectID: uuid.New(),
		Approve: false, AdminID: uuid.New(),
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecideTwiceConflicts(t *testing.T) {
	svc, _, _ := newService(t)
	subjectID := uuid.New()

	if _, err := svc.Submit(context.Background(), SubmitInput{
		Kind: enums.VerificationKindStore, SubjectID: subjectID,
	}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := svc.Decide(context.Background(), DecideInput{
		Kind: enums.VerificationKindStore, SubjectID: subjectID,
		Approve: true, AdminID: uuid.New(),
	}); err != nil {
		t.Fatalf("first decide error: %v", err)
	}

	_, err := svc.Decide(context.Background(), DecideInput{
		Kind: enums.VerificationKindStore, SubjectID: subjectID,
		Approve: false, AdminID: uuid.New(), Reason: "changed mind",
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUnknownSubjectReadsPending(t *testing.T) {
	svc, _, _ := newService(t)
	status, err := svc.Status(context.Background(), enums.VerificationKindDeliveryAgent, uuid.New())
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if status != enums.VerificationStatusPending {
		t.Fatalf("expected pending for unknown subject, got %s", status)
	}
}

func TestSuspendApproved(t *testing.T) {
	svc, _, emitter := newService(t)
	subjectID := uuid.New()
	adminID := uuid.New()

	if _, err := svc.Submit(context.Background(), SubmitInput{
		Kind: enums.VerificationKindSeller, SubjectID: subjectID,
	}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if _, err := svc.Decide(context.Background(), DecideInput{
		Kind: enums.VerificationKindSeller, SubjectID: subjectID,
		Approve: true, AdminID: adminID,
	}); err != nil {
		t.Fatalf("Decide error: %v", err)
	}

	entity, err := svc.Suspend(context.Background(), enums.VerificationKindSeller, subjectID, adminID, "fraud review")
	if err != nil {
		t.Fatalf("Suspend error: %v", err)
	}
	if entity.Status != enums.VerificationStatusRejected {
		t.Fatalf("expected rejected after suspend, got %s", entity.Status)
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected decide and suspend events, got %d", len(emitter.events))
	}

	resubmitted, err := svc.Submit(context.Background(), SubmitInput{
		Kind: enums.VerificationKindSeller, SubjectID: subjectID,
	})
	if err != nil {
		t.Fatalf("resubmit after suspend error: %v", err)
	}
	if resubmitted.Status != enums.VerificationStatusPending {
		t.Fatalf("expected pending after resubmit, got %s", resubmitted.Status)
	}
	if resubmitted.Revision != 2 {
		t.Fatalf("expected revision 2 after resubmit, got %d", resubmitted.Revision)
	}
}
