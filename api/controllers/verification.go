package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nearcart/nearcart-backend/api/responses"
	"github.com/nearcart/nearcart-backend/api/validators"
	"github.com/nearcart/nearcart-backend/internal/verification"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	pkgerrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/logger"
)

type verificationSubmitBody struct {
	Kind      string  `json:"kind" validate:"required"`
	SubjectID string  `json:"subject_id" validate:"required,uuid"`
	OwnerID   *string `json:"owner_id,omitempty" validate:"omitempty,uuid"`
}

// SubmitVerification registers a subject for review.
func SubmitVerification(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verificationSubmitBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseVerificationKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid verification kind"))
			return
		}
		subjectID, err := parsePathUUID(req.SubjectID, "subject_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ownerID, err := optionalUUID(req.OwnerID, "owner_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entity, err := svc.Submit(r.Context(), verification.SubmitInput{
			Kind:      kind,
			SubjectID: subjectID,
			OwnerID:   ownerID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entity)
	}
}

type verificationDecideBody struct {
	Kind      string `json:"kind" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	Approve   bool   `json:"approve"`
	Reason    string `json:"reason"`
}

// DecideVerification records an admin approve or reject.
func DecideVerification(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req verificationDecideBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseVerificationKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid verification kind"))
			return
		}
		subjectID, err := parsePathUUID(req.SubjectID, "subject_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entity, err := svc.Decide(r.Context(), verification.DecideInput{
			Kind:      kind,
			SubjectID: subjectID,
			Approve:   req.Approve,
			AdminID:   adminID,
			Reason:    req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entity)
	}
}

type verificationDecisionBody struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason"`
}

// DecideVerificationSubject is the path-addressed decision form used by the
// admin UI: the subject comes from the URL, the verdict from the body.
func DecideVerificationSubject(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseVerificationKind(chi.URLParam(r, "kind"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid verification kind"))
			return
		}
		subjectID, err := parsePathUUID(chi.URLParam(r, "subjectId"), "subject id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req verificationDecisionBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entity, err := svc.Decide(r.Context(), verification.DecideInput{
			Kind:      kind,
			SubjectID: subjectID,
			Approve:   req.Decision == "approve",
			AdminID:   adminID,
			Reason:    req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entity)
	}
}

type verificationSuspendBody struct {
	Kind      string `json:"kind" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"required"`
}

// SuspendVerification moves an approved subject to rejected until it is
// resubmitted and re-reviewed.
func SuspendVerification(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req verificationSuspendBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseVerificationKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid verification kind"))
			return
		}
		subjectID, err := parsePathUUID(req.SubjectID, "subject_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entity, err := svc.Suspend(r.Context(), kind, subjectID, adminID, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entity)
	}
}

// VerificationStatus answers a subject's current review state.
func VerificationStatus(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := enums.ParseVerificationKind(chi.URLParam(r, "kind"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid verification kind"))
			return
		}
		subjectID, err := parsePathUUID(chi.URLParam(r, "subjectId"), "subject id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := svc.Status(r.Context(), kind, subjectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"kind":       kind,
			"subject_id": subjectID,
			"status":     status,
		})
	}
}

// ListPendingVerifications is the admin review queue.
func ListPendingVerifications(svc verification.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListPending(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
