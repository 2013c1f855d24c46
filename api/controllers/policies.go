package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/api/responses"
	"github.com/nearcart/nearcart-backend/api/validators"
	"github.com/nearcart/nearcart-backend/internal/commission"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	pkgerrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/logger"
)

// ListCommissionPolicies returns policy intervals, current and historical,
// optionally narrowed by ?scope and ?scope_id.
func ListCommissionPolicies(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := policyListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListPolicies(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func policyListFilter(r *http.Request) (commission.ListFilter, error) {
	var filter commission.ListFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("scope")); raw != "" {
		scope, err := enums.ParseCommissionScope(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid commission scope")
		}
		filter.Scope = &scope
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("scope_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scope_id must be a valid uuid")
		}
		filter.ScopeID = &id
	}
	return filter, nil
}

type upsertPolicyBody struct {
	Scope         string  `json:"scope" validate:"required"`
	ScopeID       *string `json:"scope_id,omitempty" validate:"omitempty,uuid"`
	Rate          string  `json:"rate" validate:"required"`
	Fixed         string  `json:"fixed"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	Note          string  `json:"note"`
}

// UpsertCommissionPolicy closes the open interval for the scope pair and
// installs the new one. An omitted effective_from starts the interval now.
func UpsertCommissionPolicy(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req upsertPolicyBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scope, err := enums.ParseCommissionScope(req.Scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid commission scope"))
			return
		}
		scopeID, err := optionalUUID(req.ScopeID, "scope_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rate, err := parseAmount(req.Rate, "rate")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fixed, err := parseAmount(req.Fixed, "fixed")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		effectiveFrom, err := optionalTime(&req.EffectiveFrom, "effective_from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		effectiveTo, err := optionalTime(req.EffectiveTo, "effective_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		policy, err := svc.UpsertPolicy(r.Context(), commission.UpsertPolicyInput{
			Scope:         scope,
			ScopeID:       scopeID,
			Rate:          rate,
			Fixed:         fixed,
			EffectiveFrom: effectiveFrom,
			EffectiveTo:   effectiveTo,
			ActorID:       &adminID,
			Note:          req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, policy)
	}
}

func optionalTime(raw *string, field string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be an RFC 3339 timestamp")
	}
	return &ts, nil
}
