package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nearcart/nearcart-backend/api/responses"
	"github.com/nearcart/nearcart-backend/api/validators"
	"github.com/nearcart/nearcart-backend/internal/withdrawals"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	pkgerrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/logger"
	"github.com/nearcart/nearcart-backend/pkg/metrics"
	"github.com/nearcart/nearcart-backend/pkg/pagination"
)

type withdrawalRequestBody struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required"`
	Note     string `json:"note"`
}

// RequestWithdrawal opens a pending withdrawal for the caller's own party.
func RequestWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		party, err := actorParty(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req withdrawalRequestBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := parseAmount(req.Amount, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency, err := enums.ParseCurrency(req.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
			return
		}

		request, err := svc.Request(r.Context(), withdrawals.RequestInput{
			Party:    party,
			Amount:   amount,
			Currency: currency,
			Note:     req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

type withdrawalDecisionBody struct {
	Action string `json:"action" validate:"required,oneof=approve reject disburse"`
	Note   string `json:"note"`
}

// DecideWithdrawal applies an admin approve, reject or disburse action.
func DecideWithdrawal(svc withdrawals.Service, engineMetrics *metrics.EngineMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withdrawalID, err := parsePathUUID(chi.URLParam(r, "withdrawalId"), "withdrawal id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req withdrawalDecisionBody
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		decision := withdrawals.DecisionInput{ActorID: adminID, Note: req.Note}

		var request any
		switch req.Action {
		case "approve":
			request, err = svc.Approve(r.Context(), withdrawalID, decision)
		case "reject":
			request, err = svc.Reject(r.Context(), withdrawalID, decision)
		case "disburse":
			request, err = svc.Disburse(r.Context(), withdrawalID, decision)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		engineMetrics.IncWithdrawal(req.Action)
		responses.WriteSuccess(w, request)
	}
}

// GetWithdrawal returns one request, restricted to its owner or an admin.
func GetWithdrawal(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withdrawalID, err := parsePathUUID(chi.URLParam(r, "withdrawalId"), "withdrawal id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		request, err := svc.Get(r.Context(), withdrawalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actorRole(r) != enums.ActorRoleAdmin {
			id, err := actorID(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if request.PartyID != id {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "withdrawal does not belong to caller"))
				return
			}
		}
		responses.WriteSuccess(w, request)
	}
}

// ListWithdrawals pages the caller's own requests. Admins can list any
// party with party_kind/party_id query parameters.
func ListWithdrawals(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		party, err := actorParty(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, next, err := svc.ListByParty(r.Context(), party, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pageEnvelope{Items: rows, NextCursor: next})
	}
}

// ListPendingWithdrawals is the admin review queue.
func ListPendingWithdrawals(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
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
