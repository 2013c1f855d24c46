package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearcart/nearcart-backend/api/middleware"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	pkgerrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	return id, nil
}

func actorRole(r *http.Request) enums.ActorRole {
	return enums.ActorRole(middleware.RoleFromContext(r.Context()))
}

// actorParty maps the authenticated actor onto its ledger party. Admins act
// for the platform unless they name another party via query parameters.
func actorParty(r *http.Request) (types.Party, error) {
	id, err := actorID(r)
	if err != nil {
		return types.Party{}, err
	}
	switch actorRole(r) {
	case enums.ActorRoleSeller:
		return types.SellerParty(id), nil
	case enums.ActorRoleDeliveryAgent:
		return types.DeliveryAgentParty(id), nil
	case enums.ActorRoleCustomer:
		return types.CustomerParty(id), nil
	case enums.ActorRoleAdmin:
		return adminParty(r)
	}
	return types.Party{}, pkgerrors.New(pkgerrors.CodeForbidden, "role has no ledger party")
}

func adminParty(r *http.Request) (types.Party, error) {
	rawKind := strings.TrimSpace(r.URL.Query().Get("party_kind"))
	if rawKind == "" {
		return types.Platform(), nil
	}
	kind, err := enums.ParsePartyKind(rawKind)
	if err != nil {
		return types.Party{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party kind")
	}
	if kind == enums.PartyKindPlatform {
		return types.Platform(), nil
	}
	rawID := strings.TrimSpace(r.URL.Query().Get("party_id"))
	id, err := uuid.Parse(rawID)
	if err != nil {
		return types.Party{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party id")
	}
	return types.Party{Kind: kind, ID: id}, nil
}

// pathParty resolves the {partyKind}/{partyId} route segments. Admin and
// system actors may address any party; everyone else only their own.
func pathParty(r *http.Request) (types.Party, error) {
	kind, err := enums.ParsePartyKind(chi.URLParam(r, "partyKind"))
	if err != nil {
		return types.Party{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party kind")
	}
	var party types.Party
	if kind == enums.PartyKindPlatform {
		party = types.Platform()
	} else {
		id, err := parsePathUUID(chi.URLParam(r, "partyId"), "party id")
		if err != nil {
			return types.Party{}, err
		}
		party = types.Party{Kind: kind, ID: id}
	}

	role := actorRole(r)
	if role == enums.ActorRoleAdmin || role == enums.ActorRoleSystem {
		return party, nil
	}
	own, err := actorParty(r)
	if err != nil {
		return types.Party{}, err
	}
	if own != party {
		return types.Party{}, pkgerrors.New(pkgerrors.CodeForbidden, "cannot read another party's ledger")
	}
	return party, nil
}

func parsePathUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a valid uuid")
	}
	return id, nil
}

// parseAmount turns a decimal request string into a value. Empty input
// reads as zero so optional charge fields can be omitted.
func parseAmount(raw, field string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeInvalidAmount, err, field+" must be a decimal amount")
	}
	return value, nil
}

func optionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a valid uuid")
	}
	return &id, nil
}

type pageEnvelope struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
