package types

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// Party identifies a ledger participant. Identity is the kind tag plus id;
// equality is structural. The platform party carries the nil UUID.
type Party struct {
	Kind enums.PartyKind `json:"kind"`
	ID   uuid.UUID       `json:"id"`
}

// Platform returns the singleton platform party.
func Platform() Party {
	return Party{Kind: enums.PartyKindPlatform, ID: uuid.Nil}
}

// SellerParty returns the party for a seller account.
func SellerParty(id uuid.UUID) Party {
	return Party{Kind: enums.PartyKindSeller, ID: id}
}

// DeliveryAgentParty returns the party for a delivery agent.
func DeliveryAgentParty(id uuid.UUID) Party {
	return Party{Kind: enums.PartyKindDeliveryAgent, ID: id}
}

// CustomerParty returns the party for a customer account.
func CustomerParty(id uuid.UUID) Party {
	return Party{Kind: enums.PartyKindCustomer, ID: id}
}

// Validate checks the kind tag and the id/kind pairing.
func (p Party) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("invalid party kind %q", p.Kind)
	}
	if p.Kind == enums.PartyKindPlatform {
		if p.ID != uuid.Nil {
			return fmt.Errorf("platform party must not carry an id")
		}
		return nil
	}
	if p.ID == uuid.Nil {
		return fmt.Errorf("%s party requires an id", p.Kind)
	}
	return nil
}

// String renders the party as kind:id for log fields and lock keys.
func (p Party) String() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.ID)
}
