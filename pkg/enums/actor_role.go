package enums

import "fmt"

// ActorRole identifies who initiated an engine operation.
type ActorRole string

const (
	ActorRoleAdmin         ActorRole = "admin"
	ActorRoleSeller        ActorRole = "seller"
	ActorRoleDeliveryAgent ActorRole = "delivery_agent"
	ActorRoleCustomer      ActorRole = "customer"
	ActorRoleSystem        ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleSeller,
	ActorRoleDeliveryAgent,
	ActorRoleCustomer,
	ActorRoleSystem,
}

// IsValid reports whether the value matches the canonical actor role enum.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
