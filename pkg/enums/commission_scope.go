package enums

import "fmt"

// CommissionScope maps to the commission_scope enum in Postgres.
// Resolution walks scopes in the declared precedence order.
type CommissionScope string

const (
	CommissionScopeVendorOverride  CommissionScope = "vendor_override"
	CommissionScopeCategory        CommissionScope = "category"
	CommissionScopePlatformDefault CommissionScope = "platform_default"
)

var validCommissionScopes = []CommissionScope{
	CommissionScopeVendorOverride,
	CommissionScopeCategory,
	CommissionScopePlatformDefault,
}

// IsValid reports whether the value matches the canonical scope enum.
func (s CommissionScope) IsValid() bool {
	for _, candidate := range validCommissionScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// RequiresScopeID reports whether policies in this scope target a specific entity.
func (s CommissionScope) RequiresScopeID() bool {
	return s != CommissionScopePlatformDefault
}

// ParseCommissionScope converts raw input into CommissionScope.
func ParseCommissionScope(value string) (CommissionScope, error) {
	for _, candidate := range validCommissionScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission scope %q", value)
}
