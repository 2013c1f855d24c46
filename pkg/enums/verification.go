package enums

import "fmt"

// VerificationStatus maps to the verification_status enum in Postgres.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

var validVerificationStatuses = []VerificationStatus{
	VerificationStatusPending,
	VerificationStatusApproved,
	VerificationStatusRejected,
}

// IsValid reports whether the value matches the canonical verification status enum.
func (s VerificationStatus) IsValid() bool {
	for _, candidate := range validVerificationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVerificationStatus converts raw input into VerificationStatus.
func ParseVerificationStatus(value string) (VerificationStatus, error) {
	for _, candidate := range validVerificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification status %q", value)
}

// VerificationKind identifies which counterparty type a verification record gates.
type VerificationKind string

const (
	VerificationKindSeller        VerificationKind = "seller"
	VerificationKindStore         VerificationKind = "store"
	VerificationKindProduct       VerificationKind = "product"
	VerificationKindDeliveryAgent VerificationKind = "delivery_agent"
)

var validVerificationKinds = []VerificationKind{
	VerificationKindSeller,
	VerificationKindStore,
	VerificationKindProduct,
	VerificationKindDeliveryAgent,
}

// IsValid reports whether the value matches the canonical verification kind enum.
func (k VerificationKind) IsValid() bool {
	for _, candidate := range validVerificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseVerificationKind converts raw input into VerificationKind.
func ParseVerificationKind(value string) (VerificationKind, error) {
	for _, candidate := range validVerificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification kind %q", value)
}
