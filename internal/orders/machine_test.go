package orders

import (
	"testing"

	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
)

func TestNextStatus_HappyPath(t *testing.T) {
	steps := []struct {
		from  enums.OrderStatus
		event enums.OrderEvent
		want  enums.OrderStatus
	}{
		{enums.OrderStatusPlaced, enums.OrderEventAccept, enums.OrderStatusAccepted},
		{enums.OrderStatusAccepted, enums.OrderEventAssignAgent, enums.OrderStatusAccepted},
		{enums.OrderStatusAccepted, enums.OrderEventMarkPrepared, enums.OrderStatusPrepared},
		{enums.OrderStatusPrepared, enums.OrderEventMarkShipped, enums.OrderStatusShipped},
		{enums.OrderStatusShipped, enums.OrderEventMarkOutForDelivery, enums.OrderStatusOutForDelivery},
		{enums.OrderStatusOutForDelivery, enums.OrderEventMarkDelivered, enums.OrderStatusDelivered},
		{enums.OrderStatusDelivered, enums.OrderEventRequestReturn, enums.OrderStatusDelivered},
		{enums.OrderStatusDelivered, enums.OrderEventApproveReturn, enums.OrderStatusDelivered},
		{enums.OrderStatusPlaced, enums.OrderEventCancel, enums.OrderStatusCancelled},
	}
	for _, step := range steps {
		got, err := nextStatus(step.from, step.event)
		if err != nil {
			t.Fatalf("%s from %s: unexpected error %v", step.event, step.from, err)
		}
		if got != step.want {
			t.Fatalf("%s from %s: got %s, want %s", step.event, step.from, got, step.want)
		}
	}
}

func TestNextStatus_RejectsSkippedStates(t *testing.T) {
	cases := []struct {
		from  enums.OrderStatus
		event enums.OrderEvent
	}{
		{enums.OrderStatusPlaced, enums.OrderEventMarkDelivered},
		{enums.OrderStatusPlaced, enums.OrderEventMarkShipped},
		{enums.OrderStatusAccepted, enums.OrderEventAccept},
		{enums.OrderStatusDelivered, enums.OrderEventCancel},
		{enums.OrderStatusCancelled, enums.OrderEventAccept},
		{enums.OrderStatusRefunded, enums.OrderEventRequestReturn},
		{enums.OrderStatusShipped, enums.OrderEventMarkDelivered},
	}
	for _, c := range cases {
		_, err := nextStatus(c.from, c.event)
		if !apperrors.HasCode(err, apperrors.CodeIllegalTransition) {
			t.Fatalf("%s from %s: expected illegal transition, got %v", c.event, c.from, err)
		}
	}
}

func TestRoleMayFire(t *testing.T) {
	cases := []struct {
		event enums.OrderEvent
		role  enums.ActorRole
		want  bool
	}{
		{enums.OrderEventAccept, enums.ActorRoleSeller, true},
		{enums.OrderEventAccept, enums.ActorRoleCustomer, false},
		{enums.OrderEventAssignAgent, enums.ActorRoleAdmin, true},
		{enums.OrderEventAssignAgent, enums.ActorRoleSeller, false},
		{enums.OrderEventMarkDelivered, enums.ActorRoleDeliveryAgent, true},
		{enums.OrderEventMarkDelivered, enums.ActorRoleSeller, false},
		{enums.OrderEventRequestReturn, enums.ActorRoleCustomer, true},
		{enums.OrderEventApproveReturn, enums.ActorRoleCustomer, false},
		{enums.OrderEventApproveReturn, enums.ActorRoleAdmin, true},
		{enums.OrderEventCancel, enums.ActorRoleSystem, true},
	}
	for _, c := range cases {
		if got := roleMayFire(c.event, c.role); got != c.want {
			t.Fatalf("roleMayFire(%s, %s) = %v, want %v", c.event, c.role, got, c.want)
		}
	}
}

func TestCancelAllowed_Cutoffs(t *testing.T) {
	cases := []struct {
		status enums.OrderStatus
		role   enums.ActorRole
		want   bool
	}{
		{enums.OrderStatusPlaced, enums.ActorRoleCustomer, true},
		{enums.OrderStatusPrepared, enums.ActorRoleCustomer, true},
		{enums.OrderStatusShipped, enums.ActorRoleCustomer, false},
		{enums.OrderStatusPlaced, enums.ActorRoleSeller, true},
		{enums.OrderStatusAccepted, enums.ActorRoleSeller, false},
		{enums.OrderStatusOutForDelivery, enums.ActorRoleAdmin, true},
		{enums.OrderStatusOutForDelivery, enums.ActorRoleSystem, true},
		{enums.OrderStatusDelivered, enums.ActorRoleAdmin, false},
		{enums.OrderStatusPlaced, enums.ActorRoleDeliveryAgent, false},
	}
	for _, c := range cases {
		if got := cancelAllowed(c.status, c.role); got != c.want {
			t.Fatalf("cancelAllowed(%s, %s) = %v, want %v", c.status, c.role, got, c.want)
		}
	}
}
