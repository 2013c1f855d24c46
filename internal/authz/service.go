package authz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nearcart/nearcart-backend/pkg/enums"
)

// Resources and actions used by the permission matrix. They mirror the rows
// seeded into role_permissions.
const (
	ResourceOrders             = "orders"
	ResourceLedger             = "ledger"
	ResourceCommissionPolicies = "commission_policies"
	ResourceVerification       = "verification"
	ResourceWithdrawals        = "withdrawals"

	ActionRead       = "read"
	ActionPlace      = "place"
	ActionTransition = "transition"
	ActionCancel     = "cancel"
	ActionReturn     = "return"
	ActionPost       = "post"
	ActionWrite      = "write"
	ActionSubmit     = "submit"
	ActionDecide     = "decide"
	ActionRequest    = "request"
)

const cacheTTL = time.Minute

// Service answers whether a role may perform an action on a resource.
// The matrix is read from the database and cached briefly, so permission
// edits land without a restart but the hot path stays off the database.
type Service interface {
	Allowed(ctx context.Context, role enums.ActorRole, resource, action string) (bool, error)
	Refresh(ctx context.Context) error
}

type service struct {
	repo Repository

	mu      sync.RWMutex
	grants  map[string]struct{}
	loaded  time.Time
	nowFunc func() time.Time
}

// NewService wires the authorization matrix service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("authz repository required")
	}
	return &service{repo: repo, nowFunc: time.Now}, nil
}

func grantKey(role enums.ActorRole, resource, action string) string {
	return string(role) + "|" + resource + "|" + action
}

func (s *service) Allowed(ctx context.Context, role enums.ActorRole, resource, action string) (bool, error) {
	// The system role is internal machinery, never an HTTP caller, and
	// bypasses the matrix.
	if role == enums.ActorRoleSystem {
		return true, nil
	}
	if !role.IsValid() {
		return false, nil
	}

	s.mu.RLock()
	fresh := s.grants != nil && s.nowFunc().Sub(s.loaded) < cacheTTL
	if fresh {
		_, ok := s.grants[grantKey(role, resource, action)]
		s.mu.RUnlock()
		return ok, nil
	}
	s.mu.RUnlock()

	if err := s.Refresh(ctx); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey(role, resource, action)]
	return ok, nil
}

func (s *service) Refresh(ctx context.Context) error {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading role permissions: %w", err)
	}
	grants := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		grants[grantKey(enums.ActorRole(row.Role), row.Resource, row.Action)] = struct{}{}
	}
	s.mu.Lock()
	s.grants = grants
	s.loaded = s.nowFunc()
	s.mu.Unlock()
	return nil
}
