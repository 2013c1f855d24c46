package commission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearcart/nearcart-backend/pkg/db/models"
	"github.com/nearcart/nearcart-backend/pkg/enums"
	apperrors "github.com/nearcart/nearcart-backend/pkg/errors"
	"github.com/nearcart/nearcart-backend/pkg/types"
)

type scopeKey struct {
	scope   enums.CommissionScope
	scopeID uuid.UUID
}

type fakeRepository struct {
	policies   map[scopeKey][]*models.CommissionPolicy
	categories map[uuid.UUID]*models.Category
	created    []*models.CommissionPolicy
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		policies:   map[scopeKey][]*models.CommissionPolicy{},
		categories: map[uuid.UUID]*models.Category{},
	}
}

func (f *fakeRepository) key(scope enums.CommissionScope, scopeID *uuid.UUID) scopeKey {
	k := scopeKey{scope: scope}
	if scopeID != nil {
		k.scopeID = *scopeID
	}
	return k
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) FindEffectiveAt(ctx context.Context, scope enums.CommissionScope, scopeID *uuid.UUID, at time.Time) (*models.CommissionPolicy, error) {
	var match *models.CommissionPolicy
	for _, p := range f.policies[f.key(scope, scopeID)] {
		if p.EffectiveFrom.After(at) {
			continue
		}
		if p.EffectiveTo != nil && !p.EffectiveTo.After(at) {
			continue
		}
		if match == nil || p.EffectiveFrom.After(match.EffectiveFrom) {
			match = p
		}
	}
	return match, nil
}

func (f *fakeRepository) CloseOpenInterval(ctx context.Context, scope enums.CommissionScope, scopeID *uuid.UUID, at time.Time) error {
	for _, p := range f.policies[f.key(scope, scopeID)] {
		if p.EffectiveTo == nil {
			end := at
			p.EffectiveTo = &end
		}
	}
	return nil
}

func (f *fakeRepository) Create(ctx context.Context, policy *models.CommissionPolicy) error {
	policy.ID = uuid.New()
	k := f.key(policy.Scope, policy.ScopeID)
	f.policies[k] = append(f.policies[k], policy)
	f.created = append(f.created, policy)
	return nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]models.CommissionPolicy, error) {
	var out []models.CommissionPolicy
	for k, rows := range f.policies {
		if filter.Scope != nil && k.scope != *filter.Scope {
			continue
		}
		if filter.ScopeID != nil && k.scopeID != *filter.ScopeID {
			continue
		}
		for _, p := range rows {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return f.categories[id], nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeRepository) addPolicy(scope enums.CommissionScope, scopeID *uuid.UUID, rate string) *models.CommissionPolicy {
	policy := &models.CommissionPolicy{
		ID:            uuid.New(),
		Scope:         scope,
		ScopeID:       scopeID,
		Rate:          decimal.RequireFromString(rate),
		EffectiveFrom: time.Now().UTC().Add(-time.Hour),
	}
	k := f.key(scope, scopeID)
	f.policies[k] = append(f.policies[k], policy)
	return policy
}

func TestResolve_VendorOverrideWins(t *testing.T) {
	repo := newFakeRepository()
	sellerID := uuid.New()
	categoryID := uuid.New()
	override := repo.addPolicy(enums.CommissionScopeVendorOverride, &sellerID, "5")
	repo.addPolicy(enums.CommissionScopeCategory, &categoryID, "12")
	repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")

	svc, _ := NewService(repo, fakeTxRunner{})
	snapshot, err := svc.Resolve(context.Background(), sellerID, &categoryID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if snapshot.PolicyID != override.ID || snapshot.Scope != enums.CommissionScopeVendorOverride {
		t.Fatalf("expected vendor override, got %+v", snapshot)
	}
}

func TestResolve_WalksCategoryChain(t *testing.T) {
	repo := newFakeRepository()
	sellerID := uuid.New()
	rootID := uuid.New()
	midID := uuid.New()
	leafID := uuid.New()
	repo.categories[leafID] = &models.Category{ID: leafID, ParentID: &midID}
	repo.categories[midID] = &models.Category{ID: midID, ParentID: &rootID}
	repo.categories[rootID] = &models.Category{ID: rootID}
	rootPolicy := repo.addPolicy(enums.CommissionScopeCategory, &rootID, "8")
	repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")

	svc, _ := NewService(repo, fakeTxRunner{})
	snapshot, err := svc.Resolve(context.Background(), sellerID, &leafID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if snapshot.PolicyID != rootPolicy.ID {
		t.Fatalf("expected root category policy, got %+v", snapshot)
	}
}

func TestResolve_FallsBackToPlatformDefault(t *testing.T) {
	repo := newFakeRepository()
	fallback := repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")

	svc, _ := NewService(repo, fakeTxRunner{})
	snapshot, err := svc.Resolve(context.Background(), uuid.New(), nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if snapshot.PolicyID != fallback.ID {
		t.Fatalf("expected platform default, got %+v", snapshot)
	}
}

func TestResolve_NoPolicyConfigured(t *testing.T) {
	svc, _ := NewService(newFakeRepository(), fakeTxRunner{})
	_, err := svc.Resolve(context.Background(), uuid.New(), nil, time.Now().UTC())
	if !apperrors.HasCode(err, apperrors.CodeNoApplicablePolicy) {
		t.Fatalf("expected no_applicable_policy, got %v", err)
	}
}

func TestResolve_UsesIntervalActiveAtTimestamp(t *testing.T) {
	repo := newFakeRepository()
	cutover := time.Now().UTC().Add(-24 * time.Hour)
	old := repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")
	old.EffectiveFrom = cutover.Add(-30 * 24 * time.Hour)
	old.EffectiveTo = &cutover
	current := repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "12")
	current.EffectiveFrom = cutover

	svc, _ := NewService(repo, fakeTxRunner{})

	snapshot, err := svc.Resolve(context.Background(), uuid.New(), nil, cutover.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if snapshot.PolicyID != old.ID {
		t.Fatalf("expected the retired interval before cutover, got %+v", snapshot)
	}

	snapshot, err = svc.Resolve(context.Background(), uuid.New(), nil, cutover.Add(time.Hour))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if snapshot.PolicyID != current.ID {
		t.Fatalf("expected the open interval after cutover, got %+v", snapshot)
	}
}

func TestResolve_NoIntervalCoversTimestamp(t *testing.T) {
	repo := newFakeRepository()
	policy := repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")
	policy.EffectiveFrom = time.Now().UTC().Add(time.Hour)

	svc, _ := NewService(repo, fakeTxRunner{})
	_, err := svc.Resolve(context.Background(), uuid.New(), nil, time.Now().UTC())
	if !apperrors.HasCode(err, apperrors.CodeNoApplicablePolicy) {
		t.Fatalf("expected no_applicable_policy before effective_from, got %v", err)
	}
}

func TestResolve_SurvivesCategoryCycle(t *testing.T) {
	repo := newFakeRepository()
	a := uuid.New()
	b := uuid.New()
	repo.categories[a] = &models.Category{ID: a, ParentID: &b}
	repo.categories[b] = &models.Category{ID: b, ParentID: &a}
	fallback := repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")

	svc, _ := NewService(repo, fakeTxRunner{})
	snapshot, err := svc.Resolve(context.Background(), uuid.New(), &a, time.Now().UTC())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if snapshot.PolicyID != fallback.ID {
		t.Fatalf("expected platform default after bounded walk, got %+v", snapshot)
	}
}

func TestCompute_BankersRounding(t *testing.T) {
	// 10.125% of 100 is 10.125, banker's rounding at 2dp gives 10.12.
	snapshot := types.PolicySnapshot{Rate: decimal.RequireFromString("10.125")}
	commission, net := Compute(decimal.NewFromInt(100), snapshot)
	if commission.String() != "10.12" {
		t.Fatalf("expected 10.12, got %s", commission)
	}
	if net.String() != "89.88" {
		t.Fatalf("expected 89.88, got %s", net)
	}
}

func TestCompute_HalfToEven(t *testing.T) {
	// 2.5% of 101 is 2.525; the half cent rounds to the even neighbor 2.52.
	snapshot := types.PolicySnapshot{Rate: decimal.RequireFromString("2.5")}
	commission, _ := Compute(decimal.NewFromInt(101), snapshot)
	if commission.String() != "2.52" {
		t.Fatalf("expected 2.52, got %s", commission)
	}
}

func TestCompute_ClampsToCommissionable(t *testing.T) {
	snapshot := types.PolicySnapshot{
		Rate:  decimal.NewFromInt(100),
		Fixed: decimal.NewFromInt(5),
	}
	commission, net := Compute(decimal.NewFromInt(10), snapshot)
	if !commission.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected commission clamped to 10, got %s", commission)
	}
	if !net.IsZero() {
		t.Fatalf("expected zero seller net, got %s", net)
	}
}

func TestUpsertPolicy_ClosesOpenInterval(t *testing.T) {
	repo := newFakeRepository()
	previous := repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")
	svc, _ := NewService(repo, fakeTxRunner{})

	policy, err := svc.UpsertPolicy(context.Background(), UpsertPolicyInput{
		Scope: enums.CommissionScopePlatformDefault,
		Rate:  decimal.NewFromInt(12),
	})
	if err != nil {
		t.Fatalf("UpsertPolicy error: %v", err)
	}
	if previous.EffectiveTo == nil {
		t.Fatal("expected the previous open interval to be closed")
	}
	active, _ := repo.FindEffectiveAt(context.Background(), enums.CommissionScopePlatformDefault, nil, time.Now().UTC())
	if active == nil || active.ID != policy.ID {
		t.Fatalf("expected the new policy to be in force")
	}
	if !previous.EffectiveTo.Equal(policy.EffectiveFrom) {
		t.Fatalf("expected contiguous intervals, got %s vs %s", previous.EffectiveTo, policy.EffectiveFrom)
	}
}

func TestUpsertPolicy_Validation(t *testing.T) {
	svc, _ := NewService(newFakeRepository(), fakeTxRunner{})
	sellerID := uuid.New()
	from := time.Now().UTC()
	before := from.Add(-time.Hour)

	tests := []struct {
		name  string
		input UpsertPolicyInput
	}{
		{
			name:  "override without scope id",
			input: UpsertPolicyInput{Scope: enums.CommissionScopeVendorOverride, Rate: decimal.NewFromInt(5)},
		},
		{
			name:  "platform default with scope id",
			input: UpsertPolicyInput{Scope: enums.CommissionScopePlatformDefault, ScopeID: &sellerID, Rate: decimal.NewFromInt(5)},
		},
		{
			name:  "rate above 100",
			input: UpsertPolicyInput{Scope: enums.CommissionScopePlatformDefault, Rate: decimal.NewFromInt(101)},
		},
		{
			name:  "negative fixed",
			input: UpsertPolicyInput{Scope: enums.CommissionScopePlatformDefault, Rate: decimal.NewFromInt(5), Fixed: decimal.NewFromInt(-1)},
		},
		{
			name: "interval ends before it starts",
			input: UpsertPolicyInput{
				Scope: enums.CommissionScopePlatformDefault, Rate: decimal.NewFromInt(5),
				EffectiveFrom: &from, EffectiveTo: &before,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpsertPolicy(context.Background(), tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestListPolicies_FiltersByScopePair(t *testing.T) {
	repo := newFakeRepository()
	sellerID := uuid.New()
	repo.addPolicy(enums.CommissionScopeVendorOverride, &sellerID, "5")
	repo.addPolicy(enums.CommissionScopePlatformDefault, nil, "10")
	svc, _ := NewService(repo, fakeTxRunner{})

	scope := enums.CommissionScopeVendorOverride
	rows, err := svc.ListPolicies(context.Background(), ListFilter{Scope: &scope, ScopeID: &sellerID})
	if err != nil {
		t.Fatalf("ListPolicies error: %v", err)
	}
	if len(rows) != 1 || rows[0].Scope != enums.CommissionScopeVendorOverride {
		t.Fatalf("expected only the vendor override, got %+v", rows)
	}
}
