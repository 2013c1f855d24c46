package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/nearcart/nearcart-backend/pkg/auth"
	"github.com/nearcart/nearcart-backend/pkg/config"
	"github.com/nearcart/nearcart-backend/pkg/enums"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "nearcart",
		ExpirationMinutes: 15,
	}
}

func TestAuthRejectsMissingCredentials(t *testing.T) {
	mw := Auth(jwtConfig(), nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without credentials")
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	mw := Auth(jwtConfig(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsContextFromClaims(t *testing.T) {
	cfg := jwtConfig()
	actorID := uuid.New()
	storeID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		ActorID: actorID,
		Role:    enums.ActorRoleSeller,
		StoreID: &storeID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	mw := Auth(cfg, nil)
	var gotActor, gotRole, gotStore string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = ActorIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotStore = StoreIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotActor != actorID.String() {
		t.Fatalf("expected actor %s got %s", actorID, gotActor)
	}
	if gotRole != string(enums.ActorRoleSeller) {
		t.Fatalf("expected seller role got %s", gotRole)
	}
	if gotStore != storeID.String() {
		t.Fatalf("expected store %s got %s", storeID, gotStore)
	}
}
