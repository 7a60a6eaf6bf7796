package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/doumai/doumai-backend/internal/catalog"
	"github.com/doumai/doumai-backend/internal/channels"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/internal/tenants"
	pkgAuth "github.com/doumai/doumai-backend/pkg/auth"
	"github.com/doumai/doumai-backend/pkg/config"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
)

var routerTenantID = uuid.MustParse("5f0c2d7e-9b1a-4c55-8f0e-3a2b1c0d9e11")

type stubRedis struct{}

func (stubRedis) Ping(context.Context) error { return nil }

func (stubRedis) Get(context.Context, string) (string, error) { return "", redis.Nil }

func (stubRedis) SetNX(context.Context, string, any, time.Duration) (bool, error) { return true, nil }

func (stubRedis) Set(context.Context, string, any, time.Duration) error { return nil }

func (stubRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (stubRedis) Del(context.Context, ...string) error { return nil }

func (stubRedis) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return true, 1, nil
}

// stubTenants maps auth subjects to roles. Unknown subjects have no tenant.
type stubTenants struct {
	roles map[string]enums.UserRole
}

func (s stubTenants) Setup(_ context.Context, input tenants.SetupInput) (*tenants.SetupResult, error) {
	return &tenants.SetupResult{TenantID: routerTenantID, UserID: uuid.New(), IsNew: true}, nil
}

func (s stubTenants) ResolveTenant(_ context.Context, authID string) (*tenants.Membership, error) {
	role, ok := s.roles[authID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "tenant setup required")
	}
	return &tenants.Membership{UserID: uuid.New(), TenantID: routerTenantID, Role: role}, nil
}

func (s stubTenants) Tenant(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	return &models.Tenant{ID: id}, nil
}

func (s stubTenants) Members(context.Context, uuid.UUID) ([]tenants.Membership, error) {
	return nil, nil
}

func (s stubTenants) CompleteOnboarding(context.Context, tenants.Membership, tenants.OnboardingInput) error {
	return nil
}

type stubSubscriptions struct{}

func (stubSubscriptions) Current(context.Context, uuid.UUID) (*models.Subscription, error) {
	return nil, nil
}

func (stubSubscriptions) EffectivePlan(context.Context, uuid.UUID) (subscriptions.Plan, error) {
	return subscriptions.PlanFor(enums.PlanFree), nil
}

func (stubSubscriptions) Usage(context.Context, uuid.UUID) (*subscriptions.Usage, error) {
	return &subscriptions.Usage{}, nil
}

func (stubSubscriptions) Upgrade(context.Context, subscriptions.UpgradeInput) (*models.Subscription, *models.Payment, error) {
	return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "not used")
}

func (stubSubscriptions) Payments(context.Context, uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}

func (stubSubscriptions) RequireFeature(context.Context, uuid.UUID, subscriptions.Feature) error {
	return pkgerrors.New(pkgerrors.CodePlanRestricted, "data export requires the pro plan")
}

type stubCatalog struct {
	catalog.Service
	tenants []uuid.UUID
}

func (s *stubCatalog) ListSKUs(_ context.Context, input catalog.ListSKUsInput) (*catalog.SKUPage, error) {
	s.tenants = append(s.tenants, input.TenantID)
	return &catalog.SKUPage{Page: 1, PageSize: 20}, nil
}

type stubChannels struct {
	channels.Service
}

func (stubChannels) Add(_ context.Context, input channels.AddChannelInput) (*channels.ChannelView, error) {
	return &channels.ChannelView{ID: uuid.New(), Platform: input.Platform, ShopName: input.ShopName}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		Auth: config.AuthConfig{
			JWTSecret: "router-secret",
			Issuer:    "https://auth.doumai.test/auth/v1",
			Audience:  "authenticated",
			ClockSkew: 30 * time.Second,
		},
		RateLimit:   config.RateLimitConfig{Window: time.Minute, TenantLimit: 100, BatchLimit: 10},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
}

func newTestRouter(cfg *config.Config, cat *stubCatalog) http.Handler {
	return NewRouter(Params{
		Config:   cfg,
		Redis:    stubRedis{},
		Registry: prometheus.NewRegistry(),
		Catalog:  cat,
		Channels: stubChannels{},
		Tenants: stubTenants{roles: map[string]enums.UserRole{
			"admin-user":     enums.UserRoleAdmin,
			"warehouse-user": enums.UserRoleWarehouse,
		}},
		Subscriptions: stubSubscriptions{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, authID string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.Auth, time.Now(), time.Hour, authID, authID+"@shop.test")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCatalog{})

	if resp := do(router, http.MethodGet, "/health/live", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := do(router, http.MethodGet, "/health/ready", "", ""); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}

	do(router, http.MethodGet, "/health/live", "", "")
	resp := do(router, http.MethodGet, "/metrics", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "request_duration_seconds") {
		t.Fatalf("expected http histogram in metrics output")
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), &stubCatalog{})
	resp := do(router, http.MethodGet, "/api/v1/skus", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAPIScopesToResolvedTenant(t *testing.T) {
	cfg := testConfig()
	cat := &stubCatalog{}
	router := newTestRouter(cfg, cat)

	resp := do(router, http.MethodGet, "/api/v1/skus?page=1", buildToken(t, cfg, "admin-user"), "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(cat.tenants) != 1 || cat.tenants[0] != routerTenantID {
		t.Fatalf("expected tenant from membership, got %v", cat.tenants)
	}
}

func TestAPIRequiresTenantSetup(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubCatalog{})

	resp := do(router, http.MethodGet, "/api/v1/skus", buildToken(t, cfg, "new-user"), "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	resp = do(router, http.MethodPost, "/api/v1/tenants/setup", buildToken(t, cfg, "new-user"), "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("setup: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestChannelAddRequiresManagerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubCatalog{})
	body := `{"platform":"pinduoduo","shop_name":"Main shop"}`

	resp := do(router, http.MethodPost, "/api/v1/channels", buildToken(t, cfg, "warehouse-user"), body)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("warehouse: expected 403 got %d", resp.Code)
	}

	resp = do(router, http.MethodPost, "/api/v1/channels", buildToken(t, cfg, "admin-user"), body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("admin: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpgradeRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubCatalog{})

	resp := do(router, http.MethodPost, "/api/v1/subscription/upgrade", buildToken(t, cfg, "admin-user"), `{"plan":"pro"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", resp.Code)
	}
}

func TestExportGatedByPlan(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubCatalog{})

	resp := do(router, http.MethodGet, "/api/v1/inventory/export", buildToken(t, cfg, "admin-user"), "")
	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", resp.Code)
	}
}
