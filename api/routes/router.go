package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doumai/doumai-backend/api/controllers"
	"github.com/doumai/doumai-backend/api/middleware"
	"github.com/doumai/doumai-backend/internal/catalog"
	"github.com/doumai/doumai-backend/internal/channels"
	"github.com/doumai/doumai-backend/internal/dashboard"
	"github.com/doumai/doumai-backend/internal/inventory"
	"github.com/doumai/doumai-backend/internal/returns"
	"github.com/doumai/doumai-backend/internal/subscriptions"
	"github.com/doumai/doumai-backend/internal/tenants"
	"github.com/doumai/doumai-backend/pkg/config"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/logger"
	"github.com/doumai/doumai-backend/pkg/metrics"
	pkgredis "github.com/doumai/doumai-backend/pkg/redis"
)

type redisDependency interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
}

type subscriptionService interface {
	Current(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	EffectivePlan(ctx context.Context, tenantID uuid.UUID) (subscriptions.Plan, error)
	Usage(ctx context.Context, tenantID uuid.UUID) (*subscriptions.Usage, error)
	Upgrade(ctx context.Context, input subscriptions.UpgradeInput) (*models.Subscription, *models.Payment, error)
	Payments(ctx context.Context, tenantID uuid.UUID) ([]models.Payment, error)
	RequireFeature(ctx context.Context, tenantID uuid.UUID, feature subscriptions.Feature) error
}

type tenantService interface {
	Setup(ctx context.Context, input tenants.SetupInput) (*tenants.SetupResult, error)
	ResolveTenant(ctx context.Context, authID string) (*tenants.Membership, error)
	Tenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)
	Members(ctx context.Context, tenantID uuid.UUID) ([]tenants.Membership, error)
	CompleteOnboarding(ctx context.Context, m tenants.Membership, input tenants.OnboardingInput) error
}

// Params carries everything the HTTP surface depends on.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redisDependency
	Registry *prometheus.Registry

	Inventory     inventory.Service
	Catalog       catalog.Service
	Channels      channels.Service
	Returns       returns.Service
	Dashboard     dashboard.Service
	Subscriptions subscriptionService
	Tenants       tenantService
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	var httpMetrics *metrics.HTTPMetrics
	if p.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(p.Registry)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	tenantPolicy := middleware.NewRateLimitPolicy("tenant", cfg.RateLimit.Window, cfg.RateLimit.TenantLimit)
	batchPolicy := middleware.NewRateLimitPolicy("batch", cfg.RateLimit.Window, cfg.RateLimit.BatchLimit)
	manager := middleware.RequireTenantManager(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})
	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, logg))

		r.With(middleware.RateLimit(tenantPolicy, p.Redis, logg)).Post("/tenants/setup", controllers.TenantSetup(p.Tenants, logg))
		r.Get("/plans", controllers.SubscriptionPlans())

		r.Group(func(r chi.Router) {
			r.Use(middleware.TenantContext(p.Tenants, logg))
			r.Use(middleware.RateLimit(tenantPolicy, p.Redis, logg))
			r.Use(middleware.Idempotency(p.Redis, cfg.Idempotency.TTL, logg))

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/me", controllers.TenantMe(p.Tenants, logg))
				r.Get("/members", controllers.TenantMembers(p.Tenants, logg))
				r.Post("/onboarding", controllers.TenantOnboarding(p.Tenants, logg))
			})

			r.Post("/products", controllers.CatalogCreateProduct(p.Catalog, logg))
			r.Route("/skus", func(r chi.Router) {
				r.Get("/", controllers.CatalogListSKUs(p.Catalog, logg))
				r.Route("/{skuId}", func(r chi.Router) {
					r.Get("/", controllers.CatalogGetSKU(p.Catalog, logg))
					r.Delete("/", controllers.CatalogArchiveSKU(p.Catalog, logg))
					r.Get("/inventory", controllers.InventoryGet(p.Inventory, logg))
					r.Post("/adjustments", controllers.InventoryAdjust(p.Inventory, logg))
					r.Get("/logs", controllers.InventoryLogs(p.Inventory, logg))
					r.Patch("/alert-threshold", controllers.InventoryUpdateThreshold(p.Inventory, logg))
				})
			})
			r.Route("/inventory", func(r chi.Router) {
				r.With(middleware.RateLimit(batchPolicy, p.Redis, logg)).Post("/batch", controllers.InventoryBatch(p.Inventory, logg))
				r.Get("/export", controllers.InventoryExport(p.Inventory, p.Subscriptions, logg))
			})

			r.Route("/channels", func(r chi.Router) {
				r.Get("/", controllers.ChannelsList(p.Channels, logg))
				r.With(manager).Post("/", controllers.ChannelsAdd(p.Channels, logg))
				r.Route("/{channelId}", func(r chi.Router) {
					r.With(manager).Patch("/", controllers.ChannelsUpdateConfig(p.Channels, logg))
					r.With(manager).Post("/disconnect", controllers.ChannelsDisconnect(p.Channels, logg))
					r.Post("/sync", controllers.ChannelsTriggerSync(p.Channels, logg))
				})
			})
			r.Get("/sync-tasks", controllers.SyncTasksList(p.Channels, logg))

			r.Route("/returns", func(r chi.Router) {
				r.Get("/", controllers.ReturnsList(p.Returns, logg))
				r.Post("/", controllers.ReturnsRecord(p.Returns, logg))
				r.Get("/risky-buyers", controllers.ReturnsRiskyBuyers(p.Returns, logg))
				r.Patch("/{returnId}", controllers.ReturnsUpdateStatus(p.Returns, logg))
			})
			r.Route("/blacklist", func(r chi.Router) {
				r.Get("/", controllers.BlacklistList(p.Returns, logg))
				r.With(manager).Post("/", controllers.BlacklistAdd(p.Returns, logg))
				r.With(manager).Delete("/{entryId}", controllers.BlacklistRemove(p.Returns, logg))
			})

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", controllers.SubscriptionCurrent(p.Subscriptions, logg))
				r.Get("/usage", controllers.SubscriptionUsage(p.Subscriptions, logg))
				r.Get("/payments", controllers.SubscriptionPayments(p.Subscriptions, logg))
				r.With(manager).Post("/upgrade", controllers.SubscriptionUpgrade(p.Subscriptions, logg))
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/overview", controllers.DashboardOverview(p.Dashboard, logg))
				r.Get("/return-trends", controllers.DashboardReturnTrends(p.Dashboard, logg))
				r.Get("/todos", controllers.DashboardTodos(p.Dashboard, logg))
			})
		})
	})

	return r
}
