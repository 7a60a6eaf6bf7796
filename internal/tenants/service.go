package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/doumai/doumai-backend/internal/catalog"
	"github.com/doumai/doumai-backend/pkg/db"
	"github.com/doumai/doumai-backend/pkg/db/models"
	"github.com/doumai/doumai-backend/pkg/enums"
	pkgerrors "github.com/doumai/doumai-backend/pkg/errors"
	"github.com/doumai/doumai-backend/pkg/logger"
)

const (
	maxAnswerLength      = 50
	fallbackShopOwner    = "new user"
	sampleSyncInterval   = 5
	sampleAlertThreshold = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type freePlanStarter interface {
	StartFree(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID) (*models.Subscription, error)
}

type productCreator interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, input catalog.CreateProductInput) (*catalog.CreateProductResult, error)
}

type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Subscriptions     freePlanStarter
	Catalog           productCreator
	Logger            *logger.Logger
	Now               func() time.Time
	// DisableSamples ignores seed requests during onboarding.
	DisableSamples    bool
}

// Service provisions tenants for identity-provider users and runs the
// first-login onboarding.
type Service struct {
	repo    Repository
	tx      txRunner
	subs    freePlanStarter
	catalog productCreator
	logg    *logger.Logger
	now     func() time.Time
	samples bool
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:    params.Repo,
		tx:      params.TransactionRunner,
		subs:    params.Subscriptions,
		catalog: params.Catalog,
		logg:    params.Logger,
		now:     now,
		samples: !params.DisableSamples,
	}, nil
}

type SetupInput struct {
	AuthID string
	Email  string
}

type SetupResult struct {
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
	IsNew    bool      `json:"is_new"`
}

// Membership is what request handlers need to know about the caller.
type Membership struct {
	UserID              uuid.UUID      `json:"user_id"`
	TenantID            uuid.UUID      `json:"tenant_id"`
	Email               string         `json:"email"`
	Role                enums.UserRole `json:"role"`
	OnboardingCompleted bool           `json:"onboarding_completed"`
}

func membershipFromUser(u models.User) Membership {
	return Membership{
		UserID:              u.ID,
		TenantID:            u.TenantID,
		Email:               u.Email,
		Role:                u.Role,
		OnboardingCompleted: u.OnboardingCompleted,
	}
}

// Setup provisions a tenant, its admin and a free subscription the first
// time an identity-provider user calls in. Later calls return the existing
// membership.
func (s *Service) Setup(ctx context.Context, input SetupInput) (*SetupResult, error) {
	authID := strings.TrimSpace(input.AuthID)
	if authID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity")
	}

	existing, err := s.repo.FindUserByAuthID(ctx, authID)
	if err == nil {
		return &SetupResult{TenantID: existing.TenantID, UserID: existing.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	local := emailLocalPart(input.Email)
	var tenant models.Tenant
	var user models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		tenant = models.Tenant{Name: local + "'s shop", Status: enums.TenantStatusActive}
		if err := txRepo.CreateTenant(ctx, &tenant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create tenant")
		}

		now := s.now()
		user = models.User{
			TenantID:    tenant.ID,
			AuthID:      authID,
			Email:       strings.TrimSpace(input.Email),
			Nickname:    &local,
			Role:        enums.UserRoleAdmin,
			Status:      enums.UserStatusActive,
			LastLoginAt: &now,
		}
		if err := txRepo.CreateUser(ctx, &user); err != nil {
			return err
		}

		_, err := s.subs.StartFree(ctx, tx, tenant.ID)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// A concurrent first login won the race; hand back its rows.
			winner, findErr := s.repo.FindUserByAuthID(ctx, authID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "db: load user")
			}
			return &SetupResult{TenantID: winner.TenantID, UserID: winner.ID}, nil
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create user")
	}

	logCtx := s.logg.WithTenantID(s.logg.WithUserID(ctx, user.ID.String()), tenant.ID.String())
	s.logg.Info(logCtx, "tenant.created")
	return &SetupResult{TenantID: tenant.ID, UserID: user.ID, IsNew: true}, nil
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return fallbackShopOwner
	}
	return local
}

// ResolveTenant maps an identity-provider subject to its tenant membership.
func (s *Service) ResolveTenant(ctx context.Context, authID string) (*Membership, error) {
	user, err := s.repo.FindUserByAuthID(ctx, authID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is not set up")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	if user.Status != enums.UserStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}
	m := membershipFromUser(*user)
	return &m, nil
}

func (s *Service) Tenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.repo.FindTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load tenant")
	}
	return tenant, nil
}

func (s *Service) Members(ctx context.Context, tenantID uuid.UUID) ([]Membership, error) {
	users, err := s.repo.ListMembers(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list members")
	}
	out := make([]Membership, 0, len(users))
	for _, u := range users {
		out = append(out, membershipFromUser(u))
	}
	return out, nil
}

type OnboardingInput struct {
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Category    *string
	SKUScale    *string
	SeedSamples bool
}

// CompleteOnboarding stores the survey answers and marks the user onboarded.
// Sample data is best effort: a failed sample is logged and skipped.
func (s *Service) CompleteOnboarding(ctx context.Context, m Membership, input OnboardingInput) error {
	if m.OnboardingCompleted {
		return nil
	}
	category, err := answer("category", input.Category)
	if err != nil {
		return err
	}
	scale, err := answer("sku_scale", input.SKUScale)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateTenant(ctx, m.TenantID, map[string]any{
			"category":   category,
			"sku_scale":  scale,
			"updated_at": now,
		}); err != nil {
			return err
		}
		return txRepo.UpdateUser(ctx, m.UserID, map[string]any{
			"onboarding_completed": true,
			"updated_at":           now,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete onboarding")
	}

	if input.SeedSamples && s.samples {
		if seedErr := s.seedSamples(ctx, m); seedErr != nil {
			s.logg.Error(s.logg.WithTenantID(ctx, m.TenantID.String()), "tenant.onboarding.samples_failed", seedErr)
		}
	}
	s.logg.Info(s.logg.WithTenantID(ctx, m.TenantID.String()), "tenant.onboarding.completed")
	return nil
}

func answer(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxAnswerLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be at most %d characters", field, maxAnswerLength)
	}
	return &trimmed, nil
}

// seedSamples creates the demo catalog through the normal product path so
// every sample gets its inventory row and import log, then adds the two
// demo storefronts.
func (s *Service) seedSamples(ctx context.Context, m Membership) error {
	var errs error
	threshold := sampleAlertThreshold
	for _, p := range sampleProducts {
		price, cost := p.price(), p.cost()
		stock := p.Stock
		_, err := s.catalog.CreateProduct(ctx, m.TenantID, catalog.CreateProductInput{
			Name:           p.Name,
			Category:       &p.Category,
			SKUCode:        &p.SKUCode,
			Price:          &price,
			Cost:           &cost,
			InitialStock:   &stock,
			AlertThreshold: &threshold,
			OperatorID:     &m.UserID,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sample %s: %w", p.SKUCode, err))
		}
	}

	now := s.now()
	channels := make([]models.Channel, 0, len(sampleChannels))
	for _, c := range sampleChannels {
		shopID := c.ShopID
		channels = append(channels, models.Channel{
			TenantID:            m.TenantID,
			Platform:            c.Platform,
			ShopName:            c.ShopName,
			ShopID:              &shopID,
			SyncMode:            c.SyncMode,
			SyncIntervalMinutes: sampleSyncInterval,
			DeductOn:            c.DeductOn,
			ReturnAutoRestore:   true,
			Status:              enums.ChannelStatusConnected,
			LastSyncAt:          &now,
		})
	}
	if err := s.repo.CreateChannels(ctx, channels); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("sample channels: %w", err))
	}
	return errs
}
