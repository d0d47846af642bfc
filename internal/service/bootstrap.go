package service

import (
	"context"
	"fmt"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var bootstrapTracer = otel.Tracer("service/bootstrap")

// BootstrapService assembles the page bootstrap payload: the inquiry
// endpoint, a fresh form token and prefill data for logged-in visitors.
type BootstrapService struct {
	identity port.IdentityStore
	profiles port.ProfileStore
	sessions *SessionService
	cache    port.Cache[*domain.BootstrapUserData]
	metrics  *observability.Metrics
	logger   *zap.Logger

	endpointURL string
}

// NewBootstrapService creates the bootstrap service. endpointURL is the
// public URL the storefront posts inquiries to.
func NewBootstrapService(identity port.IdentityStore, profiles port.ProfileStore, sessions *SessionService, cache port.Cache[*domain.BootstrapUserData], endpointURL string, metrics *observability.Metrics, logger *zap.Logger) *BootstrapService {
	return &BootstrapService{
		identity:    identity,
		profiles:    profiles,
		sessions:    sessions,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		endpointURL: endpointURL,
	}
}

// ============================================================
// Bootstrap — GET /v1/bootstrap
// ============================================================

// Bootstrap returns the page data for the given session. Prefill data is
// cached per account; account and profile reads fan out concurrently on a
// cache miss.
func (s *BootstrapService) Bootstrap(ctx context.Context, sess domain.Session) (*domain.BootstrapData, error) {
	ctx, span := bootstrapTracer.Start(ctx, "BootstrapService.Bootstrap")
	defer span.End()

	token, err := s.sessions.IssueFormToken(sess.ID)
	if err != nil {
		return nil, fmt.Errorf("issue form token: %w", err)
	}

	data := &domain.BootstrapData{
		EndpointURL: s.endpointURL,
		FormToken:   token,
		LoggedIn:    sess.Authenticated(),
	}
	if !sess.Authenticated() {
		return data, nil
	}

	userData, err := s.userData(ctx, sess.AccountID)
	if err != nil {
		return nil, err
	}
	data.UserData = userData
	return data, nil
}

func (s *BootstrapService) userData(ctx context.Context, accountID string) (*domain.BootstrapUserData, error) {
	if cached, ok := s.cache.Get(accountID); ok {
		s.metrics.IncrCacheHit("bootstrap")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("bootstrap")

	var (
		account *domain.Account
		profile *domain.BillingProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		account, err = s.identity.GetAccount(gctx, accountID)
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		profile, err = s.profiles.GetBillingProfile(gctx, accountID)
		if err != nil {
			return fmt.Errorf("get billing profile: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	userData := &domain.BootstrapUserData{
		LastName: profileField(profile, func(p *domain.BillingProfile) string { return p.LastName }),
		Phone:    profileField(profile, func(p *domain.BillingProfile) string { return p.Phone }),
		Company:  profileField(profile, func(p *domain.BillingProfile) string { return p.Company }),
		Email:    account.Email,
	}

	// First name falls back to the login when the profile has none.
	userData.FirstName = profileField(profile, func(p *domain.BillingProfile) string { return p.FirstName })
	if userData.FirstName == "" {
		userData.FirstName = account.Login
	}

	s.cache.Set(accountID, userData)

	s.logger.Debug("bootstrap prefill assembled",
		zap.String("account_id", accountID),
	)
	return userData, nil
}

// profileField reads a field from a possibly-nil profile.
func profileField(p *domain.BillingProfile, get func(*domain.BillingProfile) string) string {
	if p == nil {
		return ""
	}
	return get(p)
}
