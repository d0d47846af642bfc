// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from the concrete commerce backend.
package port

import (
	"context"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"
)

// IdentityStore looks up and creates customer accounts. An account's email
// is unique across the store.
type IdentityStore interface {
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	// GetAccountByEmail returns nil (no error) when no account has the email.
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	// CreateAccount registers a new account with the given plaintext
	// credential and returns it with its assigned ID. The backend owns the
	// hashing, so the credential works for the store's own login.
	CreateAccount(ctx context.Context, account *domain.Account, password string) (*domain.Account, error)
}

// ProfileStore persists billing metadata per account.
type ProfileStore interface {
	// GetBillingProfile returns nil (no error) when no profile exists yet.
	GetBillingProfile(ctx context.Context, accountID string) (*domain.BillingProfile, error)
	// UpsertBillingProfile overwrites the stored profile wholesale.
	UpsertBillingProfile(ctx context.Context, profile *domain.BillingProfile) error
}

// CartService exposes the active session's cart.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.CartSnapshot, error)
	ClearCart(ctx context.Context, sessionID string) error
}

// OrderService creates orders from a draft. The backend recomputes totals
// from the draft's line items and applies the draft's status.
type OrderService interface {
	CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.Order, error)
}

// ProductCatalog retrieves catalog products.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	// GetProductBySKU returns the first product matching the SKU.
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
